// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/screen"
	"github.com/jeranaias/rigchat/internal/ui/chat"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// runTUI starts the full-screen interface.
func runTUI(cmd *cobra.Command, flags *globalFlags) error {
	if !CanRunFullScreen() {
		return runREPL(cmd, flags)
	}

	cfg, cfgPath, err := loadConfig(flags)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	store, conv, err := openConversation(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	box := cloud.NewMailbox(ctx)

	profile := lipgloss.ColorProfile()
	out := termenv.NewOutput(os.Stdout, termenv.WithProfile(profile))
	guard := chat.NewTerminalGuard(out, cfg.UI.AltScreen, cfg.UI.Mouse)

	width, height := GetTerminalSize()
	renderer := screen.NewRenderer(os.Stdout, width, height, termenv.WithProfile(profile))

	m := chat.New(chat.Options{
		Streamer:     client,
		Saver:        store,
		Mailbox:      box,
		Conversation: conv,
		Renderer:     renderer,
		UI:           cfg.UI,
		SendSystem:   cfg.API.SendSystemMessages,
		Theme:        styles.NewTheme(cfg.UI),
		Context:      ctx,
	})
	p := tea.NewProgram(m, tea.WithoutRenderer(), tea.WithContext(ctx))

	watcher, err := config.Watch(cfgPath, config.DefaultWatchDebounce, func(next *config.Config, err error) {
		p.Send(chat.ConfigChangedMsg{Config: next, Err: err})
	})
	if err != nil {
		log.Printf("cli: config watch disabled: %v", err)
	} else {
		defer watcher.Close()
	}

	log.Printf("cli: starting %dx%d, model %s, %d saved entries", width, height, client.Model(), conv.Len())

	guard.Acquire()
	defer guard.Release()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
