// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat in line mode, without the full-screen interface",
		Long: `Line-mode chat with input history (Up/Down). Replies are printed as they
stream in. Type "exit" or press Ctrl+D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd, flags)
		},
	}
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for line-mode chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	c := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	c.LoadHistory()
	return c
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history with secure permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	// SECURITY: prompts may contain anything the user typed.
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

func runREPL(cmd *cobra.Command, flags *globalFlags) error {
	cfg, _, err := loadConfig(flags)
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

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	box := cloud.NewMailbox(ctx)
	out := cmd.OutOrStdout()

	if !conv.IsEmpty() {
		fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("%d saved entries, see \"rigchat history\"", conv.Len())))
	}
	if !client.IsConfigured() {
		fmt.Fprintln(out, ErrorStyle.Render(cloud.ErrNotConfigured.Error()+": set RIGCHAT_API_KEY or api.api_key"))
	}

	input := NewChatCLI()
	defer input.Close()

	for {
		line, err := input.ReadInput("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}

		if err := client.Wait(ctx); err != nil {
			return err
		}
		conv.Append(model.RoleUser, line)
		messages := cloud.MessagesFrom(conv.Entries(), cfg.API.SendSystemMessages)
		go client.Stream(ctx, messages, box.Sender())

		if err := printTurn(ctx, out, box, conv, cfg.UI); err != nil {
			return err
		}
		if err := store.Save(conv.Entries()); err != nil {
			log.Printf("cli: save conversation: %v", err)
			fmt.Fprintln(out, ErrorStyle.Render(fmt.Sprintf("could not save conversation: %v", err)))
		}
	}
}

// printTurn prints one turn's events as they arrive, folding them into conv,
// and returns after the done event.
func printTurn(ctx context.Context, w io.Writer, box *cloud.Mailbox, conv *model.Conversation, ui config.UIConfig) error {
	for {
		ev, ok := box.Recv(ctx)
		if !ok {
			return ctx.Err()
		}
		switch ev.Kind {
		case cloud.EventStart:
			conv.Append(ev.Role, "")
			fmt.Fprintf(w, "%s: ", roleLabel(ui, ev.Role))
		case cloud.EventContent:
			if !conv.AppendToLast(ev.Text) {
				conv.Append(model.RoleAssistant, ev.Text)
			}
			fmt.Fprint(w, ev.Text)
		case cloud.EventDone:
			fmt.Fprintln(w)
			return nil
		}
	}
}
