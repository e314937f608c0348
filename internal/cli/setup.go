// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/storage"
)

// =============================================================================
// CONFIG
// =============================================================================

// loadConfig loads the effective config and applies the command-line
// overrides. It also returns the path that was (or would be) read, for the
// file watcher.
func loadConfig(flags *globalFlags) (*config.Config, string, error) {
	path, err := config.ResolvePath(flags.configPath)
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, "", err
	}
	if flags.conversation != "" {
		cfg.Storage.Path = flags.conversation
		cfg.Storage.Backend = backendFor(flags.conversation)
	}
	if flags.model != "" {
		cfg.API.Model = flags.model
	}
	return cfg, path, nil
}

// backendFor picks the storage backend from a file extension.
func backendFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return storage.BackendSQLite
	default:
		return storage.BackendJSON
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// setupLogging sends the standard logger to the configured file. The
// returned function closes it.
func setupLogging(cfg *config.Config) (func(), error) {
	if !cfg.Logging.Enabled {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0700); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := tea.LogToFile(cfg.Logging.File, "rigchat")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return func() { f.Close() }, nil
}

// =============================================================================
// CLIENT AND STORAGE
// =============================================================================

// newClient builds the streaming client from the [api] section.
func newClient(cfg *config.Config) (*cloud.Client, error) {
	opts := cloud.DefaultOptions()
	opts.Host = cfg.API.Host
	opts.Port = cfg.API.Port
	opts.Path = cfg.API.Path
	opts.Model = cfg.API.Model
	opts.APIKey = cfg.API.APIKey
	opts.CAFile = cfg.API.CAFile
	opts.RequestsPerMinute = cfg.API.RequestsPerMinute
	opts.UserAgent = "rigchat/" + Version
	if cfg.API.ReadTimeoutSecs > 0 {
		opts.ReadTimeout = time.Duration(cfg.API.ReadTimeoutSecs) * time.Second
	}
	return cloud.NewClient(opts)
}

// openConversation opens the store and loads the saved log. A log that
// cannot be read is not fatal: the conversation starts with a system entry
// explaining why it is empty.
func openConversation(cfg *config.Config) (storage.Store, *model.Conversation, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open conversation: %w", err)
	}

	entries, err := store.Load()
	if err != nil {
		log.Printf("cli: %v", err)
		conv := model.NewConversation()
		conv.Append(model.RoleSystem, err.Error())
		return store, conv, nil
	}
	return store, model.NewConversationFrom(entries), nil
}
