// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the rigchat command line.
//
// # Commands
//
//   - rigchat: full-screen chat (falls back to "chat" without a terminal)
//   - rigchat chat: line-mode chat with input history
//   - rigchat history: print the saved conversation
//   - rigchat config: show, get and set configuration values
//
// Global flags --config, --conversation and --model override the file
// and environment settings for a single run.
package cli
