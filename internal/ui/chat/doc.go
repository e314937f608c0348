// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat interface for rigchat.
//
// The Bubble Tea program runs without its own renderer. Instead, every
// frame tick the Model drains a bounded number of streaming events from the
// mailbox, lays out the conversation into the back buffer of a
// screen.Renderer, and lets the renderer write only the cells that changed.
//
// # Layout
//
//	rows 0..h-3   conversation, newest at the bottom
//	row  h-2      separator
//	row  h-1      input line
//
// # Key Bindings
//
//   - Enter: send the input line
//   - Backspace: delete one character
//   - Alt+Backspace, Ctrl+W: delete the last word
//   - Ctrl+U: clear the input line
//   - Ctrl+P / Ctrl+N, mouse wheel: scroll
//   - PgUp / PgDn: scroll one page
//   - Ctrl+C: quit
//
// Dragging with the left mouse button selects text; releasing copies it to
// the system clipboard.
package chat
