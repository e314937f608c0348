// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the rigchat packages.
//
// # Key Functions
//
// Text:
//   - Wrap: hard-wraps text into fixed-width rows, one rune per column
//   - Columns, TailColumns: grid-column measuring and clipping, one rune per column
//   - TruncateWidth: display-width aware clipping for plain text output
//   - TrimLastWord: word deletion for line editing
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	rows := util.Wrap("■  hello world", 8)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
