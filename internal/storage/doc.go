// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists the conversation log between runs.
//
// The log is stored as an ordered list of role/content records and is
// rewritten in full after every completed turn.
//
// # Key Types
//
//   - Store: load/save interface shared by the backends
//   - JSONStore: single JSON file written atomically (default)
//   - SQLiteStore: one table in a SQLite database
//
// # Usage
//
//	store, err := storage.Open(storage.BackendJSON, "conversation.json")
//	entries, err := store.Load()
//	err = store.Save(conv.Entries())
package storage
