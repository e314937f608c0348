// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the conversation log shared by the UI, the
// transport client, and the storage backends.
//
// # Key Types
//
//   - Role: sender of an entry (user, assistant, system)
//   - Entry: one role-tagged block of text
//   - Conversation: ordered, append-only list of entries
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.Append(model.RoleUser, "Hello!")
//	conv.Append(model.RoleAssistant, "")
//	conv.AppendToLast("Hi")
package model
