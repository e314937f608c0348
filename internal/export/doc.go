// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes the saved conversation to shareable formats.
//
// # Formats
//
//   - markdown: YAML front matter, one section per entry
//   - html: a standalone page with embedded CSS
//   - json: the same records the JSON store persists, so an export can be
//     used as a --conversation file
//
// # Usage
//
//	doc := export.Document{Title: "Chat", Model: "gpt-4o", Entries: entries}
//	path, err := export.ExportToFile(doc, export.NewMarkdownExporter(nil), opts)
package export
