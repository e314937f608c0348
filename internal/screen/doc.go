// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package screen implements the double-buffered cell grid that rigchat draws
// into.
//
// Each frame is built in a back Buffer, compared cell by cell against the
// front Buffer (what the terminal currently shows), and only the differing
// cells are written out as cursor-move, color-set and print sequences.
//
// # Key Types
//
//   - Cell: one glyph with foreground and background colors
//   - Buffer: a width x height grid of cells
//   - Position, Region: row-major selection spans
//   - Renderer: owns the front/back pair and writes diffs to a terminal
//
// # Usage
//
//	r := screen.NewRenderer(os.Stdout, 80, 24)
//	r.Back().PutLine(0, nil, nil, "hello")
//	r.Render()
//	r.Flush()
package screen
