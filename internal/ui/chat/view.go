// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/screen"
	"github.com/jeranaias/rigchat/internal/util"
)

const (
	// entryPrefix marks the first line of every conversation entry.
	entryPrefix = "■  "

	separatorGlyph = "—"
)

// paneLine is one wrapped row of the conversation pane.
type paneLine struct {
	text string
	fg   termenv.Color
}

// paneHeight is the number of rows left for the conversation once the
// separator and input line are placed.
func paneHeight(height int) int {
	if height < 2 {
		return 0
	}
	return height - 2
}

// paneLines wraps every entry to width, oldest first.
func (m *Model) paneLines(width int) []paneLine {
	var lines []paneLine
	m.conv.Each(func(_ int, e model.Entry) {
		fg := m.theme.RoleColor(e.Role)
		for _, row := range util.Wrap(entryPrefix+e.Content, width) {
			lines = append(lines, paneLine{text: row, fg: fg})
		}
	})
	return lines
}

// maxScroll is the largest offset that still keeps the pane full.
func (m *Model) maxScroll() int {
	lines := m.paneLines(m.renderer.Width())
	return max(len(lines)-paneHeight(m.renderer.Height()), 0)
}

func (m *Model) scrollBy(n int) {
	m.scroll = min(max(m.scroll+n, 0), m.maxScroll())
}

// layout draws the whole frame into buf and returns the cursor column on
// the input row.
func (m *Model) layout(buf *screen.Buffer) int {
	w, h := buf.Width(), buf.Height()
	if w == 0 || h == 0 {
		return 0
	}

	// Conversation, bottom-aligned.
	pane := paneHeight(h)
	lines := m.paneLines(w)
	m.scroll = min(max(m.scroll, 0), max(len(lines)-pane, 0))
	end := len(lines) - m.scroll
	start := max(end-pane, 0)
	row := pane - (end - start)
	for _, l := range lines[start:end] {
		buf.PutLine(row, l.fg, nil, l.text)
		row++
	}

	if h >= 2 {
		buf.PutLine(h-2, m.theme.Separator, nil, strings.Repeat(separatorGlyph, w))
	}

	// Input line. A long line shows its tail so the caret stays visible.
	// Measured in grid columns like the pane, one rune per column.
	visible := ""
	if avail := w - util.Columns(m.prompt) - 1; avail > 0 {
		visible = util.TailColumns(m.input, avail)
	}
	line := m.prompt + visible
	buf.PutLine(h-1, m.theme.Input, nil, line)

	return min(util.Columns(line), w-1)
}
