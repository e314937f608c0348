// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// Wrap splits text on newlines and hard-wraps every line into rows of at
// most width runes. An empty line yields one empty row, so the result always
// has at least one row. The frame grid holds one rune per column, which is
// why wrapping counts runes rather than display cells.
func Wrap(text string, width int) []string {
	if width <= 0 {
		return []string{""}
	}
	var rows []string
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(line)
		for len(runes) > width {
			rows = append(rows, string(runes[:width]))
			runes = runes[width:]
		}
		rows = append(rows, string(runes))
	}
	return rows
}

// Columns returns how many frame-grid columns s occupies: one per rune,
// the same measure Wrap uses.
func Columns(s string) int {
	return utf8.RuneCountInString(s)
}

// TailColumns returns the longest suffix of s that fits in n grid columns.
// Used by the input line so the caret end of a long line stays visible.
func TailColumns(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// TruncateWidth clips s to maxWidth display cells, appending "..." when
// there is room for it.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// TrimLastRune drops the final rune of s.
func TrimLastRune(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	return string(runes[:len(runes)-1])
}

// TrimLastWord drops the trailing run of letters and digits and then any
// whitespace left in front of it. Input ending in punctuation loses nothing
// but trailing spaces.
func TrimLastWord(s string) string {
	runes := []rune(s)
	i := len(runes)
	for i > 0 && (unicode.IsLetter(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
		i--
	}
	for i > 0 && unicode.IsSpace(runes[i-1]) {
		i--
	}
	return string(runes[:i])
}
