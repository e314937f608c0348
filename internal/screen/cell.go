// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import "github.com/muesli/termenv"

// Cell is one addressable character position. Cells are plain values and
// compare with ==; every termenv color type is comparable.
type Cell struct {
	Fg    termenv.Color
	Bg    termenv.Color
	Glyph rune
}

// DefaultCell is a blank cell in the terminal's reset colors.
func DefaultCell() Cell {
	return Cell{Fg: termenv.NoColor{}, Bg: termenv.NoColor{}, Glyph: ' '}
}

// normalize replaces nil colors with the reset color so a cell stored in a
// buffer never holds a nil interface.
func (c Cell) normalize() Cell {
	if c.Fg == nil {
		c.Fg = termenv.NoColor{}
	}
	if c.Bg == nil {
		c.Bg = termenv.NoColor{}
	}
	if c.Glyph == 0 {
		c.Glyph = ' '
	}
	return c
}
