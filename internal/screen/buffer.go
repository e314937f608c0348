// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// Buffer is a fixed-size grid of cells. len(grid) == height and every row
// has exactly width cells, including right after Resize.
type Buffer struct {
	width  int
	height int
	grid   [][]Cell
}

// NewBuffer creates a width x height buffer of default cells. Negative
// dimensions are treated as zero.
func NewBuffer(width, height int) *Buffer {
	b := &Buffer{}
	b.Resize(width, height)
	return b
}

// Width returns the number of columns.
func (b *Buffer) Width() int { return b.width }

// Height returns the number of rows.
func (b *Buffer) Height() int { return b.height }

// Cell returns the cell at (row, col). Out of range coordinates panic.
func (b *Buffer) Cell(row, col int) Cell {
	return b.grid[row][col]
}

// SetCell stores c at (row, col). Out of range coordinates panic.
func (b *Buffer) SetCell(row, col int, c Cell) {
	b.grid[row][col] = c.normalize()
}

// Clear resets every cell to the default.
func (b *Buffer) Clear() {
	blank := DefaultCell()
	for _, line := range b.grid {
		for c := range line {
			line[c] = blank
		}
	}
}

// PutLine writes text left-aligned into row, one rune per column, up to the
// buffer width. Columns past the end of text keep their contents. A nil fg
// or bg keeps the existing color of each touched cell; otherwise the color
// is applied to every touched column. Writing to a row outside the buffer
// is a caller bug and panics.
func (b *Buffer) PutLine(row int, fg, bg termenv.Color, text string) {
	if row < 0 || row >= b.height {
		panic(fmt.Sprintf("screen: PutLine row %d out of range [0,%d)", row, b.height))
	}
	line := b.grid[row]
	col := 0
	for _, r := range text {
		if col >= b.width {
			break
		}
		cell := line[col]
		cell.Glyph = r
		if fg != nil {
			cell.Fg = fg
		}
		if bg != nil {
			cell.Bg = bg
		}
		b.SetCell(row, col, cell)
		col++
	}
}

// Resize changes the dimensions. Cells at coordinates inside both the old
// and new sizes are preserved; every other cell is default.
func (b *Buffer) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	grid := make([][]Cell, height)
	blank := DefaultCell()
	for r := range grid {
		line := make([]Cell, width)
		for c := range line {
			if r < b.height && c < b.width {
				line[c] = b.grid[r][c]
			} else {
				line[c] = blank
			}
		}
		grid[r] = line
	}
	b.width, b.height, b.grid = width, height, grid
}

// RegionText extracts the glyphs covered by region. Each covered row
// contributes its contained glyphs with trailing spaces trimmed, followed
// by a newline. Rows beyond the buffer are skipped.
func (b *Buffer) RegionText(region Region) string {
	var sb strings.Builder
	first, last := region.Rows(b.height)
	for r := first; r <= last; r++ {
		var line strings.Builder
		for c := 0; c < b.width; c++ {
			if region.Contains(Position{Row: r, Col: c}) {
				line.WriteRune(b.grid[r][c].Glyph)
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Mark overwrites only the background of every cell in region. Rows past
// the buffer are clipped.
func (b *Buffer) Mark(region Region, bg termenv.Color) {
	if bg == nil {
		bg = termenv.NoColor{}
	}
	first, last := region.Rows(b.height)
	for r := first; r <= last; r++ {
		line := b.grid[r]
		for c := range line {
			if region.Contains(Position{Row: r, Col: c}) {
				line[c].Bg = bg
			}
		}
	}
}
