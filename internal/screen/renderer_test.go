// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countKind(ops []Op, kind OpKind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// randomBuffer fills a buffer from a small alphabet so neighbouring cells
// often share colors.
func randomBuffer(rng *rand.Rand, w, h int) *Buffer {
	colors := []termenv.Color{termenv.NoColor{}, red, green, termenv.RGBColor("#112233")}
	glyphs := []rune("ab ■")
	b := NewBuffer(w, h)
	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			b.SetCell(r, c, Cell{
				Fg:    colors[rng.Intn(len(colors))],
				Bg:    colors[rng.Intn(len(colors))],
				Glyph: glyphs[rng.Intn(len(glyphs))],
			})
		}
	}
	return b
}

func TestDiffIdempotent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		front := randomBuffer(rng, 9, 5)
		back := randomBuffer(rng, 9, 5)

		applyOps(front, Diff(front, back))
		require.True(t, sameCells(front, back), "iteration %d: diff did not reproduce the frame", i)
		assert.Empty(t, Diff(front, back), "iteration %d: second diff must be empty", i)
	}
}

func TestDiffOnlyChangedCells(t *testing.T) {
	front := NewBuffer(4, 2)
	back := NewBuffer(4, 2)
	back.PutLine(1, red, nil, "x")
	back.SetCell(0, 3, Cell{Glyph: 'y'})

	ops := Diff(front, back)
	require.Equal(t, 2, countKind(ops, OpPrint))

	var prints []Op
	for _, op := range ops {
		if op.Kind == OpPrint {
			prints = append(prints, op)
		}
	}
	// Row-major order.
	assert.Equal(t, Op{Kind: OpPrint, Row: 0, Col: 3, Glyph: 'y'}, prints[0])
	assert.Equal(t, Op{Kind: OpPrint, Row: 1, Col: 0, Glyph: 'x'}, prints[1])
}

func TestDiffColorSetsOnlyOnChange(t *testing.T) {
	front := NewBuffer(6, 1)
	back := NewBuffer(6, 1)
	back.PutLine(0, red, nil, "aaa")
	back.SetCell(0, 3, Cell{Fg: green, Glyph: 'b'})
	back.SetCell(0, 4, Cell{Fg: green, Glyph: 'b'})
	back.SetCell(0, 5, Cell{Fg: red, Glyph: 'c'})

	ops := Diff(front, back)
	assert.Equal(t, 6, countKind(ops, OpPrint))
	// red, green, red
	assert.Equal(t, 3, countKind(ops, OpSetForeground))
	// Background never changes after the first set.
	assert.Equal(t, 1, countKind(ops, OpSetBackground))

	assert.Equal(t, OpSetBackground, ops[0].Kind)
	assert.Equal(t, OpSetForeground, ops[1].Kind)
	assert.Equal(t, OpMoveCursor, ops[2].Kind)
	assert.Equal(t, OpPrint, ops[3].Kind)
}

func TestDiffMismatchedSizePanics(t *testing.T) {
	assert.Panics(t, func() { Diff(NewBuffer(2, 2), NewBuffer(3, 2)) })
	assert.Panics(t, func() { Diff(NewBuffer(2, 2), NewBuffer(2, 1)) })
}

func TestRendererSwapsAndClears(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, 10, 3, termenv.WithProfile(termenv.ANSI))

	r.Back().PutLine(0, red, nil, "hello")
	changed := r.Render()
	require.NoError(t, r.Flush())

	assert.Equal(t, 5, changed)
	assert.Equal(t, "hello     ", rowText(r.Front(), 0))
	assert.True(t, sameCells(r.Back(), NewBuffer(10, 3)), "new back buffer must be cleared")
	assert.Contains(t, out.String(), termenv.CSI+"31m")
	assert.Contains(t, out.String(), termenv.CSI+"1;1H")

	// Same frame again: nothing to write.
	out.Reset()
	r.Back().PutLine(0, red, nil, "hello")
	assert.Equal(t, 0, r.Render())
	require.NoError(t, r.Flush())
	assert.Empty(t, out.String())

	// Dropping the text erases exactly those cells.
	assert.Equal(t, 5, r.Render())
	require.NoError(t, r.Flush())
	assert.Contains(t, out.String(), termenv.CSI+"39m")
	assert.Contains(t, out.String(), termenv.CSI+"49m")
}

func TestRendererResizeRepaints(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, 4, 2, termenv.WithProfile(termenv.ANSI))
	r.Back().PutLine(0, nil, nil, "ab")
	r.Render()

	r.Resize(6, 3)
	require.Equal(t, 6, r.Width())
	require.Equal(t, 3, r.Height())
	assert.True(t, sameCells(r.Front(), NewBuffer(6, 3)), "front must be blank after resize")

	r.Back().PutLine(0, nil, nil, "ab")
	assert.Equal(t, 2, r.Render())
	require.NoError(t, r.Flush())
	assert.Contains(t, out.String(), termenv.CSI+"2J")
	assert.True(t, strings.HasSuffix(out.String(), "b"))
}

// applyOps replays ops onto buf as a terminal would, tracking the active
// colors and cursor.
func applyOps(buf *Buffer, ops []Op) {
	var fg, bg termenv.Color = termenv.NoColor{}, termenv.NoColor{}
	var row, col int
	for _, op := range ops {
		switch op.Kind {
		case OpSetBackground:
			bg = op.Color
		case OpSetForeground:
			fg = op.Color
		case OpMoveCursor:
			row, col = op.Row, op.Col
		case OpPrint:
			buf.SetCell(row, col, Cell{Fg: fg, Bg: bg, Glyph: op.Glyph})
			col++
		}
	}
}

// sameCells reports whether a and b have the same dimensions and cells.
func sameCells(a, b *Buffer) bool {
	if a.Width() != b.Width() || a.Height() != b.Height() {
		return false
	}
	for r := 0; r < a.Height(); r++ {
		for c := 0; c < a.Width(); c++ {
			if a.Cell(r, c) != b.Cell(r, c) {
				return false
			}
		}
	}
	return true
}
