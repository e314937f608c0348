// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

import (
	"bufio"
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// =============================================================================
// DIFF
// =============================================================================

// OpKind identifies a terminal operation produced by Diff.
type OpKind int

const (
	OpSetBackground OpKind = iota
	OpSetForeground
	OpMoveCursor
	OpPrint
)

// String returns a short name for the operation kind.
func (k OpKind) String() string {
	switch k {
	case OpSetBackground:
		return "bg"
	case OpSetForeground:
		return "fg"
	case OpMoveCursor:
		return "move"
	case OpPrint:
		return "print"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one terminal operation. Color is set for the color kinds, Row and
// Col for moves, Glyph for prints.
type Op struct {
	Kind  OpKind
	Row   int
	Col   int
	Color termenv.Color
	Glyph rune
}

// Diff returns the operations that turn the screen showing front into one
// showing back. Only differing cells produce output, visited row-major. A
// color is set only when it differs from the last color emitted in this
// pass; before the first set the terminal's colors are treated as unknown.
// Buffers of different sizes are a caller bug and panic.
func Diff(front, back *Buffer) []Op {
	if front.width != back.width || front.height != back.height {
		panic(fmt.Sprintf("screen: diff of %dx%d against %dx%d",
			front.width, front.height, back.width, back.height))
	}

	var ops []Op
	var fg, bg termenv.Color
	for r := 0; r < back.height; r++ {
		for c := 0; c < back.width; c++ {
			cell := back.grid[r][c]
			if cell == front.grid[r][c] {
				continue
			}
			if bg == nil || cell.Bg != bg {
				bg = cell.Bg
				ops = append(ops, Op{Kind: OpSetBackground, Color: bg})
			}
			if fg == nil || cell.Fg != fg {
				fg = cell.Fg
				ops = append(ops, Op{Kind: OpSetForeground, Color: fg})
			}
			ops = append(ops,
				Op{Kind: OpMoveCursor, Row: r, Col: c},
				Op{Kind: OpPrint, Row: r, Col: c, Glyph: cell.Glyph},
			)
		}
	}
	return ops
}

// =============================================================================
// RENDERER
// =============================================================================

// Renderer owns a front/back buffer pair and writes diffs between them to a
// terminal. Callers draw into Back, then call Render and Flush once per
// frame. Output is buffered until Flush.
type Renderer struct {
	w       *bufio.Writer
	out     *termenv.Output
	buffers [2]*Buffer
	back    int
}

// NewRenderer creates a renderer of the given size writing to w. The front
// buffer starts blank, matching a freshly cleared screen.
func NewRenderer(w io.Writer, width, height int, opts ...termenv.OutputOption) *Renderer {
	bw := bufio.NewWriterSize(w, 32*1024)
	return &Renderer{
		w:       bw,
		out:     termenv.NewOutput(bw, opts...),
		buffers: [2]*Buffer{NewBuffer(width, height), NewBuffer(width, height)},
	}
}

// Back returns the buffer for the frame being built.
func (r *Renderer) Back() *Buffer { return r.buffers[r.back] }

// Front returns the buffer holding what the terminal currently shows.
func (r *Renderer) Front() *Buffer { return r.buffers[1-r.back] }

// Width returns the frame width.
func (r *Renderer) Width() int { return r.buffers[0].width }

// Height returns the frame height.
func (r *Renderer) Height() int { return r.buffers[0].height }

// Render writes the diff from front to back, swaps the buffers, and clears
// the new back buffer for the next frame. It returns the number of cells
// that changed.
func (r *Renderer) Render() int {
	front, back := r.Front(), r.Back()
	changed := 0
	for _, op := range Diff(front, back) {
		if op.Kind == OpPrint {
			changed++
		}
		r.write(op)
	}
	r.back = 1 - r.back
	r.Back().Clear()
	return changed
}

func (r *Renderer) write(op Op) {
	switch op.Kind {
	case OpSetBackground:
		r.w.WriteString(sgr(op.Color, true))
	case OpSetForeground:
		r.w.WriteString(sgr(op.Color, false))
	case OpMoveCursor:
		r.out.MoveCursor(op.Row+1, op.Col+1)
	case OpPrint:
		r.w.WriteRune(op.Glyph)
	}
}

// sgr returns the select-graphic-rendition sequence for c. The reset color
// maps to the default-color codes 39/49.
func sgr(c termenv.Color, bg bool) string {
	if _, ok := c.(termenv.NoColor); ok || c == nil {
		if bg {
			return termenv.CSI + "49m"
		}
		return termenv.CSI + "39m"
	}
	return termenv.CSI + c.Sequence(bg) + "m"
}

// Resize resizes both buffers, erases the terminal, and blanks the front
// buffer so the next Render repaints everything that is not blank.
func (r *Renderer) Resize(width, height int) {
	for _, b := range r.buffers {
		b.Resize(width, height)
	}
	r.ClearScreen()
}

// ClearScreen erases the terminal and forgets what the front buffer held.
func (r *Renderer) ClearScreen() {
	r.w.WriteString(sgr(termenv.NoColor{}, true))
	r.w.WriteString(sgr(termenv.NoColor{}, false))
	r.out.ClearScreen()
	r.Front().Clear()
}

// MoveCursor queues a cursor move to the zero-based (row, col).
func (r *Renderer) MoveCursor(row, col int) {
	r.out.MoveCursor(row+1, col+1)
}

// Flush writes all queued output to the terminal.
func (r *Renderer) Flush() error {
	return r.w.Flush()
}
