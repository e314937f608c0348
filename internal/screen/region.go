// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package screen

// Position is a zero-based (row, column) coordinate.
type Position struct {
	Row int
	Col int
}

// Before reports whether p comes strictly before q in row-major order.
func (p Position) Before(q Position) bool {
	if p.Row != q.Row {
		return p.Row < q.Row
	}
	return p.Col < q.Col
}

// Region is a span between two positions that flows across row
// boundaries like a text selection, not a rectangle: rows strictly between
// Start and End are covered in full. Start never comes after End.
type Region struct {
	Start Position
	End   Position
}

// NewRegion builds a normalized region from two endpoints given in either
// order, so forward and backward drags produce the same region.
func NewRegion(a, b Position) Region {
	if b.Before(a) {
		a, b = b, a
	}
	return Region{Start: a, End: b}
}

// Contains reports whether p lies within the region, endpoints included.
func (r Region) Contains(p Position) bool {
	return !p.Before(r.Start) && !r.End.Before(p)
}

// Empty reports whether the region covers a single cell.
func (r Region) Empty() bool {
	return r.Start == r.End
}

// Rows returns the inclusive range of rows the region covers, clipped to
// a grid of the given height. first > last when nothing is left.
func (r Region) Rows(height int) (first, last int) {
	return max(r.Start.Row, 0), min(r.End.Row, height-1)
}
