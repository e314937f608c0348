// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/muesli/termenv"
)

// TerminalGuard switches the terminal into the state the chat screen needs
// and restores it afterwards. Bubble Tea handles raw mode; the guard handles
// what the program's disabled renderer would otherwise have done.
type TerminalGuard struct {
	out       *termenv.Output
	altScreen bool
	mouse     bool

	mu       sync.Mutex
	acquired bool
}

// NewTerminalGuard creates a guard writing to out.
func NewTerminalGuard(out *termenv.Output, altScreen, mouse bool) *TerminalGuard {
	return &TerminalGuard{out: out, altScreen: altScreen, mouse: mouse}
}

// Acquire enters the alternate screen and enables mouse reporting.
// Calling it twice has no further effect.
func (g *TerminalGuard) Acquire() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.acquired {
		return
	}
	g.acquired = true

	if g.altScreen {
		g.out.AltScreen()
	}
	g.out.ClearScreen()
	if g.mouse {
		g.out.EnableMouseCellMotion()
		g.out.EnableMouseExtendedMode()
	}
}

// Release undoes Acquire. It is safe to defer unconditionally.
func (g *TerminalGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.acquired {
		return
	}
	g.acquired = false

	if g.mouse {
		g.out.DisableMouseExtendedMode()
		g.out.DisableMouseCellMotion()
	}
	g.out.Reset()
	g.out.ShowCursor()
	if g.altScreen {
		g.out.ExitAltScreen()
	}
}
