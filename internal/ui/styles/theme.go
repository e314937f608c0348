// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

// Theme is a Palette resolved for one terminal: concrete colors the cell
// renderer can compare and emit.
type Theme struct {
	User      termenv.Color
	Assistant termenv.Color
	System    termenv.Color
	Input     termenv.Color
	Separator termenv.Color
	Selection termenv.Color

	Dark bool
}

// NewTheme resolves the configured palette against the current terminal.
func NewTheme(ui config.UIConfig) Theme {
	palette := DefaultPalette().WithOverrides(ui.Colors)
	return palette.Resolve(lipgloss.ColorProfile(), DetectDark(ui.Theme))
}

// DetectDark reports whether to use the dark variants. "auto" asks the
// terminal for its background color.
func DetectDark(mode string) bool {
	switch strings.ToLower(mode) {
	case "dark":
		return true
	case "light":
		return false
	default:
		return lipgloss.HasDarkBackground()
	}
}

// Resolve converts every palette color for profile. Colors the profile
// cannot show (or that fail to parse) become the terminal default.
func (p Palette) Resolve(profile termenv.Profile, dark bool) Theme {
	pick := func(c lipgloss.AdaptiveColor) termenv.Color {
		s := c.Light
		if dark {
			s = c.Dark
		}
		if tc := profile.Color(s); tc != nil {
			return tc
		}
		return termenv.NoColor{}
	}
	return Theme{
		User:      pick(p.User),
		Assistant: pick(p.Assistant),
		System:    pick(p.System),
		Input:     pick(p.Input),
		Separator: pick(p.Separator),
		Selection: pick(p.Selection),
		Dark:      dark,
	}
}

// RoleColor returns the foreground for entries of role.
func (t Theme) RoleColor(role model.Role) termenv.Color {
	switch role {
	case model.RoleUser:
		return t.User
	case model.RoleSystem:
		return t.System
	default:
		return t.Assistant
	}
}
