// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// ROLE COLORS
// =============================================================================

// Blue - assistant replies
var Blue = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}

// Green - user entries
var Green = lipgloss.AdaptiveColor{Light: "2", Dark: "10"}

// Red - system notices and errors
var Red = lipgloss.AdaptiveColor{Light: "1", Dark: "9"}

// Ink - the input line
var Ink = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}

// Rule - the separator above the input
var Rule = lipgloss.AdaptiveColor{Light: "245", Dark: "240"}

// Highlight - selection background
var Highlight = lipgloss.AdaptiveColor{Light: "#C8D3F5", Dark: "#44475A"}

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of adaptive colors the UI draws with.
type Palette struct {
	User      lipgloss.AdaptiveColor
	Assistant lipgloss.AdaptiveColor
	System    lipgloss.AdaptiveColor
	Input     lipgloss.AdaptiveColor
	Separator lipgloss.AdaptiveColor
	Selection lipgloss.AdaptiveColor
}

// DefaultPalette returns the built-in colors.
func DefaultPalette() Palette {
	return Palette{
		User:      Green,
		Assistant: Blue,
		System:    Red,
		Input:     Ink,
		Separator: Rule,
		Selection: Highlight,
	}
}

// WithOverrides replaces every color set in c. An override applies to both
// light and dark backgrounds.
func (p Palette) WithOverrides(c config.ColorConfig) Palette {
	set := func(dst *lipgloss.AdaptiveColor, v string) {
		if v != "" {
			*dst = lipgloss.AdaptiveColor{Light: v, Dark: v}
		}
	}
	set(&p.User, c.User)
	set(&p.Assistant, c.Assistant)
	set(&p.System, c.System)
	set(&p.Input, c.Input)
	set(&p.Separator, c.Separator)
	set(&p.Selection, c.Selection)
	return p
}

// Role returns the adaptive color for role.
func (p Palette) Role(role model.Role) lipgloss.AdaptiveColor {
	switch role {
	case model.RoleUser:
		return p.User
	case model.RoleSystem:
		return p.System
	default:
		return p.Assistant
	}
}

// RoleStyle returns a bold Lip Gloss style for a role label, used by the
// line-mode commands.
func (p Palette) RoleStyle(role model.Role) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(p.Role(role)).Bold(true)
}
