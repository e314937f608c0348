// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

func init() {
	// USABILITY: no escape codes in pipes or under NO_COLOR.
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// ErrorStyle marks failures printed by line-mode commands.
	ErrorStyle = lipgloss.NewStyle().Foreground(styles.Red).Bold(true)

	// DimStyle is used for hints and counts.
	DimStyle = lipgloss.NewStyle().Foreground(styles.Rule)
)

// roleLabel renders a role's display name in its configured color.
func roleLabel(ui config.UIConfig, role model.Role) string {
	return styles.DefaultPalette().WithOverrides(ui.Colors).RoleStyle(role).Render(role.DisplayName())
}
