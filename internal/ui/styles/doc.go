// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the role colors for rigchat.
//
// Colors are declared as Lip Gloss AdaptiveColors, so one palette serves
// light and dark terminals, and are resolved to termenv colors for the
// cell renderer using the terminal's color profile.
//
// # Usage
//
//	theme := styles.NewTheme(cfg.UI)
//	fg := theme.RoleColor(model.RoleAssistant)
package styles
