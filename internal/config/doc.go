// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config handles rigchat configuration.
//
// Configuration is read from ~/.rigchat/config.toml (or config.json as a
// fallback), layered over built-in defaults, then overridden by environment
// variables.
//
// # Environment Variables
//
//   - RIGCHAT_API_KEY: overrides api.api_key
//   - OPENAI_API_KEY, GPT_SECRET_KEY: used when no key is configured
//   - RIGCHAT_MODEL: overrides api.model
//   - RIGCHAT_HOST: overrides api.host
//   - RIGCHAT_CONVERSATION: overrides storage.path
//   - RIGCHAT_STORAGE: overrides storage.backend
//   - RIGCHAT_THEME: overrides ui.theme
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    ...
//	}
//	fmt.Println(cfg.API.Model)
package config
