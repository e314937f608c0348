// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/rigchat/internal/config"
)

// frameMsg drives one render pass.
type frameMsg time.Time

// ConfigChangedMsg is sent when the config file is rewritten on disk. Err is
// set when the new file failed to load; the running config is kept.
type ConfigChangedMsg struct {
	Config *config.Config
	Err    error
}

// turnFinishedMsg reports the error returned by a turn's worker, for
// logging only. Its events have already been queued in the mailbox.
type turnFinishedMsg struct {
	err error
}
