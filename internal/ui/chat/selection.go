// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/rigchat/internal/screen"
)

// selection tracks a mouse drag. The region stays visible after release
// until the next press or key.
type selection struct {
	dragging bool
	visible  bool
	anchor   screen.Position
	region   screen.Region
}

func (s *selection) press(p screen.Position) {
	s.dragging = true
	s.visible = true
	s.anchor = p
	s.region = screen.NewRegion(p, p)
}

func (s *selection) extend(p screen.Position) {
	if !s.dragging {
		return
	}
	s.region = screen.NewRegion(s.anchor, p)
}

// release ends the drag and returns the final region. ok is false when no
// drag was in progress.
func (s *selection) release(p screen.Position) (region screen.Region, ok bool) {
	if !s.dragging {
		return screen.Region{}, false
	}
	s.extend(p)
	s.dragging = false
	return s.region, true
}

func (s *selection) clear() {
	*s = selection{}
}
