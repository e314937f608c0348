// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestTerminalGuard(t *testing.T) {
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii))
	g := NewTerminalGuard(out, true, true)

	g.Acquire()
	g.Acquire()
	s := buf.String()
	if n := strings.Count(s, termenv.CSI+termenv.AltScreenSeq); n != 1 {
		t.Errorf("Expected alt screen entered once, got %d", n)
	}
	if !strings.Contains(s, termenv.CSI+termenv.EnableMouseCellMotionSeq) {
		t.Error("Expected mouse cell motion enabled")
	}

	buf.Reset()
	g.Release()
	g.Release()
	s = buf.String()
	if n := strings.Count(s, termenv.CSI+termenv.ExitAltScreenSeq); n != 1 {
		t.Errorf("Expected alt screen exited once, got %d", n)
	}
	if !strings.Contains(s, termenv.CSI+termenv.DisableMouseCellMotionSeq) {
		t.Error("Expected mouse cell motion disabled")
	}
}

func TestTerminalGuardWithoutAltScreen(t *testing.T) {
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(termenv.Ascii))
	g := NewTerminalGuard(out, false, false)

	g.Acquire()
	defer g.Release()
	if strings.Contains(buf.String(), termenv.AltScreenSeq) {
		t.Error("Expected alt screen to stay off")
	}
	if strings.Contains(buf.String(), termenv.EnableMouseCellMotionSeq) {
		t.Error("Expected mouse reporting to stay off")
	}
}
