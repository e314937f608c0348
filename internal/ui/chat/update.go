// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/screen"
	"github.com/jeranaias/rigchat/internal/util"
)

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.renderer.Resize(msg.Width, msg.Height)
		m.sel.clear()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case ConfigChangedMsg:
		if msg.Err != nil {
			log.Printf("chat: config reload failed, keeping current settings: %v", msg.Err)
			return m, nil
		}
		if msg.Config == nil {
			return m, nil
		}
		m.theme = m.resolveTheme(msg.Config.UI)
		m.applyUI(msg.Config.UI)
		m.sendSystem = msg.Config.API.SendSystemMessages
		return m, nil

	case turnFinishedMsg:
		if msg.err != nil {
			log.Printf("chat: turn ended with error: %v", msg.err)
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// KEYBOARD
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.sel.clear()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.DeleteWord):
		m.input = util.TrimLastWord(m.input)
	case key.Matches(msg, m.keys.DeleteRune):
		m.input = util.TrimLastRune(m.input)
	case key.Matches(msg, m.keys.ClearLine):
		m.input = ""
	case key.Matches(msg, m.keys.ScrollUp):
		m.scrollBy(m.scrollSpeed)
	case key.Matches(msg, m.keys.ScrollDown):
		m.scrollBy(-m.scrollSpeed)
	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(max(paneHeight(m.renderer.Height()), 1))
	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(-max(paneHeight(m.renderer.Height()), 1))
	case msg.Type == tea.KeyRunes && !msg.Alt:
		m.input += string(msg.Runes)
	case msg.Type == tea.KeySpace:
		m.input += " "
	}
	return m, nil
}

// submit sends the input line as a new turn. The line is kept when a turn
// is already running or the request rate is exhausted.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if strings.TrimSpace(m.input) == "" || m.inFlight {
		return m, nil
	}
	if !m.streamer.Allow() {
		m.conv.Append(model.RoleSystem, cloud.ErrRateLimited.Error())
		m.scroll = 0
		return m, nil
	}

	m.conv.Append(model.RoleUser, m.input)
	m.input = ""
	m.scroll = 0
	m.inFlight = true
	return m, m.startTurn(cloud.MessagesFrom(m.conv.Entries(), m.sendSystem))
}

// startTurn runs the turn on its own goroutine. Its events reach the model
// through the mailbox, not through the returned message.
func (m Model) startTurn(messages []cloud.ChatMessage) tea.Cmd {
	ctx, streamer, events := m.ctx, m.streamer, m.box.Sender()
	return func() tea.Msg {
		return turnFinishedMsg{err: streamer.Stream(ctx, messages, events)}
	}
}

// =============================================================================
// MOUSE
// =============================================================================

func (m *Model) handleMouse(msg tea.MouseMsg) {
	pos := screen.Position{Row: msg.Y, Col: msg.X}

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.scrollBy(m.scrollSpeed)
	case msg.Button == tea.MouseButtonWheelDown:
		m.scrollBy(-m.scrollSpeed)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		m.sel.press(pos)
	case msg.Action == tea.MouseActionMotion:
		m.sel.extend(pos)
	case msg.Action == tea.MouseActionRelease:
		if region, ok := m.sel.release(pos); ok {
			m.copySelection(region)
		}
	}
}

// copySelection copies the text under region, as last drawn, to the
// clipboard. A plain click selects nothing.
func (m *Model) copySelection(region screen.Region) {
	if region.Empty() {
		m.sel.clear()
		return
	}
	text := strings.TrimRight(m.renderer.Front().RegionText(region), "\n")
	if text == "" {
		return
	}
	if err := m.copy(text); err != nil {
		log.Printf("chat: copy selection: %v", err)
	}
}
