// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/screen"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// Streamer runs one chat turn, pushing its events to the channel. It is
// satisfied by *cloud.Client.
type Streamer interface {
	Allow() bool
	Stream(ctx context.Context, messages []cloud.ChatMessage, events chan<- cloud.Event) error
}

// Saver persists the conversation. It is satisfied by storage.Store.
type Saver interface {
	Save(entries []model.Entry) error
}

// Options configures a Model.
type Options struct {
	Streamer     Streamer
	Saver        Saver // optional
	Mailbox      *cloud.Mailbox
	Conversation *model.Conversation
	Renderer     *screen.Renderer

	UI         config.UIConfig
	SendSystem bool
	Theme      styles.Theme

	// ResolveTheme rebuilds the theme after a config reload. Defaults to
	// styles.NewTheme.
	ResolveTheme func(config.UIConfig) styles.Theme
	// Copy writes a selection to the clipboard. Defaults to
	// clipboard.WriteAll.
	Copy func(string) error

	// Context bounds every turn started by the model.
	Context context.Context
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. It owns the
// conversation and the renderer; workers only reach it through the mailbox.
type Model struct {
	ctx          context.Context
	streamer     Streamer
	saver        Saver
	box          *cloud.Mailbox
	conv         *model.Conversation
	renderer     *screen.Renderer
	keys         KeyMap
	theme        styles.Theme
	resolveTheme func(config.UIConfig) styles.Theme
	copy         func(string) error

	frameInterval  time.Duration
	eventsPerFrame int
	scrollSpeed    int
	prompt         string
	sendSystem     bool

	input    string
	scroll   int // lines scrolled back from the newest
	inFlight bool
	sel      selection
}

// New creates a chat model.
func New(opts Options) Model {
	m := Model{
		ctx:          opts.Context,
		streamer:     opts.Streamer,
		saver:        opts.Saver,
		box:          opts.Mailbox,
		conv:         opts.Conversation,
		renderer:     opts.Renderer,
		keys:         DefaultKeyMap(),
		theme:        opts.Theme,
		resolveTheme: opts.ResolveTheme,
		copy:         opts.Copy,
		sendSystem:   opts.SendSystem,
	}
	if m.ctx == nil {
		m.ctx = context.Background()
	}
	if m.conv == nil {
		m.conv = model.NewConversation()
	}
	if m.resolveTheme == nil {
		m.resolveTheme = styles.NewTheme
	}
	if m.copy == nil {
		m.copy = clipboard.WriteAll
	}
	m.applyUI(opts.UI)
	return m
}

// applyUI takes the tunables from ui, falling back to the defaults for
// unset values.
func (m *Model) applyUI(ui config.UIConfig) {
	def := config.Default().UI
	if ui.FrameRate <= 0 {
		ui.FrameRate = def.FrameRate
	}
	if ui.EventsPerFrame <= 0 {
		ui.EventsPerFrame = def.EventsPerFrame
	}
	if ui.ScrollSpeed <= 0 {
		ui.ScrollSpeed = def.ScrollSpeed
	}
	m.frameInterval = time.Second / time.Duration(ui.FrameRate)
	m.eventsPerFrame = ui.EventsPerFrame
	m.scrollSpeed = ui.ScrollSpeed
	m.prompt = ui.PromptPrefix
}

// Conversation returns the log the model appends to.
func (m Model) Conversation() *model.Conversation {
	return m.conv
}

// Init starts the frame clock.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// View is unused; frames are drawn by the screen renderer.
func (m Model) View() string {
	return ""
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// =============================================================================
// FRAME
// =============================================================================

// frame applies pending events, then draws and flushes one frame.
func (m *Model) frame() {
	for i := 0; i < m.eventsPerFrame; i++ {
		ev, ok := m.box.TryRecv()
		if !ok {
			break
		}
		m.apply(ev)
	}

	if m.renderer.Width() == 0 || m.renderer.Height() == 0 {
		return
	}
	back := m.renderer.Back()
	col := m.layout(back)
	if m.sel.visible {
		back.Mark(m.sel.region, m.theme.Selection)
	}
	m.renderer.Render()
	m.renderer.MoveCursor(m.renderer.Height()-1, col)
	if err := m.renderer.Flush(); err != nil {
		log.Printf("chat: flush frame: %v", err)
	}
}

// apply folds one streaming event into the conversation.
func (m *Model) apply(ev cloud.Event) {
	switch ev.Kind {
	case cloud.EventStart:
		m.conv.Append(ev.Role, "")
		m.scroll = 0
	case cloud.EventContent:
		if !m.conv.AppendToLast(ev.Text) {
			m.conv.Append(model.RoleAssistant, ev.Text)
		}
		m.scroll = 0
	case cloud.EventDone:
		m.inFlight = false
		m.persist()
	}
}

func (m *Model) persist() {
	if m.saver == nil {
		return
	}
	if err := m.saver.Save(m.conv.Entries()); err != nil {
		log.Printf("chat: save conversation: %v", err)
		m.conv.Append(model.RoleSystem, fmt.Sprintf("could not save conversation: %v", err))
	}
}
