// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/cloud"
	"github.com/jeranaias/rigchat/internal/config"
	"github.com/jeranaias/rigchat/internal/model"
	"github.com/jeranaias/rigchat/internal/screen"
	"github.com/jeranaias/rigchat/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeStreamer struct {
	mu     sync.Mutex
	deny   bool
	calls  [][]cloud.ChatMessage
	events []cloud.Event
}

func (f *fakeStreamer) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.deny
}

func (f *fakeStreamer) Stream(ctx context.Context, messages []cloud.ChatMessage, events chan<- cloud.Event) error {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	script := f.events
	f.mu.Unlock()
	for _, ev := range script {
		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type fakeSaver struct {
	saved [][]model.Entry
	err   error
}

func (f *fakeSaver) Save(entries []model.Entry) error {
	f.saved = append(f.saved, entries)
	return f.err
}

type harness struct {
	box      *cloud.Mailbox
	out      *bytes.Buffer
	streamer *fakeStreamer
	saver    *fakeSaver
	copied   []string
}

func newTestModel(t *testing.T, width, height int) (Model, *harness) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{
		box:      cloud.NewMailbox(ctx),
		out:      &bytes.Buffer{},
		streamer: &fakeStreamer{},
		saver:    &fakeSaver{},
	}
	ui := config.Default().UI
	ui.PromptPrefix = "> "
	m := New(Options{
		Streamer:     h.streamer,
		Saver:        h.saver,
		Mailbox:      h.box,
		Conversation: model.NewConversation(),
		Renderer:     screen.NewRenderer(h.out, width, height, termenv.WithProfile(termenv.ANSI)),
		UI:           ui,
		Theme:        styles.DefaultPalette().Resolve(termenv.ANSI, true),
		ResolveTheme: func(ui config.UIConfig) styles.Theme {
			return styles.DefaultPalette().WithOverrides(ui.Colors).Resolve(termenv.ANSI, true)
		},
		Copy: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
		Context: ctx,
	})
	return m, h
}

func send(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		if r == ' ' {
			m, _ = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func rowText(buf *screen.Buffer, row int) string {
	region := screen.Region{
		Start: screen.Position{Row: row, Col: 0},
		End:   screen.Position{Row: row, Col: buf.Width() - 1},
	}
	return strings.TrimSuffix(buf.RegionText(region), "\n")
}

// lastEntry returns the newest conversation entry.
func lastEntry(t *testing.T, conv *model.Conversation) model.Entry {
	t.Helper()
	entries := conv.Entries()
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

// =============================================================================
// INPUT TESTS
// =============================================================================

func TestInputEditing(t *testing.T) {
	m, _ := newTestModel(t, 40, 10)

	m = typeText(t, m, "hello big world")
	assert.Equal(t, "hello big world", m.input)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "hello big worl", m.input)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace, Alt: true})
	assert.Equal(t, "hello big", m.input)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlW})
	assert.Equal(t, "hello", m.input)

	m = typeText(t, m, " again")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, "", m.input)

	// Backspace on an empty line is a no-op.
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "", m.input)
}

func TestInputIgnoresAltRunes(t *testing.T) {
	m, _ := newTestModel(t, 40, 10)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}, Alt: true})
	assert.Equal(t, "", m.input)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, 40, 10)
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

// =============================================================================
// TURN TESTS
// =============================================================================

func TestSubmitStreamsReplyIntoConversation(t *testing.T) {
	m, h := newTestModel(t, 40, 10)
	h.streamer.events = []cloud.Event{
		cloud.StartEvent(model.RoleAssistant),
		cloud.ContentEvent("Hi"),
		cloud.ContentEvent("!"),
		cloud.DoneEvent(),
	}

	m = typeText(t, m, "hello")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, "", m.input)
	assert.True(t, m.inFlight)

	msg := cmd()
	require.IsType(t, turnFinishedMsg{}, msg)
	assert.NoError(t, msg.(turnFinishedMsg).err)

	require.Len(t, h.streamer.calls, 1)
	assert.Equal(t, []cloud.ChatMessage{{Role: "user", Content: "hello"}}, h.streamer.calls[0])

	require.Eventually(t, func() bool { return h.box.Len() == 4 }, time.Second, 5*time.Millisecond)

	// One event per frame.
	for i := 0; i < 4; i++ {
		m, _ = send(t, m, frameMsg(time.Now()))
	}
	assert.False(t, m.inFlight)
	assert.Equal(t, []model.Entry{
		{Role: model.RoleUser, Content: "hello"},
		{Role: model.RoleAssistant, Content: "Hi!"},
	}, m.Conversation().Entries())

	require.Len(t, h.saver.saved, 1)
	assert.Len(t, h.saver.saved[0], 2)

	front := m.renderer.Front()
	assert.Equal(t, "■  hello", rowText(front, 6))
	assert.Equal(t, "■  Hi!", rowText(front, 7))
}

func TestSubmitRejectedWhileInFlight(t *testing.T) {
	m, h := newTestModel(t, 40, 10)

	m = typeText(t, m, "first")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	m = typeText(t, m, "second")
	m, cmd = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "second", m.input)
	assert.Equal(t, 1, m.Conversation().Len())
	assert.Empty(t, h.streamer.calls)
}

func TestSubmitRateLimited(t *testing.T) {
	m, h := newTestModel(t, 40, 10)
	h.streamer.deny = true

	m = typeText(t, m, "hello")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, "hello", m.input)
	assert.False(t, m.inFlight)

	last := lastEntry(t, m.Conversation())
	assert.Equal(t, model.RoleSystem, last.Role)
	assert.Equal(t, cloud.ErrRateLimited.Error(), last.Content)
}

func TestSubmitIgnoresBlankInput(t *testing.T) {
	m, _ := newTestModel(t, 40, 10)
	m = typeText(t, m, "   ")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.Conversation().IsEmpty())
}

func TestSubmitExcludesSystemEntries(t *testing.T) {
	m, h := newTestModel(t, 40, 10)
	m.conv.Append(model.RoleSystem, "connection failed")

	m = typeText(t, m, "again")
	_, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	require.Len(t, h.streamer.calls, 1)
	assert.Equal(t, []cloud.ChatMessage{{Role: "user", Content: "again"}}, h.streamer.calls[0])
}

func TestPersistFailureBecomesSystemEntry(t *testing.T) {
	m, h := newTestModel(t, 40, 10)
	h.saver.err = errors.New("disk full")

	m.apply(cloud.DoneEvent())

	last := lastEntry(t, m.Conversation())
	assert.Equal(t, model.RoleSystem, last.Role)
	assert.Contains(t, last.Content, "disk full")
}

func TestContentWithoutStartOpensEntry(t *testing.T) {
	m, _ := newTestModel(t, 40, 10)
	m.apply(cloud.ContentEvent("orphan"))

	last := lastEntry(t, m.Conversation())
	assert.Equal(t, model.Entry{Role: model.RoleAssistant, Content: "orphan"}, last)
}

// =============================================================================
// LAYOUT TESTS
// =============================================================================

func TestLayout(t *testing.T) {
	m, _ := newTestModel(t, 20, 6)
	m.conv.Append(model.RoleUser, "hello")
	m.conv.Append(model.RoleAssistant, "a reply that needs wrapping")
	m.input = "abc"

	buf := screen.NewBuffer(20, 6)
	col := m.layout(buf)

	assert.Equal(t, "", rowText(buf, 0))
	assert.Equal(t, "■  hello", rowText(buf, 1))
	assert.Equal(t, "■  a reply that need", rowText(buf, 2))
	assert.Equal(t, "s wrapping", rowText(buf, 3))
	assert.Equal(t, strings.Repeat("—", 20), rowText(buf, 4))
	assert.Equal(t, "> abc", rowText(buf, 5))
	assert.Equal(t, 5, col)

	assert.Equal(t, m.theme.User, buf.Cell(1, 0).Fg)
	assert.Equal(t, m.theme.Assistant, buf.Cell(3, 0).Fg)
	assert.Equal(t, m.theme.Separator, buf.Cell(4, 0).Fg)
	assert.Equal(t, m.theme.Input, buf.Cell(5, 0).Fg)
}

func TestLayoutLongInputShowsTail(t *testing.T) {
	m, _ := newTestModel(t, 10, 4)
	m.input = "abcdefghijklmnop"

	buf := screen.NewBuffer(10, 4)
	col := m.layout(buf)

	assert.Equal(t, "> jklmnop", rowText(buf, 3))
	assert.Equal(t, 9, col)
}

func TestLayoutWideInputCursorFollowsGrid(t *testing.T) {
	m, _ := newTestModel(t, 10, 4)
	m.input = "日本語のテキスト"

	buf := screen.NewBuffer(10, 4)
	col := m.layout(buf)

	assert.Equal(t, "> 本語のテキスト", rowText(buf, 3))
	assert.Equal(t, 'ト', buf.Cell(3, 8).Glyph)
	assert.Equal(t, 9, col, "cursor sits in the column after the last rune")
}

func TestScrollClamped(t *testing.T) {
	m, _ := newTestModel(t, 20, 5)
	for i := 0; i < 10; i++ {
		m.conv.Append(model.RoleUser, string(rune('a'+i)))
	}

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, 3, m.scroll)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyPgUp})
	assert.Equal(t, 7, m.scroll, "scroll stops at the oldest line")

	buf := screen.NewBuffer(20, 5)
	m.layout(buf)
	assert.Equal(t, "■  a", rowText(buf, 0))
	assert.Equal(t, "■  c", rowText(buf, 2))

	m, _ = send(t, m, tea.MouseMsg{Button: tea.MouseButtonWheelDown, Action: tea.MouseActionPress})
	assert.Equal(t, 4, m.scroll)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Equal(t, 0, m.scroll)
}

func TestNewContentSnapsToBottom(t *testing.T) {
	m, _ := newTestModel(t, 20, 5)
	for i := 0; i < 10; i++ {
		m.conv.Append(model.RoleUser, "line")
	}
	m.scrollBy(5)
	require.Equal(t, 5, m.scroll)

	m.apply(cloud.ContentEvent("more"))
	assert.Equal(t, 0, m.scroll)
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestMouseSelectionCopiesFrameText(t *testing.T) {
	m, h := newTestModel(t, 20, 6)
	m.conv.Append(model.RoleUser, "first line")
	m.conv.Append(model.RoleAssistant, "second line")
	m, _ = send(t, m, frameMsg(time.Now()))

	m, _ = send(t, m, tea.MouseMsg{X: 3, Y: 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	m, _ = send(t, m, tea.MouseMsg{X: 5, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	m, _ = send(t, m, tea.MouseMsg{X: 8, Y: 3, Action: tea.MouseActionRelease})

	require.Len(t, h.copied, 1)
	assert.Equal(t, "first line\n■  second", h.copied[0])

	// The highlight survives release and is drawn on the next frame.
	m, _ = send(t, m, frameMsg(time.Now()))
	assert.Equal(t, m.theme.Selection, m.renderer.Front().Cell(3, 0).Bg)
	assert.Equal(t, termenv.Color(termenv.NoColor{}), m.renderer.Front().Cell(3, 9).Bg)

	// Any key clears it.
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	m, _ = send(t, m, frameMsg(time.Now()))
	assert.Equal(t, termenv.Color(termenv.NoColor{}), m.renderer.Front().Cell(3, 0).Bg)
}

func TestMouseClickCopiesNothing(t *testing.T) {
	m, h := newTestModel(t, 20, 6)
	m.conv.Append(model.RoleUser, "text")
	m, _ = send(t, m, frameMsg(time.Now()))

	m, _ = send(t, m, tea.MouseMsg{X: 1, Y: 3, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	_, _ = send(t, m, tea.MouseMsg{X: 1, Y: 3, Action: tea.MouseActionRelease})
	assert.Empty(t, h.copied)
}

// =============================================================================
// RESIZE AND CONFIG TESTS
// =============================================================================

func TestWindowResize(t *testing.T) {
	m, h := newTestModel(t, 20, 6)
	h.out.Reset()

	m, _ = send(t, m, tea.WindowSizeMsg{Width: 30, Height: 8})
	assert.Equal(t, 30, m.renderer.Width())
	assert.Equal(t, 8, m.renderer.Height())

	// The erase is queued and goes out with the next frame.
	_, _ = send(t, m, frameMsg(time.Now()))
	assert.Contains(t, h.out.String(), termenv.CSI+"2J")
}

func TestConfigReload(t *testing.T) {
	m, _ := newTestModel(t, 20, 6)

	cfg := config.Default()
	cfg.UI.ScrollSpeed = 5
	cfg.UI.Colors.User = "5"
	cfg.API.SendSystemMessages = true
	m, _ = send(t, m, ConfigChangedMsg{Config: cfg})

	assert.Equal(t, 5, m.scrollSpeed)
	assert.Equal(t, termenv.Color(termenv.ANSIColor(5)), m.theme.User)
	assert.True(t, m.sendSystem)

	m, _ = send(t, m, ConfigChangedMsg{Err: errors.New("bad toml")})
	assert.Equal(t, 5, m.scrollSpeed)
}

func TestFrameSkippedWithoutSize(t *testing.T) {
	m, h := newTestModel(t, 0, 0)
	m.conv.Append(model.RoleUser, "hello")
	_, cmd := send(t, m, frameMsg(time.Now()))
	assert.NotNil(t, cmd)
	assert.Empty(t, h.out.String())
}
