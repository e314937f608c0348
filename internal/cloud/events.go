// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"github.com/jeranaias/rigchat/internal/model"
)

// EventKind identifies the lifecycle step an Event reports.
type EventKind int

const (
	// EventStart opens a new conversation entry for Role.
	EventStart EventKind = iota
	// EventContent carries text to append to the newest entry.
	EventContent
	// EventDone marks the end of a turn. Sent exactly once per turn.
	EventDone
)

const (
	startTag = "[START] "
	doneTag  = "[DONE]"
)

// Event is one notification from a streaming turn.
type Event struct {
	Kind EventKind
	Role model.Role
	Text string
}

// StartEvent returns an event that opens an entry for role.
func StartEvent(role model.Role) Event {
	return Event{Kind: EventStart, Role: role}
}

// ContentEvent returns an event carrying a text delta.
func ContentEvent(text string) Event {
	return Event{Kind: EventContent, Text: text}
}

// DoneEvent returns the end-of-turn event.
func DoneEvent() Event {
	return Event{Kind: EventDone}
}

// String renders the event in its tag form: "[START] <role>", the bare
// text of a content delta, or "[DONE]".
func (e Event) String() string {
	switch e.Kind {
	case EventStart:
		return startTag + string(e.Role)
	case EventDone:
		return doneTag
	default:
		return e.Text
	}
}
