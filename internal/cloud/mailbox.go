// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"sync"
)

// Mailbox is an unbounded multi-producer, single-consumer event queue.
// Producers send on the channel from Sender and never wait for the
// consumer; the consumer polls with TryRecv once per frame or blocks with
// Recv. Events from one producer arrive in the order they were sent.
type Mailbox struct {
	in     chan Event
	notify chan struct{}

	mu    sync.Mutex
	queue []Event
}

// NewMailbox creates a mailbox whose pump goroutine runs until ctx ends.
// Sends after that point block, so producers should select on the same
// context.
func NewMailbox(ctx context.Context) *Mailbox {
	m := &Mailbox{
		in:     make(chan Event),
		notify: make(chan struct{}, 1),
	}
	go m.pump(ctx)
	return m
}

func (m *Mailbox) pump(ctx context.Context) {
	for {
		select {
		case ev := <-m.in:
			m.mu.Lock()
			m.queue = append(m.queue, ev)
			m.mu.Unlock()
			select {
			case m.notify <- struct{}{}:
			default:
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sender returns the producer side of the mailbox.
func (m *Mailbox) Sender() chan<- Event {
	return m.in
}

// TryRecv removes the oldest queued event without blocking.
func (m *Mailbox) TryRecv() (Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queue) == 0 {
		return Event{}, false
	}
	ev := m.queue[0]
	m.queue[0] = Event{}
	m.queue = m.queue[1:]
	return ev, true
}

// Recv blocks until an event is queued or ctx ends.
func (m *Mailbox) Recv(ctx context.Context) (Event, bool) {
	for {
		if ev, ok := m.TryRecv(); ok {
			return ev, true
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			return Event{}, false
		}
	}
}

// Len returns the number of queued events.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
