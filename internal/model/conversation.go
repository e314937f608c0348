// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Conversation is the ordered conversation log. Entries are only ever
// appended; the one in-place mutation is AppendToLast while a reply
// streams in. A Conversation is owned by a single goroutine (the UI loop)
// and is not safe for concurrent use.
type Conversation struct {
	entries []Entry
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// NewConversationFrom creates a conversation seeded with entries, as loaded
// from storage. The slice is copied.
func NewConversationFrom(entries []Entry) *Conversation {
	c := &Conversation{entries: make([]Entry, len(entries))}
	copy(c.entries, entries)
	return c
}

// Append adds a new entry at the end of the log.
func (c *Conversation) Append(role Role, content string) {
	c.entries = append(c.entries, Entry{Role: role, Content: content})
}

// AppendToLast appends text to the newest entry. It reports false when the
// log is empty, in which case nothing changes.
func (c *Conversation) AppendToLast(text string) bool {
	if len(c.entries) == 0 {
		return false
	}
	c.entries[len(c.entries)-1].Content += text
	return true
}

// Entries returns a copy of the log in order.
func (c *Conversation) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Each calls fn for every entry in order without copying the log.
func (c *Conversation) Each(fn func(i int, e Entry)) {
	for i, e := range c.entries {
		fn(i, e)
	}
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	return len(c.entries)
}

// IsEmpty returns true if the conversation has no entries.
func (c *Conversation) IsEmpty() bool {
	return len(c.entries) == 0
}
