// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatMessage is one message in the request payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the chat-completion request body.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// MessagesFrom converts the conversation log into request messages, in
// order. System entries hold local notices (errors, load failures) and are
// left out unless includeSystem is set. Empty entries are skipped.
func MessagesFrom(entries []model.Entry, includeSystem bool) []ChatMessage {
	msgs := make([]ChatMessage, 0, len(entries))
	for _, e := range entries {
		if e.Role == model.RoleSystem && !includeSystem {
			continue
		}
		if e.Content == "" {
			continue
		}
		msgs = append(msgs, ChatMessage{Role: string(e.Role), Content: e.Content})
	}
	return msgs
}

// =============================================================================
// FRAMING
// =============================================================================

// RequestHead holds the values that go into the request line and headers.
type RequestHead struct {
	Host      string
	Path      string
	APIKey    string
	UserAgent string
}

// BuildRequest frames a complete HTTP/1.1 POST for req. Content-Length is
// the exact byte length of the JSON body. The connection is left to the
// server's default (keep-alive) so the response arrives chunked.
func BuildRequest(head RequestHead, req ChatRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	path := head.Path
	if path == "" {
		path = "/"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "POST %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&b, "Host: %s\r\n", head.Host)
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(body))
	b.WriteString("Content-Type: application/json\r\n")
	b.WriteString("Accept: text/event-stream\r\n")
	if head.UserAgent != "" {
		fmt.Fprintf(&b, "User-Agent: %s\r\n", head.UserAgent)
	}
	// SECURITY: the frame holds the key; callers must never log it.
	fmt.Fprintf(&b, "Authorization: Bearer %s\r\n", head.APIKey)
	b.WriteString("\r\n")
	b.Write(body)
	return b.Bytes(), nil
}
