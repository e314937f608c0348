// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud streams chat completions from an OpenAI-compatible endpoint.
//
// Each turn opens one TLS connection, writes a single hand-framed HTTP/1.1
// request, and feeds the raw response through an incremental parser as
// bytes arrive. The parser turns the server-sent event stream into Events
// that are pushed to the caller while the connection is still open.
//
// # Key Types
//
//   - Client: one-shot TLS streaming client configured with Options
//   - ResponseParser: two-state (headers, body) incremental response parser
//   - Event: start/content/done notification for the UI
//   - Mailbox: unbounded queue from worker goroutines to the UI loop
//
// # Usage
//
//	box := cloud.NewMailbox(ctx)
//	client, err := cloud.NewClient(cloud.DefaultOptions())
//	go client.Stream(ctx, cloud.MessagesFrom(conv.Entries(), false), box.Sender())
//	for {
//	    ev, ok := box.TryRecv()
//	    ...
//	}
//
// # Security
//
// API keys are never logged, and connections require TLS 1.2+ with
// certificate verification.
package cloud
