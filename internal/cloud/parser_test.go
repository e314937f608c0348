// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// FIXTURES
// =============================================================================

// httpChunk frames s as one chunked-transfer chunk.
func httpChunk(s string) string {
	return fmt.Sprintf("%x\r\n%s\r\n", len(s), s)
}

func sseDelta(content string) string {
	return fmt.Sprintf(`data: {"id":"c1","model":"gpt-3.5-turbo","choices":[{"delta":{"content":%q},"finish_reason":null}]}`+"\n\n", content)
}

const okHead = "HTTP/1.1 200 OK\r\n" +
	"Content-Type: text/event-stream\r\n" +
	"Transfer-Encoding: chunked\r\n" +
	"\r\n"

func okResponse(deltas ...string) string {
	var sb strings.Builder
	sb.WriteString(okHead)
	sb.WriteString(httpChunk(`data: {"choices":[{"delta":{"role":"assistant","content":""}}]}` + "\n\n"))
	for _, d := range deltas {
		sb.WriteString(httpChunk(sseDelta(d)))
	}
	sb.WriteString(httpChunk("data: [DONE]\n\n"))
	sb.WriteString("0\r\n\r\n")
	return sb.String()
}

func errorResponse(code int, reason, body string) string {
	return fmt.Sprintf("HTTP/1.1 %d %s\r\nContent-Type: application/json\r\nContent-Length: %d\r\n\r\n%s",
		code, reason, len(body), body)
}

// recorder collects emitted events.
type recorder struct {
	events []Event
}

func (r *recorder) emit(ev Event) { r.events = append(r.events, ev) }

func (r *recorder) tags() []string {
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.String()
	}
	return out
}

// parseChunks feeds chunks in order and closes with io.EOF if the parser is
// still waiting.
func parseChunks(chunks ...string) (*ResponseParser, *recorder) {
	rec := &recorder{}
	p := NewResponseParser(rec.emit)
	for _, c := range chunks {
		if p.Feed([]byte(c)) {
			break
		}
	}
	p.Close(io.EOF)
	return p, rec
}

// =============================================================================
// SUCCESS PATH
// =============================================================================

func TestParserStreamsDeltas(t *testing.T) {
	p, rec := parseChunks(okResponse("Hi", "!"))

	assert.Equal(t, []string{"[START] assistant", "Hi", "!"}, rec.tags())
	assert.NoError(t, p.Err())
	assert.Equal(t, Status{Protocol: "HTTP/1.1", Code: 200, Message: "OK"}, p.Status())
	assert.Equal(t, "text/event-stream", p.Header().Get("content-type"))
	assert.Equal(t, "chunked", p.Header().Get("Transfer-Encoding"))
}

func TestParserFeedReportsCompletion(t *testing.T) {
	rec := &recorder{}
	p := NewResponseParser(rec.emit)
	raw := okResponse("Hi")

	assert.False(t, p.Feed([]byte(raw[:len(raw)-2])))
	assert.True(t, p.Feed([]byte(raw[len(raw)-2:])))
	assert.True(t, p.Done())

	// Trailing bytes after completion are ignored.
	assert.True(t, p.Feed([]byte(httpChunk(sseDelta("late")))))
	assert.Equal(t, []string{"[START] assistant", "Hi"}, rec.tags())
}

func TestParserSkipsMalformedFragments(t *testing.T) {
	raw := okHead +
		httpChunk("data: {not json}\n\n") +
		httpChunk(": keep-alive comment\n\n") +
		httpChunk(sseDelta("ok")) +
		"0\r\n\r\n"

	_, rec := parseChunks(raw)
	assert.Equal(t, []string{"[START] assistant", "ok"}, rec.tags())
}

func TestParserSeveralEventsInOneChunk(t *testing.T) {
	raw := okHead + httpChunk(sseDelta("a")+sseDelta("b")+sseDelta("c")) + "0\r\n\r\n"

	_, rec := parseChunks(raw)
	assert.Equal(t, []string{"[START] assistant", "abc"}, rec.tags())
}

func TestParserCloseDelimitedBody(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Type: text/event-stream\r\n\r\n" +
		sseDelta("Hi") + sseDelta("!") + "data: [DONE]\n\n"

	p, rec := parseChunks(raw)
	assert.Equal(t, []string{"[START] assistant", "Hi", "!"}, rec.tags())
	assert.NoError(t, p.Err())
}

// =============================================================================
// CHUNK BOUNDARIES
// =============================================================================

func TestParserChunkBoundaryIndependence(t *testing.T) {
	raw := okResponse("Hi", "!", "héllo ■", "日本")
	_, want := parseChunks(raw)
	require.Equal(t, []string{"[START] assistant", "Hi", "!", "héllo ■", "日本"}, want.tags())

	// Every two-way split, including inside CRLF pairs and multi-byte runes.
	for i := 0; i <= len(raw); i++ {
		_, got := parseChunks(raw[:i], raw[i:])
		require.Equal(t, want.events, got.events, "split at byte %d", i)
	}

	// One byte at a time.
	bytewise := make([]string, len(raw))
	for i := 0; i < len(raw); i++ {
		bytewise[i] = raw[i : i+1]
	}
	_, got := parseChunks(bytewise...)
	assert.Equal(t, want.events, got.events)
}

func TestParserEventSplitAcrossHTTPChunks(t *testing.T) {
	ev := sseDelta("Hello")
	raw := okHead + httpChunk(ev[:20]) + httpChunk(ev[20:]) + "0\r\n\r\n"

	_, rec := parseChunks(raw)
	assert.Equal(t, []string{"[START] assistant", "Hello"}, rec.tags())
}

func TestParserCRLFDelimitedEvents(t *testing.T) {
	ev := strings.ReplaceAll(sseDelta("Hi")+sseDelta("!"), "\n", "\r\n")
	raw := okHead + httpChunk(ev[:7]) + httpChunk(ev[7:]) + "0\r\n\r\n"

	_, rec := parseChunks(raw)
	assert.Equal(t, []string{"[START] assistant", "Hi!"}, rec.tags())
}

func TestParserErrorBodyChunkBoundaryIndependence(t *testing.T) {
	raw := errorResponse(429, "Too Many Requests", `{"error":{"message":"rate limited ■"}}`)
	_, want := parseChunks(raw)

	for i := 0; i <= len(raw); i++ {
		_, got := parseChunks(raw[:i], raw[i:])
		require.Equal(t, want.events, got.events, "split at byte %d", i)
	}
}

func TestParserInvalidUTF8IsReplaced(t *testing.T) {
	raw := okHead + httpChunk("data: {\"choices\":[{\"delta\":{\"content\":\"a\xffb\"}}]}\n\n") + "0\r\n\r\n"

	_, rec := parseChunks(raw)
	require.Len(t, rec.events, 2)
	assert.Equal(t, "a�b", rec.events[1].Text)
}

// =============================================================================
// ERROR PATHS
// =============================================================================

func TestParserErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "content length",
			raw:  errorResponse(429, "Too Many Requests", `{"error":{"message":"rate limited","type":"requests"}}`),
			want: "rate limited",
		},
		{
			name: "chunked",
			raw: "HTTP/1.1 401 Unauthorized\r\nTransfer-Encoding: chunked\r\n\r\n" +
				httpChunk(`{"error":{"message":"Incorrect API key provided"}}`) + "0\r\n\r\n",
			want: "Incorrect API key provided",
		},
		{
			name: "close delimited",
			raw:  "HTTP/1.1 500 Internal Server Error\r\n\r\n" + `{"error":{"message":"boom"}}`,
			want: "boom",
		},
		{
			name: "string error",
			raw:  errorResponse(400, "Bad Request", `{"error":"bad model"}`),
			want: "bad model",
		},
		{
			name: "not json",
			raw:  errorResponse(502, "Bad Gateway", "<html>bad gateway</html>"),
			want: "could not parse error response (502 Bad Gateway): <html>bad gateway</html>",
		},
		{
			name: "empty body",
			raw:  errorResponse(503, "Service Unavailable", ""),
			want: "request failed: 503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, rec := parseChunks(tt.raw)
			assert.Equal(t, []string{"[START] system", tt.want}, rec.tags())

			var se *StatusError
			require.True(t, errors.As(p.Err(), &se))
			assert.Equal(t, p.Status().Code, se.Code)
			assert.Equal(t, tt.want, se.Message)
		})
	}
}

func TestParserErrorBodyCompletesWithoutClose(t *testing.T) {
	rec := &recorder{}
	p := NewResponseParser(rec.emit)

	done := p.Feed([]byte(errorResponse(429, "Too Many Requests", `{"error":{"message":"rate limited"}}`)))
	assert.True(t, done, "error body with Content-Length must complete on its own")
	assert.Equal(t, []string{"[START] system", "rate limited"}, rec.tags())
}

func TestParserConnectionLost(t *testing.T) {
	partial := okHead + httpChunk(sseDelta("Hi"))

	t.Run("read error", func(t *testing.T) {
		rec := &recorder{}
		p := NewResponseParser(rec.emit)
		p.Feed([]byte(partial))
		p.Close(errors.New("connection reset by peer"))

		assert.Equal(t, []string{"[START] assistant", "Hi", "[START] system", "connection reset by peer"}, rec.tags())
		assert.EqualError(t, p.Err(), "connection reset by peer")
	})

	t.Run("eof", func(t *testing.T) {
		p, rec := parseChunks(partial)
		assert.Equal(t, []string{"[START] assistant", "Hi", "[START] system", ErrConnectionClosed.Error()}, rec.tags())
		assert.ErrorIs(t, p.Err(), ErrConnectionClosed)
	})

	t.Run("before headers", func(t *testing.T) {
		p, rec := parseChunks("HTTP/1.1 200 OK\r\nContent-")
		assert.Equal(t, []string{"[START] system", ErrConnectionClosed.Error()}, rec.tags())
		assert.ErrorIs(t, p.Err(), ErrConnectionClosed)
	})
}

func TestParserCloseIsIdempotent(t *testing.T) {
	p, rec := parseChunks(okResponse("Hi"))
	p.Close(errors.New("late"))
	p.Close(io.EOF)
	assert.Equal(t, []string{"[START] assistant", "Hi"}, rec.tags())
	assert.Equal(t, model.RoleAssistant, rec.events[0].Role)
}

func TestDechunk(t *testing.T) {
	assert.Equal(t, "hello world", dechunk(httpChunk("hello ")+httpChunk("world")+"0\r\n\r\n"))
	assert.Equal(t, "plain", dechunk("plain"))
	assert.Equal(t, "zz\r\nnot hex", dechunk("zz\r\nnot hex"))
}
