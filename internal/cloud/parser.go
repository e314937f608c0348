// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// StreamChunk is one server-sent chat-completion delta.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Content concatenates the delta text of every choice.
func (c *StreamChunk) Content() string {
	if len(c.Choices) == 1 {
		return c.Choices[0].Delta.Content
	}
	var sb strings.Builder
	for _, ch := range c.Choices {
		sb.WriteString(ch.Delta.Content)
	}
	return sb.String()
}

// Status is a parsed HTTP status line.
type Status struct {
	Protocol string
	Code     int
	Message  string
}

// Header maps lower-cased header names to values. A repeated header keeps
// its last value.
type Header map[string]string

// Get returns the value of a header, ignoring case.
func (h Header) Get(name string) string {
	return h[strings.ToLower(name)]
}

// StatusError reports a non-200 response.
type StatusError struct {
	Code    int
	Status  string
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("api returned %d %s: %s", e.Code, e.Status, e.Message)
}

// =============================================================================
// RESPONSE PARSER
// =============================================================================

type parseState int

const (
	stateHeaders parseState = iota
	stateBody
	stateErrorBody
	stateDone
)

const crlf = "\r\n"

// ResponseParser incrementally parses one HTTP response carrying a
// chat-completion event stream. Bytes are fed as they arrive, in chunks of
// any size; the events produced do not depend on where read boundaries
// fall, including inside a CRLF pair or a multi-byte character.
//
// A chunked body is unframed on raw bytes, so an event split across
// transfer chunks is reassembled before it is decoded. Deltas that complete
// within one transfer chunk are reported as one content event.
//
// Events go to the emit callback in order: a start event once the headers
// are complete (assistant for 200, system otherwise), content events as
// deltas arrive, and for failures a start(system) followed by a
// description. The parser never emits the done event; that belongs to the
// caller, which must send it exactly once per turn.
type ResponseParser struct {
	emit func(Event)

	state   parseState
	chunked bool
	gotStat bool
	status  Status
	header  Header
	err     error

	buf    []byte // received bytes
	cursor int    // start of the unconsumed part of buf
	chunk  chunkState
	left   int    // bytes still to come in the current transfer chunk
	events []byte // unframed event-stream text not yet ended by a blank line
}

type chunkState int

const (
	chunkSize chunkState = iota
	chunkData
	chunkEnd
	chunkTrailer
)

// NewResponseParser creates a parser that reports events through emit.
func NewResponseParser(emit func(Event)) *ResponseParser {
	return &ResponseParser{
		emit:   emit,
		header: make(Header),
	}
}

// Status returns the parsed status line, valid once headers are complete.
func (p *ResponseParser) Status() Status { return p.status }

// Header returns the parsed response headers.
func (p *ResponseParser) Header() Header { return p.header }

// Done reports whether the response is complete.
func (p *ResponseParser) Done() bool { return p.state == stateDone }

// Err returns why the turn failed: a *StatusError for a non-200 response,
// or the transport error passed to Close. Nil after a clean stream.
func (p *ResponseParser) Err() error { return p.err }

// Feed consumes the next chunk of raw response bytes and reports whether
// the response is now complete. Feeding a finished parser is a no-op.
func (p *ResponseParser) Feed(chunk []byte) bool {
	if p.state == stateDone {
		return true
	}
	p.buf = append(p.buf, chunk...)
	p.advance()
	return p.state == stateDone
}

// Close ends the input. err is the read error that stopped the stream (nil
// or io.EOF for an orderly close). An unfinished response is reported as a
// system entry: an error body is finalized from what arrived, anything else
// reports the error itself.
func (p *ResponseParser) Close(err error) {
	if p.state == stateDone {
		return
	}
	p.advance()

	switch p.state {
	case stateDone:
		return
	case stateErrorBody:
		p.finishError(string(p.buf[p.cursor:]))
	case stateBody:
		if !p.chunked && isEOF(err) {
			// Close-delimited body: the last line may lack its newline.
			p.bodyLine(string(p.buf[p.cursor:]))
			p.state = stateDone
			return
		}
		p.fail(err)
	default:
		p.fail(err)
	}
}

func isEOF(err error) bool {
	return err == nil || errors.Is(err, io.EOF)
}

// fail reports err as a system entry and stops parsing.
func (p *ResponseParser) fail(err error) {
	if isEOF(err) {
		err = ErrConnectionClosed
	}
	p.err = err
	p.emit(StartEvent(model.RoleSystem))
	p.emit(ContentEvent(err.Error()))
	p.state = stateDone
}

// advance runs the state machine over every complete unit of input.
func (p *ResponseParser) advance() {
	defer p.compact()
	for p.state != stateDone {
		switch {
		case p.state == stateErrorBody:
			body, ok := p.errorBody()
			if !ok {
				return
			}
			p.finishError(body)
			return
		case p.state == stateBody && p.chunked:
			if !p.chunkStep() {
				return
			}
		default:
			line, ok := p.nextLine()
			if !ok {
				return
			}
			if p.state == stateHeaders {
				p.headerLine(line)
			} else {
				p.bodyLine(line)
			}
		}
	}
}

// nextLine returns the next terminated line without its terminator. Headers
// and chunk framing split on CRLF. A close-delimited body splits on LF.
func (p *ResponseParser) nextLine() (string, bool) {
	rest := p.buf[p.cursor:]
	sep := crlf
	if p.state == stateBody && !p.chunked {
		sep = "\n"
	}
	i := bytes.Index(rest, []byte(sep))
	if i < 0 {
		return "", false
	}
	p.cursor += i + len(sep)
	return string(rest[:i]), true
}

// compact drops consumed bytes once they dominate the buffer.
func (p *ResponseParser) compact() {
	if p.cursor == 0 || p.cursor < len(p.buf)/2 {
		return
	}
	n := copy(p.buf, p.buf[p.cursor:])
	p.buf = p.buf[:n]
	p.cursor = 0
}

func parseStatusLine(line string) Status {
	parts := strings.SplitN(line, " ", 3)
	var s Status
	s.Protocol = parts[0]
	if len(parts) > 1 {
		s.Code, _ = strconv.Atoi(parts[1])
	}
	if len(parts) > 2 {
		s.Message = parts[2]
	}
	return s
}

func (p *ResponseParser) endHeaders() {
	p.chunked = strings.Contains(strings.ToLower(p.header.Get("Transfer-Encoding")), "chunked")
	if p.status.Code == 200 {
		p.state = stateBody
		p.emit(StartEvent(model.RoleAssistant))
		return
	}
	p.state = stateErrorBody
}

// =============================================================================
// CHUNKED BODY
// =============================================================================

// chunkStep consumes one unit of chunked framing and reports whether it
// made progress. The empty line after the zero-size chunk and its trailers
// ends the stream.
func (p *ResponseParser) chunkStep() bool {
	switch p.chunk {
	case chunkData:
		rest := p.buf[p.cursor:]
		if len(rest) == 0 {
			return false
		}
		n := min(p.left, len(rest))
		p.appendEvents(rest[:n])
		p.cursor += n
		p.left -= n
		if p.left == 0 {
			p.chunk = chunkEnd
		}
		return true
	case chunkEnd:
		rest := p.buf[p.cursor:]
		if len(rest) < len(crlf) {
			return false
		}
		if bytes.HasPrefix(rest, []byte(crlf)) {
			p.cursor += len(crlf)
		}
		p.chunk = chunkSize
		p.flushEvents(false)
		return true
	}

	line, ok := p.nextLine()
	if !ok {
		return false
	}
	if p.chunk == chunkTrailer {
		if line == "" {
			p.state = stateDone
		}
		return true
	}
	size, ok := parseChunkSize(line)
	switch {
	case !ok:
		// Not a size line; skip it.
	case size == 0:
		p.flushEvents(true)
		p.chunk = chunkTrailer
	default:
		p.left = size
		p.chunk = chunkData
	}
	return true
}

// parseChunkSize reads the hex size of a chunk-size line, ignoring
// extensions.
func parseChunkSize(line string) (int, bool) {
	line, _, _ = strings.Cut(line, ";")
	size, err := strconv.ParseUint(strings.TrimSpace(line), 16, 31)
	if err != nil {
		return 0, false
	}
	return int(size), true
}

// appendEvents adds unframed body bytes to the pending event text. Raw CRs
// only occur in line endings, never inside JSON, so dropping them turns
// CRLF-delimited events into LF-delimited ones.
func (p *ResponseParser) appendEvents(data []byte) {
	for _, c := range data {
		if c != '\r' {
			p.events = append(p.events, c)
		}
	}
}

// flushEvents reports every event ended by a blank line as one content
// event. At the end of the body any remainder is parsed as well.
func (p *ResponseParser) flushEvents(final bool) {
	end := len(p.events)
	if !final {
		i := bytes.LastIndex(p.events, []byte("\n\n"))
		if i < 0 {
			return
		}
		end = i + 2
	}
	block := string(p.events[:end])
	p.events = append(p.events[:0], p.events[end:]...)
	if text := parseEvents(block); text != "" {
		p.emit(ContentEvent(text))
	}
}

// bodyLine handles one line of a close-delimited body, which is read until
// "data: [DONE]" or the connection closes.
func (p *ResponseParser) bodyLine(line string) {
	line = strings.TrimSuffix(line, "\r")
	if strings.TrimSpace(line) == "data: [DONE]" {
		p.state = stateDone
		return
	}
	if text := parseFragment(line); text != "" {
		p.emit(ContentEvent(text))
	}
}

// parseFragment extracts the delta content of a body line that starts
// with "data". Anything else is skipped.
func parseFragment(fragment string) string {
	if !strings.HasPrefix(fragment, "data") {
		return ""
	}
	return parseEvents(fragment)
}

// parseEvents concatenates the delta content of every event in block.
// Events are separated by blank lines; the data lines of one event are
// joined with newlines. Comments, other fields, "[DONE]" and payloads that
// are not valid chunks are skipped. Invalid UTF-8 in a payload becomes
// U+FFFD when the JSON is decoded.
func parseEvents(block string) string {
	var sb strings.Builder
	for _, event := range strings.Split(block, "\n\n") {
		var data []string
		for _, line := range strings.Split(event, "\n") {
			if payload, ok := strings.CutPrefix(strings.TrimSpace(line), "data:"); ok {
				data = append(data, strings.TrimSpace(payload))
			}
		}
		payload := strings.Join(data, "\n")
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk StreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		sb.WriteString(chunk.Content())
	}
	return sb.String()
}

// errorBody returns the complete error body once it has arrived: the
// declared Content-Length, or a chunked body through its zero-size chunk.
// Without either, the body ends with the connection and Close finishes it.
func (p *ResponseParser) errorBody() (string, bool) {
	rest := p.buf[p.cursor:]
	if p.chunked {
		if bytes.HasPrefix(rest, []byte("0\r\n\r\n")) || bytes.Contains(rest, []byte("\r\n0\r\n\r\n")) {
			return string(rest), true
		}
		return "", false
	}
	if cl := p.header.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(cl)
		if err == nil && n >= 0 && len(rest) >= n {
			return string(rest[:n]), true
		}
	}
	return "", false
}

func (p *ResponseParser) finishError(body string) {
	if p.chunked {
		body = dechunk(body)
	}
	msg := errorMessage(p.status, validText(body))
	p.err = &StatusError{Code: p.status.Code, Status: p.status.Message, Message: msg}
	p.emit(StartEvent(model.RoleSystem))
	p.emit(ContentEvent(msg))
	p.state = stateDone
}

// dechunk strips chunked transfer framing. Text that does not parse as
// chunked framing is returned as received.
func dechunk(s string) string {
	var out strings.Builder
	rest := s
	for rest != "" {
		sizeLine, after, ok := strings.Cut(rest, crlf)
		if !ok {
			return s
		}
		size, ok := parseChunkSize(sizeLine)
		if !ok {
			return s
		}
		if size == 0 {
			break
		}
		if len(after) < size {
			out.WriteString(after)
			break
		}
		out.WriteString(after[:size])
		rest = strings.TrimPrefix(after[size:], crlf)
	}
	return out.String()
}

// validText replaces invalid UTF-8 in s with U+FFFD.
func validText(s string) string {
	out, _, err := transform.String(unicode.UTF8.NewDecoder(), s)
	if err != nil {
		return strings.ToValidUTF8(s, "\uFFFD")
	}
	return out
}

// errorMessage pulls error.message out of an error body. The whole body is
// tried first, then the outermost {...} span in case of stray framing.
func errorMessage(status Status, body string) string {
	candidates := []string{body}
	if i, j := strings.Index(body, "{"), strings.LastIndex(body, "}"); i >= 0 && j > i {
		candidates = append(candidates, body[i:j+1])
	}
	for _, c := range candidates {
		if !gjson.Valid(c) {
			continue
		}
		if m := gjson.Get(c, "error.message"); m.Type == gjson.String && m.String() != "" {
			return m.String()
		}
		if m := gjson.Get(c, "error"); m.Type == gjson.String && m.String() != "" {
			return m.String()
		}
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return fmt.Sprintf("request failed: %d %s", status.Code, status.Message)
	}
	return fmt.Sprintf("could not parse error response (%d %s): %s", status.Code, status.Message, trimmed)
}
