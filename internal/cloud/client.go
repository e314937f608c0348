// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jeranaias/rigchat/internal/model"
)

// Configuration constants for the chat-completion endpoint.
const (
	DefaultHost = "api.openai.com"
	DefaultPort = 443
	DefaultPath = "/v1/chat/completions"

	// DefaultModel is the model requested when none is configured.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultReadTimeout bounds each individual read, not the whole turn.
	DefaultReadTimeout = 10 * time.Second

	// DefaultDialTimeout bounds the TCP connect and TLS handshake.
	DefaultDialTimeout = 15 * time.Second

	// ReadChunkSize is the size of each socket read.
	ReadChunkSize = 1024

	// DefaultUserAgent identifies the client to the server.
	DefaultUserAgent = "rigchat/0.1"
)

// Error types for streaming turns.
var (
	// ErrNotConfigured is returned when no API key is set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrConnectionClosed is reported when the server closes the connection
	// before the response is complete.
	ErrConnectionClosed = errors.New("connection closed before the response completed")

	// ErrRateLimited is returned by Allow callers when the local request
	// budget is spent.
	ErrRateLimited = errors.New("request rate limit reached, try again shortly")
)

// Options configures a Client.
type Options struct {
	Host        string
	Port        int
	Path        string
	APIKey      string
	Model       string
	ReadTimeout time.Duration
	DialTimeout time.Duration
	// CAFile is an optional PEM bundle added to the system roots.
	CAFile    string
	UserAgent string
	// RequestsPerMinute caps turns started through Allow or Wait. Zero
	// means unlimited.
	RequestsPerMinute int
}

// DefaultOptions returns options for the public OpenAI endpoint. The API key
// is left empty.
func DefaultOptions() Options {
	return Options{
		Host:        DefaultHost,
		Port:        DefaultPort,
		Path:        DefaultPath,
		Model:       DefaultModel,
		ReadTimeout: DefaultReadTimeout,
		DialTimeout: DefaultDialTimeout,
		UserAgent:   DefaultUserAgent,
	}
}

// Conn is the connection a turn reads and writes. *tls.Conn satisfies it.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

// DialFunc opens a connection to addr ("host:port").
type DialFunc func(ctx context.Context, addr string) (Conn, error)

// Client streams chat completions, one connection per turn. A Client is
// safe for concurrent use; every Stream call owns its own connection and
// parser.
type Client struct {
	opts    Options
	dial    DialFunc
	limiter *rate.Limiter
}

// NewClient creates a client. The CA file, if any, is loaded here so a bad
// path fails at startup rather than on the first turn.
func NewClient(opts Options) (*Client, error) {
	def := DefaultOptions()
	if opts.Host == "" {
		opts.Host = def.Host
	}
	if opts.Port == 0 {
		opts.Port = def.Port
	}
	if opts.Path == "" {
		opts.Path = def.Path
	}
	if opts.Model == "" {
		opts.Model = def.Model
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = def.DialTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = def.UserAgent
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: opts.Host,
	}
	if opts.CAFile != "" {
		pem, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	c := &Client{opts: opts}
	c.dial = tlsDialer(tlsConfig, opts.DialTimeout)
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.RequestsPerMinute)), 1)
	}
	return c, nil
}

func tlsDialer(cfg *tls.Config, timeout time.Duration) DialFunc {
	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		Config:    cfg,
	}
	return func(ctx context.Context, addr string) (Conn, error) {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// WithDialer replaces how connections are opened. Used by tests and for
// custom transports.
func (c *Client) WithDialer(dial DialFunc) *Client {
	c.dial = dial
	return c
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.opts.APIKey != ""
}

// Model returns the model requested by each turn.
func (c *Client) Model() string {
	return c.opts.Model
}

// Addr returns the "host:port" the client connects to.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.opts.Host, strconv.Itoa(c.opts.Port))
}

// Allow reports whether a turn may start now under the configured request
// rate, consuming one token if so.
func (c *Client) Allow() bool {
	if c.limiter == nil {
		return true
	}
	return c.limiter.Allow()
}

// Wait blocks until a turn may start under the configured request rate.
func (c *Client) Wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// =============================================================================
// STREAMING
// =============================================================================

// Stream runs one turn: it sends messages and pushes the reply to events as
// it arrives. Every path ends with exactly one done event; failures are
// reported in-band as a start(system) event followed by the error text,
// and also returned.
//
// ctx bounds the dial and event delivery. Once connected, reads are bounded
// only by the per-read timeout.
func (c *Client) Stream(ctx context.Context, messages []ChatMessage, events chan<- Event) error {
	turn := uuid.NewString()[:8]
	send := func(ev Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	defer send(DoneEvent())

	fail := func(e error) error {
		log.Printf("cloud: turn %s failed: %v", turn, e)
		send(StartEvent(model.RoleSystem))
		send(ContentEvent(e.Error()))
		return e
	}

	if !c.IsConfigured() {
		return fail(ErrNotConfigured)
	}

	frame, err := BuildRequest(RequestHead{
		Host:      c.opts.Host,
		Path:      c.opts.Path,
		APIKey:    c.opts.APIKey,
		UserAgent: c.opts.UserAgent,
	}, ChatRequest{Model: c.opts.Model, Messages: messages, Stream: true})
	if err != nil {
		return fail(err)
	}

	addr := c.Addr()
	log.Printf("cloud: turn %s: %d messages to %s (%s)", turn, len(messages), addr, c.opts.Model)
	start := time.Now()

	conn, err := c.dial(ctx, addr)
	if err != nil {
		return fail(fmt.Errorf("connect to %s: %w", addr, err))
	}
	defer conn.Close()

	if _, err := conn.Write(frame); err != nil {
		return fail(fmt.Errorf("send request: %w", err))
	}

	parser := NewResponseParser(send)
	buf := make([]byte, ReadChunkSize)
	for {
		// RELIABILITY: the deadline is the only way a stalled read ends.
		if c.opts.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout)); err != nil {
				parser.Close(fmt.Errorf("set read deadline: %w", err))
				break
			}
		}
		n, rerr := conn.Read(buf)
		// Bytes returned alongside an error still count.
		if n > 0 && parser.Feed(buf[:n]) {
			break
		}
		if rerr != nil {
			parser.Close(rerr)
			break
		}
	}

	if perr := parser.Err(); perr != nil {
		log.Printf("cloud: turn %s failed after %s: %v", turn, time.Since(start).Round(time.Millisecond), perr)
		return perr
	}
	log.Printf("cloud: turn %s complete in %s", turn, time.Since(start).Round(time.Millisecond))
	return nil
}
