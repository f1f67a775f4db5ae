// Package chat manages the per-job bidirectional message channel. A channel
// tracks the panel lifecycle: it only holds a live socket while the panel is
// open, replaces its buffer from the one-shot history frame, and appends
// arrivals in server order.
package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/do4u-project/do4u/pkg/models"
)

// Status is the channel's lifecycle position.
type Status int

const (
	// StatusDisabled: job status does not permit chat; nothing is rendered.
	StatusDisabled Status = iota
	// StatusClosed: chat is permitted but the panel is shut; no connection.
	StatusClosed
	// StatusConnecting: dial in progress.
	StatusConnecting
	// StatusOpen: socket established, history received or pending.
	StatusOpen
	// StatusNotConnected: the connection failed or closed abnormally. The
	// user must close and reopen the panel to retry.
	StatusNotConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisabled:
		return "disabled"
	case StatusClosed:
		return "closed"
	case StatusConnecting:
		return "connecting"
	case StatusOpen:
		return "open"
	case StatusNotConnected:
		return "not connected"
	default:
		return "unknown"
	}
}

// ErrNotConnected is returned by Send when the channel has no open socket.
var ErrNotConnected = errors.New("chat: not connected")

// Wire frame types. History arrives once per connection; everything after is
// a single new message per frame.
const (
	frameTypeHistory    = "history"
	frameTypeNewMessage = "new_message"
	frameTypeMessage    = "message"
)

type inboundFrame struct {
	Type     string               `json:"type"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
	Message  *models.ChatMessage  `json:"message,omitempty"`
}

type outboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SocketURLProvider yields the dial URL for a job's chat socket, token
// included. Satisfied by client.Client.
type SocketURLProvider interface {
	ChatSocketURL(jobID string) string
}

type Config struct {
	dialer           *websocket.Dialer
	handshakeTimeout time.Duration
	onMessage        func(models.ChatMessage)
}

type Option func(*Config)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *Config) { c.dialer = d }
}

func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *Config) { c.handshakeTimeout = d }
}

// WithMessageCallback registers a callback invoked for every appended message,
// history replay included.
func WithMessageCallback(f func(models.ChatMessage)) Option {
	return func(c *Config) { c.onMessage = f }
}

// Channel is one job's chat widget state. Drive it with SetStatus from job
// snapshot refreshes and OpenPanel/ClosePanel from the UI; Close on unmount.
type Channel struct {
	id    string
	jobID string
	urls  SocketURLProvider
	cfg   Config

	mu        sync.Mutex
	status    Status
	jobStatus models.JobStatus
	conn      *websocket.Conn
	gen       int
	messages  []models.ChatMessage
}

// NewChannel builds a disabled channel for jobID. Feed it the job's current
// status before opening the panel.
func NewChannel(jobID string, urls SocketURLProvider, options ...Option) *Channel {
	cfg := Config{handshakeTimeout: 10 * time.Second}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.dialer == nil {
		cfg.dialer = &websocket.Dialer{HandshakeTimeout: cfg.handshakeTimeout}
	}
	return &Channel{
		id:     uuid.NewString(),
		jobID:  jobID,
		urls:   urls,
		cfg:    cfg,
		status: StatusDisabled,
	}
}

// Status returns the channel's current lifecycle status.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a copy of the message buffer in arrival order.
func (c *Channel) Messages() []models.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Unread returns the toggle badge count: the size of the message buffer while
// the panel is shut, zero while it is open. Presentation-only; not persisted
// read state.
func (c *Channel) Unread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusOpen || c.status == StatusConnecting {
		return 0
	}
	return len(c.messages)
}

// SetStatus feeds a fresh job status into the channel. Leaving the chat-
// permitted statuses disables the channel and tears down any live socket.
func (c *Channel) SetStatus(status models.JobStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobStatus = status
	if !status.AllowsChat() {
		c.teardownLocked()
		c.status = StatusDisabled
		return
	}
	if c.status == StatusDisabled {
		c.status = StatusClosed
	}
}

// OpenPanel dials the job's socket and starts consuming frames. A channel in
// StatusNotConnected may be reopened; this is the only retry path. Opening an
// already-open panel is a no-op.
func (c *Channel) OpenPanel(ctx context.Context) error {
	c.mu.Lock()
	switch c.status {
	case StatusDisabled:
		c.mu.Unlock()
		return errors.Errorf("chat is not available while job is %s", c.jobStatus)
	case StatusConnecting, StatusOpen:
		c.mu.Unlock()
		return nil
	case StatusClosed, StatusNotConnected:
	}
	c.status = StatusConnecting
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	dialURL := c.urls.ChatSocketURL(c.jobID)
	conn, resp, err := c.cfg.dialer.DialContext(ctx, dialURL, nil) //nolint:bodyclose // gorilla owns resp.Body on success
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		log.Warn().Err(err).Str("job", c.jobID).Msg("chat dial failed")
		c.fail(gen)
		return errors.Wrap(err, "connecting to chat")
	}

	c.mu.Lock()
	// The panel may have been closed while the dial was in flight.
	if c.gen != gen || c.status != StatusConnecting {
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.status = StatusOpen
	c.mu.Unlock()

	log.Debug().Str("channel", c.id).Str("job", c.jobID).Msg("chat socket open")
	go c.readLoop(conn, gen)
	return nil
}

// ClosePanel shuts the panel and closes the socket if one is live. The socket
// is closed exactly once; no frame is sent after closure.
func (c *Channel) ClosePanel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusDisabled {
		return
	}
	c.teardownLocked()
	c.status = StatusClosed
}

// Close tears the channel down on unmount. Equivalent to ClosePanel but also
// valid on a disabled channel.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
	if c.status != StatusDisabled {
		c.status = StatusClosed
	}
}

// teardownLocked closes the live socket, if any, and invalidates in-flight
// dials and read loops. Callers hold c.mu.
func (c *Channel) teardownLocked() {
	c.gen++
	if c.conn != nil {
		conn := c.conn
		c.conn = nil
		// Best-effort close handshake before dropping the connection.
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		conn.Close()
	}
}

// Send writes one outbound message frame. Only permitted while the socket is
// open; text empty after trimming is rejected without touching the wire.
func (c *Channel) Send(content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("chat: empty message")
	}

	c.mu.Lock()
	conn := c.conn
	open := c.status == StatusOpen
	c.mu.Unlock()
	if !open || conn == nil {
		return ErrNotConnected
	}

	payload, err := json.Marshal(outboundFrame{Type: frameTypeMessage, Content: content})
	if err != nil {
		return errors.Wrap(err, "encoding chat message")
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Warn().Err(err).Str("job", c.jobID).Msg("chat send failed")
		c.failConn(conn)
		return ErrNotConnected
	}
	return nil
}

// readLoop consumes inbound frames until the connection dies or a newer
// generation supersedes it.
func (c *Channel) readLoop(conn *websocket.Conn, gen int) {
	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			c.mu.Lock()
			stale := c.gen != gen
			c.mu.Unlock()
			if stale {
				// Intentional teardown; ClosePanel already set the status.
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("job", c.jobID).Msg("chat socket closed abnormally")
			}
			c.failConn(conn)
			return
		}

		switch frame.Type {
		case frameTypeHistory:
			c.mu.Lock()
			fresh := c.gen == gen
			if fresh {
				c.messages = append([]models.ChatMessage(nil), frame.Messages...)
			}
			c.mu.Unlock()
			if fresh && c.cfg.onMessage != nil {
				for _, m := range frame.Messages {
					c.cfg.onMessage(m)
				}
			}
		case frameTypeNewMessage:
			if frame.Message == nil {
				continue
			}
			c.mu.Lock()
			fresh := c.gen == gen
			if fresh {
				c.messages = append(c.messages, *frame.Message)
			}
			c.mu.Unlock()
			if fresh && c.cfg.onMessage != nil {
				c.cfg.onMessage(*frame.Message)
			}
		default:
			log.Debug().Str("type", frame.Type).Str("job", c.jobID).Msg("ignoring unknown chat frame")
		}
	}
}

// fail marks a generation's connection attempt as dead, unless a newer
// generation has already taken over.
func (c *Channel) fail(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return
	}
	c.status = StatusNotConnected
}

// failConn transitions to NotConnected if conn is still the live connection.
func (c *Channel) failConn(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != conn {
		return
	}
	c.conn = nil
	conn.Close()
	c.status = StatusNotConnected
}
