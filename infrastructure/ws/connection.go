package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Options struct {
	BufferSize      int
	DeliveryTimeout time.Duration
	PingInterval    time.Duration
	ReadTimeout     time.Duration
	ReadLimit       int64
}

// Connection wraps a websocket and coordinates outbound writes via a buffered channel.
// Consume and Close are safe for concurrent use; ReadLoop must run in a single goroutine.
type Connection struct {
	ws     *websocket.Conn
	send   chan []byte
	once   sync.Once
	closed chan struct{}
	opts   Options
	log    *slog.Logger
}

func NewConnection(ws *websocket.Conn, opts Options, log *slog.Logger) *Connection {
	return &Connection{
		ws:     ws,
		send:   make(chan []byte, opts.BufferSize),
		closed: make(chan struct{}),
		opts:   opts,
		log:    log,
	}
}

// Start launches the write loop. It must be called exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Consume encodes e and enqueues it. When the buffer is full it waits up to
// DeliveryTimeout, then gives up on this event; the connection stays open.
func (c *Connection) Consume(ctx context.Context, e event.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", e.Type, err)
	}

	select {
	case <-c.closed:
		return errors.ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
	}

	timer := time.NewTimer(c.opts.DeliveryTimeout)
	defer timer.Stop()
	select {
	case <-c.closed:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	case c.send <- payload:
		return nil
	case <-timer.C:
		return errors.ErrDeliveryTimeout
	}
}

// Close terminates the connection and stops the write loop.
// The send channel is never closed so a late Consume cannot panic.
func (c *Connection) Close() error {
	return c.closeWith(websocket.CloseGoingAway, "server closing")
}

func (c *Connection) closeWith(code int, reason string) error {
	var err error
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		err = c.ws.Close()
	})
	return err
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.closed
}

// ReadLoop reads text frames and hands them to handle, one at a time, in arrival order.
// It returns when the peer goes away, the read deadline expires or the connection is closed,
// and always leaves the connection closed.
func (c *Connection) ReadLoop(ctx context.Context, handle func(ctx context.Context, frame []byte)) error {
	defer func() { _ = c.closeWith(websocket.CloseNormalClosure, "session closed") }()

	if c.opts.ReadLimit > 0 {
		c.ws.SetReadLimit(c.opts.ReadLimit)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	})

	for {
		msgType, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Websocket read failed", "error", err)
				return err
			}
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
		handle(ctx, frame)
	}
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.log.Debug("Websocket write failed", "error", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
