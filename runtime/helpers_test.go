package runtime

import (
	"context"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"sync"
)

// recordingConn keeps every delivered event in memory.
type recordingConn struct {
	mu     sync.Mutex
	events []event.Event
	closed bool
	fail   bool
}

func (c *recordingConn) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.fail {
		return errors.ErrConnectionClosed
	}
	c.events = append(c.events, e)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *recordingConn) Events() []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]event.Event(nil), c.events...)
}

func newTestSession(userID string) (*Session, *recordingConn) {
	conn := &recordingConn{}
	return NewSession(domain.Identity{UserID: userID, Role: domain.RoleParent, Username: userID}, conn), conn
}
