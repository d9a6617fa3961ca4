package services

import (
	"context"
	"encoding/json"
	"fmt"
	"kinder-chat/domain"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"kinder-chat/repositories"
	"kinder-chat/runtime"
	"kinder-chat/runtime/workers"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

var errStoreDown = fmt.Errorf("%w: badger unavailable", errors.ErrStore)

// recordingConn keeps every delivered event, encoded as it would be on the wire.
type recordingConn struct {
	mu     sync.Mutex
	frames []wireFrame
	closed bool
}

type wireFrame struct {
	Event event.Type      `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *recordingConn) Consume(_ context.Context, e event.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.ErrConnectionClosed
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	var f wireFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Of returns the frames of type t, in delivery order.
func (c *recordingConn) Of(t event.Type) []wireFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var res []wireFrame
	for _, f := range c.frames {
		if f.Event == t {
			res = append(res, f)
		}
	}
	return res
}

func (c *recordingConn) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (f wireFrame) decode(t *testing.T, v any) {
	require.NoError(t, json.Unmarshal(f.Data, v))
}

type testEnv struct {
	db           *badger.DB
	log          *slog.Logger
	repos        Repositories
	orchestrator *runtime.Orchestrator
	chat         *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.WARNING))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	repos := Repositories{
		Conversations: repositories.NewConversationRepository(db, log),
		Participants:  repositories.NewParticipantRepository(db),
		Messages:      repositories.NewMessageRepository(db, log, nil),
		Users:         repositories.NewUserRepository(db),
	}
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond), runtime.NewRegistry(), runtime.NewHub())
	return &testEnv{
		db:           db,
		log:          log,
		repos:        repos,
		orchestrator: orchestrator,
		chat:         NewChatService(log, orchestrator, repos, nil, 2000),
	}
}

// conversation creates a conversation with the given participants.
func (e *testEnv) conversation(t *testing.T, id string, userIDs ...string) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, e.repos.Conversations.Create(domain.Conversation{ID: id, Title: id, CreatedAt: now}))
	for _, userID := range userIDs {
		require.NoError(t, e.repos.Participants.Add(domain.Participant{ConversationID: id, UserID: userID, JoinedAt: now}))
	}
}

// connect admits a new connection for userID through the membership resolver.
func (e *testEnv) connect(t *testing.T, userID string) (*runtime.Session, *recordingConn) {
	t.Helper()
	conn := &recordingConn{}
	session, err := e.chat.Connect(context.Background(), domain.Identity{UserID: userID, Role: domain.RoleParent, Username: userID}, conn)
	require.NoError(t, err)
	return session, conn
}

func (e *testEnv) storedMessages(t *testing.T, conversationID string) []domain.Message {
	t.Helper()
	messages, _, err := e.repos.Messages.GetMessages(conversationID, nil)
	require.NoError(t, err)
	return messages
}

func frame(t *testing.T, name event.Type, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	b, err := json.Marshal(event.Inbound{Type: name, Data: raw})
	require.NoError(t, err)
	return b
}
