package ws

import (
	"context"
	"encoding/json"
	"kinder-chat/domain/event"
	"kinder-chat/errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

var testOptions = Options{
	BufferSize:      4,
	DeliveryTimeout: 50 * time.Millisecond,
	PingInterval:    time.Second,
	ReadTimeout:     5 * time.Second,
	ReadLimit:       1 << 16,
}

// newPair starts a server-side Connection and returns it with the client end.
func newPair(t *testing.T, opts Options, start bool) (*Connection, *websocket.Conn, chan []byte) {
	t.Helper()
	frames := make(chan []byte, 16)
	connChan := make(chan *Connection, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(raw, opts, slog.Default())
		if start {
			conn.Start()
		}
		connChan <- conn
		_ = conn.ReadLoop(context.Background(), func(_ context.Context, frame []byte) {
			frames <- frame
		})
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	select {
	case conn := <-connChan:
		return conn, client, frames
	case <-time.After(2 * time.Second):
		t.Fatal("server connection not established")
		return nil, nil, nil
	}
}

func TestConnection_Consume_Writes_Json_Frame(t *testing.T) {
	req := require.New(t)
	conn, client, _ := newPair(t, testOptions, true)

	err := conn.Consume(context.Background(), event.New(event.MarkedAsReadType, event.MarkedAsRead{ConversationID: "conv-1", Count: 2}))
	req.NoError(err)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"event":"marked_as_read","data":{"conversation_id":"conv-1","count":2}}`, string(data))
}

func TestConnection_ReadLoop_Hands_Frames_In_Order(t *testing.T) {
	req := require.New(t)
	_, client, frames := newPair(t, testOptions, true)

	for _, name := range []string{"typing", "mark_as_read"} {
		payload, err := json.Marshal(map[string]string{"event": name})
		req.NoError(err)
		req.NoError(client.WriteMessage(websocket.TextMessage, payload))
	}

	for _, name := range []string{"typing", "mark_as_read"} {
		select {
		case frame := <-frames:
			req.Contains(string(frame), name)
		case <-time.After(2 * time.Second):
			req.Fail("frame not received")
		}
	}
}

func TestConnection_Full_Buffer_Times_Out(t *testing.T) {
	req := require.New(t)
	opts := testOptions
	opts.BufferSize = 1
	// Write loop not started: nothing drains the buffer
	conn, _, _ := newPair(t, opts, false)

	evt := event.New(event.UserTypingType, event.UserTyping{ConversationID: "conv-1"})
	req.NoError(conn.Consume(context.Background(), evt))
	req.ErrorIs(conn.Consume(context.Background(), evt), errors.ErrDeliveryTimeout)
}

func TestConnection_Consume_After_Close(t *testing.T) {
	req := require.New(t)
	conn, client, _ := newPair(t, testOptions, true)

	req.NoError(conn.Close())
	req.NoError(conn.Close())
	req.ErrorIs(conn.Consume(context.Background(), event.New(event.UserTypingType, nil)), errors.ErrConnectionClosed)

	// The client sees the close frame
	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	req.Error(err)

	select {
	case <-conn.Done():
	default:
		req.Fail("connection should be done")
	}
}
