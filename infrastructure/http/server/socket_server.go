package server

import (
	"context"
	"kinder-chat/auth"
	"kinder-chat/infrastructure/ws"
	"kinder-chat/observability"
	"kinder-chat/services"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

// SocketServer authenticates the handshake, upgrades it and runs the connection until it goes away.
type SocketServer struct {
	log      *slog.Logger
	tokens   auth.TokenService
	chat     *services.ChatService
	opts     ws.Options
	upgrader websocket.Upgrader
}

func NewSocketServer(log *slog.Logger, tokens auth.TokenService, chat *services.ChatService,
	opts ws.Options, allowedOrigins []string) *SocketServer {
	return &SocketServer{
		log:    log,
		tokens: tokens,
		chat:   chat,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// checkOrigin accepts any origin when the list is empty or holds "*".
// Requests without an Origin header are not browsers and are accepted.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || lo.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || lo.Contains(allowed, origin)
	}
}

func (s *SocketServer) Handle(c *gin.Context) {
	identity, err := s.tokens.Authenticate(c.Request)
	if err != nil {
		observability.HandshakesRejected.Inc()
		s.log.Info("Handshake rejected", "remote", c.ClientIP(), "error", err)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	wsConn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error
		s.log.Warn("Websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	conn := ws.NewConnection(wsConn, s.opts, s.log)
	conn.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session, err := s.chat.Connect(ctx, identity, conn)
	if err != nil {
		s.log.Warn("Connection refused", "user_id", identity.UserID, "error", err)
		_ = conn.Close()
		return
	}
	defer s.chat.Disconnect(session)

	err = conn.ReadLoop(ctx, func(ctx context.Context, frame []byte) {
		s.chat.Dispatch(ctx, session, frame)
	})
	if err != nil {
		s.log.Debug("Read loop ended", "session_id", session.ID, "error", err)
	}
}
