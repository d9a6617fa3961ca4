package server

import (
	"kinder-chat/auth"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type StatsProvider interface {
	Stats() (users, connections int)
}

type RouterConfig struct {
	Tokens        auth.TokenService
	Socket        *SocketServer
	Conversations *ConversationServer
	Stats         StatsProvider
	ImageDir      string
}

// NewRouter mounts the public endpoints, the websocket endpoint and the bearer-protected API.
func NewRouter(log *slog.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))

	r.GET("/health", func(c *gin.Context) {
		users, connections := cfg.Stats.Stats()
		c.JSON(http.StatusOK, gin.H{"status": "ok", "online_users": users, "connections": connections})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.ImageDir != "" {
		r.Static("/images", cfg.ImageDir)
	}

	// Authentication happens before the upgrade, inside the handler
	r.GET("/ws", cfg.Socket.Handle)

	api := r.Group("/", auth.AuthInterceptor(cfg.Tokens))
	api.POST("/conversations", cfg.Conversations.Create)
	api.POST("/conversations/:id/participants", cfg.Conversations.AddParticipant)
	api.GET("/conversations/:id/messages", cfg.Conversations.History)
	api.PUT("/users/:id", cfg.Conversations.SaveUser)
	return r
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
