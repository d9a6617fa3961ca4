package main

import (
	"context"
	"fmt"
	"io/fs"
	"kinder-chat/auth"
	"kinder-chat/infrastructure/http/server"
	"kinder-chat/infrastructure/ws"
	"kinder-chat/internal"
	"kinder-chat/moderation"
	"kinder-chat/repositories"
	"kinder-chat/runtime"
	"kinder-chat/runtime/workers"
	"kinder-chat/services"
	"kinder-chat/storage"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

const (
	exitOK = iota
	exitRuntime
	exitConfig
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until a signal arrives.
// Returning instead of exiting lets the deferred cleanups run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	repos := services.Repositories{
		Conversations: repositories.NewConversationRepository(db, log),
		Participants:  repositories.NewParticipantRepository(db),
		Messages:      repositories.NewMessageRepository(db, log, config.LimitMessages),
		Users:         repositories.NewUserRepository(db),
	}

	images, err := storage.NewDiskImageStore(config.ImageDir, config.ImageBaseURL, config.MaxImageBytes, log)
	if err != nil {
		return exitConfig, err
	}

	// 3. Setup Supervision & Orchestration
	orchestrator := runtime.NewOrchestrator(log,
		workers.NewSupervisor(log, config.RestartInterval), runtime.NewRegistry(), runtime.NewHub())

	chat := services.NewChatService(log, orchestrator, repos, images, config.MaxContentLength)
	if config.EnableModeration {
		moderator, err := newModerator(log, config)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation: %w", err)
		}
		chat.WithModerator(moderator)
	}

	// 4. HTTP & websocket surface
	tokens := auth.NewTokenService(config.JwtSecret, config.JwtIssuer)
	opts := ws.Options{
		BufferSize:      config.ConnectionBufferSize,
		DeliveryTimeout: config.DeliveryTimeout,
		PingInterval:    config.PingInterval,
		ReadTimeout:     config.ReadTimeout,
		ReadLimit:       config.ReadLimit,
	}
	router := server.NewRouter(log, server.RouterConfig{
		Tokens:        tokens,
		Socket:        server.NewSocketServer(log, tokens, chat, opts, config.Origins()),
		Conversations: server.NewConversationServer(log, services.NewConversationService(log, repos)),
		Stats:         orchestrator,
		ImageDir:      config.ImageDir,
	})
	httpServer := &http.Server{Addr: config.Address(), Handler: router}

	orchestrator.Add(
		workers.NewHTTPServerWorker(log, httpServer, config.ShutdownTimeout),
		workers.NewPresenceWorker(log, orchestrator, config.MetricInterval),
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Blocks until the signal, then every worker has returned
	if err := orchestrator.Start(ctx); err != nil {
		return exitRuntime, fmt.Errorf("orchestrator failed: %w", err)
	}

	// 7. Final Cleanup
	orchestrator.Stop()
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

func newModerator(log *slog.Logger, config internal.Config) (moderation.Moderator, error) {
	char, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return moderation.Moderator{}, err
	}

	var source fs.FS
	path := "censored"
	if config.CensoredDir != "" {
		source, path = os.DirFS(config.CensoredDir), "."
	}
	data, err := moderation.NewCensoredLoader(source).LoadAll(path)
	if err != nil {
		return moderation.Moderator{}, err
	}
	log.Info("Censored words loaded", "words", len(data.Words), "languages", data.Languages)
	return moderation.NewModerator(data.Words, char, log)
}
