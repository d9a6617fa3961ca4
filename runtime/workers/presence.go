package workers

import (
	"context"
	"kinder-chat/observability"
	"log/slog"
	"time"
)

type StatsProvider interface {
	Stats() (users, connections int)
}

// PresenceWorker samples the registry on every tick and publishes the presence gauges.
type PresenceWorker struct {
	log            *slog.Logger
	stats          StatsProvider
	metricInterval time.Duration
}

func NewPresenceWorker(log *slog.Logger, stats StatsProvider, metricInterval time.Duration) *PresenceWorker {
	return &PresenceWorker{log: log, stats: stats, metricInterval: metricInterval}
}

func (w *PresenceWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping presence sampling")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

func (w *PresenceWorker) Sample() (users, connections int) {
	users, connections = w.stats.Stats()
	observability.OnlineUsers.Set(float64(users))
	observability.LiveConnections.Set(float64(connections))
	w.log.Debug("Presence", "online_users", users, "connections", connections)
	return users, connections
}
