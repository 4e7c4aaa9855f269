package types

import (
	"context"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vamo-hq/ledgerx/pkg/activity"
	ledgerstore "github.com/vamo-hq/ledgerx/pkg/db/ledger"
	"github.com/vamo-hq/ledgerx/pkg/progress"
	"github.com/vamo-hq/ledgerx/pkg/ratelimit"
	"github.com/vamo-hq/ledgerx/pkg/redis"
	"github.com/vamo-hq/ledgerx/pkg/suggest"
)

type App struct {
	// Ledger store (balances, reward ledger, redemptions, projects, activity)
	DB *ledgerstore.DB

	// Redis Client (rate limiter shared state + activity fanout); nil when disabled
	RedisClient *redis.Client

	// Per-user sliding window limiter for chat turns
	Limiter ratelimit.Limiter

	// Advisory suggestion provider (OpenAI or noop)
	Provider suggest.Provider

	// Progress & valuation merge
	Updater *progress.Updater

	// Async activity/audit emitter
	Emitter *activity.Emitter

	// Cron runs the balance reconciliation sweep
	Cron     *cron.Cron
	CronSpec string

	// Zap Logger
	Logger *zap.Logger

	// HTTP Server
	Server *http.Server
}

// Start runs the HTTP server until the context is cancelled, then shuts
// everything down in dependency order.
func (a *App) Start(ctx context.Context) {
	if a.Cron != nil {
		a.Cron.Start()
		a.Logger.Info("Reconciliation cron started", zap.String("cronSpec", a.CronSpec))
	}

	go func() { _ = a.Server.ListenAndServe() }()
	<-ctx.Done()

	if a.Cron != nil {
		a.Logger.Info("Stopping reconciliation cron")
		<-a.Cron.Stop().Done()
	}

	if a.Emitter != nil {
		a.Logger.Info("Draining activity emitter")
		a.Emitter.Stop()
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = a.Server.Shutdown(shutdownCtx)

	if a.RedisClient != nil {
		a.Logger.Info("closing redis connection")
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if a.DB != nil {
		a.Logger.Info("closing ledger database connection")
		a.DB.Close()
	}
}
