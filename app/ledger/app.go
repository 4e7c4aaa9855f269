package ledger

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/vamo-hq/ledgerx/app/ledger/types"
	"github.com/vamo-hq/ledgerx/pkg/activity"
	ledgerstore "github.com/vamo-hq/ledgerx/pkg/db/ledger"
	"github.com/vamo-hq/ledgerx/pkg/db/postgres"
	"github.com/vamo-hq/ledgerx/pkg/logging"
	"github.com/vamo-hq/ledgerx/pkg/progress"
	"github.com/vamo-hq/ledgerx/pkg/ratelimit"
	"github.com/vamo-hq/ledgerx/pkg/redis"
	"github.com/vamo-hq/ledgerx/pkg/suggest"
	"github.com/vamo-hq/ledgerx/pkg/utils"
)

func Initialize(ctx context.Context) *types.App {
	logger, err := logging.New()
	if err != nil {
		// nothing else to do here, we'll just log to stderr
		panic(err)
	}

	pgClient, err := postgres.New(ctx, logger, postgres.DefaultPoolConfig("ledger"))
	if err != nil {
		logger.Fatal("Unable to initialize postgres connection", zap.Error(err))
	}

	db := ledgerstore.New(&pgClient, logger)
	if schemaErr := db.InitializeSchema(ctx); schemaErr != nil {
		logger.Fatal("Unable to initialize ledger schema", zap.Error(schemaErr))
	}

	// Redis is optional: without it the limiter falls back to in-process
	// state and live activity fanout is disabled.
	var redisClient *redis.Client
	if utils.Env("REDIS_ENABLED", "false") == "true" {
		redisClient, err = redis.NewClient(ctx, logger)
		if err != nil {
			logger.Warn("Failed to initialize Redis client - falling back to in-process rate limiting",
				zap.Error(err))
			redisClient = nil
		} else {
			logger.Info("Redis client initialized")
		}
	} else {
		logger.Info("Redis disabled - using in-process rate limiting, no live activity feed")
	}

	var limiter ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient.GetClient(), ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	} else {
		limiter = ratelimit.NewMemoryLimiter(ratelimit.DefaultWindow, ratelimit.DefaultLimit)
	}

	app := &types.App{
		DB:          db,
		RedisClient: redisClient,
		Limiter:     limiter,
		Provider:    suggest.NewOpenAIProviderFromEnv(logger),
		Updater:     progress.NewUpdater(db, logger),
		Emitter:     activity.NewEmitter(logger, db, redisClient),
		CronSpec:    utils.Env("RECONCILE_CRON", "0 */10 * * * *"),
		Logger:      logger,
	}

	if schedulerErr := setupScheduler(ctx, app); schedulerErr != nil {
		logger.Fatal("Unable to set up reconciliation scheduler", zap.Error(schedulerErr))
	}

	return app
}

// setupScheduler registers the periodic balance reconciliation sweep. The
// ledger is authoritative; the sweep repairs any balance row that disagrees
// with the newest entry's balance_after.
func setupScheduler(ctx context.Context, app *types.App) error {
	app.Cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	_, err := app.Cron.AddFunc(app.CronSpec, func() {
		// keep each run bounded
		rctx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if _, reconcileErr := app.DB.ReconcileBalances(rctx); reconcileErr != nil {
			app.Logger.Error("Balance reconciliation failed", zap.Error(reconcileErr))
		}
	})
	return err
}
