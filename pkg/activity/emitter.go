// Package activity records audit events off the request path. Handlers hand
// events to the emitter and return; a worker pool persists each event and
// fans it out to the project's Pub/Sub channel for live subscribers. A lost
// activity event never fails a credit or a chat turn.
package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/redis"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
	writeTimeout     = 10 * time.Second
)

// Store is the subset of the ledger store the emitter writes through.
type Store interface {
	InsertActivityEvent(ctx context.Context, e *ledgermodels.ActivityEvent) error
}

// Emitter persists activity events asynchronously and publishes them to
// Redis for websocket subscribers.
type Emitter struct {
	logger *zap.Logger
	store  Store
	redis  *redis.Client
	pool   pond.Pool
}

// NewEmitter builds an emitter backed by a bounded worker pool. redisClient
// may be nil; events are then persisted without fanout.
func NewEmitter(logger *zap.Logger, store Store, redisClient *redis.Client) *Emitter {
	return &Emitter{
		logger: logger,
		store:  store,
		redis:  redisClient,
		pool:   pond.NewPool(defaultWorkers, pond.WithQueueSize(defaultQueueSize)),
	}
}

// Emit enqueues an activity event for persistence and fanout. Never blocks
// the caller beyond queue admission; failures are logged and dropped.
func (e *Emitter) Emit(event *ledgermodels.ActivityEvent) {
	e.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := e.store.InsertActivityEvent(ctx, event); err != nil {
			e.logger.Error("failed to persist activity event",
				zap.String("event_type", string(event.EventType)),
				zap.String("project_id", event.ProjectID),
				zap.Error(err))
			return
		}

		if e.redis == nil || event.ProjectID == "" {
			return
		}
		payload, err := json.Marshal(event)
		if err != nil {
			e.logger.Error("failed to marshal activity event", zap.Error(err))
			return
		}
		e.redis.Publish(ctx, redis.ActivityChannel(event.ProjectID), payload)
		e.redis.XAdd(ctx, redis.ActivityStream(event.ProjectID), map[string]interface{}{
			"event": string(payload),
		})
	})
}

// Stop drains the queue and waits for in-flight writes.
func (e *Emitter) Stop() {
	e.pool.StopAndWait()
}
