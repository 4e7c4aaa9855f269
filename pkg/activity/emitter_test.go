package activity

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu     sync.Mutex
	events []*ledgermodels.ActivityEvent
	err    error
}

func (f *fakeStore) InsertActivityEvent(_ context.Context, e *ledgermodels.ActivityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, e)
	return nil
}

func TestEmitter_PersistsEvents(t *testing.T) {
	store := &fakeStore{}
	emitter := NewEmitter(zap.NewNop(), store, nil)

	for i := 0; i < 10; i++ {
		emitter.Emit(&ledgermodels.ActivityEvent{
			ProjectID: "project-1",
			UserID:    "user-1",
			EventType: ledgermodels.EventUpdate,
		})
	}
	emitter.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	require.Len(t, store.events, 10)
	assert.Equal(t, ledgermodels.EventUpdate, store.events[0].EventType)
}

func TestEmitter_StoreFailureDoesNotPanic(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	emitter := NewEmitter(zap.NewNop(), store, nil)

	emitter.Emit(&ledgermodels.ActivityEvent{UserID: "user-1", EventType: ledgermodels.EventUpdate})
	emitter.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Empty(t, store.events)
}
