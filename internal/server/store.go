package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/morezero/intent-dispatch/pkg/events"
)

// stateBox wraps the snapshot so atomic.Value always stores one concrete type.
type stateBox struct {
	v any
}

// hostStore is the daemon's orchestrator.Store. State is the latest snapshot
// received on the state subject; dispatched actions go to the publisher.
type hostStore struct {
	state     atomic.Value
	publisher events.Publisher
}

func newHostStore(publisher events.Publisher) *hostStore {
	s := &hostStore{publisher: publisher}
	s.state.Store(stateBox{})
	return s
}

// State returns the current host state snapshot.
func (s *hostStore) State() any {
	return s.state.Load().(stateBox).v
}

// Dispatch publishes an action. Publish failures are logged and dropped.
func (s *hostStore) Dispatch(ctx context.Context, action any) {
	if err := s.publisher.Publish(ctx, action); err != nil {
		slog.Error(fmt.Sprintf("%s - failed to publish action: %v", logPrefix, err))
	}
}

// setState replaces the snapshot with a decoded JSON document.
func (s *hostStore) setState(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%s - state snapshot is not JSON: %w", logPrefix, err)
	}
	s.state.Store(stateBox{v: v})
	return nil
}
