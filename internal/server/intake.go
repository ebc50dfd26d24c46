package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intent-dispatch/pkg/intent"
)

// decodeAction turns an intake message into an action. JSON objects whose kind
// is a non-empty string become intents; every other body passes through as
// decoded JSON, or as a string when it is not JSON.
func decodeAction(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	if m, ok := v.(map[string]any); ok {
		if kind, ok := m["kind"].(string); ok && kind != "" {
			return intent.FromMap(m)
		}
	}
	return v
}

// handleIntake processes one intake message on its own goroutine. With a
// limiter set, it blocks the subscription until a token is available.
func (s *Server) handleIntake(ctx context.Context, msg *comms.Msg) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			slog.Warn(fmt.Sprintf("%s - dropping intake message: %v", logPrefix, err))
			return
		}
	}

	action := decodeAction(msg.Data)
	s.mu.Lock()
	if s.stopping {
		s.mu.Unlock()
		slog.Debug(fmt.Sprintf("%s - dropping intake message during shutdown", logPrefix))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		s.orch.Handle(ctx, s.store, s.forward, action)
	}()
}

// forward is the orchestrator's next stage: every action goes to the store.
func (s *Server) forward(ctx context.Context, action any) {
	s.store.Dispatch(ctx, action)
}
