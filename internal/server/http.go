package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// healthOutput is the /health response body.
type healthOutput struct {
	Status    string          `json:"status"`
	Checks    map[string]bool `json:"checks"`
	Timestamp string          `json:"timestamp"`
}

// pinger is the journal's health probe.
type pinger interface {
	Ping(ctx context.Context) error
}

// health reports NATS connectivity and, when the journal is enabled, its database.
func (s *Server) health(ctx context.Context) *healthOutput {
	out := &healthOutput{
		Status:    "healthy",
		Checks:    map[string]bool{"comms": s.nc != nil && s.nc.IsConnected()},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if s.journal != nil {
		out.Checks["journal"] = s.journal.Ping(ctx) == nil
	}
	for _, ok := range out.Checks {
		if !ok {
			out.Status = "unhealthy"
		}
	}
	return out
}

func (s *Server) routes() *http.ServeMux {
	healthTimeout := s.cfg.HealthCheckTimeout
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		h := s.health(ctx)
		w.Header().Set("Content-Type", "application/json")
		if h.Status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(h)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})
	mux.HandleFunc("/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"subscriptions": s.orch.Subscriptions()})
	})
	return mux
}
