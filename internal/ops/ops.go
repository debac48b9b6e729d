// Package ops serves each store's operational HTTP surface: liveness,
// readiness and prometheus metrics. It is separate from the framed TCP
// protocol the stores speak to clients.
package ops

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Check reports one readiness probe result.
type Check struct {
	Status   string         `json:"status"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CheckFunc produces a named readiness check.
type CheckFunc func() (string, Check)

// Health returns basic health check
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// Ready runs the store's readiness checks.
func Ready(checks ...CheckFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]Check, len(checks))
		ready := true
		for _, fn := range checks {
			name, c := fn()
			results[name] = c
			if c.Status != "up" {
				ready = false
			}
		}

		response := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"checks":    results,
		}

		w.Header().Set("Content-Type", "application/json")
		if ready {
			response["status"] = "ready"
			w.WriteHeader(http.StatusOK)
		} else {
			response["status"] = "not_ready"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// Router builds the ops router for one store.
func Router(checks ...CheckFunc) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Get("/health", Health)
	r.Get("/health/ready", Ready(checks...))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Serve runs the ops HTTP server until the context is canceled.
func Serve(ctx context.Context, addr string, r chi.Router) {
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("ops server shutdown error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("ops server listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("ops server error", slog.String("error", err.Error()))
	}
}
