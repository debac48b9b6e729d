package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"emarket/internal/config"
	"emarket/internal/handler"
	"emarket/internal/observability"
	"emarket/internal/ops"
	"emarket/internal/server"
	"emarket/internal/store"
)

func main() {
	cfg := config.Load(":5300", ":9300")

	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting customerdb store")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	customers := store.NewCustomerStore(cfg.SessionTimeout)
	customers.StartSweeper(ctx, cfg.SweepInterval)
	slog.Info("session sweeper started",
		slog.Duration("timeout", cfg.SessionTimeout),
		slog.Duration("interval", cfg.SweepInterval))

	var opts []server.Option
	opts = append(opts, server.WithMaxFrameBytes(cfg.MaxFrameBytes))
	if cfg.RateLimitRPS > 0 {
		limiter := server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer limiter.Stop()
		opts = append(opts, server.WithRateLimiter(limiter))
	}

	srv := server.New("customerdb", cfg.ListenAddr, handler.NewCustomerHandler(customers).Mux(), opts...)

	go ops.Serve(ctx, cfg.OpsAddr, ops.Router(func() (string, ops.Check) {
		return "sessions", ops.Check{
			Status:   "up",
			Metadata: map[string]any{"active": customers.ActiveSessions()},
		}
	}))

	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("customerdb stopped gracefully")
}
