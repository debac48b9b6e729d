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
	cfg := config.Load(":5400", ":9400")

	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting productdb store")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	catalog := store.NewProductStore()

	var opts []server.Option
	opts = append(opts, server.WithMaxFrameBytes(cfg.MaxFrameBytes))
	if cfg.RateLimitRPS > 0 {
		limiter := server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		defer limiter.Stop()
		opts = append(opts, server.WithRateLimiter(limiter))
	}

	srv := server.New("productdb", cfg.ListenAddr, handler.NewProductHandler(catalog).Mux(), opts...)

	go ops.Serve(ctx, cfg.OpsAddr, ops.Router(func() (string, ops.Check) {
		return "catalog", ops.Check{Status: "up"}
	}))

	if err := srv.ListenAndServe(ctx); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("productdb stopped gracefully")
}
