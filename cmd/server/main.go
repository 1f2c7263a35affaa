package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher/handler"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting decipher server",
		"port", cfg.Server.Port,
		"stall_limit", cfg.Search.StallLimit,
		"restarts", cfg.Search.Restarts,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	deps, err := bootstrap.Open(ctx, cfg, m)
	if err != nil {
		slog.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var limiter *ratelimit.Limiter
	if cfg.Server.RateLimit > 0 {
		limiter = ratelimit.New(cfg.Server.RateLimit, time.Minute)
		defer limiter.Close()
	}

	mux := http.NewServeMux()
	handler.New(deps.Service, cfg.Server.MaxBodyBytes).Register(mux)
	mux.HandleFunc("GET /health/live", deps.Checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", deps.Checker.ReadyHandler())

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Metrics(m),
			middleware.RateLimit(limiter),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("decipher server listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("decipher server stopped")
}
