package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/bootstrap"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher/jobs"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
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
	slog.Info("starting decrypt worker",
		"topic", cfg.Kafka.Topics.DecryptJobs,
		"group", cfg.Kafka.ConsumerGroup,
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

	// The worker has no API, so the health probes ride on the metrics port.
	shutdownMetrics := metrics.StartServer(cfg.Metrics.Port,
		metrics.Route{Pattern: "GET /health/live", Handler: deps.Checker.LiveHandler()},
		metrics.Route{Pattern: "GET /health/ready", Handler: deps.Checker.ReadyHandler()},
	)
	defer shutdownMetrics(context.Background())

	results := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DecryptResults)
	defer results.Close()

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DecryptJobs, jobs.HandleMessage(deps.Service, results, m))
	defer consumer.Close()

	slog.Info("decrypt worker running", "results_topic", cfg.Kafka.Topics.DecryptResults)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
		os.Exit(1)
	}
	slog.Info("decrypt worker stopped")
}
