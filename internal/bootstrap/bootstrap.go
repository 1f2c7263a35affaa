// Package bootstrap wires the decipher service to its infrastructure for the
// long-running binaries: Postgres for models and runs, Redis as the model
// cache, Kafka for progress events, and the default model from disk.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/decipher"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model/cache"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model/file"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/progress"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/resilience"
)

// Deps is everything a binary needs to serve decrypt requests.
type Deps struct {
	Alphabet *alphabet.Alphabet
	Service  *decipher.Service
	Checker  *health.Checker

	pg        *postgres.Client
	redis     *pkgredis.Client
	producer  *kafka.Producer
	collector *progress.Collector
}

// Open connects to Postgres (required, retried), Redis (optional) and the
// progress topic, loads the default model and builds the service. The
// progress collector runs until ctx ends; call Close on the way out.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Deps, error) {
	a, err := alphabet.New(cfg.Cipher.Alphabet)
	if err != nil {
		return nil, fmt.Errorf("cipher.alphabet: %w", err)
	}
	d := &Deps{Alphabet: a, Checker: health.NewChecker()}

	d.pg, err = resilience.Do(ctx, "postgres-connect", resilience.DefaultRetryConfig(), func() (*postgres.Client, error) {
		return postgres.New(cfg.Postgres)
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := d.pg.Migrate(ctx, store.Schema...); err != nil {
		d.Close()
		return nil, err
	}
	d.Checker.Register("postgres", health.PingCheck(d.pg.Ping))
	st := store.New(d.pg, a)
	opts := []decipher.Option{
		decipher.WithStore(st),
		decipher.WithMetrics(m),
	}

	retryRedis := resilience.RetryConfig{MaxAttempts: 3}
	d.redis, err = resilience.Do(ctx, "redis-connect", retryRedis, func() (*pkgredis.Client, error) {
		return pkgredis.NewClient(cfg.Redis)
	})
	if err != nil {
		slog.Warn("redis unavailable, model caching disabled", "error", err)
		d.Checker.Register("redis", func(context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
		})
	} else {
		backend := cache.Guard(d.redis, resilience.BreakerConfig{FailureThreshold: 5, Cooldown: 30 * time.Second})
		opts = append(opts, decipher.WithCache(cache.New(backend, a, cfg.Redis.CacheTTL, m)))
		d.Checker.Register("redis", health.OptionalCheck(d.redis.Ping))
		slog.Info("model cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	def, err := DefaultModel(cfg.Model, a)
	if err != nil {
		slog.Warn("no default model, requests must name a model_id", "path", cfg.Model.Path, "error", err)
	} else {
		opts = append(opts, decipher.WithDefaultModel(def))
		slog.Info("default model loaded", "model_id", def.ID, "path", cfg.Model.Path)
		if saveErr := st.SaveModel(ctx, def); saveErr != nil {
			slog.Warn("failed to record default model", "model_id", def.ID, "error", saveErr)
		}
	}
	d.Checker.Register("model", modelCheck(err))

	d.producer = kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchProgress)
	d.collector = progress.NewCollector(d.producer, 0, m)
	d.collector.Start(ctx)
	opts = append(opts, decipher.WithReporter(progress.Multi(
		progress.NewLogObserver(slog.Default(), cfg.Search.LogEvery),
		d.collector,
	)))

	d.Service = decipher.New(a, cfg.Search, opts...)
	return d, nil
}

// Close flushes progress events and releases every connection.
func (d *Deps) Close() {
	if d.collector != nil {
		d.collector.Close()
	}
	if d.producer != nil {
		if err := d.producer.Close(); err != nil {
			slog.Error("closing progress producer", "error", err)
		}
	}
	if d.redis != nil {
		d.redis.Close()
	}
	if d.pg != nil {
		d.pg.Close()
	}
}

// DefaultModel loads the model at cfg.Path. When that file does not exist
// but cfg.CorpusPath does, the model is trained from the corpus and saved to
// cfg.Path first.
func DefaultModel(cfg config.ModelConfig, a *alphabet.Alphabet) (model.Model, error) {
	m, err := file.LoadModel(cfg.Path, a)
	if err == nil || !errors.Is(err, fs.ErrNotExist) || cfg.CorpusPath == "" {
		return m, err
	}
	if _, statErr := os.Stat(cfg.CorpusPath); statErr != nil {
		return model.Model{}, err
	}

	text, err := corpus.Load(cfg.CorpusPath, cfg.Encoding)
	if err != nil {
		return model.Model{}, err
	}
	m = model.Train(a, text)
	if m.Pairs == 0 {
		return model.Model{}, fmt.Errorf("corpus %s has no adjacent pair of alphabet symbols", cfg.CorpusPath)
	}
	if err := file.Save(cfg.Path, m.Table); err != nil {
		return model.Model{}, err
	}
	slog.Info("default model trained from corpus", "corpus", cfg.CorpusPath, "pairs", m.Pairs)
	// Reload so the id matches the one every later start derives from the file.
	return file.LoadModel(cfg.Path, a)
}

func modelCheck(loadErr error) health.Check {
	return func(context.Context) health.ComponentHealth {
		if loadErr != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "no default model"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	}
}
