// Package cache keeps trained models in Redis under model:<id> and makes sure
// concurrent requests to train the same corpus train it once.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/resilience"
)

const keyPrefix = "model:"

// Backend is the subset of the Redis client the cache uses.
type Backend interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ModelCache is a read-through model cache. Redis failures are logged and
// treated as misses; they never fail a request.
type ModelCache struct {
	backend Backend
	alpha   *alphabet.Alphabet
	ttl     time.Duration
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates a ModelCache. m may be nil.
func New(backend Backend, a *alphabet.Alphabet, ttl time.Duration, m *metrics.Metrics) *ModelCache {
	return &ModelCache{
		backend: backend,
		alpha:   a,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "model-cache"),
	}
}

// Key returns the Redis key for a model id.
func Key(id string) string {
	return keyPrefix + id
}

// Get returns the cached model with the given id.
func (c *ModelCache) Get(ctx context.Context, id string) (model.Model, bool) {
	key := Key(id)
	data, err := c.backend.GetBytes(ctx, key)
	if err != nil {
		switch {
		case pkgredis.IsNilError(err):
		case errors.Is(err, resilience.ErrOpen):
			c.logger.Debug("cache bypassed", "key", key, "error", err)
		default:
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return model.Model{}, false
	}
	m, err := model.Unmarshal(data, c.alpha)
	if err != nil {
		c.logger.Error("cache decode failed", "key", key, "error", err)
		c.miss()
		return model.Model{}, false
	}
	c.hit()
	c.logger.Debug("cache hit", "key", key)
	return m, true
}

// Put stores m under its id.
func (c *ModelCache) Put(ctx context.Context, m model.Model) {
	key := Key(m.ID)
	data, err := model.Marshal(m)
	if err != nil {
		c.logger.Error("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrTrain returns the model for a raw corpus, training it on a miss. The
// bool reports whether it came from the cache. Callers racing on the same
// corpus share one training.
func (c *ModelCache) GetOrTrain(ctx context.Context, raw string) (model.Model, bool, error) {
	normalized := corpus.Normalize(raw)
	id := model.ID(c.alpha, []byte(normalized))
	if m, ok := c.Get(ctx, id); ok {
		return m, true, nil
	}
	v, err, _ := c.group.Do(id, func() (any, error) {
		if m, ok := c.Get(ctx, id); ok {
			return m, nil
		}
		m := model.TrainNormalized(c.alpha, normalized)
		if m.ID != id {
			return nil, fmt.Errorf("trained model id %s does not match %s", m.ID, id)
		}
		if c.metrics != nil {
			c.metrics.ModelsTrainedTotal.Inc()
		}
		c.logger.Info("model trained", "model_id", m.ID, "pairs", m.Pairs)
		c.Put(ctx, m)
		return m, nil
	})
	if err != nil {
		return model.Model{}, false, err
	}
	return v.(model.Model), false, nil
}

// Stats returns the hit and miss counts since creation.
func (c *ModelCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ModelCache) hit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.ModelCacheHits.Inc()
	}
}

func (c *ModelCache) miss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.ModelCacheMisses.Inc()
	}
}
