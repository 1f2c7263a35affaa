package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/resilience"
)

type guarded struct {
	backend Backend
	breaker *resilience.Breaker
}

// Guard puts a circuit breaker in front of backend. While Redis is failing
// the cache answers with resilience.ErrOpen at once, which ModelCache treats
// as a miss. Misses themselves do not count as failures.
func Guard(backend Backend, cfg resilience.BreakerConfig) Backend {
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil && !pkgredis.IsNilError(err) }
	}
	return &guarded{backend: backend, breaker: resilience.NewBreaker("model-cache", cfg)}
}

func (g *guarded) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := g.breaker.Do(func() error {
		var err error
		data, err = g.backend.GetBytes(ctx, key)
		return err
	})
	return data, err
}

func (g *guarded) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.backend.Set(ctx, key, value, ttl)
	})
}
