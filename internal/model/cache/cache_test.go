package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
)

type memBackend struct {
	mu     sync.Mutex
	data   map[string][]byte
	ttls   map[string]time.Duration
	gets   atomic.Int64
	sets   atomic.Int64
	getErr error
}

func newMemBackend() *memBackend {
	return &memBackend{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (b *memBackend) GetBytes(_ context.Context, key string) ([]byte, error) {
	b.gets.Add(1)
	if b.getErr != nil {
		return nil, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, goredis.Nil
	}
	return v, nil
}

func (b *memBackend) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	b.sets.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value.([]byte)
	b.ttls[key] = ttl
	return nil
}

const text = "Мама мыла раму, а папа читал газету."

func TestGetOrTrainMissThenHit(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	backend := newMemBackend()
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	c := New(backend, a, time.Hour, m)

	first, cached, err := c.GetOrTrain(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, time.Hour, backend.ttls[Key(first.ID)])

	second, cached, err := c.GetOrTrain(context.Background(), text)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.Table.Equal(second.Table))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses, "outer and inner lookup both miss on first call")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelsTrainedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ModelCacheHits))
}

func TestGetOrTrainConcurrentTrainsOnce(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	backend := newMemBackend()
	c := New(backend, a, 0, nil)

	var wg sync.WaitGroup
	ids := make([]string, 16)
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, _, err := c.GetOrTrain(context.Background(), text)
			assert.NoError(t, err)
			ids[i] = m.ID
		}()
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.LessOrEqual(t, backend.sets.Load(), int64(len(ids)))
	assert.GreaterOrEqual(t, backend.sets.Load(), int64(1))
}

func TestGetTreatsBackendErrorAsMiss(t *testing.T) {
	a := alphabet.MustNew("abc")
	backend := newMemBackend()
	backend.getErr = errors.New("connection refused")
	c := New(backend, a, 0, nil)

	_, ok := c.Get(context.Background(), "whatever")
	assert.False(t, ok)

	m, cached, err := c.GetOrTrain(context.Background(), "abcabc")
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, int64(5), m.Pairs)
}

func TestGetIgnoresCorruptEntry(t *testing.T) {
	a := alphabet.MustNew("abc")
	backend := newMemBackend()
	backend.data[Key("bad")] = []byte("{not json")
	c := New(backend, a, 0, nil)

	_, ok := c.Get(context.Background(), "bad")
	assert.False(t, ok)
}

func TestPutThenGet(t *testing.T) {
	a := alphabet.MustNew("abc")
	c := New(newMemBackend(), a, 0, nil)
	want := model.TrainNormalized(a, "abcabc")

	c.Put(context.Background(), want)
	got, ok := c.Get(context.Background(), want.ID)
	require.True(t, ok)
	assert.Equal(t, want.Pairs, got.Pairs)
}
