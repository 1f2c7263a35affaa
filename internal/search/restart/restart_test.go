package restart

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/substitution"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/hillclimb"
)

const plaintext = "baceeaaabbabbaababbddadebabbb"

func setup(t *testing.T) (*alphabet.Alphabet, frequency.Table, []rune) {
	t.Helper()
	a := alphabet.MustNew("abcde")
	k, err := key.Parse(a, "debac")
	require.NoError(t, err)
	return a, frequency.Build(a, []rune(plaintext)), substitution.Encrypt(a, []rune(plaintext), k)
}

func TestRunPicksBestRestart(t *testing.T) {
	a, ref, ciphertext := setup(t)

	var mu sync.Mutex
	seen := make(map[int]bool)
	factory := func(i int, rng *rand.Rand) (*hillclimb.Searcher, error) {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
		return hillclimb.New(a, ref, hillclimb.Config{StallLimit: 300, Incremental: true}, rng)
	}

	res, err := Run(context.Background(), a, factory, ciphertext, key.Identity(a), Config{Restarts: 4, Parallelism: 2, Seed: 10})
	require.NoError(t, err)

	assert.Len(t, res.Summaries, 4)
	assert.Len(t, seen, 4)
	assert.Equal(t, "debac", res.Best.Key.String())
	assert.Equal(t, plaintext, string(res.Best.Plaintext))
	for _, s := range res.Summaries {
		assert.GreaterOrEqual(t, s.Distance, res.Best.Distance)
	}
	assert.Equal(t, res.Best.Distance, res.Summaries[res.BestIndex].Distance)
}

func TestRunTieGoesToLowestIndex(t *testing.T) {
	a := alphabet.MustNew("abc")
	ref := frequency.Build(a, []rune("abcabc"))

	factory := func(i int, rng *rand.Rand) (*hillclimb.Searcher, error) {
		return hillclimb.New(a, ref, hillclimb.Config{StallLimit: 20, Incremental: true}, rng)
	}
	// An empty ciphertext scores the same for every key.
	res, err := Run(context.Background(), a, factory, nil, key.Identity(a), Config{Restarts: 3, Parallelism: 3})
	require.NoError(t, err)
	assert.Equal(t, 0, res.BestIndex)
}

func TestRunPropagatesFactoryError(t *testing.T) {
	a, _, ciphertext := setup(t)
	boom := errors.New("boom")
	factory := func(i int, rng *rand.Rand) (*hillclimb.Searcher, error) {
		return nil, boom
	}
	_, err := Run(context.Background(), a, factory, ciphertext, key.Identity(a), Config{Restarts: 2})
	assert.ErrorIs(t, err, boom)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	a, _, ciphertext := setup(t)
	_, err := Run(context.Background(), a, nil, ciphertext, key.Identity(a), Config{Restarts: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRunIsReproducible(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	text := []rune("мороз и солнце; день чудесный! еще ты дремлешь, друг прелестный — пора, красавица, проснись")
	ref := frequency.Build(a, text)
	ciphertext := substitution.Encrypt(a, text, key.Random(a, rand.New(rand.NewSource(2))))
	factory := func(i int, rng *rand.Rand) (*hillclimb.Searcher, error) {
		return hillclimb.New(a, ref, hillclimb.Config{StallLimit: 200, Incremental: true}, rng)
	}
	cfg := Config{Restarts: 3, Parallelism: 3, Seed: 123}

	r1, err := Run(context.Background(), a, factory, ciphertext, key.Identity(a), cfg)
	require.NoError(t, err)
	r2, err := Run(context.Background(), a, factory, ciphertext, key.Identity(a), cfg)
	require.NoError(t, err)

	assert.Equal(t, r1.BestIndex, r2.BestIndex)
	assert.Equal(t, r1.Best.Key.String(), r2.Best.Key.String())
	assert.Equal(t, r1.Summaries, r2.Summaries)
}
