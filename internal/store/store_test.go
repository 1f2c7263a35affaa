package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/postgres"
)

// newTestStore connects to the postgres described by the BC_POSTGRES_*
// environment and skips when none is reachable.
func newTestStore(t *testing.T, a *alphabet.Alphabet) *Store {
	t.Helper()
	if os.Getenv("BC_POSTGRES_HOST") == "" {
		t.Skip("skipping integration test: BC_POSTGRES_HOST not set")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	client, err := postgres.New(cfg.Postgres)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Migrate(context.Background(), Schema...))
	return New(client, a)
}

func TestModelRoundTrip(t *testing.T) {
	a := alphabet.MustNew(alphabet.Russian)
	s := newTestStore(t, a)
	ctx := context.Background()

	m := model.Train(a, "в начале июля, в чрезвычайно жаркое время "+uuid.NewString())
	require.NoError(t, s.SaveModel(ctx, m))
	require.NoError(t, s.SaveModel(ctx, m), "saving twice is an upsert")

	got, err := s.LoadModel(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.Pairs, got.Pairs)
	assert.True(t, m.Table.Equal(got.Table))

	list, err := s.ListModels(ctx, 1000)
	require.NoError(t, err)
	var found bool
	for _, info := range list {
		found = found || info.ID == m.ID
	}
	assert.True(t, found)
}

func TestLoadModelNotFound(t *testing.T) {
	s := newTestStore(t, alphabet.MustNew(alphabet.Russian))
	_, err := s.LoadModel(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRuns(t *testing.T) {
	s := newTestStore(t, alphabet.MustNew(alphabet.Russian))
	ctx := context.Background()
	run := Run{
		RunID:         uuid.NewString(),
		ModelID:       "m",
		CiphertextSHA: "sha",
		Key:           alphabet.Russian,
		Distance:      0.25,
		Iterations:    10001,
		Accepted:      1,
		Reason:        "stalled",
		DurationMs:    3,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.SaveRun(ctx, run))

	runs, err := s.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, run.RunID, runs[0].RunID)
	assert.Equal(t, run.Distance, runs[0].Distance)
}
