// Package restart runs several independent hill-climbing searches over the
// same ciphertext and keeps the best one.
//
// Every restart owns its Searcher, random source and key trajectory; the
// reference table is the only shared value and is read-only.
package restart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/hillclimb"
)

var ErrInvalidConfig = errors.New("invalid restart config")

// Config controls a multi-restart run.
type Config struct {
	Restarts    int
	Parallelism int
	Seed        int64
}

// Factory builds the Searcher for restart i from its private random source.
type Factory func(restart int, rng *rand.Rand) (*hillclimb.Searcher, error)

// Summary describes one finished restart.
type Summary struct {
	Restart    int              `json:"restart"`
	Distance   float64          `json:"distance"`
	Iterations int64            `json:"iterations"`
	Accepted   int64            `json:"accepted"`
	Reason     hillclimb.Reason `json:"reason"`
}

// Result holds the winning run and a summary of every restart.
type Result struct {
	Best      *hillclimb.Result
	BestIndex int
	Summaries []Summary
	Elapsed   time.Duration
}

// Run executes cfg.Restarts searches, at most cfg.Parallelism at a time.
// Restart 0 starts from initial; the others start from a random key drawn
// from their own source seeded with cfg.Seed+i. Ties go to the lowest index.
func Run(ctx context.Context, a *alphabet.Alphabet, factory Factory, ciphertext []rune, initial key.Key, cfg Config) (*Result, error) {
	if cfg.Restarts <= 0 {
		return nil, fmt.Errorf("%w: restarts must be positive, got %d", ErrInvalidConfig, cfg.Restarts)
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = runtime.NumCPU()
	}
	logger := slog.Default().With("component", "restart")
	start := time.Now()

	results := make([]*hillclimb.Result, cfg.Restarts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parallelism)

	for i := 0; i < cfg.Restarts; i++ {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
			from := initial
			if i > 0 {
				from = key.Random(a, rng)
			}
			s, err := factory(i, rng)
			if err != nil {
				return fmt.Errorf("restart %d: building searcher: %w", i, err)
			}
			res, err := s.Run(gctx, ciphertext, from)
			if err != nil {
				return fmt.Errorf("restart %d: %w", i, err)
			}
			results[i] = res
			logger.Debug("restart finished",
				"restart", i,
				"distance", res.Distance,
				"iterations", res.Iterations,
				"reason", res.Reason,
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{BestIndex: -1, Summaries: make([]Summary, 0, len(results))}
	for i, res := range results {
		out.Summaries = append(out.Summaries, Summary{
			Restart:    i,
			Distance:   res.Distance,
			Iterations: res.Iterations,
			Accepted:   res.Accepted,
			Reason:     res.Reason,
		})
		if out.Best == nil || res.Distance < out.Best.Distance {
			out.Best = res
			out.BestIndex = i
		}
	}
	out.Elapsed = time.Since(start)
	logger.Info("restarts complete",
		"restarts", cfg.Restarts,
		"parallelism", cfg.Parallelism,
		"best_restart", out.BestIndex,
		"best_distance", out.Best.Distance,
		"elapsed", out.Elapsed,
	)
	return out, nil
}
