// Package hillclimb recovers a substitution key by randomized hill climbing.
//
// Starting from an initial key, the searcher repeatedly swaps two random key
// positions, decrypts, and keeps the candidate only when the bigram table of
// the decryption is strictly closer to the reference table. The run ends
// after StallLimit consecutive proposals without improvement, or when the
// context is cancelled. Either way the best key found so far is returned.
//
// A Searcher is not safe for concurrent use: it owns its random source. Run
// independent searches with independent Searchers (see package restart).
package hillclimb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/distance"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/substitution"
)

// DefaultStallLimit is the number of consecutive non-improving proposals
// after which a search stops.
const DefaultStallLimit = 10000

var (
	ErrInvalidConfig = errors.New("invalid search config")
	ErrSizeMismatch  = errors.New("reference table size does not match alphabet")
)

// Reason records why a run stopped.
type Reason string

const (
	ReasonStalled   Reason = "stalled"
	ReasonCancelled Reason = "cancelled"
)

// Config controls a single search.
type Config struct {
	// StallLimit is the number of consecutive rejected proposals that ends
	// the search.
	StallLimit int
	// Incremental derives each candidate's bigram counts from the current
	// counts by relabelling two symbols instead of decrypting the whole
	// ciphertext again. Accept/reject decisions are identical either way.
	Incremental bool
}

func DefaultConfig() Config {
	return Config{StallLimit: DefaultStallLimit, Incremental: true}
}

// Improvement is reported to the Observer every time a candidate is accepted.
type Improvement struct {
	Iteration int64
	Distance  float64
	Key       key.Key
}

// Observer receives accepted improvements as they happen.
type Observer interface {
	OnImprovement(Improvement)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Improvement)

func (f ObserverFunc) OnImprovement(imp Improvement) {
	f(imp)
}

// Result is the outcome of a run.
type Result struct {
	Key             key.Key
	Plaintext       []rune
	Distance        float64
	InitialDistance float64
	Iterations      int64
	Accepted        int64
	Reason          Reason
	Elapsed         time.Duration
}

// Option configures a Searcher.
type Option func(*Searcher)

func WithObserver(o Observer) Option {
	return func(s *Searcher) {
		s.observer = o
	}
}

// WithMetric replaces the default L1 distance.
func WithMetric(f distance.Func) Option {
	return func(s *Searcher) {
		s.metric = f
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		s.logger = l
	}
}

type Searcher struct {
	alpha     *alphabet.Alphabet
	reference frequency.Table
	cfg       Config
	rng       *rand.Rand
	observer  Observer
	metric    distance.Func
	logger    *slog.Logger
}

// New creates a Searcher scoring candidates against reference. rng is the
// only source of randomness, so equal seeds give equal runs.
func New(a *alphabet.Alphabet, reference frequency.Table, cfg Config, rng *rand.Rand, opts ...Option) (*Searcher, error) {
	if cfg.StallLimit <= 0 {
		return nil, fmt.Errorf("%w: stall limit must be positive, got %d", ErrInvalidConfig, cfg.StallLimit)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", ErrInvalidConfig)
	}
	if reference.Size() != a.Size() {
		return nil, fmt.Errorf("%w: table is %dx%d, alphabet has %d symbols",
			ErrSizeMismatch, reference.Size(), reference.Size(), a.Size())
	}
	s := &Searcher{
		alpha:     a,
		reference: reference,
		cfg:       cfg,
		rng:       rng,
		metric:    distance.L1,
		logger:    slog.Default().With("component", "hillclimb"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// state is the mutable search state owned by one Run.
type state struct {
	key      key.Key
	counts   frequency.Counts
	distance float64
	stall    int
}

// Run searches for the key that best decrypts ciphertext, starting at
// initial. Cancellation is not an error: the best key so far is returned
// with ReasonCancelled.
func (s *Searcher) Run(ctx context.Context, ciphertext []rune, initial key.Key) (*Result, error) {
	if _, err := key.FromRunes(s.alpha, initial.Symbols()); err != nil {
		return nil, fmt.Errorf("initial key: %w", err)
	}
	start := time.Now()

	st := state{key: initial}
	st.counts = frequency.Count(s.alpha, substitution.Decrypt(s.alpha, ciphertext, initial))
	st.distance = s.metric(st.counts.Normalize(), s.reference)

	res := &Result{
		InitialDistance: st.distance,
		Reason:          ReasonStalled,
	}
	s.logger.Debug("search started",
		"stall_limit", s.cfg.StallLimit,
		"incremental", s.cfg.Incremental,
		"ciphertext_len", len(ciphertext),
		"initial_distance", st.distance,
	)

	done := ctx.Done()
	for s.alpha.Size() >= 2 && st.stall < s.cfg.StallLimit {
		select {
		case <-done:
			res.Reason = ReasonCancelled
		default:
		}
		if res.Reason == ReasonCancelled {
			break
		}

		candidate, i, j := st.key.RandomSwap(s.rng)
		var counts frequency.Counts
		if s.cfg.Incremental {
			counts = st.counts.SwapSymbols(i, j)
		} else {
			counts = frequency.Count(s.alpha, substitution.Decrypt(s.alpha, ciphertext, candidate))
		}
		d := s.metric(counts.Normalize(), s.reference)
		res.Iterations++

		if d < st.distance {
			st.key, st.counts, st.distance = candidate, counts, d
			st.stall = 0
			res.Accepted++
			if s.observer != nil {
				s.observer.OnImprovement(Improvement{
					Iteration: res.Iterations,
					Distance:  d,
					Key:       candidate,
				})
			}
			continue
		}
		st.stall++
	}

	res.Key = st.key
	res.Distance = st.distance
	res.Plaintext = substitution.Decrypt(s.alpha, ciphertext, st.key)
	res.Elapsed = time.Since(start)
	s.logger.Debug("search finished",
		"reason", res.Reason,
		"iterations", res.Iterations,
		"accepted", res.Accepted,
		"distance", res.Distance,
		"elapsed", res.Elapsed,
	)
	return res, nil
}
