// Package decipher trains reference models and runs key searches against
// them, wiring the cipher and search packages to the model cache, the run
// store, progress reporting and metrics.
package decipher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/key"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/progress"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/hillclimb"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/search/restart"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/tracing"
)

// Store is the persistence the service uses. *store.Store implements it.
type Store interface {
	SaveModel(ctx context.Context, m model.Model) error
	LoadModel(ctx context.Context, id string) (model.Model, error)
	ListModels(ctx context.Context, limit int) ([]store.ModelInfo, error)
	SaveRun(ctx context.Context, r store.Run) error
	RecentRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Cache is the model cache. *cache.ModelCache implements it.
type Cache interface {
	Get(ctx context.Context, id string) (model.Model, bool)
	Put(ctx context.Context, m model.Model)
	GetOrTrain(ctx context.Context, raw string) (model.Model, bool, error)
}

type Option func(*Service)

func WithStore(s Store) Option {
	return func(svc *Service) { svc.store = s }
}

func WithCache(c Cache) Option {
	return func(svc *Service) { svc.cache = c }
}

// WithDefaultModel sets the model used when a request names none, typically
// the one loaded from model.path at startup.
func WithDefaultModel(m model.Model) Option {
	return func(svc *Service) {
		svc.defaultID = m.ID
		svc.local[m.ID] = m
	}
}

func WithReporter(r progress.Reporter) Option {
	return func(svc *Service) { svc.reporter = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(svc *Service) { svc.metrics = m }
}

// Service runs training and decryption. It is safe for concurrent use.
type Service struct {
	alpha    *alphabet.Alphabet
	cfg      config.SearchConfig
	store    Store
	cache    Cache
	reporter progress.Reporter
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu        sync.RWMutex
	local     map[string]model.Model
	defaultID string
}

func New(a *alphabet.Alphabet, cfg config.SearchConfig, opts ...Option) *Service {
	svc := &Service{
		alpha:    a,
		cfg:      cfg,
		reporter: progress.Nop{},
		logger:   slog.Default().With("component", "decipher"),
		local:    make(map[string]model.Model),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Alphabet returns the alphabet every model and key uses.
func (s *Service) Alphabet() *alphabet.Alphabet {
	return s.alpha
}

// Train builds (or fetches) the model for a corpus and persists it.
func (s *Service) Train(ctx context.Context, req TrainRequest) (*TrainResponse, error) {
	var (
		m      model.Model
		cached bool
		err    error
	)
	if s.cache != nil {
		m, cached, err = s.cache.GetOrTrain(ctx, req.Corpus)
		if err != nil {
			return nil, fmt.Errorf("training model: %w", err)
		}
	} else {
		m = model.Train(s.alpha, req.Corpus)
		if s.metrics != nil {
			s.metrics.ModelsTrainedTotal.Inc()
		}
	}
	if m.Pairs == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"corpus contains no adjacent pair of alphabet symbols")
	}
	s.remember(m)
	if s.store != nil {
		if err := s.store.SaveModel(ctx, m); err != nil {
			return nil, fmt.Errorf("persisting model %s: %w", m.ID, err)
		}
	}
	logger.FromContext(ctx).Info("model ready", "component", "decipher", "model_id", m.ID, "pairs", m.Pairs, "cached", cached)
	return &TrainResponse{ModelID: m.ID, Pairs: m.Pairs, Cached: cached}, nil
}

// ListModels lists stored models, or the in-process ones when there is no
// store.
func (s *Service) ListModels(ctx context.Context, limit int) ([]store.ModelInfo, error) {
	if s.store != nil {
		return s.store.ListModels(ctx, limit)
	}
	s.mu.RLock()
	out := make([]store.ModelInfo, 0, len(s.local))
	for _, m := range s.local {
		out = append(out, store.ModelInfo{ID: m.ID, Alphabet: m.Alphabet, Pairs: m.Pairs, TrainedAt: m.TrainedAt})
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TrainedAt.After(out[j].TrainedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentRuns lists persisted runs, newest first.
func (s *Service) RecentRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if s.store == nil {
		return nil, apperrors.New(apperrors.ErrUnavailable, http.StatusServiceUnavailable, "run history requires postgres")
	}
	return s.store.RecentRuns(ctx, limit)
}

// Model resolves a model id: in-process models first, then the cache, then
// the store. An empty id means the default model.
func (s *Service) Model(ctx context.Context, id string) (model.Model, error) {
	if id == "" {
		s.mu.RLock()
		id = s.defaultID
		s.mu.RUnlock()
		if id == "" {
			return model.Model{}, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, "model_id is required")
		}
	}
	s.mu.RLock()
	m, ok := s.local[id]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}
	if s.cache != nil {
		if m, ok := s.cache.Get(ctx, id); ok {
			s.remember(m)
			return m, nil
		}
	}
	if s.store != nil {
		m, err := s.store.LoadModel(ctx, id)
		if err == nil {
			if s.cache != nil {
				s.cache.Put(ctx, m)
			}
			s.remember(m)
			return m, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return model.Model{}, err
		}
	}
	return model.Model{}, apperrors.Newf(apperrors.ErrNotFound, http.StatusNotFound, "model %s not found", id)
}

func (s *Service) remember(m model.Model) {
	s.mu.Lock()
	s.local[m.ID] = m
	s.mu.Unlock()
}

// Decrypt searches for the key that makes the ciphertext's bigram table
// closest to the model's. A deadline or cancellation ends the search early
// with the best key found so far and reason "cancelled".
func (s *Service) Decrypt(ctx context.Context, req DecryptRequest) (*DecryptResponse, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With("component", "decipher", "run_id", runID)
	traceID := logger.RequestID(ctx)
	if traceID == "" {
		traceID = runID
	}
	ctx, span := tracing.StartSpan(ctx, "decrypt", traceID)
	defer func() {
		span.End()
		span.Log(log)
	}()

	hcfg, rcfg, err := s.searchConfig(req)
	if err != nil {
		return nil, err
	}
	initial := key.Identity(s.alpha)
	if req.InitialKey != "" {
		if initial, err = key.Parse(s.alpha, req.InitialKey); err != nil {
			return nil, apperrors.InvalidInput(err)
		}
	}

	_, loadSpan := tracing.StartChildSpan(ctx, "load_model")
	m, err := s.Model(ctx, req.ModelID)
	loadSpan.SetAttr("model_id", m.ID)
	loadSpan.End()
	if err != nil {
		return nil, err
	}
	if err := m.Check(s.alpha); err != nil {
		return nil, apperrors.InvalidInput(err)
	}

	ciphertext := []rune(corpus.Normalize(req.Ciphertext))
	searchCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	searchCtx, searchSpan := tracing.StartChildSpan(searchCtx, "search")
	factory := func(i int, rng *rand.Rand) (*hillclimb.Searcher, error) {
		return hillclimb.New(s.alpha, m.Table, hcfg, rng,
			hillclimb.WithObserver(progress.Observer(s.reporter, runID, i)),
			hillclimb.WithLogger(log.With("restart", i)),
		)
	}
	res, err := restart.Run(searchCtx, s.alpha, factory, ciphertext, initial, rcfg)
	searchSpan.End()
	if err != nil {
		if errors.Is(err, hillclimb.ErrInvalidConfig) || errors.Is(err, restart.ErrInvalidConfig) {
			return nil, apperrors.InvalidInput(err)
		}
		return nil, fmt.Errorf("searching key: %w", err)
	}
	best := res.Best
	searchSpan.SetAttr("distance", best.Distance)
	searchSpan.SetAttr("best_restart", res.BestIndex)

	resp := &DecryptResponse{
		RunID:           runID,
		ModelID:         m.ID,
		Plaintext:       string(best.Plaintext),
		Key:             best.Key.String(),
		Distance:        best.Distance,
		InitialDistance: best.InitialDistance,
		Iterations:      best.Iterations,
		Accepted:        best.Accepted,
		Reason:          best.Reason,
		BestRestart:     res.BestIndex,
		Restarts:        res.Summaries,
		DurationMs:      res.Elapsed.Milliseconds(),
	}
	s.observe(res)
	s.reporter.Completed(progress.RunCompletedEvent{
		Type:        progress.EventRunCompleted,
		RunID:       runID,
		ModelID:     m.ID,
		BestRestart: res.BestIndex,
		Distance:    best.Distance,
		Iterations:  best.Iterations,
		Accepted:    best.Accepted,
		Reason:      best.Reason,
		DurationMs:  resp.DurationMs,
		Timestamp:   time.Now().UTC(),
	})

	if s.store != nil {
		_, persistSpan := tracing.StartChildSpan(ctx, "persist_run")
		sum := sha256.Sum256([]byte(string(ciphertext)))
		err := s.store.SaveRun(context.WithoutCancel(ctx), store.Run{
			RunID:         runID,
			ModelID:       m.ID,
			CiphertextSHA: hex.EncodeToString(sum[:]),
			Key:           resp.Key,
			Distance:      resp.Distance,
			Iterations:    resp.Iterations,
			Accepted:      resp.Accepted,
			Reason:        string(resp.Reason),
			DurationMs:    resp.DurationMs,
			CreatedAt:     time.Now().UTC(),
		})
		persistSpan.End()
		if err != nil {
			log.Error("failed to persist run", "error", err)
		}
	}

	log.Info("decrypt finished",
		"model_id", m.ID,
		"distance", resp.Distance,
		"iterations", resp.Iterations,
		"reason", resp.Reason,
		"duration_ms", resp.DurationMs,
	)
	return resp, nil
}

// searchConfig merges request overrides into the configured defaults.
func (s *Service) searchConfig(req DecryptRequest) (hillclimb.Config, restart.Config, error) {
	hcfg := hillclimb.Config{StallLimit: s.cfg.StallLimit, Incremental: s.cfg.Incremental}
	if hcfg.StallLimit <= 0 {
		hcfg.StallLimit = hillclimb.DefaultStallLimit
	}
	rcfg := restart.Config{Restarts: s.cfg.Restarts, Parallelism: s.cfg.Parallelism, Seed: s.cfg.Seed}
	if rcfg.Restarts <= 0 {
		rcfg.Restarts = 1
	}
	switch {
	case req.StallLimit < 0:
		return hcfg, rcfg, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"stall_limit must be positive, got %d", req.StallLimit)
	case req.StallLimit > 0:
		hcfg.StallLimit = req.StallLimit
	}
	switch {
	case req.Restarts < 0:
		return hcfg, rcfg, apperrors.Newf(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"restarts must be positive, got %d", req.Restarts)
	case req.Restarts > 0:
		rcfg.Restarts = req.Restarts
	}
	if req.Seed != nil {
		rcfg.Seed = *req.Seed
	}
	return hcfg, rcfg, nil
}

func (s *Service) observe(res *restart.Result) {
	if s.metrics == nil {
		return
	}
	best := res.Best
	for _, sum := range res.Summaries {
		s.metrics.SearchIterations.Add(float64(sum.Iterations))
		s.metrics.SearchImprovements.Add(float64(sum.Accepted))
	}
	s.metrics.SearchRunsTotal.WithLabelValues(string(best.Reason)).Inc()
	s.metrics.SearchFinalDistance.Observe(best.Distance)
	s.metrics.SearchDuration.Observe(res.Elapsed.Seconds())
}
