// Package store persists trained models and the history of search runs in
// PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
	apperrors "github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/pkg/postgres"
)

// Schema creates the tables the store needs. It is idempotent.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS frequency_models (
		id         TEXT PRIMARY KEY,
		alphabet   TEXT NOT NULL,
		table_data TEXT NOT NULL,
		pairs      BIGINT NOT NULL,
		trained_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS search_runs (
		id             BIGSERIAL PRIMARY KEY,
		run_id         TEXT NOT NULL UNIQUE,
		model_id       TEXT NOT NULL,
		ciphertext_sha TEXT NOT NULL,
		key            TEXT NOT NULL,
		distance       DOUBLE PRECISION NOT NULL,
		iterations     BIGINT NOT NULL,
		accepted       BIGINT NOT NULL,
		reason         TEXT NOT NULL,
		duration_ms    BIGINT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS search_runs_created_at_idx ON search_runs (created_at DESC)`,
}

// ModelInfo describes a stored model without its table.
type ModelInfo struct {
	ID        string    `json:"id"`
	Alphabet  string    `json:"alphabet"`
	Pairs     int64     `json:"pairs"`
	TrainedAt time.Time `json:"trained_at"`
}

// Run is one finished decrypt request.
type Run struct {
	RunID         string    `json:"run_id"`
	ModelID       string    `json:"model_id"`
	CiphertextSHA string    `json:"ciphertext_sha"`
	Key           string    `json:"key"`
	Distance      float64   `json:"distance"`
	Iterations    int64     `json:"iterations"`
	Accepted      int64     `json:"accepted"`
	Reason        string    `json:"reason"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `json:"created_at"`
}

type Store struct {
	db     *sql.DB
	alpha  *alphabet.Alphabet
	logger *slog.Logger
}

func New(client *postgres.Client, a *alphabet.Alphabet) *Store {
	return NewWithDB(client.DB, a)
}

// NewWithDB builds a Store on an already-open database handle.
func NewWithDB(db *sql.DB, a *alphabet.Alphabet) *Store {
	return &Store{
		db:     db,
		alpha:  a,
		logger: slog.Default().With("component", "model-store"),
	}
}

// SaveModel inserts m, replacing any model with the same id.
func (s *Store) SaveModel(ctx context.Context, m model.Model) error {
	data, err := m.Table.MarshalText()
	if err != nil {
		return fmt.Errorf("encoding model %s: %w", m.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO frequency_models (id, alphabet, table_data, pairs, trained_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE SET
		   table_data = EXCLUDED.table_data,
		   pairs = EXCLUDED.pairs,
		   trained_at = EXCLUDED.trained_at`,
		m.ID, m.Alphabet, string(data), m.Pairs, m.TrainedAt,
	)
	if err != nil {
		return fmt.Errorf("saving model %s: %w", m.ID, err)
	}
	s.logger.Info("model saved", "model_id", m.ID, "pairs", m.Pairs)
	return nil
}

// LoadModel returns the model with the given id, or an error wrapping
// apperrors.ErrNotFound.
func (s *Store) LoadModel(ctx context.Context, id string) (model.Model, error) {
	var (
		m    model.Model
		data string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, alphabet, table_data, pairs, trained_at FROM frequency_models WHERE id = $1`,
		id,
	).Scan(&m.ID, &m.Alphabet, &data, &m.Pairs, &m.TrainedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Model{}, fmt.Errorf("model %s: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return model.Model{}, fmt.Errorf("loading model %s: %w", id, err)
	}
	m.Table, err = frequency.UnmarshalTable([]byte(data), s.alpha.Size())
	if err != nil {
		return model.Model{}, fmt.Errorf("decoding model %s: %w", id, err)
	}
	if err := m.Check(s.alpha); err != nil {
		return model.Model{}, err
	}
	return m, nil
}

// ListModels returns up to limit models, newest first.
func (s *Store) ListModels(ctx context.Context, limit int) ([]ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, alphabet, pairs, trained_at FROM frequency_models
		 ORDER BY trained_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	defer rows.Close()

	models := make([]ModelInfo, 0)
	for rows.Next() {
		var info ModelInfo
		if err := rows.Scan(&info.ID, &info.Alphabet, &info.Pairs, &info.TrainedAt); err != nil {
			return nil, fmt.Errorf("scanning model row: %w", err)
		}
		models = append(models, info)
	}
	return models, rows.Err()
}

// SaveRun records a finished run.
func (s *Store) SaveRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_runs
		   (run_id, model_id, ciphertext_sha, key, distance, iterations, accepted, reason, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.RunID, r.ModelID, r.CiphertextSHA, r.Key, r.Distance,
		r.Iterations, r.Accepted, r.Reason, r.DurationMs, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", r.RunID, err)
	}
	s.logger.Debug("run saved", "run_id", r.RunID, "distance", r.Distance)
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, model_id, ciphertext_sha, key, distance, iterations, accepted, reason, duration_ms, created_at
		 FROM search_runs ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.ModelID, &r.CiphertextSHA, &r.Key, &r.Distance,
			&r.Iterations, &r.Accepted, &r.Reason, &r.DurationMs, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
