// Package model ties a trained bigram table to the alphabet it was built over
// and to a content-derived identity, so the same corpus always maps to the
// same model id in the cache and the store.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/corpus"
)

// IDLength is the number of hex characters kept from the content hash.
const IDLength = 32

var ErrAlphabetMismatch = errors.New("model alphabet does not match")

// Model is a trained reference table.
type Model struct {
	ID        string
	Alphabet  string
	Table     frequency.Table
	Pairs     int64
	TrainedAt time.Time
}

// ID derives a model id from the alphabet and the normalized content the
// table was built from.
func ID(a *alphabet.Alphabet, content []byte) string {
	h := sha256.New()
	h.Write([]byte(a.String()))
	h.Write([]byte{0})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:IDLength]
}

// Train normalizes a raw corpus and builds its model.
func Train(a *alphabet.Alphabet, raw string) Model {
	return TrainNormalized(a, corpus.Normalize(raw))
}

// TrainNormalized builds a model from text that has already gone through
// corpus.Normalize.
func TrainNormalized(a *alphabet.Alphabet, normalized string) Model {
	counts := frequency.Count(a, []rune(normalized))
	return Model{
		ID:        ID(a, []byte(normalized)),
		Alphabet:  a.String(),
		Table:     counts.Normalize(),
		Pairs:     counts.Total(),
		TrainedAt: time.Now().UTC(),
	}
}

// FromTable wraps a table that arrived without its corpus (a model file).
// The id is derived from the table's text form.
func FromTable(a *alphabet.Alphabet, t frequency.Table) (Model, error) {
	if t.Size() != a.Size() {
		return Model{}, fmt.Errorf("%w: table is %dx%d, alphabet has %d symbols",
			ErrAlphabetMismatch, t.Size(), t.Size(), a.Size())
	}
	text, err := t.MarshalText()
	if err != nil {
		return Model{}, err
	}
	return Model{
		ID:        ID(a, text),
		Alphabet:  a.String(),
		Table:     t,
		TrainedAt: time.Now().UTC(),
	}, nil
}

// Check verifies the model was built over a.
func (m Model) Check(a *alphabet.Alphabet) error {
	if m.Alphabet != a.String() || m.Table.Size() != a.Size() {
		return fmt.Errorf("%w: model %s uses %q", ErrAlphabetMismatch, m.ID, m.Alphabet)
	}
	return nil
}

type envelope struct {
	ID        string    `json:"id"`
	Alphabet  string    `json:"alphabet"`
	Pairs     int64     `json:"pairs"`
	TrainedAt time.Time `json:"trained_at"`
	Table     string    `json:"table"`
}

// Marshal encodes m as JSON with the table in its text form.
func Marshal(m Model) ([]byte, error) {
	text, err := m.Table.MarshalText()
	if err != nil {
		return nil, fmt.Errorf("encoding table: %w", err)
	}
	return json.Marshal(envelope{
		ID:        m.ID,
		Alphabet:  m.Alphabet,
		Pairs:     m.Pairs,
		TrainedAt: m.TrainedAt,
		Table:     string(text),
	})
}

// Unmarshal decodes a model produced by Marshal and checks it against a.
func Unmarshal(data []byte, a *alphabet.Alphabet) (Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Model{}, fmt.Errorf("decoding model: %w", err)
	}
	table, err := frequency.UnmarshalTable([]byte(env.Table), a.Size())
	if err != nil {
		return Model{}, fmt.Errorf("decoding model %s: %w", env.ID, err)
	}
	m := Model{
		ID:        env.ID,
		Alphabet:  env.Alphabet,
		Table:     table,
		Pairs:     env.Pairs,
		TrainedAt: env.TrainedAt,
	}
	if err := m.Check(a); err != nil {
		return Model{}, err
	}
	return m, nil
}
