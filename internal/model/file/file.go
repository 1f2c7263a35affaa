// Package file persists a bigram table as plain text, one row per line.
package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/analysis/frequency"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/cipher/alphabet"
	"github.com/Adithya-Monish-Kumar-K/Bigram-Cryptanalysis-Platform/internal/model"
)

// Save writes t to path atomically: the table goes to path.tmp, is synced,
// then renamed over path. A crash leaves either the old file or the new one.
func Save(path string, t frequency.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating model directory: %w", err)
		}
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp model file: %w", err)
	}
	if _, err := t.WriteTo(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing model %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing model %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing model %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming model file: %w", err)
	}
	return nil
}

// Load reads an n×n table from path.
func Load(path string, n int) (frequency.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return frequency.Table{}, fmt.Errorf("opening model %s: %w", path, err)
	}
	defer f.Close()
	t, err := frequency.Read(f, n)
	if err != nil {
		return frequency.Table{}, fmt.Errorf("reading model %s: %w", path, err)
	}
	return t, nil
}

// LoadModel reads the table at path and wraps it as a model over a.
func LoadModel(path string, a *alphabet.Alphabet) (model.Model, error) {
	t, err := Load(path, a.Size())
	if err != nil {
		return model.Model{}, err
	}
	m, err := model.FromTable(a, t)
	if err != nil {
		return model.Model{}, fmt.Errorf("model %s: %w", path, err)
	}
	if info, err := os.Stat(path); err == nil {
		m.TrainedAt = info.ModTime().UTC()
	}
	return m, nil
}
