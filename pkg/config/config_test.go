package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.Search.StallLimit)
	assert.Equal(t, 1, cfg.Search.Restarts)
	assert.True(t, cfg.Search.Incremental)
	assert.Equal(t, 33, len([]rune(cfg.Cipher.Alphabet)))
	assert.Equal(t, "bigrams.txt", cfg.Model.Path)
}

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
search:
  stallLimit: 500
  restarts: 4
  timeout: 30s
kafka:
  brokers: ["k1:9092"]
  topics:
    decryptJobs: jobs
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("BC_SEARCH_RESTARTS", "8")
	t.Setenv("BC_KAFKA_BROKERS", "a:1,b:2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Search.StallLimit)
	assert.Equal(t, 8, cfg.Search.Restarts)
	assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "jobs", cfg.Kafka.Topics.DecryptJobs)
	assert.Equal(t, "decrypt-results", cfg.Kafka.Topics.DecryptResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalidSearch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  stallLimit: 0\n  restarts: -1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stallLimit")
	assert.Contains(t, err.Error(), "restarts")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	p := Default().Postgres
	assert.Equal(t, "host=localhost port=5432 user=cryptanalysis password=localdev dbname=cryptanalysis sslmode=disable", p.DSN())
}

func TestLoadDevelopmentConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "development.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Search.Restarts)
	assert.Equal(t, 2*time.Minute, cfg.Search.Timeout)
	assert.Equal(t, "search-progress", cfg.Kafka.Topics.SearchProgress)
	assert.Equal(t, Default().Cipher.Alphabet, cfg.Cipher.Alphabet)
}
