// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Postgres, Kafka, Redis, Cipher, Search, Model, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Cipher   CipherConfig   `yaml:"cipher"`
	Search   SearchConfig   `yaml:"search"`
	Model    ModelConfig    `yaml:"model"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	// RateLimit caps POST requests per client per minute. Zero disables it.
	RateLimit       int           `yaml:"rateLimit"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DecryptJobs    string `yaml:"decryptJobs"`
	DecryptResults string `yaml:"decryptResults"`
	SearchProgress string `yaml:"searchProgress"`
}

// RedisConfig holds Redis connection and model-cache parameters.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// CipherConfig fixes the alphabet every component works over.
type CipherConfig struct {
	Alphabet string `yaml:"alphabet"`
}

// SearchConfig controls the hill-climbing search and its restarts.
type SearchConfig struct {
	StallLimit  int           `yaml:"stallLimit"`
	Restarts    int           `yaml:"restarts"`
	Parallelism int           `yaml:"parallelism"`
	Seed        int64         `yaml:"seed"`
	Timeout     time.Duration `yaml:"timeout"`
	Incremental bool          `yaml:"incremental"`
	// LogEvery throttles progress logging to every n-th improvement.
	LogEvery int `yaml:"logEvery"`
}

// ModelConfig locates the trained bigram model on disk.
type ModelConfig struct {
	Path       string `yaml:"path"`
	CorpusPath string `yaml:"corpusPath"`
	Encoding   string `yaml:"encoding"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided), applies environment-variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a Config with defaults for local development. The search
// defaults reproduce a single 10000-stall run from the identity key.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
			MaxBodyBytes:    32 << 20,
			RateLimit:       60,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "cryptanalysis",
			User:            "cryptanalysis",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "decipher-workers",
			Topics: KafkaTopics{
				DecryptJobs:    "decrypt-jobs",
				DecryptResults: "decrypt-results",
				SearchProgress: "search-progress",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 24 * time.Hour,
		},
		Cipher: CipherConfig{
			Alphabet: "абвгдеёжзийклмнопрстуфхцчшщъыьэюя",
		},
		Search: SearchConfig{
			StallLimit:  10000,
			Restarts:    1,
			Parallelism: 0,
			Seed:        1,
			Incremental: true,
			LogEvery:    1,
		},
		Model: ModelConfig{
			Path:       "bigrams.txt",
			CorpusPath: "WarAndWorld.txt",
			Encoding:   "utf-8",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects settings the search cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Cipher.Alphabet == "" {
		errs = append(errs, errors.New("cipher.alphabet must not be empty"))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rateLimit must not be negative, got %d", c.Server.RateLimit))
	}
	if c.Search.StallLimit <= 0 {
		errs = append(errs, fmt.Errorf("search.stallLimit must be positive, got %d", c.Search.StallLimit))
	}
	if c.Search.Restarts <= 0 {
		errs = append(errs, fmt.Errorf("search.restarts must be positive, got %d", c.Search.Restarts))
	}
	if c.Search.Parallelism < 0 {
		errs = append(errs, fmt.Errorf("search.parallelism must not be negative, got %d", c.Search.Parallelism))
	}
	if c.Search.Timeout < 0 {
		errs = append(errs, fmt.Errorf("search.timeout must not be negative, got %v", c.Search.Timeout))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// applyEnvOverrides reads BC_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	envInt("BC_SERVER_PORT", &cfg.Server.Port)
	envInt("BC_SERVER_RATE_LIMIT", &cfg.Server.RateLimit)
	envString("BC_POSTGRES_HOST", &cfg.Postgres.Host)
	envInt("BC_POSTGRES_PORT", &cfg.Postgres.Port)
	envString("BC_POSTGRES_DATABASE", &cfg.Postgres.Database)
	envString("BC_POSTGRES_USER", &cfg.Postgres.User)
	envString("BC_POSTGRES_PASSWORD", &cfg.Postgres.Password)
	envString("BC_POSTGRES_SSLMODE", &cfg.Postgres.SSLMode)
	if v := os.Getenv("BC_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	envString("BC_REDIS_ADDR", &cfg.Redis.Addr)
	envString("BC_REDIS_PASSWORD", &cfg.Redis.Password)
	envString("BC_CIPHER_ALPHABET", &cfg.Cipher.Alphabet)
	envInt("BC_SEARCH_STALL_LIMIT", &cfg.Search.StallLimit)
	envInt("BC_SEARCH_RESTARTS", &cfg.Search.Restarts)
	envInt("BC_SEARCH_PARALLELISM", &cfg.Search.Parallelism)
	if v := os.Getenv("BC_SEARCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Search.Seed = seed
		}
	}
	if v := os.Getenv("BC_SEARCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.Timeout = d
		}
	}
	envString("BC_MODEL_PATH", &cfg.Model.Path)
	envString("BC_MODEL_ENCODING", &cfg.Model.Encoding)
	envString("BC_LOGGING_LEVEL", &cfg.Logging.Level)
	envString("BC_LOGGING_FORMAT", &cfg.Logging.Format)
	envInt("BC_METRICS_PORT", &cfg.Metrics.Port)
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
