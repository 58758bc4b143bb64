package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "SIMMATCH_"

type EmbeddingConfig struct {
	Provider  string        `yaml:"provider"` // only "openai" is supported
	Model     string        `yaml:"model"`
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	Dimension int           `yaml:"dimension"`
	Timeout   time.Duration `yaml:"timeout"`
	BatchSize int           `yaml:"batch_size"`
}

type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "memory", "redis" or "none"
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	TTL       time.Duration `yaml:"ttl"`
}

type Config struct {
	CorpusPath     string          `yaml:"corpus_path"`
	EmbeddingsPath string          `yaml:"embeddings_path"`
	DataDir        string          `yaml:"data_dir"` // bbolt/mmap snapshot; preferred over the JSON files when set
	TopN           int             `yaml:"top_n"`
	Workers        int             `yaml:"workers"`
	Similar        int             `yaml:"similar"`
	Embedding      EmbeddingConfig `yaml:"embedding"`
	Cache          CacheConfig     `yaml:"cache"`
	ServerAddr     string          `yaml:"server_addr"`
	LogMode        string          `yaml:"log_mode"`
	LogLevel       string          `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CorpusPath:     "docs/search/microsims-data.json",
		EmbeddingsPath: "data/microsims-embeddings.json",
		TopN:           5,
		Workers:        8,
		Similar:        10,
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "all-MiniLM-L6-v2",
			BaseURL:   "http://localhost:8000/v1/",
			Dimension: 384,
			Timeout:   10 * time.Second,
			BatchSize: 64,
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     24 * time.Hour,
		},
		ServerAddr: ":8080",
		LogMode:    "dev",
		LogLevel:   "info",
	}
}

// Load layers the defaults, an optional YAML file and SIMMATCH_* environment
// variables, in that order. A .env file in the working directory is loaded
// into the environment first when present.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) error {
	var errs []error
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookup(name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("CORPUS_PATH", &cfg.CorpusPath)
	str("EMBEDDINGS_PATH", &cfg.EmbeddingsPath)
	str("DATA_DIR", &cfg.DataDir)
	num("TOP_N", &cfg.TopN)
	num("WORKERS", &cfg.Workers)
	num("SIMILAR", &cfg.Similar)
	str("EMBEDDING_PROVIDER", &cfg.Embedding.Provider)
	str("EMBEDDING_MODEL", &cfg.Embedding.Model)
	str("EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL)
	str("EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	num("EMBEDDING_DIMENSION", &cfg.Embedding.Dimension)
	dur("EMBEDDING_TIMEOUT", &cfg.Embedding.Timeout)
	num("EMBEDDING_BATCH_SIZE", &cfg.Embedding.BatchSize)
	str("CACHE_BACKEND", &cfg.Cache.Backend)
	str("REDIS_ADDR", &cfg.Cache.RedisAddr)
	num("REDIS_DB", &cfg.Cache.RedisDB)
	dur("CACHE_TTL", &cfg.Cache.TTL)
	str("SERVER_ADDR", &cfg.ServerAddr)
	str("LOG_MODE", &cfg.LogMode)
	str("LOG_LEVEL", &cfg.LogLevel)

	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return errors.Join(errs...)
}

func lookup(name string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.Embedding.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("embedding timeout must be positive, got %s", c.Embedding.Timeout))
	}
	if c.Embedding.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("embedding batch size must be positive, got %d", c.Embedding.BatchSize))
	}
	switch c.Embedding.Provider {
	case "openai":
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}
	switch c.Cache.Backend {
	case "memory", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache backend redis requires redis_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	return errors.Join(errs...)
}
