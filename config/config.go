// Package config loads catalog settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full catalog configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	IDF        IDFConfig        `yaml:"idf"`
	Classifier ClassifierConfig `yaml:"classifier"`
	Search     SearchConfig     `yaml:"search"`
	Workers    WorkersConfig    `yaml:"workers"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StorageConfig locates the project database and the idf cache files.
type StorageConfig struct {
	DataDir  string `yaml:"data_dir"`
	CacheDir string `yaml:"cache_dir"`
	InMemory bool   `yaml:"in_memory"`
}

// IDFConfig controls the idf cache and indicator selection.
type IDFConfig struct {
	MemoryTTL        time.Duration `yaml:"memory_ttl"`
	DurableTTL       time.Duration `yaml:"durable_ttl"`
	MarkerWait       time.Duration `yaml:"marker_wait"`
	MarkerStaleAfter time.Duration `yaml:"marker_stale_after"`
	Percentile       float64       `yaml:"percentile"`
}

// ClassifierConfig controls classification during import and rescoring.
type ClassifierConfig struct {
	ClassifyOnImport bool `yaml:"classify_on_import"`
}

// SearchConfig controls query defaults.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// WorkersConfig sizes the worker pools and batches.
type WorkersConfig struct {
	CorpusPool      int `yaml:"corpus_pool"`
	CorpusBatchSize int `yaml:"corpus_batch_size"`
	ImportPool      int `yaml:"import_pool"`
	RescoreWorkers  int `yaml:"rescore_workers"`
	RescoreBatch    int `yaml:"rescore_batch_size"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			DataDir:  "./scicat.db",
			CacheDir: "./tmp/cache",
		},
		IDF: IDFConfig{
			MemoryTTL:        24 * time.Hour,
			DurableTTL:       7 * 24 * time.Hour,
			MarkerWait:       2 * time.Second,
			MarkerStaleAfter: 5 * time.Minute,
			Percentile:       0.05,
		},
		Classifier: ClassifierConfig{
			ClassifyOnImport: true,
		},
		Search: SearchConfig{
			DefaultLimit: 10,
		},
		Workers: WorkersConfig{
			CorpusPool:      4,
			CorpusBatchSize: 100,
			ImportPool:      4,
			RescoreWorkers:  4,
			RescoreBatch:    100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults, applies SCICAT_* environment
// overrides and validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	envOverride(&c.Storage.DataDir, "SCICAT_DATA_DIR")
	envOverride(&c.Storage.CacheDir, "SCICAT_CACHE_DIR")
	envOverride(&c.Logging.Level, "SCICAT_LOG_LEVEL")
	envOverride(&c.Logging.Format, "SCICAT_LOG_FORMAT")
	if err := envOverrideBool(&c.Storage.InMemory, "SCICAT_IN_MEMORY"); err != nil {
		return err
	}
	if err := envOverrideInt(&c.Search.DefaultLimit, "SCICAT_SEARCH_LIMIT"); err != nil {
		return err
	}
	if err := envOverrideDuration(&c.IDF.MemoryTTL, "SCICAT_IDF_MEMORY_TTL"); err != nil {
		return err
	}
	if err := envOverrideDuration(&c.IDF.DurableTTL, "SCICAT_IDF_DURABLE_TTL"); err != nil {
		return err
	}

	// One knob for every pool
	var workers int
	if err := envOverrideInt(&workers, "SCICAT_WORKERS"); err != nil {
		return err
	}
	if workers != 0 {
		c.Workers.CorpusPool = workers
		c.Workers.ImportPool = workers
		c.Workers.RescoreWorkers = workers
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if !c.Storage.InMemory && strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("%w: storage.data_dir is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Storage.CacheDir) == "" {
		return fmt.Errorf("%w: storage.cache_dir is required", ErrInvalidConfig)
	}
	if c.IDF.MemoryTTL <= 0 || c.IDF.DurableTTL <= 0 {
		return fmt.Errorf("%w: idf TTLs must be positive", ErrInvalidConfig)
	}
	if c.IDF.MarkerWait < 0 {
		return fmt.Errorf("%w: idf.marker_wait must not be negative", ErrInvalidConfig)
	}
	if c.IDF.MarkerStaleAfter <= 0 {
		return fmt.Errorf("%w: idf.marker_stale_after must be positive", ErrInvalidConfig)
	}
	if c.IDF.Percentile <= 0 || c.IDF.Percentile > 1 {
		return fmt.Errorf("%w: idf.percentile must be in (0, 1], got %v", ErrInvalidConfig, c.IDF.Percentile)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("%w: search.default_limit must be >= 1", ErrInvalidConfig)
	}
	w := c.Workers
	if w.CorpusPool < 1 || w.ImportPool < 1 || w.RescoreWorkers < 1 {
		return fmt.Errorf("%w: worker pool sizes must be >= 1", ErrInvalidConfig)
	}
	if w.CorpusBatchSize < 1 || w.RescoreBatch < 1 {
		return fmt.Errorf("%w: batch sizes must be >= 1", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json, got %q", ErrInvalidConfig, c.Logging.Format)
	}
	return nil
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidConfig, envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideBool(field *bool, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidConfig, envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideDuration(field *time.Duration, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("%w: %s %q: %w", ErrInvalidConfig, envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
