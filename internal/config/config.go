// Package config manages application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// Creator is the TikTok handle to track, without the leading @.
	Creator string

	// DataDir is where downloaded audio artifacts are kept.
	DataDir string

	// OutputPath is the JSON library file.
	OutputPath string

	// yt-dlp settings
	YtdlpPath    string
	ListTimeout  time.Duration
	FetchTimeout time.Duration

	// MaxPerRun caps how many unseen videos one run processes. 0 = unlimited.
	MaxPerRun int

	// ListRPS paces listing requests against TikTok.
	ListRPS float64

	// Transcription settings. An empty OpenAIAPIKey disables transcription.
	OpenAIAPIKey      string
	TranscribeTimeout time.Duration

	// Retry settings
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64

	// Schedule is an optional cron expression for recurring runs.
	// Empty means run once and exit.
	Schedule string
}

// fileConfig is the YAML shape of the config file. Durations are strings
// ("90s", "5m") because YAML has no native duration type; numeric fields are
// pointers so an absent key leaves the default alone.
type fileConfig struct {
	Creator           string   `yaml:"creator"`
	DataDir           string   `yaml:"data_dir"`
	OutputPath        string   `yaml:"output_path"`
	YtdlpPath         string   `yaml:"ytdlp_path"`
	ListTimeout       string   `yaml:"list_timeout"`
	FetchTimeout      string   `yaml:"fetch_timeout"`
	MaxPerRun         *int     `yaml:"max_per_run"`
	ListRPS           *float64 `yaml:"list_rps"`
	OpenAIAPIKey      string   `yaml:"openai_api_key"`
	TranscribeTimeout string   `yaml:"transcribe_timeout"`
	MaxRetries        *int     `yaml:"max_retries"`
	InitialBackoff    string   `yaml:"initial_backoff"`
	MaxBackoff        string   `yaml:"max_backoff"`
	BackoffMultiplier *float64 `yaml:"backoff_multiplier"`
	Schedule          string   `yaml:"schedule"`
}

// DefaultConfig returns configuration with safe defaults.
func DefaultConfig() *Config {
	return &Config{
		Creator:           "pinkpennies_",
		DataDir:           "data",
		OutputPath:        filepath.Join("data", "videos.json"),
		YtdlpPath:         "yt-dlp",
		ListTimeout:       60 * time.Second,
		FetchTimeout:      5 * time.Minute,
		MaxPerRun:         0,
		ListRPS:           0.5,
		TranscribeTimeout: 2 * time.Minute,
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Load loads configuration from a .env file, a YAML config file, and
// environment variables, then applies defaults.
// Priority: env vars > config file > defaults
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if err := cfg.loadFromFile(); err != nil {
		// Config file is optional
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile attempts to load config from pennies.yaml in the current
// directory or the path named by PENNIES_CONFIG.
func (c *Config) loadFromFile() error {
	paths := []string{"pennies.yaml"}
	if p := os.Getenv("PENNIES_CONFIG"); p != "" {
		paths = []string{p}
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if err := c.applyFile(&fc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	}

	return os.ErrNotExist
}

// applyFile merges set fields from the config file over the defaults.
func (c *Config) applyFile(fc *fileConfig) error {
	if fc.Creator != "" {
		c.Creator = fc.Creator
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.OutputPath != "" {
		c.OutputPath = fc.OutputPath
	}
	if fc.YtdlpPath != "" {
		c.YtdlpPath = fc.YtdlpPath
	}
	if fc.OpenAIAPIKey != "" {
		c.OpenAIAPIKey = fc.OpenAIAPIKey
	}
	if fc.Schedule != "" {
		c.Schedule = fc.Schedule
	}
	if fc.MaxPerRun != nil {
		c.MaxPerRun = *fc.MaxPerRun
	}
	if fc.ListRPS != nil {
		c.ListRPS = *fc.ListRPS
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.BackoffMultiplier != nil {
		c.BackoffMultiplier = *fc.BackoffMultiplier
	}

	durations := []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{fc.ListTimeout, &c.ListTimeout, "list_timeout"},
		{fc.FetchTimeout, &c.FetchTimeout, "fetch_timeout"},
		{fc.TranscribeTimeout, &c.TranscribeTimeout, "transcribe_timeout"},
		{fc.InitialBackoff, &c.InitialBackoff, "initial_backoff"},
		{fc.MaxBackoff, &c.MaxBackoff, "max_backoff"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	return nil
}

// loadFromEnv overrides config with environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("PENNIES_CREATOR"); v != "" {
		c.Creator = v
	}
	if v := os.Getenv("PENNIES_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("PENNIES_OUTPUT"); v != "" {
		c.OutputPath = v
	}
	if v := os.Getenv("PENNIES_YTDLP_PATH"); v != "" {
		c.YtdlpPath = v
	}
	if v := os.Getenv("PENNIES_LIST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.ListTimeout = d
		}
	}
	if v := os.Getenv("PENNIES_FETCH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.FetchTimeout = d
		}
	}
	if v := os.Getenv("PENNIES_TRANSCRIBE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TranscribeTimeout = d
		}
	}
	if v := os.Getenv("PENNIES_MAX_PER_RUN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxPerRun = n
		}
	}
	if v := os.Getenv("PENNIES_LIST_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.ListRPS = f
		}
	}
	if v := os.Getenv("PENNIES_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv("PENNIES_SCHEDULE"); v != "" {
		c.Schedule = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Creator == "" {
		return fmt.Errorf("creator must be set")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output_path must be set")
	}
	if c.ListTimeout <= 0 {
		return fmt.Errorf("list_timeout must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}
	if c.TranscribeTimeout <= 0 {
		return fmt.Errorf("transcribe_timeout must be positive")
	}
	if c.MaxPerRun < 0 {
		return fmt.Errorf("max_per_run must be non-negative")
	}
	if c.ListRPS <= 0 {
		return fmt.Errorf("list_rps must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.InitialBackoff <= 0 {
		return fmt.Errorf("initial_backoff must be positive")
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff must be >= initial_backoff")
	}
	if c.BackoffMultiplier <= 1 {
		return fmt.Errorf("backoff_multiplier must be > 1")
	}
	return nil
}
