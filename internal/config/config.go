package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and thread-safe for concurrent reads.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Blob       BlobConfig       `yaml:"blob"`
	Wizard     WizardConfig     `yaml:"wizard"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
	// GenerateRequestsPerMinute limits the interactive generation routes per client IP.
	GenerateRequestsPerMinute int `yaml:"generate_requests_per_minute"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// GenerationConfig contains text and image generation settings.
// Provider keys are env-only and act as server-side defaults; callers may
// supply their own per request.
type GenerationConfig struct {
	Provider       string   `yaml:"provider"`
	OpenAIKey      string   `yaml:"-"`
	AnthropicKey   string   `yaml:"-"`
	HordeKey       string   `yaml:"-"`
	OpenAIModel    string   `yaml:"openai_model"`
	AnthropicModel string   `yaml:"anthropic_model"`
	ImageModel     string   `yaml:"image_model"`
	MaxTokens      int64    `yaml:"max_tokens"`
	MinInterval    Duration `yaml:"min_interval"`
	RetryAttempts  uint64   `yaml:"retry_attempts"`
	RetryBackoff   Duration `yaml:"retry_backoff"`
}

// BlobConfig contains S3-compatible object storage settings for map images.
// An empty bucket disables uploads.
type BlobConfig struct {
	Bucket        string   `yaml:"bucket"`
	Endpoint      string   `yaml:"endpoint"`
	Region        string   `yaml:"region"`
	UseSSL        *bool    `yaml:"use_ssl"`
	AccessKey     string   `yaml:"-"`
	SecretKey     string   `yaml:"-"`
	PublicBaseURL string   `yaml:"public_base_url"`
	URLExpiry     Duration `yaml:"url_expiry"`
}

// WizardConfig contains campaign-frame wizard settings.
type WizardConfig struct {
	CheckpointDebounce Duration `yaml:"checkpoint_debounce"`
	CacheTTL           Duration `yaml:"cache_ttl"`
	CachePath          string   `yaml:"cache_path"`
	AdvanceToReview    bool     `yaml:"advance_to_review"`
	// SessionIdleTimeout unmounts wizard sessions not touched for this long.
	SessionIdleTimeout Duration `yaml:"session_idle_timeout"`
	// SweepInterval is how often idle sessions are evicted and the cache saved.
	SweepInterval Duration `yaml:"sweep_interval"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey string `yaml:"-"` // env-only, never in YAML
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
// Returns an immutable Config suitable for concurrent read access.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("TABLEKEEP_CONFIG_PATH", "config/tablekeep.yaml")

	// Missing file is not an error
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific path.
// Used for testing and explicit path specification.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOffline loads configuration like Load but skips the server API key
// check. CLI subcommands that work without the server use it.
func LoadOffline() (*Config, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, getEnv("TABLEKEEP_CONFIG_PATH", "config/tablekeep.yaml")); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.validateSettings(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabasePath resolves only the database path.
func LoadDatabasePath() (string, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, getEnv("TABLEKEEP_CONFIG_PATH", "config/tablekeep.yaml")); err != nil {
		return "", err
	}
	applyEnvOverrides(cfg)
	return cfg.Database.Path, nil
}

// newDefaults returns a Config with all default values.
func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                      8080,
			ReadTimeout:               Duration(30 * time.Second),
			WriteTimeout:              Duration(5 * time.Minute),
			ShutdownTimeout:           Duration(15 * time.Second),
			GenerateRequestsPerMinute: 20,
		},
		Database: DatabaseConfig{
			Path: "data/tablekeep.db",
		},
		Generation: GenerationConfig{
			Provider:       "openai",
			OpenAIModel:    "gpt-4o",
			AnthropicModel: "claude-3-5-sonnet-latest",
			ImageModel:     "dall-e-3",
			MaxTokens:      2048,
			MinInterval:    Duration(2 * time.Second),
			RetryAttempts:  2,
			RetryBackoff:   Duration(2 * time.Second),
		},
		Blob: BlobConfig{
			URLExpiry: Duration(7 * 24 * time.Hour),
		},
		Wizard: WizardConfig{
			CheckpointDebounce: Duration(2 * time.Second),
			CacheTTL:           Duration(7 * 24 * time.Hour),
			SessionIdleTimeout: Duration(2 * time.Hour),
			SweepInterval:      Duration(10 * time.Minute),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// loadYAMLFile loads configuration from a YAML file if it exists.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty env vars override config values.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("TABLEKEEP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TABLEKEEP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = Duration(d)
		}
	}
	if v := os.Getenv("TABLEKEEP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = Duration(d)
		}
	}
	if v := os.Getenv("TABLEKEEP_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}

	// Database
	if v := os.Getenv("TABLEKEEP_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Generation (provider key names follow vendor convention)
	if v := os.Getenv("TABLEKEEP_PROVIDER"); v != "" {
		cfg.Generation.Provider = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Generation.OpenAIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Generation.AnthropicKey = v
	}
	if v := os.Getenv("HORDE_API_KEY"); v != "" {
		cfg.Generation.HordeKey = v
	}
	if v := os.Getenv("TABLEKEEP_OPENAI_MODEL"); v != "" {
		cfg.Generation.OpenAIModel = v
	}
	if v := os.Getenv("TABLEKEEP_ANTHROPIC_MODEL"); v != "" {
		cfg.Generation.AnthropicModel = v
	}
	if v := os.Getenv("TABLEKEEP_MIN_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Generation.MinInterval = Duration(d)
		}
	}
	if v := os.Getenv("TABLEKEEP_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Generation.RetryAttempts = n
		}
	}

	// Blob
	if v := os.Getenv("TABLEKEEP_BLOB_BUCKET"); v != "" {
		cfg.Blob.Bucket = v
	}
	if v := os.Getenv("TABLEKEEP_S3_ENDPOINT"); v != "" {
		cfg.Blob.Endpoint = v
	}
	if v := os.Getenv("TABLEKEEP_S3_REGION"); v != "" {
		cfg.Blob.Region = v
	}
	if v := os.Getenv("TABLEKEEP_S3_ACCESS_KEY"); v != "" {
		cfg.Blob.AccessKey = v
	}
	if v := os.Getenv("TABLEKEEP_S3_SECRET_KEY"); v != "" {
		cfg.Blob.SecretKey = v
	}
	if v := os.Getenv("TABLEKEEP_S3_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Blob.UseSSL = &b
		}
	}
	if v := os.Getenv("TABLEKEEP_BLOB_PUBLIC_URL"); v != "" {
		cfg.Blob.PublicBaseURL = v
	}

	// Wizard
	if v := os.Getenv("TABLEKEEP_CHECKPOINT_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Wizard.CheckpointDebounce = Duration(d)
		}
	}
	if v := os.Getenv("TABLEKEEP_CHECKPOINT_CACHE_PATH"); v != "" {
		cfg.Wizard.CachePath = v
	}
	if v := os.Getenv("TABLEKEEP_ADVANCE_TO_REVIEW"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Wizard.AdvanceToReview = b
		}
	}

	// Auth
	if v := os.Getenv("TABLEKEEP_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}

	// Log
	if v := os.Getenv("TABLEKEEP_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("TABLEKEEP_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// validate checks that required configuration values are set.
// In dev mode (TABLEKEEP_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}

	if os.Getenv("TABLEKEEP_DEV_MODE") == "true" {
		return nil
	}

	if c.Auth.APIKey == "" {
		return errors.New("TABLEKEEP_API_KEY is required")
	}
	return nil
}

func (c *Config) validateSettings() error {
	switch c.Generation.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("generation.provider must be openai or anthropic, got %q", c.Generation.Provider)
	}
	if c.Generation.MinInterval < 0 {
		return errors.New("generation.min_interval must not be negative")
	}
	if c.Wizard.SweepInterval <= 0 {
		return errors.New("wizard.sweep_interval must be positive")
	}
	if c.Blob.Bucket != "" && c.Blob.Endpoint == "" {
		return errors.New("blob.endpoint is required when blob.bucket is set")
	}
	return nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
