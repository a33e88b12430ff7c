package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const configPathEnv = "INVOICE_EXTRACTOR_CONFIG"

// Model backends.
const (
	BackendGeminiAPI = "gemini-api"
	BackendVertex    = "vertex"
)

// Storage backends.
const (
	StorageS3  = "s3"
	StorageGCS = "gcs"
)

// Config holds everything established once at process start and shared
// read-only by every invocation.
type Config struct {
	Model    ModelConfig    `yaml:"model"`
	Storage  StorageConfig  `yaml:"storage"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Timezone string         `yaml:"timezone"`
	LogLevel string         `yaml:"logLevel"`
	location *time.Location `yaml:"-"`
}

// ModelConfig selects and configures the model collaborator.
type ModelConfig struct {
	Backend         string `yaml:"backend"`
	Name            string `yaml:"name"`
	APIKey          string `yaml:"apiKey"`
	BaseURL         string `yaml:"baseUrl"`
	ProjectID       string `yaml:"projectId"`
	Region          string `yaml:"region"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	AWSRegion string `yaml:"awsRegion"`
}

// WebhookConfig holds the delivery endpoint per environment. An empty URL
// disables delivery for that environment.
type WebhookConfig struct {
	ProductionURL  string `yaml:"productionUrl"`
	DevelopmentURL string `yaml:"developmentUrl"`
}

// TimeoutConfig bounds every network call and the invocation as a whole.
type TimeoutConfig struct {
	Invocation     time.Duration `yaml:"invocation"`
	Model          time.Duration `yaml:"model"`
	ModelMargin    time.Duration `yaml:"modelMargin"`
	Fetch          time.Duration `yaml:"fetch"`
	FetchAttempts  int           `yaml:"fetchAttempts"`
	WebhookConnect time.Duration `yaml:"webhookConnect"`
	WebhookRead    time.Duration `yaml:"webhookRead"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Model: ModelConfig{
			Name:    "gemini-1.5-flash",
			BaseURL: "https://generativelanguage.googleapis.com/v1beta",
			Region:  "us-central1",
		},
		Storage: StorageConfig{
			Backend:   StorageS3,
			AWSRegion: "us-east-1",
		},
		Timeouts: TimeoutConfig{
			Invocation:     60 * time.Second,
			Model:          50 * time.Second,
			ModelMargin:    5 * time.Second,
			Fetch:          30 * time.Second,
			FetchAttempts:  3,
			WebhookConnect: 10 * time.Second,
			WebhookRead:    30 * time.Second,
		},
		Timezone: "UTC",
		LogLevel: "info",
	}
}

// Load reads the optional YAML file named by INVOICE_EXTRACTOR_CONFIG, applies
// environment overrides and validates the result.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Model.APIKey = GetEnv("GEMINI_API_KEY", c.Model.APIKey)
	c.Model.BaseURL = GetEnv("GEMINI_BASE_URL", c.Model.BaseURL)
	c.Model.Name = GetEnv("GEMINI_MODEL", c.Model.Name)
	c.Model.ProjectID = GetEnv("PROJECT_ID", c.Model.ProjectID)
	c.Model.Region = GetEnv("VERTEX_AI_REGION", c.Model.Region)
	c.Model.CredentialsFile = GetEnv("VERTEX_CREDENTIALS_FILE", c.Model.CredentialsFile)
	c.Model.Backend = GetEnv("MODEL_BACKEND", c.Model.Backend)

	c.Storage.Backend = GetEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.AWSRegion = GetEnv("AWS_REGION", c.Storage.AWSRegion)

	c.Webhook.ProductionURL = GetEnv("WEBHOOK_URL_PRODUCTION", c.Webhook.ProductionURL)
	c.Webhook.DevelopmentURL = GetEnv("WEBHOOK_URL_DEVELOPMENT", c.Webhook.DevelopmentURL)

	c.Timeouts.Invocation = getEnvAsDuration("FUNCTION_TIMEOUT", c.Timeouts.Invocation)
	c.Timeouts.Model = getEnvAsDuration("MODEL_TIMEOUT", c.Timeouts.Model)
	c.Timeouts.ModelMargin = getEnvAsDuration("MODEL_SAFETY_MARGIN", c.Timeouts.ModelMargin)
	c.Timeouts.Fetch = getEnvAsDuration("FETCH_TIMEOUT", c.Timeouts.Fetch)
	c.Timeouts.FetchAttempts = getEnvAsInt("FETCH_ATTEMPTS", c.Timeouts.FetchAttempts)
	c.Timeouts.WebhookConnect = getEnvAsDuration("WEBHOOK_CONNECT_TIMEOUT", c.Timeouts.WebhookConnect)
	c.Timeouts.WebhookRead = getEnvAsDuration("WEBHOOK_READ_TIMEOUT", c.Timeouts.WebhookRead)

	c.Timezone = GetEnv("TIMEZONE", c.Timezone)
	c.LogLevel = GetEnv("LOG_LEVEL", c.LogLevel)
}

// Validate fills derived defaults and reports missing required values.
func (c *Config) Validate() error {
	if c.Model.Backend == "" {
		if c.Model.APIKey != "" {
			c.Model.Backend = BackendGeminiAPI
		} else {
			c.Model.Backend = BackendVertex
		}
	}
	switch c.Model.Backend {
	case BackendGeminiAPI:
		if c.Model.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for model backend %q", c.Model.Backend)
		}
	case BackendVertex:
		if c.Model.ProjectID == "" || c.Model.Region == "" {
			return fmt.Errorf("PROJECT_ID and VERTEX_AI_REGION must be set for model backend %q", c.Model.Backend)
		}
	default:
		return fmt.Errorf("unknown model backend %q", c.Model.Backend)
	}

	switch c.Storage.Backend {
	case StorageS3, StorageGCS:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Timeouts.FetchAttempts < 1 {
		return fmt.Errorf("FETCH_ATTEMPTS must be at least 1, got %d", c.Timeouts.FetchAttempts)
	}
	if c.Timeouts.Invocation <= 0 || c.Timeouts.Model <= 0 || c.Timeouts.Fetch <= 0 {
		return fmt.Errorf("invocation, model and fetch timeouts must be positive")
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Timezone, err)
	}
	c.location = loc
	return nil
}

// Location returns the zone used for current-date and overdue computation.
func (c *Config) Location() *time.Location {
	if c.location != nil {
		return c.location
	}
	return time.UTC
}

// StorageScheme is the URI scheme the locator accepts for the configured
// storage backend.
func (c *Config) StorageScheme() string {
	if c.Storage.Backend == StorageGCS {
		return "gs"
	}
	return "s3"
}

// WebhookURL returns the endpoint for env, or "" when delivery is disabled.
func (c *Config) WebhookURL(env string) string {
	if env == "development" {
		return c.Webhook.DevelopmentURL
	}
	return c.Webhook.ProductionURL
}

// SlogLevel parses the configured level string.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		slog.Warn("Ignoring non-integer environment value", "key", key, "value", value)
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
		slog.Warn("Ignoring unparsable duration environment value", "key", key, "value", value)
	}
	return fallback
}
