package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Events      EventsConfig  `toml:"events"`
	Market      MarketConfig  `toml:"market"`
	Logging     LoggingConfig `toml:"logging"`
	Gemini      GeminiConfig  `toml:"gemini"`
	Claude      ClaudeConfig  `toml:"claude"`
	OpenAI      OpenAIConfig  `toml:"openai"`
	LLM         LLMConfig     `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

// StorageConfig selects and configures the event cache backend
type StorageConfig struct {
	Type   string          `toml:"type" validate:"oneof=json badger"` // "json" (default) or "badger"
	JSON   JSONStoreConfig `toml:"json"`
	Badger BadgerConfig    `toml:"badger"`
}

// JSONStoreConfig configures the single-document JSON cache
type JSONStoreConfig struct {
	Path string `toml:"path"` // Cache file path
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// EventsConfig controls the retrieval policy
type EventsConfig struct {
	DefaultMode     string `toml:"default_mode" validate:"required"`   // cache_only, cache_first or always_refresh
	CacheMaxAgeDays int    `toml:"cache_max_age_days" validate:"gt=0"` // Window for cache-only reads (default: 183)
	RecentCacheDays int    `toml:"recent_cache_days" validate:"gt=0"`  // Window for cache-first reads (default: 31)
	LookupTimeout   string `toml:"lookup_timeout"`                     // Ceiling for one external lookup call (default: "3m")
	AlertWarnDays   int    `toml:"alert_warn_days" validate:"gte=0"`   // Upcoming events within this many days are warnings
	AlertNoticeDays int    `toml:"alert_notice_days" validate:"gtefield=AlertWarnDays"`
}

// MarketConfig configures the price-history client
type MarketConfig struct {
	BaseURL        string  `toml:"base_url" validate:"omitempty,url"`
	UserAgent      string  `toml:"user_agent"`
	RequestTimeout string  `toml:"request_timeout"`
	RateLimit      float64 `toml:"rate_limit" validate:"gte=0"` // Requests per second, 0 disables limiting
	DefaultPeriod  string  `toml:"default_period" validate:"omitempty,oneof=1mo 3mo 6mo 1y 5y"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for console logs (default: "15:04:05")
	Dir        string   `toml:"dir"`         // Log directory, defaults to ./logs beside the executable
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey       string  `toml:"api_key"`
	Model        string  `toml:"model"`
	Temperature  float32 `toml:"temperature"`
	GoogleSearch bool    `toml:"google_search"` // Ground replies with the Google Search tool
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
}

// OpenAIConfig contains OpenAI API configuration
type OpenAIConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
	// LLMProviderOpenAI uses the OpenAI chat completions API
	LLMProviderOpenAI LLMProvider = "openai"
)

// LLMConfig selects the provider used for event lookups
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude openai"`
	Model           string      `toml:"model"`       // Optional explicit model, may carry a provider/ prefix
	MaxRetries      int         `toml:"max_retries"` // Retries on transient failures (default: 3)
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "json",
			JSON: JSONStoreConfig{
				Path: "./data/events_cache.json",
			},
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
		},
		Events: EventsConfig{
			DefaultMode:     "cache_first",
			CacheMaxAgeDays: 183, // roughly six months
			RecentCacheDays: 31,
			LookupTimeout:   "3m",
			AlertWarnDays:   14,
			AlertNoticeDays: 30,
		},
		Market: MarketConfig{
			BaseURL:        "https://query1.finance.yahoo.com",
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: "30s",
			RateLimit:      2,
			DefaultPeriod:  "1mo",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			Model:        "gemini-3-flash-preview",
			Temperature:  0.2,
			GoogleSearch: true,
		},
		Claude: ClaudeConfig{
			Model:       "claude-haiku-4-5",
			MaxTokens:   4096,
			Temperature: 0.2,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-search-preview",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderOpenAI,
			MaxRetries:      3,
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process environment.
// Missing files are skipped. Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// applyEnvOverrides applies KABUKA_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KABUKA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("KABUKA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("KABUKA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if storageType := os.Getenv("KABUKA_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = strings.ToLower(storageType)
	}
	if cachePath := os.Getenv("KABUKA_CACHE_PATH"); cachePath != "" {
		config.Storage.JSON.Path = cachePath
	}
	if badgerPath := os.Getenv("KABUKA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Events configuration
	if mode := os.Getenv("KABUKA_EVENTS_MODE"); mode != "" {
		config.Events.DefaultMode = mode
	}
	if days := os.Getenv("KABUKA_CACHE_MAX_AGE_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Events.CacheMaxAgeDays = d
		}
	}
	if days := os.Getenv("KABUKA_RECENT_CACHE_DAYS"); days != "" {
		if d, err := strconv.Atoi(days); err == nil {
			config.Events.RecentCacheDays = d
		}
	}
	if timeout := os.Getenv("KABUKA_LOOKUP_TIMEOUT"); timeout != "" {
		config.Events.LookupTimeout = timeout
	}

	// Market configuration
	if baseURL := os.Getenv("KABUKA_MARKET_BASE_URL"); baseURL != "" {
		config.Market.BaseURL = baseURL
	}

	// Logging configuration
	if level := os.Getenv("KABUKA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("KABUKA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// LLM configuration
	if provider := os.Getenv("KABUKA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}
	if model := os.Getenv("KABUKA_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}
	if model := os.Getenv("KABUKA_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("KABUKA_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if model := os.Getenv("KABUKA_OPENAI_MODEL"); model != "" {
		config.OpenAI.Model = model
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string, mode string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if mode != "" {
		config.Events.DefaultMode = mode
	}
}

var configValidator = validator.New()

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LookupTimeoutDuration returns the external lookup ceiling, falling back to 3m.
func (c *EventsConfig) LookupTimeoutDuration() time.Duration {
	return parseDurationOr(c.LookupTimeout, 3*time.Minute)
}

// RequestTimeoutDuration returns the price-history request timeout, falling back to 30s.
func (c *MarketConfig) RequestTimeoutDuration() time.Duration {
	return parseDurationOr(c.RequestTimeout, 30*time.Second)
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables -> config fallback -> ErrExternalUnavailable.
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"KABUKA_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"ANTHROPIC_API_KEY", "KABUKA_CLAUDE_API_KEY"},
		"openai_api_key":    {"OPENAI_API_KEY", "KABUKA_OPENAI_API_KEY"},
	}

	for _, envVarName := range keyToEnvMapping[name] {
		if envValue := os.Getenv(envVarName); envValue != "" {
			return envValue, nil
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config: %w", name, ErrExternalUnavailable)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
