package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP API
	HTTPAddr       string        `envconfig:"HTTP_ADDR" default:":8080"`
	AuthMode       string        `envconfig:"AUTH_MODE" default:"none"` // "none", "api-key" or "jwt"
	APIKey         string        `envconfig:"API_KEY"`
	JWTSecret      string        `envconfig:"JWT_SECRET"`
	RateLimitRPS   int           `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int           `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string        `envconfig:"CORS_ORIGINS"`
	TLSCert        string        `envconfig:"TLS_CERT"`
	TLSKey         string        `envconfig:"TLS_KEY"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"120s"`

	// Project storage
	ProjectsDir string `envconfig:"PROJECTS_DIR" default:"projects"`

	// Recording sessions (in-memory with optional SQLite persistence)
	SessionDBPath        string        `envconfig:"SESSION_DB_PATH"` // empty = memory only
	SessionTTL           time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionSweepInterval time.Duration `envconfig:"SESSION_SWEEP_INTERVAL" default:"10m"`

	// LLM provider (optional; scoring runs rule-based without one)
	LLMProvider     string        `envconfig:"LLM_PROVIDER" default:"anthropic"` // "anthropic" or "openai"
	AnthropicAPIKey string        `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey    string        `envconfig:"OPENAI_API_KEY"`
	LLMModel        string        `envconfig:"LLM_MODEL"`
	LLMMaxTokens    int           `envconfig:"LLM_MAX_TOKENS" default:"4096"`
	LLMTimeout      time.Duration `envconfig:"LLM_TIMEOUT" default:"90s"`

	// Script quality / auto-fix loop
	FixTargetScore   int `envconfig:"FIX_TARGET_SCORE" default:"95"`
	FixMaxIterations int `envconfig:"FIX_MAX_ITERATIONS" default:"5"`

	// TTS optimization
	TTSTablePath string `envconfig:"TTS_TABLE_PATH"` // YAML file overriding the built-in replacement table
}

// LLMEnabled returns true if an API key for the configured provider is set.
func (c *Config) LLMEnabled() bool {
	switch strings.ToLower(c.LLMProvider) {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	}
	return false
}

// TLSEnabled returns true if both a certificate and key are configured.
func (c *Config) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// SessionPersistenceEnabled returns true if sessions survive restarts.
func (c *Config) SessionPersistenceEnabled() bool {
	return c.SessionDBPath != ""
}

// CORSOriginList returns the parsed list of allowed CORS origins.
// Returns nil if not configured, which disables cross-origin callers.
func (c *Config) CORSOriginList() []string {
	if c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Validate checks invariants that envconfig defaults cannot express.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case "none":
	case "api-key":
		if c.APIKey == "" {
			return fmt.Errorf("AUTH_MODE=api-key requires API_KEY")
		}
	case "jwt":
		if c.JWTSecret == "" {
			return fmt.Errorf("AUTH_MODE=jwt requires JWT_SECRET")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q (expected none, api-key or jwt)", c.AuthMode)
	}
	if c.FixMaxIterations < 1 {
		return fmt.Errorf("FIX_MAX_ITERATIONS must be >= 1, got %d", c.FixMaxIterations)
	}
	if c.FixTargetScore < 0 || c.FixTargetScore > 100 {
		return fmt.Errorf("FIX_TARGET_SCORE must be between 0 and 100, got %d", c.FixTargetScore)
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithPrefix reads configuration with a prefix.
func LoadWithPrefix(prefix string) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("loading config with prefix %s: %w", prefix, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
