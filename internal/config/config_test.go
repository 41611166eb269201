// Package config tests.
package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "none", cfg.AuthMode)
	assert.Equal(t, "projects", cfg.ProjectsDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.SessionSweepInterval)
	assert.Equal(t, "anthropic", cfg.LLMProvider)
	assert.Equal(t, 4096, cfg.LLMMaxTokens)
	assert.Equal(t, 95, cfg.FixTargetScore)
	assert.Equal(t, 5, cfg.FixMaxIterations)
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PROJECTS_DIR", "/var/lib/studio/projects")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "/var/lib/studio/projects", cfg.ProjectsDir)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoad_AuthModeValidation(t *testing.T) {
	os.Clearenv()
	t.Setenv("AUTH_MODE", "api-key")
	_, err := Load()
	require.Error(t, err, "api-key mode without API_KEY must fail")

	t.Setenv("API_KEY", "secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "api-key", cfg.AuthMode)
}

func TestLoad_JWTModeValidation(t *testing.T) {
	os.Clearenv()
	t.Setenv("AUTH_MODE", "jwt")
	_, err := Load()
	require.Error(t, err, "jwt mode without JWT_SECRET must fail")

	t.Setenv("JWT_SECRET", "hmac-secret")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "jwt", cfg.AuthMode)
}

func TestLoad_UnknownAuthMode(t *testing.T) {
	os.Clearenv()
	t.Setenv("AUTH_MODE", "mtls")
	_, err := Load()
	require.Error(t, err)
}

func TestLLMEnabled(t *testing.T) {
	cfg := &Config{LLMProvider: "anthropic"}
	assert.False(t, cfg.LLMEnabled())

	cfg.AnthropicAPIKey = "sk-ant-test"
	assert.True(t, cfg.LLMEnabled())

	cfg.LLMProvider = "openai"
	assert.False(t, cfg.LLMEnabled(), "openai provider must not use the anthropic key")

	cfg.OpenAIAPIKey = "sk-test"
	assert.True(t, cfg.LLMEnabled())

	cfg.LLMProvider = "none"
	assert.False(t, cfg.LLMEnabled())
}

func TestCORSOriginList(t *testing.T) {
	cfg := &Config{}
	assert.Nil(t, cfg.CORSOriginList())

	cfg.CORSOrigins = "https://studio.local, https://review.local ,"
	assert.Equal(t, []string{"https://studio.local", "https://review.local"}, cfg.CORSOriginList())
}

func TestValidate_FixBounds(t *testing.T) {
	os.Clearenv()
	t.Setenv("FIX_MAX_ITERATIONS", "0")
	_, err := Load()
	require.Error(t, err)

	os.Clearenv()
	t.Setenv("FIX_TARGET_SCORE", "150")
	_, err = Load()
	require.Error(t, err)
}
