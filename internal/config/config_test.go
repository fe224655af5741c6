package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "openai", cfg.ModelBackend)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.CallTimeout)
	assert.Equal(t, "moveinventory.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.PricingTTL)
}

func TestLoadRequiresCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := Load()
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	t.Setenv("MODEL_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MODEL_BACKEND", "llamafile")
	_, err := Load()
	assert.ErrorContains(t, err, "MODEL_BACKEND")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MODEL_BACKEND", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("MODEL_CALL_TIMEOUT", "2m")
	t.Setenv("MODEL_MAX_RETRIES", "5")
	t.Setenv("LISTEN_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.ModelBackend)
	assert.Equal(t, 2*time.Minute, cfg.CallTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, ":9090", cfg.ListenAddr)
}

func TestGetenvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("MODEL_MAX_RETRIES", "many")
	t.Setenv("MODEL_CALL_TIMEOUT", "soon")

	assert.Equal(t, 3, getenvInt("MODEL_MAX_RETRIES", 3))
	assert.Equal(t, time.Minute, getenvDuration("MODEL_CALL_TIMEOUT", time.Minute))
}
