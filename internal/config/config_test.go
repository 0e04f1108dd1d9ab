package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, e := range envs {
			t.Setenv(e, "")
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, v, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 12*time.Hour, cfg.App.SessionTTL)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Ollama.Host)
	assert.Empty(t, cfg.LLM.Gemini.APIKey)
	assert.Empty(t, cfg.DB.DSN)
}

func TestLoad_EnvOverridesAndAPIKeyAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", ":9090")
	t.Setenv("API_KEY", "legacy-key")
	t.Setenv("LLM_PROVIDER", " Ollama ")
	t.Setenv("SESSION_TTL", "30m")

	cfg, _, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "legacy-key", cfg.LLM.Gemini.APIKey)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Minute, cfg.App.SessionTTL)

	t.Setenv("GEMINI_API_KEY", "primary-key")
	cfg, _, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.LLM.Gemini.APIKey)
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "vetreport.yaml")
	content := []byte("app:\n  port: \"7000\"\nllm:\n  provider: openai\n  model: gpt-4o-mini\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, v, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.App.Port)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, path, v.ConfigFileUsed())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	clearEnv(t)
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWatch_NoFileIsNoop(t *testing.T) {
	clearEnv(t)
	_, v, err := Load("")
	require.NoError(t, err)
	assert.False(t, Watch(v, nil))
}
