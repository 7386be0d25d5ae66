package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.HTTPPort)
	assert.Equal(t, "X-API-Key", cfg.Auth.Header)
	assert.Equal(t, 24*time.Hour, cfg.Conversation.MaxAge)
	assert.Equal(t, 5, cfg.Detection.HistoryWindow)
	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, 1, cfg.LLM.MaxRetries)
	assert.Less(t, 2*cfg.LLM.Timeout, cfg.Detection.ExternalTimeout, "a timed-out attempt leaves room for the retry")
	assert.False(t, cfg.LLMAvailable())
	assert.Len(t, cfg.Persona.Characteristics, 5)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  http_port: 9090
conversation:
  max_age: 2h
llm:
  provider: openai
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("HONEYPOT_AUTH_API_KEY", "secret-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.Conversation.MaxAge)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "secret-from-env", cfg.Auth.APIKey)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:       ServerConfig{HTTPPort: 8000},
			Conversation: ConversationConfig{MaxAge: time.Hour},
			LLM:          LLMConfig{Provider: "groq"},
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("bad provider", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Provider = "mystery"
		assert.ErrorContains(t, cfg.Validate(), "unsupported llm.provider")
	})

	t.Run("llm enabled without key", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Enabled = true
		assert.ErrorContains(t, cfg.Validate(), "requires llm.api_key")
	})

	t.Run("llm timeout leaves no room for retry", func(t *testing.T) {
		cfg := valid()
		cfg.Detection.ExternalTimeout = 8 * time.Second
		cfg.LLM.Timeout = 8 * time.Second
		cfg.LLM.MaxRetries = 1
		assert.ErrorContains(t, cfg.Validate(), "llm.timeout")

		cfg.LLM.MaxRetries = 0
		assert.NoError(t, cfg.Validate())

		cfg.LLM.MaxRetries = 1
		cfg.LLM.Timeout = 3 * time.Second
		assert.NoError(t, cfg.Validate())
	})

	t.Run("non-positive max age", func(t *testing.T) {
		cfg := valid()
		cfg.Conversation.MaxAge = 0
		assert.Error(t, cfg.Validate())
	})
}
