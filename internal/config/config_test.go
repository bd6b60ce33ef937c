package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModelID)
	assert.Equal(t, "eleven_multilingual_v2", cfg.ElevenLabsModelID)
	assert.Equal(t, 5*time.Minute, cfg.AudioRetention)
	assert.Equal(t, "temp_audio", cfg.AudioDir)
	assert.Empty(t, cfg.RedisAddr, "empty addr selects the in-memory session store")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("AUDIO_RETENTION", "90s")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("LLM_TIMEOUT", "bogus")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.AudioRetention)
	assert.True(t, cfg.RedisTLS)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout, "invalid duration falls back to default")
}
