package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
	assert.InDelta(t, 0.7, cfg.Temperature, 0.001)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 10, cfg.MaxHistoryLength)
	assert.Equal(t, "08:00", cfg.NewsSendTime)
	assert.False(t, cfg.Debug)

	// Unset sampling parameters stay nil so the provider defaults apply.
	assert.Nil(t, cfg.TopP)
	assert.Nil(t, cfg.FrequencyPenalty)
	assert.Nil(t, cfg.PresencePenalty)
}

func TestLoadConfig_OptionalSamplingParams(t *testing.T) {
	t.Setenv("OPENAI_TOP_P", "0.9")
	t.Setenv("OPENAI_PRESENCE_PENALTY", "0.25")

	cfg := LoadConfig()

	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.9, *cfg.TopP, 0.001)
	require.NotNil(t, cfg.PresencePenalty)
	assert.InDelta(t, 0.25, *cfg.PresencePenalty, 0.001)
	assert.Nil(t, cfg.FrequencyPenalty)
}

func TestLoadConfig_UserIDList(t *testing.T) {
	t.Setenv("USER_IDS", "U1, U2 ,,U3")

	cfg := LoadConfig()

	assert.Equal(t, []string{"U1", "U2", "U3"}, cfg.NewsUserIDs)
}

func TestLoadConfig_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("OPENAI_MAX_TOKENS", "lots")
	t.Setenv("OPENAI_TEMPERATURE", "warm")
	t.Setenv("OPENAI_TOP_P", "high")

	cfg := LoadConfig()

	assert.Equal(t, 500, cfg.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Temperature, 0.001)
	assert.Nil(t, cfg.TopP)
}

func TestLoadConfig_Debug(t *testing.T) {
	t.Setenv("DEBUG", "True")
	assert.True(t, LoadConfig().Debug)
}
