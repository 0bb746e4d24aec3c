package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/config"
)

func TestFactorySelectsProvider(t *testing.T) {
	cfg := config.LLMConfig{
		AnthropicAPIKey: "a",
		OpenAIAPIKey:    "b",
	}

	cfg.Provider = "anthropic"
	p, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	cfg.Provider = "OpenAI" // case-insensitive
	p, err = New(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestFactoryDefaultsToAnthropic(t *testing.T) {
	p, err := New(config.LLMConfig{AnthropicAPIKey: "a"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
}

func TestFactoryRejectsUnknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "cohere"}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownProvider)
	assert.Contains(t, err.Error(), "anthropic, openai, gemini")
}

func TestFactoryPropagatesMissingKey(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "openai"}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}
