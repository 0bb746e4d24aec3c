package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
	"github.com/webpilot-ai/webpilot/internal/tools"
)

func anthropicTestConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:        "anthropic",
		AnthropicAPIKey: "sk-ant-test",
		BaseURL:         baseURL,
		MaxTokens:       1024,
	}
}

func sampleHistory() []schemas.Message {
	return []schemas.Message{
		{Role: schemas.RoleSystem, Content: "You are a web automation agent."},
		{Role: schemas.RoleUser, Content: "get the title of example.com"},
		{
			Role:    schemas.RoleAssistant,
			Content: "Navigating first.",
			ToolInvocations: []schemas.ToolInvocation{
				{ID: "toolu_1", Name: "navigate", Arguments: map[string]any{"url": "https://example.com"}},
			},
		},
		schemas.NewToolResultMessage(
			schemas.ToolInvocation{ID: "toolu_1", Name: "navigate"},
			`Navigated to https://example.com (title "Example Domain")`,
		),
	}
}

func TestAnthropicCompleteRoundTrip(t *testing.T) {
	var captured anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"content": [
				{"type": "text", "text": "done, calling the completion tool"},
				{"type": "tool_use", "id": "toolu_2", "name": "done", "input": {"result": "Example Domain"}}
			],
			"stop_reason": "tool_use"
		}`))
	}))
	defer srv.Close()

	p, err := NewAnthropic(anthropicTestConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	reply, err := p.Complete(context.Background(), sampleHistory(), tools.Schemas())
	require.NoError(t, err)

	// Request side: system split out, tool result correlated, tools advertised.
	assert.Equal(t, "You are a web automation agent.", captured.System)
	require.Len(t, captured.Messages, 3)
	assert.Equal(t, "user", captured.Messages[0].Role)
	assert.Equal(t, "assistant", captured.Messages[1].Role)
	require.Len(t, captured.Messages[1].Content, 2)
	assert.Equal(t, "tool_use", captured.Messages[1].Content[1].Type)
	assert.Equal(t, "toolu_1", captured.Messages[1].Content[1].ID)
	assert.Equal(t, "tool_result", captured.Messages[2].Content[0].Type)
	assert.Equal(t, "toolu_1", captured.Messages[2].Content[0].ToolUseID)
	assert.Len(t, captured.Tools, len(tools.Schemas()))

	// Reply side.
	assert.Equal(t, "done, calling the completion tool", reply.Text)
	require.Len(t, reply.ToolInvocations, 1)
	assert.Equal(t, "toolu_2", reply.ToolInvocations[0].ID)
	assert.Equal(t, "done", reply.ToolInvocations[0].Name)
	assert.Equal(t, "Example Domain", reply.ToolInvocations[0].Arguments["result"])
	assert.Equal(t, schemas.StopTool, reply.StopReason)
}

func TestAnthropicRetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"content": [{"type": "text", "text": "recovered"}], "stop_reason": "end_turn"}`))
	}))
	defer srv.Close()

	p, err := NewAnthropic(anthropicTestConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	reply, err := p.Complete(context.Background(), sampleHistory(), nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.Text)
	assert.Empty(t, reply.ToolInvocations)
	assert.Equal(t, schemas.StopNormal, reply.StopReason)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicPermanentStatusFailsFast(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"type": "authentication_error", "message": "bad key"}}`))
	}))
	defer srv.Close()

	p, err := NewAnthropic(anthropicTestConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), sampleHistory(), nil)
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "anthropic", perr.Provider)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Equal(t, int32(1), calls.Load(), "auth failures must not be retried")
}

func TestAnthropicRequiresAPIKey(t *testing.T) {
	_, err := NewAnthropic(config.LLMConfig{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestJSONSchemaObject(t *testing.T) {
	schema, ok := tools.Lookup("scroll")
	require.True(t, ok)

	obj := jsonSchemaObject(schema)
	assert.Equal(t, "object", obj["type"])
	assert.Equal(t, []string{"direction"}, obj["required"])

	props, ok := obj["properties"].(map[string]any)
	require.True(t, ok)
	direction, ok := props["direction"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", direction["type"])
	assert.Equal(t, []string{"up", "down"}, direction["enum"])
	amount, ok := props["amount"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", amount["type"])
}
