// File: internal/provider/anthropic.go
package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicDefaultModel   = "claude-sonnet-4-20250514"
	anthropicVersion        = "2023-06-01"
)

// AnthropicProvider talks to the Anthropic Messages API over plain HTTP.
type AnthropicProvider struct {
	apiKey     string
	model      string
	baseURL    string
	maxTokens  int
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ ModelProvider = (*AnthropicProvider)(nil)

// -- Anthropic wire shapes (internal to this file) --

type anthropicContentBlock struct {
	Type string `json:"type"`
	// text blocks
	Text string `json:"text,omitempty"`
	// tool_use blocks
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
	// tool_result blocks
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewAnthropic builds the Anthropic adapter from configuration.
func NewAnthropic(cfg config.LLMConfig, logger *zap.Logger) (*AnthropicProvider, error) {
	apiKey := cfg.APIKey("anthropic")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required (set ANTHROPIC_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &AnthropicProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxTokens:  cfg.MaxTokens,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RequestsPerSecond),
		logger:     logger.Named("provider.anthropic"),
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete sends the conversation to the Messages API and maps the reply
// back into the shared shapes.
func (p *AnthropicProvider) Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error) {
	maxTokens := p.maxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	req := anthropicRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
	}
	req.System, req.Messages = convertAnthropicMessages(history)
	for _, t := range tools {
		req.Tools = append(req.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: jsonSchemaObject(t),
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	var apiResp anthropicResponse
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: err})
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", p.apiKey)
		httpReq.Header.Set("anthropic-version", anthropicVersion)

		start := time.Now()
		resp, err := p.httpClient.Do(httpReq)
		if err != nil {
			p.logger.Warn("Network error during model request, retrying...", zap.Error(err))
			return &Error{Provider: p.Name(), Err: err}
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Provider: p.Name(), Err: fmt.Errorf("read response: %w", err)}
		}
		if resp.StatusCode != http.StatusOK {
			p.logger.Warn("Anthropic API returned error status",
				zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
			return classifyHTTPStatus(p.Name(), resp.StatusCode, respBody)
		}

		apiResp = anthropicResponse{}
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)})
		}
		if apiResp.Error != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: fmt.Errorf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)})
		}

		p.logger.Debug("Model call complete",
			zap.Duration("duration", time.Since(start)),
			zap.String("stop_reason", apiResp.StopReason))
		return nil
	}

	if err := withRetry(ctx, p.limiter, operation); err != nil {
		return nil, err
	}

	return parseAnthropicResponse(apiResp), nil
}

// convertAnthropicMessages splits the system turn out and converts the rest
// into Anthropic content blocks. Tool results become user-role tool_result
// blocks correlated by tool_use_id, in conversation order.
func convertAnthropicMessages(history []schemas.Message) (string, []anthropicMessage) {
	var system string
	var out []anthropicMessage

	for _, msg := range history {
		switch msg.Role {
		case schemas.RoleSystem:
			system = msg.Content
		case schemas.RoleTool:
			out = append(out, anthropicMessage{
				Role: "user",
				Content: []anthropicContentBlock{{
					Type:      "tool_result",
					ToolUseID: msg.RespondsTo,
					Content:   msg.Content,
				}},
			})
		case schemas.RoleAssistant:
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, inv := range msg.ToolInvocations {
				input := inv.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    inv.ID,
					Name:  inv.Name,
					Input: input,
				})
			}
			out = append(out, anthropicMessage{Role: "assistant", Content: blocks})
		default:
			out = append(out, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}
	return system, out
}

func parseAnthropicResponse(resp anthropicResponse) *schemas.ModelReply {
	reply := &schemas.ModelReply{StopReason: mapAnthropicStop(resp.StopReason)}

	var textParts []string
	for i, block := range resp.Content {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_use":
			id := block.ID
			if id == "" {
				id = synthesizeID(i)
			}
			args := block.Input
			if args == nil {
				args = map[string]any{}
			}
			reply.ToolInvocations = append(reply.ToolInvocations, schemas.ToolInvocation{
				ID:        id,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	reply.Text = strings.Join(textParts, "\n")
	return reply
}

func mapAnthropicStop(reason string) schemas.StopReason {
	switch reason {
	case "max_tokens":
		return schemas.StopLength
	case "tool_use":
		return schemas.StopTool
	default:
		return schemas.StopNormal
	}
}

// jsonSchemaObject builds the JSON-Schema object Anthropic and OpenAI both
// expect from a tool's ParamSpecs.
func jsonSchemaObject(t schemas.ToolSchema) map[string]any {
	properties := make(map[string]any, len(t.Parameters))
	var required []string
	for _, p := range t.Parameters {
		prop := map[string]any{"type": string(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
