// File: internal/provider/openai.go
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
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

const (
	openaiDefaultBaseURL = "https://api.openai.com"
	openaiDefaultModel   = "gpt-4o"
)

// OpenAIProvider talks to the Chat Completions API over plain HTTP. A
// configurable base URL covers OpenAI-compatible vendors as well.
type OpenAIProvider struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

var _ ModelProvider = (*OpenAIProvider)(nil)

// -- OpenAI wire shapes (internal to this file) --

type openaiFunction struct {
	Name string `json:"name"`
	// Arguments is a JSON-encoded string on the wire, not an object.
	Arguments string `json:"arguments"`
}

type openaiToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function openaiFunction `json:"function"`
}

type openaiMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openaiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openaiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type openaiRequest struct {
	Model      string          `json:"model"`
	Messages   []openaiMessage `json:"messages"`
	Tools      []openaiTool    `json:"tools,omitempty"`
	ToolChoice string          `json:"tool_choice,omitempty"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []openaiToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAI builds the OpenAI adapter from configuration.
func NewOpenAI(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIProvider, error) {
	apiKey := cfg.APIKey("openai")
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required (set OPENAI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = openaiDefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openaiDefaultBaseURL
	}
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OpenAIProvider{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RequestsPerSecond),
		logger:     logger.Named("provider.openai"),
	}, nil
}

func (p *OpenAIProvider) Name() string { return "openai" }

// Complete sends the conversation to the Chat Completions API and maps the
// reply back into the shared shapes.
func (p *OpenAIProvider) Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error) {
	req := openaiRequest{
		Model:    p.model,
		Messages: convertOpenAIMessages(history),
	}
	for _, t := range tools {
		var ot openaiTool
		ot.Type = "function"
		ot.Function.Name = t.Name
		ot.Function.Description = t.Description
		ot.Function.Parameters = jsonSchemaObject(t)
		req.Tools = append(req.Tools, ot)
	}
	if len(req.Tools) > 0 {
		req.ToolChoice = "auto"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &Error{Provider: p.Name(), Err: fmt.Errorf("marshal request: %w", err)}
	}

	var apiResp openaiResponse
	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: err})
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

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
			p.logger.Warn("OpenAI API returned error status",
				zap.Int("status", resp.StatusCode), zap.ByteString("body", respBody))
			return classifyHTTPStatus(p.Name(), resp.StatusCode, respBody)
		}

		apiResp = openaiResponse{}
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: fmt.Errorf("decode response: %w", err)})
		}
		if apiResp.Error != nil {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: fmt.Errorf("%s: %s", apiResp.Error.Type, apiResp.Error.Message)})
		}
		if len(apiResp.Choices) == 0 {
			return backoff.Permanent(&Error{Provider: p.Name(), Err: fmt.Errorf("response contained no choices")})
		}

		p.logger.Debug("Model call complete",
			zap.Duration("duration", time.Since(start)),
			zap.String("finish_reason", apiResp.Choices[0].FinishReason))
		return nil
	}

	if err := withRetry(ctx, p.limiter, operation); err != nil {
		return nil, err
	}

	return p.parseResponse(apiResp), nil
}

func convertOpenAIMessages(history []schemas.Message) []openaiMessage {
	out := make([]openaiMessage, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case schemas.RoleTool:
			out = append(out, openaiMessage{
				Role:       "tool",
				Content:    msg.Content,
				ToolCallID: msg.RespondsTo,
			})
		case schemas.RoleAssistant:
			om := openaiMessage{Role: "assistant", Content: msg.Content}
			for _, inv := range msg.ToolInvocations {
				args, err := json.MarshalToString(inv.Arguments)
				if err != nil || args == "null" {
					args = "{}"
				}
				om.ToolCalls = append(om.ToolCalls, openaiToolCall{
					ID:   inv.ID,
					Type: "function",
					Function: openaiFunction{
						Name:      inv.Name,
						Arguments: args,
					},
				})
			}
			out = append(out, om)
		default:
			out = append(out, openaiMessage{Role: string(msg.Role), Content: msg.Content})
		}
	}
	return out
}

func (p *OpenAIProvider) parseResponse(resp openaiResponse) *schemas.ModelReply {
	choice := resp.Choices[0]
	reply := &schemas.ModelReply{
		Text:       choice.Message.Content,
		StopReason: mapOpenAIFinish(choice.FinishReason),
	}
	for i, tc := range choice.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = synthesizeID(i)
		}
		reply.ToolInvocations = append(reply.ToolInvocations, schemas.ToolInvocation{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: p.decodeArguments(tc.Function.Arguments),
		})
	}
	return reply
}

// decodeArguments parses the JSON-encoded argument string, repairing it when
// the model emitted almost-JSON. Irreparable input decodes to an empty map
// so validation reports the missing fields instead of the run failing.
func (p *OpenAIProvider) decodeArguments(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}

	var args map[string]any
	if err := json.UnmarshalFromString(raw, &args); err == nil && args != nil {
		return args
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		p.logger.Warn("Dropping irreparable tool argument JSON", zap.String("raw", raw), zap.Error(err))
		return map[string]any{}
	}
	if err := json.UnmarshalFromString(repaired, &args); err != nil || args == nil {
		p.logger.Warn("Repaired tool argument JSON is not an object", zap.String("repaired", repaired))
		return map[string]any{}
	}
	p.logger.Debug("Repaired malformed tool argument JSON", zap.String("raw", raw))
	return args
}

func mapOpenAIFinish(reason string) schemas.StopReason {
	switch reason {
	case "length":
		return schemas.StopLength
	case "tool_calls":
		return schemas.StopTool
	default:
		return schemas.StopNormal
	}
}
