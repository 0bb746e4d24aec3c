// File: internal/provider/gemini.go
package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

const geminiDefaultModel = "gemini-2.5-flash"

// GeminiProvider drives the Gemini API through the official SDK.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	logger      *zap.Logger
}

var _ ModelProvider = (*GeminiProvider)(nil)

// NewGemini builds the Gemini adapter from configuration.
func NewGemini(cfg config.LLMConfig, logger *zap.Logger) (*GeminiProvider, error) {
	apiKey := cfg.APIKey("gemini")
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set GEMINI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = geminiDefaultModel
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		limiter:     newLimiter(cfg.RequestsPerSecond),
		logger:      logger.Named("provider.gemini"),
	}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete maps the conversation to Gemini contents, calls the SDK and maps
// the candidate back into the shared shapes. Function-call parts without ids
// get synthesized ones; the matching FunctionResponse is correlated by name,
// which the SDK requires anyway.
func (p *GeminiProvider) Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error) {
	contents, system := convertGeminiContents(history)

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(p.temperature)),
	}
	if p.maxTokens > 0 {
		genCfg.MaxOutputTokens = int32(p.maxTokens)
	}
	if system != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}
	if len(tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			decls = append(decls, convertGeminiTool(t))
		}
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	var resp *genai.GenerateContentResponse
	operation := func() error {
		start := time.Now()
		var err error
		resp, err = p.client.Models.GenerateContent(ctx, p.model, contents, genCfg)
		if err != nil {
			p.logger.Warn("Gemini request failed, retrying...", zap.Error(err))
			return &Error{Provider: p.Name(), Err: err}
		}
		p.logger.Debug("Model call complete", zap.Duration("duration", time.Since(start)))
		return nil
	}
	if err := withRetry(ctx, p.limiter, operation); err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &Error{Provider: p.Name(), Err: fmt.Errorf("response contained no candidates")}
	}
	return parseGeminiCandidate(resp.Candidates[0]), nil
}

func convertGeminiContents(history []schemas.Message) ([]*genai.Content, string) {
	var system string
	var contents []*genai.Content

	for _, msg := range history {
		switch msg.Role {
		case schemas.RoleSystem:
			system = msg.Content
		case schemas.RoleAssistant:
			content := &genai.Content{Role: "model"}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, inv := range msg.ToolInvocations {
				args := inv.Arguments
				if args == nil {
					args = map[string]any{}
				}
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{
						ID:   inv.ID,
						Name: inv.Name,
						Args: args,
					},
				})
			}
			contents = append(contents, content)
		case schemas.RoleTool:
			contents = append(contents, &genai.Content{
				Role: "user",
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						ID:       msg.RespondsTo,
						Name:     msg.Name,
						Response: map[string]any{"output": msg.Content},
					},
				}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}
	return contents, system
}

func convertGeminiTool(t schemas.ToolSchema) *genai.FunctionDeclaration {
	properties := make(map[string]*genai.Schema, len(t.Parameters))
	var required []string
	for _, p := range t.Parameters {
		prop := &genai.Schema{
			Type:        geminiType(p.Type),
			Description: p.Description,
		}
		if len(p.Enum) > 0 {
			prop.Enum = p.Enum
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return &genai.FunctionDeclaration{
		Name:        t.Name,
		Description: t.Description,
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		},
	}
}

func geminiType(t schemas.ParamType) genai.Type {
	switch t {
	case schemas.TypeString:
		return genai.TypeString
	case schemas.TypeInteger:
		return genai.TypeInteger
	case schemas.TypeNumber:
		return genai.TypeNumber
	case schemas.TypeBoolean:
		return genai.TypeBoolean
	case schemas.TypeObject:
		return genai.TypeObject
	case schemas.TypeArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

func parseGeminiCandidate(candidate *genai.Candidate) *schemas.ModelReply {
	reply := &schemas.ModelReply{StopReason: mapGeminiFinish(candidate.FinishReason)}

	var textParts []string
	for i, part := range candidate.Content.Parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			textParts = append(textParts, part.Text)
		}
		if fc := part.FunctionCall; fc != nil {
			id := fc.ID
			if id == "" {
				id = synthesizeID(i)
			}
			args := fc.Args
			if args == nil {
				args = map[string]any{}
			}
			reply.ToolInvocations = append(reply.ToolInvocations, schemas.ToolInvocation{
				ID:        id,
				Name:      fc.Name,
				Arguments: args,
			})
		}
	}
	reply.Text = strings.Join(textParts, "\n")
	if len(reply.ToolInvocations) > 0 && reply.StopReason == schemas.StopNormal {
		// Gemini has no dedicated tool-use finish reason.
		reply.StopReason = schemas.StopTool
	}
	return reply
}

func mapGeminiFinish(reason genai.FinishReason) schemas.StopReason {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return schemas.StopLength
	default:
		return schemas.StopNormal
	}
}
