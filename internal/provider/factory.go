// File: internal/provider/factory.go
package provider

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/internal/config"
)

// ErrUnknownProvider marks a provider selection that does not exist; front
// ends map it to a caller error instead of an upstream failure.
var ErrUnknownProvider = errors.New("unknown provider")

// New instantiates the configured model provider. An empty provider name
// defaults to anthropic.
func New(cfg config.LLMConfig, logger *zap.Logger) (ModelProvider, error) {
	name := strings.ToLower(cfg.Provider)
	if name == "" {
		name = "anthropic"
	}

	switch name {
	case "anthropic":
		return NewAnthropic(cfg, logger)
	case "openai":
		return NewOpenAI(cfg, logger)
	case "gemini":
		return NewGemini(cfg, logger)
	default:
		return nil, fmt.Errorf("%w %q (supported: anthropic, openai, gemini)", ErrUnknownProvider, cfg.Provider)
	}
}
