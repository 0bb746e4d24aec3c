// File: internal/agent/interfaces.go
package agent

import (
	"context"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// Provider is the model behind the loop. Satisfied by every adapter in
// internal/provider.
type Provider interface {
	Name() string
	Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error)
}

// ActionExecutor runs browser-side tool invocations. Satisfied by
// *browser.Session.
type ActionExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// SkillStore is the playbook library consulted by the local skill tools and
// by the system-prompt hint.
type SkillStore interface {
	List() ([]string, error)
	Read(name string) (string, error)
	IndexHint() string
}

// ArtifactWriter persists model-authored test scripts.
type ArtifactWriter interface {
	WriteTest(filename, content string) (string, error)
}
