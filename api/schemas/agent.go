package schemas

// -- Conversation Schemas --

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one provider-neutral conversation turn. Providers translate it to
// and from their own wire formats; nothing vendor-specific crosses this type.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// ToolInvocations is set only on assistant turns that propose actions.
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty"`

	// RespondsTo is set only on tool turns: the invocation id this result
	// answers. Exactly one tool turn exists per proposed invocation before
	// the next model call.
	RespondsTo string `json:"responds_to,omitempty"`

	// Name is set only on tool turns: the tool name, required by vendors
	// that need it alongside the id.
	Name string `json:"name,omitempty"`
}

// NewToolResultMessage builds the tool turn answering one invocation.
func NewToolResultMessage(inv ToolInvocation, output string) Message {
	return Message{
		Role:       RoleTool,
		Content:    output,
		RespondsTo: inv.ID,
		Name:       inv.Name,
	}
}

// -- Tool Schemas --

// ParamType enumerates the JSON Schema types a tool parameter may declare.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeObject  ParamType = "object"
	TypeArray   ParamType = "array"
)

// ParamSpec declares one tool argument.
type ParamSpec struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"type"`
	Required    bool      `json:"required"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// ToolSchema is a static action definition advertised to the model.
// Parameters keep declaration order; validation reports missing required
// fields in that order. Immutable for the process lifetime.
type ToolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []ParamSpec `json:"parameters"`
}

// RequiredParams returns the required parameters in declaration order.
func (t ToolSchema) RequiredParams() []ParamSpec {
	var out []ParamSpec
	for _, p := range t.Parameters {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// ToolInvocation is one concrete proposed call to a tool. The id is opaque
// and provider-assigned, unique within a single model reply; arguments are
// unvalidated until the catalog checks them.
type ToolInvocation struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// -- Model Reply --

// StopReason classifies why the model stopped generating.
type StopReason string

const (
	StopNormal StopReason = "normal"
	StopLength StopReason = "length"
	StopTool   StopReason = "tool"
	StopError  StopReason = "error"
)

// ModelReply is the result of one provider call. Empty ToolInvocations means
// the model is done talking and Text is the final answer.
type ModelReply struct {
	Text            string           `json:"text,omitempty"`
	ToolInvocations []ToolInvocation `json:"tool_invocations,omitempty"`
	StopReason      StopReason       `json:"stop_reason"`
}

// -- Run Audit --

// Step is the audit record for one dispatched invocation. Read-only after
// creation; used for verbose reporting, never for control decisions.
type Step struct {
	StepNumber int            `json:"step_number"`
	ToolName   string         `json:"tool_name"`
	ToolArgs   map[string]any `json:"tool_args"`
	ToolResult string         `json:"tool_result"`
	Success    bool           `json:"success"`
}

// BudgetError is the AgentResult error marker for a run that hit the step
// budget without completing. Distinct from success so callers never mistake
// a cutoff for an answer.
const BudgetError = "max_steps_exceeded"

// AgentResult is the terminal value of a run, created once at loop exit.
type AgentResult struct {
	Result  string `json:"result"`
	Steps   []Step `json:"steps"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BudgetExhausted reports whether the run ended on the step budget rather
// than on completion or failure.
func (r *AgentResult) BudgetExhausted() bool {
	return !r.Success && r.Error == BudgetError
}
