package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// scriptedProvider returns canned replies in order and records every
// history snapshot it was called with.
type scriptedProvider struct {
	mu        sync.Mutex
	replies   []*schemas.ModelReply
	errs      []error
	histories [][]schemas.Message
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(ctx context.Context, history []schemas.Message, tools []schemas.ToolSchema) (*schemas.ModelReply, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	snapshot := make([]schemas.Message, len(history))
	copy(snapshot, history)
	p.histories = append(p.histories, snapshot)

	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return &schemas.ModelReply{Text: "out of script", StopReason: schemas.StopNormal}, nil
}

// recordingExecutor logs Execute calls and replies from a canned table.
type recordingExecutor struct {
	outputs map[string]string
	failOn  map[string]error
	calls   []string
}

func (e *recordingExecutor) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	e.calls = append(e.calls, name)
	if err, ok := e.failOn[name]; ok {
		return "", err
	}
	if out, ok := e.outputs[name]; ok {
		return out, nil
	}
	return fmt.Sprintf("executed %s", name), nil
}

// stubSkills is an in-memory skill library.
type stubSkills struct {
	entries map[string]string
}

func (s *stubSkills) List() ([]string, error) {
	var names []string
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *stubSkills) Read(name string) (string, error) {
	if body, ok := s.entries[name]; ok {
		return body, nil
	}
	return fmt.Sprintf("skill %q not found. Available: %v", name, s.mustList()), nil
}

func (s *stubSkills) IndexHint() string {
	if len(s.entries) == 0 {
		return ""
	}
	return "Available skills: stubbed"
}

func (s *stubSkills) mustList() []string {
	names, _ := s.List()
	return names
}

// stubWriter records WriteTest calls.
type stubWriter struct {
	lastName    string
	lastContent string
	err         error
}

func (w *stubWriter) WriteTest(filename, content string) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.lastName = filename
	w.lastContent = content
	return "Test written to /tmp/out/" + filename, nil
}

func toolCall(id, name string, args map[string]any) schemas.ToolInvocation {
	if args == nil {
		args = map[string]any{}
	}
	return schemas.ToolInvocation{ID: id, Name: name, Arguments: args}
}

func toolReply(invs ...schemas.ToolInvocation) *schemas.ModelReply {
	return &schemas.ModelReply{ToolInvocations: invs, StopReason: schemas.StopTool}
}
