package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDispatchListSkills(t *testing.T) {
	skills := &stubSkills{entries: map[string]string{
		"checkout": "# Checkout",
		"login":    "# Login",
	}}
	d := NewDispatcher(&recordingExecutor{}, skills, &stubWriter{}, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "list_skills", nil))
	assert.True(t, ok)
	assert.Equal(t, "checkout, login", out)
}

func TestDispatchListSkillsEmpty(t *testing.T) {
	d := NewDispatcher(&recordingExecutor{}, &stubSkills{}, &stubWriter{}, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "list_skills", nil))
	assert.True(t, ok)
	assert.Equal(t, "(no skills found)", out)
}

func TestDispatchReadSkill(t *testing.T) {
	skills := &stubSkills{entries: map[string]string{"login": "# Login steps"}}
	d := NewDispatcher(&recordingExecutor{}, skills, &stubWriter{}, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "read_skill", map[string]any{"name": "login"}))
	assert.True(t, ok)
	assert.Equal(t, "# Login steps", out)

	out, ok = d.Dispatch(context.Background(), toolCall("c2", "read_skill", map[string]any{"name": "nope"}))
	assert.True(t, ok, "unknown skill is an observation, not a failure")
	assert.Contains(t, out, `skill "nope" not found`)
}

func TestDispatchWriteTest(t *testing.T) {
	w := &stubWriter{}
	d := NewDispatcher(&recordingExecutor{}, &stubSkills{}, w, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "write_test", map[string]any{
		"filename": "login_test.py",
		"content":  "def test(): pass",
	}))
	assert.True(t, ok)
	assert.Contains(t, out, "Test written to ")
	assert.Equal(t, "login_test.py", w.lastName)
	assert.Equal(t, "def test(): pass", w.lastContent)
}

func TestDispatchForwardsToExecutor(t *testing.T) {
	exec := &recordingExecutor{outputs: map[string]string{"navigate": "Navigated"}}
	d := NewDispatcher(exec, &stubSkills{}, &stubWriter{}, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "navigate", map[string]any{"url": "x"}))
	assert.True(t, ok)
	assert.Equal(t, "Navigated", out)
	assert.Equal(t, []string{"navigate"}, exec.calls)
}

func TestDispatchWrapsErrors(t *testing.T) {
	exec := &recordingExecutor{failOn: map[string]error{"click": errors.New("nope")}}
	w := &stubWriter{err: errors.New("disk full")}
	d := NewDispatcher(exec, &stubSkills{}, w, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "click", map[string]any{"selector": "x"}))
	assert.False(t, ok)
	assert.Equal(t, "ERROR: nope", out)

	out, ok = d.Dispatch(context.Background(), toolCall("c2", "write_test", map[string]any{"filename": "f", "content": "c"}))
	assert.False(t, ok)
	assert.Equal(t, "ERROR: disk full", out)
}

func TestDispatchNoExecutorConfigured(t *testing.T) {
	d := NewDispatcher(nil, &stubSkills{}, &stubWriter{}, zap.NewNop())

	out, ok := d.Dispatch(context.Background(), toolCall("c1", "navigate", map[string]any{"url": "x"}))
	assert.False(t, ok)
	assert.Contains(t, out, "ERROR: no browser executor configured")
}
