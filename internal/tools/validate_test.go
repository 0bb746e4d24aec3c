package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUnknownTool(t *testing.T) {
	err := Validate("teleport", map[string]any{"destination": "mars"})
	require.NotNil(t, err)
	assert.Equal(t, KindUnknownTool, err.Kind)
	assert.Equal(t, "teleport", err.Tool)
	assert.Equal(t, `unknown tool "teleport"`, err.Error())
}

func TestValidateMissingArgument(t *testing.T) {
	cases := []struct {
		name      string
		tool      string
		args      map[string]any
		wantField string
	}{
		{"click without selector", "click", map[string]any{}, "selector"},
		{"navigate without url", "navigate", nil, "url"},
		{"type without text", "type", map[string]any{"selector": "#user"}, "text"},
		{"done without result", "done", map[string]any{}, "result"},
		// Both required fields absent: the first in declaration order wins.
		{"type without anything", "type", map[string]any{}, "selector"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.tool, tc.args)
			require.NotNil(t, err)
			assert.Equal(t, KindMissingArgument, err.Kind)
			assert.Equal(t, tc.wantField, err.Field)
			assert.Contains(t, err.Error(), tc.wantField)
			assert.Contains(t, err.Error(), tc.tool)
		})
	}
}

func TestValidateTypeCompatibility(t *testing.T) {
	// A present but mistyped required value reports like a missing one.
	err := Validate("click", map[string]any{"selector": 42})
	require.NotNil(t, err)
	assert.Equal(t, KindMissingArgument, err.Kind)
	assert.Equal(t, "selector", err.Field)

	// Integer params accept what JSON decoding actually produces.
	assert.Nil(t, Validate("scroll", map[string]any{"direction": "down", "amount": float64(500)}))
	assert.Nil(t, Validate("scroll", map[string]any{"direction": "down", "amount": json.Number("250")}))
	assert.Nil(t, Validate("wait_for", map[string]any{"selector": "#app", "timeout": 5000}))
}

func TestValidateExtrasPassThrough(t *testing.T) {
	// Unknown argument names are forward-compatible, never rejected.
	assert.Nil(t, Validate("navigate", map[string]any{
		"url":         "https://example.com",
		"new_tab":     true,
		"retry_count": 3,
	}))
}

func TestValidateOptionalAbsent(t *testing.T) {
	assert.Nil(t, Validate("scroll", map[string]any{"direction": "up"}))
	assert.Nil(t, Validate("get_html", map[string]any{}))
	assert.Nil(t, Validate("screenshot", nil))
}

func TestValidateIsPure(t *testing.T) {
	args := map[string]any{"selector": "#login"}
	first := Validate("click", args)
	second := Validate("click", args)
	assert.Nil(t, first)
	assert.Nil(t, second)

	bad := map[string]any{}
	e1 := Validate("click", bad)
	e2 := Validate("click", bad)
	require.NotNil(t, e1)
	require.NotNil(t, e2)
	assert.Equal(t, e1.Error(), e2.Error())
	// Validation must not mutate its input.
	assert.Empty(t, bad)
}

func TestCatalogOrderStable(t *testing.T) {
	first := Schemas()
	second := Schemas()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Name, second[i].Name)
	}

	// The completion signal is part of the catalog.
	_, ok := Lookup(ToolDone)
	assert.True(t, ok)

	// Mutating a returned slice must not poison the catalog.
	first[0].Name = "mangled"
	again := Schemas()
	assert.Equal(t, "navigate", again[0].Name)
}

func TestArgHelpers(t *testing.T) {
	args := map[string]any{
		"amount":  float64(750),
		"timeout": json.Number("2000"),
		"count":   "12",
		"name":    "checkout",
	}

	assert.Equal(t, 750, IntArg(args, "amount", 500))
	assert.Equal(t, 2000, IntArg(args, "timeout", 10000))
	assert.Equal(t, 12, IntArg(args, "count", 0))
	assert.Equal(t, 500, IntArg(args, "missing", 500))
	assert.Equal(t, "checkout", StringArg(args, "name", ""))
	assert.Equal(t, "fallback", StringArg(args, "missing", "fallback"))
	assert.Equal(t, "fallback", StringArg(args, "amount", "fallback"))
}
