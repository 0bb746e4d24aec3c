// File: internal/tools/validate.go
package tools

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/webpilot-ai/webpilot/api/schemas"
)

// ValidationKind classifies why an invocation was rejected.
type ValidationKind string

const (
	KindUnknownTool     ValidationKind = "unknown_tool"
	KindMissingArgument ValidationKind = "missing_argument"
)

// ValidationError describes a rejected invocation. It never propagates as a
// process failure: the loop folds Error() into a tool-result turn so the
// model can self-correct.
type ValidationError struct {
	Kind  ValidationKind
	Tool  string
	Field string
	msg   string
}

func (e *ValidationError) Error() string { return e.msg }

// Validate checks a proposed invocation against the catalog. Rules, in
// order: the name must exist; every required parameter must be present and
// type-compatible, reported in declaration order; unknown extra arguments
// pass through untouched so older prompts survive schema additions.
func Validate(name string, args map[string]any) *ValidationError {
	schema, ok := byName[name]
	if !ok {
		return &ValidationError{
			Kind: KindUnknownTool,
			Tool: name,
			msg:  fmt.Sprintf("unknown tool %q", name),
		}
	}

	for _, p := range schema.Parameters {
		if !p.Required {
			continue
		}
		val, present := args[p.Name]
		if !present {
			return &ValidationError{
				Kind:  KindMissingArgument,
				Tool:  name,
				Field: p.Name,
				msg:   fmt.Sprintf("missing required argument %q for tool %q", p.Name, name),
			}
		}
		if !typeCompatible(p.Type, val) {
			return &ValidationError{
				Kind:  KindMissingArgument,
				Tool:  name,
				Field: p.Name,
				msg:   fmt.Sprintf("argument %q for tool %q must be of type %s", p.Name, name, p.Type),
			}
		}
	}
	return nil
}

// typeCompatible accepts the representations JSON decoding actually
// produces: numbers arrive as float64 or json.Number, so an integer
// parameter tolerates a float64 with no fractional part.
func typeCompatible(t schemas.ParamType, val any) bool {
	if val == nil {
		return false
	}
	switch t {
	case schemas.TypeString:
		_, ok := val.(string)
		return ok
	case schemas.TypeBoolean:
		_, ok := val.(bool)
		return ok
	case schemas.TypeInteger:
		return isInteger(val)
	case schemas.TypeNumber:
		return isNumber(val)
	case schemas.TypeObject:
		_, ok := val.(map[string]any)
		return ok
	case schemas.TypeArray:
		_, ok := val.([]any)
		return ok
	default:
		return true
	}
}

func isInteger(val any) bool {
	switch v := val.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == math.Trunc(v)
	case json.Number:
		_, err := v.Int64()
		return err == nil
	default:
		return false
	}
}

func isNumber(val any) bool {
	switch v := val.(type) {
	case int, int32, int64, float32, float64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	default:
		return false
	}
}
