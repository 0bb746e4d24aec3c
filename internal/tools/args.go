// File: internal/tools/args.go
package tools

import (
	"encoding/json"
	"strconv"
)

// StringArg returns args[key] as a string, or fallback when absent or not a
// string.
func StringArg(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return fallback
}

// IntArg returns args[key] as an int, tolerating the numeric shapes models
// and JSON decoders produce (float64, json.Number, digit strings).
func IntArg(args map[string]any, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
