package pipeline

import (
	"strings"

	"go-telemetry-pipeline/internal/model"
)

// Extract walks payload one path segment at a time. Every intermediate value
// must be a JSON object holding the next key; anything else, including an
// array, yields (nil, false). Extract never panics and never indexes arrays.
func Extract(payload any, path model.FieldPath) (any, bool) {
	if len(path) == 0 {
		return nil, false
	}
	current := payload
	for _, segment := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ParseFieldPath splits a dot-separated path such as "attitude.roll_deg".
func ParseFieldPath(s string) model.FieldPath {
	if s == "" {
		return nil
	}
	return model.FieldPath(strings.Split(s, "."))
}
