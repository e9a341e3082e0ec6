package pipeline

import (
	"fmt"
	"strings"

	"go-telemetry-pipeline/internal/model"
)

// ValidateDefinitions checks a set of signal definitions before a catalog is
// built from them. Any failure wraps ErrInvalidCatalog.
func ValidateDefinitions(defs []model.SignalDefinition) error {
	ids := make(map[string]bool, len(defs))
	outputs := make(map[string]string, len(defs))

	for i, d := range defs {
		if valid, err := validateDefinition(d); !valid {
			return fmt.Errorf("%w: signal #%d (%q): %v", ErrInvalidCatalog, i, d.ID, err)
		}
		if ids[d.ID] {
			return fmt.Errorf("%w: duplicate signal id %q", ErrInvalidCatalog, d.ID)
		}
		ids[d.ID] = true

		if other, ok := outputs[d.OutputName]; ok {
			return fmt.Errorf("%w: signals %q and %q both write %s", ErrInvalidCatalog, other, d.ID, d.FileName())
		}
		outputs[d.OutputName] = d.ID
	}
	return nil
}

// validateDefinition applies the per-signal rules.
func validateDefinition(d model.SignalDefinition) (bool, error) {
	if d.ID == "" {
		return false, fmt.Errorf("missing required field: id")
	}
	if d.MessageType == "" {
		return false, fmt.Errorf("missing required field: message_type")
	}
	if len(d.FieldPath) == 0 {
		return false, fmt.Errorf("empty field path")
	}
	for _, segment := range d.FieldPath {
		if segment == "" {
			return false, fmt.Errorf("field path %q has an empty segment", d.FieldPath.String())
		}
	}
	if d.OutputName == "" {
		return false, fmt.Errorf("missing required field: output_name")
	}
	if strings.ContainsAny(d.OutputName, `/\`) || d.OutputName == "." || d.OutputName == ".." {
		return false, fmt.Errorf("output name %q is not a plain file name", d.OutputName)
	}
	if d.TransformName != "" && d.Transform == nil {
		return false, fmt.Errorf("transform %q is not resolved", d.TransformName)
	}
	return true, nil
}
