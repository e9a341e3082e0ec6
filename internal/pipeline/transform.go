package pipeline

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"go-telemetry-pipeline/internal/model"
	"go-telemetry-pipeline/pkg/utils"
)

// Built-in transform names usable from catalog files
const (
	TransformGearState        = "gear_state"
	TransformRadiansToDegrees = "radians_to_degrees"
)

var gearStates = map[int64]string{
	0:   "Neutral",
	1:   "Forward",
	2:   "Reverse",
	3:   "NotAvailable",
	255: "Unknown",
}

var transforms = map[string]model.Transform{
	TransformGearState:        GearState,
	TransformRadiansToDegrees: RadiansToDegrees,
}

// LookupTransform resolves a transform by name. The empty name resolves to
// nil (no transform).
func LookupTransform(name string) (model.Transform, error) {
	if name == "" {
		return nil, nil
	}
	t, ok := transforms[name]
	if !ok {
		return nil, fmt.Errorf("unknown transformation: %s (known: %s)", name, strings.Join(TransformNames(), ", "))
	}
	return t, nil
}

// TransformNames lists the registered transform names in sorted order.
func TransformNames() []string {
	names := make([]string, 0, len(transforms))
	for name := range transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GearState maps a transmission gear code to its label. Codes outside the
// table become "Unknown(<code>)".
func GearState(v any) any {
	if v == nil {
		return nil
	}
	code, ok := utils.Integer(v)
	if !ok {
		return fmt.Sprintf("Unknown(%s)", utils.FormatValue(v))
	}
	if label, ok := gearStates[code]; ok {
		return label
	}
	return fmt.Sprintf("Unknown(%d)", code)
}

// RadiansToDegrees converts a numeric angle. Non-numeric input becomes
// "Invalid(<value>)".
func RadiansToDegrees(v any) any {
	if v == nil {
		return nil
	}
	rad, ok := utils.Numeric(v)
	if !ok {
		return fmt.Sprintf("Invalid(%s)", utils.FormatValue(v))
	}
	return rad * 180 / math.Pi
}

// applyTransform runs t on v, treating a nil transform as identity.
func applyTransform(t model.Transform, v any) any {
	if t == nil || v == nil {
		return v
	}
	return t(v)
}
