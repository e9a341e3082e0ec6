package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"go-telemetry-pipeline/internal/model"
)

// Catalog is the read-only set of signal definitions driving extraction.
// It is built once at startup and safe for concurrent use.
type Catalog struct {
	defs   []model.SignalDefinition
	byType map[string][]int
}

// NewCatalog validates defs and indexes them by message type. The
// definitions are copied; later changes to the argument do not leak in.
func NewCatalog(defs ...model.SignalDefinition) (*Catalog, error) {
	if err := ValidateDefinitions(defs); err != nil {
		return nil, err
	}

	c := &Catalog{
		defs:   make([]model.SignalDefinition, len(defs)),
		byType: make(map[string][]int),
	}
	for i, d := range defs {
		c.defs[i] = cloneDefinition(d)
		c.byType[d.MessageType] = append(c.byType[d.MessageType], i)
	}
	return c, nil
}

// Definitions returns deep copies of the definitions in catalog order.
func (c *Catalog) Definitions() []model.SignalDefinition {
	out := make([]model.SignalDefinition, len(c.defs))
	for i, d := range c.defs {
		out[i] = cloneDefinition(d)
	}
	return out
}

// ForMessageType returns the definitions reading from messageType, in
// catalog order.
func (c *Catalog) ForMessageType(messageType string) []model.SignalDefinition {
	idx := c.byType[messageType]
	if len(idx) == 0 {
		return nil
	}
	out := make([]model.SignalDefinition, len(idx))
	for i, j := range idx {
		out[i] = cloneDefinition(c.defs[j])
	}
	return out
}

func cloneDefinition(d model.SignalDefinition) model.SignalDefinition {
	d.FieldPath = slices.Clone(d.FieldPath)
	return d
}

// Len returns the number of signals.
func (c *Catalog) Len() int {
	return len(c.defs)
}

type catalogEntry struct {
	ID          string `json:"id" yaml:"id"`
	MessageType string `json:"message_type" yaml:"message_type"`
	Field       string `json:"field" yaml:"field"`
	Transform   string `json:"transform" yaml:"transform"`
	OutputName  string `json:"output_name" yaml:"output_name"`
}

type catalogFile struct {
	Signals []catalogEntry `json:"signals" yaml:"signals"`
}

// defaultCatalog lists the signals extracted from the boat telemetry logs.
var defaultCatalog = []catalogEntry{
	{ID: "VolvoFuelLevel", MessageType: "PentaEngineStatus", Field: "fuel_level.fuel_level1", OutputName: "fuel_level1"},
	{ID: "EngineFuelEconomy", MessageType: "PentaEngineStatus", Field: "fuel_econ.engine_fuel_rate", OutputName: "engine_fuel_rate"},
	{ID: "EngineHours", MessageType: "PentaEngineStatus", Field: "hours.engine_total_hours_of_operation", OutputName: "engine_total_hours_of_operation"},
	{ID: "EngineTemperatures", MessageType: "PentaEngineStatus", Field: "temps.engine_oil_temperature", OutputName: "engine_oil_temperature"},
	{ID: "PentaEngineStatus_oil_pressure", MessageType: "PentaEngineStatus", Field: "pressures.engine_oil_pressure", OutputName: "engine_oil_pressure"},
	{ID: "EngineSpeed", MessageType: "PentaEngineStatus", Field: "speed.engine_speed", OutputName: "engine_speed"},
	{ID: "SeaState", MessageType: "SeaState", Field: "instant_g_force", OutputName: "instant_g_force"},
	{ID: "Odometry", MessageType: "Odometry", Field: "odometer", OutputName: "odometer"},
	{ID: "PentaEngineStatus_gear", MessageType: "PentaEngineStatus", Field: "vessel_status.current_gear", Transform: TransformGearState, OutputName: "current_gear"},
	{ID: "VehicleCommand", MessageType: "VehicleCommand", Field: "throttle", OutputName: "throttle"},
	{ID: "VesselHeading", MessageType: "VesselHeading", Field: "heading", Transform: TransformRadiansToDegrees, OutputName: "heading"},
	{ID: "PentaEngineStatus_steering", MessageType: "PentaEngineStatus", Field: "vessel_status.current_steering_angle", OutputName: "current_steering_angle"},
	{ID: "Ahrs_roll", MessageType: "Ahrs", Field: "attitude.roll_deg", OutputName: "roll_deg"},
	{ID: "Ahrs_pitch", MessageType: "Ahrs", Field: "attitude.pitch_deg", OutputName: "pitch_deg"},
	{ID: "Ahrs_yaw", MessageType: "Ahrs", Field: "attitude.yaw_deg", OutputName: "yaw_deg"},
}

// DefaultCatalog returns the built-in catalog. It panics if the built-in
// table is invalid, which a unit test guards against.
func DefaultCatalog() *Catalog {
	c, err := catalogFromEntries(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a catalog file. .yaml and .yml files are YAML; anything
// else is JSON with comments and trailing commas allowed.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidCatalog, path, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalidCatalog, path, err)
		}
	}

	if len(file.Signals) == 0 {
		return nil, fmt.Errorf("%w: %s defines no signals", ErrInvalidCatalog, path)
	}
	return catalogFromEntries(file.Signals)
}

func catalogFromEntries(entries []catalogEntry) (*Catalog, error) {
	defs := make([]model.SignalDefinition, 0, len(entries))
	for _, e := range entries {
		t, err := LookupTransform(e.Transform)
		if err != nil {
			return nil, fmt.Errorf("%w: signal %q: %v", ErrInvalidCatalog, e.ID, err)
		}
		defs = append(defs, model.SignalDefinition{
			ID:            e.ID,
			MessageType:   e.MessageType,
			FieldPath:     ParseFieldPath(e.Field),
			Transform:     t,
			TransformName: e.Transform,
			OutputName:    e.OutputName,
		})
	}
	return NewCatalog(defs...)
}
