package model

import "strings"

// FieldPath is an ordered list of map keys leading to a value inside a
// message payload, e.g. ["vessel_status", "current_gear"].
type FieldPath []string

// String returns the dot notation of the path.
func (p FieldPath) String() string {
	return strings.Join(p, ".")
}

// Transform maps an extracted value to the value stored in a series.
// Implementations must return nil for nil input and must not panic.
type Transform func(v any) any

// SignalDefinition describes one extractable telemetry quantity.
type SignalDefinition struct {
	ID            string    `json:"id" yaml:"id"`
	MessageType   string    `json:"message_type" yaml:"message_type"`
	FieldPath     FieldPath `json:"field_path" yaml:"field_path"`
	Transform     Transform `json:"-" yaml:"-"`
	TransformName string    `json:"transform,omitempty" yaml:"transform,omitempty"`
	OutputName    string    `json:"output_name" yaml:"output_name"`
}

// FileName is the CSV file the signal is exported to.
func (d SignalDefinition) FileName() string {
	return d.OutputName + ".csv"
}

// RawRecord is one decoded telemetry line: the discriminator tag found in the
// "msg" wrapper and the payload tree stored under it.
type RawRecord struct {
	Timestamp   Timestamp
	MessageType string
	Payload     any
}

// DataPoint is one observation of a signal. Value is never nil.
type DataPoint struct {
	Boat      string    `json:"boat"`
	Value     any       `json:"value"`
	Timestamp Timestamp `json:"timestamp"`
}

// Series holds the data points of one signal for one boat/day unit.
type Series []DataPoint
