// Package telemetry provides OpenTelemetry integration for the codec and
// protocol layers: spans around session compress/decompress operations
// with customizable attributes, disabled by default.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Settings configures telemetry for core operations.
// Telemetry is disabled by default and must be explicitly enabled.
type Settings struct {
	// IsEnabled controls whether telemetry is active. Defaults to false.
	IsEnabled bool

	// RecordPayloads controls whether a session's negotiated capability
	// settings (encoding, streaming and security flags) are recorded as
	// span attributes. The operation and algorithm attributes are recorded
	// regardless. Defaults to true.
	RecordPayloads bool

	// FunctionID is an identifier for grouping telemetry data by
	// operation (e.g. a route name or session label).
	FunctionID string

	// Metadata contains additional key-value pairs to include in
	// telemetry spans.
	Metadata map[string]attribute.Value

	// Tracer is a custom OpenTelemetry tracer. If nil, the global tracer
	// is used.
	Tracer trace.Tracer
}

// DefaultSettings returns Settings with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		IsEnabled:      false,
		RecordPayloads: true,
		Metadata:       make(map[string]attribute.Value),
	}
}

// WithEnabled returns a copy of Settings with IsEnabled set to the given value.
func (s *Settings) WithEnabled(enabled bool) *Settings {
	copy := *s
	copy.IsEnabled = enabled
	return &copy
}

// WithRecordPayloads returns a copy of Settings with RecordPayloads set to
// the given value.
func (s *Settings) WithRecordPayloads(record bool) *Settings {
	copy := *s
	copy.RecordPayloads = record
	return &copy
}

// WithFunctionID returns a copy of Settings with FunctionID set to the
// given value.
func (s *Settings) WithFunctionID(id string) *Settings {
	copy := *s
	copy.FunctionID = id
	return &copy
}

// WithMetadata returns a copy of Settings with the given metadata merged in.
func (s *Settings) WithMetadata(metadata map[string]attribute.Value) *Settings {
	copy := *s
	copy.Metadata = make(map[string]attribute.Value)
	for k, v := range s.Metadata {
		copy.Metadata[k] = v
	}
	for k, v := range metadata {
		copy.Metadata[k] = v
	}
	return &copy
}

// WithTracer returns a copy of Settings with Tracer set to the given value.
func (s *Settings) WithTracer(tracer trace.Tracer) *Settings {
	copy := *s
	copy.Tracer = tracer
	return &copy
}
