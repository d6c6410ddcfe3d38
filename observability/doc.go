// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP trace and metric exporters as the global
// providers when enabled. Metrics holds the vidscribe instruments; a nil
// *Metrics is valid and records nothing, so components can run without
// telemetry in tests.
package observability
