// Package otel mirrors engine metrics into an OpenTelemetry meter.
//
// [NewOTelExporter] creates one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per submit latency bucket, all fed by a single
// callback over [mojito.Engine.MetricsSnapshot]. Instrument names match the
// Prometheus exporter.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
