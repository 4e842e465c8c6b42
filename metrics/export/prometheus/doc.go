// Package prometheus exposes engine metrics through client_golang.
//
// [PrometheusExporter] is a prometheus.Collector: register it with your own
// registry, or mount [PrometheusExporter.Handler], which serves it from a
// private registry. Counter names are mojito_*_total; the single histogram is
// mojito_submit_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry.
//   - Mutate engine state.
package prometheus
