// Package metrics exposes Prometheus instrumentation for the gateway and the
// swarm exporter.
//
// ActivationMetrics counts activation outcomes per service and trust tier and
// records how long scale commands take. SwarmCollector reads cluster state
// through an interfaces.ClusterInspector on every scrape and reports node
// roles and service replica counts. MetricsServer serves a registry over HTTP
// on its own listener.
package metrics
