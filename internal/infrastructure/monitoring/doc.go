// Package monitoring provides Prometheus metrics for a pipeline run.
//
// Every run owns a dedicated registry. There is no HTTP listener: when
// PIPECHAIN_METRICS_FILE is set the registry is written once, at exit, in the
// textfile exposition format.
//
// Metrics Categories:
//   - Relay: bytes in/out and buffer fill per stage
//   - Multiplexer: readiness wakeups and signal interruptions
//   - Lifecycle: workers spawned, stages retired, errors by kind, run duration
//
// Example Usage:
//
//	metrics := monitoring.NewMetrics()
//	metrics.RecordRead(0, n)
//	defer metrics.WriteTextfile("/var/lib/node_exporter/pipechain.prom")
package monitoring
