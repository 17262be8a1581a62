package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile dumps every metric of the run to path in the Prometheus text
// exposition format, for pickup by a node_exporter textfile collector. The
// file is written atomically.
func (m *Metrics) WriteTextfile(path string) error {
	m.ObserveRunDuration()
	return prometheus.WriteToTextfile(path, m.registry)
}
