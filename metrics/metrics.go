// Package metrics provides the ambient Prometheus instrumentation for
// the connector substrate: rows produced, bytes written by the
// result-set producer, and parameter binds applied by the prepared-
// query writer. None of this is required by the wire protocol.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RowsProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "connector",
		Subsystem: "resultset",
		Name:      "rows_produced_total",
		Help:      "Rows advanced past by a result-set producer's cursor.",
	})

	BytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "connector",
		Subsystem: "resultset",
		Name:      "bytes_written_total",
		Help:      "Bytes encoded into caller buffers by a result-set producer.",
	})

	ParamsBound = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "connector",
		Subsystem: "preparedquery",
		Name:      "params_bound_total",
		Help:      "Parameters successfully bound by a prepared-query writer.",
	})

	BatchesAdded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "connector",
		Subsystem: "preparedquery",
		Name:      "batches_added_total",
		Help:      "add_batch calls staged by a prepared-query writer.",
	})
)

func init() {
	prometheus.MustRegister(RowsProduced, BytesWritten, ParamsBound, BatchesAdded)
}
