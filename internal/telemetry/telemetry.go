// Package telemetry provides Prometheus instrumentation for pipeline runs.
//
// Metrics exposed:
//   - featprep_stage_duration_seconds: Histogram of stage durations by stage
//   - featprep_stage_rows: Gauge of rows handed on by the last run of each stage
//   - featprep_stage_columns: Gauge of columns handed on by the last run of each stage
//   - featprep_stage_failures_total: Counter of failed stages by stage and error code
//   - featprep_runs_total: Counter of finished runs by outcome
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline collectors registered on one registry
type Metrics struct {
	registry      *prometheus.Registry
	StageDuration *prometheus.HistogramVec
	StageRows     *prometheus.GaugeVec
	StageColumns  *prometheus.GaugeVec
	StageFailures *prometheus.CounterVec
	RunsTotal     *prometheus.CounterVec
}

// New registers the pipeline metrics on a private registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "featprep_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),

		StageRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "featprep_stage_rows",
			Help: "Rows in the table produced by the stage",
		}, []string{"stage"}),

		StageColumns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "featprep_stage_columns",
			Help: "Columns in the table produced by the stage",
		}, []string{"stage"}),

		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featprep_stage_failures_total",
			Help: "Total number of failed stages by error code",
		}, []string{"stage", "code"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "featprep_runs_total",
			Help: "Total number of pipeline runs by outcome",
		}, []string{"outcome"}),
	}
}

// Registry exposes the registry the metrics live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveStage records a finished stage and the shape of its output
func (m *Metrics) ObserveStage(stage string, seconds float64, rows, columns int) {
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
	m.StageRows.WithLabelValues(stage).Set(float64(rows))
	m.StageColumns.WithLabelValues(stage).Set(float64(columns))
}

// RecordStageFailure counts a failed stage under its error code
func (m *Metrics) RecordStageFailure(stage, code string) {
	m.StageFailures.WithLabelValues(stage, code).Inc()
}

// RecordRun counts a finished run as success or failure
func (m *Metrics) RecordRun(ok bool) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// for node_exporter's textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
