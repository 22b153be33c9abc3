package app

import (
	"context"
	"time"

	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/errors"
	"featprep/internal/telemetry"
)

// StageReport records the shape of the table a stage handed on
type StageReport struct {
	Name       string `json:"name"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	DurationMs int64  `json:"duration_ms"`
}

// stageFunc transforms the current table into the next one
type stageFunc func(*table.Table) (*table.Table, error)

// StageRunner executes pipeline stages in order, timing each one. The
// context is checked before every stage; a running stage is never
// interrupted.
type StageRunner struct {
	log     *internal.Logger
	metrics *telemetry.Metrics // optional
	reports []StageReport
}

// NewStageRunner creates a new stage runner; metrics may be nil
func NewStageRunner(logger *internal.Logger, metrics *telemetry.Metrics) *StageRunner {
	return &StageRunner{log: internal.OrDefault(logger, "stages"), metrics: metrics}
}

// Run applies fn to tbl as the stage called name
func (r *StageRunner) Run(ctx context.Context, name string, tbl *table.Table, fn stageFunc) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(err, "pipeline cancelled before stage %s", name)
	}

	start := time.Now()
	r.log.Debug("stage %s starting with %d rows x %d columns", name, tbl.Rows(), tbl.Width())
	out, err := fn(tbl)
	if err != nil {
		r.log.Error("stage %s failed: %v", name, err)
		if r.metrics != nil {
			r.metrics.RecordStageFailure(name, errors.GetCode(err))
		}
		return nil, errors.Wrapf(err, "stage %s", name)
	}

	report := StageReport{
		Name:       name,
		Rows:       out.Rows(),
		Columns:    out.Width(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	r.reports = append(r.reports, report)
	if r.metrics != nil {
		r.metrics.ObserveStage(name, time.Since(start).Seconds(), report.Rows, report.Columns)
	}
	r.log.Info("stage %s done: %d rows x %d columns in %dms", name, report.Rows, report.Columns, report.DurationMs)
	return out, nil
}

// Reports returns the reports of the stages run so far
func (r *StageRunner) Reports() []StageReport {
	return append([]StageReport(nil), r.reports...)
}
