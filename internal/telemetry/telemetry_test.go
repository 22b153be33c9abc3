package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	m := New()

	m.ObserveStage("lag", 0.02, 76, 40)
	m.ObserveStage("lag", 0.03, 70, 41)
	m.RecordStageFailure("time", "DATE_PARSE_ERROR")
	m.RecordRun(true)
	m.RecordRun(false)
	m.RecordRun(false)

	assert.Equal(t, 70.0, testutil.ToFloat64(m.StageRows.WithLabelValues("lag")))
	assert.Equal(t, 41.0, testutil.ToFloat64(m.StageColumns.WithLabelValues("lag")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailures.WithLabelValues("time", "DATE_PARSE_ERROR")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failure")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StageDuration))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.ObserveStage("impute", 0.01, 100, 9)

	path := filepath.Join(t.TempDir(), "featprep.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `featprep_stage_rows{stage="impute"} 100`)
}
