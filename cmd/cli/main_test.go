package main

import (
	"testing"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistenceBaseline(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("price_actual_lag_1", []float64{10, 12, 11, 15}),
		table.NewNumeric("price_actual", []float64{12, 11, 15, 15}),
	)
	require.NoError(t, err)

	r, err := persistenceBaseline(tbl, "price_actual", 1)
	require.NoError(t, err)
	assert.InDelta(t, (2+1+4+0)/4.0, r.MAE, 1e-12)

	tail, err := persistenceBaseline(tbl, "price_actual", 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, tail.MAE, 1e-12)

	_, err = persistenceBaseline(tbl.Without("price_actual_lag_1"), "price_actual", 1)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestResolveConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("FEATPREP_TOP_N", "10")
	t.Setenv("FEATPREP_LAGS", "1,2")

	var pf pipelineFlags
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().IntVar(&pf.topN, "top-n", 0, "")
	cmd.Flags().StringVar(&pf.lags, "lags", "", "")
	cmd.Flags().StringVar(&pf.windows, "windows", "", "")
	require.NoError(t, cmd.ParseFlags([]string{"--top-n", "7", "--windows", "4,8"}))

	cfg, err := resolveConfig(cmd, &pf)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.TopN)
	assert.Equal(t, []int{1, 2}, cfg.Lags, "unset flag keeps the environment value")
	assert.Equal(t, []int{4, 8}, cfg.Windows)

	require.NoError(t, cmd.ParseFlags([]string{"--windows", "0"}))
	_, err = resolveConfig(cmd, &pf)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
