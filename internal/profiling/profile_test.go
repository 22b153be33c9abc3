package profiling

import (
	"encoding/json"
	"math"
	"testing"

	"featprep/domain/table"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("load", []float64{1, 2, math.NaN(), 3, 100}),
		table.NewNumeric("flat", []float64{4, 4, 4, 4, 4}),
		table.NewCategorical("zone", []string{"a", "b", "", "a", "c"}),
	)
	require.NoError(t, err)

	profiles, err := Profile(tbl)
	require.NoError(t, err)
	require.Len(t, profiles, 3)

	load := profiles[0]
	assert.Equal(t, 1, load.Missing)
	assert.InDelta(t, 0.2, load.MissingFraction, 1e-12)
	require.NotNil(t, load.Summary)
	assert.Equal(t, 1.0, load.Summary.Min)
	assert.Equal(t, 100.0, load.Summary.Max)
	assert.Equal(t, 2.5, load.Summary.Median)
	assert.Positive(t, load.Summary.Skewness)
	assert.Equal(t, 1, load.Summary.Outliers)

	flat := profiles[1]
	assert.True(t, flat.Summary.Constant())
	assert.Zero(t, flat.Summary.Skewness)

	zone := profiles[2]
	assert.Nil(t, zone.Summary)
	assert.Equal(t, 3, zone.Levels)
}

func TestSummarize_Empty(t *testing.T) {
	s, err := Summarize(nil)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestProfile_FewValuesMarshal(t *testing.T) {
	tbl, err := table.New(table.NewNumeric("sparse", []float64{1, 2, math.NaN(), math.NaN()}))
	require.NoError(t, err)

	profiles, err := Profile(tbl)
	require.NoError(t, err)
	s := profiles[0].Summary
	require.NotNil(t, s)
	assert.Equal(t, 1.0, s.Q25)
	assert.Equal(t, 1.5, s.Q75)
	assert.Zero(t, s.Outliers)

	data, err := json.Marshal(profiles)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"q25":1`)

	single, err := Summarize(stats.Float64Data{7})
	require.NoError(t, err)
	assert.Equal(t, 7.0, single.Q25)
	assert.Equal(t, 7.0, single.Q75)
}
