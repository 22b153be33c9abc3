package selection

import (
	"math"
	"testing"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func rankingTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewNumeric("price", []float64{1, 2, 3, 4, 5, 6}),
		table.NewNumeric("flat", []float64{7, 7, 7, 7, 7, 7}),
		table.NewNumeric("noisy", []float64{2, 1, 4, 3, 6, 5}),
		table.NewNumeric("inverse", []float64{-1, -2, -3, -4, -5, -6}),
		table.NewNumeric("twin", []float64{10, 20, 30, 40, 50, 60}),
		table.NewCategorical("zone", []string{"a", "b", "a", "b", "a", "b"}),
	)
	require.NoError(t, err)
	return tbl
}

func TestRank_OrdersByAbsoluteCorrelation(t *testing.T) {
	entries, err := NewRanker(1, nil).Rank(rankingTable(t), "price")
	require.NoError(t, err)

	// perfect ties keep table order, the constant column sinks to the end
	assert.Equal(t, []string{"inverse", "twin", "noisy", "flat"}, Names(entries))
	assert.InDelta(t, 1, entries[0].Score, 1e-12)
	assert.InDelta(t, 1, entries[1].Score, 1e-12)
	assert.Less(t, entries[2].Score, 1.0)
	assert.False(t, entries[3].Defined())
}

func TestRankByCorrelation_TopNAndZeroVariance(t *testing.T) {
	r := NewRanker(4, nil)

	top, err := r.RankByCorrelation(rankingTable(t), "price", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"inverse", "twin"}, Names(top))

	// Ranking undefined correlations last would let them pad a short list
	// when top-n exceeds the candidates; excluding zero-variance columns
	// outright takes precedence, so the list stays short instead.
	all, err := r.RankByCorrelation(rankingTable(t), "price", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"inverse", "twin", "noisy"}, Names(all), "constant column is never selected")
	assert.NotContains(t, Names(all), "price")
}

func TestRank_Deterministic(t *testing.T) {
	tbl := rankingTable(t)
	first, err := NewRanker(1, nil).Rank(tbl, "price")
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := NewRanker(8, nil).Rank(tbl, "price")
		require.NoError(t, err)
		assert.Equal(t, Names(first), Names(again))
	}
}

func TestRank_TargetErrors(t *testing.T) {
	r := NewRanker(1, nil)
	_, err := r.Rank(rankingTable(t), "missing")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = r.Rank(rankingTable(t), "zone")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = r.RankByCorrelation(rankingTable(t), "price", 0)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestPairwiseCorrelation(t *testing.T) {
	// only rows 0, 2, 3, 5 are present on both sides
	x := []float64{1, nan, 2, 3, 9, 4}
	y := []float64{2, 5, 4, 6, nan, 8}
	assert.InDelta(t, 1, PairwiseCorrelation(x, y), 1e-12)

	assert.True(t, math.IsNaN(PairwiseCorrelation([]float64{1, nan}, []float64{nan, 1})))
	assert.True(t, math.IsNaN(PairwiseCorrelation([]float64{3, 3, 3}, []float64{1, 2, 3})))
}

func TestSelect(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("a", []float64{nan, 1, 2, 3}),
		table.NewNumeric("b", []float64{1, 1, nan, 1}),
		table.NewNumeric("hour", []float64{0, 1, 2, 3}),
		table.NewNumeric("price", []float64{5, 6, 7, 8}),
		table.NewNumeric("unused", []float64{nan, nan, nan, nan}),
	)
	require.NoError(t, err)

	out, err := Select(tbl, []string{"a", "hour", "price"}, []string{"hour"}, "price")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "hour", "price"}, out.Names())
	assert.Zero(t, out.MissingCells())

	price, _ := out.Column("price")
	assert.Equal(t, []float64{6, 7, 8}, price.Floats())
}

func TestSelect_Errors(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("a", []float64{1, 2}),
		table.NewNumeric("price", []float64{1, 2}),
	)
	require.NoError(t, err)

	_, err = Select(tbl, []string{"a"}, []string{"hour"}, "price")
	assert.ErrorIs(t, err, errors.ErrMissingColumn)

	_, err = Select(tbl, []string{"a"}, nil, "target")
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
