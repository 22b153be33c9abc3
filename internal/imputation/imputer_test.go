package imputation

import (
	"math"
	"testing"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func mustTable(t *testing.T, cols ...*table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func TestFillForwardBackward(t *testing.T) {
	in := mustTable(t,
		table.NewNumeric("load", []float64{nan, 1, nan, nan, 4, nan}),
		table.NewCategorical("zone", []string{"", "a", "", "b", "", ""}),
	)

	out, err := FillForwardBackward(in)
	require.NoError(t, err)

	load, _ := out.Column("load")
	assert.Equal(t, []float64{1, 1, 1, 1, 4, 4}, load.Floats())
	zone, _ := out.Column("zone")
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "b"}, zone.Strings())

	orig, _ := in.Column("load")
	assert.True(t, math.IsNaN(orig.Float(0)), "input must stay untouched")
}

func TestFillMedianAndMean(t *testing.T) {
	in := mustTable(t,
		table.NewNumeric("a", []float64{1, nan, 3, 10}),
		table.NewNumeric("empty", []float64{nan, nan, nan, nan}),
	)

	med, err := FillMedian(in, []string{"a", "empty"})
	require.NoError(t, err)
	a, _ := med.Column("a")
	assert.Equal(t, []float64{1, 3, 3, 10}, a.Floats())

	empty, _ := med.Column("empty")
	assert.Equal(t, 4, empty.MissingCount(), "median of nothing stays missing")

	mean, err := FillMean(in, []string{"a"})
	require.NoError(t, err)
	a, _ = mean.Column("a")
	assert.Equal(t, []float64{1, 14.0 / 3, 3, 10}, a.Floats())

	_, err = FillMedian(in, []string{"nope"})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestMode(t *testing.T) {
	m, ok := Mode([]string{"b", "a", "", "b", "a"})
	assert.True(t, ok)
	assert.Equal(t, "a", m, "ties resolve to the smallest value")

	m, ok = Mode([]string{"x", "y", "y"})
	assert.True(t, ok)
	assert.Equal(t, "y", m)

	_, ok = Mode([]string{"", ""})
	assert.False(t, ok)
}

func TestImpute_NumericColumnsEndDense(t *testing.T) {
	in := mustTable(t,
		table.NewNumeric("price_actual", []float64{50, nan, 52, 53}),
		table.NewNumeric("load", []float64{nan, 2, nan, 4}),
		table.NewNumeric("dead", []float64{nan, nan, nan, nan}),
		table.NewCategorical("zone", []string{"a", "", "", "b"}),
		table.NewCategorical("unknown", []string{"", "", "", ""}),
	)

	out, err := NewImputer(nil).Impute(in, "price_actual", 0.5)
	require.NoError(t, err)

	assert.False(t, out.Has("dead"), "all-missing numeric column is removed")
	for _, name := range out.NamesOfKind(table.KindNumeric) {
		c, _ := out.Column(name)
		assert.Zero(t, c.MissingCount(), name)
	}

	unknown, ok := out.Column("unknown")
	require.True(t, ok, "all-missing categorical column passes through")
	assert.Equal(t, 4, unknown.MissingCount())
	assert.Equal(t, 4, out.Rows())
}

func TestDropSparseRows(t *testing.T) {
	in := mustTable(t,
		table.NewNumeric("price_actual", []float64{1, 2, 3}),
		table.NewCategorical("a", []string{"x", "x", ""}),
		table.NewCategorical("b", []string{"x", "", ""}),
		table.NewCategorical("c", []string{"x", "", ""}),
		table.NewCategorical("d", []string{"x", "x", "x"}),
	)

	// 4 non-target columns: ceil(0.5*4)=2 present cells required
	out := DropSparseRows(in, "price_actual", 0.5, 4)
	price, _ := out.Column("price_actual")
	assert.Equal(t, []float64{1, 2}, price.Floats())

	// 5 columns counted: ceil(2.5)=3, so a row with two present is dropped
	out = DropSparseRows(in, "price_actual", 0.5, 5)
	price, _ = out.Column("price_actual")
	assert.Equal(t, []float64{1}, price.Floats())

	assert.Same(t, in, DropSparseRows(in, "price_actual", 0, 4))
}

func TestImpute_RejectsBadThreshold(t *testing.T) {
	in := mustTable(t, table.NewNumeric("x", []float64{1}))
	_, err := NewImputer(nil).Impute(in, "x", 1.2)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestImpute_PreservedColumnsAreNotFilled(t *testing.T) {
	in := mustTable(t,
		table.NewCategorical("time", []string{"2024-01-01 00:00:00", "", "2024-01-01 02:00:00", ""}),
		table.NewNumeric("stamp", []float64{100, nan, 300, 400}),
		table.NewNumeric("load", []float64{1, nan, 3, 4}),
		table.NewNumeric("price_actual", []float64{1, 2, 3, 4}),
	)

	out, err := NewImputer(nil).Preserve("time", "stamp").Impute(in, "price_actual", 0.3)
	require.NoError(t, err)
	require.Equal(t, 4, out.Rows())

	ts, _ := out.Column("time")
	assert.True(t, ts.IsMissing(1))
	assert.True(t, ts.IsMissing(3))

	stamp, ok := out.Column("stamp")
	require.True(t, ok)
	assert.True(t, stamp.IsMissing(1))

	load, _ := out.Column("load")
	assert.Equal(t, []float64{1, 1, 3, 4}, load.Floats())
}
