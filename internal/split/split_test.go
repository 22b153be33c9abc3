package split

import (
	"math"
	"testing"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTimeSeriesSplit(t *testing.T) {
	folds, err := TimeSeriesSplit(10, 3)
	require.NoError(t, err)
	assert.Equal(t, []Fold{
		{TrainEnd: 4, TestStart: 4, TestEnd: 6},
		{TrainEnd: 6, TestStart: 6, TestEnd: 8},
		{TrainEnd: 8, TestStart: 8, TestEnd: 10},
	}, folds)
	assert.Equal(t, "train [0, 4) test [4, 6)", folds[0].String())

	_, err = TimeSeriesSplit(10, 1)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = TimeSeriesSplit(3, 3)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	var s StandardScaler
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.Equal(t, []float64{2.5, 5}, s.Mean)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	assert.Equal(t, 1.0, s.Scale[1], "constant feature keeps unit scale")
	assert.InDelta(t, -1.5/math.Sqrt(1.25), out.At(0, 0), 1e-12)
	assert.Equal(t, 0.0, out.At(3, 1))

	_, err = s.Transform(mat.NewDense(1, 3, nil))
	assert.ErrorIs(t, err, errors.ErrConfiguration)

	var unfitted StandardScaler
	_, err = unfitted.Transform(X)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestTrainValidationSplit(t *testing.T) {
	tbl, err := table.New(
		table.NewNumeric("load", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}),
		table.NewCategorical("zone", []string{"a", "a", "a", "a", "a", "a", "a", "a", "a", "a"}),
		table.NewNumeric("price", []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 1000}),
	)
	require.NoError(t, err)

	ds, err := TrainValidationSplit(tbl, "price", 0.2)
	require.NoError(t, err)

	assert.Equal(t, []string{"load"}, ds.Features)
	r, c := ds.XTrain.Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 1, c)
	r, _ = ds.XVal.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, []float64{90, 1000}, ds.YVal)

	// the outlier in the validation rows does not influence the fit
	assert.Equal(t, 4.5, ds.Scaler.Mean[0])

	_, err = TrainValidationSplit(tbl, "price", 1)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = TrainValidationSplit(tbl, "zone", 0.2)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
