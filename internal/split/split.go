// Package split cuts a prepared table into chronological training and
// validation parts without leaking future rows into training.
package split

import (
	"fmt"
	"math"

	"featprep/domain/table"
	"featprep/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// Fold is one expanding-window split. Train covers rows [0, TrainEnd) and
// Test covers [TestStart, TestEnd).
type Fold struct {
	TrainEnd  int
	TestStart int
	TestEnd   int
}

func (f Fold) String() string {
	return fmt.Sprintf("train [0, %d) test [%d, %d)", f.TrainEnd, f.TestStart, f.TestEnd)
}

// TimeSeriesSplit returns k folds over n rows. Every fold tests n/(k+1)
// rows and trains on everything before them; leftover rows go to the first
// fold's training part.
func TimeSeriesSplit(n, k int) ([]Fold, error) {
	if k < 2 {
		return nil, errors.ConfigurationError("number of splits must be at least 2, got %d", k)
	}
	if k+1 > n {
		return nil, errors.ConfigurationError("cannot make %d splits from %d rows", k, n)
	}
	testSize := n / (k + 1)
	folds := make([]Fold, k)
	for i := range folds {
		start := n - k*testSize + i*testSize
		folds[i] = Fold{TrainEnd: start, TestStart: start, TestEnd: start + testSize}
	}
	return folds, nil
}

// Dataset is a scaled chronological train/validation pair
type Dataset struct {
	Features []string
	XTrain   *mat.Dense
	XVal     *mat.Dense
	YTrain   []float64
	YVal     []float64
	Scaler   *StandardScaler
}

// TrainValidationSplit cuts tbl at int(n*(1-testFraction)). Features are the
// numeric non-target columns, scaled with a scaler fitted on the training
// rows only.
func TrainValidationSplit(tbl *table.Table, target string, testFraction float64) (*Dataset, error) {
	if testFraction <= 0 || testFraction >= 1 || math.IsNaN(testFraction) {
		return nil, errors.ConfigurationError("test fraction must be within (0, 1), got %g", testFraction)
	}
	tc, ok := tbl.Column(target)
	if !ok {
		return nil, errors.ConfigurationError("target column %q not found", target)
	}
	if tc.Kind() != table.KindNumeric {
		return nil, errors.ConfigurationError("target column %q is %s, want numeric", target, tc.Kind())
	}

	n := tbl.Rows()
	cut := int(float64(n) * (1 - testFraction))
	if cut == 0 || cut == n {
		return nil, errors.ConfigurationError("test fraction %g leaves an empty part of %d rows", testFraction, n)
	}

	var features []*table.Column
	for _, c := range tbl.Columns() {
		if c.Kind() == table.KindNumeric && c.Name() != target {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, errors.ConfigurationError("no numeric feature columns besides %q", target)
	}

	X := mat.NewDense(n, len(features), nil)
	names := make([]string, len(features))
	for j, c := range features {
		names[j] = c.Name()
		X.SetCol(j, c.Floats())
	}

	rawTrain := X.Slice(0, cut, 0, len(features))
	rawVal := X.Slice(cut, n, 0, len(features))

	scaler := &StandardScaler{}
	xTrain, err := scaler.FitTransform(rawTrain)
	if err != nil {
		return nil, err
	}
	xVal, err := scaler.Transform(rawVal)
	if err != nil {
		return nil, err
	}

	y := tc.Floats()
	return &Dataset{
		Features: names,
		XTrain:   xTrain,
		XVal:     xVal,
		YTrain:   y[:cut],
		YVal:     y[cut:],
		Scaler:   scaler,
	}, nil
}
