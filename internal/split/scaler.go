package split

import (
	"featprep/internal/errors"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// StandardScaler centres each feature on its training mean and divides by
// the training population standard deviation. Constant features get a scale
// of 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fitted reports whether Fit has run
func (s *StandardScaler) Fitted() bool { return s.Mean != nil }

// Fit learns per-column mean and scale from X
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.ConfigurationError("cannot fit scaler on an empty matrix")
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		col := stats.Float64Data(mat.Col(nil, j, X))
		mean, err := stats.Mean(col)
		if err != nil {
			return errors.Wrapf(err, "scaler mean of feature %d", j)
		}
		std, err := stats.StandardDeviationPopulation(col)
		if err != nil {
			return errors.Wrapf(err, "scaler std of feature %d", j)
		}
		if std == 0 {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

// Transform returns a scaled copy of X
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.Fitted() {
		return nil, errors.ConfigurationError("scaler is not fitted")
	}
	r, c := X.Dims()
	if c != len(s.Mean) {
		return nil, errors.ConfigurationError("scaler fitted on %d features, got %d", len(s.Mean), c)
	}
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// FitTransform fits on X and returns X scaled
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
