// Package metrics scores forecasts against actual values.
package metrics

import (
	"math"

	"featprep/internal/errors"

	"github.com/montanaflynn/stats"
)

// Report bundles the standard regression errors of one forecast
type Report struct {
	MAE  float64
	RMSE float64
	MAPE float64
}

// Evaluate computes MAE, RMSE and MAPE in one call
func Evaluate(actual, predicted []float64) (Report, error) {
	mae, err := MAE(actual, predicted)
	if err != nil {
		return Report{}, err
	}
	rmse, err := RMSE(actual, predicted)
	if err != nil {
		return Report{}, err
	}
	mape, err := MAPE(actual, predicted)
	if err != nil {
		return Report{}, err
	}
	return Report{MAE: mae, RMSE: rmse, MAPE: mape}, nil
}

// MAE is the mean absolute error
func MAE(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	abs := make(stats.Float64Data, len(actual))
	for i := range actual {
		abs[i] = math.Abs(actual[i] - predicted[i])
	}
	return abs.Mean()
}

// RMSE is the root mean squared error
func RMSE(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	sq := make(stats.Float64Data, len(actual))
	for i := range actual {
		d := actual[i] - predicted[i]
		sq[i] = d * d
	}
	mse, err := sq.Mean()
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAPE is the mean absolute percentage error, in percent. Rows whose actual
// value is zero are skipped; NaN when every actual is zero.
func MAPE(actual, predicted []float64) (float64, error) {
	if err := check(actual, predicted); err != nil {
		return 0, err
	}
	var pct stats.Float64Data
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		pct = append(pct, math.Abs((actual[i]-predicted[i])/actual[i]))
	}
	if len(pct) == 0 {
		return math.NaN(), nil
	}
	m, err := pct.Mean()
	if err != nil {
		return 0, err
	}
	return m * 100, nil
}

func check(actual, predicted []float64) error {
	if len(actual) == 0 {
		return errors.ConfigurationError("cannot score an empty forecast")
	}
	if len(actual) != len(predicted) {
		return errors.ConfigurationError("length mismatch: %d actual, %d predicted", len(actual), len(predicted))
	}
	return nil
}
