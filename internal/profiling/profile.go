// Package profiling summarises the columns of a table: missingness for every
// kind, distribution shape for numeric columns and level counts for
// categorical ones.
package profiling

import (
	"math"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/montanaflynn/stats"
)

// ColumnProfile describes one column
type ColumnProfile struct {
	Name            string     `json:"name"`
	Kind            table.Kind `json:"kind"`
	Missing         int        `json:"missing"`
	MissingFraction float64    `json:"missing_fraction"`
	Levels          int        `json:"levels,omitempty"` // distinct present values, categorical only
	Summary         *Summary   `json:"summary,omitempty"`
}

// Summary holds distribution statistics of a numeric column's present values
type Summary struct {
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
	Outliers int     `json:"outliers"`
}

// Constant reports whether every present value is the same
func (s *Summary) Constant() bool { return s.Min == s.Max }

// Profile summarises every column of tbl in table order
func Profile(tbl *table.Table) ([]ColumnProfile, error) {
	out := make([]ColumnProfile, 0, tbl.Width())
	for _, c := range tbl.Columns() {
		p := ColumnProfile{
			Name:    c.Name(),
			Kind:    c.Kind(),
			Missing: c.MissingCount(),
		}
		if c.Len() > 0 {
			p.MissingFraction = float64(p.Missing) / float64(c.Len())
		}
		switch c.Kind() {
		case table.KindNumeric:
			summary, err := Summarize(present(c))
			if err != nil {
				return nil, errors.Wrapf(err, "profile column %q", c.Name())
			}
			p.Summary = summary
		case table.KindCategorical:
			p.Levels = levels(c)
		}
		out = append(out, p)
	}
	return out, nil
}

// Summarize computes distribution statistics; nil when data is empty
func Summarize(data stats.Float64Data) (*Summary, error) {
	if len(data) == 0 {
		return nil, nil
	}
	s := &Summary{}
	var err error
	for _, step := range []struct {
		dst *float64
		fn  func(stats.Float64Data) (float64, error)
	}{
		{&s.Mean, stats.Mean},
		{&s.StdDev, stats.StandardDeviation},
		{&s.Min, stats.Min},
		{&s.Max, stats.Max},
		{&s.Median, stats.Median},
	} {
		if *step.dst, err = step.fn(data); err != nil {
			return nil, errors.Wrap(err, "summary statistics")
		}
	}
	if s.Q25, err = quartile(data, 25); err != nil {
		return nil, err
	}
	if s.Q75, err = quartile(data, 75); err != nil {
		return nil, err
	}
	s.Skewness = skewness(data, s.Mean, s.StdDev)
	s.Outliers = outliers(data, s.Q25, s.Q75)
	return s, nil
}

// quartile interpolates between ranks and falls back to the nearest rank
// when data is too short to interpolate at p
func quartile(data stats.Float64Data, p float64) (float64, error) {
	q, err := stats.Percentile(data, p)
	if err == nil {
		return q, nil
	}
	if q, err = stats.PercentileNearestRank(data, p); err != nil {
		return 0, errors.Wrapf(err, "percentile %g", p)
	}
	return q, nil
}

// skewness is the adjusted Fisher-Pearson coefficient; 0 for fewer than
// three values or a constant column
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}

// outliers counts values outside 1.5 IQR of the quartiles
func outliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lo, hi := q25-1.5*iqr, q75+1.5*iqr
	n := 0
	for _, x := range data {
		if x < lo || x > hi {
			n++
		}
	}
	return n
}

func present(c *table.Column) stats.Float64Data {
	out := make(stats.Float64Data, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			out = append(out, c.Float(i))
		}
	}
	return out
}

func levels(c *table.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			seen[c.String(i)] = struct{}{}
		}
	}
	return len(seen)
}
