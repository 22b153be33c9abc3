// Package timefeatures derives calendar fields, cyclic encodings, lags and
// trailing rolling statistics from a temporally ordered table.
package timefeatures

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"featprep/domain/core"
	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/config"
	"featprep/internal/errors"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
)

// Calendar feature names
const (
	Hour    = "hour"
	Weekday = "weekday"
	Month   = "month"
	HourSin = "hour_sin"
	HourCos = "hour_cos"
)

// statOrder fixes the order rolling columns are appended in
var statOrder = []string{config.StatMean, config.StatStd, config.StatMin, config.StatMax}

// Generator appends derived columns. Derived columns of different sources
// are computed concurrently; the output is identical to a sequential run.
type Generator struct {
	workers int
	log     *internal.Logger
}

// NewGenerator creates a generator using up to workers goroutines (0 means GOMAXPROCS)
func NewGenerator(workers int, logger *internal.Logger) *Generator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Generator{workers: workers, log: internal.OrDefault(logger, "timefeatures")}
}

// LagName is the column name of lag k of source
func LagName(source string, k int) string {
	return fmt.Sprintf("%s_lag_%d", source, k)
}

// RollingName is the column name of a rolling statistic of source over w rows
func RollingName(source, stat string, w int) string {
	return fmt.Sprintf("%s_roll_%s_%d", source, stat, w)
}

// AddTimeFeatures parses dateColumn into timestamps (replacing it) and
// appends hour, weekday (Monday=0), month and the hour_sin/hour_cos pair.
// Any missing or unparseable timestamp fails the whole call.
func (g *Generator) AddTimeFeatures(tbl *table.Table, dateColumn string) (*table.Table, error) {
	col, ok := tbl.Column(dateColumn)
	if !ok {
		return nil, errors.ConfigurationError("date column %q not found", dateColumn)
	}

	times, err := parseTimes(col)
	if err != nil {
		return nil, err
	}

	n := len(times)
	hour := make([]float64, n)
	weekday := make([]float64, n)
	month := make([]float64, n)
	hourSin := make([]float64, n)
	hourCos := make([]float64, n)
	for i, ts := range times {
		h := float64(ts.Hour())
		hour[i] = h
		weekday[i] = float64((int(ts.Weekday()) + 6) % 7)
		month[i] = float64(ts.Month())
		angle := 2 * math.Pi * h / 24
		hourSin[i] = math.Sin(angle)
		hourCos[i] = math.Cos(angle)
	}

	return tbl.WithColumns(
		table.NewTimestamp(dateColumn, times),
		table.NewNumeric(Hour, hour),
		table.NewNumeric(Weekday, weekday),
		table.NewNumeric(Month, month),
		table.NewNumeric(HourSin, hourSin),
		table.NewNumeric(HourCos, hourCos),
	)
}

func parseTimes(col *table.Column) ([]time.Time, error) {
	n := col.Len()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		if col.IsMissing(i) {
			return nil, errors.DateParseError(col.Name(), i, fmt.Errorf("missing value"))
		}
		switch col.Kind() {
		case table.KindTimestamp:
			out[i] = col.Time(i)
		case table.KindNumeric:
			// unix seconds
			out[i] = time.Unix(int64(col.Float(i)), 0).UTC()
		default:
			ts, err := core.ParseTimestamp(col.String(i))
			if err != nil {
				return nil, errors.DateParseError(col.Name(), i, err)
			}
			out[i] = ts
		}
	}
	return out, nil
}

// AddLagFeatures appends {source}_lag_{k} for every source and lag. The
// first k rows of each lag column are missing.
func (g *Generator) AddLagFeatures(tbl *table.Table, columns []string, lags []int) (*table.Table, error) {
	if err := config.ValidateLags(lags); err != nil {
		return nil, err
	}
	sources, err := numericSources(tbl, columns)
	if err != nil {
		return nil, err
	}

	derived, err := g.perSource(sources, func(src *table.Column) []*table.Column {
		vals := src.Floats()
		out := make([]*table.Column, 0, len(lags))
		for _, k := range lags {
			out = append(out, table.NewNumeric(LagName(src.Name(), k), shift(vals, k)))
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	g.log.Debug("added %d lag columns for %d sources", len(derived), len(sources))
	return tbl.WithColumns(derived...)
}

// AddRollingFeatures appends {source}_roll_{stat}_{w} for every source,
// window and requested statistic, computed over the trailing w rows ending
// at the current row. The first w-1 rows are missing, as is any window
// holding a missing value. std uses the sample (n-1) denominator, so a
// one-row window has no std.
func (g *Generator) AddRollingFeatures(tbl *table.Table, columns []string, windows []int, statistics []string) (*table.Table, error) {
	if err := config.ValidateWindows(windows); err != nil {
		return nil, err
	}
	if err := config.ValidateStats(statistics); err != nil {
		return nil, err
	}
	sources, err := numericSources(tbl, columns)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(statistics))
	for _, s := range statistics {
		wanted[s] = true
	}

	derived, err := g.perSource(sources, func(src *table.Column) []*table.Column {
		vals := src.Floats()
		var out []*table.Column
		for _, w := range windows {
			for _, stat := range statOrder {
				if !wanted[stat] {
					continue
				}
				out = append(out, table.NewNumeric(RollingName(src.Name(), stat, w), rolling(vals, w, stat)))
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}
	g.log.Debug("added %d rolling columns for %d sources", len(derived), len(sources))
	return tbl.WithColumns(derived...)
}

// perSource runs fn for each source concurrently and concatenates the
// results in source order.
func (g *Generator) perSource(sources []*table.Column, fn func(*table.Column) []*table.Column) ([]*table.Column, error) {
	results := make([][]*table.Column, len(sources))

	var eg errgroup.Group
	eg.SetLimit(g.workers)
	for i, src := range sources {
		eg.Go(func() error {
			results[i] = fn(src)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var out []*table.Column
	seen := make(map[string]bool)
	for _, cols := range results {
		for _, c := range cols {
			if seen[c.Name()] {
				continue
			}
			seen[c.Name()] = true
			out = append(out, c)
		}
	}
	return out, nil
}

// numericSources resolves column names, dropping repeats
func numericSources(tbl *table.Table, columns []string) ([]*table.Column, error) {
	seen := make(map[string]bool, len(columns))
	out := make([]*table.Column, 0, len(columns))
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		c, ok := tbl.Column(name)
		if !ok {
			return nil, errors.ConfigurationError("source column %q not found", name)
		}
		if c.Kind() != table.KindNumeric {
			return nil, errors.ConfigurationError("source column %q is %s, want numeric", name, c.Kind())
		}
		out = append(out, c)
	}
	return out, nil
}

func shift(vals []float64, k int) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		if i < k {
			out[i] = math.NaN()
		} else {
			out[i] = vals[i-k]
		}
	}
	return out
}

func rolling(vals []float64, w int, stat string) []float64 {
	out := make([]float64, len(vals))
	for i := range out {
		if i < w-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = windowStat(vals[i-w+1:i+1], stat)
	}
	return out
}

func windowStat(window stats.Float64Data, stat string) float64 {
	for _, v := range window {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}

	var (
		v   float64
		err error
	)
	switch stat {
	case config.StatMean:
		v, err = stats.Mean(window)
	case config.StatStd:
		if len(window) < 2 {
			return math.NaN()
		}
		v, err = stats.StandardDeviationSample(window)
	case config.StatMin:
		v, err = stats.Min(window)
	case config.StatMax:
		v, err = stats.Max(window)
	default:
		return math.NaN()
	}
	if err != nil {
		return math.NaN()
	}
	return v
}
