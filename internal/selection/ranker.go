// Package selection ranks numeric features by their correlation with the
// target and assembles the final dense feature table.
package selection

import (
	"math"
	"runtime"
	"sort"

	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/errors"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Entry is one ranked feature. Score is |pearson r| against the target, NaN
// when the correlation is undefined.
type Entry struct {
	Name  string
	Score float64
}

// Defined reports whether the correlation could be computed
func (e Entry) Defined() bool { return !math.IsNaN(e.Score) }

// Names returns entry names in rank order
func Names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

// Ranker scores numeric columns against a target
type Ranker struct {
	workers int
	log     *internal.Logger
}

// NewRanker creates a ranker using up to workers goroutines (0 means GOMAXPROCS)
func NewRanker(workers int, logger *internal.Logger) *Ranker {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Ranker{workers: workers, log: internal.OrDefault(logger, "ranker")}
}

// Rank scores every numeric column other than the target. Entries are
// ordered by score descending; equal scores keep table order and undefined
// scores come last.
func (r *Ranker) Rank(tbl *table.Table, target string) ([]Entry, error) {
	tc, ok := tbl.Column(target)
	if !ok {
		return nil, errors.ConfigurationError("target column %q not found", target)
	}
	if tc.Kind() != table.KindNumeric {
		return nil, errors.ConfigurationError("target column %q is %s, want numeric", target, tc.Kind())
	}
	y := tc.Floats()

	var candidates []*table.Column
	for _, c := range tbl.Columns() {
		if c.Kind() == table.KindNumeric && c.Name() != target {
			candidates = append(candidates, c)
		}
	}

	entries := make([]Entry, len(candidates))
	var eg errgroup.Group
	eg.SetLimit(r.workers)
	for i, c := range candidates {
		eg.Go(func() error {
			entries[i] = Entry{Name: c.Name(), Score: math.Abs(PairwiseCorrelation(c.Floats(), y))}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(a, b int) bool {
		da, db := entries[a].Defined(), entries[b].Defined()
		if da != db {
			return da
		}
		return da && entries[a].Score > entries[b].Score
	})

	undefined := 0
	for _, e := range entries {
		if !e.Defined() {
			undefined++
		}
	}
	if undefined > 0 {
		r.log.Debug("%d of %d candidates have no defined correlation with %q", undefined, len(entries), target)
	}
	return entries, nil
}

// RankByCorrelation returns at most topN entries with a defined correlation,
// best first. Fewer candidates than topN is not an error.
func (r *Ranker) RankByCorrelation(tbl *table.Table, target string, topN int) ([]Entry, error) {
	if topN <= 0 {
		return nil, errors.ConfigurationError("top-n must be positive, got %d", topN)
	}
	all, err := r.Rank(tbl, target)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, topN)
	for _, e := range all {
		if len(out) == topN || !e.Defined() {
			break
		}
		out = append(out, e)
	}
	return out, nil
}

// PairwiseCorrelation is the Pearson correlation of x and y over the rows
// where both are present. It is NaN with fewer than two such rows or when
// either side is constant over them.
func PairwiseCorrelation(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if i >= len(y) {
			break
		}
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 || constant(xs) || constant(ys) {
		return math.NaN()
	}
	c := stat.Correlation(xs, ys, nil)
	if math.IsInf(c, 0) {
		return math.NaN()
	}
	// rounding can push |r| marginally past 1
	return math.Max(-1, math.Min(1, c))
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
