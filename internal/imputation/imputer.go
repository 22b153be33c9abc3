// Package imputation fills missing values with an ordered fallback of
// strategies and prunes rows that stay too sparse.
package imputation

import (
	"math"
	"slices"
	"sort"
	"time"

	"featprep/domain/table"
	"featprep/internal"
	"featprep/internal/errors"

	"github.com/montanaflynn/stats"
)

// Imputer runs forward/backward fill, median, mode and mean passes in that
// order, then drops rows below the completeness threshold.
type Imputer struct {
	log       *internal.Logger
	preserved map[string]bool
}

// NewImputer creates an imputer logging through logger (nil for the default)
func NewImputer(logger *internal.Logger) *Imputer {
	return &Imputer{log: internal.OrDefault(logger, "imputer"), preserved: make(map[string]bool)}
}

// Preserve excludes the named columns from every fill pass. Their missing
// cells still count against row completeness.
func (im *Imputer) Preserve(columns ...string) *Imputer {
	for _, name := range columns {
		im.preserved[name] = true
	}
	return im
}

// Impute returns a new table with missing values remediated. threshold is
// the fraction of the input's non-target columns that must be present in a
// row for it to survive.
func (im *Imputer) Impute(tbl *table.Table, target string, threshold float64) (*table.Table, error) {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return nil, errors.ConfigurationError("row threshold must be within [0, 1], got %g", threshold)
	}

	nonTarget := tbl.Width()
	if tbl.Has(target) {
		nonTarget--
	}

	var skip []string
	for name := range im.preserved {
		skip = append(skip, name)
	}
	out, err := FillForwardBackward(tbl, skip...)
	if err != nil {
		return nil, err
	}

	reg := table.NewRegistry(out)
	if out, err = FillMedian(out, im.fillable(reg.Numeric())); err != nil {
		return nil, err
	}
	if out, err = im.fillMode(out, im.fillable(reg.Categorical())); err != nil {
		return nil, err
	}
	if out, err = im.fillMean(out); err != nil {
		return nil, err
	}

	before := out.Rows()
	out = DropSparseRows(out, target, threshold, nonTarget)
	im.log.Debug("dropped %d of %d rows below completeness threshold %g", before-out.Rows(), before, threshold)

	return out, nil
}

// FillForwardBackward propagates the last present value forward, then the
// next present value backward, in every column except skip.
func FillForwardBackward(tbl *table.Table, skip ...string) (*table.Table, error) {
	var filled []*table.Column
	for _, c := range tbl.Columns() {
		if c.MissingCount() == 0 || c.MissingCount() == c.Len() || slices.Contains(skip, c.Name()) {
			continue
		}
		filled = append(filled, fillColumn(c))
	}
	if len(filled) == 0 {
		return tbl, nil
	}
	return tbl.WithColumns(filled...)
}

// fillColumn builds the ffill+bfill source index for every row, then
// materialises a new column of the same kind.
func fillColumn(c *table.Column) *table.Column {
	n := c.Len()
	src := make([]int, n)
	last := -1
	for i := 0; i < n; i++ {
		if !c.IsMissing(i) {
			last = i
		}
		src[i] = last
	}
	next := -1
	for i := n - 1; i >= 0; i-- {
		if !c.IsMissing(i) {
			next = i
		}
		if src[i] < 0 {
			src[i] = next
		}
	}

	switch c.Kind() {
	case table.KindNumeric:
		vals := make([]float64, n)
		for i, s := range src {
			vals[i] = c.Float(s)
		}
		return table.NewNumeric(c.Name(), vals)
	case table.KindCategorical:
		vals := make([]string, n)
		for i, s := range src {
			vals[i] = c.String(s)
		}
		return table.NewCategorical(c.Name(), vals)
	default:
		vals := make([]time.Time, n)
		for i, s := range src {
			vals[i] = c.Time(s)
		}
		return table.NewTimestamp(c.Name(), vals)
	}
}

// FillMedian replaces missing cells of the named numeric columns with the
// column median. A column with no present value has no median and is left
// as it is.
func FillMedian(tbl *table.Table, columns []string) (*table.Table, error) {
	return fillNumeric(tbl, columns, stats.Median)
}

// FillMean replaces missing cells of the named numeric columns with the
// column mean; columns with no present value are left as they are.
func FillMean(tbl *table.Table, columns []string) (*table.Table, error) {
	return fillNumeric(tbl, columns, stats.Mean)
}

func fillNumeric(tbl *table.Table, columns []string, center func(stats.Float64Data) (float64, error)) (*table.Table, error) {
	var filled []*table.Column
	for _, name := range columns {
		c, ok := tbl.Column(name)
		if !ok {
			return nil, errors.ConfigurationError("column %q not found", name)
		}
		if c.Kind() != table.KindNumeric {
			return nil, errors.ConfigurationError("column %q is %s, want numeric", name, c.Kind())
		}
		if c.MissingCount() == 0 {
			continue
		}
		present := presentFloats(c)
		if len(present) == 0 {
			continue
		}
		fill, err := center(present)
		if err != nil {
			continue
		}
		vals := c.Floats()
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = fill
			}
		}
		filled = append(filled, table.NewNumeric(name, vals))
	}
	if len(filled) == 0 {
		return tbl, nil
	}
	return tbl.WithColumns(filled...)
}

// FillMode replaces missing cells of the named categorical columns with the
// most frequent value (ties go to the lexicographically smallest). Columns
// with no present value are left as they are.
func FillMode(tbl *table.Table, columns []string) (*table.Table, error) {
	var filled []*table.Column
	for _, name := range columns {
		c, ok := tbl.Column(name)
		if !ok {
			return nil, errors.ConfigurationError("column %q not found", name)
		}
		if c.Kind() != table.KindCategorical {
			return nil, errors.ConfigurationError("column %q is %s, want categorical", name, c.Kind())
		}
		if c.MissingCount() == 0 {
			continue
		}
		mode, ok := Mode(c.Strings())
		if !ok {
			continue
		}
		vals := c.Strings()
		for i, v := range vals {
			if v == "" {
				vals[i] = mode
			}
		}
		filled = append(filled, table.NewCategorical(name, vals))
	}
	if len(filled) == 0 {
		return tbl, nil
	}
	return tbl.WithColumns(filled...)
}

// Mode returns the most frequent non-empty value
func Mode(values []string) (string, bool) {
	counts := make(map[string]int)
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}

func (im *Imputer) fillMode(tbl *table.Table, columns []string) (*table.Table, error) {
	out, err := FillMode(tbl, columns)
	if err != nil {
		return nil, err
	}
	for _, name := range columns {
		if c, _ := out.Column(name); c.MissingCount() == c.Len() && c.Len() > 0 {
			im.log.Warn("categorical column %q is entirely missing and stays unresolved", name)
		}
	}
	return out, nil
}

// fillMean is the final numeric backstop. Numeric columns that are still
// entirely missing have no mean and are dropped, so no numeric column
// leaves this pass with a missing cell.
func (im *Imputer) fillMean(tbl *table.Table) (*table.Table, error) {
	numeric := im.fillable(tbl.NamesOfKind(table.KindNumeric))
	out, err := FillMean(tbl, numeric)
	if err != nil {
		return nil, err
	}
	var empty []string
	for _, name := range numeric {
		if c, _ := out.Column(name); c.MissingCount() > 0 {
			empty = append(empty, name)
		}
	}
	if len(empty) > 0 {
		im.log.Warn("dropping numeric columns with no values: %v", empty)
		out = out.Without(empty...)
	}
	return out, nil
}

func (im *Imputer) fillable(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, name := range columns {
		if !im.preserved[name] {
			out = append(out, name)
		}
	}
	return out
}

// DropSparseRows keeps rows having at least ceil(threshold*columnCount)
// present cells among the non-target columns.
func DropSparseRows(tbl *table.Table, target string, threshold float64, columnCount int) *table.Table {
	required := int(math.Ceil(threshold*float64(columnCount) - 1e-9))
	if required <= 0 {
		return tbl
	}

	var cols []*table.Column
	for _, c := range tbl.Columns() {
		if c.Name() != target {
			cols = append(cols, c)
		}
	}

	return tbl.Filter(func(r int) bool {
		present := 0
		for _, c := range cols {
			if !c.IsMissing(r) {
				present++
			}
		}
		return present >= required
	})
}

func presentFloats(c *table.Column) stats.Float64Data {
	out := make(stats.Float64Data, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			out = append(out, c.Float(i))
		}
	}
	return out
}
