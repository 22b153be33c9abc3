// Package encoding turns categorical columns into numeric ones, either as
// integer class codes or as 0/1 indicator columns.
package encoding

import (
	"fmt"
	"math"
	"sort"

	"featprep/domain/table"
	"featprep/internal/errors"
)

// LabelEncoder maps the classes seen while fitting to their sorted position
type LabelEncoder struct {
	Column  string
	Classes []string
	codes   map[string]int
}

// FitLabelEncoder learns the sorted set of present values of col
func FitLabelEncoder(col *table.Column) (*LabelEncoder, error) {
	if col.Kind() != table.KindCategorical {
		return nil, errors.ConfigurationError("column %q is %s, want categorical", col.Name(), col.Kind())
	}
	classes := levels(col)
	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &LabelEncoder{Column: col.Name(), Classes: classes, codes: codes}, nil
}

// Transform encodes col; missing cells stay missing. A value that was not
// seen during fitting is a configuration error.
func (e *LabelEncoder) Transform(col *table.Column) (*table.Column, error) {
	if col.Kind() != table.KindCategorical {
		return nil, errors.ConfigurationError("column %q is %s, want categorical", col.Name(), col.Kind())
	}
	out := make([]float64, col.Len())
	for i := range out {
		if col.IsMissing(i) {
			out[i] = math.NaN()
			continue
		}
		code, ok := e.codes[col.String(i)]
		if !ok {
			return nil, errors.ConfigurationError("column %q: unseen label %q at row %d", col.Name(), col.String(i), i)
		}
		out[i] = float64(code)
	}
	return table.NewNumeric(col.Name(), out), nil
}

// LabelEncode replaces each named categorical column with its class codes
// and returns the fitted encoders keyed by column name.
func LabelEncode(tbl *table.Table, columns []string) (*table.Table, map[string]*LabelEncoder, error) {
	encoders := make(map[string]*LabelEncoder, len(columns))
	encoded := make([]*table.Column, 0, len(columns))
	for _, name := range columns {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, nil, errors.ConfigurationError("column %q not found", name)
		}
		enc, err := FitLabelEncoder(col)
		if err != nil {
			return nil, nil, err
		}
		c, err := enc.Transform(col)
		if err != nil {
			return nil, nil, err
		}
		encoders[name] = enc
		encoded = append(encoded, c)
	}
	if len(encoded) == 0 {
		return tbl, encoders, nil
	}
	out, err := tbl.WithColumns(encoded...)
	if err != nil {
		return nil, nil, err
	}
	return out, encoders, nil
}

// ApplyLabelEncoders encodes tbl with previously fitted encoders
func ApplyLabelEncoders(tbl *table.Table, encoders map[string]*LabelEncoder) (*table.Table, error) {
	names := make([]string, 0, len(encoders))
	for name := range encoders {
		names = append(names, name)
	}
	sort.Strings(names)

	encoded := make([]*table.Column, 0, len(names))
	for _, name := range names {
		col, ok := tbl.Column(name)
		if !ok {
			return nil, errors.ConfigurationError("column %q not found", name)
		}
		c, err := encoders[name].Transform(col)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, c)
	}
	if len(encoded) == 0 {
		return tbl, nil
	}
	return tbl.WithColumns(encoded...)
}

// OneHotName is the indicator column name for value of column
func OneHotName(column, value string) string {
	return fmt.Sprintf("%s_%s", column, value)
}

// OneHotEncode replaces each named categorical column with one 0/1 column
// per level, levels sorted ascending. A missing cell is zero in every
// indicator. dropFirst omits the first level.
func OneHotEncode(tbl *table.Table, columns []string, dropFirst bool) (*table.Table, error) {
	out := tbl
	for _, name := range columns {
		col, ok := out.Column(name)
		if !ok {
			return nil, errors.ConfigurationError("column %q not found", name)
		}
		if col.Kind() != table.KindCategorical {
			return nil, errors.ConfigurationError("column %q is %s, want categorical", name, col.Kind())
		}

		lv := levels(col)
		if dropFirst && len(lv) > 0 {
			lv = lv[1:]
		}
		indicators := make([]*table.Column, 0, len(lv))
		for _, level := range lv {
			vals := make([]float64, col.Len())
			for i := range vals {
				if !col.IsMissing(i) && col.String(i) == level {
					vals[i] = 1
				}
			}
			indicators = append(indicators, table.NewNumeric(OneHotName(name, level), vals))
		}

		var err error
		if out, err = insertReplacing(out, name, indicators); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// insertReplacing swaps the named column for cols at the same position
func insertReplacing(tbl *table.Table, name string, cols []*table.Column) (*table.Table, error) {
	next := make([]*table.Column, 0, tbl.Width()+len(cols))
	for _, c := range tbl.Columns() {
		if c.Name() == name {
			next = append(next, cols...)
			continue
		}
		next = append(next, c)
	}
	if len(next) == 0 {
		return tbl.Without(name), nil
	}
	out, err := table.New(next...)
	if err != nil {
		return nil, errors.ConfigurationError("one-hot columns for %q collide: %v", name, err)
	}
	return out, nil
}

func levels(col *table.Column) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			continue
		}
		v := col.String(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}
