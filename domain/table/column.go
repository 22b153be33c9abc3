package table

import (
	"math"
	"time"
)

// Kind is the storage classification of a column
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindTimestamp   Kind = "timestamp"
)

// Column is an immutable named vector. Missing cells are NaN for numeric
// columns, "" for categorical columns and the zero time for timestamps.
// Constructors take ownership of the slice passed in; callers must not
// modify it afterwards.
type Column struct {
	name  string
	kind  Kind
	nums  []float64
	strs  []string
	times []time.Time
}

// NewNumeric creates a numeric column
func NewNumeric(name string, values []float64) *Column {
	return &Column{name: name, kind: KindNumeric, nums: values}
}

// NewCategorical creates a categorical column
func NewCategorical(name string, values []string) *Column {
	return &Column{name: name, kind: KindCategorical, strs: values}
}

// NewTimestamp creates a timestamp column
func NewTimestamp(name string, values []time.Time) *Column {
	return &Column{name: name, kind: KindTimestamp, times: values}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

// Len returns the number of cells
func (c *Column) Len() int {
	switch c.kind {
	case KindNumeric:
		return len(c.nums)
	case KindCategorical:
		return len(c.strs)
	default:
		return len(c.times)
	}
}

// IsMissing reports whether cell i holds no value
func (c *Column) IsMissing(i int) bool {
	switch c.kind {
	case KindNumeric:
		return math.IsNaN(c.nums[i])
	case KindCategorical:
		return c.strs[i] == ""
	default:
		return c.times[i].IsZero()
	}
}

// MissingCount returns the number of missing cells
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Float returns numeric cell i (NaN when missing or non-numeric)
func (c *Column) Float(i int) float64 {
	if c.kind != KindNumeric {
		return math.NaN()
	}
	return c.nums[i]
}

// String returns categorical cell i, or the RFC3339 form of a timestamp
func (c *Column) String(i int) string {
	switch c.kind {
	case KindCategorical:
		return c.strs[i]
	case KindTimestamp:
		if c.times[i].IsZero() {
			return ""
		}
		return c.times[i].Format(time.RFC3339)
	default:
		return ""
	}
}

// Time returns timestamp cell i
func (c *Column) Time(i int) time.Time {
	if c.kind != KindTimestamp {
		return time.Time{}
	}
	return c.times[i]
}

// Floats returns a copy of the numeric values
func (c *Column) Floats() []float64 {
	return append([]float64(nil), c.nums...)
}

// Strings returns a copy of the categorical values
func (c *Column) Strings() []string {
	return append([]string(nil), c.strs...)
}

func (c *Column) take(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind}
	switch c.kind {
	case KindNumeric:
		out.nums = make([]float64, len(rows))
		for i, r := range rows {
			out.nums[i] = c.nums[r]
		}
	case KindCategorical:
		out.strs = make([]string, len(rows))
		for i, r := range rows {
			out.strs[i] = c.strs[r]
		}
	default:
		out.times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.times[i] = c.times[r]
		}
	}
	return out
}
