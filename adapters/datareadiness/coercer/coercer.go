package coercer

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"featprep/domain/core"
	"featprep/domain/datareadiness/ingestion"
	"featprep/domain/table"
)

// TypeCoercer handles deterministic type coercion of raw string cells
type TypeCoercer struct {
	config CoercionConfig
}

// CoercionConfig defines the coercion thresholds and rules
type CoercionConfig struct {
	NumericThreshold   float64  `json:"numeric_threshold"`   // % of present values that must parse as numbers
	TimestampThreshold float64  `json:"timestamp_threshold"` // % of present values that must parse as timestamps
	MissingTokens      []string `json:"missing_tokens"`      // cell values read as missing (case-insensitive)
	NormalizeStrings   bool     `json:"normalize_strings"`   // Whether to trim/lower categorical strings
}

// DefaultCoercionConfig returns sensible defaults
func DefaultCoercionConfig() CoercionConfig {
	return CoercionConfig{
		NumericThreshold:   0.8,
		TimestampThreshold: 0.8,
		MissingTokens:      []string{"", "na", "n/a", "nan", "null", "none", "-"},
		NormalizeStrings:   false,
	}
}

// NewTypeCoercer creates a coercer with the given config
func NewTypeCoercer(config CoercionConfig) *TypeCoercer {
	return &TypeCoercer{config: config}
}

// CoerceValue deterministically converts a raw cell to a typed Value
func (c *TypeCoercer) CoerceValue(raw string) ingestion.Value {
	if c.isMissing(raw) {
		return ingestion.NewMissingValue()
	}

	// Try numeric first (most restrictive)
	if numericVal, ok := c.tryParseNumeric(raw); ok {
		return numericVal
	}

	if tsVal, ok := c.tryParseTimestamp(raw); ok {
		return tsVal
	}

	return c.coerceToString(raw)
}

// CoerceAs converts a raw cell to the given column type. Cells that do not
// parse become missing and ok is false.
func (c *TypeCoercer) CoerceAs(valueType ingestion.ValueType, raw string) (ingestion.Value, bool) {
	if c.isMissing(raw) {
		return ingestion.NewMissingValue(), true
	}
	switch valueType {
	case ingestion.ValueTypeNumeric:
		if v, ok := c.tryParseNumeric(raw); ok {
			return v, true
		}
		return ingestion.NewMissingValue(), false
	case ingestion.ValueTypeTimestamp:
		if v, ok := c.tryParseTimestamp(raw); ok {
			return v, true
		}
		return ingestion.NewMissingValue(), false
	default:
		return c.coerceToString(raw), true
	}
}

// AnalyzeTypeDistribution inspects a column's raw cells to choose its type
func (c *TypeCoercer) AnalyzeTypeDistribution(values []string) TypeAnalysis {
	analysis := TypeAnalysis{
		TotalCount: len(values),
	}

	for _, val := range values {
		if c.isMissing(val) {
			continue
		}
		analysis.ValidCount++
		if _, ok := c.tryParseNumeric(val); ok {
			analysis.NumericCount++
		}
		if _, ok := c.tryParseTimestamp(val); ok {
			analysis.TimestampCount++
		}
	}

	if analysis.ValidCount > 0 {
		analysis.NumericRatio = float64(analysis.NumericCount) / float64(analysis.ValidCount)
		analysis.TimestampRatio = float64(analysis.TimestampCount) / float64(analysis.ValidCount)
	}

	analysis.RecommendedType = c.determineRecommendedType(analysis)

	return analysis
}

// BuildTable coerces raw rows into a typed table. Column order follows
// headers; each column's kind is inferred from its own cells. Cells that do
// not parse as their column's type are returned as ingestion errors. Numeric
// columns store them as missing; a mostly-timestamp column with any bad cell
// is kept as categorical text.
func (c *TypeCoercer) BuildTable(headers []string, rows []map[string]string) (*table.Table, []ingestion.IngestionError, error) {
	var issues []ingestion.IngestionError
	cols := make([]*table.Column, 0, len(headers))

	raw := make([]string, len(rows))
	for _, h := range headers {
		for i, row := range rows {
			raw[i] = row[h]
		}
		analysis := c.AnalyzeTypeDistribution(raw)

		switch analysis.RecommendedType {
		case ingestion.ValueTypeNumeric:
			vals := make([]float64, len(rows))
			for i, cell := range raw {
				v, ok := c.CoerceAs(ingestion.ValueTypeNumeric, cell)
				if !ok {
					issues = append(issues, ingestion.IngestionError{RowIndex: i, Field: h, Value: cell, ErrorType: "not_numeric"})
				}
				if v.IsNumeric() {
					vals[i] = v.AsFloat64()
				} else {
					vals[i] = math.NaN()
				}
			}
			cols = append(cols, table.NewNumeric(h, vals))
		case ingestion.ValueTypeTimestamp:
			vals := make([]time.Time, len(rows))
			var bad []ingestion.IngestionError
			for i, cell := range raw {
				v, ok := c.CoerceAs(ingestion.ValueTypeTimestamp, cell)
				if !ok {
					bad = append(bad, ingestion.IngestionError{RowIndex: i, Field: h, Value: cell, ErrorType: "not_timestamp"})
				}
				vals[i] = v.AsTime()
			}
			if len(bad) > 0 {
				// keep the raw text so date parsing downstream sees the bad cell
				issues = append(issues, bad...)
				cols = append(cols, c.buildCategorical(h, raw))
				continue
			}
			cols = append(cols, table.NewTimestamp(h, vals))
		default:
			cols = append(cols, c.buildCategorical(h, raw))
		}
	}

	tbl, err := table.New(cols...)
	if err != nil {
		return nil, issues, fmt.Errorf("failed to assemble table: %w", err)
	}
	return tbl, issues, nil
}

func (c *TypeCoercer) buildCategorical(name string, raw []string) *table.Column {
	vals := make([]string, len(raw))
	for i, cell := range raw {
		v, _ := c.CoerceAs(ingestion.ValueTypeString, cell)
		vals[i] = v.AsString()
	}
	return table.NewCategorical(name, vals)
}

func (c *TypeCoercer) isMissing(raw string) bool {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, tok := range c.config.MissingTokens {
		if s == tok {
			return true
		}
	}
	return s == ""
}

// coerceToString converts to a (optionally normalized) string value
func (c *TypeCoercer) coerceToString(strVal string) ingestion.Value {
	strVal = strings.TrimSpace(strVal)
	if c.config.NormalizeStrings {
		strVal = c.normalizeString(strVal)
	}
	return ingestion.NewStringValue(strVal)
}

// tryParseNumeric attempts to parse as numeric with strict rules.
// Handles parentheses for negatives, currency symbols, percent signs and
// thousands separators.
func (c *TypeCoercer) tryParseNumeric(strVal string) (ingestion.Value, bool) {
	cleanVal := strings.TrimSpace(strVal)
	if cleanVal == "" {
		return ingestion.Value{}, false
	}

	// (123) -> -123
	isNegative := false
	if strings.HasPrefix(cleanVal, "(") && strings.HasSuffix(cleanVal, ")") {
		cleanVal = strings.TrimSuffix(strings.TrimPrefix(cleanVal, "("), ")")
		isNegative = true
	}

	for _, symbol := range []string{"$", "€", "£", "¥", "%"} {
		cleanVal = strings.ReplaceAll(cleanVal, symbol, "")
	}
	cleanVal = strings.TrimSpace(cleanVal)

	// 1.234,56 (European) vs 1,234.56; a lone comma is a thousands separator
	// only when followed by exactly three digits.
	hasComma := strings.Contains(cleanVal, ",")
	hasPeriod := strings.Contains(cleanVal, ".")
	switch {
	case hasComma && hasPeriod && strings.LastIndex(cleanVal, ",") > strings.LastIndex(cleanVal, "."):
		cleanVal = strings.ReplaceAll(cleanVal, ".", "")
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	case hasComma && !hasPeriod && !thousandsGrouped.MatchString(cleanVal):
		cleanVal = strings.ReplaceAll(cleanVal, ",", ".")
	default:
		cleanVal = strings.ReplaceAll(cleanVal, ",", "")
	}
	cleanVal = strings.ReplaceAll(cleanVal, " ", "")

	if isNegative {
		cleanVal = "-" + cleanVal
	}

	if val, err := strconv.ParseFloat(cleanVal, 64); err == nil {
		if !math.IsInf(val, 0) && !math.IsNaN(val) {
			return ingestion.NewNumericValue(val), true
		}
	}

	return ingestion.Value{}, false
}

var thousandsGrouped = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+$`)

// tryParseTimestamp attempts to parse as timestamp with multiple formats
func (c *TypeCoercer) tryParseTimestamp(strVal string) (ingestion.Value, bool) {
	t, err := core.ParseTimestamp(strVal)
	if err != nil {
		return ingestion.Value{}, false
	}
	return ingestion.NewTimestampValue(t), true
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// normalizeString applies deterministic string normalization
func (c *TypeCoercer) normalizeString(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, " ")

	// Remove control characters
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

// determineRecommendedType chooses the best type based on analysis. A
// column with no present values is numeric.
func (c *TypeCoercer) determineRecommendedType(analysis TypeAnalysis) ingestion.ValueType {
	if analysis.ValidCount == 0 {
		return ingestion.ValueTypeNumeric
	}

	if analysis.NumericRatio >= c.config.NumericThreshold {
		return ingestion.ValueTypeNumeric
	}

	if analysis.TimestampRatio >= c.config.TimestampThreshold {
		return ingestion.ValueTypeTimestamp
	}

	return ingestion.ValueTypeString
}

// TypeAnalysis contains the results of type distribution analysis
type TypeAnalysis struct {
	TotalCount      int                 `json:"total_count"`
	ValidCount      int                 `json:"valid_count"`
	NumericCount    int                 `json:"numeric_count"`
	TimestampCount  int                 `json:"timestamp_count"`
	NumericRatio    float64             `json:"numeric_ratio"`
	TimestampRatio  float64             `json:"timestamp_ratio"`
	RecommendedType ingestion.ValueType `json:"recommended_type"`
}
