package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"

	"featprep/internal/errors"
)

// Rolling statistics understood by the temporal feature generator
const (
	StatMean = "mean"
	StatStd  = "std"
	StatMin  = "min"
	StatMax  = "max"
)

// Categorical encodings applied after imputation
const (
	EncodingNone   = "none"
	EncodingLabel  = "label"
	EncodingOneHot = "onehot"
)

// DefaultTarget is the price series the pipeline prepares features for
const DefaultTarget = "price_actual"

// PipelineConfig holds every tunable of one preprocessing run
type PipelineConfig struct {
	Target       string   // target column; must be numeric at ranking time
	DateColumn   string   // timestamp column feeding calendar features
	TopN         int      // correlation-ranked features to keep
	Lags         []int    // lag offsets in rows
	Windows      []int    // trailing rolling window sizes in rows
	RollingStats []string // subset of mean, std, min, max
	RowThreshold float64  // minimum fraction of present non-target cells per row
	Mandatory    []string // features kept regardless of rank
	Encoding     string   // none, label or onehot
	Workers      int      // per-column parallelism for derived features
}

// MandatoryFeatures are the calendar columns always retained by selection
func MandatoryFeatures() []string {
	return []string{"hour", "weekday", "month", "hour_sin", "hour_cos"}
}

// Default returns the documented defaults
func Default() PipelineConfig {
	return PipelineConfig{
		Target:       DefaultTarget,
		DateColumn:   "time",
		TopN:         50,
		Lags:         []int{1, 24},
		Windows:      []int{3, 6, 24},
		RollingStats: []string{StatMean, StatStd},
		RowThreshold: 0.5,
		Mandatory:    MandatoryFeatures(),
		Encoding:     EncodingNone,
		Workers:      runtime.GOMAXPROCS(0),
	}
}

// Load reads overrides from environment variables on top of the defaults
// and validates the result
func Load() (*PipelineConfig, error) {
	cfg := Default()

	cfg.Target = getEnvOrDefault("FEATPREP_TARGET", cfg.Target)
	cfg.DateColumn = getEnvOrDefault("FEATPREP_DATE_COLUMN", cfg.DateColumn)
	cfg.TopN = getEnvIntOrDefault("FEATPREP_TOP_N", cfg.TopN)
	cfg.RowThreshold = getEnvFloatOrDefault("FEATPREP_ROW_THRESHOLD", cfg.RowThreshold)
	cfg.Encoding = getEnvOrDefault("FEATPREP_ENCODING", cfg.Encoding)
	cfg.Workers = getEnvIntOrDefault("FEATPREP_WORKERS", cfg.Workers)
	cfg.RollingStats = getEnvListOrDefault("FEATPREP_ROLLING_STATS", cfg.RollingStats)

	var err error
	if cfg.Lags, err = getEnvIntsOrDefault("FEATPREP_LAGS", cfg.Lags); err != nil {
		return nil, err
	}
	if cfg.Windows, err = getEnvIntsOrDefault("FEATPREP_WINDOWS", cfg.Windows); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return &cfg, nil
}

// Validate checks every field, returning a ConfigurationError on the first problem
func (c PipelineConfig) Validate() error {
	if strings.TrimSpace(c.Target) == "" {
		return errors.ConfigurationError("target column name is required")
	}
	if strings.TrimSpace(c.DateColumn) == "" {
		return errors.ConfigurationError("date column name is required")
	}
	if c.TopN <= 0 {
		return errors.ConfigurationError("top-n must be positive, got %d", c.TopN)
	}
	if c.RowThreshold < 0 || c.RowThreshold > 1 {
		return errors.ConfigurationError("row threshold must be within [0, 1], got %g", c.RowThreshold)
	}
	if err := ValidateLags(c.Lags); err != nil {
		return err
	}
	if err := ValidateWindows(c.Windows); err != nil {
		return err
	}
	if err := ValidateStats(c.RollingStats); err != nil {
		return err
	}
	switch c.Encoding {
	case EncodingNone, EncodingLabel, EncodingOneHot:
	default:
		return errors.ConfigurationError("unknown encoding %q", c.Encoding)
	}
	if c.Workers < 0 {
		return errors.ConfigurationError("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// ValidateLags rejects non-positive lag offsets
func ValidateLags(lags []int) error {
	for _, k := range lags {
		if k <= 0 {
			return errors.ConfigurationError("lag must be positive, got %d", k)
		}
	}
	return nil
}

// ValidateWindows rejects non-positive window sizes
func ValidateWindows(windows []int) error {
	for _, w := range windows {
		if w <= 0 {
			return errors.ConfigurationError("rolling window must be positive, got %d", w)
		}
	}
	return nil
}

// ValidateStats rejects unknown rolling statistics
func ValidateStats(stats []string) error {
	for _, s := range stats {
		switch s {
		case StatMean, StatStd, StatMin, StatMax:
		default:
			return errors.ConfigurationError("unknown rolling statistic %q", s)
		}
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseInts parses a comma separated list such as "1,24"
func ParseInts(value string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(value, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.ConfigurationError("invalid integer %q in list %q", p, value)
		}
		out = append(out, n)
	}
	return out, nil
}

func getEnvIntsOrDefault(key string, defaultValue []int) ([]int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	return ParseInts(value)
}
