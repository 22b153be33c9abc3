package excel

import (
	"featprep/adapters/datareadiness/coercer"
)

// ExcelConfig holds configuration for a file data source
type ExcelConfig struct {
	FilePath       string                 `json:"file_path"`
	Sheet          string                 `json:"sheet"` // XLSX sheet; empty means the first sheet
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultExcelConfig returns sensible defaults for file processing
func DefaultExcelConfig(path string) ExcelConfig {
	return ExcelConfig{
		FilePath:       path,
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
