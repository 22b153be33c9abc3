package excel

// RawRowData represents a row of raw spreadsheet data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents a complete raw dataset read from CSV or XLSX
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// RowMaps returns the rows as plain maps for the coercer
func (d *ExcelData) RowMaps() []map[string]string {
	rows := make([]map[string]string, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r
	}
	return rows
}
