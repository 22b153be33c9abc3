package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"featprep/domain/table"
	"featprep/ports"

	"github.com/xuri/excelize/v2"
)

const outputSheet = "Sheet1"

// fileSink writes tables to a single CSV or XLSX path
type fileSink struct {
	path string
}

// NewFileSink returns a sink writing to path
func NewFileSink(path string) ports.TableSink {
	return &fileSink{path: path}
}

func (s *fileSink) Save(ctx context.Context, tbl *table.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return WriteTable(s.path, tbl)
}

// WriteTable writes tbl to path as CSV or XLSX depending on the extension.
// Missing cells are written empty; row and column order are preserved.
func WriteTable(path string, tbl *table.Table) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return writeCSV(path, tbl)
	case ".xlsx":
		return writeXLSX(path, tbl)
	default:
		return fmt.Errorf("unsupported output extension for %s (want .csv or .xlsx)", path)
	}
}

func writeCSV(path string, tbl *table.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(tbl.Names()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	cols := tbl.Columns()
	record := make([]string, len(cols))
	for r := 0; r < tbl.Rows(); r++ {
		for i, c := range cols {
			record[i] = formatCell(c, r)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", r, err)
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, tbl *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, tbl.Width())
	for i, n := range tbl.Names() {
		header[i] = n
	}
	if err := f.SetSheetRow(outputSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	cols := tbl.Columns()
	row := make([]interface{}, len(cols))
	for r := 0; r < tbl.Rows(); r++ {
		for i, c := range cols {
			switch {
			case c.IsMissing(r):
				row[i] = nil
			case c.Kind() == table.KindNumeric:
				row[i] = c.Float(r)
			default:
				row[i] = c.String(r)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(outputSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func formatCell(c *table.Column, r int) string {
	if c.IsMissing(r) {
		return ""
	}
	if c.Kind() == table.KindNumeric {
		return strconv.FormatFloat(c.Float(r), 'g', -1, 64)
	}
	return c.String(r)
}
