package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `time,price_actual,city
2015-01-01 00:00:00+01:00,65.4,Madrid
2015-01-01 01:00:00+01:00,,Madrid
2015-01-01 02:00:00+01:00,64.0,
`

func TestDataReader_LoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	tbl, err := NewDataReader(DefaultExcelConfig(path), nil).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"time", "price_actual", "city"}, tbl.Names())
	assert.Equal(t, 3, tbl.Rows())

	price, _ := tbl.Column("price_actual")
	assert.Equal(t, table.KindNumeric, price.Kind())
	assert.True(t, math.IsNaN(price.Float(1)))

	ts, _ := tbl.Column("time")
	assert.Equal(t, table.KindTimestamp, ts.Kind())
	assert.Equal(t, 2, ts.Time(2).Hour())

	city, _ := tbl.Column("city")
	assert.True(t, city.IsMissing(2))
}

func TestDataReader_RejectsDuplicateHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,a\n1,2\n"), 0o644))

	_, err := NewDataReader(DefaultExcelConfig(path), nil).ReadData()
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	headerOnly := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(headerOnly, []byte("time,price_actual\n"), 0o644))
	_, err = NewDataReader(DefaultExcelConfig(headerOnly), nil).ReadData()
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestDataReader_MissingFile(t *testing.T) {
	_, err := NewDataReader(DefaultExcelConfig(filepath.Join(t.TempDir(), "none.xlsx")), nil).ReadData()
	assert.Error(t, err)
}

func TestWriteTable_RoundTrip(t *testing.T) {
	base := time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)
	tbl, err := table.New(
		table.NewTimestamp("time", []time.Time{base, base.Add(time.Hour)}),
		table.NewNumeric("price_actual", []float64{1.5, math.NaN()}),
		table.NewCategorical("city", []string{"Madrid", "Bilbao"}),
	)
	require.NoError(t, err)

	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out"+ext)
			require.NoError(t, WriteTable(path, tbl))

			back, err := NewDataReader(DefaultExcelConfig(path), nil).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tbl.Names(), back.Names())
			assert.Equal(t, 2, back.Rows())

			price, _ := back.Column("price_actual")
			assert.InDelta(t, 1.5, price.Float(0), 1e-9)
			assert.True(t, price.IsMissing(1))

			city, _ := back.Column("city")
			assert.Equal(t, "Bilbao", city.String(1))
		})
	}

	assert.Error(t, WriteTable(filepath.Join(t.TempDir(), "out.json"), tbl))
}

func TestFileSink_Save(t *testing.T) {
	tbl, err := table.New(table.NewNumeric("price_actual", []float64{3, 4}))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "features.csv")
	require.NoError(t, NewFileSink(path).Save(context.Background(), tbl))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "price_actual\n3\n4\n", string(data))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, NewFileSink(path).Save(ctx, tbl), context.Canceled)
}
