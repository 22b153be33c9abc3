package testkit

import (
	"testing"

	"featprep/domain/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnergyDataGenerator_Deterministic(t *testing.T) {
	cfg := DefaultEnergyConfig()
	cfg.GapRate = 0.1

	a := NewEnergyDataGenerator(cfg).GenerateRows()
	b := NewEnergyDataGenerator(cfg).GenerateRows()
	assert.Equal(t, a, b)
	assert.Len(t, a, cfg.Hours)
}

func TestEnergyDataGenerator_Table(t *testing.T) {
	cfg := DefaultEnergyConfig()
	cfg.GapRate = 0.1

	tbl, err := NewEnergyDataGenerator(cfg).GenerateTable()
	require.NoError(t, err)
	assert.Equal(t, cfg.Hours, tbl.Rows())

	kinds := map[string]table.Kind{
		ColTime:    table.KindTimestamp,
		ColPrice:   table.KindNumeric,
		ColLoad:    table.KindNumeric,
		ColMarine:  table.KindNumeric,
		ColWeather: table.KindCategorical,
		ColCity:    table.KindCategorical,
	}
	for name, want := range kinds {
		c, ok := tbl.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, want, c.Kind(), name)
	}

	price, _ := tbl.Column(ColPrice)
	assert.Zero(t, price.MissingCount(), "target is never blank")
	assert.Positive(t, tbl.MissingCells(), "drivers carry gaps")
}
