package encoding

import (
	"testing"

	"featprep/domain/table"
	"featprep/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weatherTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New(
		table.NewNumeric("temp", []float64{10, 12, 9, 11}),
		table.NewCategorical("weather", []string{"rain", "clear", "", "clouds"}),
		table.NewNumeric("price", []float64{50, 51, 52, 53}),
	)
	require.NoError(t, err)
	return tbl
}

func TestLabelEncode(t *testing.T) {
	out, encoders, err := LabelEncode(weatherTable(t), []string{"weather"})
	require.NoError(t, err)

	assert.Equal(t, []string{"temp", "weather", "price"}, out.Names())
	enc := encoders["weather"]
	require.NotNil(t, enc)
	assert.Equal(t, []string{"clear", "clouds", "rain"}, enc.Classes)

	c, _ := out.Column("weather")
	assert.Equal(t, table.KindNumeric, c.Kind())
	assert.Equal(t, 2.0, c.Float(0))
	assert.Equal(t, 0.0, c.Float(1))
	assert.True(t, c.IsMissing(2))
	assert.Equal(t, 1.0, c.Float(3))
}

func TestApplyLabelEncoders_RejectsUnseenLabel(t *testing.T) {
	_, encoders, err := LabelEncode(weatherTable(t), []string{"weather"})
	require.NoError(t, err)

	later, err := table.New(table.NewCategorical("weather", []string{"clear", "snow"}))
	require.NoError(t, err)
	_, err = ApplyLabelEncoders(later, encoders)
	assert.ErrorIs(t, err, errors.ErrConfiguration)

	same, err := table.New(table.NewCategorical("weather", []string{"rain", "rain"}))
	require.NoError(t, err)
	out, err := ApplyLabelEncoders(same, encoders)
	require.NoError(t, err)
	c, _ := out.Column("weather")
	assert.Equal(t, []float64{2, 2}, c.Floats())
}

func TestOneHotEncode(t *testing.T) {
	out, err := OneHotEncode(weatherTable(t), []string{"weather"}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "weather_clear", "weather_clouds", "weather_rain", "price"}, out.Names())

	rain, _ := out.Column("weather_rain")
	assert.Equal(t, []float64{1, 0, 0, 0}, rain.Floats())
	for _, name := range []string{"weather_clear", "weather_clouds", "weather_rain"} {
		c, _ := out.Column(name)
		assert.Equal(t, 0.0, c.Float(2), "missing row has no indicator set")
	}

	dropped, err := OneHotEncode(weatherTable(t), []string{"weather"}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"temp", "weather_clouds", "weather_rain", "price"}, dropped.Names())
}

func TestEncode_RejectsWrongColumns(t *testing.T) {
	_, _, err := LabelEncode(weatherTable(t), []string{"temp"})
	assert.ErrorIs(t, err, errors.ErrConfiguration)
	_, err = OneHotEncode(weatherTable(t), []string{"nope"}, false)
	assert.ErrorIs(t, err, errors.ErrConfiguration)
}
