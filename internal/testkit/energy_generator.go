// Package testkit generates deterministic synthetic datasets for tests
package testkit

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"featprep/adapters/datareadiness/coercer"
	"featprep/domain/table"
)

// Column names produced by the energy generator
const (
	ColTime    = "time"
	ColPrice   = "price_actual"
	ColLoad    = "total_load_actual"
	ColSolar   = "generation_solar"
	ColWind    = "generation_wind_onshore"
	ColTemp    = "temp"
	ColMarine  = "generation_marine"
	ColWeather = "weather_main"
	ColCity    = "city_name"
	TimeLayout = "2006-01-02 15:04:05-07:00"
)

// EnergyGeneratorConfig configures the hourly energy market generator
type EnergyGeneratorConfig struct {
	Hours    int       `json:"hours"`
	Start    time.Time `json:"start"`
	GapRate  float64   `json:"gap_rate"` // probability a driver cell is left blank
	Seed     int64     `json:"seed"`
	WithText bool      `json:"with_text"` // include categorical weather/city columns
}

// DefaultEnergyConfig returns a small gap-free hourly dataset
func DefaultEnergyConfig() EnergyGeneratorConfig {
	return EnergyGeneratorConfig{
		Hours:    100,
		Start:    time.Date(2015, 1, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600)),
		GapRate:  0,
		Seed:     42,
		WithText: true,
	}
}

// EnergyDataGenerator produces raw string rows the way a CSV export looks
type EnergyDataGenerator struct {
	config EnergyGeneratorConfig
	rng    *rand.Rand
}

// NewEnergyDataGenerator creates a new generator
func NewEnergyDataGenerator(config EnergyGeneratorConfig) *EnergyDataGenerator {
	return &EnergyDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Headers returns the generated column order
func (g *EnergyDataGenerator) Headers() []string {
	h := []string{ColTime, ColLoad, ColSolar, ColWind, ColTemp, ColMarine}
	if g.config.WithText {
		h = append(h, ColWeather, ColCity)
	}
	return append(h, ColPrice)
}

// GenerateRows returns one raw row per hour. The price target is always
// present; driver cells are blanked with probability GapRate.
func (g *EnergyDataGenerator) GenerateRows() []map[string]string {
	weather := []string{"clear", "clouds", "rain"}
	cities := []string{"Madrid", "Valencia", "Bilbao"}

	rows := make([]map[string]string, 0, g.config.Hours)
	for i := 0; i < g.config.Hours; i++ {
		ts := g.config.Start.Add(time.Duration(i) * time.Hour)
		hour := float64(ts.Hour())
		daily := math.Sin(2 * math.Pi * (hour - 6) / 24)

		load := 28000 + 6000*daily + g.rng.NormFloat64()*500
		solar := math.Max(0, 3000*daily) + g.rng.Float64()*100
		wind := 5000 + g.rng.NormFloat64()*1500
		temp := 10 + 6*daily + g.rng.NormFloat64()
		price := 20 + 0.0015*load - 0.0008*wind + g.rng.NormFloat64()*2

		row := map[string]string{
			ColTime:   ts.Format(TimeLayout),
			ColLoad:   g.maybeBlank(load),
			ColSolar:  g.maybeBlank(solar),
			ColWind:   g.maybeBlank(wind),
			ColTemp:   g.maybeBlank(temp),
			ColMarine: "0",
			ColPrice:  strconv.FormatFloat(price, 'f', 2, 64),
		}
		if g.config.WithText {
			row[ColWeather] = g.maybeBlankText(weather[g.rng.Intn(len(weather))])
			row[ColCity] = cities[i%len(cities)]
		}
		rows = append(rows, row)
	}
	return rows
}

// GenerateTable builds the typed table through the default coercer
func (g *EnergyDataGenerator) GenerateTable() (*table.Table, error) {
	tbl, _, err := coercer.NewTypeCoercer(coercer.DefaultCoercionConfig()).BuildTable(g.Headers(), g.GenerateRows())
	return tbl, err
}

func (g *EnergyDataGenerator) maybeBlank(v float64) string {
	if g.rng.Float64() < g.config.GapRate {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func (g *EnergyDataGenerator) maybeBlankText(v string) string {
	if g.rng.Float64() < g.config.GapRate {
		return ""
	}
	return v
}
