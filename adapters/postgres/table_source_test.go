package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRowToStrings(t *testing.T) {
	ts := time.Date(2015, 1, 1, 5, 0, 0, 0, time.FixedZone("CET", 3600))
	got := rowToStrings(
		[]string{"time", "price", "load", "city", "flag", "note"},
		[]interface{}{ts, 65.25, int64(28000), []byte("Madrid"), true, nil},
	)

	assert.Equal(t, map[string]string{
		"time":  "2015-01-01T05:00:00+01:00",
		"price": "65.25",
		"load":  "28000",
		"city":  "Madrid",
		"flag":  "true",
		"note":  "",
	}, got)
}
