package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundHalfUp1(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0, 0},
		{177.9, 177.9},
		{125.65, 125.7},
		{125.64, 125.6},
		{2.25, 2.3},
		{0.04, 0.0},
		{0.05, 0.1},
		{1000.0, 1000.0},
	}
	for _, c := range cases {
		assert.InDelta(t, c.want, RoundHalfUp1(c.in), 1e-9, "RoundHalfUp1(%v)", c.in)
	}
}

func TestKgToTonnes(t *testing.T) {
	assert.InDelta(t, 177.9, KgToTonnes(177900), 1e-9)
	assert.InDelta(t, 0.0, KgToTonnes(0), 1e-9)
	assert.InDelta(t, 0.0005, KgToTonnes(0.5), 1e-9)
}

func TestYearBounds(t *testing.T) {
	start, end := YearBounds(2023, nil)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), end)

	jakarta, err := time.LoadLocation("Asia/Jakarta")
	assert.NoError(t, err)
	start, end = YearBounds(2023, jakarta)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, jakarta), start)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, jakarta), end)
}

func TestCoveragePct(t *testing.T) {
	empty := &PeriodEmissions{}
	assert.Equal(t, 100.0, empty.CoveragePct())

	partial := &PeriodEmissions{TotalRows: 3, ResolvedRows: 2}
	assert.InDelta(t, 66.7, partial.CoveragePct(), 1e-9)
}
