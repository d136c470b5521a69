package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"consultas/internal/core"
)

func TestBarPercent(t *testing.T) {
	tests := []struct {
		cents, max int64
		want       int
	}{
		{0, 100, 0},
		{100, 0, 0},
		{100, 100, 100},
		{50, 100, 50},
		{333, 1000, 33},
		{5, 30, 17},
		{1, 1000, 2},
		{200, 100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, barPercent(tt.cents, tt.max), "%d/%d", tt.cents, tt.max)
	}
}

func TestChartBars(t *testing.T) {
	s := core.YearSummary{Year: 2025}
	s.Months[0] = core.Money{Cents: 3000}
	s.Months[2] = core.Money{Cents: 500}

	bars := chartBars(s)
	assert.Len(t, bars, 12)
	assert.Equal(t, "Jan", bars[0].Label)
	assert.Equal(t, "Dez", bars[11].Label)

	assert.Equal(t, "R$ 30", bars[0].Amount)
	assert.Equal(t, 100, bars[0].Percent)
	assert.Equal(t, chartPlot, bars[0].Height)
	assert.Equal(t, chartBaseline-chartPlot, bars[0].Y)

	assert.Equal(t, "R$ 5", bars[2].Amount)
	assert.Equal(t, 17, bars[2].Percent)

	assert.Empty(t, bars[1].Amount)
	assert.Zero(t, bars[1].Height)
	assert.Equal(t, chartBaseline, bars[1].Y)

	for i := 1; i < len(bars); i++ {
		assert.Greater(t, bars[i].X, bars[i-1].X)
	}
	assert.LessOrEqual(t, bars[11].X+bars[11].Width, chartWidth-chartMargin)
}

func TestChartBarsEmptyYear(t *testing.T) {
	for _, b := range chartBars(core.YearSummary{Year: 2025}) {
		assert.Zero(t, b.Height)
		assert.Empty(t, b.Amount)
	}
}
