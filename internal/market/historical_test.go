package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// minuteBars builds n one-minute bars starting at start with the given
// close prices (open/high/low derived, volume 100 each).
func minuteBars(start time.Time, closes []float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * time.Minute),
			Open:      c - 0.5,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}

	return bars
}

func TestResampleBars(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start, []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109})

	resampled := resampleBars(bars, 5*time.Minute)
	require.Len(t, resampled, 2)

	first := resampled[0]
	assert.Equal(t, start, first.Timestamp)
	assert.Equal(t, 99.5, first.Open)   // open of the first minute
	assert.Equal(t, 105.0, first.High)  // max high across the bucket
	assert.Equal(t, 99.0, first.Low)    // min low across the bucket
	assert.Equal(t, 104.0, first.Close) // close of the last minute
	assert.Equal(t, 500.0, first.Volume)

	second := resampled[1]
	assert.Equal(t, start.Add(5*time.Minute), second.Timestamp)
	assert.Equal(t, 109.0, second.Close)
}

func TestHistoricalProviderAlignment(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	instrument := minuteBars(start, []float64{100, 101, 102, 103, 104, 105})
	// Benchmark missing the first 5 minutes: only the second bucket
	// overlaps at 5min resampling.
	benchmark := minuteBars(start.Add(5*time.Minute), []float64{400, 401, 402, 403, 404, 405})

	p, err := NewHistoricalProvider(instrument, benchmark, DefaultHistoricalConfig(types.Interval5Min))
	require.NoError(t, err)
	assert.Equal(t, 1, p.NumTicks())
	assert.Equal(t, 105.0, p.TickAt(0).Price)
}

func TestHistoricalProviderNoOverlap(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	instrument := minuteBars(start, []float64{100, 101, 102})
	benchmark := minuteBars(start.Add(24*time.Hour), []float64{400, 401, 402})

	_, err := NewHistoricalProvider(instrument, benchmark, DefaultHistoricalConfig(types.Interval1Min))
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestHistoricalProviderEmptyInput(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start, []float64{100, 101})

	_, err := NewHistoricalProvider(nil, bars, DefaultHistoricalConfig(types.Interval1Min))
	assert.True(t, errors.IsInsufficientDataError(err))

	_, err = NewHistoricalProvider(bars, nil, DefaultHistoricalConfig(types.Interval1Min))
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestHistoricalProviderLogReturns(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	instrument := minuteBars(start, []float64{100, 110, 121})
	benchmark := minuteBars(start, []float64{50, 55, 60.5})

	p, err := NewHistoricalProvider(instrument, benchmark, DefaultHistoricalConfig(types.Interval1Min))
	require.NoError(t, err)
	require.Equal(t, 3, p.NumTicks())

	// First return is filled with 0.
	assert.Zero(t, p.TickAt(0).BenchmarkReturn.Unwrap())

	expected := math.Log(55.0 / 50.0)
	assert.InDelta(t, expected, p.TickAt(1).BenchmarkReturn.Unwrap(), 1e-12)

	returns := p.BenchmarkReturns(2)
	require.Len(t, returns, 3)
	assert.InDelta(t, math.Log(60.5/55.0), returns[2], 1e-12)
}

func TestHistoricalProviderVolatilityDefaults(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	closes := make([]float64, 30)
	price := 100.0
	for i := range closes {
		if i%2 == 0 {
			price *= 1.01
		} else {
			price /= 1.005
		}
		closes[i] = price
	}

	p, err := NewHistoricalProvider(minuteBars(start, closes), minuteBars(start, closes),
		DefaultHistoricalConfig(types.Interval1Min))
	require.NoError(t, err)

	// Until the rolling window fills, the default 2% estimate is used.
	for i := 0; i < 20; i++ {
		assert.Equal(t, defaultVolatility, p.TickAt(i).Volatility, "tick %d", i)
	}

	// After the window fills, volatility is realized and annualized.
	assert.NotEqual(t, defaultVolatility, p.TickAt(25).Volatility)
	assert.Greater(t, p.TickAt(25).Volatility, 0.0)
}

func TestHistoricalProviderSummary(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	instrument := minuteBars(start, []float64{100, 101, 102})
	benchmark := minuteBars(start, []float64{400, 401, 402})

	p, err := NewHistoricalProvider(instrument, benchmark, DefaultHistoricalConfig(types.Interval1Min))
	require.NoError(t, err)

	s := p.Summary()
	assert.Equal(t, 3, s.NumTicks)
	assert.Equal(t, types.Interval1Min, s.Interval)
	assert.Equal(t, start, s.Start)
	assert.Equal(t, start.Add(2*time.Minute), s.End)
	assert.Equal(t, 100.0, s.InstrumentFirst)
	assert.Equal(t, 102.0, s.InstrumentLast)
	assert.Equal(t, 400.0, s.BenchmarkFirst)
	assert.Equal(t, 402.0, s.BenchmarkLast)
}

func TestIntervalBarsPerDay(t *testing.T) {
	perDay, err := types.Interval5Min.BarsPerDay()
	require.NoError(t, err)
	assert.Equal(t, 78.0, perDay)

	perDay, err = types.Interval1Min.BarsPerDay()
	require.NoError(t, err)
	assert.Equal(t, 390.0, perDay)

	_, err = types.Interval("2h").BarsPerDay()
	assert.Error(t, err)
}
