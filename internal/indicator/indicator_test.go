package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func constantPrices(value float64, n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = value
	}

	return prices
}

func risingPrices(start, step float64, n int) []float64 {
	prices := make([]float64, n)
	for i := range prices {
		prices[i] = start + step*float64(i)
	}

	return prices
}

func TestSMA(t *testing.T) {
	t.Run("insufficient data returns none", func(t *testing.T) {
		assert.True(t, SMA([]float64{1, 2, 3}, 5).IsNone())
		assert.True(t, SMA(nil, 5).IsNone())
	})

	t.Run("averages the last window", func(t *testing.T) {
		prices := []float64{10, 20, 30, 40}
		v := SMA(prices, 2)
		assert.True(t, v.IsSome())
		assert.InDelta(t, 35.0, v.Unwrap(), 1e-9)
	})

	t.Run("zero window returns none", func(t *testing.T) {
		assert.True(t, SMA([]float64{1, 2, 3}, 0).IsNone())
	})
}

func TestEMA(t *testing.T) {
	t.Run("insufficient data returns none", func(t *testing.T) {
		assert.True(t, EMA([]float64{1, 2}, 3).IsNone())
	})

	t.Run("constant series equals the constant", func(t *testing.T) {
		v := EMA(constantPrices(50, 40), 10)
		assert.True(t, v.IsSome())
		assert.InDelta(t, 50.0, v.Unwrap(), 1e-9)
	})

	t.Run("tracks recent prices more closely than SMA", func(t *testing.T) {
		prices := risingPrices(100, 1, 60)
		ema := EMA(prices, 10).Unwrap()
		sma := SMA(prices, 30).Unwrap()
		assert.Greater(t, ema, sma)
	})
}

func TestRSI(t *testing.T) {
	t.Run("needs window+1 points", func(t *testing.T) {
		assert.True(t, RSI(constantPrices(10, 14), 14).IsNone())
		assert.True(t, RSI(constantPrices(10, 15), 14).IsSome())
	})

	t.Run("all gains is 100", func(t *testing.T) {
		v := RSI(risingPrices(100, 1, 20), 14)
		assert.InDelta(t, 100.0, v.Unwrap(), 1e-9)
	})

	t.Run("all losses is 0", func(t *testing.T) {
		v := RSI(risingPrices(100, -1, 20), 14)
		assert.InDelta(t, 0.0, v.Unwrap(), 1e-9)
	})

	t.Run("balanced gains and losses near 50", func(t *testing.T) {
		prices := make([]float64, 0, 21)
		for i := 0; i <= 20; i++ {
			if i%2 == 0 {
				prices = append(prices, 100)
			} else {
				prices = append(prices, 101)
			}
		}
		v := RSI(prices, 14)
		assert.InDelta(t, 50.0, v.Unwrap(), 5.0)
	})
}

func TestMomentum(t *testing.T) {
	t.Run("insufficient data returns none", func(t *testing.T) {
		assert.True(t, Momentum(constantPrices(10, 14), 14).IsNone())
	})

	t.Run("percentage change over the window", func(t *testing.T) {
		prices := append(constantPrices(100, 15), 110)
		v := Momentum(prices, 15)
		assert.InDelta(t, 10.0, v.Unwrap(), 1e-9)
	})
}

func TestZScore(t *testing.T) {
	t.Run("zero variance window returns zero", func(t *testing.T) {
		v := ZScore(constantPrices(42, 30), 20)
		assert.True(t, v.IsSome())
		assert.Zero(t, v.Unwrap())
	})

	t.Run("price far below mean is strongly negative", func(t *testing.T) {
		prices := constantPrices(100, 19)
		prices = append(prices, 80)
		v := ZScore(prices, 20)
		assert.Less(t, v.Unwrap(), -2.0)
	})

	t.Run("symmetric around the mean", func(t *testing.T) {
		up := append(constantPrices(100, 19), 120)
		down := append(constantPrices(100, 19), 80)
		assert.InDelta(t, ZScore(up, 20).Unwrap(), -ZScore(down, 20).Unwrap(), 1e-9)
	})
}

func TestVolatility(t *testing.T) {
	t.Run("constant prices have zero volatility", func(t *testing.T) {
		v := Volatility(constantPrices(100, 30), 20)
		assert.Zero(t, v.Unwrap())
	})

	t.Run("annualized with sqrt 252", func(t *testing.T) {
		// Alternate +1%/-1% log-ish moves; volatility should be close to
		// 1% per period scaled by sqrt(252).
		prices := []float64{100}
		for i := 0; i < 30; i++ {
			last := prices[len(prices)-1]
			if i%2 == 0 {
				prices = append(prices, last*1.01)
			} else {
				prices = append(prices, last/1.01)
			}
		}
		v := Volatility(prices, 20).Unwrap()
		perPeriod := math.Log(1.01)
		assert.InDelta(t, perPeriod*math.Sqrt(252), v, 0.02)
	})
}

func TestATRFromPrices(t *testing.T) {
	prices := []float64{100, 102, 99, 103, 101}
	v := ATRFromPrices(prices, 4)
	assert.True(t, v.IsSome())
	assert.InDelta(t, (2.0+3.0+4.0+2.0)/4.0, v.Unwrap(), 1e-9)

	assert.True(t, ATRFromPrices(prices, 5).IsNone())
}

func TestBollingerBands(t *testing.T) {
	t.Run("insufficient data returns none", func(t *testing.T) {
		assert.True(t, BollingerBands([]float64{1, 2}, 20, 2).IsNone())
	})

	t.Run("constant prices collapse to the mean", func(t *testing.T) {
		b := BollingerBands(constantPrices(100, 25), 20, 2).Unwrap()
		assert.Equal(t, 100.0, b.Upper)
		assert.Equal(t, 100.0, b.Middle)
		assert.Equal(t, 100.0, b.Lower)
	})

	t.Run("bands are symmetric around the middle", func(t *testing.T) {
		prices := risingPrices(100, 0.5, 40)
		b := BollingerBands(prices, 20, 2).Unwrap()
		assert.InDelta(t, b.Middle-b.Lower, b.Upper-b.Middle, 1e-9)
		assert.Greater(t, b.Upper, b.Lower)
	})
}
