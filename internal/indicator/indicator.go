// Package indicator provides stateless technical indicators over a price
// history slice. Every function returns None when the history is shorter
// than the window it needs, so "not enough data yet" is a typed state
// instead of a sentinel value threading through arithmetic.
package indicator

import (
	"math"

	"github.com/moznion/go-optional"
)

// annualizationPeriods is the default number of periods per year used by
// the realized volatility estimate.
const annualizationPeriods = 252.0

// SMA calculates the simple moving average of the last window prices.
func SMA(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window {
		return optional.None[float64]()
	}

	return optional.Some(mean(prices[len(prices)-window:]))
}

// EMA calculates the exponential moving average with multiplier
// 2/(window+1), seeded at the first price and folded over the whole
// history.
func EMA(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window {
		return optional.None[float64]()
	}

	multiplier := 2.0 / float64(window+1)
	ema := prices[0]

	for _, price := range prices[1:] {
		ema = (price-ema)*multiplier + ema
	}

	return optional.Some(ema)
}

// RSI calculates the Relative Strength Index over the last window price
// changes. The value is between 0 and 100; 100 when there are no losses.
func RSI(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window+1 {
		return optional.None[float64]()
	}

	recent := prices[len(prices)-(window+1):]

	var gainSum, lossSum float64

	for i := 1; i < len(recent); i++ {
		delta := recent[i] - recent[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}

	avgGain := gainSum / float64(window)
	avgLoss := lossSum / float64(window)

	if avgLoss == 0 {
		return optional.Some(100.0)
	}

	rs := avgGain / avgLoss

	return optional.Some(100.0 - 100.0/(1.0+rs))
}

// ATRFromPrices estimates the average true range from a close-only series
// as the mean absolute price change over the window.
func ATRFromPrices(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window+1 {
		return optional.None[float64]()
	}

	recent := prices[len(prices)-(window+1):]

	var sum float64

	for i := 1; i < len(recent); i++ {
		sum += math.Abs(recent[i] - recent[i-1])
	}

	return optional.Some(sum / float64(window))
}

// Momentum calculates the rate of change over the window as a percentage.
func Momentum(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window+1 {
		return optional.None[float64]()
	}

	base := prices[len(prices)-window-1]
	if base == 0 {
		return optional.None[float64]()
	}

	return optional.Some((prices[len(prices)-1] - base) / base * 100.0)
}

// ZScore calculates the z-score of the latest price against the mean and
// standard deviation of the last window prices. Returns 0 when the window
// has zero variance.
func ZScore(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window {
		return optional.None[float64]()
	}

	recent := prices[len(prices)-window:]
	m := mean(recent)
	sd := stddev(recent, m)

	if sd == 0 {
		return optional.Some(0.0)
	}

	return optional.Some((prices[len(prices)-1] - m) / sd)
}

// Volatility calculates the annualized standard deviation of log returns
// over the last window periods.
func Volatility(prices []float64, window int) optional.Option[float64] {
	if window <= 0 || len(prices) < window+1 {
		return optional.None[float64]()
	}

	recent := prices[len(prices)-(window+1):]
	returns := make([]float64, 0, window)

	for i := 1; i < len(recent); i++ {
		returns = append(returns, math.Log(recent[i]/recent[i-1]))
	}

	m := mean(returns)

	return optional.Some(stddev(returns, m) * math.Sqrt(annualizationPeriods))
}

// Bands holds the three Bollinger band values.
type Bands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// BollingerBands calculates Bollinger bands over the last window prices
// with the given standard deviation multiple.
func BollingerBands(prices []float64, window int, numStd float64) optional.Option[Bands] {
	if window <= 0 || len(prices) < window {
		return optional.None[Bands]()
	}

	recent := prices[len(prices)-window:]
	m := mean(recent)
	sd := stddev(recent, m)

	return optional.Some(Bands{
		Upper:  m + numStd*sd,
		Middle: m,
		Lower:  m - numStd*sd,
	})
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stddev is the population standard deviation around the given mean.
func stddev(values []float64, mean float64) float64 {
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)))
}
