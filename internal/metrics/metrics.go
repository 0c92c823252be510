// Package metrics computes terminal and path-dependent performance
// statistics over an agent's equity curve, including CAPM alpha/beta
// against a benchmark return series.
package metrics

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/types"
)

const tradingDaysPerYear = 252.0

// LogReturns converts an equity curve into per-tick log returns.
// Curves shorter than two points have no returns.
func LogReturns(equityCurve []float64) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}
	returns := make([]float64, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		returns[i-1] = math.Log(equityCurve[i] / equityCurve[i-1])
	}
	return returns
}

func simpleReturns(equityCurve []float64) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}
	returns := make([]float64, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		returns[i-1] = (equityCurve[i] - equityCurve[i-1]) / equityCurve[i-1]
	}
	return returns
}

// Sharpe returns the annualized Sharpe ratio of the equity curve, or
// None when the curve is too short or its returns have no variance.
func Sharpe(equityCurve []float64, riskFreeRate float64) optional.Option[float64] {
	returns := simpleReturns(equityCurve)
	if len(returns) == 0 {
		return optional.None[float64]()
	}

	m := mean(returns)
	sd := populationStd(returns, m)
	if sd == 0 {
		return optional.None[float64]()
	}

	annualizedMean := m * tradingDaysPerYear
	annualizedStd := sd * math.Sqrt(tradingDaysPerYear)
	return optional.Some((annualizedMean - riskFreeRate) / annualizedStd)
}

// MaxDrawdown returns the largest peak-to-trough decline as a positive
// percentage.
func MaxDrawdown(equityCurve []float64) float64 {
	if len(equityCurve) < 2 {
		return 0
	}
	peak := equityCurve[0]
	maxDD := 0.0
	for _, eq := range equityCurve {
		if eq > peak {
			peak = eq
		}
		dd := (peak - eq) / peak * 100
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// Calmar returns annualized return divided by max drawdown. With zero
// drawdown the ratio is undefined for flat-or-losing curves and +Inf
// for winning ones; the +Inf is normalized to None by Compute before
// results cross the boundary.
func Calmar(equityCurve []float64) optional.Option[float64] {
	if len(equityCurve) < 2 {
		return optional.None[float64]()
	}

	totalReturn := (equityCurve[len(equityCurve)-1] - equityCurve[0]) / equityCurve[0]
	numPeriods := float64(len(equityCurve) - 1)
	annualized := math.Pow(1+totalReturn, tradingDaysPerYear/numPeriods) - 1
	annualizedPct := annualized * 100

	maxDD := MaxDrawdown(equityCurve)
	if maxDD == 0 {
		if annualizedPct <= 0 {
			return optional.None[float64]()
		}
		return optional.Some(math.Inf(1))
	}
	return optional.Some(annualizedPct / maxDD)
}

// Sortino is Sharpe with only downside volatility in the denominator.
// None when there are no negative returns to measure downside with.
func Sortino(equityCurve []float64, riskFreeRate float64) optional.Option[float64] {
	returns := simpleReturns(equityCurve)
	if len(returns) == 0 {
		return optional.None[float64]()
	}

	var negative []float64
	for _, r := range returns {
		if r < 0 {
			negative = append(negative, r)
		}
	}
	if len(negative) == 0 {
		return optional.None[float64]()
	}

	downsideStd := populationStd(negative, mean(negative)) * math.Sqrt(tradingDaysPerYear)
	if downsideStd == 0 {
		return optional.None[float64]()
	}
	annualizedMean := mean(returns) * tradingDaysPerYear
	return optional.Some((annualizedMean - riskFreeRate) / downsideStd)
}

// WinRate is the share of closing trades with positive realized P&L,
// as a percentage. None when no trades closed.
func WinRate(trades []types.Trade) optional.Option[float64] {
	closed, wins := 0, 0
	for _, t := range trades {
		if !t.Action.IsClose() {
			continue
		}
		closed++
		if t.Pnl > 0 {
			wins++
		}
	}
	if closed == 0 {
		return optional.None[float64]()
	}
	return optional.Some(float64(wins) / float64(closed) * 100)
}

// ProfitFactor is gross profit over gross loss across closing trades.
// None when there were no losses and no profits; +Inf (normalized by
// Compute) when profitable with zero losses.
func ProfitFactor(trades []types.Trade) optional.Option[float64] {
	grossProfit, grossLoss := 0.0, 0.0
	for _, t := range trades {
		if !t.Action.IsClose() {
			continue
		}
		if t.Pnl > 0 {
			grossProfit += t.Pnl
		} else if t.Pnl < 0 {
			grossLoss += -t.Pnl
		}
	}
	if grossLoss == 0 {
		if grossProfit == 0 {
			return optional.None[float64]()
		}
		return optional.Some(math.Inf(1))
	}
	return optional.Some(grossProfit / grossLoss)
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStd is the ddof=0 standard deviation.
func populationStd(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// sampleStd is the ddof=1 standard deviation, used for tracking error
// and the beta estimators.
func sampleStd(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func sampleVariance(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values)-1)
}

func sampleCovariance(xs, ys []float64, meanX, meanY float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - meanX) * (ys[i] - meanY)
	}
	return sum / float64(len(xs)-1)
}
