package metrics

import (
	"math"

	"github.com/moznion/go-optional"
)

// DefaultRollingBetaWindow is the window used for rolling beta and
// cumulative alpha when the caller does not override it.
const DefaultRollingBetaWindow = 20

// Beta is the CAPM beta of the strategy against the benchmark:
// Cov(r_s, r_b) / Var(r_b), with sample estimators. None when either
// series is too short or the benchmark has no variance.
func Beta(strategyReturns, benchmarkReturns []float64) optional.Option[float64] {
	if len(strategyReturns) < 2 || len(benchmarkReturns) < 2 {
		return optional.None[float64]()
	}
	n := min(len(strategyReturns), len(benchmarkReturns))
	strat := strategyReturns[:n]
	bench := benchmarkReturns[:n]

	meanBench := mean(bench)
	benchVar := sampleVariance(bench, meanBench)
	if benchVar == 0 {
		return optional.None[float64]()
	}
	cov := sampleCovariance(strat, bench, mean(strat), meanBench)
	return optional.Some(cov / benchVar)
}

// RollingBeta computes beta over a sliding window. The first window-1
// entries are NaN (not enough history), as are windows where the
// benchmark variance collapses to zero. Empty when either series is
// shorter than the window.
func RollingBeta(strategyReturns, benchmarkReturns []float64, window int) []float64 {
	if len(strategyReturns) < window || len(benchmarkReturns) < window {
		return nil
	}
	n := min(len(strategyReturns), len(benchmarkReturns))
	strat := strategyReturns[:n]
	bench := benchmarkReturns[:n]

	betas := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < window-1 {
			betas[i] = math.NaN()
			continue
		}
		ws := strat[i-window+1 : i+1]
		wb := bench[i-window+1 : i+1]

		meanB := mean(wb)
		benchVar := sampleVariance(wb, meanB)
		if benchVar == 0 {
			betas[i] = math.NaN()
			continue
		}
		betas[i] = sampleCovariance(ws, wb, mean(ws), meanB) / benchVar
	}
	return betas
}

// Alpha is the annualized CAPM alpha: the mean of r_s - beta*r_b scaled
// to a year of bars. The caller supplies beta so it is computed once.
func Alpha(strategyReturns, benchmarkReturns []float64, beta optional.Option[float64], barsPerYear float64) optional.Option[float64] {
	if len(strategyReturns) < 2 || len(benchmarkReturns) < 2 {
		return optional.None[float64]()
	}
	if beta.IsNone() {
		beta = Beta(strategyReturns, benchmarkReturns)
		if beta.IsNone() {
			return optional.None[float64]()
		}
	}
	b := beta.Unwrap()

	n := min(len(strategyReturns), len(benchmarkReturns))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += strategyReturns[i] - b*benchmarkReturns[i]
	}
	return optional.Some(sum / float64(n) * barsPerYear)
}

// CumulativeAlpha is the running sum of per-bar alphas computed against
// the rolling beta. Bars where the rolling beta is undefined contribute
// zero, so the curve starts flat until the window fills. Empty when the
// series are shorter than the window.
func CumulativeAlpha(strategyReturns, benchmarkReturns []float64, window int) []float64 {
	if len(strategyReturns) < window || len(benchmarkReturns) < window {
		return nil
	}
	n := min(len(strategyReturns), len(benchmarkReturns))
	strat := strategyReturns[:n]
	bench := benchmarkReturns[:n]

	rolling := RollingBeta(strat, bench, window)

	cumulative := make([]float64, n)
	runningSum := 0.0
	for i := 0; i < n; i++ {
		if i < window-1 || math.IsNaN(rolling[i]) {
			cumulative[i] = runningSum
			continue
		}
		runningSum += strat[i] - rolling[i]*bench[i]
		cumulative[i] = runningSum
	}
	return cumulative
}

// InformationRatio is annualized mean excess return over tracking
// error. None when the tracking error is zero.
func InformationRatio(strategyReturns, benchmarkReturns []float64, barsPerYear float64) optional.Option[float64] {
	if len(strategyReturns) < 2 || len(benchmarkReturns) < 2 {
		return optional.None[float64]()
	}
	n := min(len(strategyReturns), len(benchmarkReturns))
	excess := make([]float64, n)
	for i := 0; i < n; i++ {
		excess[i] = strategyReturns[i] - benchmarkReturns[i]
	}

	trackingError := sampleStd(excess, mean(excess))
	if trackingError == 0 {
		return optional.None[float64]()
	}
	return optional.Some(mean(excess) / trackingError * math.Sqrt(barsPerYear))
}
