package metrics

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// Report bundles every metric computed for one agent. Ratio metrics are
// optional because they are undefined on degenerate inputs (flat
// curves, no trades, no benchmark); every present value is finite.
type Report struct {
	FinalEquity    float64
	TotalReturnPct float64
	MaxDrawdownPct float64
	TotalTrades    int
	SurvivalTicks  int

	Sharpe       optional.Option[float64]
	Calmar       optional.Option[float64]
	Sortino      optional.Option[float64]
	WinRatePct   optional.Option[float64]
	ProfitFactor optional.Option[float64]

	Alpha            optional.Option[float64]
	Beta             optional.Option[float64]
	InformationRatio optional.Option[float64]
	CumulativeAlpha  []float64
}

// Compute calculates the full metric report for one agent. The CAPM
// block stays None/empty when benchmarkReturns is empty (synthetic
// markets have no benchmark). barsPerYear annualizes the per-bar CAPM
// figures and comes from the trading interval.
func Compute(
	equityCurve []float64,
	trades []types.Trade,
	initialEquity float64,
	survivalTicks int,
	benchmarkReturns []float64,
	barsPerYear float64,
) (Report, error) {
	if initialEquity <= 0 {
		return Report{}, errors.Newf(errors.ErrCodeMetricsInput, "initial equity must be positive, got %g", initialEquity)
	}
	if barsPerYear <= 0 {
		return Report{}, errors.Newf(errors.ErrCodeMetricsInput, "bars per year must be positive, got %g", barsPerYear)
	}
	for _, eq := range equityCurve {
		if math.IsNaN(eq) || math.IsInf(eq, 0) {
			return Report{}, errors.New(errors.ErrCodeMetricsInput, "equity curve contains a non-finite value")
		}
	}

	finalEquity := initialEquity
	if len(equityCurve) > 0 {
		finalEquity = equityCurve[len(equityCurve)-1]
	}

	closed := 0
	for _, t := range trades {
		if t.Action.IsClose() {
			closed++
		}
	}

	report := Report{
		FinalEquity:    finalEquity,
		TotalReturnPct: (finalEquity - initialEquity) / initialEquity * 100,
		MaxDrawdownPct: MaxDrawdown(equityCurve),
		TotalTrades:    closed,
		SurvivalTicks:  survivalTicks,
		Sharpe:         sanitize(Sharpe(equityCurve, 0)),
		Calmar:         sanitize(Calmar(equityCurve)),
		Sortino:        sanitize(Sortino(equityCurve, 0)),
		WinRatePct:     sanitize(WinRate(trades)),
		ProfitFactor:   sanitize(ProfitFactor(trades)),
	}

	if len(benchmarkReturns) > 0 {
		strategyReturns := LogReturns(equityCurve)

		beta := Beta(strategyReturns, benchmarkReturns)
		report.Beta = sanitize(beta)
		report.Alpha = sanitize(Alpha(strategyReturns, benchmarkReturns, beta, barsPerYear))
		report.InformationRatio = sanitize(InformationRatio(strategyReturns, benchmarkReturns, barsPerYear))
		report.CumulativeAlpha = CumulativeAlpha(strategyReturns, benchmarkReturns, DefaultRollingBetaWindow)
	}

	return report, nil
}

// sanitize enforces the boundary contract: non-finite values never
// leave the metrics engine, they become None.
func sanitize(v optional.Option[float64]) optional.Option[float64] {
	if v.IsSome() {
		f := v.Unwrap()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return optional.None[float64]()
		}
	}
	return v
}
