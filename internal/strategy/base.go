package strategy

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/indicator"
	"github.com/tradearena/arena/internal/types"
)

const (
	// Confidence damping applied by each filter when it triggers.
	trendFilterDamping      = 0.5
	rsiFilterDamping        = 0.5
	volatilityFilterDamping = 0.7

	reasonInsufficientData = "Insufficient data for signal generation"
)

// Annualized volatility of a "calm" market, the reference point for the
// volatility filter threshold.
var baselineAnnualVolatility = 0.02 * math.Sqrt(252)

// base carries the shared configuration and the post-signal filter
// stack. Concrete strategies embed it.
type base struct {
	cfg Config
}

// PositionSize converts the configured equity percentage into units at
// the given price.
func (b *base) PositionSize(equity, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return equity * b.cfg.Risk.PositionSizePct / 100.0 / price
}

// applyFilters runs the post-signal filter stack. Each filter can only
// dampen confidence; the action is never changed here.
func (b *base) applyFilters(sig types.Signal, prices []float64) types.Signal {
	f := b.cfg.Filters
	if sig.Action == types.ActionLong {
		if f.UseSMA {
			if sma := indicator.SMA(prices, f.SMAWindow); sma.IsSome() && prices[len(prices)-1] < sma.Unwrap() {
				sig.Confidence *= trendFilterDamping
			}
		}
		if f.UseRSI {
			if rsi := indicator.RSI(prices, f.RSIWindow); rsi.IsSome() && rsi.Unwrap() >= f.RSIOverbought {
				sig.Confidence *= rsiFilterDamping
			}
		}
	}
	if f.UseVolatilityFilter && sig.Action != types.ActionFlat {
		if vol := indicator.Volatility(prices, f.VolatilityWindow); vol.IsSome() && vol.Unwrap() > f.VolatilityThreshold*baselineAnnualVolatility {
			sig.Confidence *= volatilityFilterDamping
		}
	}
	return sig
}

// finalize applies the filter stack and the long-only clamp. Every
// strategy routes its signal through here before returning it.
func (b *base) finalize(sig types.Signal, prices []float64) types.Signal {
	sig = b.applyFilters(sig, prices)
	if sig.Action == types.ActionShort {
		sig.Action = types.ActionFlat
	}
	return sig
}

func lastPrice(prices []float64) optional.Option[float64] {
	if len(prices) == 0 {
		return optional.None[float64]()
	}
	return optional.Some(prices[len(prices)-1])
}

// min of a/b for confidence clamping without pulling in generics noise.
func clampConfidence(c float64) float64 {
	return math.Min(c, 1.0)
}
