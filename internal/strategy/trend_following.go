package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/indicator"
	"github.com/tradearena/arena/internal/types"
)

// TrendFollowing trades EMA crossovers: high-confidence entries on the
// crossover tick itself, lower-confidence continuation entries while
// the trend persists. It remembers the previous tick's moving averages
// so a crossover is detected exactly once.
type TrendFollowing struct {
	base
	name string

	prevFast optional.Option[float64]
	prevSlow optional.Option[float64]
}

func (s *TrendFollowing) Name() string {
	if s.name != "" {
		return s.name
	}
	return string(KindTrendFollowing)
}

func (s *TrendFollowing) GenerateSignal(prices []float64, current types.Action) types.Signal {
	p := s.cfg.Params

	fast := indicator.EMA(prices, p.FastWindow)
	slow := indicator.EMA(prices, p.SlowWindow)
	atr := indicator.ATRFromPrices(prices, 14)
	rsi := indicator.RSI(prices, s.cfg.Filters.RSIWindow)
	vol := indicator.Volatility(prices, s.cfg.Filters.VolatilityWindow)

	indicators := map[string]optional.Option[float64]{
		"fast_ma":       fast,
		"slow_ma":       slow,
		"atr":           atr,
		"rsi":           rsi,
		"volatility":    vol,
		"current_price": lastPrice(prices),
	}

	if fast.IsNone() || slow.IsNone() {
		s.prevFast = fast
		s.prevSlow = slow
		return types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0,
			Reason:     reasonInsufficientData,
			Indicators: indicators,
		}
	}

	fastMA := fast.Unwrap()
	slowMA := slow.Unwrap()

	crossoverUp := false
	crossoverDown := false
	if s.prevFast.IsSome() && s.prevSlow.IsSome() {
		prevFast := s.prevFast.Unwrap()
		prevSlow := s.prevSlow.Unwrap()
		if prevFast <= prevSlow && fastMA > slowMA {
			crossoverUp = true
		} else if prevFast >= prevSlow && fastMA < slowMA {
			crossoverDown = true
		}
	}
	s.prevFast = fast
	s.prevSlow = slow

	var sig types.Signal
	switch {
	case crossoverUp:
		strength := 0.0
		if slowMA != 0 {
			strength = (fastMA - slowMA) / slowMA
		}
		sig = types.Signal{
			Action:     types.ActionLong,
			Confidence: clampConfidence(abs(strength)*50 + 0.6),
			Reason:     fmt.Sprintf("Bullish crossover (fast MA: %.2f, slow MA: %.2f)", fastMA, slowMA),
			Indicators: indicators,
		}
	case crossoverDown:
		strength := 0.0
		if slowMA != 0 {
			strength = (slowMA - fastMA) / slowMA
		}
		sig = types.Signal{
			Action:     types.ActionShort,
			Confidence: clampConfidence(abs(strength)*50 + 0.6),
			Reason:     fmt.Sprintf("Bearish crossover (fast MA: %.2f, slow MA: %.2f)", fastMA, slowMA),
			Indicators: indicators,
		}
	case fastMA > slowMA && current != types.ActionLong:
		sig = types.Signal{
			Action:     types.ActionLong,
			Confidence: 0.4,
			Reason:     "Uptrend continuation",
			Indicators: indicators,
		}
	case fastMA < slowMA && current != types.ActionShort:
		sig = types.Signal{
			Action:     types.ActionShort,
			Confidence: 0.4,
			Reason:     "Downtrend continuation",
			Indicators: indicators,
		}
	default:
		sig = types.Signal{
			Action:     current,
			Confidence: 0.5,
			Reason:     "Holding current trend position",
			Indicators: indicators,
		}
	}

	return s.finalize(sig, prices)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
