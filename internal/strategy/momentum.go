package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/indicator"
	"github.com/tradearena/arena/internal/types"
)

// Momentum buys strength: long on strong positive rate-of-change when
// RSI still has headroom, flat when momentum fades or RSI signals a
// reversal.
type Momentum struct {
	base
}

func (s *Momentum) Name() string { return string(KindMomentum) }

func (s *Momentum) GenerateSignal(prices []float64, current types.Action) types.Signal {
	p := s.cfg.Params

	mom := indicator.Momentum(prices, p.MomentumWindow)
	rsi := indicator.RSI(prices, p.RSIWindow)
	sma := indicator.SMA(prices, s.cfg.Filters.SMAWindow)
	vol := indicator.Volatility(prices, s.cfg.Filters.VolatilityWindow)

	indicators := map[string]optional.Option[float64]{
		"momentum":      mom,
		"rsi":           rsi,
		"sma":           sma,
		"volatility":    vol,
		"current_price": lastPrice(prices),
	}

	if mom.IsNone() || rsi.IsNone() {
		return types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0,
			Reason:     reasonInsufficientData,
			Indicators: indicators,
		}
	}

	m := mom.Unwrap()
	r := rsi.Unwrap()

	var sig types.Signal
	switch {
	case m > 2.0 && r < p.RSIOverbought:
		sig = types.Signal{
			Action:     types.ActionLong,
			Confidence: clampConfidence(m/10.0 + 0.4),
			Reason:     fmt.Sprintf("Strong positive momentum (%.2f%%), RSI: %.1f", m, r),
			Indicators: indicators,
		}
	case m < -2.0 && r > p.RSIOversold:
		sig = types.Signal{
			Action:     types.ActionShort,
			Confidence: clampConfidence(-m/10.0 + 0.4),
			Reason:     fmt.Sprintf("Strong negative momentum (%.2f%%), RSI: %.1f", m, r),
			Indicators: indicators,
		}
	case r > p.RSIOverbought && current == types.ActionLong:
		sig = types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("RSI overbought (%.1f), exiting long", r),
			Indicators: indicators,
		}
	case r < p.RSIOversold && current == types.ActionShort:
		sig = types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0.7,
			Reason:     fmt.Sprintf("RSI oversold (%.1f), exiting short", r),
			Indicators: indicators,
		}
	case abs(m) < 1.0:
		sig = types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0.6,
			Reason:     fmt.Sprintf("Weak momentum (%.2f%%)", m),
			Indicators: indicators,
		}
	default:
		sig = types.Signal{
			Action:     current,
			Confidence: 0.4,
			Reason:     "Moderate momentum, holding position",
			Indicators: indicators,
		}
	}

	return s.finalize(sig, prices)
}
