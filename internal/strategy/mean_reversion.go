package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/indicator"
	"github.com/tradearena/arena/internal/types"
)

// MeanReversion bets on price returning to its moving average: long
// when the z-score is far below zero, flat when price is back near the
// mean. The symmetric overbought side exists in the signal model but is
// clamped to FLAT by long-only enforcement.
type MeanReversion struct {
	base
}

func (s *MeanReversion) Name() string { return string(KindMeanReversion) }

func (s *MeanReversion) GenerateSignal(prices []float64, current types.Action) types.Signal {
	p := s.cfg.Params

	sma := indicator.SMA(prices, p.LookbackWindow)
	zscore := indicator.ZScore(prices, p.LookbackWindow)
	rsi := indicator.RSI(prices, s.cfg.Filters.RSIWindow)
	vol := indicator.Volatility(prices, s.cfg.Filters.VolatilityWindow)

	indicators := map[string]optional.Option[float64]{
		"sma":           sma,
		"z_score":       zscore,
		"rsi":           rsi,
		"volatility":    vol,
		"current_price": lastPrice(prices),
	}

	if zscore.IsNone() || sma.IsNone() {
		return types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0,
			Reason:     reasonInsufficientData,
			Indicators: indicators,
		}
	}

	z := zscore.Unwrap()
	var sig types.Signal
	switch {
	case z < -p.EntryThreshold:
		// Far below the mean, expect reversion up.
		sig = types.Signal{
			Action:     types.ActionLong,
			Confidence: clampConfidence(-z / 4.0),
			Reason:     fmt.Sprintf("Price oversold (z-score: %.2f)", z),
			Indicators: indicators,
		}
	case z > p.EntryThreshold:
		sig = types.Signal{
			Action:     types.ActionShort,
			Confidence: clampConfidence(z / 4.0),
			Reason:     fmt.Sprintf("Price overbought (z-score: %.2f)", z),
			Indicators: indicators,
		}
	case z > -p.ExitThreshold && z < p.ExitThreshold:
		sig = types.Signal{
			Action:     types.ActionFlat,
			Confidence: 0.8,
			Reason:     fmt.Sprintf("Price near mean (z-score: %.2f)", z),
			Indicators: indicators,
		}
	default:
		sig = types.Signal{
			Action:     current,
			Confidence: 0.5,
			Reason:     "No clear signal, holding position",
			Indicators: indicators,
		}
	}

	return s.finalize(sig, prices)
}
