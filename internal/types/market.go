package types

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/pkg/errors"
)

// MarketTick is one step of the simulated price path. Ticks form an ordered
// sequence with Index strictly increasing from 0 and are immutable once
// produced by a provider.
type MarketTick struct {
	// Index is the tick number, starting at 0.
	Index int
	// Timestamp is the bar time. None for synthetic data.
	Timestamp optional.Option[time.Time]
	// Price is the close price of the traded instrument.
	Price float64
	// BenchmarkReturn is the log return of the benchmark instrument aligned
	// to the same timestamp. None for synthetic data.
	BenchmarkReturn optional.Option[float64]
	// Volatility is the per-tick volatility estimate.
	Volatility float64
	// Volume is the bar volume (synthetic providers generate one).
	Volume float64
}

// Bar is a single OHLCV bar of historical market data.
type Bar struct {
	Timestamp time.Time `validate:"required"`
	Open      float64   `validate:"gt=0"`
	High      float64   `validate:"gt=0"`
	Low       float64   `validate:"gt=0"`
	Close     float64   `validate:"gt=0"`
	Volume    float64   `validate:"gte=0"`
}

// Interval is the trading bar interval the simulation operates on.
type Interval string

const (
	Interval1Min  Interval = "1min"
	Interval5Min  Interval = "5min"
	Interval15Min Interval = "15min"
	Interval30Min Interval = "30min"
	Interval1Hour Interval = "1h"
)

// sessionMinutes is the length of one US equity trading session (6.5h).
const sessionMinutes = 390.0

// tradingDaysPerYear is the number of trading days used for annualization.
const tradingDaysPerYear = 252.0

// Duration returns the bar length of the interval.
func (i Interval) Duration() (time.Duration, error) {
	switch i {
	case Interval1Min:
		return time.Minute, nil
	case Interval5Min:
		return 5 * time.Minute, nil
	case Interval15Min:
		return 15 * time.Minute, nil
	case Interval30Min:
		return 30 * time.Minute, nil
	case Interval1Hour:
		return time.Hour, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidInterval, "unknown trading interval %q", string(i))
	}
}

// BarsPerDay returns the number of bars in a 6.5h trading session,
// e.g. 78 for 5-minute bars.
func (i Interval) BarsPerDay() (float64, error) {
	d, err := i.Duration()
	if err != nil {
		return 0, err
	}

	return sessionMinutes / d.Minutes(), nil
}

// BarsPerYear returns the number of bars in a 252-day trading year. Used to
// annualize per-bar alpha and tracking error.
func (i Interval) BarsPerYear() (float64, error) {
	perDay, err := i.BarsPerDay()
	if err != nil {
		return 0, err
	}

	return perDay * tradingDaysPerYear, nil
}

// AnnualizationFactor returns the square-root scaling used for rolling
// volatility at this interval.
func (i Interval) AnnualizationFactor() (float64, error) {
	perYear, err := i.BarsPerYear()
	if err != nil {
		return 0, err
	}

	return math.Sqrt(perYear), nil
}
