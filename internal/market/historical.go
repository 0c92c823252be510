package market

import (
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// defaultVolatility is the volatility estimate used until the rolling
// window fills.
const defaultVolatility = 0.02

// HistoricalConfig configures the historical-data provider.
type HistoricalConfig struct {
	// Interval is the trading interval bars are resampled to.
	Interval types.Interval `yaml:"interval" validate:"required"`
	// VolatilityWindow is the rolling window for the volatility estimate.
	VolatilityWindow int `yaml:"volatility_window" validate:"gt=1"`
}

// DefaultHistoricalConfig returns the standard provider parameters.
func DefaultHistoricalConfig(interval types.Interval) HistoricalConfig {
	return HistoricalConfig{
		Interval:         interval,
		VolatilityWindow: 20,
	}
}

// Validate checks the provider parameters.
func (c *HistoricalConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeMarketConfigError, "invalid historical market config", err)
	}

	if _, err := c.Interval.Duration(); err != nil {
		return err
	}

	return nil
}

// Summary describes the loaded and aligned historical series.
type Summary struct {
	NumTicks        int
	Interval        types.Interval
	Start           time.Time
	End             time.Time
	InstrumentFirst float64
	InstrumentLast  float64
	BenchmarkFirst  float64
	BenchmarkLast   float64
}

// HistoricalProvider builds the simulation price path from two aligned
// OHLCV bar series: the traded instrument and a benchmark. Bars are
// resampled to the trading interval, timestamps intersected so both
// series cover identical instants, and per-tick log returns and rolling
// volatility derived from the close prices.
type HistoricalProvider struct {
	cfg              HistoricalConfig
	ticks            []types.MarketTick
	prices           []float64
	benchmarkReturns []float64
	benchmarkCloses  []float64
}

// NewHistoricalProvider resamples and aligns the two bar series. Returns
// an InsufficientDataError when either series is empty or the timestamp
// intersection is empty.
func NewHistoricalProvider(instrument, benchmark []types.Bar, cfg HistoricalConfig) (*HistoricalProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if len(instrument) == 0 || len(benchmark) == 0 {
		return nil, errors.NewInsufficientDataErrorf(1, 0, "",
			"historical provider needs bars for both instrument (%d) and benchmark (%d)",
			len(instrument), len(benchmark))
	}

	interval, err := cfg.Interval.Duration()
	if err != nil {
		return nil, err
	}

	instrumentBars := resampleBars(instrument, interval)
	benchmarkBars := resampleBars(benchmark, interval)

	instrumentAligned, benchmarkAligned := alignBars(instrumentBars, benchmarkBars)
	if len(instrumentAligned) == 0 {
		return nil, errors.NewInsufficientDataError(1, 0, "",
			"no overlapping timestamps between instrument and benchmark bars")
	}

	p := &HistoricalProvider{cfg: cfg}
	if err := p.build(instrumentAligned, benchmarkAligned); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *HistoricalProvider) build(instrument, benchmark []types.Bar) error {
	annualization, err := p.cfg.Interval.AnnualizationFactor()
	if err != nil {
		return err
	}

	n := len(instrument)
	instrumentReturns := logReturns(instrument)
	benchmarkReturns := logReturns(benchmark)
	vol := rollingVolatility(instrumentReturns, p.cfg.VolatilityWindow, annualization)

	p.prices = make([]float64, n)
	p.benchmarkReturns = benchmarkReturns
	p.benchmarkCloses = make([]float64, n)
	p.ticks = make([]types.MarketTick, n)

	for i := 0; i < n; i++ {
		p.prices[i] = instrument[i].Close
		p.benchmarkCloses[i] = benchmark[i].Close
		p.ticks[i] = types.MarketTick{
			Index:           i,
			Timestamp:       optional.Some(instrument[i].Timestamp),
			Price:           instrument[i].Close,
			BenchmarkReturn: optional.Some(benchmarkReturns[i]),
			Volatility:      vol[i],
			Volume:          instrument[i].Volume,
		}
	}

	return nil
}

// resampleBars aggregates bars into buckets of the target interval:
// open=first, high=max, low=min, close=last, volume=sum. Input order does
// not matter; output is time-ascending.
func resampleBars(bars []types.Bar, interval time.Duration) []types.Bar {
	buckets := make(map[time.Time]types.Bar)

	sorted := make([]types.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	for _, bar := range sorted {
		bucket := bar.Timestamp.Truncate(interval)

		agg, ok := buckets[bucket]
		if !ok {
			agg = types.Bar{
				Timestamp: bucket,
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				Volume:    bar.Volume,
			}
			buckets[bucket] = agg

			continue
		}

		agg.High = math.Max(agg.High, bar.High)
		agg.Low = math.Min(agg.Low, bar.Low)
		agg.Close = bar.Close
		agg.Volume += bar.Volume
		buckets[bucket] = agg
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	out := make([]types.Bar, 0, len(keys))
	for _, k := range keys {
		out = append(out, buckets[k])
	}

	return out
}

// alignBars intersects two time-ascending bar series on timestamp,
// keeping only the instants where both have a bar.
func alignBars(a, b []types.Bar) ([]types.Bar, []types.Bar) {
	bByTime := make(map[time.Time]types.Bar, len(b))
	for _, bar := range b {
		bByTime[bar.Timestamp] = bar
	}

	var outA, outB []types.Bar

	for _, bar := range a {
		if match, ok := bByTime[bar.Timestamp]; ok {
			outA = append(outA, bar)
			outB = append(outB, match)
		}
	}

	return outA, outB
}

// logReturns computes log returns of close prices, with the first return
// filled as 0.
func logReturns(bars []types.Bar) []float64 {
	returns := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		returns[i] = math.Log(bars[i].Close / bars[i-1].Close)
	}

	return returns
}

// rollingVolatility computes the trailing sample standard deviation of
// returns over the window, annualized, defaulting until the window fills.
func rollingVolatility(returns []float64, window int, annualization float64) []float64 {
	vol := make([]float64, len(returns))

	for i := range returns {
		if i < window {
			vol[i] = defaultVolatility

			continue
		}

		vol[i] = sampleStd(returns[i-window+1:i+1]) * annualization
	}

	return vol
}

// sampleStd is the sample (ddof=1) standard deviation.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := 0.0
	for _, v := range values {
		m += v
	}
	m /= float64(len(values))

	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

// NumTicks implements Provider.
func (p *HistoricalProvider) NumTicks() int {
	return len(p.ticks)
}

// TickAt implements Provider.
func (p *HistoricalProvider) TickAt(i int) types.MarketTick {
	return p.ticks[i]
}

// PriceHistory implements Provider.
func (p *HistoricalProvider) PriceHistory(i int) []float64 {
	return p.prices[:i+1]
}

// BenchmarkReturns implements Provider.
func (p *HistoricalProvider) BenchmarkReturns(i int) []float64 {
	return p.benchmarkReturns[:i+1]
}

// Summary reports the aligned series' extent.
func (p *HistoricalProvider) Summary() Summary {
	if len(p.ticks) == 0 {
		return Summary{Interval: p.cfg.Interval}
	}

	first := p.ticks[0]
	last := p.ticks[len(p.ticks)-1]

	return Summary{
		NumTicks:        len(p.ticks),
		Interval:        p.cfg.Interval,
		Start:           first.Timestamp.Unwrap(),
		End:             last.Timestamp.Unwrap(),
		InstrumentFirst: p.prices[0],
		InstrumentLast:  p.prices[len(p.prices)-1],
		BenchmarkFirst:  p.benchmarkCloses[0],
		BenchmarkLast:   p.benchmarkCloses[len(p.benchmarkCloses)-1],
	}
}
