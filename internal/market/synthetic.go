package market

import (
	"math"
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// Regime is a latent market-behavior mode governing drift and volatility
// of the synthetic generator.
type Regime string

const (
	RegimeTrendingUp     Regime = "trending_up"
	RegimeTrendingDown   Regime = "trending_down"
	RegimeRangeBound     Regime = "range_bound"
	RegimeHighVolatility Regime = "high_volatility"
)

// SyntheticConfig configures the regime-switching GBM generator. The same
// seed and parameters always reproduce an identical price series.
type SyntheticConfig struct {
	Seed                int64   `yaml:"seed"`
	NumTicks            int     `yaml:"num_ticks" validate:"gt=0"`
	InitialPrice        float64 `yaml:"initial_price" validate:"gt=0"`
	BaseVolatility      float64 `yaml:"base_volatility" validate:"gt=0"`
	BaseDrift           float64 `yaml:"base_drift"`
	TrendProbability    float64 `yaml:"trend_probability" validate:"gte=0,lte=1"`
	VolatileProbability float64 `yaml:"volatile_probability" validate:"gte=0,lte=1"`
	RegimePersistence   float64 `yaml:"regime_persistence" validate:"gte=0,lte=1"`
}

// DefaultSyntheticConfig returns the standard generator parameters for the
// given seed and tick count.
func DefaultSyntheticConfig(seed int64, numTicks int) SyntheticConfig {
	return SyntheticConfig{
		Seed:                seed,
		NumTicks:            numTicks,
		InitialPrice:        100.0,
		BaseVolatility:      0.02,
		BaseDrift:           0.0001,
		TrendProbability:    0.3,
		VolatileProbability: 0.2,
		RegimePersistence:   0.95,
	}
}

// Validate checks the generator parameters.
func (c *SyntheticConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeMarketConfigError, "invalid synthetic market config", err)
	}

	if c.TrendProbability+c.VolatileProbability > 1 {
		return errors.New(errors.ErrCodeMarketConfigError, "trend and volatile probabilities must sum to at most 1")
	}

	return nil
}

// SyntheticProvider generates a price path with discrete-time geometric
// Brownian motion under a persistent regime-switching process. The whole
// series is generated at construction; the provider is immutable after.
type SyntheticProvider struct {
	cfg     SyntheticConfig
	ticks   []types.MarketTick
	prices  []float64
	regimes []Regime
}

// NewSyntheticProvider builds the full synthetic price path from the
// config's seed.
func NewSyntheticProvider(cfg SyntheticConfig) (*SyntheticProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &SyntheticProvider{
		cfg:     cfg,
		ticks:   make([]types.MarketTick, 0, cfg.NumTicks),
		prices:  make([]float64, 0, cfg.NumTicks),
		regimes: make([]Regime, 0, cfg.NumTicks),
	}
	p.generate()

	return p, nil
}

func (p *SyntheticProvider) generate() {
	rng := rand.New(rand.NewSource(p.cfg.Seed))
	regime := RegimeRangeBound
	price := p.cfg.InitialPrice

	for t := 0; t < p.cfg.NumTicks; t++ {
		regime = p.nextRegime(rng, regime)
		drift, vol := p.regimeParams(regime)

		// Discrete-time GBM step with a floor keeping the price positive.
		dW := rng.NormFloat64()
		dS := price * (drift + vol*dW)
		price = math.Max(price+dS, 0.01)

		p.prices = append(p.prices, price)
		p.regimes = append(p.regimes, regime)
		p.ticks = append(p.ticks, types.MarketTick{
			Index:           t,
			Timestamp:       optional.None[time.Time](),
			Price:           price,
			BenchmarkReturn: optional.None[float64](),
			Volatility:      vol,
			Volume:          p.volume(rng, regime),
		})
	}
}

// nextRegime keeps the current regime with probability RegimePersistence,
// otherwise redraws weighted by the trend/volatile probabilities with the
// trend share split evenly between up and down.
func (p *SyntheticProvider) nextRegime(rng *rand.Rand, current Regime) Regime {
	if rng.Float64() < p.cfg.RegimePersistence {
		return current
	}

	roll := rng.Float64()

	switch {
	case roll < p.cfg.TrendProbability/2:
		return RegimeTrendingUp
	case roll < p.cfg.TrendProbability:
		return RegimeTrendingDown
	case roll < p.cfg.TrendProbability+p.cfg.VolatileProbability:
		return RegimeHighVolatility
	default:
		return RegimeRangeBound
	}
}

// regimeParams maps a regime to its (drift, volatility) pair.
func (p *SyntheticProvider) regimeParams(regime Regime) (float64, float64) {
	switch regime {
	case RegimeTrendingUp:
		return 3.0 * p.cfg.BaseDrift, 1.2 * p.cfg.BaseVolatility
	case RegimeTrendingDown:
		return -2.0 * p.cfg.BaseDrift, 1.2 * p.cfg.BaseVolatility
	case RegimeHighVolatility:
		return 0.0, 2.5 * p.cfg.BaseVolatility
	default:
		return 0.0, p.cfg.BaseVolatility
	}
}

// volume draws a regime-dependent synthetic bar volume.
func (p *SyntheticProvider) volume(rng *rand.Rand, regime Regime) float64 {
	const baseVolume = 1_000_000.0

	uniform := func(lo, hi float64) float64 {
		return lo + (hi-lo)*rng.Float64()
	}

	switch regime {
	case RegimeHighVolatility:
		return baseVolume * uniform(1.5, 3.0)
	case RegimeTrendingUp, RegimeTrendingDown:
		return baseVolume * uniform(1.2, 2.0)
	default:
		return baseVolume * uniform(0.8, 1.2)
	}
}

// NumTicks implements Provider.
func (p *SyntheticProvider) NumTicks() int {
	return len(p.ticks)
}

// TickAt implements Provider.
func (p *SyntheticProvider) TickAt(i int) types.MarketTick {
	return p.ticks[i]
}

// PriceHistory implements Provider.
func (p *SyntheticProvider) PriceHistory(i int) []float64 {
	return p.prices[:i+1]
}

// BenchmarkReturns implements Provider. Synthetic data has no benchmark.
func (p *SyntheticProvider) BenchmarkReturns(i int) []float64 {
	return nil
}

// RegimeAt returns the regime that generated tick i.
func (p *SyntheticProvider) RegimeAt(i int) Regime {
	return p.regimes[i]
}
