package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/tradearena/arena/pkg/errors"
)

var validate = validator.New()

// Params holds the strategy-specific tunables. A single struct covers
// all strategy kinds; each kind reads only the fields it cares about,
// which keeps agent configuration uniform.
type Params struct {
	FastWindow      int     `yaml:"fast_window" validate:"gt=0"`
	SlowWindow      int     `yaml:"slow_window" validate:"gt=0"`
	ATRMultiplier   float64 `yaml:"atr_multiplier" validate:"gt=0"`
	LookbackWindow  int     `yaml:"lookback_window" validate:"gt=0"`
	EntryThreshold  float64 `yaml:"entry_threshold" validate:"gt=0"`
	ExitThreshold   float64 `yaml:"exit_threshold" validate:"gte=0"`
	MomentumWindow  int     `yaml:"momentum_window" validate:"gt=0"`
	RSIWindow       int     `yaml:"rsi_window" validate:"gt=0"`
	RSIOverbought   float64 `yaml:"rsi_overbought" validate:"gt=0,lte=100"`
	RSIOversold     float64 `yaml:"rsi_oversold" validate:"gte=0,lt=100"`
}

// FilterParams configures the post-signal filter stack shared by all
// strategies. Filters only dampen confidence, never flip the action.
type FilterParams struct {
	UseSMA    bool `yaml:"use_sma"`
	SMAWindow int  `yaml:"sma_window" validate:"gt=0"`

	UseRSI        bool    `yaml:"use_rsi"`
	RSIWindow     int     `yaml:"rsi_window" validate:"gt=0"`
	RSIOverbought float64 `yaml:"rsi_overbought" validate:"gt=0,lte=100"`
	RSIOversold   float64 `yaml:"rsi_oversold" validate:"gte=0,lt=100"`

	UseVolatilityFilter bool    `yaml:"use_volatility_filter"`
	VolatilityWindow    int     `yaml:"volatility_window" validate:"gt=0"`
	VolatilityThreshold float64 `yaml:"volatility_threshold" validate:"gt=0"`
}

// RiskParams configures position sizing and the execution engine's
// kill-switches. Percentages are expressed as whole numbers (10 = 10%).
type RiskParams struct {
	PositionSizePct float64 `yaml:"position_size_pct" validate:"gt=0,lte=100"`
	MaxLeverage     float64 `yaml:"max_leverage" validate:"gte=1"`
	StopLossPct     float64 `yaml:"stop_loss_pct" validate:"gt=0"`
	TakeProfitPct   float64 `yaml:"take_profit_pct" validate:"gt=0"`
	MaxDrawdownKill float64 `yaml:"max_drawdown_kill" validate:"gt=0,lte=100"`
}

// Config is one agent's full strategy configuration.
type Config struct {
	Params  Params       `yaml:"strategy_params" validate:"required"`
	Filters FilterParams `yaml:"signal_stack" validate:"required"`
	Risk    RiskParams   `yaml:"risk_params" validate:"required"`
}

// Validate checks the configuration against its constraints. Cross-field
// sanity (fast window shorter than slow, oversold below overbought) is
// checked here because struct tags cannot express it.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy configuration", err)
	}
	if c.Params.FastWindow >= c.Params.SlowWindow {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"fast_window (%d) must be shorter than slow_window (%d)", c.Params.FastWindow, c.Params.SlowWindow)
	}
	if c.Params.RSIOversold >= c.Params.RSIOverbought {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"rsi_oversold (%.1f) must be below rsi_overbought (%.1f)", c.Params.RSIOversold, c.Params.RSIOverbought)
	}
	if c.Risk.StopLossPct >= c.Risk.MaxDrawdownKill {
		return errors.Newf(errors.ErrCodeInvalidRiskParams,
			"stop_loss_pct (%.1f) must be below max_drawdown_kill (%.1f)", c.Risk.StopLossPct, c.Risk.MaxDrawdownKill)
	}
	return nil
}

// DefaultConfig returns the baseline agent configuration. Callers
// overlay user-supplied values on top of it before validating.
func DefaultConfig() Config {
	return Config{
		Params: Params{
			FastWindow:     10,
			SlowWindow:     30,
			ATRMultiplier:  2.0,
			LookbackWindow: 20,
			EntryThreshold: 2.0,
			ExitThreshold:  0.5,
			MomentumWindow: 14,
			RSIWindow:      14,
			RSIOverbought:  70,
			RSIOversold:    30,
		},
		Filters: FilterParams{
			UseSMA:              false,
			SMAWindow:           20,
			UseRSI:              false,
			RSIWindow:           14,
			RSIOverbought:       70,
			RSIOversold:         30,
			UseVolatilityFilter: false,
			VolatilityWindow:    20,
			VolatilityThreshold: 1.5,
		},
		Risk: RiskParams{
			PositionSizePct: 10.0,
			MaxLeverage:     1.0,
			StopLossPct:     5.0,
			TakeProfitPct:   15.0,
			MaxDrawdownKill: 25.0,
		},
	}
}

// GhostConfig is the fixed configuration of the ghost benchmark agent:
// plain trend following with an SMA trend filter and conservative risk
// limits.
func GhostConfig() Config {
	cfg := DefaultConfig()
	cfg.Filters.UseSMA = true
	return cfg
}
