package strategy

import (
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// Kind identifies a strategy implementation.
type Kind string

const (
	KindMeanReversion  Kind = "mean_reversion"
	KindTrendFollowing Kind = "trend_following"
	KindMomentum       Kind = "momentum"
	// KindGhost is the benchmark agent. It runs the trend-following
	// strategy with a fixed configuration and is otherwise an ordinary
	// agent.
	KindGhost Kind = "ghost"
)

// Strategy maps a price history and the agent's current position to a
// trade signal. Implementations may keep per-agent state between ticks
// (e.g. previous moving-average values), so a Strategy instance must
// not be shared across agents.
type Strategy interface {
	Name() string

	// GenerateSignal inspects the price history up to and including the
	// current tick. current is the position the agent holds going into
	// the tick.
	GenerateSignal(prices []float64, current types.Action) types.Signal

	// PositionSize returns the number of units to buy for a new position
	// given current equity and the raw tick price.
	PositionSize(equity, price float64) float64
}

// New constructs a strategy of the given kind. The config must already
// be validated; ghost agents ignore the supplied parameters and use the
// fixed benchmark configuration.
func New(kind Kind, cfg Config) (Strategy, error) {
	switch kind {
	case KindMeanReversion:
		return &MeanReversion{base: base{cfg: cfg}}, nil
	case KindTrendFollowing:
		return &TrendFollowing{base: base{cfg: cfg}}, nil
	case KindMomentum:
		return &Momentum{base: base{cfg: cfg}}, nil
	case KindGhost:
		return &TrendFollowing{base: base{cfg: GhostConfig()}, name: "ghost"}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy kind: %q", kind)
	}
}
