package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Position is the current position of one agent. Exactly one exists per
// agent at any time; a FLAT position has size 0 and no entry price. It is
// mutated only by the owning execution engine and replaced wholesale on
// open/close.
type Position struct {
	Action        Action
	EntryPrice    float64
	Size          float64
	EntryTick     int
	UnrealizedPnl float64
}

// FlatPosition returns the empty position.
func FlatPosition() Position {
	return Position{Action: ActionFlat}
}

// Trade is an immutable record emitted on every position open or close.
type Trade struct {
	// Tick is the tick at which the trade executed.
	Tick int
	// Timestamp is the market time of the trade. None for synthetic data.
	Timestamp optional.Option[time.Time]
	// Action is the lifecycle event (OPEN_LONG, CLOSE_LONG, ...).
	Action TradeAction
	// Price is the quoted market price.
	Price float64
	// ExecutedPrice is the fill price after slippage.
	ExecutedPrice float64
	// Size is the traded quantity.
	Size float64
	// Cost is the transaction fee charged.
	Cost float64
	// Pnl is the realized profit/loss. Always 0 on opening trades.
	Pnl float64
	// EquityAfter is the agent's equity after the trade settled.
	EquityAfter float64
	// Reason is why the trade happened (signal reason, stop loss, ...).
	Reason string
}
