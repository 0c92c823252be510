package types

// Action is the position an agent holds or targets.
type Action string

const (
	// ActionFlat means no open position.
	ActionFlat Action = "FLAT"
	// ActionLong means a long position.
	ActionLong Action = "LONG"
	// ActionShort means a short position. Shipped strategies never hold it
	// (the long-only clamp maps SHORT to FLAT) but the execution model
	// supports it.
	ActionShort Action = "SHORT"
)

// TradeAction is the lifecycle event recorded by a Trade.
type TradeAction string

const (
	TradeActionOpenLong   TradeAction = "OPEN_LONG"
	TradeActionCloseLong  TradeAction = "CLOSE_LONG"
	TradeActionOpenShort  TradeAction = "OPEN_SHORT"
	TradeActionCloseShort TradeAction = "CLOSE_SHORT"
)

// OpenTradeAction returns the opening trade action for a position direction.
func OpenTradeAction(a Action) TradeAction {
	if a == ActionShort {
		return TradeActionOpenShort
	}

	return TradeActionOpenLong
}

// CloseTradeAction returns the closing trade action for a position direction.
func CloseTradeAction(a Action) TradeAction {
	if a == ActionShort {
		return TradeActionCloseShort
	}

	return TradeActionCloseLong
}

// IsClose reports whether the trade action closes a position. Win rate and
// profit factor are computed over closing trades only.
func (t TradeAction) IsClose() bool {
	return t == TradeActionCloseLong || t == TradeActionCloseShort
}
