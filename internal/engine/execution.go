package engine

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/tradearena/arena/internal/strategy"
	"github.com/tradearena/arena/internal/types"
)

// Reference volatility. Slippage scales with realized volatility
// relative to this baseline.
const baselineVolatility = 0.02

// ExecutionState is the full mutable state of one agent's execution
// engine: position, cash, equity path and kill status.
type ExecutionState struct {
	Equity         float64
	Cash           float64
	Position       types.Position
	PeakEquity     float64
	MaxDrawdownPct float64
	Trades         []types.Trade
	EquityCurve    []float64
	IsKilled       bool
	KillReason     string
}

// ExecutionEngine owns one agent's position lifecycle: it turns target
// actions into fills with slippage and fees, marks equity to market,
// and enforces the stop-loss / take-profit / drawdown kill-switches.
// It is not safe for concurrent use; the orchestrator gives each agent
// its own engine.
type ExecutionEngine struct {
	initialEquity float64
	baseSlippage  float64
	feeRate       decimal.Decimal
	risk          strategy.RiskParams

	state ExecutionState
}

func NewExecutionEngine(initialEquity, baseSlippage, feeRate float64, risk strategy.RiskParams) *ExecutionEngine {
	return &ExecutionEngine{
		initialEquity: initialEquity,
		baseSlippage:  baseSlippage,
		feeRate:       decimal.NewFromFloat(feeRate),
		risk:          risk,
		state: ExecutionState{
			Equity:      initialEquity,
			Cash:        initialEquity,
			Position:    types.FlatPosition(),
			PeakEquity:  initialEquity,
			EquityCurve: []float64{initialEquity},
		},
	}
}

// State exposes the engine's state for inspection. Callers must not
// mutate it.
func (e *ExecutionEngine) State() *ExecutionState { return &e.state }

func (e *ExecutionEngine) InitialEquity() float64 { return e.initialEquity }

// Kill marks the agent dead with the given reason. Used by the
// orchestrator when an agent's tick processing fails; risk kills go
// through CheckRiskLimits.
func (e *ExecutionEngine) Kill(reason string) {
	e.state.IsKilled = true
	e.state.KillReason = reason
}

// slippageAdjustedPrice applies volatility-scaled slippage. Buys fill
// above the quoted price, sells below it.
func (e *ExecutionEngine) slippageAdjustedPrice(price float64, action types.Action, volatility float64) float64 {
	multiplier := 1.0 + (volatility/baselineVolatility-1.0)*0.5
	slippage := e.baseSlippage * multiplier

	switch action {
	case types.ActionLong:
		return price * (1 + slippage)
	case types.ActionShort:
		return price * (1 - slippage)
	default:
		return price
	}
}

func (e *ExecutionEngine) fee(notional decimal.Decimal) decimal.Decimal {
	return notional.Mul(e.feeRate)
}

// ExecuteTrade moves the position toward target. A position switch
// closes the old position before opening the new one. Returns the last
// trade executed, or nil when nothing changed.
func (e *ExecutionEngine) ExecuteTrade(
	tick int,
	target types.Action,
	price, positionSize, volatility float64,
	reason string,
	timestamp optional.Option[time.Time],
) *types.Trade {
	if e.state.IsKilled {
		return nil
	}
	current := e.state.Position.Action
	if target == current {
		return nil
	}

	var trade *types.Trade
	if current != types.ActionFlat {
		trade = e.closePosition(tick, price, volatility, reason, timestamp)
	}

	if target != types.ActionFlat && !e.state.IsKilled {
		// Cap the requested size at the configured share of current equity.
		maxNotional := e.state.Equity * e.risk.PositionSizePct / 100.0
		size := positionSize
		if maxSize := maxNotional / price; maxSize < size {
			size = maxSize
		}
		if size > 0 {
			trade = e.openPosition(tick, target, price, size, volatility, reason, timestamp)
		}
	}
	return trade
}

func (e *ExecutionEngine) openPosition(
	tick int,
	action types.Action,
	price, size, volatility float64,
	reason string,
	timestamp optional.Option[time.Time],
) *types.Trade {
	executedPrice := e.slippageAdjustedPrice(price, action, volatility)

	notional := decimal.NewFromFloat(executedPrice).Mul(decimal.NewFromFloat(size))
	fee := e.fee(notional)

	cash := decimal.NewFromFloat(e.state.Cash).Sub(notional).Sub(fee)
	e.state.Cash = cash.InexactFloat64()
	e.state.Position = types.Position{
		Action:     action,
		EntryPrice: executedPrice,
		Size:       size,
		EntryTick:  tick,
	}

	trade := types.Trade{
		Tick:          tick,
		Timestamp:     timestamp,
		Action:        types.OpenTradeAction(action),
		Price:         price,
		ExecutedPrice: executedPrice,
		Size:          size,
		Cost:          fee.InexactFloat64(),
		Pnl:           0,
		EquityAfter:   e.state.Equity,
		Reason:        reason,
	}
	e.state.Trades = append(e.state.Trades, trade)
	return &e.state.Trades[len(e.state.Trades)-1]
}

func (e *ExecutionEngine) closePosition(
	tick int,
	price, volatility float64,
	reason string,
	timestamp optional.Option[time.Time],
) *types.Trade {
	pos := e.state.Position

	// Exit fills on the opposite side of the book.
	var executedPrice float64
	if pos.Action == types.ActionLong {
		executedPrice = e.slippageAdjustedPrice(price, types.ActionShort, volatility)
	} else {
		executedPrice = e.slippageAdjustedPrice(price, types.ActionLong, volatility)
	}

	notional := decimal.NewFromFloat(executedPrice).Mul(decimal.NewFromFloat(pos.Size))
	fee := e.fee(notional)
	entryNotional := decimal.NewFromFloat(pos.EntryPrice).Mul(decimal.NewFromFloat(pos.Size))

	var pnl decimal.Decimal
	if pos.Action == types.ActionLong {
		pnl = notional.Sub(entryNotional).Sub(fee)
	} else {
		pnl = entryNotional.Sub(notional).Sub(fee)
	}

	cash := decimal.NewFromFloat(e.state.Cash)
	if pos.Action == types.ActionLong {
		// Selling the shares returns the exit notional minus fees.
		cash = cash.Add(notional).Sub(fee)
	} else {
		// Shorts return the reserved entry value adjusted by P&L, which
		// already nets out the closing fee.
		cash = cash.Add(entryNotional).Add(pnl)
	}
	e.state.Cash = cash.InexactFloat64()

	// Position is flat now, so equity collapses to cash. Doing this
	// immediately keeps sizing correct if a new position opens on the
	// same tick.
	e.state.Equity = e.state.Cash

	trade := types.Trade{
		Tick:          tick,
		Timestamp:     timestamp,
		Action:        types.CloseTradeAction(pos.Action),
		Price:         price,
		ExecutedPrice: executedPrice,
		Size:          pos.Size,
		Cost:          fee.InexactFloat64(),
		Pnl:           pnl.InexactFloat64(),
		EquityAfter:   e.state.Cash,
		Reason:        reason,
	}
	e.state.Position = types.FlatPosition()
	e.state.Trades = append(e.state.Trades, trade)
	return &e.state.Trades[len(e.state.Trades)-1]
}

// UpdateEquity marks the open position to the current price, refreshes
// peak equity and max drawdown, and appends to the equity curve. Called
// once per tick after signal execution.
func (e *ExecutionEngine) UpdateEquity(currentPrice float64) {
	pos := &e.state.Position

	var unrealized float64
	switch pos.Action {
	case types.ActionLong:
		unrealized = (currentPrice - pos.EntryPrice) * pos.Size
	case types.ActionShort:
		unrealized = (pos.EntryPrice - currentPrice) * pos.Size
	}
	pos.UnrealizedPnl = unrealized

	if pos.Action != types.ActionFlat {
		e.state.Equity = e.state.Cash + pos.EntryPrice*pos.Size + unrealized
	} else {
		e.state.Equity = e.state.Cash
	}

	if e.state.Equity > e.state.PeakEquity {
		e.state.PeakEquity = e.state.Equity
	}
	drawdown := (e.state.PeakEquity - e.state.Equity) / e.state.PeakEquity * 100
	if drawdown > e.state.MaxDrawdownPct {
		e.state.MaxDrawdownPct = drawdown
	}

	e.state.EquityCurve = append(e.state.EquityCurve, e.state.Equity)
}

// CheckRiskLimits enforces stop-loss, take-profit and the drawdown
// kill-switch, in that order. Returns true when the agent is (or
// becomes) killed. A stop-loss or take-profit exit only closes the
// position; a kill can then only fire on a later tick once the agent
// is flat-checked again.
func (e *ExecutionEngine) CheckRiskLimits(
	tick int,
	currentPrice, volatility float64,
	timestamp optional.Option[time.Time],
) bool {
	if e.state.IsKilled {
		return true
	}

	pos := e.state.Position
	if pos.Action == types.ActionFlat {
		return false
	}

	var pnlPct float64
	if pos.Action == types.ActionLong {
		pnlPct = (currentPrice - pos.EntryPrice) / pos.EntryPrice * 100
	} else {
		pnlPct = (pos.EntryPrice - currentPrice) / pos.EntryPrice * 100
	}

	if pnlPct <= -e.risk.StopLossPct {
		e.closePosition(tick, currentPrice, volatility, fmt.Sprintf("Stop loss hit (%.2f%%)", pnlPct), timestamp)
		return false
	}
	if pnlPct >= e.risk.TakeProfitPct {
		e.closePosition(tick, currentPrice, volatility, fmt.Sprintf("Take profit hit (%.2f%%)", pnlPct), timestamp)
		return false
	}

	if e.state.MaxDrawdownPct >= e.risk.MaxDrawdownKill {
		e.closePosition(tick, currentPrice, volatility, "Max drawdown kill switch", timestamp)
		e.state.IsKilled = true
		e.state.KillReason = fmt.Sprintf("Max drawdown (%.2f%%) exceeded limit (%g%%)",
			e.state.MaxDrawdownPct, e.risk.MaxDrawdownKill)
		return true
	}
	return false
}

// ClosedTrades counts the closing fills, the trade count reported in
// results.
func (e *ExecutionEngine) ClosedTrades() int {
	n := 0
	for _, t := range e.state.Trades {
		if t.Action.IsClose() {
			n++
		}
	}
	return n
}
