package engine

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/tradearena/arena/internal/strategy"
	"github.com/tradearena/arena/internal/types"
)

func noTimestamp() optional.Option[time.Time] {
	return optional.None[time.Time]()
}

func testRisk() strategy.RiskParams {
	return strategy.RiskParams{
		PositionSizePct: 10,
		MaxLeverage:     1,
		StopLossPct:     5,
		TakeProfitPct:   15,
		MaxDrawdownKill: 25,
	}
}

type ExecutionTestSuite struct {
	suite.Suite
}

func TestExecutionTestSuite(t *testing.T) {
	suite.Run(t, new(ExecutionTestSuite))
}

func (s *ExecutionTestSuite) TestSlippageScalesWithVolatility() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	// At baseline volatility the multiplier is exactly one.
	s.InDelta(100.1, e.slippageAdjustedPrice(100, types.ActionLong, 0.02), 1e-9)
	s.InDelta(99.9, e.slippageAdjustedPrice(100, types.ActionShort, 0.02), 1e-9)
	s.InDelta(100.0, e.slippageAdjustedPrice(100, types.ActionFlat, 0.02), 1e-9)

	// Double the volatility adds half the excess to the slippage.
	s.InDelta(100*(1+0.001*1.5), e.slippageAdjustedPrice(100, types.ActionLong, 0.04), 1e-9)
}

func (s *ExecutionTestSuite) TestOpenCapsSizeAtConfiguredEquityShare() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	trade := e.ExecuteTrade(0, types.ActionLong, 100, 5_000, 0.02, "entry", noTimestamp())
	s.Require().NotNil(trade)

	// 10% of 100k at price 100 caps the fill at 100 units.
	s.InDelta(100.0, trade.Size, 1e-9)
	s.Equal(types.TradeActionOpenLong, trade.Action)
	s.InDelta(100.1, trade.ExecutedPrice, 1e-9)
	s.Zero(trade.Pnl)
	s.Equal(types.ActionLong, e.State().Position.Action)
}

func (s *ExecutionTestSuite) TestRoundTripCostsSlippageAndFees() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	open := e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())
	s.Require().NotNil(open)
	e.UpdateEquity(100)

	closeTrade := e.ExecuteTrade(1, types.ActionFlat, 100, 0, 0.02, "exit", noTimestamp())
	s.Require().NotNil(closeTrade)
	s.Equal(types.TradeActionCloseLong, closeTrade.Action)

	// Flat price round trip: the loss is exactly slippage plus fees.
	// 100 units: slippage 0.1 each way = 20, fees 10.01 + 9.99 = 20.
	s.InDelta(-29.99, closeTrade.Pnl, 1e-9) // exit slippage + both fees
	s.InDelta(99_960.0, e.State().Cash, 1e-9)
	s.InDelta(e.State().Cash, e.State().Equity, 1e-12, "flat position equity equals cash")
	s.Equal(types.ActionFlat, e.State().Position.Action)
	s.Equal(1, e.ClosedTrades())
}

func (s *ExecutionTestSuite) TestFrictionlessRoundTripPreservesCash() {
	e := NewExecutionEngine(100_000, 0, 0, testRisk())

	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())
	e.UpdateEquity(100)
	closeTrade := e.ExecuteTrade(1, types.ActionFlat, 100, 0, 0.02, "exit", noTimestamp())

	s.Require().NotNil(closeTrade)
	s.Zero(closeTrade.Pnl)
	s.InDelta(100_000.0, e.State().Cash, 1e-12)
	s.InDelta(100_000.0, e.State().Equity, 1e-12)
}

func (s *ExecutionTestSuite) TestMaxDrawdownNeverDecreases() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())
	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())

	prev := 0.0
	for _, price := range []float64{105, 90, 95, 120, 110, 80} {
		e.UpdateEquity(price)
		s.GreaterOrEqual(e.State().MaxDrawdownPct, prev)
		prev = e.State().MaxDrawdownPct
	}
	s.Positive(prev)
}

func (s *ExecutionTestSuite) TestUpdateEquityBooksBalance() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())
	e.UpdateEquity(105)

	st := e.State()
	pos := st.Position
	// equity = cash + entry notional + unrealized, always.
	s.InDelta(st.Cash+pos.EntryPrice*pos.Size+pos.UnrealizedPnl, st.Equity, 1e-9)
	s.InDelta((105-pos.EntryPrice)*pos.Size, pos.UnrealizedPnl, 1e-9)
	s.Len(st.EquityCurve, 2) // initial point plus one mark
}

func (s *ExecutionTestSuite) TestEquityCurveStartsAtInitialEquity() {
	e := NewExecutionEngine(50_000, 0.001, 0.001, testRisk())
	s.Equal([]float64{50_000}, e.State().EquityCurve)
}

func (s *ExecutionTestSuite) TestStopLossClosesWithoutKilling() {
	risk := strategy.RiskParams{
		PositionSizePct: 100,
		MaxLeverage:     1,
		StopLossPct:     5,
		TakeProfitPct:   1_000,
		MaxDrawdownKill: 6, // drawdown already past this when the stop fires
	}
	e := NewExecutionEngine(100_000, 0.001, 0.001, risk)

	e.ExecuteTrade(0, types.ActionLong, 100, 10_000, 0.02, "entry", noTimestamp())
	e.UpdateEquity(94)

	// Stop-loss wins over the kill-switch on the same tick.
	killed := e.CheckRiskLimits(1, 94, 0.02, noTimestamp())
	s.False(killed)
	s.False(e.State().IsKilled)
	s.Equal(types.ActionFlat, e.State().Position.Action)

	last := e.State().Trades[len(e.State().Trades)-1]
	s.Contains(last.Reason, "Stop loss hit")

	// Flat agents are never killed, even with drawdown past the limit.
	e.UpdateEquity(94)
	s.False(e.CheckRiskLimits(2, 94, 0.02, noTimestamp()))
	s.False(e.State().IsKilled)
	s.Greater(e.State().MaxDrawdownPct, risk.MaxDrawdownKill)
}

func (s *ExecutionTestSuite) TestTakeProfitCloses() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())
	e.UpdateEquity(116)

	killed := e.CheckRiskLimits(1, 116, 0.02, noTimestamp())
	s.False(killed)
	s.Equal(types.ActionFlat, e.State().Position.Action)

	last := e.State().Trades[len(e.State().Trades)-1]
	s.Contains(last.Reason, "Take profit hit")
	s.Positive(last.Pnl)
}

func (s *ExecutionTestSuite) TestDrawdownKillSwitch() {
	risk := strategy.RiskParams{
		PositionSizePct: 100,
		MaxLeverage:     1,
		StopLossPct:     90, // out of the way so the kill-switch decides
		TakeProfitPct:   1_000,
		MaxDrawdownKill: 20,
	}
	e := NewExecutionEngine(100_000, 0.001, 0.001, risk)

	e.ExecuteTrade(0, types.ActionLong, 100, 10_000, 0.02, "entry", noTimestamp())
	e.UpdateEquity(100)
	s.False(e.CheckRiskLimits(0, 100, 0.02, noTimestamp()))

	// A 21% slide with a full-size position breaches the 20% kill limit.
	e.UpdateEquity(79)
	killed := e.CheckRiskLimits(1, 79, 0.02, noTimestamp())
	s.True(killed)
	s.True(e.State().IsKilled)
	s.Contains(e.State().KillReason, "Max drawdown")
	s.Equal(types.ActionFlat, e.State().Position.Action, "kill closes the open position")

	last := e.State().Trades[len(e.State().Trades)-1]
	s.Equal("Max drawdown kill switch", last.Reason)
}

func (s *ExecutionTestSuite) TestKilledEngineIsInert() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())
	e.Kill("Processing error: boom")

	s.Nil(e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp()))
	s.True(e.CheckRiskLimits(0, 100, 0.02, noTimestamp()))
	s.Empty(e.State().Trades)
	s.Equal("Processing error: boom", e.State().KillReason)
}

func (s *ExecutionTestSuite) TestNoTradeWhenTargetMatchesPosition() {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())

	s.Nil(e.ExecuteTrade(0, types.ActionFlat, 100, 100, 0.02, "hold", noTimestamp()))

	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", noTimestamp())
	s.Nil(e.ExecuteTrade(1, types.ActionLong, 101, 100, 0.02, "hold", noTimestamp()))
	s.Len(e.State().Trades, 1)
}

func TestCloseCarriesTimestamp(t *testing.T) {
	e := NewExecutionEngine(100_000, 0.001, 0.001, testRisk())
	ts := optional.Some(time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC))

	e.ExecuteTrade(0, types.ActionLong, 100, 100, 0.02, "entry", ts)
	trade := e.ExecuteTrade(1, types.ActionFlat, 101, 0, 0.02, "exit", ts)
	require.NotNil(t, trade)

	got, err := trade.Timestamp.Take()
	require.NoError(t, err)
	assert.Equal(t, 2024, got.Year())
}
