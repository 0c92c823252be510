package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/tradearena/arena/internal/metrics"
	"github.com/tradearena/arena/internal/strategy"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

// Trades only execute above this confidence, so marginal signals do not
// churn the position.
const minTradeConfidence = 0.3

// AgentDescriptor is everything the orchestrator needs to instantiate
// one agent.
type AgentDescriptor struct {
	ID     uuid.UUID
	Name   string
	Kind   strategy.Kind
	Config strategy.Config
}

// AgentRunner drives a single agent through the simulation: strategy
// signal, execution, equity mark and risk checks, one tick at a time.
// The runner tracks its own view of the position because a low
// confidence signal may be acknowledged without being executed.
type AgentRunner struct {
	desc      AgentDescriptor
	strat     strategy.Strategy
	execution *ExecutionEngine

	currentPosition types.Action
	survivalTicks   int
}

func NewAgentRunner(desc AgentDescriptor, initialEquity, baseSlippage, feeRate float64) (*AgentRunner, error) {
	cfg := desc.Config
	if desc.Kind == strategy.KindGhost {
		cfg = strategy.GhostConfig()
	} else if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeSimulationSetup, err, "agent %s has an invalid configuration", desc.ID)
	}

	strat, err := strategy.New(desc.Kind, cfg)
	if err != nil {
		return nil, err
	}

	return &AgentRunner{
		desc:            desc,
		strat:           strat,
		execution:       NewExecutionEngine(initialEquity, baseSlippage, feeRate, cfg.Risk),
		currentPosition: types.ActionFlat,
	}, nil
}

func (r *AgentRunner) Descriptor() AgentDescriptor   { return r.desc }
func (r *AgentRunner) Execution() *ExecutionEngine   { return r.execution }
func (r *AgentRunner) CurrentPosition() types.Action { return r.currentPosition }

// ProcessTick runs one tick for this agent: generate a signal, trade if
// it clears the confidence bar, mark equity, enforce risk limits. A
// killed agent is a no-op.
func (r *AgentRunner) ProcessTick(tick int, prices []float64, volatility float64, timestamp optional.Option[time.Time]) {
	if r.execution.State().IsKilled {
		return
	}

	currentPrice := prices[len(prices)-1]

	signal := r.strat.GenerateSignal(prices, r.currentPosition)
	positionSize := r.strat.PositionSize(r.execution.State().Equity, currentPrice)

	if signal.Action != r.currentPosition && signal.Confidence > minTradeConfidence {
		r.execution.ExecuteTrade(tick, signal.Action, currentPrice, positionSize, volatility, signal.Reason, timestamp)
		r.currentPosition = signal.Action
	}

	r.execution.UpdateEquity(currentPrice)
	r.execution.CheckRiskLimits(tick, currentPrice, volatility, timestamp)

	if !r.execution.State().IsKilled {
		r.survivalTicks = tick + 1
	}
}

// Finalize computes the agent's metric report and assembles the result
// record. timestampAt maps a tick index to its market timestamp; for
// synthetic markets every timestamp is None.
func (r *AgentRunner) Finalize(
	benchmarkReturns []float64,
	timestampAt func(tick int) optional.Option[time.Time],
	barsPerYear float64,
) (types.Result, error) {
	state := r.execution.State()

	report, err := metrics.Compute(
		state.EquityCurve,
		state.Trades,
		r.execution.InitialEquity(),
		r.survivalTicks,
		benchmarkReturns,
		barsPerYear,
	)
	if err != nil {
		return types.Result{}, errors.Wrapf(errors.ErrCodeAgentProcessing, err, "finalizing agent %s", r.desc.ID)
	}

	equityCurve := make([]types.ChartPoint, len(state.EquityCurve))
	for i, v := range state.EquityCurve {
		equityCurve[i] = types.ChartPoint{Tick: i, Timestamp: timestampAt(i), Value: v}
	}
	cumulativeAlpha := make([]types.ChartPoint, len(report.CumulativeAlpha))
	for i, v := range report.CumulativeAlpha {
		cumulativeAlpha[i] = types.ChartPoint{Tick: i, Timestamp: timestampAt(i), Value: v}
	}

	return types.Result{
		AgentID:          r.desc.ID,
		FinalEquity:      report.FinalEquity,
		TotalReturnPct:   report.TotalReturnPct,
		MaxDrawdownPct:   report.MaxDrawdownPct,
		TotalTrades:      report.TotalTrades,
		SurvivalTicks:    report.SurvivalTicks,
		Sharpe:           report.Sharpe,
		Calmar:           report.Calmar,
		Sortino:          report.Sortino,
		WinRatePct:       report.WinRatePct,
		ProfitFactor:     report.ProfitFactor,
		Alpha:            report.Alpha,
		Beta:             report.Beta,
		InformationRatio: report.InformationRatio,
		EquityCurve:      equityCurve,
		CumulativeAlpha:  cumulativeAlpha,
		Trades:           state.Trades,
		IsKilled:         state.IsKilled,
		KillReason:       state.KillReason,
	}, nil
}
