package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
)

// ChartPoint is one point of a time series exposed at the boundary
// (equity curve, cumulative alpha, price path).
type ChartPoint struct {
	Tick      int
	Timestamp optional.Option[time.Time]
	Value     float64
}

// Result is the final record produced once per agent at simulation end.
// Ownership transfers to the persistence collaborator.
//
// Every numeric field is either a finite float or None; non-finite
// intermediate values are normalized before a Result is built.
type Result struct {
	AgentID          uuid.UUID
	FinalEquity      float64
	TotalReturnPct   float64
	Sharpe           optional.Option[float64]
	MaxDrawdownPct   float64
	Calmar           optional.Option[float64]
	Sortino          optional.Option[float64]
	WinRatePct       optional.Option[float64]
	ProfitFactor     optional.Option[float64]
	TotalTrades      int
	SurvivalTicks    int
	EquityCurve      []ChartPoint
	Trades           []Trade
	Alpha            optional.Option[float64]
	Beta             optional.Option[float64]
	CumulativeAlpha  []ChartPoint
	InformationRatio optional.Option[float64]
	IsKilled         bool
	KillReason       string
}

// RoundProgress is the progress record shared with the external
// persistence collaborator. The core only writes its fields, at bounded
// intervals rather than every tick.
type RoundProgress struct {
	ProgressPct     int
	AgentsProcessed int
	TotalAgents     int
}
