package types

import "github.com/moznion/go-optional"

// Signal is a strategy's per-tick trading decision. Produced fresh every
// tick and never persisted by the core.
type Signal struct {
	// Action is the position the strategy wants to hold.
	Action Action
	// Confidence is in [0, 1]. The orchestrator only acts on signals with
	// confidence above its churn threshold.
	Confidence float64
	// Reason is a human-readable explanation of the decision.
	Reason string
	// Indicators holds the raw indicator values that produced the signal.
	// None marks an indicator whose window has not filled yet.
	Indicators map[string]optional.Option[float64]
}
