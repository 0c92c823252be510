// Package market produces the ordered price path a simulation runs on.
// Two interchangeable providers exist behind one contract: a historical
// provider built from real OHLCV bars and a synthetic regime-switching
// generator.
package market

import "github.com/tradearena/arena/internal/types"

// Provider is the market/price-path contract the orchestrator consumes.
// Implementations materialize the full series up front; all methods are
// read-only and safe for concurrent use after construction.
type Provider interface {
	// NumTicks returns the number of ticks available.
	NumTicks() int
	// TickAt returns the market state at tick i. Panics if i is out of
	// range; callers iterate 0..NumTicks()-1.
	TickAt(i int) types.MarketTick
	// PriceHistory returns the price prefix up to and including tick i
	// (length i+1). The returned slice is shared and must not be mutated.
	PriceHistory(i int) []float64
	// BenchmarkReturns returns the benchmark log-return prefix up to and
	// including tick i, or an empty slice when the provider has no
	// benchmark series.
	BenchmarkReturns(i int) []float64
}
