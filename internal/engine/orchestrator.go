package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/tradearena/arena/internal/logger"
	"github.com/tradearena/arena/internal/market"
	"github.com/tradearena/arena/internal/types"
	"github.com/tradearena/arena/pkg/errors"
)

const (
	// Cap on concurrent agent goroutines per tick.
	maxWorkers = 20
	// Progress is reported every N percent of ticks, not every tick.
	progressUpdateIntervalPct = 10
)

var validateRun = validator.New()

// RunConfig is the global configuration of one simulation run, shared
// by every agent.
type RunConfig struct {
	InitialEquity float64        `yaml:"initial_equity" validate:"gt=0"`
	BaseSlippage  float64        `yaml:"base_slippage" validate:"gte=0,lt=1"`
	FeeRate       float64        `yaml:"fee_rate" validate:"gte=0,lt=1"`
	Interval      types.Interval `yaml:"trading_interval" validate:"required"`
	// MaxTicks truncates the market series when positive; zero runs the
	// whole series.
	MaxTicks int `yaml:"max_ticks" validate:"gte=0"`
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		InitialEquity: 100_000,
		BaseSlippage:  0.001,
		FeeRate:       0.001,
		Interval:      types.Interval5Min,
	}
}

func (c RunConfig) Validate() error {
	if err := validateRun.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid run configuration", err)
	}
	if _, err := c.Interval.Duration(); err != nil {
		return err
	}
	return nil
}

// ProgressWriter receives periodic progress updates during a run. The
// persistence collaborator implements it; progress failures are logged
// and do not abort the simulation.
type ProgressWriter interface {
	WriteProgress(ctx context.Context, progress types.RoundProgress) error
}

// ResultWriter receives one final Result per agent.
type ResultWriter interface {
	WriteResult(ctx context.Context, result types.Result) error
}

// Orchestrator drives the tick loop across all agents: per-tick
// parallel agent processing with a barrier between ticks, bounded
// progress reporting, and result finalization.
type Orchestrator struct {
	cfg      RunConfig
	log      *logger.Logger
	progress ProgressWriter
}

// NewOrchestrator validates the run configuration. progress may be nil
// when the caller does not track progress.
func NewOrchestrator(cfg RunConfig, log *logger.Logger, progress ProgressWriter) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Orchestrator{cfg: cfg, log: log, progress: progress}, nil
}

// Run executes the full simulation over the provider's price path and
// returns one Result per agent, in descriptor order. When results is
// non-nil each finalized Result is also handed to it before Run
// returns. On error the partial results collected so far are returned
// alongside it so the caller can persist what exists and mark the run
// failed.
func (o *Orchestrator) Run(
	ctx context.Context,
	provider market.Provider,
	descriptors []AgentDescriptor,
	results ResultWriter,
) ([]types.Result, error) {
	if len(descriptors) == 0 {
		return nil, errors.New(errors.ErrCodeNoAgents, "simulation requires at least one agent")
	}

	numTicks := provider.NumTicks()
	if o.cfg.MaxTicks > 0 && o.cfg.MaxTicks < numTicks {
		numTicks = o.cfg.MaxTicks
	}
	if numTicks == 0 {
		return nil, errors.New(errors.ErrCodeSimulationSetup, "market provider has no ticks")
	}

	runners := make([]*AgentRunner, 0, len(descriptors))
	for _, desc := range descriptors {
		runner, err := NewAgentRunner(desc, o.cfg.InitialEquity, o.cfg.BaseSlippage, o.cfg.FeeRate)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeSimulationSetup, err, "setting up agent %s", desc.ID)
		}
		runners = append(runners, runner)
	}

	o.log.Info("starting simulation",
		zap.Int("ticks", numTicks),
		zap.Int("agents", len(runners)),
		zap.String("interval", string(o.cfg.Interval)))

	lastProgress := 0
	for tick := 0; tick < numTicks; tick++ {
		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(errors.ErrCodeRunCancelled, ctx.Err(), "run cancelled at tick %d", tick)
		default:
		}

		state := provider.TickAt(tick)
		prices := provider.PriceHistory(tick)

		o.processTickParallel(runners, tick, prices, state.Volatility, state.Timestamp)

		currentProgress := (tick + 1) * 100 / numTicks
		if currentProgress >= lastProgress+progressUpdateIntervalPct || tick == numTicks-1 {
			o.writeProgress(ctx, types.RoundProgress{
				ProgressPct: currentProgress,
				TotalAgents: len(runners),
			})
			lastProgress = currentProgress
			o.log.Debug("simulation progress",
				zap.Int("pct", currentProgress),
				zap.Int("tick", tick+1),
				zap.Int("ticks", numTicks))
		}
	}

	return o.finalize(ctx, provider, runners, numTicks, results)
}

// processTickParallel fans one tick out across the agents. Runners are
// independent so this is safe; a panic in one agent kills that agent
// instead of the run. All agents finish before the next tick starts.
func (o *Orchestrator) processTickParallel(
	runners []*AgentRunner,
	tick int,
	prices []float64,
	volatility float64,
	timestamp optional.Option[time.Time],
) {
	workers := maxWorkers
	if len(runners) < workers {
		workers = len(runners)
	}

	if workers <= 1 {
		// No point paying goroutine overhead for a single agent.
		for _, runner := range runners {
			o.runTick(runner, tick, prices, volatility, timestamp)
		}
		return
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for _, runner := range runners {
		wg.Add(1)
		sem <- struct{}{}
		go func(r *AgentRunner) {
			defer wg.Done()
			defer func() { <-sem }()
			o.runTick(r, tick, prices, volatility, timestamp)
		}(runner)
	}
	wg.Wait()
}

func (o *Orchestrator) runTick(
	r *AgentRunner,
	tick int,
	prices []float64,
	volatility float64,
	timestamp optional.Option[time.Time],
) {
	defer func() {
		if p := recover(); p != nil {
			o.log.Error("agent tick processing failed",
				zap.String("agent", r.desc.ID.String()),
				zap.Int("tick", tick),
				zap.Any("panic", p))
			r.execution.Kill(fmt.Sprintf("Processing error: %v", p))
		}
	}()
	r.ProcessTick(tick, prices, volatility, timestamp)
}

func (o *Orchestrator) finalize(
	ctx context.Context,
	provider market.Provider,
	runners []*AgentRunner,
	numTicks int,
	writer ResultWriter,
) ([]types.Result, error) {
	benchmarkReturns := provider.BenchmarkReturns(numTicks - 1)
	barsPerYear, err := o.cfg.Interval.BarsPerYear()
	if err != nil {
		return nil, err
	}

	timestampAt := func(tick int) optional.Option[time.Time] {
		if tick >= numTicks {
			return optional.None[time.Time]()
		}
		return provider.TickAt(tick).Timestamp
	}

	results := make([]types.Result, 0, len(runners))
	for idx, runner := range runners {
		result, err := runner.Finalize(benchmarkReturns, timestampAt, barsPerYear)
		if err != nil {
			return results, errors.Wrapf(errors.ErrCodeSimulationFailed, err, "run failed while finalizing agent %s", runner.desc.ID)
		}
		results = append(results, result)

		if writer != nil {
			if err := writer.WriteResult(ctx, result); err != nil {
				return results, errors.Wrapf(errors.ErrCodeSimulationFailed, err, "writing result for agent %s", runner.desc.ID)
			}
		}

		o.writeProgress(ctx, types.RoundProgress{
			ProgressPct:     100,
			AgentsProcessed: idx + 1,
			TotalAgents:     len(runners),
		})
	}

	o.log.Info("simulation completed", zap.Int("agents", len(results)))
	return results, nil
}

func (o *Orchestrator) writeProgress(ctx context.Context, progress types.RoundProgress) {
	if o.progress == nil {
		return
	}
	if err := o.progress.WriteProgress(ctx, progress); err != nil {
		o.log.Warn("progress update failed", zap.Error(err))
	}
}
