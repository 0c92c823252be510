package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap/zapcore"

	"github.com/tradearena/arena/internal/engine"
	"github.com/tradearena/arena/internal/logger"
	"github.com/tradearena/arena/internal/market"
	"github.com/tradearena/arena/internal/sink"
	"github.com/tradearena/arena/internal/types"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	outputDir := cmd.String("output")
	quiet := cmd.Bool("quiet")
	verbose := cmd.Bool("verbose")

	file, err := LoadRunFile(configPath)
	if err != nil {
		return err
	}

	// CLI overrides for quick experiments.
	if cmd.IsSet("seed") && file.Market.Synthetic != nil {
		file.Market.Synthetic.Seed = cmd.Int("seed")
	}
	if cmd.IsSet("ticks") {
		file.Run.MaxTicks = int(cmd.Int("ticks"))
	}

	var appLogger *logger.Logger
	if verbose {
		appLogger, err = logger.NewLoggerWithLevel(zapcore.DebugLevel)
	} else {
		appLogger, err = logger.NewLogger()
	}
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	provider, err := file.Provider()
	if err != nil {
		return err
	}
	descriptors, err := file.Descriptors()
	if err != nil {
		return err
	}

	store, err := sink.NewDuckDBSink(appLogger)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Initialize(); err != nil {
		return err
	}

	var progress engine.ProgressWriter = store
	if !quiet {
		progress = newBarProgressWriter(fmt.Sprintf("Simulating %d agents", len(descriptors)), store)
	}

	orchestrator, err := engine.NewOrchestrator(file.Run, appLogger, progress)
	if err != nil {
		return err
	}

	results, err := orchestrator.Run(ctx, provider, descriptors, store)
	if err != nil {
		return err
	}

	if err := writeMarketSeries(ctx, store, provider, file.Run.MaxTicks); err != nil {
		return err
	}

	if err := printLeaderboard(ctx, store, descriptors, len(results)); err != nil {
		return err
	}

	if outputDir != "" {
		if err := store.Export(outputDir); err != nil {
			return err
		}
		fmt.Printf("Exported results to %s\n", outputDir)
	}
	return nil
}

// writeMarketSeries stores the round's price path and benchmark returns so
// agent results can be charted against the market they ran on.
func writeMarketSeries(ctx context.Context, store *sink.DuckDBSink, provider market.Provider, maxTicks int) error {
	numTicks := provider.NumTicks()
	if maxTicks > 0 && maxTicks < numTicks {
		numTicks = maxTicks
	}

	prices := make([]types.ChartPoint, numTicks)
	for i := 0; i < numTicks; i++ {
		tick := provider.TickAt(i)
		prices[i] = types.ChartPoint{Tick: i, Timestamp: tick.Timestamp, Value: tick.Price}
	}
	if err := store.WriteMarketSeries(ctx, "price_path", prices); err != nil {
		return err
	}

	benchmarkReturns := provider.BenchmarkReturns(numTicks - 1)
	if len(benchmarkReturns) == 0 {
		return nil
	}
	points := make([]types.ChartPoint, len(benchmarkReturns))
	for i, r := range benchmarkReturns {
		points[i] = types.ChartPoint{Tick: i, Timestamp: provider.TickAt(i).Timestamp, Value: r}
	}
	return store.WriteMarketSeries(ctx, "benchmark_returns", points)
}

func printLeaderboard(ctx context.Context, store *sink.DuckDBSink, descriptors []engine.AgentDescriptor, limit int) error {
	names := make(map[string]string, len(descriptors))
	for _, d := range descriptors {
		names[d.ID.String()] = d.Name
	}

	board, err := store.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Printf("\n%-4s %-24s %14s %10s %8s\n", "#", "AGENT", "FINAL EQUITY", "RETURN", "KILLED")
	for i, row := range board {
		name := names[row.AgentID]
		if name == "" {
			name = row.AgentID
		}
		fmt.Printf("%-4d %-24s %14.2f %9.2f%% %8v\n", i+1, name, row.FinalEquity, row.TotalReturn, row.IsKilled)
	}
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "arena",
		Usage: "Backtest trading strategy agents over a shared price path",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a simulation round from a YAML run file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML run file",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Directory for parquet export of results",
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Override the synthetic market seed",
					},
					&cli.IntFlag{
						Name:  "ticks",
						Usage: "Limit the number of ticks simulated",
					},
					&cli.BoolFlag{
						Name:  "quiet",
						Usage: "Disable the progress bar",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Enable debug logging",
					},
				},
				Action: runAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
