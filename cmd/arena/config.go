package main

import (
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/tradearena/arena/internal/engine"
	"github.com/tradearena/arena/internal/market"
	"github.com/tradearena/arena/internal/strategy"
	"github.com/tradearena/arena/pkg/errors"
)

// MarketKind selects the price-path source.
type MarketKind string

const (
	MarketSynthetic  MarketKind = "synthetic"
	MarketHistorical MarketKind = "historical"
)

// RunFile is the YAML file describing one full simulation run.
type RunFile struct {
	Run    engine.RunConfig `yaml:"run"`
	Market MarketSection    `yaml:"market"`
	Agents []AgentSection   `yaml:"agents"`
}

type MarketSection struct {
	Kind       MarketKind              `yaml:"kind"`
	Synthetic  *market.SyntheticConfig `yaml:"synthetic"`
	Historical *HistoricalSection      `yaml:"historical"`
}

// HistoricalSection points at CSV bar files on disk. Loading happens
// here in the CLI; the simulation core itself never touches files.
type HistoricalSection struct {
	InstrumentCSV    string `yaml:"instrument_csv"`
	BenchmarkCSV     string `yaml:"benchmark_csv"`
	VolatilityWindow int    `yaml:"volatility_window"`
}

type AgentSection struct {
	Name     string          `yaml:"name"`
	Strategy strategy.Kind   `yaml:"strategy"`
	Config   strategy.Config `yaml:"config"`
}

// LoadRunFile reads and parses a run file, overlaying defaults so a
// minimal file works out of the box.
func LoadRunFile(path string) (*RunFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "reading run file %s", path)
	}

	file := &RunFile{Run: engine.DefaultRunConfig()}
	if err := yaml.Unmarshal(raw, file); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "parsing run file %s", path)
	}

	if file.Market.Kind == "" {
		file.Market.Kind = MarketSynthetic
	}
	return file, nil
}

// UnmarshalYAML overlays the parsed agent config on top of the strategy
// defaults, so run files only need to mention what they change.
func (a *AgentSection) UnmarshalYAML(value *yaml.Node) error {
	type rawAgent struct {
		Name     string        `yaml:"name"`
		Strategy strategy.Kind `yaml:"strategy"`
		Config   yaml.Node     `yaml:"config"`
	}
	var raw rawAgent
	if err := value.Decode(&raw); err != nil {
		return err
	}

	a.Name = raw.Name
	a.Strategy = raw.Strategy
	a.Config = strategy.DefaultConfig()
	if !raw.Config.IsZero() {
		if err := raw.Config.Decode(&a.Config); err != nil {
			return err
		}
	}
	return nil
}

// Descriptors converts the agent sections into engine descriptors.
func (f *RunFile) Descriptors() ([]engine.AgentDescriptor, error) {
	if len(f.Agents) == 0 {
		return nil, errors.New(errors.ErrCodeNoAgents, "run file declares no agents")
	}

	descs := make([]engine.AgentDescriptor, 0, len(f.Agents))
	for _, a := range f.Agents {
		descs = append(descs, engine.AgentDescriptor{
			ID:     uuid.New(),
			Name:   a.Name,
			Kind:   a.Strategy,
			Config: a.Config,
		})
	}
	return descs, nil
}

// Provider builds the configured market provider.
func (f *RunFile) Provider() (market.Provider, error) {
	switch f.Market.Kind {
	case MarketSynthetic:
		cfg := market.DefaultSyntheticConfig(0, 1000)
		if f.Market.Synthetic != nil {
			cfg = *f.Market.Synthetic
		}
		return market.NewSyntheticProvider(cfg)

	case MarketHistorical:
		section := f.Market.Historical
		if section == nil {
			return nil, errors.New(errors.ErrCodeMarketConfigError, "historical market requires a historical section")
		}
		instrument, err := loadBarsCSV(section.InstrumentCSV)
		if err != nil {
			return nil, err
		}
		benchmark, err := loadBarsCSV(section.BenchmarkCSV)
		if err != nil {
			return nil, err
		}
		cfg := market.DefaultHistoricalConfig(f.Run.Interval)
		if section.VolatilityWindow > 0 {
			cfg.VolatilityWindow = section.VolatilityWindow
		}
		return market.NewHistoricalProvider(instrument, benchmark, cfg)

	default:
		return nil, errors.Newf(errors.ErrCodeMarketConfigError, "unknown market kind %q", f.Market.Kind)
	}
}
