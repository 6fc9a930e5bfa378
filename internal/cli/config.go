package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/katalvlaran/hamgraph/decision"
	"github.com/katalvlaran/hamgraph/strategy"
)

// Config is the full solve configuration; the TOML layout mirrors the
// struct tags:
//
//	[instance]
//	nodes = 30
//	neighbors = 3
//	seed = 7
//
//	[strategy]
//	mode = "min-envelope-degree"
//	incremental = true
//
//	[search]
//	optimize = false
//	node_limit = 100000
//	time_limit = "10s"
type Config struct {
	Instance InstanceConfig `toml:"instance"`
	Strategy StrategyConfig `toml:"strategy"`
	Search   SearchConfig   `toml:"search"`
}

// InstanceConfig selects the generator.
type InstanceConfig struct {
	Nodes     int   `toml:"nodes"`
	Neighbors int   `toml:"neighbors"`
	Seed      int64 `toml:"seed"`
	// King > 0 selects the king's graph of a King×King board.
	King     int  `toml:"king"`
	Directed bool `toml:"directed"`
}

// StrategyConfig configures arc selection.
type StrategyConfig struct {
	Mode         string `toml:"mode"`
	Operator     string `toml:"operator"`
	Incremental  bool   `toml:"incremental"`
	Constructive bool   `toml:"constructive"`
	Start        int    `toml:"start"`
}

// SearchConfig configures the search driver.
type SearchConfig struct {
	Optimize  bool   `toml:"optimize"`
	NodeLimit int    `toml:"node_limit"`
	TimeLimit string `toml:"time_limit"`
}

var errInvalidConfig = errors.New("invalid configuration")

// DefaultConfig returns the settings used without --config.
func DefaultConfig() Config {
	return Config{
		Instance: InstanceConfig{Nodes: 20, Neighbors: 2, Seed: 1},
		Strategy: StrategyConfig{
			Mode:     strategy.MinEnvelopeDegree.String(),
			Operator: decision.Enforce.String(),
		},
	}
}

// LoadConfig decodes path over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if und := md.Undecoded(); len(und) > 0 {
		return cfg, fmt.Errorf("%w: unknown key %q in %s", errInvalidConfig, und[0].String(), path)
	}
	return cfg, nil
}

// resolved is a validated Config in typed form.
type resolved struct {
	Config
	mode      strategy.Mode
	operator  decision.Operator
	timeLimit time.Duration
}

func (cfg Config) resolve() (resolved, error) {
	r := resolved{Config: cfg}
	var err error
	if r.mode, err = strategy.ParseMode(cfg.Strategy.Mode); err != nil {
		return r, err
	}
	if r.operator, err = decision.ParseOperator(cfg.Strategy.Operator); err != nil {
		return r, err
	}
	if cfg.Search.TimeLimit != "" {
		if r.timeLimit, err = time.ParseDuration(cfg.Search.TimeLimit); err != nil {
			return r, fmt.Errorf("%w: time_limit: %w", errInvalidConfig, err)
		}
	}
	if cfg.Instance.King == 0 && cfg.Instance.Nodes < 3 {
		return r, fmt.Errorf("%w: nodes must be at least 3", errInvalidConfig)
	}
	if cfg.Instance.King != 0 && cfg.Instance.Directed {
		return r, fmt.Errorf("%w: king's graphs are undirected", errInvalidConfig)
	}
	if cfg.Search.NodeLimit < 0 || cfg.Instance.Neighbors < 0 {
		return r, fmt.Errorf("%w: limits and neighbors must be non-negative", errInvalidConfig)
	}
	return r, nil
}
