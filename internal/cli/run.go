// Package cli implements the command surface behind cmd/loophound: the
// interactive exercise loop, headless auto runs, and the factory wiring for
// graph, programs and persistence.
package cli

import (
	"fmt"

	"github.com/aretw0/loophound/internal/config"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	ConfigPath string
	GraphFile  string
	Seed       int64
	SeedSet    bool
	Nodes      int
	Agents     int
	Programs   []string
	SessionID  string
	RedisAddr  string
	IntervalMs int
	Headless   bool
	Debug      bool
}

// Execute handles the run command: merge flags over the config file, then
// dispatch to the interactive or headless loop.
func Execute(opts RunOptions) error {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return err
	}
	return RunExercise(cfg, opts)
}

func resolveConfig(opts RunOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	// Flags win over the file.
	if opts.GraphFile != "" {
		cfg.GraphFile = opts.GraphFile
	}
	if opts.SeedSet {
		seed := opts.Seed
		cfg.Seed = &seed
	}
	if opts.Nodes > 0 {
		cfg.Nodes = opts.Nodes
	}
	if opts.Agents > 0 {
		cfg.Agents = opts.Agents
	}
	if len(opts.Programs) > 0 {
		cfg.Programs = opts.Programs
		if opts.Agents == 0 {
			cfg.Agents = len(opts.Programs)
		}
	}
	if opts.RedisAddr != "" {
		cfg.Redis.Addr = opts.RedisAddr
	}
	if opts.IntervalMs > 0 {
		cfg.IntervalMs = opts.IntervalMs
	}

	if len(cfg.Programs) > 0 && len(cfg.Programs) != cfg.Agents {
		return nil, fmt.Errorf("%d programs given for %d agents", len(cfg.Programs), cfg.Agents)
	}
	return cfg, nil
}
