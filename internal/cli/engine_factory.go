package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/internal/adapters/redis"
	"github.com/aretw0/loophound/internal/compiler"
	"github.com/aretw0/loophound/internal/config"
	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/generator"
	"github.com/aretw0/loophound/pkg/ports"
	"github.com/aretw0/loophound/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// buildSession assembles a session from the config: graph from a file or
// the generator, programs seeded into an editable in-memory source.
func buildSession(cfg *config.Config, logger *slog.Logger) (*loophound.Session, *memory.ProgramSource, error) {
	g, err := resolveGraph(cfg)
	if err != nil {
		return nil, nil, err
	}

	programs := make([]string, cfg.Agents)
	copy(programs, cfg.Programs)
	src := memory.NewProgramSource(programs...)

	sess, err := loophound.New(g,
		loophound.WithAgentCount(cfg.Agents),
		loophound.WithProgramSource(src),
		loophound.WithStartNode(cfg.StartNode),
		loophound.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing session: %w", err)
	}
	return sess, src, nil
}

func resolveGraph(cfg *config.Config) (*domain.Graph, error) {
	if cfg.GraphFile != "" {
		data, err := os.ReadFile(cfg.GraphFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read graph file: %w", err)
		}
		g, err := compiler.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse graph file: %w", err)
		}
		return g, nil
	}

	genOpts := []generator.Option{}
	if cfg.Seed != nil {
		genOpts = append(genOpts, generator.WithSeed(*cfg.Seed))
	}
	gen := generator.New(genOpts...)
	if cfg.Nodes > 0 {
		return gen.GraphWithSize(cfg.Nodes)
	}
	return gen.Graph()
}

// setupPersistence initializes the state store and session manager. With a
// Redis address configured the store and the distributed locker share one
// client; otherwise everything stays in process memory.
func setupPersistence(cfg *config.Config, logger *slog.Logger) (*session.Manager, func() error) {
	if cfg.Redis.Addr == "" {
		return session.NewManager(memory.NewStore(), session.WithLogger(logger)), func() error { return nil }
	}

	client := backend.NewClient(&backend.Options{Addr: cfg.Redis.Addr})

	storeOpts := []redis.Option{}
	if cfg.Redis.Prefix != "" {
		storeOpts = append(storeOpts, redis.WithPrefix(cfg.Redis.Prefix))
	}
	if cfg.Redis.TTLSeconds > 0 {
		storeOpts = append(storeOpts, redis.WithTTL(time.Duration(cfg.Redis.TTLSeconds)*time.Second))
	}

	var store ports.StateStore = redis.NewFromClient(client, storeOpts...)
	locker := redis.NewLocker(client, cfg.Redis.Prefix)

	mgr := session.NewManager(store,
		session.WithLocker(locker),
		session.WithLogger(logger),
	)
	return mgr, client.Close
}
