package loophound

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/loophound/internal/logging"
	"github.com/aretw0/loophound/internal/runtime"
	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/observability"
	"github.com/aretw0/loophound/pkg/ports"
	"github.com/aretw0/loophound/pkg/program"
)

// Version is the library version, injected at build time for releases.
var Version = "dev"

// Session is the explicit owner of one loop-detection exercise: the graph,
// the agent set, and the scheduler that advances them. There is no ambient
// process-scoped state; everything a run needs lives here.
//
// A Session is safe for concurrent use: rounds run to completion under an
// internal mutex, so a timed auto-step can never overlap a manual one.
type Session struct {
	mu sync.Mutex

	name       string
	graph      *domain.Graph
	scheduler  *runtime.Scheduler
	source     ports.ProgramSource
	agentCount int
	startNode  int
	state      *domain.RunState
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option defines a functional option for configuring the Session.
type Option func(*Session)

// WithName sets a descriptive session name used in log context.
func WithName(name string) Option {
	return func(s *Session) {
		s.name = name
	}
}

// WithAgentCount sets the number of probe agents (1 to 5).
func WithAgentCount(k int) Option {
	return func(s *Session) {
		s.agentCount = k
	}
}

// WithPrograms installs an in-memory program source seeded with one raw
// instruction string per agent. When no agent count is set explicitly, the
// number of programs decides it.
func WithPrograms(raw ...string) Option {
	return func(s *Session) {
		s.source = memory.NewProgramSource(raw...)
		if s.agentCount == 0 {
			s.agentCount = len(raw)
		}
	}
}

// WithProgramSource injects a custom program source, bypassing the default
// in-memory one.
func WithProgramSource(src ports.ProgramSource) Option {
	return func(s *Session) {
		s.source = src
	}
}

// WithStartNode overrides the node agents are placed on (default: 0).
func WithStartNode(id int) Option {
	return func(s *Session) {
		s.startNode = id
	}
}

// WithLogger sets a custom structured logger for the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// New initializes a session over an immutable graph.
func New(graph *domain.Graph, opts ...Option) (*Session, error) {
	if graph == nil || graph.NodeCount() == 0 {
		return nil, fmt.Errorf("a non-empty graph is required")
	}

	s := &Session{
		graph:  graph,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.agentCount == 0 {
		s.agentCount = domain.MinAgents
	}
	if s.agentCount < domain.MinAgents || s.agentCount > domain.MaxAgents {
		return nil, fmt.Errorf("agent count %d outside [%d, %d]", s.agentCount, domain.MinAgents, domain.MaxAgents)
	}
	if _, ok := graph.Node(s.startNode); !ok {
		return nil, fmt.Errorf("start node %d does not exist", s.startNode)
	}
	if s.source == nil {
		blank := make([]string, s.agentCount)
		s.source = memory.NewProgramSource(blank...)
	}
	if s.name != "" {
		s.logger = s.logger.With("session", s.name)
	}

	s.scheduler = runtime.NewScheduler(graph, runtime.WithLogger(s.logger))
	s.state = domain.NewRunState(s.agentCount, s.startNode)
	return s, nil
}

// Step executes exactly one round and reports its outcome. Programs are
// re-read from the source at the start of the round, so edits made between
// rounds take effect here and never mid-round. Stepping a terminated run
// returns the stored terminal outcome together with domain.ErrRunTerminated.
func (s *Session) Step(ctx context.Context) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Terminated() {
		return s.state.Outcome, domain.ErrRunTerminated
	}

	raws, err := s.source.Programs(ctx)
	if err != nil {
		return domain.OutcomeContinue, fmt.Errorf("failed to read programs: %w", err)
	}
	if len(raws) != s.agentCount {
		return domain.OutcomeContinue, fmt.Errorf("program source returned %d programs for %d agents", len(raws), s.agentCount)
	}

	programs := make([]program.Program, len(raws))
	for i, raw := range raws {
		programs[i] = program.Parse(raw)
	}

	report, err := s.scheduler.ExecuteRound(s.state, programs)
	if err != nil {
		return report.Outcome, err
	}

	s.metrics.ObserveRound(report.Outcome, report.Iterations, s.activeAgentsLocked())
	s.logger.Debug("round executed",
		"outcome", report.Outcome,
		"iterations", report.Iterations,
		"rounds", s.state.Rounds,
	)
	return report.Outcome, nil
}

// Reset replaces the whole agent set at the start node and clears finished
// flags, paths and any terminal outcome. The graph and its ground truth are
// untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = domain.NewRunState(s.agentCount, s.startNode)
	s.metrics.ObserveReset(s.agentCount)
	s.logger.Debug("session reset", "agents", s.agentCount)
}

// Restore replaces the run state with a persisted snapshot, e.g. one loaded
// from a StateStore.
func (s *Session) Restore(state *domain.RunState) error {
	if state == nil {
		return fmt.Errorf("nil run state")
	}
	if len(state.Agents) != s.agentCount {
		return fmt.Errorf("snapshot has %d agents, session expects %d", len(state.Agents), s.agentCount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	return nil
}

// State returns a deep copy of the current run state, safe for
// presentation or persistence between rounds.
func (s *Session) State() *domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Outcome returns the latest reported outcome.
func (s *Session) Outcome() domain.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Outcome
}

// Graph returns the immutable graph under simulation.
func (s *Session) Graph() *domain.Graph {
	return s.graph
}

// AgentCount returns the configured number of agents.
func (s *Session) AgentCount() int {
	return s.agentCount
}

// Name returns the descriptive session name.
func (s *Session) Name() string {
	return s.name
}

func (s *Session) activeAgentsLocked() int {
	active := 0
	for _, a := range s.state.Agents {
		if !a.Finished {
			active++
		}
	}
	return active
}
