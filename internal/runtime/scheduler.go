// Package runtime implements the round scheduler: a synchronous concurrent
// interpreter that advances every agent's instruction pointer in lockstep,
// resolves cross-agent conditionals against a pre-move snapshot, and judges
// loop declarations against the graph's ground truth.
package runtime

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/loophound/internal/logging"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/program"
)

// maxIterationsPerRound is the hard cap guaranteeing round termination even
// under pathological programs. Hitting it ends the round as if exhausted; it
// is a safety valve, not an error.
const maxIterationsPerRound = 20

// NoDeclarer marks a round report without a loop-declaring agent.
const NoDeclarer = -1

// Scheduler executes rounds over a fixed graph. It owns the run state
// exclusively for the duration of ExecuteRound.
type Scheduler struct {
	graph  *domain.Graph
	logger *slog.Logger
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLogger sets a structured logger for round tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewScheduler creates a scheduler bound to a graph.
func NewScheduler(graph *domain.Graph, opts ...Option) *Scheduler {
	s := &Scheduler{
		graph:  graph,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RoundReport summarizes one executed round.
type RoundReport struct {
	Outcome    domain.Outcome
	Iterations int
	// Declarer is the ID of the agent that declared the loop, or NoDeclarer.
	Declarer int
}

// exec tracks one agent's progress through its program within a round. The
// instruction pointer lives here, not on the agent: programs replay from
// position zero every round.
type exec struct {
	agent *domain.Agent
	prog  program.Program
	ip    int
}

// active reports whether the agent still takes part in instruction
// processing this round.
func (e *exec) active() bool {
	return !e.agent.Finished && e.ip < e.prog.Len()
}

// decision is the outcome of the conditional-resolution phase for one agent.
type decision struct {
	op       program.Opcode // 0 means "consume without executing"
	fromCond bool
	delta    int
}

// move is a queued atomic multi-step relocation, committed after the
// instruction-resolution phase.
type move struct {
	idx  int
	hops []int
}

// ExecuteRound runs exactly one round to completion, mutating state in
// place. Programs are positional: programs[i] belongs to state.Agents[i].
func (s *Scheduler) ExecuteRound(state *domain.RunState, programs []program.Program) (RoundReport, error) {
	if state == nil {
		return RoundReport{}, fmt.Errorf("nil run state")
	}
	if state.Terminated() {
		return RoundReport{Outcome: state.Outcome, Declarer: NoDeclarer}, domain.ErrRunTerminated
	}
	if len(programs) != len(state.Agents) {
		return RoundReport{}, fmt.Errorf("program count %d does not match agent count %d", len(programs), len(state.Agents))
	}

	execs := make([]*exec, len(state.Agents))
	for i, a := range state.Agents {
		execs[i] = &exec{agent: a, prog: programs[i]}
	}

	report := RoundReport{Outcome: domain.OutcomeContinue, Declarer: NoDeclarer}

	for iter := 0; iter < maxIterationsPerRound; iter++ {
		report.Iterations = iter + 1

		s.markFinished(execs)

		decisions := s.resolveConditionals(execs)

		declarer, queued := s.resolveInstructions(execs, decisions)

		// Loop declaration cancels further iterations but not the moves
		// already queued by lower-id agents this iteration. This makes the
		// result depend on agent ID order; a pinning test covers it, check
		// there before changing the ordering.
		s.commitMoves(execs, queued)

		if declarer != NoDeclarer {
			report.Declarer = declarer
			report.Outcome = s.judgeDeclaration(state, declarer)
			return report, nil
		}

		if trigger := s.scanOverlaps(execs); trigger != NoDeclarer {
			report.Declarer = trigger
			report.Outcome = s.judgeDeclaration(state, trigger)
			return report, nil
		}

		if s.exhausted(execs) {
			break
		}
	}

	s.markFinished(execs)
	report.Outcome = s.judgeExhaustion(state, execs)
	state.Rounds++
	return report, nil
}

// markFinished derives the finished flag: once an agent sits on a node with
// no outgoing edge it leaves instruction processing for good.
func (s *Scheduler) markFinished(execs []*exec) {
	for _, ex := range execs {
		if !ex.agent.Finished && s.graph.IsTerminal(ex.agent.CurrentNode) {
			ex.agent.Finished = true
			s.logger.Debug("agent finished", "agent", ex.agent.ID, "node", ex.agent.CurrentNode)
		}
	}
}

// resolveConditionals evaluates every pending COND against the position
// snapshot taken before any agent moves this iteration. The pointer delta
// is decided here for conditionals (2, or 1 for a dangling COND); plain
// opcodes are handed to the instruction phase with their delta unset.
func (s *Scheduler) resolveConditionals(execs []*exec) []decision {
	decisions := make([]decision, len(execs))
	for i, ex := range execs {
		if !ex.active() {
			continue
		}
		op, _ := ex.prog.At(ex.ip)
		if op != program.OpCond {
			decisions[i] = decision{op: op}
			continue
		}
		payload, ok := ex.prog.At(ex.ip + 1)
		if !ok {
			// Dangling COND: skip only itself, execute nothing.
			decisions[i] = decision{delta: 1}
			continue
		}
		if s.hasCompanion(execs, i) {
			decisions[i] = decision{op: payload, fromCond: true, delta: 2}
		} else {
			decisions[i] = decision{delta: 2}
		}
	}
	return decisions
}

// hasCompanion reports whether another non-finished agent currently shares
// the node of execs[i].
func (s *Scheduler) hasCompanion(execs []*exec, i int) bool {
	here := execs[i].agent.CurrentNode
	for j, other := range execs {
		if j == i || other.agent.Finished {
			continue
		}
		if other.agent.CurrentNode == here {
			return true
		}
	}
	return false
}

// resolveInstructions walks agents in ID order, queuing movements and
// advancing pointers. It stops at the first loop declaration: agents after
// the declarer are not processed this iteration.
func (s *Scheduler) resolveInstructions(execs []*exec, decisions []decision) (int, []move) {
	queued := make([]move, 0, len(execs))
	for i, ex := range execs {
		if !ex.active() {
			continue
		}
		d := decisions[i]
		if d.op == 0 {
			// COND whose condition failed, or a dangling COND.
			ex.ip += d.delta
			continue
		}
		switch d.op {
		case program.OpLoop:
			if d.fromCond {
				ex.ip += 2
			} else {
				ex.ip++
			}
			s.logger.Debug("loop declared", "agent", ex.agent.ID, "node", ex.agent.CurrentNode)
			return ex.agent.ID, queued
		case program.OpStep:
			count := 1
			if d.fromCond {
				// A COND-gated STEP always advances exactly one node.
				ex.ip += 2
			} else {
				count = s.stepRun(ex)
				ex.ip += count
			}
			if hops := s.walk(ex.agent.CurrentNode, count); len(hops) > 0 {
				queued = append(queued, move{idx: i, hops: hops})
			}
		case program.OpNop:
			if d.fromCond {
				ex.ip += 2
			} else {
				ex.ip++
			}
		default:
			// Unknown opcode executes as NOP, never as an error. Parse
			// filters user input, so this only triggers on hand-built
			// programs.
			if d.fromCond {
				ex.ip += 2
			} else {
				ex.ip++
			}
		}
	}
	return NoDeclarer, queued
}

// stepRun counts the maximal run of consecutive literal STEP opcodes
// starting at the current pointer.
func (s *Scheduler) stepRun(ex *exec) int {
	count := 0
	for {
		op, ok := ex.prog.At(ex.ip + count)
		if !ok || op != program.OpStep {
			break
		}
		count++
	}
	return count
}

// walk resolves up to count successor lookups from a node as one atomic
// multi-step move, stopping early (without error) at a terminal node.
func (s *Scheduler) walk(from, count int) []int {
	hops := make([]int, 0, count)
	cur := from
	for k := 0; k < count; k++ {
		next, ok := s.graph.Successor(cur)
		if !ok {
			break
		}
		hops = append(hops, next)
		cur = next
	}
	return hops
}

// commitMoves applies queued relocations. Each agent only reads and writes
// its own node, so application order cannot affect final positions.
func (s *Scheduler) commitMoves(execs []*exec, queued []move) {
	for _, m := range queued {
		for _, hop := range m.hops {
			execs[m.idx].agent.MoveTo(hop)
		}
	}
}

// exhausted reports whether no agent has unconsumed instructions left.
func (s *Scheduler) exhausted(execs []*exec) bool {
	for _, ex := range execs {
		if ex.active() {
			return false
		}
	}
	return true
}

// judgeDeclaration compares a loop declaration with the graph's ground
// truth and moves the run into its terminal status.
func (s *Scheduler) judgeDeclaration(state *domain.RunState, declarer int) domain.Outcome {
	outcome := domain.OutcomeLoopFalsePositive
	if s.graph.HasLoop() {
		outcome = domain.OutcomeLoopCorrect
	}
	state.Status = domain.StatusLoopDeclared
	state.Outcome = outcome
	state.Rounds++
	s.logger.Info("round ended by loop declaration",
		"agent", declarer,
		"outcome", outcome,
		"rounds", state.Rounds,
	)
	return outcome
}

// judgeExhaustion reports the outcome of a round that ended without a loop
// declaration.
func (s *Scheduler) judgeExhaustion(state *domain.RunState, execs []*exec) domain.Outcome {
	for _, ex := range execs {
		if !ex.agent.Finished {
			return domain.OutcomeContinue
		}
	}
	state.Status = domain.StatusAllFinished
	state.Outcome = domain.OutcomeAllFinished
	s.logger.Info("all agents reached terminating nodes", "rounds", state.Rounds+1)
	return domain.OutcomeAllFinished
}
