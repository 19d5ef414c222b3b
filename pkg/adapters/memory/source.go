package memory

import (
	"context"
	"fmt"
	"sync"
)

// ProgramSource implements ports.ProgramSource over an in-memory slice.
// SetProgram edits take effect at the start of the next round, matching the
// external-text-source contract: never mid-round.
type ProgramSource struct {
	mu       sync.RWMutex
	programs []string
}

// NewProgramSource creates a source with one raw program per agent.
func NewProgramSource(programs ...string) *ProgramSource {
	cp := make([]string, len(programs))
	copy(cp, programs)
	return &ProgramSource{programs: cp}
}

// Programs returns a snapshot of the current program texts.
func (s *ProgramSource) Programs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.programs))
	copy(out, s.programs)
	return out, nil
}

// SetProgram replaces the raw program of one agent.
func (s *ProgramSource) SetProgram(agentID int, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if agentID < 0 || agentID >= len(s.programs) {
		return fmt.Errorf("no agent with id %d", agentID)
	}
	s.programs[agentID] = raw
	return nil
}
