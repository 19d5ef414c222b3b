package domain

// RunStatus describes the lifecycle of an exercise run.
type RunStatus string

const (
	// StatusActive means the run accepts further rounds.
	StatusActive RunStatus = "active"
	// StatusLoopDeclared means an agent declared a loop; the run is over.
	StatusLoopDeclared RunStatus = "loop_declared"
	// StatusAllFinished means every agent reached a terminal node.
	StatusAllFinished RunStatus = "all_finished"
)

// RunState is the snapshot of an exercise between rounds. It is the unit of
// persistence: stores save and load whole RunStates, never individual
// agents. Within a round it is exclusively owned by the scheduler.
type RunState struct {
	Agents  []*Agent  `json:"agents"`
	Status  RunStatus `json:"status"`
	Rounds  int       `json:"rounds"`
	Outcome Outcome   `json:"outcome"`
}

// NewRunState creates a fresh run with agentCount agents placed on the
// start node.
func NewRunState(agentCount, startNode int) *RunState {
	agents := make([]*Agent, 0, agentCount)
	for i := 0; i < agentCount; i++ {
		agents = append(agents, NewAgent(i, startNode))
	}
	return &RunState{
		Agents:  agents,
		Status:  StatusActive,
		Outcome: OutcomeContinue,
	}
}

// Terminated reports whether the run reached a terminal outcome.
func (s *RunState) Terminated() bool {
	return s.Status != StatusActive
}

// Clone returns a deep copy safe to hand to presentation or storage layers.
func (s *RunState) Clone() *RunState {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Agents = make([]*Agent, len(s.Agents))
	for i, a := range s.Agents {
		cp.Agents[i] = a.Clone()
	}
	return &cp
}
