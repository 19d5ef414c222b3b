package domain

// Agent limits. An exercise runs between one and five probe agents; the
// whole set is replaced on reset or when the count changes.
const (
	MinAgents = 1
	MaxAgents = 5
)

// Agent is the per-probe mutable record. CurrentNode is owned by the
// scheduler for the duration of a round; Path is an append-only history
// kept for diagnostics only.
type Agent struct {
	ID          int   `json:"id"`
	CurrentNode int   `json:"current_node"`
	Finished    bool  `json:"finished"`
	Path        []int `json:"path"`
}

// NewAgent creates an agent at the start node.
func NewAgent(id, startNode int) *Agent {
	return &Agent{
		ID:          id,
		CurrentNode: startNode,
		Path:        []int{startNode},
	}
}

// MoveTo relocates the agent and records the hop in its path.
func (a *Agent) MoveTo(node int) {
	a.CurrentNode = node
	a.Path = append(a.Path, node)
}

// Clone returns a deep copy so stores and snapshots cannot alias the
// scheduler-owned record.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	cp := *a
	cp.Path = make([]int, len(a.Path))
	copy(cp.Path, a.Path)
	return &cp
}
