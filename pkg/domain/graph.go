package domain

import (
	"fmt"
	"sort"
)

// Node is a vertex of the functional graph. Identity is the integer ID;
// the label exists for display and for the text serialization format.
type Node struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Edge is a normalized directed edge. Loop marks the designated back-edge
// that closes the (at most one) cycle of the graph.
type Edge struct {
	SourceID int  `json:"source_id"`
	TargetID int  `json:"target_id"`
	Loop     bool `json:"loop,omitempty"`
}

// Graph is an immutable directed functional graph: every node has at most
// one outgoing edge, so the structure is a union of simple paths and at most
// one cycle. Whether the graph contains a loop is fixed at construction and
// is never recomputed from agent behavior.
type Graph struct {
	nodes   []Node
	succ    map[int]int
	edges   []Edge
	hasLoop bool
	loopSet bool
}

// GraphOption configures graph construction.
type GraphOption func(*Graph)

// WithLoopHint forces the ground-truth loop flag. The text parser uses it
// when the trailing summary line is the only loop evidence (no edge is
// tagged as the back-edge).
func WithLoopHint(hasLoop bool) GraphOption {
	return func(g *Graph) {
		g.hasLoop = hasLoop
		g.loopSet = true
	}
}

// NewGraph builds an immutable graph from nodes and edges, enforcing the
// functional-graph invariant (at most one outgoing edge per node) and
// referential integrity of edge endpoints.
func NewGraph(nodes []Node, edges []Edge, opts ...GraphOption) (*Graph, error) {
	g := &Graph{
		nodes: make([]Node, len(nodes)),
		succ:  make(map[int]int, len(edges)),
		edges: make([]Edge, len(edges)),
	}
	copy(g.nodes, nodes)
	copy(g.edges, edges)

	known := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		if known[n.ID] {
			return nil, fmt.Errorf("duplicate node id %d", n.ID)
		}
		known[n.ID] = true
	}

	for _, e := range g.edges {
		if !known[e.SourceID] {
			return nil, fmt.Errorf("edge references unknown source node %d", e.SourceID)
		}
		if !known[e.TargetID] {
			return nil, fmt.Errorf("edge references unknown target node %d", e.TargetID)
		}
		if _, dup := g.succ[e.SourceID]; dup {
			return nil, fmt.Errorf("node %d has more than one outgoing edge", e.SourceID)
		}
		g.succ[e.SourceID] = e.TargetID
		if e.Loop {
			g.hasLoop = true
			g.loopSet = true
		}
	}

	sort.Slice(g.nodes, func(i, j int) bool { return g.nodes[i].ID < g.nodes[j].ID })
	sort.Slice(g.edges, func(i, j int) bool { return g.edges[i].SourceID < g.edges[j].SourceID })

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// Nodes returns a copy of the node list, ordered by ID.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Node looks up a node by ID.
func (g *Graph) Node(id int) (Node, bool) {
	for _, n := range g.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Edges returns a copy of the edge list, ordered by source ID.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// Successor returns the single outgoing neighbor of a node, if any.
func (g *Graph) Successor(id int) (int, bool) {
	next, ok := g.succ[id]
	return next, ok
}

// IsTerminal reports whether a node has no outgoing edge.
func (g *Graph) IsTerminal(id int) bool {
	_, ok := g.succ[id]
	return !ok
}

// HasLoop is the ground truth used to judge loop declarations.
func (g *Graph) HasLoop() bool {
	return g.hasLoop
}

// LoopEdge returns the designated back-edge if one was tagged.
func (g *Graph) LoopEdge() (Edge, bool) {
	for _, e := range g.edges {
		if e.Loop {
			return e, true
		}
	}
	return Edge{}, false
}
