package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/loophound/internal/presentation/graph"
	"github.com/aretw0/loophound/pkg/domain"
)

func mustGraph(t *testing.T, nodes []domain.Node, edges []domain.Edge) *domain.Graph {
	t.Helper()
	g, err := domain.NewGraph(nodes, edges)
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	return g
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []domain.Node
		edges    []domain.Edge
		overlay  *graph.Overlay
		contains []string
	}{
		{
			name: "Terminal Node Shape",
			nodes: []domain.Node{
				{ID: 0, Label: "entry"},
				{ID: 1, Label: "sink"},
			},
			edges: []domain.Edge{{SourceID: 0, TargetID: 1}},
			contains: []string{
				"n0[\"entry\"]",
				"n1((\"sink\"))",
				"n0 --> n1",
			},
		},
		{
			name: "Loop Edge Is Dotted",
			nodes: []domain.Node{
				{ID: 0, Label: "a"},
				{ID: 1, Label: "b"},
				{ID: 2, Label: "c"},
			},
			edges: []domain.Edge{
				{SourceID: 0, TargetID: 1},
				{SourceID: 1, TargetID: 2},
				{SourceID: 2, TargetID: 1, Loop: true},
			},
			contains: []string{
				"n2 -. \"loop\" .-> n1",
			},
		},
		{
			name: "Label Escaping",
			nodes: []domain.Node{
				{ID: 0, Label: `say "hi"`},
			},
			contains: []string{
				"n0((\"say 'hi'\"))",
			},
		},
		{
			name: "Overlay Styles",
			nodes: []domain.Node{
				{ID: 0, Label: "a"},
				{ID: 1, Label: "b"},
			},
			edges: []domain.Edge{{SourceID: 0, TargetID: 1}},
			overlay: &graph.Overlay{
				VisitedNodes: []int{0, 0, 1},
				AgentNodes:   []int{1, 1},
			},
			contains: []string{
				"classDef visited",
				"classDef current",
				"class n0 visited;",
				"class n1 current;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustGraph(t, tt.nodes, tt.edges)
			got := graph.GenerateMermaid(g, tt.overlay)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("GenerateMermaid() = \n%v\nWant substring: %v", got, want)
				}
			}
		})
	}
}

func TestGenerateRevealed(t *testing.T) {
	g := mustGraph(t,
		[]domain.Node{
			{ID: 0, Label: "a"},
			{ID: 1, Label: "b"},
			{ID: 2, Label: "c"},
			{ID: 3, Label: "d"},
		},
		[]domain.Edge{
			{SourceID: 0, TargetID: 1},
			{SourceID: 1, TargetID: 2},
			{SourceID: 2, TargetID: 3},
			{SourceID: 3, TargetID: 1, Loop: true},
		},
	)

	state := domain.NewRunState(1, 0)
	state.Agents[0].MoveTo(1)
	state.Agents[0].MoveTo(2)

	got := graph.GenerateRevealed(g, state)

	for _, want := range []string{"n0[\"a\"]", "n1[\"b\"]", "n2[\"c\"]", "n0 --> n1", "n1 --> n2", "class n2 current;"} {
		if !strings.Contains(got, want) {
			t.Errorf("GenerateRevealed() = \n%v\nWant substring: %v", got, want)
		}
	}
	// Unvisited nodes and the loop tag stay hidden.
	for _, hidden := range []string{"n3", "loop"} {
		if strings.Contains(got, hidden) {
			t.Errorf("GenerateRevealed() leaked %q:\n%v", hidden, got)
		}
	}
}

func TestGenerateRevealed_FinishedAgentIsDimmed(t *testing.T) {
	g := mustGraph(t,
		[]domain.Node{{ID: 0, Label: "a"}, {ID: 1, Label: "end"}},
		[]domain.Edge{{SourceID: 0, TargetID: 1}},
	)

	state := domain.NewRunState(1, 0)
	state.Agents[0].MoveTo(1)
	state.Agents[0].Finished = true

	got := graph.GenerateRevealed(g, state)
	if !strings.Contains(got, "class n1 finished;") {
		t.Errorf("finished agent not dimmed:\n%v", got)
	}
	if strings.Contains(got, "class n1 current;") {
		t.Errorf("finished agent still highlighted as current:\n%v", got)
	}
}

func TestOverlayFromState(t *testing.T) {
	state := domain.NewRunState(2, 0)
	state.Agents[1].MoveTo(3)

	o := graph.OverlayFromState(state)
	if len(o.AgentNodes) != 2 {
		t.Fatalf("AgentNodes = %v, want 2 entries", o.AgentNodes)
	}
	if o.AgentNodes[1] != 3 {
		t.Errorf("AgentNodes[1] = %d, want 3", o.AgentNodes[1])
	}
	if len(o.VisitedNodes) != 3 {
		t.Errorf("VisitedNodes = %v, want paths of both agents", o.VisitedNodes)
	}

	if graph.OverlayFromState(nil) != nil {
		t.Error("nil state must yield nil overlay")
	}
}
