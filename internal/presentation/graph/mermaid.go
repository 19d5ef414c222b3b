// Package graph renders the simulated graph as Mermaid flowchart syntax,
// optionally overlaying agent positions and visited trails.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/loophound/pkg/domain"
)

// Overlay contains dynamic run state to visualize on the graph.
type Overlay struct {
	// VisitedNodes are node IDs any agent has passed through.
	VisitedNodes []int
	// AgentNodes are the current node IDs, one per agent.
	AgentNodes []int
	// FinishedNodes are the resting nodes of finished agents; they render
	// dimmed instead of highlighted.
	FinishedNodes []int
}

// OverlayFromState derives an overlay from a run snapshot.
func OverlayFromState(state *domain.RunState) *Overlay {
	if state == nil {
		return nil
	}
	o := &Overlay{}
	for _, a := range state.Agents {
		o.VisitedNodes = append(o.VisitedNodes, a.Path...)
		if a.Finished {
			o.FinishedNodes = append(o.FinishedNodes, a.CurrentNode)
		} else {
			o.AgentNodes = append(o.AgentNodes, a.CurrentNode)
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart from the graph. Terminal
// nodes render as circles, ordinary nodes as rectangles, and the tagged
// back-edge as a dotted arrow. Overlay styles (visited/current) are applied
// when an overlay is provided.
func GenerateMermaid(g *domain.Graph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes() {
		opener, closer := "[", "]"
		if g.IsTerminal(node.ID) {
			opener, closer = "((", "))" // Circle
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n",
			mermaidID(node.ID), opener, escapeMermaidLabel(node.Label), closer))
	}

	for _, edge := range g.Edges() {
		arrow := "-->"
		if edge.Loop {
			arrow = "-. \"loop\" .->"
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n",
			mermaidID(edge.SourceID), arrow, mermaidID(edge.TargetID)))
	}

	if overlay != nil {
		writeOverlay(&sb, g, overlay)
	}

	return sb.String()
}

// GenerateRevealed renders only the portion of the graph agents have
// actually walked: visited nodes, and the edges between consecutive path
// entries. Loop tags are withheld so the rendering never leaks ground
// truth while a run is still in flight.
func GenerateRevealed(g *domain.Graph, state *domain.RunState) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	overlay := OverlayFromState(state)

	revealed := make(map[int]bool)
	type pair struct{ from, to int }
	walked := make(map[pair]bool)
	var nodeOrder []int
	var edgeOrder []pair
	if state != nil {
		for _, a := range state.Agents {
			prev := -1
			for _, id := range a.Path {
				if !revealed[id] {
					revealed[id] = true
					nodeOrder = append(nodeOrder, id)
				}
				if prev >= 0 && prev != id {
					e := pair{prev, id}
					if !walked[e] {
						walked[e] = true
						edgeOrder = append(edgeOrder, e)
					}
				}
				prev = id
			}
		}
	}

	for _, id := range nodeOrder {
		node, ok := g.Node(id)
		if !ok {
			continue
		}
		opener, closer := "[", "]"
		if g.IsTerminal(id) {
			opener, closer = "((", "))"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n",
			mermaidID(id), opener, escapeMermaidLabel(node.Label), closer))
	}
	for _, e := range edgeOrder {
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", mermaidID(e.from), mermaidID(e.to)))
	}

	if overlay != nil {
		writeOverlay(&sb, g, overlay)
	}
	return sb.String()
}

func writeOverlay(sb *strings.Builder, g *domain.Graph, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text for high-contrast on light and dark themes alike.
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	sb.WriteString("    classDef finished fill:#eceff1,stroke:#90a4ae,stroke-width:1px,color:#000;\n")

	writeClassLines(sb, g, overlay.VisitedNodes, "visited")
	writeClassLines(sb, g, overlay.FinishedNodes, "finished")
	writeClassLines(sb, g, overlay.AgentNodes, "current")
}

func writeClassLines(sb *strings.Builder, g *domain.Graph, ids []int, class string) {
	seen := make(map[int]bool)
	for _, id := range ids {
		if _, ok := g.Node(id); !ok || seen[id] {
			continue
		}
		seen[id] = true
		sb.WriteString(fmt.Sprintf("    class %s %s;\n", mermaidID(id), class))
	}
}

func mermaidID(id int) string {
	return fmt.Sprintf("n%d", id)
}

func escapeMermaidLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
