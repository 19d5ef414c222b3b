package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/loophound/pkg/domain"
)

// Serialize writes a graph in the round-trippable text format understood by
// Parse. Node IDs, labels, the edge set and the loop marker survive a
// serialize/parse cycle unchanged.
func Serialize(g *domain.Graph) string {
	var sb strings.Builder

	noun := "nodes"
	if g.NodeCount() == 1 {
		noun = "node"
	}
	fmt.Fprintf(&sb, "Graph with %d %s\n\n", g.NodeCount(), noun)

	sb.WriteString(sectionNodes + "\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&sb, "  %s (ID: %d)\n", n.Label, n.ID)
	}

	sb.WriteString("\n" + sectionEdges + "\n")
	edges := g.Edges()
	if len(edges) == 0 {
		sb.WriteString("  (no edges)\n")
	}
	for _, e := range edges {
		src, _ := g.Node(e.SourceID)
		dst, _ := g.Node(e.TargetID)
		if e.Loop {
			fmt.Fprintf(&sb, "  %s -> %s [LOOP]\n", src.Label, dst.Label)
		} else {
			fmt.Fprintf(&sb, "  %s -> %s\n", src.Label, dst.Label)
		}
	}

	sb.WriteString("\n")
	if g.HasLoop() {
		sb.WriteString(summaryLoop + "\n")
	} else {
		sb.WriteString(summaryNoLoop + "\n")
	}
	return sb.String()
}
