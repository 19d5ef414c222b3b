// Package compiler translates between the line-oriented graph text format
// and the domain graph. Parsing is strict about structure (section markers,
// resolvable labels) and lenient about whitespace; a parse failure never
// touches a previously loaded graph because construction happens on a fresh
// value.
package compiler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/loophound/pkg/domain"
)

var (
	nodeLinePattern = regexp.MustCompile(`^(.*?)\s*\(ID:\s*(\d+)\)$`)
	edgeLinePattern = regexp.MustCompile(`^(.*?)\s*->\s*(.*?)\s*(\[LOOP\])?$`)
)

const (
	sectionNodes = "Nodes:"
	sectionEdges = "Edges:"

	summaryLoop   = "Graph contains a loop."
	summaryNoLoop = "Graph does not contain a loop."
)

// Parse reads a serialized graph document and reconstructs the graph.
// Node lines follow `label (ID: n)`; when the ID suffix is absent the ID
// defaults to parse order. Edge lines follow `label -> label [LOOP]?`.
// The trailing summary line is consulted for loop status only when no edge
// carries the [LOOP] tag.
func Parse(text string) (*domain.Graph, error) {
	lines := strings.Split(text, "\n")

	nodesAt := findSection(lines, sectionNodes)
	if nodesAt < 0 {
		return nil, &domain.MissingSectionError{Section: sectionNodes}
	}
	edgesAt := findSection(lines, sectionEdges)
	if edgesAt < 0 || edgesAt < nodesAt {
		return nil, &domain.MissingSectionError{Section: sectionEdges}
	}

	nodes, byLabel, err := parseNodes(lines[nodesAt+1 : edgesAt])
	if err != nil {
		return nil, err
	}

	edges, summaryHasLoop, err := parseEdges(lines[edgesAt+1:], byLabel)
	if err != nil {
		return nil, err
	}

	tagged := false
	for _, e := range edges {
		if e.Loop {
			tagged = true
			break
		}
	}

	opts := []domain.GraphOption{}
	if !tagged && summaryHasLoop {
		opts = append(opts, domain.WithLoopHint(true))
	}

	g, err := domain.NewGraph(nodes, edges, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid graph document: %w", err)
	}
	return g, nil
}

func findSection(lines []string, marker string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == marker {
			return i
		}
	}
	return -1
}

func parseNodes(lines []string) ([]domain.Node, map[string]int, error) {
	nodes := make([]domain.Node, 0, len(lines))
	byLabel := make(map[string]int, len(lines))

	order := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		label := trimmed
		id := order
		if m := nodeLinePattern.FindStringSubmatch(trimmed); m != nil {
			label = strings.TrimSpace(m[1])
			parsed, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, nil, fmt.Errorf("invalid node id in line %q: %w", trimmed, err)
			}
			id = parsed
		}

		nodes = append(nodes, domain.Node{ID: id, Label: label})
		if _, dup := byLabel[label]; !dup {
			byLabel[label] = id
		}
		order++
	}
	return nodes, byLabel, nil
}

func parseEdges(lines []string, byLabel map[string]int) ([]domain.Edge, bool, error) {
	edges := make([]domain.Edge, 0, len(lines))
	hasLoop := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "", trimmed == "(no edges)":
			continue
		case trimmed == summaryLoop:
			hasLoop = true
			continue
		case trimmed == summaryNoLoop:
			continue
		}

		m := edgeLinePattern.FindStringSubmatch(trimmed)
		if m == nil || !strings.Contains(trimmed, "->") {
			continue
		}

		srcLabel := strings.TrimSpace(m[1])
		dstLabel := strings.TrimSpace(m[2])

		src, ok := byLabel[srcLabel]
		if !ok {
			return nil, false, &domain.UnknownLabelError{Label: srcLabel}
		}
		dst, ok := byLabel[dstLabel]
		if !ok {
			return nil, false, &domain.UnknownLabelError{Label: dstLabel}
		}

		edges = append(edges, domain.Edge{
			SourceID: src,
			TargetID: dst,
			Loop:     m[3] != "",
		})
	}
	return edges, hasLoop, nil
}
