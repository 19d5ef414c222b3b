// Package generator builds random functional graphs for loop-detection
// exercises: a simple path with, half of the time, a single back-edge that
// closes one cycle of bounded minimum length. The output always satisfies
// the functional-graph invariant (out-degree <= 1, at most one cycle).
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aretw0/loophound/pkg/domain"
)

// Node count bounds for generated graphs.
const (
	MinNodes = 1
	MaxNodes = 33
)

// loopProbability is the chance of closing a cycle, applied only when the
// graph has at least three nodes.
const loopProbability = 0.5

// MinLoopLength returns the smallest allowed cycle size for a graph of m
// nodes.
func MinLoopLength(m int) int {
	if n := m / 4; n > 2 {
		return n
	}
	return 2
}

// Generator produces random graphs from an injectable source of
// randomness, so exercises are reproducible under a fixed seed.
type Generator struct {
	rng *rand.Rand
}

// Option configures the generator.
type Option func(*Generator)

// WithRand injects a random source.
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		if rng != nil {
			g.rng = rng
		}
	}
}

// WithSeed seeds a fresh random source.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a generator. Without options it self-seeds from the clock.
func New(opts ...Option) *Generator {
	g := &Generator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Graph generates a graph with a random node count in [MinNodes, MaxNodes].
func (g *Generator) Graph() (*domain.Graph, error) {
	m := MinNodes + g.rng.Intn(MaxNodes-MinNodes+1)
	return g.GraphWithSize(m)
}

// GraphWithSize generates a graph of exactly m nodes: the path
// 0 -> 1 -> ... -> m-1, optionally closed by a back-edge from m-1 to an
// earlier node chosen so the cycle is at least MinLoopLength(m) long.
func (g *Generator) GraphWithSize(m int) (*domain.Graph, error) {
	if m < MinNodes || m > MaxNodes {
		return nil, fmt.Errorf("node count %d outside [%d, %d]", m, MinNodes, MaxNodes)
	}

	nodes := make([]domain.Node, 0, m)
	edges := make([]domain.Edge, 0, m)
	for i := 0; i < m; i++ {
		nodes = append(nodes, domain.Node{ID: i, Label: fmt.Sprintf("N%d", i)})
		if i > 0 {
			edges = append(edges, domain.Edge{SourceID: i - 1, TargetID: i})
		}
	}

	if m >= 3 && g.rng.Float64() < loopProbability {
		minLen := MinLoopLength(m)
		// Cycle length is m - target; keep it at or above the minimum.
		target := g.rng.Intn(m - minLen + 1)
		edges = append(edges, domain.Edge{SourceID: m - 1, TargetID: target, Loop: true})
	}

	return domain.NewGraph(nodes, edges)
}
