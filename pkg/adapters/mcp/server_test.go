package mcp

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T, program string) *loophound.Session {
	t.Helper()
	nodes := make([]domain.Node, 0, 4)
	edges := make([]domain.Edge, 0, 3)
	for i := 0; i < 4; i++ {
		nodes = append(nodes, domain.Node{ID: i, Label: fmt.Sprintf("N%d", i)})
		if i > 0 {
			edges = append(edges, domain.Edge{SourceID: i - 1, TargetID: i})
		}
	}
	g, err := domain.NewGraph(nodes, edges)
	require.NoError(t, err)

	sess, err := loophound.New(g, loophound.WithPrograms(program))
	require.NoError(t, err)
	return sess
}

func TestHandleStepRound(t *testing.T) {
	srv := NewServer(testSession(t, "S"))

	resp, err := srv.handleStepRound(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	assert.Equal(t, "CONTINUE", resp.Outcome)
	assert.Equal(t, 1, resp.Rounds)
	assert.False(t, resp.Terminated)
	require.Len(t, resp.Agents, 1)
	assert.Equal(t, 1, resp.Agents[0].Node)
	assert.Equal(t, []int{0, 1}, resp.Agents[0].Path)
}

func TestHandleStepRound_TerminatedIsIdempotent(t *testing.T) {
	srv := NewServer(testSession(t, "L"))
	ctx := context.Background()

	resp, err := srv.handleStepRound(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "LOOP_FALSE_POSITIVE", resp.Outcome)
	assert.True(t, resp.Terminated)

	// Stepping again reports the stored verdict instead of erroring.
	resp, err = srv.handleStepRound(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "LOOP_FALSE_POSITIVE", resp.Outcome)
}

func TestHandleResetRun(t *testing.T) {
	srv := NewServer(testSession(t, "L"))
	ctx := context.Background()

	_, err := srv.handleStepRound(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	resp, err := srv.handleResetRun(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.False(t, resp.Terminated)
	assert.Equal(t, 0, resp.Rounds)
	assert.Equal(t, 0, resp.Agents[0].Node)
}

func TestHandleObserveAgentsDoesNotAdvance(t *testing.T) {
	srv := NewServer(testSession(t, "S"))
	ctx := context.Background()

	before, err := srv.handleObserveAgents(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	after, err := srv.handleObserveAgents(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, after.Rounds)
}

func TestGraphOutlineHidesUnvisitedNodes(t *testing.T) {
	sess := testSession(t, "S")
	srv := NewServer(sess)
	ctx := context.Background()

	_, err := srv.handleStepRound(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)

	outline := srv.renderOutline()
	assert.Contains(t, outline, "n1")
	assert.NotContains(t, outline, "n3")

	// Drive to termination; the full structure becomes visible.
	for !sess.State().Terminated() {
		_, err := srv.handleStepRound(ctx, mcp.CallToolRequest{}, nil)
		require.NoError(t, err)
	}
	assert.Contains(t, srv.renderOutline(), "n3")
}
