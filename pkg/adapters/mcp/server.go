// Package mcp exposes a loophound session as an MCP server, so agent
// programs can be exercised from MCP-speaking clients. The graph resource
// only ever reveals what the agents have walked; the full structure becomes
// readable once the run terminates.
package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/internal/compiler"
	presentation "github.com/aretw0/loophound/internal/presentation/graph"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StepResponse is the unified round report returned by the step tool.
type StepResponse struct {
	Outcome    string          `json:"outcome" jsonschema_description:"Round outcome signal"`
	Rounds     int             `json:"rounds" jsonschema_description:"Rounds executed so far"`
	Terminated bool            `json:"terminated" jsonschema_description:"Whether the run is over"`
	Agents     []AgentSnapshot `json:"agents" jsonschema_description:"Agent observations after the round"`
}

// AgentSnapshot is the observable slice of one agent.
type AgentSnapshot struct {
	ID       int   `json:"id"`
	Node     int   `json:"node" jsonschema_description:"Current node ID"`
	Finished bool  `json:"finished"`
	Path     []int `json:"path" jsonschema_description:"Node IDs visited so far"`
}

// Engine defines the session surface required by the MCP server.
type Engine interface {
	Step(ctx context.Context) (domain.Outcome, error)
	Reset()
	State() *domain.RunState
	Graph() *domain.Graph
}

// Server wraps a loophound session and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("loophound-mcp", strings.TrimSpace(loophound.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: step_round
	stepTool := mcp.NewTool("step_round",
		mcp.WithDescription("Execute exactly one lockstep round over all agents and report the outcome."),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(stepTool, mcp.NewStructuredToolHandler(s.handleStepRound))

	// TOOL: reset_run
	resetTool := mcp.NewTool("reset_run",
		mcp.WithDescription("Discard all agent progress and place a fresh agent set on the start node. The graph is untouched."),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleResetRun))

	// TOOL: observe_agents
	observeTool := mcp.NewTool("observe_agents",
		mcp.WithDescription("Report current agent positions, finished flags and visited paths without advancing the run."),
		mcp.WithOutputSchema[StepResponse](),
	)
	s.mcpServer.AddTool(observeTool, mcp.NewStructuredToolHandler(s.handleObserveAgents))

	// TOOL: get_graph_outline
	s.mcpServer.AddTool(mcp.NewTool("get_graph_outline",
		mcp.WithDescription("Get a Mermaid outline of the graph. While the run is active only the visited portion is revealed."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(s.renderOutline()), nil
	})
}

func (s *Server) handleStepRound(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	outcome, err := s.engine.Step(ctx)
	if err != nil && err != domain.ErrRunTerminated {
		return StepResponse{}, fmt.Errorf("step failed: %w", err)
	}
	return s.snapshot(outcome), nil
}

func (s *Server) handleResetRun(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	s.engine.Reset()
	return s.snapshot(domain.OutcomeContinue), nil
}

func (s *Server) handleObserveAgents(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	return s.snapshot(s.engine.State().Outcome), nil
}

func (s *Server) snapshot(outcome domain.Outcome) StepResponse {
	state := s.engine.State()
	agents := make([]AgentSnapshot, len(state.Agents))
	for i, a := range state.Agents {
		agents[i] = AgentSnapshot{
			ID:       a.ID,
			Node:     a.CurrentNode,
			Finished: a.Finished,
			Path:     a.Path,
		}
	}
	return StepResponse{
		Outcome:    outcome.String(),
		Rounds:     state.Rounds,
		Terminated: state.Terminated(),
		Agents:     agents,
	}
}

func (s *Server) renderOutline() string {
	state := s.engine.State()
	if state.Terminated() {
		return presentation.GenerateMermaid(s.engine.Graph(), presentation.OverlayFromState(state))
	}
	return presentation.GenerateRevealed(s.engine.Graph(), state)
}

func (s *Server) registerResources() {
	// EXPOSE: loophound://graph
	s.mcpServer.AddResource(mcp.NewResource("loophound://graph", "Graph Document",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		state := s.engine.State()
		var text string
		if state.Terminated() {
			text = compiler.Serialize(s.engine.Graph())
		} else {
			text = s.renderOutline()
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "loophound://graph",
				MIMEType: "text/plain",
				Text:     text,
			},
		}, nil
	})
}
