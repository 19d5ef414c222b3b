// Package http exposes loophound sessions over a REST-ish API: create a
// session from graph text or a generator seed, step it round by round, and
// inspect the revealed portion of the graph as Mermaid. Ground truth stays
// server-side until the run terminates.
package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/internal/compiler"
	"github.com/aretw0/loophound/internal/logging"
	presentation "github.com/aretw0/loophound/internal/presentation/graph"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/generator"
	"github.com/aretw0/loophound/pkg/observability"
	"github.com/aretw0/loophound/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts live sessions keyed by ID and snapshots their run state to
// the manager's store after every round.
type Server struct {
	manager  *session.Manager
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics

	mu       sync.Mutex
	sessions map[string]*loophound.Session
	nextID   int
}

// ServerOption configures the Server.
type ServerOption func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server over a session manager.
func NewServer(manager *session.Manager, opts ...ServerOption) *Server {
	s := &Server{
		manager:  manager,
		logger:   logging.NewNop(),
		registry: prometheus.NewRegistry(),
		sessions: make(map[string]*loophound.Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = observability.NewMetrics(s.registry)
	return s
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleDelete)
			r.Post("/step", s.handleStep)
			r.Post("/reset", s.handleReset)
			r.Get("/mermaid", s.handleMermaid)
		})
	})

	return r
}

type createRequest struct {
	Name      string   `json:"name,omitempty"`
	Graph     string   `json:"graph,omitempty"`
	Seed      *int64   `json:"seed,omitempty"`
	Nodes     int      `json:"nodes,omitempty"`
	Programs  []string `json:"programs"`
	Agents    int      `json:"agents,omitempty"`
	StartNode int      `json:"start_node,omitempty"`
}

type sessionResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name,omitempty"`
	Nodes  int             `json:"nodes"`
	Agents []agentResponse `json:"agents"`
	Rounds int             `json:"rounds"`
	Status string          `json:"status"`
	// Outcome is reported only once terminal; an active run shows CONTINUE.
	Outcome string `json:"outcome"`
}

type agentResponse struct {
	ID       int   `json:"id"`
	Node     int   `json:"node"`
	Finished bool  `json:"finished"`
	Path     []int `json:"path"`
}

type stepResponse struct {
	Outcome    string `json:"outcome"`
	Rounds     int    `json:"rounds"`
	Terminated bool   `json:"terminated"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": loophound.Version})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	g, err := s.buildGraph(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := []loophound.Option{}
	if req.Name != "" {
		opts = append(opts, loophound.WithName(req.Name))
	}
	if len(req.Programs) > 0 {
		opts = append(opts, loophound.WithPrograms(req.Programs...))
	}
	if req.Agents > 0 {
		opts = append(opts, loophound.WithAgentCount(req.Agents))
	}
	if req.StartNode != 0 {
		opts = append(opts, loophound.WithStartNode(req.StartNode))
	}
	opts = append(opts, loophound.WithLogger(s.logger), loophound.WithMetrics(s.metrics))

	sess, err := loophound.New(g, opts...)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("run-%d", s.nextID)
	s.sessions[id] = sess
	s.mu.Unlock()

	if err := s.manager.Save(r.Context(), id, sess.State()); err != nil {
		s.logger.Warn("failed to persist initial snapshot", "session_id", id, "err", err)
	}

	s.logger.Info("session created", "session_id", id, "nodes", g.NodeCount(), "agents", sess.AgentCount())
	s.writeJSON(w, http.StatusCreated, s.describe(id, sess))
}

func (s *Server) buildGraph(req createRequest) (*domain.Graph, error) {
	if req.Graph != "" {
		g, err := compiler.Parse(req.Graph)
		if err != nil {
			return nil, fmt.Errorf("invalid graph document: %w", err)
		}
		return g, nil
	}

	genOpts := []generator.Option{}
	if req.Seed != nil {
		genOpts = append(genOpts, generator.WithSeed(*req.Seed))
	}
	gen := generator.New(genOpts...)
	if req.Nodes > 0 {
		return gen.GraphWithSize(req.Nodes)
	}
	return gen.Graph()
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.describe(id, sess))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, exists := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !exists {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err := s.manager.Delete(r.Context(), id); err != nil {
		s.logger.Warn("failed to delete snapshot", "session_id", id, "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	outcome, err := sess.Step(r.Context())
	if err == domain.ErrRunTerminated {
		// Idempotent: report the stored verdict instead of failing.
		state := sess.State()
		s.writeJSON(w, http.StatusOK, stepResponse{
			Outcome:    outcome.String(),
			Rounds:     state.Rounds,
			Terminated: true,
		})
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	state := sess.State()
	if err := s.manager.Save(r.Context(), id, state); err != nil {
		s.logger.Warn("failed to persist snapshot", "session_id", id, "err", err)
	}

	s.writeJSON(w, http.StatusOK, stepResponse{
		Outcome:    outcome.String(),
		Rounds:     state.Rounds,
		Terminated: state.Terminated(),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	sess.Reset()
	if err := s.manager.Save(r.Context(), id, sess.State()); err != nil {
		s.logger.Warn("failed to persist snapshot", "session_id", id, "err", err)
	}
	s.writeJSON(w, http.StatusOK, s.describe(id, sess))
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	state := sess.State()
	var out string
	if state.Terminated() {
		// The run is over; the full structure may be revealed.
		out = presentation.GenerateMermaid(sess.Graph(), presentation.OverlayFromState(state))
	} else {
		out = presentation.GenerateRevealed(sess.Graph(), state)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *loophound.Session, bool) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return id, nil, false
	}
	return id, sess, true
}

func (s *Server) describe(id string, sess *loophound.Session) sessionResponse {
	state := sess.State()
	agents := make([]agentResponse, len(state.Agents))
	for i, a := range state.Agents {
		agents[i] = agentResponse{
			ID:       a.ID,
			Node:     a.CurrentNode,
			Finished: a.Finished,
			Path:     a.Path,
		}
	}
	return sessionResponse{
		ID:      id,
		Name:    sess.Name(),
		Nodes:   sess.Graph().NodeCount(),
		Agents:  agents,
		Rounds:  state.Rounds,
		Status:  string(state.Status),
		Outcome: state.Outcome.String(),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}
