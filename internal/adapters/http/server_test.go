package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/loophound/pkg/adapters/memory"
	"github.com/aretw0/loophound/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pathGraphDoc = `Graph with 4 node(s)

Nodes:
alpha (ID: 0)
beta (ID: 1)
gamma (ID: 2)
delta (ID: 3)

Edges:
alpha -> beta
beta -> gamma
gamma -> delta

Graph does not contain a loop.
`

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	srv := NewServer(session.NewManager(memory.NewStore()))
	return srv, srv.Handler()
}

func createSession(t *testing.T, handler http.Handler, body map[string]any) map[string]any {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/sessions", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestGetHealth(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, resp["version"])
}

func TestCreateSessionFromGraphText(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"name":     "exercise-1",
		"graph":    pathGraphDoc,
		"programs": []string{"S", "N"},
	})

	assert.Equal(t, "run-1", resp["id"])
	assert.Equal(t, "exercise-1", resp["name"])
	assert.Equal(t, float64(4), resp["nodes"])
	assert.Len(t, resp["agents"], 2)
	assert.Equal(t, "active", resp["status"])
}

func TestCreateSessionFromSeed(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"seed":     42,
		"nodes":    8,
		"programs": []string{"S"},
	})
	assert.Equal(t, float64(8), resp["nodes"])
}

func TestCreateSessionRejectsBadGraph(t *testing.T) {
	_, handler := newTestServer(t)

	payload := []byte(`{"graph": "not a graph document", "programs": ["S"]}`)
	req := httptest.NewRequest("POST", "/sessions", bytes.NewReader(payload))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStepAdvancesAndPersists(t *testing.T) {
	srv, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"S"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/step", id), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var step map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &step))
	assert.Equal(t, "CONTINUE", step["outcome"])
	assert.Equal(t, float64(1), step["rounds"])

	// The snapshot lands in the manager's store.
	state, err := srv.manager.Load(req.Context(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Agents[0].CurrentNode)
}

func TestStepTerminatedRunIsIdempotent(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"L"},
	})
	id := resp["id"].(string)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/step", id), nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var step map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &step))
		assert.Equal(t, "LOOP_FALSE_POSITIVE", step["outcome"])
		assert.Equal(t, true, step["terminated"])
	}
}

func TestResetRestoresFreshState(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"S"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/step", id), nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/reset", id), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, float64(0), got["rounds"])
}

func TestMermaidHidesStructureWhileActive(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"S"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("GET", fmt.Sprintf("/sessions/%s/mermaid", id), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	// Only the start node has been revealed so far.
	body := rr.Body.String()
	assert.Contains(t, body, "n0[\"alpha\"]")
	assert.NotContains(t, body, "n3")
}

func TestMermaidRevealsFullGraphAfterTermination(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"L"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/step", id), nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", fmt.Sprintf("/sessions/%s/mermaid", id), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "n3((\"delta\"))")
}

func TestDeleteSession(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"S"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/sessions/%s", id), nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest("GET", fmt.Sprintf("/sessions/%s", id), nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestMetricsEndpointExposesCollectors(t *testing.T) {
	_, handler := newTestServer(t)

	resp := createSession(t, handler, map[string]any{
		"graph":    pathGraphDoc,
		"programs": []string{"S"},
	})
	id := resp["id"].(string)

	req := httptest.NewRequest("POST", fmt.Sprintf("/sessions/%s/step", id), nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest("GET", "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.Contains(rr.Body.String(), "loophound_rounds_total"))
}

func TestUnknownSession(t *testing.T) {
	_, handler := newTestServer(t)

	req := httptest.NewRequest("POST", "/sessions/run-99/step", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWriteJSONEncodeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	srv := NewServer(session.NewManager(memory.NewStore()),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	rec := httptest.NewRecorder()
	srv.writeJSON(rec, http.StatusOK, map[string]any{"ch": make(chan int)})

	assert.Contains(t, buf.String(), "failed to encode response")
}
