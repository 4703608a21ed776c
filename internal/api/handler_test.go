package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sushant23/ai-agent-demo-sub001/internal/agent"
	"github.com/sushant23/ai-agent-demo-sub001/internal/assistant"
	"github.com/sushant23/ai-agent-demo-sub001/internal/flow"
	"github.com/sushant23/ai-agent-demo-sub001/internal/orchestration"
	"github.com/sushant23/ai-agent-demo-sub001/internal/session"
	"github.com/sushant23/ai-agent-demo-sub001/internal/workflow"
	"github.com/sushant23/ai-agent-demo-sub001/pkg/observability"
)

func setupServer(t *testing.T) (*httptest.Server, *session.MemoryStore) {
	t.Helper()

	store := session.NewMemoryStore(0)
	orch := assistant.New(orchestration.Deps{Flows: flow.NewCatalogRouter(nil)},
		assistant.WithContextManager(store))
	require.NoError(t, orch.Initialize(context.Background(), assistant.Config{}))

	health := observability.NewHealthChecker("test")
	health.RegisterCheck(observability.OrchestratorCheck(func() bool { return orch.Status().IsRunning }))

	h := NewHandler(orch, store, nil)
	srv := observability.NewServer(0, health, observability.WithRoutes(h.RegisterRoutes))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postMessage(t *testing.T, ts *httptest.Server, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/v1/messages", "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPostMessage(t *testing.T) {
	ts, store := setupServer(t)

	resp := postMessage(t, ts, MessageRequest{SessionID: "s1", UserID: "u1", Text: "show my sales"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out agent.AgentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, string(workflow.PatternRouting), out.Pattern)
	assert.NotEmpty(t, out.RequestID)
	assert.NotEmpty(t, out.NextActions)

	conv, err := store.Load(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, conv.HistoryLen())

	// a second message continues the same conversation
	postMessage(t, ts, MessageRequest{SessionID: "s1", UserID: "u1", Text: "and inventory?"})
	conv, err = store.Load(context.Background(), "s1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, conv.HistoryLen())
}

func TestPostMessageValidation(t *testing.T) {
	ts, _ := setupServer(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing text", MessageRequest{SessionID: "s1"}},
		{"blank text", MessageRequest{SessionID: "s1", Text: "   "}},
		{"missing session", MessageRequest{Text: "hello"}},
		{"not json", "just a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postMessage(t, ts, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var out ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
			assert.Equal(t, "INVALID_REQUEST", out.Code)
		})
	}
}

func TestStatusAndMetrics(t *testing.T) {
	ts, _ := setupServer(t)
	postMessage(t, ts, MessageRequest{SessionID: "s1", Text: "show my sales"})

	resp, err := http.Get(ts.URL + "/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	var status workflow.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.True(t, status.IsRunning)
	assert.Equal(t, int64(1), status.TotalRequests)

	resp2, err := http.Get(ts.URL + "/v1/patterns/routing/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
	var m workflow.PatternMetrics
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&m))
	assert.Equal(t, int64(1), m.ExecutionCount)

	resp3, err := http.Get(ts.URL + "/v1/patterns/autonomous/metrics")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)

	resp4, err := http.Get(ts.URL + "/v1/patterns")
	require.NoError(t, err)
	defer resp4.Body.Close()
	var list struct {
		Patterns []workflow.PatternMetrics `json:"patterns"`
	}
	require.NoError(t, json.NewDecoder(resp4.Body).Decode(&list))
	require.Len(t, list.Patterns, 5)
	assert.Equal(t, workflow.PatternSequentialChaining, list.Patterns[0].Pattern)
}

func TestSessionEndpoints(t *testing.T) {
	ts, store := setupServer(t)
	postMessage(t, ts, MessageRequest{SessionID: "s1", UserID: "u1", Text: "show my sales"})
	require.Equal(t, 1, store.Len())

	resp, err := http.Get(ts.URL + "/v1/sessions/s1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var conv agent.Conversation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conv))
	assert.Len(t, conv.History, 2)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/v1/sessions/s1", nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp2.StatusCode)
	assert.Equal(t, 0, store.Len())
}

func TestHealthAndCORS(t *testing.T) {
	ts, _ := setupServer(t)

	resp, err := http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/messages", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "*", resp2.Header.Get("Access-Control-Allow-Origin"))
}
