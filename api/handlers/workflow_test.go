package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/canvasflow/graph"
	"github.com/BaSui01/canvasflow/internal/cache"
	"github.com/BaSui01/canvasflow/internal/metrics"
	"github.com/BaSui01/canvasflow/storage"
	"github.com/BaSui01/canvasflow/testutil"
	"github.com/BaSui01/canvasflow/types"
)

func newTestServer(t *testing.T, documents *cache.Manager, hub *Hub) *httptest.Server {
	t.Helper()
	store, err := storage.Open(":memory:", testutil.Logger(t))
	require.NoError(t, err)
	collector := metrics.NewCollector("canvasflow", prometheus.NewRegistry(), testutil.Logger(t))

	mux := http.NewServeMux()
	NewWorkflowHandler(store, documents, collector, hub, testutil.Logger(t)).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func saveBody(t *testing.T, doc *graph.Document) *bytes.Reader {
	t.Helper()
	data, err := json.Marshal(SaveRequest{
		Name:        doc.Name,
		Description: doc.Description,
		Nodes:       doc.Nodes,
		Edges:       doc.Edges,
	})
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func TestWorkflowHandler_SaveGetListDelete(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	doc := testutil.SupportTriageDocument()

	resp, err := http.Post(srv.URL+"/api/workflows", "application/json", saveBody(t, doc))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved SaveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, uint(1), saved.ID)
	assert.Equal(t, "support-triage", saved.Name)

	resp, err = http.Get(srv.URL + "/api/workflows")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list []storage.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "support-triage", list[0].Name)

	resp, err = http.Get(srv.URL + "/api/workflows/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got graph.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "support-triage", got.Name)
	assert.Len(t, got.Nodes, 6)
	assert.Len(t, got.Edges, 5)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/workflows/1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Deleting again reports not found.
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWorkflowHandler_SaveRejectsDisconnectedStart(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	doc := testutil.SupportTriageDocument()
	doc.Edges = doc.Edges[1:] // drop start -> toolA

	resp, err := http.Post(srv.URL+"/api/workflows", "application/json", saveBody(t, doc))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, types.ErrInvalidGraph, body.Code)
	assert.Contains(t, body.Message, "START node")
}

func TestWorkflowHandler_SaveRejectsMalformedBody(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, err := http.Post(srv.URL+"/api/workflows", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowHandler_SaveRejectsInvalidGraph(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	doc := testutil.SupportTriageDocument()
	doc.Name = ""

	resp, err := http.Post(srv.URL+"/api/workflows", "application/json", saveBody(t, doc))
	require.NoError(t, err)
	defer resp.Body.Close()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, types.ErrInvalidGraph, body.Code)
}

func TestWorkflowHandler_GetRejectsBadID(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/api/workflows/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWorkflowHandler_GetUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	documents, err := cache.NewManager(context.Background(), cache.Config{Addr: mr.Addr()}, testutil.Logger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = documents.Close() })

	srv := newTestServer(t, documents, nil)

	resp, err := http.Post(srv.URL+"/api/workflows", "application/json",
		saveBody(t, testutil.SupportTriageDocument()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// First read misses and fills the cache.
	resp, err = http.Get(srv.URL + "/api/workflows/1")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, mr.Exists("canvasflow:workflow:1"))

	// Second read is served from the cache.
	resp, err = http.Get(srv.URL + "/api/workflows/1")
	require.NoError(t, err)
	defer resp.Body.Close()
	var got graph.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "support-triage", got.Name)
}

func TestHub_BroadcastsSaveEvents(t *testing.T) {
	hub := NewHub(testutil.Logger(t))
	t.Cleanup(hub.Close)
	srv := newTestServer(t, nil, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	resp, err := http.Post(srv.URL+"/api/workflows", "application/json",
		saveBody(t, testutil.SupportTriageDocument()))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ev WorkflowEvent
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, "workflow_saved", ev.Type)
	assert.Equal(t, uint(1), ev.ID)
	assert.Equal(t, "support-triage", ev.Name)
}
