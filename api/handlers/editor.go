package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/graph"
	"github.com/BaSui01/canvasflow/internal/metrics"
	"github.com/BaSui01/canvasflow/storage"
	"github.com/BaSui01/canvasflow/types"
)

// EditorHandler hosts live editing sessions. Each session wraps a graph
// store; mutations go through the store so every structural invariant is
// enforced server-side, and change events stream to subscribers via the
// hub.
type EditorHandler struct {
	mu        sync.RWMutex
	sessions  map[string]*editSession
	bumpDelay time.Duration
	store     *storage.Store
	collector *metrics.Collector
	hub       *Hub
	logger    *zap.Logger
}

type editSession struct {
	id     string
	graph  *graph.Store
	events chan graph.Event
	done   chan struct{}
}

// SessionEvent wraps a graph store event with its session for the wire.
type SessionEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Event     graph.Event `json:"event"`
}

// NewEditorHandler creates the handler. store may be nil when opening
// saved workflows into sessions is not needed; hub may be nil.
func NewEditorHandler(store *storage.Store, collector *metrics.Collector, hub *Hub, bumpDelay time.Duration, logger *zap.Logger) *EditorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorHandler{
		sessions:  make(map[string]*editSession),
		bumpDelay: bumpDelay,
		store:     store,
		collector: collector,
		hub:       hub,
		logger:    logger,
	}
}

// Register mounts the session routes on mux.
func (h *EditorHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleOpen)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSnapshot)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleClose)
	mux.HandleFunc("POST /api/sessions/{id}/nodes", h.HandleAddNode)
	mux.HandleFunc("PATCH /api/sessions/{id}/nodes/{node}", h.HandleUpdateNode)
	mux.HandleFunc("DELETE /api/sessions/{id}/nodes", h.HandleRemoveNodes)
	mux.HandleFunc("POST /api/sessions/{id}/edges", h.HandleConnect)
	mux.HandleFunc("DELETE /api/sessions/{id}/edges", h.HandleRemoveEdges)
	mux.HandleFunc("POST /api/sessions/{id}/nodes/{node}/routes", h.HandleAddRoute)
	mux.HandleFunc("DELETE /api/sessions/{id}/nodes/{node}/routes/{route}", h.HandleRemoveRoute)
	mux.HandleFunc("PATCH /api/sessions/{id}/nodes/{node}/routes/{route}", h.HandleRenameRoute)
	mux.HandleFunc("POST /api/sessions/{id}/compile", h.HandleCompile)
}

// Close tears down every open session.
func (h *EditorHandler) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*editSession)
	h.mu.Unlock()
	for _, s := range sessions {
		h.closeSession(s)
	}
}

// OpenRequest optionally names a saved workflow to load into the session.
type OpenRequest struct {
	WorkflowID uint `json:"workflow_id,omitempty"`
}

// SnapshotResponse is the session's current graph.
type SnapshotResponse struct {
	ID    string        `json:"id"`
	Nodes []*graph.Node `json:"nodes"`
	Edges []*graph.Edge `json:"edges"`
}

// HandleOpen creates a session, optionally seeded from a saved workflow.
func (h *EditorHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	var req OpenRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
			return
		}
	}

	id := uuid.NewString()
	s := &editSession{
		id:     id,
		graph:  graph.NewStore(graph.StoreConfig{BumpDelay: h.bumpDelay}, h.logger.Named("session")),
		events: make(chan graph.Event, 64),
		done:   make(chan struct{}),
	}
	if req.WorkflowID != 0 {
		if h.store == nil {
			writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "workflow loading is not available"))
			return
		}
		doc, err := h.store.Get(r.Context(), req.WorkflowID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		s.graph.Load(doc)
	}
	s.graph.SetListener(func(ev graph.Event) {
		// Never block a mutation on a slow subscriber.
		select {
		case s.events <- ev:
		default:
		}
	})
	go h.forward(s)

	h.mu.Lock()
	h.sessions[id] = s
	h.mu.Unlock()
	h.logger.Info("editing session opened",
		zap.String("session", id), zap.Uint("workflow_id", req.WorkflowID))

	nodes, edges := s.graph.Snapshot()
	writeJSON(w, http.StatusOK, SnapshotResponse{ID: id, Nodes: nodes, Edges: edges})
}

// forward drains a session's event channel into the hub.
func (h *EditorHandler) forward(s *editSession) {
	for {
		select {
		case ev := <-s.events:
			if h.collector != nil && ev.Type == graph.EventHandlesChanged {
				h.collector.RecordVersionBump()
			}
			if h.hub != nil {
				h.hub.Publish(context.Background(), SessionEvent{
					Type:      "session_event",
					SessionID: s.id,
					Event:     ev,
				})
			}
		case <-s.done:
			return
		}
	}
}

// HandleSnapshot returns the session's current nodes and edges.
func (h *EditorHandler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	nodes, edges := s.graph.Snapshot()
	writeJSON(w, http.StatusOK, SnapshotResponse{ID: s.id, Nodes: nodes, Edges: edges})
}

// HandleClose tears the session down.
func (h *EditorHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "unknown session").WithHTTPStatus(http.StatusNotFound))
		return
	}
	h.closeSession(s)
	h.logger.Info("editing session closed", zap.String("session", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *EditorHandler) closeSession(s *editSession) {
	s.graph.Close()
	close(s.done)
}

// AddNodeRequest describes a node to place on the canvas. A missing id is
// generated server-side.
type AddNodeRequest struct {
	ID       string         `json:"id,omitempty"`
	Type     graph.NodeKind `json:"type"`
	Position graph.Position `json:"position"`
	Data     graph.NodeData `json:"data,omitempty"`
}

// HandleAddNode places a new node in the session graph.
func (h *EditorHandler) HandleAddNode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req AddNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	if req.Type == "" {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "node type is required"))
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	n := graph.NewNode(req.ID, req.Type, req.Position)
	for k, v := range req.Data {
		n.Data[k] = v
	}
	if err := s.graph.AddNode(n); err != nil {
		h.rejected(err)
		writeError(w, h.logger, err)
		return
	}
	h.mutated("add_node")
	writeJSON(w, http.StatusOK, n)
}

// UpdateNodeRequest carries a partial data merge and/or a new position.
type UpdateNodeRequest struct {
	Data     graph.NodeData  `json:"data,omitempty"`
	Position *graph.Position `json:"position,omitempty"`
}

// HandleUpdateNode merges data into a node and/or moves it. Unknown node
// ids are ignored, matching the store semantics.
func (h *EditorHandler) HandleUpdateNode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req UpdateNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	nodeID := r.PathValue("node")
	if len(req.Data) > 0 {
		s.graph.UpdateNodeData(nodeID, req.Data)
	}
	if req.Position != nil {
		s.graph.SetPosition(nodeID, *req.Position)
	}
	h.mutated("update_node")
	w.WriteHeader(http.StatusNoContent)
}

// IDsRequest names nodes or edges by id.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// RemoveNodesResponse reports the per-node rejections of a batch removal.
type RemoveNodesResponse struct {
	Warnings []ErrorResponse `json:"warnings"`
}

// HandleRemoveNodes removes nodes and their edges. Protected or still
// connected nodes are skipped and reported; the rest are removed.
func (h *EditorHandler) HandleRemoveNodes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req IDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	warnings := s.graph.RemoveNodes(req.IDs)
	resp := RemoveNodesResponse{Warnings: make([]ErrorResponse, 0, len(warnings))}
	for _, warn := range warnings {
		h.rejected(warn)
		resp.Warnings = append(resp.Warnings, ErrorResponse{Code: warn.Code, Message: warn.Message})
	}
	h.mutated("remove_nodes")
	writeJSON(w, http.StatusOK, resp)
}

// ConnectRequest describes an edge to draw.
type ConnectRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// HandleConnect draws an edge. Unknown endpoints yield 204 with no edge,
// matching the store's silent-ignore semantics; an occupied slot is a 409.
func (h *EditorHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req ConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	edge, errw := s.graph.Connect(req.Source, req.Target, req.SourceHandle)
	if errw != nil {
		h.rejected(errw)
		writeError(w, h.logger, errw)
		return
	}
	if edge == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mutated("connect")
	writeJSON(w, http.StatusOK, edge)
}

// HandleRemoveEdges deletes edges by id.
func (h *EditorHandler) HandleRemoveEdges(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req IDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	s.graph.RemoveEdges(req.IDs)
	h.mutated("remove_edges")
	w.WriteHeader(http.StatusNoContent)
}

// RouteResponse names a newly created route.
type RouteResponse struct {
	Name string `json:"name"`
}

// HandleAddRoute appends a fresh route to a router node.
func (h *EditorHandler) HandleAddRoute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	name, errw := s.graph.AddRoute(r.PathValue("node"))
	if errw != nil {
		h.rejected(errw)
		writeError(w, h.logger, errw)
		return
	}
	if name == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mutated("add_route")
	writeJSON(w, http.StatusOK, RouteResponse{Name: name})
}

// HandleRemoveRoute deletes a route and its edges.
func (h *EditorHandler) HandleRemoveRoute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if errw := s.graph.RemoveRoute(r.PathValue("node"), r.PathValue("route")); errw != nil {
		h.rejected(errw)
		writeError(w, h.logger, errw)
		return
	}
	h.mutated("remove_route")
	w.WriteHeader(http.StatusNoContent)
}

// RenameRouteRequest carries the new route name.
type RenameRouteRequest struct {
	Name string `json:"name"`
}

// HandleRenameRoute renames a route in place.
func (h *EditorHandler) HandleRenameRoute(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req RenameRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	if errw := s.graph.RenameRoute(r.PathValue("node"), r.PathValue("route"), req.Name); errw != nil {
		h.rejected(errw)
		writeError(w, h.logger, errw)
		return
	}
	h.mutated("rename_route")
	w.WriteHeader(http.StatusNoContent)
}

// HandleCompile compiles the session graph into its executable form.
func (h *EditorHandler) HandleCompile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	started := time.Now()
	nodes, edges := s.graph.Snapshot()
	compiled := graph.Compile(nodes, edges)
	if h.collector != nil {
		h.collector.RecordCompile(time.Since(started))
	}
	writeJSON(w, http.StatusOK, compiled)
}

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editSession, bool) {
	id := r.PathValue("id")
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "unknown session").WithHTTPStatus(http.StatusNotFound))
		return nil, false
	}
	return s, true
}

func (h *EditorHandler) mutated(op string) {
	if h.collector != nil {
		h.collector.RecordMutation(op)
	}
}

func (h *EditorHandler) rejected(err *types.Error) {
	if h.collector != nil {
		h.collector.RecordRejected(string(err.Code))
	}
}
