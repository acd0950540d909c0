package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/graph"
	"github.com/BaSui01/canvasflow/internal/cache"
	"github.com/BaSui01/canvasflow/internal/metrics"
	"github.com/BaSui01/canvasflow/storage"
	"github.com/BaSui01/canvasflow/types"
)

// WorkflowHandler serves the workflow CRUD API consumed by the builder
// frontend.
type WorkflowHandler struct {
	store     *storage.Store
	documents *cache.Manager // nil disables caching
	collector *metrics.Collector
	hub       *Hub
	logger    *zap.Logger
}

// NewWorkflowHandler creates the handler. documents and hub may be nil.
func NewWorkflowHandler(store *storage.Store, documents *cache.Manager, collector *metrics.Collector, hub *Hub, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{
		store:     store,
		documents: documents,
		collector: collector,
		hub:       hub,
		logger:    logger,
	}
}

// Register mounts the routes on mux.
func (h *WorkflowHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/workflows", h.HandleList)
	mux.HandleFunc("POST /api/workflows", h.HandleSave)
	mux.HandleFunc("GET /api/workflows/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /api/workflows/{id}", h.HandleDelete)
	if h.hub != nil {
		mux.HandleFunc("GET /api/events", h.hub.HandleWS)
	}
}

// SaveRequest is the save/update payload: the graph exactly as drawn.
type SaveRequest struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Nodes       []*graph.Node `json:"nodes"`
	Edges       []*graph.Edge `json:"edges"`
}

// SaveResponse echoes the stored workflow's identity.
type SaveResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// HandleList lists workflow summaries.
func (h *WorkflowHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSave compiles the submitted graph and upserts it by name.
func (h *WorkflowHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "malformed JSON body").WithCause(err))
		return
	}
	doc := &graph.Document{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
	}
	if err := doc.Validate(); err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidGraph, err.Error()))
		return
	}

	started := time.Now()
	compiled := graph.Compile(doc.Nodes, doc.Edges)
	if h.collector != nil {
		h.collector.RecordCompile(time.Since(started))
	}
	if compiled.StartStepID() == "" {
		writeError(w, h.logger, types.NewError(types.ErrInvalidGraph,
			"workflow must have a connection from the START node"))
		return
	}

	id, err := h.store.Save(r.Context(), doc, compiled)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if h.documents != nil {
		h.documents.Invalidate(r.Context(), id)
	}
	if h.collector != nil {
		h.collector.RecordSave()
	}
	if h.hub != nil {
		h.hub.Publish(r.Context(), WorkflowEvent{Type: "workflow_saved", ID: id, Name: req.Name})
	}
	writeJSON(w, http.StatusOK, SaveResponse{ID: id, Name: req.Name})
}

// HandleGet returns a single workflow document for the builder.
func (h *WorkflowHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if h.documents != nil {
		if doc, hit := h.documents.GetDocument(r.Context(), id); hit {
			if h.collector != nil {
				h.collector.RecordCacheHit()
			}
			writeJSON(w, http.StatusOK, doc)
			return
		}
		if h.collector != nil {
			h.collector.RecordCacheMiss()
		}
	}
	doc, err := h.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if h.documents != nil {
		h.documents.PutDocument(r.Context(), doc)
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleDelete removes a workflow.
func (h *WorkflowHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	deleted, err := h.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !deleted {
		writeError(w, h.logger, types.NewError(types.ErrWorkflowNotFound, "workflow not found"))
		return
	}
	if h.documents != nil {
		h.documents.Invalidate(r.Context(), id)
	}
	if h.collector != nil {
		h.collector.RecordDelete()
	}
	if h.hub != nil {
		h.hub.Publish(r.Context(), WorkflowEvent{Type: "workflow_deleted", ID: id})
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WorkflowHandler) pathID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, h.logger, types.NewError(types.ErrInvalidRequest, "invalid workflow id"))
		return 0, false
	}
	return uint(id), true
}
