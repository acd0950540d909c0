package graph

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/types"
)

// EventType identifies a store change notification.
type EventType string

const (
	EventNodeAdded      EventType = "node_added"
	EventNodeUpdated    EventType = "node_updated"
	EventNodesRemoved   EventType = "nodes_removed"
	EventEdgeAdded      EventType = "edge_added"
	EventEdgesRemoved   EventType = "edges_removed"
	EventHandlesChanged EventType = "handles_changed"
	EventGraphReset     EventType = "graph_reset"
)

// Event describes a single store change. HandlesChanged events carry the
// node's new handle version so a rendering surface can recompute its slot
// layout.
type Event struct {
	Type    EventType `json:"type"`
	NodeID  string    `json:"node_id,omitempty"`
	EdgeID  string    `json:"edge_id,omitempty"`
	Version int       `json:"version,omitempty"`
}

// StoreConfig configures a Store.
type StoreConfig struct {
	// BumpDelay is how long after a slot-set mutation the trailing handle
	// version bump fires (see version.go).
	BumpDelay time.Duration `yaml:"bump_delay" json:"bump_delay"`
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{BumpDelay: 60 * time.Millisecond}
}

// Store holds the live node and edge collections of one open document and
// enforces the structural invariants on every mutation. There is one
// logical writer (the editing surface); the mutex exists because the
// deferred version bump fires on a timer goroutine.
type Store struct {
	mu       sync.Mutex
	nodes    []*Node
	edges    []*Edge
	nodeByID map[string]*Node
	edgeByID map[string]*Edge
	bumps    *bumpScheduler
	listener func(Event)
	logger   *zap.Logger
}

// NewStore creates an empty store seeded with the reserved start and end
// nodes.
func NewStore(cfg StoreConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BumpDelay <= 0 {
		cfg.BumpDelay = DefaultStoreConfig().BumpDelay
	}
	s := &Store{
		nodeByID: make(map[string]*Node),
		edgeByID: make(map[string]*Edge),
		logger:   logger,
	}
	s.bumps = newBumpScheduler(cfg.BumpDelay, s.applyDeferredBump)
	s.resetLocked()
	return s
}

// SetListener registers a single callback invoked synchronously after each
// store change. The callback must not call back into the store.
func (s *Store) SetListener(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Close stops any pending deferred version bumps.
func (s *Store) Close() {
	s.bumps.stop()
}

// Nodes returns a snapshot copy of the node list in insertion order.
func (s *Store) Nodes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNodes(s.nodes)
}

// Edges returns a snapshot copy of the edge list in insertion order.
func (s *Store) Edges() []*Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEdges(s.edges)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (*Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodeByID[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Snapshot returns copies of both collections for compilation.
func (s *Store) Snapshot() ([]*Node, []*Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneNodes(s.nodes), cloneEdges(s.edges)
}

// AddNode appends a node. The caller supplies the unique id; a duplicate id
// is rejected with a warning and leaves the store unchanged.
func (s *Store) AddNode(n *Node) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nodeByID[n.ID]; exists {
		return s.warn(types.NewError(types.ErrDuplicateNode,
			fmt.Sprintf("node %q already exists", n.ID)).WithNode(n.ID))
	}
	c := n.Clone()
	s.nodes = append(s.nodes, c)
	s.nodeByID[c.ID] = c
	s.emit(Event{Type: EventNodeAdded, NodeID: c.ID})
	return nil
}

// UpdateNodeData shallow-merges partial into the node's data: each key in
// partial fully replaces the old value, including nested values such as the
// routes table. Unknown ids are a no-op.
func (s *Store) UpdateNodeData(id string, partial NodeData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodeByID[id]
	if !ok {
		s.logger.Debug("update for unknown node ignored", zap.String("node", id))
		return
	}
	if n.Data == nil {
		n.Data = NodeData{}
	}
	for k, v := range partial {
		n.Data[k] = v
	}
	s.emit(Event{Type: EventNodeUpdated, NodeID: id})
}

// SetPosition moves a node on the canvas. Unknown ids are a no-op.
func (s *Store) SetPosition(id string, pos Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodeByID[id]
	if !ok {
		return
	}
	n.Position = pos
	s.emit(Event{Type: EventNodeUpdated, NodeID: id})
}

// Connect inserts an edge from source's named slot to target. The edge id
// is derived from (source, target, slot), so reconnecting an identical pair
// is idempotent and returns the existing edge. Connecting a second edge
// from an occupied slot to a different target is rejected with a warning.
// Unknown endpoints are silently ignored.
func (s *Store) Connect(source, target, sourceHandle string) (*Edge, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodeByID[source]; !ok {
		s.logger.Debug("connect from unknown node ignored", zap.String("node", source))
		return nil, nil
	}
	if _, ok := s.nodeByID[target]; !ok {
		s.logger.Debug("connect to unknown node ignored", zap.String("node", target))
		return nil, nil
	}
	id := EdgeID(source, target, sourceHandle)
	if existing, ok := s.edgeByID[id]; ok {
		return existing.Clone(), nil
	}
	handle := normalizeHandle(sourceHandle)
	for _, e := range s.edges {
		if e.Source == source && e.Handle() == handle {
			return nil, s.warn(types.NewError(types.ErrSlotOccupied,
				fmt.Sprintf("slot %q of node %q already has an edge to %q", handle, source, e.Target)).
				WithNode(source))
		}
	}
	e := &Edge{ID: id, Source: source, Target: target, SourceHandle: sourceHandle}
	s.edges = append(s.edges, e)
	s.edgeByID[id] = e
	s.emit(Event{Type: EventEdgeAdded, NodeID: source, EdgeID: id})
	return e.Clone(), nil
}

// RemoveEdges deletes edges by id. Unknown ids are ignored.
func (s *Store) RemoveEdges(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeEdgesLocked(func(e *Edge) bool {
		for _, id := range ids {
			if e.ID == id {
				return true
			}
		}
		return false
	})
}

// RemoveNodes deletes nodes and every edge touching them. The request is
// filtered first: the reserved start/end nodes and any router that still
// has outgoing edges are dropped from it with a warning, and the remaining
// ids are removed. Unknown ids are ignored silently.
func (s *Store) RemoveNodes(ids []string) []*types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var warnings []*types.Error
	removed := make(map[string]bool)
	for _, id := range ids {
		n, ok := s.nodeByID[id]
		if !ok {
			continue
		}
		if n.IsProtected() {
			warnings = append(warnings, s.warn(types.NewError(types.ErrProtectedNode,
				fmt.Sprintf("the %s node cannot be deleted", id)).WithNode(id)))
			continue
		}
		if n.kind() == KindRouter && s.outDegreeLocked(id) > 0 {
			warnings = append(warnings, s.warn(types.NewError(types.ErrRouterConnected,
				"disconnect the router's routes before deleting it").WithNode(id)))
			continue
		}
		removed[id] = true
	}
	if len(removed) == 0 {
		return warnings
	}

	kept := s.nodes[:0]
	for _, n := range s.nodes {
		if removed[n.ID] {
			delete(s.nodeByID, n.ID)
			s.emit(Event{Type: EventNodesRemoved, NodeID: n.ID})
			continue
		}
		kept = append(kept, n)
	}
	s.nodes = kept
	s.removeEdgesLocked(func(e *Edge) bool {
		return removed[e.Source] || removed[e.Target]
	})
	return warnings
}

// AddRoute appends a fresh, uniquely named route targeting the terminal
// sentinel to a router node and bumps its handle version. It returns the
// generated route name.
func (s *Store) AddRoute(nodeID string) (string, *types.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, errw := s.routerLocked(nodeID)
	if errw != nil || n == nil {
		return "", errw
	}
	routes := n.Data.RouteTable()
	name := ""
	for i := len(routes) + 1; ; i++ {
		name = fmt.Sprintf("route_%d", i)
		if !routes.Has(name) {
			break
		}
	}
	n.Data[FieldRoutes] = routes.Set(name, TerminalTarget)
	s.bumpHandleVersionLocked(n)
	return name, nil
}

// RemoveRoute deletes a route from a router node, prunes edges that
// originated from the removed slot, and bumps the handle version. Removing
// a route that does not exist is a no-op.
func (s *Store) RemoveRoute(nodeID, name string) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, errw := s.routerLocked(nodeID)
	if errw != nil || n == nil {
		return errw
	}
	routes := n.Data.RouteTable()
	if !routes.Has(name) {
		return nil
	}
	n.Data[FieldRoutes] = routes.Delete(name)
	s.removeEdgesLocked(func(e *Edge) bool {
		return e.Source == nodeID && e.Handle() == name
	})
	s.bumpHandleVersionLocked(n)
	return nil
}

// RenameRoute renames a route on a router node, preserving the table order
// and the route's target. Edges that originated from the old slot name are
// deleted outright rather than following the rename; the user reconnects
// them. The rename is rejected when the new name is empty, unchanged, or
// already taken.
func (s *Store) RenameRoute(nodeID, oldName, newName string) *types.Error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, errw := s.routerLocked(nodeID)
	if errw != nil || n == nil {
		return errw
	}
	routes := n.Data.RouteTable()
	switch {
	case newName == "":
		return s.warn(types.NewError(types.ErrInvalidRouteRename,
			"route name cannot be empty").WithNode(nodeID))
	case newName == oldName:
		return s.warn(types.NewError(types.ErrInvalidRouteRename,
			"route name is unchanged").WithNode(nodeID))
	case routes.Has(newName):
		return s.warn(types.NewError(types.ErrInvalidRouteRename,
			fmt.Sprintf("route %q already exists", newName)).WithNode(nodeID))
	case !routes.Has(oldName):
		return s.warn(types.NewError(types.ErrInvalidRouteRename,
			fmt.Sprintf("route %q does not exist", oldName)).WithNode(nodeID))
	}
	n.Data[FieldRoutes] = routes.Rename(oldName, newName)
	s.removeEdgesLocked(func(e *Edge) bool {
		return e.Source == nodeID && e.Handle() == oldName
	})
	s.bumpHandleVersionLocked(n)
	return nil
}

// Load replaces the store contents with the document's nodes and edges
// verbatim. Previously compiled branching fields are already part of the
// node data, so no decompilation is needed. Missing reserved nodes are
// recreated to uphold the start/end invariant.
func (s *Store) Load(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = cloneNodes(doc.Nodes)
	s.edges = cloneEdges(doc.Edges)
	s.nodeByID = make(map[string]*Node, len(s.nodes))
	for _, n := range s.nodes {
		s.nodeByID[n.ID] = n
	}
	s.edgeByID = make(map[string]*Edge, len(s.edges))
	for _, e := range s.edges {
		s.edgeByID[e.ID] = e
	}
	s.ensureReservedLocked()
	s.emit(Event{Type: EventGraphReset})
}

// Reset discards the graph and starts a new one containing only the
// reserved start and end nodes.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	s.emit(Event{Type: EventGraphReset})
}

func (s *Store) resetLocked() {
	s.nodes = nil
	s.edges = nil
	s.nodeByID = make(map[string]*Node)
	s.edgeByID = make(map[string]*Edge)
	s.ensureReservedLocked()
}

func (s *Store) ensureReservedLocked() {
	if _, ok := s.nodeByID[StartNodeID]; !ok {
		n := NewNode(StartNodeID, KindStart, Position{X: 100, Y: 250})
		s.nodes = append([]*Node{n}, s.nodes...)
		s.nodeByID[StartNodeID] = n
	}
	if _, ok := s.nodeByID[EndNodeID]; !ok {
		n := NewNode(EndNodeID, KindEnd, Position{X: 700, Y: 250})
		s.nodes = append(s.nodes, n)
		s.nodeByID[EndNodeID] = n
	}
}

func (s *Store) routerLocked(nodeID string) (*Node, *types.Error) {
	n, ok := s.nodeByID[nodeID]
	if !ok {
		s.logger.Debug("route mutation for unknown node ignored", zap.String("node", nodeID))
		return nil, nil
	}
	if n.kind() != KindRouter {
		return nil, s.warn(types.NewError(types.ErrNotRouter,
			fmt.Sprintf("node %q is not a router", nodeID)).WithNode(nodeID))
	}
	return n, nil
}

func (s *Store) outDegreeLocked(nodeID string) int {
	count := 0
	for _, e := range s.edges {
		if e.Source == nodeID {
			count++
		}
	}
	return count
}

func (s *Store) removeEdgesLocked(match func(*Edge) bool) {
	kept := s.edges[:0]
	for _, e := range s.edges {
		if match(e) {
			delete(s.edgeByID, e.ID)
			s.emit(Event{Type: EventEdgesRemoved, EdgeID: e.ID})
			continue
		}
		kept = append(kept, e)
	}
	s.edges = kept
}

func (s *Store) warn(err *types.Error) *types.Error {
	s.logger.Warn("graph mutation rejected",
		zap.String("code", string(err.Code)),
		zap.String("node", err.NodeID),
		zap.String("reason", err.Message))
	return err
}

func (s *Store) emit(ev Event) {
	if s.listener != nil {
		s.listener(ev)
	}
}

func cloneNodes(nodes []*Node) []*Node {
	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []*Edge) []*Edge {
	out := make([]*Edge, len(edges))
	for i, e := range edges {
		out[i] = e.Clone()
	}
	return out
}
