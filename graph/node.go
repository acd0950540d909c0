package graph

import "encoding/json"

// NodeKind tags a step with its behavior and its branching-slot shape.
type NodeKind string

const (
	KindStart          NodeKind = "start"
	KindEnd            NodeKind = "end"
	KindToolUse        NodeKind = "agentic_tool_use"
	KindLLMResponse    NodeKind = "llm_response"
	KindConditionCheck NodeKind = "condition_check"
	KindHumanInput     NodeKind = "human_input"
	KindWorkflowCall   NodeKind = "workflow_call"
	KindFileIngestion  NodeKind = "file_ingestion"
	KindFileStorage    NodeKind = "file_storage"
	KindHTTPRequest    NodeKind = "http_request"
	KindRouter         NodeKind = "intelligent_router"
	KindStartLoop      NodeKind = "start_loop"
	KindEndLoop        NodeKind = "end_loop"
	KindDisplayMessage NodeKind = "display_message"
)

// Reserved node ids. Every graph has exactly one of each; neither can be
// removed.
const (
	StartNodeID = "start"
	EndNodeID   = "end"
)

// TerminalTarget marks "no further node" in resolved branching fields.
const TerminalTarget = "END"

// Well-known NodeData field names.
const (
	FieldActionType = "action_type"
	FieldOutputKey  = "output_key"
	FieldVersion    = "version"
	FieldRoutes     = "routes"
	FieldOnSuccess  = "on_success"
	FieldOnFailure  = "on_failure"
	FieldLoopBody   = "loop_body"
)

// Position is a node's location on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData holds a node's configuration as a field-name → value mapping.
// Branching fields (on_success/on_failure or routes) live here alongside
// ordinary step configuration such as output_key.
type NodeData map[string]any

// UnmarshalJSON decodes node data, keeping the routes field as an ordered
// Routes table instead of an unordered map. Route order is user-visible in
// the editor and must survive a load/save cycle.
func (d *NodeData) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(NodeData, len(raw))
	for k, v := range raw {
		if k == FieldRoutes {
			var routes Routes
			if err := json.Unmarshal(v, &routes); err != nil {
				return err
			}
			out[k] = routes
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		out[k] = val
	}
	*d = out
	return nil
}

// Clone returns a copy of the data. The routes table is deep-copied; all
// other values are copied by reference, which is safe because the store
// replaces values wholesale on update rather than mutating them in place.
func (d NodeData) Clone() NodeData {
	if d == nil {
		return nil
	}
	out := make(NodeData, len(d))
	for k, v := range d {
		if routes, ok := v.(Routes); ok {
			out[k] = routes.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// Routes returns the routes table, tolerating the unordered map form that
// older documents may carry.
func (d NodeData) RouteTable() Routes {
	switch v := d[FieldRoutes].(type) {
	case Routes:
		return v
	case map[string]any:
		routes := make(Routes, 0, len(v))
		for name, target := range v {
			t, _ := target.(string)
			routes = routes.Set(name, t)
		}
		return routes
	case map[string]string:
		routes := make(Routes, 0, len(v))
		for name, target := range v {
			routes = routes.Set(name, target)
		}
		return routes
	default:
		return nil
	}
}

// Version returns the handle-version counter, treating a missing or
// malformed field as zero. JSON decoding yields float64 for numbers.
func (d NodeData) Version() int {
	switch v := d[FieldVersion].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

// Node is a single step on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Kind     NodeKind `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// NewNode creates a node with its action_type mirrored into data, the way
// the canvas creates one on drop. Router nodes start with a zero handle
// version and an empty routes table.
func NewNode(id string, kind NodeKind, pos Position) *Node {
	data := NodeData{}
	if kind != KindStart && kind != KindEnd {
		data[FieldActionType] = string(kind)
	}
	if kind == KindRouter {
		data[FieldVersion] = 0
		data[FieldRoutes] = Routes{}
	}
	return &Node{ID: id, Kind: kind, Position: pos, Data: data}
}

// Clone returns a copy of the node with cloned data.
func (n *Node) Clone() *Node {
	c := *n
	c.Data = n.Data.Clone()
	return &c
}

// kind returns the node kind, falling back to the action_type data field
// for nodes loaded from documents that omit the top-level type.
func (n *Node) kind() NodeKind {
	if n.Kind != "" {
		return n.Kind
	}
	if at, ok := n.Data[FieldActionType].(string); ok {
		return NodeKind(at)
	}
	return ""
}

// IsProtected reports whether the node is one of the reserved entry/exit
// nodes that can never be deleted.
func (n *Node) IsProtected() bool {
	return n.ID == StartNodeID || n.ID == EndNodeID
}
