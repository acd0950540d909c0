package graph

// Compiled is the execution-ready form of a graph: every node's branching
// data resolved to concrete next-node ids (or the terminal sentinel), plus
// the original edge list so the same visual layout can be reloaded later.
type Compiled struct {
	Nodes []*Node `json:"nodes"`
	Edges []*Edge `json:"edges"`
}

// Compile normalizes "what is drawn" into "what the runtime understands".
// It is pure and deterministic: the inputs are not mutated, node order is
// preserved, and repeated invocations on the same snapshot yield the same
// result.
//
// For every node except start/end it strips the editing-only version
// counter, derives action_type from the node kind when the data omits it,
// and resolves the kind's branching slots against the node's outgoing
// edges. Edges whose source no longer exists are ignored.
func Compile(nodes []*Node, edges []*Edge) *Compiled {
	bySource := groupConnections(edges)

	out := make([]*Node, len(nodes))
	for i, n := range nodes {
		c := n.Clone()
		kind := c.kind()
		if kind == KindStart || kind == KindEnd {
			out[i] = c
			continue
		}
		if c.Data == nil {
			c.Data = NodeData{}
		}
		delete(c.Data, FieldVersion)
		if _, ok := c.Data[FieldActionType]; !ok && kind != "" {
			c.Data[FieldActionType] = string(kind)
		}
		resolveBranching(kind, c.Data, bySource[c.ID])
		out[i] = c
	}
	return &Compiled{Nodes: out, Edges: cloneEdges(edges)}
}

// groupConnections indexes edges as source id → slot name → target id.
// When several edges share a slot (a state the store rejects but a stale
// document may carry), the last one wins.
func groupConnections(edges []*Edge) map[string]map[string]string {
	bySource := make(map[string]map[string]string)
	for _, e := range edges {
		conns, ok := bySource[e.Source]
		if !ok {
			conns = make(map[string]string)
			bySource[e.Source] = conns
		}
		conns[e.Handle()] = e.Target
	}
	return bySource
}

// StartStepID returns the id of the first step after the reserved start
// node, or the empty string when the start node is unconnected. A workflow
// cannot be saved for execution without it.
func (c *Compiled) StartStepID() string {
	for _, e := range c.Edges {
		if e.Source == StartNodeID && e.Handle() == HandleDefault {
			return e.Target
		}
	}
	return ""
}
