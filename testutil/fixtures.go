package testutil

import (
	"github.com/BaSui01/canvasflow/graph"
)

// SupportTriageDocument builds the canonical test workflow: a tool step
// feeding a condition that routes to a human-input pause, plus a router
// with two routes. It exercises every branching policy the compiler has.
func SupportTriageDocument() *graph.Document {
	toolA := graph.NewNode("toolA", graph.KindToolUse, graph.Position{X: 250, Y: 200})
	toolA.Data[graph.FieldOutputKey] = "o1"

	cond := graph.NewNode("cond", graph.KindConditionCheck, graph.Position{X: 400, Y: 200})

	human := graph.NewNode("human", graph.KindHumanInput, graph.Position{X: 550, Y: 120})
	human.Data[graph.FieldOutputKey] = "o2"

	router := graph.NewNode("router", graph.KindRouter, graph.Position{X: 550, Y: 300})
	router.Data[graph.FieldRoutes] = graph.Routes{}.
		Set("billing", graph.TerminalTarget).
		Set("technical", graph.TerminalTarget)

	return &graph.Document{
		Name:        "support-triage",
		Description: "triage inbound tickets",
		Nodes: []*graph.Node{
			graph.NewNode(graph.StartNodeID, graph.KindStart, graph.Position{X: 100, Y: 200}),
			toolA,
			cond,
			human,
			router,
			graph.NewNode(graph.EndNodeID, graph.KindEnd, graph.Position{X: 700, Y: 200}),
		},
		Edges: []*graph.Edge{
			edge(graph.StartNodeID, "toolA", ""),
			edge("toolA", "cond", ""),
			edge("cond", "human", graph.HandleOnSuccess),
			edge("cond", "router", graph.HandleOnFailure),
			edge("router", "human", "billing"),
		},
	}
}

func edge(source, target, handle string) *graph.Edge {
	return &graph.Edge{
		ID:           graph.EdgeID(source, target, handle),
		Source:       source,
		Target:       target,
		SourceHandle: handle,
	}
}
