package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_ExportImport(t *testing.T) {
	router := NewNode("router", KindRouter, Position{X: 300, Y: 120})
	router.Data[FieldRoutes] = Routes{}.Set("billing", "n1").Set("technical", TerminalTarget)
	doc := &Document{
		Name:        "support",
		Description: "ticket triage",
		Nodes: []*Node{
			NewNode(StartNodeID, KindStart, Position{}),
			router,
			NewNode("n1", KindToolUse, Position{X: 500, Y: 80}),
			NewNode(EndNodeID, KindEnd, Position{}),
		},
		Edges: []*Edge{
			{ID: EdgeID("router", "n1", "billing"), Source: "router", Target: "n1", SourceHandle: "billing"},
		},
	}

	data, err := doc.Export()
	require.NoError(t, err)

	back, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, "support", back.Name)
	require.Len(t, back.Nodes, 4)
	assert.Equal(t, Position{X: 500, Y: 80}, back.Nodes[2].Position)

	routes := back.Nodes[1].Data.RouteTable()
	assert.Equal(t, []string{"billing", "technical"}, routes.Names(),
		"route order survives the JSON round trip")
	require.Len(t, back.Edges, 1)
	assert.Equal(t, "billing", back.Edges[0].SourceHandle)
}

func TestDocument_Validate(t *testing.T) {
	valid := &Document{
		Name: "ok",
		Nodes: []*Node{
			NewNode(StartNodeID, KindStart, Position{}),
			NewNode(EndNodeID, KindEnd, Position{}),
		},
	}
	require.NoError(t, valid.Validate())

	assert.Error(t, (&Document{Nodes: valid.Nodes}).Validate(), "name required")

	noStart := &Document{Name: "x", Nodes: []*Node{NewNode(EndNodeID, KindEnd, Position{})}}
	assert.Error(t, noStart.Validate())

	dup := &Document{Name: "x", Nodes: []*Node{
		NewNode(StartNodeID, KindStart, Position{}),
		NewNode(StartNodeID, KindStart, Position{}),
	}}
	assert.Error(t, dup.Validate())

	dangling := &Document{
		Name:  "x",
		Nodes: valid.Nodes,
		Edges: []*Edge{{ID: "e", Source: StartNodeID, Target: "ghost"}},
	}
	assert.Error(t, dangling.Validate())
}
