// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

// Package canvasflow provides a top-level convenience entry point for
// embedding the workflow builder core.
//
// Usage:
//
//	import "github.com/BaSui01/canvasflow"
//
//	store := canvasflow.NewStore(nil)
//	store.AddNode(canvasflow.NewNode("step1", canvasflow.KindToolUse, canvasflow.Position{X: 250, Y: 200}))
//	store.Connect("start", "step1", "")
//	compiled := canvasflow.Compile(store.Snapshot())
//
// This is a thin wrapper around [graph]; both produce identical results.
// Use this package when you prefer the shorter import path.
package canvasflow

import (
	"go.uber.org/zap"

	"github.com/BaSui01/canvasflow/graph"
)

// Core editing types, re-exported so callers never need to import graph/.
type (
	Node     = graph.Node
	NodeData = graph.NodeData
	NodeKind = graph.NodeKind
	Edge     = graph.Edge
	Position = graph.Position
	Routes   = graph.Routes
	Route    = graph.Route
	Store    = graph.Store
	Event    = graph.Event
	Compiled = graph.Compiled
	Document = graph.Document
)

// Node kinds understood by the compiler.
const (
	KindStart          = graph.KindStart
	KindEnd            = graph.KindEnd
	KindToolUse        = graph.KindToolUse
	KindLLMResponse    = graph.KindLLMResponse
	KindConditionCheck = graph.KindConditionCheck
	KindHumanInput     = graph.KindHumanInput
	KindRouter         = graph.KindRouter
	KindStartLoop      = graph.KindStartLoop
	KindEndLoop        = graph.KindEndLoop
)

// NewStore creates an editing store with the default configuration. Pass a
// logger to see rejected mutations; nil silences them.
func NewStore(logger *zap.Logger) *Store {
	return graph.NewStore(graph.DefaultStoreConfig(), logger)
}

// NewNode creates a node of the given kind.
var NewNode = graph.NewNode

// EdgeID derives the deterministic edge id for a connection.
var EdgeID = graph.EdgeID

// Compile normalizes a drawn graph into its executable form.
var Compile = graph.Compile

// Import parses an exported workflow document.
var Import = graph.Import
