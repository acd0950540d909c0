// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package graph implements the editing core of the CanvasFlow visual workflow
builder: a live, mutable directed-graph store with node-kind-specific
branching semantics, invariant-preserving mutation, handle versioning for
the variable-slot router kind, and a deterministic compiler that turns the
drawn graph into the execution-ready step list consumed by the workflow
runtime.

# Core types

  - Node / Edge: the canonical step and transition shapes
  - NodeKind: tag selecting a step's branching-slot shape
  - Routes: a router's ordered route-name to target table
  - Store: the mutable node/edge aggregate, one per document
  - Compiled / Compile: the pure normalization pass
  - Document: the load/save shape exchanged with persistence

# Branching semantics

Every node kind owns a fixed or data-driven set of named exit slots, and
every slot has a resolution policy applied at compile time (see
semantics.go). Condition and loop slots reset to the "END" sentinel when
unconnected; router routes preserve their previous target unless an edge
overrides them; all other kinds resolve a single default slot and an
optional failure slot.

# Handle versioning

Mutating a router's route set bumps the node's version counter immediately
and again after a short delay (see version.go). Consumers that render one
handle per route key their layout off this counter.

The package performs no I/O and does not execute workflows.
*/
package graph
