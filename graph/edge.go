package graph

import "fmt"

// HandleDefault is the implicit exit slot of single-exit nodes. An edge
// whose SourceHandle is empty is treated as originating from this slot.
const HandleDefault = "default"

// Fixed slot names used by condition and loop nodes. Router slots are the
// node's route names and have no constants.
const (
	HandleOnSuccess = "onSuccess"
	HandleOnFailure = "onFailure"
	HandleLoopBody  = "loopBody"
)

// Edge is a directed transition between two nodes, originating from one
// named exit slot of the source.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

// EdgeID derives the deterministic identity of an edge from its endpoints
// and slot. Reconnecting the same pair over the same slot yields the same
// id, which is what makes Connect idempotent.
func EdgeID(source, target, sourceHandle string) string {
	return fmt.Sprintf("%s->%s@%s", source, target, normalizeHandle(sourceHandle))
}

// Handle returns the slot this edge originates from, with the empty handle
// normalized to the default slot.
func (e *Edge) Handle() string {
	return normalizeHandle(e.SourceHandle)
}

// Clone returns a copy of the edge.
func (e *Edge) Clone() *Edge {
	c := *e
	return &c
}

func normalizeHandle(h string) string {
	if h == "" {
		return HandleDefault
	}
	return h
}
