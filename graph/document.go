package graph

import (
	"encoding/json"
	"fmt"
)

// Document is the shape exchanged with the persistence collaborator. On
// save it carries compiled nodes; on load it is written into the store
// verbatim, because compiled branching fields live in node data alongside
// the edges that produced them.
type Document struct {
	ID          uint    `json:"id,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Nodes       []*Node `json:"nodes"`
	Edges       []*Edge `json:"edges"`
}

// NewDocument wraps a compiled graph for persistence.
func NewDocument(name, description string, c *Compiled) *Document {
	return &Document{
		Name:        name,
		Description: description,
		Nodes:       c.Nodes,
		Edges:       c.Edges,
	}
}

// Export serializes the document to indented JSON.
func (d *Document) Export() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Import deserializes a document from JSON.
func Import(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the document's structural integrity: a name, a start
// node, unique node ids, and edges that reference known nodes. Step
// configuration is deliberately not validated here; prompts, URLs and
// SQL are opaque to the graph core.
func (d *Document) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if seen[n.ID] {
			return fmt.Errorf("duplicate node id: %s", n.ID)
		}
		seen[n.ID] = true
	}
	if !seen[StartNodeID] {
		return fmt.Errorf("workflow must have a start node")
	}
	for _, e := range d.Edges {
		if !seen[e.Source] {
			return fmt.Errorf("edge %s references unknown source: %s", e.ID, e.Source)
		}
		if !seen[e.Target] {
			return fmt.Errorf("edge %s references unknown target: %s", e.ID, e.Target)
		}
	}
	return nil
}
