// Package graph holds the canonical property-graph model produced by
// diagram extraction: nodes for process components, edges for the pipes
// and connections between them.
package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Property is a single name/value pair copied verbatim from a source
// element's attributes.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Properties is an ordered attribute mapping. Order follows the source
// element's attribute order, so serializations are deterministic.
type Properties []Property

// Get returns the value for key and whether it was present.
func (p Properties) Get(key string) (string, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return "", false
}

// MarshalJSON renders the properties as a JSON object in slice order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(prop.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a JSON object and preserves no particular key
// order (Go maps do not expose one); it exists so round-tripping GraphData
// payloads does not fail.
func (p *Properties) UnmarshalJSON(data []byte) error {
	m := map[string]string{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*p = (*p)[:0]
	for k, v := range m {
		*p = append(*p, Property{Key: k, Value: v})
	}
	return nil
}

// Position is a diagram coordinate attached to a node when the source
// element carried one.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one process component (equipment, instrument, piping element)
// or, under fallback extraction, one arbitrary document element.
type Node struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Label      string     `json:"label"`
	Properties Properties `json:"properties,omitempty"`
	Position   *Position  `json:"position,omitempty"`
}

// Edge is one connection between two nodes. Source and Target record the
// orientation given by the source element, but the graph itself is
// undirected: analysis and export treat every edge as symmetric.
//
// Type is "pipe" for structured-extractor connections, "connection" for
// fallback keyword matches, and "hierarchy" for synthesized links.
type Edge struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Target     string     `json:"target"`
	Type       string     `json:"type"`
	Properties Properties `json:"properties,omitempty"`
}

// Graph is the node set (keyed by id, insertion order preserved) plus the
// edge list in insertion order. Parallel edges between the same pair are
// permitted. A Graph is built once per extraction run and treated as
// immutable afterwards.
type Graph struct {
	nodes []Node
	index map[string]int
	edges []Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]int)}
}

// AddNode appends a node, preserving insertion order. A node whose id is
// already present is not admitted (first occurrence wins); the return
// value reports whether the node was added.
func (g *Graph) AddNode(n Node) bool {
	if _, exists := g.index[n.ID]; exists {
		return false
	}
	g.index[n.ID] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	return true
}

// AddEdge appends an edge if and only if both endpoints already exist in
// the node set. The return value reports admission; a rejected edge is
// not an error.
func (g *Graph) AddEdge(e Edge) bool {
	if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
		return false
	}
	g.edges = append(g.edges, e)
	return true
}

// HasNode reports whether a node with the given id exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns all nodes in insertion order. The returned slice is
// shared; callers must not modify it.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Edges returns all edges in insertion order. The returned slice is
// shared; callers must not modify it.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Text renders the full graph as plain text for use as model-prompt
// context. The output is deterministic: nodes and edges appear in
// insertion order. Callers are responsible for truncating to their own
// budget.
func (g *Graph) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Graph: %d components, %d connections\n", len(g.nodes), len(g.edges))

	b.WriteString("\nComponents:\n")
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "- %s [%s] %s", n.ID, n.Type, n.Label)
		if n.Position != nil {
			fmt.Fprintf(&b, " @(%g,%g)", n.Position.X, n.Position.Y)
		}
		if len(n.Properties) > 0 {
			b.WriteString(" {")
			for i, p := range n.Properties {
				if i > 0 {
					b.WriteString(", ")
				}
				fmt.Fprintf(&b, "%s=%s", p.Key, p.Value)
			}
			b.WriteString("}")
		}
		b.WriteByte('\n')
	}

	b.WriteString("\nConnections:\n")
	for _, e := range g.edges {
		fmt.Fprintf(&b, "- %s -- %s [%s]\n", e.Source, e.Target, e.Type)
	}
	return b.String()
}
