package graph

import (
	"fmt"
	"log/slog"
)

// maxHierarchyEdges caps the number of synthesized hierarchy links so a
// large node set cannot blow up the edge list.
const maxHierarchyEdges = 20

// Build assembles a graph from extractor output. Nodes are admitted in
// order with duplicate ids skipped; edges are admitted only when both
// endpoints exist. When no edge survives admission and at least two nodes
// exist, a chain of hierarchy edges (node 0-1, 1-2, ...) is synthesized,
// capped at maxHierarchyEdges, so downstream consumers never see a fully
// disconnected graph.
func Build(nodes []Node, edges []Edge) *Graph {
	g := New()

	dupes := 0
	for _, n := range nodes {
		if !g.AddNode(n) {
			dupes++
		}
	}
	if dupes > 0 {
		slog.Warn("graph: duplicate node ids skipped", "count", dupes)
	}

	dropped := 0
	for _, e := range edges {
		if !g.AddEdge(e) {
			dropped++
		}
	}
	if dropped > 0 {
		slog.Debug("graph: edges dropped by admission", "count", dropped)
	}

	synthesizeHierarchy(g)
	return g
}

// synthesizeHierarchy adds the fallback connectivity chain when a graph
// has nodes but no edges.
func synthesizeHierarchy(g *Graph) {
	if g.EdgeCount() != 0 || g.NodeCount() < 2 {
		return
	}

	n := g.NodeCount() - 1
	if n > maxHierarchyEdges {
		n = maxHierarchyEdges
	}

	nodes := g.Nodes()
	for i := 0; i < n; i++ {
		g.AddEdge(Edge{
			ID:     fmt.Sprintf("%s-%s", nodes[i].ID, nodes[i+1].ID),
			Source: nodes[i].ID,
			Target: nodes[i+1].ID,
			Type:   "hierarchy",
		})
	}
	slog.Debug("graph: synthesized hierarchy chain", "edges", n)
}
