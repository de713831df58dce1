package dexpi

import (
	"fmt"
	"log/slog"

	"github.com/aditinnerkar/veilix-app/graph"
)

// structuredStrategy extracts by the DEXPI element vocabulary: Equipment
// and PipingComponent become nodes, Pipe and Connection become edges.
type structuredStrategy struct {
	classifier Classifier
}

func (s structuredStrategy) Name() string { return "structured" }

func (s structuredStrategy) Extract(d *Document) (Result, error) {
	return Result{
		Components: structuredComponents(d, s.classifier),
		Flows:      structuredFlows(d, s.classifier),
	}, nil
}

// structuredComponents returns one node per Equipment or PipingComponent
// element, in document order.
func structuredComponents(d *Document, c Classifier) []graph.Node {
	var nodes []graph.Node
	for _, e := range d.FindAll("Equipment", "PipingComponent") {
		nodes = append(nodes, buildNode(c, e, len(nodes)))
	}
	return nodes
}

// structuredFlows returns one edge per Pipe or Connection element carrying
// both endpoints. A connection missing either endpoint is skipped with a
// warning, never a failure.
func structuredFlows(d *Document, c Classifier) []graph.Edge {
	var edges []graph.Edge
	for _, e := range d.FindAll("Pipe", "Connection") {
		from, okFrom := firstAttr(e, "FromComponent", "StartComponent")
		to, okTo := firstAttr(e, "ToComponent", "EndComponent")
		if !okFrom || !okTo {
			id, _ := e.Attr("ID")
			slog.Warn("dexpi: skipping connection without endpoints", "tag", e.Tag, "id", id)
			continue
		}
		edges = append(edges, graph.Edge{
			ID:         c.EdgeID(e, fmt.Sprintf("flow_%d", len(edges))),
			Source:     from,
			Target:     to,
			Type:       "pipe",
			Properties: properties(e),
		})
	}
	return edges
}
