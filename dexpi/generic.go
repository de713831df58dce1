package dexpi

import (
	"strings"

	"github.com/aditinnerkar/veilix-app/graph"
)

// Node caps for the generic extractor. Emission stops at the cap;
// remaining elements are ignored, not queued.
const (
	wholeGraphNodeCap    = 100
	componentOnlyNodeCap = 50
)

// componentOnlyStrategy serves documents whose connections follow the
// DEXPI vocabulary but whose components do not: capped generic nodes
// joined with the structured flow scan. Without structured flows it
// yields nothing and the chain advances to the whole-graph tier.
type componentOnlyStrategy struct {
	classifier Classifier
}

func (s componentOnlyStrategy) Name() string { return "component-only" }

func (s componentOnlyStrategy) Extract(d *Document) (Result, error) {
	flows := structuredFlows(d, s.classifier)
	if len(flows) == 0 {
		return Result{}, nil
	}
	return Result{
		Components: genericComponents(d, s.classifier, componentOnlyNodeCap),
		Flows:      flows,
	}, nil
}

// wholeGraphStrategy is the last tier: capped generic nodes plus
// keyword-derived connections.
type wholeGraphStrategy struct {
	classifier Classifier
}

func (s wholeGraphStrategy) Name() string { return "whole-graph" }

func (s wholeGraphStrategy) Extract(d *Document) (Result, error) {
	nodes := genericComponents(d, s.classifier, wholeGraphNodeCap)
	return Result{
		Components: nodes,
		Flows:      genericConnections(d, s.classifier, nodes),
	}, nil
}

// genericComponents walks every element in document order and emits one
// node per classifier candidate, up to limit.
func genericComponents(d *Document, c Classifier, limit int) []graph.Node {
	rootTag := strings.ToLower(d.Root.Tag)
	var nodes []graph.Node
	d.Root.Walk(func(e *Element) {
		if len(nodes) >= limit {
			return
		}
		if !c.IsComponentCandidate(e, rootTag) {
			return
		}
		nodes = append(nodes, buildNode(c, e, len(nodes)))
	})
	return nodes
}

// genericConnections re-scans the document for keyword-matched tags and
// derives edges between already-emitted nodes. Elements missing an
// endpoint, or naming a node that was not emitted, produce nothing.
func genericConnections(d *Document, c Classifier, nodes []graph.Node) []graph.Edge {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	var edges []graph.Edge
	d.Root.Walk(func(e *Element) {
		if !c.IsConnection(e.Tag) {
			return
		}
		from, okFrom := firstAttr(e, "From", "FromComponent", "StartComponent")
		to, okTo := firstAttr(e, "To", "ToComponent", "EndComponent")
		if !okFrom || !okTo {
			return
		}
		if !known[from] || !known[to] {
			return
		}
		edges = append(edges, graph.Edge{
			ID:         c.EdgeID(e, from+"-"+to),
			Source:     from,
			Target:     to,
			Type:       "connection",
			Properties: properties(e),
		})
	})
	return edges
}
