package graph

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddNodePreservesInsertionOrder(t *testing.T) {
	g := New()
	ids := []string{"P-101", "V-201", "T-301", "E-401"}
	for _, id := range ids {
		if !g.AddNode(Node{ID: id, Type: "Equipment", Label: id}) {
			t.Fatalf("AddNode(%q) not admitted", id)
		}
	}

	nodes := g.Nodes()
	if len(nodes) != len(ids) {
		t.Fatalf("node count: got %d, want %d", len(nodes), len(ids))
	}
	for i, id := range ids {
		if nodes[i].ID != id {
			t.Errorf("nodes[%d].ID = %q, want %q", i, nodes[i].ID, id)
		}
	}
}

func TestAddNodeDuplicateFirstWins(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "P-101", Label: "first"})
	if g.AddNode(Node{ID: "P-101", Label: "second"}) {
		t.Error("duplicate node id was admitted")
	}

	if g.NodeCount() != 1 {
		t.Fatalf("node count: got %d, want 1", g.NodeCount())
	}
	n, ok := g.Node("P-101")
	if !ok {
		t.Fatal("node P-101 not found")
	}
	if n.Label != "first" {
		t.Errorf("label: got %q, want %q (first occurrence should win)", n.Label, "first")
	}
}

func TestAddEdgeAdmission(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A"})
	g.AddNode(Node{ID: "B"})

	tests := []struct {
		name    string
		edge    Edge
		wantAdd bool
	}{
		{"both endpoints exist", Edge{Source: "A", Target: "B", Type: "pipe"}, true},
		{"missing target", Edge{Source: "A", Target: "X", Type: "pipe"}, false},
		{"missing source", Edge{Source: "X", Target: "B", Type: "pipe"}, false},
		{"both missing", Edge{Source: "X", Target: "Y", Type: "pipe"}, false},
		{"self loop", Edge{Source: "A", Target: "A", Type: "pipe"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.AddEdge(tt.edge); got != tt.wantAdd {
				t.Errorf("AddEdge admitted=%v, want %v", got, tt.wantAdd)
			}
		})
	}

	// Every admitted edge must reference existing nodes.
	for _, e := range g.Edges() {
		if !g.HasNode(e.Source) || !g.HasNode(e.Target) {
			t.Errorf("dangling edge %s -> %s", e.Source, e.Target)
		}
	}
}

func TestParallelEdgesPermitted(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "A"})
	g.AddNode(Node{ID: "B"})
	g.AddEdge(Edge{ID: "flow_1", Source: "A", Target: "B", Type: "pipe"})
	g.AddEdge(Edge{ID: "flow_2", Source: "A", Target: "B", Type: "pipe"})

	if g.EdgeCount() != 2 {
		t.Errorf("edge count: got %d, want 2 (parallel edges are permitted)", g.EdgeCount())
	}
}

func TestPropertiesGet(t *testing.T) {
	p := Properties{
		{Key: "TagName", Value: "P-101"},
		{Key: "ComponentClass", Value: "Pump"},
	}

	if v, ok := p.Get("TagName"); !ok || v != "P-101" {
		t.Errorf("Get(TagName) = %q, %v; want %q, true", v, ok, "P-101")
	}
	if _, ok := p.Get("Missing"); ok {
		t.Error("Get(Missing) reported present")
	}
}

func TestPropertiesMarshalOrder(t *testing.T) {
	p := Properties{
		{Key: "zeta", Value: "1"},
		{Key: "alpha", Value: "2"},
		{Key: "mid", Value: "3"},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"zeta":"1","alpha":"2","mid":"3"}`
	if string(data) != want {
		t.Errorf("marshal order: got %s, want %s", data, want)
	}
}

func TestTextDeterministic(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "P-101", Type: "Equipment", Label: "Feed Pump",
		Properties: Properties{{Key: "TagName", Value: "P-101"}},
		Position:   &Position{X: 10, Y: 20}})
	g.AddNode(Node{ID: "V-201", Type: "PipingComponent", Label: "Valve"})
	g.AddEdge(Edge{Source: "P-101", Target: "V-201", Type: "pipe"})

	first := g.Text()
	second := g.Text()
	if first != second {
		t.Fatal("Text() is not deterministic")
	}

	for _, want := range []string{
		"2 components, 1 connections",
		"P-101 [Equipment] Feed Pump",
		"@(10,20)",
		"TagName=P-101",
		"P-101 -- V-201 [pipe]",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("Text() missing %q:\n%s", want, first)
		}
	}
}

func TestEmptyGraphCounts(t *testing.T) {
	g := New()
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Errorf("empty graph counts: got %d/%d, want 0/0", g.NodeCount(), g.EdgeCount())
	}
	if got := g.Text(); !strings.Contains(got, "0 components, 0 connections") {
		t.Errorf("empty graph text: %q", got)
	}
}
