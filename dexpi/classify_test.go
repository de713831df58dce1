package dexpi

import (
	"strings"
	"testing"
)

func TestIsConnection(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		tag  string
		want bool
	}{
		{"Pipe", true},
		{"pipe", true},
		{"PipelineSection", true},
		{"ProcessConnection", true},
		{"CONNECTOR", true},
		{"SignalLine", true},
		{"Equipment", false},
		{"Valve", false},
		{"Nozzle", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := c.IsConnection(tt.tag); got != tt.want {
			t.Errorf("IsConnection(%q) = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestIsConnectionCustomPolicy(t *testing.T) {
	c := Classifier{ConnectionKeywords: []string{"Wire"}}

	if !c.IsConnection("signalwire") {
		t.Error("IsConnection(signalwire) = false with Wire keyword")
	}
	if c.IsConnection("Pipe") {
		t.Error("IsConnection(Pipe) = true, want false under custom policy")
	}
}

func TestIsComponentCandidate(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name    string
		elem    *Element
		rootTag string
		want    bool
	}{
		{"attrs only", &Element{Tag: "Tank", Attrs: []Attr{{"id", "T1"}}}, "plant", true},
		{"text only", &Element{Tag: "Tank", Text: "storage"}, "plant", true},
		{"bare element", &Element{Tag: "Tank"}, "plant", false},
		{"structural tag", &Element{Tag: "Schema", Attrs: []Attr{{"v", "1"}}}, "plant", false},
		{"root tag", &Element{Tag: "PlantModel", Attrs: []Attr{{"v", "1"}}}, "PlantModel", false},
		{"root tag case-insensitive", &Element{Tag: "plantmodel", Attrs: []Attr{{"v", "1"}}}, "PlantModel", false},
		{"dexpi tag", &Element{Tag: "DEXPI", Text: "x"}, "plant", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsComponentCandidate(tt.elem, tt.rootTag); got != tt.want {
				t.Errorf("IsComponentCandidate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNodeIDPriority(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name string
		elem *Element
		want string
	}{
		{"explicit ID", &Element{Attrs: []Attr{{"ID", "P-100"}, {"id", "low"}}}, "P-100"},
		{"generic id", &Element{Attrs: []Attr{{"id", "p100"}}}, "p100"},
		{"synthetic", &Element{Attrs: []Attr{{"name", "x"}}}, "node_7"},
		{"empty ID falls through", &Element{Attrs: []Attr{{"ID", ""}, {"id", "p1"}}}, "p1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NodeID(tt.elem, 7); got != tt.want {
				t.Errorf("NodeID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNodeType(t *testing.T) {
	c := DefaultClassifier()

	withClass := &Element{Tag: "Equipment", Attrs: []Attr{{"ComponentClass", "CentrifugalPump"}}}
	if got, want := c.NodeType(withClass), "CentrifugalPump"; got != want {
		t.Errorf("NodeType() = %q, want %q", got, want)
	}

	bare := &Element{Tag: "Equipment"}
	if got, want := c.NodeType(bare), "Equipment"; got != want {
		t.Errorf("NodeType() = %q, want %q", got, want)
	}
}

func TestNodeLabelPriority(t *testing.T) {
	c := DefaultClassifier()

	longText := strings.Repeat("x", 51)
	shortText := strings.Repeat("x", 50)

	tests := []struct {
		name string
		elem *Element
		want string
	}{
		{"TagName first", &Element{Attrs: []Attr{{"TagName", "P-100"}, {"Name", "Pump"}}}, "P-100"},
		{"Name second", &Element{Attrs: []Attr{{"Name", "Pump"}, {"name", "pump"}}}, "Pump"},
		{"lowercase name", &Element{Attrs: []Attr{{"name", "pump"}}}, "pump"},
		{"short text", &Element{Text: shortText}, shortText},
		{"long text falls to id", &Element{Text: longText}, "E1"},
		{"nothing falls to id", &Element{}, "E1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.NodeLabel(tt.elem, "E1"); got != tt.want {
				t.Errorf("NodeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEdgeID(t *testing.T) {
	c := DefaultClassifier()

	withID := &Element{Attrs: []Attr{{"ID", "PIPE-7"}}}
	if got, want := c.EdgeID(withID, "flow_0"), "PIPE-7"; got != want {
		t.Errorf("EdgeID() = %q, want %q", got, want)
	}
	if got, want := c.EdgeID(&Element{}, "flow_0"), "flow_0"; got != want {
		t.Errorf("EdgeID() = %q, want %q", got, want)
	}
}

func TestBuildNodeProperties(t *testing.T) {
	c := DefaultClassifier()
	e := &Element{
		Tag:   "Equipment",
		Attrs: []Attr{{"ID", "E1"}, {"ComponentClass", "Vessel"}, {"Pressure", "12 bar"}},
	}

	n := buildNode(c, e, 0)
	if got, want := len(n.Properties), 3; got != want {
		t.Fatalf("properties = %d, want %d", got, want)
	}
	keys := make([]string, 0, len(n.Properties))
	for _, p := range n.Properties {
		keys = append(keys, p.Key)
	}
	if got, want := strings.Join(keys, ","), "ID,ComponentClass,Pressure"; got != want {
		t.Errorf("property order = %s, want %s", got, want)
	}
	if v, ok := n.Properties.Get("Pressure"); !ok || v != "12 bar" {
		t.Errorf("Get(Pressure) = %q, %v", v, ok)
	}
}

func TestBuildNodePosition(t *testing.T) {
	c := DefaultClassifier()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"valid", `<Equipment ID="E1"><Position X="10.5" Y="-3"/></Equipment>`, true},
		{"nested deeper", `<Equipment ID="E1"><geom><Position X="1" Y="2"/></geom></Equipment>`, true},
		{"missing Y", `<Equipment ID="E1"><Position X="10.5"/></Equipment>`, false},
		{"non-numeric", `<Equipment ID="E1"><Position X="a" Y="2"/></Equipment>`, false},
		{"no position", `<Equipment ID="E1"/>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := mustParse(t, tt.src)
			n := buildNode(c, d.Root, 0)
			if got := n.Position != nil; got != tt.want {
				t.Fatalf("position present = %v, want %v", got, tt.want)
			}
		})
	}

	d := mustParse(t, `<Equipment ID="E1"><Position X="10.5" Y="-3"/></Equipment>`)
	n := buildNode(c, d.Root, 0)
	if n.Position.X != 10.5 || n.Position.Y != -3 {
		t.Errorf("position = (%v, %v), want (10.5, -3)", n.Position.X, n.Position.Y)
	}
}
