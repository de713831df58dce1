package dexpi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aditinnerkar/veilix-app/graph"
)

// maxLabelText caps element text used as a node label.
const maxLabelText = 50

// Classifier is the tag classification policy: which elements count as
// connections, which qualify as fallback components, and how node identity
// is derived. It holds no state; the zero value classifies nothing, so use
// DefaultClassifier.
type Classifier struct {
	// ConnectionKeywords match case-insensitively as substrings of element
	// tags, so "PipelineSection" counts as a connection.
	ConnectionKeywords []string

	// StructuralTags never qualify as fallback components. The document's
	// own root tag is excluded as well.
	StructuralTags []string
}

// DefaultClassifier returns the stock policy.
func DefaultClassifier() Classifier {
	return Classifier{
		ConnectionKeywords: []string{"connect", "pipe", "line"},
		StructuralTags:     []string{"root", "document", "xml", "schema", "dexpi"},
	}
}

// IsConnection reports whether a tag names a connection-like element.
func (c Classifier) IsConnection(tag string) bool {
	lower := strings.ToLower(tag)
	for _, kw := range c.ConnectionKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// IsComponentCandidate reports whether an element is distinctive enough to
// become a fallback node: at least one attribute or non-empty text, and a
// tag that is neither structural nor the document root's.
func (c Classifier) IsComponentCandidate(e *Element, rootTag string) bool {
	if len(e.Attrs) == 0 && e.Text == "" {
		return false
	}
	lower := strings.ToLower(e.Tag)
	if lower == strings.ToLower(rootTag) {
		return false
	}
	for _, t := range c.StructuralTags {
		if lower == strings.ToLower(t) {
			return false
		}
	}
	return true
}

// NodeID derives a node id: explicit ID attribute, generic id attribute,
// else a synthetic id from the extraction-run counter.
func (c Classifier) NodeID(e *Element, seq int) string {
	if v, ok := firstAttr(e, "ID", "id"); ok {
		return v
	}
	return fmt.Sprintf("node_%d", seq)
}

// NodeType derives a node type: the ComponentClass attribute when present,
// else the element's tag.
func (c Classifier) NodeType(e *Element) string {
	if v, ok := e.Attr("ComponentClass"); ok && v != "" {
		return v
	}
	return e.Tag
}

// NodeLabel derives a display label: a naming attribute, else short element
// text, else the id itself.
func (c Classifier) NodeLabel(e *Element, id string) string {
	if v, ok := firstAttr(e, "TagName", "Name", "name"); ok {
		return v
	}
	if e.Text != "" && len(e.Text) <= maxLabelText {
		return e.Text
	}
	return id
}

// EdgeID derives an edge id: explicit ID attribute, else fallback.
func (c Classifier) EdgeID(e *Element, fallback string) string {
	if v, ok := e.Attr("ID"); ok && v != "" {
		return v
	}
	return fallback
}

// buildNode assembles a graph node from an element. seq feeds the
// synthetic id when the element carries none of its own.
func buildNode(c Classifier, e *Element, seq int) graph.Node {
	id := c.NodeID(e, seq)
	return graph.Node{
		ID:         id,
		Type:       c.NodeType(e),
		Label:      c.NodeLabel(e, id),
		Properties: properties(e),
		Position:   position(e),
	}
}

// properties copies element attributes into graph properties, preserving
// document order.
func properties(e *Element) graph.Properties {
	if len(e.Attrs) == 0 {
		return nil
	}
	props := make(graph.Properties, 0, len(e.Attrs))
	for _, a := range e.Attrs {
		props = append(props, graph.Property{Key: a.Name, Value: a.Value})
	}
	return props
}

// position reads a nested Position element's X and Y attributes. Both must
// parse as numbers or the node carries no position.
func position(e *Element) *graph.Position {
	pos := e.Find("Position")
	if pos == nil {
		return nil
	}
	xs, okX := pos.Attr("X")
	ys, okY := pos.Attr("Y")
	if !okX || !okY {
		return nil
	}
	x, errX := strconv.ParseFloat(xs, 64)
	y, errY := strconv.ParseFloat(ys, 64)
	if errX != nil || errY != nil {
		return nil
	}
	return &graph.Position{X: x, Y: y}
}
