// Package export serializes graphs to portable formats: GraphML for
// interchange and an XLSX component inventory for reporting.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aditinnerkar/veilix-app/graph"
)

const graphmlNS = "http://graphml.graphdrawing.org/xmlns"

// esc escapes reserved markup characters for both text and attribute use.
func esc(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

// WriteGraphML serializes g to w. Emission order equals the graph's
// insertion order, so writing an unchanged graph twice is byte-identical.
// The declaration is undirected, matching the model's edge semantics.
func WriteGraphML(w io.Writer, g *graph.Graph) error {
	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<graphml xmlns="` + graphmlNS + `">` + "\n")
	b.WriteString(`  <key id="node_id" for="node" attr.name="id" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="node_name" for="node" attr.name="name" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="node_type" for="node" attr.name="type" attr.type="string"/>` + "\n")
	b.WriteString(`  <key id="edge_type" for="edge" attr.name="type" attr.type="string"/>` + "\n")
	b.WriteString(`  <graph id="G" edgedefault="undirected">` + "\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&b, `    <node id="%s">`+"\n", esc(n.ID))
		fmt.Fprintf(&b, `      <data key="node_id">%s</data>`+"\n", esc(n.ID))
		fmt.Fprintf(&b, `      <data key="node_name">%s</data>`+"\n", esc(n.Label))
		fmt.Fprintf(&b, `      <data key="node_type">%s</data>`+"\n", esc(n.Type))
		b.WriteString("    </node>\n")
	}
	for _, e := range g.Edges() {
		fmt.Fprintf(&b, `    <edge source="%s" target="%s">`+"\n", esc(e.Source), esc(e.Target))
		fmt.Fprintf(&b, `      <data key="edge_type">%s</data>`+"\n", esc(e.Type))
		b.WriteString("    </edge>\n")
	}

	b.WriteString("  </graph>\n")
	b.WriteString("</graphml>\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("writing graphml: %w", err)
	}
	return nil
}

// ExportGraphML writes g to path through a temporary file in the same
// directory plus a rename, so a failed export never leaves a partial file
// at the target path.
func ExportGraphML(path string, g *graph.Graph) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteGraphML(tmp, g); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into place: %w", err)
	}
	return nil
}
