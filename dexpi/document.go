package dexpi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DEXPI schema namespaces. Structured lookups accept either namespace or
// none, so documents that omit xmlns declarations still resolve.
const (
	dexpiNS = "http://www.dexpi.org/schema/dexpi"
	pidNS   = "http://www.dexpi.org/schema/pid"
)

// ErrEmptyDocument is returned by Parse when the input holds no content.
var ErrEmptyDocument = errors.New("dexpi: empty document")

// Attr is one element attribute, in document order.
type Attr struct {
	Name  string
	Value string
}

// Element is one node of a parsed document tree.
type Element struct {
	Tag      string // local name
	Space    string // namespace URI, empty when undeclared
	Attrs    []Attr // document order, xmlns declarations excluded
	Text     string // trimmed character data directly inside the element
	Children []*Element
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Find returns the first descendant with the given local name, in document
// order, regardless of namespace.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Tag == name {
			return c
		}
		if m := c.Find(name); m != nil {
			return m
		}
	}
	return nil
}

// Walk visits e and every descendant in document order.
func (e *Element) Walk(fn func(*Element)) {
	fn(e)
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// firstAttr returns the first non-empty value among the named attributes.
func firstAttr(e *Element, names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := e.Attr(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// Document is a parsed XML document.
type Document struct {
	Root *Element
}

// dexpiSpace reports whether a namespace is acceptable for structured
// lookups.
func dexpiSpace(space string) bool {
	switch space {
	case "", dexpiNS, pidNS:
		return true
	}
	return false
}

// FindAll returns every element in document order whose local name matches
// one of names under an accepted namespace. Elements in foreign namespaces
// are invisible to structured extraction and left to the generic fallback.
func (d *Document) FindAll(names ...string) []*Element {
	if d == nil || d.Root == nil {
		return nil
	}
	var out []*Element
	d.Root.Walk(func(e *Element) {
		if !dexpiSpace(e.Space) {
			return
		}
		for _, n := range names {
			if e.Tag == n {
				out = append(out, e)
				return
			}
		}
	})
	return out
}

// Parse builds an element tree from raw document bytes. Whitespace-only
// input returns ErrEmptyDocument; markup that is not well formed returns a
// parse error.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDocument
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *Element
		stack []*Element
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dexpi: parsing document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Tag: t.Name.Local, Space: t.Name.Space}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("dexpi: parsing document: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			cur := stack[len(stack)-1]
			if cur.Text != "" {
				cur.Text += " "
			}
			cur.Text += text
		}
	}

	if root == nil {
		return nil, fmt.Errorf("dexpi: parsing document: no root element")
	}
	return &Document{Root: root}, nil
}
