// File path: internal/parser/xmltree/tree.go
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Node is a namespace-aware element tree built from a document.
type Node struct {
	Space    string
	Local    string
	Attrs    []xml.Attr
	Children []*Node
	Text     string
	Parent   *Node

	// Index is the element's position in document order.
	Index int
}

// Parse reads a complete document and returns its root element. Space holds
// the resolved namespace URI; Text is the trimmed direct character data.
func Parse(data []byte) (*Node, error) {
	if err := checkWellFormed(data); err != nil {
		return nil, err
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	roots := doc.ChildElements()
	switch {
	case len(roots) == 0:
		return nil, errors.New("document has no root element")
	case len(roots) > 1:
		return nil, errors.New("multiple root elements")
	}
	count := 0
	return build(roots[0], nil, &count), nil
}

// etree reads raw tokens and does not match end tags against start tags.
func checkWellFormed(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("malformed xml: %w", err)
		}
	}
}

func build(el *etree.Element, parent *Node, count *int) *Node {
	node := &Node{Local: el.Tag, Parent: parent, Index: *count}
	*count++
	for _, a := range el.Attr {
		node.Attrs = append(node.Attrs, xml.Attr{Name: xml.Name{Space: a.Space, Local: a.Key}, Value: a.Value})
	}
	// Prefixes resolve once the node's own declarations are attached.
	node.Space, _ = node.LookupPrefix(el.Space)
	for i, a := range node.Attrs {
		if a.Name.Space != "" && a.Name.Space != "xmlns" {
			if uri, ok := node.LookupPrefix(a.Name.Space); ok {
				node.Attrs[i].Name.Space = uri
			}
		}
	}
	var text strings.Builder
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			node.Children = append(node.Children, build(t, node, count))
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}
	node.Text = strings.TrimSpace(text.String())
	return node
}

// Attr returns the value of the attribute with the given local name.
func (n *Node) Attr(local string) string {
	if n == nil {
		return ""
	}
	for _, attr := range n.Attrs {
		if attr.Name.Local == local && attr.Name.Space != "xmlns" {
			return attr.Value
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, even when empty.
func (n *Node) HasAttr(local string) bool {
	if n == nil {
		return false
	}
	for _, attr := range n.Attrs {
		if attr.Name.Local == local && attr.Name.Space != "xmlns" {
			return true
		}
	}
	return false
}

// Child returns the first direct child with the given local name.
func (n *Node) Child(local string) *Node {
	if n == nil {
		return nil
	}
	for _, child := range n.Children {
		if child.Local == local {
			return child
		}
	}
	return nil
}

// ChildrenNamed returns direct children with the given local name.
func (n *Node) ChildrenNamed(local string) []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, child := range n.Children {
		if child.Local == local {
			out = append(out, child)
		}
	}
	return out
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// LookupPrefix resolves a namespace prefix against the declarations in scope.
// The empty prefix resolves to the default namespace.
func (n *Node) LookupPrefix(prefix string) (string, bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		for _, attr := range cur.Attrs {
			if prefix == "" && attr.Name.Space == "" && attr.Name.Local == "xmlns" {
				return attr.Value, true
			}
			if prefix != "" && attr.Name.Space == "xmlns" && attr.Name.Local == prefix {
				return attr.Value, true
			}
		}
	}
	return "", false
}

// SplitQName splits "p:local" into its prefix and local part.
func SplitQName(qname string) (string, string) {
	qname = strings.TrimSpace(qname)
	if idx := strings.Index(qname, ":"); idx >= 0 {
		return qname[:idx], qname[idx+1:]
	}
	return "", qname
}
