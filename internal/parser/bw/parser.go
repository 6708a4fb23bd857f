// File path: internal/parser/bw/parser.go
package bw

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/parser/xmltree"
)

// Document is one parsed process definition.
type Document struct {
	Path        string
	Name        string
	Activities  []ir.Activity
	Transitions []ir.Transition
	Warnings    []string
}

var childDefaults = map[string]map[string]string{
	"jms":  {"message-type": "Text", "delivery-mode": "PERSISTENT"},
	"http": {"method": "POST", "content-type": "application/json"},
}

// skipped attributes are carried on Activity fields instead of raw attributes.
var skippedAttrs = map[string]bool{"name": true, "id": true, "input": true, "output": true}

// ParseFile reads the process definition at path.
func ParseFile(path string, schemas *ir.SchemaSet) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ir.Malformed(path, err)
	}
	return Parse(path, data, schemas)
}

// Parse extracts the ordered activity list of one process definition.
// Activities keep source order. Unknown kinds and unresolved type
// references are retained and reported as warnings.
func Parse(path string, data []byte, schemas *ir.SchemaSet) (*Document, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, ir.Malformed(path, err)
	}
	if root.Local != "process" && root.Local != "ProcessDefinition" {
		return nil, ir.Malformed(path, fmt.Errorf("root element is <%s>, want <process>", root.Local))
	}
	doc := &Document{Path: path, Name: processName(path, root)}
	root.Walk(func(node *xmltree.Node) bool {
		if node == root {
			return true
		}
		switch node.Local {
		case "starter", "activity":
			doc.Activities = append(doc.Activities, doc.activity(node, len(doc.Activities), schemas))
			return false
		case "transition":
			doc.Transitions = append(doc.Transitions, ir.Transition{
				From:      valueOf(node, "from"),
				To:        valueOf(node, "to"),
				Condition: firstNonEmpty(valueOf(node, "condition"), valueOf(node, "xpath")),
			})
			return false
		}
		return true
	})
	return doc, nil
}

func (d *Document) activity(node *xmltree.Node, index int, schemas *ir.SchemaSet) ir.Activity {
	name := valueOf(node, "name")
	declared := valueOf(node, "type")
	id := node.Attr("id")
	if id == "" {
		id = fmt.Sprintf("%s:%d", d.Name, index)
	}
	activity := ir.Activity{
		ID:         id,
		Name:       name,
		Attributes: rawAttributes(node),
	}
	activity.Attributes["tag"] = node.Local
	if declared != "" {
		activity.Attributes["type"] = declared
	}
	if kind, ok := LookupKind(declared); ok {
		activity.Kind = kind
	} else if node.Local == "starter" {
		activity.Kind = ir.ActivityInboundCall
	} else {
		activity.Kind = ir.ActivityOutboundCall
		d.warn(fmt.Sprintf("activity %q: unrecognized kind %q retained as %s", name, declared, ir.ActivityOutboundCall))
	}
	activity.Input = d.resolve(name, typeRef(node, "input"), schemas)
	activity.Output = d.resolve(name, typeRef(node, "output"), schemas)
	return activity
}

// Qualify prefixes every activity ID with scope so IDs stay unique when
// documents from several folders share one index.
func (d *Document) Qualify(scope string) {
	scope = strings.Trim(scope, "/")
	if scope == "" {
		return
	}
	for i := range d.Activities {
		d.Activities[i].ID = scope + "/" + d.Activities[i].ID
	}
}

func (d *Document) resolve(activity, ref string, schemas *ir.SchemaSet) *ir.SchemaType {
	if ref == "" {
		return nil
	}
	if t := schemas.Resolve(ref); t != nil {
		return t
	}
	d.warn(fmt.Sprintf("activity %q: %v", activity, ir.Unresolved(d.Path, ref)))
	return nil
}

func (d *Document) warn(msg string) {
	d.Warnings = append(d.Warnings, msg)
}

func rawAttributes(node *xmltree.Node) map[string]string {
	raw := make(map[string]string)
	for _, attr := range node.Attrs {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" || skippedAttrs[attr.Name.Local] {
			continue
		}
		raw[attr.Name.Local] = attr.Value
	}
	for _, child := range node.Children {
		switch child.Local {
		case "name", "type", "input", "output":
			continue
		case "config":
			for _, entry := range child.Children {
				key := firstNonEmpty(entry.Attr("key"), entry.Attr("name"), entry.Local)
				raw["config."+key] = entry.Text
			}
			continue
		}
		prefix := child.Local
		for _, attr := range child.Attrs {
			if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
				continue
			}
			raw[prefix+"."+attr.Name.Local] = attr.Value
		}
		for _, grand := range child.Children {
			if grand.Local == "param" {
				raw[prefix+".param."+grand.Attr("name")] = firstNonEmpty(grand.Attr("type"), grand.Text)
				continue
			}
			if grand.Text != "" {
				raw[prefix+"."+grand.Local] = grand.Text
			}
		}
		if child.Text != "" {
			key := prefix + ".value"
			if prefix == "sql" {
				key = "sql.statement"
			}
			raw[key] = child.Text
		}
		for key, value := range childDefaults[prefix] {
			if _, ok := raw[prefix+"."+key]; !ok {
				raw[prefix+"."+key] = value
			}
		}
	}
	return raw
}

// typeRef reads a schema reference from an attribute or a child element
// such as <input element="tns:LoanRequest"/>.
func typeRef(node *xmltree.Node, which string) string {
	if ref := node.Attr(which); ref != "" {
		return ref
	}
	child := node.Child(which)
	if child == nil {
		return ""
	}
	return firstNonEmpty(child.Attr("element"), child.Attr("type"), child.Text)
}

// valueOf reads a property either as an attribute or as a child element's text.
func valueOf(node *xmltree.Node, key string) string {
	if value := node.Attr(key); value != "" {
		return strings.TrimSpace(value)
	}
	if child := node.Child(key); child != nil {
		return child.Text
	}
	return ""
}

func processName(path string, root *xmltree.Node) string {
	if name := valueOf(root, "name"); name != "" {
		if strings.ContainsAny(name, "/\\") {
			name = filepath.Base(filepath.ToSlash(name))
			name = strings.TrimSuffix(name, filepath.Ext(name))
		}
		return name
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
