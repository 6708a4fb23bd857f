// File path: internal/parser/xsd/parser.go
package xsd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/parser/xmltree"
)

// ParseFile reads and parses the schema document at path.
func ParseFile(path string) (*ir.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ir.Malformed(path, err)
	}
	return Parse(path, data)
}

// Parse builds the schema model for one document. path only labels errors
// and warnings. Identical input always yields an identical tree.
func Parse(path string, data []byte) (*ir.Schema, error) {
	root, err := xmltree.Parse(data)
	if err != nil {
		return nil, ir.Malformed(path, err)
	}
	if root.Local != "schema" {
		return nil, ir.Malformed(path, fmt.Errorf("root element is <%s>, want <schema>", root.Local))
	}
	b := newBuilder(path, root)
	if err := b.build(); err != nil {
		return nil, err
	}
	return &ir.Schema{
		Path:            path,
		TargetNamespace: root.Attr("targetNamespace"),
		Types:           b.out,
		Warnings:        b.warnings,
	}, nil
}

type builder struct {
	path         string
	root         *xmltree.Node
	elements     map[string]*xmltree.Node
	complexTypes map[string]*xmltree.Node
	simpleTypes  map[string]*xmltree.Node
	built        map[string]*ir.SchemaType
	visiting     map[string]bool
	names        map[string]bool
	out          []*ir.SchemaType
	warnings     []string
}

func newBuilder(path string, root *xmltree.Node) *builder {
	b := &builder{
		path:         path,
		root:         root,
		elements:     make(map[string]*xmltree.Node),
		complexTypes: make(map[string]*xmltree.Node),
		simpleTypes:  make(map[string]*xmltree.Node),
		built:        make(map[string]*ir.SchemaType),
		visiting:     make(map[string]bool),
		names:        make(map[string]bool),
	}
	for _, child := range root.Children {
		name := child.Attr("name")
		if name == "" {
			continue
		}
		switch child.Local {
		case "element":
			b.elements[name] = child
		case "complexType":
			b.complexTypes[name] = child
		case "simpleType":
			b.simpleTypes[name] = child
		}
	}
	return b
}

func (b *builder) build() error {
	// Elements first so the schema's root element is Types[0].
	for _, child := range b.root.ChildrenNamed("element") {
		name := child.Attr("name")
		if name == "" {
			b.warn("top-level element without name skipped")
			continue
		}
		if _, err := b.element(name); err != nil {
			return err
		}
	}
	for _, child := range b.root.ChildrenNamed("complexType") {
		name := child.Attr("name")
		if name == "" {
			continue
		}
		if _, err := b.namedComplexType(name); err != nil {
			return err
		}
	}
	return nil
}

// element builds the type exposed by a top-level element. A nil type with
// a nil error means the element is not compound and was skipped.
func (b *builder) element(name string) (*ir.SchemaType, error) {
	key := "element:" + name
	if b.visiting[key] {
		return nil, b.cyclic(name)
	}
	if t, ok := b.built[key]; ok {
		return t, nil
	}
	node := b.elements[name]
	if node == nil {
		return nil, nil
	}
	b.visiting[key] = true
	defer delete(b.visiting, key)

	if inline := node.Child("complexType"); inline != nil {
		t := b.declare(key, name, ir.KindSequence)
		fields, err := b.complexFields(name, inline)
		if err != nil {
			return nil, err
		}
		t.Fields = fields
		return t, nil
	}
	typeRef := node.Attr("type")
	if typeRef != "" {
		prefix, local := xmltree.SplitQName(typeRef)
		if !b.isXSDPrefix(node, prefix) {
			if _, ok := b.complexTypes[local]; ok && local == name {
				// the element and its type share one DTO
				named, err := b.namedComplexType(local)
				if err != nil {
					return nil, err
				}
				b.built[key] = named
				return named, nil
			}
			if _, ok := b.complexTypes[local]; ok {
				t := b.declare(key, name, ir.KindComplexType)
				named, err := b.namedComplexType(local)
				if err != nil {
					return nil, err
				}
				t.Fields = named.Fields
				return t, nil
			}
		}
	}
	b.warn(fmt.Sprintf("top-level element %s has no compound type; skipped", name))
	b.built[key] = nil
	return nil, nil
}

func (b *builder) namedComplexType(name string) (*ir.SchemaType, error) {
	key := "complexType:" + name
	if b.visiting[key] {
		return nil, b.cyclic(name)
	}
	if t, ok := b.built[key]; ok {
		return t, nil
	}
	node := b.complexTypes[name]
	if node == nil {
		return nil, nil
	}
	b.visiting[key] = true
	defer delete(b.visiting, key)

	t := b.declare(key, name, ir.KindComplexType)
	fields, err := b.complexFields(name, node)
	if err != nil {
		return nil, err
	}
	t.Fields = fields
	return t, nil
}

// declare registers a compound type under a unique name and appends it to
// the output in creation order.
func (b *builder) declare(key, name string, kind ir.SchemaKind) *ir.SchemaType {
	unique := name
	for i := 2; b.names[unique]; i++ {
		unique = name + "_" + strconv.Itoa(i)
	}
	b.names[unique] = true
	t := &ir.SchemaType{Name: unique, Kind: kind}
	if key != "" {
		b.built[key] = t
	}
	b.out = append(b.out, t)
	return t
}

func (b *builder) complexFields(owner string, node *xmltree.Node) ([]ir.SchemaField, error) {
	var fields []ir.SchemaField
	for _, child := range node.Children {
		switch child.Local {
		case "sequence", "all", "choice":
			collected, err := b.compositorFields(owner, child, child.Local == "choice")
			if err != nil {
				return nil, err
			}
			fields = append(fields, collected...)
		case "complexContent", "simpleContent":
			ext := child.Child("extension")
			if ext == nil {
				ext = child.Child("restriction")
			}
			if ext == nil {
				continue
			}
			if base := ext.Attr("base"); base != "" && child.Local == "complexContent" {
				_, local := xmltree.SplitQName(base)
				if _, ok := b.complexTypes[local]; ok {
					parent, err := b.namedComplexType(local)
					if err != nil {
						return nil, err
					}
					fields = append(fields, parent.Fields...)
				}
			}
			if child.Local == "simpleContent" {
				fields = append(fields, ir.SchemaField{Name: "value", Type: b.resolveSimple(ext, ext.Attr("base")), Required: true})
			}
			extFields, err := b.complexFields(owner, ext)
			if err != nil {
				return nil, err
			}
			fields = append(fields, extFields...)
		case "attribute":
			name := child.Attr("name")
			if name == "" {
				_, name = xmltree.SplitQName(child.Attr("ref"))
			}
			if name == "" {
				continue
			}
			fields = append(fields, ir.SchemaField{
				Name:     name,
				Type:     b.resolveSimple(child, child.Attr("type")),
				Required: child.Attr("use") == "required",
			})
		}
	}
	return fields, nil
}

func (b *builder) compositorFields(owner string, node *xmltree.Node, optional bool) ([]ir.SchemaField, error) {
	optional = optional || node.Attr("minOccurs") == "0"
	var fields []ir.SchemaField
	for _, child := range node.Children {
		switch child.Local {
		case "element":
			field, err := b.field(owner, child)
			if err != nil {
				return nil, err
			}
			if field.Name == "" {
				continue
			}
			if optional {
				field.Required = false
			}
			fields = append(fields, field)
		case "sequence", "all", "choice":
			nested, err := b.compositorFields(owner, child, optional || child.Local == "choice")
			if err != nil {
				return nil, err
			}
			fields = append(fields, nested...)
		}
	}
	return fields, nil
}

func (b *builder) field(owner string, node *xmltree.Node) (ir.SchemaField, error) {
	field := ir.SchemaField{
		Name:     node.Attr("name"),
		Required: node.Attr("minOccurs") != "0",
		Repeated: repeated(node.Attr("maxOccurs")),
	}
	if ref := node.Attr("ref"); ref != "" {
		_, local := xmltree.SplitQName(ref)
		if field.Name == "" {
			field.Name = local
		}
		target, err := b.element(local)
		if err != nil {
			return field, err
		}
		if target == nil {
			if simple := b.elements[local]; simple != nil {
				field.Type = b.resolveSimple(simple, simple.Attr("type"))
				return field, nil
			}
			b.warn(ir.Unresolved(b.path, ref).Error())
			field.Type = Primitive(ir.PrimitiveOpaque)
			return field, nil
		}
		field.Type = target
		return field, nil
	}
	if field.Name == "" {
		return field, nil
	}
	if inline := node.Child("complexType"); inline != nil {
		synthetic := b.declare("", owner+"_"+field.Name, ir.KindSequence)
		fields, err := b.complexFields(synthetic.Name, inline)
		if err != nil {
			return field, err
		}
		synthetic.Fields = fields
		field.Type = synthetic
		return field, nil
	}
	if inline := node.Child("simpleType"); inline != nil {
		field.Type = b.simpleTypeNode(inline)
		return field, nil
	}
	typeRef := node.Attr("type")
	if typeRef == "" {
		field.Type = Primitive(ir.PrimitiveOpaque)
		return field, nil
	}
	prefix, local := xmltree.SplitQName(typeRef)
	if !b.isXSDPrefix(node, prefix) {
		if _, ok := b.complexTypes[local]; ok {
			named, err := b.namedComplexType(local)
			if err != nil {
				return field, err
			}
			field.Type = named
			return field, nil
		}
	}
	field.Type = b.resolveSimple(node, typeRef)
	return field, nil
}

// resolveSimple maps a simple type reference onto an IR primitive.
func (b *builder) resolveSimple(scope *xmltree.Node, typeRef string) *ir.SchemaType {
	if typeRef == "" {
		return Primitive(ir.PrimitiveOpaque)
	}
	prefix, local := xmltree.SplitQName(typeRef)
	if b.isXSDPrefix(scope, prefix) {
		return Primitive(MapPrimitive(local))
	}
	if simple, ok := b.simpleTypes[local]; ok {
		key := "simpleType:" + local
		if b.visiting[key] {
			b.warn(fmt.Sprintf("simple type %s restricts itself", local))
			return Primitive(ir.PrimitiveOpaque)
		}
		b.visiting[key] = true
		defer delete(b.visiting, key)
		return b.simpleTypeNode(simple)
	}
	if isBuiltin(local) {
		return Primitive(MapPrimitive(local))
	}
	b.warn(ir.Unresolved(b.path, typeRef).Error())
	return Primitive(ir.PrimitiveOpaque)
}

func (b *builder) simpleTypeNode(node *xmltree.Node) *ir.SchemaType {
	if restriction := node.Child("restriction"); restriction != nil {
		return b.resolveSimple(restriction, restriction.Attr("base"))
	}
	// list and union have no single primitive
	return Primitive(ir.PrimitiveString)
}

func (b *builder) isXSDPrefix(scope *xmltree.Node, prefix string) bool {
	ns, ok := scope.LookupPrefix(prefix)
	if ok {
		return ns == Namespace
	}
	return prefix == "xs" || prefix == "xsd"
}

func (b *builder) cyclic(name string) error {
	return &ir.ParseError{Kind: ir.ParseCyclic, Path: b.path, Ref: name, Err: ir.ErrCyclicSchema}
}

func (b *builder) warn(msg string) {
	b.warnings = append(b.warnings, msg)
}

func repeated(maxOccurs string) bool {
	if maxOccurs == "" {
		return false
	}
	if maxOccurs == "unbounded" {
		return true
	}
	n, err := strconv.Atoi(maxOccurs)
	return err == nil && n > 1
}
