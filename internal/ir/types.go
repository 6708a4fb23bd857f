// File path: internal/ir/types.go
package ir

import (
	"sort"
	"strings"
)

// SchemaKind classifies a SchemaType node.
type SchemaKind string

const (
	KindPrimitive   SchemaKind = "primitive"
	KindSequence    SchemaKind = "sequence"
	KindComplexType SchemaKind = "complexType"
)

// IR primitive names. Every XSD built-in maps onto one of these.
const (
	PrimitiveString   = "string"
	PrimitiveInt      = "int"
	PrimitiveLong     = "long"
	PrimitiveDecimal  = "decimal"
	PrimitiveDouble   = "double"
	PrimitiveBoolean  = "boolean"
	PrimitiveDate     = "date"
	PrimitiveDateTime = "dateTime"
	PrimitiveTime     = "time"
	PrimitiveBinary   = "binary"
	PrimitiveOpaque   = "opaque"
)

// SchemaType is one node of a parsed schema tree. Primitive nodes carry no
// fields; compound nodes carry an ordered field list.
type SchemaType struct {
	Name   string        `json:"name"`
	Kind   SchemaKind    `json:"kind"`
	Fields []SchemaField `json:"fields,omitempty"`
}

// SchemaField is a named member of a compound SchemaType.
type SchemaField struct {
	Name     string      `json:"name"`
	Type     *SchemaType `json:"type"`
	Required bool        `json:"required"`
	Repeated bool        `json:"repeated,omitempty"`
}

// IsPrimitive reports whether t is a leaf type.
func (t *SchemaType) IsPrimitive() bool {
	return t != nil && t.Kind == KindPrimitive
}

// Field returns the named field, if present.
func (t *SchemaType) Field(name string) (SchemaField, bool) {
	if t == nil {
		return SchemaField{}, false
	}
	for _, field := range t.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return SchemaField{}, false
}

// Schema is the result of parsing one schema document: its named types in
// document order, including synthetic types produced by flattening.
type Schema struct {
	Path            string        `json:"path"`
	TargetNamespace string        `json:"target_namespace,omitempty"`
	Types           []*SchemaType `json:"types"`
	Warnings        []string      `json:"warnings,omitempty"`
}

// Lookup finds a named compound type declared by the schema.
func (s *Schema) Lookup(name string) *SchemaType {
	if s == nil {
		return nil
	}
	for _, t := range s.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Root returns the first declared type, which is the schema's top-level
// element for single-element documents.
func (s *Schema) Root() *SchemaType {
	if s == nil || len(s.Types) == 0 {
		return nil
	}
	return s.Types[0]
}

// SchemaSet resolves type names across every schema of a process unit.
type SchemaSet struct {
	byName map[string]*SchemaType
	names  []string
}

// NewSchemaSet indexes the supplied schemas. When two schemas declare the
// same name the first one wins.
func NewSchemaSet(schemas ...*Schema) *SchemaSet {
	set := &SchemaSet{byName: make(map[string]*SchemaType)}
	for _, schema := range schemas {
		if schema == nil {
			continue
		}
		for _, t := range schema.Types {
			if _, exists := set.byName[t.Name]; exists {
				continue
			}
			set.byName[t.Name] = t
			set.names = append(set.names, t.Name)
		}
	}
	sort.Strings(set.names)
	return set
}

// Resolve returns the named type, accepting prefixed names such as
// "tns:Customer".
func (s *SchemaSet) Resolve(name string) *SchemaType {
	if s == nil {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if t, ok := s.byName[name]; ok {
		return t
	}
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		if t, ok := s.byName[name[idx+1:]]; ok {
			return t
		}
	}
	return nil
}

// Types returns the indexed types sorted by name.
func (s *SchemaSet) Types() []*SchemaType {
	if s == nil {
		return nil
	}
	types := make([]*SchemaType, 0, len(s.names))
	for _, name := range s.names {
		types = append(types, s.byName[name])
	}
	return types
}

// Len reports the number of distinct type names.
func (s *SchemaSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// ActivityKind is the normalized category of a legacy activity.
type ActivityKind string

const (
	ActivityDataAccess       ActivityKind = "data-access"
	ActivityMessagingSend    ActivityKind = "messaging-send"
	ActivityMessagingReceive ActivityKind = "messaging-receive"
	ActivityOutboundCall     ActivityKind = "outbound-call"
	ActivityInboundCall      ActivityKind = "inbound-call"
)

// Activity is one node of a process activity graph.
type Activity struct {
	ID         string            `json:"id"`
	Kind       ActivityKind      `json:"kind"`
	Name       string            `json:"name"`
	Input      *SchemaType       `json:"input,omitempty"`
	Output     *SchemaType       `json:"output,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attr returns a raw attribute, or "" when absent.
func (a Activity) Attr(key string) string {
	if a.Attributes == nil {
		return ""
	}
	return a.Attributes[key]
}

// Transition links two activities by name. It is informational only.
type Transition struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition,omitempty"`
}

// ProcessUnit is the parsed content of one process folder.
type ProcessUnit struct {
	Folder       string        `json:"folder"`
	Name         string        `json:"process_name"`
	ProcessFiles []string      `json:"process_files"`
	Activities   []Activity    `json:"activities"`
	Transitions  []Transition  `json:"transitions,omitempty"`
	Schemas      []*SchemaType `json:"schemas,omitempty"`
}

// ServiceStyle is a target transport style.
type ServiceStyle string

const (
	StyleREST ServiceStyle = "REST"
	StyleSOAP ServiceStyle = "SOAP"
)

// StyleSet is an ordered set of service styles. Order follows the order in
// which each style's signal appeared; the first element is the primary style.
type StyleSet []ServiceStyle

// Has reports whether style is a member.
func (s StyleSet) Has(style ServiceStyle) bool {
	for _, candidate := range s {
		if candidate == style {
			return true
		}
	}
	return false
}

// Add appends style unless already present.
func (s StyleSet) Add(style ServiceStyle) StyleSet {
	if s.Has(style) {
		return s
	}
	return append(s, style)
}

// Primary returns the first style, or REST for an empty set.
func (s StyleSet) Primary() ServiceStyle {
	if len(s) == 0 {
		return StyleREST
	}
	return s[0]
}

// Equal compares membership, ignoring order.
func (s StyleSet) Equal(other StyleSet) bool {
	if len(s) != len(other) {
		return false
	}
	for _, style := range s {
		if !other.Has(style) {
			return false
		}
	}
	return true
}

// String renders the set as "REST+SOAP".
func (s StyleSet) String() string {
	parts := make([]string, 0, len(s))
	for _, style := range s {
		parts = append(parts, string(style))
	}
	return strings.Join(parts, "+")
}

// Architecture selects the generated project layout.
type Architecture string

const (
	ArchitectureLayered   Architecture = "layered"
	ArchitectureHexagonal Architecture = "hexagonal"
)

// ParseArchitecture maps user input onto an Architecture.
func ParseArchitecture(value string) (Architecture, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "layered":
		return ArchitectureLayered, true
	case "hexagonal", "ports-and-adapters":
		return ArchitectureHexagonal, true
	}
	return "", false
}

// Insight is a knowledge-index match attached to a plan.
type Insight struct {
	Query         string  `json:"query"`
	SourceProcess string  `json:"source_process"`
	ActivityID    string  `json:"activity_id"`
	Score         float64 `json:"score"`
}

// ProcessPlan is the unit of work handed to the Renderer.
type ProcessPlan struct {
	ProcessName  string       `json:"process_name"`
	PackageRoot  string       `json:"package_root"`
	Styles       StyleSet     `json:"service_styles"`
	Architecture Architecture `json:"architecture"`
	Unit         *ProcessUnit `json:"ir"`
	Insights     []Insight    `json:"insights,omitempty"`
}
