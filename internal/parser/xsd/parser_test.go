// File path: internal/parser/xsd/parser_test.go
package xsd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

const loanSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:tns="urn:loan" targetNamespace="urn:loan">
  <xs:element name="LoanRequest">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="customerID" type="xs:string"/>
        <xs:element name="loanAmount" type="xs:decimal"/>
        <xs:element name="address" minOccurs="0">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="street" type="xs:string"/>
              <xs:element name="zip" type="tns:ZipCode"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element name="history" type="tns:Payment" maxOccurs="unbounded"/>
        <xs:element name="blob" type="xs:anySimpleType"/>
      </xs:sequence>
      <xs:attribute name="channel" type="xs:string" use="required"/>
    </xs:complexType>
  </xs:element>
  <xs:complexType name="Payment">
    <xs:all>
      <xs:element name="paidOn" type="xs:date"/>
      <xs:element name="amount" type="xs:double"/>
    </xs:all>
  </xs:complexType>
  <xs:simpleType name="ZipCode">
    <xs:restriction base="xs:int"/>
  </xs:simpleType>
</xs:schema>`

func TestParseRoundTripsTwoPrimitiveFields(t *testing.T) {
	doc := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="E"><xs:complexType><xs:sequence>
    <xs:element name="a" type="xs:string"/>
    <xs:element name="b" type="xs:int"/>
  </xs:sequence></xs:complexType></xs:element>
</xs:schema>`
	schema, err := Parse("e.xsd", []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := schema.Root()
	if root == nil || root.Name != "E" {
		t.Fatalf("unexpected root %+v", root)
	}
	if len(root.Fields) != 2 {
		t.Fatalf("expected two fields, got %d", len(root.Fields))
	}
	want := []struct{ name, prim string }{{"a", MapPrimitive("string")}, {"b", MapPrimitive("int")}}
	for i, w := range want {
		field := root.Fields[i]
		if field.Name != w.name || field.Type.Name != w.prim || !field.Type.IsPrimitive() || !field.Required {
			t.Fatalf("field %d: got %+v (%+v)", i, field, field.Type)
		}
	}
}

func TestParseFlattensNestedAndResolvesNamedTypes(t *testing.T) {
	schema, err := Parse("loan.xsd", []byte(loanSchema))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	names := make([]string, 0, len(schema.Types))
	for _, typ := range schema.Types {
		names = append(names, typ.Name)
	}
	wantNames := []string{"LoanRequest", "LoanRequest_address", "Payment"}
	if !reflect.DeepEqual(names, wantNames) {
		t.Fatalf("unexpected type order %v", names)
	}
	req := schema.Lookup("LoanRequest")
	address, ok := req.Field("address")
	if !ok || address.Required || address.Type.Name != "LoanRequest_address" || address.Type.Kind != ir.KindSequence {
		t.Fatalf("unexpected address field %+v", address)
	}
	zip, _ := address.Type.Field("zip")
	if zip.Type.Name != ir.PrimitiveInt {
		t.Fatalf("expected simpleType restriction to map to int, got %s", zip.Type.Name)
	}
	history, _ := req.Field("history")
	if !history.Repeated || history.Type != schema.Lookup("Payment") || history.Type.Kind != ir.KindComplexType {
		t.Fatalf("unexpected history field %+v", history)
	}
	blob, _ := req.Field("blob")
	if blob.Type.Name != ir.PrimitiveOpaque {
		t.Fatalf("expected unknown primitive to map to opaque, got %s", blob.Type.Name)
	}
	channel, _ := req.Field("channel")
	if !channel.Required || channel.Type.Name != ir.PrimitiveString {
		t.Fatalf("unexpected attribute field %+v", channel)
	}
	if schema.TargetNamespace != "urn:loan" {
		t.Fatalf("unexpected namespace %q", schema.TargetNamespace)
	}
}

func TestParseElementTypedBySameNamedComplexType(t *testing.T) {
	cases := []struct {
		name      string
		element   string
		wantNames []string
	}{
		{"same name shares one type", "Customer", []string{"Customer"}},
		{"different name wraps the type", "Client", []string{"Client", "Customer"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:tns="urn:crm" targetNamespace="urn:crm">
  <xs:element name="` + tc.element + `" type="tns:Customer"/>
  <xs:complexType name="Customer">
    <xs:sequence>
      <xs:element name="id" type="xs:string"/>
      <xs:element name="email" type="xs:string"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`
			schema, err := Parse("crm.xsd", []byte(doc))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			var names []string
			for _, typ := range schema.Types {
				names = append(names, typ.Name)
				if len(typ.Fields) != 2 {
					t.Fatalf("type %s: expected 2 fields, got %d", typ.Name, len(typ.Fields))
				}
			}
			if !reflect.DeepEqual(names, tc.wantNames) {
				t.Fatalf("got types %v, want %v", names, tc.wantNames)
			}
			if root := schema.Root(); root == nil || root.Name != tc.element {
				t.Fatalf("unexpected root %+v", root)
			}
		})
	}
}

func TestParseIsDeterministic(t *testing.T) {
	first, err := Parse("loan.xsd", []byte(loanSchema))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Parse("loan.xsd", []byte(loanSchema))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("parse %d differs from first parse", i)
		}
	}
}

func TestParseRejectsCycles(t *testing.T) {
	doc := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="Node"><xs:sequence>
    <xs:element name="next" type="Node"/>
  </xs:sequence></xs:complexType>
</xs:schema>`
	_, err := Parse("cycle.xsd", []byte(doc))
	if !ir.IsParseKind(err, ir.ParseCyclic) {
		t.Fatalf("expected cyclic parse error, got %v", err)
	}

	viaRef := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="A"><xs:complexType><xs:sequence><xs:element ref="B"/></xs:sequence></xs:complexType></xs:element>
  <xs:element name="B"><xs:complexType><xs:sequence><xs:element ref="A"/></xs:sequence></xs:complexType></xs:element>
</xs:schema>`
	if _, err := Parse("refs.xsd", []byte(viaRef)); !ir.IsParseKind(err, ir.ParseCyclic) {
		t.Fatalf("expected cyclic parse error through refs, got %v", err)
	}
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"truncated": `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="E">`,
		"wrongRoot": `<definitions/>`,
	}
	for name, doc := range cases {
		if _, err := Parse(name, []byte(doc)); !ir.IsParseKind(err, ir.ParseMalformed) {
			t.Fatalf("%s: expected malformed error, got %v", name, err)
		}
	}
}

func TestParseRecordsUnresolvedReferences(t *testing.T) {
	doc := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:tns="urn:x">
  <xs:element name="E"><xs:complexType><xs:sequence>
    <xs:element name="x" type="tns:Missing"/>
  </xs:sequence></xs:complexType></xs:element>
  <xs:element name="Scalar" type="xs:string"/>
</xs:schema>`
	schema, err := Parse("u.xsd", []byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	x, _ := schema.Root().Field("x")
	if x.Type.Name != ir.PrimitiveOpaque {
		t.Fatalf("expected opaque fallback, got %s", x.Type.Name)
	}
	if len(schema.Warnings) != 2 {
		t.Fatalf("expected unresolved and skipped-element warnings, got %v", schema.Warnings)
	}
	if schema.Lookup("Scalar") != nil {
		t.Fatalf("non-compound top-level elements must be skipped")
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "absent.xsd"))
	if !ir.IsParseKind(err, ir.ParseMalformed) {
		t.Fatalf("expected malformed error for unreadable file, got %v", err)
	}
	path := filepath.Join(t.TempDir(), "loan.xsd")
	if err := os.WriteFile(path, []byte(loanSchema), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	schema, err := ParseFile(path)
	if err != nil || schema.Path != path {
		t.Fatalf("unexpected result %+v, %v", schema, err)
	}
}
