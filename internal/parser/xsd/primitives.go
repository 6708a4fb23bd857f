// File path: internal/parser/xsd/primitives.go
package xsd

import "github.com/nicodishanthj/Katral_bw/internal/ir"

// Namespace is the XML Schema namespace.
const Namespace = "http://www.w3.org/2001/XMLSchema"

var builtinPrimitives = map[string]string{
	"string":             ir.PrimitiveString,
	"normalizedString":   ir.PrimitiveString,
	"token":              ir.PrimitiveString,
	"anyURI":             ir.PrimitiveString,
	"QName":              ir.PrimitiveString,
	"language":           ir.PrimitiveString,
	"ID":                 ir.PrimitiveString,
	"int":                ir.PrimitiveInt,
	"integer":            ir.PrimitiveInt,
	"short":              ir.PrimitiveInt,
	"byte":               ir.PrimitiveInt,
	"nonNegativeInteger": ir.PrimitiveInt,
	"positiveInteger":    ir.PrimitiveInt,
	"unsignedInt":        ir.PrimitiveInt,
	"unsignedShort":      ir.PrimitiveInt,
	"long":               ir.PrimitiveLong,
	"unsignedLong":       ir.PrimitiveLong,
	"decimal":            ir.PrimitiveDecimal,
	"double":             ir.PrimitiveDouble,
	"float":              ir.PrimitiveDouble,
	"boolean":            ir.PrimitiveBoolean,
	"date":               ir.PrimitiveDate,
	"dateTime":           ir.PrimitiveDateTime,
	"time":               ir.PrimitiveTime,
	"base64Binary":       ir.PrimitiveBinary,
	"hexBinary":          ir.PrimitiveBinary,
}

// Shared leaf nodes. Schema trees point at these instead of allocating
// a node per field.
var primitiveTypes = func() map[string]*ir.SchemaType {
	out := make(map[string]*ir.SchemaType)
	for _, name := range []string{
		ir.PrimitiveString, ir.PrimitiveInt, ir.PrimitiveLong, ir.PrimitiveDecimal,
		ir.PrimitiveDouble, ir.PrimitiveBoolean, ir.PrimitiveDate, ir.PrimitiveDateTime,
		ir.PrimitiveTime, ir.PrimitiveBinary, ir.PrimitiveOpaque,
	} {
		out[name] = &ir.SchemaType{Name: name, Kind: ir.KindPrimitive}
	}
	return out
}()

// MapPrimitive returns the IR primitive for an XSD built-in local name.
// Unknown names map to the opaque string type.
func MapPrimitive(local string) string {
	if mapped, ok := builtinPrimitives[local]; ok {
		return mapped
	}
	return ir.PrimitiveOpaque
}

// Primitive returns the shared leaf node for an IR primitive name.
func Primitive(name string) *ir.SchemaType {
	if t, ok := primitiveTypes[name]; ok {
		return t
	}
	return primitiveTypes[ir.PrimitiveOpaque]
}

func isBuiltin(local string) bool {
	_, ok := builtinPrimitives[local]
	return ok
}
