// File path: internal/workflow/generator/java.go
package generator

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

var javaPrimitives = map[string]string{
	ir.PrimitiveString:   "String",
	ir.PrimitiveInt:      "Integer",
	ir.PrimitiveLong:     "Long",
	ir.PrimitiveDecimal:  "BigDecimal",
	ir.PrimitiveDouble:   "Double",
	ir.PrimitiveBoolean:  "Boolean",
	ir.PrimitiveDate:     "LocalDate",
	ir.PrimitiveDateTime: "LocalDateTime",
	ir.PrimitiveTime:     "LocalTime",
	ir.PrimitiveBinary:   "byte[]",
	ir.PrimitiveOpaque:   "String",
}

var javaImports = map[string]string{
	"BigDecimal":    "java.math.BigDecimal",
	"LocalDate":     "java.time.LocalDate",
	"LocalDateTime": "java.time.LocalDateTime",
	"LocalTime":     "java.time.LocalTime",
	"List":          "java.util.List",
}

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true, "case": true,
	"catch": true, "char": true, "class": true, "const": true, "continue": true, "default": true,
	"do": true, "double": true, "else": true, "enum": true, "extends": true, "final": true,
	"finally": true, "float": true, "for": true, "goto": true, "if": true, "implements": true,
	"import": true, "instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true, "return": true,
	"short": true, "static": true, "strictfp": true, "super": true, "switch": true, "synchronized": true,
	"this": true, "throw": true, "throws": true, "transient": true, "try": true, "void": true,
	"volatile": true, "while": true, "record": true, "var": true, "yield": true,
}

// javaType maps a schema reference onto a Java type name. A missing type is
// an opaque payload.
func javaType(t *ir.SchemaType) string {
	if t == nil {
		return "String"
	}
	if t.IsPrimitive() {
		if name, ok := javaPrimitives[t.Name]; ok {
			return name
		}
		return "String"
	}
	return className(t.Name)
}

func fieldType(field ir.SchemaField) string {
	base := javaType(field.Type)
	if field.Repeated {
		return "List<" + base + ">"
	}
	return base
}

// importsFor collects the java.* imports needed by the given type names.
func importsFor(types ...string) []string {
	seen := map[string]bool{}
	for _, t := range types {
		tokens := strings.FieldsFunc(t, func(r rune) bool {
			return r == '<' || r == '>' || r == ',' || r == ' ' || r == '[' || r == ']'
		})
		for _, token := range tokens {
			if full, ok := javaImports[token]; ok {
				seen[full] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for full := range seen {
		out = append(out, full)
	}
	sort.Strings(out)
	return out
}

// words splits an identifier-ish string on separators and camel humps.
func words(value string) []string {
	var out []string
	var current []rune
	flush := func() {
		if len(current) > 0 {
			out = append(out, string(current))
			current = current[:0]
		}
	}
	runes := []rune(strings.TrimSpace(value))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && len(current) > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					flush()
				}
			}
			current = append(current, r)
		default:
			flush()
		}
	}
	flush()
	return out
}

func className(value string) string {
	var b strings.Builder
	for _, w := range words(value) {
		runes := []rune(w)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	name := b.String()
	if name == "" {
		return "Generated"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "T" + name
	}
	return name
}

func memberName(value string) string {
	name := className(value)
	runes := []rune(name)
	// keep leading acronyms readable: "ID" -> "id", "URLPath" -> "urlPath"
	i := 0
	for i < len(runes) && unicode.IsUpper(runes[i]) {
		i++
	}
	switch {
	case i == len(runes):
		name = strings.ToLower(name)
	case i > 1:
		name = strings.ToLower(string(runes[:i-1])) + string(runes[i-1:])
	default:
		name = strings.ToLower(string(runes[:1])) + string(runes[1:])
	}
	if javaKeywords[name] {
		name += "Value"
	}
	return name
}

func constantName(value string) string {
	parts := words(value)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p)
	}
	name := strings.Join(parts, "_")
	if name == "" {
		return "VALUE"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		name = "C_" + name
	}
	return name
}

// packageSegment renders a lowercase Java package component.
func packageSegment(value string) string {
	var b strings.Builder
	for _, w := range words(value) {
		b.WriteString(strings.ToLower(w))
	}
	seg := b.String()
	if seg == "" {
		return "service"
	}
	if unicode.IsDigit([]rune(seg)[0]) || javaKeywords[seg] {
		seg = "p" + seg
	}
	return seg
}

func validPackageRoot(root string) string {
	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(root), ".") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, packageSegment(p))
		}
	}
	if len(parts) == 0 {
		return "com.example"
	}
	return strings.Join(parts, ".")
}

func packagePath(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

func escapeString(input string) string {
	var builder strings.Builder
	for _, r := range input {
		switch r {
		case '\\':
			builder.WriteString("\\\\")
		case '"':
			builder.WriteString("\\\"")
		case '\n':
			builder.WriteString("\\n")
		case '\r':
			builder.WriteString("\\r")
		case '\t':
			builder.WriteString("\\t")
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

func javaString(input string) string {
	return fmt.Sprintf("\"%s\"", escapeString(strings.TrimSpace(input)))
}

func safeComponent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "service"
	}
	var builder strings.Builder
	for i, w := range words(value) {
		if i > 0 {
			builder.WriteByte('-')
		}
		builder.WriteString(strings.ToLower(w))
	}
	cleaned := strings.Trim(builder.String(), "-")
	if cleaned == "" {
		return "service"
	}
	return cleaned
}

func importBlock(imports []string) string {
	if len(imports) == 0 {
		return ""
	}
	var b strings.Builder
	for _, imp := range imports {
		fmt.Fprintf(&b, "import %s;\n", imp)
	}
	b.WriteString("\n")
	return b.String()
}
