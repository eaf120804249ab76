package golang

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

type fieldKind int

const (
	kindOther fieldKind = iota
	kindString
	kindRef
	kindStruct
	kindSlice
)

// goType describes the Go rendering of an IR node.
type goType struct {
	expr    string
	kind    fieldKind
	nilable bool
	// validates is set when the value, or the slice element, has a Validate method.
	validates bool
	scalar    bool
}

type fieldInfo struct {
	name      string
	wire      string
	required  bool
	typ       goType
	pointered bool
	def       *domain.Default
}

type structInfo struct {
	name   string
	schema string
	fields []fieldInfo
}

type renderer struct {
	defs    []domain.SchemaDefinition
	objects map[string]bool
	known   map[string]bool
	byName  map[string]domain.Node
	names   map[string]string
	used    map[string]bool

	schema   string
	decls    []string
	structs  []structInfo
	unions   bool
	warnings []domain.Warning
}

func newRenderer(defs []domain.SchemaDefinition) *renderer {
	r := &renderer{
		defs:    defs,
		objects: make(map[string]bool, len(defs)),
		known:   make(map[string]bool, len(defs)),
		byName:  make(map[string]domain.Node, len(defs)),
		names:   make(map[string]string, len(defs)),
		used:    make(map[string]bool, len(defs)+len(reservedNames)),
	}
	for n := range reservedNames {
		r.used[n] = true
	}
	for _, d := range defs {
		if name := codegen.GoName(d.Name); !reservedNames[name] {
			r.names[d.Name] = name
			r.used[name] = true
		}
	}
	// Schemas named like a runtime identifier take a Schema suffix, numbered
	// when another schema already owns it.
	for _, d := range defs {
		if _, ok := r.names[d.Name]; !ok {
			base := codegen.GoName(d.Name) + "Schema"
			name := base
			for i := 2; r.used[name]; i++ {
				name = fmt.Sprintf("%s%d", base, i)
			}
			r.names[d.Name] = name
			r.used[name] = true
		}
		r.known[d.Name] = true
		r.byName[d.Name] = d.IR
		if _, ok := d.IR.(*domain.Object); ok {
			r.objects[d.Name] = true
		}
	}
	return r
}

func (r *renderer) warn(path, format string, args ...any) {
	r.warnings = append(r.warnings, codegen.EmissionWarning(domain.LanguageGo, r.schema, path, fmt.Sprintf(format, args...)))
}

// reserve claims a unique type name derived from hint.
func (r *renderer) reserve(hint string) string {
	base := codegen.GoName(hint)
	name := base
	for i := 2; r.used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	r.used[name] = true
	return name
}

// slot reserves a declaration position so that a type is written before the
// types hoisted out of it.
func (r *renderer) slot() int {
	r.decls = append(r.decls, "")
	return len(r.decls) - 1
}

func (r *renderer) render(pkg string) string {
	for _, d := range r.defs {
		r.schema = d.Name
		r.declare(r.names[d.Name], fmt.Sprintf("%s (%s)", d.Name, categoryOf(d)), d.IR)
	}

	w := codegen.NewWriter("\t")
	w.Line(header)
	w.Blank()
	w.Linef("package %s", pkg)
	if r.unions {
		w.Blank()
		w.Line("import (")
		w.Line(`	"bytes"`)
		w.Line(`	"encoding/json"`)
		w.Line(`	"fmt"`)
		w.Line(")")
	}
	for _, decl := range r.decls {
		w.Blank()
		w.Raw(decl)
	}
	if r.unions {
		w.Blank()
		w.Raw(decodeStrictFunc)
	}
	return w.String()
}

// declare writes a named top-level declaration for n.
func (r *renderer) declare(name, doc string, n domain.Node) {
	switch v := n.(type) {
	case *domain.Object:
		r.structDecl(name, doc, v.Properties, "")
	case *domain.Enum:
		r.enumDecl(name, doc, v.Values)
	case *domain.Union:
		variants := nonNull(v.Variants)
		if len(variants) == 1 {
			r.declare(name, doc+", nullable", variants[0])
			return
		}
		r.unionDecl(name, doc, v, "")
	case *domain.Optional:
		r.declare(name, doc, v.Inner)
	case *domain.Default:
		r.declare(name, doc, v.Inner)
	default:
		i := r.slot()
		t := r.typeOf(n, name+"Value", "")
		op := " "
		if t.kind == kindRef || t.expr == "any" {
			op = " = "
			t.expr = strings.TrimPrefix(t.expr, "*")
		}
		r.decls[i] = fmt.Sprintf("// %s\ntype %s%s%s\n", doc, name, op, t.expr)
	}
}

func (r *renderer) typeOf(n domain.Node, hint, path string) goType {
	switch v := n.(type) {
	case *domain.Primitive:
		switch v.Type {
		case domain.PrimitiveString:
			return goType{expr: "string", kind: kindString, scalar: true}
		case domain.PrimitiveNumber:
			return goType{expr: "float64", scalar: true}
		case domain.PrimitiveBoolean:
			return goType{expr: "bool", scalar: true}
		case domain.PrimitiveNull:
			return goType{expr: "any", nilable: true}
		}
	case *domain.StringConstraint:
		return goType{expr: "string", kind: kindString, scalar: true}
	case *domain.NumberConstraint:
		if v.Integer {
			return goType{expr: "int64", scalar: true}
		}
		return goType{expr: "float64", scalar: true}
	case *domain.Array:
		elem := r.typeOf(v.Item, hint+"Item", path+"[]")
		validates := elem.validates && (elem.kind == kindRef || elem.kind == kindStruct)
		return goType{expr: "[]" + elem.expr, kind: kindSlice, nilable: true, validates: validates}
	case *domain.Record:
		elem := r.typeOf(v.Value, hint+"Value", path+"{}")
		return goType{expr: "map[string]" + elem.expr, nilable: true}
	case *domain.Object:
		name := r.reserve(hint)
		r.structDecl(name, fmt.Sprintf("%s is an inline object of %s%s.", name, r.schema, path), v.Properties, path)
		return goType{expr: name, kind: kindStruct, validates: true}
	case *domain.Enum:
		name := r.reserve(hint)
		r.enumDecl(name, fmt.Sprintf("%s is an inline enum of %s%s.", name, r.schema, path), v.Values)
		return goType{expr: name, scalar: true}
	case *domain.Union:
		variants := nonNull(v.Variants)
		switch len(variants) {
		case 0:
			return goType{expr: "any", nilable: true}
		case 1:
			t := r.typeOf(variants[0], hint, path+"|0")
			if !t.nilable {
				t.expr = "*" + t.expr
				t.nilable = true
				t.scalar = false
				if t.kind == kindString {
					t.kind = kindOther
				}
			}
			return t
		}
		name := r.reserve(hint)
		r.unionDecl(name, fmt.Sprintf("%s is an inline union of %s%s.", name, r.schema, path), v, path)
		return goType{expr: name}
	case *domain.Literal:
		switch v.Type {
		case domain.PrimitiveString:
			return goType{expr: "string", scalar: true}
		case domain.PrimitiveNumber:
			return goType{expr: "float64", scalar: true}
		case domain.PrimitiveBoolean:
			return goType{expr: "bool", scalar: true}
		}
		return goType{expr: "any", nilable: true}
	case *domain.Optional:
		return r.typeOf(v.Inner, hint, path)
	case *domain.Default:
		return r.typeOf(v.Inner, hint, path)
	case *domain.Ref:
		if !r.known[v.Target] {
			r.warn(path, "reference to unknown schema %q rendered as any", v.Target)
			return goType{expr: "any", nilable: true}
		}
		return goType{expr: "*" + r.names[v.Target], kind: kindRef, nilable: true, validates: r.objects[v.Target]}
	case *domain.Unknown:
		return goType{expr: "any", nilable: true}
	}
	r.warn(path, "cannot represent %T, using any", n)
	return goType{expr: "any", nilable: true}
}

func (r *renderer) structDecl(name, doc string, props []domain.Property, path string) {
	i := r.slot()
	info := structInfo{name: name, schema: r.schema}
	taken := map[string]bool{"Validate": true, "ApplyDefaults": true}

	for _, p := range props {
		inner, _, def := domain.Unwrap(p.Type)
		t := r.typeOf(inner, name+codegen.GoName(p.Name), path+"."+p.Name)
		f := fieldInfo{name: uniqueField(p.Name, taken), wire: p.Name, required: p.Required, typ: t, def: def}
		if !p.Required && !t.nilable {
			f.typ.expr = "*" + t.expr
			f.pointered = true
		}
		info.fields = append(info.fields, f)
	}

	w := codegen.NewWriter("\t")
	w.Linef("// %s", doc)
	w.Linef("type %s struct {", name)
	w.Indent()
	for _, f := range info.fields {
		tag := f.wire
		if !f.required {
			tag += ",omitempty"
		}
		if f.def != nil {
			w.Linef("// Default: %s", codegen.LiteralJSON(f.def.Value))
		}
		w.Linef("%s %s `json:%s`", f.name, f.typ.expr, strconv.Quote(tag))
	}
	w.Dedent()
	w.Line("}")
	if defaults := r.defaultsMethod(info, path); defaults != "" {
		w.Blank()
		w.Raw(defaults)
	}
	r.decls[i] = w.String()
	r.structs = append(r.structs, info)
}

func (r *renderer) defaultsMethod(info structInfo, path string) string {
	w := codegen.NewWriter("\t")
	n := 0
	for _, f := range info.fields {
		if f.def == nil {
			continue
		}
		base := strings.TrimPrefix(f.typ.expr, "*")
		switch {
		case f.pointered && f.typ.scalar:
			lit, ok := goLiteral(base, f.def.Value)
			if !ok {
				r.warn(path+"."+f.wire, "default %s cannot be represented as %s, skipped", codegen.LiteralJSON(f.def.Value), base)
				continue
			}
			w.Linef("if v.%s == nil {", f.name)
			w.Linef("\td := %s(%s)", base, lit)
			w.Linef("\tv.%s = &d", f.name)
			w.Line("}")
		case f.typ.kind == kindSlice && isEmptyCollection(f.def.Value):
			w.Linef("if v.%s == nil {", f.name)
			w.Linef("\tv.%s = %s{}", f.name, f.typ.expr)
			w.Line("}")
		case strings.HasPrefix(f.typ.expr, "map[") && isEmptyCollection(f.def.Value):
			w.Linef("if v.%s == nil {", f.name)
			w.Linef("\tv.%s = %s{}", f.name, f.typ.expr)
			w.Line("}")
		default:
			continue
		}
		n++
	}
	if n == 0 {
		return ""
	}
	out := codegen.NewWriter("\t")
	out.Line("// ApplyDefaults sets every unset field that declares a default.")
	out.Linef("func (v *%s) ApplyDefaults() {", info.name)
	out.Line("\tif v == nil {")
	out.Line("\t\treturn")
	out.Line("\t}")
	for _, l := range strings.SplitAfter(w.String(), "\n") {
		if l != "" {
			out.Raw("\t" + l)
		}
	}
	out.Line("}")
	return out.String()
}

func (r *renderer) enumDecl(name, doc string, values []string) {
	i := r.slot()
	w := codegen.NewWriter("\t")
	w.Linef("// %s", doc)
	w.Linef("type %s string", name)
	consts := make([]string, 0, len(values))
	if len(values) > 0 {
		w.Blank()
		w.Line("const (")
		w.Indent()
		for _, v := range values {
			suffix := codegen.GoName(v)
			if v == "" {
				suffix = "Empty"
			}
			c := r.reserve(name + suffix)
			consts = append(consts, c)
			w.Linef("%s %s = %s", c, name, strconv.Quote(v))
		}
		w.Dedent()
		w.Line(")")
	}
	w.Blank()
	w.Linef("// %sValues lists every %s in declaration order.", name, name)
	w.Linef("var %sValues = []%s{%s}", name, name, strings.Join(consts, ", "))
	r.decls[i] = w.String()
}

type unionVariant struct {
	field string
	typ   goType
	elem  string
	tag   string
}

func (r *renderer) unionDecl(name, doc string, u *domain.Union, path string) {
	i := r.slot()
	r.unions = true
	taken := map[string]bool{}
	var variants []unionVariant
	for vi, vr := range u.Variants {
		if isNull(vr) {
			continue
		}
		t := r.typeOf(vr, fmt.Sprintf("%sVariant%d", name, vi+1), fmt.Sprintf("%s|%d", path, vi))
		field := fmt.Sprintf("Variant%d", vi+1)
		if t.kind == kindRef || t.kind == kindStruct {
			field = strings.TrimPrefix(t.expr, "*")
		}
		field = uniqueField(field, taken)
		elem := t.expr
		if !t.nilable {
			t.expr = "*" + t.expr
		} else if strings.HasPrefix(t.expr, "*") {
			elem = strings.TrimPrefix(t.expr, "*")
		}
		variants = append(variants, unionVariant{field: field, typ: t, elem: elem, tag: r.tagOf(vr, u.Discriminator)})
	}

	w := codegen.NewWriter("\t")
	w.Linef("// %s", doc)
	w.Line("// Exactly one field is set; it is encoded as that variant's JSON.")
	w.Linef("type %s struct {", name)
	w.Indent()
	for _, v := range variants {
		w.Linef("%s %s", v.field, v.typ.expr)
	}
	w.Dedent()
	w.Line("}")

	w.Blank()
	w.Line("// MarshalJSON encodes the variant that is set, or null.")
	w.Linef("func (u %s) MarshalJSON() ([]byte, error) {", name)
	w.Indent()
	if len(variants) > 0 {
		w.Line("switch {")
		for _, v := range variants {
			w.Linef("case u.%s != nil:", v.field)
			w.Linef("\treturn json.Marshal(u.%s)", v.field)
		}
		w.Line("}")
	}
	w.Line(`return []byte("null"), nil`)
	w.Dedent()
	w.Line("}")

	w.Blank()
	tagged := u.Discriminator != "" && len(variants) > 0
	for _, v := range variants {
		if v.tag == "" {
			tagged = false
		}
	}
	w.Line("// UnmarshalJSON decodes data into the first variant that accepts it.")
	w.Linef("func (u *%s) UnmarshalJSON(data []byte) error {", name)
	w.Indent()
	w.Linef("*u = %s{}", name)
	w.Line(`if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {`)
	w.Line("\treturn nil")
	w.Line("}")
	if tagged {
		w.Line("var envelope struct {")
		w.Linef("\tTag json.RawMessage `json:%s`", strconv.Quote(u.Discriminator))
		w.Line("}")
		w.Line("if err := json.Unmarshal(data, &envelope); err != nil {")
		w.Line("\treturn err")
		w.Line("}")
		w.Line("switch string(bytes.TrimSpace(envelope.Tag)) {")
		for _, v := range variants {
			w.Linef("case %s:", strconv.Quote(v.tag))
			w.Linef("\treturn json.Unmarshal(data, &u.%s)", v.field)
		}
		w.Line("}")
		w.Linef("return fmt.Errorf(\"%s: unknown %s %%s\", envelope.Tag)", name, u.Discriminator)
	} else {
		for _, v := range variants {
			w.Line("{")
			w.Linef("\tvar v %s", v.elem)
			w.Line("\tif decodeStrict(data, &v) == nil {")
			if strings.HasPrefix(v.typ.expr, "*") {
				w.Linef("\t\tu.%s = &v", v.field)
			} else {
				w.Linef("\t\tu.%s = v", v.field)
			}
			w.Line("\t\treturn nil")
			w.Line("\t}")
			w.Line("}")
		}
		w.Linef("return fmt.Errorf(\"%s: value matches no variant\")", name)
	}
	w.Dedent()
	w.Line("}")
	r.decls[i] = w.String()
}

// tagOf returns the JSON literal of the discriminator field of an object
// variant, or "" when the variant carries none.
func (r *renderer) tagOf(n domain.Node, discriminator string) string {
	if discriminator == "" {
		return ""
	}
	if ref, ok := n.(*domain.Ref); ok {
		n = r.byName[ref.Target]
	}
	obj, ok := n.(*domain.Object)
	if !ok {
		return ""
	}
	for _, p := range obj.Properties {
		if p.Name != discriminator {
			continue
		}
		if lit, ok := p.Type.(*domain.Literal); ok {
			return codegen.LiteralJSON(lit.Value)
		}
	}
	return ""
}

func uniqueField(wire string, taken map[string]bool) string {
	name := codegen.GoName(wire)
	if taken[name] {
		base := name
		name = base + "Value"
		for i := 2; taken[name]; i++ {
			name = fmt.Sprintf("%sValue%d", base, i)
		}
	}
	taken[name] = true
	return name
}

func nonNull(variants []domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(variants))
	for _, v := range variants {
		if !isNull(v) {
			out = append(out, v)
		}
	}
	return out
}

func isNull(n domain.Node) bool {
	p, ok := n.(*domain.Primitive)
	return ok && p.Type == domain.PrimitiveNull
}

func isEmptyCollection(v any) bool {
	switch x := v.(type) {
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// goLiteral renders v as a constant convertible to base.
func goLiteral(base string, v any) (string, bool) {
	switch x := v.(type) {
	case string:
		if base == "bool" || base == "float64" || base == "int64" {
			return "", false
		}
		return strconv.Quote(x), true
	case bool:
		if base != "bool" {
			return "", false
		}
		return strconv.FormatBool(x), true
	}
	f, ok := number(v)
	if !ok || (base != "float64" && base != "int64") {
		return "", false
	}
	if base == "int64" {
		if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
			return "", false
		}
		return strconv.FormatInt(int64(f), 10), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

func number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

func categoryOf(d domain.SchemaDefinition) domain.Category {
	if d.Category == "" {
		return domain.CategoryTypes
	}
	return d.Category
}

const decodeStrictFunc = `// decodeStrict decodes data into v, rejecting unknown object fields.
func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
`
