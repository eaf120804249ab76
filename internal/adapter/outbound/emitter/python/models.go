package python

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

// models renders models.py. Inline objects are hoisted into their own classes,
// named after the schema and the position they were found at.
type models struct {
	defs  []domain.SchemaDefinition
	byRef map[string]domain.Node
	used  map[string]bool

	schema   string
	blocks   []string
	classes  []string
	exports  []string
	warnings []domain.Warning
}

func newModels(defs []domain.SchemaDefinition) *models {
	m := &models{
		defs:  defs,
		byRef: make(map[string]domain.Node, len(defs)),
		used:  make(map[string]bool, len(defs)),
	}
	for _, d := range defs {
		m.byRef[d.Name] = d.IR
		m.used[codegen.PyClassName(d.Name)] = true
	}
	return m
}

func (m *models) render() string {
	for _, d := range m.defs {
		m.schema = d.Name
		name := codegen.PyClassName(d.Name)
		doc := fmt.Sprintf("%s (%s)", d.Name, categoryOf(d))
		switch n := d.IR.(type) {
		case *domain.Object:
			m.class(name, doc, n.Properties, "")
		case *domain.Enum:
			values := enumValues(n.Values)
			w := codegen.NewWriter("    ")
			w.Linef("# %s", doc)
			if len(values) == 0 {
				w.Linef("%s = str", name)
			} else {
				w.Linef("%s = Literal[%s]", name, strings.Join(values, ", "))
			}
			constant := strings.ToUpper(codegen.PyName(d.Name)) + "_VALUES"
			w.Linef("%s: Tuple[str, ...] = (%s)", constant, tupleBody(values))
			m.blocks = append(m.blocks, w.String())
			m.exports = append(m.exports, name, constant)
		default:
			t := m.expr(d.IR, name, "")
			w := codegen.NewWriter("    ")
			w.Linef("# %s", doc)
			w.Linef("%s = %s", name, t)
			m.blocks = append(m.blocks, w.String())
			m.exports = append(m.exports, name)
		}
	}

	w := codegen.NewWriter("    ")
	w.Line(header)
	w.Line("from __future__ import annotations")
	w.Blank()
	w.Line("from typing import Annotated, Any, Dict, List, Literal, Optional, Tuple, Union")
	w.Blank()
	w.Line("from pydantic import BaseModel, ConfigDict, Field")
	w.Blank()
	exports := make([]string, len(m.exports))
	for i, e := range m.exports {
		exports[i] = strconv.Quote(e)
	}
	w.Linef("__all__ = [%s]", strings.Join(exports, ", "))
	for _, b := range m.blocks {
		w.Blank()
		w.Blank()
		w.Raw(b)
	}
	if len(m.classes) > 0 {
		w.Blank()
		w.Blank()
		for _, c := range m.classes {
			w.Linef("%s.model_rebuild()", c)
		}
	}
	return w.String()
}

// class appends a model class for props and returns its name.
func (m *models) class(name, doc string, props []domain.Property, path string) string {
	fields := codegen.NewWriter("    ")
	taken := map[string]bool{}
	for _, p := range props {
		fieldPath := path + "." + p.Name
		field := fieldName(p.Name, taken)
		inner, _, def := domain.Unwrap(p.Type)
		t := m.expr(inner, name+codegen.PascalCase(p.Name), fieldPath)
		if hasOptional(p.Type) {
			t = "Optional[" + t + "]"
		}

		var args []string
		switch {
		case def != nil:
			args = append(args, "default="+pyRepr(def.Value))
		case !p.Required:
			args = append(args, "default=None")
		}
		if field != p.Name {
			args = append(args, "alias="+strconv.Quote(p.Name))
		}

		switch {
		case len(args) == 0:
			fields.Linef("%s: %s", field, t)
		case len(args) == 1 && field == p.Name:
			fields.Linef("%s: %s = %s", field, t, strings.TrimPrefix(args[0], "default="))
		default:
			fields.Linef("%s: %s = Field(%s)", field, t, strings.Join(args, ", "))
		}
	}

	w := codegen.NewWriter("    ")
	w.Linef("class %s(BaseModel):", name)
	w.Indent()
	w.Linef(`"""%s"""`, strings.ReplaceAll(doc, `"""`, `'''`))
	w.Blank()
	w.Line("model_config = ConfigDict(populate_by_name=True, protected_namespaces=())")
	if len(props) > 0 {
		w.Blank()
	}
	w.Dedent()
	w.Raw(indentBlock(fields.String(), "    "))

	m.blocks = append(m.blocks, w.String())
	m.classes = append(m.classes, name)
	m.exports = append(m.exports, name)
	return name
}

// hoist reserves a unique class name derived from hint.
func (m *models) hoist(hint string) string {
	base := codegen.PyClassName(hint)
	name := base
	for i := 2; m.used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	m.used[name] = true
	return name
}

func (m *models) expr(n domain.Node, hint, path string) string {
	switch v := n.(type) {
	case *domain.Primitive:
		switch v.Type {
		case domain.PrimitiveString:
			return "str"
		case domain.PrimitiveNumber:
			return "float"
		case domain.PrimitiveBoolean:
			return "bool"
		case domain.PrimitiveNull:
			return "None"
		}
	case *domain.StringConstraint:
		return "str"
	case *domain.NumberConstraint:
		if v.Integer {
			return "int"
		}
		return "float"
	case *domain.Array:
		return "List[" + m.expr(v.Item, hint+"Item", path+"[]") + "]"
	case *domain.Record:
		return "Dict[str, " + m.expr(v.Value, hint+"Value", path+"{}") + "]"
	case *domain.Object:
		name := m.hoist(hint)
		m.class(name, fmt.Sprintf("Inline object of %s%s", m.schema, path), v.Properties, path)
		return strconv.Quote(name)
	case *domain.Enum:
		if len(v.Values) == 0 {
			return "str"
		}
		return "Literal[" + strings.Join(enumValues(v.Values), ", ") + "]"
	case *domain.Union:
		parts := make([]string, 0, len(v.Variants))
		for i, vr := range v.Variants {
			parts = append(parts, m.expr(vr, fmt.Sprintf("%sVariant%d", hint, i+1), fmt.Sprintf("%s|%d", path, i)))
		}
		union := "Union[" + strings.Join(parts, ", ") + "]"
		if len(parts) == 1 {
			union = parts[0]
		}
		if v.Discriminator != "" && len(parts) > 1 && m.taggable(v) {
			return fmt.Sprintf("Annotated[%s, Field(discriminator=%s)]", union, strconv.Quote(v.Discriminator))
		}
		return union
	case *domain.Literal:
		if v.Value == nil {
			return "None"
		}
		return "Literal[" + pyRepr(v.Value) + "]"
	case *domain.Optional:
		return "Optional[" + m.expr(v.Inner, hint, path) + "]"
	case *domain.Default:
		return m.expr(v.Inner, hint, path)
	case *domain.Ref:
		if _, ok := m.byRef[v.Target]; !ok {
			m.warnings = append(m.warnings, codegen.EmissionWarning(domain.LanguagePython, m.schema, path, fmt.Sprintf("reference to unknown schema %q rendered as Any", v.Target)))
			return "Any"
		}
		return strconv.Quote(codegen.PyClassName(v.Target))
	case *domain.Unknown:
		return "Any"
	}
	m.warnings = append(m.warnings, codegen.EmissionWarning(domain.LanguagePython, m.schema, path, fmt.Sprintf("cannot represent %T, using Any", n)))
	return "Any"
}

// taggable reports whether every variant of u is a model carrying a literal
// discriminator field, which pydantic requires for tagged unions.
func (m *models) taggable(u *domain.Union) bool {
	for _, vr := range u.Variants {
		if ref, ok := vr.(*domain.Ref); ok {
			vr = m.byRef[ref.Target]
		}
		obj, ok := vr.(*domain.Object)
		if !ok {
			return false
		}
		found := false
		for _, p := range obj.Properties {
			if p.Name != u.Discriminator {
				continue
			}
			_, found = p.Type.(*domain.Literal)
		}
		if !found {
			return false
		}
	}
	return true
}

func hasOptional(n domain.Node) bool {
	for {
		switch v := n.(type) {
		case *domain.Optional:
			return true
		case *domain.Default:
			n = v.Inner
		default:
			return false
		}
	}
}

// fieldName returns a snake_case attribute name that pydantic treats as a
// public field, unique within the class.
func fieldName(wire string, taken map[string]bool) string {
	name := codegen.PyName(wire)
	if strings.HasPrefix(name, "_") {
		name = "field" + name
	}
	if name == "model_config" {
		name += "_"
	}
	base := name
	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	taken[name] = true
	return name
}

func enumValues(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = codegen.LiteralJSON(v)
	}
	return out
}

func tupleBody(values []string) string {
	switch len(values) {
	case 0:
		return ""
	case 1:
		return values[0] + ","
	}
	return strings.Join(values, ", ")
}

// pyRepr renders a JSON-like value as a Python literal.
func pyRepr(v any) string {
	if v == nil {
		return "None"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "True"
		}
		return "False"
	case reflect.String:
		return codegen.LiteralJSON(rv.String())
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = pyRepr(rv.Index(i).Interface())
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		keys := make([]string, 0, rv.Len())
		values := make(map[string]string, rv.Len())
		for _, k := range rv.MapKeys() {
			key := fmt.Sprint(k.Interface())
			keys = append(keys, key)
			values[key] = pyRepr(rv.MapIndex(k).Interface())
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = codegen.LiteralJSON(k) + ": " + values[k]
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "None"
		}
		return pyRepr(rv.Elem().Interface())
	}
	return codegen.LiteralJSON(v)
}

func indentBlock(text, unit string) string {
	if text == "" {
		return ""
	}
	lines := strings.SplitAfter(text, "\n")
	var b strings.Builder
	for _, l := range lines {
		if l != "" && l != "\n" {
			b.WriteString(unit)
		}
		b.WriteString(l)
	}
	return b.String()
}

func categoryOf(d domain.SchemaDefinition) domain.Category {
	if d.Category == "" {
		return domain.CategoryTypes
	}
	return d.Category
}
