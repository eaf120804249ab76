// Package file loads schema registries from YAML or JSON documents.
//
// A document lists schemas in order under "schemas". Each schema is either a
// shorthand scalar or a mapping:
//
//	name: billing
//	version: 1.4.0
//	schemas:
//	  Point:
//	    type: object
//	    properties:
//	      x: number
//	      y: number
//	      label: string?
//	  Status:
//	    enum: [pending, active, done]
//	  Invoice:
//	    category: types
//	    type: object
//	    properties:
//	      id: {type: string, format: uuid}
//	      status: {$ref: Status, default: pending}
//	      lines: Line[]
//
// Shorthand scalars name a primitive (string, number, integer, boolean, null,
// any, date) or another schema; a "[]" suffix makes an array and a "?" suffix
// makes the value optional. Mapping keys keep their document order.
package file

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
)

// Parse decodes a registry document. name is used when the document does not
// declare one.
func Parse(name string, data []byte) (*domain.Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry document: %w", err)
	}
	reg := &domain.Registry{Name: name}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return reg, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, nodeErr(root, "registry document must be a mapping")
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		switch key.Value {
		case "name":
			if val.Value != "" {
				reg.Name = val.Value
			}
		case "version":
			reg.Version = val.Value
		case "schemas":
			entries, err := parseSchemas(val)
			if err != nil {
				return nil, err
			}
			reg.Entries = entries
		default:
			return nil, nodeErr(key, "unknown top-level key %q", key.Value)
		}
	}
	return reg, nil
}

func parseSchemas(n *yaml.Node) ([]domain.Entry, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "schemas must be a mapping")
	}
	entries := make([]domain.Entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		category := domain.CategoryTypes
		if val.Kind == yaml.MappingNode {
			if c := lookup(val, "category"); c != nil {
				category = domain.Category(c.Value)
			}
		}
		d, err := parseDef(val)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", key.Value, err)
		}
		entries = append(entries, domain.Entry{Name: key.Value, Category: category, Value: d})
	}
	return entries, nil
}

func parseDef(n *yaml.Node) (*typedef.Def, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return parseShorthand(n.Value), nil
	case yaml.MappingNode:
		return parseMapping(n)
	case yaml.AliasNode:
		return parseDef(n.Alias)
	}
	return nil, nodeErr(n, "type definition must be a name or a mapping")
}

func parseShorthand(s string) *typedef.Def {
	s = strings.TrimSpace(s)
	optional := strings.HasSuffix(s, "?")
	s = strings.TrimSuffix(s, "?")
	depth := 0
	for strings.HasSuffix(s, "[]") {
		s = strings.TrimSuffix(s, "[]")
		depth++
	}

	d := named(s)
	for ; depth > 0; depth-- {
		d = typedef.Array(d)
	}
	if optional {
		d = d.Optional()
	}
	return d
}

// named resolves a primitive name, or refers to the schema called s.
func named(s string) *typedef.Def {
	switch s {
	case "string":
		return typedef.String()
	case "number":
		return typedef.Number()
	case "integer":
		return typedef.Number().Int()
	case "boolean":
		return typedef.Boolean()
	case "null":
		return typedef.Null()
	case "any":
		return typedef.Any()
	case "date":
		return &typedef.Def{Kind: typedef.KindDate}
	}
	return typedef.LazyRef(s)
}

func parseMapping(n *yaml.Node) (*typedef.Def, error) {
	d, err := parseBase(n)
	if err != nil {
		return nil, err
	}
	if v := lookup(n, "description"); v != nil {
		d.Describe(v.Value)
	}
	if v := lookup(n, "refine"); v != nil && isTrue(v) {
		d = d.Refine()
	}
	if v := lookup(n, "nullable"); v != nil && isTrue(v) {
		d = d.Nullable()
	}
	if v := lookup(n, "default"); v != nil {
		var value any
		if err := v.Decode(&value); err != nil {
			return nil, nodeErr(v, "invalid default: %v", err)
		}
		d = d.Default(value)
	}
	if v := lookup(n, "optional"); v != nil && isTrue(v) {
		d = d.Optional()
	}
	return d, nil
}

func parseBase(n *yaml.Node) (*typedef.Def, error) {
	if v := lookup(n, "$ref"); v != nil {
		return typedef.LazyRef(v.Value), nil
	}
	if v := lookup(n, "enum"); v != nil {
		var values []string
		if err := v.Decode(&values); err != nil {
			return nil, nodeErr(v, "enum must be a list of strings")
		}
		return typedef.Enum(values...), nil
	}
	if v := lookup(n, "const"); v != nil {
		var value any
		if err := v.Decode(&value); err != nil {
			return nil, nodeErr(v, "invalid const: %v", err)
		}
		return typedef.Literal(value), nil
	}
	if v := lookup(n, "oneOf"); v != nil {
		options, err := parseList(v)
		if err != nil {
			return nil, err
		}
		if key := lookup(n, "discriminator"); key != nil {
			return typedef.DiscriminatedUnion(key.Value, options...), nil
		}
		return typedef.Union(options...), nil
	}

	t := lookup(n, "type")
	if t == nil {
		if lookup(n, "properties") != nil {
			return parseObject(n)
		}
		return nil, nodeErr(n, "type definition needs one of type, $ref, enum, const or oneOf")
	}
	switch t.Value {
	case "string":
		return parseString(n)
	case "number", "integer":
		return parseNumber(n, t.Value == "integer")
	case "array":
		items := lookup(n, "items")
		if items == nil {
			return nil, nodeErr(n, "array needs items")
		}
		elem, err := parseDef(items)
		if err != nil {
			return nil, err
		}
		return typedef.Array(elem), nil
	case "record":
		values := lookup(n, "values")
		if values == nil {
			return nil, nodeErr(n, "record needs values")
		}
		elem, err := parseDef(values)
		if err != nil {
			return nil, err
		}
		return typedef.Record(elem), nil
	case "object":
		return parseObject(n)
	case "boolean", "null", "any", "date":
		return named(t.Value), nil
	}
	// Unrecognised kinds are kept; lowering degrades them to unknown.
	return &typedef.Def{Kind: typedef.Kind(t.Value)}, nil
}

func parseObject(n *yaml.Node) (*typedef.Def, error) {
	props := lookup(n, "properties")
	if props == nil {
		return typedef.Object(), nil
	}
	if props.Kind != yaml.MappingNode {
		return nil, nodeErr(props, "properties must be a mapping")
	}
	shape := make([]typedef.Property, 0, len(props.Content)/2)
	for i := 0; i+1 < len(props.Content); i += 2 {
		key, val := props.Content[i], props.Content[i+1]
		d, err := parseDef(val)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", key.Value, err)
		}
		shape = append(shape, typedef.Prop(key.Value, d))
	}
	return typedef.Object(shape...), nil
}

func parseString(n *yaml.Node) (*typedef.Def, error) {
	d := typedef.String()
	for _, key := range []string{"minLength", "maxLength", "length"} {
		v := lookup(n, key)
		if v == nil {
			continue
		}
		var f float64
		if err := v.Decode(&f); err != nil {
			return nil, nodeErr(v, "%s must be a number", key)
		}
		switch key {
		case "minLength":
			d.Min(f)
		case "maxLength":
			d.Max(f)
		default:
			d.Length(f)
		}
	}
	if v := lookup(n, "format"); v != nil {
		switch v.Value {
		case "email":
			d.Email()
		case "uri", "url":
			d.URL()
		case "uuid":
			d.UUID()
		case "date-time", "datetime":
			d.DateTime()
		default:
			return nil, nodeErr(v, "unknown string format %q", v.Value)
		}
	}
	if v := lookup(n, "pattern"); v != nil {
		d.Regex(v.Value)
	}
	return d, nil
}

func parseNumber(n *yaml.Node, integer bool) (*typedef.Def, error) {
	d := typedef.Number()
	if integer {
		d.Int()
	}
	for _, key := range []string{"minimum", "maximum"} {
		v := lookup(n, key)
		if v == nil {
			continue
		}
		var f float64
		if err := v.Decode(&f); err != nil {
			return nil, nodeErr(v, "%s must be a number", key)
		}
		if key == "minimum" {
			d.Min(f)
		} else {
			d.Max(f)
		}
	}
	return d, nil
}

func parseList(n *yaml.Node) ([]*typedef.Def, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErr(n, "expected a list of type definitions")
	}
	out := make([]*typedef.Def, 0, len(n.Content))
	for _, item := range n.Content {
		d, err := parseDef(item)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func isTrue(n *yaml.Node) bool {
	var b bool
	return n.Decode(&b) == nil && b
}

func nodeErr(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}
