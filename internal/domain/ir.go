package domain

// NodeKind identifies an IR node variant.
type NodeKind string

const (
	NodePrimitive NodeKind = "primitive"
	NodeString    NodeKind = "string_constraint"
	NodeNumber    NodeKind = "number_constraint"
	NodeArray     NodeKind = "array"
	NodeObject    NodeKind = "object"
	NodeRecord    NodeKind = "record"
	NodeEnum      NodeKind = "enum"
	NodeUnion     NodeKind = "union"
	NodeLiteral   NodeKind = "literal"
	NodeOptional  NodeKind = "optional"
	NodeDefault   NodeKind = "default"
	NodeRef       NodeKind = "ref"
	NodeUnknown   NodeKind = "unknown"
)

// Node is the root IR interface. Nodes are built once by lowering and never mutated.
type Node interface {
	Kind() NodeKind
}

// PrimitiveType names a JSON primitive.
type PrimitiveType string

const (
	PrimitiveString  PrimitiveType = "string"
	PrimitiveNumber  PrimitiveType = "number"
	PrimitiveBoolean PrimitiveType = "boolean"
	PrimitiveNull    PrimitiveType = "null"
)

// StringFormat is a recognised string format refinement.
type StringFormat string

const (
	FormatEmail    StringFormat = "email"
	FormatURI      StringFormat = "uri"
	FormatUUID     StringFormat = "uuid"
	FormatDateTime StringFormat = "date-time"
)

// Primitive is a leaf string/number/boolean/null.
type Primitive struct {
	Type PrimitiveType
}

func (*Primitive) Kind() NodeKind { return NodePrimitive }

// StringConstraint refines Primitive(string).
type StringConstraint struct {
	MinLength *int
	MaxLength *int
	Format    StringFormat
}

func (*StringConstraint) Kind() NodeKind { return NodeString }

// NumberConstraint refines Primitive(number).
type NumberConstraint struct {
	Min     *float64
	Max     *float64
	Integer bool
}

func (*NumberConstraint) Kind() NodeKind { return NodeNumber }

// Array is an ordered, unbounded list of Item.
type Array struct {
	Item Node
}

func (*Array) Kind() NodeKind { return NodeArray }

// Property is one object field. Type keeps the Optional/Default wrapper so emitters
// can read the default value; Required is false whenever such a wrapper is present.
type Property struct {
	Name     string
	Type     Node
	Required bool
}

// Object is a record of named properties in declaration order.
type Object struct {
	Properties []Property
}

func (*Object) Kind() NodeKind { return NodeObject }

// RequiredNames returns the names of required properties in declaration order.
func (o *Object) RequiredNames() []string {
	var names []string
	for _, p := range o.Properties {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

// Record is an open string-keyed map.
type Record struct {
	Value Node
}

func (*Record) Kind() NodeKind { return NodeRecord }

// Enum is a closed set of strings in declaration order.
type Enum struct {
	Values []string
}

func (*Enum) Kind() NodeKind { return NodeEnum }

// Union lists its variants in declaration order. Discriminator is informational;
// the discriminating field lives inside each variant object.
type Union struct {
	Variants      []Node
	Discriminator string
}

func (*Union) Kind() NodeKind { return NodeUnion }

// Literal is an exact constant. Value is a string, float64, bool or nil.
type Literal struct {
	Value any
	Type  PrimitiveType
}

func (*Literal) Kind() NodeKind { return NodeLiteral }

// Optional marks the enclosing property as not required.
type Optional struct {
	Inner Node
}

func (*Optional) Kind() NodeKind { return NodeOptional }

// Default marks the enclosing property as not required and carries its default.
type Default struct {
	Inner Node
	Value any
}

func (*Default) Kind() NodeKind { return NodeDefault }

// Ref points at another schema of the same registry by name.
type Ref struct {
	Target string
}

func (*Ref) Kind() NodeKind { return NodeRef }

// Unknown stands for a construct the lowering step could not represent.
type Unknown struct {
	Construct string
}

func (*Unknown) Kind() NodeKind { return NodeUnknown }

// Unwrap strips Optional and Default layers. It reports whether any wrapper was
// present and returns the outermost Default, if one was found.
func Unwrap(n Node) (inner Node, wrapped bool, def *Default) {
	for {
		switch v := n.(type) {
		case *Optional:
			n, wrapped = v.Inner, true
		case *Default:
			if def == nil {
				def = v
			}
			n, wrapped = v.Inner, true
		default:
			return n, wrapped, def
		}
	}
}

// IsRequiredType reports whether a property of type n counts as required.
func IsRequiredType(n Node) bool {
	switch n.(type) {
	case *Optional, *Default:
		return false
	}
	return true
}

// Refs returns every Ref target reachable from n, depth first, without duplicates.
func Refs(n Node) []string {
	seen := map[string]struct{}{}
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		switch v := n.(type) {
		case *Ref:
			if _, ok := seen[v.Target]; !ok {
				seen[v.Target] = struct{}{}
				out = append(out, v.Target)
			}
		case *Array:
			walk(v.Item)
		case *Record:
			walk(v.Value)
		case *Optional:
			walk(v.Inner)
		case *Default:
			walk(v.Inner)
		case *Object:
			for _, p := range v.Properties {
				walk(p.Type)
			}
		case *Union:
			for _, vr := range v.Variants {
				walk(vr)
			}
		}
	}
	walk(n)
	return out
}
