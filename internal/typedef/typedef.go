// Package typedef is the canonical type-definition model that schema registries are
// authored in. A Def is a small tagged tree, similar in spirit to the runtime
// schemas of Zod-like libraries: every node carries a Kind tag, optional refinement
// checks and its nested definitions.
//
// Defs are usually built with the chaining helpers in builder.go:
//
//	point := typedef.Object(
//	    typedef.Prop("x", typedef.Number()),
//	    typedef.Prop("y", typedef.Number()),
//	    typedef.Prop("label", typedef.String().Optional()),
//	)
//
// or decoded from YAML/JSON registry documents by the file registry adapter.
package typedef

// Kind is the structural tag of a Def.
type Kind string

const (
	KindString             Kind = "string"
	KindNumber             Kind = "number"
	KindBoolean            Kind = "boolean"
	KindNull               Kind = "null"
	KindArray              Kind = "array"
	KindObject             Kind = "object"
	KindRecord             Kind = "record"
	KindEnum               Kind = "enum"
	KindUnion              Kind = "union"
	KindDiscriminatedUnion Kind = "discriminatedUnion"
	KindLiteral            Kind = "literal"
	KindOptional           Kind = "optional"
	KindNullable           Kind = "nullable"
	KindDefault            Kind = "default"
	KindEffects            Kind = "effects"
	KindLazy               Kind = "lazy"

	// Kinds below are accepted by the model but have no IR equivalent; lowering
	// degrades them to unknown.
	KindAny   Kind = "any"
	KindDate  Kind = "date"
	KindTuple Kind = "tuple"
)

// CheckKind names a refinement check attached to a string or number Def.
type CheckKind string

const (
	CheckMin      CheckKind = "min"
	CheckMax      CheckKind = "max"
	CheckLength   CheckKind = "length"
	CheckEmail    CheckKind = "email"
	CheckURL      CheckKind = "url"
	CheckUUID     CheckKind = "uuid"
	CheckDateTime CheckKind = "datetime"
	CheckInt      CheckKind = "int"
	CheckRegex    CheckKind = "regex"
)

// Check is one refinement. Value is the numeric bound for min/max/length checks.
type Check struct {
	Kind  CheckKind
	Value float64
	Text  string
}

// Property is a named member of an object shape.
type Property struct {
	Name string
	Type *Def
}

// Def is a single type definition node.
type Def struct {
	Kind        Kind
	Description string

	// string / number refinements
	Checks []Check

	// array element, record value, and the wrapped type of optional, nullable,
	// default and effects
	Inner *Def

	// object shape in declaration order
	Shape []Property

	// enum values in declaration order
	Values []string

	// union / discriminated union options in declaration order
	Options       []*Def
	Discriminator string

	// literal constant (string, float64, bool or nil) and default value
	Literal      any
	DefaultValue any

	// lazy definitions resolve either through Getter or by registry name via Ref
	Getter func() *Def
	Ref    string
}
