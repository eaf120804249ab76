package typedef

// String returns a string definition.
func String() *Def { return &Def{Kind: KindString} }

// Number returns a number definition.
func Number() *Def { return &Def{Kind: KindNumber} }

// Boolean returns a boolean definition.
func Boolean() *Def { return &Def{Kind: KindBoolean} }

// Null returns the null definition.
func Null() *Def { return &Def{Kind: KindNull} }

// Any returns a definition accepting anything.
func Any() *Def { return &Def{Kind: KindAny} }

// Array returns an array of elem.
func Array(elem *Def) *Def { return &Def{Kind: KindArray, Inner: elem} }

// Record returns a string-keyed map of value.
func Record(value *Def) *Def { return &Def{Kind: KindRecord, Inner: value} }

// Prop pairs a property name with its definition for Object.
func Prop(name string, d *Def) Property { return Property{Name: name, Type: d} }

// Object returns an object definition with props in the given order.
func Object(props ...Property) *Def {
	return &Def{Kind: KindObject, Shape: append([]Property(nil), props...)}
}

// Enum returns a closed string set in the given order.
func Enum(values ...string) *Def {
	return &Def{Kind: KindEnum, Values: append([]string(nil), values...)}
}

// Union returns a union of options.
func Union(options ...*Def) *Def {
	return &Def{Kind: KindUnion, Options: append([]*Def(nil), options...)}
}

// DiscriminatedUnion returns a union whose object options share the key field.
func DiscriminatedUnion(key string, options ...*Def) *Def {
	return &Def{Kind: KindDiscriminatedUnion, Discriminator: key, Options: append([]*Def(nil), options...)}
}

// Literal returns an exact constant definition.
func Literal(v any) *Def { return &Def{Kind: KindLiteral, Literal: v} }

// Lazy defers resolution of a definition until it is lowered.
func Lazy(getter func() *Def) *Def { return &Def{Kind: KindLazy, Getter: getter} }

// LazyRef refers to another registry entry by name.
func LazyRef(name string) *Def { return &Def{Kind: KindLazy, Ref: name} }

// Optional wraps d so that the enclosing property becomes optional.
func (d *Def) Optional() *Def { return &Def{Kind: KindOptional, Inner: d} }

// Nullable wraps d so that null is accepted as well.
func (d *Def) Nullable() *Def { return &Def{Kind: KindNullable, Inner: d} }

// Default wraps d with a default value.
func (d *Def) Default(v any) *Def { return &Def{Kind: KindDefault, Inner: d, DefaultValue: v} }

// Refine wraps d in an effects node; the refinement itself is opaque to codegen.
func (d *Def) Refine() *Def { return &Def{Kind: KindEffects, Inner: d} }

// Describe sets a human readable description.
func (d *Def) Describe(text string) *Def {
	d.Description = text
	return d
}

func (d *Def) check(c Check) *Def {
	d.Checks = append(d.Checks, c)
	return d
}

// Min adds a minimum (length for strings, value for numbers).
func (d *Def) Min(n float64) *Def { return d.check(Check{Kind: CheckMin, Value: n}) }

// Max adds a maximum (length for strings, value for numbers).
func (d *Def) Max(n float64) *Def { return d.check(Check{Kind: CheckMax, Value: n}) }

// Length pins a string to an exact length.
func (d *Def) Length(n float64) *Def { return d.check(Check{Kind: CheckLength, Value: n}) }

// Email requires an email address.
func (d *Def) Email() *Def { return d.check(Check{Kind: CheckEmail}) }

// URL requires a URI.
func (d *Def) URL() *Def { return d.check(Check{Kind: CheckURL}) }

// UUID requires a UUID.
func (d *Def) UUID() *Def { return d.check(Check{Kind: CheckUUID}) }

// DateTime requires an RFC 3339 timestamp.
func (d *Def) DateTime() *Def { return d.check(Check{Kind: CheckDateTime}) }

// Int requires an integral number.
func (d *Def) Int() *Def { return d.check(Check{Kind: CheckInt}) }

// Regex requires a pattern match. Patterns are not carried into the IR.
func (d *Def) Regex(pattern string) *Def { return d.check(Check{Kind: CheckRegex, Text: pattern}) }
