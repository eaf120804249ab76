package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
)

// Lowerer converts type definitions into IR. It is total: every input yields a
// node, unsupported constructs become domain.Unknown and are reported as warnings.
//
// A Lowerer knows the registry it lowers for, so lazy definitions that resolve to
// a registry entry become domain.Ref nodes instead of being inlined.
type Lowerer struct {
	entries map[*typedef.Def]string

	schema   string
	path     []string
	active   map[*typedef.Def]struct{}
	warnings []domain.Warning
}

// NewLowerer creates a Lowerer for the given registry entries. Entries whose
// value is not a *typedef.Def are ignored.
func NewLowerer(entries []domain.Entry) *Lowerer {
	l := &Lowerer{
		entries: make(map[*typedef.Def]string, len(entries)),
	}
	for _, e := range entries {
		d, ok := e.Value.(*typedef.Def)
		if !ok || d == nil {
			continue
		}
		if _, seen := l.entries[d]; !seen {
			l.entries[d] = e.Name
		}
	}
	return l
}

// Lower converts d, the definition of the named schema, into IR and returns the
// warnings recorded on the way.
func (l *Lowerer) Lower(schema string, d *typedef.Def) (domain.Node, []domain.Warning) {
	l.schema = schema
	l.path = l.path[:0]
	l.warnings = nil
	l.active = map[*typedef.Def]struct{}{d: {}}
	node := l.lower(d)
	return node, l.warnings
}

func (l *Lowerer) warn(format string, args ...any) {
	l.warnings = append(l.warnings, domain.Warning{
		Stage:   domain.StageLowering,
		Schema:  l.schema,
		Path:    strings.Join(l.path, ""),
		Message: fmt.Sprintf(format, args...),
	})
}

func (l *Lowerer) push(seg string) { l.path = append(l.path, seg) }
func (l *Lowerer) pop()            { l.path = l.path[:len(l.path)-1] }

// child lowers a nested definition, guarding against cycles in the Def graph.
func (l *Lowerer) child(seg string, d *typedef.Def) domain.Node {
	l.push(seg)
	defer l.pop()
	if d == nil {
		l.warn("missing nested definition lowered to unknown")
		return &domain.Unknown{Construct: "nil"}
	}
	if _, busy := l.active[d]; busy {
		if name, ok := l.entries[d]; ok {
			return &domain.Ref{Target: name}
		}
		l.warn("recursive definition without a registry name lowered to unknown")
		return &domain.Unknown{Construct: "cycle"}
	}
	l.active[d] = struct{}{}
	defer delete(l.active, d)
	return l.lower(d)
}

func (l *Lowerer) lower(d *typedef.Def) domain.Node {
	if d == nil {
		l.warn("missing definition lowered to unknown")
		return &domain.Unknown{Construct: "nil"}
	}
	switch d.Kind {
	case typedef.KindString:
		return lowerString(d.Checks)
	case typedef.KindNumber:
		return lowerNumber(d.Checks)
	case typedef.KindBoolean:
		return &domain.Primitive{Type: domain.PrimitiveBoolean}
	case typedef.KindNull:
		return &domain.Primitive{Type: domain.PrimitiveNull}
	case typedef.KindArray:
		return &domain.Array{Item: l.child("[]", d.Inner)}
	case typedef.KindRecord:
		return &domain.Record{Value: l.child("{}", d.Inner)}
	case typedef.KindObject:
		obj := &domain.Object{Properties: make([]domain.Property, 0, len(d.Shape))}
		for _, p := range d.Shape {
			t := l.child("."+p.Name, p.Type)
			obj.Properties = append(obj.Properties, domain.Property{
				Name:     p.Name,
				Type:     t,
				Required: domain.IsRequiredType(t),
			})
		}
		return obj
	case typedef.KindEnum:
		return &domain.Enum{Values: append([]string{}, d.Values...)}
	case typedef.KindUnion, typedef.KindDiscriminatedUnion:
		u := &domain.Union{Discriminator: d.Discriminator, Variants: make([]domain.Node, 0, len(d.Options))}
		for i, opt := range d.Options {
			u.Variants = append(u.Variants, l.child(fmt.Sprintf("|%d", i), opt))
		}
		return u
	case typedef.KindLiteral:
		return l.lowerLiteral(d.Literal)
	case typedef.KindOptional:
		return &domain.Optional{Inner: l.child("", d.Inner)}
	case typedef.KindDefault:
		return &domain.Default{Inner: l.child("", d.Inner), Value: d.DefaultValue}
	case typedef.KindNullable:
		inner := l.child("", d.Inner)
		return &domain.Union{Variants: []domain.Node{inner, &domain.Primitive{Type: domain.PrimitiveNull}}}
	case typedef.KindEffects:
		return l.child("", d.Inner)
	case typedef.KindLazy:
		return l.lowerLazy(d)
	default:
		l.warn("unsupported construct %q lowered to unknown", d.Kind)
		return &domain.Unknown{Construct: string(d.Kind)}
	}
}

func (l *Lowerer) lowerLazy(d *typedef.Def) domain.Node {
	if d.Ref != "" {
		// Dangling names are left for ValidateDefinitions to report.
		return &domain.Ref{Target: d.Ref}
	}
	if d.Getter == nil {
		l.warn("lazy definition without getter lowered to unknown")
		return &domain.Unknown{Construct: "lazy"}
	}
	target, err := resolveLazy(d.Getter)
	if err != nil {
		l.warn("lazy getter failed: %v", err)
		return &domain.Unknown{Construct: "lazy"}
	}
	if name, ok := l.entries[target]; ok {
		return &domain.Ref{Target: name}
	}
	return l.child("", target)
}

func resolveLazy(getter func() *typedef.Def) (d *typedef.Def, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return getter(), nil
}

func (l *Lowerer) lowerLiteral(v any) domain.Node {
	switch x := v.(type) {
	case nil:
		return &domain.Literal{Value: nil, Type: domain.PrimitiveNull}
	case string:
		return &domain.Literal{Value: x, Type: domain.PrimitiveString}
	case bool:
		return &domain.Literal{Value: x, Type: domain.PrimitiveBoolean}
	}
	if f, ok := toFloat(v); ok {
		return &domain.Literal{Value: f, Type: domain.PrimitiveNumber}
	}
	l.warn("literal of type %T lowered to unknown", v)
	return &domain.Unknown{Construct: "literal"}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// lowerString folds length and format checks; other checks are dropped.
func lowerString(checks []typedef.Check) domain.Node {
	sc := &domain.StringConstraint{}
	constrained := false
	for _, c := range checks {
		switch c.Kind {
		case typedef.CheckMin:
			sc.MinLength, constrained = intPtr(c.Value), true
		case typedef.CheckMax:
			sc.MaxLength, constrained = intPtr(c.Value), true
		case typedef.CheckLength:
			sc.MinLength, sc.MaxLength, constrained = intPtr(c.Value), intPtr(c.Value), true
		case typedef.CheckEmail:
			sc.Format, constrained = domain.FormatEmail, true
		case typedef.CheckURL:
			sc.Format, constrained = domain.FormatURI, true
		case typedef.CheckUUID:
			sc.Format, constrained = domain.FormatUUID, true
		case typedef.CheckDateTime:
			sc.Format, constrained = domain.FormatDateTime, true
		}
	}
	if !constrained {
		return &domain.Primitive{Type: domain.PrimitiveString}
	}
	return sc
}

// lowerNumber folds bound and integer checks; other checks are dropped.
func lowerNumber(checks []typedef.Check) domain.Node {
	nc := &domain.NumberConstraint{}
	constrained := false
	for _, c := range checks {
		switch c.Kind {
		case typedef.CheckMin:
			v := c.Value
			nc.Min, constrained = &v, true
		case typedef.CheckMax:
			v := c.Value
			nc.Max, constrained = &v, true
		case typedef.CheckInt:
			nc.Integer, constrained = true, true
		}
	}
	if !constrained {
		return &domain.Primitive{Type: domain.PrimitiveNumber}
	}
	return nc
}

func intPtr(f float64) *int {
	n := int(f)
	return &n
}
