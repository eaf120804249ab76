package domain

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Descriptor is the portable JSON form of an IR node. Every emitter embeds it in
// the generated schemas module, and the generated runtime validators interpret it.
type Descriptor struct {
	Kind          string               `json:"kind"`
	MinLength     *int                 `json:"minLength,omitempty"`
	MaxLength     *int                 `json:"maxLength,omitempty"`
	Format        string               `json:"format,omitempty"`
	Min           *float64             `json:"min,omitempty"`
	Max           *float64             `json:"max,omitempty"`
	Integer       bool                 `json:"integer,omitempty"`
	Items         *Descriptor          `json:"items,omitempty"`
	Properties    []PropertyDescriptor `json:"properties,omitempty"`
	ValueType     *Descriptor          `json:"valueType,omitempty"`
	Values        []string             `json:"values,omitempty"`
	Variants      []*Descriptor        `json:"variants,omitempty"`
	Discriminator string               `json:"discriminator,omitempty"`
	Value         json.RawMessage      `json:"value,omitempty"`
	Inner         *Descriptor          `json:"inner,omitempty"`
	Default       json.RawMessage      `json:"default,omitempty"`
	Target        string               `json:"target,omitempty"`
}

// PropertyDescriptor is one object property of a Descriptor.
type PropertyDescriptor struct {
	Name     string      `json:"name"`
	Required bool        `json:"required"`
	Type     *Descriptor `json:"type"`
}

// Describe converts an IR node into its Descriptor. A nil node describes as unknown.
func Describe(n Node) (*Descriptor, error) {
	switch v := n.(type) {
	case nil:
		return &Descriptor{Kind: "unknown"}, nil
	case *Primitive:
		return &Descriptor{Kind: string(v.Type)}, nil
	case *StringConstraint:
		return &Descriptor{Kind: "string", MinLength: v.MinLength, MaxLength: v.MaxLength, Format: string(v.Format)}, nil
	case *NumberConstraint:
		return &Descriptor{Kind: "number", Min: v.Min, Max: v.Max, Integer: v.Integer}, nil
	case *Array:
		item, err := Describe(v.Item)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: "array", Items: item}, nil
	case *Object:
		d := &Descriptor{Kind: "object", Properties: make([]PropertyDescriptor, 0, len(v.Properties))}
		for _, p := range v.Properties {
			pt, err := Describe(p.Type)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", p.Name, err)
			}
			d.Properties = append(d.Properties, PropertyDescriptor{Name: p.Name, Required: p.Required, Type: pt})
		}
		return d, nil
	case *Record:
		val, err := Describe(v.Value)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: "record", ValueType: val}, nil
	case *Enum:
		return &Descriptor{Kind: "enum", Values: append([]string{}, v.Values...)}, nil
	case *Union:
		d := &Descriptor{Kind: "union", Discriminator: v.Discriminator, Variants: make([]*Descriptor, 0, len(v.Variants))}
		for i, vr := range v.Variants {
			vd, err := Describe(vr)
			if err != nil {
				return nil, fmt.Errorf("variant %d: %w", i, err)
			}
			d.Variants = append(d.Variants, vd)
		}
		return d, nil
	case *Literal:
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, fmt.Errorf("literal value: %w", err)
		}
		return &Descriptor{Kind: "literal", Value: raw}, nil
	case *Optional:
		inner, err := Describe(v.Inner)
		if err != nil {
			return nil, err
		}
		return &Descriptor{Kind: "optional", Inner: inner}, nil
	case *Default:
		inner, err := Describe(v.Inner)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v.Value)
		if err != nil {
			return nil, fmt.Errorf("default value: %w", err)
		}
		return &Descriptor{Kind: "default", Inner: inner, Default: raw}, nil
	case *Ref:
		return &Descriptor{Kind: "ref", Target: v.Target}, nil
	case *Unknown:
		return &Descriptor{Kind: "unknown"}, nil
	default:
		return nil, fmt.Errorf("unsupported IR node %T", n)
	}
}

// EncodeIR returns the compact JSON descriptor of n.
func EncodeIR(n Node) ([]byte, error) {
	d, err := Describe(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}
