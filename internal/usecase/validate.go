package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/i2y/contractgen/internal/domain"
)

// ValidateDefinitions checks an extracted set for structural integrity:
// malformed IR (one error per entry), empty names, duplicate names (one
// aggregated error) and references to schemas outside the set.
func ValidateDefinitions(defs []domain.SchemaDefinition) domain.ValidationResult {
	errs := []string{}

	wellFormed := make([]bool, len(defs))
	for i, d := range defs {
		if err := checkNode(d.IR); err != nil {
			errs = append(errs, fmt.Sprintf("Schema %q has malformed IR: %v", d.Name, err))
			continue
		}
		wellFormed[i] = true
	}

	for i, d := range defs {
		if strings.TrimSpace(d.Name) == "" {
			errs = append(errs, fmt.Sprintf("Schema at index %d has an empty name", i))
		}
	}

	seen := make(map[string]int, len(defs))
	var dups []string
	for _, d := range defs {
		if d.Name == "" {
			continue
		}
		seen[d.Name]++
		if seen[d.Name] == 2 {
			dups = append(dups, d.Name)
		}
	}
	if len(dups) > 0 {
		errs = append(errs, "Duplicate schema names found: "+strings.Join(dups, ", "))
	}

	for i, d := range defs {
		if !wellFormed[i] {
			continue
		}
		for _, target := range domain.Refs(d.IR) {
			if _, ok := seen[target]; !ok {
				errs = append(errs, fmt.Sprintf("Schema %q references unknown schema %q", d.Name, target))
			}
		}
	}

	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func checkNode(n domain.Node) error {
	switch v := n.(type) {
	case nil:
		return errors.New("node is nil")
	case *domain.Primitive:
		if v == nil {
			return errors.New("primitive is nil")
		}
		switch v.Type {
		case domain.PrimitiveString, domain.PrimitiveNumber, domain.PrimitiveBoolean, domain.PrimitiveNull:
			return nil
		}
		return fmt.Errorf("unknown primitive type %q", v.Type)
	case *domain.StringConstraint:
		if v == nil {
			return errors.New("string constraint is nil")
		}
		if v.MinLength != nil && v.MaxLength != nil && *v.MinLength > *v.MaxLength {
			return fmt.Errorf("minLength %d exceeds maxLength %d", *v.MinLength, *v.MaxLength)
		}
		return nil
	case *domain.NumberConstraint:
		if v == nil {
			return errors.New("number constraint is nil")
		}
		if v.Min != nil && v.Max != nil && *v.Min > *v.Max {
			return fmt.Errorf("min %g exceeds max %g", *v.Min, *v.Max)
		}
		return nil
	case *domain.Array:
		if v == nil {
			return errors.New("array is nil")
		}
		if err := checkNode(v.Item); err != nil {
			return fmt.Errorf("array item: %w", err)
		}
		return nil
	case *domain.Record:
		if v == nil {
			return errors.New("record is nil")
		}
		if err := checkNode(v.Value); err != nil {
			return fmt.Errorf("record value: %w", err)
		}
		return nil
	case *domain.Object:
		if v == nil {
			return errors.New("object is nil")
		}
		names := make(map[string]struct{}, len(v.Properties))
		for i, p := range v.Properties {
			if p.Name == "" {
				return fmt.Errorf("property %d has an empty name", i)
			}
			if _, dup := names[p.Name]; dup {
				return fmt.Errorf("property %q is declared twice", p.Name)
			}
			names[p.Name] = struct{}{}
			if err := checkNode(p.Type); err != nil {
				return fmt.Errorf("property %q: %w", p.Name, err)
			}
			if p.Required != domain.IsRequiredType(p.Type) {
				return fmt.Errorf("property %q: required flag disagrees with its type", p.Name)
			}
		}
		return nil
	case *domain.Enum:
		if v == nil {
			return errors.New("enum is nil")
		}
		if len(v.Values) == 0 {
			return errors.New("enum has no values")
		}
		seen := make(map[string]struct{}, len(v.Values))
		for _, val := range v.Values {
			if _, dup := seen[val]; dup {
				return fmt.Errorf("enum value %q is declared twice", val)
			}
			seen[val] = struct{}{}
		}
		return nil
	case *domain.Union:
		if v == nil {
			return errors.New("union is nil")
		}
		if len(v.Variants) == 0 {
			return errors.New("union has no variants")
		}
		for i, vr := range v.Variants {
			if err := checkNode(vr); err != nil {
				return fmt.Errorf("union variant %d: %w", i, err)
			}
		}
		return nil
	case *domain.Literal:
		if v == nil {
			return errors.New("literal is nil")
		}
		return nil
	case *domain.Optional:
		if v == nil {
			return errors.New("optional is nil")
		}
		return checkNode(v.Inner)
	case *domain.Default:
		if v == nil {
			return errors.New("default is nil")
		}
		return checkNode(v.Inner)
	case *domain.Ref:
		if v == nil || v.Target == "" {
			return errors.New("reference has no target")
		}
		return nil
	case *domain.Unknown:
		return nil
	default:
		return fmt.Errorf("unsupported node %T", n)
	}
}
