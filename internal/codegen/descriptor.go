package codegen

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/i2y/contractgen/internal/domain"
)

// Generator is the name written into generated file headers.
const Generator = "contractgen"

// EncodedSchema is the JSON descriptor of one schema definition.
type EncodedSchema struct {
	Name string
	JSON string
}

// EncodeDescriptors encodes the IR of every definition in order. A definition
// that cannot be encoded is described as unknown and reported as a warning.
func EncodeDescriptors(lang domain.Language, defs []domain.SchemaDefinition) ([]EncodedSchema, []domain.Warning) {
	var warnings []domain.Warning
	out := make([]EncodedSchema, 0, len(defs))
	for _, d := range defs {
		raw, err := domain.EncodeIR(d.IR)
		if err != nil {
			warnings = append(warnings, EmissionWarning(lang, d.Name, "", fmt.Sprintf("descriptor encoding failed, described as unknown: %v", err)))
			raw = []byte(`{"kind":"unknown"}`)
		}
		out = append(out, EncodedSchema{Name: d.Name, JSON: string(raw)})
	}
	return out, warnings
}

// EmissionWarning builds a warning recorded by the emitter for lang.
func EmissionWarning(lang domain.Language, schema, path, message string) domain.Warning {
	return domain.Warning{
		Stage:   domain.StageEmission,
		Schema:  schema,
		Path:    path,
		Message: fmt.Sprintf("%s: %s", lang, message),
	}
}

// LiteralJSON renders v as a JSON literal, which is also a valid TypeScript
// literal. Values that cannot be encoded render as null.
func LiteralJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}

// TypeName returns the type name schema takes in lang. Go names are returned
// before the Go emitter moves them off its runtime identifiers.
func TypeName(lang domain.Language, schema string) string {
	switch lang {
	case domain.LanguageTypeScript:
		return TSTypeName(schema)
	case domain.LanguagePython:
		return PyClassName(schema)
	}
	return GoName(schema)
}

// ResolveNames drops every definition whose type name in any target language
// was already taken by an earlier definition, so that all languages emit the
// same schemas. Each dropped definition is reported as a warning for lang.
func ResolveNames(lang domain.Language, defs []domain.SchemaDefinition) ([]domain.SchemaDefinition, []domain.Warning) {
	langs := domain.Languages()
	seen := make(map[domain.Language]map[string]string, len(langs))
	for _, l := range langs {
		seen[l] = make(map[string]string, len(defs))
	}
	out := make([]domain.SchemaDefinition, 0, len(defs))
	var warnings []domain.Warning
next:
	for _, d := range defs {
		for _, l := range langs {
			n := TypeName(l, d.Name)
			if first, dup := seen[l][n]; dup {
				warnings = append(warnings, EmissionWarning(lang, d.Name, "", fmt.Sprintf("name %s collides with schema %q in %s, skipped", n, first, l)))
				continue next
			}
		}
		for _, l := range langs {
			seen[l][TypeName(l, d.Name)] = d.Name
		}
		out = append(out, d)
	}
	return out, warnings
}
