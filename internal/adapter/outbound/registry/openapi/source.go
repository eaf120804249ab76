// Package openapi loads schema registries from the components.schemas section
// of OpenAPI 3 documents.
package openapi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
	"github.com/i2y/contractgen/internal/usecase"
)

const componentPrefix = "#/components/schemas/"

// Source implements usecase.RegistrySource for OpenAPI documents.
type Source struct {
	reader *location.Reader
	logger *slog.Logger
}

// NewSource creates a new OpenAPI registry source.
func NewSource(reader *location.Reader, logger *slog.Logger) *Source {
	return &Source{
		reader: reader,
		logger: logger.With("component", "openapi_registry"),
	}
}

// Load reads the document at config.Location and converts its component schemas.
func (s *Source) Load(ctx context.Context, config usecase.RegistrySourceConfig) (*domain.Registry, error) {
	log := s.logger.With(slog.String("location", config.Location))
	log.Info("Loading OpenAPI registry")

	data, err := s.reader.Read(ctx, config.Location)
	if err != nil {
		return nil, err
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		log.Error("Failed to parse OpenAPI document", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse OpenAPI document %s: %w", config.Location, err)
	}
	if err := doc.Validate(ctx); err != nil {
		log.Warn("OpenAPI document validation failed", slog.Any("validation_error", err))
	}

	reg := Convert(config.Location, doc)
	log.Info("Loaded OpenAPI registry", slog.String("registry", reg.Name), slog.Int("entry_count", len(reg.Entries)))
	return reg, nil
}

// Convert builds a registry from the component schemas of doc, sorted by name.
// The registry is named after the document title when it has one.
func Convert(name string, doc *openapi3.T) *domain.Registry {
	reg := &domain.Registry{Name: name}
	if doc == nil {
		return reg
	}
	if doc.Info != nil {
		if doc.Info.Title != "" {
			reg.Name = doc.Info.Title
		}
		reg.Version = doc.Info.Version
	}
	if doc.Components == nil {
		return reg
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for n := range doc.Components.Schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		reg.Entries = append(reg.Entries, domain.Entry{
			Name:     n,
			Category: categoryOf(n),
			Value:    convertRef(doc.Components.Schemas[n]),
		})
	}
	return reg
}

// categoryOf files schemas named like error payloads under errors.
func categoryOf(name string) domain.Category {
	if strings.HasSuffix(name, "Error") || strings.HasSuffix(name, "Problem") {
		return domain.CategoryErrors
	}
	return domain.CategoryTypes
}

func convertRef(ref *openapi3.SchemaRef) *typedef.Def {
	if ref == nil {
		return typedef.Any()
	}
	if strings.HasPrefix(ref.Ref, componentPrefix) {
		return typedef.LazyRef(strings.TrimPrefix(ref.Ref, componentPrefix))
	}
	if ref.Value == nil {
		return typedef.Any()
	}
	return convertSchema(ref.Value)
}

func convertSchema(s *openapi3.Schema) *typedef.Def {
	d := convertBase(s)
	if s.Description != "" {
		d.Describe(s.Description)
	}
	if s.Nullable {
		d = d.Nullable()
	}
	if s.Default != nil {
		d = d.Default(s.Default)
	}
	return d
}

func firstType(s *openapi3.Schema) string {
	if s.Type == nil || len(*s.Type) == 0 {
		return ""
	}
	return (*s.Type)[0]
}

func convertBase(s *openapi3.Schema) *typedef.Def {
	switch {
	case len(s.OneOf) > 0:
		return union(s, s.OneOf)
	case len(s.AnyOf) > 0:
		return union(s, s.AnyOf)
	case len(s.AllOf) > 0:
		return allOf(s.AllOf)
	case len(s.Enum) > 0:
		if values, ok := stringValues(s.Enum); ok {
			return typedef.Enum(values...)
		}
		options := make([]*typedef.Def, 0, len(s.Enum))
		for _, v := range s.Enum {
			options = append(options, typedef.Literal(v))
		}
		if len(options) == 1 {
			return options[0]
		}
		return typedef.Union(options...)
	}

	switch t := firstType(s); t {
	case "string":
		return stringDef(s)
	case "number", "integer":
		d := typedef.Number()
		if t == "integer" {
			d.Int()
		}
		if s.Min != nil {
			d.Min(*s.Min)
		}
		if s.Max != nil {
			d.Max(*s.Max)
		}
		return d
	case "boolean":
		return typedef.Boolean()
	case "null":
		return typedef.Null()
	case "array":
		return typedef.Array(convertRef(s.Items))
	case "object", "":
		if len(s.Properties) == 0 && s.AdditionalProperties.Schema != nil {
			return typedef.Record(convertRef(s.AdditionalProperties.Schema))
		}
		if t == "" && len(s.Properties) == 0 {
			return typedef.Any()
		}
		return object(s)
	default:
		return &typedef.Def{Kind: typedef.Kind(t)}
	}
}

func stringDef(s *openapi3.Schema) *typedef.Def {
	d := typedef.String()
	if s.MinLength > 0 {
		d.Min(float64(s.MinLength))
	}
	if s.MaxLength != nil {
		d.Max(float64(*s.MaxLength))
	}
	switch s.Format {
	case "email":
		d.Email()
	case "uri", "url":
		d.URL()
	case "uuid":
		d.UUID()
	case "date-time":
		d.DateTime()
	case "date":
		return &typedef.Def{Kind: typedef.KindDate}
	}
	if s.Pattern != "" {
		d.Regex(s.Pattern)
	}
	return d
}

// object converts properties in name order; OpenAPI property maps carry no
// declaration order.
func object(s *openapi3.Schema) *typedef.Def {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for n := range s.Properties {
		names = append(names, n)
	}
	sort.Strings(names)

	props := make([]typedef.Property, 0, len(names))
	for _, n := range names {
		d := convertRef(s.Properties[n])
		if !required[n] {
			d = d.Optional()
		}
		props = append(props, typedef.Prop(n, d))
	}
	return typedef.Object(props...)
}

func union(s *openapi3.Schema, refs openapi3.SchemaRefs) *typedef.Def {
	options := make([]*typedef.Def, 0, len(refs))
	for _, r := range refs {
		options = append(options, convertRef(r))
	}
	if s.Discriminator != nil && s.Discriminator.PropertyName != "" {
		return typedef.DiscriminatedUnion(s.Discriminator.PropertyName, options...)
	}
	return typedef.Union(options...)
}

// allOf merges the properties of every object part. A part that is not an
// object makes the whole composition unrepresentable.
func allOf(refs openapi3.SchemaRefs) *typedef.Def {
	merged := &openapi3.Schema{Properties: openapi3.Schemas{}}
	for _, r := range refs {
		if r == nil || r.Value == nil {
			return &typedef.Def{Kind: "allOf"}
		}
		part := r.Value
		if t := firstType(part); t != "" && t != "object" {
			return &typedef.Def{Kind: "allOf"}
		}
		for n, p := range part.Properties {
			merged.Properties[n] = p
		}
		merged.Required = append(merged.Required, part.Required...)
	}
	return object(merged)
}

func stringValues(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
