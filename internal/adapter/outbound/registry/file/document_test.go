package file_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/file"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
	"github.com/i2y/contractgen/internal/usecase"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

const billing = `
name: billing
version: 1.4.0
schemas:
  Point:
    type: object
    properties:
      x: number
      y: number
      label: string?
  Status:
    category: types
    enum: [pending, active, done]
  Invoice:
    type: object
    properties:
      id: {type: string, format: uuid}
      email: {type: string, format: email, optional: true}
      status: {$ref: Status, default: pending}
      lines: Line[]
      total: {type: integer, minimum: 0}
      note: {type: string, nullable: true, maxLength: 140}
  Line:
    type: object
    properties:
      sku: {type: string, minLength: 1}
      amount: number
  InvoiceNotFound:
    category: errors
    type: object
    properties:
      code: {const: INVOICE_NOT_FOUND}
  Event:
    oneOf:
      - {$ref: Created}
      - {$ref: Voided}
    discriminator: kind
  Tags:
    type: record
    values: string[]
`

func TestParse(t *testing.T) {
	reg, err := file.Parse("billing.yaml", []byte(billing))
	require.NoError(t, err)

	assert.Equal(t, "billing", reg.Name)
	assert.Equal(t, "1.4.0", reg.Version)
	var names []string
	for _, e := range reg.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Point", "Status", "Invoice", "Line", "InvoiceNotFound", "Event", "Tags"}, names)
	assert.Equal(t, domain.CategoryErrors, reg.Entries[4].Category)
	assert.Equal(t, domain.CategoryTypes, reg.Entries[0].Category)

	point := reg.Entries[0].Value.(*typedef.Def)
	require.Equal(t, typedef.KindObject, point.Kind)
	require.Len(t, point.Shape, 3)
	assert.Equal(t, "label", point.Shape[2].Name)
	assert.Equal(t, typedef.KindOptional, point.Shape[2].Type.Kind)
	assert.Equal(t, typedef.KindString, point.Shape[2].Type.Inner.Kind)

	status := reg.Entries[1].Value.(*typedef.Def)
	assert.Equal(t, []string{"pending", "active", "done"}, status.Values)

	invoice := reg.Entries[2].Value.(*typedef.Def)
	props := map[string]*typedef.Def{}
	for _, p := range invoice.Shape {
		props[p.Name] = p.Type
	}
	assert.Equal(t, []typedef.Check{{Kind: typedef.CheckUUID}}, props["id"].Checks)
	assert.Equal(t, typedef.KindOptional, props["email"].Kind)
	assert.Equal(t, typedef.KindDefault, props["status"].Kind)
	assert.Equal(t, "pending", props["status"].DefaultValue)
	assert.Equal(t, "Status", props["status"].Inner.Ref)
	assert.Equal(t, typedef.KindArray, props["lines"].Kind)
	assert.Equal(t, "Line", props["lines"].Inner.Ref)
	assert.Equal(t, []typedef.Check{{Kind: typedef.CheckInt}, {Kind: typedef.CheckMin, Value: 0}}, props["total"].Checks)
	assert.Equal(t, typedef.KindNullable, props["note"].Kind)

	event := reg.Entries[5].Value.(*typedef.Def)
	assert.Equal(t, typedef.KindDiscriminatedUnion, event.Kind)
	assert.Equal(t, "kind", event.Discriminator)
	assert.Len(t, event.Options, 2)

	tags := reg.Entries[6].Value.(*typedef.Def)
	assert.Equal(t, typedef.KindRecord, tags.Kind)
	assert.Equal(t, typedef.KindArray, tags.Inner.Kind)
}

func TestParse_ExtractsThroughPipeline(t *testing.T) {
	reg, err := file.Parse("billing.yaml", []byte(billing))
	require.NoError(t, err)

	defs, warnings, err := usecase.NewExtractor(newTestLogger()).Extract(reg)
	require.NoError(t, err)
	require.Len(t, defs, 7)

	point, ok := defs[0].IR.(*domain.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, point.RequiredNames())

	assert.Empty(t, warnings)

	// Created and Voided are not in the document.
	result := usecase.ValidateDefinitions(defs)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{
		`Schema "Event" references unknown schema "Created"`,
		`Schema "Event" references unknown schema "Voided"`,
	}, result.Errors)
}

func TestParse_JSON(t *testing.T) {
	doc := `{"schemas": {"B": {"type": "object", "properties": {"z": "string", "a": "number?"}}, "A": "string"}}`
	reg, err := file.Parse("inline.json", []byte(doc))
	require.NoError(t, err)

	assert.Equal(t, "inline.json", reg.Name)
	require.Len(t, reg.Entries, 2)
	assert.Equal(t, "B", reg.Entries[0].Name)
	assert.Equal(t, "A", reg.Entries[1].Name)
	shape := reg.Entries[0].Value.(*typedef.Def).Shape
	assert.Equal(t, "z", shape[0].Name)
	assert.Equal(t, "a", shape[1].Name)
}

func TestParse_UnknownKindIsKept(t *testing.T) {
	reg, err := file.Parse("x.yaml", []byte("schemas:\n  Pair:\n    type: tuple\n"))
	require.NoError(t, err)
	assert.Equal(t, typedef.KindTuple, reg.Entries[0].Value.(*typedef.Def).Kind)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"not a mapping", "- a\n- b\n", "registry document must be a mapping"},
		{"unknown key", "schemaz: {}\n", `line 1: unknown top-level key "schemaz"`},
		{"array without items", "schemas:\n  A:\n    type: array\n", `schema "A": line 3: array needs items`},
		{"bad format", "schemas:\n  A: {type: string, format: ipv4}\n", `unknown string format "ipv4"`},
		{"bad enum", "schemas:\n  A: {enum: {a: b}}\n", "enum must be a list of strings"},
		{"no type", "schemas:\n  A: {description: x}\n", "type definition needs one of"},
		{"invalid yaml", "schemas: [\n", "failed to parse registry document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := file.Parse("x.yaml", []byte(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParse_Empty(t *testing.T) {
	reg, err := file.Parse("empty.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, "empty.yaml", reg.Name)
	assert.Empty(t, reg.Entries)
}

func TestSource_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/contracts/billing.yaml", []byte(billing), 0o644))
	src := file.NewSource(location.NewReader(fs, nil, newTestLogger()), newTestLogger())

	reg, err := src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "/contracts/billing.yaml", Type: domain.SourceTypeFile})
	require.NoError(t, err)
	assert.Equal(t, "billing", reg.Name)
	assert.Len(t, reg.Entries, 7)

	_, err = src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "/contracts/missing.yaml"})
	assert.ErrorContains(t, err, "failed to read file")
}
