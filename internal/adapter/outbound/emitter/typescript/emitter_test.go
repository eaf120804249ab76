package typescript_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/adapter/outbound/emitter/typescript"
	"github.com/i2y/contractgen/internal/domain"
)

func newEmitter() *typescript.Emitter {
	return typescript.NewEmitter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func num() domain.Node { return &domain.Primitive{Type: domain.PrimitiveNumber} }
func str() domain.Node { return &domain.Primitive{Type: domain.PrimitiveString} }

func pointDefs() []domain.SchemaDefinition {
	return []domain.SchemaDefinition{{
		Name:     "Point",
		Category: domain.CategoryTypes,
		IR: &domain.Object{Properties: []domain.Property{
			{Name: "x", Type: num(), Required: true},
			{Name: "y", Type: num(), Required: true},
			{Name: "label", Type: &domain.Optional{Inner: str()}},
		}},
	}}
}

func TestEmitter_Point(t *testing.T) {
	out, err := newEmitter().Emit(pointDefs(), domain.GenerationConfig{})
	require.NoError(t, err)

	assert.Equal(t, domain.LanguageTypeScript, out.Language)
	assert.Equal(t, []string{"README.md", "src/client.ts", "src/index.ts", "src/schemas.ts", "src/types.ts", "src/validation.ts"}, out.Paths())
	assert.Empty(t, out.Warnings)

	types := out.Files[typescript.PathTypes]
	assert.Contains(t, types, "export interface Point {\n  x: number;\n  y: number;\n  label?: string;\n}\n")

	validation := out.Files[typescript.PathValidation]
	assert.Contains(t, validation, `"Point": ["x", "y"],`)
	assert.Contains(t, validation, "export function validatePoint(value: unknown): T.Point {")
	assert.Contains(t, validation, `"Point": validatePoint,`)

	schemas := out.Files[typescript.PathSchemas]
	assert.Contains(t, schemas, `"Point": {"kind":"object","properties":[{"name":"x","required":true,"type":{"kind":"number"}}`)
	assert.Contains(t, schemas, `export const schemaNames = ["Point"] as const;`)
}

func TestEmitter_Manifest(t *testing.T) {
	out, err := newEmitter().Emit(nil, domain.GenerationConfig{Organization: "acme", PackagePrefix: "billing", SDKVersion: "2.0.0", ContractVersion: "3.1.0"})
	require.NoError(t, err)
	assert.Equal(t, "@acme/billing-sdk", out.Manifest.Name)
	assert.Equal(t, "2.0.0", out.Manifest.Version)
	assert.Equal(t, "3.1.0", out.Manifest.ContractVersion)
	assert.Contains(t, out.Files[typescript.PathClient], `export const CONTRACT_VERSION = "3.1.0";`)
	assert.Contains(t, out.Files[typescript.PathClient], `"X-Contract-Version": CONTRACT_VERSION,`)
	assert.Contains(t, out.Files[typescript.PathReadme], "npm install @acme/billing-sdk@2.0.0")
}

func TestEmitter_TypeMapping(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Status", IR: &domain.Enum{Values: []string{"pending", "active", "done"}}},
		{Name: "Tags", IR: &domain.Record{Value: &domain.Array{Item: str()}}},
		{Name: "Shape", IR: &domain.Union{Variants: []domain.Node{&domain.Ref{Target: "Point"}, &domain.Primitive{Type: domain.PrimitiveNull}}}},
		{Name: "Anything", IR: &domain.Unknown{Construct: "date"}},
		{Name: "Node", IR: &domain.Object{Properties: []domain.Property{
			{Name: "children", Type: &domain.Array{Item: &domain.Ref{Target: "Node"}}, Required: true},
			{Name: "content-type", Type: &domain.Default{Inner: &domain.Literal{Value: "text", Type: domain.PrimitiveString}, Value: "text"}},
			{Name: "meta", Type: &domain.Object{Properties: []domain.Property{{Name: "a", Type: num(), Required: true}}}, Required: true},
		}}},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	types := out.Files[typescript.PathTypes]

	assert.Contains(t, types, `export type Status = "pending" | "active" | "done";`)
	assert.Contains(t, types, `export const StatusValues = ["pending", "active", "done"] as const;`)
	assert.Contains(t, types, "export type Tags = Record<string, string[]>;")
	assert.Contains(t, types, "export type Shape = Point | null;")
	assert.Contains(t, types, "export type Anything = unknown;")
	assert.Contains(t, types, "  children: Node[];\n")
	assert.Contains(t, types, `  "content-type"?: "text";`)
	assert.Contains(t, types, "  meta: { a: number };\n")
}

func TestEmitter_DegradesUnrepresentableNodes(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Odd", IR: &domain.Object{Properties: []domain.Property{
			{Name: "f", Type: &domain.Primitive{Type: "float"}, Required: true},
		}}},
		{Name: "Fine", IR: str()},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Contains(t, out.Files[typescript.PathTypes], "  f: unknown;\n")
	assert.Contains(t, out.Files[typescript.PathTypes], "export type Fine = string;")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "Odd", out.Warnings[0].Schema)
	assert.Equal(t, ".f", out.Warnings[0].Path)
}

func TestEmitter_UnknownReferences(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Listing", IR: &domain.Object{Properties: []domain.Property{
			{Name: "seller", Type: &domain.Ref{Target: "Seller"}, Required: true},
		}}},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Contains(t, out.Files[typescript.PathTypes], "  seller: unknown;\n")
	assert.NotContains(t, out.Files[typescript.PathTypes], "seller: Seller")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, ".seller", out.Warnings[0].Path)
	assert.Contains(t, out.Warnings[0].Message, `reference to unknown schema "Seller"`)
}

func TestEmitter_Deterministic(t *testing.T) {
	e := newEmitter()
	first, err := e.Emit(pointDefs(), domain.GenerationConfig{})
	require.NoError(t, err)
	second, err := e.Emit(pointDefs(), domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
}

func reservedNameDefs() []domain.SchemaDefinition {
	id := func() domain.Node {
		return &domain.Object{Properties: []domain.Property{{Name: "id", Type: str(), Required: true}}}
	}
	return []domain.SchemaDefinition{
		{Name: "Client", IR: id()},
		{Name: "ClientSchema", IR: id()},
		{Name: "Optional", IR: id()},
		{Name: "Holder", IR: &domain.Object{Properties: []domain.Property{
			{Name: "client", Type: &domain.Ref{Target: "Client"}, Required: true},
			{Name: "other", Type: &domain.Ref{Target: "ClientSchema"}, Required: true},
			{Name: "opt", Type: &domain.Optional{Inner: &domain.Ref{Target: "Optional"}}},
		}}},
	}
}

func TestEmitter_ReservedTypeNames(t *testing.T) {
	out, err := newEmitter().Emit(reservedNameDefs(), domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)

	types := out.Files[typescript.PathTypes]
	for _, name := range []string{"_Client", "ClientSchema", "Optional", "Holder"} {
		assert.Contains(t, types, "export interface "+name+" {\n")
	}
	assert.Contains(t, types, "  client: _Client;\n")
	assert.Contains(t, types, "  opt?: Optional;\n")
}
