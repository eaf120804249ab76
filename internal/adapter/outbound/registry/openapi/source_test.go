package openapi_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/openapi"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
	"github.com/i2y/contractgen/internal/usecase"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

const petstore = `
openapi: 3.0.3
info:
  title: petstore
  version: 2.1.0
paths: {}
components:
  schemas:
    Pet:
      type: object
      required: [id, name]
      properties:
        id:
          type: integer
          minimum: 1
        name:
          type: string
          minLength: 1
          maxLength: 64
        tag:
          type: string
          nullable: true
        status:
          $ref: '#/components/schemas/Status'
        owner:
          type: object
          properties:
            email:
              type: string
              format: email
    Status:
      type: string
      enum: [available, sold]
      default: available
    Labels:
      type: object
      additionalProperties:
        type: string
    NotFoundError:
      type: object
      required: [code]
      properties:
        code:
          type: string
          enum: [NOT_FOUND]
    Animal:
      oneOf:
        - $ref: '#/components/schemas/Pet'
        - $ref: '#/components/schemas/Labels'
    Named:
      allOf:
        - $ref: '#/components/schemas/Pet'
        - type: object
          required: [nickname]
          properties:
            nickname:
              type: string
`

func load(t *testing.T) *domain.Registry {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/specs/petstore.yaml", []byte(petstore), 0o644))
	src := openapi.NewSource(location.NewReader(fs, nil, newTestLogger()), newTestLogger())
	reg, err := src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "/specs/petstore.yaml", Type: domain.SourceTypeOpenAPI})
	require.NoError(t, err)
	return reg
}

func shape(d *typedef.Def) map[string]*typedef.Def {
	out := map[string]*typedef.Def{}
	for _, p := range d.Shape {
		out[p.Name] = p.Type
	}
	return out
}

func TestSource_Load(t *testing.T) {
	reg := load(t)

	assert.Equal(t, "petstore", reg.Name)
	assert.Equal(t, "2.1.0", reg.Version)
	var names []string
	for _, e := range reg.Entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Animal", "Labels", "Named", "NotFoundError", "Pet", "Status"}, names)
	assert.Equal(t, domain.CategoryErrors, reg.Entries[3].Category)
	assert.Equal(t, domain.CategoryTypes, reg.Entries[4].Category)

	pet := reg.Entries[4].Value.(*typedef.Def)
	require.Equal(t, typedef.KindObject, pet.Kind)
	var order []string
	for _, p := range pet.Shape {
		order = append(order, p.Name)
	}
	assert.Equal(t, []string{"id", "name", "owner", "status", "tag"}, order)

	props := shape(pet)
	assert.Equal(t, []typedef.Check{{Kind: typedef.CheckInt}, {Kind: typedef.CheckMin, Value: 1}}, props["id"].Checks)
	assert.Equal(t, []typedef.Check{{Kind: typedef.CheckMin, Value: 1}, {Kind: typedef.CheckMax, Value: 64}}, props["name"].Checks)
	assert.Equal(t, typedef.KindOptional, props["tag"].Kind)
	assert.Equal(t, typedef.KindNullable, props["tag"].Inner.Kind)
	assert.Equal(t, "Status", props["status"].Inner.Ref)
	assert.Equal(t, typedef.KindObject, props["owner"].Inner.Kind)

	status := reg.Entries[5].Value.(*typedef.Def)
	assert.Equal(t, typedef.KindDefault, status.Kind)
	assert.Equal(t, "available", status.DefaultValue)
	assert.Equal(t, []string{"available", "sold"}, status.Inner.Values)

	labels := reg.Entries[1].Value.(*typedef.Def)
	assert.Equal(t, typedef.KindRecord, labels.Kind)
	assert.Equal(t, typedef.KindString, labels.Inner.Kind)

	animal := reg.Entries[0].Value.(*typedef.Def)
	assert.Equal(t, typedef.KindUnion, animal.Kind)
	assert.Equal(t, "Pet", animal.Options[0].Ref)

	named := shape(reg.Entries[2].Value.(*typedef.Def))
	assert.Contains(t, named, "nickname")
	assert.Contains(t, named, "id")
	assert.Equal(t, typedef.KindString, named["nickname"].Kind)
}

func TestSource_LoadLowersCleanly(t *testing.T) {
	reg := load(t)
	defs, warnings, err := usecase.NewExtractor(newTestLogger()).Extract(reg)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, usecase.ValidateDefinitions(defs).Valid)

	notFound := defs[3].IR.(*domain.Object)
	assert.Equal(t, []string{"code"}, notFound.RequiredNames())
}

func TestSource_LoadErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/specs/broken.yaml", []byte("openapi: [\n"), 0o644))
	src := openapi.NewSource(location.NewReader(fs, nil, newTestLogger()), newTestLogger())

	_, err := src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "/specs/broken.yaml"})
	assert.ErrorContains(t, err, "failed to parse OpenAPI document")

	_, err = src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "/specs/missing.yaml"})
	assert.ErrorContains(t, err, "failed to read file")
}

func TestConvert_NilDocument(t *testing.T) {
	reg := openapi.Convert("empty", nil)
	assert.Equal(t, "empty", reg.Name)
	assert.Empty(t, reg.Entries)
}
