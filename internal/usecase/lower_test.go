package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
	"github.com/i2y/contractgen/internal/usecase"
)

func lowerOne(t *testing.T, name string, d *typedef.Def, others ...domain.Entry) (domain.Node, []domain.Warning) {
	t.Helper()
	entries := append([]domain.Entry{{Name: name, Value: d}}, others...)
	return usecase.NewLowerer(entries).Lower(name, d)
}

func TestLowerer_Primitives(t *testing.T) {
	tests := []struct {
		name string
		def  *typedef.Def
		want domain.Node
	}{
		{"string", typedef.String(), &domain.Primitive{Type: domain.PrimitiveString}},
		{"number", typedef.Number(), &domain.Primitive{Type: domain.PrimitiveNumber}},
		{"boolean", typedef.Boolean(), &domain.Primitive{Type: domain.PrimitiveBoolean}},
		{"null", typedef.Null(), &domain.Primitive{Type: domain.PrimitiveNull}},
		{"regex only stays primitive", typedef.String().Regex("^a"), &domain.Primitive{Type: domain.PrimitiveString}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := lowerOne(t, "S", tt.def)
			assert.Equal(t, tt.want, got)
			assert.Empty(t, warnings)
		})
	}
}

func TestLowerer_Constraints(t *testing.T) {
	got, _ := lowerOne(t, "Email", typedef.String().Min(3).Max(64).Email())
	sc, ok := got.(*domain.StringConstraint)
	require.True(t, ok)
	require.NotNil(t, sc.MinLength)
	require.NotNil(t, sc.MaxLength)
	assert.Equal(t, 3, *sc.MinLength)
	assert.Equal(t, 64, *sc.MaxLength)
	assert.Equal(t, domain.FormatEmail, sc.Format)

	got, _ = lowerOne(t, "Port", typedef.Number().Int().Min(1).Max(65535))
	nc, ok := got.(*domain.NumberConstraint)
	require.True(t, ok)
	assert.True(t, nc.Integer)
	assert.Equal(t, 1.0, *nc.Min)
	assert.Equal(t, 65535.0, *nc.Max)
}

func TestLowerer_ObjectRequiredFlags(t *testing.T) {
	def := typedef.Object(
		typedef.Prop("x", typedef.Number()),
		typedef.Prop("y", typedef.Number()),
		typedef.Prop("label", typedef.String().Optional()),
		typedef.Prop("weight", typedef.Number().Default(1)),
	)
	got, warnings := lowerOne(t, "Point", def)
	assert.Empty(t, warnings)

	obj, ok := got.(*domain.Object)
	require.True(t, ok)
	require.Len(t, obj.Properties, 4)
	assert.Equal(t, []string{"x", "y"}, obj.RequiredNames())
	assert.IsType(t, &domain.Optional{}, obj.Properties[2].Type)
	def1, ok := obj.Properties[3].Type.(*domain.Default)
	require.True(t, ok)
	assert.Equal(t, 1, def1.Value)
}

func TestLowerer_EnumKeepsOrder(t *testing.T) {
	got, _ := lowerOne(t, "Status", typedef.Enum("pending", "active", "done"))
	assert.Equal(t, &domain.Enum{Values: []string{"pending", "active", "done"}}, got)
}

func TestLowerer_NullableBecomesUnion(t *testing.T) {
	got, _ := lowerOne(t, "N", typedef.String().Nullable())
	assert.Equal(t, &domain.Union{Variants: []domain.Node{
		&domain.Primitive{Type: domain.PrimitiveString},
		&domain.Primitive{Type: domain.PrimitiveNull},
	}}, got)
}

func TestLowerer_DiscriminatedUnion(t *testing.T) {
	def := typedef.DiscriminatedUnion("type",
		typedef.Object(typedef.Prop("type", typedef.Literal("a"))),
		typedef.Object(typedef.Prop("type", typedef.Literal("b"))),
	)
	got, _ := lowerOne(t, "Event", def)
	u, ok := got.(*domain.Union)
	require.True(t, ok)
	assert.Equal(t, "type", u.Discriminator)
	require.Len(t, u.Variants, 2)
	first := u.Variants[0].(*domain.Object)
	assert.Equal(t, &domain.Literal{Value: "a", Type: domain.PrimitiveString}, first.Properties[0].Type)
}

func TestLowerer_LiteralNumbersAreFloat(t *testing.T) {
	got, _ := lowerOne(t, "Two", typedef.Literal(2))
	assert.Equal(t, &domain.Literal{Value: 2.0, Type: domain.PrimitiveNumber}, got)
}

func TestLowerer_EffectsAreTransparent(t *testing.T) {
	got, _ := lowerOne(t, "R", typedef.String().Refine())
	assert.Equal(t, &domain.Primitive{Type: domain.PrimitiveString}, got)
}

func TestLowerer_UnsupportedDegradesToUnknown(t *testing.T) {
	def := typedef.Object(
		typedef.Prop("when", &typedef.Def{Kind: typedef.KindDate}),
		typedef.Prop("tags", typedef.Array(typedef.Any())),
	)
	got, warnings := lowerOne(t, "Weird", def)

	obj := got.(*domain.Object)
	assert.Equal(t, &domain.Unknown{Construct: "date"}, obj.Properties[0].Type)
	assert.Equal(t, &domain.Array{Item: &domain.Unknown{Construct: "any"}}, obj.Properties[1].Type)

	require.Len(t, warnings, 2)
	assert.Equal(t, `lowering: Weird.when: unsupported construct "date" lowered to unknown`, warnings[0].String())
	assert.Equal(t, "Weird.tags[]", warnings[1].Schema+warnings[1].Path)
}

func TestLowerer_LazyReferences(t *testing.T) {
	node := typedef.Object(typedef.Prop("value", typedef.Number()))
	tree := typedef.Object(
		typedef.Prop("root", typedef.Lazy(func() *typedef.Def { return node })),
		typedef.Prop("parent", typedef.LazyRef("Tree").Optional()),
	)
	got, warnings := lowerOne(t, "Tree", tree, domain.Entry{Name: "Node", Value: node})
	assert.Empty(t, warnings)

	obj := got.(*domain.Object)
	assert.Equal(t, &domain.Ref{Target: "Node"}, obj.Properties[0].Type)
	assert.Equal(t, &domain.Optional{Inner: &domain.Ref{Target: "Tree"}}, obj.Properties[1].Type)
}

func TestLowerer_SelfRecursionThroughGetter(t *testing.T) {
	var category *typedef.Def
	category = typedef.Object(
		typedef.Prop("name", typedef.String()),
		typedef.Prop("children", typedef.Array(typedef.Lazy(func() *typedef.Def { return category }))),
	)
	got, warnings := lowerOne(t, "Category", category)
	assert.Empty(t, warnings)
	obj := got.(*domain.Object)
	assert.Equal(t, &domain.Array{Item: &domain.Ref{Target: "Category"}}, obj.Properties[1].Type)
}

func TestLowerer_LazyFailures(t *testing.T) {
	def := typedef.Object(
		typedef.Prop("missing", typedef.LazyRef("Nope")),
		typedef.Prop("boom", typedef.Lazy(func() *typedef.Def { panic("kaboom") })),
	)
	got, warnings := lowerOne(t, "Broken", def)
	obj := got.(*domain.Object)
	assert.Equal(t, &domain.Ref{Target: "Nope"}, obj.Properties[0].Type)
	assert.Equal(t, &domain.Unknown{Construct: "lazy"}, obj.Properties[1].Type)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "kaboom")
}

func TestLowerer_DanglingLazyRefFailsValidation(t *testing.T) {
	tests := []struct {
		name string
		def  *typedef.Def
	}{
		{"property", typedef.Object(typedef.Prop("seller", typedef.LazyRef("Seller")))},
		{"optional property", typedef.Object(typedef.Prop("seller", typedef.LazyRef("Seller").Optional()))},
		{"array item", typedef.Array(typedef.LazyRef("Seller"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, _, err := usecase.NewExtractor(newTestLogger()).Extract(&domain.Registry{
				Name:    "market",
				Entries: []domain.Entry{{Name: "Listing", Value: tt.def}},
			})
			require.NoError(t, err)

			result := usecase.ValidateDefinitions(defs)
			assert.False(t, result.Valid)
			assert.Equal(t, []string{`Schema "Listing" references unknown schema "Seller"`}, result.Errors)
		})
	}
}
