package golang_test

import (
	"go/parser"
	"go/token"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/adapter/outbound/emitter/golang"
	"github.com/i2y/contractgen/internal/domain"
)

func newEmitter() *golang.Emitter {
	return golang.NewEmitter(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func num() domain.Node { return &domain.Primitive{Type: domain.PrimitiveNumber} }
func str() domain.Node { return &domain.Primitive{Type: domain.PrimitiveString} }

// squash collapses whitespace so assertions do not depend on gofmt alignment.
func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func requireParses(t *testing.T, out domain.GeneratedOutput) {
	t.Helper()
	for _, p := range out.Paths() {
		if !strings.HasSuffix(p, ".go") {
			continue
		}
		_, err := parser.ParseFile(token.NewFileSet(), p, out.Files[p], parser.AllErrors)
		require.NoError(t, err, p)
	}
}

func TestEmitter_Point(t *testing.T) {
	defs := []domain.SchemaDefinition{{
		Name:     "Point",
		Category: domain.CategoryTypes,
		IR: &domain.Object{Properties: []domain.Property{
			{Name: "x", Type: num(), Required: true},
			{Name: "y", Type: num(), Required: true},
			{Name: "label", Type: &domain.Optional{Inner: str()}},
		}},
	}}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)

	assert.Equal(t, domain.LanguageGo, out.Language)
	assert.Equal(t, []string{"README.md", "client.go", "go.mod", "schemas.go", "types.go", "validation.go"}, out.Paths())
	assert.Empty(t, out.Warnings)
	requireParses(t, out)

	types := squash(out.Files[golang.PathTypes])
	assert.Contains(t, types, "package controlplane")
	assert.Contains(t, types, "type Point struct { X float64 `json:\"x\"` Y float64 `json:\"y\"` Label *string `json:\"label,omitempty\"` }")
	assert.NotContains(t, types, "import")

	validation := squash(out.Files[golang.PathValidation])
	assert.Contains(t, validation, "func (v *Point) Validate() error {")
	assert.Contains(t, validation, `"Point": {"x", "y"},`)
	assert.Contains(t, validation, `"Point": func(data []byte) error { return ValidateJSON("Point", data) },`)

	schemas := out.Files[golang.PathSchemas]
	assert.Contains(t, schemas, `var SchemaNames = []string{`)
	assert.Contains(t, schemas, `"Point": "{\"kind\":\"object\",\"properties\":[{\"name\":\"x\",\"required\":true,\"type\":{\"kind\":\"number\"}}`)
}

func TestEmitter_Manifest(t *testing.T) {
	out, err := newEmitter().Emit(nil, domain.GenerationConfig{Organization: "acme", PackagePrefix: "billing", SDKVersion: "2.0.0", ContractVersion: "3.1.0"})
	require.NoError(t, err)
	requireParses(t, out)

	assert.Equal(t, "github.com/acme/billing-sdk-go", out.Manifest.Name)
	assert.Equal(t, "2.0.0", out.Manifest.Version)
	assert.Equal(t, "module github.com/acme/billing-sdk-go\n\ngo 1.21\n", out.Files[golang.PathGoMod])
	assert.Contains(t, out.Files[golang.PathTypes], "package billing")
	client := squash(out.Files[golang.PathClient])
	assert.Contains(t, client, `ContractVersion = "3.1.0"`)
	assert.Contains(t, client, `h.Set("X-Contract-Version", ContractVersion)`)
	assert.Contains(t, out.Files[golang.PathReadme], "go get github.com/acme/billing-sdk-go@v2.0.0")
	assert.Contains(t, out.Files[golang.PathReadme], "No schemas.")
}

func TestPackageName(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"billing", "billing"},
		{"Control-Plane", "controlplane"},
		{"2fa-api", "faapi"},
		{"---", "sdk"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			assert.Equal(t, tt.want, golang.PackageName(domain.GenerationConfig{PackagePrefix: tt.prefix}))
		})
	}
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
	requireParses(t, out)

	types := squash(out.Files[golang.PathTypes])
	for _, decl := range []string{
		"type ClientSchema2 struct { ID string `json:\"id\"` }",
		"type ClientSchema struct { ID string `json:\"id\"` }",
		"type Optional struct { ID string `json:\"id\"` }",
		"type Holder struct { Client *ClientSchema2 `json:\"client\"` Other *ClientSchema `json:\"other\"` Opt *Optional `json:\"opt,omitempty\"` }",
	} {
		assert.Contains(t, types, decl)
	}
	assert.NotContains(t, types, "type Client struct")

	readme := out.Files[golang.PathReadme]
	assert.Contains(t, readme, "- `ClientSchema2` (types)")
	assert.Contains(t, readme, "- `ClientSchema` (types)")
}

// Only required string fields are presence-checked; optional ones never are.
func TestEmitter_RequiredStringFields(t *testing.T) {
	required := []string{"tenantId", "name", "region", "owner", "plan", "createdBy", "status"}
	optional := []string{"description", "notes", "website", "phone", "fax"}
	obj := &domain.Object{}
	for _, n := range required {
		obj.Properties = append(obj.Properties, domain.Property{Name: n, Type: str(), Required: true})
	}
	for _, n := range optional {
		obj.Properties = append(obj.Properties, domain.Property{Name: n, Type: &domain.Optional{Inner: str()}})
	}
	out, err := newEmitter().Emit([]domain.SchemaDefinition{{Name: "Tenant", IR: obj}}, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	requireParses(t, out)

	validation := out.Files[golang.PathValidation]
	checks := regexp.MustCompile(`if v\.(\w+) == "" \{`).FindAllStringSubmatch(validation, -1)
	var fields []string
	for _, m := range checks {
		fields = append(fields, m[1])
	}
	assert.Equal(t, []string{"TenantID", "Name", "Region", "Owner", "Plan", "CreatedBy", "Status"}, fields)
	for _, f := range []string{"Description", "Notes", "Website", "Phone", "Fax"} {
		assert.NotContains(t, validation, "v."+f)
	}
	assert.Contains(t, squash(validation), `"Tenant": {"tenantId", "name", "region", "owner", "plan", "createdBy", "status"},`)
}

func TestEmitter_NestedValidation(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Customer", IR: &domain.Object{Properties: []domain.Property{{Name: "id", Type: str(), Required: true}}}},
		{Name: "Item", IR: &domain.Object{Properties: []domain.Property{{Name: "sku", Type: str(), Required: true}}}},
		{Name: "Order", IR: &domain.Object{Properties: []domain.Property{
			{Name: "customer", Type: &domain.Ref{Target: "Customer"}, Required: true},
			{Name: "items", Type: &domain.Array{Item: &domain.Ref{Target: "Item"}}, Required: true},
			{Name: "meta", Type: &domain.Optional{Inner: &domain.Object{Properties: []domain.Property{{Name: "source", Type: str(), Required: true}}}}},
		}}},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	requireParses(t, out)

	types := squash(out.Files[golang.PathTypes])
	assert.Contains(t, types, "type Order struct { Customer *Customer `json:\"customer\"` Items []*Item `json:\"items\"` Meta *OrderMeta `json:\"meta,omitempty\"` }")
	assert.Contains(t, types, "type OrderMeta struct { Source string `json:\"source\"` }")
	assert.Less(t, strings.Index(types, "type Order struct"), strings.Index(types, "type OrderMeta struct"))

	validation := squash(out.Files[golang.PathValidation])
	assert.Contains(t, validation, "if v.Customer == nil {")
	assert.Contains(t, validation, "} else if err := v.Customer.Validate(); err != nil {")
	assert.Contains(t, validation, "for i := range v.Items { if err := v.Items[i].Validate(); err != nil {")
	assert.Contains(t, validation, `errs = append(errs, &FieldError{Schema: "Order", Field: fmt.Sprintf("%s[%d]", "items", i), Err: err})`)
	assert.Contains(t, validation, "if err := v.Meta.Validate(); err != nil {")
	assert.Contains(t, validation, "func (v *OrderMeta) Validate() error {")
}

func TestEmitter_TypeMapping(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Point", IR: &domain.Object{Properties: []domain.Property{{Name: "x", Type: num(), Required: true}}}},
		{Name: "Status", IR: &domain.Enum{Values: []string{"pending", "active", "done"}}},
		{Name: "Tags", IR: &domain.Record{Value: &domain.Array{Item: str()}}},
		{Name: "Shape", IR: &domain.Union{Variants: []domain.Node{&domain.Ref{Target: "Point"}, &domain.Primitive{Type: domain.PrimitiveNull}}}},
		{Name: "Anything", IR: &domain.Unknown{Construct: "date"}},
		{Name: "Settings", IR: &domain.Object{Properties: []domain.Property{
			{Name: "retries", Type: &domain.Default{Inner: &domain.NumberConstraint{Integer: true}, Value: 3}},
			{Name: "labels", Type: &domain.Default{Inner: &domain.Array{Item: str()}, Value: []any{}}},
			{Name: "status", Type: &domain.Optional{Inner: &domain.Ref{Target: "Status"}}},
		}}},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	requireParses(t, out)

	types := squash(out.Files[golang.PathTypes])
	assert.Contains(t, types, `const ( StatusPending Status = "pending" StatusActive Status = "active" StatusDone Status = "done" )`)
	assert.Contains(t, types, "var StatusValues = []Status{StatusPending, StatusActive, StatusDone}")
	assert.Contains(t, types, "type Tags map[string][]string")
	assert.Contains(t, types, "type Shape = Point")
	assert.Contains(t, types, "type Anything = any")
	assert.Contains(t, types, "// Default: 3 Retries *int64 `json:\"retries,omitempty\"`")
	assert.Contains(t, types, "func (v *Settings) ApplyDefaults() {")
	assert.Contains(t, types, "if v.Retries == nil { d := int64(3) v.Retries = &d }")
	assert.Contains(t, types, "if v.Labels == nil { v.Labels = []string{} }")
	assert.Contains(t, types, "Status *Status `json:\"status,omitempty\"`")
}

func TestEmitter_IntegerDefaults(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    string
		warning string
	}{
		{name: "small", value: 3, want: "d := int64(3)"},
		{name: "large but exact", value: float64(1e18), want: "d := int64(1000000000000000000)"},
		{name: "negative", value: -42.0, want: "d := int64(-42)"},
		{name: "above int64", value: 1e21, warning: "default 1e+21 cannot be represented as int64, skipped"},
		{name: "at two to the 63", value: float64(1 << 63), warning: "cannot be represented as int64"},
		{name: "below int64", value: -1e19, warning: "cannot be represented as int64"},
		{name: "fractional", value: 2.5, warning: "default 2.5 cannot be represented as int64, skipped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs := []domain.SchemaDefinition{{Name: "Settings", IR: &domain.Object{Properties: []domain.Property{
				{Name: "retries", Type: &domain.Default{Inner: &domain.NumberConstraint{Integer: true}, Value: tt.value}},
			}}}}
			out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
			require.NoError(t, err)
			requireParses(t, out)

			types := squash(out.Files[golang.PathTypes])
			if tt.warning == "" {
				assert.Empty(t, out.Warnings)
				assert.Contains(t, types, tt.want)
				return
			}
			assert.NotContains(t, types, "int64(")
			assert.NotContains(t, types, "ApplyDefaults")
			require.Len(t, out.Warnings, 1)
			assert.Equal(t, domain.StageEmission, out.Warnings[0].Stage)
			assert.Equal(t, "Settings", out.Warnings[0].Schema)
			assert.Equal(t, ".retries", out.Warnings[0].Path)
			assert.Contains(t, out.Warnings[0].Message, tt.warning)
		})
	}
}

func TestEmitter_Unions(t *testing.T) {
	tag := func(v string) domain.Property {
		return domain.Property{Name: "type", Type: &domain.Literal{Value: v, Type: domain.PrimitiveString}, Required: true}
	}
	defs := []domain.SchemaDefinition{
		{Name: "Created", IR: &domain.Object{Properties: []domain.Property{tag("created"), {Name: "at", Type: str(), Required: true}}}},
		{Name: "Deleted", IR: &domain.Object{Properties: []domain.Property{tag("deleted")}}},
		{Name: "Event", IR: &domain.Union{Discriminator: "type", Variants: []domain.Node{&domain.Ref{Target: "Created"}, &domain.Ref{Target: "Deleted"}}}},
		{Name: "Value", IR: &domain.Union{Variants: []domain.Node{str(), num(), &domain.Primitive{Type: domain.PrimitiveNull}}}},
		{Name: "Holder", IR: &domain.Object{Properties: []domain.Property{
			{Name: "ref", Type: &domain.Ref{Target: "Missing"}, Required: true},
		}}},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	requireParses(t, out)

	types := squash(out.Files[golang.PathTypes])
	assert.Contains(t, types, `import ( "bytes" "encoding/json" "fmt" )`)
	assert.Contains(t, types, "type Event struct { Created *Created Deleted *Deleted }")
	assert.Contains(t, types, "func (u Event) MarshalJSON() ([]byte, error) {")
	assert.Contains(t, types, "func (u *Event) UnmarshalJSON(data []byte) error {")
	assert.Contains(t, types, `case "\"created\"": return json.Unmarshal(data, &u.Created)`)
	assert.Contains(t, types, "type Value struct { Variant1 *string Variant2 *float64 }")
	assert.Contains(t, types, "if decodeStrict(data, &v) == nil { u.Variant1 = &v return nil }")
	assert.Contains(t, types, "func decodeStrict(data []byte, v any) error {")
	assert.Contains(t, types, "Ref any `json:\"ref\"`")

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "Holder", out.Warnings[0].Schema)
	assert.Equal(t, ".ref", out.Warnings[0].Path)
	assert.Contains(t, out.Warnings[0].Message, `go: reference to unknown schema "Missing"`)
}

func TestEmitter_DuplicateNames(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "Point", IR: num()},
		{Name: "point", IR: str()},
	}
	out, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	requireParses(t, out)
	assert.Contains(t, out.Files[golang.PathTypes], "type Point float64")
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, "point", out.Warnings[0].Schema)
}

func TestEmitter_Deterministic(t *testing.T) {
	defs := []domain.SchemaDefinition{
		{Name: "B", IR: &domain.Object{Properties: []domain.Property{{Name: "z", Type: str(), Required: true}, {Name: "a", Type: num(), Required: true}}}},
		{Name: "A", IR: &domain.Enum{Values: []string{"y", "x"}}},
	}
	first, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	second, err := newEmitter().Emit(defs, domain.GenerationConfig{})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	types := first.Files[golang.PathTypes]
	assert.Less(t, strings.Index(types, "type B struct"), strings.Index(types, "type A string"))
}
