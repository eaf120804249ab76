package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

func str() domain.Node { return &domain.Primitive{Type: domain.PrimitiveString} }

func TestValidateDefinitions(t *testing.T) {
	hi := 2
	lo := 5

	tests := []struct {
		name       string
		defs       []domain.SchemaDefinition
		wantValid  bool
		wantErrors []string
	}{
		{
			name:       "empty set is valid",
			defs:       nil,
			wantValid:  true,
			wantErrors: []string{},
		},
		{
			name: "resolved references",
			defs: []domain.SchemaDefinition{
				{Name: "User", IR: &domain.Object{Properties: []domain.Property{
					{Name: "address", Type: &domain.Ref{Target: "Address"}, Required: true},
				}}},
				{Name: "Address", IR: str()},
			},
			wantValid:  true,
			wantErrors: []string{},
		},
		{
			name: "duplicate names aggregate into one error",
			defs: []domain.SchemaDefinition{
				{Name: "Test", IR: str()},
				{Name: "Other", IR: str()},
				{Name: "Test", IR: str()},
				{Name: "Other", IR: str()},
				{Name: "Test", IR: str()},
			},
			wantValid:  false,
			wantErrors: []string{"Duplicate schema names found: Test, Other"},
		},
		{
			name: "dangling reference",
			defs: []domain.SchemaDefinition{
				{Name: "Order", IR: &domain.Array{Item: &domain.Ref{Target: "LineItem"}}},
			},
			wantValid:  false,
			wantErrors: []string{`Schema "Order" references unknown schema "LineItem"`},
		},
		{
			name: "empty name",
			defs: []domain.SchemaDefinition{
				{Name: "", IR: str()},
			},
			wantValid:  false,
			wantErrors: []string{"Schema at index 0 has an empty name"},
		},
		{
			name: "malformed IR is reported per entry",
			defs: []domain.SchemaDefinition{
				{Name: "Nil", IR: nil},
				{Name: "Bounds", IR: &domain.StringConstraint{MinLength: &lo, MaxLength: &hi}},
				{Name: "Flags", IR: &domain.Object{Properties: []domain.Property{
					{Name: "a", Type: &domain.Optional{Inner: str()}, Required: true},
				}}},
			},
			wantValid: false,
			wantErrors: []string{
				`Schema "Nil" has malformed IR: node is nil`,
				`Schema "Bounds" has malformed IR: minLength 5 exceeds maxLength 2`,
				`Schema "Flags" has malformed IR: property "a": required flag disagrees with its type`,
			},
		},
		{
			name: "malformed entries skip reference checks",
			defs: []domain.SchemaDefinition{
				{Name: "Bad", IR: &domain.Union{Variants: []domain.Node{&domain.Ref{Target: "Gone"}, nil}}},
			},
			wantValid:  false,
			wantErrors: []string{`Schema "Bad" has malformed IR: union variant 1: node is nil`},
		},
		{
			name: "enum with repeated values",
			defs: []domain.SchemaDefinition{
				{Name: "Color", IR: &domain.Enum{Values: []string{"red", "red"}}},
			},
			wantValid:  false,
			wantErrors: []string{`Schema "Color" has malformed IR: enum value "red" is declared twice`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.ValidateDefinitions(tt.defs)
			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantErrors, got.Errors)
		})
	}
}
