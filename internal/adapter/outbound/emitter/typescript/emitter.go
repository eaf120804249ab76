// Package typescript renders schema definitions as a TypeScript SDK.
package typescript

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

// Output paths, relative to the package root.
const (
	PathTypes      = "src/types.ts"
	PathSchemas    = "src/schemas.ts"
	PathValidation = "src/validation.ts"
	PathClient     = "src/client.ts"
	PathIndex      = "src/index.ts"
	PathReadme     = "README.md"
)

const header = "// Code generated by " + codegen.Generator + ". DO NOT EDIT."

// Emitter implements usecase.Emitter for TypeScript.
type Emitter struct {
	logger *slog.Logger
}

// NewEmitter creates a new TypeScript emitter.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{logger: logger.With("component", "typescript_emitter")}
}

func (e *Emitter) Language() domain.Language { return domain.LanguageTypeScript }

// Emit renders defs. Constructs the emitter cannot represent become unknown and
// are reported as warnings; Emit itself does not fail on them.
func (e *Emitter) Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error) {
	cfg = cfg.WithDefaults()
	defs, dupWarnings := codegen.ResolveNames(domain.LanguageTypeScript, defs)
	r := &renderer{warnings: dupWarnings}

	types := r.types(defs)
	encoded, encWarnings := codegen.EncodeDescriptors(domain.LanguageTypeScript, defs)
	r.warnings = append(r.warnings, encWarnings...)

	manifest := Manifest(cfg)
	out := domain.GeneratedOutput{
		Language: domain.LanguageTypeScript,
		Files: map[string]string{
			PathTypes:      types,
			PathSchemas:    schemasModule(encoded),
			PathValidation: validationModule(defs),
			PathClient:     clientModule(cfg),
			PathIndex:      indexModule(),
			PathReadme:     readme(defs, cfg, manifest),
		},
		Manifest: manifest,
		Warnings: r.warnings,
	}
	e.logger.Debug("Rendered TypeScript SDK", slog.Int("schema_count", len(defs)), slog.Int("warning_count", len(r.warnings)))
	return out, nil
}

// Manifest returns the npm package identity for cfg.
func Manifest(cfg domain.GenerationConfig) domain.PackageManifest {
	cfg = cfg.WithDefaults()
	return domain.PackageManifest{
		Name:            fmt.Sprintf("@%s/%s-sdk", cfg.Organization, cfg.PackagePrefix),
		Version:         cfg.SDKVersion,
		ContractVersion: cfg.ContractVersion,
		Description:     fmt.Sprintf("TypeScript SDK for the %s contracts", cfg.PackagePrefix),
	}
}

type renderer struct {
	known    map[string]bool
	schema   string
	warnings []domain.Warning
}

func (r *renderer) types(defs []domain.SchemaDefinition) string {
	w := codegen.NewWriter("  ")
	w.Line(header)
	w.Line("/* eslint-disable */")
	r.known = make(map[string]bool, len(defs))
	for _, d := range defs {
		r.known[d.Name] = true
	}
	for _, d := range defs {
		r.schema = d.Name
		name := codegen.TSTypeName(d.Name)
		w.Blank()
		w.Linef("/** %s (%s) */", d.Name, categoryOf(d))
		switch n := d.IR.(type) {
		case *domain.Object:
			w.Block(fmt.Sprintf("export interface %s {", name), "}", func() {
				r.properties(w, n.Properties, "")
			})
		case *domain.Enum:
			w.Linef("export type %s = %s;", name, enumUnion(n.Values))
			w.Linef("export const %sValues = [%s] as const;", name, enumList(n.Values))
		default:
			w.Linef("export type %s = %s;", name, r.expr(d.IR, ""))
		}
	}
	return w.String()
}

func (r *renderer) properties(w *codegen.Writer, props []domain.Property, path string) {
	for _, p := range props {
		opt := ""
		if !p.Required {
			opt = "?"
		}
		w.Linef("%s%s: %s;", codegen.TSPropertyKey(p.Name), opt, r.expr(p.Type, path+"."+p.Name))
	}
}

// expr renders n as a type expression. Property optionality is rendered by the
// caller, so Optional and Default render their inner type.
func (r *renderer) expr(n domain.Node, path string) string {
	switch v := n.(type) {
	case *domain.Primitive:
		switch v.Type {
		case domain.PrimitiveString, domain.PrimitiveNumber, domain.PrimitiveBoolean, domain.PrimitiveNull:
			return string(v.Type)
		}
	case *domain.StringConstraint:
		return "string"
	case *domain.NumberConstraint:
		return "number"
	case *domain.Array:
		item := r.expr(v.Item, path+"[]")
		if isSimple(item) {
			return item + "[]"
		}
		return "Array<" + item + ">"
	case *domain.Object:
		if len(v.Properties) == 0 {
			return "Record<string, never>"
		}
		parts := make([]string, 0, len(v.Properties))
		for _, p := range v.Properties {
			opt := ""
			if !p.Required {
				opt = "?"
			}
			parts = append(parts, fmt.Sprintf("%s%s: %s", codegen.TSPropertyKey(p.Name), opt, r.expr(p.Type, path+"."+p.Name)))
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case *domain.Record:
		return "Record<string, " + r.expr(v.Value, path+"{}") + ">"
	case *domain.Enum:
		return enumUnion(v.Values)
	case *domain.Union:
		parts := make([]string, 0, len(v.Variants))
		for i, vr := range v.Variants {
			parts = append(parts, r.expr(vr, fmt.Sprintf("%s|%d", path, i)))
		}
		return strings.Join(parts, " | ")
	case *domain.Literal:
		return codegen.LiteralJSON(v.Value)
	case *domain.Optional:
		if path == "" {
			return r.expr(v.Inner, path) + " | undefined"
		}
		return r.expr(v.Inner, path)
	case *domain.Default:
		return r.expr(v.Inner, path)
	case *domain.Ref:
		if !r.known[v.Target] {
			r.warnings = append(r.warnings, codegen.EmissionWarning(domain.LanguageTypeScript, r.schema, path, fmt.Sprintf("reference to unknown schema %q rendered as unknown", v.Target)))
			return "unknown"
		}
		return codegen.TSTypeName(v.Target)
	case *domain.Unknown:
		return "unknown"
	}
	r.warnings = append(r.warnings, codegen.EmissionWarning(domain.LanguageTypeScript, r.schema, path, fmt.Sprintf("cannot represent %T, using unknown", n)))
	return "unknown"
}

func isSimple(expr string) bool {
	return !strings.ContainsAny(expr, " |&<{")
}

func enumUnion(values []string) string {
	if len(values) == 0 {
		return "never"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = codegen.LiteralJSON(v)
	}
	return strings.Join(parts, " | ")
}

func enumList(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = codegen.LiteralJSON(v)
	}
	return strings.Join(parts, ", ")
}

func categoryOf(d domain.SchemaDefinition) domain.Category {
	if d.Category == "" {
		return domain.CategoryTypes
	}
	return d.Category
}
