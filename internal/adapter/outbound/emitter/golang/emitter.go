// Package golang renders schema definitions as a Go SDK package. Output is
// passed through go/format; a file that fails to format is kept as rendered
// and reported as a warning.
package golang

import (
	"fmt"
	"go/format"
	"log/slog"
	"sort"
	"strings"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

// Output paths, relative to the module root.
const (
	PathTypes      = "types.go"
	PathClient     = "client.go"
	PathValidation = "validation.go"
	PathSchemas    = "schemas.go"
	PathGoMod      = "go.mod"
	PathReadme     = "README.md"
)

const header = "// Code generated by " + codegen.Generator + ". DO NOT EDIT."

// Identifiers declared by the generated runtime. Schema types never take them.
var reservedNames = map[string]bool{
	"APIError": true, "Client": true, "ContractVersion": true, "DefaultHeaders": true,
	"Descriptor": true, "ErrRequired": true, "FieldError": true, "Issue": true, "NewClient": true,
	"Option": true, "PropertyDescriptor": true, "RequiredFields": true, "SDKVersion": true,
	"Schema": true, "SchemaNames": true, "Schemas": true, "ValidateByName": true,
	"ValidateJSON": true, "ValidationError": true, "Validators": true, "WithHTTPClient": true,
	"WithHeader": true,
}

// PackageName returns the Go package name for cfg, e.g. "controlplane".
func PackageName(cfg domain.GenerationConfig) string {
	var b strings.Builder
	for _, r := range strings.ToLower(cfg.WithDefaults().PackagePrefix) {
		if (r >= 'a' && r <= 'z') || (b.Len() > 0 && r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "sdk"
	}
	return b.String()
}

// ModulePath returns the module path of the generated SDK.
func ModulePath(cfg domain.GenerationConfig) string {
	cfg = cfg.WithDefaults()
	return fmt.Sprintf("github.com/%s/%s-sdk-go", cfg.Organization, cfg.PackagePrefix)
}

// Manifest returns the module identity for cfg.
func Manifest(cfg domain.GenerationConfig) domain.PackageManifest {
	cfg = cfg.WithDefaults()
	return domain.PackageManifest{
		Name:            ModulePath(cfg),
		Version:         cfg.SDKVersion,
		ContractVersion: cfg.ContractVersion,
		Description:     fmt.Sprintf("Go SDK for the %s contracts", cfg.PackagePrefix),
	}
}

// Emitter implements usecase.Emitter for Go.
type Emitter struct {
	logger *slog.Logger
}

// NewEmitter creates a new Go emitter.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{logger: logger.With("component", "go_emitter")}
}

func (e *Emitter) Language() domain.Language { return domain.LanguageGo }

// Emit renders defs into a single Go package.
func (e *Emitter) Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error) {
	cfg = cfg.WithDefaults()
	defs, warnings := codegen.ResolveNames(domain.LanguageGo, defs)
	pkg := PackageName(cfg)

	r := newRenderer(defs)
	types := r.render(pkg)
	warnings = append(warnings, r.warnings...)
	encoded, encWarnings := codegen.EncodeDescriptors(domain.LanguageGo, defs)
	warnings = append(warnings, encWarnings...)

	sources := map[string]string{
		PathTypes:      types,
		PathValidation: validationFile(pkg, defs, r.structs),
		PathSchemas:    schemasFile(pkg, encoded),
		PathClient:     clientFile(pkg, cfg),
	}
	files := make(map[string]string, len(sources)+2)
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		formatted, err := format.Source([]byte(sources[p]))
		if err != nil {
			e.logger.Warn("Generated Go source failed to format", slog.String("file", p), slog.Any("error", err))
			warnings = append(warnings, codegen.EmissionWarning(domain.LanguageGo, "", "", fmt.Sprintf("%s left unformatted: %v", p, err)))
			files[p] = sources[p]
			continue
		}
		files[p] = string(formatted)
	}

	manifest := Manifest(cfg)
	files[PathGoMod] = fmt.Sprintf("module %s\n\ngo 1.21\n", manifest.Name)
	files[PathReadme] = readme(defs, r.names, cfg, manifest, pkg)

	e.logger.Debug("Rendered Go SDK", slog.Int("schema_count", len(defs)), slog.Int("warning_count", len(warnings)))
	return domain.GeneratedOutput{
		Language: domain.LanguageGo,
		Files:    files,
		Manifest: manifest,
		Warnings: warnings,
	}, nil
}
