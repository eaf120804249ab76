// Package python renders schema definitions as a Python SDK built on pydantic v2
// and httpx.
package python

import (
	"fmt"
	"log/slog"

	"github.com/i2y/contractgen/internal/codegen"
	"github.com/i2y/contractgen/internal/domain"
)

const header = "# Code generated by " + codegen.Generator + ". DO NOT EDIT."

// Emitter implements usecase.Emitter for Python.
type Emitter struct {
	logger *slog.Logger
}

// NewEmitter creates a new Python emitter.
func NewEmitter(logger *slog.Logger) *Emitter {
	return &Emitter{logger: logger.With("component", "python_emitter")}
}

func (e *Emitter) Language() domain.Language { return domain.LanguagePython }

// ModuleDir returns the import package directory, e.g. "controlplane_sdk".
func ModuleDir(cfg domain.GenerationConfig) string {
	return codegen.SnakeCase(cfg.WithDefaults().PackagePrefix) + "_sdk"
}

// Manifest returns the distribution identity for cfg.
func Manifest(cfg domain.GenerationConfig) domain.PackageManifest {
	cfg = cfg.WithDefaults()
	return domain.PackageManifest{
		Name:            cfg.PackagePrefix + "-sdk",
		Version:         cfg.SDKVersion,
		ContractVersion: cfg.ContractVersion,
		Description:     fmt.Sprintf("Python SDK for the %s contracts", cfg.PackagePrefix),
	}
}

// Emit renders defs into the package directory plus pyproject.toml.
func (e *Emitter) Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error) {
	cfg = cfg.WithDefaults()
	defs, warnings := codegen.ResolveNames(domain.LanguagePython, defs)

	m := newModels(defs)
	models := m.render()
	warnings = append(warnings, m.warnings...)
	encoded, encWarnings := codegen.EncodeDescriptors(domain.LanguagePython, defs)
	warnings = append(warnings, encWarnings...)

	dir := ModuleDir(cfg)
	manifest := Manifest(cfg)
	out := domain.GeneratedOutput{
		Language: domain.LanguagePython,
		Files: map[string]string{
			dir + "/models.py":     models,
			dir + "/schemas.py":    schemasModule(encoded),
			dir + "/validation.py": validationModule(defs),
			dir + "/client.py":     clientModule(cfg),
			dir + "/__init__.py":   initModule(),
			"pyproject.toml":       pyproject(cfg, manifest, dir),
			"README.md":            readme(defs, cfg, manifest, dir),
		},
		Manifest: manifest,
		Warnings: warnings,
	}
	e.logger.Debug("Rendered Python SDK", slog.Int("schema_count", len(defs)), slog.Int("warning_count", len(warnings)))
	return out, nil
}
