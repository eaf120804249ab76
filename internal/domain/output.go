package domain

import (
	"fmt"
	"sort"
)

// Language identifies an emission target.
type Language string

const (
	LanguageTypeScript Language = "typescript"
	LanguagePython     Language = "python"
	LanguageGo         Language = "go"
)

// Languages lists every supported target in a fixed order.
func Languages() []Language {
	return []Language{LanguageTypeScript, LanguagePython, LanguageGo}
}

// ParseLanguage accepts the canonical names plus the common short forms.
func ParseLanguage(s string) (Language, error) {
	switch s {
	case "typescript", "ts":
		return LanguageTypeScript, nil
	case "python", "py":
		return LanguagePython, nil
	case "go", "golang":
		return LanguageGo, nil
	}
	return "", fmt.Errorf("unknown language %q", s)
}

// GenerationConfig is shared by every emitter. It only affects naming and manifests.
type GenerationConfig struct {
	OutputDir       string `json:"outputDir"`
	SDKVersion      string `json:"sdkVersion"`
	ContractVersion string `json:"contractVersion"`
	PackagePrefix   string `json:"packagePrefix"`
	Organization    string `json:"organization"`
}

// DefaultGenerationConfig returns the configuration used when nothing is set.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		OutputDir:       "generated",
		SDKVersion:      "0.1.0",
		ContractVersion: "1.0.0",
		PackagePrefix:   "controlplane",
		Organization:    "controlplane",
	}
}

// WithDefaults fills every blank field from DefaultGenerationConfig.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	d := DefaultGenerationConfig()
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.SDKVersion == "" {
		c.SDKVersion = d.SDKVersion
	}
	if c.ContractVersion == "" {
		c.ContractVersion = d.ContractVersion
	}
	if c.PackagePrefix == "" {
		c.PackagePrefix = d.PackagePrefix
	}
	if c.Organization == "" {
		c.Organization = d.Organization
	}
	return c
}

// PackageManifest describes the package identity of one emitted SDK.
type PackageManifest struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	ContractVersion string `json:"contractVersion"`
	Description     string `json:"description,omitempty"`
}

// GeneratedOutput is the virtual file set produced by one emitter.
type GeneratedOutput struct {
	Language Language          `json:"language"`
	Files    map[string]string `json:"files"`
	Manifest PackageManifest   `json:"packageManifest"`
	Warnings []Warning         `json:"warnings,omitempty"`
}

// Paths returns the file paths of o in sorted order.
func (o GeneratedOutput) Paths() []string {
	paths := make([]string, 0, len(o.Files))
	for p := range o.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ValidationResult is the outcome of registry validation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// GenerationResult bundles everything one generation run produced.
type GenerationResult struct {
	Definitions []SchemaDefinition           `json:"definitions"`
	Validation  ValidationResult             `json:"validation"`
	Outputs     map[Language]GeneratedOutput `json:"outputs"`
	Warnings    []Warning                    `json:"warnings,omitempty"`
}
