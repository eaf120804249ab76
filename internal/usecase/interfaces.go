package usecase

import (
	"context"
	"errors"

	"github.com/i2y/contractgen/internal/domain"
)

// Standard errors returned by use cases and adapters.
var (
	// ErrNilRegistry is the only condition that aborts extraction.
	ErrNilRegistry         = errors.New("registry is nil")
	ErrValidationFailed    = errors.New("registry validation failed")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrNoRegistrySource    = errors.New("no registry source available")
	ErrResultNotFound      = errors.New("generation result not found")
	ErrOutputNotFound      = errors.New("output not found")
	ErrSchemaNotFound      = errors.New("schema not found")
)

// --- Registry Source Related ---

// RegistrySourceConfig describes where a registry is loaded from.
type RegistrySourceConfig struct {
	Location string
	Type     domain.SourceType
	// Server is the gRPC endpoint for reflection sources.
	Server string
}

// RegistrySource loads a schema registry from one kind of source.
type RegistrySource interface {
	Load(ctx context.Context, config RegistrySourceConfig) (*domain.Registry, error)
}

// --- Emission Related ---

// Emitter renders validated schema definitions for one target language.
// Implementations are pure: no I/O and no shared mutable state, so several
// emitters may run concurrently over the same definitions.
type Emitter interface {
	Language() domain.Language
	Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error)
}

// OutputWriter persists packaged outputs and returns the written paths.
type OutputWriter interface {
	Write(ctx context.Context, outputDir string, outputs map[domain.Language]domain.GeneratedOutput) ([]string, error)
}

// ResultRepository stores generation results keyed by registry name.
type ResultRepository interface {
	// Save replaces the result stored under key.
	Save(ctx context.Context, key string, result domain.GenerationResult) error

	// Find returns the result stored under key.
	Find(ctx context.Context, key string) (*domain.GenerationResult, error)

	// FindOutput returns one language output of the result stored under key.
	FindOutput(ctx context.Context, key string, lang domain.Language) (*domain.GeneratedOutput, error)

	// Keys lists stored keys in sorted order.
	Keys(ctx context.Context) ([]string, error)
}
