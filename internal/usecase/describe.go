package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/contractgen/internal/domain"
)

// SchemaSummary is the listing form of one extracted schema.
type SchemaSummary struct {
	Name     string          `json:"name"`
	Category domain.Category `json:"category"`
	Kind     domain.NodeKind `json:"kind"`
	Refs     []string        `json:"refs,omitempty"`
}

// DescribeUseCase provides read access to stored generation results.
type DescribeUseCase struct {
	repository ResultRepository
	logger     *slog.Logger
}

// NewDescribeUseCase creates a new DescribeUseCase.
func NewDescribeUseCase(repository ResultRepository, logger *slog.Logger) *DescribeUseCase {
	return &DescribeUseCase{
		repository: repository,
		logger:     logger.With("usecase", "Describe"),
	}
}

// List returns summaries of every schema stored under key, in registry order.
func (uc *DescribeUseCase) List(ctx context.Context, key string) ([]SchemaSummary, error) {
	result, err := uc.repository.Find(ctx, key)
	if err != nil {
		uc.logger.Error("Failed to find generation result", slog.String("key", key), slog.Any("error", err))
		return nil, fmt.Errorf("failed to find generation result %q: %w", key, err)
	}
	summaries := make([]SchemaSummary, 0, len(result.Definitions))
	for _, d := range result.Definitions {
		s := SchemaSummary{Name: d.Name, Category: d.Category}
		if d.IR != nil {
			s.Kind = d.IR.Kind()
			s.Refs = domain.Refs(d.IR)
		}
		summaries = append(summaries, s)
	}
	uc.logger.Info("Listed schemas", slog.String("key", key), slog.Int("count", len(summaries)))
	return summaries, nil
}

// Describe returns the IR descriptor of the named schema stored under key.
func (uc *DescribeUseCase) Describe(ctx context.Context, key, name string) (*domain.Descriptor, error) {
	result, err := uc.repository.Find(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find generation result %q: %w", key, err)
	}
	for _, d := range result.Definitions {
		if d.Name != name {
			continue
		}
		desc, err := domain.Describe(d.IR)
		if err != nil {
			uc.logger.Error("Failed to describe schema", slog.String("schema", name), slog.Any("error", err))
			return nil, fmt.Errorf("failed to describe schema %q: %w", name, err)
		}
		return desc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, name)
}

// Output returns one language output stored under key.
func (uc *DescribeUseCase) Output(ctx context.Context, key string, lang domain.Language) (*domain.GeneratedOutput, error) {
	out, err := uc.repository.FindOutput(ctx, key, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s output of %q: %w", lang, key, err)
	}
	return out, nil
}

// Keys lists the keys of stored results.
func (uc *DescribeUseCase) Keys(ctx context.Context) ([]string, error) {
	keys, err := uc.repository.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation results: %w", err)
	}
	return keys, nil
}
