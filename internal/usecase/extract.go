package usecase

import (
	"fmt"
	"log/slog"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
)

// Extractor walks a registry and lowers every type-definition export into a
// SchemaDefinition.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a new Extractor.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		logger: logger.With("usecase", "Extract"),
	}
}

// Extract returns the schema definitions of reg in declaration order together
// with every extraction and lowering warning. Entries that are not type
// definitions are skipped with a warning; only a nil registry is an error.
func (e *Extractor) Extract(reg *domain.Registry) ([]domain.SchemaDefinition, []domain.Warning, error) {
	if reg == nil {
		return nil, nil, ErrNilRegistry
	}
	log := e.logger.With(slog.String("registry", reg.Name))
	log.Debug("Extracting schema definitions", slog.Int("entry_count", len(reg.Entries)))

	lowerer := NewLowerer(reg.Entries)
	defs := make([]domain.SchemaDefinition, 0, len(reg.Entries))
	var warnings []domain.Warning

	for _, entry := range reg.Entries {
		d, ok := entry.Value.(*typedef.Def)
		if !ok || d == nil {
			w := domain.Warning{
				Stage:   domain.StageExtraction,
				Schema:  entry.Name,
				Message: fmt.Sprintf("export is not a type definition (%T), skipped", entry.Value),
			}
			log.Warn("Skipping registry entry", slog.String("schema", entry.Name), slog.String("reason", w.Message))
			warnings = append(warnings, w)
			continue
		}

		category := entry.Category
		if category == "" {
			category = domain.CategoryTypes
		} else if !category.Valid() {
			warnings = append(warnings, domain.Warning{
				Stage:   domain.StageExtraction,
				Schema:  entry.Name,
				Message: fmt.Sprintf("unknown category %q, using %q", category, domain.CategoryTypes),
			})
			category = domain.CategoryTypes
		}

		node, lowerWarnings, err := lowerSafely(lowerer, entry.Name, d)
		warnings = append(warnings, lowerWarnings...)
		if err != nil {
			log.Warn("Skipping schema that failed to lower", slog.String("schema", entry.Name), slog.Any("error", err))
			warnings = append(warnings, domain.Warning{
				Stage:   domain.StageExtraction,
				Schema:  entry.Name,
				Message: fmt.Sprintf("lowering failed, skipped: %v", err),
			})
			continue
		}
		for _, w := range lowerWarnings {
			log.Warn("Lowering degraded a construct", slog.String("warning", w.String()))
		}
		defs = append(defs, domain.SchemaDefinition{Name: entry.Name, Category: category, IR: node})
	}

	log.Info("Extracted schema definitions", slog.Int("schema_count", len(defs)), slog.Int("warning_count", len(warnings)))
	return defs, warnings, nil
}

func lowerSafely(l *Lowerer, name string, d *typedef.Def) (node domain.Node, warnings []domain.Warning, err error) {
	defer func() {
		if r := recover(); r != nil {
			node, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	node, warnings = l.Lower(name, d)
	return node, warnings, nil
}
