package file

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

// Source implements usecase.RegistrySource for registry documents.
type Source struct {
	reader *location.Reader
	logger *slog.Logger
}

// NewSource creates a new document registry source.
func NewSource(reader *location.Reader, logger *slog.Logger) *Source {
	return &Source{
		reader: reader,
		logger: logger.With("component", "file_registry"),
	}
}

// Load reads and parses the document at config.Location.
func (s *Source) Load(ctx context.Context, config usecase.RegistrySourceConfig) (*domain.Registry, error) {
	log := s.logger.With(slog.String("location", config.Location))
	log.Info("Loading registry document")

	data, err := s.reader.Read(ctx, config.Location)
	if err != nil {
		return nil, err
	}
	reg, err := Parse(config.Location, data)
	if err != nil {
		log.Error("Failed to parse registry document", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse %s: %w", config.Location, err)
	}
	log.Info("Loaded registry document", slog.String("registry", reg.Name), slog.Int("entry_count", len(reg.Entries)))
	return reg, nil
}
