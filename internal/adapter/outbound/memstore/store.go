package memstore

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

// Store is an in-memory usecase.ResultRepository. It keeps the most recent
// generation result per key.
// NOTE: This implementation is not persistent and data will be lost on restart.
type Store struct {
	mu      sync.RWMutex
	results map[string]domain.GenerationResult
	logger  *slog.Logger
}

// NewStore creates a new in-memory result store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{
		results: make(map[string]domain.GenerationResult),
		logger:  logger.With("component", "mem_store"),
	}
}

// Save replaces the result stored under key.
func (s *Store) Save(ctx context.Context, key string, result domain.GenerationResult) error {
	if key == "" {
		s.logger.Warn("Refusing to save result with empty key")
		return fmt.Errorf("save failed: empty key")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results[key] = result
	s.logger.Info("Saved generation result",
		slog.String("key", key),
		slog.Int("schema_count", len(result.Definitions)),
		slog.Int("output_count", len(result.Outputs)),
		slog.Int("total_results", len(s.results)))
	return nil
}

// Find returns a copy of the result stored under key.
func (s *Store) Find(ctx context.Context, key string) (*domain.GenerationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[key]
	if !ok {
		s.logger.Warn("Generation result not found", slog.String("key", key))
		return nil, usecase.ErrResultNotFound
	}
	return &result, nil
}

// FindOutput returns one language output of the result stored under key.
func (s *Store) FindOutput(ctx context.Context, key string, lang domain.Language) (*domain.GeneratedOutput, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[key]
	if !ok {
		s.logger.Warn("Generation result not found", slog.String("key", key))
		return nil, usecase.ErrResultNotFound
	}
	out, ok := result.Outputs[lang]
	if !ok {
		s.logger.Warn("Output not found", slog.String("key", key), slog.String("language", string(lang)))
		return nil, usecase.ErrOutputNotFound
	}
	s.logger.Debug("Found output", slog.String("key", key), slog.String("language", string(lang)))
	return &out, nil
}

// Keys lists stored keys in sorted order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.results))
	for k := range s.results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
