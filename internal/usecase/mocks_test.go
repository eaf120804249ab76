package usecase_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// MockRegistrySource is a mock implementation of the RegistrySource interface.
type MockRegistrySource struct {
	mock.Mock
}

func (m *MockRegistrySource) Load(ctx context.Context, cfg usecase.RegistrySourceConfig) (*domain.Registry, error) {
	args := m.Called(ctx, cfg)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*domain.Registry), args.Error(1)
}

// MockEmitter is a mock implementation of the Emitter interface.
type MockEmitter struct {
	mock.Mock
	lang domain.Language
}

func (m *MockEmitter) Language() domain.Language { return m.lang }

func (m *MockEmitter) Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error) {
	args := m.Called(defs, cfg)
	return args.Get(0).(domain.GeneratedOutput), args.Error(1)
}

// MockResultRepository is a mock implementation of the ResultRepository interface.
type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Save(ctx context.Context, key string, result domain.GenerationResult) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}

func (m *MockResultRepository) Find(ctx context.Context, key string) (*domain.GenerationResult, error) {
	args := m.Called(ctx, key)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*domain.GenerationResult), args.Error(1)
}

func (m *MockResultRepository) FindOutput(ctx context.Context, key string, lang domain.Language) (*domain.GeneratedOutput, error) {
	args := m.Called(ctx, key, lang)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.(*domain.GeneratedOutput), args.Error(1)
}

func (m *MockResultRepository) Keys(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]string), args.Error(1)
}

// MockOutputWriter is a mock implementation of the OutputWriter interface.
type MockOutputWriter struct {
	mock.Mock
}

func (m *MockOutputWriter) Write(ctx context.Context, outputDir string, outputs map[domain.Language]domain.GeneratedOutput) ([]string, error) {
	args := m.Called(ctx, outputDir, outputs)
	result := args.Get(0)
	if result == nil {
		return nil, args.Error(1)
	}
	return result.([]string), args.Error(1)
}

// stubEmitter returns a fixed single-file output for its language.
type stubEmitter struct {
	lang domain.Language
}

func (s stubEmitter) Language() domain.Language { return s.lang }

func (s stubEmitter) Emit(defs []domain.SchemaDefinition, cfg domain.GenerationConfig) (domain.GeneratedOutput, error) {
	files := map[string]string{}
	for _, d := range defs {
		files[d.Name+"."+string(s.lang)] = d.Name
	}
	return domain.GeneratedOutput{
		Language: s.lang,
		Files:    files,
		Manifest: domain.PackageManifest{Name: cfg.PackagePrefix + "-" + string(s.lang), Version: cfg.SDKVersion, ContractVersion: cfg.ContractVersion},
	}, nil
}

func stubEmitters() []usecase.Emitter {
	return []usecase.Emitter{
		stubEmitter{lang: domain.LanguageTypeScript},
		stubEmitter{lang: domain.LanguagePython},
		stubEmitter{lang: domain.LanguageGo},
	}
}
