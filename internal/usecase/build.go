package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/i2y/contractgen/internal/domain"
)

// BuildRequest names a registry source and the options of one SDK build.
type BuildRequest struct {
	Source  RegistrySourceConfig
	Config  domain.GenerationConfig
	Options GenerateOptions
	// DryRun skips writing outputs to disk; the result is still stored.
	DryRun bool
}

// BuildReport is the outcome of a build.
type BuildReport struct {
	Key     string
	Result  *domain.GenerationResult
	Written []string
}

// BuildSDKUseCase orchestrates loading a registry, generating SDKs, storing the
// result and writing the packaged outputs.
type BuildSDKUseCase struct {
	sources    map[domain.SourceType]RegistrySource
	generator  *GenerateUseCase
	repository ResultRepository
	writer     OutputWriter
	logger     *slog.Logger
}

// NewBuildSDKUseCase creates a new BuildSDKUseCase.
// It requires registry sources keyed by source type, the generation pipeline,
// a result repository and an output writer. writer may be nil when outputs are
// only served from the repository.
func NewBuildSDKUseCase(
	sources map[domain.SourceType]RegistrySource,
	generator *GenerateUseCase,
	repository ResultRepository,
	writer OutputWriter,
	logger *slog.Logger,
) *BuildSDKUseCase {
	return &BuildSDKUseCase{
		sources:    sources,
		generator:  generator,
		repository: repository,
		writer:     writer,
		logger:     logger.With("usecase", "BuildSDK"),
	}
}

// Execute loads the registry described by req.Source and runs the pipeline on it.
// See BuildRegistry for the remaining steps.
func (uc *BuildSDKUseCase) Execute(ctx context.Context, req BuildRequest) (*BuildReport, error) {
	log := uc.logger.With(slog.String("source", req.Source.Location), slog.String("source_type", string(req.Source.Type)))
	log.Info("Starting SDK build")

	source, ok := uc.sources[req.Source.Type]
	if !ok {
		log.Error("No registry source available for type")
		return nil, fmt.Errorf("%w: %s", ErrNoRegistrySource, req.Source.Type)
	}

	reg, err := source.Load(ctx, req.Source)
	if err != nil {
		log.Error("Failed to load registry", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load registry from %s: %w", req.Source.Location, err)
	}
	log.Info("Registry loaded", slog.String("registry", reg.Name), slog.Int("entry_count", len(reg.Entries)))

	return uc.BuildRegistry(ctx, reg, req)
}

// BuildRegistry generates SDKs for an already loaded registry, saves the result
// under the registry name and writes the outputs unless req.DryRun is set. A
// strict validation failure is still saved, so it can be inspected later.
func (uc *BuildSDKUseCase) BuildRegistry(ctx context.Context, reg *domain.Registry, req BuildRequest) (*BuildReport, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	log := uc.logger.With(slog.String("registry", reg.Name))
	if reg.Version != "" && req.Config.ContractVersion == "" {
		req.Config.ContractVersion = reg.Version
	}
	cfg := req.Config.WithDefaults()

	result, genErr := uc.generator.Generate(ctx, reg, cfg, req.Options)
	if genErr != nil && !errors.Is(genErr, ErrValidationFailed) {
		log.Error("Failed to generate SDKs", slog.Any("error", genErr))
		return nil, genErr
	}

	report := &BuildReport{Key: reg.Name, Result: result}
	if err := uc.repository.Save(ctx, reg.Name, *result); err != nil {
		log.Error("Failed to save generation result", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save generation result: %w", err)
	}
	if genErr != nil {
		log.Warn("Strict validation blocked emission", slog.Int("error_count", len(result.Validation.Errors)))
		return report, genErr
	}

	if req.DryRun || uc.writer == nil {
		log.Info("Skipping output write", slog.Bool("dry_run", req.DryRun))
		return report, nil
	}
	written, err := uc.writer.Write(ctx, cfg.OutputDir, result.Outputs)
	if err != nil {
		log.Error("Failed to write outputs", slog.Any("error", err))
		return report, fmt.Errorf("failed to write outputs: %w", err)
	}
	report.Written = written

	log.Info("Successfully built SDKs",
		slog.Int("schema_count", len(result.Definitions)),
		slog.Int("file_count", len(written)),
		slog.Int("warning_count", len(result.Warnings)),
		slog.Bool("valid", result.Validation.Valid),
	)
	return report, nil
}
