package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/i2y/contractgen/internal/domain"
)

const instrumentationName = "github.com/i2y/contractgen/internal/usecase"

// GenerateOptions selects the validation policy and target languages of a run.
type GenerateOptions struct {
	// Strict blocks emission when validation fails. When false, validation is
	// advisory: outputs are emitted and the failed result is returned with them.
	Strict bool
	// Languages restricts emission; empty means every registered emitter.
	Languages []domain.Language
}

// GenerateUseCase runs the pipeline: extract, validate, then emit every target
// language concurrently.
type GenerateUseCase struct {
	extractor *Extractor
	emitters  map[domain.Language]Emitter
	logger    *slog.Logger
	tracer    trace.Tracer

	schemasExtracted metric.Int64Counter
	warningsRecorded metric.Int64Counter
	filesEmitted     metric.Int64Counter
}

// NewGenerateUseCase creates a new GenerateUseCase with the given emitters.
// A later emitter for the same language replaces an earlier one.
func NewGenerateUseCase(emitters []Emitter, logger *slog.Logger) *GenerateUseCase {
	byLang := make(map[domain.Language]Emitter, len(emitters))
	for _, e := range emitters {
		byLang[e.Language()] = e
	}
	meter := otel.Meter(instrumentationName)
	// Counter creation only fails on invalid names; the no-op fallbacks keep the use case usable.
	schemas, _ := meter.Int64Counter("contractgen.schemas.extracted", metric.WithDescription("Schema definitions extracted from registries"))
	warnings, _ := meter.Int64Counter("contractgen.warnings", metric.WithDescription("Non-fatal warnings recorded by the pipeline"))
	files, _ := meter.Int64Counter("contractgen.files.emitted", metric.WithDescription("Files produced by emitters"))
	return &GenerateUseCase{
		extractor:        NewExtractor(logger),
		emitters:         byLang,
		logger:           logger.With("usecase", "Generate"),
		tracer:           otel.Tracer(instrumentationName),
		schemasExtracted: schemas,
		warningsRecorded: warnings,
		filesEmitted:     files,
	}
}

// Extract lowers the registry into schema definitions.
func (uc *GenerateUseCase) Extract(ctx context.Context, reg *domain.Registry) ([]domain.SchemaDefinition, []domain.Warning, error) {
	ctx, span := uc.tracer.Start(ctx, "contractgen.extract")
	defer span.End()

	defs, warnings, err := uc.extractor.Extract(reg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	span.SetAttributes(attribute.Int("schema.count", len(defs)), attribute.Int("warning.count", len(warnings)))
	uc.add(ctx, uc.schemasExtracted, len(defs))
	uc.add(ctx, uc.warningsRecorded, len(warnings))
	return defs, warnings, nil
}

// Validate checks the extracted definitions. It never blocks anything by itself.
func (uc *GenerateUseCase) Validate(ctx context.Context, defs []domain.SchemaDefinition) domain.ValidationResult {
	_, span := uc.tracer.Start(ctx, "contractgen.validate")
	defer span.End()

	result := ValidateDefinitions(defs)
	span.SetAttributes(attribute.Bool("registry.valid", result.Valid), attribute.Int("error.count", len(result.Errors)))
	if !result.Valid {
		uc.logger.Warn("Registry validation failed", slog.Int("error_count", len(result.Errors)), slog.Any("errors", result.Errors))
	}
	return result
}

// Emit runs the selected emitters concurrently. Emitters share nothing, so the
// outputs are simply collected by language.
func (uc *GenerateUseCase) Emit(ctx context.Context, defs []domain.SchemaDefinition, cfg domain.GenerationConfig, langs ...domain.Language) (map[domain.Language]domain.GeneratedOutput, error) {
	ctx, span := uc.tracer.Start(ctx, "contractgen.emit")
	defer span.End()

	if len(langs) == 0 {
		langs = domain.Languages()
	}
	selected := make([]Emitter, 0, len(langs))
	for _, lang := range langs {
		e, ok := uc.emitters[lang]
		if !ok {
			err := fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		selected = append(selected, e)
	}
	cfg = cfg.WithDefaults()

	var mu sync.Mutex
	outputs := make([]domain.GeneratedOutput, 0, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for _, e := range selected {
		g.Go(func() error {
			_, langSpan := uc.tracer.Start(gctx, "contractgen.emit."+string(e.Language()))
			defer langSpan.End()

			out, err := e.Emit(defs, cfg)
			if err != nil {
				langSpan.RecordError(err)
				langSpan.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("emit %s: %w", e.Language(), err)
			}
			langSpan.SetAttributes(attribute.Int("file.count", len(out.Files)), attribute.Int("warning.count", len(out.Warnings)))

			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	packaged := PackageOutputs(outputs...)
	for _, out := range packaged {
		uc.add(ctx, uc.filesEmitted, len(out.Files))
		uc.add(ctx, uc.warningsRecorded, len(out.Warnings))
		uc.logger.Info("Emitted SDK", slog.String("language", string(out.Language)), slog.Int("file_count", len(out.Files)), slog.Int("warning_count", len(out.Warnings)))
	}
	return packaged, nil
}

// Generate runs the whole pipeline for reg. With opts.Strict a failed validation
// stops before emission and ErrValidationFailed is returned along with the
// partial result.
func (uc *GenerateUseCase) Generate(ctx context.Context, reg *domain.Registry, cfg domain.GenerationConfig, opts GenerateOptions) (*domain.GenerationResult, error) {
	defs, warnings, err := uc.Extract(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract registry: %w", err)
	}
	result := &domain.GenerationResult{
		Definitions: defs,
		Validation:  uc.Validate(ctx, defs),
		Warnings:    warnings,
	}
	if !result.Validation.Valid && opts.Strict {
		return result, ErrValidationFailed
	}

	outputs, err := uc.Emit(ctx, defs, cfg, opts.Languages...)
	if err != nil {
		return result, fmt.Errorf("failed to emit SDKs: %w", err)
	}
	result.Outputs = outputs
	for _, lang := range domain.Languages() {
		if out, ok := outputs[lang]; ok {
			result.Warnings = append(result.Warnings, out.Warnings...)
		}
	}
	return result, nil
}

func (uc *GenerateUseCase) add(ctx context.Context, c metric.Int64Counter, n int) {
	if c == nil || n == 0 {
		return
	}
	c.Add(ctx, int64(n))
}

// PackageOutputs collects emitter outputs into a single map keyed by language.
// Outputs are independent; nothing is merged across languages.
func PackageOutputs(outputs ...domain.GeneratedOutput) map[domain.Language]domain.GeneratedOutput {
	packaged := make(map[domain.Language]domain.GeneratedOutput, len(outputs))
	for _, out := range outputs {
		packaged[out.Language] = out
	}
	return packaged
}
