package genhttp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/file"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

// maxBodyBytes bounds inline registry documents.
const maxBodyBytes = 8 << 20

// Handlers struct holds dependencies for the HTTP handlers.
type Handlers struct {
	build    *usecase.BuildSDKUseCase
	generate *usecase.GenerateUseCase
	describe *usecase.DescribeUseCase
	defaults domain.GenerationConfig
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers struct. defaults fills the blank fields of
// the generation config sent with each request.
func NewHandlers(
	build *usecase.BuildSDKUseCase,
	generate *usecase.GenerateUseCase,
	describe *usecase.DescribeUseCase,
	defaults domain.GenerationConfig,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		build:    build,
		generate: generate,
		describe: describe,
		defaults: defaults,
		logger:   logger.With("component", "genhttp_handler"),
	}
}

// RegisterAdminRoutes sets up the HTTP routes for admin endpoints.
func (h *Handlers) RegisterAdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/generate", h.handleGenerate)
	mux.HandleFunc("POST /admin/validate", h.handleValidate)
	mux.HandleFunc("GET /admin/registries", h.handleListRegistries)
	mux.HandleFunc("GET /admin/registries/{registry}/schemas", h.handleListSchemas)
	mux.HandleFunc("GET /admin/registries/{registry}/schemas/{schema}", h.handleDescribeSchema)
	mux.HandleFunc("GET /admin/outputs/{language}", h.handleOutput)
}

// SourceRequest points at a registry the server loads itself.
type SourceRequest struct {
	Location string `json:"location"`
	Type     string `json:"type"`
	Server   string `json:"server,omitempty"`
}

// GenerateRequest defines the JSON body of /admin/generate. Exactly one of
// Document (an inline YAML or JSON registry document) and Source is set.
type GenerateRequest struct {
	Name      string                  `json:"name,omitempty"`
	Document  string                  `json:"document,omitempty"`
	Source    *SourceRequest          `json:"source,omitempty"`
	Config    domain.GenerationConfig `json:"config"`
	Strict    bool                    `json:"strict,omitempty"`
	Languages []string                `json:"languages,omitempty"`
	DryRun    bool                    `json:"dryRun,omitempty"`
}

// GenerateResponse summarises one generation run.
type GenerateResponse struct {
	Registry   string                       `json:"registry"`
	Validation domain.ValidationResult      `json:"validation"`
	Warnings   []string                     `json:"warnings"`
	Files      map[domain.Language][]string `json:"files"`
	Written    []string                     `json:"written,omitempty"`
}

// ValidateRequest defines the JSON body of /admin/validate.
type ValidateRequest struct {
	Name     string `json:"name,omitempty"`
	Document string `json:"document"`
}

// ValidateResponse is the outcome of /admin/validate.
type ValidateResponse struct {
	Registry string   `json:"registry"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// handleGenerate implements POST /admin/generate
func (h *Handlers) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}
	langs, err := parseLanguages(req.Languages)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	build := usecase.BuildRequest{
		Config:  fillConfig(req.Config, h.defaults),
		Options: usecase.GenerateOptions{Strict: req.Strict, Languages: langs},
		DryRun:  req.DryRun,
	}

	var report *usecase.BuildReport
	switch {
	case req.Document != "" && req.Source != nil:
		h.writeError(w, http.StatusBadRequest, errors.New("set either 'document' or 'source', not both"))
		return
	case req.Document != "":
		reg, err := file.Parse(nameOr(req.Name), []byte(req.Document))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Info("Received generate request", slog.String("registry", reg.Name), slog.Int("entry_count", len(reg.Entries)))
		report, err = h.build.BuildRegistry(r.Context(), reg, build)
		if !h.buildOK(w, report, err) {
			return
		}
	case req.Source != nil:
		if req.Source.Location == "" && req.Source.Server == "" {
			h.writeError(w, http.StatusBadRequest, errors.New("missing 'source.location' field in request body"))
			return
		}
		build.Source = usecase.RegistrySourceConfig{
			Location: req.Source.Location,
			Type:     domain.SourceType(req.Source.Type),
			Server:   req.Source.Server,
		}
		h.logger.Info("Received generate request", slog.String("source", req.Source.Location), slog.String("source_type", req.Source.Type))
		report, err = h.build.Execute(r.Context(), build)
		if !h.buildOK(w, report, err) {
			return
		}
	default:
		h.writeError(w, http.StatusBadRequest, errors.New("missing 'document' or 'source' field in request body"))
		return
	}

	h.writeJSON(w, http.StatusOK, newGenerateResponse(report))
}

// buildOK writes the error response of a failed build and reports whether the
// handler should continue.
func (h *Handlers) buildOK(w http.ResponseWriter, report *usecase.BuildReport, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, usecase.ErrValidationFailed) && report != nil:
		h.writeJSON(w, http.StatusUnprocessableEntity, newGenerateResponse(report))
	case errors.Is(err, usecase.ErrNoRegistrySource), errors.Is(err, usecase.ErrUnsupportedLanguage):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		h.logger.Error("Failed to generate SDKs", slog.Any("error", err))
		h.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to generate SDKs: %w", err))
	}
	return false
}

// handleValidate implements POST /admin/validate
func (h *Handlers) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Document == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("missing 'document' field in request body"))
		return
	}
	reg, err := file.Parse(nameOr(req.Name), []byte(req.Document))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	defs, warnings, err := h.generate.Extract(r.Context(), reg)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	result := h.generate.Validate(r.Context(), defs)
	h.writeJSON(w, http.StatusOK, ValidateResponse{
		Registry: reg.Name,
		Valid:    result.Valid,
		Errors:   nonNil(result.Errors),
		Warnings: warningStrings(warnings),
	})
}

// handleListRegistries implements GET /admin/registries
func (h *Handlers) handleListRegistries(w http.ResponseWriter, r *http.Request) {
	keys, err := h.describe.Keys(r.Context())
	if err != nil {
		h.writeError(w, statusOf(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"registries": nonNil(keys)})
}

// handleListSchemas implements GET /admin/registries/{registry}/schemas
func (h *Handlers) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.describe.List(r.Context(), r.PathValue("registry"))
	if err != nil {
		h.writeError(w, statusOf(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, schemas)
}

// handleDescribeSchema implements GET /admin/registries/{registry}/schemas/{schema}
func (h *Handlers) handleDescribeSchema(w http.ResponseWriter, r *http.Request) {
	desc, err := h.describe.Describe(r.Context(), r.PathValue("registry"), r.PathValue("schema"))
	if err != nil {
		h.writeError(w, statusOf(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, desc)
}

// handleOutput implements GET /admin/outputs/{language}?registry=<name>[&path=<file>]
// Without path the whole output is returned as JSON; with path the raw file is.
func (h *Handlers) handleOutput(w http.ResponseWriter, r *http.Request) {
	lang, err := domain.ParseLanguage(r.PathValue("language"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	key := r.URL.Query().Get("registry")
	if key == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("missing 'registry' query parameter"))
		return
	}
	out, err := h.describe.Output(r.Context(), key, lang)
	if err != nil {
		h.writeError(w, statusOf(err), err)
		return
	}

	p := r.URL.Query().Get("path")
	if p == "" {
		h.writeJSON(w, http.StatusOK, out)
		return
	}
	content, ok := out.Files[p]
	if !ok {
		h.writeError(w, http.StatusNotFound, fmt.Errorf("%w: %s", usecase.ErrOutputNotFound, p))
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, content)
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.logger.Warn("Failed to decode request body", slog.String("path", r.URL.Path), slog.Any("error", err))
		h.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.Any("error", err))
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, usecase.ErrResultNotFound),
		errors.Is(err, usecase.ErrOutputNotFound),
		errors.Is(err, usecase.ErrSchemaNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newGenerateResponse(report *usecase.BuildReport) GenerateResponse {
	resp := GenerateResponse{
		Registry:   report.Key,
		Validation: report.Result.Validation,
		Warnings:   warningStrings(report.Result.Warnings),
		Files:      make(map[domain.Language][]string, len(report.Result.Outputs)),
		Written:    report.Written,
	}
	resp.Validation.Errors = nonNil(resp.Validation.Errors)
	for lang, out := range report.Result.Outputs {
		resp.Files[lang] = out.Paths()
	}
	return resp
}

func parseLanguages(names []string) ([]domain.Language, error) {
	langs := make([]domain.Language, 0, len(names))
	for _, n := range names {
		lang, err := domain.ParseLanguage(n)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// fillConfig fills blank fields of cfg from defaults.
func fillConfig(cfg, defaults domain.GenerationConfig) domain.GenerationConfig {
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaults.OutputDir
	}
	if cfg.SDKVersion == "" {
		cfg.SDKVersion = defaults.SDKVersion
	}
	if cfg.ContractVersion == "" {
		cfg.ContractVersion = defaults.ContractVersion
	}
	if cfg.PackagePrefix == "" {
		cfg.PackagePrefix = defaults.PackagePrefix
	}
	if cfg.Organization == "" {
		cfg.Organization = defaults.Organization
	}
	return cfg
}

func warningStrings(ws []domain.Warning) []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.String())
	}
	return out
}

func nameOr(name string) string {
	if name == "" {
		return "registry"
	}
	return name
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
