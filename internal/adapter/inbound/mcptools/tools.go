// Package mcptools exposes the generation pipeline as MCP tools.
package mcptools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/file"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

// Tool names.
const (
	ToolGenerateSDK      = "generate_sdk"
	ToolValidateRegistry = "validate_registry"
	ToolDescribeSchema   = "describe_schema"
)

// ToolAdder is the part of the MCP server the tools register with.
type ToolAdder interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// Tools holds the use cases behind the MCP tools.
type Tools struct {
	build    *usecase.BuildSDKUseCase
	generate *usecase.GenerateUseCase
	describe *usecase.DescribeUseCase
	defaults domain.GenerationConfig
	logger   *slog.Logger
}

// NewTools creates the tool set. defaults is the generation config every
// generate_sdk call starts from. A blank contract version defers to the
// registry's own version.
func NewTools(
	build *usecase.BuildSDKUseCase,
	generate *usecase.GenerateUseCase,
	describe *usecase.DescribeUseCase,
	defaults domain.GenerationConfig,
	logger *slog.Logger,
) *Tools {
	return &Tools{
		build:    build,
		generate: generate,
		describe: describe,
		defaults: defaults,
		logger:   logger.With("component", "mcp_tools"),
	}
}

// Register adds every tool to s.
func (t *Tools) Register(s ToolAdder) {
	s.AddTool(mcp.NewTool(ToolGenerateSDK,
		mcp.WithDescription("Generate TypeScript, Python and Go SDKs from an inline YAML or JSON schema registry document."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Registry document with name, version and schemas")),
		mcp.WithString("name", mcp.Description("Registry name used when the document has none")),
		mcp.WithString("languages", mcp.Description("Comma-separated targets: typescript, python, go. Empty means all")),
		mcp.WithBoolean("strict", mcp.Description("Block emission when validation fails")),
		mcp.WithBoolean("write", mcp.Description("Write the packaged SDKs to the output directory")),
	), t.GenerateSDK)

	s.AddTool(mcp.NewTool(ToolValidateRegistry,
		mcp.WithDescription("Extract and validate a schema registry document without generating code."),
		mcp.WithString("document", mcp.Required(), mcp.Description("Registry document with name, version and schemas")),
		mcp.WithString("name", mcp.Description("Registry name used when the document has none")),
	), t.ValidateRegistry)

	s.AddTool(mcp.NewTool(ToolDescribeSchema,
		mcp.WithDescription("List the schemas of a generated registry, describe one schema, or show a generated file."),
		mcp.WithString("registry", mcp.Required(), mcp.Description("Name of a previously generated registry")),
		mcp.WithString("schema", mcp.Description("Schema to describe; empty lists every schema")),
		mcp.WithString("language", mcp.Description("Target language of the file to show")),
		mcp.WithString("path", mcp.Description("Path of the generated file to show; requires language")),
	), t.DescribeSchema)
	t.logger.Info("Registered MCP tools", slog.Int("tool_count", 3))
}

type generateSummary struct {
	Registry   string                       `json:"registry"`
	Validation domain.ValidationResult      `json:"validation"`
	Warnings   []string                     `json:"warnings,omitempty"`
	Files      map[domain.Language][]string `json:"files,omitempty"`
	Written    []string                     `json:"written,omitempty"`
}

// GenerateSDK handles the generate_sdk tool.
func (t *Tools) GenerateSDK(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	doc := stringArg(args, "document")
	if doc == "" {
		return mcp.NewToolResultError("missing required argument 'document'"), nil
	}
	langs, err := parseLanguages(stringArg(args, "languages"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reg, err := file.Parse(nameOr(stringArg(args, "name")), []byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	log := t.logger.With(slog.String("tool", ToolGenerateSDK), slog.String("registry", reg.Name))
	log.Info("Handling tool call")

	report, err := t.build.BuildRegistry(ctx, reg, usecase.BuildRequest{
		Config:  t.defaults,
		Options: usecase.GenerateOptions{Strict: boolArg(args, "strict"), Languages: langs},
		DryRun:  !boolArg(args, "write"),
	})
	if err != nil && (report == nil || !errors.Is(err, usecase.ErrValidationFailed)) {
		log.Error("Tool call failed", slog.Any("error", err))
		return mcp.NewToolResultError(fmt.Sprintf("failed to generate SDKs: %v", err)), nil
	}

	summary := generateSummary{
		Registry:   report.Key,
		Validation: report.Result.Validation,
		Warnings:   warningStrings(report.Result.Warnings),
		Files:      make(map[domain.Language][]string, len(report.Result.Outputs)),
		Written:    report.Written,
	}
	for lang, out := range report.Result.Outputs {
		summary.Files[lang] = out.Paths()
	}
	text, encErr := encode(summary)
	if encErr != nil {
		return nil, encErr
	}
	if err != nil {
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(text)}, IsError: true}, nil
	}
	return mcp.NewToolResultText(text), nil
}

// ValidateRegistry handles the validate_registry tool.
func (t *Tools) ValidateRegistry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	doc := stringArg(args, "document")
	if doc == "" {
		return mcp.NewToolResultError("missing required argument 'document'"), nil
	}
	reg, err := file.Parse(nameOr(stringArg(args, "name")), []byte(doc))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defs, warnings, err := t.generate.Extract(ctx, reg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result := t.generate.Validate(ctx, defs)
	t.logger.Info("Validated registry", slog.String("registry", reg.Name), slog.Bool("valid", result.Valid))

	text, err := encode(struct {
		Registry string   `json:"registry"`
		Valid    bool     `json:"valid"`
		Errors   []string `json:"errors"`
		Warnings []string `json:"warnings,omitempty"`
		Schemas  []string `json:"schemas"`
	}{
		Registry: reg.Name,
		Valid:    result.Valid,
		Errors:   nonNil(result.Errors),
		Warnings: warningStrings(warnings),
		Schemas:  schemaNames(defs),
	})
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

// DescribeSchema handles the describe_schema tool.
func (t *Tools) DescribeSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	key := stringArg(args, "registry")
	if key == "" {
		return mcp.NewToolResultError("missing required argument 'registry'"), nil
	}

	if p := stringArg(args, "path"); p != "" {
		lang, err := domain.ParseLanguage(stringArg(args, "language"))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := t.describe.Output(ctx, key, lang)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		content, ok := out.Files[p]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("%v: %s", usecase.ErrOutputNotFound, p)), nil
		}
		return mcp.NewToolResultText(content), nil
	}

	var v any
	var err error
	if name := stringArg(args, "schema"); name != "" {
		v, err = t.describe.Describe(ctx, key, name)
	} else {
		v, err = t.describe.List(ctx, key)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := encode(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(text), nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return strings.TrimSpace(s)
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	}
	return false
}

func parseLanguages(s string) ([]domain.Language, error) {
	var langs []domain.Language
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lang, err := domain.ParseLanguage(part)
		if err != nil {
			return nil, err
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

func encode(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode tool result: %w", err)
	}
	return string(data), nil
}

func schemaNames(defs []domain.SchemaDefinition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
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
