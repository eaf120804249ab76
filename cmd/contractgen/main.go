package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mcpGoServer "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/i2y/contractgen/configs"
	"github.com/i2y/contractgen/internal/adapter/inbound/genhttp"
	"github.com/i2y/contractgen/internal/adapter/inbound/mcptools"
	"github.com/i2y/contractgen/internal/adapter/outbound/emitter/golang"
	"github.com/i2y/contractgen/internal/adapter/outbound/emitter/python"
	"github.com/i2y/contractgen/internal/adapter/outbound/emitter/typescript"
	"github.com/i2y/contractgen/internal/adapter/outbound/filewriter"
	"github.com/i2y/contractgen/internal/adapter/outbound/memstore"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/file"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/grpcreflect"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/openapi"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/proto"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

const version = "0.1.0"

func main() {
	// === Command Line Flags ===
	var (
		transport  string
		source     string
		sourceType string
		server     string
		languages  string
		outputDir  string
		strict     bool
		dryRun     bool
	)
	flag.StringVar(&transport, "transport", "cli", "Transport mode: cli, stdio or http")
	flag.StringVar(&source, "source", "", "Registry location (file path, http(s) URL, github:// or grpc://); overrides configured sources")
	flag.StringVar(&sourceType, "type", "", "Registry source type: file, openapi, proto or grpc (inferred when empty)")
	flag.StringVar(&server, "server", "", "gRPC endpoint for reflection sources")
	flag.StringVar(&languages, "languages", "", "Comma-separated target languages (default from config)")
	flag.StringVar(&outputDir, "output", "", "Output directory (default from config)")
	flag.BoolVar(&strict, "strict", false, "Block emission when registry validation fails")
	flag.BoolVar(&dryRun, "dry-run", false, "Generate without writing files")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if languages != "" {
		cfg.Languages = strings.Split(languages, ",")
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	cfg.Strict = cfg.Strict || strict
	langs, err := cfg.ParsedLanguages()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid languages: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	logLevel := cfg.ParsedLogLevel()
	var logger *slog.Logger
	if transport == "stdio" {
		// In STDIO mode, log to file to avoid interfering with stdio communication
		logFile, err := os.OpenFile(os.TempDir()+"/contractgen.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel}))
		} else {
			defer logFile.Close()
			logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))
		}
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", logLevel.String()), slog.String("transport", transport))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === Dependency Injection ===
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	osFs := afero.NewOsFs()
	reader := location.NewReader(osFs, httpClient, logger)

	sources := map[domain.SourceType]usecase.RegistrySource{
		domain.SourceTypeFile:    file.NewSource(reader, logger),
		domain.SourceTypeOpenAPI: openapi.NewSource(reader, logger),
		domain.SourceTypeProto:   proto.NewSource(reader, logger),
		domain.SourceTypeGRPC:    grpcreflect.NewSource(logger),
	}
	generator := usecase.NewGenerateUseCase([]usecase.Emitter{
		typescript.NewEmitter(logger),
		python.NewEmitter(logger),
		golang.NewEmitter(logger),
	}, logger)
	store := memstore.NewStore(logger)
	buildUC := usecase.NewBuildSDKUseCase(sources, generator, store, filewriter.NewWriter(osFs, logger), logger)
	describeUC := usecase.NewDescribeUseCase(store, logger)
	logger.Debug("Dependencies initialized.")

	requests := buildRequests(cfg, langs, source, sourceType, server, dryRun)

	// === Transport Mode Selection ===
	switch transport {
	case "cli":
		if len(requests) == 0 {
			logger.Error("No registry sources configured; pass -source or set registry_sources in the config file")
			os.Exit(2)
		}
		if failed := runBuilds(ctx, buildUC, requests, logger, os.Stdout); failed > 0 {
			os.Exit(1)
		}

	case "stdio":
		mcpSrv := newMCPServer(buildUC, generator, describeUC, cfg, logger)
		runBuilds(ctx, buildUC, dryRunAll(requests), logger, io.Discard)

		logger.Info("Starting in STDIO mode")
		if err := mcpGoServer.NewStdioServer(mcpSrv).Listen(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Error("STDIO server error", slog.Any("error", err))
			os.Exit(1)
		}

	case "http":
		mcpSrv := newMCPServer(buildUC, generator, describeUC, cfg, logger)
		runBuilds(ctx, buildUC, requests, logger, io.Discard)

		mux := http.NewServeMux()
		genhttp.NewHandlers(buildUC, generator, describeUC, cfg.GenerationConfig(), logger).RegisterAdminRoutes(mux)
		sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+cfg.ListenAddr))
		mux.Handle("/sse", sseServer)
		mux.Handle("/message", sseServer)

		httpServer := &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      mux,
			ReadTimeout:  cfg.ServerReadTimeout,
			WriteTimeout: cfg.ServerWriteTimeout,
			IdleTimeout:  cfg.ServerIdleTimeout,
		}
		go func() {
			logger.Info("HTTP server starting.", slog.String("address", cfg.ListenAddr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server failed to start.", slog.Any("error", err))
				stop()
			}
		}()

		<-ctx.Done()

		logger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
		}
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server graceful shutdown failed.", slog.Any("error", err))
		}
		logger.Info("Servers shut down gracefully.")

	default:
		logger.Error("Invalid transport mode", slog.String("transport", transport))
		os.Exit(2)
	}
}

func newMCPServer(
	buildUC *usecase.BuildSDKUseCase,
	generator *usecase.GenerateUseCase,
	describeUC *usecase.DescribeUseCase,
	cfg *configs.Config,
	logger *slog.Logger,
) *mcpGoServer.MCPServer {
	mcpSrv := mcpGoServer.NewMCPServer("contractgen", version, mcpGoServer.WithToolCapabilities(true))
	mcptools.NewTools(buildUC, generator, describeUC, cfg.GenerationConfig(), logger).Register(mcpSrv)
	logger.Info("MCP server initialized.")
	return mcpSrv
}

// buildRequests turns the -source flag, or the configured sources, into build requests.
func buildRequests(cfg *configs.Config, langs []domain.Language, source, sourceType, server string, dryRun bool) []usecase.BuildRequest {
	configured := cfg.RegistrySources
	if source != "" || server != "" {
		if sourceType == "" {
			sourceType = string(configs.InferSourceType(source))
			if source == "" {
				sourceType = string(domain.SourceTypeGRPC)
			}
		}
		configured = []configs.RegistrySource{{Path: source, Type: sourceType, Server: server}}
	}

	requests := make([]usecase.BuildRequest, 0, len(configured))
	for _, rs := range configured {
		requests = append(requests, usecase.BuildRequest{
			Source: usecase.RegistrySourceConfig{
				Location: rs.Path,
				Type:     domain.SourceType(rs.Type),
				Server:   rs.Server,
			},
			Config:  cfg.GenerationConfig(),
			Options: usecase.GenerateOptions{Strict: cfg.Strict, Languages: langs},
			DryRun:  dryRun,
		})
	}
	return requests
}

func dryRunAll(requests []usecase.BuildRequest) []usecase.BuildRequest {
	for i := range requests {
		requests[i].DryRun = true
	}
	return requests
}

// runBuilds executes every request, prints a report per registry to out and
// returns the number of failed builds.
func runBuilds(ctx context.Context, buildUC *usecase.BuildSDKUseCase, requests []usecase.BuildRequest, logger *slog.Logger, out io.Writer) int {
	failed := 0
	for _, req := range requests {
		report, err := buildUC.Execute(ctx, req)
		if report != nil {
			printReport(out, report)
		}
		if err != nil {
			failed++
			logger.Error("SDK build failed", slog.String("source", req.Source.Location), slog.Any("error", err))
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return failed
}

func printReport(out io.Writer, report *usecase.BuildReport) {
	result := report.Result
	fmt.Fprintf(out, "registry %s: %d schemas, valid=%t\n", report.Key, len(result.Definitions), result.Validation.Valid)
	for _, e := range result.Validation.Errors {
		fmt.Fprintf(out, "  validation: %s\n", e)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(out, "  warning: %s\n", w)
	}
	for _, lang := range domain.Languages() {
		if o, ok := result.Outputs[lang]; ok {
			fmt.Fprintf(out, "  %s: %s@%s (%d files)\n", lang, o.Manifest.Name, o.Manifest.Version, len(o.Files))
		}
	}
	for _, p := range report.Written {
		fmt.Fprintf(out, "  wrote %s\n", p)
	}
}

// initOtelProvider initializes the OpenTelemetry SDK and sets up the OTLP trace exporter.
// It returns a shutdown function to be called on application exit.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Debug("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	slog.Info("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("contractgen"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	slog.Info("OpenTelemetry TracerProvider configured.")

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
