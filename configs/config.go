package configs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/domain"
)

// RegistrySource represents a single registry source.
type RegistrySource struct {
	Path   string `yaml:"path"`
	Type   string `yaml:"type,omitempty"`   // file, openapi, proto or grpc; inferred from Path when empty
	Server string `yaml:"server,omitempty"` // gRPC endpoint for reflection sources
}

// FileConfig defines the structure loaded from the YAML configuration file.
type FileConfig struct {
	RegistrySources []interface{} `yaml:"registry_sources"`
}

// Config holds the final application configuration, merged from file and environment variables.
// Fields are loaded from environment variables with the prefix "CONTRACTGEN_", potentially overriding file settings.
type Config struct {
	// Config File Path (Loaded first from env). May be a local path, an
	// http(s) URL or a github:// location.
	ConfigFilePath string `envconfig:"CONFIG_FILE"`

	// File-loaded fields (merged)
	RegistrySources []RegistrySource `ignored:"true"`

	// Generation
	OutputDir       string   `envconfig:"OUTPUT_DIR" default:"generated"`
	SDKVersion      string   `envconfig:"SDK_VERSION" default:"0.1.0"`
	ContractVersion string   `envconfig:"CONTRACT_VERSION"`
	PackagePrefix   string   `envconfig:"PACKAGE_PREFIX" default:"controlplane"`
	Organization    string   `envconfig:"ORGANIZATION" default:"controlplane"`
	Languages       []string `envconfig:"LANGUAGES" default:"typescript,python,go"`
	Strict          bool     `envconfig:"STRICT" default:"false"`

	// Environment-overridable fields
	ListenAddr               string        `envconfig:"LISTEN_ADDR" default:":8080"`
	HTTPClientTimeout        time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"30s"`
	ShutdownTimeout          time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
	ServerReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"5s"`
	ServerWriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"30s"`
	ServerIdleTimeout        time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	OtelExporterOtlpEndpoint string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelExporterOtlpInsecure bool          `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	LogLevel                 string        `envconfig:"LOG_LEVEL" default:"info"`
}

// ParsedLogLevel returns the slog.Level based on the configured LogLevel string.
func (c *Config) ParsedLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info":
		fallthrough
	default:
		return slog.LevelInfo
	}
}

// GenerationConfig projects the generation settings onto the domain config.
// ContractVersion stays empty when unset so a registry's own version applies.
func (c *Config) GenerationConfig() domain.GenerationConfig {
	gen := domain.GenerationConfig{
		OutputDir:       c.OutputDir,
		SDKVersion:      c.SDKVersion,
		ContractVersion: c.ContractVersion,
		PackagePrefix:   c.PackagePrefix,
		Organization:    c.Organization,
	}.WithDefaults()
	gen.ContractVersion = c.ContractVersion
	return gen
}

// ParsedLanguages returns the configured target languages.
func (c *Config) ParsedLanguages() ([]domain.Language, error) {
	langs := make([]domain.Language, 0, len(c.Languages))
	for _, l := range c.Languages {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lang, err := domain.ParseLanguage(l)
		if err != nil {
			return nil, fmt.Errorf("invalid CONTRACTGEN_LANGUAGES: %w", err)
		}
		langs = append(langs, lang)
	}
	return langs, nil
}

// InferSourceType guesses the registry source type of a location.
func InferSourceType(loc string) domain.SourceType {
	if strings.HasPrefix(loc, "grpc://") {
		return domain.SourceTypeGRPC
	}
	if i := strings.LastIndex(loc, "@"); strings.HasPrefix(loc, "github://") && i > 0 {
		loc = loc[:i]
	}
	base := strings.ToLower(path.Base(loc))
	switch {
	case strings.HasSuffix(base, ".proto"):
		return domain.SourceTypeProto
	case strings.Contains(base, "openapi"), strings.Contains(base, "swagger"):
		return domain.SourceTypeOpenAPI
	default:
		return domain.SourceTypeFile
	}
}

// Load loads configuration first from environment variables (to get file path),
// then from the specified YAML file, and finally merges/overrides with environment variables again.
func Load() (*Config, error) {
	// 1. Load initial config from Env (primarily to get ConfigFilePath)
	var initialCfg Config
	if err := envconfig.Process("contractgen", &initialCfg); err != nil {
		return nil, fmt.Errorf("failed to process initial environment variables: %w", err)
	}

	// 2. Load config from YAML file if path is specified
	fileCfg := FileConfig{}
	if initialCfg.ConfigFilePath != "" {
		reader := location.NewReader(nil, &http.Client{Timeout: initialCfg.HTTPClientTimeout}, slog.Default())
		yamlFile, err := reader.Read(context.Background(), initialCfg.ConfigFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		if err := yaml.Unmarshal(yamlFile, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file '%s': %w", initialCfg.ConfigFilePath, err)
		}
		slog.Info("Loaded configuration file.", "path", initialCfg.ConfigFilePath)
	} else {
		slog.Debug("No config file path specified (CONTRACTGEN_CONFIG_FILE), using defaults/env vars only.")
	}

	// 3. Create final config, starting with file values, then process Env vars again for overrides.
	finalCfg := initialCfg
	finalCfg.RegistrySources = parseRegistrySources(fileCfg.RegistrySources)

	if err := envconfig.Process("contractgen", &finalCfg); err != nil {
		return nil, fmt.Errorf("failed to process overriding environment variables: %w", err)
	}
	return &finalCfg, nil
}

// parseRegistrySources accepts both string and object entries.
func parseRegistrySources(raw []interface{}) []RegistrySource {
	sources := make([]RegistrySource, 0, len(raw))
	for _, source := range raw {
		switch v := source.(type) {
		case string:
			sources = append(sources, RegistrySource{Path: v, Type: string(InferSourceType(v))})
		case map[string]interface{}:
			rs := RegistrySource{}
			rs.Path, _ = v["path"].(string)
			rs.Type, _ = v["type"].(string)
			rs.Server, _ = v["server"].(string)
			if rs.Path == "" && rs.Server == "" {
				slog.Warn("Registry source missing path, skipping", "source", v)
				continue
			}
			if rs.Type == "" {
				if rs.Path == "" {
					rs.Type = string(domain.SourceTypeGRPC)
				} else {
					rs.Type = string(InferSourceType(rs.Path))
				}
			}
			switch domain.SourceType(rs.Type) {
			case domain.SourceTypeFile, domain.SourceTypeOpenAPI, domain.SourceTypeProto, domain.SourceTypeGRPC:
				sources = append(sources, rs)
			default:
				slog.Warn("Ignoring registry source with unknown type", "path", rs.Path, "type", rs.Type)
			}
		default:
			slog.Warn("Ignoring invalid registry source format", "source", source)
		}
	}
	return sources
}
