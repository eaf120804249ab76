// Package proto loads schema registries from .proto source files.
package proto

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/jhump/protoreflect/desc/protoparse"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
	"github.com/i2y/contractgen/internal/adapter/outbound/registry/protodef"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

// Source implements usecase.RegistrySource for .proto files. Imports are
// resolved relative to the root file's location; well-known imports are built in.
type Source struct {
	reader *location.Reader
	logger *slog.Logger
}

// NewSource creates a new proto registry source.
func NewSource(reader *location.Reader, logger *slog.Logger) *Source {
	return &Source{
		reader: reader,
		logger: logger.With("component", "proto_registry"),
	}
}

// Load parses the .proto file at config.Location and its imports.
func (s *Source) Load(ctx context.Context, config usecase.RegistrySourceConfig) (*domain.Registry, error) {
	log := s.logger.With(slog.String("location", config.Location))
	root := rootName(config.Location)
	if !strings.HasSuffix(root, ".proto") {
		return nil, fmt.Errorf("source must be a .proto file, got: %s", config.Location)
	}
	log.Info("Loading proto registry")

	parser := protoparse.Parser{
		Accessor: func(filename string) (io.ReadCloser, error) {
			if strings.HasPrefix(filename, "google/protobuf/") {
				return nil, os.ErrNotExist
			}
			loc := config.Location
			if filename != root {
				loc = location.Resolve(config.Location, filename)
			}
			log.Debug("Reading proto file", slog.String("file", filename))
			data, err := s.reader.Read(ctx, loc)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}

	fds, err := parser.ParseFiles(root)
	if err != nil {
		log.Error("Failed to parse .proto file", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse .proto file %s: %w", config.Location, err)
	}
	if len(fds) == 0 {
		return nil, fmt.Errorf("no file descriptors found in %s", config.Location)
	}

	reg := &domain.Registry{
		Name:    config.Location,
		Entries: protodef.Entries(protodef.Collect(fds...)),
	}
	if pkg := fds[0].GetPackage(); pkg != "" {
		reg.Name = pkg
	}
	log.Info("Loaded proto registry", slog.String("registry", reg.Name), slog.Int("entry_count", len(reg.Entries)))
	return reg, nil
}

// rootName is the file name the root document is parsed under.
func rootName(loc string) string {
	if gl, err := location.ParseGitHub(loc); err == nil {
		return path.Base(gl.Path)
	}
	return path.Base(loc)
}
