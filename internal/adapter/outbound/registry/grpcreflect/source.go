// Package grpcreflect loads schema registries from a running gRPC server
// through the server reflection service.
package grpcreflect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fullstorydev/grpcurl"
	reflectclient "github.com/jhump/protoreflect/grpcreflect"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/protodef"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/usecase"
)

const defaultTimeout = 30 * time.Second

// Source implements usecase.RegistrySource for gRPC reflection.
type Source struct {
	dialOpts []grpc.DialOption
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSource creates a new reflection registry source. Connections are
// insecure unless opts add transport credentials.
func NewSource(logger *slog.Logger, opts ...grpc.DialOption) *Source {
	defaultOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	return &Source{
		dialOpts: append(defaultOpts, opts...),
		timeout:  defaultTimeout,
		logger:   logger.With("component", "grpc_registry"),
	}
}

// Target returns the dial target of config: Server when set, else Location
// without a grpc:// prefix.
func Target(config usecase.RegistrySourceConfig) string {
	target := config.Server
	if target == "" {
		target = config.Location
	}
	return strings.TrimPrefix(target, "grpc://")
}

// Load lists every service of the server and converts the messages and enums
// of the files that define them.
func (s *Source) Load(ctx context.Context, config usecase.RegistrySourceConfig) (*domain.Registry, error) {
	target := Target(config)
	if target == "" {
		return nil, fmt.Errorf("gRPC registry source needs a server address")
	}
	log := s.logger.With(slog.String("target", target))
	log.Info("Loading registry via server reflection")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := grpc.NewClient(target, s.dialOpts...)
	if err != nil {
		log.Error("Failed to create gRPC client", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to gRPC target %s: %w", target, err)
	}
	defer conn.Close()

	refClient := reflectclient.NewClientAuto(ctx, conn)
	defer refClient.Reset()

	files, err := grpcurl.GetAllFiles(grpcurl.DescriptorSourceFromServer(ctx, refClient))
	if err != nil {
		log.Error("Failed to list descriptors via reflection", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list descriptors from %s: %w", target, err)
	}

	reg := &domain.Registry{
		Name:    target,
		Entries: protodef.Entries(protodef.SortedFiles(files)),
	}
	log.Info("Loaded registry via server reflection", slog.Int("file_count", len(files)), slog.Int("entry_count", len(reg.Entries)))
	return reg, nil
}
