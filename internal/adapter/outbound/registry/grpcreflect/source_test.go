package grpcreflect_test

import (
	"context"
	"log/slog"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/grpcreflect"
	"github.com/i2y/contractgen/internal/domain"
	"github.com/i2y/contractgen/internal/typedef"
	"github.com/i2y/contractgen/internal/usecase"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func startServer(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, health.NewServer())
	reflection.Register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestSource_Load(t *testing.T) {
	addr := startServer(t)
	src := grpcreflect.NewSource(newTestLogger())

	reg, err := src.Load(context.Background(), usecase.RegistrySourceConfig{Location: "grpc://" + addr, Type: domain.SourceTypeGRPC})
	require.NoError(t, err)
	assert.Equal(t, addr, reg.Name)

	byName := map[string]domain.Entry{}
	for _, e := range reg.Entries {
		byName[e.Name] = e
	}
	require.Contains(t, byName, "HealthCheckRequest")
	require.Contains(t, byName, "HealthCheckResponse")
	require.Contains(t, byName, "HealthCheckResponseServingStatus")
	for name := range byName {
		assert.NotContains(t, name, "Reflection")
	}

	resp := byName["HealthCheckResponse"].Value.(*typedef.Def)
	require.Len(t, resp.Shape, 1)
	assert.Equal(t, "status", resp.Shape[0].Name)
	assert.Equal(t, "HealthCheckResponseServingStatus", resp.Shape[0].Type.Inner.Ref)

	defs, warnings, err := usecase.NewExtractor(newTestLogger()).Extract(reg)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.True(t, usecase.ValidateDefinitions(defs).Valid)
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "localhost:50051", grpcreflect.Target(usecase.RegistrySourceConfig{Location: "grpc://localhost:50051"}))
	assert.Equal(t, "api:443", grpcreflect.Target(usecase.RegistrySourceConfig{Location: "ignored", Server: "api:443"}))
}

func TestSource_LoadWithoutTarget(t *testing.T) {
	_, err := grpcreflect.NewSource(newTestLogger()).Load(context.Background(), usecase.RegistrySourceConfig{})
	assert.ErrorContains(t, err, "needs a server address")
}
