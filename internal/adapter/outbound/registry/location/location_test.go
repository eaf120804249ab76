package location_test

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/contractgen/internal/adapter/outbound/registry/location"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestParseGitHub(t *testing.T) {
	tests := []struct {
		name        string
		loc         string
		want        location.GitHubLocation
		expectError bool
	}{
		{
			name: "simple location",
			loc:  "github://owner/repo/path/to/registry.yaml",
			want: location.GitHubLocation{Owner: "owner", Repo: "repo", Path: "path/to/registry.yaml"},
		},
		{
			name: "location with ref",
			loc:  "github://owner/repo/contracts/registry.yaml@v1.0",
			want: location.GitHubLocation{Owner: "owner", Repo: "repo", Path: "contracts/registry.yaml", Ref: "v1.0"},
		},
		{name: "not github", loc: "https://github.com/owner/repo/file.yaml", expectError: true},
		{name: "missing path", loc: "github://owner/repo", expectError: true},
		{name: "missing repo", loc: "github://owner", expectError: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := location.ParseGitHub(tt.loc)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGitHubClient_Fetch(t *testing.T) {
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(base64.StdEncoding.EncodeToString([]byte("schemas: {}\n")) + "\n"), nil
	}
	client := location.NewGitHubClient(run)

	data, err := client.Fetch(context.Background(), "github://acme/contracts/registry.yaml@main")
	require.NoError(t, err)
	assert.Equal(t, "schemas: {}\n", string(data))
	assert.Equal(t, []string{"gh", "api", "repos/acme/contracts/contents/registry.yaml?ref=main", "--jq", ".content"}, gotArgs)
}

func TestGitHubClient_FetchErrors(t *testing.T) {
	failing := location.NewGitHubClient(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("gh command failed: HTTP 404")
	})
	_, err := failing.Fetch(context.Background(), "github://acme/contracts/missing.yaml")
	assert.ErrorContains(t, err, "HTTP 404")

	empty := location.NewGitHubClient(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("null\n"), nil
	})
	_, err = empty.Fetch(context.Background(), "github://acme/contracts/dir")
	assert.ErrorContains(t, err, "empty response")
}

func TestReader_Read(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/contracts/registry.yaml", []byte("local"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/registry.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("remote"))
	}))
	defer srv.Close()

	gh := location.NewGitHubClient(func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte(base64.StdEncoding.EncodeToString([]byte("github"))), nil
	})
	reader := location.NewReader(fs, srv.Client(), newTestLogger(), location.WithGitHubClient(gh))
	ctx := context.Background()

	data, err := reader.Read(ctx, "/contracts/registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, "local", string(data))

	data, err = reader.Read(ctx, srv.URL+"/registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, "remote", string(data))

	data, err = reader.Read(ctx, "github://acme/contracts/registry.yaml")
	require.NoError(t, err)
	assert.Equal(t, "github", string(data))

	_, err = reader.Read(ctx, srv.URL+"/missing.yaml")
	assert.ErrorContains(t, err, "status 404")

	_, err = reader.Read(ctx, "/contracts/missing.yaml")
	assert.ErrorContains(t, err, "failed to read file")
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, rel, want string
	}{
		{"/contracts/shop.proto", "common.proto", "/contracts/common.proto"},
		{"contracts/shop.proto", "types/money.proto", "contracts/types/money.proto"},
		{"https://example.com/protos/shop.proto", "common.proto", "https://example.com/protos/common.proto"},
		{"github://acme/contracts/protos/shop.proto@v2", "common.proto", "github://acme/contracts/protos/common.proto@v2"},
		{"/contracts/shop.proto", "/abs/common.proto", "/abs/common.proto"},
		{"", "common.proto", "common.proto"},
	}
	for _, tt := range tests {
		t.Run(tt.base+"+"+tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, location.Resolve(tt.base, tt.rel))
		})
	}
}
