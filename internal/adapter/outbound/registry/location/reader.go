// Package location reads registry documents from local paths, http(s) URLs
// and github:// repository locations.
package location

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Reader resolves and reads locations.
type Reader struct {
	fs         afero.Fs
	httpClient *http.Client
	github     *GitHubClient
	logger     *slog.Logger
}

// Option configures a Reader.
type Option func(*Reader)

// WithGitHubClient replaces the client used for github:// locations.
func WithGitHubClient(c *GitHubClient) Option {
	return func(r *Reader) { r.github = c }
}

// NewReader creates a Reader. A nil fs reads the OS filesystem and a nil
// client uses http.DefaultClient.
func NewReader(fs afero.Fs, client *http.Client, logger *slog.Logger, opts ...Option) *Reader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if client == nil {
		client = http.DefaultClient
	}
	r := &Reader{
		fs:         fs,
		httpClient: client,
		github:     NewGitHubClient(nil),
		logger:     logger.With("component", "location_reader"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func isHTTP(loc string) bool {
	u, err := url.ParseRequestURI(loc)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Read returns the content stored at loc.
func (r *Reader) Read(ctx context.Context, loc string) ([]byte, error) {
	log := r.logger.With(slog.String("location", loc))
	switch {
	case IsGitHub(loc):
		log.Debug("Reading from GitHub")
		data, err := r.github.Fetch(ctx, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s from GitHub: %w", loc, err)
		}
		return data, nil
	case isHTTP(loc):
		log.Debug("Reading from URL")
		return r.fetch(ctx, loc)
	default:
		log.Debug("Reading local file")
		data, err := afero.ReadFile(r.fs, loc)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", loc, err)
		}
		return data, nil
	}
}

func (r *Reader) fetch(ctx context.Context, loc string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", loc, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", loc, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("Received non-OK status code", slog.String("location", loc), slog.Int("status_code", resp.StatusCode))
		return nil, fmt.Errorf("failed to fetch %s: status %s", loc, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body from %s: %w", loc, err)
	}
	return data, nil
}

// Resolve returns the location of rel relative to the document at base.
// Absolute locations are returned unchanged.
func Resolve(base, rel string) string {
	if IsGitHub(rel) || isHTTP(rel) || filepath.IsAbs(rel) {
		return rel
	}
	switch {
	case IsGitHub(base):
		gl, err := ParseGitHub(base)
		if err != nil {
			return rel
		}
		return gl.Join(rel)
	case isHTTP(base):
		u, err := url.Parse(base)
		if err != nil {
			return rel
		}
		u.Path = path.Join(path.Dir(u.Path), rel)
		return u.String()
	default:
		if strings.TrimSpace(base) == "" {
			return rel
		}
		return filepath.Join(filepath.Dir(base), rel)
	}
}
