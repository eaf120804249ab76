package location

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const githubScheme = "github://"

// IsGitHub reports whether loc uses the github:// scheme.
func IsGitHub(loc string) bool {
	return strings.HasPrefix(loc, githubScheme)
}

// GitHubLocation is a parsed github://owner/repo/path/to/file[@ref] location.
type GitHubLocation struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// ParseGitHub parses a github:// location.
func ParseGitHub(loc string) (GitHubLocation, error) {
	if !IsGitHub(loc) {
		return GitHubLocation{}, fmt.Errorf("invalid GitHub location: %s", loc)
	}
	rest := strings.TrimPrefix(loc, githubScheme)

	var ref string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, ref = rest[:i], rest[i+1:]
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return GitHubLocation{}, fmt.Errorf("invalid GitHub location %q: expected github://owner/repo/path/to/file", loc)
	}
	return GitHubLocation{Owner: parts[0], Repo: parts[1], Path: parts[2], Ref: ref}, nil
}

// Join returns the github:// location of rel, relative to the directory of l.
func (l GitHubLocation) Join(rel string) string {
	dir := l.Path
	if i := strings.LastIndex(dir, "/"); i >= 0 {
		dir = dir[:i+1]
	} else {
		dir = ""
	}
	loc := githubScheme + l.Owner + "/" + l.Repo + "/" + dir + rel
	if l.Ref != "" {
		loc += "@" + l.Ref
	}
	return loc
}

// Runner executes an external command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s CLI is not installed: %w", name, err)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s command failed: %s", name, msg)
		}
		return nil, fmt.Errorf("%s command failed: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// GitHubClient reads repository files through the gh CLI, which owns
// authentication.
type GitHubClient struct {
	run Runner
}

// NewGitHubClient creates a client that shells out to gh. A nil runner uses
// os/exec.
func NewGitHubClient(run Runner) *GitHubClient {
	if run == nil {
		run = execRunner
	}
	return &GitHubClient{run: run}
}

// Fetch returns the content of the file at loc.
func (c *GitHubClient) Fetch(ctx context.Context, loc string) ([]byte, error) {
	gl, err := ParseGitHub(loc)
	if err != nil {
		return nil, err
	}
	apiPath := fmt.Sprintf("repos/%s/%s/contents/%s", gl.Owner, gl.Repo, gl.Path)
	if gl.Ref != "" {
		apiPath += "?ref=" + gl.Ref
	}

	out, err := c.run(ctx, "gh", "api", apiPath, "--jq", ".content")
	if err != nil {
		return nil, err
	}
	encoded := strings.TrimSpace(string(out))
	if encoded == "" || encoded == "null" {
		return nil, fmt.Errorf("empty response from GitHub for %s", loc)
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", loc, err)
	}
	return content, nil
}
