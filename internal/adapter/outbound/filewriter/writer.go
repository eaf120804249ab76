// Package filewriter persists packaged SDK outputs to a filesystem.
package filewriter

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"github.com/i2y/contractgen/internal/domain"
)

const packageJSON = "package.json"

// Writer implements usecase.OutputWriter. Each language is written to
// <outputDir>/<language>/<path>.
type Writer struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewWriter creates a Writer over fs. A nil fs writes to the OS filesystem.
func NewWriter(fs afero.Fs, logger *slog.Logger) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Writer{
		fs:     fs,
		logger: logger.With("component", "file_writer"),
	}
}

// Write writes every output in language order and every file in sorted path
// order, returning the written paths.
func (w *Writer) Write(ctx context.Context, outputDir string, outputs map[domain.Language]domain.GeneratedOutput) ([]string, error) {
	var written []string
	for _, lang := range languages(outputs) {
		out := outputs[lang]
		files, err := withManifest(out)
		if err != nil {
			return written, err
		}
		paths := make([]string, 0, len(files))
		for p := range files {
			paths = append(paths, p)
		}
		sort.Strings(paths)

		for _, p := range paths {
			if err := ctx.Err(); err != nil {
				return written, err
			}
			target, err := join(outputDir, string(lang), p)
			if err != nil {
				return written, err
			}
			if err := w.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return written, fmt.Errorf("failed to create directory for %s: %w", target, err)
			}
			if err := afero.WriteFile(w.fs, target, []byte(files[p]), 0o644); err != nil {
				return written, fmt.Errorf("failed to write %s: %w", target, err)
			}
			written = append(written, target)
		}
		w.logger.Info("Wrote SDK", slog.String("language", string(lang)), slog.Int("file_count", len(paths)), slog.String("dir", filepath.Join(outputDir, string(lang))))
	}
	return written, nil
}

// languages orders the keys of outputs: known languages first in their fixed
// order, then any others by name.
func languages(outputs map[domain.Language]domain.GeneratedOutput) []domain.Language {
	var out []domain.Language
	known := map[domain.Language]bool{}
	for _, l := range domain.Languages() {
		known[l] = true
		if _, ok := outputs[l]; ok {
			out = append(out, l)
		}
	}
	var extra []domain.Language
	for l := range outputs {
		if !known[l] {
			extra = append(extra, l)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// withManifest adds package.json to a TypeScript file set that lacks one.
func withManifest(out domain.GeneratedOutput) (map[string]string, error) {
	if out.Language != domain.LanguageTypeScript {
		return out.Files, nil
	}
	if _, ok := out.Files[packageJSON]; ok {
		return out.Files, nil
	}
	raw, err := json.MarshalIndent(npmManifest(out.Manifest), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", packageJSON, err)
	}
	files := make(map[string]string, len(out.Files)+1)
	for p, c := range out.Files {
		files[p] = c
	}
	files[packageJSON] = string(raw) + "\n"
	return files, nil
}

type npmPackage struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description,omitempty"`
	Main            string            `json:"main"`
	Types           string            `json:"types"`
	Files           []string          `json:"files"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
	ContractVersion string            `json:"contractVersion"`
}

func npmManifest(m domain.PackageManifest) npmPackage {
	return npmPackage{
		Name:            m.Name,
		Version:         m.Version,
		Description:     m.Description,
		Main:            "dist/index.js",
		Types:           "dist/index.d.ts",
		Files:           []string{"dist"},
		Scripts:         map[string]string{"build": "tsc"},
		DevDependencies: map[string]string{"typescript": "^5.4.0"},
		ContractVersion: m.ContractVersion,
	}
}

// join places rel under dir/lang, rejecting paths that escape it.
func join(dir, lang, rel string) (string, error) {
	clean := path.Clean(rel)
	if rel == "" || path.IsAbs(rel) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid output path %q", rel)
	}
	return filepath.Join(dir, lang, filepath.FromSlash(clean)), nil
}
