// Package loader reads plain-text documents from disk.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ragindex/internal/domain"
)

// ErrNoDocuments is returned when no .txt file matched the given paths.
var ErrNoDocuments = errors.New("no .txt documents found")

// Load reads every .txt document named by paths. A path may be a directory
// (its .txt files, sorted by name), a glob pattern or a single file.
// Document names are file base names without extension.
func Load(paths []string) ([]domain.Document, error) {
	var files []string
	for _, p := range paths {
		matches, err := expand(p)
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}

	seen := make(map[string]struct{}, len(files))
	var documents []domain.Document
	for _, f := range files {
		if !isText(f) {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		documents = append(documents, domain.Document{
			Name:    strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)),
			Path:    f,
			Content: string(data),
		})
	}
	if len(documents) == 0 {
		return nil, ErrNoDocuments
	}
	return documents, nil
}

func expand(p string) ([]string, error) {
	info, err := os.Stat(p)
	switch {
	case err == nil && info.IsDir():
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading directory %s: %w", p, err)
		}
		var out []string
		for _, e := range entries {
			if !e.IsDir() {
				out = append(out, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(out)
		return out, nil
	case err == nil:
		return []string{p}, nil
	}

	matches, globErr := filepath.Glob(p)
	if globErr != nil {
		return nil, fmt.Errorf("bad pattern %s: %w", p, globErr)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("path %s does not exist: %w", p, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func isText(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}
