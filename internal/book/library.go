package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxBooks caps how many books a library lists.
const DefaultMaxBooks = 20

var ErrNoBooks = errors.New("no books found")

// Library is the ordered list of books the reader can switch between.
type Library struct {
	paths []string
}

// Scan lists the .txt files in dir, sorted by name and capped at limit.
func Scan(dir string, limit int) (*Library, error) {
	if limit <= 0 {
		limit = DefaultMaxBooks
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read books dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.ToLower(filepath.Ext(e.Name())) != ".txt" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	if len(paths) > limit {
		paths = paths[:limit]
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoBooks)
	}
	return &Library{paths: paths}, nil
}

// NewLibrary wraps an explicit list of paths.
func NewLibrary(paths ...string) *Library {
	return &Library{paths: append([]string(nil), paths...)}
}

func (l *Library) Len() int { return len(l.paths) }

func (l *Library) Path(i int) string { return l.paths[i] }

// Step returns the index delta positions away from i, wrapping around.
func (l *Library) Step(i, delta int) int {
	n := len(l.paths)
	if n == 0 {
		return 0
	}
	return ((i+delta)%n + n) % n
}
