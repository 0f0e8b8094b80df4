// Package book loads plain-text books from disk and prepares them for
// pagination.
package book

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"
	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/charset"
)

// DefaultMaxSize is the largest book accepted when no limit is configured.
const DefaultMaxSize = 4 << 20

var (
	ErrEmpty     = errors.New("book is empty")
	ErrTooLarge  = errors.New("book is too large")
	ErrNoContent = errors.New("book has no readable content")
)

// Book is a loaded, normalized text. It is replaced wholesale when the
// reader switches books.
type Book struct {
	Path     string
	Text     []byte
	Encoding charset.Encoding
}

// Load reads path, detects its encoding and normalizes it. Files larger than
// maxSize bytes are rejected; maxSize <= 0 means DefaultMaxSize.
func Load(path string, maxSize int64) (*Book, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s (%d bytes, limit %d): %w", path, info.Size(), maxSize, ErrTooLarge)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(path, raw)
}

// FromBytes builds a Book from raw file contents.
func FromBytes(path string, raw []byte) (*Book, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	enc := charset.Detect(raw)
	if enc == charset.ByteOriented && len(raw) >= 3 && raw[0] == 0xEF && raw[1] == 0xBB && raw[2] == 0xBF {
		raw = raw[3:]
	}
	text := Normalize(raw, enc)
	if len(text) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoContent)
	}
	log.Printf("loaded %s: %s, %d bytes raw, %d normalized", filepath.Base(path), enc, len(raw), len(text))
	return &Book{Path: path, Text: text, Encoding: enc}, nil
}

// Name is the file name without its extension.
func (b *Book) Name() string {
	base := filepath.Base(b.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Title returns "Book: <name>" cut down to at most cols display columns.
func (b *Book) Title(cols int) string {
	title := "Book: " + b.Name()
	if cols <= 0 || runewidth.StringWidth(title) <= cols {
		return title
	}
	return runewidth.Truncate(title, cols, "...")
}
