package book

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photonicat/epaper_reader/internal/charset"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "A\n\nB", "A\nB"},
		{"single break", "A\nB", "A B"},
		{"crlf single", "A\r\nB", "A B"},
		{"crlf paragraph", "A\r\n\r\nB", "A\nB"},
		{"lfcr pair", "A\n\rB", "A B"},
		{"leading breaks and spaces", "\n\n   A", "A"},
		{"indent after paragraph", "A\n\n    B", "A\nB"},
		{"collapse spaces", "A    B", "A B"},
		{"space before break", "A \nB", "A B"},
		{"break then space", "A\n B", "A B"},
		{"blank line of spaces", "A\n\n   \n\nB", "A\nB"},
		{"many breaks", "A\n\n\n\n\nB", "A\nB"},
		{"trailing break", "A\n", "A "},
		{"only whitespace", " \n \r\n ", ""},
		{"multibyte copied", "中\n文", "中 文"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize([]byte(tt.in), charset.ByteOriented)
			assert.Equal(t, tt.want, string(got))
			assert.LessOrEqual(t, len(got), len(tt.in))
		})
	}
}

func TestNormalizeKeepsLegacyPairs(t *testing.T) {
	in := []byte{0xD6, 0xD0, '\n', '\n', ' ', 0xCE, 0xC4}
	got := Normalize(in, charset.LegacyDoubleByte)
	assert.Equal(t, []byte{0xD6, 0xD0, ParagraphMarker, 0xCE, 0xC4}, got)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	p := writeFile(t, dir, "story.txt", []byte("\xEF\xBB\xBFOnce upon\na time.\n\nThe end."))
	b, err := Load(p, 0)
	require.NoError(t, err)
	assert.Equal(t, charset.ByteOriented, b.Encoding)
	assert.Equal(t, "Once upon a time.\nThe end.", string(b.Text))
	assert.Equal(t, "story", b.Name())
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.txt"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)

	empty := writeFile(t, dir, "empty.txt", nil)
	_, err = Load(empty, 0)
	assert.ErrorIs(t, err, ErrEmpty)

	blank := writeFile(t, dir, "blank.txt", []byte("\n\n   \r\n"))
	_, err = Load(blank, 0)
	assert.ErrorIs(t, err, ErrNoContent)

	big := writeFile(t, dir, "big.txt", bytes.Repeat([]byte("x"), 101))
	_, err = Load(big, 100)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = Load(big, 101)
	assert.NoError(t, err)
}

func TestTitle(t *testing.T) {
	b := &Book{Path: "/books/A Very Long Book Name.txt"}
	assert.Equal(t, "Book: A Very Long Book Name", b.Title(0))
	assert.Equal(t, "Book: A Very Long Book Name", b.Title(100))
	assert.Equal(t, "Book: A Ve...", b.Title(13))

	wide := &Book{Path: "三体.txt"}
	assert.Equal(t, "Book: 三体", wide.Title(10))
	assert.Equal(t, "Book: ...", wide.Title(9))
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", []byte("b"))
	writeFile(t, dir, "a.TXT", []byte("a"))
	writeFile(t, dir, "notes.md", []byte("n"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	lib, err := Scan(dir, 0)
	require.NoError(t, err)
	require.Equal(t, 2, lib.Len())
	assert.Equal(t, filepath.Join(dir, "a.TXT"), lib.Path(0))
	assert.Equal(t, filepath.Join(dir, "b.txt"), lib.Path(1))

	lib, err = Scan(dir, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, lib.Len())

	_, err = Scan(t.TempDir(), 0)
	assert.ErrorIs(t, err, ErrNoBooks)
}

func TestLibraryStep(t *testing.T) {
	lib := NewLibrary("a", "b", "c")
	assert.Equal(t, 1, lib.Step(0, 1))
	assert.Equal(t, 0, lib.Step(2, 1))
	assert.Equal(t, 2, lib.Step(0, -1))
	assert.Equal(t, 0, NewLibrary().Step(0, 1))
}
