package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBook(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "novel.txt")
	require.NoError(t, os.WriteFile(p, []byte(strings.Repeat("abcdefghij", 500)), 0o644))
	return p
}

func TestPaginate(t *testing.T) {
	cmd := paginateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{writeBook(t), "--offsets"})
	require.NoError(t, cmd.Execute())

	// 114 columns by 31 lines on the default 800x480 panel
	s := out.String()
	assert.Contains(t, s, "Book: novel")
	assert.Contains(t, s, "encoding: UTF-8")
	assert.Contains(t, s, "normalized: 5000 bytes")
	assert.Contains(t, s, "pages: 2")
	assert.Contains(t, s, "     2 3534")
}

func TestRender(t *testing.T) {
	png := filepath.Join(t.TempDir(), "page.png")
	cmd := renderCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{writeBook(t), "--page", "2", "--out", png})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Page 2 / 2")
	assert.FileExists(t, png)

	cmd = renderCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{writeBook(t), "--page", "5", "--out", png})
	assert.ErrorContains(t, cmd.Execute(), "only 2 pages")
}
