package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 20, cfg.Books.MaxBooks)
	assert.Equal(t, int64(4<<20), cfg.Books.MaxSize)
	assert.Equal(t, 500, cfg.Layout.HistoryCapacity)
	assert.Equal(t, time.Second, cfg.Input.LongPress.Duration)
	assert.Equal(t, 2*time.Second, cfg.Input.AntiFlicker.Duration)
	assert.Equal(t, 50*time.Millisecond, cfg.Input.PollInterval.Duration)
	assert.Equal(t, "eye_page_turner", cfg.Input.AuxName)
}

func TestLoadOverridesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "reader.toml")
	require.NoError(t, os.WriteFile(p, []byte(`
[books]
dir = "/tools/books"

[layout]
indent_chars = 4

[input]
long_press = "1500ms"

[panel]
driver = "headless"
width = 400
height = 300
`), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "/tools/books", cfg.Books.Dir)
	assert.Equal(t, 20, cfg.Books.MaxBooks, "untouched keys keep their defaults")
	assert.Equal(t, 4, cfg.Layout.IndentChars)
	assert.Equal(t, 1500*time.Millisecond, cfg.Input.LongPress.Duration)
	assert.Equal(t, 2*time.Second, cfg.Input.AntiFlicker.Duration)
	assert.Equal(t, "headless", cfg.Panel.Driver)
	assert.Equal(t, 400, cfg.Panel.Width)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	tests := map[string]string{
		"bad duration":   "[input]\npoll_interval = \"soon\"\n",
		"bad driver":     "[panel]\ndriver = \"crt\"\n",
		"bad scale":      "[screen_off]\nscale = 1.5\n",
		"bad toml":       "[books\n",
		"no size":        "[panel]\ndriver = \"headless\"\nwidth = 0\n",
		"no content gap": "[layout]\ncontent_gap = 0\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, "c.toml")
			require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
			_, err := Load(p)
			assert.Error(t, err)
		})
	}
}

func TestValidateLayout(t *testing.T) {
	tests := []struct {
		name string
		edit func(l *Layout)
		err  string
	}{
		{"negative header", func(l *Layout) { l.HeaderHeight = -1 }, "must not be negative"},
		{"zero content gap", func(l *Layout) { l.ContentGap = 0 }, "content_gap must be at least 1"},
		{"negative indent", func(l *Layout) { l.IndentChars = -2 }, "indent_chars"},
		{"one pixel gap", func(l *Layout) { l.ContentGap = 1 }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.edit(&cfg.Layout)
			err := cfg.Validate()
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.err)
		})
	}
}
