// Package config loads the reader's TOML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as "50ms", "2s" and so on.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Books     Books     `toml:"books"`
	Layout    Layout    `toml:"layout"`
	Fonts     Fonts     `toml:"fonts"`
	Panel     Panel     `toml:"panel"`
	Input     Input     `toml:"input"`
	ScreenOff ScreenOff `toml:"screen_off"`
	Preview   Preview   `toml:"preview"`
	Log       Log       `toml:"log"`
}

type Books struct {
	Dir      string `toml:"dir"`
	MaxBooks int    `toml:"max_books"`
	MaxSize  int64  `toml:"max_size"`
}

// Layout holds the screen geometry in pixels.
type Layout struct {
	HeaderHeight int `toml:"header_height"`
	FooterHeight int `toml:"footer_height"`
	// ContentGap separates the content area from header and footer. It must
	// be at least 1.
	ContentGap       int `toml:"content_gap"`
	LeftMargin       int `toml:"left_margin"`
	RightMargin      int `toml:"right_margin"`
	IndentChars      int `toml:"indent_chars"`
	TitleX           int `toml:"title_x"`
	FooterXFromRight int `toml:"footer_x_from_right"`
	HistoryCapacity  int `toml:"history_capacity"`
}

type Fonts struct {
	Byte  Font `toml:"byte"`
	Multi Font `toml:"multi"`
}

// Font selects a face for one glyph class. An empty Path uses the built-in
// 7x13 bitmap face. LineHeight and Width override what the face reports;
// Width is also used for glyphs the face does not have.
type Font struct {
	Path       string  `toml:"path"`
	Size       float64 `toml:"size"`
	LineHeight int     `toml:"line_height"`
	Width      int     `toml:"width"`
}

type Panel struct {
	// Driver is one of "waveshare", "lcd" or "headless".
	Driver  string `toml:"driver"`
	SPIPort string `toml:"spi_port"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	// PNGPath is where the headless panel writes each refreshed frame.
	PNGPath string `toml:"png_path"`

	LCD LCD `toml:"lcd"`
}

// LCD wires the photonicat gc9307 screen used as a stand-in panel.
type LCD struct {
	SPIPort  string `toml:"spi_port"`
	SpeedKHz int64  `toml:"speed_khz"`
	RSTPin   string `toml:"rst_pin"`
	DCPin    string `toml:"dc_pin"`
	CSPin    string `toml:"cs_pin"`
	BLPin    string `toml:"bl_pin"`
	// Backlight is the sysfs brightness file dimmed while the screen is off.
	Backlight  string `toml:"backlight"`
	Brightness int    `toml:"brightness"`
}

type Input struct {
	NextKeyDevice string `toml:"next_key_device"`
	PrevKeyDevice string `toml:"prev_key_device"`
	AuxName       string `toml:"aux_name"`
	AuxFallback   string `toml:"aux_fallback"`
	Grab          bool   `toml:"grab"`

	LongPress    Duration `toml:"long_press"`
	AntiFlicker  Duration `toml:"anti_flicker"`
	PollInterval Duration `toml:"poll_interval"`
}

type ScreenOff struct {
	// Image is a png, jpeg, gif or svg file; empty draws the built-in one.
	Image string  `toml:"image"`
	Scale float64 `toml:"scale"`
	Sleep bool    `toml:"sleep"`
}

type Preview struct {
	Enabled bool   `toml:"enabled"`
	Listen  string `toml:"listen"`
}

type Log struct {
	Level string `toml:"level"`
}

// Default returns the settings of the 800x480 reader build.
func Default() Config {
	return Config{
		Books: Books{
			Dir:      "./books",
			MaxBooks: 20,
			MaxSize:  4 << 20,
		},
		Layout: Layout{
			HeaderHeight:     30,
			FooterHeight:     30,
			ContentGap:       5,
			IndentChars:      2,
			TitleX:           10,
			FooterXFromRight: 160,
			HistoryCapacity:  500,
		},
		Fonts: Fonts{
			Byte:  Font{Size: 16},
			Multi: Font{Size: 16, Width: 14},
		},
		Panel: Panel{
			Driver: "waveshare",
			Width:  800,
			Height: 480,
			LCD: LCD{
				SPIPort:    "SPI1.0",
				SpeedKHz:   100000,
				RSTPin:     "GPIO122",
				DCPin:      "GPIO121",
				CSPin:      "GPIO0",
				BLPin:      "GPIO117",
				Backlight:  "/sys/class/backlight/backlight/brightness",
				Brightness: 100,
			},
		},
		Input: Input{
			NextKeyDevice: "/dev/input/event3",
			PrevKeyDevice: "/dev/input/event1",
			AuxName:       "eye_page_turner",
			AuxFallback:   "/dev/input/event9",
			Grab:          true,
			LongPress:     Duration{time.Second},
			AntiFlicker:   Duration{2 * time.Second},
			PollInterval:  Duration{50 * time.Millisecond},
		},
		ScreenOff: ScreenOff{Scale: 0.7},
		Preview:   Preview{Listen: ":8081"},
		Log:       Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	l := c.Layout
	switch {
	case l.HeaderHeight < 0 || l.FooterHeight < 0 || l.ContentGap < 0:
		return fmt.Errorf("layout heights must not be negative")
	case l.ContentGap < 1:
		// the header region ends one row below the separator line
		return fmt.Errorf("layout.content_gap must be at least 1")
	case l.IndentChars < 0:
		return fmt.Errorf("indent_chars must not be negative")
	case c.Books.MaxBooks <= 0:
		return fmt.Errorf("books.max_books must be positive")
	case c.Books.MaxSize <= 0:
		return fmt.Errorf("books.max_size must be positive")
	case c.Input.PollInterval.Duration <= 0:
		return fmt.Errorf("input.poll_interval must be positive")
	case c.ScreenOff.Scale <= 0 || c.ScreenOff.Scale > 1:
		return fmt.Errorf("screen_off.scale %v must be in (0, 1]", c.ScreenOff.Scale)
	}
	switch c.Panel.Driver {
	case "waveshare", "lcd", "headless":
	default:
		return fmt.Errorf("unknown panel driver %q", c.Panel.Driver)
	}
	if c.Panel.Driver == "headless" && (c.Panel.Width <= 0 || c.Panel.Height <= 0) {
		return fmt.Errorf("headless panel needs a width and height")
	}
	return nil
}
