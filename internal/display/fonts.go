package display

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"

	"github.com/photonicat/epaper_reader/internal/charset"
	"github.com/photonicat/epaper_reader/internal/config"
	"github.com/photonicat/epaper_reader/internal/layout"
)

// LoadFace loads an OpenType/TrueType font at size points. It returns the
// face and its line height (ascent + descent).
func LoadFace(path string, size float64) (font.Face, int, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading font file: %w", err)
	}
	otf, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing font %s: %w", path, err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, 0, err
	}
	return face, faceHeight(face), nil
}

// LoadTrueTypeFace loads a font with the freetype rasterizer, which copes
// with the large CJK fonts found on reader images.
func LoadTrueTypeFace(path string, size float64) (font.Face, int, error) {
	fontBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading font file: %w", err)
	}
	ttf, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, 0, fmt.Errorf("error parsing font %s: %w", path, err)
	}
	face := truetype.NewFace(ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
	return face, faceHeight(face), nil
}

func faceHeight(face font.Face) int {
	m := face.Metrics()
	return m.Ascent.Round() + m.Descent.Round()
}

// Faces are the two fonts a page is drawn with.
type Faces struct {
	Byte  font.Face
	Multi font.Face

	ByteHeight  int
	MultiHeight int
	// ByteWidth and MultiWidth, when set, fix the advance of every glyph in
	// the class.
	ByteWidth  int
	MultiWidth int
}

// LoadFaces opens the configured fonts. A font without a path uses the
// 7x13 bitmap face.
func LoadFaces(cfg config.Fonts) (*Faces, error) {
	f := &Faces{ByteWidth: cfg.Byte.Width, MultiWidth: cfg.Multi.Width}
	var err error
	if cfg.Byte.Path != "" {
		f.Byte, f.ByteHeight, err = LoadFace(cfg.Byte.Path, cfg.Byte.Size)
		if err != nil {
			return nil, err
		}
	} else {
		f.Byte, f.ByteHeight = basicfont.Face7x13, faceHeight(basicfont.Face7x13)
	}
	if cfg.Multi.Path != "" {
		f.Multi, f.MultiHeight, err = LoadTrueTypeFace(cfg.Multi.Path, cfg.Multi.Size)
		if err != nil {
			return nil, err
		}
	} else {
		f.Multi, f.MultiHeight = basicfont.Face7x13, faceHeight(basicfont.Face7x13)
	}
	if cfg.Byte.LineHeight > 0 {
		f.ByteHeight = cfg.Byte.LineHeight
	}
	if cfg.Multi.LineHeight > 0 {
		f.MultiHeight = cfg.Multi.LineHeight
	}
	return f, nil
}

// Face returns the face glyphs of class are drawn with.
func (f *Faces) Face(class layout.Class) font.Face {
	if class == layout.ClassMulti {
		return f.Multi
	}
	return f.Byte
}

// CellWidth is the advance of a digit in the byte face, used to turn
// character counts into pixels.
func (f *Faces) CellWidth() int {
	if f.ByteWidth > 0 {
		return f.ByteWidth
	}
	if adv, ok := f.Byte.GlyphAdvance('0'); ok {
		return adv.Round()
	}
	return f.ByteHeight / 2
}

// Metrics measures glyphs of text in encoding enc.
func (f *Faces) Metrics(enc charset.Encoding) *FontMetrics {
	return &FontMetrics{faces: f, enc: enc, widths: make(map[string]int)}
}

// FontMetrics implements layout.Metrics over a pair of font faces. Widths
// are cached per character.
type FontMetrics struct {
	faces  *Faces
	enc    charset.Encoding
	widths map[string]int
}

func (m *FontMetrics) GlyphWidth(run []byte, class layout.Class) int {
	fixedWidth := m.faces.ByteWidth
	if class == layout.ClassMulti {
		fixedWidth = m.faces.MultiWidth
	}
	if fixedWidth > 0 {
		return fixedWidth
	}
	if w, ok := m.widths[string(run)]; ok {
		return w
	}
	face := m.faces.Face(class)
	r, _ := utf8.DecodeRuneInString(m.enc.Decode(run))
	w := 0
	if adv, ok := face.GlyphAdvance(r); ok {
		w = adv.Round()
	}
	if w <= 0 {
		// missing glyph: square cell
		w = faceHeight(face)
	}
	m.widths[string(run)] = w
	return w
}
