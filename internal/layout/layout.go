// Package layout splits normalized text into lines and pages. Page index
// construction and page rendering both go through Fit, so a page rendered
// from an indexed offset always ends where the index says the next page
// starts.
package layout

import (
	"fmt"

	"github.com/photonicat/epaper_reader/internal/charset"
)

// ParagraphMarker must match the byte the normalizer emits between
// paragraphs.
const ParagraphMarker = '\n'

// Class selects which font and line height a glyph uses.
type Class int

const (
	ClassByte Class = iota
	ClassMulti
)

func (c Class) String() string {
	if c == ClassMulti {
		return "multi"
	}
	return "byte"
}

// ClassOf classifies a single character run.
func ClassOf(run []byte) Class {
	if len(run) > 1 {
		return ClassMulti
	}
	return ClassByte
}

// Metrics reports the advance width of one character in pixels.
type Metrics interface {
	GlyphWidth(run []byte, class Class) int
}

// FixedMetrics gives every glyph of a class the same width.
type FixedMetrics struct {
	ByteWidth  int
	MultiWidth int
}

func (m FixedMetrics) GlyphWidth(run []byte, class Class) int {
	if class == ClassMulti {
		return m.MultiWidth
	}
	return m.ByteWidth
}

// Params describes the content area. It is shared by index building and
// rendering.
type Params struct {
	Left   int
	Width  int
	Top    int
	Bottom int

	ByteLineHeight  int
	MultiLineHeight int
	// Indent is the horizontal offset of the first line of a paragraph.
	Indent int
}

func (p Params) Validate() error {
	switch {
	case p.Width <= 0:
		return fmt.Errorf("content width %d must be positive", p.Width)
	case p.Bottom <= p.Top:
		return fmt.Errorf("content bottom %d must be below top %d", p.Bottom, p.Top)
	case p.ByteLineHeight <= 0 || p.MultiLineHeight <= 0:
		return fmt.Errorf("line heights %d/%d must be positive", p.ByteLineHeight, p.MultiLineHeight)
	case p.Indent < 0 || p.Indent >= p.Width:
		return fmt.Errorf("indent %d must be within the content width %d", p.Indent, p.Width)
	}
	return nil
}

// Run is a stretch of same-class glyphs drawn starting at X.
type Run struct {
	Start, End int
	X          int
	Class      Class
}

// Line is one laid-out text line. Y is its top edge.
type Line struct {
	Start, End int
	Y          int
	Height     int
	Runs       []Run
}

// Page is the result of fitting text from Start into the content area.
// Next is where the following page starts.
type Page struct {
	Start, Next int
	Lines       []Line
}

// Layout fits text of one encoding into the content area.
type Layout struct {
	Params   Params
	Metrics  Metrics
	Encoding charset.Encoding
}

func New(p Params, m Metrics, enc charset.Encoding) (*Layout, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("no glyph metrics")
	}
	return &Layout{Params: p, Metrics: m, Encoding: enc}, nil
}

// fitLine lays out one line starting at off. A paragraph marker is only
// consumed at the start of a line; one met later ends the line so the next
// line starts on it and gets the indent no matter where it is rendered from.
func (l *Layout) fitLine(text []byte, off int) Line {
	p := l.Params
	ln := Line{Start: off, Height: p.ByteLineHeight}
	x := p.Left
	right := p.Left + p.Width
	if off < len(text) && text[off] == ParagraphMarker {
		off++
		x += p.Indent
	}
	multi := false
	for off < len(text) && text[off] != ParagraphMarker {
		n := l.Encoding.CharLen(text, off)
		run := text[off : off+n]
		class := ClassOf(run)
		w := l.Metrics.GlyphWidth(run, class)
		if x+w > right && off > ln.Start {
			break
		}
		ln.Runs = appendGlyph(ln.Runs, off, off+n, x, class)
		if class == ClassMulti {
			multi = true
		}
		x += w
		off += n
	}
	ln.End = off
	if multi {
		ln.Height = p.MultiLineHeight
	}
	return ln
}

func appendGlyph(runs []Run, start, end, x int, class Class) []Run {
	if k := len(runs) - 1; k >= 0 && runs[k].Class == class && runs[k].End == start {
		runs[k].End = end
		return runs
	}
	return append(runs, Run{Start: start, End: end, X: x, Class: class})
}

// Fit lays out as many lines from start as fit between Top and Bottom.
// A page with no lines and Next == Start means not even one line fits.
func (l *Layout) Fit(text []byte, start int) Page {
	pg := Page{Start: start, Next: start}
	if start >= len(text) {
		pg.Start, pg.Next = len(text), len(text)
		return pg
	}
	y := l.Params.Top
	off := start
	for off < len(text) {
		ln := l.fitLine(text, off)
		if y+ln.Height > l.Params.Bottom {
			break
		}
		ln.Y = y
		pg.Lines = append(pg.Lines, ln)
		y += ln.Height
		off = ln.End
	}
	pg.Next = off
	return pg
}
