package reader

import (
	"image"

	"golang.org/x/image/font"

	"github.com/photonicat/epaper_reader/internal/display"
	"github.com/photonicat/epaper_reader/internal/layout"
)

const (
	titleY      = 10
	lineInset   = 10
	footerInset = 5
)

// pagePainter draws the session's current page.
type pagePainter struct {
	s *Session
}

func (p *pagePainter) PaintHeader(c *display.Canvas, r image.Rectangle) {
	s := p.s
	cfg := s.cfg.Layout
	cols := (r.Dx() - cfg.TitleX - lineInset) / s.faces.CellWidth()
	c.DrawMixedText(s.book.Title(cols), r.Min.X+cfg.TitleX, r.Min.Y+titleY, s.faces.Byte, s.faces.Multi, display.Ink)
	y := r.Min.Y + cfg.HeaderHeight
	c.DrawLine(r.Min.X+lineInset, y, r.Max.X-lineInset, y, display.Ink)
}

// PaintBody draws the lines of the page glyph by glyph at the positions
// the layout chose, then the footer. The body was cleared beforehand, which
// also blanks whatever lies between the last line and the footer.
func (p *pagePainter) PaintBody(c *display.Canvas, r image.Rectangle) {
	s := p.s
	text := s.book.Text
	enc := s.layout.Encoding
	for _, ln := range s.page.Lines {
		for _, run := range ln.Runs {
			face := s.faces.Face(run.Class)
			x := run.X
			for pos := run.Start; pos < run.End; {
				n := enc.CharLen(text, pos)
				glyph := text[pos : pos+n]
				if glyph[0] != ' ' {
					c.DrawText(enc.Decode(glyph), x, ln.Y, face, display.Ink)
				}
				x += s.layout.Metrics.GlyphWidth(glyph, run.Class)
				pos += n
			}
		}
	}

	cfg := s.cfg.Layout
	footer := layout.FooterText(s.pageNumber(), s.totalPages())
	x := footerX(r, cfg.FooterXFromRight, font.MeasureString(s.faces.Byte, footer).Ceil())
	c.DrawText(footer, x, r.Max.Y-cfg.FooterHeight+footerInset, s.faces.Byte, display.Ink)
}

// footerX places a footer of width w fromRight pixels from the right edge,
// pulled left when it would overflow and never left of r.
func footerX(r image.Rectangle, fromRight, w int) int {
	x := r.Max.X - fromRight
	if x+w > r.Max.X-lineInset {
		x = r.Max.X - lineInset - w
	}
	if x < r.Min.X {
		x = r.Min.X
	}
	return x
}
