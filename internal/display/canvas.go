// Package display draws reader frames and pushes them to a panel.
package display

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"unicode/utf8"

	"github.com/llgcode/draw2d/draw2dimg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var (
	Paper = color.RGBA{255, 255, 255, 255}
	Ink   = color.RGBA{0, 0, 0, 255}
)

// Canvas is the in-memory frame that panels are refreshed from.
type Canvas struct {
	img *image.RGBA
}

func NewCanvas(r image.Rectangle) *Canvas {
	c := &Canvas{img: image.NewRGBA(r)}
	c.Clear(r, Paper)
	return c
}

func (c *Canvas) Image() *image.RGBA { return c.img }

func (c *Canvas) Bounds() image.Rectangle { return c.img.Bounds() }

// Clear fills r with col.
func (c *Canvas) Clear(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r.Intersect(c.img.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawText draws text with its top-left corner at (x, y) and returns the x
// where it ends.
func (c *Canvas) DrawText(text string, x, y int, face font.Face, col color.Color) int {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Round()),
	}
	d.DrawString(text)
	return d.Dot.X.Round()
}

// DrawMixedText draws ASCII with narrow and everything else with wide.
func (c *Canvas) DrawMixedText(text string, x, y int, narrow, wide font.Face, col color.Color) int {
	start := 0
	wideRun := false
	for i, r := range text {
		isWide := r >= utf8.RuneSelf
		if i > start && isWide != wideRun {
			x = c.DrawText(text[start:i], x, y, pick(wideRun, narrow, wide), col)
			start = i
		}
		wideRun = isWide
	}
	if start < len(text) {
		x = c.DrawText(text[start:], x, y, pick(wideRun, narrow, wide), col)
	}
	return x
}

func pick(wide bool, narrow, wideFace font.Face) font.Face {
	if wide {
		return wideFace
	}
	return narrow
}

// DrawLine strokes a one pixel line.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, col color.Color) {
	gc := draw2dimg.NewGraphicContext(c.img)
	gc.SetStrokeColor(col)
	gc.SetLineWidth(1)
	gc.BeginPath()
	gc.MoveTo(float64(x0)+0.5, float64(y0)+0.5)
	gc.LineTo(float64(x1)+0.5, float64(y1)+0.5)
	gc.Stroke()
}

// DrawRoundedRect strokes the outline of a rectangle with corner radius rad.
func (c *Canvas) DrawRoundedRect(r image.Rectangle, rad float64, col color.Color) {
	gc := draw2dimg.NewGraphicContext(c.img)
	gc.SetStrokeColor(col)
	gc.SetLineWidth(1)
	x, y := float64(r.Min.X)+0.5, float64(r.Min.Y)+0.5
	w, h := float64(r.Dx()-1), float64(r.Dy()-1)
	gc.BeginPath()
	gc.MoveTo(x+rad, y)
	gc.LineTo(x+w-rad, y)
	gc.ArcTo(x+w-rad, y+rad, rad, rad, -math.Pi/2, math.Pi/2)
	gc.LineTo(x+w, y+h-rad)
	gc.ArcTo(x+w-rad, y+h-rad, rad, rad, 0, math.Pi/2)
	gc.LineTo(x+rad, y+h)
	gc.ArcTo(x+rad, y+h-rad, rad, rad, math.Pi/2, math.Pi/2)
	gc.LineTo(x, y+rad)
	gc.ArcTo(x+rad, y+rad, rad, rad, math.Pi, math.Pi/2)
	gc.Close()
	gc.Stroke()
}

// DrawImageScaled draws src centered, scaled to fit within scale times the
// canvas size while keeping its aspect ratio.
func (c *Canvas) DrawImageScaled(src image.Image, scale float64) {
	b := c.img.Bounds()
	sb := src.Bounds()
	if sb.Empty() || scale <= 0 {
		return
	}
	fx := float64(b.Dx()) * scale / float64(sb.Dx())
	fy := float64(b.Dy()) * scale / float64(sb.Dy())
	f := fx
	if fy < f {
		f = fy
	}
	w := int(float64(sb.Dx()) * f)
	h := int(float64(sb.Dy()) * f)
	x0 := b.Min.X + (b.Dx()-w)/2
	y0 := b.Min.Y + (b.Dy()-h)/2
	xdraw.ApproxBiLinear.Scale(c.img, image.Rect(x0, y0, x0+w, y0+h), src, sb, xdraw.Over, nil)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
