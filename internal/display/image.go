package display

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// LoadImage decodes a png, jpeg, gif or svg file into an RGBA image.
func LoadImage(filePath string) (*image.RGBA, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var img image.Image
	switch ext := strings.ToLower(filepath.Ext(filePath)); ext {
	case ".png":
		img, err = png.Decode(f)
	case ".jpg", ".jpeg":
		img, err = jpeg.Decode(f)
	case ".gif":
		img, err = gif.Decode(f)
	case ".svg":
		var data []byte
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, err
		}
		return RenderSVG(data, 0, 0)
	default:
		return nil, fmt.Errorf("unsupported image format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// RenderSVG rasterizes an SVG document. A zero w or h uses the document's
// view box size.
func RenderSVG(data []byte, w, h int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	if w <= 0 || h <= 0 {
		w, h = int(icon.ViewBox.W), int(icon.ViewBox.H)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("svg has no size")
	}
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}), image.Point{}, draw.Src)
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return rgba, nil
}

// PlaceholderSVG is the picture shown while the screen is off when no image
// is configured: a closed book.
func PlaceholderSVG(w, h int) []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(w, h, 0, 0, w, h)
	canvas.Rect(0, 0, w, h, "fill:white")
	bw, bh := w*2/5, h*3/5
	x, y := (w-bw)/2, (h-bh)/2
	canvas.Roundrect(x, y, bw, bh, bw/12, bw/12, "fill:white;stroke:black;stroke-width:4")
	canvas.Line(x+bw/6, y, x+bw/6, y+bh, "stroke:black;stroke-width:3")
	for i := 1; i <= 3; i++ {
		ly := y + bh*i/5
		canvas.Line(x+bw/3, ly, x+bw*5/6, ly, "stroke:black;stroke-width:2")
	}
	canvas.End()
	return buf.Bytes()
}

// Placeholder returns the screen-off picture: the image at path, or the
// built-in one rendered at w x h.
func Placeholder(path string, w, h int) (*image.RGBA, error) {
	if path != "" {
		return LoadImage(path)
	}
	return RenderSVG(PlaceholderSVG(w, h), w, h)
}
