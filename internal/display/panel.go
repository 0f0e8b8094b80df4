package display

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/config"
)

// Panel is a display driver. Full refreshes flash the whole panel; partial
// refreshes update one rectangle and need EnterPartialMode first.
type Panel interface {
	Bounds() image.Rectangle
	FullRefresh(frame *image.RGBA) error
	PartialRefresh(frame *image.RGBA, r image.Rectangle) error
	EnterPartialMode() error
	Sleep() error
	Close() error
}

type RefreshKind int

const (
	RefreshFull RefreshKind = iota
	RefreshPartial
)

func (k RefreshKind) String() string {
	if k == RefreshPartial {
		return "partial"
	}
	return "full"
}

// Refresh records one update pushed to a Headless panel.
type Refresh struct {
	Kind RefreshKind
	Rect image.Rectangle
}

// Headless is a panel without hardware. It keeps what the glass would show
// and optionally writes it to a PNG after every refresh.
type Headless struct {
	mu      sync.Mutex
	glass   *image.RGBA
	pngPath string
	log     []Refresh
	partial bool
	asleep  bool
}

func NewHeadless(w, h int, pngPath string) *Headless {
	glass := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(glass, glass.Bounds(), image.NewUniform(Paper), image.Point{}, draw.Src)
	return &Headless{glass: glass, pngPath: pngPath}
}

func (p *Headless) Bounds() image.Rectangle { return p.glass.Bounds() }

func (p *Headless) FullRefresh(frame *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asleep = false
	p.partial = false
	draw.Draw(p.glass, p.glass.Bounds(), frame, p.glass.Bounds().Min, draw.Src)
	p.log = append(p.log, Refresh{Kind: RefreshFull, Rect: p.glass.Bounds()})
	return p.save()
}

func (p *Headless) PartialRefresh(frame *image.RGBA, r image.Rectangle) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.partial {
		return fmt.Errorf("partial refresh outside partial mode")
	}
	r = r.Intersect(p.glass.Bounds())
	draw.Draw(p.glass, r, frame, r.Min, draw.Src)
	p.log = append(p.log, Refresh{Kind: RefreshPartial, Rect: r})
	return p.save()
}

func (p *Headless) EnterPartialMode() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.partial = true
	p.asleep = false
	return nil
}

func (p *Headless) Sleep() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.asleep = true
	p.partial = false
	return nil
}

func (p *Headless) Close() error { return nil }

// Refreshes returns the updates pushed so far.
func (p *Headless) Refreshes() []Refresh {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Refresh(nil), p.log...)
}

// Glass returns a copy of what the panel shows.
func (p *Headless) Glass() *image.RGBA {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cloneRGBA(p.glass)
}

func (p *Headless) Asleep() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.asleep
}

func (p *Headless) save() error {
	if p.pngPath == "" {
		return nil
	}
	return SavePNG(p.glass, p.pngPath)
}

// SavePNG writes frame to filename.
func SavePNG(frame image.Image, filename string) error {
	outFile, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := png.Encode(outFile, frame); err != nil {
		outFile.Close()
		return fmt.Errorf("encode %s: %w", filename, err)
	}
	log.Debugf("frame saved to %s", filename)
	return outFile.Close()
}

// Mirror wraps a panel and keeps a copy of what it shows, for the HTTP
// preview.
type Mirror struct {
	Panel
	mu    sync.RWMutex
	frame *image.RGBA
}

func NewMirror(p Panel) *Mirror {
	frame := image.NewRGBA(p.Bounds())
	draw.Draw(frame, frame.Bounds(), image.NewUniform(Paper), image.Point{}, draw.Src)
	return &Mirror{Panel: p, frame: frame}
}

func (m *Mirror) FullRefresh(frame *image.RGBA) error {
	if err := m.Panel.FullRefresh(frame); err != nil {
		return err
	}
	m.copyRect(frame, m.frame.Bounds())
	return nil
}

func (m *Mirror) PartialRefresh(frame *image.RGBA, r image.Rectangle) error {
	if err := m.Panel.PartialRefresh(frame, r); err != nil {
		return err
	}
	m.copyRect(frame, r)
	return nil
}

func (m *Mirror) copyRect(frame *image.RGBA, r image.Rectangle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r = r.Intersect(m.frame.Bounds())
	draw.Draw(m.frame, r, frame, r.Min, draw.Src)
}

// Frame returns a copy of the last shown frame.
func (m *Mirror) Frame() *image.RGBA {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneRGBA(m.frame)
}

// Open returns the panel selected by cfg.Driver.
func Open(cfg config.Panel) (Panel, error) {
	switch cfg.Driver {
	case "waveshare":
		w, err := OpenWaveshare(cfg.SPIPort)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "lcd":
		l, err := OpenLCD(cfg.LCD)
		if err != nil {
			return nil, err
		}
		return l, nil
	case "headless":
		return NewHeadless(cfg.Width, cfg.Height, cfg.PNGPath), nil
	default:
		return nil, fmt.Errorf("unknown panel driver %q", cfg.Driver)
	}
}
