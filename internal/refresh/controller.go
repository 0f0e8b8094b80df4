// Package refresh decides how much of the panel each redraw touches and
// which refresh mode it uses.
package refresh

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/display"
)

type State int

const (
	// Uninitialized: nothing valid on the panel; the next redraw flashes.
	Uninitialized State = iota
	// FullyPainted: header and content were just painted together.
	FullyPainted
	// ContentOnly: the header is on the panel; only content and footer change.
	ContentOnly
	// HeaderPending: the panel woke up and the header must be repainted.
	HeaderPending
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "UNINITIALIZED"
	case FullyPainted:
		return "FULLY_PAINTED"
	case ContentOnly:
		return "CONTENT_ONLY"
	case HeaderPending:
		return "HEADER_PENDING"
	default:
		return "UNKNOWN"
	}
}

// Regions splits the screen into the header band (title and separator) and
// the body (content and footer).
type Regions struct {
	Header image.Rectangle
	Body   image.Rectangle
}

// Plan is what one redraw does.
type Plan struct {
	ClearAll bool
	// Header repaints the header band.
	Header bool
	// Flash does a full refresh after painting the header and switches the
	// panel to partial mode before the body is sent.
	Flash bool
	// Partial is the rectangle sent with a partial refresh once the body is
	// painted.
	Partial image.Rectangle
	Next    State
}

// PlanFor returns the redraw plan for state s.
func PlanFor(s State, r Regions) Plan {
	all := r.Header.Union(r.Body)
	switch s {
	case Uninitialized:
		return Plan{ClearAll: true, Header: true, Flash: true, Partial: all, Next: FullyPainted}
	case HeaderPending:
		return Plan{Header: true, Partial: all, Next: FullyPainted}
	default:
		return Plan{Partial: r.Body, Next: ContentOnly}
	}
}

// Painter draws the two parts of a page onto the canvas.
type Painter interface {
	PaintHeader(c *display.Canvas, r image.Rectangle)
	PaintBody(c *display.Canvas, r image.Rectangle)
}

// Controller owns the canvas, the panel and the refresh state.
type Controller struct {
	canvas    *display.Canvas
	panel     display.Panel
	regions   Regions
	state     State
	screenOff bool
}

func New(panel display.Panel, headerHeight int) *Controller {
	b := panel.Bounds()
	split := b.Min.Y + headerHeight + 1
	if split > b.Max.Y {
		split = b.Max.Y
	}
	return &Controller{
		canvas: display.NewCanvas(b),
		panel:  panel,
		regions: Regions{
			Header: image.Rect(b.Min.X, b.Min.Y, b.Max.X, split),
			Body:   image.Rect(b.Min.X, split, b.Max.X, b.Max.Y),
		},
	}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Regions() Regions { return c.regions }

func (c *Controller) Canvas() *display.Canvas { return c.canvas }

func (c *Controller) ScreenOff() bool { return c.screenOff }

// Reset forgets what is on the panel, as after a book switch.
func (c *Controller) Reset() {
	c.state = Uninitialized
}

// Redraw paints a page and pushes it to the panel according to the
// current state.
func (c *Controller) Redraw(p Painter) error {
	if c.screenOff {
		return fmt.Errorf("redraw while the screen is off")
	}
	plan := PlanFor(c.state, c.regions)
	img := c.canvas.Image()

	if plan.ClearAll {
		c.canvas.Clear(c.canvas.Bounds(), display.Paper)
	}
	if plan.Header {
		c.canvas.Clear(c.regions.Header, display.Paper)
		p.PaintHeader(c.canvas, c.regions.Header)
	}
	if plan.Flash {
		if err := c.panel.FullRefresh(img); err != nil {
			return fmt.Errorf("full refresh: %w", err)
		}
		if err := c.panel.EnterPartialMode(); err != nil {
			return fmt.Errorf("enter partial mode: %w", err)
		}
	}
	c.canvas.Clear(c.regions.Body, display.Paper)
	p.PaintBody(c.canvas, c.regions.Body)
	if err := c.panel.PartialRefresh(img, plan.Partial); err != nil {
		return fmt.Errorf("partial refresh: %w", err)
	}
	if plan.Next != c.state {
		log.Debugf("refresh: state changed from %s to %s", c.state, plan.Next)
	}
	c.state = plan.Next
	return nil
}

// Blank shows a single full-screen picture with a full refresh, for the
// error screen. The next redraw starts from scratch.
func (c *Controller) Blank(paint func(*display.Canvas)) error {
	c.canvas.Clear(c.canvas.Bounds(), display.Paper)
	paint(c.canvas)
	c.state = Uninitialized
	return c.panel.FullRefresh(c.canvas.Image())
}

// TurnOff shows placeholder centered at scale with a full refresh and, if
// sleep is set, puts the panel to sleep. It does nothing when the screen is
// already off.
func (c *Controller) TurnOff(placeholder image.Image, scale float64, sleep bool) error {
	if c.screenOff {
		return nil
	}
	c.canvas.Clear(c.canvas.Bounds(), display.Paper)
	if placeholder != nil {
		c.canvas.DrawImageScaled(placeholder, scale)
	}
	if err := c.panel.FullRefresh(c.canvas.Image()); err != nil {
		// the glass may show anything now, so the next redraw starts over
		c.state = Uninitialized
		return fmt.Errorf("screen off refresh: %w", err)
	}
	c.screenOff = true
	if sleep {
		if err := c.panel.Sleep(); err != nil {
			return fmt.Errorf("panel sleep: %w", err)
		}
	}
	return nil
}

// TurnOn puts the panel back in partial mode and marks the header for
// repainting. It reports false when the screen was not off.
func (c *Controller) TurnOn() (bool, error) {
	if !c.screenOff {
		return false, nil
	}
	c.screenOff = false
	if err := c.panel.EnterPartialMode(); err != nil {
		c.state = Uninitialized
		return true, fmt.Errorf("enter partial mode: %w", err)
	}
	c.canvas.Clear(c.canvas.Bounds(), display.Paper)
	if c.state != Uninitialized {
		c.state = HeaderPending
	}
	return true, nil
}
