package display

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
	"periph.io/x/host/v3"
)

// epd is the part of the waveshare driver the panel uses.
type epd interface {
	Bounds() image.Rectangle
	Init() error
	Clear(color.Color) error
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
	SetUpdateMode(mode waveshare2in13v2.PartialUpdate) error
	Sleep() error
	Halt() error
}

// Waveshare drives a 2.13" e-paper HAT over SPI. The controller keeps its
// update mode across sleep, so partial mode survives a wake.
type Waveshare struct {
	port    spi.PortCloser
	dev     epd
	buf     *image1bit.VerticalLSB
	asleep  bool
	partial bool
}

// OpenWaveshare initializes the host, opens the SPI port (empty picks the
// first one) and wakes the panel.
func OpenWaveshare(port string) (*Waveshare, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	spiPort, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", port, err)
	}
	opts := waveshare2in13v2.EPD2in13v2
	dev, err := waveshare2in13v2.NewHat(spiPort, &opts)
	if err != nil {
		spiPort.Close()
		return nil, fmt.Errorf("waveshare hat: %w", err)
	}
	if err := dev.Init(); err != nil {
		spiPort.Close()
		return nil, fmt.Errorf("waveshare init: %w", err)
	}
	log.Printf("e-paper panel ready, %v", dev.Bounds())
	return &Waveshare{
		port: spiPort,
		dev:  dev,
		buf:  image1bit.NewVerticalLSB(dev.Bounds()),
	}, nil
}

func (w *Waveshare) Bounds() image.Rectangle { return w.dev.Bounds() }

func (w *Waveshare) wake() error {
	if !w.asleep {
		return nil
	}
	if err := w.dev.Init(); err != nil {
		return fmt.Errorf("wake panel: %w", err)
	}
	w.asleep = false
	return nil
}

func (w *Waveshare) setMode(partial bool) error {
	if err := w.dev.SetUpdateMode(waveshare2in13v2.PartialUpdate(partial)); err != nil {
		return fmt.Errorf("set update mode: %w", err)
	}
	w.partial = partial
	return nil
}

// FullRefresh re-initializes the controller in full update mode, clears it
// and draws frame, which makes the panel flash.
func (w *Waveshare) FullRefresh(frame *image.RGBA) error {
	if err := w.dev.Init(); err != nil {
		return fmt.Errorf("init panel: %w", err)
	}
	w.asleep = false
	if err := w.setMode(false); err != nil {
		return err
	}
	if err := w.dev.Clear(color.White); err != nil {
		return fmt.Errorf("clear panel: %w", err)
	}
	draw.Draw(w.buf, w.buf.Bounds(), frame, frame.Bounds().Min, draw.Src)
	return w.dev.Draw(w.dev.Bounds(), w.buf, image.Point{})
}

func (w *Waveshare) PartialRefresh(frame *image.RGBA, r image.Rectangle) error {
	if err := w.wake(); err != nil {
		return err
	}
	if !w.partial {
		return fmt.Errorf("partial refresh outside partial mode")
	}
	r = r.Intersect(w.buf.Bounds())
	draw.Draw(w.buf, r, frame, r.Min, draw.Src)
	return w.dev.Draw(r, w.buf, r.Min)
}

// EnterPartialMode switches the controller to the partial waveform, so
// later draws only repaint the changed area without flashing.
func (w *Waveshare) EnterPartialMode() error {
	if err := w.wake(); err != nil {
		return err
	}
	return w.setMode(true)
}

func (w *Waveshare) Sleep() error {
	if err := w.dev.Sleep(); err != nil {
		return err
	}
	w.asleep = true
	return nil
}

func (w *Waveshare) Close() error {
	if err := w.dev.Halt(); err != nil {
		log.Printf("halt panel: %v", err)
	}
	return w.port.Close()
}
