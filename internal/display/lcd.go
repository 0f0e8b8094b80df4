package display

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"strconv"

	gc9307 "github.com/photonicat/periph.io-gc9307"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/photonicat/epaper_reader/internal/config"
)

const (
	lcdWidth   = 172
	lcdHeight  = 320
	lcdXOffset = 34
)

// LCD shows reader frames on the photonicat 2 front screen. It has no
// partial mode, so both refresh kinds just push pixels; sleeping turns the
// backlight off.
type LCD struct {
	port       spi.PortCloser
	dev        gc9307.Device
	backlight  string
	brightness int
}

func OpenLCD(cfg config.LCD) (*LCD, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	spiPort, err := spireg.Open(cfg.SPIPort)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPIPort, err)
	}
	conn, err := spiPort.Connect(physic.Frequency(cfg.SpeedKHz)*physic.KiloHertz, spi.Mode0, 8)
	if err != nil {
		spiPort.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}
	dev := gc9307.New(conn,
		gpioreg.ByName(cfg.RSTPin),
		gpioreg.ByName(cfg.DCPin),
		gpioreg.ByName(cfg.CSPin),
		gpioreg.ByName(cfg.BLPin))
	dev.Configure(gc9307.Config{
		Width:        lcdWidth,
		Height:       lcdHeight,
		Rotation:     gc9307.ROTATION_180,
		RowOffset:    0,
		ColumnOffset: lcdXOffset,
		FrameRate:    gc9307.FRAMERATE_60,
		VSyncLines:   gc9307.MAX_VSYNC_SCANLINES,
		UseCS:        false,
	})
	dev.EnableBacklight(false)
	l := &LCD{port: spiPort, dev: dev, backlight: cfg.Backlight, brightness: cfg.Brightness}
	l.setBacklight(l.brightness)
	return l, nil
}

func (l *LCD) Bounds() image.Rectangle { return image.Rect(0, 0, lcdWidth, lcdHeight) }

func (l *LCD) FullRefresh(frame *image.RGBA) error {
	return l.PartialRefresh(frame, l.Bounds())
}

func (l *LCD) PartialRefresh(frame *image.RGBA, r image.Rectangle) error {
	r = r.Intersect(l.Bounds())
	if r.Empty() {
		return nil
	}
	// the driver reads pixels from the origin of the image it is given
	sub := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(sub, sub.Bounds(), frame, r.Min, draw.Src)
	l.dev.FillRectangleWithImage(int16(r.Min.X), int16(r.Min.Y), int16(r.Dx()), int16(r.Dy()), sub)
	return nil
}

func (l *LCD) EnterPartialMode() error {
	l.setBacklight(l.brightness)
	return nil
}

func (l *LCD) Sleep() error {
	l.setBacklight(0)
	return nil
}

func (l *LCD) Close() error {
	return l.port.Close()
}

func (l *LCD) setBacklight(brightness int) {
	if l.backlight == "" {
		return
	}
	switch {
	case brightness < 0:
		brightness = 0
	case brightness > 100:
		brightness = 100
	}
	if err := os.WriteFile(l.backlight, []byte(strconv.Itoa(brightness)), 0o644); err != nil {
		log.Printf("backlight write error: %v", err)
	}
}
