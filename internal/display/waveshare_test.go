package display

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
)

type fakeEPD struct {
	calls   []string
	modeErr error
	mode    waveshare2in13v2.PartialUpdate
}

func (f *fakeEPD) Bounds() image.Rectangle { return image.Rect(0, 0, 122, 250) }
func (f *fakeEPD) Halt() error             { return nil }

func (f *fakeEPD) Init() error {
	f.calls = append(f.calls, "init")
	return nil
}

func (f *fakeEPD) Sleep() error {
	f.calls = append(f.calls, "sleep")
	return nil
}

func (f *fakeEPD) Clear(color.Color) error {
	f.calls = append(f.calls, "clear")
	return nil
}

func (f *fakeEPD) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if f.mode == waveshare2in13v2.Partial {
		f.calls = append(f.calls, "draw partial")
	} else {
		f.calls = append(f.calls, "draw full")
	}
	return nil
}

func (f *fakeEPD) SetUpdateMode(mode waveshare2in13v2.PartialUpdate) error {
	if f.modeErr != nil {
		return f.modeErr
	}
	f.mode = mode
	return nil
}

func newTestWaveshare(dev *fakeEPD) *Waveshare {
	return &Waveshare{dev: dev, buf: image1bit.NewVerticalLSB(dev.Bounds())}
}

func TestWaveshareUpdateModes(t *testing.T) {
	dev := &fakeEPD{}
	w := newTestWaveshare(dev)
	frame := image.NewRGBA(dev.Bounds())

	require.NoError(t, w.FullRefresh(frame))
	require.NoError(t, w.EnterPartialMode())
	require.NoError(t, w.PartialRefresh(frame, image.Rect(0, 0, 122, 30)))
	require.NoError(t, w.Sleep())
	require.NoError(t, w.PartialRefresh(frame, image.Rect(0, 30, 122, 60)))
	require.NoError(t, w.FullRefresh(frame))

	assert.Equal(t, []string{
		"init", "clear", "draw full",
		"draw partial",
		"sleep", "init", "draw partial",
		"init", "clear", "draw full",
	}, dev.calls)
}

func TestWaveshareRefreshErrors(t *testing.T) {
	tests := []struct {
		name    string
		modeErr error
		run     func(w *Waveshare) error
		err     string
	}{
		{
			name: "partial before entering partial mode",
			run: func(w *Waveshare) error {
				return w.PartialRefresh(image.NewRGBA(w.Bounds()), image.Rect(0, 0, 10, 10))
			},
			err: "outside partial mode",
		},
		{
			name:    "mode switch fails",
			modeErr: errors.New("busy"),
			run:     func(w *Waveshare) error { return w.EnterPartialMode() },
			err:     "set update mode",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeEPD{modeErr: tt.modeErr}
			assert.ErrorContains(t, tt.run(newTestWaveshare(dev)), tt.err)
		})
	}
}
