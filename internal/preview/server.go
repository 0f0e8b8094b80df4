// Package preview serves the current panel frame over HTTP and accepts
// remote reader commands.
package preview

import (
	"bytes"
	"context"
	_ "embed"
	"image"
	"image/png"
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/input"
	"github.com/photonicat/epaper_reader/internal/reader"
)

//go:embed index.html
var indexHTML []byte

// FrameSource returns a copy of what the panel shows.
type FrameSource interface {
	Frame() *image.RGBA
}

// StatusSource reports the reader state.
type StatusSource interface {
	Status() reader.Status
}

type Server struct {
	app    *fiber.App
	frames FrameSource
	status StatusSource
	remote *input.ChanSource
}

type commandRequest struct {
	Command string `json:"command"`
}

// New builds the server. Commands posted to /command are fed to remote as
// aux device presses; a nil remote disables the endpoint.
func New(frames FrameSource, status StatusSource, remote *input.ChanSource) *Server {
	s := &Server{
		app:    fiber.New(fiber.Config{DisableStartupMessage: true}),
		frames: frames,
		status: status,
		remote: remote,
	}
	s.app.Get("/", s.indexHandler)
	s.app.Get("/frame", s.serveFrame)
	s.app.Get("/status", s.serveStatus)
	s.app.Post("/command", s.postCommand)
	return s
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		log.Println("Starting Fiber server on", addr)
		errc <- s.app.Listen(addr)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			log.Printf("preview shutdown: %v", err)
		}
		return nil
	}
}

func (s *Server) indexHandler(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexHTML)
}

func (s *Server) serveFrame(c *fiber.Ctx) error {
	frame := s.frames.Frame()
	if frame == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("No frame available")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("Failed to encode image")
	}
	c.Set("Content-Type", "image/png")
	c.Set("Content-Length", strconv.Itoa(buf.Len()))
	return c.Send(buf.Bytes())
}

func (s *Server) serveStatus(c *fiber.Ctx) error {
	return c.JSON(s.status.Status())
}

func (s *Server) postCommand(c *fiber.Ctx) error {
	if s.remote == nil {
		return c.Status(fiber.StatusNotFound).SendString("Remote commands disabled")
	}
	var req commandRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Invalid JSON")
	}
	cmd, ok := input.ParseCommand(req.Command)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("Unknown command " + strconv.Quote(req.Command))
	}
	ev, _ := input.AuxEvent(cmd)
	if !s.remote.Send(ev) {
		return c.Status(fiber.StatusServiceUnavailable).SendString("Command queue full")
	}
	log.Printf("remote command: %s", cmd)
	return c.Status(fiber.StatusAccepted).SendString("Queued " + cmd.String())
}
