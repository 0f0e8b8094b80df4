// Package reader ties a loaded book, its page index, the navigation history
// and the refresh controller into one reading session.
package reader

import (
	"errors"
	"fmt"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/book"
	"github.com/photonicat/epaper_reader/internal/config"
	"github.com/photonicat/epaper_reader/internal/display"
	"github.com/photonicat/epaper_reader/internal/history"
	"github.com/photonicat/epaper_reader/internal/layout"
	"github.com/photonicat/epaper_reader/internal/refresh"
)

// Status is a snapshot of the session for the preview server and the CLI.
type Status struct {
	Book      string `json:"book"`
	Path      string `json:"path"`
	Encoding  string `json:"encoding"`
	BookIndex int    `json:"book_index"`
	Books     int    `json:"books"`
	Offset    int    `json:"offset"`
	Next      int    `json:"next"`
	Page      int    `json:"page"`
	Total     int    `json:"total"`
	Footer    string `json:"footer"`
	Refresh   string `json:"refresh"`
	ScreenOff bool   `json:"screen_off"`
	History   int    `json:"history"`
}

// Session is the whole mutable state of the reader. Its methods must be
// called from one goroutine; Status may be called from any.
type Session struct {
	cfg     config.Config
	library *book.Library
	faces   *display.Faces
	ctrl    *refresh.Controller
	params  layout.Params

	bookIdx int
	book    *book.Book
	layout  *layout.Layout
	index   *layout.Index
	history *history.Stack
	page    layout.Page
	current int
	next    int

	placeholder image.Image

	mu     sync.RWMutex
	status Status
}

// LayoutParams derives the content area from the screen bounds and fonts.
func LayoutParams(cfg config.Layout, bounds image.Rectangle, faces *display.Faces) layout.Params {
	return layout.Params{
		Left:            bounds.Min.X + cfg.LeftMargin,
		Width:           bounds.Dx() - cfg.LeftMargin - cfg.RightMargin,
		Top:             bounds.Min.Y + cfg.HeaderHeight + cfg.ContentGap,
		Bottom:          bounds.Max.Y - cfg.FooterHeight - cfg.ContentGap,
		ByteLineHeight:  faces.ByteHeight,
		MultiLineHeight: faces.MultiHeight,
		Indent:          cfg.IndentChars * faces.CellWidth(),
	}
}

func NewSession(cfg config.Config, lib *book.Library, panel display.Panel, faces *display.Faces) (*Session, error) {
	if lib == nil || lib.Len() == 0 {
		return nil, book.ErrNoBooks
	}
	params := LayoutParams(cfg.Layout, panel.Bounds(), faces)
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	return &Session{
		cfg:     cfg,
		library: lib,
		faces:   faces,
		ctrl:    refresh.New(panel, cfg.Layout.HeaderHeight),
		params:  params,
		history: history.New(cfg.Layout.HistoryCapacity),
	}, nil
}

// Start opens the first book that loads and shows its first page. When no
// book can be shown it paints the error screen and returns the load error.
func (s *Session) Start() error {
	var lastErr error
	for i := 0; i < s.library.Len(); i++ {
		err := s.OpenBook(i)
		if err == nil {
			return nil
		}
		log.Printf("skipping %s: %v", s.library.Path(i), err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = book.ErrNoBooks
	}
	if err := s.ShowError("Failed to load book"); err != nil {
		log.Printf("error screen: %v", err)
	}
	return fmt.Errorf("no readable book: %w", lastErr)
}

// OpenBook loads book i of the library and shows its first page. On a load
// error the current book stays as it was.
func (s *Session) OpenBook(i int) error {
	path := s.library.Path(i)
	b, err := book.Load(path, s.cfg.Books.MaxSize)
	if err != nil {
		return err
	}
	lay, err := layout.New(s.params, s.faces.Metrics(b.Encoding), b.Encoding)
	if err != nil {
		return err
	}
	idx, err := lay.Build(b.Text)
	var degenerate *layout.DegenerateError
	if errors.As(err, &degenerate) {
		log.Printf("warning: %s: %v; showing %d pages", b.Name(), err, idx.Count())
	} else if err != nil {
		return err
	}

	s.bookIdx = i
	s.book = b
	s.layout = lay
	s.index = idx
	s.current = 0
	s.next = 0
	s.history.Reset(0)
	s.ctrl.Reset()
	log.Printf("opened book [%d] %s: %d pages", i, b.Name(), idx.Total(len(b.Text)))
	return s.render()
}

// SwitchBook moves delta books through the library, wrapping around. Books
// that fail to load are skipped; if none loads the current book is kept.
func (s *Session) SwitchBook(delta int) error {
	n := s.library.Len()
	if n <= 1 {
		log.Println("only one book, not switching")
		return nil
	}
	target := s.bookIdx
	for tries := 1; tries < n; tries++ {
		target = s.library.Step(target, delta)
		err := s.OpenBook(target)
		if err == nil {
			log.Printf("switched to book [%d]: %s", target, s.library.Path(target))
			return nil
		}
		if s.bookIdx == target {
			// loaded, but the panel failed
			return err
		}
		log.Printf("skipping %s: %v", s.library.Path(target), err)
	}
	return fmt.Errorf("no other book could be opened")
}

// NextPage turns forward one page.
func (s *Session) NextPage() error {
	if s.book == nil {
		return nil
	}
	if s.next >= len(s.book.Text) || s.next <= s.current {
		log.Println("End of book.")
		return nil
	}
	if !s.history.Push(s.current) {
		log.Printf("history full at %d entries", s.history.Cap())
	}
	s.current = s.next
	return s.render()
}

// PrevPage returns to the page shown before the last forward turn.
func (s *Session) PrevPage() error {
	if s.book == nil {
		return nil
	}
	for {
		off, ok := s.history.Pop()
		if !ok {
			log.Println("Already at first page.")
			return nil
		}
		if off == s.current {
			continue
		}
		s.current = off
		return s.render()
	}
}

// JumpTo shows page p (1-based) of the open book. The history is rebuilt as
// if the reader had turned forward from the first page.
func (s *Session) JumpTo(p int) error {
	if s.book == nil {
		return fmt.Errorf("no book open")
	}
	off, ok := s.index.Offset(p)
	if !ok {
		return fmt.Errorf("book has only %d pages", s.index.Count())
	}
	s.history.Reset(0)
	for i := 1; i < p; i++ {
		prev, _ := s.index.Offset(i)
		if !s.history.Push(prev) {
			log.Printf("history full at %d entries", s.history.Cap())
			break
		}
	}
	s.current = off
	return s.render()
}

// ScreenOff shows the placeholder picture and optionally puts the panel to
// sleep. Navigation is ignored until ScreenOn.
func (s *Session) ScreenOff() error {
	if s.ctrl.ScreenOff() {
		return nil
	}
	log.Println("entering screen off mode")
	err := s.ctrl.TurnOff(s.screenOffImage(), s.cfg.ScreenOff.Scale, s.cfg.ScreenOff.Sleep)
	s.publish()
	return err
}

// ScreenOn wakes the panel and repaints the current page with its header.
// It reports whether the screen was actually off.
func (s *Session) ScreenOn() (bool, error) {
	woke, err := s.ctrl.TurnOn()
	if !woke {
		return false, nil
	}
	log.Println("exiting screen off mode")
	if err != nil {
		s.publish()
		return true, err
	}
	if s.book == nil {
		s.publish()
		return true, nil
	}
	return true, s.render()
}

// ShowError replaces the screen with an error message.
func (s *Session) ShowError(msg string) error {
	log.Printf("ERROR: %s", msg)
	err := s.ctrl.Blank(func(c *display.Canvas) {
		c.DrawText("ERROR", 10, 10, s.faces.Byte, display.Ink)
		c.DrawMixedText(msg, 10, 40, s.faces.Byte, s.faces.Multi, display.Ink)
		h := max(s.faces.ByteHeight, s.faces.MultiHeight)
		c.DrawRoundedRect(image.Rect(5, 34, c.Bounds().Max.X-5, 46+h), 4, display.Ink)
	})
	s.publish()
	return err
}

func (s *Session) screenOffImage() image.Image {
	if s.placeholder != nil {
		return s.placeholder
	}
	b := s.ctrl.Canvas().Bounds()
	img, err := display.Placeholder(s.cfg.ScreenOff.Image, b.Dx(), b.Dy())
	if err != nil {
		log.Printf("screen off image: %v", err)
		return nil
	}
	s.placeholder = img
	return img
}

func (s *Session) render() error {
	if s.ctrl.ScreenOff() {
		log.Debugf("screen is off, not rendering offset %d", s.current)
		s.publish()
		return nil
	}
	s.page = s.layout.Render(s.book.Text, s.current)
	s.next = s.page.Next
	err := s.ctrl.Redraw(&pagePainter{s: s})
	s.publish()
	if err != nil {
		return fmt.Errorf("redraw: %w", err)
	}
	log.Debugf("page %d/%d: offsets %d-%d", s.pageNumber(), s.totalPages(), s.current, s.next)
	return nil
}

func (s *Session) pageNumber() int { return s.index.Locate(s.current) }

func (s *Session) totalPages() int {
	if s.book == nil {
		return 0
	}
	return s.index.Total(len(s.book.Text))
}

func (s *Session) publish() {
	st := Status{
		Books:     s.library.Len(),
		BookIndex: s.bookIdx,
		Offset:    s.current,
		Next:      s.next,
		Refresh:   s.ctrl.State().String(),
		ScreenOff: s.ctrl.ScreenOff(),
		History:   s.history.Len(),
	}
	if s.book != nil {
		st.Book = s.book.Name()
		st.Path = s.book.Path
		st.Encoding = s.book.Encoding.String()
		st.Page = s.pageNumber()
		st.Total = s.totalPages()
		st.Footer = layout.FooterText(st.Page, st.Total)
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Index returns the page index of the open book.
func (s *Session) Index() *layout.Index { return s.index }

// Controller exposes the refresh controller, mainly for tests.
func (s *Session) Controller() *refresh.Controller { return s.ctrl }
