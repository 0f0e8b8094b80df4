package reader

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/config"
	"github.com/photonicat/epaper_reader/internal/input"
)

// Loop polls the input sources and runs the resulting commands against a
// session. It is the only goroutine that touches the session.
type Loop struct {
	session    *Session
	sources    []input.Source
	dispatcher *input.Dispatcher
	interval   time.Duration
}

func NewLoop(s *Session, sources []input.Source, cfg config.Input) *Loop {
	return &Loop{
		session:    s,
		sources:    sources,
		dispatcher: input.NewDispatcher(cfg.LongPress.Duration, cfg.AntiFlicker.Duration),
		interval:   cfg.PollInterval.Duration,
	}
}

// Run polls every interval until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Step takes at most one event from each source, then runs every queued
// command.
func (l *Loop) Step(now time.Time) {
	for _, src := range l.sources {
		if ev, ok := src.Poll(); ok {
			l.dispatcher.Dispatch(src.Role(), ev, now)
		}
	}
	for {
		cmd, ok := l.dispatcher.Next(now)
		if !ok {
			return
		}
		if err := l.Execute(cmd, now); err != nil {
			log.Printf("%s: %v", cmd, err)
		}
	}
}

// Execute runs one command. Navigation is dropped while the screen is off.
func (l *Loop) Execute(cmd input.Command, now time.Time) error {
	s := l.session
	log.Debugf("command %s", cmd)
	switch cmd {
	case input.ScreenOff:
		return s.ScreenOff()
	case input.ScreenOn:
		start := time.Now()
		woke, err := s.ScreenOn()
		if woke {
			l.drainAux()
			// the window opens once the wake redraw is on the glass
			l.dispatcher.ArmGuard(now.Add(time.Since(start)))
		}
		return err
	}
	if s.Controller().ScreenOff() {
		log.Printf("screen is off, ignoring %s", cmd)
		return nil
	}
	switch cmd {
	case input.NextPage:
		return s.NextPage()
	case input.PrevPage:
		return s.PrevPage()
	case input.NextBook:
		return s.SwitchBook(1)
	case input.PrevBook:
		return s.SwitchBook(-1)
	}
	return nil
}

func (l *Loop) drainAux() {
	for _, src := range l.sources {
		if src.Role() != input.RoleAux {
			continue
		}
		if n := src.Drain(); n > 0 {
			log.Printf("dropped %d pending events from %s", n, src.Name())
		}
	}
}

// Dispatcher is exposed for tests.
func (l *Loop) Dispatcher() *input.Dispatcher { return l.dispatcher }
