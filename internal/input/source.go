package input

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"

	"github.com/photonicat/epaper_reader/internal/config"
)

// ErrNoInput means none of the configured input devices could be opened.
var ErrNoInput = errors.New("no input device available")

const sourceBuffer = 64

// Source is a non-blocking stream of key events from one device.
type Source interface {
	Role() Role
	Name() string
	// Poll returns the next pending event, if any, without blocking.
	Poll() (RawEvent, bool)
	// Drain discards everything pending and returns how many events were dropped.
	Drain() int
	Close() error
}

// DeviceSource reads an evdev device in the background.
type DeviceSource struct {
	role    Role
	path    string
	name    string
	dev     *evdev.InputDevice
	grabbed bool
	events  chan RawEvent
	closing chan struct{}
	once    sync.Once
}

// OpenDevice opens the evdev device at path and starts reading it.
func OpenDevice(path string, role Role, grab bool) (*DeviceSource, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &DeviceSource{
		role:    role,
		path:    path,
		dev:     dev,
		events:  make(chan RawEvent, sourceBuffer),
		closing: make(chan struct{}),
	}
	if grab {
		if err := dev.Grab(); err != nil {
			log.Printf("warning: failed to grab device %s: %v", path, err)
		} else {
			s.grabbed = true
		}
	}
	s.name, _ = dev.Name()
	log.Printf("using input device: %s (%s) as %s", path, s.name, role)
	go s.read()
	return s, nil
}

func (s *DeviceSource) read() {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, os.ErrClosed) {
				return
			}
			log.Printf("read error on %s: %v", s.path, err)
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		select {
		case s.events <- RawEvent{Type: ev.Type, Code: ev.Code, Value: ev.Value, Time: time.Unix(ev.Time.Unix())}:
		default:
			log.Debugf("%s: event buffer full, dropping code %d", s.path, ev.Code)
		}
	}
}

func (s *DeviceSource) Role() Role { return s.role }

func (s *DeviceSource) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.path
}

func (s *DeviceSource) Poll() (RawEvent, bool) { return poll(s.events) }

func (s *DeviceSource) Drain() int { return drain(s.events) }

func (s *DeviceSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closing)
		if s.grabbed {
			if uerr := s.dev.Ungrab(); uerr != nil {
				log.Debugf("ungrab %s: %v", s.path, uerr)
			}
		}
		err = s.dev.Close()
	})
	return err
}

// ChanSource is a Source fed from code rather than a device. The preview
// server uses one to inject remote key presses.
type ChanSource struct {
	role   Role
	name   string
	events chan RawEvent
}

func NewChanSource(name string, role Role) *ChanSource {
	return &ChanSource{role: role, name: name, events: make(chan RawEvent, sourceBuffer)}
}

// Send queues ev. It reports false when the buffer is full.
func (s *ChanSource) Send(ev RawEvent) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

func (s *ChanSource) Role() Role { return s.role }

func (s *ChanSource) Name() string { return s.name }

func (s *ChanSource) Poll() (RawEvent, bool) { return poll(s.events) }

func (s *ChanSource) Drain() int { return drain(s.events) }

func (s *ChanSource) Close() error { return nil }

func poll(ch chan RawEvent) (RawEvent, bool) {
	select {
	case ev := <-ch:
		return ev, true
	default:
		return RawEvent{}, false
	}
}

func drain(ch chan RawEvent) int {
	n := 0
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

// FindDevice returns the path of the input device called name.
func FindDevice(name string) (string, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return "", fmt.Errorf("list input devices: %w", err)
	}
	for _, ip := range paths {
		if ip.Name == name {
			return ip.Path, nil
		}
	}
	return "", fmt.Errorf("input device %q not found", name)
}

// OpenAll opens the page-turn keys and the aux device described by cfg.
// Missing devices are logged and skipped; ErrNoInput is returned only when
// nothing could be opened.
func OpenAll(cfg config.Input) ([]Source, error) {
	var sources []Source
	add := func(path string, role Role) {
		if path == "" {
			return
		}
		s, err := OpenDevice(path, role, cfg.Grab)
		if err != nil {
			log.Printf("warning: %s unavailable: %v", role, err)
			return
		}
		sources = append(sources, s)
	}
	add(cfg.NextKeyDevice, RoleNextKey)
	add(cfg.PrevKeyDevice, RolePrevKey)
	add(auxPath(cfg), RoleAux)
	if len(sources) == 0 {
		return nil, ErrNoInput
	}
	return sources, nil
}

func auxPath(cfg config.Input) string {
	if cfg.AuxName != "" {
		path, err := FindDevice(cfg.AuxName)
		if err == nil {
			return path
		}
		log.Printf("%v, trying %s", err, cfg.AuxFallback)
	}
	if cfg.AuxFallback == "" {
		return ""
	}
	if _, err := os.Stat(cfg.AuxFallback); err != nil {
		log.Printf("aux device %s not present", cfg.AuxFallback)
		return ""
	}
	return cfg.AuxFallback
}

// CloseAll closes every source, logging failures.
func CloseAll(sources []Source) {
	for _, s := range sources {
		if err := s.Close(); err != nil {
			log.Printf("close %s: %v", s.Name(), err)
		}
	}
}
