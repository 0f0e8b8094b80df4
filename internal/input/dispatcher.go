// Package input turns raw key events from the page-turn keys and the eye
// control device into reader commands.
package input

import (
	"time"

	evdev "github.com/holoplot/go-evdev"
	log "github.com/sirupsen/logrus"
)

// Role says which device an event came from.
type Role int

const (
	RoleNextKey Role = iota
	RolePrevKey
	RoleAux
)

func (r Role) String() string {
	switch r {
	case RoleNextKey:
		return "next-key"
	case RolePrevKey:
		return "prev-key"
	case RoleAux:
		return "aux"
	default:
		return "unknown"
	}
}

type Command int

const (
	NextPage Command = iota + 1
	PrevPage
	NextBook
	PrevBook
	ScreenOff
	ScreenOn
)

func (c Command) String() string {
	switch c {
	case NextPage:
		return "next-page"
	case PrevPage:
		return "prev-page"
	case NextBook:
		return "next-book"
	case PrevBook:
		return "prev-book"
	case ScreenOff:
		return "screen-off"
	case ScreenOn:
		return "screen-on"
	default:
		return "none"
	}
}

// ParseCommand is the inverse of Command.String.
func ParseCommand(s string) (Command, bool) {
	for c := NextPage; c <= ScreenOn; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// RawEvent is one input event as read from a device. Time is the kernel
// timestamp; it is zero for synthetic events.
type RawEvent struct {
	Type  evdev.EvType
	Code  evdev.EvCode
	Value int32
	Time  time.Time
}

// at is when the event happened, falling back to now.
func (ev RawEvent) at(now time.Time) time.Time {
	if ev.Time.IsZero() {
		return now
	}
	return ev.Time
}

// KeyPress builds the press (value 1) event for code.
func KeyPress(code evdev.EvCode) RawEvent {
	return RawEvent{Type: evdev.EV_KEY, Code: code, Value: 1}
}

// KeyRelease builds the release (value 0) event for code.
func KeyRelease(code evdev.EvCode) RawEvent {
	return RawEvent{Type: evdev.EV_KEY, Code: code, Value: 0}
}

var keyCodes = map[Role]map[evdev.EvCode]bool{
	RoleNextKey: {
		evdev.KEY_PAGEDOWN:   true,
		evdev.BTN_LEFT:       true,
		evdev.BTN_RIGHT:      true,
		evdev.BTN_MIDDLE:     true,
		evdev.KEY_NEXTSONG:   true,
		evdev.BTN_EXTRA:      true,
		evdev.KEY_VOLUMEDOWN: true,
	},
	RolePrevKey: {
		evdev.KEY_PAGEUP:   true,
		evdev.BTN_BASE:     true,
		evdev.KEY_VOLUMEUP: true,
	},
}

var auxCommands = map[evdev.EvCode]Command{
	evdev.BTN_LEFT:     ScreenOff,
	evdev.BTN_RIGHT:    ScreenOn,
	evdev.KEY_PAGEDOWN: NextPage,
	evdev.KEY_PAGEUP:   PrevPage,
	evdev.KEY_NEXT:     NextBook,
	evdev.KEY_PREVIOUS: PrevBook,
}

// AuxEvent returns the aux device press that produces cmd.
func AuxEvent(cmd Command) (RawEvent, bool) {
	for code, c := range auxCommands {
		if c == cmd {
			return KeyPress(code), true
		}
	}
	return RawEvent{}, false
}

// keyPress tracks one physical key between press and release.
type keyPress struct {
	pressed bool
	since   time.Time
}

// Dispatcher classifies raw events and queues the resulting commands.
// It is used from the reader loop only.
type Dispatcher struct {
	longPress  time.Duration
	guard      time.Duration
	guardUntil time.Time
	keys       map[Role]*keyPress
	queue      []Command
}

func NewDispatcher(longPress, guard time.Duration) *Dispatcher {
	return &Dispatcher{
		longPress: longPress,
		guard:     guard,
		keys: map[Role]*keyPress{
			RoleNextKey: {},
			RolePrevKey: {},
		},
	}
}

// ArmGuard starts the anti-flicker window after the screen wakes up.
func (d *Dispatcher) ArmGuard(now time.Time) {
	d.guardUntil = now.Add(d.guard)
}

// Guarded reports whether the anti-flicker window is open at now.
func (d *Dispatcher) Guarded(now time.Time) bool {
	return now.Before(d.guardUntil)
}

// Dispatch classifies ev from a device with role r at time now. Hold
// durations use the event timestamps when the device supplies them.
func (d *Dispatcher) Dispatch(r Role, ev RawEvent, now time.Time) {
	if ev.Type != evdev.EV_KEY {
		return
	}
	if r == RoleAux {
		if ev.Value != 1 {
			return
		}
		if cmd, ok := auxCommands[ev.Code]; ok {
			d.queue = append(d.queue, cmd)
		} else {
			log.Debugf("aux: ignoring code %d", ev.Code)
		}
		return
	}

	key, ok := d.keys[r]
	if !ok {
		return
	}
	if d.Guarded(now) {
		log.Debugf("anti-flicker protection active, ignoring %s event", r)
		key.pressed = false
		return
	}
	if !keyCodes[r][ev.Code] {
		log.Debugf("%s: ignoring code %d", r, ev.Code)
		return
	}
	switch ev.Value {
	case 1:
		key.pressed = true
		key.since = ev.at(now)
	case 0:
		if !key.pressed {
			return
		}
		key.pressed = false
		held := ev.at(now).Sub(key.since)
		long := held > d.longPress
		var cmd Command
		switch {
		case r == RoleNextKey && long:
			cmd = NextBook
		case r == RoleNextKey:
			cmd = NextPage
		case long:
			cmd = PrevBook
		default:
			cmd = PrevPage
		}
		log.Debugf("%s released after %v: %s", r, held, cmd)
		d.queue = append(d.queue, cmd)
	}
}

// Next removes the oldest queued command. While the anti-flicker window is
// open only screen-off and screen-on commands come out; others are dropped.
func (d *Dispatcher) Next(now time.Time) (Command, bool) {
	for len(d.queue) > 0 {
		cmd := d.queue[0]
		d.queue = d.queue[1:]
		if d.Guarded(now) && cmd != ScreenOff && cmd != ScreenOn {
			log.Printf("anti-flicker protection active, dropping %s", cmd)
			continue
		}
		return cmd, true
	}
	return 0, false
}
