// Package keymod implements tap bindings. A key with a tap binding
// behaves normally when held, but a quick tap of it on its own sends a
// different key to the focused client instead.
package keymod

import (
	"time"

	"deedles.dev/strata/internal/logger"
	"github.com/charmbracelet/log"
)

// Linux input event codes for the default bindings.
const (
	KeyEsc          uint32 = 1
	KeyLeftShift    uint32 = 42
	KeyRightShift   uint32 = 54
	KeyCapsLock     uint32 = 58
	KeyKPLeftParen  uint32 = 179
	KeyKPRightParen uint32 = 180
)

// DefaultWindow is the default value of Binder.Window.
const DefaultWindow = 400 * time.Millisecond

// Sink receives keys that a binding emits.
type Sink interface {
	SendKey(t time.Time, key uint32, pressed bool)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(t time.Time, key uint32, pressed bool)

func (f SinkFunc) SendKey(t time.Time, key uint32, pressed bool) {
	f(t, key, pressed)
}

type grab struct {
	key   uint32
	emit  uint32
	press time.Time
}

// Binder tracks tap bindings for a single keyboard.
type Binder struct {
	log      *log.Logger
	bindings map[uint32]uint32
	grab     *grab

	// Window is the longest that a key can be held and still count as
	// a tap.
	Window time.Duration
}

func New() *Binder {
	return &Binder{
		log:      logger.For("keymod"),
		bindings: make(map[uint32]uint32),
		Window:   DefaultWindow,
	}
}

// Bind makes a tap of key emit a tap of emit.
func (b *Binder) Bind(key, emit uint32) {
	b.bindings[key] = emit
}

// Grabbed reports whether a bound key is currently held.
func (b *Binder) Grabbed() bool {
	return b.grab != nil
}

// HandleKey processes a key event. It returns true if the event was
// consumed, in which case it must not be forwarded to the client.
func (b *Binder) HandleKey(sink Sink, t time.Time, key uint32, pressed bool) bool {
	if b.grab == nil {
		emit, ok := b.bindings[key]
		if !ok || !pressed {
			return false
		}

		b.grab = &grab{key: key, emit: emit, press: t}
		b.log.Debug("started grab", "key", key)
		return true
	}

	g := b.grab
	if key != g.key {
		b.log.Debug("other key, ending grab", "key", g.key, "other", key)
		b.grab = nil
		return false
	}

	if pressed {
		g.press = t
		return true
	}

	b.grab = nil
	if t.Sub(g.press) >= b.Window {
		b.log.Debug("held too long", "key", key)
		return true
	}

	b.log.Debug("tap", "key", key, "emit", g.emit)
	sink.SendKey(t, g.emit, true)
	sink.SendKey(t, g.emit, false)
	return true
}

// Cancel ends the current grab, if any, without emitting anything.
func (b *Binder) Cancel() {
	b.grab = nil
}
