package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"deedles.dev/strata/keymod"
	"deedles.dev/strata/shell"
	"deedles.dev/strata/snapshot"
	"deedles.dev/wlr"
	"deedles.dev/wlr/xkb"
	"deedles.dev/ximage/geom"
)

const (
	keyEsc   = 1
	keyPrint = 99
)

type CursorRequester interface {
	RequestCursor(*Server, wlr.Surface, int, int)
}

type Keyboard struct {
	Device wlr.Keyboard
	Keymod *keymod.Binder

	onModifiersListener wlr.Listener
	onKeyListener       wlr.Listener
	onDestroyListener   wlr.Listener
}

func (server *Server) onNewInput(device wlr.InputDevice) {
	switch device.Type() {
	case wlr.InputDeviceTypeKeyboard:
		server.addKeyboard(device.Keyboard())
	case wlr.InputDeviceTypePointer:
		server.addPointer(device.Pointer())
	}
}

func (server *Server) onKeyboardModifiers(kb *Keyboard) {
	server.seat.SetKeyboard(kb.Device)
	server.seat.KeyboardNotifyModifiers(kb.Device.Modifiers())
}

func (server *Server) onKeyboardKey(kb *Keyboard, code uint32, update bool, state wlr.KeyState, t time.Time) {
	sink := keymod.SinkFunc(func(t time.Time, key uint32, pressed bool) {
		state := wlr.KeyStateReleased
		if pressed {
			state = wlr.KeyStatePressed
		}
		server.seat.SetKeyboard(kb.Device)
		server.seat.KeyboardNotifyKey(t, key, state)
	})
	if kb.Keymod.HandleKey(sink, t, code, state == wlr.KeyStatePressed) {
		return
	}

	switch state {
	case wlr.KeyStatePressed:
		server.onKeyboardKeyPressed(kb, code, update, t)
	case wlr.KeyStateReleased:
		server.onKeyboardKeyReleased(kb, code, update, t)
	}
}

func (server *Server) onKeyboardKeyPressed(kb *Keyboard, code uint32, update bool, t time.Time) {
	if server.handleKeyboardShortcut(kb, code, t) {
		return
	}

	server.seat.SetKeyboard(kb.Device)
	server.seat.KeyboardNotifyKey(t, code, wlr.KeyStatePressed)
}

func (server *Server) onKeyboardKeyReleased(kb *Keyboard, code uint32, update bool, t time.Time) {
	server.seat.SetKeyboard(kb.Device)
	server.seat.KeyboardNotifyKey(t, code, wlr.KeyStateReleased)
}

func (server *Server) onCursorMotion(dev wlr.Pointer, t time.Time, dx, dy float64) {
	server.cursor.Move(dev.Base(), dx, dy)
	server.inputMode.CursorMoved(server, t)
}

func (server *Server) onCursorMotionAbsolute(dev wlr.Pointer, t time.Time, x, y float64) {
	server.cursor.WarpAbsolute(dev.Base(), x, y)
	server.inputMode.CursorMoved(server, t)
}

func (server *Server) onCursorButton(dev wlr.Pointer, t time.Time, b wlr.CursorButton, state wlr.ButtonState) {
	switch state {
	case wlr.ButtonPressed:
		server.inputMode.CursorButtonPressed(server, dev, b, t)
	case wlr.ButtonReleased:
		server.inputMode.CursorButtonReleased(server, dev, b, t)
	}
}

func (server *Server) onCursorAxis(dev wlr.Pointer, t time.Time, source wlr.AxisSource, orient wlr.AxisOrientation, delta float64, deltaDiscrete int32) {
	server.seat.PointerNotifyAxis(t, orient, delta, deltaDiscrete, source)
}

func (server *Server) onCursorFrame() {
	server.seat.PointerNotifyFrame()
}

func (server *Server) onRequestCursor(client wlr.SeatClient, surface wlr.Surface, serial uint32, hotspotX, hotspotY int32) {
	m, ok := server.inputMode.(CursorRequester)
	if !ok {
		return
	}

	focused := server.seat.PointerState().FocusedClient()
	if focused == client {
		m.RequestCursor(server, surface, int(hotspotX), int(hotspotY))
	}
}

func (server *Server) addKeyboard(dev wlr.Keyboard) {
	kb := Keyboard{
		Device: dev,
		Keymod: keymod.New(),
	}
	for _, b := range server.Config.Keymod {
		kb.Keymod.Bind(b.Key, b.Emit)
	}

	rules := xkb.RuleNames{
		Rules:   os.Getenv("XKB_DEFAULT_RULES"),
		Model:   os.Getenv("XKB_DEFAULT_MODEL"),
		Layout:  os.Getenv("XKB_DEFAULT_LAYOUT"),
		Variant: os.Getenv("XKB_DEFAULT_VARIANT"),
		Options: os.Getenv("XKB_DEFAULT_OPTIONS"),
	}

	ctx := xkb.NewContext(xkb.ContextNoFlags)
	defer ctx.Unref()

	keymap := xkb.NewKeymapFromNames(ctx, &rules, xkb.KeymapCompileNoFlags)
	defer keymap.Unref()

	kb.Device.SetKeymap(keymap)
	kb.Device.SetRepeatInfo(25, 600)

	kb.onModifiersListener = kb.Device.OnModifiers(func(k wlr.Keyboard) {
		server.onKeyboardModifiers(&kb)
	})
	kb.onKeyListener = kb.Device.OnKey(func(k wlr.Keyboard, t time.Time, code uint32, update bool, state wlr.KeyState) {
		server.onKeyboardKey(&kb, code, update, state, t)
	})
	kb.onDestroyListener = kb.Device.Base().OnDestroy(func(wlr.InputDevice) {
		kb.Keymod.Cancel()
		kb.onModifiersListener.Destroy()
		kb.onKeyListener.Destroy()
		kb.onDestroyListener.Destroy()
	})

	server.seat.SetKeyboard(dev)
	server.keyboards = append(server.keyboards, &kb)

	server.seat.SetCapabilities(server.seat.Capabilities() | wlr.SeatCapabilityKeyboard)
}

func (server *Server) addPointer(dev wlr.Pointer) {
	server.cursor.AttachInputDevice(dev.Base())
	server.seat.SetCapabilities(server.seat.Capabilities() | wlr.SeatCapabilityPointer)
	server.setCursor("left_ptr")
}

func (server *Server) setCursor(name string) {
	if name == "" {
		return
	}

	server.cursor.SetXCursor(server.cursorMgr, name)
}

func (server *Server) handleKeyboardShortcut(kb *Keyboard, code uint32, t time.Time) bool {
	if kb.Device.GetModifiers()&wlr.KeyboardModifierAlt == 0 {
		return false
	}

	switch code {
	case keyEsc:
		server.stop()
	case keyPrint:
		server.saveSnapshot()
	default:
		return false
	}

	return true
}

// saveSnapshot saves a map of where layer surfaces have been placed,
// both as a whole and band by band.
func (server *Server) saveSnapshot() {
	shot := snapshot.Take(server.shell, snapshot.SourceFunc(server.placementMap))
	if len(shot.Layers) == 0 {
		server.log.Info("nothing to snapshot")
		return
	}

	prefix := filepath.Join(server.Config.SnapshotDir, fmt.Sprintf("strata-%v", time.Now().Unix()))
	server.saveShot(shot, prefix+".png")
	for _, b := range shell.Bands {
		layer, ok := shot.Layer(b)
		if !ok {
			continue
		}
		server.saveShot(&snapshot.Shot{Layers: []snapshot.Layer{layer}}, fmt.Sprintf("%v-%v.png", prefix, b))
	}
}

func (server *Server) saveShot(shot *snapshot.Shot, path string) {
	err := shot.Save(path)
	if err != nil {
		server.log.Error("save snapshot", "path", path, "err", err)
		return
	}
	server.log.Info("saved snapshot", "path", path, "bounds", shot.Bounds())
}

func (server *Server) cursorCoords() geom.Point[float64] {
	return geom.Pt(server.cursor.X(), server.cursor.Y())
}
