package main

import (
	"time"

	"deedles.dev/strata/focus"
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
)

type InputMode interface {
	CursorMoved(*Server, time.Time)
	CursorButtonPressed(*Server, wlr.Pointer, wlr.CursorButton, time.Time)
	CursorButtonReleased(*Server, wlr.Pointer, wlr.CursorButton, time.Time)
}

type inputModeNormal struct{}

func (server *Server) startNormal() {
	server.setCursor("left_ptr")
	server.inputMode = &inputModeNormal{}
}

func (m *inputModeNormal) CursorMoved(server *Server, t time.Time) {
	_, surface, sp, ok := server.targetAt(server.cursorCoords())
	if !ok {
		server.setCursor("left_ptr")
		server.seat.PointerNotifyClearFocus()
		return
	}

	focus := server.seat.PointerState().FocusedSurface() != surface
	server.seat.PointerNotifyEnter(surface, sp.X, sp.Y)
	if !focus {
		server.seat.PointerNotifyMotion(t, sp.X, sp.Y)
	}
}

func (m *inputModeNormal) CursorButtonPressed(server *Server, dev wlr.Pointer, b wlr.CursorButton, t time.Time) {
	target, _, _, ok := server.targetAt(server.cursorCoords())
	name, consumed := server.focus.Dispatch(focus.Event{
		Kind:      focus.KindButton,
		Button:    uint32(b),
		Target:    target,
		HasTarget: ok,
	})
	if consumed {
		server.log.Debug("activation", "handler", name, "button", b)
	}

	server.seat.PointerNotifyButton(t, b, wlr.ButtonPressed)
}

func (m *inputModeNormal) CursorButtonReleased(server *Server, dev wlr.Pointer, b wlr.CursorButton, t time.Time) {
	server.seat.PointerNotifyButton(t, b, wlr.ButtonReleased)
}

func (m *inputModeNormal) RequestCursor(server *Server, s wlr.Surface, x, y int) {
	server.cursor.SetSurface(s, int32(x), int32(y))
}

type inputModeMove struct {
	view   *View
	offset geom.Point[float64]
}

func (server *Server) startMove(view *View) {
	if server.seat.PointerState().FocusedSurface() != view.XDGSurface.Surface() {
		return
	}

	server.setCursor("grabbing")
	server.inputMode = &inputModeMove{
		view:   view,
		offset: server.cursorCoords().Sub(geom.PConv[float64](view.Coords)),
	}
}

func (m *inputModeMove) CursorMoved(server *Server, t time.Time) {
	m.view.Coords = geom.PConv[int](server.cursorCoords().Sub(m.offset))
}

func (m *inputModeMove) Frame(server *Server, out *Output) {
	r := m.view.Bounds().Inset(-WindowBorder).Sub(server.outputBounds(out).Min)
	server.renderRectBorder(out, geom.RConv[float64](r), ColorGrabBorder)
}

func (m *inputModeMove) CursorButtonPressed(server *Server, dev wlr.Pointer, b wlr.CursorButton, t time.Time) {
	// Clicks during a grab never activate anything.
	server.focus.Dispatch(focus.Event{
		Kind:    focus.KindButton,
		Button:  uint32(b),
		Grabbed: true,
	})
}

func (m *inputModeMove) CursorButtonReleased(server *Server, dev wlr.Pointer, b wlr.CursorButton, t time.Time) {
	server.seat.PointerNotifyButton(t, b, wlr.ButtonReleased)
	server.startNormal()
}

// targetAt finds the view and surface under p, searching layer
// surfaces and windows in stacking order.
func (server *Server) targetAt(p geom.Point[float64]) (shell.ViewID, wlr.Surface, geom.Point[float64], bool) {
	for _, b := range []shell.Band{shell.BandOverlay, shell.BandTop} {
		if view, surface, sp, ok := server.host.viewAt(b, p); ok {
			return view.ID, surface, sp, true
		}
	}

	if view, surface, sp, ok := server.viewAt(p); ok {
		return view.ID, surface, sp, true
	}

	for _, b := range []shell.Band{shell.BandBottom, shell.BandBackground} {
		if view, surface, sp, ok := server.host.viewAt(b, p); ok {
			return view.ID, surface, sp, true
		}
	}

	return 0, wlr.Surface{}, geom.Point[float64]{}, false
}
