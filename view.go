package main

import (
	"slices"

	"deedles.dev/strata/focus"
	"deedles.dev/strata/internal/util"
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
)

type View struct {
	ID         shell.ViewID
	XDGSurface wlr.XDGSurface
	Coords     geom.Point[int]

	onDestroyListener     wlr.Listener
	onMapListener         wlr.Listener
	onRequestMoveListener wlr.Listener
}

func (view *View) Mapped() bool {
	return view.XDGSurface.Surface().Mapped()
}

func (view *View) Activated() bool {
	return view.XDGSurface.Toplevel().Current().Activated()
}

func (view *View) Bounds() geom.Rect[int] {
	g := geom.FromImageRect(view.XDGSurface.GetGeometry())
	return geom.Rt(0, 0, g.Dx(), g.Dy()).Add(view.Coords)
}

func (server *Server) onNewXDGSurface(surface wlr.XDGSurface) {
	if surface.Role() != wlr.XDGSurfaceRoleToplevel {
		return
	}
	client := server.clientID(surface.Resource().GetClient())

	server.nextView++
	view := View{
		ID:         server.nextView,
		XDGSurface: surface,
	}
	view.onDestroyListener = surface.OnDestroy(func(s wlr.XDGSurface) {
		server.onViewDestroy(&view)
	})
	view.onMapListener = surface.Surface().OnMap(func(s wlr.Surface) {
		server.onViewMap(&view)
	})
	view.onRequestMoveListener = surface.Toplevel().OnRequestMove(func(t wlr.XDGToplevel, client wlr.SeatClient, serial uint32) {
		server.startMove(&view)
	})

	server.views = append(server.views, &view)
	server.log.Debug("new window", "view", view.ID, "client", client)
}

func (server *Server) onViewDestroy(view *View) {
	view.onDestroyListener.Destroy()
	view.onMapListener.Destroy()
	view.onRequestMoveListener.Destroy()

	server.views = util.Remove(server.views, view)
	if mode, ok := server.inputMode.(*inputModeMove); ok && (mode.view == view) {
		server.startNormal()
	}
}

func (server *Server) onViewMap(view *View) {
	out := server.outputAt(server.cursor.X(), server.cursor.Y())
	if out == nil {
		if len(server.outputs) == 0 {
			return
		}
		out = server.outputs[0]
	}

	ob := server.outputBounds(out)
	size := view.Bounds().Size()
	view.Coords = ob.Min.Add(ob.Size().Div(2)).Sub(size.Div(2))
	view.XDGSurface.Surface().SendEnter(out.Output)

	server.focusView(view)
}

func (server *Server) viewByID(id shell.ViewID) (*View, bool) {
	return util.FindFunc(server.views, func(v *View) bool { return v.ID == id })
}

// viewAt returns the topmost window with a surface at p.
func (server *Server) viewAt(p geom.Point[float64]) (view *View, surface wlr.Surface, sp geom.Point[float64], ok bool) {
	for _, view := range slices.Backward(server.views) {
		if !view.Mapped() {
			continue
		}

		local := p.Sub(geom.PConv[float64](view.Coords))
		surface, sx, sy, ok := view.XDGSurface.SurfaceAt(local.X, local.Y)
		if ok {
			return view, surface, geom.Pt(sx, sy), true
		}
	}
	return nil, wlr.Surface{}, geom.Point[float64]{}, false
}

// focusView raises view and gives it keyboard focus.
func (server *Server) focusView(view *View) {
	for _, v := range server.views {
		if (v != view) && v.Mapped() {
			v.XDGSurface.Toplevel().SetActivated(false)
		}
	}

	server.views = util.Remove(server.views, view)
	server.views = append(server.views, view)

	view.XDGSurface.Toplevel().SetActivated(true)
	server.focusSurface(view.XDGSurface.Surface())
}

func (server *Server) focusSurface(surface wlr.Surface) {
	if server.seat.KeyboardState().FocusedSurface() == surface {
		return
	}

	keyboard := server.seat.GetKeyboard()
	if keyboard == (wlr.Keyboard{}) {
		server.seat.KeyboardNotifyEnter(surface, nil, wlr.KeyboardModifiers{})
		return
	}
	server.seat.KeyboardNotifyEnter(surface, keyboard.Keycodes(), keyboard.Modifiers())
}

// Activate gives the view keyboard focus. Layer surfaces only get
// focus, while windows are also raised.
func (server *Server) Activate(id shell.ViewID, seat focus.SeatID, flags focus.Flags) {
	server.log.Debug("activate", "view", id, "seat", seat, "flags", flags)

	if lv, ok := server.host.views[id]; ok {
		server.focusSurface(lv.Surface)
		return
	}

	if view, ok := server.viewByID(id); ok {
		server.focusView(view)
	}
}

// activateWindow is the window manager's activation policy. Clicking
// or touching a window activates it.
func (server *Server) activateWindow(ev focus.Event) bool {
	if !ev.HasTarget {
		return false
	}

	view, ok := server.viewByID(ev.Target)
	if !ok {
		return false
	}

	server.Activate(view.ID, ev.Seat, focus.FlagConfigure)
	return true
}
