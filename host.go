package main

import (
	"fmt"

	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
)

// LayerView is the compositor's placement of a layer surface.
type LayerView struct {
	ID      shell.ViewID
	Surface wlr.Surface
	Pos     geom.Point[int]

	out *Output
}

// wlrHost exposes the compositor to the layer shell.
type wlrHost struct {
	server   *Server
	surfaces map[shell.SurfaceID]wlr.Surface
	roles    map[shell.SurfaceID]string
	views    map[shell.ViewID]*LayerView
	commits  map[shell.SurfaceID]*commitWatch
	next     shell.SurfaceID
}

// commitWatch stands in for a surface's commit signal, which wlroots
// does not expose. It fires when the surface is mapped and when its
// committed size changes between frames.
type commitWatch struct {
	surface wlr.Surface
	size    geom.Point[int]
	f       func()
	onMap   wlr.Listener
}

func (w *commitWatch) check(force bool) {
	current := w.surface.Current()
	size := geom.Pt(current.Width(), current.Height())
	if !force && (size == w.size) {
		return
	}
	w.size = size
	w.f()
}

func newHost(server *Server) *wlrHost {
	return &wlrHost{
		server:   server,
		surfaces: make(map[shell.SurfaceID]wlr.Surface),
		roles:    make(map[shell.SurfaceID]string),
		views:    make(map[shell.ViewID]*LayerView),
		commits:  make(map[shell.SurfaceID]*commitWatch),
	}
}

func (h *wlrHost) addSurface(s wlr.Surface) shell.SurfaceID {
	h.next++
	h.surfaces[h.next] = s
	return h.next
}

func (h *wlrHost) CreateView(s shell.SurfaceID) shell.ViewID {
	h.server.nextView++
	id := h.server.nextView
	h.views[id] = &LayerView{
		ID:      id,
		Surface: h.surfaces[s],
	}
	return id
}

func (h *wlrHost) DestroyView(v shell.ViewID) {
	delete(h.views, v)
}

// DamageBelow does nothing, as every output is redrawn in full on each
// frame.
func (h *wlrHost) DamageBelow(v shell.ViewID) {}

func (h *wlrHost) ViewOutput(v shell.ViewID) (shell.OutputID, bool) {
	view, ok := h.views[v]
	if !ok || (view.out == nil) {
		return 0, false
	}
	if _, ok := h.server.outputByID(view.out.ID); !ok {
		view.out = nil
		return 0, false
	}
	return view.out.ID, true
}

func (h *wlrHost) SetViewOutput(v shell.ViewID, o shell.OutputID) {
	view, ok := h.views[v]
	if !ok {
		return
	}

	out, ok := h.server.outputByID(o)
	if !ok {
		return
	}

	if (view.out != out) && view.Surface.Valid() {
		view.Surface.SendEnter(out.Output)
	}
	view.out = out
}

func (h *wlrHost) AssignOutput(v shell.ViewID) (shell.OutputID, bool) {
	view, ok := h.views[v]
	if !ok {
		return 0, false
	}

	x, y := h.server.cursor.X(), h.server.cursor.Y()
	out := h.server.outputAt(x, y)
	if (out == nil) && (len(h.server.outputs) > 0) {
		out = h.server.outputs[0]
	}
	if out == nil {
		return 0, false
	}

	h.SetViewOutput(view.ID, out.ID)
	return out.ID, true
}

func (h *wlrHost) SetViewPosition(v shell.ViewID, p geom.Point[int]) {
	view, ok := h.views[v]
	if !ok {
		return
	}
	view.Pos = p
}

func (h *wlrHost) Output(o shell.OutputID) (geom.Rect[int], bool) {
	out, ok := h.server.outputByID(o)
	if !ok {
		return geom.Rect[int]{}, false
	}
	return h.server.outputBounds(out), true
}

func (h *wlrHost) OnOutputDestroy(o shell.OutputID, f func()) shell.Listener {
	out, ok := h.server.outputByID(o)
	if !ok {
		f()
		return shell.ListenerFunc(func() {})
	}

	return out.Output.OnDestroy(func(wlr.Output) { f() })
}

func (h *wlrHost) SurfaceSize(s shell.SurfaceID) geom.Point[int] {
	surface, ok := h.surfaces[s]
	if !ok {
		return geom.Point[int]{}
	}

	current := surface.Current()
	return geom.Pt(current.Width(), current.Height())
}

func (h *wlrHost) SetRole(s shell.SurfaceID, role string) error {
	if cur, ok := h.roles[s]; ok && (cur != role) {
		return fmt.Errorf("surface already has role %q", cur)
	}
	h.roles[s] = role
	return nil
}

func (h *wlrHost) UnmapSurface(s shell.SurfaceID) {
	delete(h.surfaces, s)
	delete(h.roles, s)
}

func (h *wlrHost) DamageSurface(s shell.SurfaceID) {
	h.ScheduleRepaint()
}

func (h *wlrHost) OnSurfaceCommit(s shell.SurfaceID, f func()) shell.Listener {
	w := commitWatch{
		surface: h.surfaces[s],
		f:       f,
	}
	w.onMap = w.surface.OnMap(func(wlr.Surface) { w.check(true) })
	h.commits[s] = &w

	return shell.ListenerFunc(func() {
		w.onMap.Destroy()
		delete(h.commits, s)
	})
}

// pollCommits runs the commit callbacks of mapped surfaces whose size
// has changed since they were last checked.
func (h *wlrHost) pollCommits() {
	for _, w := range h.commits {
		if w.surface.Mapped() {
			w.check(false)
		}
	}
}

func (h *wlrHost) OnSurfaceDestroy(s shell.SurfaceID, f func()) shell.Listener {
	return h.surfaces[s].OnDestroy(func(wlr.Surface) { f() })
}

// ScheduleRepaint does nothing, as outputs commit a new frame every
// time that they are ready for one.
func (h *wlrHost) ScheduleRepaint() {}

// viewAt returns the topmost layer view in band b that has a surface
// at p.
func (h *wlrHost) viewAt(b shell.Band, p geom.Point[float64]) (view *LayerView, surface wlr.Surface, sp geom.Point[float64], ok bool) {
	for s := range h.server.shell.TopDown(b) {
		view, ok := h.views[s.View()]
		if !ok {
			continue
		}

		local := p.Sub(geom.PConv[float64](view.Pos))
		surface, sx, sy, ok := view.Surface.SurfaceAt(local.X, local.Y)
		if ok {
			return view, surface, geom.Pt(sx, sy), true
		}
	}
	return nil, wlr.Surface{}, geom.Point[float64]{}, false
}
