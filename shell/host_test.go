package shell

import (
	"fmt"
	"io"

	"deedles.dev/strata/caps"
	"deedles.dev/ximage/geom"
	"github.com/charmbracelet/log"
)

type fakeView struct {
	surface   SurfaceID
	output    OutputID
	hasOutput bool
	pos       geom.Point[int]
	placed    bool
}

type fakeHost struct {
	nextView ViewID
	views    map[ViewID]*fakeView
	outputs  map[OutputID]geom.Rect[int]
	sizes    map[SurfaceID]geom.Point[int]
	roles    map[SurfaceID]string

	commit      map[SurfaceID]func()
	surfaceGone map[SurfaceID]func()
	outputGone  map[OutputID]map[int]func()
	nextLis     int

	auto    OutputID
	hasAuto bool

	destroyedViews []ViewID
	unmapped       []SurfaceID
	repaints       int
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		views:       make(map[ViewID]*fakeView),
		outputs:     make(map[OutputID]geom.Rect[int]),
		sizes:       make(map[SurfaceID]geom.Point[int]),
		roles:       make(map[SurfaceID]string),
		commit:      make(map[SurfaceID]func()),
		surfaceGone: make(map[SurfaceID]func()),
		outputGone:  make(map[OutputID]map[int]func()),
	}
}

func (h *fakeHost) addOutput(o OutputID, r geom.Rect[int]) {
	h.outputs[o] = r
	if !h.hasAuto {
		h.auto, h.hasAuto = o, true
	}
}

func (h *fakeHost) removeOutput(o OutputID) {
	delete(h.outputs, o)
	if h.auto == o {
		h.hasAuto = false
	}
	for _, f := range h.outputGone[o] {
		f()
	}
	delete(h.outputGone, o)
}

func (h *fakeHost) clientCommit(s SurfaceID, size geom.Point[int]) {
	h.sizes[s] = size
	if f, ok := h.commit[s]; ok {
		f()
	}
}

func (h *fakeHost) destroySurface(s SurfaceID) {
	if f, ok := h.surfaceGone[s]; ok {
		f()
	}
	delete(h.sizes, s)
	delete(h.roles, s)
}

func (h *fakeHost) CreateView(s SurfaceID) ViewID {
	h.nextView++
	h.views[h.nextView] = &fakeView{surface: s}
	return h.nextView
}

func (h *fakeHost) DestroyView(v ViewID) {
	if _, ok := h.views[v]; !ok {
		panic(fmt.Errorf("double destroy of view %v", v))
	}
	delete(h.views, v)
	h.destroyedViews = append(h.destroyedViews, v)
}

func (h *fakeHost) DamageBelow(v ViewID) {}

func (h *fakeHost) ViewOutput(v ViewID) (OutputID, bool) {
	view := h.views[v]
	return view.output, view.hasOutput
}

func (h *fakeHost) SetViewOutput(v ViewID, o OutputID) {
	view := h.views[v]
	view.output, view.hasOutput = o, true
}

func (h *fakeHost) AssignOutput(v ViewID) (OutputID, bool) {
	if !h.hasAuto {
		return 0, false
	}
	h.SetViewOutput(v, h.auto)
	return h.auto, true
}

func (h *fakeHost) SetViewPosition(v ViewID, p geom.Point[int]) {
	view := h.views[v]
	view.pos, view.placed = p, true
}

func (h *fakeHost) Output(o OutputID) (geom.Rect[int], bool) {
	r, ok := h.outputs[o]
	return r, ok
}

func (h *fakeHost) OnOutputDestroy(o OutputID, f func()) Listener {
	h.nextLis++
	n := h.nextLis
	if h.outputGone[o] == nil {
		h.outputGone[o] = make(map[int]func())
	}
	h.outputGone[o][n] = f
	return ListenerFunc(func() { delete(h.outputGone[o], n) })
}

func (h *fakeHost) SurfaceSize(s SurfaceID) geom.Point[int] {
	return h.sizes[s]
}

func (h *fakeHost) SetRole(s SurfaceID, role string) error {
	if cur, ok := h.roles[s]; ok && cur != role {
		return fmt.Errorf("surface %v already has role %q", s, cur)
	}
	h.roles[s] = role
	return nil
}

func (h *fakeHost) UnmapSurface(s SurfaceID) {
	h.unmapped = append(h.unmapped, s)
}

func (h *fakeHost) DamageSurface(s SurfaceID) {}

func (h *fakeHost) OnSurfaceCommit(s SurfaceID, f func()) Listener {
	h.commit[s] = f
	return ListenerFunc(func() { delete(h.commit, s) })
}

func (h *fakeHost) OnSurfaceDestroy(s SurfaceID, f func()) Listener {
	h.surfaceGone[s] = f
	return ListenerFunc(func() { delete(h.surfaceGone, s) })
}

func (h *fakeHost) ScheduleRepaint() {
	h.repaints++
}

type configure struct {
	serial, width, height uint32
}

type fakeResource struct {
	configures []configure
	closed     int
}

func (r *fakeResource) SendConfigure(serial, width, height uint32) {
	r.configures = append(r.configures, configure{serial, width, height})
}

func (r *fakeResource) SendClosed() {
	r.closed++
}

func (r *fakeResource) last() configure {
	return r.configures[len(r.configures)-1]
}

func newTestShell() (*Shell, *fakeHost, *caps.Registry) {
	discard := log.New(io.Discard)
	host := newFakeHost()
	reg := caps.New(discard)
	sh := New(host, reg, WithLogger(discard))
	return sh, host, reg
}
