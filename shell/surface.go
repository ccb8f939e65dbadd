package shell

import (
	"slices"

	"deedles.dev/strata/layout"
	"deedles.dev/ximage/geom"
	"github.com/charmbracelet/log"
)

// maxPending is the number of unacknowledged configure serials that a
// surface remembers. Clients may skip acks, so older serials are
// forgotten.
const maxPending = 16

type state int

const (
	stateCreated state = iota
	stateMapped
	stateDestroyed
)

func (s state) String() string {
	switch s {
	case stateCreated:
		return "created"
	case stateMapped:
		return "mapped"
	case stateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Surface is a layer surface: a host surface that has been given the
// layer shell role and is stacked in one of the bands.
type Surface struct {
	sh  *Shell
	log *log.Logger

	id        ID
	client    ClientID
	res       Resource
	surface   SurfaceID
	view      ViewID
	band      Band
	namespace string

	output    OutputID
	hasOutput bool

	anchor      layout.Edges
	size        geom.Point[int]
	margin      layout.Margin
	interactive bool

	state   state
	bounds  geom.Rect[int]
	pending []uint32
	acked   uint32

	onCommit        Listener
	onSurfaceGone   Listener
	onOutputDestroy Listener
}

func (s *Surface) ID() ID { return s.id }
func (s *Surface) Client() ClientID { return s.client }
func (s *Surface) Band() Band { return s.band }
func (s *Surface) Namespace() string { return s.namespace }
func (s *Surface) BackingSurface() SurfaceID { return s.surface }
func (s *Surface) View() ViewID { return s.view }
func (s *Surface) Anchor() layout.Edges { return s.anchor }
func (s *Surface) Margin() layout.Margin { return s.margin }
func (s *Surface) RequestedSize() geom.Point[int] { return s.size }
func (s *Surface) Interactive() bool { return s.interactive }

// Output returns the output that the surface was bound to when it was
// created, if any.
func (s *Surface) Output() (OutputID, bool) {
	return s.output, s.hasOutput
}

// Mapped reports whether the surface has been inserted into its band.
func (s *Surface) Mapped() bool {
	return s.state == stateMapped
}

// Bounds returns the surface's bounds in layout coordinates as of the
// last commit that had an output to place it on.
func (s *Surface) Bounds() geom.Rect[int] {
	return s.bounds
}

// SetSize sets the size that the client would like the surface to
// have. A zero on either axis leaves that axis up to the compositor.
// It takes effect on the next commit.
func (s *Surface) SetSize(width, height uint32) {
	s.size = geom.Pt(int(width), int(height))
}

// SetAnchor sets the edges that the surface is pinned to. Unknown
// bits are dropped.
func (s *Surface) SetAnchor(anchor layout.Edges) {
	if !anchor.Valid() {
		s.log.Warn("ignoring unknown anchor bits", "anchor", uint32(anchor))
		anchor &= layout.EdgeAll
	}
	s.anchor = anchor
}

func (s *Surface) SetMargin(top, right, bottom, left int32) {
	s.margin = layout.Margin{
		Top:    int(top),
		Right:  int(right),
		Bottom: int(bottom),
		Left:   int(left),
	}
}

func (s *Surface) SetKeyboardInteractivity(interactive bool) {
	s.interactive = interactive
}

// SetExclusiveZone is accepted but has no effect.
func (s *Surface) SetExclusiveZone(zone int32) {
	s.log.Info("exclusive zone not supported", "zone", zone)
}

// GetPopup always fails with ErrUnsupported.
func (s *Surface) GetPopup() error {
	s.log.Info("popup not supported")
	return ErrUnsupported
}

// AckConfigure records the client's acknowledgement of a configure
// event. Rendering never waits for acknowledgements.
func (s *Surface) AckConfigure(serial uint32) {
	i := slices.Index(s.pending, serial)
	if i < 0 {
		s.log.Warn("ack of unknown configure serial", "serial", serial)
		return
	}

	s.acked = serial
	s.pending = slices.Delete(s.pending, 0, i+1)
}

// Acked returns the serial of the most recently acknowledged configure
// event, and whether there are configure events that have not yet been
// acknowledged.
func (s *Surface) Acked() (serial uint32, outstanding bool) {
	return s.acked, len(s.pending) > 0
}

func (s *Surface) configure(size geom.Point[int]) {
	serial := s.sh.nextSerial()
	s.pending = append(s.pending, serial)
	if over := len(s.pending) - maxPending; over > 0 {
		s.pending = slices.Delete(s.pending, 0, over)
	}

	w, h := max(size.X, 0), max(size.Y, 0)
	s.log.Debug("sending configure", "serial", serial, "width", w, "height", h)
	s.res.SendConfigure(serial, uint32(w), uint32(h))
}

// resolveOutput finds the bounds of the output that the surface should
// be placed on.
func (s *Surface) resolveOutput() (geom.Rect[int], bool) {
	host := s.sh.host

	if s.hasOutput {
		r, ok := host.Output(s.output)
		if !ok {
			return r, false
		}
		host.SetViewOutput(s.view, s.output)
		return r, true
	}

	out, ok := host.ViewOutput(s.view)
	if !ok {
		out, ok = host.AssignOutput(s.view)
	}
	if !ok {
		return geom.Rect[int]{}, false
	}
	return host.Output(out)
}

func (s *Surface) commit() {
	host := s.sh.host

	mapped := s.state == stateCreated
	if mapped {
		s.sh.registry.Insert(s.band, s.id)
		s.state = stateMapped
		s.log.Debug("mapped", "band", s.band)
	}

	out, ok := s.resolveOutput()
	if !ok {
		s.log.Warn("no output for surface, skipping commit")
		if mapped {
			host.ScheduleRepaint()
		}
		return
	}

	cur := host.SurfaceSize(s.surface)
	s.bounds = layout.Place(cur, out, s.anchor, s.margin)
	host.SetViewPosition(s.view, s.bounds.Min)
	s.log.Debug("placed", "output", out, "bounds", s.bounds)

	next := layout.NextSize(cur, out.Size(), s.anchor, s.margin, s.size)
	if next != cur {
		s.configure(next)
	}

	host.DamageSurface(s.surface)
	host.ScheduleRepaint()
}

func (s *Surface) outputDestroyed() {
	s.log.Info("output gone, sending close to surface")
	s.onOutputDestroy = nil
	s.res.SendClosed()
}

func (s *Surface) teardown() {
	s.log.Info("destroying surface")
	s.state = stateDestroyed

	host := s.sh.host
	host.DamageBelow(s.view)
	host.DestroyView(s.view)
	delete(s.sh.views, s.view)
	s.sh.registry.Remove(s.id)
	host.UnmapSurface(s.surface)
	host.ScheduleRepaint()

	s.onCommit.Destroy()
	s.onSurfaceGone.Destroy()
	if s.onOutputDestroy != nil {
		s.onOutputDestroy.Destroy()
	}
}
