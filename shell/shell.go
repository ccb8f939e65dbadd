// Package shell implements the compositor side of the layer shell: a
// protocol that lets privileged clients place surfaces such as panels,
// wallpapers, notifications, and lock screens into fixed bands above
// and below normal windows, anchored to the edges of an output.
//
// A Shell owns every layer surface and the stacking order of the bands.
// Like the rest of the compositor, it is driven from a single event
// loop and is not safe for concurrent use.
package shell

import (
	"iter"

	"deedles.dev/strata/internal/logger"
	"deedles.dev/strata/layout"
	"deedles.dev/ximage/geom"
	"deedles.dev/xiter"
	"github.com/charmbracelet/log"
)

const (
	// Role is the role given to surfaces that become layer surfaces.
	Role = "layer-shell"

	// CapShell is the capability needed to bind the shell at all.
	CapShell = "layer-shell"

	// CapOverlay is the capability needed to create surfaces in
	// BandOverlay.
	CapOverlay = "layer-shell-overlay"
)

// Shell is the layer shell global.
type Shell struct {
	host Host
	caps Checker
	log  *log.Logger

	serial func() uint32
	nextID ID

	surfaces map[ID]*Surface
	views    map[ViewID]ID
	registry Registry
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the logger that the shell and its surfaces log to.
func WithLogger(l *log.Logger) Option {
	return func(sh *Shell) {
		sh.log = l
	}
}

// withSerials sets the source of configure event serials. By default
// the shell counts up from 1.
func withSerials(next func() uint32) Option {
	return func(sh *Shell) {
		sh.serial = next
	}
}

// New creates a shell that places surfaces into host and checks
// client capabilities against caps.
func New(host Host, caps Checker, opts ...Option) *Shell {
	sh := Shell{
		host:     host,
		caps:     caps,
		log:      logger.For("layer-shell"),
		surfaces: make(map[ID]*Surface),
		views:    make(map[ViewID]ID),
	}
	for _, opt := range opts {
		opt(&sh)
	}
	if sh.serial == nil {
		var serial uint32
		sh.serial = func() uint32 {
			serial++
			return serial
		}
	}

	caps.Create(CapShell)
	caps.Create(CapOverlay)

	return &sh
}

func (sh *Shell) nextSerial() uint32 {
	return sh.serial()
}

// Bind checks whether client may use the shell at all.
func (sh *Shell) Bind(client ClientID) error {
	if !sh.caps.Check(client, CapShell) {
		sh.log.Warn("client does not have capability", "client", client, "capability", CapShell)
		return ErrNoCapability
	}
	return nil
}

// Request is a client's request to give a surface the layer shell
// role.
type Request struct {
	Client   ClientID
	Resource Resource
	Surface  SurfaceID

	// Output is the output that the surface should be placed on. If
	// HasOutput is false, the compositor picks one.
	Output    OutputID
	HasOutput bool

	Layer     uint32
	Namespace string
}

// GetLayerSurface creates a new layer surface. Errors are returned as
// *ProtocolError and should be posted to the client.
//
// A request for BandOverlay from a client without CapOverlay is not
// an error. The surface is created in BandTop instead.
func (sh *Shell) GetLayerSurface(req Request) (ID, error) {
	band := Band(req.Layer)
	if !band.Valid() {
		return 0, &ProtocolError{Code: ErrorInvalidLayer, Err: ErrInvalidLayer}
	}

	if band == BandOverlay && !sh.caps.Check(req.Client, CapOverlay) {
		sh.log.Info("client does not have overlay capability, using top layer", "client", req.Client)
		band = BandTop
	}

	err := sh.host.SetRole(req.Surface, Role)
	if err != nil {
		return 0, &ProtocolError{Code: ErrorRole, Err: err}
	}

	sh.nextID++
	s := &Surface{
		sh:        sh,
		log:       sh.log.With("id", sh.nextID),
		id:        sh.nextID,
		client:    req.Client,
		res:       req.Resource,
		surface:   req.Surface,
		band:      band,
		namespace: req.Namespace,
		output:    req.Output,
		hasOutput: req.HasOutput,
		anchor:    layout.EdgeTop,
	}
	sh.surfaces[s.id] = s

	id := s.id
	if s.hasOutput {
		s.onOutputDestroy = sh.host.OnOutputDestroy(s.output, func() {
			sh.outputDestroyed(id)
		})
		s.log.Debug("attached to output", "output", s.output)
	}
	s.onSurfaceGone = sh.host.OnSurfaceDestroy(s.surface, func() {
		s.log.Info("surface gone, destroying layer surface")
		sh.teardown(id)
	})
	s.onCommit = sh.host.OnSurfaceCommit(s.surface, func() {
		sh.commit(id)
	})

	s.view = sh.host.CreateView(s.surface)
	sh.views[s.view] = id

	s.log.Info("created", "band", band, "namespace", req.Namespace, "client", req.Client)

	// The client may have committed everything before the role was
	// assigned, in which case no commit will arrive to start the
	// configure sequence.
	if sh.host.SurfaceSize(s.surface) == (geom.Point[int]{}) {
		s.configure(geom.Pt(1, 1))
	}

	return id, nil
}

// Lookup returns the surface with the given ID, if it still exists.
func (sh *Shell) Lookup(id ID) (*Surface, bool) {
	s, ok := sh.surfaces[id]
	return s, ok
}

// ByView returns the surface that owns view v, if any.
func (sh *Shell) ByView(v ViewID) (*Surface, bool) {
	id, ok := sh.views[v]
	if !ok {
		return nil, false
	}
	return sh.Lookup(id)
}

// Destroy handles the client's request to destroy a layer surface. It
// does nothing if the surface is already gone.
func (sh *Shell) Destroy(id ID) {
	if _, ok := sh.surfaces[id]; !ok {
		sh.log.Debug("destroy of surface that is already gone", "id", id)
		return
	}
	sh.teardown(id)
}

func (sh *Shell) teardown(id ID) {
	s, ok := sh.surfaces[id]
	if !ok {
		sh.log.Error("BUG: destroying already destroyed surface", "id", id)
		return
	}

	delete(sh.surfaces, id)
	s.teardown()
}

func (sh *Shell) commit(id ID) {
	s, ok := sh.surfaces[id]
	if !ok {
		sh.log.Error("BUG: commit for destroyed surface", "id", id)
		return
	}
	s.commit()
}

func (sh *Shell) outputDestroyed(id ID) {
	s, ok := sh.surfaces[id]
	if !ok {
		return
	}
	s.outputDestroyed()
}

// Len returns the number of live layer surfaces, mapped or not.
func (sh *Shell) Len() int {
	return len(sh.surfaces)
}

func (sh *Shell) surfaceSeq(ids iter.Seq[ID]) iter.Seq[*Surface] {
	return xiter.Filter(
		xiter.Map(ids, func(id ID) *Surface { return sh.surfaces[id] }),
		func(s *Surface) bool { return s != nil },
	)
}

// Band yields the mapped surfaces in b from the bottom up.
func (sh *Shell) Band(b Band) iter.Seq[*Surface] {
	return sh.surfaceSeq(sh.registry.Band(b))
}

// TopDown yields the mapped surfaces in b from the top down.
func (sh *Shell) TopDown(b Band) iter.Seq[*Surface] {
	return sh.surfaceSeq(sh.registry.TopDown(b))
}

// Surfaces yields every mapped surface in paint order.
func (sh *Shell) Surfaces() iter.Seq[*Surface] {
	return func(yield func(*Surface) bool) {
		for _, id := range sh.registry.All() {
			s, ok := sh.surfaces[id]
			if !ok {
				continue
			}
			if !yield(s) {
				return
			}
		}
	}
}
