package shell

import (
	"deedles.dev/strata/caps"
	"deedles.dev/strata/focus"
	"deedles.dev/ximage/geom"
)

type (
	ClientID = caps.ClientID
	ViewID   = focus.ViewID
)

// SurfaceID is a handle to a renderable surface owned by the host.
type SurfaceID uint64

// OutputID is a handle to an output owned by the host. The output
// that it refers to may disappear at any time.
type OutputID uint64

// Listener is a registered notification callback.
type Listener interface {
	// Destroy unregisters the callback. It is safe to call after the
	// callback has fired.
	Destroy()
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func()

func (f ListenerFunc) Destroy() { f() }

// Views creates and places paintable views of surfaces.
type Views interface {
	CreateView(s SurfaceID) ViewID
	DestroyView(v ViewID)

	// DamageBelow damages everything that v covers so that whatever
	// is underneath it is repainted.
	DamageBelow(v ViewID)

	// ViewOutput returns the output that v is on, if any.
	ViewOutput(v ViewID) (OutputID, bool)
	SetViewOutput(v ViewID, o OutputID)

	// AssignOutput picks an output for v based on its current
	// position.
	AssignOutput(v ViewID) (OutputID, bool)

	// SetViewPosition moves v to p in layout coordinates.
	SetViewPosition(v ViewID, p geom.Point[int])
}

// Outputs reports the geometry and lifetime of outputs.
type Outputs interface {
	// Output returns the bounds of o in layout coordinates, or false
	// if o no longer exists.
	Output(o OutputID) (geom.Rect[int], bool)

	OnOutputDestroy(o OutputID, f func()) Listener
}

// Surfaces gives access to the host's surfaces.
type Surfaces interface {
	// SurfaceSize returns the size of the surface's committed content.
	// It is zero if nothing has been committed yet.
	SurfaceSize(s SurfaceID) geom.Point[int]

	// SetRole assigns role to s. It fails if s already has a different
	// role.
	SetRole(s SurfaceID, role string) error

	UnmapSurface(s SurfaceID)
	DamageSurface(s SurfaceID)

	OnSurfaceCommit(s SurfaceID, f func()) Listener
	OnSurfaceDestroy(s SurfaceID, f func()) Listener
}

// Host is the compositor that the shell places surfaces into.
type Host interface {
	Views
	Outputs
	Surfaces

	ScheduleRepaint()
}

// Resource is the client's protocol object for a layer surface.
type Resource interface {
	SendConfigure(serial, width, height uint32)
	SendClosed()
}

// Checker checks client capabilities.
type Checker interface {
	Create(name string)
	Check(client ClientID, name string) bool
}
