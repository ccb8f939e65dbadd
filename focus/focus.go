// Package focus decides which view is activated when the user clicks
// or touches the screen.
//
// Activation policies are Handlers registered on a Chain with an
// explicit priority. The chain offers each activation event to its
// handlers from the highest priority down until one of them consumes
// it, so the order in which policies are consulted never depends on
// the order in which they were set up.
package focus

import (
	"cmp"
	"slices"
)

// ViewID identifies a paintable view.
type ViewID uint64

// SeatID identifies a seat.
type SeatID uint64

// Flags modify how a view is activated.
type Flags uint32

const (
	// FlagConfigure asks the activated view's client to be
	// reconfigured as activated.
	FlagConfigure Flags = 1 << iota

	// FlagClicked marks an activation caused by a pointer click.
	FlagClicked
)

// Activator activates views. The window manager provides it.
type Activator interface {
	Activate(view ViewID, seat SeatID, flags Flags)
}

// ActivatorFunc adapts a function to the Activator interface.
type ActivatorFunc func(view ViewID, seat SeatID, flags Flags)

func (f ActivatorFunc) Activate(view ViewID, seat SeatID, flags Flags) {
	f(view, seat, flags)
}

// Kind is the kind of input that caused an activation event.
type Kind int

const (
	KindButton Kind = iota
	KindTouch
)

func (k Kind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindTouch:
		return "touch"
	default:
		return "unknown"
	}
}

// Event is a pointer button press or a touch down.
type Event struct {
	Kind Kind

	// Button is the pressed button's code. It is unused for touch
	// events.
	Button uint32

	Seat SeatID

	// Target is the view that the input landed on. HasTarget is false
	// if it landed on nothing.
	Target    ViewID
	HasTarget bool

	// Grabbed is true if the input device currently has an active
	// grab, such as an interactive move.
	Grabbed bool
}

// Handler is an activation policy. HandleActivation returns true if
// the event was consumed.
type Handler interface {
	HandleActivation(ev Event) bool
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ev Event) bool

func (f HandlerFunc) HandleActivation(ev Event) bool {
	return f(ev)
}

type entry struct {
	name     string
	priority int
	h        Handler
}

// Chain is an ordered set of activation handlers.
type Chain struct {
	entries []entry
}

// Register adds a handler to the chain. Handlers with higher
// priorities see events first. Handlers with equal priorities see
// events in the order that they were registered.
func (c *Chain) Register(name string, priority int, h Handler) {
	c.entries = append(c.entries, entry{name: name, priority: priority, h: h})
	slices.SortStableFunc(c.entries, func(e1, e2 entry) int {
		return cmp.Compare(e2.priority, e1.priority)
	})
}

// Unregister removes the named handler.
func (c *Chain) Unregister(name string) {
	c.entries = slices.DeleteFunc(c.entries, func(e entry) bool { return e.name == name })
}

// Order returns the names of the registered handlers in the order that
// they will see events.
func (c *Chain) Order() []string {
	names := make([]string, 0, len(c.entries))
	for _, e := range c.entries {
		names = append(names, e.name)
	}
	return names
}

// Dispatch offers ev to each handler in turn. It returns the name of
// the handler that consumed the event, if any.
func (c *Chain) Dispatch(ev Event) (string, bool) {
	for _, e := range c.entries {
		if e.h.HandleActivation(ev) {
			return e.name, true
		}
	}
	return "", false
}
