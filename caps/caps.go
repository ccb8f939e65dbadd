// Package caps tracks named capabilities granted to clients.
//
// Capabilities are created by the components that check them. The
// first client to connect is treated as the compositor's privileged
// client: it receives every capability known at that point, and the
// registry reports when it goes away.
package caps

import (
	"errors"
	"maps"
	"slices"

	"github.com/charmbracelet/log"
)

var (
	ErrNonexistent = errors.New("capability does not exist")
	ErrDenied      = errors.New("capability is not available to the client")
)

// ClientID identifies a connected client.
type ClientID uint64

type set map[string]struct{}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s set) names() []string {
	return slices.Sorted(maps.Keys(s))
}

// Registry is the table of known capabilities and per-client grants.
// It is not safe for concurrent use.
type Registry struct {
	log   *log.Logger
	known set
	caps  map[ClientID]set

	privileged    ClientID
	hasPrivileged bool

	// OnPrivilegedGone, if not nil, is called when the privileged
	// client disconnects.
	OnPrivilegedGone func(ClientID)
}

func New(logger *log.Logger) *Registry {
	return &Registry{
		log:   logger,
		known: make(set),
		caps:  make(map[ClientID]set),
	}
}

// Create registers a capability name. Creating a name more than once
// has no further effect.
func (r *Registry) Create(name string) {
	if r.known.has(name) {
		return
	}
	r.log.Debug("creating capability", "name", name)
	r.known[name] = struct{}{}
}

// Known reports whether the named capability has been created.
func (r *Registry) Known(name string) bool {
	return r.known.has(name)
}

// Check reports whether client holds the named capability.
func (r *Registry) Check(client ClientID, name string) bool {
	if !r.known.has(name) {
		r.log.Warn("checked capability that was never created", "name", name, "client", client)
		return false
	}

	ok := r.caps[client].has(name)
	r.log.Debug("checking capability", "name", name, "client", client, "result", ok)
	return ok
}

// Grant gives client the named capability. Unknown names are ignored.
func (r *Registry) Grant(client ClientID, name string) {
	if !r.known.has(name) {
		r.log.Warn("granting capability that was never created", "name", name, "client", client)
		return
	}

	c, ok := r.caps[client]
	if !ok {
		c = make(set)
		r.caps[client] = c
	}
	c[name] = struct{}{}
	r.log.Info("granted capability", "name", name, "client", client, "caps", c.names())
}

// Revoke takes the named capability away from client.
func (r *Registry) Revoke(client ClientID, name string) {
	r.log.Info("revoking capability", "name", name, "client", client)
	delete(r.caps[client], name)
}

// Capabilities returns the sorted names of the capabilities that
// client holds.
func (r *Registry) Capabilities(client ClientID) []string {
	return r.caps[client].names()
}

// Connect records a newly connected client. The first client ever to
// connect is granted every known capability and becomes privileged.
func (r *Registry) Connect(client ClientID) {
	if r.hasPrivileged {
		return
	}

	r.privileged = client
	r.hasPrivileged = true
	r.caps[client] = maps.Clone(r.known)
	r.log.Info("first client arrived, considered privileged", "client", client, "caps", r.caps[client].names())
}

// Privileged returns the privileged client, if one has connected.
func (r *Registry) Privileged() (ClientID, bool) {
	return r.privileged, r.hasPrivileged
}

// Disconnect drops every grant held by client.
func (r *Registry) Disconnect(client ClientID) {
	r.log.Debug("cleaning up client", "client", client)
	delete(r.caps, client)

	if r.hasPrivileged && client == r.privileged {
		r.log.Warn("privileged client is gone", "client", client)
		if r.OnPrivilegedGone != nil {
			r.OnPrivilegedGone(client)
		}
	}
}

// Set is a collection of capabilities that a client assembles from
// the ones it holds in order to hand them to a client it spawns.
type Set struct {
	r    *Registry
	caps set
}

// NewSet returns an empty capability set.
func (r *Registry) NewSet() *Set {
	return &Set{r: r, caps: make(set)}
}

// Add adds a capability held by client to the set.
func (s *Set) Add(client ClientID, name string) error {
	if !s.r.known.has(name) {
		return ErrNonexistent
	}
	if !s.r.caps[client].has(name) {
		return ErrDenied
	}

	s.caps[name] = struct{}{}
	return nil
}

// Names returns the sorted names in the set.
func (s *Set) Names() []string {
	return s.caps.names()
}

// Adopt replaces the grants of client with exactly those in s.
func (r *Registry) Adopt(client ClientID, s *Set) {
	r.caps[client] = maps.Clone(s.caps)
	r.log.Info("spawned client", "client", client, "caps", s.caps.names())
}
