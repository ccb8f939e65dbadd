package shell

import (
	"iter"
	"slices"
)

// ID is the stable identifier of a layer surface.
type ID uint64

// Registry holds the stacking order of mapped layer surfaces. Each band
// is an ordered list in which later entries are painted above earlier
// ones, and the bands themselves are painted in order from
// BandBackground to BandOverlay.
type Registry struct {
	bands [bandCount][]ID
}

// Insert appends id to the top of band b.
func (r *Registry) Insert(b Band, id ID) {
	r.bands[b] = append(r.bands[b], id)
}

// Remove removes id from whichever band it is in. It returns false if
// id was not in the registry.
func (r *Registry) Remove(id ID) bool {
	for b, ids := range r.bands {
		i := slices.Index(ids, id)
		if i < 0 {
			continue
		}

		r.bands[b] = slices.Delete(ids, i, i+1)
		return true
	}
	return false
}

// bandOf returns the band that id is in, if any.
func (r *Registry) bandOf(id ID) (Band, bool) {
	for b, ids := range r.bands {
		if slices.Contains(ids, id) {
			return Band(b), true
		}
	}
	return 0, false
}

// Band yields the IDs in b from the bottom up.
func (r *Registry) Band(b Band) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		for _, id := range r.bands[b] {
			if !yield(id) {
				return
			}
		}
	}
}

// TopDown yields the IDs in b from the top down.
func (r *Registry) TopDown(b Band) iter.Seq[ID] {
	return func(yield func(ID) bool) {
		ids := r.bands[b]
		for i := len(ids) - 1; i >= 0; i-- {
			if !yield(ids[i]) {
				return
			}
		}
	}
}

// All yields every ID along with its band in paint order.
func (r *Registry) All() iter.Seq2[Band, ID] {
	return func(yield func(Band, ID) bool) {
		for _, b := range Bands {
			for _, id := range r.bands[b] {
				if !yield(b, id) {
					return
				}
			}
		}
	}
}

// Len returns the number of IDs in the registry.
func (r *Registry) Len() (n int) {
	for _, ids := range r.bands {
		n += len(ids)
	}
	return n
}
