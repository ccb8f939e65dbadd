package util

import "slices"

func FindFunc[E any](s []E, f func(E) bool) (e E, ok bool) {
	for _, e := range s {
		if f(e) {
			return e, true
		}
	}
	return e, false
}

// Match returns a function that reports whether its argument is v.
func Match[E comparable](v E) func(E) bool {
	return func(e E) bool { return e == v }
}

// Remove removes the first occurrence of v from s.
func Remove[S ~[]E, E comparable](s S, v E) S {
	i := slices.Index(s, v)
	if i < 0 {
		return s
	}
	return slices.Delete(s, i, i+1)
}
