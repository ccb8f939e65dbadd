// Package layout places anchored rectangles inside of an output.
//
// It implements the placement rules of the layer shell: a surface is
// pinned to zero or more edges of an output, pushed away from those
// edges by a margin, and stretched across the output on any axis for
// which both opposite edges are anchored.
package layout

import (
	"strings"

	"deedles.dev/ximage/geom"
)

// Edges is a bitmask of the edges of an output that a surface is
// anchored to. The bit values match the layer shell protocol's anchor
// enum.
type Edges uint32

const (
	EdgeTop Edges = 1 << iota
	EdgeBottom
	EdgeLeft
	EdgeRight

	EdgeNone Edges = 0
	EdgeAll        = EdgeTop | EdgeBottom | EdgeLeft | EdgeRight
)

// Valid reports whether e contains only known edges.
func (e Edges) Valid() bool {
	return e&^EdgeAll == 0
}

// Has reports whether every edge in edges is set in e.
func (e Edges) Has(edges Edges) bool {
	return e&edges == edges
}

func (e Edges) String() string {
	if e == EdgeNone {
		return "none"
	}

	names := make([]string, 0, 4)
	for _, edge := range []struct {
		e    Edges
		name string
	}{
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
	} {
		if e&edge.e != 0 {
			names = append(names, edge.name)
		}
	}
	if !e.Valid() {
		names = append(names, "invalid")
	}
	return strings.Join(names, "|")
}

// Margin is the distance a surface keeps from each anchored edge.
type Margin struct {
	Top, Right, Bottom, Left int
}

// axis holds the values relevant to placing a surface along one
// dimension.
type axis struct {
	size, output int
	near, far    bool
	mnear, mfar  int
}

func (a axis) position() int {
	switch {
	case a.near == a.far:
		// Both and neither are both centered.
		return a.output/2 - a.size/2 + a.mnear/2 - a.mfar/2
	case a.far:
		return a.output - a.size - a.mfar
	default:
		return a.mnear
	}
}

func (a axis) stretch(size int) int {
	if a.near && a.far {
		return a.output - a.mnear - a.mfar
	}
	return size
}

func vertical(size, output geom.Point[int], anchor Edges, margin Margin) axis {
	return axis{
		size:   size.Y,
		output: output.Y,
		near:   anchor&EdgeTop != 0,
		far:    anchor&EdgeBottom != 0,
		mnear:  margin.Top,
		mfar:   margin.Bottom,
	}
}

func horizontal(size, output geom.Point[int], anchor Edges, margin Margin) axis {
	return axis{
		size:   size.X,
		output: output.X,
		near:   anchor&EdgeLeft != 0,
		far:    anchor&EdgeRight != 0,
		mnear:  margin.Left,
		mfar:   margin.Right,
	}
}

// Position returns the top-left corner, relative to the output's
// origin, of a surface of the given size anchored inside of an output
// of the given size.
func Position(size, output geom.Point[int], anchor Edges, margin Margin) geom.Point[int] {
	return geom.Pt(
		horizontal(size, output, anchor, margin).position(),
		vertical(size, output, anchor, margin).position(),
	)
}

// NextSize returns the size that a surface currently of size old
// should have. Non-zero axes of req override old, and an axis anchored
// on both sides is stretched to fill the output minus the margins
// regardless of what was requested.
func NextSize(old, output geom.Point[int], anchor Edges, margin Margin, req geom.Point[int]) geom.Point[int] {
	size := old
	if req.X > 0 {
		size.X = req.X
	}
	if req.Y > 0 {
		size.Y = req.Y
	}

	size.X = horizontal(size, output, anchor, margin).stretch(size.X)
	size.Y = vertical(size, output, anchor, margin).stretch(size.Y)
	return size
}

// Place returns the bounds of a surface of the given size anchored
// inside of out, which is in layout coordinates.
func Place(size geom.Point[int], out geom.Rect[int], anchor Edges, margin Margin) geom.Rect[int] {
	p := Position(size, out.Size(), anchor, margin).Add(out.Min)
	return geom.Rect[int]{Min: p, Max: p.Add(size)}
}
