// Package fimg provides image types in pixel formats that wlroots
// understands but the standard library does not.
package fimg

import (
	"fmt"
	"image"
	"image/color"
)

// NABGR is a non-premultiplied image whose pixels are stored as alpha,
// blue, green, red bytes. It is the layout that wlroots expects for
// drm.FormatABGR8888.
type NABGR struct {
	Pix    []byte
	Stride int
	Rect   image.Rectangle
}

func NewNABGR(r image.Rectangle) *NABGR {
	return &NABGR{
		Pix:    make([]byte, 4*r.Dx()*r.Dy()),
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

// WrapNABGR returns an NABGR that uses pix as its backing buffer.
func WrapNABGR(pix []byte, stride int, r image.Rectangle) (*NABGR, error) {
	if stride < 4*r.Dx() {
		return nil, fmt.Errorf("stride %v too small for width %v", stride, r.Dx())
	}
	if r.Empty() {
		return &NABGR{Stride: stride, Rect: r}, nil
	}

	need := stride*(r.Dy()-1) + 4*r.Dx()
	if len(pix) < need {
		return nil, fmt.Errorf("buffer of %v bytes too small for %v, need %v", len(pix), r, need)
	}

	return &NABGR{Pix: pix, Stride: stride, Rect: r}, nil
}

func (p *NABGR) PixOffset(x, y int) int {
	return ((y - p.Rect.Min.Y) * p.Stride) + (x-p.Rect.Min.X)*4
}

func (p *NABGR) Bounds() image.Rectangle {
	return p.Rect
}

func (p *NABGR) ColorModel() color.Model {
	return color.NRGBAModel
}

func (p *NABGR) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.NRGBA{}
	}

	i := p.PixOffset(x, y)
	return color.NRGBA{p.Pix[i+3], p.Pix[i+2], p.Pix[i+1], p.Pix[i]}
}

func (p *NABGR) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}

	r, g, b, a := c.RGBA()

	i := p.PixOffset(x, y)
	p.Pix[i] = uint8(a * 255 / 0xFFFF)

	if a == 0 {
		a = 1
	}
	p.Pix[i+1] = uint8(b * 255 / a)
	p.Pix[i+2] = uint8(g * 255 / a)
	p.Pix[i+3] = uint8(r * 255 / a)
}

// Opaque reports whether every pixel in the image is fully opaque.
func (p *NABGR) Opaque() bool {
	for y := p.Rect.Min.Y; y < p.Rect.Max.Y; y++ {
		i := p.PixOffset(p.Rect.Min.X, y)
		for x := p.Rect.Min.X; x < p.Rect.Max.X; x, i = x+1, i+4 {
			if p.Pix[i] != 0xFF {
				return false
			}
		}
	}
	return true
}
