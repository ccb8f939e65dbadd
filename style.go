package main

import (
	"image/color"

	"deedles.dev/strata/shell"
)

const WindowBorder = 5

var (
	ColorBackground     = color.NRGBA{0x77, 0x77, 0x77, 0xFF}
	ColorActiveBorder   = color.NRGBA{0x50, 0xA1, 0xAD, 0xFF}
	ColorInactiveBorder = color.NRGBA{0x9C, 0xE9, 0xE9, 0xFF}
	ColorGrabBorder     = color.NRGBA{0xFF, 0x0, 0x0, 0xFF}
)

// BandColors fill the bounds of layer surfaces in placement maps.
var BandColors = [...]color.NRGBA{
	shell.BandBackground: {0x2E, 0x34, 0x40, 0xFF},
	shell.BandBottom:     {0x5E, 0x81, 0xAC, 0xFF},
	shell.BandTop:        {0xA3, 0xBE, 0x8C, 0xFF},
	shell.BandOverlay:    {0xBF, 0x61, 0x6A, 0xC0},
}
