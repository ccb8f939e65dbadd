// Package drm holds the DRM fourcc pixel format codes used when handing
// pixel buffers to wlroots.
package drm

import "strings"

// Fourcc builds a format code from its four characters.
func Fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | (uint32(b) << 8) | (uint32(c) << 16) | (uint32(d) << 24)
}

const (
	FormatARGB8888 = 'A' | ('R' << 8) | ('2' << 16) | ('4' << 24)
	FormatRGBA8888 = 'R' | ('A' << 8) | ('2' << 16) | ('4' << 24)
	FormatABGR8888 = 'A' | ('B' << 8) | ('2' << 16) | ('4' << 24)
	FormatXRGB8888 = 'X' | ('R' << 8) | ('2' << 16) | ('4' << 24)

	FormatBigEndian = 1 << 31
)

// Name returns the four characters of a format code, with a trailing
// "-BE" if the big endian bit is set.
func Name(format uint32) string {
	var sb strings.Builder
	for i := range 4 {
		c := byte(format >> (8 * i) & 0x7F)
		if c < ' ' {
			c = '?'
		}
		sb.WriteByte(c)
	}
	if format&FormatBigEndian != 0 {
		sb.WriteString("-BE")
	}
	return sb.String()
}
