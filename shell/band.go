package shell

import (
	"fmt"
	"strings"
)

// Band is one of the four z-ordered groups that layer surfaces are
// stacked in. Bands are ordered from the bottom of the screen up.
type Band uint32

const (
	BandBackground Band = iota
	BandBottom
	BandTop
	BandOverlay

	bandCount
)

// Bands lists every band in paint order.
var Bands = [...]Band{BandBackground, BandBottom, BandTop, BandOverlay}

// Valid reports whether b is one of the four known bands.
func (b Band) Valid() bool {
	return b < bandCount
}

func (b Band) String() string {
	switch b {
	case BandBackground:
		return "background"
	case BandBottom:
		return "bottom"
	case BandTop:
		return "top"
	case BandOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("Band(%d)", uint32(b))
	}
}

// ParseBand returns the band with the given name.
func ParseBand(name string) (Band, error) {
	for _, b := range Bands {
		if strings.EqualFold(name, b.String()) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown band %q", name)
}
