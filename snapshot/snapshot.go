// Package snapshot captures the contents of layer surfaces grouped by
// band, so that each band can be inspected or composited separately.
package snapshot

import (
	"fmt"
	"image"
	"io"
	"os"

	"deedles.dev/strata/internal/drm"
	"deedles.dev/strata/internal/fimg"
	"deedles.dev/strata/internal/logger"
	"deedles.dev/strata/shell"
	"deedles.dev/ximage/geom"
	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Source copies the current contents of a view.
type Source interface {
	CopyContents(view shell.ViewID) (*fimg.NABGR, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(view shell.ViewID) (*fimg.NABGR, error)

func (f SourceFunc) CopyContents(view shell.ViewID) (*fimg.NABGR, error) {
	return f(view)
}

// Surface is the captured state of a single layer surface.
type Surface struct {
	ID     shell.ID
	Bounds geom.Rect[int]

	// Format is the DRM format code of Contents.
	Format   uint32
	Contents *fimg.NABGR
}

// Layer is every captured surface of a single band, bottom first.
type Layer struct {
	Band     shell.Band
	Surfaces []Surface
}

// Shot is a layered snapshot. Layers are in paint order, and bands
// that had no mapped surfaces are left out.
type Shot struct {
	Layers []Layer
}

type config struct {
	log *log.Logger
}

type Option func(*config)

func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Take captures every mapped surface of sh. Surfaces whose contents
// can't be copied are logged and left out.
func Take(sh *shell.Shell, src Source, opts ...Option) *Shot {
	c := config{log: logger.For("snapshot")}
	for _, opt := range opts {
		opt(&c)
	}

	var shot Shot
	for s := range sh.Surfaces() {
		contents, err := src.CopyContents(s.View())
		if err != nil {
			c.log.Warn("copy surface contents", "id", s.ID(), "err", err)
			continue
		}

		if (len(shot.Layers) == 0) || (shot.Layers[len(shot.Layers)-1].Band != s.Band()) {
			shot.Layers = append(shot.Layers, Layer{Band: s.Band()})
		}
		layer := &shot.Layers[len(shot.Layers)-1]
		layer.Surfaces = append(layer.Surfaces, Surface{
			ID:       s.ID(),
			Bounds:   s.Bounds(),
			Format:   drm.FormatABGR8888,
			Contents: contents,
		})
	}

	c.log.Debug("took snapshot", "layers", len(shot.Layers), "bounds", shot.Bounds())
	return &shot
}

// Layer returns the captured layer for band b, if there is one.
func (shot *Shot) Layer(b shell.Band) (Layer, bool) {
	for _, layer := range shot.Layers {
		if layer.Band == b {
			return layer, true
		}
	}
	return Layer{}, false
}

// Bounds returns the smallest rectangle that contains every captured
// surface.
func (shot *Shot) Bounds() (r geom.Rect[int]) {
	for _, layer := range shot.Layers {
		for _, s := range layer.Surfaces {
			r = r.Union(s.Bounds)
		}
	}
	return r
}

// Composite paints every layer, bottom first, into a single image
// covering shot.Bounds(). Contents whose size doesn't match the
// surface's bounds are scaled to fit.
func (shot *Shot) Composite() *image.NRGBA {
	b := shot.Bounds()
	dst := image.NewNRGBA(b.ImageRect())

	for _, layer := range shot.Layers {
		for _, s := range layer.Surfaces {
			paint(dst, s)
		}
	}

	return dst
}

func paint(dst draw.Image, s Surface) {
	if s.Contents == nil {
		return
	}

	r := s.Bounds.ImageRect()
	src := s.Contents.Bounds()
	if src.Size() == r.Size() {
		draw.Draw(dst, r, s.Contents, src.Min, draw.Over)
		return
	}

	draw.BiLinear.Scale(dst, r, s.Contents, src, draw.Over, nil)
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format imaging.Format) error {
	err := imaging.Encode(w, img, format)
	if err != nil {
		return fmt.Errorf("encode %v: %w", format, err)
	}
	return nil
}

// Save composites shot and writes it to path. The format is chosen by
// the path's extension.
func (shot *Shot) Save(path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer file.Close()

	err = Encode(file, shot.Composite(), format)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return file.Close()
}
