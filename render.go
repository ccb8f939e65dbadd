package main

import (
	"errors"
	"image"
	"image/color"
	"time"

	"deedles.dev/strata/internal/fimg"
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
	"golang.org/x/image/draw"
)

type Framer interface {
	Frame(*Server, *Output)
}

func (server *Server) onFrame(out *Output) {
	_, err := out.Output.AttachRender()
	if err != nil {
		wlr.Log(wlr.Error, "output attach render: %v", err)
		return
	}
	defer out.Output.Commit()

	server.renderer.Begin(out.Output, out.Output.Width(), out.Output.Height())
	defer server.renderer.End()

	server.host.pollCommits()

	server.renderer.Clear(ColorBackground)
	server.renderLayer(out, shell.BandBackground)
	server.renderLayer(out, shell.BandBottom)
	server.renderViews(out)
	server.renderLayer(out, shell.BandTop)
	server.renderLayer(out, shell.BandOverlay)
	server.renderMode(out)
	server.renderCursor(out)
}

func (server *Server) renderViews(out *Output) {
	for _, view := range server.views {
		if !view.Mapped() {
			continue
		}

		server.renderView(out, view)
	}
}

func (server *Server) renderView(out *Output, view *View) {
	server.renderViewBorder(out, view)
	view.XDGSurface.ForEachSurface(func(s wlr.Surface, x, y int) {
		server.renderSurface(out, s, view.Coords.Add(geom.Pt(x, y)))
	})
}

func (server *Server) renderViewBorder(out *Output, view *View) {
	color := ColorInactiveBorder
	if view.Activated() {
		color = ColorActiveBorder
	}

	r := view.Bounds().Inset(-WindowBorder).Sub(server.outputBounds(out).Min)
	server.renderRectBorder(out, geom.RConv[float64](r), color)
}

func (server *Server) renderLayer(out *Output, band shell.Band) {
	for s := range server.shell.Band(band) {
		view, ok := server.host.views[s.View()]
		if !ok || (view.out != out) {
			continue
		}

		view.Surface.ForEachSurface(func(surface wlr.Surface, x, y int) {
			server.renderSurface(out, surface, view.Pos.Add(geom.Pt(x, y)))
		})
	}
}

func (server *Server) renderRectBorder(out *Output, r geom.Rect[float64], color color.Color) {
	server.renderer.RenderRect(geom.Rt(0, 0, WindowBorder, r.Dy()).Add(r.Min).ImageRect(), color, out.Output.TransformMatrix())
	server.renderer.RenderRect(geom.Rt(0, 0, WindowBorder, r.Dy()).Add(geom.Pt(r.Max.X-WindowBorder, r.Min.Y)).ImageRect(), color, out.Output.TransformMatrix())
	server.renderer.RenderRect(geom.Rt(0, 0, r.Dx(), WindowBorder).Add(r.Min).ImageRect(), color, out.Output.TransformMatrix())
	server.renderer.RenderRect(geom.Rt(0, 0, r.Dx(), WindowBorder).Add(geom.Pt(r.Min.X, r.Max.Y-WindowBorder)).ImageRect(), color, out.Output.TransformMatrix())
}

func (server *Server) renderSurface(out *Output, s wlr.Surface, p geom.Point[int]) {
	texture := s.GetTexture()
	if !texture.Valid() {
		return
	}

	ob := server.outputBounds(out)
	current := s.Current()
	r := geom.Rt(0, 0, current.Width(), current.Height()).Add(p.Sub(ob.Min))
	tr := current.Transform().Invert()
	m := wlr.ProjectBoxMatrix(r.ImageRect(), tr, 0, out.Output.TransformMatrix())

	server.renderer.RenderTextureWithMatrix(texture, m, 1)
	s.SendFrameDone(time.Now())
}

func (server *Server) renderMode(out *Output) {
	m, ok := server.inputMode.(Framer)
	if !ok {
		return
	}

	m.Frame(server, out)
}

func (server *Server) renderCursor(out *Output) {
	out.Output.RenderSoftwareCursors(image.ZR)
}

// placementMap stands in for a layer view's contents in snapshots. It
// is the size of the view and filled with the color of its band, as
// wlroots textures can't be read back.
func (server *Server) placementMap(id shell.ViewID) (*fimg.NABGR, error) {
	s, ok := server.shell.ByView(id)
	if !ok {
		return nil, errors.New("no such view")
	}

	b := s.Bounds()
	if b.Empty() {
		return nil, errors.New("surface has not been placed")
	}

	img := fimg.NewNABGR(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), image.NewUniform(BandColors[s.Band()]), image.Point{}, draw.Src)
	return img, nil
}
