package main

import (
	"deedles.dev/strata/internal/config"
	"deedles.dev/strata/internal/util"
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"deedles.dev/ximage/geom"
)

type Output struct {
	ID     shell.OutputID
	Output wlr.Output

	onFrameListener   wlr.Listener
	onDestroyListener wlr.Listener
}

func (server *Server) outputAt(x, y float64) *Output {
	wout := server.outputLayout.OutputAt(x, y)
	out, _ := util.FindFunc(server.outputs, func(out *Output) bool { return out.Output == wout })
	return out
}

func (server *Server) outputByID(id shell.OutputID) (*Output, bool) {
	return util.FindFunc(server.outputs, func(out *Output) bool { return out.ID == id })
}

func (server *Server) outputFor(wout wlr.Output) (*Output, bool) {
	return util.FindFunc(server.outputs, func(out *Output) bool { return out.Output == wout })
}

// outputBounds returns the area that out covers in layout coordinates.
func (server *Server) outputBounds(out *Output) geom.Rect[int] {
	l := server.outputLayout.Get(out.Output)
	w, h := out.Output.EffectiveResolution()
	return geom.Rt(0, 0, w, h).Add(geom.Pt(l.X(), l.Y()))
}

func (server *Server) onNewOutput(wout wlr.Output) {
	wout.InitRender(server.allocator, server.renderer)

	server.nextOutput++
	out := Output{
		ID:     server.nextOutput,
		Output: wout,
	}
	out.onFrameListener = wout.OnFrame(func(wout wlr.Output) {
		server.onFrame(&out)
	})
	out.onDestroyListener = wout.OnDestroy(func(wout wlr.Output) {
		server.onOutputDestroy(&out)
	})
	server.addOutput(&out)

	wout.Commit()
	wout.CreateGlobal()
}

func (server *Server) onOutputDestroy(out *Output) {
	server.log.Info("output removed", "name", out.Output.Name(), "id", out.ID)

	out.onFrameListener.Destroy()
	out.onDestroyListener.Destroy()
	server.outputs = util.Remove(server.outputs, out)
}

func (server *Server) addOutput(out *Output) {
	server.outputs = append(server.outputs, out)
	server.log.Info("output added", "name", out.Output.Name(), "id", out.ID)

	config, ok := util.FindFunc(server.Config.Outputs, func(c config.OutputConfig) bool {
		return c.Name == out.Output.Name()
	})
	if ok {
		server.configureOutput(out, &config)
		return
	}

	server.layoutOutput(out, nil)
	server.setOutputMode(out, nil)
}

func (server *Server) configureOutput(out *Output, config *config.OutputConfig) {
	server.layoutOutput(out, config)
	server.setOutputMode(out, config)

	if config.Scale != 0 {
		out.Output.SetScale(config.Scale)
	}

	if config.Transform != 0 {
		out.Output.SetTransform(wlr.OutputTransform(config.Transform))
	}
}

func (server *Server) layoutOutput(out *Output, config *config.OutputConfig) {
	if (config == nil) || (config.X == -1) && (config.Y == -1) {
		server.outputLayout.AddAuto(out.Output)
		return
	}

	server.outputLayout.Add(out.Output, config.X, config.Y)
}

func (server *Server) setOutputMode(out *Output, config *config.OutputConfig) {
	var set bool
	defer func() {
		if !set {
			mode := out.Output.PreferredMode()
			if mode.Valid() {
				out.Output.SetMode(mode)
			}
		}
	}()

	if (config == nil) || (config.Width == 0) || (config.Height == 0) {
		return
	}

	for mode := range out.Output.Modes() {
		if (mode.Width() == int32(config.Width)) && (mode.Height() == int32(config.Height)) {
			out.Output.SetMode(mode)
			set = true
			return
		}
	}
}
