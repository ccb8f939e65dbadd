package main

import (
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
)

// LayerSurface connects a wlroots layer surface to the shell.
//
// wlroots keeps the client's layer, anchor, margin, and namespace to
// itself, so every layer surface is placed in the configured band with
// the shell's defaults, and configure and closed events go no further
// than the log.
type LayerSurface struct {
	server       *Server
	LayerSurface wlr.LayerSurfaceV1
	ID           shell.ID
}

func (ls *LayerSurface) SendConfigure(serial, width, height uint32) {
	ls.server.log.Debug("configure not delivered", "id", ls.ID, "serial", serial, "width", width, "height", height)
}

func (ls *LayerSurface) SendClosed() {
	ls.server.log.Warn("closed not delivered", "id", ls.ID)
}

func (server *Server) onNewLayerSurface(surface wlr.LayerSurfaceV1) {
	client := server.layerClient
	err := server.shell.Bind(client)
	if err != nil {
		server.log.Warn("refusing layer surface", "client", client, "err", err)
		return
	}

	ls := LayerSurface{
		server:       server,
		LayerSurface: surface,
	}

	sid := server.host.addSurface(surface.Surface())
	id, err := server.shell.GetLayerSurface(shell.Request{
		Client:   client,
		Resource: &ls,
		Surface:  sid,
		Layer:    uint32(server.layerBand),
	})
	if err != nil {
		server.host.UnmapSurface(sid)
		server.log.Error("create layer surface", "err", err)
		return
	}
	ls.ID = id
}
