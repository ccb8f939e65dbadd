package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"deedles.dev/strata/caps"
	"deedles.dev/strata/focus"
	"deedles.dev/strata/internal/config"
	"deedles.dev/strata/internal/logger"
	"deedles.dev/strata/shell"
	"deedles.dev/wlr"
	"github.com/charmbracelet/log"
)

const (
	compositorVersion = 5
	xdgShellVersion   = 3
	layerShellVersion = 4

	// dispatchTimeout bounds how long queued work can wait for the
	// event loop to wake up.
	dispatchTimeout = 100 * time.Millisecond
)

type Server struct {
	Config *config.Config

	log *log.Logger

	display wlr.Display
	running bool
	queued  chan func()

	allocator    wlr.Allocator
	backend      wlr.Backend
	cursor       wlr.Cursor
	outputLayout wlr.OutputLayout
	renderer     wlr.Renderer
	seat         wlr.Seat
	cursorMgr    wlr.XCursorManager
	xdgShell     wlr.XDGShell
	layerShell   wlr.LayerShellV1

	outputs   []*Output
	keyboards []*Keyboard
	views     []*View

	host  *wlrHost
	shell *shell.Shell
	focus focus.Chain

	caps       *caps.Registry
	clients    map[clientKey]caps.ClientID
	nextClient caps.ClientID

	// layerClient stands in for every layer shell client, as a layer
	// surface can't be traced back to the client that created it.
	layerClient caps.ClientID
	layerBand   shell.Band

	startup    caps.ClientID
	startupPID int

	nextOutput shell.OutputID
	nextView   shell.ViewID

	newOutput            wlr.Listener
	newInput             wlr.Listener
	cursorMotion         wlr.Listener
	cursorMotionAbsolute wlr.Listener
	cursorButton         wlr.Listener
	cursorAxis           wlr.Listener
	cursorFrame          wlr.Listener
	requestCursor        wlr.Listener

	newXDGSurface     wlr.Listener
	newLayerSurface   wlr.Listener
	layerShellDestroy wlr.Listener

	inputMode InputMode
}

type clientKey struct {
	client wlr.Client
	pid    int
}

func NewServer(cfg *config.Config) (*Server, error) {
	band, err := shell.ParseBand(cfg.LayerShell.Layer)
	if err != nil {
		return nil, fmt.Errorf("layer_shell.layer: %w", err)
	}

	server := Server{
		Config:    cfg,
		log:       logger.For("server"),
		queued:    make(chan func(), 16),
		clients:   make(map[clientKey]caps.ClientID),
		layerBand: band,
	}

	server.caps = caps.New(logger.For("caps"))
	server.caps.OnPrivilegedGone = server.onPrivilegedGone
	server.layerClient = server.newClientID()

	server.display = wlr.CreateDisplay()
	server.backend = wlr.AutocreateBackend(server.display)
	server.renderer = wlr.AutocreateRenderer(server.backend)
	server.renderer.InitWLDisplay(server.display)
	server.allocator = wlr.AutocreateAllocator(server.backend, server.renderer)

	wlr.CreateCompositor(server.display, compositorVersion, server.renderer)
	wlr.CreateSubcompositor(server.display)
	wlr.CreateDataDeviceManager(server.display)
	wlr.CreateScreencopyManagerV1(server.display)

	server.outputLayout = wlr.CreateOutputLayout()
	server.newOutput = server.backend.OnNewOutput(server.onNewOutput)

	server.xdgShell = wlr.CreateXDGShell(server.display, xdgShellVersion)
	server.newXDGSurface = server.xdgShell.OnNewSurface(server.onNewXDGSurface)

	server.host = newHost(&server)
	server.shell = shell.New(server.host, server.caps)
	server.layerShell = wlr.CreateLayerShellV1(server.display, layerShellVersion)
	server.newLayerSurface = server.layerShell.OnNewSurface(server.onNewLayerSurface)
	server.layerShellDestroy = server.layerShell.OnDestroy(server.onLayerShellDestroy)

	server.focus.Register("layer-shell", cfg.Focus.LayerPriority, server.shell.Arbitrator(&server, cfg.Focus.Buttons...))
	server.focus.Register("wm", cfg.Focus.WMPriority, focus.HandlerFunc(server.activateWindow))
	server.log.Debug("activation order", "handlers", server.focus.Order())

	server.cursor = wlr.CreateCursor()
	server.cursor.AttachOutputLayout(server.outputLayout)
	server.cursorMgr = wlr.CreateXCursorManager("", 24)
	server.cursorMgr.Load(1)
	server.cursorMotion = server.cursor.OnMotion(server.onCursorMotion)
	server.cursorMotionAbsolute = server.cursor.OnMotionAbsolute(server.onCursorMotionAbsolute)
	server.cursorButton = server.cursor.OnButton(server.onCursorButton)
	server.cursorAxis = server.cursor.OnAxis(server.onCursorAxis)
	server.cursorFrame = server.cursor.OnFrame(server.onCursorFrame)

	server.newInput = server.backend.OnNewInput(server.onNewInput)

	server.seat = wlr.CreateSeat(server.display, "seat0")
	server.requestCursor = server.seat.OnRequestSetCursor(server.onRequestCursor)

	server.startNormal()

	return &server, nil
}

func (server *Server) Start() error {
	err := server.backend.Start()
	if err != nil {
		return err
	}

	socket, err := server.display.AddSocketAuto()
	if err != nil {
		server.backend.Destroy()
		return err
	}

	err = os.Setenv("WAYLAND_DISPLAY", socket)
	if err != nil {
		return err
	}
	server.log.Info("listening", "socket", socket)

	server.exec(server.Config.Startup)
	return nil
}

// Run dispatches Wayland events and queued work until stop is called.
func (server *Server) Run() error {
	evl := server.display.EventLoop()

	server.running = true
	for server.running {
		server.display.FlushClients()
		evl.Dispatch(dispatchTimeout)
		server.runQueued()
	}

	server.display.DestroyClients()
	server.display.Destroy()
	return nil
}

func (server *Server) stop() {
	server.running = false
}

// queue arranges for f to be run on the event loop. It is safe to call
// from any goroutine.
func (server *Server) queue(f func()) {
	server.queued <- f
}

func (server *Server) runQueued() {
	for {
		select {
		case f := <-server.queued:
			f()
		default:
			return
		}
	}
}

// exec starts the startup command. It is the first client, so it
// holds every capability, and it hands the configured ones down to
// layer shell clients. Without a startup command, layer shell clients
// are the first client themselves.
func (server *Server) exec(command []string) {
	if len(command) == 0 {
		server.caps.Connect(server.layerClient)
		return
	}

	cmd := exec.Command(command[0], command[1:]...)
	err := cmd.Start()
	if err != nil {
		server.log.Error("start startup command", "command", command, "err", err)
		server.caps.Connect(server.layerClient)
		return
	}

	id := server.newClientID()
	server.startup = id
	server.startupPID = cmd.Process.Pid
	server.caps.Connect(id)
	server.delegate(id, server.layerClient, server.Config.Caps.LayerShell)
	server.log.Info("started startup command", "command", command, "pid", server.startupPID, "client", id)

	go func() {
		err := cmd.Wait()
		var exit *exec.ExitError
		if (err != nil) && !errors.As(err, &exit) {
			server.log.Error("wait for startup command", "err", err)
		}

		server.queue(func() {
			server.log.Info("startup command exited", "pid", server.startupPID)
			server.caps.Disconnect(id)
		})
	}()
}

// delegate gives to the named capabilities that from holds, the way
// that a client passes capabilities to a process that it spawns.
func (server *Server) delegate(from, to caps.ClientID, names []string) {
	set := server.caps.NewSet()
	for _, name := range names {
		err := set.Add(from, name)
		if err != nil {
			server.log.Warn("delegate capability", "name", name, "from", from, "to", to, "err", err)
		}
	}
	server.caps.Adopt(to, set)
}

func (server *Server) newClientID() caps.ClientID {
	server.nextClient++
	return server.nextClient
}

// clientID returns the capability registry's ID for client. A client
// is connected to the registry the first time that it is seen.
// Clients of the startup command's process share its ID.
func (server *Server) clientID(client wlr.Client) caps.ClientID {
	pid, _, _ := client.GetCredentials()
	if (server.startup != 0) && (pid == server.startupPID) {
		return server.startup
	}

	key := clientKey{client: client, pid: pid}
	id, ok := server.clients[key]
	if ok {
		return id
	}

	id = server.newClientID()
	server.clients[key] = id
	server.caps.Connect(id)
	server.log.Debug("new client", "client", id, "pid", pid)

	return id
}

func (server *Server) onPrivilegedGone(id caps.ClientID) {
	if !server.Config.Caps.ExitOnFirstClientExit {
		return
	}

	server.log.Info("first client disconnected, exiting", "client", id)
	server.stop()
}

func (server *Server) onLayerShellDestroy(wlr.LayerShellV1) {
	server.focus.Unregister("layer-shell")
	server.newLayerSurface.Destroy()
	server.layerShellDestroy.Destroy()
}
