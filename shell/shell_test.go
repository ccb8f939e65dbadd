package shell

import (
	"errors"
	"slices"
	"testing"

	"deedles.dev/strata/layout"
	"deedles.dev/ximage/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClient  ClientID  = 1
	testSurface SurfaceID = 10
	testOutput  OutputID  = 100
)

func create(t *testing.T, sh *Shell, req Request) (*Surface, *fakeResource) {
	t.Helper()

	res := &fakeResource{}
	req.Resource = res
	if req.Client == 0 {
		req.Client = testClient
	}
	if req.Surface == 0 {
		req.Surface = testSurface
	}

	id, err := sh.GetLayerSurface(req)
	require.NoError(t, err)
	s, ok := sh.Lookup(id)
	require.True(t, ok)
	return s, res
}

func TestBind(t *testing.T) {
	sh, _, reg := newTestShell()

	assert.ErrorIs(t, sh.Bind(testClient), ErrNoCapability)
	reg.Grant(testClient, CapShell)
	assert.NoError(t, sh.Bind(testClient))
}

func TestGetLayerSurfaceInvalidLayer(t *testing.T) {
	sh, host, _ := newTestShell()

	_, err := sh.GetLayerSurface(Request{
		Client:   testClient,
		Resource: &fakeResource{},
		Surface:  testSurface,
		Layer:    4,
	})

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorInvalidLayer, perr.Code)
	assert.ErrorIs(t, err, ErrInvalidLayer)
	assert.Empty(t, host.views)
	assert.Equal(t, 0, sh.Len())
}

func TestGetLayerSurfaceRoleConflict(t *testing.T) {
	sh, host, _ := newTestShell()
	host.roles[testSurface] = "xdg_toplevel"

	_, err := sh.GetLayerSurface(Request{
		Client:   testClient,
		Resource: &fakeResource{},
		Surface:  testSurface,
		Layer:    uint32(BandTop),
	})

	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrorRole, perr.Code)
	assert.Empty(t, host.views)
	assert.Empty(t, host.commit)
}

func TestOverlayRequiresCapability(t *testing.T) {
	sh, host, reg := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, _ := create(t, sh, Request{Layer: uint32(BandOverlay)})
	assert.Equal(t, BandTop, s.Band())

	host.clientCommit(s.BackingSurface(), geom.Pt(10, 10))
	band, ok := sh.registry.bandOf(s.ID())
	require.True(t, ok)
	assert.Equal(t, BandTop, band)

	reg.Grant(2, CapOverlay)
	s2, _ := create(t, sh, Request{Client: 2, Surface: 11, Layer: uint32(BandOverlay)})
	assert.Equal(t, BandOverlay, s2.Band())
}

func TestInitialConfigure(t *testing.T) {
	sh, host, _ := newTestShell()

	s, res := create(t, sh, Request{Layer: uint32(BandBottom)})
	require.Len(t, res.configures, 1)
	assert.Equal(t, uint32(1), res.last().width)
	assert.Equal(t, uint32(1), res.last().height)
	assert.False(t, s.Mapped())
	assert.Equal(t, layout.EdgeTop, s.Anchor())

	host.sizes[20] = geom.Pt(64, 64)
	_, res = create(t, sh, Request{Surface: 20, Layer: uint32(BandBottom)})
	assert.Empty(t, res.configures)
}

func TestCommitTopLeft(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, res := create(t, sh, Request{Layer: uint32(BandTop)})
	s.SetAnchor(layout.EdgeTop | layout.EdgeLeft)
	s.SetSize(300, 200)
	s.SetMargin(10, 0, 0, 10)

	host.clientCommit(testSurface, geom.Pt(300, 200))

	assert.True(t, s.Mapped())
	view := host.views[s.View()]
	assert.Equal(t, geom.Pt(10, 10), view.pos)
	assert.Equal(t, testOutput, view.output)
	assert.Equal(t, geom.Rt(10, 10, 310, 210), s.Bounds())
	assert.Len(t, res.configures, 1, "only the initial configure should be sent")
}

func TestCommitFullscreen(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, res := create(t, sh, Request{Layer: uint32(BandBackground)})
	s.SetAnchor(layout.EdgeAll)

	host.clientCommit(testSurface, geom.Pt(1, 1))
	require.Len(t, res.configures, 2)
	assert.Equal(t, uint32(1920), res.last().width)
	assert.Equal(t, uint32(1080), res.last().height)

	s.AckConfigure(res.last().serial)
	host.clientCommit(testSurface, geom.Pt(1920, 1080))
	assert.Len(t, res.configures, 2)
	assert.Equal(t, geom.Pt(0, 0), host.views[s.View()].pos)
	assert.Equal(t, geom.Rt(0, 0, 1920, 1080), s.Bounds())
}

func TestCommitOffsetOutput(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))
	host.addOutput(testOutput+1, geom.Rt(1920, 0, 3200, 1024))

	s, _ := create(t, sh, Request{Layer: uint32(BandTop), Output: testOutput + 1, HasOutput: true})
	s.SetAnchor(layout.EdgeBottom | layout.EdgeRight)

	host.clientCommit(testSurface, geom.Pt(100, 24))
	assert.Equal(t, geom.Pt(1920+1280-100, 1024-24), host.views[s.View()].pos)
	assert.Equal(t, testOutput+1, host.views[s.View()].output)
}

func TestMapOnce(t *testing.T) {
	sh, host, _ := newTestShell()

	s, _ := create(t, sh, Request{Layer: uint32(BandTop)})

	// No outputs yet: the commit maps the surface but cannot place it.
	host.clientCommit(testSurface, geom.Pt(50, 50))
	assert.True(t, s.Mapped())
	assert.False(t, host.views[s.View()].placed)
	assert.Equal(t, 1, host.repaints, "mapping must repaint even without an output")

	host.clientCommit(testSurface, geom.Pt(50, 50))
	assert.Equal(t, 1, host.repaints)

	host.addOutput(testOutput, geom.Rt(0, 0, 800, 600))
	for range 3 {
		host.clientCommit(testSurface, geom.Pt(50, 50))
	}

	assert.Equal(t, 1, sh.registry.Len())
	assert.Equal(t, []ID{s.ID()}, slices.Collect(sh.registry.Band(BandTop)))
	assert.True(t, host.views[s.View()].placed)
}

func TestAppendToBand(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 800, 600))

	var ids []ID
	for i := range 3 {
		s, _ := create(t, sh, Request{Surface: SurfaceID(50 + i), Layer: uint32(BandBottom)})
		ids = append(ids, s.ID())
	}

	// Map in reverse order of creation.
	for i := 2; i >= 0; i-- {
		host.clientCommit(SurfaceID(50+i), geom.Pt(10, 10))
	}

	assert.Equal(t, []ID{ids[2], ids[1], ids[0]}, slices.Collect(sh.registry.Band(BandBottom)))

	var got []ID
	for s := range sh.Surfaces() {
		got = append(got, s.ID())
	}
	assert.Equal(t, []ID{ids[2], ids[1], ids[0]}, got)
}

func TestOutputDestroyedThenSurfaceDestroyed(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, res := create(t, sh, Request{Layer: uint32(BandTop), Output: testOutput, HasOutput: true})
	host.clientCommit(testSurface, geom.Pt(10, 10))
	view := s.View()
	pos := host.views[view].pos

	host.removeOutput(testOutput)
	assert.Equal(t, 1, res.closed)
	_, ok := sh.Lookup(s.ID())
	require.True(t, ok, "output removal must not destroy the surface")

	// The bound output is gone, so this commit is skipped.
	host.clientCommit(testSurface, geom.Pt(20, 20))
	assert.Equal(t, pos, host.views[view].pos)

	host.destroySurface(testSurface)
	_, ok = sh.Lookup(s.ID())
	assert.False(t, ok)
	assert.Equal(t, []ViewID{view}, host.destroyedViews)
	assert.Equal(t, []SurfaceID{testSurface}, host.unmapped)
	assert.Equal(t, 0, sh.registry.Len())
	assert.Empty(t, host.commit)
	assert.Empty(t, host.surfaceGone)
	_, ok = sh.ByView(view)
	assert.False(t, ok)

	// The client's own destroy request arrives after the fact.
	sh.Destroy(s.ID())
	assert.Len(t, host.destroyedViews, 1)
	assert.Equal(t, 1, res.closed)
}

func TestDestroyThenSurfaceDestroyed(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, res := create(t, sh, Request{Layer: uint32(BandTop), Output: testOutput, HasOutput: true})
	host.clientCommit(testSurface, geom.Pt(10, 10))

	sh.Destroy(s.ID())
	assert.Empty(t, host.outputGone[testOutput])
	assert.Empty(t, host.surfaceGone)

	host.destroySurface(testSurface)
	host.removeOutput(testOutput)

	assert.Len(t, host.destroyedViews, 1)
	assert.Equal(t, 0, res.closed)
	assert.Equal(t, 0, sh.Len())
}

func TestTeardownUnmapped(t *testing.T) {
	sh, host, _ := newTestShell()

	s, _ := create(t, sh, Request{Layer: uint32(BandBackground)})
	host.destroySurface(testSurface)

	assert.Equal(t, []ViewID{s.View()}, host.destroyedViews)
	assert.Equal(t, 0, sh.Len())

	sh.teardown(s.ID())
	assert.Len(t, host.destroyedViews, 1)
}

func TestAckConfigure(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 1920, 1080))

	s, res := create(t, sh, Request{Layer: uint32(BandTop)})
	s.SetAnchor(layout.EdgeLeft | layout.EdgeRight)
	s.SetSize(0, 30)
	host.clientCommit(testSurface, geom.Pt(1, 1))
	host.clientCommit(testSurface, geom.Pt(1, 1))
	require.Len(t, res.configures, 3)

	_, outstanding := s.Acked()
	assert.True(t, outstanding)

	s.AckConfigure(9999)
	serial, _ := s.Acked()
	assert.Equal(t, uint32(0), serial)

	s.AckConfigure(res.configures[1].serial)
	serial, outstanding = s.Acked()
	assert.Equal(t, res.configures[1].serial, serial)
	assert.True(t, outstanding)

	s.AckConfigure(res.configures[2].serial)
	_, outstanding = s.Acked()
	assert.False(t, outstanding)
}

func TestUnackedConfigures(t *testing.T) {
	sh, host, _ := newTestShell()
	host.addOutput(testOutput, geom.Rt(0, 0, 640, 480))

	s, res := create(t, sh, Request{Layer: uint32(BandBackground)})
	s.SetAnchor(layout.EdgeAll)

	// The client never acks and never resizes, so every commit sends
	// another configure.
	for range 10000 {
		host.clientCommit(testSurface, geom.Pt(1, 1))
	}
	require.Len(t, res.configures, 10001)
	assert.Len(t, s.pending, maxPending)

	_, outstanding := s.Acked()
	assert.True(t, outstanding)

	s.AckConfigure(res.configures[0].serial)
	serial, _ := s.Acked()
	assert.Equal(t, uint32(0), serial, "forgotten serials are unknown")

	s.AckConfigure(res.last().serial)
	serial, outstanding = s.Acked()
	assert.Equal(t, res.last().serial, serial)
	assert.False(t, outstanding)
	assert.Empty(t, s.pending)
}

func TestSerials(t *testing.T) {
	var n uint32 = 40
	host := newFakeHost()
	_, _, reg := newTestShell()
	sh := New(host, reg, withSerials(func() uint32 { n++; return n }))

	_, res := create(t, sh, Request{Layer: uint32(BandTop)})
	assert.Equal(t, uint32(41), res.last().serial)
}

func TestRequests(t *testing.T) {
	sh, _, _ := newTestShell()
	s, _ := create(t, sh, Request{Layer: uint32(BandTop), Namespace: "panel"})

	s.SetAnchor(layout.Edges(0xff))
	assert.Equal(t, layout.EdgeAll, s.Anchor())

	s.SetMargin(1, 2, 3, 4)
	assert.Equal(t, layout.Margin{Top: 1, Right: 2, Bottom: 3, Left: 4}, s.Margin())

	s.SetKeyboardInteractivity(true)
	assert.True(t, s.Interactive())

	s.SetSize(5, 6)
	assert.Equal(t, geom.Pt(5, 6), s.RequestedSize())

	s.SetExclusiveZone(32)
	assert.True(t, errors.Is(s.GetPopup(), ErrUnsupported))
	assert.Equal(t, "panel", s.Namespace())
	assert.Equal(t, testClient, s.Client())
}
