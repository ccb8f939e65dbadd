package shell

import (
	"slices"

	"deedles.dev/strata/focus"
	"github.com/charmbracelet/log"
)

// Linux input event codes of the buttons that activate layer surfaces
// by default.
const (
	BtnLeft  uint32 = 0x110
	BtnRight uint32 = 0x111
)

// Arbitrator is the activation policy for layer surfaces. Register it
// on a focus.Chain at a higher priority than the window manager.
//
// While an interactive surface exists in BandOverlay, every click and
// touch activates it no matter where it lands. The same goes for
// BandTop if there is no such overlay surface. Otherwise, clicking or
// touching an interactive layer surface activates it, and anything
// else is left to the next handler.
type Arbitrator struct {
	sh      *Shell
	act     focus.Activator
	buttons []uint32
	log     *log.Logger
}

// Arbitrator returns an activation policy that activates layer
// surfaces through act. If no buttons are given, BtnLeft and BtnRight
// are used.
func (sh *Shell) Arbitrator(act focus.Activator, buttons ...uint32) *Arbitrator {
	if len(buttons) == 0 {
		buttons = []uint32{BtnLeft, BtnRight}
	}

	return &Arbitrator{
		sh:      sh,
		act:     act,
		buttons: buttons,
		log:     sh.log.WithPrefix("focus"),
	}
}

// TopInteractive returns the topmost keyboard interactive surface in
// band b.
func (sh *Shell) TopInteractive(b Band) (*Surface, bool) {
	for s := range sh.TopDown(b) {
		if s.interactive {
			return s, true
		}
	}
	return nil, false
}

// refocus activates the topmost interactive surface of the overlay
// band or, failing that, the top band.
func (a *Arbitrator) refocus(seat focus.SeatID) bool {
	for _, b := range []Band{BandOverlay, BandTop} {
		s, ok := a.sh.TopInteractive(b)
		if !ok {
			continue
		}

		a.log.Debug("refocusing", "id", s.id, "band", b)
		a.act.Activate(s.view, seat, focus.FlagConfigure)
		return true
	}
	return false
}

func (a *Arbitrator) HandleActivation(ev focus.Event) bool {
	if ev.Grabbed || !ev.HasTarget {
		return false
	}
	if (ev.Kind == focus.KindButton) && !slices.Contains(a.buttons, ev.Button) {
		return false
	}

	if a.refocus(ev.Seat) {
		return true
	}

	s, ok := a.sh.ByView(ev.Target)
	if !ok || !s.interactive {
		return false
	}

	flags := focus.FlagConfigure
	if ev.Kind == focus.KindButton {
		flags |= focus.FlagClicked
	}
	a.log.Debug("activating", "id", s.id, "kind", ev.Kind)
	a.act.Activate(s.view, ev.Seat, flags)
	return true
}
