package ui

import (
	"errors"
	"sync"

	"github.com/muurk/wlanmgr/internal/settings"
	"github.com/muurk/wlanmgr/internal/wlan"
)

// ErrNotBuilt is returned when screens are torn down before being built.
var ErrNotBuilt = errors.New("ui: screens not built")

// ScreenState is what the TUI draws. It is a copy; mutating it has no
// effect on the view.
type ScreenState struct {
	Built  bool
	Screen settings.Screen
	Switch bool
	Icon   wlan.WifiIcon

	Connected        wlan.Network
	ConnectState     wlan.ConnectState
	ConnectedVisible bool

	Available        []wlan.Network
	AvailableVisible bool

	VerificationTitle string

	// Bumped on every ClearPassword and ScrollConnectedIntoView call so
	// the model can tell a new request from one it already handled.
	PasswordGen int
	ScrollGen   int
}

// Screens implements settings.View on top of plain state. The managers
// call it with the UI lock held, so every method only records the change
// and pokes the redraw hook.
type Screens struct {
	mu     sync.Mutex
	state  ScreenState
	redraw func()
}

var _ settings.View = (*Screens)(nil)

// NewScreens returns an unbuilt view showing HOME.
func NewScreens() *Screens {
	return &Screens{state: ScreenState{Screen: settings.ScreenHome, Icon: wlan.IconClosed}}
}

// OnChange sets the hook called after every update. It must not block.
func (v *Screens) OnChange(fn func()) {
	v.mu.Lock()
	v.redraw = fn
	v.mu.Unlock()
}

// State returns a copy of the current state.
func (v *Screens) State() ScreenState {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Available = append([]wlan.Network(nil), v.state.Available...)
	return s
}

func (v *Screens) update(fn func(s *ScreenState)) {
	v.mu.Lock()
	fn(&v.state)
	redraw := v.redraw
	v.mu.Unlock()
	if redraw != nil {
		redraw()
	}
}

func (v *Screens) Build() error {
	v.update(func(s *ScreenState) { s.Built = true })
	return nil
}

func (v *Screens) Teardown() error {
	var err error
	v.update(func(s *ScreenState) {
		if !s.Built {
			err = ErrNotBuilt
			return
		}
		s.Built = false
		s.Screen = settings.ScreenHome
	})
	return err
}

func (v *Screens) ShowScreen(screen settings.Screen) {
	v.update(func(s *ScreenState) { s.Screen = screen })
}

func (v *Screens) SetSwitch(on bool) {
	v.update(func(s *ScreenState) { s.Switch = on })
}

func (v *Screens) SetVerificationTitle(ssid string) {
	v.update(func(s *ScreenState) { s.VerificationTitle = ssid })
}

func (v *Screens) ClearPassword() {
	v.update(func(s *ScreenState) { s.PasswordGen++ })
}

func (v *Screens) SetWifiIcon(icon wlan.WifiIcon) {
	v.update(func(s *ScreenState) { s.Icon = icon })
}

func (v *Screens) UpdateConnected(n wlan.Network, state wlan.ConnectState) {
	v.update(func(s *ScreenState) {
		s.Connected = n
		s.ConnectState = state
	})
}

func (v *Screens) SetConnectedVisible(visible bool) {
	v.update(func(s *ScreenState) { s.ConnectedVisible = visible })
}

func (v *Screens) UpdateAvailable(nets []wlan.Network) {
	cp := append([]wlan.Network(nil), nets...)
	v.update(func(s *ScreenState) { s.Available = cp })
}

func (v *Screens) SetAvailableVisible(visible bool) {
	v.update(func(s *ScreenState) { s.AvailableVisible = visible })
}

func (v *Screens) ScrollConnectedIntoView() {
	v.update(func(s *ScreenState) { s.ScrollGen++ })
}
