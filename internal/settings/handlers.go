package settings

import (
	"fmt"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/store"
	"github.com/muurk/wlanmgr/internal/wlan"
	"go.uber.org/zap"
)

// OnSwitchToggle handles the user flipping the WLAN switch.
func (s *Manager) OnSwitchToggle(on bool) {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()

	s.applySwitch(on)
	if err := s.store.SetInt(store.KeyWlanSwitch, boolToInt(on), s); err != nil {
		logging.Error("Failed to persist wlan switch", zap.Error(err))
	}
}

// applySwitch updates the switch, renders the pending transition and
// queues START or STOP. Called with the UI lock held.
func (s *Manager) applySwitch(on bool) {
	logging.Info("WLAN switch toggled", zap.Bool("on", on))
	s.wlan.SetSwitch(on)
	s.view.SetSwitch(on)
	s.view.SetWifiIcon(iconForSwitch(on))

	target := wlan.StateStopping
	if on {
		target = wlan.StateStarting
	}
	s.wlan.RefreshAvailable(true, target)
	s.wlan.RefreshConnected(true, target)

	s.background("switch", func() error {
		return s.wlan.Force(switchOp(on), 0)
	})
}

// OnAvailableClick handles a tap on the i-th available network. Locked
// networks open the password screen; open ones connect right away.
func (s *Manager) OnAvailableClick(i int) error {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()

	n, ok := s.wlan.AvailableAt(i)
	if !ok {
		return fmt.Errorf("settings: no available network at index %d", i)
	}
	s.wlan.SetConnecting(wlan.Credential{Network: n})
	logging.Info("Network selected", zap.String("ssid", n.SSID), zap.Bool("locked", n.Locked))

	if n.Locked {
		s.wlan.ToggleScanTimer(false, false)
		s.view.SetVerificationTitle(n.SSID)
		s.view.ClearPassword()
		s.changeScreen(ScreenWlanVerification)
		return nil
	}
	s.wlan.AsyncConnect(0)
	return nil
}

// OnKeyboardConfirm handles the password entered on the verification
// screen. ssid, when given, must match the network being joined.
func (s *Manager) OnKeyboardConfirm(ssid, password string) error {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()

	if s.screen != ScreenWlanVerification {
		logging.Debug("Ignoring keyboard confirm outside verification", zap.Stringer("screen", s.screen))
		return nil
	}
	connecting := s.wlan.Connecting().Network.SSID
	if ssid != "" && ssid != connecting {
		return fmt.Errorf("settings: confirmed ssid %q does not match %q", ssid, connecting)
	}

	s.back()
	s.wlan.SetConnectingPassword(password)
	s.wlan.AsyncConnect(0)
	return nil
}

// onStoreEvent applies switch changes written by someone else.
func (s *Manager) onStoreEvent(ev store.Event) {
	if ev.Sender == s || ev.Key != store.KeyWlanSwitch {
		return
	}
	sw, err := s.store.GetInt(store.KeyWlanSwitch)
	if err != nil {
		logging.Warn("Failed to read updated wlan switch", zap.Error(err))
		return
	}
	on := sw != 0
	logging.Info("WLAN switch changed externally", zap.Bool("on", on))

	if s.wlan.UIReady() {
		s.uiLock.Lock()
		s.applySwitch(on)
		s.uiLock.Unlock()
		return
	}
	s.background("external_switch", func() error {
		s.wlan.SetSwitch(on)
		return s.wlan.Force(switchOp(on), s.wlan.Timeouts().Start)
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
