package wlan

import (
	"context"

	"github.com/muurk/wlanmgr/internal/logging"
	"go.uber.org/zap"
)

// RefreshConnected redraws the connected-network row. With useTarget the
// row reflects target instead of the current state, so a pending
// operation can be shown before it starts. Callers hold the UI lock.
func (m *Manager) RefreshConnected(useTarget bool, target State) {
	state := m.State()
	if useTarget {
		state = target
	}

	var (
		n     Network
		shown ConnectState
	)
	switch {
	case !state.IsAtLeast(StateConnectPhase):
		if state.IsAtLeast(StateDisconnectPhase) {
			m.showConnected(n, ConnectDisconnect, m.Switch())
			m.scheduleDisconnectHide()
			return
		}
		m.showConnected(n, ConnectDisconnect, false)
		return
	case state == StateConnected:
		ap, err := m.driver.AssociatedAP()
		if err != nil {
			logging.Warn("Failed to read associated AP", zap.Error(err))
			return
		}
		n = NetworkFromRecord(ap)
		m.dataMu.Lock()
		m.connected = n
		m.hasConnected = true
		m.dataMu.Unlock()
		shown = ConnectConnected
	case state == StateConnecting:
		n = m.Connecting().Network
		shown = ConnectConnecting
	default:
		// _CONNECT itself never settles; keep whatever is shown.
		return
	}
	m.showConnected(n, shown, m.Switch())
}

func (m *Manager) showConnected(n Network, s ConnectState, visible bool) {
	m.dataMu.Lock()
	m.shownConnect = s
	m.connectedVisible = visible
	m.dataMu.Unlock()

	m.view.UpdateConnected(n, s)
	m.view.SetConnectedVisible(visible)
}

// scheduleDisconnectHide hides the DISCONNECT row after the configured
// delay unless a new connection started meanwhile.
func (m *Manager) scheduleDisconnectHide() {
	m.submit("disconnect_hide", func(ctx context.Context) error {
		if !sleep(ctx, m.opts.DisconnectHide) {
			return nil
		}
		state := m.State()
		if state.IsAtLeast(StateConnectPhase) || !state.IsAtLeast(StateStartPhase) {
			return nil
		}
		m.ToggleScanTimer(true, true)
		if !m.UIReady() {
			return nil
		}

		m.uiLock.Lock()
		defer m.uiLock.Unlock()
		if m.State().IsAtLeast(StateConnectPhase) {
			return nil
		}
		m.showConnected(Network{}, ConnectDisconnect, false)
		return nil
	})
}

// RefreshAvailable pushes the scan list minus the connecting and
// connected networks. The list is visible while the station is started
// and switched on. Callers hold the UI lock.
func (m *Manager) RefreshAvailable(useTarget bool, target State) {
	state := m.State()
	if useTarget {
		state = target
	}
	m.view.UpdateAvailable(m.visibleAvailable())
	m.view.SetAvailableVisible(state.IsAtLeast(StateStartPhase) && m.Switch())
}

// visibleAvailable is the available list as the view shows it.
func (m *Manager) visibleAvailable() []Network {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	skip := map[string]bool{}
	if m.connecting.Network.SSID != "" {
		skip[m.connecting.Network.SSID] = true
	}
	if m.hasConnected {
		skip[m.connected.SSID] = true
	}
	nets := make([]Network, 0, len(m.available))
	for _, n := range m.available {
		if skip[n.SSID] {
			continue
		}
		nets = append(nets, n)
	}
	return nets
}
