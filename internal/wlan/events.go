package wlan

import (
	"context"
	"fmt"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"github.com/muurk/wlanmgr/internal/store"
	"go.uber.org/zap"
)

// uiEvent is a handled event waiting for the UI worker. forced marks a
// disconnect that belongs to a forced reconnect, which the view ignores.
type uiEvent struct {
	radio.Event
	forced bool
}

// handleRadioEvent runs on the driver's goroutine. It must never take the
// UI lock.
func (m *Manager) handleRadioEvent(ev radio.Event) {
	logging.LogRadioEvent(ev, zap.String("ssid", ev.SSID))

	retry, save, forced := false, false, false
	m.mu.Lock()
	switch ev.Kind {
	case radio.EventStaStart:
		m.setStateLocked(StateStarted)
		m.setScanStateLocked(ScanStopped)
	case radio.EventStaStop:
		m.setStateLocked(StateStopped)
		m.setScanStateLocked(ScanStopped)
	case radio.EventStaDisconnected:
		forcing := m.forceConnecting.Load()
		if forcing && m.state == StateDisconnecting {
			// This is the disconnect the forced reconnect asked for; the
			// connect that follows is retry-eligible again.
			m.forceConnecting.Store(false)
		}
		forced = forcing
		considered := !forcing && m.state == StateConnecting && !ev.Reason.Unrecoverable()
		if considered {
			retry = m.retry.Decide()
			if retry {
				logging.Info("Connection lost, retrying",
					zap.Stringer("reason", ev.Reason),
					zap.Int("attempt", m.retry.Count()),
					zap.Int("max", m.retry.Max),
				)
			} else {
				logging.Warn("Giving up reconnecting", zap.Stringer("reason", ev.Reason))
				m.clearConnecting()
			}
		} else if !forcing {
			m.clearConnecting()
			m.timer.toggle(true, false)
		}
		m.setStateLocked(StateDisconnected)
	case radio.EventScanDone:
		if m.scanState == ScanScanning {
			m.setScanStateLocked(ScanDone)
		} else {
			m.setScanStateLocked(ScanStopped)
		}
	case radio.EventStaConnected:
		m.setStateLocked(StateConnected)
		m.retry.Reset()
		m.forceConnecting.Store(false)
		save = true
	default:
		m.mu.Unlock()
		logging.Debug("Ignoring radio event", zap.Stringer("event", ev))
		return
	}
	m.lastEvent = ev
	m.pending = append(m.pending, uiEvent{Event: ev, forced: forced})
	m.uiCond.Broadcast()
	m.mu.Unlock()

	if save {
		m.dataMu.Lock()
		cred := m.submitted
		m.dataMu.Unlock()
		m.submit("save_config", func(context.Context) error {
			return m.saveConfig(cred)
		})
	}
	if retry {
		// Force(CONNECT) may wait on SCAN_STOP, which must not happen on
		// the driver's goroutine.
		m.submit("reconnect", func(context.Context) error {
			return m.Force(OpConnect, 0)
		})
	}
}

// saveConfig persists the credentials that led to a connection. Keys are
// only written when they differ from what is stored.
func (m *Manager) saveConfig(cred Credential) error {
	if cred.Network.SSID == "" {
		return fmt.Errorf("save config: %w", ErrNoCredentials)
	}
	if m.store == nil {
		logging.Debug("No storage configured, credentials not saved")
		return nil
	}

	ssid, _ := m.store.GetString(store.KeyWlanSSID)
	pwd, _ := m.store.GetString(store.KeyWlanPassword)
	if ssid == cred.Network.SSID && pwd == cred.Password {
		return nil
	}
	if err := m.store.SetString(store.KeyWlanSSID, cred.Network.SSID, m); err != nil {
		return fmt.Errorf("save ssid: %w", err)
	}
	if err := m.store.SetString(store.KeyWlanPassword, cred.Password, m); err != nil {
		return fmt.Errorf("save password: %w", err)
	}
	logging.Info("Saved network credentials", zap.String("ssid", cred.Network.SSID))
	return nil
}

// runUIWorker renders handled events in order. Driver work and view work
// are split so the UI lock is never held across a scan result read.
func (m *Manager) runUIWorker() {
	defer m.wg.Done()
	logging.Debug("WLAN UI worker started")
	for {
		m.mu.Lock()
		for len(m.pending) == 0 && !m.closed {
			m.uiCond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			logging.Debug("WLAN UI worker stopped")
			return
		}
		ev := m.pending[0]
		m.pending = m.pending[1:]
		m.mu.Unlock()

		m.renderEvent(ev)
		m.notifyWatchers()
	}
}

func (m *Manager) renderEvent(ev uiEvent) {
	switch ev.Kind {
	case radio.EventStaStop:
		m.dataMu.Lock()
		m.available = nil
		m.dataMu.Unlock()
		m.notifyDisconnected()
	case radio.EventStaDisconnected:
		m.notifyDisconnected()
	case radio.EventScanDone:
		m.collectScanResults()
	}

	var ap radio.APRecord
	var apErr error
	if ev.Kind == radio.EventStaConnected {
		ap, apErr = m.driver.AssociatedAP()
	}

	m.uiLock.Lock()
	defer m.uiLock.Unlock()

	switch ev.Kind {
	case radio.EventStaStart:
		m.view.SetWifiIcon(IconDisconnected)
		m.timer.toggle(true, false)
	case radio.EventStaStop:
		m.timer.toggle(false, false)
		m.view.SetWifiIcon(IconClosed)
	case radio.EventStaDisconnected:
		m.view.SetWifiIcon(IconDisconnected)
	case radio.EventStaConnected:
		m.timer.toggle(m.wlanScreen.Load(), true)
		if apErr != nil {
			logging.Warn("Failed to read associated AP", zap.Error(apErr))
			break
		}
		m.view.SetWifiIcon(IconFor(LevelFromRSSI(ap.RSSI)))
		if hook := m.opts.OnConnected; hook != nil {
			m.submit("on_connected", func(ctx context.Context) error {
				return hook(ctx, ap)
			})
		}
	}

	if !m.UIReady() {
		return
	}
	switch ev.Kind {
	case radio.EventStaDisconnected:
		if ev.forced {
			return
		}
		if m.IsRetryConnecting() {
			return
		}
		m.clearConnected()
		m.RefreshConnected(false, StateUnknown)
	case radio.EventScanDone:
		m.RefreshAvailable(false, StateUnknown)
	case radio.EventStaConnected:
		m.RefreshConnected(false, StateUnknown)
	}
}

func (m *Manager) notifyDisconnected() {
	if hook := m.opts.OnDisconnected; hook != nil {
		hook()
	}
}

// collectScanResults rebuilds the available list from the driver and
// arms an auto-connect when the stored network is in range.
func (m *Manager) collectScanResults() {
	records, err := m.driver.ScanResults(m.opts.ScanAPCountMax)
	if err != nil {
		logging.Warn("Failed to read scan results", zap.Error(err))
		return
	}

	state := m.State()
	storedSSID, storedPwd := m.storedCredentials(state)

	m.dataMu.Lock()
	connectingSSID := m.connecting.Network.SSID
	connectedSSID := ""
	if m.hasConnected {
		connectedSSID = m.connected.SSID
	}
	m.dataMu.Unlock()

	autoConnect := false
	nets := make([]Network, 0, len(records))
	for _, ap := range records {
		n := NetworkFromRecord(ap)
		if state.IsAtLeast(StateConnectPhase) {
			if ap.SSID == connectedSSID || ap.SSID == connectingSSID {
				continue
			}
		} else if state.IsAtLeast(StateStartPhase) && storedSSID != "" && ap.SSID == storedSSID && !autoConnect {
			m.SetConnecting(Credential{Network: n, Password: storedPwd})
			autoConnect = true
			continue
		}
		nets = append(nets, n)
	}

	m.dataMu.Lock()
	m.available = nets
	promptShown := m.connectedVisible && m.shownConnect == ConnectDisconnect
	m.dataMu.Unlock()

	logging.Debug("Scan results collected", zap.Int("count", len(nets)), zap.Bool("auto_connect", autoConnect))
	if autoConnect && !(m.UIReady() && promptShown) {
		m.AsyncConnect(m.opts.ConnectDelay)
	}
}

func (m *Manager) storedCredentials(state State) (string, string) {
	if m.store == nil || state.IsAtLeast(StateConnectPhase) || !state.IsAtLeast(StateStartPhase) {
		return "", ""
	}
	ssid, err := m.store.GetString(store.KeyWlanSSID)
	if err != nil {
		return "", ""
	}
	pwd, _ := m.store.GetString(store.KeyWlanPassword)
	return ssid, pwd
}
