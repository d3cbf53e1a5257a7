package wpa

import (
	"github.com/godbus/dbus/v5"
	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"go.uber.org/zap"
)

// wpa_supplicant interface states (the Interface.State property).
const (
	stateDisconnected   = "disconnected"
	stateInactive       = "inactive"
	stateDisabled       = "interface_disabled"
	stateScanning       = "scanning"
	stateAuthenticating = "authenticating"
	stateAssociating    = "associating"
	stateAssociated     = "associated"
	state4Way           = "4way_handshake"
	stateGroupHandshake = "group_handshake"
	stateCompleted      = "completed"
)

// loop turns bus signals and locally raised events into radio events. It
// is the only goroutine that calls subscribers.
func (d *Driver) loop(signals <-chan *dbus.Signal, local <-chan radio.Event, quit, done chan struct{}) {
	defer close(done)
	for {
		select {
		case ev := <-local:
			d.deliver(ev)
		case sig, ok := <-signals:
			if !ok {
				return
			}
			for _, ev := range d.handleSignal(sig) {
				d.deliver(ev)
			}
		case <-quit:
			return
		}
	}
}

func (d *Driver) handleSignal(sig *dbus.Signal) []radio.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.iface == nil || !d.started || sig.Path != d.iface.Path() {
		return nil
	}

	switch sig.Name {
	case ifaceInterface + ".ScanDone":
		return []radio.Event{{Kind: radio.EventScanDone}}
	case ifaceInterface + ".PropertiesChanged", propsInterface + ".PropertiesChanged":
		changed := changedProperties(sig)
		state, ok := changed["State"]
		if !ok {
			return nil
		}
		cur, _ := state.Value().(string)
		prev := d.wpaState
		d.wpaState = cur

		var reason int32
		if isIdleState(cur) {
			reason = d.readDisconnectReason()
		}
		ev, ok := translateState(prev, cur, d.connected, reason)
		if !ok {
			return nil
		}
		logging.Debug("wpa_supplicant state change",
			zap.String("from", prev),
			zap.String("to", cur),
			zap.Int32("reason_code", reason),
		)
		switch ev.Kind {
		case radio.EventStaConnected:
			d.connected = true
		case radio.EventStaDisconnected:
			d.connected = false
		}
		ev.SSID = d.ssid
		return []radio.Event{ev}
	}
	return nil
}

// changedProperties extracts the changed property map from either the
// legacy Interface.PropertiesChanged signal or the standard
// org.freedesktop.DBus.Properties one.
func changedProperties(sig *dbus.Signal) map[string]dbus.Variant {
	switch sig.Name {
	case ifaceInterface + ".PropertiesChanged":
		if len(sig.Body) < 1 {
			return nil
		}
		m, _ := sig.Body[0].(map[string]dbus.Variant)
		return m
	case propsInterface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return nil
		}
		if name, _ := sig.Body[0].(string); name != ifaceInterface {
			return nil
		}
		m, _ := sig.Body[1].(map[string]dbus.Variant)
		return m
	}
	return nil
}

func isIdleState(s string) bool {
	switch s {
	case stateDisconnected, stateInactive, stateDisabled:
		return true
	}
	return false
}

func isAttemptState(s string) bool {
	switch s {
	case stateAuthenticating, stateAssociating, stateAssociated, state4Way, stateGroupHandshake:
		return true
	}
	return false
}

// translateState decides whether a State transition is a station event.
func translateState(prev, cur string, connected bool, reasonCode int32) (radio.Event, bool) {
	if prev == cur {
		return radio.Event{}, false
	}
	if cur == stateCompleted {
		return radio.Event{Kind: radio.EventStaConnected}, true
	}
	if !isIdleState(cur) && cur != stateScanning {
		return radio.Event{}, false
	}
	if !connected && !isAttemptState(prev) {
		return radio.Event{}, false
	}
	// wpa_supplicant falls back to scanning while it hunts for the AP;
	// only a completed link dropping to scanning counts as a disconnect.
	if cur == stateScanning && !connected {
		return radio.Event{}, false
	}

	reason := reasonFromCode(reasonCode)
	if prev == state4Way || prev == stateGroupHandshake {
		reason = radio.ReasonFourWayHandshakeTimeout
	}
	return radio.Event{Kind: radio.EventStaDisconnected, Reason: reason}, true
}

// reasonFromCode maps an IEEE 802.11 reason code (negative when generated
// locally) onto a DisconnectReason.
func reasonFromCode(code int32) radio.DisconnectReason {
	if code < 0 {
		code = -code
	}
	switch code {
	case 2:
		return radio.ReasonAuthExpire
	case 3, 8:
		return radio.ReasonAuthLeave
	case 4:
		return radio.ReasonAssocExpire
	case 15:
		return radio.ReasonFourWayHandshakeTimeout
	case 23:
		return radio.ReasonAuthFail
	default:
		return radio.ReasonUnspecified
	}
}
