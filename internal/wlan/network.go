package wlan

import (
	"fmt"

	"github.com/muurk/wlanmgr/internal/radio"
)

// SignalLevel buckets RSSI for display.
type SignalLevel int

const (
	SignalWeak SignalLevel = iota
	SignalModerate
	SignalGood
)

// RSSI thresholds in dBm, inclusive upper bounds.
const (
	rssiWeakMax     = -70
	rssiModerateMax = -50
)

// LevelFromRSSI maps an RSSI to a signal level.
func LevelFromRSSI(rssi int) SignalLevel {
	switch {
	case rssi <= rssiWeakMax:
		return SignalWeak
	case rssi <= rssiModerateMax:
		return SignalModerate
	default:
		return SignalGood
	}
}

func (l SignalLevel) String() string {
	switch l {
	case SignalWeak:
		return "WEAK"
	case SignalModerate:
		return "MODERATE"
	case SignalGood:
		return "GOOD"
	default:
		return fmt.Sprintf("SignalLevel(%d)", int(l))
	}
}

// MarshalText renders the level name in JSON.
func (l SignalLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText parses a level name written by MarshalText.
func (l *SignalLevel) UnmarshalText(b []byte) error {
	switch string(b) {
	case "WEAK":
		*l = SignalWeak
	case "MODERATE":
		*l = SignalModerate
	case "GOOD":
		*l = SignalGood
	default:
		return fmt.Errorf("wlan: unknown signal level %q", b)
	}
	return nil
}

// Network is an access point as shown to the user.
type Network struct {
	SSID   string      `json:"ssid"`
	Locked bool        `json:"locked"`
	Level  SignalLevel `json:"level"`
}

// NetworkFromRecord derives display data from a driver record. Anything
// but an open network is shown locked.
func NetworkFromRecord(ap radio.APRecord) Network {
	return Network{
		SSID:   ap.SSID,
		Locked: ap.Auth != radio.AuthOpen,
		Level:  LevelFromRSSI(ap.RSSI),
	}
}

// Credential is a network plus the password to join it with.
type Credential struct {
	Network  Network
	Password string
}

// ConnectState is what the connected-network row shows.
type ConnectState int

const (
	ConnectDisconnect ConnectState = iota
	ConnectConnecting
	ConnectConnected
)

func (c ConnectState) String() string {
	switch c {
	case ConnectDisconnect:
		return "DISCONNECT"
	case ConnectConnecting:
		return "CONNECTING"
	case ConnectConnected:
		return "CONNECTED"
	default:
		return fmt.Sprintf("ConnectState(%d)", int(c))
	}
}

// WifiIcon is the status bar indicator. The signal icons line up with
// SignalLevel so a connected station shows IconFor(level).
type WifiIcon int

const (
	IconDisconnected WifiIcon = iota
	IconSignal1
	IconSignal2
	IconSignal3
	IconClosed
)

// IconFor returns the status icon for a connected station.
func IconFor(l SignalLevel) WifiIcon {
	return WifiIcon(int(l) + 1)
}

func (w WifiIcon) String() string {
	switch w {
	case IconDisconnected:
		return "DISCONNECTED"
	case IconSignal1:
		return "SIGNAL_1"
	case IconSignal2:
		return "SIGNAL_2"
	case IconSignal3:
		return "SIGNAL_3"
	case IconClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("WifiIcon(%d)", int(w))
	}
}
