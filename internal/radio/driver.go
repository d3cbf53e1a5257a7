package radio

import "fmt"

// Mode selects the role the radio runs in.
type Mode int

const (
	ModeNull Mode = iota
	ModeStation
	ModeAP
	ModeAPStation
)

// String returns the mode name
func (m Mode) String() string {
	switch m {
	case ModeNull:
		return "NULL"
	case ModeStation:
		return "STA"
	case ModeAP:
		return "AP"
	case ModeAPStation:
		return "APSTA"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// EventKind identifies an asynchronous radio event.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventStaStart
	EventStaStop
	EventStaConnected
	EventStaDisconnected
	EventScanDone
)

var eventNames = map[EventKind]string{
	EventStaStart:        "STA_START",
	EventStaStop:         "STA_STOP",
	EventStaConnected:    "STA_CONNECTED",
	EventStaDisconnected: "STA_DISCONNECTED",
	EventScanDone:        "SCAN_DONE",
}

// String returns the event name, or "UNKNOWN"
func (k EventKind) String() string {
	if s, ok := eventNames[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// DisconnectReason is the 802.11 reason attached to STA_DISCONNECTED.
type DisconnectReason int

// Reason codes the manager inspects. Values follow IEEE 802.11 where one
// exists; AuthFail is a driver-level code.
const (
	ReasonUnspecified             DisconnectReason = 1
	ReasonAuthExpire              DisconnectReason = 2
	ReasonAuthLeave               DisconnectReason = 3
	ReasonAssocExpire             DisconnectReason = 4
	ReasonFourWayHandshakeTimeout DisconnectReason = 15
	ReasonBeaconTimeout           DisconnectReason = 200
	ReasonNoAPFound               DisconnectReason = 201
	ReasonAuthFail                DisconnectReason = 202
	ReasonAssocFail               DisconnectReason = 203
	ReasonConnectionFail          DisconnectReason = 205
)

// String returns a short reason name
func (r DisconnectReason) String() string {
	switch r {
	case ReasonUnspecified:
		return "UNSPECIFIED"
	case ReasonAuthExpire:
		return "AUTH_EXPIRE"
	case ReasonAuthLeave:
		return "AUTH_LEAVE"
	case ReasonAssocExpire:
		return "ASSOC_EXPIRE"
	case ReasonFourWayHandshakeTimeout:
		return "4WAY_HANDSHAKE_TIMEOUT"
	case ReasonBeaconTimeout:
		return "BEACON_TIMEOUT"
	case ReasonNoAPFound:
		return "NO_AP_FOUND"
	case ReasonAuthFail:
		return "AUTH_FAIL"
	case ReasonAssocFail:
		return "ASSOC_FAIL"
	case ReasonConnectionFail:
		return "CONNECTION_FAIL"
	default:
		return fmt.Sprintf("REASON(%d)", int(r))
	}
}

// Unrecoverable reports whether reconnecting with the same credentials is
// pointless (wrong password).
func (r DisconnectReason) Unrecoverable() bool {
	return r == ReasonFourWayHandshakeTimeout || r == ReasonAuthFail
}

// Event is delivered to subscribers on a goroutine owned by the driver.
type Event struct {
	Kind EventKind
	// Reason is only set for EventStaDisconnected.
	Reason DisconnectReason
	// SSID of the network the event refers to, if any.
	SSID string
}

// String implements fmt.Stringer
func (e Event) String() string {
	if e.Kind == EventStaDisconnected {
		return fmt.Sprintf("%s(%s)", e.Kind, e.Reason)
	}
	return e.Kind.String()
}

// AuthMode is the security of an access point.
type AuthMode int

const (
	AuthOpen AuthMode = iota
	AuthWEP
	AuthWPAPSK
	AuthWPA2PSK
	AuthWPAWPA2PSK
	AuthWPA3PSK
	AuthWPA2WPA3PSK
	AuthEnterprise
	AuthOWE
)

var authNames = [...]string{
	AuthOpen:        "OPEN",
	AuthWEP:         "WEP",
	AuthWPAPSK:      "WPA_PSK",
	AuthWPA2PSK:     "WPA2_PSK",
	AuthWPAWPA2PSK:  "WPA_WPA2_PSK",
	AuthWPA3PSK:     "WPA3_PSK",
	AuthWPA2WPA3PSK: "WPA2_WPA3_PSK",
	AuthEnterprise:  "ENTERPRISE",
	AuthOWE:         "OWE",
}

// String returns the auth mode name
func (a AuthMode) String() string {
	if a >= 0 && int(a) < len(authNames) {
		return authNames[a]
	}
	return "UNKNOWN"
}

// RequiresPassword reports whether joining needs a passphrase.
// OWE is encrypted but not password protected.
func (a AuthMode) RequiresPassword() bool {
	return a != AuthOpen && a != AuthOWE
}

// APRecord is one access point as reported by a scan or by the current
// association.
type APRecord struct {
	SSID  string
	BSSID string
	RSSI  int
	// Channel is the primary channel, 0 if unknown.
	Channel int
	Auth    AuthMode
}

// Driver is the imperative surface of a Wi-Fi station stack.
//
// Calls only submit work: Start, Stop, Connect, Disconnect and ScanStart
// return once the request is accepted and completion is reported later
// through an Event. Implementations must be safe for concurrent use.
type Driver interface {
	Init() error
	Deinit() error
	SetMode(Mode) error
	Start() error
	Stop() error
	Connect(ssid, password string) error
	Disconnect() error
	ScanStart() error
	ScanStop() error

	// AssociatedAP returns the access point the station is associated with.
	AssociatedAP() (APRecord, error)
	// ScanResults returns at most max records from the last completed scan.
	ScanResults(max int) ([]APRecord, error)

	// Subscribe registers fn for all events. The returned cancel function
	// unregisters it.
	Subscribe(fn func(Event)) (cancel func() error, err error)
}
