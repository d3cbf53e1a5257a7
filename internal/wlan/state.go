package wlan

// State is the station's connectivity state.
//
// States form a tree: every state implies its ancestors, so a CONNECTED
// station is also STARTED, INIT and DEINIT. The underscore states
// (_START, _STOP, _CONNECT, _DISCONNECT) are phases grouping an
// in-progress state with its settled one.
type State uint8

const (
	StateUnknown State = iota
	StateDeinit
	StateInit
	StateStartPhase // _START
	StateStarting
	StateStarted
	StateStopPhase // _STOP
	StateStopping
	StateStopped
	StateConnectPhase // _CONNECT
	StateConnecting
	StateConnected
	StateDisconnectPhase // _DISCONNECT
	StateDisconnecting
	StateDisconnected

	stateCount
)

var stateParent = [stateCount]State{
	StateInit:            StateDeinit,
	StateStartPhase:      StateInit,
	StateStarting:        StateStartPhase,
	StateStarted:         StateStartPhase,
	StateStopPhase:       StateInit,
	StateStopping:        StateStopPhase,
	StateStopped:         StateStopPhase,
	StateConnectPhase:    StateStarted,
	StateConnecting:      StateConnectPhase,
	StateConnected:       StateConnectPhase,
	StateDisconnectPhase: StateStarted,
	StateDisconnecting:   StateDisconnectPhase,
	StateDisconnected:    StateDisconnectPhase,
}

var stateNames = [stateCount]string{
	StateDeinit:          "DEINIT",
	StateInit:            "INIT",
	StateStartPhase:      "_START",
	StateStarting:        "STARTING",
	StateStarted:         "STARTED",
	StateStopPhase:       "_STOP",
	StateStopping:        "STOPPING",
	StateStopped:         "STOPPED",
	StateConnectPhase:    "_CONNECT",
	StateConnecting:      "CONNECTING",
	StateConnected:       "CONNECTED",
	StateDisconnectPhase: "_DISCONNECT",
	StateDisconnecting:   "DISCONNECTING",
	StateDisconnected:    "DISCONNECTED",
}

// stateAncestors[s] has bit a set when a is s or one of its ancestors.
var stateAncestors [stateCount]uint32

// ScanState is the scan lifecycle, tracked separately from State.
type ScanState uint8

const (
	ScanUnknown    ScanState = iota
	ScanStartPhase           // _SCAN_START
	ScanScanning
	ScanDone
	ScanStopped

	scanStateCount
)

var scanParent = [scanStateCount]ScanState{
	ScanScanning: ScanStartPhase,
	ScanDone:     ScanStartPhase,
}

var scanNames = [scanStateCount]string{
	ScanStartPhase: "_SCAN_START",
	ScanScanning:   "SCANNING",
	ScanDone:       "SCAN_DONE",
	ScanStopped:    "SCAN_STOPPED",
}

var scanAncestors [scanStateCount]uint32

func init() {
	for s := StateDeinit; s < stateCount; s++ {
		for a := s; a != StateUnknown; a = stateParent[a] {
			stateAncestors[s] |= 1 << a
		}
	}
	for s := ScanStartPhase; s < scanStateCount; s++ {
		for a := s; a != ScanUnknown; a = scanParent[a] {
			scanAncestors[s] |= 1 << a
		}
	}
}

// IsAtLeast reports whether s is c or a descendant of c.
func (s State) IsAtLeast(c State) bool {
	if s == StateUnknown || s >= stateCount || c == StateUnknown || c >= stateCount {
		return false
	}
	return stateAncestors[s]&(1<<c) != 0
}

func (s State) String() string {
	if s >= stateCount || stateNames[s] == "" {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// IsAtLeast reports whether s is c or a descendant of c.
func (s ScanState) IsAtLeast(c ScanState) bool {
	if s == ScanUnknown || s >= scanStateCount || c == ScanUnknown || c >= scanStateCount {
		return false
	}
	return scanAncestors[s]&(1<<c) != 0
}

func (s ScanState) String() string {
	if s >= scanStateCount || scanNames[s] == "" {
		return "UNKNOWN"
	}
	return scanNames[s]
}
