package wlan

import (
	"fmt"
	"strings"
)

// Operation is a unit of work executed by the worker.
type Operation uint8

const (
	OpNone Operation = iota
	OpInit
	OpDeinit
	OpStart
	OpStop
	OpConnect
	OpDisconnect
	OpScanStart
	OpScanStop

	opCount
)

var opNames = [opCount]string{
	OpNone:       "NONE",
	OpInit:       "INIT",
	OpDeinit:     "DEINIT",
	OpStart:      "START",
	OpStop:       "STOP",
	OpConnect:    "CONNECT",
	OpDisconnect: "DISCONNECT",
	OpScanStart:  "SCAN_START",
	OpScanStop:   "SCAN_STOP",
}

func (o Operation) String() string {
	if o >= opCount {
		return "UNKNOWN"
	}
	return opNames[o]
}

func (o Operation) valid() bool {
	return o > OpNone && o < opCount
}

// ParseOperation parses an operation name such as "SCAN_START" (case
// insensitive). NONE is rejected.
func ParseOperation(s string) (Operation, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for o := OpInit; o < opCount; o++ {
		if opNames[o] == name {
			return o, nil
		}
	}
	return OpNone, fmt.Errorf("%w: %q", ErrInvalidOperation, s)
}
