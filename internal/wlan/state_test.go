package wlan

import (
	"errors"
	"testing"
)

func TestState_IsAtLeast(t *testing.T) {
	tests := []struct {
		state State
		check State
		want  bool
	}{
		{StateConnected, StateConnected, true},
		{StateConnected, StateConnectPhase, true},
		{StateConnected, StateStarted, true},
		{StateConnected, StateStartPhase, true},
		{StateConnected, StateInit, true},
		{StateConnected, StateDeinit, true},
		{StateConnected, StateDisconnectPhase, false},
		{StateConnected, StateStarting, false},
		{StateConnecting, StateConnected, false},
		{StateDisconnected, StateDisconnectPhase, true},
		{StateDisconnected, StateStarted, true},
		{StateDisconnected, StateConnectPhase, false},
		{StateStarting, StateStartPhase, true},
		{StateStarting, StateStarted, false},
		{StateStopped, StateStopPhase, true},
		{StateStopped, StateStartPhase, false},
		{StateStopped, StateInit, true},
		{StateInit, StateDeinit, true},
		{StateDeinit, StateInit, false},
		{StateDeinit, StateDeinit, true},
		{StateUnknown, StateDeinit, false},
		{StateStarted, StateUnknown, false},
		{State(200), StateDeinit, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String()+"/"+tt.check.String(), func(t *testing.T) {
			if got := tt.state.IsAtLeast(tt.check); got != tt.want {
				t.Errorf("%v.IsAtLeast(%v) = %v, want %v", tt.state, tt.check, got, tt.want)
			}
		})
	}
}

func TestScanState_IsAtLeast(t *testing.T) {
	tests := []struct {
		state ScanState
		check ScanState
		want  bool
	}{
		{ScanScanning, ScanStartPhase, true},
		{ScanDone, ScanStartPhase, true},
		{ScanDone, ScanScanning, false},
		{ScanStopped, ScanStartPhase, false},
		{ScanStopped, ScanStopped, true},
		{ScanUnknown, ScanStopped, false},
	}

	for _, tt := range tests {
		if got := tt.state.IsAtLeast(tt.check); got != tt.want {
			t.Errorf("%v.IsAtLeast(%v) = %v, want %v", tt.state, tt.check, got, tt.want)
		}
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"connect phase", StateConnectPhase.String(), "_CONNECT"},
		{"disconnected", StateDisconnected.String(), "DISCONNECTED"},
		{"unknown zero", StateUnknown.String(), "UNKNOWN"},
		{"out of range", State(99).String(), "UNKNOWN"},
		{"scan start phase", ScanStartPhase.String(), "_SCAN_START"},
		{"scan done", ScanDone.String(), "SCAN_DONE"},
		{"scan out of range", ScanState(42).String(), "UNKNOWN"},
		{"operation", OpScanStart.String(), "SCAN_START"},
		{"operation out of range", Operation(42).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestParseOperation(t *testing.T) {
	tests := []struct {
		input   string
		want    Operation
		wantErr bool
	}{
		{"CONNECT", OpConnect, false},
		{"scan_start", OpScanStart, false},
		{" deinit ", OpDeinit, false},
		{"NONE", OpNone, true},
		{"reboot", OpNone, true},
		{"", OpNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOperation(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOperation(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidOperation) {
				t.Errorf("error should wrap ErrInvalidOperation, got %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseOperation(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
