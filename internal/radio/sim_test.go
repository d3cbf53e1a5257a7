package radio

import (
	"errors"
	"testing"
	"time"
)

func collect(t *testing.T, s *Sim) <-chan Event {
	t.Helper()
	ch := make(chan Event, 16)
	cancel, err := s.Subscribe(func(ev Event) { ch <- ev })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	t.Cleanup(func() { _ = cancel() })
	return ch
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func homeNetworks() []SimNetwork {
	return []SimNetwork{
		{APRecord: APRecord{SSID: "Home", RSSI: -45, Auth: AuthWPA2PSK}, Password: "secret123"},
		{APRecord: APRecord{SSID: "Cafe", RSSI: -72, Auth: AuthOpen}},
		{APRecord: APRecord{SSID: "Office", RSSI: -60, Auth: AuthWPA2WPA3PSK}, Password: "hunter2"},
	}
}

func startedSim(t *testing.T) (*Sim, <-chan Event) {
	t.Helper()
	s := NewSim(SimConfig{Networks: homeNetworks()})
	t.Cleanup(func() { _ = s.Close() })
	ch := collect(t, s)

	if err := s.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if ev := next(t, ch); ev.Kind != EventStaStart {
		t.Fatalf("first event = %v, want STA_START", ev)
	}
	return s, ch
}

func TestSim_RequiresInit(t *testing.T) {
	s := NewSim(SimConfig{})
	defer s.Close()

	err := s.Start()
	if !IsDriverError(err, ErrTypeNotInitialized) {
		t.Errorf("Start() before Init error = %v, want not initialized", err)
	}
	if err := s.Connect("Home", ""); !IsDriverError(err, ErrTypeState) {
		t.Errorf("Connect() before Start error = %v, want state error", err)
	}
}

func TestSim_ScanSortedAndCapped(t *testing.T) {
	s, ch := startedSim(t)

	if err := s.ScanStart(); err != nil {
		t.Fatalf("ScanStart() error = %v", err)
	}
	if ev := next(t, ch); ev.Kind != EventScanDone {
		t.Fatalf("event = %v, want SCAN_DONE", ev)
	}

	recs, err := s.ScanResults(2)
	if err != nil {
		t.Fatalf("ScanResults() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(ScanResults(2)) = %d, want 2", len(recs))
	}
	if recs[0].SSID != "Home" || recs[1].SSID != "Office" {
		t.Errorf("ScanResults order = %s, %s; want Home, Office", recs[0].SSID, recs[1].SSID)
	}
}

func TestSim_ConnectOutcomes(t *testing.T) {
	tests := []struct {
		name       string
		ssid       string
		password   string
		wantKind   EventKind
		wantReason DisconnectReason
	}{
		{"correct password", "Home", "secret123", EventStaConnected, 0},
		{"open network", "Cafe", "", EventStaConnected, 0},
		{"wrong password", "Home", "nope", EventStaDisconnected, ReasonFourWayHandshakeTimeout},
		{"not in range", "Nowhere", "x", EventStaDisconnected, ReasonNoAPFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ch := startedSim(t)

			if err := s.Connect(tt.ssid, tt.password); err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			ev := next(t, ch)
			if ev.Kind != tt.wantKind {
				t.Fatalf("event = %v, want %v", ev, tt.wantKind)
			}
			if ev.Reason != tt.wantReason {
				t.Errorf("reason = %v, want %v", ev.Reason, tt.wantReason)
			}

			_, err := s.AssociatedAP()
			if associated := err == nil; associated != (tt.wantKind == EventStaConnected) {
				t.Errorf("AssociatedAP() error = %v, associated want %v", err, tt.wantKind == EventStaConnected)
			}
		})
	}
}

func TestSim_FailConnect(t *testing.T) {
	s, ch := startedSim(t)
	s.FailConnect("Home", 2, ReasonBeaconTimeout)

	for i := 0; i < 2; i++ {
		if err := s.Connect("Home", "secret123"); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
		if ev := next(t, ch); ev.Kind != EventStaDisconnected || ev.Reason != ReasonBeaconTimeout {
			t.Fatalf("attempt %d event = %v, want STA_DISCONNECTED(BEACON_TIMEOUT)", i+1, ev)
		}
	}

	if err := s.Connect("Home", "secret123"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if ev := next(t, ch); ev.Kind != EventStaConnected {
		t.Errorf("third attempt event = %v, want STA_CONNECTED", ev)
	}
}

func TestSim_FailNextAndCalls(t *testing.T) {
	s, _ := startedSim(t)
	boom := errors.New("boom")
	s.FailNext("disconnect", boom)

	if err := s.Disconnect(); !errors.Is(err, boom) {
		t.Errorf("Disconnect() error = %v, want %v", err, boom)
	}
	if err := s.Disconnect(); err != nil {
		t.Errorf("second Disconnect() error = %v", err)
	}

	want := []string{"init", "start", "disconnect"}
	got := s.Calls()
	if len(got) != len(want) {
		t.Fatalf("Calls() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Calls()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEventKind_String(t *testing.T) {
	if got := EventKind(99).String(); got != "UNKNOWN" {
		t.Errorf("EventKind(99).String() = %q, want UNKNOWN", got)
	}
	ev := Event{Kind: EventStaDisconnected, Reason: ReasonAuthFail}
	if got := ev.String(); got != "STA_DISCONNECTED(AUTH_FAIL)" {
		t.Errorf("Event.String() = %q", got)
	}
}

func TestDisconnectReason_Unrecoverable(t *testing.T) {
	tests := []struct {
		reason DisconnectReason
		want   bool
	}{
		{ReasonFourWayHandshakeTimeout, true},
		{ReasonAuthFail, true},
		{ReasonBeaconTimeout, false},
		{ReasonNoAPFound, false},
	}
	for _, tt := range tests {
		if got := tt.reason.Unrecoverable(); got != tt.want {
			t.Errorf("%v.Unrecoverable() = %v, want %v", tt.reason, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(NewBusError("scan_start", errors.New("no reply"))) {
		t.Error("bus error should be retryable")
	}
	if IsRetryable(NewStateError("connect", "not started")) {
		t.Error("state error should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error should not be retryable")
	}
}
