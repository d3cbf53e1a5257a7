package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/muurk/wlanmgr/internal/wlan"
)

type fakeController struct {
	mu         sync.Mutex
	snap       wlan.Snapshot
	watchers   map[int]func(wlan.Snapshot)
	nextID     int
	calls      []string
	connecting wlan.Credential
	err        error
}

func newFakeController() *fakeController {
	return &fakeController{
		snap: wlan.Snapshot{
			State:     "STARTED",
			ScanState: "DONE",
			Switch:    true,
			Available: []wlan.Network{{SSID: "Home", Locked: true, Level: wlan.SignalGood}},
		},
		watchers: make(map[int]func(wlan.Snapshot)),
	}
}

func (f *fakeController) Snapshot() wlan.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) Watch(fn func(wlan.Snapshot)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.watchers[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.watchers, id)
		f.mu.Unlock()
	}
}

func (f *fakeController) publish(s wlan.Snapshot) {
	f.mu.Lock()
	f.snap = s
	fns := make([]func(wlan.Snapshot), 0, len(f.watchers))
	for _, fn := range f.watchers {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeController) Force(op wlan.Operation, timeout time.Duration) error {
	return f.record("force:" + op.String() + ":" + timeout.String())
}

func (f *fakeController) Try(op wlan.Operation, timeout time.Duration) error {
	return f.record("try:" + op.String() + ":" + timeout.String())
}

func (f *fakeController) SetConnecting(c wlan.Credential) {
	f.mu.Lock()
	f.connecting = c
	f.mu.Unlock()
}

func (f *fakeController) watcherCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers)
}

func startServer(t *testing.T) (*Server, *fakeController) {
	t.Helper()
	ctl := newFakeController()
	srv, err := New(Config{Listen: "127.0.0.1:0"}, ctl)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ctl
}

func dial(t *testing.T, srv *Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.Addr())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		ctl    Controller
	}{
		{"no controller", Config{Listen: ":0"}, nil},
		{"no listen address", Config{}, newFakeController()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.config, tt.ctl); err == nil {
				t.Error("New() error = nil, want error")
			}
		})
	}
}

func TestAPIState(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var snap wlan.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if snap.State != "STARTED" || len(snap.Available) != 1 || snap.Available[0].Level != wlan.SignalGood {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestAPIVersion(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/api/version")
	if err != nil {
		t.Fatalf("GET /api/version error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var info map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if info["version"] == "" {
		t.Errorf("version info = %v, want a version", info)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Post("http://"+srv.Addr()+"/api/state", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestWebSocket_InitialAndPushedSnapshots(t *testing.T) {
	srv, ctl := startServer(t)
	c := dial(t, srv)
	ctx := testContext(t)

	snap, err := c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.State != "STARTED" {
		t.Errorf("initial State = %v, want STARTED", snap.State)
	}

	ctl.publish(wlan.Snapshot{State: "CONNECTED", Connected: &wlan.Network{SSID: "Home"}})
	snap, err = c.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.State != "CONNECTED" || snap.Connected == nil || snap.Connected.SSID != "Home" {
		t.Errorf("pushed snapshot = %+v", snap)
	}
}

func TestWebSocket_Commands(t *testing.T) {
	tests := []struct {
		name     string
		cmd      Command
		ctlErr   error
		wantErr  bool
		wantCall string
	}{
		{
			name:     "force by default",
			cmd:      Command{Op: "start"},
			wantCall: "force:START:0s",
		},
		{
			name:     "try with timeout",
			cmd:      Command{Op: "SCAN_START", Mode: "try", TimeoutMS: 1500},
			wantCall: "try:SCAN_START:1.5s",
		},
		{
			name:    "invalid operation",
			cmd:     Command{Op: "REBOOT"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			cmd:     Command{Op: "SCAN_START", TimeoutMS: -5},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			cmd:     Command{Op: "STOP", Mode: "maybe"},
			wantErr: true,
		},
		{
			name:     "manager error is returned",
			cmd:      Command{Op: "SCAN_START", Mode: "try"},
			ctlErr:   wlan.ErrBusy,
			wantErr:  true,
			wantCall: "try:SCAN_START:0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, ctl := startServer(t)
			ctl.err = tt.ctlErr
			c := dial(t, srv)

			err := c.Do(testContext(t), tt.cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Do() error = %v, wantErr %v", err, tt.wantErr)
			}

			ctl.mu.Lock()
			calls := append([]string(nil), ctl.calls...)
			ctl.mu.Unlock()
			if tt.wantCall == "" {
				if len(calls) != 0 {
					t.Errorf("calls = %v, want none", calls)
				}
				return
			}
			if len(calls) != 1 || calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want [%s]", calls, tt.wantCall)
			}
		})
	}
}

func TestWebSocket_ConnectSetsCredential(t *testing.T) {
	srv, ctl := startServer(t)
	c := dial(t, srv)

	err := c.Do(testContext(t), Command{Op: "CONNECT", SSID: "Home", Password: "secret123"})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.connecting.Network.SSID != "Home" || ctl.connecting.Password != "secret123" || !ctl.connecting.Network.Locked {
		t.Errorf("connecting = %+v", ctl.connecting)
	}
	if len(ctl.calls) != 1 || ctl.calls[0] != "force:CONNECT:0s" {
		t.Errorf("calls = %v", ctl.calls)
	}
}

func TestShutdown_ClosesClients(t *testing.T) {
	ctl := newFakeController()
	srv, err := New(Config{Listen: "127.0.0.1:0"}, ctl)
	if err != nil {
		t.Fatal(err)
	}
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	c := dial(t, srv)
	if _, err := c.Snapshot(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if srv.ActiveClients() != 1 {
		t.Errorf("ActiveClients() = %d, want 1", srv.ActiveClients())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if srv.ActiveClients() != 0 {
		t.Errorf("ActiveClients() after Shutdown = %d, want 0", srv.ActiveClients())
	}
	if ctl.watcherCount() != 0 {
		t.Errorf("watchers after Shutdown = %d, want 0", ctl.watcherCount())
	}

	if _, err := c.Snapshot(testContext(t)); err == nil {
		t.Error("Snapshot() after Shutdown error = nil, want error")
	}
}
