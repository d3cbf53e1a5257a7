package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openBackends(t *testing.T) map[string]*KV {
	t.Helper()

	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "wlanmgr.db"))
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	badgerKV, err := OpenBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}

	stores := map[string]*KV{
		BackendMemory: NewMemory(),
		BackendBolt:   bolt,
		BackendBadger: badgerKV,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestKV_TypedValues(t *testing.T) {
	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if s.Backend() != name {
				t.Errorf("Backend() = %q, want %q", s.Backend(), name)
			}

			if _, err := s.GetInt(KeyWlanSwitch); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetInt(missing) error = %v, want ErrNotFound", err)
			}

			if err := s.SetInt(KeyWlanSwitch, 1, nil); err != nil {
				t.Fatalf("SetInt() error = %v", err)
			}
			if got, err := s.GetInt(KeyWlanSwitch); err != nil || got != 1 {
				t.Errorf("GetInt() = %d, %v; want 1, nil", got, err)
			}

			if err := s.SetString(KeyWlanSSID, "Home", nil); err != nil {
				t.Fatalf("SetString() error = %v", err)
			}
			if got, err := s.GetString(KeyWlanSSID); err != nil || got != "Home" {
				t.Errorf("GetString() = %q, %v; want Home, nil", got, err)
			}

			if _, err := s.GetInt(KeyWlanSSID); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("GetInt(string key) error = %v, want ErrTypeMismatch", err)
			}
			if _, err := s.GetString(KeyWlanSwitch); !errors.Is(err, ErrTypeMismatch) {
				t.Errorf("GetString(int key) error = %v, want ErrTypeMismatch", err)
			}

			// Zero values survive the encoders' omitempty handling
			if err := s.SetInt(KeyWlanSwitch, 0, nil); err != nil {
				t.Fatalf("SetInt(0) error = %v", err)
			}
			if got, err := s.GetInt(KeyWlanSwitch); err != nil || got != 0 {
				t.Errorf("GetInt() after zero = %d, %v", got, err)
			}
			if err := s.SetString(KeyWlanPassword, "", nil); err != nil {
				t.Fatalf("SetString(empty) error = %v", err)
			}
			if got, err := s.GetString(KeyWlanPassword); err != nil || got != "" {
				t.Errorf("GetString() after empty = %q, %v", got, err)
			}
		})
	}
}

func TestKV_SubscribeCarriesSender(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	type owner struct{ name string }
	me := &owner{"settings"}

	var got []Event
	cancel := s.Subscribe(func(ev Event) { got = append(got, ev) })

	if err := s.SetInt(KeyWlanSwitch, 1, me); err != nil {
		t.Fatalf("SetInt() error = %v", err)
	}
	if err := s.SetString(KeyWlanSSID, "Home", "remote"); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[0].Key != KeyWlanSwitch || got[0].Operation != OpUpdate || got[0].Sender != me {
		t.Errorf("first event = %+v", got[0])
	}
	if got[1].Sender != "remote" {
		t.Errorf("second event sender = %v, want remote", got[1].Sender)
	}

	cancel()
	_ = s.SetInt(KeyWlanSwitch, 0, me)
	if len(got) != 2 {
		t.Errorf("received event after cancel: %+v", got[len(got)-1])
	}
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlanmgr.db")

	s, err := OpenBolt(path)
	if err != nil {
		t.Fatalf("OpenBolt() error = %v", err)
	}
	if err := s.SetString(KeyWlanSSID, "Home", nil); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := s.SetString(KeyWlanPassword, "secret123", nil); err != nil {
		t.Fatalf("SetString() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenBolt(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	ssid, _ := s.GetString(KeyWlanSSID)
	pwd, _ := s.GetString(KeyWlanPassword)
	if ssid != "Home" || pwd != "secret123" {
		t.Errorf("after reopen = %q/%q, want Home/secret123", ssid, pwd)
	}
}

func TestOrDefault(t *testing.T) {
	s := NewMemory()
	defer s.Close()

	var events int
	s.Subscribe(func(Event) { events++ })

	n, err := IntOrDefault(s, KeyWlanSwitch, 0, nil)
	if err != nil || n != 0 {
		t.Fatalf("IntOrDefault() = %d, %v", n, err)
	}
	if events != 1 {
		t.Errorf("missing key should be written once, got %d writes", events)
	}

	_ = s.SetInt(KeyWlanSwitch, 1, nil)
	n, _ = IntOrDefault(s, KeyWlanSwitch, 0, nil)
	if n != 1 {
		t.Errorf("IntOrDefault() existing = %d, want 1", n)
	}

	str, err := StringOrDefault(s, KeyWlanSSID, "Factory", nil)
	if err != nil || str != "Factory" {
		t.Errorf("StringOrDefault() = %q, %v", str, err)
	}
	if got, _ := s.GetString(KeyWlanSSID); got != "Factory" {
		t.Errorf("default not persisted, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{BackendMemory, "", false},
		{BackendBolt, filepath.Join(dir, "nested", "wlanmgr.db"), false},
		{BackendBadger, filepath.Join(dir, "badger"), false},
		{"nvs", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			s, err := Open(tt.backend, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if s != nil {
				_ = s.Close()
			}
		})
	}
}
