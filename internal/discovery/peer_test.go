package discovery

import "testing"

func TestPeer_Addr(t *testing.T) {
	tests := []struct {
		name string
		peer *Peer
		want string
	}{
		{"IPv4", &Peer{IP: "192.168.4.16", Port: 8080}, "192.168.4.16:8080"},
		{"IPv6", &Peer{IP: "fe80::1", Port: 9000}, "[fe80::1]:9000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.peer.Addr(); got != tt.want {
				t.Errorf("Peer.Addr() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeer_Metadata(t *testing.T) {
	p := &Peer{
		Instance: "kitchen",
		Hostname: "kitchen.local.",
		IP:       "10.0.0.2",
		Port:     8080,
		Metadata: map[string]string{TXTSSID: "Home", TXTVersion: "v1.2.0"},
	}

	if p.SSID() != "Home" {
		t.Errorf("Peer.SSID() = %v, want Home", p.SSID())
	}
	if p.Version() != "v1.2.0" {
		t.Errorf("Peer.Version() = %v, want v1.2.0", p.Version())
	}
	if got := (&Peer{}).GetMetadata(TXTSSID); got != "" {
		t.Errorf("GetMetadata() on nil metadata = %q, want empty", got)
	}

	want := "wlanmgr kitchen (kitchen.local.) at 10.0.0.2:8080"
	if p.String() != want {
		t.Errorf("Peer.String() = %v, want %v", p.String(), want)
	}
}
