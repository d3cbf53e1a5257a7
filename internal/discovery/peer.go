package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys published by the announcer.
const (
	TXTVersion = "version"
	TXTSSID    = "ssid"
	TXTPath    = "path"
)

// Peer is a wlanmgr instance found on the local network.
type Peer struct {
	// Instance is the mDNS service instance name (e.g., "kitchen-panel")
	Instance string

	// Hostname is the mDNS hostname (e.g., "kitchen-panel.local.")
	Hostname string

	// IP is the address the peer answered from, IPv4 preferred
	IP string

	// Port is the diagnostics server port
	Port int

	// Metadata contains the TXT record data
	Metadata map[string]string

	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the peer
func (p *Peer) String() string {
	return fmt.Sprintf("wlanmgr %s (%s) at %s:%d", p.Instance, p.Hostname, p.IP, p.Port)
}

// Addr returns host:port of the diagnostics server, suitable for
// `wlanmgr status --addr`.
func (p *Peer) Addr() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}

// SSID returns the network the peer was connected to when it announced.
func (p *Peer) SSID() string {
	return p.GetMetadata(TXTSSID)
}

// Version returns the announced build version.
func (p *Peer) Version() string {
	return p.GetMetadata(TXTVersion)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Peer) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}
