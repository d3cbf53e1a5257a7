package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wlanmgr/internal/logging"
)

const (
	// ServiceType is the mDNS service type wlanmgr announces
	ServiceType = "_wlanmgr._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for peer discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPort is assumed when an entry carries no port
	DefaultPort = 8080
)

// Scanner handles mDNS peer discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration

	browse browseFunc
}

// browseFunc feeds entries until ctx ends and then closes the channel, as
// zeroconf.Resolver.Browse does.
type browseFunc func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error

func resolverBrowse(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}
	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
		browse:  resolverBrowse,
	}
}

// ScanForPeers browses for wlanmgr instances until the timeout or ctx
// ends and returns every peer that answered.
func (s *Scanner) ScanForPeers(ctx context.Context) ([]*Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan []*Peer, 1)
	go func() {
		peers := make([]*Peer, 0)
		seen := make(map[string]bool)
		for entry := range entries {
			p := parseServiceEntry(entry)
			if p == nil || seen[p.Instance] {
				continue
			}
			seen[p.Instance] = true
			logging.Debug("Discovered peer", zap.String("instance", p.Instance), zap.String("addr", p.Addr()))
			peers = append(peers, p)
		}
		done <- peers
	}()

	if err := s.browser()(ctx, entries); err != nil {
		return nil, err
	}

	<-ctx.Done()
	// The resolver closes entries once the browse context ends.
	select {
	case peers := <-done:
		return peers, nil
	case <-time.After(time.Second):
		return nil, fmt.Errorf("mDNS resolver did not finish")
	}
}

func (s *Scanner) browser() browseFunc {
	if s.browse == nil {
		return resolverBrowse
	}
	return s.browse
}

// WaitForPeer browses until the named instance answers.
func (s *Scanner) WaitForPeer(ctx context.Context, instance string) (*Peer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Peer, 1)
	go func() {
		for entry := range entries {
			p := parseServiceEntry(entry)
			if p != nil && p.Instance == instance {
				select {
				case found <- p:
				default:
				}
				cancel()
			}
		}
	}()

	if err := s.browser()(ctx, entries); err != nil {
		return nil, err
	}

	select {
	case p := <-found:
		return p, nil
	case <-ctx.Done():
		select {
		case p := <-found:
			return p, nil
		default:
		}
		return nil, fmt.Errorf("peer %q not found within timeout", instance)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Peer.
// Returns nil if the entry has no instance name or no address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Peer {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Peer{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

// parseTXT splits "key=value" records. A bare key maps to "".
func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		k, v, _ := strings.Cut(txt, "=")
		metadata[k] = v
	}
	return metadata
}
