package discovery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
)

// Announcer advertises the diagnostics server over mDNS while the
// station is connected.
type Announcer struct {
	Instance string
	Port     int
	Version  string

	// register is zeroconf.Register; replaced in tests.
	register func(instance, service, domain string, port int, text []string) (shutdowner, error)

	mu     sync.Mutex
	server shutdowner
	ssid   string
}

type shutdowner interface {
	Shutdown()
}

// NewAnnouncer creates an announcer for the diagnostics server on port.
func NewAnnouncer(instance string, port int, version string) (*Announcer, error) {
	if instance == "" {
		return nil, errors.New("discovery: instance name is required")
	}
	if port <= 0 {
		return nil, fmt.Errorf("discovery: invalid port %d", port)
	}
	return &Announcer{
		Instance: instance,
		Port:     port,
		Version:  version,
		register: func(instance, service, domain string, port int, text []string) (shutdowner, error) {
			return zeroconf.Register(instance, service, domain, port, text, nil)
		},
	}, nil
}

// Announce (re)registers the service with the connected network in its
// TXT record. It has the signature of wlan.Options.OnConnected.
func (a *Announcer) Announce(_ context.Context, ap radio.APRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		if a.ssid == ap.SSID {
			return nil
		}
		a.server.Shutdown()
		a.server = nil
	}

	srv, err := a.register(a.Instance, ServiceType, ServiceDomain, a.Port, a.txt(ap.SSID))
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	a.server = srv
	a.ssid = ap.SSID
	logging.Info("mDNS announcement started",
		zap.String("instance", a.Instance),
		zap.Int("port", a.Port),
		zap.String("ssid", ap.SSID))
	return nil
}

// Withdraw stops the announcement. It has the signature of
// wlan.Options.OnDisconnected and is safe to call when not announcing.
func (a *Announcer) Withdraw() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return
	}
	a.server.Shutdown()
	a.server = nil
	a.ssid = ""
	logging.Info("mDNS announcement stopped", zap.String("instance", a.Instance))
}

// Announcing reports whether the service is registered.
func (a *Announcer) Announcing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

func (a *Announcer) txt(ssid string) []string {
	return []string{
		TXTVersion + "=" + a.Version,
		TXTSSID + "=" + ssid,
		TXTPath + "=/api/state",
	}
}
