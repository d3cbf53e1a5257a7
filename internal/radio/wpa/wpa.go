package wpa

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/godbus/dbus/v5"
	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"go.uber.org/zap"
)

const (
	service         = "fi.w1.wpa_supplicant1"
	servicePath     = dbus.ObjectPath("/fi/w1/wpa_supplicant1")
	ifaceInterface  = "fi.w1.wpa_supplicant1.Interface"
	bssInterface    = "fi.w1.wpa_supplicant1.BSS"
	propsInterface  = "org.freedesktop.DBus.Properties"
	noObject        = dbus.ObjectPath("/")
	defaultDialTime = 10 * time.Second
)

// Config configures the wpa_supplicant driver.
type Config struct {
	// Interface is the wireless interface name, e.g. wlan0.
	Interface string
	// DialTimeout bounds the retries spent reaching the system bus and
	// wpa_supplicant during Init. Zero uses 10s.
	DialTimeout time.Duration
}

// Driver implements radio.Driver on top of wpa_supplicant's D-Bus API.
//
// wpa_supplicant has no explicit start/stop for a station; Start binds the
// interface and its signals, Stop drops the association and the
// configured networks.
type Driver struct {
	cfg Config

	mu        sync.Mutex
	conn      *dbus.Conn
	iface     dbus.BusObject
	started   bool
	wpaState  string
	connected bool
	ssid      string
	signals   chan *dbus.Signal
	local     chan radio.Event
	quit      chan struct{}
	done      chan struct{}

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(radio.Event)
}

var _ radio.Driver = (*Driver)(nil)

// New creates a driver for cfg. No bus traffic happens until Init.
func New(cfg Config) *Driver {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTime
	}
	return &Driver{
		cfg:  cfg,
		subs: make(map[int]func(radio.Event)),
	}
}

// Init connects to the system bus and checks that wpa_supplicant answers.
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.conn != nil {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = d.cfg.DialTimeout

	var conn *dbus.Conn
	err := retryBus("init", b, func() error {
		c, err := dbus.ConnectSystemBus()
		if err != nil {
			logging.Debug("System bus not reachable", zap.Error(err))
			return err
		}
		call := c.Object(service, servicePath).Call("org.freedesktop.DBus.Peer.Ping", 0)
		if call.Err != nil {
			_ = c.Close()
			logging.Debug("wpa_supplicant not answering", zap.Error(call.Err))
			return call.Err
		}
		conn = c
		return nil
	})
	if err != nil {
		return err
	}

	d.conn = conn
	d.local = make(chan radio.Event, 16)
	d.quit = make(chan struct{})
	d.done = make(chan struct{})
	d.signals = make(chan *dbus.Signal, 32)
	d.conn.Signal(d.signals)
	go d.loop(d.signals, d.local, d.quit, d.done)

	logging.Info("Connected to wpa_supplicant", zap.String("interface", d.cfg.Interface))
	return nil
}

// retryBus runs fn under b until it succeeds or fails with an error that
// classifyBusError does not mark retryable, such as an access denial.
func retryBus(op string, b backoff.BackOff, fn func() error) error {
	return backoff.Retry(func() error {
		err := classifyBusError(op, fn())
		if err != nil && !radio.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}

// Deinit closes the bus connection.
func (d *Driver) Deinit() error {
	d.mu.Lock()
	if d.conn == nil {
		d.mu.Unlock()
		return nil
	}
	conn := d.conn
	d.conn.RemoveSignal(d.signals)
	close(d.quit)
	done := d.done
	d.conn = nil
	d.iface = nil
	d.started = false
	d.connected = false
	d.mu.Unlock()

	<-done
	if err := conn.Close(); err != nil {
		return classifyBusError("deinit", err)
	}
	return nil
}

// SetMode accepts only station mode.
func (d *Driver) SetMode(m radio.Mode) error {
	if m != radio.ModeStation {
		return radio.NewInvalidArgumentError("set_mode", fmt.Sprintf("mode %s not supported by wpa_supplicant driver", m))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return radio.NewNotInitializedError("set_mode")
	}
	return nil
}

// Start binds the wireless interface, creating it in wpa_supplicant if
// needed, and subscribes to its signals. STA_START follows.
func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return radio.NewNotInitializedError("start")
	}

	root := d.conn.Object(service, servicePath)
	var path dbus.ObjectPath
	call := root.Call(service+".GetInterface", 0, d.cfg.Interface)
	if call.Err != nil {
		if !isBusError(call.Err, errNameIfaceUnknown) {
			return classifyBusError("start", call.Err)
		}
		call = root.Call(service+".CreateInterface", 0, map[string]interface{}{
			"Ifname": d.cfg.Interface,
		})
		if call.Err != nil {
			return classifyBusError("start", call.Err)
		}
	}
	if err := call.Store(&path); err != nil {
		return classifyBusError("start", err)
	}

	d.iface = d.conn.Object(service, path)
	for _, m := range []struct{ iface, member string }{
		{ifaceInterface, "ScanDone"},
		{ifaceInterface, "PropertiesChanged"},
		{propsInterface, "PropertiesChanged"},
	} {
		call := d.conn.BusObject().AddMatchSignal(m.iface, m.member, dbus.WithMatchObjectPath(path))
		if call.Err != nil {
			return classifyBusError("start", call.Err)
		}
	}

	d.wpaState = d.readState()
	d.connected = d.wpaState == stateCompleted
	d.started = true
	d.local <- radio.Event{Kind: radio.EventStaStart}
	if d.connected {
		d.local <- radio.Event{Kind: radio.EventStaConnected}
	}
	return nil
}

// Stop disconnects, forgets configured networks and drops signal matches.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return radio.NewNotInitializedError("stop")
	}
	if !d.started {
		d.local <- radio.Event{Kind: radio.EventStaStop}
		return nil
	}

	if call := d.iface.Call(ifaceInterface+".Disconnect", 0); call.Err != nil && !isBusError(call.Err, errNameNotConnected) {
		logging.Warn("Disconnect during stop failed", zap.Error(call.Err))
	}
	if call := d.iface.Call(ifaceInterface+".RemoveAllNetworks", 0); call.Err != nil {
		logging.Warn("RemoveAllNetworks during stop failed", zap.Error(call.Err))
	}
	for _, m := range []struct{ iface, member string }{
		{ifaceInterface, "ScanDone"},
		{ifaceInterface, "PropertiesChanged"},
		{propsInterface, "PropertiesChanged"},
	} {
		_ = d.conn.BusObject().RemoveMatchSignal(m.iface, m.member, dbus.WithMatchObjectPath(d.iface.Path()))
	}

	d.started = false
	d.connected = false
	d.local <- radio.Event{Kind: radio.EventStaStop}
	return nil
}

// Connect replaces the configured network with ssid and selects it.
func (d *Driver) Connect(ssid, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return radio.NewStateError("connect", "station not started")
	}
	if ssid == "" {
		return radio.NewInvalidArgumentError("connect", "empty ssid")
	}

	if call := d.iface.Call(ifaceInterface+".RemoveAllNetworks", 0); call.Err != nil {
		return classifyBusError("connect", call.Err)
	}

	call := d.iface.Call(ifaceInterface+".AddNetwork", 0, networkArgs(ssid, password))
	if call.Err != nil {
		return classifyBusError("connect", call.Err)
	}
	var netPath dbus.ObjectPath
	if err := call.Store(&netPath); err != nil {
		return classifyBusError("connect", err)
	}

	if call := d.iface.Call(ifaceInterface+".SelectNetwork", 0, netPath); call.Err != nil {
		return classifyBusError("connect", call.Err)
	}
	d.ssid = ssid
	return nil
}

func networkArgs(ssid, password string) map[string]interface{} {
	args := map[string]interface{}{
		"ssid": ssid,
	}
	if password != "" {
		args["psk"] = password
	} else {
		args["key_mgmt"] = "NONE"
	}
	return args
}

// Disconnect drops the current association. When nothing is associated
// wpa_supplicant raises no state change, so the event is synthesised.
func (d *Driver) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return radio.NewStateError("disconnect", "station not started")
	}

	call := d.iface.Call(ifaceInterface+".Disconnect", 0)
	if call.Err != nil {
		if isBusError(call.Err, errNameNotConnected) {
			d.connected = false
			d.local <- radio.Event{Kind: radio.EventStaDisconnected, Reason: radio.ReasonAuthLeave, SSID: d.ssid}
			return nil
		}
		return classifyBusError("disconnect", call.Err)
	}
	return nil
}

// ScanStart requests an active scan. ScanDone arrives as a signal.
func (d *Driver) ScanStart() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return radio.NewStateError("scan_start", "station not started")
	}

	call := d.iface.Call(ifaceInterface+".Scan", 0, map[string]interface{}{
		"Type": "active",
	})
	if call.Err != nil {
		return classifyBusError("scan_start", call.Err)
	}
	return nil
}

// ScanStop aborts a running scan. Older wpa_supplicant builds lack
// AbortScan; that case is ignored.
func (d *Driver) ScanStop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return radio.NewNotInitializedError("scan_stop")
	}
	if !d.started {
		return nil
	}

	call := d.iface.Call(ifaceInterface+".AbortScan", 0)
	if call.Err != nil {
		name, _ := busErrorName(call.Err)
		switch name {
		case errNameUnknownError, "org.freedesktop.DBus.Error.UnknownMethod":
			return nil
		}
		return classifyBusError("scan_stop", call.Err)
	}
	return nil
}

// AssociatedAP reads the interface's current BSS.
func (d *Driver) AssociatedAP() (radio.APRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return radio.APRecord{}, radio.NewStateError("ap_info", "station not started")
	}

	v, err := d.iface.GetProperty(ifaceInterface + ".CurrentBSS")
	if err != nil {
		return radio.APRecord{}, classifyBusError("ap_info", err)
	}
	path, ok := v.Value().(dbus.ObjectPath)
	if !ok || path == noObject || path == "" {
		return radio.APRecord{}, radio.NewStateError("ap_info", "not associated")
	}
	return d.readBSS(path)
}

// ScanResults returns the BSS table ordered by signal strength, capped at max.
func (d *Driver) ScanResults(max int) ([]radio.APRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if max < 0 {
		return nil, radio.NewInvalidArgumentError("scan_results", fmt.Sprintf("negative max %d", max))
	}
	if !d.started {
		return nil, radio.NewStateError("scan_results", "station not started")
	}

	v, err := d.iface.GetProperty(ifaceInterface + ".BSSs")
	if err != nil {
		return nil, classifyBusError("scan_results", err)
	}
	paths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, radio.NewBusError("scan_results", fmt.Errorf("could not convert BSSs: %v", v))
	}

	recs := make([]radio.APRecord, 0, len(paths))
	for _, p := range paths {
		rec, err := d.readBSS(p)
		if err != nil {
			// BSS entries expire between listing and reading
			logging.Debug("Skipping unreadable BSS", zap.String("path", string(p)), zap.Error(err))
			continue
		}
		if rec.SSID == "" {
			continue
		}
		recs = append(recs, rec)
	}
	return sortAndCap(recs, max), nil
}

func sortAndCap(recs []radio.APRecord, max int) []radio.APRecord {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RSSI > recs[j].RSSI
	})
	if len(recs) > max {
		recs = recs[:max]
	}
	return recs
}

// readBSS must be called with d.mu held.
func (d *Driver) readBSS(path dbus.ObjectPath) (radio.APRecord, error) {
	var props map[string]dbus.Variant
	call := d.conn.Object(service, path).Call(propsInterface+".GetAll", 0, bssInterface)
	if call.Err != nil {
		return radio.APRecord{}, classifyBusError("bss", call.Err)
	}
	if err := call.Store(&props); err != nil {
		return radio.APRecord{}, classifyBusError("bss", err)
	}
	return bssToRecord(props)
}

// readState must be called with d.mu held.
func (d *Driver) readState() string {
	v, err := d.iface.GetProperty(ifaceInterface + ".State")
	if err != nil {
		return ""
	}
	s, _ := v.Value().(string)
	return s
}

// readDisconnectReason must be called with d.mu held.
func (d *Driver) readDisconnectReason() int32 {
	v, err := d.iface.GetProperty(ifaceInterface + ".DisconnectReason")
	if err != nil {
		return 0
	}
	r, _ := v.Value().(int32)
	return r
}

// Subscribe implements radio.Driver
func (d *Driver) Subscribe(fn func(radio.Event)) (func() error, error) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	return func() error {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
		return nil
	}, nil
}

func (d *Driver) deliver(ev radio.Event) {
	d.subMu.Lock()
	fns := make([]func(radio.Event), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()

	logging.LogRadioEvent(ev, zap.String("driver", "wpa"))
	for _, fn := range fns {
		fn(ev)
	}
}
