package wlan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"github.com/muurk/wlanmgr/internal/store"
	"go.uber.org/zap"
)

// Timeouts bound how long the worker waits for each operation to settle.
// INIT is not waited on by the worker; its value bounds dependent calls.
type Timeouts struct {
	Init       time.Duration
	Start      time.Duration
	Stop       time.Duration
	Connect    time.Duration
	Disconnect time.Duration
	ScanStart  time.Duration
	ScanStop   time.Duration
}

// Options configures a Manager.
type Options struct {
	Driver  radio.Driver
	Storage store.Store // optional; credentials are not persisted without it
	UILock  sync.Locker // serialises View access; defaults to a private mutex
	View    View        // defaults to NopView

	ScanAPCountMax int
	ScanInterval   time.Duration
	RetryMax       int
	ConnectDelay   time.Duration // before auto-connecting to the stored network
	DisconnectHide time.Duration // how long the DISCONNECT row stays visible
	Timeouts       Timeouts
	TaskPoolSize   int

	// OnConnected runs in the task pool after every STA_CONNECTED.
	OnConnected func(ctx context.Context, ap radio.APRecord) error
	// OnDisconnected runs on the UI worker after STA_STOP and
	// STA_DISCONNECTED. It must not block.
	OnDisconnected func()
}

// DefaultOptions returns the tuning used by the settings application.
func DefaultOptions() Options {
	return Options{
		ScanAPCountMax: 15,
		ScanInterval:   20 * time.Second,
		RetryMax:       5,
		ConnectDelay:   200 * time.Millisecond,
		DisconnectHide: 2 * time.Second,
		Timeouts: Timeouts{
			Init:       5 * time.Second,
			Start:      time.Second,
			Stop:       time.Second,
			Connect:    5 * time.Second,
			Disconnect: 5 * time.Second,
			ScanStart:  5 * time.Second,
			ScanStop:   time.Second,
		},
		TaskPoolSize: 4,
	}
}

// Manager owns the station state machine. Operations are serialised
// through a queue drained by one worker goroutine; driver events update
// state on the driver's goroutine and are rendered by a second, UI
// worker goroutine.
type Manager struct {
	opts   Options
	driver radio.Driver
	store  store.Store
	uiLock sync.Locker
	view   View

	queue *queue
	timer *scanTimer
	tasks *taskPool

	// mu guards the state machine. changed is closed and replaced on
	// every write so waiters can select on it with a deadline.
	mu        sync.Mutex
	state     State
	scanState ScanState
	changed   chan struct{}
	retry     RetryPolicy
	prevOp    Operation
	lastEvent radio.Event
	pending   []uiEvent // events not yet rendered
	uiCond    *sync.Cond
	closed    bool

	forceConnecting atomic.Bool
	uiReady         atomic.Bool
	wlanScreen      atomic.Bool
	switchOn        atomic.Bool

	// dataMu guards the network data shown by the view.
	dataMu           sync.Mutex
	connecting       Credential
	connected        Network
	hasConnected     bool
	submitted        Credential
	available        []Network
	shownConnect     ConnectState
	connectedVisible bool

	unsubscribe func() error

	watchMu   sync.Mutex
	nextWatch int
	watchers  map[int]func(Snapshot)

	lifeMu  sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// New creates a manager. Start must be called before any orchestration.
func New(opts Options) (*Manager, error) {
	if opts.Driver == nil {
		return nil, errors.New("wlan: driver is required")
	}
	def := DefaultOptions()
	if opts.ScanAPCountMax <= 0 {
		opts.ScanAPCountMax = def.ScanAPCountMax
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = def.ScanInterval
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = def.RetryMax
	}
	if opts.DisconnectHide <= 0 {
		opts.DisconnectHide = def.DisconnectHide
	}
	if opts.TaskPoolSize <= 0 {
		opts.TaskPoolSize = def.TaskPoolSize
	}
	opts.Timeouts = opts.Timeouts.withDefaults(def.Timeouts)
	if opts.UILock == nil {
		opts.UILock = &sync.Mutex{}
	}
	if opts.View == nil {
		opts.View = NopView{}
	}

	m := &Manager{
		opts:      opts,
		driver:    opts.Driver,
		store:     opts.Storage,
		uiLock:    opts.UILock,
		view:      opts.View,
		queue:     newQueue(),
		state:     StateDeinit,
		scanState: ScanStopped,
		changed:   make(chan struct{}),
		retry:     RetryPolicy{Max: opts.RetryMax},
		watchers:  make(map[int]func(Snapshot)),
	}
	m.uiCond = sync.NewCond(&m.mu)
	m.timer = newScanTimer(opts.ScanInterval, m.onScanTick)
	return m, nil
}

func (t Timeouts) withDefaults(def Timeouts) Timeouts {
	pick := func(v, d time.Duration) time.Duration {
		if v <= 0 {
			return d
		}
		return v
	}
	return Timeouts{
		Init:       pick(t.Init, def.Init),
		Start:      pick(t.Start, def.Start),
		Stop:       pick(t.Stop, def.Stop),
		Connect:    pick(t.Connect, def.Connect),
		Disconnect: pick(t.Disconnect, def.Disconnect),
		ScanStart:  pick(t.ScanStart, def.ScanStart),
		ScanStop:   pick(t.ScanStop, def.ScanStop),
	}
}

// Start spawns the worker and UI worker and queues INIT without waiting.
func (m *Manager) Start(ctx context.Context) error {
	m.lifeMu.Lock()
	if m.started {
		m.lifeMu.Unlock()
		return errors.New("wlan: manager already started")
	}
	m.started = true
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.tasks = newTaskPool(m.ctx, m.opts.TaskPoolSize)

	m.wg.Add(2)
	go m.runWorker()
	go m.runUIWorker()
	m.lifeMu.Unlock()

	logging.Info("WLAN manager started",
		zap.Duration("scan_interval", m.opts.ScanInterval),
		zap.Int("retry_max", m.opts.RetryMax),
	)
	return m.Force(OpInit, 0)
}

// Close deinitialises the radio and joins every goroutine the manager
// started. Deinit failures are returned after the shutdown completes.
func (m *Manager) Close() error {
	m.lifeMu.Lock()
	if !m.started || m.stopped {
		m.lifeMu.Unlock()
		return nil
	}
	m.stopped = true
	m.lifeMu.Unlock()

	err := m.Force(OpDeinit, m.opts.Timeouts.Init)
	if errors.Is(err, ErrClosed) {
		err = nil
	}

	m.timer.close()
	for _, t := range m.queue.close() {
		t.fulfil(ErrClosed)
	}

	m.mu.Lock()
	m.closed = true
	m.uiCond.Broadcast()
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
	m.tasks.wait()

	// Normally already cleared by DEINIT.
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		if uerr := unsub(); uerr != nil {
			logging.Warn("Failed to unsubscribe from radio events", zap.Error(uerr))
		}
	}

	logging.Info("WLAN manager stopped")
	if err != nil {
		return fmt.Errorf("wlan: deinit on close: %w", err)
	}
	return nil
}

// setState writes the general state and wakes waiters.
func (m *Manager) setState(s State) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setStateLocked(s)
}

func (m *Manager) setStateLocked(s State) State {
	prev := m.state
	if prev != s {
		m.state = s
		logging.LogStateChange("general", prev, s)
	}
	m.broadcastLocked()
	return prev
}

func (m *Manager) setScanState(s ScanState) ScanState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setScanStateLocked(s)
}

func (m *Manager) setScanStateLocked(s ScanState) ScanState {
	prev := m.scanState
	if prev != s {
		m.scanState = s
		logging.LogStateChange("scan", prev, s)
	}
	m.broadcastLocked()
	return prev
}

func (m *Manager) broadcastLocked() {
	close(m.changed)
	m.changed = make(chan struct{})
}

// waitFor blocks until cond holds, timeout elapses or the manager shuts
// down. cond is evaluated with m.mu held.
func (m *Manager) waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		m.mu.Lock()
		ok := cond()
		ch := m.changed
		m.mu.Unlock()
		if ok {
			return true
		}
		select {
		case <-ch:
		case <-deadline.C:
			m.mu.Lock()
			defer m.mu.Unlock()
			return cond()
		case <-m.ctx.Done():
			return false
		}
	}
}

// State returns the general state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ScanState returns the scan state.
func (m *Manager) ScanState() ScanState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanState
}

func (m *Manager) StateString() string     { return m.State().String() }
func (m *Manager) ScanStateString() string { return m.ScanState().String() }

// PrevOperation is the last operation the worker completed successfully.
func (m *Manager) PrevOperation() Operation {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prevOp
}

func (m *Manager) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retry.Count()
}

func (m *Manager) IsRetryConnecting() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retry.Retrying()
}

// LastEvent is the most recent radio event the manager handled.
func (m *Manager) LastEvent() radio.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastEvent
}

// SetSwitch records the user's radio switch. It does not start or stop
// the radio by itself.
func (m *Manager) SetSwitch(on bool) { m.switchOn.Store(on) }
func (m *Manager) Switch() bool      { return m.switchOn.Load() }

// SetUIReady marks whether the app-level view can be refreshed.
func (m *Manager) SetUIReady(ready bool) { m.uiReady.Store(ready) }
func (m *Manager) UIReady() bool         { return m.uiReady.Load() }

// SetWlanScreenActive tells the manager whether the WLAN screen is shown.
func (m *Manager) SetWlanScreenActive(active bool) { m.wlanScreen.Store(active) }

// Timeouts returns the configured operation timeouts.
func (m *Manager) Timeouts() Timeouts { return m.opts.Timeouts }

// UILock returns the lock guarding the view.
func (m *Manager) UILock() sync.Locker { return m.uiLock }

// SetConnecting selects the network the next CONNECT joins.
func (m *Manager) SetConnecting(c Credential) {
	m.dataMu.Lock()
	m.connecting = c
	m.dataMu.Unlock()
}

// SetConnectingPassword replaces only the password of the connecting
// credential.
func (m *Manager) SetConnectingPassword(pwd string) {
	m.dataMu.Lock()
	m.connecting.Password = pwd
	m.dataMu.Unlock()
}

func (m *Manager) Connecting() Credential {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.connecting
}

// Connected returns the network the station is associated with, if any.
func (m *Manager) Connected() (Network, bool) {
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	return m.connected, m.hasConnected
}

// Available returns the last scan list without the connecting and connected
// networks.
func (m *Manager) Available() []Network {
	return m.visibleAvailable()
}

// AvailableAt returns the i-th entry of the list last pushed to the view.
func (m *Manager) AvailableAt(i int) (Network, bool) {
	nets := m.visibleAvailable()
	if i < 0 || i >= len(nets) {
		return Network{}, false
	}
	return nets[i], true
}

func (m *Manager) clearConnecting() {
	m.dataMu.Lock()
	m.connecting = Credential{}
	m.dataMu.Unlock()
}

func (m *Manager) clearConnected() {
	m.dataMu.Lock()
	m.connected = Network{}
	m.hasConnected = false
	m.dataMu.Unlock()
}

// Snapshot is a point-in-time copy of the manager's state.
type Snapshot struct {
	State           string    `json:"state"`
	ScanState       string    `json:"scan_state"`
	PrevOperation   string    `json:"prev_operation"`
	Switch          bool      `json:"switch"`
	RetryCount      int       `json:"retry_count"`
	RetryConnecting bool      `json:"retry_connecting"`
	Connecting      string    `json:"connecting,omitempty"`
	Connected       *Network  `json:"connected,omitempty"`
	Available       []Network `json:"available"`
	LastEvent       string    `json:"last_event,omitempty"`
}

// Snapshot returns the current state for diagnostics.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	snap := Snapshot{
		State:           m.state.String(),
		ScanState:       m.scanState.String(),
		PrevOperation:   m.prevOp.String(),
		RetryCount:      m.retry.Count(),
		RetryConnecting: m.retry.Retrying(),
	}
	if m.lastEvent.Kind != radio.EventUnknown {
		snap.LastEvent = m.lastEvent.String()
	}
	m.mu.Unlock()

	snap.Switch = m.Switch()

	snap.Available = m.visibleAvailable()
	m.dataMu.Lock()
	snap.Connecting = m.connecting.Network.SSID
	if m.hasConnected {
		n := m.connected
		snap.Connected = &n
	}
	m.dataMu.Unlock()
	return snap
}

// Watch registers fn to receive a snapshot after every rendered event.
// fn runs on the UI worker and must not block.
func (m *Manager) Watch(fn func(Snapshot)) (cancel func()) {
	m.watchMu.Lock()
	id := m.nextWatch
	m.nextWatch++
	m.watchers[id] = fn
	m.watchMu.Unlock()
	return func() {
		m.watchMu.Lock()
		delete(m.watchers, id)
		m.watchMu.Unlock()
	}
}

func (m *Manager) notifyWatchers() {
	m.watchMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.watchers))
	for _, fn := range m.watchers {
		fns = append(fns, fn)
	}
	m.watchMu.Unlock()
	if len(fns) == 0 {
		return
	}
	snap := m.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// submit runs fn in the task pool.
func (m *Manager) submit(name string, fn func(ctx context.Context) error) {
	m.lifeMu.Lock()
	tasks := m.tasks
	m.lifeMu.Unlock()
	if tasks == nil {
		logging.Warn("Task submitted before start", zap.String("task", name))
		return
	}
	tasks.submit(name, fn)
}
