package radio

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"go.uber.org/zap"
)

// SimNetwork is an access point visible to the simulated radio.
type SimNetwork struct {
	APRecord
	Password string
}

// SimConfig configures a simulated radio.
type SimConfig struct {
	// Latency between an accepted call and its completion event.
	Latency time.Duration
	// Networks initially in range.
	Networks []SimNetwork
}

type connectFailure struct {
	remaining int // <0 fails forever
	reason    DisconnectReason
}

// Sim is an in-process Driver. It keeps just enough station state to answer
// the manager's calls and emits completion events from its own dispatch
// goroutine, the way a vendor stack calls back from its event task.
type Sim struct {
	latency time.Duration

	mu          sync.Mutex
	initialized bool
	mode        Mode
	started     bool
	scanning    bool
	gen         uint64 // bumped to cancel in-flight connects
	associated  *APRecord
	networks    []SimNetwork
	lastScan    []APRecord
	failures    map[string]*connectFailure
	failNext    map[string]error
	calls       []string

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Event)

	events chan Event
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
}

var _ Driver = (*Sim)(nil)

// NewSim creates a simulated radio and starts its dispatch goroutine.
// Close stops it.
func NewSim(cfg SimConfig) *Sim {
	s := &Sim{
		latency:  cfg.Latency,
		networks: append([]SimNetwork(nil), cfg.Networks...),
		failures: make(map[string]*connectFailure),
		failNext: make(map[string]error),
		subs:     make(map[int]func(Event)),
		events:   make(chan Event, 64),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.dispatch()
	return s
}

func (s *Sim) dispatch() {
	defer close(s.done)
	for {
		select {
		case ev := <-s.events:
			s.subMu.Lock()
			fns := make([]func(Event), 0, len(s.subs))
			for _, fn := range s.subs {
				fns = append(fns, fn)
			}
			s.subMu.Unlock()
			logging.Debug("Sim radio event", zap.Stringer("event", ev))
			for _, fn := range fns {
				fn(ev)
			}
		case <-s.quit:
			return
		}
	}
}

// Close stops event dispatch. Pending completions are dropped.
func (s *Sim) Close() error {
	s.once.Do(func() {
		close(s.quit)
		<-s.done
	})
	return nil
}

// Inject delivers ev to subscribers as if the radio raised it.
func (s *Sim) Inject(ev Event) {
	if ev.Kind == EventStaDisconnected {
		s.mu.Lock()
		s.associated = nil
		s.gen++
		s.mu.Unlock()
	}
	s.emit(ev)
}

func (s *Sim) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.quit:
	}
}

// later runs fn after the configured latency unless gen moved on.
func (s *Sim) later(gen uint64, fn func() (Event, bool)) {
	time.AfterFunc(s.latency, func() {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			return
		}
		ev, ok := fn()
		s.mu.Unlock()
		if ok {
			s.emit(ev)
		}
	})
}

// SetNetworks replaces the access points in range.
func (s *Sim) SetNetworks(nets ...SimNetwork) {
	s.mu.Lock()
	s.networks = append([]SimNetwork(nil), nets...)
	s.mu.Unlock()
}

// FailConnect makes the next n connects to ssid end in STA_DISCONNECTED
// with reason. n < 0 fails every attempt.
func (s *Sim) FailConnect(ssid string, n int, reason DisconnectReason) {
	s.mu.Lock()
	s.failures[ssid] = &connectFailure{remaining: n, reason: reason}
	s.mu.Unlock()
}

// FailNext makes the next call to op ("start", "connect", ...) return err.
func (s *Sim) FailNext(op string, err error) {
	s.mu.Lock()
	s.failNext[op] = err
	s.mu.Unlock()
}

// Calls returns the driver calls accepted so far, in order.
func (s *Sim) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// ResetCalls clears the call log.
func (s *Sim) ResetCalls() {
	s.mu.Lock()
	s.calls = nil
	s.mu.Unlock()
}

// enter records a call and returns an injected failure if one is armed.
// Must be called with s.mu held.
func (s *Sim) enter(op string, detail ...string) error {
	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}
	name := op
	if len(detail) > 0 {
		name = op + ":" + detail[0]
	}
	s.calls = append(s.calls, name)
	return nil
}

// Init implements Driver
func (s *Sim) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("init"); err != nil {
		return err
	}
	s.initialized = true
	return nil
}

// Deinit implements Driver
func (s *Sim) Deinit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("deinit"); err != nil {
		return err
	}
	s.initialized = false
	s.started = false
	s.scanning = false
	s.associated = nil
	s.gen++
	return nil
}

// SetMode implements Driver
func (s *Sim) SetMode(m Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewNotInitializedError("set_mode")
	}
	if err := s.enter("set_mode", m.String()); err != nil {
		return err
	}
	s.mode = m
	return nil
}

// Start implements Driver
func (s *Sim) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewNotInitializedError("start")
	}
	if err := s.enter("start"); err != nil {
		return err
	}
	s.started = true
	s.later(s.gen, func() (Event, bool) {
		return Event{Kind: EventStaStart}, true
	})
	return nil
}

// Stop implements Driver
func (s *Sim) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewNotInitializedError("stop")
	}
	if err := s.enter("stop"); err != nil {
		return err
	}
	s.started = false
	s.scanning = false
	s.associated = nil
	s.gen++
	s.later(s.gen, func() (Event, bool) {
		return Event{Kind: EventStaStop}, true
	})
	return nil
}

// Connect implements Driver
func (s *Sim) Connect(ssid, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return NewStateError("connect", "station not started")
	}
	if ssid == "" {
		return NewInvalidArgumentError("connect", "empty ssid")
	}
	if err := s.enter("connect", ssid); err != nil {
		return err
	}
	s.gen++
	s.later(s.gen, func() (Event, bool) {
		return s.resolveConnect(ssid, password), true
	})
	return nil
}

// resolveConnect decides the outcome of a connect. Called with s.mu held.
func (s *Sim) resolveConnect(ssid, password string) Event {
	if f, ok := s.failures[ssid]; ok && f.remaining != 0 {
		if f.remaining > 0 {
			f.remaining--
		}
		return Event{Kind: EventStaDisconnected, Reason: f.reason, SSID: ssid}
	}
	for _, n := range s.networks {
		if n.SSID != ssid {
			continue
		}
		if n.Auth.RequiresPassword() && n.Password != password {
			return Event{Kind: EventStaDisconnected, Reason: ReasonFourWayHandshakeTimeout, SSID: ssid}
		}
		rec := n.APRecord
		s.associated = &rec
		return Event{Kind: EventStaConnected, SSID: ssid}
	}
	return Event{Kind: EventStaDisconnected, Reason: ReasonNoAPFound, SSID: ssid}
}

// Disconnect implements Driver
func (s *Sim) Disconnect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return NewStateError("disconnect", "station not started")
	}
	if err := s.enter("disconnect"); err != nil {
		return err
	}
	ssid := ""
	if s.associated != nil {
		ssid = s.associated.SSID
	}
	s.associated = nil
	s.gen++
	s.later(s.gen, func() (Event, bool) {
		return Event{Kind: EventStaDisconnected, Reason: ReasonAuthLeave, SSID: ssid}, true
	})
	return nil
}

// ScanStart implements Driver
func (s *Sim) ScanStart() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return NewStateError("scan_start", "station not started")
	}
	if err := s.enter("scan_start"); err != nil {
		return err
	}
	s.scanning = true
	gen := s.gen
	time.AfterFunc(s.latency, func() {
		s.mu.Lock()
		if !s.scanning || !s.started || gen != s.gen {
			s.mu.Unlock()
			return
		}
		s.scanning = false
		s.lastScan = s.lastScan[:0]
		for _, n := range s.networks {
			s.lastScan = append(s.lastScan, n.APRecord)
		}
		sort.SliceStable(s.lastScan, func(i, j int) bool {
			return s.lastScan[i].RSSI > s.lastScan[j].RSSI
		})
		s.mu.Unlock()
		s.emit(Event{Kind: EventScanDone})
	})
	return nil
}

// ScanStop implements Driver
func (s *Sim) ScanStop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return NewNotInitializedError("scan_stop")
	}
	if err := s.enter("scan_stop"); err != nil {
		return err
	}
	s.scanning = false
	return nil
}

// AssociatedAP implements Driver
func (s *Sim) AssociatedAP() (APRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.associated == nil {
		return APRecord{}, NewStateError("ap_info", "not associated")
	}
	return *s.associated, nil
}

// ScanResults implements Driver
func (s *Sim) ScanResults(max int) ([]APRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if max < 0 {
		return nil, NewInvalidArgumentError("scan_results", fmt.Sprintf("negative max %d", max))
	}
	n := len(s.lastScan)
	if n > max {
		n = max
	}
	return append([]APRecord(nil), s.lastScan[:n]...), nil
}

// Subscribe implements Driver
func (s *Sim) Subscribe(fn func(Event)) (func() error, error) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() error {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
		return nil
	}, nil
}
