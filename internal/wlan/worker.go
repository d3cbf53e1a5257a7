package wlan

import (
	"fmt"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"go.uber.org/zap"
)

// runWorker drains the operation queue until the radio is deinitialised
// or the queue closes.
func (m *Manager) runWorker() {
	defer m.wg.Done()
	defer func() {
		for _, t := range m.queue.close() {
			t.fulfil(ErrClosed)
		}
	}()

	logging.Debug("WLAN worker started")
	for {
		t, ok := m.queue.pop()
		if !ok {
			logging.Debug("WLAN worker stopped: queue closed")
			return
		}

		err := m.process(t)
		if err != nil {
			logging.LogOperation(t.op, "failed", zap.String("ticket", t.id.String()), zap.Error(err))
		} else {
			logging.LogOperation(t.op, "done", zap.String("ticket", t.id.String()))
		}
		t.fulfil(err)

		if m.State() == StateDeinit {
			logging.Debug("WLAN worker stopped: radio deinitialised")
			return
		}
	}
}

// process runs one operation and waits for it to settle.
func (m *Manager) process(t *ticket) error {
	logging.LogOperation(t.op, "start", zap.String("ticket", t.id.String()))

	var (
		err     error
		timeout time.Duration
		reached func() bool
	)
	switch t.op {
	case OpInit:
		err = m.doInit()
	case OpDeinit:
		err = m.doDeinit()
	case OpStart:
		err = m.doStart()
		timeout = m.opts.Timeouts.Start
		reached = func() bool { return m.state == StateStarted }
	case OpStop:
		err = m.doStop()
		timeout = m.opts.Timeouts.Stop
		reached = func() bool { return m.state == StateStopped }
	case OpConnect:
		err = m.doConnect()
		timeout = m.opts.Timeouts.Connect
		reached = func() bool { return m.state == StateConnected || m.state == StateDisconnected }
	case OpDisconnect:
		err = m.doDisconnect()
		timeout = m.opts.Timeouts.Disconnect
		reached = func() bool { return m.state == StateDisconnected }
	case OpScanStart:
		err = m.doScanStart()
		timeout = m.opts.Timeouts.ScanStart
		reached = func() bool { return m.scanState == ScanDone }
	case OpScanStop:
		err = m.doScanStop()
		timeout = m.opts.Timeouts.ScanStop
		reached = func() bool { return m.scanState == ScanStopped }
	default:
		logging.Error("Invalid WLAN operation", zap.Int("operation", int(t.op)))
		return fmt.Errorf("%w: %d", ErrInvalidOperation, int(t.op))
	}
	if err != nil {
		return err
	}

	if reached != nil && !m.waitFor(timeout, reached) {
		return fmt.Errorf("%s: %w after %v (state %s, scan %s)",
			t.op, ErrTimeout, timeout, m.State(), m.ScanState())
	}

	m.mu.Lock()
	m.prevOp = t.op
	m.mu.Unlock()
	return nil
}

func (m *Manager) doInit() error {
	if m.State().IsAtLeast(StateInit) {
		return nil
	}

	err := func() error {
		cancel, err := m.driver.Subscribe(m.handleRadioEvent)
		if err != nil {
			return fmt.Errorf("subscribe to radio events: %w", err)
		}
		m.mu.Lock()
		m.unsubscribe = cancel
		m.mu.Unlock()

		if err := m.driver.Init(); err != nil {
			return fmt.Errorf("init radio: %w", err)
		}
		if err := m.driver.SetMode(radio.ModeStation); err != nil {
			return fmt.Errorf("set station mode: %w", err)
		}
		return nil
	}()
	if err != nil {
		if derr := m.forceDeinit(); derr != nil {
			logging.Warn("Cleanup after failed init also failed", zap.Error(derr))
		}
		return err
	}

	m.setState(StateInit)
	return nil
}

func (m *Manager) doDeinit() error {
	if m.State() == StateDeinit {
		return nil
	}
	return m.forceDeinit()
}

// forceDeinit tears down without the DEINIT skip check so a half-done
// init can be unwound.
func (m *Manager) forceDeinit() error {
	m.mu.Lock()
	unsub := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()
	if unsub != nil {
		if err := unsub(); err != nil {
			logging.Warn("Failed to unsubscribe from radio events", zap.Error(err))
		}
	}

	if err := m.driver.Deinit(); err != nil {
		return fmt.Errorf("deinit radio: %w", err)
	}
	m.setState(StateDeinit)
	return nil
}

func (m *Manager) doStart() error {
	if m.State().IsAtLeast(StateStartPhase) {
		return nil
	}
	prev := m.setState(StateStarting)
	if err := m.driver.Start(); err != nil {
		m.setState(prev)
		return fmt.Errorf("start radio: %w", err)
	}
	return nil
}

func (m *Manager) doStop() error {
	if m.State().IsAtLeast(StateStopPhase) {
		return nil
	}
	prev := m.setState(StateStopping)
	if err := m.driver.Stop(); err != nil {
		m.setState(prev)
		return fmt.Errorf("stop radio: %w", err)
	}
	return nil
}

func (m *Manager) doConnect() error {
	if m.State().IsAtLeast(StateConnectPhase) {
		return nil
	}
	cred := m.Connecting()
	if cred.Network.SSID == "" {
		return ErrNoCredentials
	}

	prev := m.setState(StateConnecting)
	m.dataMu.Lock()
	m.submitted = cred
	m.dataMu.Unlock()

	logging.Info("Connecting", zap.String("ssid", cred.Network.SSID))
	if err := m.driver.Connect(cred.Network.SSID, cred.Password); err != nil {
		m.setState(prev)
		return fmt.Errorf("connect to %q: %w", cred.Network.SSID, err)
	}
	return nil
}

func (m *Manager) doDisconnect() error {
	if m.State().IsAtLeast(StateDisconnectPhase) {
		return nil
	}
	prev := m.setState(StateDisconnecting)
	if err := m.driver.Disconnect(); err != nil {
		m.setState(prev)
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func (m *Manager) doScanStart() error {
	if m.ScanState() == ScanScanning {
		return nil
	}
	prev := m.setScanState(ScanScanning)
	if err := m.driver.ScanStart(); err != nil {
		m.setScanState(prev)
		return fmt.Errorf("start scan: %w", err)
	}
	return nil
}

func (m *Manager) doScanStop() error {
	if m.ScanState() == ScanStopped {
		return nil
	}
	if err := m.driver.ScanStop(); err != nil {
		return fmt.Errorf("stop scan: %w", err)
	}
	m.setScanState(ScanStopped)
	return nil
}
