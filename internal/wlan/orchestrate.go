package wlan

import (
	"context"
	"fmt"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"go.uber.org/zap"
)

// Force brings the station to the state op leads to, first forcing the
// operations it depends on. A CONNECT while already connecting or
// connected disconnects first. Skips count as success.
//
// timeout <= 0 queues the operation and returns at once.
func (m *Manager) Force(op Operation, timeout time.Duration) error {
	state, scan := m.State(), m.ScanState()
	logging.Debug("Force operation",
		zap.Stringer("operation", op),
		zap.Stringer("state", state),
		zap.Stringer("scan_state", scan),
		zap.Duration("timeout", timeout),
	)

	t := m.opts.Timeouts
	switch op {
	case OpInit:
		if state.IsAtLeast(StateInit) {
			return nil
		}
	case OpDeinit:
		if !state.IsAtLeast(StateInit) {
			return nil
		}
	case OpStart:
		if state.IsAtLeast(StateStartPhase) || !m.Switch() {
			return nil
		}
		if err := m.Force(OpInit, t.Init); err != nil {
			return fmt.Errorf("force %s: %w", op, err)
		}
	case OpStop:
		if !state.IsAtLeast(StateStartPhase) || m.Switch() {
			return nil
		}
	case OpConnect:
		if err := m.Force(OpScanStop, t.ScanStop); err != nil {
			return fmt.Errorf("force %s: %w", op, err)
		}
		if m.State().IsAtLeast(StateConnectPhase) {
			m.forceConnecting.Store(true)
			if err := m.Force(OpDisconnect, t.Disconnect); err != nil {
				return fmt.Errorf("force %s: %w", op, err)
			}
			// Normally cleared by the disconnect event already; this covers
			// a link that dropped on its own before DISCONNECT ran.
			m.forceConnecting.Store(false)
		}
	case OpDisconnect:
		if !state.IsAtLeast(StateConnectPhase) {
			return nil
		}
	case OpScanStart:
		if scan == ScanScanning {
			return nil
		}
		if err := m.Force(OpStart, t.Start); err != nil {
			return fmt.Errorf("force %s: %w", op, err)
		}
	case OpScanStop:
		if !scan.IsAtLeast(ScanStartPhase) {
			return nil
		}
	default:
		logging.Error("Invalid WLAN operation", zap.Int("operation", int(op)))
		return fmt.Errorf("%w: %d", ErrInvalidOperation, int(op))
	}
	return m.trigger(op, timeout)
}

// Try performs op only when it makes sense from the current state, trying
// its dependencies the same way. A scan while connecting fails with
// ErrBusy.
func (m *Manager) Try(op Operation, timeout time.Duration) error {
	state, scan := m.State(), m.ScanState()
	logging.Debug("Try operation",
		zap.Stringer("operation", op),
		zap.Stringer("state", state),
		zap.Stringer("scan_state", scan),
		zap.Duration("timeout", timeout),
	)

	t := m.opts.Timeouts
	var dep Operation
	switch op {
	case OpInit:
		if state.IsAtLeast(StateInit) {
			return nil
		}
	case OpDeinit:
		if state == StateDeinit {
			return nil
		}
	case OpStart:
		if state.IsAtLeast(StateStartPhase) || !m.Switch() {
			return nil
		}
		dep = OpInit
	case OpStop:
		if !state.IsAtLeast(StateStartPhase) || m.Switch() {
			return nil
		}
		dep = OpInit
	case OpConnect:
		if state.IsAtLeast(StateConnectPhase) {
			logging.Warn("Already connecting or connected, ignoring CONNECT", zap.Stringer("state", state))
			return nil
		}
		dep = OpStart
	case OpDisconnect:
		if !state.IsAtLeast(StateConnectPhase) {
			return nil
		}
		dep = OpStart
	case OpScanStart:
		if scan == ScanScanning {
			return nil
		}
		if state == StateConnecting {
			return fmt.Errorf("try %s: %w: connecting", op, ErrBusy)
		}
		dep = OpStart
	case OpScanStop:
		if scan == ScanStopped {
			return nil
		}
		dep = OpStart
	default:
		logging.Error("Invalid WLAN operation", zap.Int("operation", int(op)))
		return fmt.Errorf("%w: %d", ErrInvalidOperation, int(op))
	}

	switch dep {
	case OpInit:
		if err := m.Try(OpInit, t.Init); err != nil {
			return fmt.Errorf("try %s: %w", op, err)
		}
	case OpStart:
		if err := m.Try(OpStart, t.Start); err != nil {
			return fmt.Errorf("try %s: %w", op, err)
		}
	}
	return m.trigger(op, timeout)
}

// trigger queues op. With a positive timeout it waits for this ticket
// only; the worker may still finish the operation after ErrTimeout.
func (m *Manager) trigger(op Operation, timeout time.Duration) error {
	if !op.valid() {
		return fmt.Errorf("%w: %d", ErrInvalidOperation, int(op))
	}
	t := newTicket(op)
	if err := m.queue.push(t); err != nil {
		return fmt.Errorf("queue %s: %w", op, err)
	}
	logging.LogOperation(op, "queued",
		zap.String("ticket", t.id.String()),
		zap.Stringer("state", m.State()),
		zap.Stringer("scan_state", m.ScanState()),
	)
	if timeout <= 0 {
		return nil
	}

	wait := time.NewTimer(timeout)
	defer wait.Stop()
	select {
	case err := <-t.done:
		return err
	case <-wait.C:
		return fmt.Errorf("%s: %w after %v", op, ErrTimeout, timeout)
	}
}

// AsyncConnect waits delay, then connects to the connecting credential if
// the station is still started. With a ready UI both widgets show the
// CONNECTING target first.
func (m *Manager) AsyncConnect(delay time.Duration) {
	m.submit("async_connect", func(ctx context.Context) error {
		if !sleep(ctx, delay) {
			return nil
		}
		if !m.State().IsAtLeast(StateStarted) {
			logging.Debug("Skipping connect: station not started", zap.Stringer("state", m.State()))
			return nil
		}

		if m.UIReady() {
			m.uiLock.Lock()
			if m.State().IsAtLeast(StateStarted) {
				m.RefreshAvailable(true, StateConnecting)
				m.RefreshConnected(true, StateConnecting)
				m.view.ScrollConnectedIntoView()
			}
			m.uiLock.Unlock()
		}
		return m.Force(OpConnect, 0)
	})
}

// ToggleScanTimer resumes the periodic scan with an immediate tick, or
// pauses it. In once mode the timer stops after the next accepted tick.
func (m *Manager) ToggleScanTimer(start, once bool) {
	logging.Debug("Toggle scan timer", zap.Bool("start", start), zap.Bool("once", once))
	m.timer.toggle(start, once)
}

// ScanTimerRunning reports whether periodic scanning is active.
func (m *Manager) ScanTimerRunning() bool {
	return m.timer.isRunning()
}

// onScanTick reports whether the tick was accepted.
func (m *Manager) onScanTick() bool {
	state := m.State()
	if !state.IsAtLeast(StateStarted) ||
		(state.IsAtLeast(StateConnectPhase) && !m.wlanScreen.Load()) {
		logging.Debug("Ignoring scan tick", zap.Stringer("state", state))
		return false
	}
	if !m.IsRetryConnecting() {
		if err := m.Try(OpScanStart, 0); err != nil {
			logging.Debug("Periodic scan not started", zap.Error(err))
		}
	}
	return true
}
