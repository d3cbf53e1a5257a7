package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/store"
	"github.com/muurk/wlanmgr/internal/wlan"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// View is the settings presentation: the screens plus the WLAN widgets the
// wlan manager drives. Methods are called with the UI lock held.
type View interface {
	wlan.View

	// Build creates the screens; Teardown destroys them.
	Build() error
	Teardown() error

	ShowScreen(Screen)
	SetSwitch(on bool)
	SetVerificationTitle(ssid string)
	ClearPassword()
}

// Options configures a Manager.
type Options struct {
	// Wlan must have been created with the same View and UI lock.
	Wlan    *wlan.Manager
	Storage store.Store
	View    View

	// Seeded into the store when the keys are missing.
	DefaultSSID     string
	DefaultPassword string
}

// Manager is the settings application: it owns screen navigation, the
// persisted WLAN switch and the user-facing WLAN handlers.
type Manager struct {
	wlan   *wlan.Manager
	store  store.Store
	view   View
	uiLock sync.Locker
	opts   Options

	signal Signal

	// Guarded by uiLock.
	screen     Screen
	lastScreen Screen
	running    bool
	closed     bool

	unsubscribe func()
	bg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates the settings manager.
func New(opts Options) (*Manager, error) {
	if opts.Wlan == nil {
		return nil, errors.New("settings: wlan manager is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("settings: storage is required")
	}
	if opts.View == nil {
		return nil, errors.New("settings: view is required")
	}
	return &Manager{
		wlan:   opts.Wlan,
		store:  opts.Storage,
		view:   opts.View,
		uiLock: opts.Wlan.UILock(),
		opts:   opts,
		screen: ScreenHome,
	}, nil
}

// Signal returns the signal carrying EnterScreen and EnterDeveloperMode.
// Slots run with the UI lock held and must not call back into the
// manager's locking methods.
func (s *Manager) Signal() *Signal { return &s.signal }

// Wlan returns the underlying station manager.
func (s *Manager) Wlan() *wlan.Manager { return s.wlan }

// ProcessInit starts the station manager and restores the persisted
// switch. A switched-on radio starts in the background.
func (s *Manager) ProcessInit(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if err := s.wlan.Start(s.ctx); err != nil {
		return fmt.Errorf("start wlan manager: %w", err)
	}
	s.unsubscribe = s.store.Subscribe(s.onStoreEvent)

	sw, err := store.IntOrDefault(s.store, store.KeyWlanSwitch, 0, s)
	if err != nil {
		return fmt.Errorf("read %s: %w", store.KeyWlanSwitch, err)
	}
	on := sw != 0
	s.wlan.SetSwitch(on)

	s.uiLock.Lock()
	s.view.SetWifiIcon(iconForSwitch(on))
	s.uiLock.Unlock()

	s.background("restore_switch", func() error {
		return s.wlan.Force(switchOp(on), 0)
	})

	if _, err := store.StringOrDefault(s.store, store.KeyWlanSSID, s.opts.DefaultSSID, s); err != nil {
		return fmt.Errorf("read %s: %w", store.KeyWlanSSID, err)
	}
	if _, err := store.StringOrDefault(s.store, store.KeyWlanPassword, s.opts.DefaultPassword, s); err != nil {
		return fmt.Errorf("read %s: %w", store.KeyWlanPassword, err)
	}

	logging.Info("Settings initialised", zap.Bool("wlan_switch", on))
	return nil
}

// ProcessRun builds the screens and shows SETTINGS.
func (s *Manager) ProcessRun() error {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()

	if s.running {
		return errors.New("settings: already running")
	}
	if err := s.view.Build(); err != nil {
		return fmt.Errorf("build screens: %w", err)
	}
	s.running = true
	s.closed = false

	on := s.wlan.Switch()
	if sw, err := s.store.GetInt(store.KeyWlanSwitch); err == nil {
		on = sw != 0
	}
	s.view.SetSwitch(on)

	s.changeScreen(ScreenSettings)
	s.wlan.SetUIReady(true)
	s.wlan.RefreshAvailable(false, wlan.StateUnknown)
	s.wlan.RefreshConnected(false, wlan.StateUnknown)
	return nil
}

// ProcessBack navigates back. It returns false once HOME is reached, when
// the host should close the app.
func (s *Manager) ProcessBack() bool {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()
	return s.back()
}

func (s *Manager) back() bool {
	target, ok := BackTarget(s.screen)
	if !ok {
		return false
	}
	s.changeScreen(target)
	return target != ScreenHome
}

// ProcessClose tears the screens down. The station keeps running.
func (s *Manager) ProcessClose() error {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()

	if s.closed {
		return errors.New("settings: already closed")
	}
	s.closed = true
	s.running = false
	s.wlan.SetUIReady(false)

	var err error
	if terr := s.view.Teardown(); terr != nil {
		err = multierr.Append(err, fmt.Errorf("teardown screens: %w", terr))
	}
	s.lastScreen = s.screen
	s.screen = ScreenHome
	s.wlan.SetWlanScreenActive(false)
	return err
}

// Close stops background work and the station manager.
func (s *Manager) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.bg.Wait()
	return s.wlan.Close()
}

// CurrentScreen returns the screen being shown.
func (s *Manager) CurrentScreen() Screen {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()
	return s.screen
}

// ChangeScreen shows screen.
func (s *Manager) ChangeScreen(screen Screen) {
	s.uiLock.Lock()
	defer s.uiLock.Unlock()
	s.changeScreen(screen)
}

func (s *Manager) changeScreen(screen Screen) {
	if screen == s.screen {
		return
	}
	s.lastScreen = s.screen
	s.screen = screen
	logging.Debug("Screen changed", zap.Stringer("from", s.lastScreen), zap.Stringer("to", screen))

	s.wlan.SetWlanScreenActive(screen == ScreenWirelessWlan)
	if screen == ScreenWirelessWlan && s.lastScreen != ScreenWlanVerification &&
		s.wlan.State().IsAtLeast(wlan.StateStartPhase) {
		s.wlan.ToggleScanTimer(true, true)
	}
	s.view.ShowScreen(screen)
	s.signal.Emit(Event{Type: EventEnterScreen, Screen: screen})
}

// EnterScreen waits for the UI to come up, then shows screen.
func (s *Manager) EnterScreen(ctx context.Context, screen Screen) error {
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()
	for !s.wlan.UIReady() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("settings: waiting for ui: %w", ctx.Err())
		case <-tick.C:
		}
	}
	s.ChangeScreen(screen)
	return nil
}

// EnterDeveloperMode asks the host to open developer mode.
func (s *Manager) EnterDeveloperMode() bool {
	return s.signal.Emit(Event{Type: EventEnterDeveloperMode})
}

func (s *Manager) WlanStateString() string     { return s.wlan.StateString() }
func (s *Manager) WlanScanStateString() string { return s.wlan.ScanStateString() }

// background runs fn on its own goroutine; Close waits for it.
func (s *Manager) background(name string, fn func() error) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		if err := fn(); err != nil {
			logging.Warn("Settings background task failed", zap.String("task", name), zap.Error(err))
		}
	}()
}

func switchOp(on bool) wlan.Operation {
	if on {
		return wlan.OpStart
	}
	return wlan.OpStop
}

func iconForSwitch(on bool) wlan.WifiIcon {
	if on {
		return wlan.IconDisconnected
	}
	return wlan.IconClosed
}
