package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/muurk/wlanmgr/internal/config"
	"github.com/muurk/wlanmgr/internal/discovery"
	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/radio"
	"github.com/muurk/wlanmgr/internal/radio/wpa"
	"github.com/muurk/wlanmgr/internal/server"
	"github.com/muurk/wlanmgr/internal/settings"
	"github.com/muurk/wlanmgr/internal/store"
	"github.com/muurk/wlanmgr/internal/ui"
	"github.com/muurk/wlanmgr/internal/version"
	"github.com/muurk/wlanmgr/internal/wlan"
)

// Run command flags
var (
	runHeadless bool
	runLogFile  string
	runListen   string
	runDriver   string
	runMDNS     bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the station manager",
	Long: `Start the station manager and, on a terminal, the settings UI.

The WLAN switch and the last joined network are restored from the
settings store. With --headless (or when stdout is not a terminal) the
manager runs without a UI until interrupted; it still reconnects to the
stored network.

The sim driver simulates a radio with a few networks in range:
  Home          WPA2, password "password123"
  Office        WPA3, password "correct horse"
  CoffeeShop    open`,
	Example: `  # Settings UI on the simulated radio
  wlanmgr run

  # Real hardware, diagnostics on port 8765, announced over mDNS
  wlanmgr run --driver wpa --listen :8765 --mdns

  # Background service with debug logs on stderr
  wlanmgr run --headless --log-level debug`,
	RunE: runManager,
}

func init() {
	runCmd.Flags().BoolVar(&runHeadless, "headless", false, "Run without the settings UI")
	runCmd.Flags().StringVar(&runLogFile, "log-file", "", "Log file while the UI runs (default <config dir>/wlanmgr.log)")
	runCmd.Flags().StringVar(&runListen, "listen", "", "Diagnostics server address (overrides diagnostics.listen)")
	runCmd.Flags().StringVar(&runDriver, "driver", "", "Radio driver: sim or wpa (overrides radio.driver)")
	runCmd.Flags().BoolVar(&runMDNS, "mdns", false, "Announce the diagnostics server over mDNS")
	rootCmd.AddCommand(runCmd)
}

func runManager(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runListen != "" {
		cfg.Diagnostics.Listen = runListen
	}
	if runDriver != "" {
		cfg.Radio.Driver = runDriver
	}
	if runMDNS {
		cfg.Diagnostics.MDNS = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	withUI := !runHeadless && term.IsTerminal(int(os.Stdout.Fd()))
	if err := initLogging(cfg, withUI); err != nil {
		return err
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runStack(ctx, cfg, withUI)
}

func initLogging(cfg *config.Config, withUI bool) error {
	if !withUI {
		return logging.Initialize(cfg.LogLevel)
	}
	path := runLogFile
	if path == "" {
		dir, err := config.GetConfigDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		path = filepath.Join(dir, "wlanmgr.log")
	}
	return logging.InitializeToFile(cfg.LogLevel, path)
}

// stack is everything runStack starts, in start order.
type stack struct {
	kv        *store.KV
	driver    radio.Driver
	sim       *radio.Sim
	screens   *ui.Screens
	wlan      *wlan.Manager
	app       *settings.Manager
	server    *server.Server
	announcer *discovery.Announcer
}

func runStack(ctx context.Context, cfg *config.Config, withUI bool) (err error) {
	s := &stack{}
	defer func() {
		err = multierr.Append(err, s.close())
	}()

	if err := s.openStore(cfg); err != nil {
		return err
	}
	s.openDriver(cfg)
	s.screens = ui.NewScreens()

	opts := cfg.WlanOptions()
	opts.Driver = s.driver
	opts.Storage = s.kv
	opts.View = s.screens
	opts.OnConnected = func(ctx context.Context, ap radio.APRecord) error {
		if s.announcer == nil {
			return nil
		}
		return s.announcer.Announce(ctx, ap)
	}
	opts.OnDisconnected = func() {
		if s.announcer != nil {
			s.announcer.Withdraw()
		}
	}
	if s.wlan, err = wlan.New(opts); err != nil {
		return fmt.Errorf("failed to create wlan manager: %w", err)
	}

	s.app, err = settings.New(settings.Options{
		Wlan:            s.wlan,
		Storage:         s.kv,
		View:            s.screens,
		DefaultSSID:     cfg.Wlan.DefaultSSID,
		DefaultPassword: cfg.Wlan.DefaultPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create settings app: %w", err)
	}
	s.app.Signal().Connect(func(ev settings.Event) bool {
		if ev.Type == settings.EventEnterDeveloperMode {
			logging.Info("Developer mode requested")
		}
		return false
	})

	if err := s.startDiagnostics(cfg); err != nil {
		return err
	}

	// The managers are stopped by close(), which still has to drive DEINIT
	// after ctx is cancelled.
	if err := s.app.ProcessInit(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("failed to initialise settings: %w", err)
	}
	logging.Info("wlanmgr started",
		zap.String("version", version.Version),
		zap.String("driver", cfg.Radio.Driver),
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("ui", withUI))

	if withUI {
		return ui.Run(ctx, s.app, s.screens)
	}
	<-ctx.Done()
	logging.Info("Shutdown signal received, stopping...")
	return nil
}

func (s *stack) openStore(cfg *config.Config) error {
	path, err := cfg.StoragePath()
	if err != nil {
		return err
	}
	kv, err := store.Open(cfg.Storage.Backend, path)
	if err != nil {
		return fmt.Errorf("failed to open settings store: %w", err)
	}
	s.kv = kv
	return nil
}

func (s *stack) openDriver(cfg *config.Config) {
	if cfg.Radio.Driver == config.DriverWPA {
		s.driver = wpa.New(wpa.Config{Interface: cfg.Radio.Interface})
		return
	}
	s.sim = radio.NewSim(radio.SimConfig{
		Latency:  150 * time.Millisecond,
		Networks: demoNetworks(),
	})
	s.driver = s.sim
}

func (s *stack) startDiagnostics(cfg *config.Config) error {
	if cfg.Diagnostics.Listen == "" {
		return nil
	}
	srv, err := server.New(server.Config{Listen: cfg.Diagnostics.Listen}, s.wlan)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	s.server = srv

	if !cfg.Diagnostics.MDNS {
		return nil
	}
	instance := cfg.Diagnostics.Instance
	if instance == "" {
		if instance, err = os.Hostname(); err != nil {
			return fmt.Errorf("failed to resolve mDNS instance name: %w", err)
		}
	}
	s.announcer, err = discovery.NewAnnouncer(instance, srv.Port(), version.Version)
	return err
}

// close tears the stack down in reverse start order.
func (s *stack) close() error {
	var err error
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = multierr.Append(err, s.server.Shutdown(ctx))
		cancel()
	}
	if s.app != nil {
		err = multierr.Append(err, s.app.Close())
	} else if s.wlan != nil {
		err = multierr.Append(err, s.wlan.Close())
	}
	if s.announcer != nil {
		s.announcer.Withdraw()
	}
	if s.sim != nil {
		err = multierr.Append(err, s.sim.Close())
	}
	if s.kv != nil {
		err = multierr.Append(err, s.kv.Close())
	}
	return err
}

func demoNetworks() []radio.SimNetwork {
	return []radio.SimNetwork{
		{APRecord: radio.APRecord{SSID: "Home", RSSI: -42, Auth: radio.AuthWPA2PSK}, Password: "password123"},
		{APRecord: radio.APRecord{SSID: "Office", RSSI: -61, Auth: radio.AuthWPA3PSK}, Password: "correct horse"},
		{APRecord: radio.APRecord{SSID: "CoffeeShop", RSSI: -74, Auth: radio.AuthOpen}},
	}
}
