package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if configDir == "" {
		t.Error("GetConfigDir() returned empty string")
	}

	if !strings.Contains(configDir, "wlanmgr") {
		t.Errorf("GetConfigDir() = %v, should contain 'wlanmgr'", configDir)
	}

	switch runtime.GOOS {
	case "windows":
		if !strings.Contains(configDir, "AppData") && !strings.Contains(configDir, "Local") {
			t.Errorf("Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
		}
	case "darwin":
		if !strings.Contains(configDir, ".config") {
			t.Errorf("macOS config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if got != filepath.Join("/tmp/xdg", "wlanmgr") {
		t.Errorf("GetConfigDir() = %v, want /tmp/xdg/wlanmgr", got)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}

	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Version != 1 {
		t.Errorf("Default().Version = %v, want 1", cfg.Version)
	}
	if cfg.Wlan.ScanAPCountMax != 15 {
		t.Errorf("ScanAPCountMax = %v, want 15", cfg.Wlan.ScanAPCountMax)
	}
	if cfg.Wlan.ScanIntervalMs != 20000 {
		t.Errorf("ScanIntervalMs = %v, want 20000", cfg.Wlan.ScanIntervalMs)
	}
	if cfg.Wlan.RetryMax != 5 {
		t.Errorf("RetryMax = %v, want 5", cfg.Wlan.RetryMax)
	}
	if cfg.Radio.Driver != DriverSim {
		t.Errorf("Radio.Driver = %v, want sim", cfg.Radio.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero scan interval", func(c *Config) { c.Wlan.ScanIntervalMs = 0 }, "wlan.scan_interval_ms"},
		{"negative retry", func(c *Config) { c.Wlan.RetryMax = -1 }, "wlan.retry_max"},
		{"zero connect timeout", func(c *Config) { c.Wlan.Timeouts.Connect = 0 }, "wlan.timeouts.connect"},
		{"negative connect delay", func(c *Config) { c.Wlan.ConnectDelayMs = -5 }, "wlan.connect_delay_ms"},
		{"zero connect delay", func(c *Config) { c.Wlan.ConnectDelayMs = 0 }, ""},
		{"unknown driver", func(c *Config) { c.Radio.Driver = "esp" }, "radio.driver"},
		{"wpa without interface", func(c *Config) { c.Radio.Driver = DriverWPA; c.Radio.Interface = "" }, "radio.interface"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "nvs" }, "storage.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Wlan.ScanIntervalMs != 20000 {
		t.Errorf("ScanIntervalMs = %v, want default 20000", cfg.Wlan.ScanIntervalMs)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`version: 1
log_level: debug
wlan:
  default_ssid: Home
  retry_max: 3
  timeouts:
    connect: 8000
radio:
  driver: wpa
  interface: wlp2s0
`)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.Wlan.DefaultSSID != "Home" || cfg.Wlan.RetryMax != 3 {
		t.Errorf("Wlan = %+v", cfg.Wlan)
	}
	if cfg.Wlan.Timeouts.Connect != 8000 {
		t.Errorf("Timeouts.Connect = %v, want 8000", cfg.Wlan.Timeouts.Connect)
	}
	// Untouched keys keep defaults
	if cfg.Wlan.Timeouts.Start != 1000 || cfg.Wlan.ScanAPCountMax != 15 {
		t.Errorf("defaults lost: start=%v ap_max=%v", cfg.Wlan.Timeouts.Start, cfg.Wlan.ScanAPCountMax)
	}
	if cfg.Radio.Interface != "wlp2s0" {
		t.Errorf("Radio.Interface = %q", cfg.Radio.Interface)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad version", "version: 2\n"},
		{"bad yaml", "version: [1\n"},
		{"invalid value", "version: 1\nwlan:\n  scan_interval_ms: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0600); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Wlan.DefaultSSID = "Office"
	cfg.Storage.Backend = "badger"
	cfg.Diagnostics.Listen = ":8765"
	cfg.Diagnostics.MDNS = true

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should not remain after Save()")
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Wlan.DefaultSSID != "Office" {
		t.Errorf("DefaultSSID = %q, want Office", loaded.Wlan.DefaultSSID)
	}
	if loaded.Storage.Backend != "badger" || loaded.Diagnostics.Listen != ":8765" || !loaded.Diagnostics.MDNS {
		t.Errorf("loaded = %+v / %+v", loaded.Storage, loaded.Diagnostics)
	}
}

func TestWlanOptions(t *testing.T) {
	cfg := Default()
	cfg.Wlan.ConnectDelayMs = 0
	cfg.Wlan.Timeouts.ScanStart = 2500

	opts := cfg.WlanOptions()

	if opts.ScanInterval != 20*time.Second {
		t.Errorf("ScanInterval = %v, want 20s", opts.ScanInterval)
	}
	if opts.ConnectDelay != 0 {
		t.Errorf("ConnectDelay = %v, want 0", opts.ConnectDelay)
	}
	if opts.Timeouts.ScanStart != 2500*time.Millisecond {
		t.Errorf("Timeouts.ScanStart = %v, want 2.5s", opts.Timeouts.ScanStart)
	}
	if opts.Timeouts.Init != 5*time.Second || opts.Timeouts.Stop != time.Second {
		t.Errorf("Timeouts = %+v", opts.Timeouts)
	}
	if opts.RetryMax != 5 || opts.ScanAPCountMax != 15 || opts.TaskPoolSize != 4 {
		t.Errorf("opts = %+v", opts)
	}
}

func TestStoragePath(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = "/var/lib/wlanmgr/settings.db"
	if got, _ := cfg.StoragePath(); got != "/var/lib/wlanmgr/settings.db" {
		t.Errorf("StoragePath() = %v", got)
	}

	cfg.Storage.Path = ""
	got, err := cfg.StoragePath()
	if err != nil {
		t.Fatalf("StoragePath() error = %v", err)
	}
	if filepath.Base(got) != "settings.db" {
		t.Errorf("StoragePath() = %v, want settings.db in config dir", got)
	}

	cfg.Storage.Backend = "badger"
	if got, _ := cfg.StoragePath(); filepath.Base(got) != "badger" {
		t.Errorf("badger StoragePath() = %v", got)
	}
}

func BenchmarkGetConfigDir(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = GetConfigDir()
	}
}
