package config

import (
	"fmt"
	"time"

	"github.com/muurk/wlanmgr/internal/wlan"
)

// Config represents the entire configuration file.
type Config struct {
	Version     int               `yaml:"version"`
	LogLevel    string            `yaml:"log_level,omitempty"` // debug, info, warn, error; empty is silent
	Wlan        WlanConfig        `yaml:"wlan"`
	Radio       RadioConfig       `yaml:"radio"`
	Storage     StorageConfig     `yaml:"storage"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
}

// WlanConfig tunes the station manager.
type WlanConfig struct {
	ScanAPCountMax   int            `yaml:"scan_ap_count_max"`  // Scan results read per SCAN_DONE
	ScanIntervalMs   int            `yaml:"scan_interval_ms"`   // Periodic scan period
	DefaultSSID      string         `yaml:"default_ssid"`       // Seeded into the store when wlan_ssid is missing
	DefaultPassword  string         `yaml:"default_password"`   // Seeded into the store when wlan_password is missing
	RetryMax         int            `yaml:"retry_max"`          // Reconnect attempts before giving up
	ConnectDelayMs   int            `yaml:"connect_delay_ms"`   // Delay before auto-connecting to the stored network
	DisconnectHideMs int            `yaml:"disconnect_hide_ms"` // How long the DISCONNECT row stays visible
	Timeouts         TimeoutsConfig `yaml:"timeouts"`
	TaskPoolSize     int            `yaml:"task_pool_size"` // Concurrent background tasks
}

// TimeoutsConfig holds per-operation wait bounds in milliseconds.
type TimeoutsConfig struct {
	Init       int `yaml:"init"`
	Start      int `yaml:"start"`
	Stop       int `yaml:"stop"`
	Connect    int `yaml:"connect"`
	Disconnect int `yaml:"disconnect"`
	ScanStart  int `yaml:"scan_start"`
	ScanStop   int `yaml:"scan_stop"`
}

// RadioConfig selects the radio driver.
type RadioConfig struct {
	Driver    string `yaml:"driver"`    // "sim" or "wpa"
	Interface string `yaml:"interface"` // Wireless interface for the wpa driver
}

// StorageConfig selects where settings persist.
type StorageConfig struct {
	Backend string `yaml:"backend"`        // "bolt", "badger" or "memory"
	Path    string `yaml:"path,omitempty"` // Empty means the config directory
}

// DiagnosticsConfig configures the diagnostics server.
type DiagnosticsConfig struct {
	Listen   string `yaml:"listen,omitempty"`   // e.g. ":8765"; empty disables the server
	MDNS     bool   `yaml:"mdns"`               // Announce the server over mDNS while connected
	Instance string `yaml:"instance,omitempty"` // mDNS instance name, defaults to the hostname
}

// Radio drivers
const (
	DriverSim = "sim"
	DriverWPA = "wpa"
)

// Default returns a configuration populated with default values.
func Default() *Config {
	return &Config{
		Version: 1,
		Wlan: WlanConfig{
			ScanAPCountMax:   15,
			ScanIntervalMs:   20000,
			RetryMax:         5,
			ConnectDelayMs:   200,
			DisconnectHideMs: 2000,
			Timeouts: TimeoutsConfig{
				Init:       5000,
				Start:      1000,
				Stop:       1000,
				Connect:    5000,
				Disconnect: 5000,
				ScanStart:  5000,
				ScanStop:   1000,
			},
			TaskPoolSize: 4,
		},
		Radio: RadioConfig{
			Driver:    DriverSim,
			Interface: "wlan0",
		},
		Storage: StorageConfig{
			Backend: "bolt",
		},
	}
}

// Validate rejects values the manager cannot run with.
func (c *Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"wlan.scan_ap_count_max", c.Wlan.ScanAPCountMax},
		{"wlan.scan_interval_ms", c.Wlan.ScanIntervalMs},
		{"wlan.retry_max", c.Wlan.RetryMax},
		{"wlan.disconnect_hide_ms", c.Wlan.DisconnectHideMs},
		{"wlan.task_pool_size", c.Wlan.TaskPoolSize},
		{"wlan.timeouts.init", c.Wlan.Timeouts.Init},
		{"wlan.timeouts.start", c.Wlan.Timeouts.Start},
		{"wlan.timeouts.stop", c.Wlan.Timeouts.Stop},
		{"wlan.timeouts.connect", c.Wlan.Timeouts.Connect},
		{"wlan.timeouts.disconnect", c.Wlan.Timeouts.Disconnect},
		{"wlan.timeouts.scan_start", c.Wlan.Timeouts.ScanStart},
		{"wlan.timeouts.scan_stop", c.Wlan.Timeouts.ScanStop},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.Wlan.ConnectDelayMs < 0 {
		return fmt.Errorf("wlan.connect_delay_ms must not be negative, got %d", c.Wlan.ConnectDelayMs)
	}

	switch c.Radio.Driver {
	case DriverSim:
	case DriverWPA:
		if c.Radio.Interface == "" {
			return fmt.Errorf("radio.interface is required for the wpa driver")
		}
	default:
		return fmt.Errorf("unknown radio.driver %q (expected sim or wpa)", c.Radio.Driver)
	}

	switch c.Storage.Backend {
	case "bolt", "badger", "memory":
	default:
		return fmt.Errorf("unknown storage.backend %q (expected bolt, badger or memory)", c.Storage.Backend)
	}

	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// WlanOptions converts the wlan section into manager options. The caller
// still supplies the driver, storage, view and hooks.
func (c *Config) WlanOptions() wlan.Options {
	opts := wlan.DefaultOptions()
	opts.ScanAPCountMax = c.Wlan.ScanAPCountMax
	opts.ScanInterval = ms(c.Wlan.ScanIntervalMs)
	opts.RetryMax = c.Wlan.RetryMax
	opts.ConnectDelay = ms(c.Wlan.ConnectDelayMs)
	opts.DisconnectHide = ms(c.Wlan.DisconnectHideMs)
	opts.TaskPoolSize = c.Wlan.TaskPoolSize
	opts.Timeouts = wlan.Timeouts{
		Init:       ms(c.Wlan.Timeouts.Init),
		Start:      ms(c.Wlan.Timeouts.Start),
		Stop:       ms(c.Wlan.Timeouts.Stop),
		Connect:    ms(c.Wlan.Timeouts.Connect),
		Disconnect: ms(c.Wlan.Timeouts.Disconnect),
		ScanStart:  ms(c.Wlan.Timeouts.ScanStart),
		ScanStop:   ms(c.Wlan.Timeouts.ScanStop),
	}
	return opts
}
