package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/muurk/wlanmgr/internal/config"
)

func TestRunStackHeadless(t *testing.T) {
	tests := []struct {
		name    string
		backend string
	}{
		{"memory", "memory"},
		{"bolt", "bolt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.Backend = tt.backend
			cfg.Storage.Path = filepath.Join(t.TempDir(), "settings.db")
			cfg.Diagnostics.Listen = "127.0.0.1:0"

			ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
			defer cancel()

			if err := runStack(ctx, cfg, false); err != nil {
				t.Fatalf("runStack() error = %v", err)
			}
		})
	}
}

func TestResolveAddr(t *testing.T) {
	defer func() { remoteAddr, configPath = "", "" }()

	remoteAddr = "10.0.0.2:9000"
	if got := resolveAddr(); got != "10.0.0.2:9000" {
		t.Errorf("resolveAddr() = %v, want the --addr value", got)
	}

	remoteAddr = ""
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	if got := resolveAddr(); got != defaultDiagnosticsAddr {
		t.Errorf("resolveAddr() = %v, want %v", got, defaultDiagnosticsAddr)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := config.Default()
	cfg.Diagnostics.Listen = ":8765"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	configPath = path
	if got := resolveAddr(); got != "127.0.0.1:8765" {
		t.Errorf("resolveAddr() = %v, want 127.0.0.1:8765", got)
	}
}

func TestDemoNetworksAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, n := range demoNetworks() {
		if seen[n.SSID] {
			t.Errorf("duplicate demo network %q", n.SSID)
		}
		seen[n.SSID] = true
		if n.Auth.String() != "OPEN" && n.Password == "" {
			t.Errorf("locked demo network %q has no password", n.SSID)
		}
	}
}
