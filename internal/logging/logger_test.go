package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type name string

func (n name) String() string { return string(n) }

func TestInitialize_SilentByDefault(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger().Core().Enabled(zapcore.ErrorLevel) {
		t.Errorf("logger enabled at error level, want silent nop logger")
	}
}

func TestInitialize_FromEnv(t *testing.T) {
	t.Setenv(LogLevelEnvVar, "warn")

	if err := Initialize(""); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	core := GetLogger().Core()
	if core.Enabled(zapcore.InfoLevel) {
		t.Errorf("info enabled, want warn threshold")
	}
	if !core.Enabled(zapcore.WarnLevel) {
		t.Errorf("warn disabled, want enabled")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDomainHelpers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	LogStateChange("general", name("STARTING"), name("STARTED"))
	LogOperation(name("CONNECT"), "failed", zap.String("ssid", "Home"))
	LogOperation(name("CONNECT"), "queued")
	LogRadioEvent(name("SCAN_DONE"))

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["from"] != "STARTING" || fields["to"] != "STARTED" {
		t.Errorf("state change fields = %v", fields)
	}
	if entries[1].Level != zapcore.WarnLevel {
		t.Errorf("failed operation level = %v, want warn", entries[1].Level)
	}
	if entries[2].Level != zapcore.DebugLevel {
		t.Errorf("queued operation level = %v, want debug", entries[2].Level)
	}
	if entries[3].ContextMap()["event"] != "SCAN_DONE" {
		t.Errorf("radio event field = %v", entries[3].ContextMap())
	}
}
