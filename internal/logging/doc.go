// Package logging provides structured logging for wlanmgr.
//
// This package wraps a global zap logger with convenience functions for
// the patterns used throughout the manager: queued operations, state
// machine transitions, radio events and diagnostics traffic.
//
// # Log Levels
//
//   - Debug: queue traffic, skipped (idempotent) operations, raw events
//   - Info: state transitions, radio events, connections
//   - Warn: failed or timed out operations, retries
//   - Error: driver failures, invalid operations, storage errors
//
// # Structured Logging
//
//	logging.Info("Connect to AP",
//	    zap.String("ssid", "Home"),
//	    zap.Int("retry", 2),
//	)
//
// Domain helpers:
//
//	logging.LogStateChange("general", wlan.StateStarting, wlan.StateStarted)
//	logging.LogOperation(wlan.OpConnect, "queued", zap.String("ticket", id))
//	logging.LogRadioEvent(radio.EventScanDone)
//
// # Configuration
//
// The level comes from the --log-level flag or the WLANMGR_LOG_LEVEL
// environment variable. With neither set the logger is silent:
//
//	if err := logging.Initialize(cfg.LogLevel); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// The interactive settings UI owns the terminal, so `run --tui` logs to a
// file through InitializeToFile instead.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The global logger can
// be swapped with SetLogger, which tests use together with
// go.uber.org/zap/zaptest/observer.
package logging
