// Package config provides configuration management for wlanmgr.
//
// The configuration is a YAML file holding the manager's tuning values
// (scan interval, retry bound, per-operation timeouts), the radio driver
// selection, the settings store backend and the diagnostics server.
//
// # Configuration File Location
//
// Unless --config is given, the file is read from:
//   - Linux: $XDG_CONFIG_HOME/wlanmgr/config.yaml or $HOME/.config/wlanmgr/config.yaml
//   - macOS: $HOME/.config/wlanmgr/config.yaml
//   - Windows: %LOCALAPPDATA%\wlanmgr\config.yaml
//
// A missing file is not an error; Default() values are used.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	opts := cfg.WlanOptions()
//	opts.Driver = radio.NewSim(radio.SimConfig{})
package config
