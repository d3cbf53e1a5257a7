// Package settings is the settings application built on the wlan manager.
//
// It restores the persisted WLAN switch at start-up, drives navigation
// between screens and turns user actions (switch toggles, network taps,
// password entry) into wlan orchestration calls. Screen changes and
// developer-mode requests are reported on a Signal whose slots are
// combined first-true.
//
// Lifecycle mirrors an app hosted by a launcher:
//
//	ProcessInit  start the station manager and restore the switch
//	ProcessRun   build screens and mark the UI ready
//	ProcessBack  navigate back; false means the host should close the app
//	ProcessClose tear screens down; the station keeps running
package settings
