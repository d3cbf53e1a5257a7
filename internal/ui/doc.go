// Package ui renders wlanmgr in the terminal.
//
// The interactive part is a Bubble Tea program for the settings app.
// Screens implements settings.View: the managers call it with the UI lock
// held, so it only records state and asks the program to redraw. Model
// copies that state on each redraw and turns key presses into settings
// handler calls.
//
// The non-interactive part is Printer, used by commands that print a
// result and exit, such as status and discover.
//
// Logging is controlled via WLANMGR_LOG_LEVEL. Leave it unset while the
// TUI runs, or send logs to a file, so zap output does not tear the
// screen.
package ui
