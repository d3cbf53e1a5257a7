// Package wlan manages a Wi-Fi station through its whole lifecycle.
//
// A Manager serialises radio operations (INIT, START, CONNECT, SCAN_START
// and their inverses) through a FIFO queue drained by a single worker.
// Each operation is idempotent against the current state and the worker
// waits, bounded, for the radio event that settles it.
//
// Two entry points build on the queue:
//
//	Force  makes an operation happen, forcing its prerequisites first.
//	       A CONNECT while connected disconnects before reconnecting.
//	Try    performs an operation only when the current state allows it.
//
// Radio events arrive on the driver's goroutine and only touch state.
// Rendering happens on a separate UI worker that holds the caller's UI
// lock while it drives the View, so driver callbacks never wait on the
// presentation layer.
//
// Example:
//
//	m, err := wlan.New(wlan.Options{Driver: drv, Storage: st, View: view})
//	if err != nil {
//		return err
//	}
//	if err := m.Start(ctx); err != nil {
//		return err
//	}
//	defer m.Close()
//
//	m.SetSwitch(true)
//	if err := m.Force(wlan.OpStart, time.Second); err != nil {
//		return err
//	}
package wlan
