// Package radio defines the Wi-Fi station driver the manager talks to.
//
// A Driver accepts imperative calls (init, start, connect, scan...) and
// reports their completion asynchronously as Events delivered on a
// goroutine the driver owns. Two implementations exist:
//
//   - Sim, an in-process radio used by tests and by `wlanmgr run --driver sim`
//   - wpa.Driver (package radio/wpa), backed by wpa_supplicant over D-Bus
//
// Driver failures are reported as *DriverError values carrying an
// ErrorType and a Retryable flag.
package radio
