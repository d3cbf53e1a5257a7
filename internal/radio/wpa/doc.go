// Package wpa drives a wireless interface through wpa_supplicant's D-Bus
// API (fi.w1.wpa_supplicant1) and reports completions as radio events.
//
// State changes of the interface are mapped as follows:
//
//	completed                    -> STA_CONNECTED
//	attempt/completed -> idle    -> STA_DISCONNECTED (reason from DisconnectReason)
//	4way/group handshake -> idle -> STA_DISCONNECTED(4WAY_HANDSHAKE_TIMEOUT)
//	ScanDone signal              -> SCAN_DONE
//
// STA_START and STA_STOP are raised by the driver itself once the
// interface is bound or released.
package wpa
