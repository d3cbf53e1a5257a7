package wlan

import "errors"

var (
	// ErrTimeout is returned when a blocking orchestration call does not
	// see its operation finish in time. The operation may still complete.
	ErrTimeout = errors.New("wlan: operation timed out")
	// ErrInvalidOperation is returned for operation values outside the enum.
	ErrInvalidOperation = errors.New("wlan: invalid operation")
	// ErrBusy is returned by Try when the request conflicts with an
	// operation in flight (a scan while connecting).
	ErrBusy = errors.New("wlan: busy")
	// ErrClosed is returned once the manager's worker has stopped.
	ErrClosed = errors.New("wlan: manager closed")
	// ErrNoCredentials is returned by CONNECT without a connecting SSID.
	ErrNoCredentials = errors.New("wlan: no connecting ssid")
)
