package wpa

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/muurk/wlanmgr/internal/radio"
)

// D-Bus error names raised by wpa_supplicant and the bus daemon.
const (
	errNameInvalidArgs     = "fi.w1.wpa_supplicant1.InvalidArgs"
	errNameUnknownError    = "fi.w1.wpa_supplicant1.UnknownError"
	errNameIfaceUnknown    = "fi.w1.wpa_supplicant1.InterfaceUnknown"
	errNameIfaceExists     = "fi.w1.wpa_supplicant1.InterfaceExists"
	errNameNotConnected    = "fi.w1.wpa_supplicant1.NotConnected"
	errNameNetworkUnknown  = "fi.w1.wpa_supplicant1.NetworkUnknown"
	errNameScanFailed      = "fi.w1.wpa_supplicant1.Interface.ScanError"
	errNameNoReply         = "org.freedesktop.DBus.Error.NoReply"
	errNameServiceUnknown  = "org.freedesktop.DBus.Error.ServiceUnknown"
	errNameTimeout         = "org.freedesktop.DBus.Error.Timeout"
	errNameAccessDenied    = "org.freedesktop.DBus.Error.AccessDenied"
	errNameDisconnectedBus = "org.freedesktop.DBus.Error.Disconnected"
)

// busErrorName returns the D-Bus error name carried by err, if any.
func busErrorName(err error) (string, bool) {
	var de dbus.Error
	if errors.As(err, &de) {
		return de.Name, true
	}
	var dep *dbus.Error
	if errors.As(err, &dep) && dep != nil {
		return dep.Name, true
	}
	return "", false
}

// classifyBusError wraps a failed bus call in a radio.DriverError so the
// manager can tell transport trouble from a rejected request.
func classifyBusError(op string, err error) error {
	if err == nil {
		return nil
	}

	name, ok := busErrorName(err)
	if !ok {
		// Transport level failure (socket closed, marshalling...)
		return radio.NewBusError(op, err)
	}

	switch name {
	case errNameInvalidArgs, errNameNetworkUnknown:
		return &radio.DriverError{Type: radio.ErrTypeInvalidArgument, Op: op, Message: name, Err: err}
	case errNameIfaceUnknown, errNameNotConnected, errNameScanFailed, errNameIfaceExists:
		return &radio.DriverError{Type: radio.ErrTypeState, Op: op, Message: name, Err: err}
	case errNameNoReply, errNameTimeout:
		return &radio.DriverError{Type: radio.ErrTypeTimeout, Op: op, Message: name, Err: err, Retryable: true}
	case errNameServiceUnknown, errNameDisconnectedBus:
		return radio.NewBusError(op, err)
	case errNameAccessDenied:
		return &radio.DriverError{Type: radio.ErrTypeBus, Op: op, Message: "access denied, check the D-Bus policy for wpa_supplicant", Err: err}
	default:
		if strings.HasPrefix(name, "fi.w1.wpa_supplicant1.") {
			return &radio.DriverError{Type: radio.ErrTypeUnknown, Op: op, Message: name, Err: err}
		}
		return radio.NewBusError(op, err)
	}
}

func isBusError(err error, name string) bool {
	n, ok := busErrorName(err)
	return ok && n == name
}
