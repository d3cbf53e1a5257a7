package wpa

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/muurk/wlanmgr/internal/radio"
)

// bssToRecord converts the property map of a fi.w1.wpa_supplicant1.BSS
// object into an APRecord.
func bssToRecord(props map[string]dbus.Variant) (radio.APRecord, error) {
	var rec radio.APRecord

	val, ok := props["SSID"]
	if !ok {
		return rec, fmt.Errorf("mandatory property SSID was missing")
	}
	ssid, ok := val.Value().([]byte)
	if !ok {
		return rec, fmt.Errorf("could not convert SSID to bytes: %v", val)
	}
	rec.SSID = string(ssid)

	if val, ok := props["BSSID"]; ok {
		if bssid, ok := val.Value().([]byte); ok {
			rec.BSSID = formatBSSID(bssid)
		}
	}

	if val, ok := props["Signal"]; ok {
		switch v := val.Value().(type) {
		case int16:
			rec.RSSI = int(v)
		case int32:
			rec.RSSI = int(v)
		}
	}

	if val, ok := props["Frequency"]; ok {
		if freq, ok := val.Value().(uint16); ok {
			rec.Channel = channelFromFrequency(int(freq))
		}
	}

	privacy, _ := variantBool(props["Privacy"])
	rec.Auth = authFromKeyMgmt(keyMgmt(props["RSN"]), keyMgmt(props["WPA"]), privacy)

	return rec, nil
}

func variantBool(v dbus.Variant) (bool, bool) {
	if v.Value() == nil {
		return false, false
	}
	b, ok := v.Value().(bool)
	return b, ok
}

// keyMgmt extracts the KeyMgmt list from an RSN or WPA dictionary.
func keyMgmt(v dbus.Variant) []string {
	dict, ok := v.Value().(map[string]dbus.Variant)
	if !ok {
		return nil
	}
	km, ok := dict["KeyMgmt"]
	if !ok {
		return nil
	}
	list, _ := km.Value().([]string)
	return list
}

// authFromKeyMgmt maps wpa_supplicant key management suites onto AuthMode.
func authFromKeyMgmt(rsn, wpa []string, privacy bool) radio.AuthMode {
	has := func(list []string, prefix string) bool {
		for _, s := range list {
			if strings.HasPrefix(s, prefix) {
				return true
			}
		}
		return false
	}

	switch {
	case has(rsn, "wpa-eap") || has(wpa, "wpa-eap"):
		return radio.AuthEnterprise
	case has(rsn, "owe"):
		return radio.AuthOWE
	case has(rsn, "sae") && has(rsn, "wpa-psk"):
		return radio.AuthWPA2WPA3PSK
	case has(rsn, "sae"):
		return radio.AuthWPA3PSK
	case has(rsn, "wpa-psk") && has(wpa, "wpa-psk"):
		return radio.AuthWPAWPA2PSK
	case has(rsn, "wpa-psk"):
		return radio.AuthWPA2PSK
	case has(wpa, "wpa-psk"):
		return radio.AuthWPAPSK
	case privacy:
		return radio.AuthWEP
	default:
		return radio.AuthOpen
	}
}

func formatBSSID(b []byte) string {
	if len(b) != 6 {
		return hex.EncodeToString(b)
	}
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5])
}

// channelFromFrequency converts a centre frequency in MHz to a channel number.
func channelFromFrequency(mhz int) int {
	switch {
	case mhz == 2484:
		return 14
	case mhz >= 2412 && mhz <= 2472:
		return (mhz-2412)/5 + 1
	case mhz >= 5000 && mhz <= 5900:
		return (mhz - 5000) / 5
	case mhz >= 5955 && mhz <= 7115:
		return (mhz - 5950) / 5
	default:
		return 0
	}
}
