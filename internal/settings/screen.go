package settings

import "fmt"

// Screen is one page of the settings application.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenSettings
	ScreenMediaSound
	ScreenMediaDisplay
	ScreenWirelessWlan
	ScreenWlanVerification
	ScreenWlanSoftAP
	ScreenMoreAbout
)

var screenNames = map[Screen]string{
	ScreenHome:             "HOME",
	ScreenSettings:         "SETTINGS",
	ScreenMediaSound:       "MEDIA_SOUND",
	ScreenMediaDisplay:     "MEDIA_DISPLAY",
	ScreenWirelessWlan:     "WIRELESS_WLAN",
	ScreenWlanVerification: "WLAN_VERIFICATION",
	ScreenWlanSoftAP:       "WLAN_SOFTAP",
	ScreenMoreAbout:        "MORE_ABOUT",
}

func (s Screen) String() string {
	if name, ok := screenNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Screen(%d)", int(s))
}

// backTargets maps each screen to where the back gesture leads.
var backTargets = map[Screen]Screen{
	ScreenSettings:         ScreenHome,
	ScreenMediaSound:       ScreenSettings,
	ScreenMediaDisplay:     ScreenSettings,
	ScreenWirelessWlan:     ScreenSettings,
	ScreenMoreAbout:        ScreenSettings,
	ScreenWlanVerification: ScreenWirelessWlan,
	ScreenWlanSoftAP:       ScreenWirelessWlan,
}

// BackTarget returns the screen the back gesture leads to from s.
func BackTarget(s Screen) (Screen, bool) {
	t, ok := backTargets[s]
	return t, ok
}
