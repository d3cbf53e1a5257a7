package wlan

// View is the presentation the manager drives. Every method is called
// with the UI lock held and must not block.
type View interface {
	SetWifiIcon(WifiIcon)
	UpdateConnected(n Network, state ConnectState)
	SetConnectedVisible(visible bool)
	UpdateAvailable(nets []Network)
	SetAvailableVisible(visible bool)
	ScrollConnectedIntoView()
}

// NopView discards every update. It is used until a real view is attached.
type NopView struct{}

func (NopView) SetWifiIcon(WifiIcon)                 {}
func (NopView) UpdateConnected(Network, ConnectState) {}
func (NopView) SetConnectedVisible(bool)              {}
func (NopView) UpdateAvailable([]Network)             {}
func (NopView) SetAvailableVisible(bool)              {}
func (NopView) ScrollConnectedIntoView()              {}
