package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/muurk/wlanmgr/internal/settings"
)

// keyMap holds every binding the settings TUI understands.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Enter     key.Binding
	Toggle    key.Binding
	Confirm   key.Binding
	Back      key.Binding
	Developer key.Binding
	Quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "s"),
			key.WithHelp("space/s", "wlan on/off"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "join"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Developer: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "developer mode"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// screenKeys adapts a binding list to help.KeyMap.
type screenKeys []key.Binding

func (k screenKeys) ShortHelp() []key.Binding  { return k }
func (k screenKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

// forScreen returns the bindings shown in the help line.
func (k keyMap) forScreen(s settings.Screen) screenKeys {
	switch s {
	case settings.ScreenSettings:
		return screenKeys{k.Up, k.Down, k.Enter, k.Back}
	case settings.ScreenWirelessWlan:
		return screenKeys{k.Toggle, k.Up, k.Down, k.Enter, k.Back}
	case settings.ScreenWlanVerification:
		// backspace edits the password here.
		return screenKeys{k.Confirm, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel"))}
	case settings.ScreenMoreAbout:
		return screenKeys{k.Developer, k.Back}
	default:
		return screenKeys{k.Back, k.Quit}
	}
}
