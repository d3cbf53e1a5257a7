package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/wlanmgr/internal/wlan"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders, focus
	SuccessColor = lipgloss.Color("#43BF6D") // Green - connected, switch on
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - connecting, locked
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
)

var (
	// TitleStyle is the screen title ("WLAN", "Settings").
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	// StatusBarStyle carries the wifi icon and the station state.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Bold(true).
			PaddingLeft(1).
			MarginTop(1)

	ItemStyle = lipgloss.NewStyle().
			PaddingLeft(3).
			Foreground(TextColor)

	SelectedItemStyle = lipgloss.NewStyle().
				PaddingLeft(1).
				Foreground(SuccessColor).
				Bold(true)

	SwitchOnStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	SwitchOffStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	ConnectingStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Italic(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingTop(1)

	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	SuccessTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	ErrorTitleStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(18)

	ResultValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)
)

// Markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	CursorMarker  = "▸"
	LockMarker    = "🔒"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _ := GetTerminalSize()
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24
	}
	return clampWidth(width), height
}

func clampWidth(width int) int {
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// BoxStyle returns the rounded border used for screens and headers.
func BoxStyle(width int, color lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Width(width-2).
		Padding(0, 1)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	if width < 1 {
		width = 1
	}
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}

// IconGlyph renders the status-bar wifi icon.
func IconGlyph(icon wlan.WifiIcon) string {
	switch icon {
	case wlan.IconSignal1:
		return "▂"
	case wlan.IconSignal2:
		return "▂▄"
	case wlan.IconSignal3:
		return "▂▄▆"
	case wlan.IconClosed:
		return "✕"
	default:
		return "○"
	}
}

// LevelBars renders a signal level as bars for the network lists.
func LevelBars(level wlan.SignalLevel) string {
	return IconGlyph(wlan.IconFor(level))
}
