package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/muurk/wlanmgr/internal/logging"
	"github.com/muurk/wlanmgr/internal/settings"
	"github.com/muurk/wlanmgr/internal/wlan"
)

// App is the part of the settings manager the TUI drives.
type App interface {
	ProcessRun() error
	ProcessBack() bool
	ProcessClose() error
	ChangeScreen(settings.Screen)
	EnterDeveloperMode() bool

	OnSwitchToggle(on bool)
	OnAvailableClick(i int) error
	OnKeyboardConfirm(ssid, password string) error

	WlanStateString() string
	WlanScanStateString() string
}

var _ App = (*settings.Manager)(nil)

type redrawMsg struct{}

type errMsg struct{ err error }

// menuEntry is a row on the SETTINGS screen.
type menuEntry struct {
	label  string
	screen settings.Screen
}

var settingsMenu = []menuEntry{
	{"WLAN", settings.ScreenWirelessWlan},
	{"Sound", settings.ScreenMediaSound},
	{"Display", settings.ScreenMediaDisplay},
	{"About", settings.ScreenMoreAbout},
}

// Model is the bubbletea model for the settings app. View state lives in
// Screens; the model copies it on every redrawMsg.
type Model struct {
	app     App
	screens *Screens
	state   ScreenState

	cursor      int
	passwordGen int
	scrollGen   int
	password    textinput.Model

	err      error
	notice   string
	quitting bool

	width  int
	height int
	help   help.Model
	keys   keyMap
}

// NewModel creates the TUI model.
func NewModel(app App, screens *Screens) Model {
	pwd := textinput.New()
	pwd.Placeholder = "password"
	pwd.EchoMode = textinput.EchoPassword
	pwd.EchoCharacter = '•'
	pwd.CharLimit = 64
	pwd.Width = 40

	width, height := GetTerminalSize()
	return Model{
		app:      app,
		screens:  screens,
		state:    screens.State(),
		password: pwd,
		width:    width,
		height:   height,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init builds the screens and marks the UI ready.
func (m Model) Init() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		if err := app.ProcessRun(); err != nil {
			return errMsg{err}
		}
		return redrawMsg{}
	}
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.height = msg.Height
		m.help.Width = m.width
		return m, nil

	case redrawMsg:
		return m.sync(), nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
		m.err = nil
		m.notice = ""
		switch m.state.Screen {
		case settings.ScreenSettings:
			return m.updateSettings(msg)
		case settings.ScreenWirelessWlan:
			return m.updateWlan(msg)
		case settings.ScreenWlanVerification:
			return m.updateVerification(msg)
		case settings.ScreenHome:
			if key.Matches(msg, m.keys.Back) || msg.String() == "q" {
				return m.quit()
			}
			return m, nil
		default:
			return m.updateLeaf(msg)
		}
	}
	return m, nil
}

// sync pulls the latest view state and applies one-shot requests.
func (m Model) sync() Model {
	m.state = m.screens.State()
	if m.state.PasswordGen != m.passwordGen {
		m.passwordGen = m.state.PasswordGen
		m.password.Reset()
	}
	if m.state.ScrollGen != m.scrollGen {
		m.scrollGen = m.state.ScrollGen
		if m.state.Screen == settings.ScreenWirelessWlan {
			m.cursor = 0
		}
	}
	if m.state.Screen == settings.ScreenWlanVerification {
		m.password.Focus()
	} else {
		m.password.Blur()
	}
	m.cursor = clampCursor(m.cursor, m.rows())
	return m
}

func (m Model) rows() int {
	switch m.state.Screen {
	case settings.ScreenSettings:
		return len(settingsMenu)
	case settings.ScreenWirelessWlan:
		if !m.state.AvailableVisible {
			return 0
		}
		return len(m.state.Available)
	default:
		return 0
	}
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, m.rows())
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, m.rows())
	case key.Matches(msg, m.keys.Enter):
		m.app.ChangeScreen(settingsMenu[m.cursor].screen)
		m.cursor = 0
		return m.sync(), nil
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}
	return m, nil
}

func (m Model) updateWlan(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.app.OnSwitchToggle(!m.state.Switch)
		return m.sync(), nil
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, m.rows())
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, m.rows())
	case key.Matches(msg, m.keys.Enter):
		if m.rows() == 0 {
			return m, nil
		}
		if err := m.app.OnAvailableClick(m.cursor); err != nil {
			m.err = err
		}
		return m.sync(), nil
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}
	return m, nil
}

func (m Model) updateVerification(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		pwd := m.password.Value()
		if err := m.app.OnKeyboardConfirm("", pwd); err != nil {
			m.err = err
			return m, nil
		}
		m.notice = "Joining " + m.state.VerificationTitle + "..."
		m.password.Reset()
		return m.sync(), nil
	case msg.Type == tea.KeyEsc:
		return m.back()
	}
	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m Model) updateLeaf(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.state.Screen == settings.ScreenMoreAbout && key.Matches(msg, m.keys.Developer):
		if !m.app.EnterDeveloperMode() {
			m.notice = "Developer mode is not available"
		}
		return m, nil
	case key.Matches(msg, m.keys.Back):
		return m.back()
	}
	return m, nil
}

// back walks one screen back and closes the app once HOME is reached.
func (m Model) back() (tea.Model, tea.Cmd) {
	if m.app.ProcessBack() {
		m.cursor = 0
		return m.sync(), nil
	}
	return m.quit()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.state.Built {
		if err := m.app.ProcessClose(); err != nil {
			logging.Warn("Failed to close settings screens", zap.Error(err))
		}
	}
	m.quitting = true
	return m.sync(), tea.Quit
}

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state.Screen {
	case settings.ScreenSettings:
		body = m.viewSettings()
	case settings.ScreenWirelessWlan:
		body = m.viewWlan()
	case settings.ScreenWlanVerification:
		body = m.viewVerification()
	case settings.ScreenMediaSound, settings.ScreenMediaDisplay, settings.ScreenWlanSoftAP:
		body = ItemStyle.Render("Nothing to configure here yet.")
	case settings.ScreenMoreAbout:
		body = m.viewAbout()
	default:
		body = ItemStyle.Render("Starting...")
	}

	parts := []string{m.statusBar(), TitleStyle.Render(screenTitle(m.state.Screen)), body}
	if m.notice != "" {
		parts = append(parts, ItemStyle.Render(ConnectingStyle.Render(m.notice)))
	}
	if m.err != nil {
		parts = append(parts, ItemStyle.Render(ErrorMessageStyle.Render(FailureMarker+" "+m.err.Error())))
	}
	parts = append(parts, HelpStyle.Render(m.help.View(m.keys.forScreen(m.state.Screen))))

	return BoxStyle(m.width, PrimaryColor).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m Model) statusBar() string {
	return StatusBarStyle.Render(fmt.Sprintf("%s  %s  scan %s",
		IconGlyph(m.state.Icon), m.app.WlanStateString(), m.app.WlanScanStateString()))
}

func (m Model) viewSettings() string {
	var b strings.Builder
	for i, e := range settingsMenu {
		b.WriteString(renderRow(e.label, i == m.cursor))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) viewWlan() string {
	var b strings.Builder

	sw := SwitchOffStyle.Render("[ off ]")
	if m.state.Switch {
		sw = SwitchOnStyle.Render("[ on ]")
	}
	b.WriteString(ItemStyle.Render("WLAN " + sw))

	if m.state.ConnectedVisible {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Connected"))
		b.WriteString("\n")
		b.WriteString(ItemStyle.Render(connectedLine(m.state.Connected, m.state.ConnectState)))
	}

	if m.state.AvailableVisible {
		b.WriteString("\n")
		b.WriteString(SectionStyle.Render("Available networks"))
		if len(m.state.Available) == 0 {
			b.WriteString("\n")
			b.WriteString(ItemStyle.Render(SwitchOffStyle.Render("Scanning...")))
		}
		for _, n := range m.visibleRows() {
			b.WriteString("\n")
			b.WriteString(renderRow(networkLine(n.net), n.index == m.cursor))
		}
	}
	return b.String()
}

type indexedNetwork struct {
	index int
	net   wlan.Network
}

// visibleRows windows the available list around the cursor so it fits
// the terminal.
func (m Model) visibleRows() []indexedNetwork {
	limit := m.height - 14
	if limit < 3 {
		limit = 3
	}
	start := 0
	if m.cursor >= limit {
		start = m.cursor - limit + 1
	}
	end := start + limit
	if end > len(m.state.Available) {
		end = len(m.state.Available)
	}
	out := make([]indexedNetwork, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, indexedNetwork{index: i, net: m.state.Available[i]})
	}
	return out
}

func (m Model) viewVerification() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		ItemStyle.Render("Network: "+m.state.VerificationTitle),
		ItemStyle.Render(m.password.View()),
	)
}

func (m Model) viewAbout() string {
	return ItemStyle.Render("wlanmgr station manager")
}

func renderRow(label string, selected bool) string {
	if selected {
		return SelectedItemStyle.Render(CursorMarker + " " + label)
	}
	return ItemStyle.Render(label)
}

func connectedLine(n wlan.Network, s wlan.ConnectState) string {
	switch s {
	case wlan.ConnectConnecting:
		return ConnectingStyle.Render(n.SSID + "  connecting...")
	case wlan.ConnectDisconnect:
		return SwitchOffStyle.Render(n.SSID + "  disconnected")
	default:
		return SwitchOnStyle.Render(SuccessMarker+" ") + networkLine(n)
	}
}

func screenTitle(s settings.Screen) string {
	switch s {
	case settings.ScreenSettings:
		return "Settings"
	case settings.ScreenWirelessWlan:
		return "WLAN"
	case settings.ScreenWlanVerification:
		return "Enter password"
	case settings.ScreenWlanSoftAP:
		return "Soft AP"
	case settings.ScreenMediaSound:
		return "Sound"
	case settings.ScreenMediaDisplay:
		return "Display"
	case settings.ScreenMoreAbout:
		return "About"
	default:
		return "wlanmgr"
	}
}

func clampCursor(c, rows int) int {
	if rows == 0 || c < 0 {
		return 0
	}
	if c >= rows {
		return rows - 1
	}
	return c
}

// Run shows the settings TUI until the user leaves it or ctx ends.
func Run(ctx context.Context, app App, screens *Screens, opts ...tea.ProgramOption) error {
	model := NewModel(app, screens)
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(model, opts...)

	// Handlers run inside Update, so the redraw must not wait on the
	// program's message loop.
	screens.OnChange(func() { go p.Send(redrawMsg{}) })
	defer screens.OnChange(nil)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
