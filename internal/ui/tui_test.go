package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/wlanmgr/internal/settings"
	"github.com/muurk/wlanmgr/internal/wlan"
)

// fakeApp drives a Screens the way the settings manager would and
// records the handler calls.
type fakeApp struct {
	screens *Screens
	screen  settings.Screen

	switchToggles []bool
	clicks        []int
	confirms      []string
	closed        int
	devMode       bool
	clickErr      error
}

func newFakeApp() *fakeApp {
	return &fakeApp{screens: NewScreens()}
}

func (a *fakeApp) ProcessRun() error {
	_ = a.screens.Build()
	a.ChangeScreen(settings.ScreenSettings)
	return nil
}

func (a *fakeApp) ProcessBack() bool {
	t, ok := settings.BackTarget(a.screen)
	if !ok {
		return false
	}
	a.ChangeScreen(t)
	return t != settings.ScreenHome
}

func (a *fakeApp) ProcessClose() error {
	a.closed++
	return a.screens.Teardown()
}

func (a *fakeApp) ChangeScreen(s settings.Screen) {
	a.screen = s
	a.screens.ShowScreen(s)
}

func (a *fakeApp) EnterDeveloperMode() bool { return a.devMode }

func (a *fakeApp) OnSwitchToggle(on bool) {
	a.switchToggles = append(a.switchToggles, on)
	a.screens.SetSwitch(on)
}

func (a *fakeApp) OnAvailableClick(i int) error {
	a.clicks = append(a.clicks, i)
	if a.clickErr != nil {
		return a.clickErr
	}
	a.screens.SetVerificationTitle(a.screens.State().Available[i].SSID)
	a.screens.ClearPassword()
	a.ChangeScreen(settings.ScreenWlanVerification)
	return nil
}

func (a *fakeApp) OnKeyboardConfirm(ssid, password string) error {
	a.confirms = append(a.confirms, password)
	a.ProcessBack()
	return nil
}

func (a *fakeApp) WlanStateString() string     { return "STARTED" }
func (a *fakeApp) WlanScanStateString() string { return "DONE" }

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func started(t *testing.T) (*fakeApp, Model) {
	t.Helper()
	app := newFakeApp()
	m := NewModel(app, app.screens)
	msg := m.Init()()
	if _, ok := msg.(redrawMsg); !ok {
		t.Fatalf("Init() message = %T, want redrawMsg", msg)
	}
	m, _ = update(t, m, msg)
	if m.state.Screen != settings.ScreenSettings {
		t.Fatalf("screen after Init = %v, want SETTINGS", m.state.Screen)
	}
	return app, m
}

func TestModelNavigatesToWlan(t *testing.T) {
	app, m := started(t)

	m, _ = update(t, m, keyMsg("enter"))
	if app.screen != settings.ScreenWirelessWlan {
		t.Fatalf("screen = %v, want WIRELESS_WLAN", app.screen)
	}
	if !strings.Contains(m.View(), "WLAN") {
		t.Errorf("View() does not show the WLAN screen:\n%s", m.View())
	}

	m, _ = update(t, m, keyMsg("s"))
	if len(app.switchToggles) != 1 || !app.switchToggles[0] {
		t.Fatalf("switch toggles = %v, want [true]", app.switchToggles)
	}
	if !m.state.Switch {
		t.Error("model did not pick up the switch state")
	}
}

func TestModelMenuSelection(t *testing.T) {
	tests := []struct {
		name  string
		downs int
		want  settings.Screen
	}{
		{"wlan", 0, settings.ScreenWirelessWlan},
		{"sound", 1, settings.ScreenMediaSound},
		{"display", 2, settings.ScreenMediaDisplay},
		{"about", 3, settings.ScreenMoreAbout},
		{"clamped", 10, settings.ScreenMoreAbout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, m := started(t)
			for i := 0; i < tt.downs; i++ {
				m, _ = update(t, m, keyMsg("down"))
			}
			update(t, m, keyMsg("enter"))
			if app.screen != tt.want {
				t.Errorf("screen = %v, want %v", app.screen, tt.want)
			}
		})
	}
}

func TestModelJoinLockedNetwork(t *testing.T) {
	app, m := started(t)
	m, _ = update(t, m, keyMsg("enter"))

	app.screens.UpdateAvailable([]wlan.Network{
		{SSID: "Home", Locked: true, Level: wlan.SignalGood},
		{SSID: "Cafe", Level: wlan.SignalModerate},
	})
	app.screens.SetAvailableVisible(true)
	m, _ = update(t, m, redrawMsg{})

	if !strings.Contains(m.View(), "Cafe") {
		t.Fatalf("View() does not list networks:\n%s", m.View())
	}

	m, _ = update(t, m, keyMsg("enter"))
	if len(app.clicks) != 1 || app.clicks[0] != 0 {
		t.Fatalf("clicks = %v, want [0]", app.clicks)
	}
	if m.state.Screen != settings.ScreenWlanVerification {
		t.Fatalf("screen = %v, want WLAN_VERIFICATION", m.state.Screen)
	}

	m, _ = update(t, m, keyMsg("secret"))
	m, _ = update(t, m, keyMsg("enter"))
	if len(app.confirms) != 1 || app.confirms[0] != "secret" {
		t.Fatalf("confirms = %v, want [secret]", app.confirms)
	}
	if m.state.Screen != settings.ScreenWirelessWlan {
		t.Errorf("screen after confirm = %v, want WIRELESS_WLAN", m.state.Screen)
	}
	if m.password.Value() != "" {
		t.Errorf("password not cleared: %q", m.password.Value())
	}
}

func TestModelClickError(t *testing.T) {
	app, m := started(t)
	app.clickErr = errors.New("gone")
	m, _ = update(t, m, keyMsg("enter"))

	app.screens.UpdateAvailable([]wlan.Network{{SSID: "Home"}})
	app.screens.SetAvailableVisible(true)
	m, _ = update(t, m, redrawMsg{})

	m, _ = update(t, m, keyMsg("enter"))
	if m.err == nil {
		t.Fatal("expected the click error to be shown")
	}
	if !strings.Contains(m.View(), "gone") {
		t.Errorf("View() does not show the error:\n%s", m.View())
	}
}

func TestModelBackClosesAtHome(t *testing.T) {
	app, m := started(t)
	m, _ = update(t, m, keyMsg("enter"))

	m, cmd := update(t, m, keyMsg("esc"))
	if isQuit(cmd) {
		t.Fatal("quit while going back to SETTINGS")
	}
	if m.state.Screen != settings.ScreenSettings {
		t.Fatalf("screen = %v, want SETTINGS", m.state.Screen)
	}

	m, cmd = update(t, m, keyMsg("esc"))
	if !isQuit(cmd) {
		t.Fatal("expected quit once HOME is reached")
	}
	if app.closed != 1 {
		t.Errorf("ProcessClose calls = %d, want 1", app.closed)
	}
	if m.View() != "" {
		t.Errorf("View() after quit = %q, want empty", m.View())
	}
}

func TestModelDeveloperMode(t *testing.T) {
	app, m := started(t)
	for i := 0; i < 3; i++ {
		m, _ = update(t, m, keyMsg("down"))
	}
	m, _ = update(t, m, keyMsg("enter"))

	m, _ = update(t, m, keyMsg("D"))
	if m.notice == "" {
		t.Error("expected a notice when developer mode is refused")
	}

	app.devMode = true
	m, _ = update(t, m, keyMsg("D"))
	if m.notice != "" {
		t.Errorf("notice = %q, want none", m.notice)
	}
}

func TestModelCtrlCQuits(t *testing.T) {
	app, m := started(t)
	_, cmd := update(t, m, keyMsg("ctrl+c"))
	if !isQuit(cmd) {
		t.Fatal("ctrl+c did not quit")
	}
	if app.closed != 1 {
		t.Errorf("ProcessClose calls = %d, want 1", app.closed)
	}
}

func TestScreensRedraw(t *testing.T) {
	v := NewScreens()
	redraws := 0
	v.OnChange(func() { redraws++ })

	if err := v.Teardown(); !errors.Is(err, ErrNotBuilt) {
		t.Fatalf("Teardown() before Build = %v, want ErrNotBuilt", err)
	}
	if err := v.Build(); err != nil {
		t.Fatal(err)
	}
	v.UpdateAvailable([]wlan.Network{{SSID: "a"}})
	v.ClearPassword()
	v.ScrollConnectedIntoView()

	s := v.State()
	if !s.Built || s.PasswordGen != 1 || s.ScrollGen != 1 {
		t.Fatalf("state = %+v", s)
	}
	if redraws != 5 {
		t.Errorf("redraws = %d, want 5", redraws)
	}

	s.Available[0].SSID = "mutated"
	if v.State().Available[0].SSID != "a" {
		t.Error("State() shares the available slice")
	}
}

func TestRenderSnapshot(t *testing.T) {
	s := wlan.Snapshot{
		State:      "CONNECTED",
		ScanState:  "DONE",
		Switch:     true,
		RetryCount: 2,
		Connected:  &wlan.Network{SSID: "Home", Locked: true, Level: wlan.SignalGood},
		Available:  []wlan.Network{{SSID: "Cafe", Level: wlan.SignalWeak}},
	}
	out := RenderSnapshot(s, 80)
	for _, want := range []string{"CONNECTED", "Home", "Cafe", "Available (1)", "on"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSnapshot() missing %q:\n%s", want, out)
		}
	}
}

func TestPrinter(t *testing.T) {
	var b strings.Builder
	p := NewPrinter(&b)
	p.PrintHeader("Status", "wlanmgr status", map[string]string{"Address": "127.0.0.1:8080"})
	p.PrintError("Unreachable", errors.New("connection refused"))

	out := b.String()
	for _, want := range []string{"STATUS", "127.0.0.1:8080", "connection refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
