package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/wlanmgr/internal/wlan"
)

// Printer writes styled, non-interactive output. The status and discover
// commands use it instead of the full TUI.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	p.Println(RenderHeader(title, command, params, p.width))
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	p.Println(RenderSuccessBox(title, details, p.width))
}

// PrintError prints an error result box
func (p *Printer) PrintError(title string, err error) {
	p.Println(RenderErrorBox(title, err, p.width))
}

// PrintSnapshot prints the station state as reported by a running manager.
func (p *Printer) PrintSnapshot(s wlan.Snapshot) {
	p.Println(RenderSnapshot(s, p.width))
}

// RenderHeader renders a command header box
func RenderHeader(title, command string, params map[string]string, width int) string {
	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(title)),
		HeaderCommandStyle.Render(command),
	)
	if len(params) == 0 {
		return BoxStyle(width, PrimaryColor).Render(top)
	}
	divider := RenderHorizontalDivider(width-6, "─")
	return BoxStyle(width, PrimaryColor).Render(
		lipgloss.JoinVertical(lipgloss.Left, top, divider, renderDetails(params)),
	)
}

// RenderSuccessBox renders a success result box
func RenderSuccessBox(title string, details map[string]string, width int) string {
	lines := []string{
		SuccessTitleStyle.Render(SuccessMarker + "  " + title),
		"",
		renderDetails(details),
	}
	return BoxStyle(width, SuccessColor).Render(strings.Join(lines, "\n"))
}

// RenderErrorBox renders an error result box
func RenderErrorBox(title string, err error, width int) string {
	lines := []string{ErrorTitleStyle.Render(FailureMarker + "  " + title)}
	if err != nil {
		lines = append(lines, "", ErrorMessageStyle.Render("Error: "+err.Error()))
	}
	return BoxStyle(width, ErrorColor).Render(strings.Join(lines, "\n"))
}

// RenderSnapshot renders the station state and its network lists.
func RenderSnapshot(s wlan.Snapshot, width int) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("WLAN STATION"))
	b.WriteString("\n")
	b.WriteString(renderPairs([][2]string{
		{"State", s.State},
		{"Scan", s.ScanState},
		{"Last operation", s.PrevOperation},
		{"Switch", onOff(s.Switch)},
		{"Retries", retryText(s)},
		{"Last event", dash(s.LastEvent)},
	}))
	b.WriteString("\n")

	b.WriteString(SectionStyle.Render("Connected"))
	b.WriteString("\n")
	switch {
	case s.Connected != nil:
		b.WriteString(ItemStyle.Render(networkLine(*s.Connected)))
	case s.Connecting != "":
		b.WriteString(ItemStyle.Render(ConnectingStyle.Render(s.Connecting + "  connecting...")))
	default:
		b.WriteString(ItemStyle.Render("-"))
	}
	b.WriteString("\n")

	b.WriteString(SectionStyle.Render(fmt.Sprintf("Available (%d)", len(s.Available))))
	for _, n := range s.Available {
		b.WriteString("\n")
		b.WriteString(ItemStyle.Render(networkLine(n)))
	}
	return BoxStyle(width, PrimaryColor).Render(b.String())
}

func renderDetails(details map[string]string) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([][2]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, [2]string{k, details[k]})
	}
	return renderPairs(pairs)
}

func renderPairs(pairs [][2]string) string {
	lines := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		lines = append(lines, ResultKeyStyle.Render("  "+kv[0]+":")+" "+ResultValueStyle.Render(kv[1]))
	}
	return strings.Join(lines, "\n")
}

func networkLine(n wlan.Network) string {
	line := fmt.Sprintf("%-4s %s", LevelBars(n.Level), n.SSID)
	if n.Locked {
		line += " " + LockMarker
	}
	return line
}

func retryText(s wlan.Snapshot) string {
	t := strconv.Itoa(s.RetryCount)
	if s.RetryConnecting {
		t += " (retrying)"
	}
	return t
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
