package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mentor/clipboard"
	"mentor/session"
)

// TUI message types
type SnapshotMsg struct{ Snap session.Snapshot }
type VolumeMsg struct{ Level float64 } // 0-100
type copiedMsg struct{ err error }
type tickMsg time.Time

type tuiModel struct {
	ctl           actions
	snap          session.Snapshot
	volume        float64
	frame         int
	cursor        int // selected row in the history list
	width, height int
	deviceLine    string
	note          string // one-shot feedback such as "copied"
	copy          func(string) error
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	listenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	responseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	adviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	barStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("34"))
	barHotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newTUIModel(ctl actions, deviceLine string) tuiModel {
	return tuiModel{ctl: ctl, deviceLine: deviceLine, copy: clipboard.Copy}
}

func NewTUIProgram(ctl *session.Controller, deviceLine string) *tea.Program {
	m := newTUIModel(ctl, deviceLine)
	m.snap = ctl.Snapshot()
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.onKey(msg)

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case SnapshotMsg:
		if msg.Snap.State != m.snap.State {
			m.note = ""
		}
		m.snap = msg.Snap
		if m.cursor >= len(m.snap.Sessions) {
			m.cursor = max(0, len(m.snap.Sessions)-1)
		}

	case VolumeMsg:
		m.volume = msg.Level

	case copiedMsg:
		if msg.err != nil {
			m.note = "copy failed: " + msg.err.Error()
		} else {
			m.note = "transcript copied"
		}
	}
	return m, nil
}

func (m tuiModel) browsing() bool {
	return m.snap.State == session.ViewingHistory || m.snap.State == session.ViewingPastSession
}

func (m tuiModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.snap.Controls
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "s", " ", "space":
		if c.Start {
			m.ctl.Start()
		}
	case "x":
		if c.Stop {
			m.ctl.Stop()
		}
	case "r":
		if c.Restart {
			m.ctl.Restart()
		}
	case "h":
		m.ctl.ViewHistory()
	case "up", "k":
		if m.browsing() && m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.browsing() && m.cursor < len(m.snap.Sessions)-1 {
			m.cursor++
		}
	case "enter", "v":
		if m.browsing() && len(m.snap.Sessions) > 0 {
			m.ctl.ViewSession(m.snap.Sessions[m.cursor].ID)
		}
	case "u":
		if !m.browsing() {
			break
		}
		if m.snap.State == session.ViewingPastSession && m.snap.Selected != nil {
			m.ctl.Resume(m.snap.Selected.ID)
		} else if len(m.snap.Sessions) > 0 {
			m.ctl.Resume(m.snap.Sessions[m.cursor].ID)
		}
	case "c":
		if len(m.snap.Transcript) == 0 {
			break
		}
		text := session.Render(m.snap.Transcript)
		copyFn := m.copy
		return m, func() tea.Msg { return copiedMsg{err: copyFn(text)} }
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	wrapWidth := max(10, m.width-2)

	var b strings.Builder
	b.WriteString(titleStyle.Render("mentor") + dimStyle.Render(" "+version) + "\n\n")
	b.WriteString(m.statusLine() + "\n")
	b.WriteString(m.micLine() + "\n")
	if m.deviceLine != "" {
		b.WriteString(dimStyle.Render(m.deviceLine) + "\n")
	}
	if m.snap.CapabilityError != "" {
		b.WriteString(errorStyle.Render("speech capture unavailable: "+m.snap.CapabilityError) + "\n")
	}
	b.WriteString("\n")

	if m.snap.State == session.ViewingHistory {
		b.WriteString(m.historyList())
	} else {
		b.WriteString(m.transcript(wrapWidth))
	}

	if m.note != "" {
		b.WriteString("\n" + doneStyle.Render(m.note) + "\n")
	}
	b.WriteString("\n" + m.helpLine())

	return lipgloss.NewStyle().
		Width(m.width).
		MaxHeight(m.height).
		PaddingLeft(1).
		Render(b.String())
}

func (m tuiModel) statusLine() string {
	switch m.snap.State {
	case session.Listening:
		return listenStyle.Render(m.snap.Status)
	case session.Error:
		return errorStyle.Render(m.snap.Status)
	case session.Complete:
		return doneStyle.Render(m.snap.Status)
	}
	if m.snap.Status == session.StatusNoSpeech {
		return errorStyle.Render(m.snap.Status)
	}
	return statusStyle.Render(m.snap.Status)
}

// micLine shows the microphone glyph and the level bar.
func (m tuiModel) micLine() string {
	const barWidth = 30
	glyph := dimStyle.Render("○ mic")
	if m.snap.State == session.Listening {
		g := "● mic"
		if m.frame%8 >= 6 {
			g = "◌ mic"
		}
		glyph = listenStyle.Render(g)
	}
	filled := int(m.volume / 100 * barWidth)
	filled = min(barWidth, max(0, filled))
	style := barStyle
	if m.volume > 80 {
		style = barHotStyle
	}
	bar := style.Render(strings.Repeat("█", filled)) + dimStyle.Render(strings.Repeat("░", barWidth-filled))
	return fmt.Sprintf("%s  %s %3.0f", glyph, bar, m.volume)
}

func (m tuiModel) transcript(width int) string {
	if len(m.snap.Transcript) == 0 {
		return dimStyle.Render("No transcript yet") + "\n"
	}
	var b strings.Builder
	if m.snap.State == session.ViewingPastSession && m.snap.Selected != nil {
		label := m.snap.Selected.DisplayName
		if label == "" {
			label = "Session " + string(m.snap.Selected.ID)
		}
		b.WriteString(dimStyle.Render(label) + "\n\n")
	}
	for _, e := range m.snap.Transcript {
		style := responseStyle
		switch e.Kind {
		case session.QuestionEntry:
			style = questionStyle
		case session.AdviceEntry:
			style = adviceStyle
		}
		for _, line := range e.Lines() {
			for _, l := range wrapText(line, width) {
				b.WriteString(style.Render(l) + "\n")
			}
		}
		if e.Kind == session.FeedbackEntry {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m tuiModel) historyList() string {
	if len(m.snap.Sessions) == 0 {
		return dimStyle.Render("No past sessions") + "\n"
	}
	var b strings.Builder
	for i, s := range m.snap.Sessions {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+s.Label()) + "\n")
		} else {
			b.WriteString(responseStyle.Render("  "+s.Label()) + "\n")
		}
	}
	return b.String()
}

// helpLine lists only the keys that do something right now.
func (m tuiModel) helpLine() string {
	c := m.snap.Controls
	var parts []string
	add := func(key, what string) {
		parts = append(parts, helpKeyStyle.Render(key)+helpStyle.Render(" "+what))
	}
	if c.Start {
		add("s", "speak")
	}
	if c.Stop {
		add("x", "stop")
	}
	if c.Restart {
		add("r", "restart")
	}
	add("h", "history")
	if m.browsing() {
		add("↑/↓", "select")
		add("enter", "view")
		add("u", "resume")
	}
	if len(m.snap.Transcript) > 0 {
		add("c", "copy")
	}
	add("q", "quit")
	return strings.Join(parts, helpStyle.Render("  "))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
