// Package tui is the host-side monitor: it plays the part of the DAW
// script, showing what the surface sends and answering with track counts
// and LED feedback.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/possumbox/internal/capture"
	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/control"
)

const (
	maxMessageHistory = 20
	visibleHistory    = 10
)

// CCMsg is a control change received from the surface. Send it to the
// program from the MIDI listener.
type CCMsg struct {
	CC    uint8
	Value uint8
}

// LayoutMsg replaces the layout on screen. Values and LED state already
// seen are kept for controls whose CC is unchanged.
type LayoutMsg struct {
	Controls []config.ControlConfig
}

// ErrMsg reports a failure outside the update loop, such as a layout that
// no longer parses. The next LayoutMsg clears it.
type ErrMsg struct{ Err error }

// Config wires a Model to the surface.
type Config struct {
	// Port is shown in the header.
	Port    string
	Channel uint8
	TrackCC uint8
	// Controls is the surface layout, used to name incoming CCs.
	Controls []config.ControlConfig
	// Send writes a control change back to the surface.
	Send control.SendFunc
	// Recorder, when set, receives every incoming control change.
	Recorder *capture.Recorder
}

type row struct {
	name   string
	cc     uint8
	track  uint8
	kind   control.Kind
	color  string
	value  uint8
	seen   bool
	lit    bool
	button bool
}

// Model is the monitor's bubbletea model.
type Model struct {
	cfg        Config
	rows       []row
	byCC       map[uint8]int
	buttons    []int
	selected   int
	trackCount int

	messageHistory []string
	messageCount   int
	message        string
	err            error
	width          int
	height         int
}

// New builds a monitor for the given layout.
func New(cfg Config) *Model {
	m := &Model{
		cfg:            cfg,
		trackCount:     -1,
		messageHistory: make([]string, 0, maxMessageHistory),
	}
	m.setControls(cfg.Controls)
	return m
}

func (m *Model) setControls(controls []config.ControlConfig) {
	prev := make(map[uint8]row, len(m.rows))
	for _, r := range m.rows {
		prev[r.cc] = r
	}

	m.rows = nil
	m.buttons = nil
	m.byCC = make(map[uint8]int, len(controls))
	for _, c := range controls {
		kind, err := control.ParseKind(c.Kind)
		if err != nil {
			continue
		}
		r := row{
			name:   c.Name,
			cc:     uint8(c.CC),
			track:  c.TrackIndex(),
			kind:   kind,
			color:  c.Color,
			button: kind == control.KindButton || kind == control.KindExpanderButton,
		}
		if p, ok := prev[r.cc]; ok {
			r.value, r.seen = p.value, p.seen
			r.lit = p.lit && r.button
		}
		m.byCC[r.cc] = len(m.rows)
		if r.button {
			m.buttons = append(m.buttons, len(m.rows))
		}
		m.rows = append(m.rows, r)
	}
	if m.selected >= len(m.buttons) {
		m.selected = max(len(m.buttons)-1, 0)
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case CCMsg:
		m.handleCC(msg)
		m.messageCount++
		return m, nil

	case LayoutMsg:
		m.setControls(msg.Controls)
		m.err = nil
		m.message = fmt.Sprintf("Layout reloaded: %d controls", len(m.rows))
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleCC(msg CCMsg) {
	if m.cfg.Recorder != nil {
		m.cfg.Recorder.Add(m.cfg.Channel, msg.CC, msg.Value)
	}

	name := "?"
	if i, ok := m.byCC[msg.CC]; ok {
		r := &m.rows[i]
		r.value = msg.Value
		r.seen = true
		name = r.name
	}
	m.addHistory(fmt.Sprintf("CC: Ch%d ctrl:%-3d val:%-3d %s", m.cfg.Channel+1, msg.CC, msg.Value, name))
}

func (m *Model) addHistory(message string) {
	m.messageHistory = append([]string{message}, m.messageHistory...)
	if len(m.messageHistory) > maxMessageHistory {
		m.messageHistory = m.messageHistory[:maxMessageHistory]
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "0", "1", "2", "3", "4", "5", "6", "7", "8":
		m.sendTrackCount(int(key[0] - '0'))
	case "m":
		m.sendTrackCount(int(control.MasterTrack))
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.buttons)-1 {
			m.selected++
		}
	case " ":
		m.toggleFeedback()
	case "c":
		m.messageHistory = m.messageHistory[:0]
		m.messageCount = 0
		m.message = "Log cleared"
	}
	return m, nil
}

func (m *Model) sendTrackCount(n int) {
	if err := m.send(m.cfg.TrackCC, uint8(n)); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.trackCount = n
	if n == int(control.MasterTrack) {
		m.message = "Sent master sentinel"
		return
	}
	m.message = fmt.Sprintf("Sent track count %d", n)
}

func (m *Model) toggleFeedback() {
	if len(m.buttons) == 0 {
		return
	}
	r := &m.rows[m.buttons[m.selected]]
	var v uint8
	if !r.lit {
		v = 127
	}
	if err := m.send(r.cc, v); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	r.lit = !r.lit
	m.message = fmt.Sprintf("Sent %s feedback %d", r.name, v)
}

func (m *Model) send(cc, value uint8) error {
	if m.cfg.Send == nil {
		return fmt.Errorf("no MIDI output")
	}
	return m.cfg.Send(cc, value)
}

// enabled mirrors the surface's rule for the last track count sent.
func (m *Model) enabled(r row) bool {
	if m.trackCount < 0 || m.trackCount == int(control.MasterTrack) || r.track == control.MasterTrack {
		return true
	}
	return int(r.track) <= m.trackCount
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("PossumBox Monitor") + "\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
		b.WriteString(helpStyle.Render("Press q to quit"))
		return b.String()
	}

	b.WriteString(subtitleStyle.Render("MIDI Port: ") + statusStyle.Render(m.cfg.Port) + "\n")
	b.WriteString(subtitleStyle.Render("Channel: ") + fmt.Sprintf("%d", m.cfg.Channel+1) + "\n")
	switch m.trackCount {
	case -1:
		b.WriteString(subtitleStyle.Render("Track count: ") + "(not sent)\n")
	case int(control.MasterTrack):
		b.WriteString(subtitleStyle.Render("Track count: ") + "master\n")
	default:
		b.WriteString(subtitleStyle.Render("Track count: ") + fmt.Sprintf("%d", m.trackCount) + "\n")
	}
	if m.cfg.Recorder != nil {
		b.WriteString(statusStyle.Render(fmt.Sprintf("● Recording (%d events)", m.cfg.Recorder.Len())) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(m.viewControls())

	b.WriteString("\n" + subtitleStyle.Render(fmt.Sprintf("Message Log: [%d total]", m.messageCount)) + "\n")
	if len(m.messageHistory) == 0 {
		b.WriteString("  " + logStyle.Render("(waiting for input)") + "\n")
	} else {
		for i, msg := range m.messageHistory[:min(len(m.messageHistory), visibleHistory)] {
			if i == 0 {
				b.WriteString("  " + logHighlightStyle.Render("▶ "+msg) + "\n")
			} else {
				b.WriteString("  " + logStyle.Render("  "+msg) + "\n")
			}
		}
	}

	if m.message != "" {
		b.WriteString("\n" + m.message + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("0-8: track count • m: master • ↑↓/jk: select button • space: LED feedback"))
	b.WriteString("\n" + helpStyle.Render("c: clear log • q: quit"))

	return b.String()
}

func (m *Model) viewControls() string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render("Controls:") + "\n")

	sel := -1
	if len(m.buttons) > 0 {
		sel = m.buttons[m.selected]
	}

	for i, r := range m.rows {
		cursor := "  "
		if i == sel {
			cursor = "> "
		}
		track := "M"
		if r.track != control.MasterTrack {
			track = fmt.Sprintf("%d", r.track)
		}
		value := "   "
		if r.seen {
			value = fmt.Sprintf("%3d", r.value)
		}
		led := ""
		if r.button {
			led = "○"
			if r.lit {
				led = "●"
			}
			led = ColorStyle(r.color).Render(led)
		}
		line := fmt.Sprintf("%s%-6s cc%-3d t%-2s %s %s", cursor, r.name, r.cc, track, valueStyle.Render(value), led)
		switch {
		case !m.enabled(r):
			line = dimStyle.Render(line)
		case i == sel:
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
