package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/icco/possumbox/internal/capture"
	"github.com/icco/possumbox/internal/config"
)

type sent struct{ cc, value uint8 }

type sendLog struct {
	sent []sent
	err  error
}

func (s *sendLog) send(cc, value uint8) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sent{cc, value})
	return nil
}

func testControls() []config.ControlConfig {
	return []config.ControlConfig{
		{Name: "S1", Kind: "expander-button", CC: 50, Track: 1, Color: "blue"},
		{Name: "S5", Kind: "expander-button", CC: 58, Track: 5, Color: "blue"},
		{Name: "G1", Kind: "mux-pot", CC: 20, Track: 1},
		{Name: "PLAY", Kind: "button", CC: 110, Color: "green"},
	}
}

func newTestModel(log *sendLog, rec *capture.Recorder) *Model {
	return New(Config{
		Port:     "test",
		Channel:  7,
		TrackCC:  126,
		Controls: testControls(),
		Send:     log.send,
		Recorder: rec,
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTrackCountKeys(t *testing.T) {
	log := &sendLog{}
	m := newTestModel(log, nil)

	m.Update(runes("4"))
	m.Update(runes("m"))
	m.Update(runes("0"))

	want := []sent{{126, 4}, {126, 127}, {126, 0}}
	if len(log.sent) != len(want) {
		t.Fatalf("sent %v, want %v", log.sent, want)
	}
	for i := range want {
		if log.sent[i] != want[i] {
			t.Errorf("send %d = %v, want %v", i, log.sent[i], want[i])
		}
	}
	if m.trackCount != 0 {
		t.Errorf("trackCount = %d, want 0", m.trackCount)
	}
}

func TestEnabledMirrorsTrackCount(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)

	tests := []struct {
		count int
		want  []bool
	}{
		{-1, []bool{true, true, true, true}},
		{4, []bool{true, false, true, true}},
		{0, []bool{false, false, false, true}},
		{127, []bool{true, true, true, true}},
		{9, []bool{true, true, true, true}},
	}
	for _, tt := range tests {
		m.trackCount = tt.count
		for i, r := range m.rows {
			if got := m.enabled(r); got != tt.want[i] {
				t.Errorf("count %d: %s enabled = %v, want %v", tt.count, r.name, got, tt.want[i])
			}
		}
	}
}

func TestFeedbackTogglesSelectedButton(t *testing.T) {
	log := &sendLog{}
	m := newTestModel(log, nil)

	if len(m.buttons) != 3 {
		t.Fatalf("buttons = %d, want 3", len(m.buttons))
	}

	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})

	want := []sent{{50, 127}, {58, 127}, {50, 0}}
	if len(log.sent) != len(want) {
		t.Fatalf("sent %v, want %v", log.sent, want)
	}
	for i := range want {
		if log.sent[i] != want[i] {
			t.Errorf("send %d = %v, want %v", i, log.sent[i], want[i])
		}
	}
}

func TestSelectionBounds(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)

	m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 0 {
		t.Errorf("selected = %d after up at top", m.selected)
	}
	for i := 0; i < 10; i++ {
		m.Update(runes("j"))
	}
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2", m.selected)
	}
}

func TestSendErrorKeepsState(t *testing.T) {
	log := &sendLog{err: errors.New("port closed")}
	m := newTestModel(log, nil)

	m.Update(runes("3"))
	m.Update(tea.KeyMsg{Type: tea.KeySpace})

	if m.trackCount != -1 {
		t.Errorf("trackCount = %d after failed send", m.trackCount)
	}
	if m.rows[m.buttons[0]].lit {
		t.Error("LED marked lit after failed send")
	}
	if !strings.Contains(m.message, "port closed") {
		t.Errorf("message = %q", m.message)
	}
}

func TestIncomingCC(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)

	m.Update(CCMsg{CC: 20, Value: 64})
	m.Update(CCMsg{CC: 99, Value: 1})

	g1 := m.rows[m.byCC[20]]
	if !g1.seen || g1.value != 64 {
		t.Errorf("G1 = %+v, want value 64", g1)
	}
	if m.messageCount != 2 {
		t.Errorf("messageCount = %d, want 2", m.messageCount)
	}
	if !strings.Contains(m.messageHistory[0], "ctrl:99") {
		t.Errorf("latest history = %q", m.messageHistory[0])
	}
	if !strings.Contains(m.messageHistory[1], "G1") {
		t.Errorf("history = %q, want G1 named", m.messageHistory[1])
	}
}

func TestHistoryBounded(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)
	for i := 0; i < maxMessageHistory+5; i++ {
		m.Update(CCMsg{CC: 20, Value: uint8(i)})
	}
	if len(m.messageHistory) != maxMessageHistory {
		t.Errorf("history len = %d, want %d", len(m.messageHistory), maxMessageHistory)
	}

	m.Update(runes("c"))
	if len(m.messageHistory) != 0 || m.messageCount != 0 {
		t.Errorf("log not cleared: %d entries, count %d", len(m.messageHistory), m.messageCount)
	}
}

func TestRecording(t *testing.T) {
	rec := capture.NewRecorder()
	m := newTestModel(&sendLog{}, rec)

	m.Update(CCMsg{CC: 50, Value: 127})
	m.Update(CCMsg{CC: 20, Value: 12})

	path := filepath.Join(t.TempDir(), "rec.mid")
	if err := rec.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	events, err := capture.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("recorded %d events, want 2", len(events))
	}
	if events[0].Channel != 7 || events[0].CC != 50 || events[0].Value != 127 {
		t.Errorf("first event = %+v", events[0])
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestView(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)
	m.Update(runes("4"))
	m.Update(CCMsg{CC: 110, Value: 127})

	out := m.View()
	for _, want := range []string{"PossumBox Monitor", "Track count: ", "S1", "PLAY", "ctrl:110"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}

	m.Update(ErrMsg{Err: errors.New("lost port")})
	if !strings.Contains(m.View(), "lost port") {
		t.Error("View() does not show the error")
	}
}

func TestLayoutReloadKeepsValues(t *testing.T) {
	m := newTestModel(&sendLog{}, nil)
	m.Update(CCMsg{CC: 20, Value: 90})
	m.Update(tea.KeyMsg{Type: tea.KeySpace})

	m.Update(LayoutMsg{Controls: []config.ControlConfig{
		{Name: "S1", Kind: "expander-button", CC: 50, Track: 1, Color: "blue"},
		{Name: "Gain1", Kind: "mux-pot", CC: 20, Track: 1},
		{Name: "bad", Kind: "slider", CC: 30},
	}})

	if len(m.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(m.rows))
	}
	g := m.rows[m.byCC[20]]
	if g.name != "Gain1" || g.value != 90 || !g.seen {
		t.Errorf("pot after reload = %+v", g)
	}
	if !m.rows[m.byCC[50]].lit {
		t.Error("LED state lost on reload")
	}
	if len(m.buttons) != 1 || m.selected != 0 {
		t.Errorf("buttons = %v, selected = %d", m.buttons, m.selected)
	}
}
