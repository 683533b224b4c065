// Package capture records control changes with their timing to a Standard
// MIDI File.
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	ticksPerQuarterNote = 960
	defaultBPM          = 120
)

// Event is one recorded control change.
type Event struct {
	At      time.Duration
	Channel uint8
	CC      uint8
	Value   uint8
}

// Recorder accumulates control changes in arrival order. It is safe for
// concurrent use.
type Recorder struct {
	mu     sync.Mutex
	now    func() time.Time
	start  time.Time
	events []Event
}

// NewRecorder starts a recording at the current time.
func NewRecorder() *Recorder {
	return newRecorder(time.Now)
}

func newRecorder(now func() time.Time) *Recorder {
	return &Recorder{now: now, start: now()}
}

// Add records a control change.
func (r *Recorder) Add(channel, cc, value uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{
		At:      r.now().Sub(r.start),
		Channel: channel,
		CC:      cc,
		Value:   value,
	})
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// WriteFile saves the recording as a two-track SMF at 120 BPM: a tempo
// track and one track of control changes.
func (r *Recorder) WriteFile(path string) error {
	r.mu.Lock()
	events := append([]Event(nil), r.events...)
	r.mu.Unlock()

	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(ticksPerQuarterNote)

	var track0 smf.Track
	track0.Add(0, smf.MetaTempo(defaultBPM))
	track0.Close(0)
	if err := sm.Add(track0); err != nil {
		return fmt.Errorf("error adding tempo track: %w", err)
	}

	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName("possumbox"))
	var lastTick uint32
	for _, e := range events {
		tick := toTicks(e.At)
		track.Add(tick-lastTick, midi.ControlChange(e.Channel, e.CC, e.Value))
		lastTick = tick
	}
	track.Close(0)
	if err := sm.Add(track); err != nil {
		return fmt.Errorf("error adding track: %w", err)
	}

	if err := sm.WriteFile(path); err != nil {
		return fmt.Errorf("error writing MIDI file: %w", err)
	}
	return nil
}

// ReadFile loads the control changes of an SMF, in order, with times
// assuming the file's tempo is 120 BPM.
func ReadFile(path string) ([]Event, error) {
	rd, err := smf.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ticks, ok := rd.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, errors.New("capture: only metric time formats are supported")
	}

	var out []Event
	for _, track := range rd.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)
			var e Event
			if ev.Message.GetControlChange(&e.Channel, &e.CC, &e.Value) {
				e.At = fromTicks(tick, uint64(ticks.Resolution()))
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// toTicks converts elapsed time at defaultBPM.
func toTicks(d time.Duration) uint32 {
	quarters := d.Seconds() * defaultBPM / 60
	return uint32(math.Round(quarters * ticksPerQuarterNote))
}

func fromTicks(tick, resolution uint64) time.Duration {
	quarters := float64(tick) / float64(resolution)
	return time.Duration(quarters * 60 / defaultBPM * float64(time.Second))
}
