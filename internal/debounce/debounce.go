// Package debounce turns a noisy digital input into a stable pressed/released
// signal with edge detection.
package debounce

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DefaultInterval is how long a raw reading must hold before it is accepted.
const DefaultInterval = 10 * time.Millisecond

// Source is a raw digital input. Setup is called once before the first Read.
type Source interface {
	Setup() error
	Read() (bool, error)
}

// PinSource adapts a directly wired GPIO input with its pull-up enabled.
type PinSource struct {
	Pin gpio.PinIn
}

// Setup configures the pin as a pulled-up input.
func (p PinSource) Setup() error {
	if p.Pin == nil {
		return fmt.Errorf("debounce: no pin")
	}
	return p.Pin.In(gpio.PullUp, gpio.NoEdge)
}

// Read returns the raw pin level.
func (p PinSource) Read() (bool, error) {
	if p.Pin == nil {
		return true, fmt.Errorf("debounce: no pin")
	}
	return bool(p.Pin.Read()), nil
}

// Option configures a Debouncer.
type Option func(*Debouncer)

// WithInterval sets the minimum stable duration.
func WithInterval(d time.Duration) Option {
	return func(db *Debouncer) { db.interval = d }
}

// WithPressedLevel sets the raw level that means "pressed". The default is
// low, for inputs pulled up and shorted to ground by the switch.
func WithPressedLevel(level bool) Option {
	return func(db *Debouncer) { db.pressedLevel = level }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(db *Debouncer) { db.now = now }
}

// Debouncer accepts a new state only once the raw reading has been stable
// for the configured interval.
type Debouncer struct {
	src          Source
	interval     time.Duration
	pressedLevel bool
	now          func() time.Time

	debounced bool
	unstable  bool
	changed   bool
	since     time.Time
}

// New creates a Debouncer reading from src.
func New(src Source, opts ...Option) *Debouncer {
	d := &Debouncer{
		src:       src,
		interval:  DefaultInterval,
		now:       time.Now,
		debounced: true,
		unstable:  true,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.debounced = !d.pressedLevel
	d.unstable = d.debounced
	return d
}

// Attach sets up the source and takes the initial reading as the stable
// state, so a button held at boot does not produce an edge.
func (d *Debouncer) Attach() error {
	if err := d.src.Setup(); err != nil {
		return err
	}
	level, err := d.src.Read()
	if err != nil {
		return err
	}
	d.debounced = level
	d.unstable = level
	d.changed = false
	d.since = d.now()
	return nil
}

// Update polls the source once and reports whether the debounced state
// changed on this poll.
func (d *Debouncer) Update() (bool, error) {
	d.changed = false

	level, err := d.src.Read()
	if err != nil {
		return false, err
	}

	now := d.now()
	switch {
	case level != d.unstable:
		d.unstable = level
		d.since = now
	case now.Sub(d.since) >= d.interval && level != d.debounced:
		d.debounced = level
		d.changed = true
		d.since = now
	}
	return d.changed, nil
}

// Pressed reports the debounced state normalized for polarity.
func (d *Debouncer) Pressed() bool {
	return d.debounced == d.pressedLevel
}

// JustPressed is true only on the poll where the state became pressed.
func (d *Debouncer) JustPressed() bool {
	return d.changed && d.Pressed()
}

// JustReleased is true only on the poll where the state became released.
func (d *Debouncer) JustReleased() bool {
	return d.changed && !d.Pressed()
}
