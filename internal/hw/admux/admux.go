// Package admux drives a CD4051-style analog multiplexer whose select lines
// are shared by every control wired through it.
package admux

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// ErrChannel is returned for channels the select lines cannot address.
var ErrChannel = errors.New("admux: channel out of range")

// Option configures a Bus.
type Option func(*Bus)

// WithSettle waits after switching channels before sampling.
func WithSettle(d time.Duration) Option {
	return func(b *Bus) { b.settle = d }
}

// Bus is the shared select-line set. Every read through the mux must go
// through Sample so a select is always followed by its own read.
type Bus struct {
	mu      sync.Mutex
	sel     []gpio.PinOut
	settle  time.Duration
	current int
	sleep   func(time.Duration)
}

// New returns a bus driven by the given select lines, least significant
// first.
func New(sel []gpio.PinOut, opts ...Option) (*Bus, error) {
	if len(sel) == 0 || len(sel) > 4 {
		return nil, fmt.Errorf("admux: %d select lines", len(sel))
	}
	for i, p := range sel {
		if p == nil {
			return nil, fmt.Errorf("admux: select line %d missing", i)
		}
	}
	b := &Bus{sel: sel, current: -1, sleep: time.Sleep}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Channels returns how many inputs the select lines can address.
func (b *Bus) Channels() int {
	return 1 << len(b.sel)
}

// Sample selects channel and runs read while holding the bus.
func (b *Bus) Sample(channel int, read func() error) error {
	if channel < 0 || channel >= b.Channels() {
		return fmt.Errorf("%w: %d", ErrChannel, channel)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.selectLocked(channel); err != nil {
		return err
	}
	return read()
}

func (b *Bus) selectLocked(channel int) error {
	if channel == b.current {
		return nil
	}
	for i, p := range b.sel {
		if err := p.Out(gpio.Level(channel&(1<<i) != 0)); err != nil {
			b.current = -1
			return fmt.Errorf("admux: select %d: %w", channel, err)
		}
	}
	b.current = channel
	if b.settle > 0 {
		b.sleep(b.settle)
	}
	return nil
}
