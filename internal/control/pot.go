package control

import (
	"fmt"

	"periph.io/x/conn/v3/analog"

	"github.com/icco/possumbox/internal/hw/admux"
)

// Hysteresis is the largest change in the 7-bit value that is not sent.
const Hysteresis = 2

// Sampler reads one analog input.
type Sampler interface {
	Read() (analog.Sample, error)
}

// Filter smooths successive raw readings.
type Filter interface {
	Update(raw int) int
}

// Pot is a potentiometer on an ADC input. It is read-only and always
// enabled.
type Pot struct {
	base
	sampler Sampler
	filter  Filter
	last    int
}

// NewPot returns a pot on a direct ADC input. Each pot needs its own
// filter.
func NewPot(name string, cc, track uint8, s Sampler, f Filter) *Pot {
	return &Pot{
		base:    base{name: name, cc: cc, track: track, kind: KindPot},
		sampler: s,
		filter:  f,
	}
}

func (p *Pot) Enabled() bool         { return true }
func (p *Pot) Init() error           { return nil }
func (p *Pot) Receive(uint8) error   { return nil }
func (p *Pot) SetEnabled(bool) error { return nil }

// Value returns the last value sent.
func (p *Pot) Value() uint8 { return uint8(p.last) }

// Emit samples the input and sends when the value moved past Hysteresis.
func (p *Pot) Emit(send SendFunc) error {
	s, err := p.sampler.Read()
	if err != nil {
		return fmt.Errorf("%s: %w", p.Name(), err)
	}
	return p.update(int(s.Raw), send)
}

func (p *Pot) update(raw int, send SendFunc) error {
	v := min(max(p.filter.Update(raw), 0), 1023) / 8
	if diff := v - p.last; diff >= -Hysteresis && diff <= Hysteresis {
		return nil
	}
	if err := send(p.cc, uint8(v)); err != nil {
		return err
	}
	p.last = v
	return nil
}

// MuxPot is a pot read through the shared analog multiplexer.
type MuxPot struct {
	*Pot
	bus     *admux.Bus
	channel int
}

// NewMuxPot returns a pot on channel of bus, sampled by s once selected.
func NewMuxPot(name string, cc, track uint8, bus *admux.Bus, channel int, s Sampler, f Filter) *MuxPot {
	p := NewPot(name, cc, track, s, f)
	p.kind = KindMuxPot
	return &MuxPot{Pot: p, bus: bus, channel: channel}
}

// Channel returns the mux input this pot is wired to.
func (m *MuxPot) Channel() int { return m.channel }

// Emit selects the pot's channel, samples it, then releases the bus before
// filtering and sending.
func (m *MuxPot) Emit(send SendFunc) error {
	var s analog.Sample
	err := m.bus.Sample(m.channel, func() error {
		var err error
		s, err = m.sampler.Read()
		return err
	})
	if err != nil {
		return fmt.Errorf("%s: %w", m.Name(), err)
	}
	return m.update(int(s.Raw), send)
}
