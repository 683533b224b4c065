// Package board brings up the surface hardware described by a layout and
// builds the control registry on top of it.
//
// Bring-up is best-effort: a chip or pin that does not respond is logged
// and replaced by a stand-in that fails on use, so the rest of the surface
// keeps working.
package board

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/icco/possumbox/internal/config"
	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/debounce"
	"github.com/icco/possumbox/internal/hw/admux"
	"github.com/icco/possumbox/internal/hw/iio"
	"github.com/icco/possumbox/internal/hw/mcp23017"
	"github.com/icco/possumbox/internal/hw/pca9956"
	"github.com/icco/possumbox/internal/led"
	"github.com/icco/possumbox/internal/smooth"
)

// ErrUnavailable is returned by stand-ins for hardware that failed to open.
var ErrUnavailable = errors.New("board: hardware unavailable")

// Option configures Open.
type Option func(*opener)

// WithBus uses bus instead of opening the configured I²C bus. The host
// drivers are not initialized.
func WithBus(bus i2c.Bus) Option {
	return func(o *opener) { o.bus = bus }
}

// WithPins resolves GPIO names with lookup instead of the periph registry.
func WithPins(lookup func(name string) gpio.PinIO) Option {
	return func(o *opener) { o.pins = lookup }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *opener) { o.logger = l }
}

type opener struct {
	bus    i2c.Bus
	pins   func(string) gpio.PinIO
	logger *slog.Logger
}

// Board is the opened hardware.
type Board struct {
	Registry  *control.Registry
	LEDs      pca9956.Bank
	Expanders []*mcp23017.Dev
	Mux       *admux.Bus

	closer i2c.BusCloser
}

// Open initializes every chip in the layout and returns the registry. It
// fails only for layout errors; hardware errors are logged.
func Open(l config.Layout, opts ...Option) (*Board, error) {
	o := &opener{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	palette, err := l.LED.Palette()
	if err != nil {
		return nil, err
	}
	interval, err := l.Hardware.DebounceInterval()
	if err != nil {
		return nil, fmt.Errorf("hardware.debounce: %w", err)
	}
	settle, err := l.Hardware.MuxSettleTime()
	if err != nil {
		return nil, fmt.Errorf("hardware.mux_settle: %w", err)
	}

	b := &Board{}
	bus := o.bus
	if bus == nil {
		bus = b.openBus(o.logger, l.Hardware.I2CBus)
	}
	if o.pins == nil {
		o.pins = gpioreg.ByName
	}

	for _, addr := range l.Hardware.Expanders {
		dev := mcp23017.New(bus, uint16(addr))
		if err := dev.Init(); err != nil {
			o.logger.Warn("Expander init failed", "addr", fmt.Sprintf("%#02x", addr), "error", err)
		}
		b.Expanders = append(b.Expanders, dev)
	}

	for _, addr := range l.Hardware.LEDDrivers {
		dev := pca9956.New(bus, uint16(addr))
		if err := dev.Init(uint8(l.LED.IREF)); err != nil {
			o.logger.Warn("LED driver init failed", "addr", fmt.Sprintf("%#02x", addr), "error", err)
		}
		b.LEDs = append(b.LEDs, dev)
	}
	if err := b.LEDs.Fill(uint8(l.LED.Pattern)); err != nil {
		o.logger.Warn("LED baseline pattern failed", "error", err)
	}

	if len(l.Hardware.MuxSelect) > 0 {
		sel := make([]gpio.PinOut, len(l.Hardware.MuxSelect))
		for i, name := range l.Hardware.MuxSelect {
			sel[i] = o.pin(name)
		}
		if b.Mux, err = admux.New(sel, admux.WithSettle(settle)); err != nil {
			return nil, err
		}
	}

	adcs := make(map[string]control.Sampler, len(l.Hardware.ADC))
	for name, cfg := range l.Hardware.ADC {
		ch, err := iio.Open(name, cfg.Path, cfg.Bits)
		if err != nil {
			o.logger.Warn("ADC channel unavailable", "adc", name, "error", err)
			adcs[name] = missingADC(name)
			continue
		}
		adcs[name] = ch
	}

	controls := make([]control.Control, 0, len(l.Controls))
	for _, c := range l.Controls {
		ctl, err := b.build(o, c, palette, interval, adcs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		controls = append(controls, ctl)
	}
	if b.Registry, err = control.NewRegistry(controls...); err != nil {
		return nil, err
	}

	o.logger.Info("Board ready",
		"controls", b.Registry.Len(),
		"expanders", len(b.Expanders),
		"led_drivers", len(b.LEDs),
		"adc_channels", len(adcs))
	return b, nil
}

func (b *Board) openBus(logger *slog.Logger, name string) i2c.Bus {
	if _, err := host.Init(); err != nil {
		logger.Warn("Host driver init failed", "error", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		logger.Warn("I2C bus unavailable", "bus", name, "error", err)
		return deadBus{name: name}
	}
	b.closer = bus
	return bus
}

func (o *opener) pin(name string) gpio.PinIO {
	if p := o.pins(name); p != nil {
		return p
	}
	o.logger.Warn("GPIO pin not found", "pin", name)
	return gpio.INVALID
}

func (b *Board) build(o *opener, c config.ControlConfig, palette led.Palette, interval time.Duration, adcs map[string]control.Sampler) (control.Control, error) {
	kind, err := control.ParseKind(c.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case control.KindButton, control.KindExpanderButton:
		color, err := led.ParseColor(c.Color)
		if err != nil {
			return nil, err
		}
		cfg := control.ButtonConfig{
			Name:     c.Name,
			CC:       uint8(c.CC),
			Track:    c.TrackIndex(),
			Color:    color,
			LED:      led.Binding{Driver: c.LEDDriver, Channel: c.LEDChannel},
			Expander: kind == control.KindExpanderButton,
		}
		var src debounce.Source
		if kind == control.KindButton {
			src = debounce.PinSource{Pin: o.pin(c.GPIO)}
		} else {
			if c.Expander < 0 || c.Expander >= len(b.Expanders) {
				return nil, fmt.Errorf("expander %d not configured", c.Expander)
			}
			src = b.Expanders[c.Expander].Pin(c.Pin)
		}
		return control.NewButton(cfg, src, b.LEDs, palette, debounce.WithInterval(interval)), nil

	case control.KindPot, control.KindMuxPot:
		s, ok := adcs[c.ADC]
		if !ok {
			return nil, fmt.Errorf("adc %q not configured", c.ADC)
		}
		if kind == control.KindPot {
			return control.NewPot(c.Name, uint8(c.CC), c.TrackIndex(), s, smooth.NewResponsive()), nil
		}
		if b.Mux == nil {
			return nil, errors.New("mux pot without mux select lines")
		}
		return control.NewMuxPot(c.Name, uint8(c.CC), c.TrackIndex(), b.Mux, c.MuxChannel, s, smooth.NewResponsive()), nil
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

// Close releases the I²C bus if Open opened it.
func (b *Board) Close() error {
	if b.closer == nil {
		return nil
	}
	return b.closer.Close()
}

type missingADC string

func (m missingADC) Read() (analog.Sample, error) {
	return analog.Sample{}, fmt.Errorf("%w: adc %s", ErrUnavailable, string(m))
}

// deadBus stands in for an I²C bus that could not be opened.
type deadBus struct{ name string }

func (d deadBus) String() string { return "unavailable(" + d.name + ")" }

func (d deadBus) Tx(addr uint16, w, r []byte) error {
	return fmt.Errorf("%w: i2c bus %q", ErrUnavailable, d.name)
}

func (d deadBus) SetSpeed(physic.Frequency) error { return nil }
