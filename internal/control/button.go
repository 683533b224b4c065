package control

import (
	"errors"
	"fmt"

	"github.com/icco/possumbox/internal/debounce"
	"github.com/icco/possumbox/internal/led"
)

// PressValue is sent on every press edge.
const PressValue = 127

// ButtonConfig describes one LED button.
type ButtonConfig struct {
	Name  string
	CC    uint8
	Track uint8
	Color led.Color
	LED   led.Binding
	// Expander marks a button read through a port expander.
	Expander bool
}

// Button is a momentary push button with an LED. The host owns the toggle
// state; the button only reports presses and shows what it is told.
type Button struct {
	base
	color   led.Color
	binding led.Binding
	out     led.Output
	palette led.Palette
	db      *debounce.Debouncer

	enabled bool
	state   led.State
}

// NewButton returns a button reading src and lighting its LED on out.
func NewButton(cfg ButtonConfig, src debounce.Source, out led.Output, palette led.Palette, opts ...debounce.Option) *Button {
	kind := KindButton
	if cfg.Expander {
		kind = KindExpanderButton
	}
	return &Button{
		base:    base{name: cfg.Name, cc: cfg.CC, track: cfg.Track, kind: kind},
		color:   cfg.Color,
		binding: cfg.LED,
		out:     out,
		palette: palette,
		db:      debounce.New(src, opts...),
		enabled: true,
	}
}

func (b *Button) Enabled() bool { return b.enabled }

// Color returns the LED hue.
func (b *Button) Color() led.Color { return b.color }

// LED returns the driver position of the button's LED.
func (b *Button) LED() led.Binding { return b.binding }

// LEDState returns the last state written to the LED.
func (b *Button) LEDState() led.State { return b.state }

// Pressed reports the debounced button state.
func (b *Button) Pressed() bool { return b.db.Pressed() }

// Init attaches the input and lights the LED at idle. Both steps are
// attempted even if the first fails.
func (b *Button) Init() error {
	var errs []error
	if err := b.db.Attach(); err != nil {
		errs = append(errs, fmt.Errorf("%s: attach: %w", b.Name(), err))
	}
	if err := b.show(led.Idle); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Emit sends PressValue once per debounced press while enabled. The input
// is polled even while disabled so a held button does not fire on enable.
func (b *Button) Emit(send SendFunc) error {
	if _, err := b.db.Update(); err != nil {
		return fmt.Errorf("%s: %w", b.Name(), err)
	}
	if !b.enabled || !b.db.JustPressed() {
		return nil
	}
	return send(b.cc, PressValue)
}

// Receive shows active for value > 0, idle otherwise. Disabled buttons
// stay dark.
func (b *Button) Receive(value uint8) error {
	if !b.enabled {
		return nil
	}
	if value > 0 {
		return b.show(led.Active)
	}
	return b.show(led.Idle)
}

// SetEnabled lights the LED at idle when enabling and turns it off when
// disabling.
func (b *Button) SetEnabled(enabled bool) error {
	if enabled == b.enabled {
		return nil
	}
	b.enabled = enabled
	if enabled {
		return b.show(led.Idle)
	}
	return b.show(led.Dark)
}

func (b *Button) show(s led.State) error {
	b.state = s
	duty := b.palette.Duty(b.color, s)
	if err := b.out.SetBrightness(b.binding.Driver, b.binding.Channel, duty); err != nil {
		return fmt.Errorf("%s: led %s: %w", b.Name(), b.binding, err)
	}
	return nil
}
