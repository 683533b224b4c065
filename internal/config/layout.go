package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/debounce"
	"github.com/icco/possumbox/internal/hw/mcp23017"
	"github.com/icco/possumbox/internal/hw/pca9956"
	"github.com/icco/possumbox/internal/led"
)

// Layout describes the surface hardware and the control wiring table.
type Layout struct {
	LED      LEDConfig       `toml:"led"`
	Hardware HardwareConfig  `toml:"hardware"`
	Controls []ControlConfig `toml:"controls"`
}

// LEDConfig is the brightness palette and driver setup.
type LEDConfig struct {
	PressedFactor int            `toml:"pressed_factor"`
	Max           int            `toml:"max"`
	Pattern       int            `toml:"pattern"`
	IREF          int            `toml:"iref"`
	Base          map[string]int `toml:"base"`
}

// HardwareConfig locates the chips and pins.
type HardwareConfig struct {
	I2CBus     string               `toml:"i2c_bus"`
	Expanders  []int                `toml:"expanders"`
	LEDDrivers []int                `toml:"led_drivers"`
	MuxSelect  []string             `toml:"mux_select"`
	MuxSettle  string               `toml:"mux_settle"`
	Debounce   string               `toml:"debounce"`
	ADC        map[string]ADCConfig `toml:"adc"`
}

// ADCConfig is one IIO voltage channel.
type ADCConfig struct {
	Path string `toml:"path"`
	Bits int    `toml:"bits"`
}

// ControlConfig is one row of the wiring table. Which fields apply depends
// on Kind. A zero Track puts the control on the master track.
type ControlConfig struct {
	Name       string `toml:"name"`
	Kind       string `toml:"kind"`
	CC         int    `toml:"cc"`
	Track      int    `toml:"track"`
	Color      string `toml:"color"`
	Expander   int    `toml:"expander"`
	Pin        int    `toml:"pin"`
	GPIO       string `toml:"gpio"`
	LEDDriver  int    `toml:"led_driver"`
	LEDChannel int    `toml:"led_channel"`
	ADC        string `toml:"adc"`
	MuxChannel int    `toml:"mux_channel"`
}

// TrackIndex returns the control's track, mapping zero to MasterTrack.
func (c ControlConfig) TrackIndex() uint8 {
	if c.Track == 0 {
		return control.MasterTrack
	}
	return uint8(c.Track)
}

// LoadLayout reads the layout sections of a config file. Sections that are
// absent fall back to DefaultLayout; an empty path returns the default.
func LoadLayout(path string) (Layout, error) {
	def := DefaultLayout()
	if path == "" {
		return def, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return def, nil
	}
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout: %w", err)
	}

	var l Layout
	if err := toml.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout: %w", err)
	}
	l.fillDefaults(def)
	return l, nil
}

func (l *Layout) fillDefaults(def Layout) {
	if l.LED.PressedFactor == 0 {
		l.LED.PressedFactor = def.LED.PressedFactor
	}
	if l.LED.Max == 0 {
		l.LED.Max = def.LED.Max
	}
	if l.LED.Pattern == 0 {
		l.LED.Pattern = def.LED.Pattern
	}
	if l.LED.IREF == 0 {
		l.LED.IREF = def.LED.IREF
	}
	if len(l.LED.Base) == 0 {
		l.LED.Base = def.LED.Base
	}

	h := &l.Hardware
	if h.Expanders == nil {
		h.Expanders = def.Hardware.Expanders
	}
	if h.LEDDrivers == nil {
		h.LEDDrivers = def.Hardware.LEDDrivers
	}
	if h.MuxSelect == nil {
		h.MuxSelect = def.Hardware.MuxSelect
	}
	if h.MuxSettle == "" {
		h.MuxSettle = def.Hardware.MuxSettle
	}
	if h.Debounce == "" {
		h.Debounce = def.Hardware.Debounce
	}
	if h.ADC == nil {
		h.ADC = def.Hardware.ADC
	}

	if len(l.Controls) == 0 {
		l.Controls = def.Controls
	}
}

// Palette converts the LED section.
func (c LEDConfig) Palette() (led.Palette, error) {
	p := led.Palette{
		Base:          make(map[led.Color]uint8, len(c.Base)),
		PressedFactor: c.PressedFactor,
		Max:           c.Max,
	}
	for name, base := range c.Base {
		color, err := led.ParseColor(name)
		if err != nil {
			return led.Palette{}, err
		}
		if base < 0 || base > 255 {
			return led.Palette{}, fmt.Errorf("%w: %s base %d", led.ErrPalette, name, base)
		}
		p.Base[color] = uint8(base)
	}
	return p, p.Validate()
}

// DebounceInterval parses the debounce duration.
func (h HardwareConfig) DebounceInterval() (time.Duration, error) {
	if h.Debounce == "" {
		return debounce.DefaultInterval, nil
	}
	return time.ParseDuration(h.Debounce)
}

// MuxSettleTime parses the mux settle duration.
func (h HardwareConfig) MuxSettleTime() (time.Duration, error) {
	if h.MuxSettle == "" {
		return 0, nil
	}
	return time.ParseDuration(h.MuxSettle)
}

// Validate checks the layout against itself and the reserved track-count
// CC. It reports every problem found.
func (l Layout) Validate(trackCC uint8) error {
	var errs []error
	if _, err := l.LED.Palette(); err != nil {
		errs = append(errs, err)
	}
	if l.LED.Pattern < 0 || l.LED.Pattern > l.LED.Max {
		errs = append(errs, fmt.Errorf("led: pattern %d outside 0..%d", l.LED.Pattern, l.LED.Max))
	}
	if l.LED.IREF < 0 || l.LED.IREF > 255 {
		errs = append(errs, fmt.Errorf("led: iref %d outside 0..255", l.LED.IREF))
	}
	if _, err := l.Hardware.DebounceInterval(); err != nil {
		errs = append(errs, fmt.Errorf("hardware.debounce: %w", err))
	}
	if _, err := l.Hardware.MuxSettleTime(); err != nil {
		errs = append(errs, fmt.Errorf("hardware.mux_settle: %w", err))
	}
	for name, adc := range l.Hardware.ADC {
		if adc.Path == "" {
			errs = append(errs, fmt.Errorf("hardware.adc.%s: no path", name))
		}
	}

	seen := make(map[int]string)
	leds := make(map[led.Binding]string)
	for i, c := range l.Controls {
		label := c.Name
		if label == "" {
			label = fmt.Sprintf("controls[%d]", i)
		}
		if err := l.validateControl(c, trackCC); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
		if prev, ok := seen[c.CC]; ok {
			errs = append(errs, fmt.Errorf("%s: %w: %d also used by %s", label, control.ErrDuplicateCC, c.CC, prev))
		}
		seen[c.CC] = label

		if c.Kind == control.KindButton.String() || c.Kind == control.KindExpanderButton.String() {
			b := led.Binding{Driver: c.LEDDriver, Channel: c.LEDChannel}
			if prev, ok := leds[b]; ok {
				errs = append(errs, fmt.Errorf("%s: led %s also used by %s", label, b, prev))
			}
			leds[b] = label
		}
	}
	return errors.Join(errs...)
}

func (l Layout) validateControl(c ControlConfig, trackCC uint8) error {
	kind, err := control.ParseKind(c.Kind)
	if err != nil {
		return err
	}
	if c.CC < 0 || c.CC > 127 {
		return fmt.Errorf("cc %d outside 0..127", c.CC)
	}
	if c.CC == int(trackCC) {
		return fmt.Errorf("cc %d is reserved for the track count", c.CC)
	}
	if c.Track < 0 || c.Track > 127 || !control.ValidTrack(c.TrackIndex()) {
		return fmt.Errorf("%w: %d", control.ErrTrackRange, c.Track)
	}

	switch kind {
	case control.KindButton, control.KindExpanderButton:
		if _, err := led.ParseColor(c.Color); err != nil {
			return err
		}
		if c.LEDDriver < 0 || c.LEDDriver >= len(l.Hardware.LEDDrivers) {
			return fmt.Errorf("led_driver %d not configured", c.LEDDriver)
		}
		if c.LEDChannel < 0 || c.LEDChannel >= pca9956.Channels {
			return fmt.Errorf("led_channel %d outside 0..%d", c.LEDChannel, pca9956.Channels-1)
		}
		if kind == control.KindButton {
			if c.GPIO == "" {
				return errors.New("button needs a gpio")
			}
			return nil
		}
		if c.Expander < 0 || c.Expander >= len(l.Hardware.Expanders) {
			return fmt.Errorf("expander %d not configured", c.Expander)
		}
		if c.Pin < 0 || c.Pin >= mcp23017.Pins {
			return fmt.Errorf("pin %d outside 0..%d", c.Pin, mcp23017.Pins-1)
		}
	case control.KindPot, control.KindMuxPot:
		if _, ok := l.Hardware.ADC[c.ADC]; !ok {
			return fmt.Errorf("adc %q not configured", c.ADC)
		}
		if kind == control.KindMuxPot {
			n := 1 << len(l.Hardware.MuxSelect)
			if len(l.Hardware.MuxSelect) == 0 || c.MuxChannel < 0 || c.MuxChannel >= n {
				return fmt.Errorf("mux_channel %d not addressable with %d select lines", c.MuxChannel, len(l.Hardware.MuxSelect))
			}
		}
	}
	return nil
}
