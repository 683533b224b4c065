// Package led encodes button feedback as LED driver duty values.
package led

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPalette is returned when a palette could exceed the driver's maximum
// duty once the pressed factor is applied.
var ErrPalette = errors.New("led: invalid palette")

// Color is the hue assigned to a button's LED.
type Color int

const (
	Off Color = iota
	Red
	Green
	Blue
	Yellow
	White
)

var colorNames = map[Color]string{
	Off:    "off",
	Red:    "red",
	Green:  "green",
	Blue:   "blue",
	Yellow: "yellow",
	White:  "white",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// ParseColor parses a color name, case-insensitively.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for c, name := range colorNames {
		if name == s {
			return c, nil
		}
	}
	return Off, fmt.Errorf("led: unknown color %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (c Color) MarshalText() ([]byte, error) {
	if _, ok := colorNames[c]; !ok {
		return nil, fmt.Errorf("led: unknown color %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// State is what a button's LED is showing.
type State int

const (
	Idle State = iota
	Active
	Dark
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Dark:
		return "dark"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Defaults used by the surface's PCA9956 drivers.
const (
	DefaultPressedFactor = 8
	DefaultMax           = 255
	DefaultPattern       = 16
)

// Palette holds the per-color idle brightness and the multiplier applied
// for the active state.
type Palette struct {
	Base          map[Color]uint8
	PressedFactor int
	Max           int
}

// DefaultPalette returns the tuned palette for the surface's LEDs. Each
// base is chosen so that base*8 stays within 255.
func DefaultPalette() Palette {
	return Palette{
		Base: map[Color]uint8{
			Red:    24,
			Green:  16,
			Blue:   31,
			Yellow: 20,
			White:  28,
		},
		PressedFactor: DefaultPressedFactor,
		Max:           DefaultMax,
	}
}

// Validate checks that no color's active duty exceeds Max.
func (p Palette) Validate() error {
	if p.PressedFactor < 1 {
		return fmt.Errorf("%w: pressed factor %d", ErrPalette, p.PressedFactor)
	}
	if p.Max < 1 || p.Max > 255 {
		return fmt.Errorf("%w: max duty %d", ErrPalette, p.Max)
	}
	for c, base := range p.Base {
		if int(base)*p.PressedFactor > p.Max {
			return fmt.Errorf("%w: %s base %d * %d exceeds %d",
				ErrPalette, c, base, p.PressedFactor, p.Max)
		}
	}
	return nil
}

// Duty returns the driver duty for a color in the given state.
func (p Palette) Duty(c Color, s State) uint8 {
	base := int(p.Base[c])
	switch s {
	case Idle:
		return uint8(min(base, p.Max))
	case Active:
		return uint8(min(base*p.PressedFactor, p.Max))
	default:
		return 0
	}
}

// Output is an LED driver bank addressed by chip index and channel.
type Output interface {
	SetBrightness(driver, channel int, duty uint8) error
}

// Binding is the position of one LED on an Output.
type Binding struct {
	Driver  int
	Channel int
}

func (b Binding) String() string {
	return fmt.Sprintf("%d/%d", b.Driver, b.Channel)
}
