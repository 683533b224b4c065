// Package mcp23017 drives the Microchip MCP23017 16-bit I²C port expander
// in its power-on (paired register) layout.
package mcp23017

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// BaseAddr is the expander address with A2..A0 tied low.
const BaseAddr uint16 = 0x20

// Register addresses with IOCON.BANK cleared. Port B follows port A.
const (
	regIODIRA = 0x00
	regIPOLA  = 0x02
	regGPPUA  = 0x0C
	regGPIOA  = 0x12
	regOLATA  = 0x14
)

// Pins is the number of I/O lines on one chip.
const Pins = 16

// ErrPin is returned for pin numbers outside 0..15.
var ErrPin = errors.New("mcp23017: pin out of range")

// Mode is a pin direction.
type Mode int

const (
	Input Mode = iota
	InputPullUp
	Output
)

// Dev is a handle to one expander.
type Dev struct {
	c    conn.Conn
	addr uint16

	mu    sync.Mutex
	iodir [2]byte
	gppu  [2]byte
	olat  [2]byte
}

// New returns an expander at addr on bus. No bus traffic happens until
// Init.
func New(bus i2c.Bus, addr uint16) *Dev {
	return &Dev{
		c:     &i2c.Dev{Bus: bus, Addr: addr},
		addr:  addr,
		iodir: [2]byte{0xFF, 0xFF},
	}
}

func (d *Dev) String() string {
	return fmt.Sprintf("mcp23017@%#02x", d.addr)
}

// Addr returns the chip's I²C address.
func (d *Dev) Addr() uint16 { return d.addr }

// Init restores the power-on configuration: all pins inputs, no pull-ups,
// no inversion.
func (d *Dev) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.iodir = [2]byte{0xFF, 0xFF}
	d.gppu = [2]byte{}
	if err := d.c.Tx([]byte{regIODIRA, 0xFF, 0xFF}, nil); err != nil {
		return fmt.Errorf("%s: init: %w", d, err)
	}
	if err := d.c.Tx([]byte{regIPOLA, 0x00, 0x00}, nil); err != nil {
		return fmt.Errorf("%s: init: %w", d, err)
	}
	if err := d.c.Tx([]byte{regGPPUA, 0x00, 0x00}, nil); err != nil {
		return fmt.Errorf("%s: init: %w", d, err)
	}
	return nil
}

// PinMode configures one pin.
func (d *Dev) PinMode(pin int, mode Mode) error {
	if pin < 0 || pin >= Pins {
		return fmt.Errorf("%w: %d", ErrPin, pin)
	}
	port, bit := pin/8, byte(1)<<(pin%8)

	d.mu.Lock()
	defer d.mu.Unlock()

	iodir, gppu := d.iodir[port], d.gppu[port]
	switch mode {
	case Output:
		iodir &^= bit
		gppu &^= bit
	case InputPullUp:
		iodir |= bit
		gppu |= bit
	default:
		iodir |= bit
		gppu &^= bit
	}

	if err := d.c.Tx([]byte{regIODIRA + byte(port), iodir}, nil); err != nil {
		return fmt.Errorf("%s: pin %d mode: %w", d, pin, err)
	}
	d.iodir[port] = iodir
	if err := d.c.Tx([]byte{regGPPUA + byte(port), gppu}, nil); err != nil {
		return fmt.Errorf("%s: pin %d pull-up: %w", d, pin, err)
	}
	d.gppu[port] = gppu
	return nil
}

// DigitalRead returns the level of one pin.
func (d *Dev) DigitalRead(pin int) (bool, error) {
	if pin < 0 || pin >= Pins {
		return false, fmt.Errorf("%w: %d", ErrPin, pin)
	}
	var r [1]byte
	d.mu.Lock()
	err := d.c.Tx([]byte{regGPIOA + byte(pin/8)}, r[:])
	d.mu.Unlock()
	if err != nil {
		return false, fmt.Errorf("%s: read pin %d: %w", d, pin, err)
	}
	return r[0]&(1<<(pin%8)) != 0, nil
}

// ReadAll returns both ports, A in the low byte.
func (d *Dev) ReadAll() (uint16, error) {
	var r [2]byte
	d.mu.Lock()
	err := d.c.Tx([]byte{regGPIOA}, r[:])
	d.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("%s: read: %w", d, err)
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

// DigitalWrite sets the output latch of one pin.
func (d *Dev) DigitalWrite(pin int, high bool) error {
	if pin < 0 || pin >= Pins {
		return fmt.Errorf("%w: %d", ErrPin, pin)
	}
	port, bit := pin/8, byte(1)<<(pin%8)

	d.mu.Lock()
	defer d.mu.Unlock()
	olat := d.olat[port]
	if high {
		olat |= bit
	} else {
		olat &^= bit
	}
	if err := d.c.Tx([]byte{regOLATA + byte(port), olat}, nil); err != nil {
		return fmt.Errorf("%s: write pin %d: %w", d, pin, err)
	}
	d.olat[port] = olat
	return nil
}

// Pin returns a pulled-up input on this chip usable as a debounce source.
func (d *Dev) Pin(n int) *Pin {
	return &Pin{dev: d, n: n}
}

// Pin is one expander input line.
type Pin struct {
	dev *Dev
	n   int
}

func (p *Pin) String() string {
	return fmt.Sprintf("%s/%d", p.dev, p.n)
}

// Setup configures the pin as a pulled-up input.
func (p *Pin) Setup() error {
	return p.dev.PinMode(p.n, InputPullUp)
}

// Read returns the raw pin level.
func (p *Pin) Read() (bool, error) {
	return p.dev.DigitalRead(p.n)
}
