// Package pca9956 drives the NXP PCA9956B 24-channel constant-current LED
// driver over I²C.
package pca9956

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

// Channels is the number of LED outputs per chip.
const Channels = 24

const (
	regMODE1   = 0x00
	regMODE2   = 0x01
	regLEDOUT0 = 0x02
	regPWM0    = 0x0A
	regPWMALL  = 0x3F
	regIREFALL = 0x40

	// autoIncrement is OR-ed into the register address for burst writes.
	autoIncrement = 0x80

	// ledoutPWM puts all four channels of an LEDOUT register under
	// individual PWM control.
	ledoutPWM = 0xAA
)

var (
	// ErrChannel is returned for channels outside 0..23.
	ErrChannel = errors.New("pca9956: channel out of range")
	// ErrDriver is returned when a Bank has no chip at the given index.
	ErrDriver = errors.New("pca9956: no such driver")
)

// Dev is one LED driver chip.
type Dev struct {
	c    conn.Conn
	addr uint16
	mu   sync.Mutex
}

// New returns a driver at addr on bus.
func New(bus i2c.Bus, addr uint16) *Dev {
	return &Dev{c: &i2c.Dev{Bus: bus, Addr: addr}, addr: addr}
}

func (d *Dev) String() string {
	return fmt.Sprintf("pca9956@%#02x", d.addr)
}

// Init wakes the oscillator, puts every output under PWM control and sets
// the shared output current reference.
func (d *Dev) Init(iref uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.c.Tx([]byte{regMODE1, 0x00}, nil); err != nil {
		return fmt.Errorf("%s: mode1: %w", d, err)
	}
	if err := d.c.Tx([]byte{regMODE2, 0x05}, nil); err != nil {
		return fmt.Errorf("%s: mode2: %w", d, err)
	}
	w := []byte{regLEDOUT0 | autoIncrement, ledoutPWM, ledoutPWM, ledoutPWM, ledoutPWM, ledoutPWM, ledoutPWM}
	if err := d.c.Tx(w, nil); err != nil {
		return fmt.Errorf("%s: ledout: %w", d, err)
	}
	if err := d.c.Tx([]byte{regIREFALL, iref}, nil); err != nil {
		return fmt.Errorf("%s: iref: %w", d, err)
	}
	return nil
}

// SetPattern writes the duty of every channel in one burst.
func (d *Dev) SetPattern(duty [Channels]uint8) error {
	w := make([]byte, 0, Channels+1)
	w = append(w, regPWM0|autoIncrement)
	w = append(w, duty[:]...)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.c.Tx(w, nil); err != nil {
		return fmt.Errorf("%s: pattern: %w", d, err)
	}
	return nil
}

// SetAll sets every channel to the same duty.
func (d *Dev) SetAll(duty uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.c.Tx([]byte{regPWMALL, duty}, nil); err != nil {
		return fmt.Errorf("%s: pwmall: %w", d, err)
	}
	return nil
}

// SetDuty sets the PWM duty of one channel.
func (d *Dev) SetDuty(channel int, duty uint8) error {
	if channel < 0 || channel >= Channels {
		return fmt.Errorf("%w: %d", ErrChannel, channel)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.c.Tx([]byte{regPWM0 + byte(channel), duty}, nil); err != nil {
		return fmt.Errorf("%s: channel %d: %w", d, channel, err)
	}
	return nil
}

// Bank addresses several chips by index. A nil entry is a chip that failed
// to come up; writes to it report ErrDriver.
type Bank []*Dev

// SetBrightness implements led.Output.
func (b Bank) SetBrightness(driver, channel int, duty uint8) error {
	if driver < 0 || driver >= len(b) || b[driver] == nil {
		return fmt.Errorf("%w: %d", ErrDriver, driver)
	}
	return b[driver].SetDuty(channel, duty)
}

// Fill writes the same duty to every channel of every chip, collecting
// errors rather than stopping at the first.
func (b Bank) Fill(duty uint8) error {
	var pattern [Channels]uint8
	for i := range pattern {
		pattern[i] = duty
	}
	var errs []error
	for i, d := range b {
		if d == nil {
			errs = append(errs, fmt.Errorf("%w: %d", ErrDriver, i))
			continue
		}
		if err := d.SetPattern(pattern); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
