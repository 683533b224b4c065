// Package iio reads Linux Industrial I/O ADC channels through sysfs.
package iio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/physic"
)

// Bits is the resolution samples are normalized to.
const Bits = 10

// Channel is one in_voltageN_raw attribute.
type Channel struct {
	name  string
	path  string
	bits  int
	scale float64 // millivolts per raw count, 0 when unknown
}

// Open returns the channel at path. bits is the converter's native
// resolution; readings are shifted to Bits. The sibling _scale attribute is
// read if present to fill Sample.V.
func Open(name, path string, bits int) (*Channel, error) {
	if bits < 1 || bits > 24 {
		return nil, fmt.Errorf("iio: %s: resolution %d bits", name, bits)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("iio: %s: %w", name, err)
	}
	c := &Channel{name: name, path: path, bits: bits}
	if strings.HasSuffix(path, "_raw") {
		if b, err := os.ReadFile(strings.TrimSuffix(path, "_raw") + "_scale"); err == nil {
			if s, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64); err == nil {
				c.scale = s
			}
		}
	}
	return c, nil
}

func (c *Channel) String() string { return c.name }

// Read returns the current sample with Raw scaled to 0..1023.
func (c *Channel) Read() (analog.Sample, error) {
	b, err := os.ReadFile(c.path)
	if err != nil {
		return analog.Sample{}, fmt.Errorf("iio: %s: %w", c.name, err)
	}
	raw, err := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 32)
	if err != nil {
		return analog.Sample{}, fmt.Errorf("iio: %s: %w", c.name, err)
	}

	s := analog.Sample{Raw: int32(raw)}
	if c.scale > 0 {
		s.V = physic.ElectricPotential(float64(raw) * c.scale * float64(physic.MilliVolt))
	}
	switch {
	case c.bits > Bits:
		s.Raw >>= c.bits - Bits
	case c.bits < Bits:
		s.Raw <<= Bits - c.bits
	}
	return s, nil
}
