// Package midiport opens the surface's MIDI connection to the host and
// adapts it to control-change send and receive callbacks.
package midiport

import (
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/icco/possumbox/internal/control"
)

// ErrPortNotFound is returned when a named port does not exist.
var ErrPortNotFound = errors.New("midiport: port not found")

// Ports is an open input/output pair.
type Ports struct {
	In  drivers.In
	Out drivers.Out

	driver *rtmididrv.Driver
}

// OpenVirtual creates a virtual input and output, both called name, that
// other applications can connect to.
func OpenVirtual(name string) (*Ports, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MIDI driver: %w", err)
	}
	in, err := driver.OpenVirtualIn(name)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("failed to create virtual MIDI input: %w", err)
	}
	out, err := driver.OpenVirtualOut(name)
	if err != nil {
		in.Close()
		driver.Close()
		return nil, fmt.Errorf("failed to create virtual MIDI output: %w", err)
	}
	return &Ports{In: in, Out: out, driver: driver}, nil
}

// Open finds existing ports by name. A port name matches if it contains the
// given string.
func Open(inName, outName string) (*Ports, error) {
	in, err := midi.FindInPort(inName)
	if err != nil {
		return nil, fmt.Errorf("%w: input %q", ErrPortNotFound, inName)
	}
	out, err := midi.FindOutPort(outName)
	if err != nil {
		return nil, fmt.Errorf("%w: output %q", ErrPortNotFound, outName)
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", in, err)
	}
	if err := out.Open(); err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to open %s: %w", out, err)
	}
	return &Ports{In: in, Out: out}, nil
}

// Close closes both ports and the virtual driver if there is one.
func (p *Ports) Close() error {
	var errs []error
	if p.In != nil {
		errs = append(errs, p.In.Close())
	}
	if p.Out != nil {
		errs = append(errs, p.Out.Close())
	}
	if p.driver != nil {
		errs = append(errs, p.driver.Close())
	}
	return errors.Join(errs...)
}

// Sender returns a SendFunc writing control changes on channel (0-15).
func Sender(out drivers.Out, channel uint8) (control.SendFunc, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", out, err)
	}
	return func(cc, value uint8) error {
		return send(midi.ControlChange(channel, cc, value))
	}, nil
}

// Listen calls fn for every control change on channel (0-15) arriving at
// in. fn runs on the driver's goroutine and must not block.
func Listen(in drivers.In, channel uint8, fn func(cc, value uint8)) (stop func(), err error) {
	if !in.IsOpen() {
		if err := in.Open(); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", in, err)
		}
	}
	stop, err = in.Listen(func(data []byte, timestamp int32) {
		var ch, cc, value uint8
		if !midi.Message(data).GetControlChange(&ch, &cc, &value) {
			return
		}
		if ch != channel {
			return
		}
		fn(cc, value)
	}, drivers.ListenConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to listen to MIDI port: %w", err)
	}
	return stop, nil
}

// List returns the names of the available input and output ports.
func List() (ins, outs []string) {
	for _, in := range midi.GetInPorts() {
		ins = append(ins, in.String())
	}
	for _, out := range midi.GetOutPorts() {
		outs = append(outs, out.String())
	}
	return ins, outs
}
