package control

import (
	"errors"
	"time"

	"periph.io/x/conn/v3/analog"
)

type ledWrite struct {
	driver, channel int
	duty            uint8
}

type recordingOutput struct {
	writes []ledWrite
	err    error
}

func (o *recordingOutput) SetBrightness(driver, channel int, duty uint8) error {
	o.writes = append(o.writes, ledWrite{driver, channel, duty})
	return o.err
}

type fakeSource struct {
	level bool
	err   error
}

func (f *fakeSource) Setup() error        { return nil }
func (f *fakeSource) Read() (bool, error) { return f.level, f.err }

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

type sent struct {
	cc, value uint8
}

type sendRecorder struct {
	msgs []sent
	err  error
}

func (s *sendRecorder) send(cc, value uint8) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, sent{cc, value})
	return nil
}

type identity struct{}

func (identity) Update(raw int) int { return raw }

type fakeSampler struct {
	raw    int32
	err    error
	before func()
}

func (f *fakeSampler) Read() (analog.Sample, error) {
	if f.before != nil {
		f.before()
	}
	return analog.Sample{Raw: f.raw}, f.err
}

var errBus = errors.New("bus error")
