package surface

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/events"
	"github.com/icco/possumbox/internal/led"
)

const trackCC = 126

type ledWrite struct {
	driver, channel int
	duty            uint8
}

type recordingOutput struct {
	writes []ledWrite
}

func (o *recordingOutput) SetBrightness(driver, channel int, duty uint8) error {
	o.writes = append(o.writes, ledWrite{driver, channel, duty})
	return nil
}

type releasedSource struct{}

func (releasedSource) Setup() error        { return nil }
func (releasedSource) Read() (bool, error) { return true, nil }

// fakeControl records what the router does to it.
type fakeControl struct {
	name     string
	cc       uint8
	track    uint8
	enabled  bool
	received []uint8
	setCalls int
	emit     []uint8
	emitErr  error
	emits    int
	order    *[]string
}

func newFake(name string, cc, track uint8) *fakeControl {
	return &fakeControl{name: name, cc: cc, track: track, enabled: true}
}

func (f *fakeControl) Name() string       { return f.name }
func (f *fakeControl) CC() uint8          { return f.cc }
func (f *fakeControl) Track() uint8       { return f.track }
func (f *fakeControl) Kind() control.Kind { return control.KindButton }
func (f *fakeControl) Enabled() bool      { return f.enabled }
func (f *fakeControl) Init() error        { return nil }

func (f *fakeControl) Emit(send control.SendFunc) error {
	f.emits++
	if f.order != nil {
		*f.order = append(*f.order, "emit:"+f.name)
	}
	if f.emitErr != nil {
		return f.emitErr
	}
	for _, v := range f.emit {
		if err := send(f.cc, v); err != nil {
			return err
		}
	}
	f.emit = nil
	return nil
}

func (f *fakeControl) Receive(v uint8) error {
	if f.order != nil {
		*f.order = append(*f.order, "receive:"+f.name)
	}
	f.received = append(f.received, v)
	return nil
}

func (f *fakeControl) SetEnabled(e bool) error {
	f.setCalls++
	f.enabled = e
	return nil
}

type sent struct{ cc, value uint8 }

type sendRecorder struct{ msgs []sent }

func (s *sendRecorder) send(cc, value uint8) error {
	s.msgs = append(s.msgs, sent{cc, value})
	return nil
}

func mustRegistry(t *testing.T, cs ...control.Control) *control.Registry {
	t.Helper()
	reg, err := control.NewRegistry(cs...)
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestTrackCountBroadcast(t *testing.T) {
	var fakes []*fakeControl
	var cs []control.Control
	for track := uint8(1); track <= 8; track++ {
		f := newFake("t", 50+track, track)
		fakes = append(fakes, f)
		cs = append(cs, f)
	}
	master := newFake("master", 110, control.MasterTrack)
	cs = append(cs, master)

	r := NewRouter(mustRegistry(t, cs...), trackCC, nil, nil)

	for _, v := range []uint8{0, 3, 8, 5, 126} {
		if err := r.ApplyTrackCount(v); err != nil {
			t.Fatal(err)
		}
		for _, f := range fakes {
			if want := f.track <= v; f.enabled != want {
				t.Errorf("v=%d: track %d enabled = %v, want %v", v, f.track, f.enabled, want)
			}
		}
		if !master.enabled || master.setCalls != 0 {
			t.Errorf("v=%d: master touched (enabled=%v, calls=%d)", v, master.enabled, master.setCalls)
		}
	}
}

func TestTrackCountSentinelIgnored(t *testing.T) {
	a, b := newFake("a", 50, 2), newFake("b", 51, 6)
	r := NewRouter(mustRegistry(t, a, b), trackCC, nil, nil)

	if err := r.ApplyTrackCount(4); err != nil {
		t.Fatal(err)
	}
	calls := a.setCalls + b.setCalls
	if err := r.Handle(trackCC, control.MasterTrack); err != nil {
		t.Fatal(err)
	}
	if a.setCalls+b.setCalls != calls {
		t.Error("sentinel broadcast called SetEnabled")
	}
	if !a.enabled || b.enabled {
		t.Errorf("sentinel changed state: a=%v b=%v", a.enabled, b.enabled)
	}
}

func TestTrackCountScenarioLEDs(t *testing.T) {
	out := &recordingOutput{}
	palette := led.DefaultPalette()
	a := control.NewButton(control.ButtonConfig{Name: "A", CC: 60, Track: 3, Color: led.Blue, LED: led.Binding{Driver: 0, Channel: 1}}, releasedSource{}, out, palette)
	b := control.NewButton(control.ButtonConfig{Name: "B", CC: 61, Track: 5, Color: led.Red, LED: led.Binding{Driver: 0, Channel: 2}}, releasedSource{}, out, palette)
	s := New(mustRegistry(t, a, b), (&sendRecorder{}).send, trackCC)
	if err := s.Init(); err != nil {
		t.Fatal(err)
	}
	out.writes = nil

	s.Deliver(trackCC, 4)
	s.Tick()

	if !a.Enabled() || b.Enabled() {
		t.Fatalf("A enabled=%v B enabled=%v, want true/false", a.Enabled(), b.Enabled())
	}
	want := []ledWrite{{0, 2, 0}}
	if len(out.writes) != 1 || out.writes[0] != want[0] {
		t.Errorf("LED writes = %v, want %v", out.writes, want)
	}
}

func TestHandleRoutesToOwner(t *testing.T) {
	a, b := newFake("a", 50, 1), newFake("b", 51, 1)
	r := NewRouter(mustRegistry(t, a, b), trackCC, nil, nil)

	if err := r.Handle(51, 127); err != nil {
		t.Fatal(err)
	}
	if len(a.received) != 0 || len(b.received) != 1 || b.received[0] != 127 {
		t.Errorf("a got %v, b got %v", a.received, b.received)
	}
}

func TestHandleUnmatchedDropped(t *testing.T) {
	a := newFake("a", 50, 1)
	r := NewRouter(mustRegistry(t, a), trackCC, nil, nil)

	if err := r.Handle(99, 64); err != nil {
		t.Errorf("Handle(unmatched) = %v", err)
	}
	if len(a.received) != 0 || a.setCalls != 0 || !a.enabled {
		t.Error("unmatched message changed state")
	}
}

func TestTickDrainsBeforeEmit(t *testing.T) {
	var order []string
	a, b := newFake("a", 50, 1), newFake("b", 51, 1)
	a.order, b.order = &order, &order
	s := New(mustRegistry(t, a, b), (&sendRecorder{}).send, trackCC)

	s.Deliver(50, 1)
	s.Deliver(51, 1)
	s.Deliver(50, 0)
	s.Tick()

	want := []string{"receive:a", "receive:b", "receive:a", "emit:a", "emit:b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestEmitOrderAndErrorsContinue(t *testing.T) {
	a, b, c := newFake("a", 50, 1), newFake("b", 51, 1), newFake("c", 52, 1)
	a.emit = []uint8{127}
	b.emitErr = errors.New("expander nack")
	c.emit = []uint8{127}
	rec := &sendRecorder{}
	r := NewRouter(mustRegistry(t, a, b, c), trackCC, nil, nil)

	if err := r.Emit(rec.send); err == nil {
		t.Error("Emit() should report b's error")
	}
	want := []sent{{50, 127}, {52, 127}}
	if len(rec.msgs) != 2 || rec.msgs[0] != want[0] || rec.msgs[1] != want[1] {
		t.Errorf("sent %v, want %v", rec.msgs, want)
	}
	if c.emits != 1 {
		t.Error("control after a failing one was not polled")
	}

	b.emitErr = nil
	if err := r.Emit(rec.send); err != nil {
		t.Errorf("Emit() after recovery = %v", err)
	}
	if len(r.failing) != 0 {
		t.Errorf("failing = %v after recovery", r.failing)
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	bus := events.New()
	dropped := make(chan events.CCDroppedEvent, 4)
	defer bus.Subscribe(func(e events.CCDroppedEvent) { dropped <- e })()

	a := newFake("a", 50, 1)
	s := New(mustRegistry(t, a), (&sendRecorder{}).send, trackCC, WithQueueSize(2), WithEvents(bus))

	if !s.Deliver(50, 1) || !s.Deliver(50, 2) {
		t.Fatal("queue rejected before full")
	}
	if s.Deliver(50, 3) {
		t.Fatal("Deliver on a full queue returned true")
	}
	select {
	case e := <-dropped:
		if e.Value != 3 {
			t.Errorf("dropped %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no drop event")
	}

	s.Tick()
	if len(a.received) != 2 {
		t.Errorf("received %v, want the two queued values", a.received)
	}
}

func TestEventsPublished(t *testing.T) {
	bus := events.New()
	sentCh := make(chan events.CCSentEvent, 1)
	changed := make(chan events.EnabledChangedEvent, 1)
	defer bus.Subscribe(func(e events.CCSentEvent) { sentCh <- e })()
	defer bus.Subscribe(func(e events.EnabledChangedEvent) { changed <- e })()

	a := newFake("pot", 20, 3)
	a.emit = []uint8{64}
	s := New(mustRegistry(t, a), (&sendRecorder{}).send, trackCC, WithEvents(bus))

	s.Deliver(trackCC, 2)
	s.Tick()

	select {
	case e := <-sentCh:
		if e.Control != "pot" || e.Value != 64 {
			t.Errorf("sent event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no sent event")
	}
	select {
	case e := <-changed:
		if e.Control != "pot" || e.Enabled {
			t.Errorf("changed event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no enabled-changed event")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a := newFake("a", 50, 1)
	s := New(mustRegistry(t, a), (&sendRecorder{}).send, trackCC, WithTickPeriod(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); err != nil {
		t.Errorf("Run() = %v", err)
	}
	if a.emits == 0 {
		t.Error("Run never ticked")
	}
}
