package surface

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/events"
)

// Router applies host messages to the registry and polls controls for
// outbound messages.
type Router struct {
	reg     *control.Registry
	trackCC uint8
	bus     *events.Bus
	logger  *slog.Logger

	// failing remembers which control operations are currently erroring so
	// a dead chip logs once rather than every tick.
	failing map[string]bool
}

// NewRouter returns a router over reg that treats trackCC as the
// track-count broadcast. bus may be nil.
func NewRouter(reg *control.Registry, trackCC uint8, bus *events.Bus, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		reg:     reg,
		trackCC: trackCC,
		bus:     bus,
		logger:  logger,
		failing: make(map[string]bool),
	}
}

// Handle routes one inbound control change. Unknown CCs are dropped.
func (r *Router) Handle(cc, value uint8) error {
	if cc == r.trackCC {
		r.bus.Publish(events.CCReceivedEvent{CC: cc, Value: value, Matched: true})
		return r.ApplyTrackCount(value)
	}

	c, ok := r.reg.Lookup(cc)
	if !ok {
		r.logger.Debug("Dropping unmapped control change", "cc", cc, "value", value)
		r.bus.Publish(events.CCReceivedEvent{CC: cc, Value: value})
		return nil
	}
	r.bus.Publish(events.CCReceivedEvent{CC: cc, Value: value, Matched: true})
	return r.check(c, "receive", c.Receive(value))
}

// ApplyTrackCount enables every non-master control on a track up to v and
// disables the rest. MasterTrack as v is ignored.
func (r *Router) ApplyTrackCount(v uint8) error {
	if v == control.MasterTrack {
		r.logger.Debug("Ignoring master sentinel track count")
		r.bus.Publish(events.TrackCountEvent{Count: v, Ignored: true})
		return nil
	}

	var errs []error
	enabled := 0
	for _, c := range r.reg.All() {
		if c.Track() == control.MasterTrack {
			if c.Enabled() {
				enabled++
			}
			continue
		}
		want := c.Track() <= v
		was := c.Enabled()
		if err := r.check(c, "enable", c.SetEnabled(want)); err != nil {
			errs = append(errs, err)
		}
		if now := c.Enabled(); now != was {
			r.bus.Publish(events.EnabledChangedEvent{Control: c.Name(), Track: c.Track(), Enabled: now})
		}
		if c.Enabled() {
			enabled++
		}
	}

	r.logger.Info("Applied track count", "tracks", v, "enabled", enabled)
	r.bus.Publish(events.TrackCountEvent{Count: v, Enabled: enabled})
	return errors.Join(errs...)
}

// Emit polls every control in registry order, sending through send.
func (r *Router) Emit(send control.SendFunc) error {
	var errs []error
	for _, c := range r.reg.All() {
		name := c.Name()
		err := c.Emit(func(cc, value uint8) error {
			if err := send(cc, value); err != nil {
				return err
			}
			r.bus.Publish(events.CCSentEvent{Control: name, CC: cc, Value: value})
			return nil
		})
		if err := r.check(c, "emit", err); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Router) check(c control.Control, op string, err error) error {
	key := c.Name() + "/" + op
	if err == nil {
		if r.failing[key] {
			delete(r.failing, key)
			r.logger.Info("Control recovered", "control", c.Name(), "op", op)
		}
		return nil
	}

	r.bus.Publish(events.ControlErrorEvent{Control: c.Name(), Op: op, Err: err.Error()})
	if !r.failing[key] {
		r.failing[key] = true
		r.logger.Warn("Control error", "control", c.Name(), "cc", c.CC(), "op", op, "error", err)
	}
	return fmt.Errorf("%s %s: %w", c.Name(), op, err)
}
