// Package surface runs the control surface: it owns the registry, routes
// host messages and polls every control once per tick.
package surface

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/icco/possumbox/internal/control"
	"github.com/icco/possumbox/internal/events"
	"github.com/icco/possumbox/internal/metrics"
)

const (
	// DefaultTickPeriod is the delay between poll ticks.
	DefaultTickPeriod = 5 * time.Millisecond
	// DefaultQueueSize bounds inbound messages waiting for the next tick.
	DefaultQueueSize = 256
)

// Message is one inbound control change.
type Message struct {
	CC    uint8
	Value uint8
}

// Option configures a Surface.
type Option func(*Surface)

// WithTickPeriod sets the poll period.
func WithTickPeriod(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithQueueSize sets the inbound queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Surface) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithEvents publishes surface activity on bus.
func WithEvents(bus *events.Bus) Option {
	return func(s *Surface) { s.bus = bus }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Surface) { s.logger = l }
}

// Surface is the poll loop. Deliver may be called from any goroutine;
// everything else must run on the loop's goroutine.
type Surface struct {
	reg    *control.Registry
	router *Router
	send   control.SendFunc
	inbox  chan Message

	period    time.Duration
	queueSize int
	bus       *events.Bus
	logger    *slog.Logger
}

// New returns a surface over reg sending through send. trackCC is the
// inbound track-count broadcast.
func New(reg *control.Registry, send control.SendFunc, trackCC uint8, opts ...Option) *Surface {
	s := &Surface{
		reg:       reg,
		send:      send,
		period:    DefaultTickPeriod,
		queueSize: DefaultQueueSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.inbox = make(chan Message, s.queueSize)
	s.router = NewRouter(reg, trackCC, s.bus, s.logger)
	return s
}

// Registry returns the controls.
func (s *Surface) Registry() *control.Registry { return s.reg }

// Router returns the router.
func (s *Surface) Router() *Router { return s.router }

// Deliver queues a host message for the next tick. It never blocks; when
// the queue is full the message is dropped and false returned.
func (s *Surface) Deliver(cc, value uint8) bool {
	select {
	case s.inbox <- Message{CC: cc, Value: value}:
		return true
	default:
		s.bus.Publish(events.CCDroppedEvent{CC: cc, Value: value, Reason: "queue full"})
		return false
	}
}

// Init initializes every control once. Failures are logged and returned
// together; controls that failed stay in the registry.
func (s *Surface) Init() error {
	var errs []error
	for _, c := range s.reg.All() {
		if err := c.Init(); err != nil {
			s.logger.Warn("Control init failed", "control", c.Name(), "cc", c.CC(), "error", err)
			s.bus.Publish(events.ControlErrorEvent{Control: c.Name(), Op: "init", Err: err.Error()})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Tick applies every queued host message, then polls every control.
func (s *Surface) Tick() {
	start := time.Now()
	s.drain()
	// Router logs and counts per-control failures.
	_ = s.router.Emit(s.send)
	metrics.ObserveTick(time.Since(start))
}

func (s *Surface) drain() {
	for {
		select {
		case m := <-s.inbox:
			_ = s.router.Handle(m.CC, m.Value)
		default:
			return
		}
	}
}

// Run ticks until ctx is done.
func (s *Surface) Run(ctx context.Context) error {
	s.logger.Info("Surface running", "controls", s.reg.Len(), "period", s.period)

	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Surface stopped")
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}
