// Package control implements the surface's physical inputs behind a single
// lifecycle: Init once, Emit every tick, Receive host feedback and follow
// the track-enable broadcast.
package control

import "fmt"

// MaxTrack is the highest track index a control can be assigned to.
const MaxTrack = 8

// MasterTrack marks controls that are always enabled and ignore the
// track-count broadcast.
const MasterTrack uint8 = 127

// SendFunc transmits one outbound control change.
type SendFunc func(cc, value uint8) error

// Kind is the closed set of control variants.
type Kind int

const (
	KindButton Kind = iota
	KindExpanderButton
	KindPot
	KindMuxPot
)

func (k Kind) String() string {
	switch k {
	case KindButton:
		return "button"
	case KindExpanderButton:
		return "expander-button"
	case KindPot:
		return "pot"
	case KindMuxPot:
		return "mux-pot"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the names returned by Kind.String.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindButton, KindExpanderButton, KindPot, KindMuxPot} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("control: unknown kind %q", s)
}

// Control is one physical input on the surface.
type Control interface {
	Name() string
	CC() uint8
	Track() uint8
	Kind() Kind
	Enabled() bool

	// Init attaches the input and sets the baseline LED state.
	Init() error
	// Emit polls the input and sends at most one message.
	Emit(send SendFunc) error
	// Receive applies a value sent by the host on this control's CC.
	Receive(value uint8) error
	// SetEnabled follows the track-count broadcast. Unchanged state is a
	// no-op.
	SetEnabled(enabled bool) error
}

// ValidTrack reports whether t is a track index or MasterTrack.
func ValidTrack(t uint8) bool {
	return t == MasterTrack || (t >= 1 && t <= MaxTrack)
}

type base struct {
	name  string
	cc    uint8
	track uint8
	kind  Kind
}

func (b *base) Name() string {
	if b.name == "" {
		return fmt.Sprintf("cc%d", b.cc)
	}
	return b.name
}

func (b *base) CC() uint8    { return b.cc }
func (b *base) Track() uint8 { return b.track }
func (b *base) Kind() Kind   { return b.kind }
