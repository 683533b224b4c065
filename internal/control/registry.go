package control

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateCC is returned when two controls share a CC number.
	ErrDuplicateCC = errors.New("control: duplicate cc")
	// ErrTrackRange is returned for a track outside 1..MaxTrack that is not
	// MasterTrack.
	ErrTrackRange = errors.New("control: track out of range")
)

// Registry is the fixed, ordered set of controls on the surface.
type Registry struct {
	controls []Control
	byCC     map[uint8]Control
}

// NewRegistry validates and orders controls as given.
func NewRegistry(controls ...Control) (*Registry, error) {
	r := &Registry{
		controls: make([]Control, 0, len(controls)),
		byCC:     make(map[uint8]Control, len(controls)),
	}
	for _, c := range controls {
		if prev, ok := r.byCC[c.CC()]; ok {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateCC, c.CC(), prev.Name(), c.Name())
		}
		if c.CC() > 127 {
			return nil, fmt.Errorf("control: %s: cc %d out of range", c.Name(), c.CC())
		}
		if !ValidTrack(c.Track()) {
			return nil, fmt.Errorf("%w: %s on track %d", ErrTrackRange, c.Name(), c.Track())
		}
		r.controls = append(r.controls, c)
		r.byCC[c.CC()] = c
	}
	return r, nil
}

// All returns the controls in registry order. The slice must not be
// modified.
func (r *Registry) All() []Control { return r.controls }

// Len returns the number of controls.
func (r *Registry) Len() int { return len(r.controls) }

// Lookup returns the control on cc.
func (r *Registry) Lookup(cc uint8) (Control, bool) {
	c, ok := r.byCC[cc]
	return c, ok
}
