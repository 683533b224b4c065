// Package smooth filters raw ADC readings so that pots hold still when
// untouched but still follow fast movement.
package smooth

import "math"

// Resolution is the number of distinct raw values from the ADC.
const Resolution = 1024

const (
	defaultSnapMultiplier    = 0.01
	defaultActivityThreshold = 4.0
	errorWeight              = 0.4
)

// Option configures a Responsive filter.
type Option func(*Responsive)

// WithSnapMultiplier controls how quickly the output catches up with large
// movements. Values are clamped to 0..1; smaller is smoother.
func WithSnapMultiplier(m float64) Option {
	return func(r *Responsive) {
		r.snapMultiplier = math.Max(0, math.Min(1, m))
	}
}

// WithSleep freezes the output while the input error stays below threshold,
// and drags readings near either end of the range to the edge.
func WithSleep(threshold float64) Option {
	return func(r *Responsive) {
		r.sleepEnable = true
		r.activityThreshold = threshold
	}
}

// Responsive is an exponential moving average whose weight follows a
// hyperbolic curve of the distance between input and output. Small
// differences (noise) move the output slowly; large ones snap.
//
// A Responsive is not safe for concurrent use and must not be shared
// between controls.
type Responsive struct {
	snapMultiplier    float64
	activityThreshold float64
	sleepEnable       bool
	edgeSnap          bool

	smooth   float64
	errorEMA float64
	sleeping bool
	value    int
	changed  bool
}

// NewResponsive returns a filter starting at zero.
func NewResponsive(opts ...Option) *Responsive {
	r := &Responsive{
		snapMultiplier:    defaultSnapMultiplier,
		activityThreshold: defaultActivityThreshold,
		edgeSnap:          true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Update feeds a raw reading and returns the new smoothed value in
// 0..Resolution-1.
func (r *Responsive) Update(raw int) int {
	prev := r.value
	r.value = r.next(float64(raw))
	r.changed = r.value != prev
	return r.value
}

// Value returns the last smoothed value.
func (r *Responsive) Value() int { return r.value }

// Changed reports whether the last Update moved the output.
func (r *Responsive) Changed() bool { return r.changed }

// Sleeping reports whether the filter is currently holding its output.
func (r *Responsive) Sleeping() bool { return r.sleeping }

func (r *Responsive) next(in float64) int {
	if r.sleepEnable && r.edgeSnap {
		switch {
		case in < r.activityThreshold:
			in = in*2 - r.activityThreshold
		case in > Resolution-r.activityThreshold:
			in = in*2 - Resolution + r.activityThreshold
		}
	}

	diff := math.Abs(in - r.smooth)
	r.errorEMA += ((in - r.smooth) - r.errorEMA) * errorWeight

	if r.sleepEnable {
		r.sleeping = math.Abs(r.errorEMA) < r.activityThreshold
		if r.sleeping {
			return int(r.smooth)
		}
	}

	r.smooth += (in - r.smooth) * snapCurve(diff*r.snapMultiplier)

	if r.smooth < 0 {
		r.smooth = 0
	} else if r.smooth > Resolution-1 {
		r.smooth = Resolution - 1
	}
	return int(r.smooth)
}

// snapCurve maps 0..inf onto 0..1, rising steeply for small x.
func snapCurve(x float64) float64 {
	y := 1 / (x + 1)
	y = (1 - y) * 2
	if y > 1 {
		return 1
	}
	return y
}
