package control

import (
	"errors"
	"testing"

	"github.com/icco/possumbox/internal/led"
)

func testButton(cc, track uint8) *Button {
	return NewButton(ButtonConfig{CC: cc, Track: track, Color: led.Blue}, &fakeSource{level: true}, &recordingOutput{}, led.DefaultPalette())
}

func TestRegistryOrder(t *testing.T) {
	a, b := testButton(50, 8), testButton(51, 8)
	p := NewPot("G1", 20, 1, &fakeSampler{}, identity{})
	r, err := NewRegistry(b, p, a)
	if err != nil {
		t.Fatal(err)
	}
	all := r.All()
	if r.Len() != 3 || all[0] != Control(b) || all[1] != Control(p) || all[2] != Control(a) {
		t.Errorf("All() did not keep insertion order")
	}
	if c, ok := r.Lookup(20); !ok || c != Control(p) {
		t.Errorf("Lookup(20) = %v, %v", c, ok)
	}
	if _, ok := r.Lookup(99); ok {
		t.Error("Lookup(99) found a control")
	}
}

func TestRegistryRejects(t *testing.T) {
	tests := []struct {
		name     string
		controls []Control
		want     error
	}{
		{"duplicate cc", []Control{testButton(50, 1), testButton(50, 2)}, ErrDuplicateCC},
		{"track zero", []Control{testButton(50, 0)}, ErrTrackRange},
		{"track nine", []Control{testButton(50, 9)}, ErrTrackRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.controls...); !errors.Is(err, tt.want) {
				t.Errorf("NewRegistry() = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := NewRegistry(testButton(111, MasterTrack)); err != nil {
		t.Errorf("master track rejected: %v", err)
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindButton, KindExpanderButton, KindPot, KindMuxPot} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("fader"); err == nil {
		t.Error("ParseKind(fader) should fail")
	}
}
