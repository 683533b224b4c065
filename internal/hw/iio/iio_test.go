package iio

import (
	"os"
	"path/filepath"
	"testing"

	"periph.io/x/conn/v3/physic"
)

func writeAttr(t *testing.T, dir, name, value string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(value), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReadScalesResolution(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		bits int
		raw  string
		want int32
	}{
		{"12-bit", 12, "4095\n", 1023},
		{"10-bit", 10, "512\n", 512},
		{"8-bit", 8, "255", 1020},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeAttr(t, dir, "in_voltage0_raw", tt.raw)
			c, err := Open("A0", p, tt.bits)
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			s, err := c.Read()
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if s.Raw != tt.want {
				t.Errorf("Raw = %d, want %d", s.Raw, tt.want)
			}
		})
	}
}

func TestReadVoltageFromScale(t *testing.T) {
	dir := t.TempDir()
	p := writeAttr(t, dir, "in_voltage3_raw", "1000")
	writeAttr(t, dir, "in_voltage3_scale", "0.805664062")

	c, err := Open("A3", p, 12)
	if err != nil {
		t.Fatal(err)
	}
	s, err := c.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := 805 * physic.MilliVolt
	if diff := s.V - want; diff < -physic.MilliVolt || diff > physic.MilliVolt {
		t.Errorf("V = %s, want about %s", s.V, want)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open("missing", filepath.Join(dir, "nope_raw"), 12); err == nil {
		t.Error("Open of a missing attribute should fail")
	}
	p := writeAttr(t, dir, "in_voltage1_raw", "1")
	if _, err := Open("A1", p, 0); err == nil {
		t.Error("Open with 0 bits should fail")
	}
}

func TestReadGarbage(t *testing.T) {
	dir := t.TempDir()
	p := writeAttr(t, dir, "in_voltage2_raw", "busy")
	c, err := Open("A2", p, 12)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Read(); err == nil {
		t.Error("Read of a non-numeric attribute should fail")
	}
}
