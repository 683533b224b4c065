package capture

import (
	"path/filepath"
	"testing"
	"time"
)

func TestToTicks(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want uint32
	}{
		{0, 0},
		{500 * time.Millisecond, 960},
		{time.Second, 1920},
		{5 * time.Millisecond, 10},
	}
	for _, tt := range tests {
		if got := toTicks(tt.d); got != tt.want {
			t.Errorf("toTicks(%s) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestWriteAndReadBack(t *testing.T) {
	clock := time.Unix(0, 0)
	r := newRecorder(func() time.Time { return clock })

	r.Add(7, 126, 4)
	clock = clock.Add(500 * time.Millisecond)
	r.Add(7, 50, 127)
	clock = clock.Add(time.Second)
	r.Add(7, 20, 64)

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	path := filepath.Join(t.TempDir(), "session.mid")
	if err := r.WriteFile(path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	want := []Event{
		{At: 0, Channel: 7, CC: 126, Value: 4},
		{At: 500 * time.Millisecond, Channel: 7, CC: 50, Value: 127},
		{At: 1500 * time.Millisecond, Channel: 7, CC: 20, Value: 64},
	}
	if len(got) != len(want) {
		t.Fatalf("read %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mid")
	if err := NewRecorder().WriteFile(path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("read %v from an empty recording", got)
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.mid")); err == nil {
		t.Error("ReadFile of a missing file should fail")
	}
}
