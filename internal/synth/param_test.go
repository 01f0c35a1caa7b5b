package synth

import (
	"math"
	"testing"
)

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestParamSetAndHold(t *testing.T) {
	p := NewParam(0.5)
	if v := p.ValueAt(1); v != 0.5 {
		t.Fatalf("initial = %v", v)
	}
	p.SetValueAtTime(0.2, 1).SetValueAtTime(0.9, 2)
	for _, tc := range []struct{ t, want float64 }{
		{0.5, 0.5}, {1, 0.2}, {1.5, 0.2}, {2, 0.9}, {10, 0.9},
	} {
		if v := p.ValueAt(tc.t); v != tc.want {
			t.Fatalf("ValueAt(%v) = %v, want %v", tc.t, v, tc.want)
		}
	}
	// Going backwards must not reuse the forward cursor.
	if v := p.ValueAt(0.5); v != 0.5 {
		t.Fatalf("rewind ValueAt(0.5) = %v", v)
	}
}

func TestParamLinearRamp(t *testing.T) {
	p := NewParam(0).SetValueAtTime(0, 0).LinearRampToValueAtTime(1, 2)
	if v := p.ValueAt(1); !near(v, 0.5, 1e-12) {
		t.Fatalf("midpoint = %v", v)
	}
	if v := p.ValueAt(3); v != 1 {
		t.Fatalf("after ramp = %v", v)
	}
}

func TestParamExponentialRamp(t *testing.T) {
	p := NewParam(0).SetValueAtTime(1, 0).ExponentialRampToValueAtTime(0.01, 2)
	if v := p.ValueAt(1); !near(v, 0.1, 1e-9) {
		t.Fatalf("geometric midpoint = %v, want 0.1", v)
	}
	// From zero the ramp starts at the floor instead of holding.
	q := NewParam(0).SetValueAtTime(0, 0).ExponentialRampToValueAtTime(1, 1)
	if v := q.ValueAt(0.5); v <= expFloor || v >= 1 {
		t.Fatalf("ramp from zero = %v", v)
	}
	// A non-positive target holds the previous value until the event time.
	r := NewParam(0).SetValueAtTime(0.3, 0).ExponentialRampToValueAtTime(0, 1)
	if v := r.ValueAt(0.5); v != 0.3 {
		t.Fatalf("ramp to zero = %v", v)
	}
}

func TestParamEventsSortedByTime(t *testing.T) {
	p := NewParam(0)
	p.SetValueAtTime(3, 3)
	p.SetValueAtTime(1, 1)
	p.SetValueAtTime(2, 2)
	for i := 1; i <= 3; i++ {
		if v := p.ValueAt(float64(i)); v != float64(i) {
			t.Fatalf("ValueAt(%d) = %v", i, v)
		}
	}
	if p.End() != 3 {
		t.Fatalf("End = %v", p.End())
	}
}

func TestParamCancelAfter(t *testing.T) {
	p := NewParam(0).SetValueAtTime(0, 0).LinearRampToValueAtTime(1, 1).SetValueAtTime(5, 2)
	p.CancelAfter(0.5)
	if v := p.ValueAt(3); !near(v, 0.5, 1e-12) {
		t.Fatalf("pinned value = %v", v)
	}
}
