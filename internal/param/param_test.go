package param

import (
	"math"
	"testing"
)

func TestLinearRampReachesTarget(t *testing.T) {
	p := New(0, 0, 1)
	p.LinearRampTo(1, 0, 2)
	if got := p.ValueAt(1); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midpoint = %f, want 0.5", got)
	}
	if got := p.ValueAt(2.5); got != 1 {
		t.Fatalf("after ramp = %f, want 1", got)
	}
}

func TestSetTargetApproachesExponentially(t *testing.T) {
	p := New(0, 0, 10)
	p.SetTargetAt(10, 0, 1)
	got := p.ValueAt(1)
	want := 10 * (1 - math.Exp(-1))
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("value after one time constant = %f, want %f", got, want)
	}
	if v := p.ValueAt(20); math.Abs(v-10) > 1e-6 {
		t.Fatalf("value after 20 tau = %f, want ~10", v)
	}
}

func TestRetargetStartsFromCurrentValue(t *testing.T) {
	p := New(0, 0, 1)
	p.LinearRampTo(1, 0, 4)
	mid := p.ValueAt(1)
	p.LinearRampTo(0, 1, 1)
	if got := p.ValueAt(1); math.Abs(got-mid) > 1e-12 {
		t.Fatalf("retarget jumped: %f -> %f", mid, got)
	}
	if got := p.ValueAt(3); got != 0 {
		t.Fatalf("old ramp still active: %f", got)
	}
	if p.Target() != 0 {
		t.Fatalf("target = %f, want 0", p.Target())
	}
}

func TestWritesAreClampedAndNaNIgnored(t *testing.T) {
	p := New(0.5, 0, 1)
	p.SetValue(4, 0)
	if got := p.ValueAt(0); got != 1 {
		t.Fatalf("clamped value = %f, want 1", got)
	}
	p.SetTargetAt(math.NaN(), 1, 0.1)
	if got := p.ValueAt(2); got != 1 {
		t.Fatalf("NaN write changed value to %f", got)
	}
}

func TestSpanInterpolatesQuantum(t *testing.T) {
	p := New(0, 0, 1)
	p.LinearRampTo(1, 0, 1)
	v0, step := p.Span(0, 0.5, 64)
	if v0 != 0 {
		t.Fatalf("v0 = %f", v0)
	}
	if math.Abs(v0+step*64-0.5) > 1e-12 {
		t.Fatalf("span end = %f, want 0.5", v0+step*64)
	}
}

func TestClockAdvance(t *testing.T) {
	c := NewClock(48000)
	c.Advance(24000)
	if c.Now() != 0.5 {
		t.Fatalf("now = %f, want 0.5", c.Now())
	}
}

func TestZeroDurationWritesAreImmediate(t *testing.T) {
	p := New(0, 0, 1)
	p.SetTargetAt(0.8, 2, 0)
	if v := p.ValueAt(2); v != 0.8 {
		t.Fatalf("expected immediate value at write time, got %v", v)
	}
	p.LinearRampTo(0.2, 3, 0)
	if v := p.ValueAt(3); v != 0.2 {
		t.Fatalf("expected immediate ramp, got %v", v)
	}
	// A retarget at the same instant starts from the new value.
	p.SetTargetAt(1, 3, 1)
	if v := p.ValueAt(3); v != 0.2 {
		t.Fatalf("retarget should start from 0.2, got %v", v)
	}
}
