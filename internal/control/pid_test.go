package control

import (
	"math"
	"testing"
)

func TestProportionalOnly(t *testing.T) {
	p := New(2, 0, 0)
	if got := p.Step(0.5, 1); got != 1 {
		t.Fatalf("expected kp*err = 1, got %v", got)
	}
	if got := p.Step(-0.25, 1); got != -0.5 {
		t.Fatalf("expected kp*err = -0.5, got %v", got)
	}
}

func TestIntegralAccumulates(t *testing.T) {
	p := New(0, 1, 0)
	var got float64
	for i := 0; i < 4; i++ {
		got = p.Step(0.25, 1)
	}
	if math.Abs(got-1) > 1e-12 {
		t.Fatalf("expected accumulated integral 1, got %v", got)
	}
}

func TestIntegralScalesWithDt(t *testing.T) {
	p := New(0, 1, 0)
	got := p.Step(1, 0.5)
	if got != 0.5 {
		t.Fatalf("expected err*dt = 0.5, got %v", got)
	}
}

func TestDerivativeTerm(t *testing.T) {
	p := New(0, 0, 1)
	if got := p.Step(0.5, 1); got != 0.5 {
		t.Fatalf("first step derivative from zero, got %v", got)
	}
	// Error held constant: derivative vanishes.
	if got := p.Step(0.5, 1); got != 0 {
		t.Fatalf("constant error should zero the derivative, got %v", got)
	}
	if got := p.Step(0.25, 0.5); got != -0.5 {
		t.Fatalf("expected (0.25-0.5)/0.5 = -0.5, got %v", got)
	}
}

func TestNonPositiveDtSkipsDerivative(t *testing.T) {
	p := New(0, 0, 10)
	if got := p.Step(1, 0); got != 0 {
		t.Fatalf("dt=0 must contribute no derivative, got %v", got)
	}
	if got := p.Step(2, -1); got != 0 {
		t.Fatalf("negative dt must contribute no derivative, got %v", got)
	}
}

func TestOutputClamp(t *testing.T) {
	p := New(10, 0, 0)
	if err := p.SetOutputLimits(-1, 1); err != nil {
		t.Fatalf("set output limits: %v", err)
	}
	if got := p.Step(5, 1); got != 1 {
		t.Fatalf("expected output pinned at 1, got %v", got)
	}
	if got := p.Step(-5, 1); got != -1 {
		t.Fatalf("expected output pinned at -1, got %v", got)
	}
}

func TestIntegralAntiWindup(t *testing.T) {
	p := New(0, 1, 0)
	if err := p.SetIntegralLimits(-2, 2); err != nil {
		t.Fatalf("set integral limits: %v", err)
	}
	for i := 0; i < 100; i++ {
		p.Step(1, 1)
	}
	// Accumulator is pinned, so one opposing sample pulls straight off the
	// clamp instead of unwinding a hundred samples of error.
	if got := p.Step(-1, 1); got != 1 {
		t.Fatalf("expected clamped integral 2-1 = 1, got %v", got)
	}
}

func TestInvertedLimitsRejected(t *testing.T) {
	p := New(1, 1, 1)
	if err := p.SetOutputLimits(1, -1); err == nil {
		t.Fatal("expected error for inverted output limits")
	}
	if err := p.SetIntegralLimits(3, 2); err == nil {
		t.Fatal("expected error for inverted integral limits")
	}
}

func TestResetClearsState(t *testing.T) {
	p := New(1, 1, 1)
	p.Step(1, 1)
	p.Step(2, 1)
	p.Reset()
	// After reset the controller behaves like a fresh one.
	if got := p.Step(0.5, 1); got != New(1, 1, 1).Step(0.5, 1) {
		t.Fatalf("reset controller diverged from fresh one: %v", got)
	}
}
