// Package control provides the small closed-loop controllers used by the
// beam tracker. It is deliberately self-contained.
package control

import (
	"fmt"
	"math"
)

// PID is a clamped single-axis PID controller.
//
// The integral accumulator carries its own clamp so the loop does not wind up
// while it is effectively open, e.g. during a long reacquisition scan.
// Not safe for concurrent use.
type PID struct {
	kp, ki, kd float64

	integral  float64
	lastError float64

	outMin, outMax float64
	intMin, intMax float64
}

// New builds a PID with the given gains and unbounded clamps.
func New(kp, ki, kd float64) *PID {
	return &PID{
		kp:     kp,
		ki:     ki,
		kd:     kd,
		outMin: math.Inf(-1),
		outMax: math.Inf(1),
		intMin: math.Inf(-1),
		intMax: math.Inf(1),
	}
}

// SetOutputLimits bounds the controller output.
func (p *PID) SetOutputLimits(min, max float64) error {
	if min > max {
		return fmt.Errorf("output limits inverted: %v > %v", min, max)
	}
	p.outMin, p.outMax = min, max
	return nil
}

// SetIntegralLimits bounds the integral accumulator.
func (p *PID) SetIntegralLimits(min, max float64) error {
	if min > max {
		return fmt.Errorf("integral limits inverted: %v > %v", min, max)
	}
	p.intMin, p.intMax = min, max
	return nil
}

// Step advances the controller by one sample and returns the clamped output.
// A non-positive dt contributes no derivative term.
func (p *PID) Step(err, dt float64) float64 {
	p.integral = clamp(p.integral+err*dt, p.intMin, p.intMax)

	derivative := 0.0
	if dt > 0 {
		derivative = (err - p.lastError) / dt
	}

	out := clamp(p.kp*err+p.ki*p.integral+p.kd*derivative, p.outMin, p.outMax)
	p.lastError = err
	return out
}

// Reset zeroes the accumulator and the stored error.
func (p *PID) Reset() {
	p.integral = 0
	p.lastError = 0
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
