package beam

import (
	"math"

	"github.com/fsolink/beamtrack/internal/logging"
)

// gradientFloor is the magnitude below which a gradient is treated as a
// local maximum.
const gradientFloor = 1e-6

// estimateGradient central-differences the signal map around the current
// position. Probes that fall outside the map fall back to the current
// measured strength, degenerating to a one-sided difference at the edges.
func (t *Tracker) estimateGradient(delta float64) (gAz, gEl float64) {
	lookup := func(az, el float64) float64 {
		s, err := t.m.Get(az, el)
		if err != nil {
			return t.strength
		}
		return s
	}

	gAz = (lookup(t.az+delta, t.el) - lookup(t.az-delta, t.el)) / (2 * delta)
	gEl = (lookup(t.az, t.el+delta) - lookup(t.az, t.el-delta)) / (2 * delta)
	return gAz, gEl
}

// adaptStep grows the step after a gain and shrinks it after a loss, trading
// exploration for precision. Stagnation advances the convergence counter.
func (t *Tracker) adaptStep(improvement float64) {
	switch {
	case improvement > 0:
		t.step *= t.cfg.StepAdaptFactor
		t.convCount = 0
	case improvement < -t.cfg.ConvergenceEpsilon:
		t.step /= t.cfg.StepAdaptFactor
		t.convCount = 0
	default:
		t.convCount++
	}

	if t.step < t.cfg.StepMin {
		t.step = t.cfg.StepMin
	}
	if t.step > t.cfg.StepMax {
		t.step = t.cfg.StepMax
	}
}

// Update is the tracking tick. It accepts the strength measured at the
// current pointing direction, records it, and steers the setpoint uphill by
// momentum-augmented gradient ascent over the signal map.
//
// Measurements keep being accepted while misaligned so the link can recover
// on its own; the flag clears once strength crosses back over the threshold.
func (t *Tracker) Update(measured float64) error {
	if measured < 0 || math.IsNaN(measured) {
		return errorf(CodeInvalidParam, "measured strength %v must be non-negative", measured)
	}

	improvement := measured - t.strength
	t.strength = measured
	if err := t.m.Set(t.az, t.el, measured); err != nil {
		t.logger.Debug("position outside map, measurement not recorded",
			logging.Field{Key: "azimuth", Value: t.az},
			logging.Field{Key: "elevation", Value: t.el},
		)
	}

	t.checkMisalignment(measured)
	t.adaptStep(improvement)
	t.updateCount++
	defer t.report()

	if t.convCount >= t.cfg.ConvergenceThreshold {
		return nil
	}

	delta := t.step / 2
	gAz, gEl := t.estimateGradient(delta)
	if math.Hypot(gAz, gEl) < gradientFloor {
		// Flat neighbourhood: likely sitting on the local maximum.
		t.convCount++
		return nil
	}

	t.velAz = t.cfg.Momentum*t.velAz + t.step*gAz
	t.velEl = t.cfg.Momentum*t.velEl + t.step*gEl

	dAz, dEl := t.velAz, t.velEl
	if t.pidAz != nil {
		dAz = t.pidAz.Step(t.velAz, 1)
		dEl = t.pidEl.Step(t.velEl, 1)
	}
	t.az += dAz
	t.el += dEl

	if math.Hypot(t.velAz, t.velEl) < t.cfg.ConvergenceEpsilon {
		t.convCount++
	} else {
		t.convCount = 0
	}
	return nil
}
