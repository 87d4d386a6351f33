package beam

import (
	"github.com/fsolink/beamtrack/internal/logging"
	"github.com/fsolink/beamtrack/internal/telemetry"
)

// Status is a snapshot of the tracker's externally observable state.
type Status struct {
	Aligned     bool
	Converged   bool
	Reacquiring bool
	Calibrated  bool
	State       telemetry.LinkState

	Azimuth   float64
	Elevation float64
	Strength  float64
	StepSize  float64

	ScanCount   int
	UpdateCount int
}

// state derives the link state from the misaligned/reacquiring flags. The
// flags are the source of truth; the enum exists for status and telemetry.
func (t *Tracker) state() telemetry.LinkState {
	switch {
	case t.reacquiring:
		return telemetry.LinkReacquiring
	case t.misaligned:
		return telemetry.LinkMisaligned
	case !t.calibrated:
		return telemetry.LinkUncalibrated
	default:
		return telemetry.LinkTracking
	}
}

// checkMisalignment flips the misaligned flag against the signal threshold.
// It is edge-triggered: transitions are logged once, steady state is silent.
func (t *Tracker) checkMisalignment(measured float64) {
	below := measured < t.threshold
	switch {
	case below && !t.misaligned:
		t.misaligned = true
		t.logger.Warn("beam misaligned",
			logging.Field{Key: "strength", Value: measured},
			logging.Field{Key: "threshold", Value: t.threshold},
		)
	case !below && t.misaligned:
		t.misaligned = false
		t.logger.Info("beam realigned",
			logging.Field{Key: "strength", Value: measured},
			logging.Field{Key: "threshold", Value: t.threshold},
		)
	}
}

// Status returns a snapshot of the tracker state.
func (t *Tracker) Status() Status {
	return Status{
		Aligned:     !t.misaligned,
		Converged:   t.IsConverged(),
		Reacquiring: t.reacquiring,
		Calibrated:  t.calibrated,
		State:       t.state(),
		Azimuth:     t.az,
		Elevation:   t.el,
		Strength:    t.strength,
		StepSize:    t.step,
		ScanCount:   t.scanCount,
		UpdateCount: t.updateCount,
	}
}

// IsConverged reports whether the convergence counter has latched.
func (t *Tracker) IsConverged() bool {
	return t.convCount >= t.cfg.ConvergenceThreshold
}
