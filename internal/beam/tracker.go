// Package beam implements the adaptive beam tracking core: a signal-strength
// map over (azimuth, elevation), a raster scanner, a momentum-augmented
// gradient-ascent tracking loop, and the calibrate/track/misaligned/reacquire
// state machine that ties them together.
//
// A Tracker is single-threaded by design; callers serialize access. Multiple
// independent trackers may run in parallel goroutines, one per beam.
package beam

import (
	"math"

	"github.com/fsolink/beamtrack/internal/control"
	"github.com/fsolink/beamtrack/internal/logging"
	"github.com/fsolink/beamtrack/internal/telemetry"
)

// Tracker keeps a directional optical beam pointed at a peer terminal. It
// exclusively owns its SignalMap and optional PID controllers.
type Tracker struct {
	cfg      Config
	logger   logging.Logger
	reporter telemetry.Reporter

	m            *SignalMap
	pidAz, pidEl *control.PID

	az, el   float64
	strength float64

	velAz, velEl float64
	step         float64
	convCount    int
	threshold    float64

	misaligned  bool
	reacquiring bool
	calibrated  bool

	scanCount   int
	updateCount int
}

// New builds a tracker from cfg. The reporter and logger may be nil.
// Calibrate should be called before tracking is relied upon.
func New(cfg Config, reporter telemetry.Reporter, logger logging.Logger) (*Tracker, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	m, err := NewSignalMap(cfg.AzMin, cfg.AzMax, cfg.ElMin, cfg.ElMax, cfg.AzResolution, cfg.ElResolution)
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		cfg:       cfg,
		logger:    logger,
		reporter:  reporter,
		m:         m,
		az:        cfg.InitialAzimuth,
		el:        cfg.InitialElevation,
		step:      cfg.StepSize,
		threshold: cfg.SignalThreshold,
	}

	if cfg.pidEnabled() {
		t.pidAz = newAxisPID(cfg)
		t.pidEl = newAxisPID(cfg)
	}
	return t, nil
}

func newAxisPID(cfg Config) *control.PID {
	p := control.New(cfg.PIDKp, cfg.PIDKi, cfg.PIDKd)
	if cfg.PIDOutputMin != 0 || cfg.PIDOutputMax != 0 {
		_ = p.SetOutputLimits(cfg.PIDOutputMin, cfg.PIDOutputMax)
	}
	if cfg.PIDIntegralMin != 0 || cfg.PIDIntegralMax != 0 {
		_ = p.SetIntegralLimits(cfg.PIDIntegralMin, cfg.PIDIntegralMax)
	}
	return p
}

// SetThreshold updates the misalignment boundary, in [0,1].
func (t *Tracker) SetThreshold(threshold float64) error {
	if threshold < 0 || threshold > 1 || math.IsNaN(threshold) {
		return errorf(CodeInvalidParam, "threshold %v outside [0,1]", threshold)
	}
	t.threshold = threshold
	return nil
}

// Threshold returns the current misalignment boundary.
func (t *Tracker) Threshold() float64 { return t.threshold }

// Position returns the current pointing setpoint.
func (t *Tracker) Position() (azimuth, elevation float64) { return t.az, t.el }

// Strength returns the most recent measured signal strength.
func (t *Tracker) Strength() float64 { return t.strength }

// Map exposes the tracker's signal map for read-side inspection.
func (t *Tracker) Map() *SignalMap { return t.m }

// UpdateMap deposits an externally measured strength, e.g. from a passive
// monitor, without advancing the tracking loop.
func (t *Tracker) UpdateMap(az, el, strength float64) error {
	return t.m.Set(az, el, strength)
}

// FindPeak returns the strongest cell in the signal map.
func (t *Tracker) FindPeak() (az, el, strength float64) {
	return t.m.Peak()
}

// resetControl clears the convergence counter and any PID state. Invoked on
// calibration and reacquisition entry so stale loop state cannot leak across
// mode changes.
func (t *Tracker) resetControl() {
	t.convCount = 0
	if t.pidAz != nil {
		t.pidAz.Reset()
		t.pidEl.Reset()
	}
}

func (t *Tracker) report() {
	if t.reporter != nil {
		t.reporter.Report(t.az, t.el, t.strength, t.state())
	}
}
