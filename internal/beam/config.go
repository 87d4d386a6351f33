package beam

import "math"

// Config collects every option the tracker recognizes. Zero-valued fields
// are filled with defaults before validation, matching how the rest of the
// system treats configuration blocks.
type Config struct {
	// Starting setpoint, in radians or whatever unit the caller points in.
	InitialAzimuth   float64
	InitialElevation float64

	// Signal map bounds and resolutions.
	AzMin, AzMax float64
	ElMin, ElMax float64
	AzResolution float64
	ElResolution float64

	// Gradient-step policy.
	StepSize        float64
	StepMin         float64
	StepMax         float64
	StepAdaptFactor float64

	// Momentum is the fraction of previous velocity retained per tick,
	// in [0,1).
	Momentum float64

	ConvergenceEpsilon   float64
	ConvergenceThreshold int

	// SignalThreshold is the misalignment boundary, in [0,1].
	SignalThreshold float64

	// PID gains; if all three are zero the PID stage is disabled.
	PIDKp, PIDKi, PIDKd            float64
	PIDOutputMin, PIDOutputMax     float64
	PIDIntegralMin, PIDIntegralMax float64
}

// DefaultConfig returns a tracking configuration suitable for a normalized
// field over roughly +-0.1 rad.
func DefaultConfig() Config {
	return Config{
		AzMin: -0.1, AzMax: 0.1,
		ElMin: -0.1, ElMax: 0.1,
		AzResolution: 0.005,
		ElResolution: 0.005,

		StepSize:        0.005,
		StepMin:         1e-4,
		StepMax:         0.02,
		StepAdaptFactor: 1.2,

		Momentum:             0.5,
		ConvergenceEpsilon:   1e-3,
		ConvergenceThreshold: 5,
		SignalThreshold:      0.3,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.AzMin == 0 && c.AzMax == 0 {
		c.AzMin, c.AzMax = d.AzMin, d.AzMax
	}
	if c.ElMin == 0 && c.ElMax == 0 {
		c.ElMin, c.ElMax = d.ElMin, d.ElMax
	}
	if c.AzResolution == 0 {
		c.AzResolution = d.AzResolution
	}
	if c.ElResolution == 0 {
		c.ElResolution = d.ElResolution
	}
	if c.StepSize == 0 {
		c.StepSize = d.StepSize
	}
	if c.StepMin == 0 {
		c.StepMin = d.StepMin
	}
	if c.StepMax == 0 {
		c.StepMax = d.StepMax
	}
	if c.StepAdaptFactor == 0 {
		c.StepAdaptFactor = d.StepAdaptFactor
	}
	if c.ConvergenceEpsilon == 0 {
		c.ConvergenceEpsilon = d.ConvergenceEpsilon
	}
	if c.ConvergenceThreshold == 0 {
		c.ConvergenceThreshold = d.ConvergenceThreshold
	}
}

func (c Config) validate() error {
	if c.AzResolution <= 0 || c.ElResolution <= 0 {
		return errorf(CodeInvalidParam, "map resolution must be positive")
	}
	if c.AzMax-c.AzMin <= 0 || c.ElMax-c.ElMin <= 0 {
		return errorf(CodeInvalidParam, "map range must be positive")
	}
	if c.StepMin <= 0 || c.StepMax < c.StepMin {
		return errorf(CodeInvalidParam, "step bounds inverted: min %v max %v", c.StepMin, c.StepMax)
	}
	if c.StepSize < c.StepMin || c.StepSize > c.StepMax {
		return errorf(CodeInvalidParam, "step size %v outside [%v, %v]", c.StepSize, c.StepMin, c.StepMax)
	}
	if c.StepAdaptFactor <= 0 {
		return errorf(CodeInvalidParam, "step adapt factor must be positive")
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return errorf(CodeInvalidParam, "momentum %v outside [0,1)", c.Momentum)
	}
	if c.ConvergenceEpsilon <= 0 || c.ConvergenceThreshold < 1 {
		return errorf(CodeInvalidParam, "convergence policy must be positive")
	}
	if c.SignalThreshold < 0 || c.SignalThreshold > 1 {
		return errorf(CodeInvalidParam, "signal threshold %v outside [0,1]", c.SignalThreshold)
	}
	if math.IsNaN(c.InitialAzimuth) || math.IsNaN(c.InitialElevation) {
		return errorf(CodeInvalidParam, "initial setpoint is NaN")
	}
	return nil
}

func (c Config) pidEnabled() bool {
	return c.PIDKp != 0 || c.PIDKi != 0 || c.PIDKd != 0
}
