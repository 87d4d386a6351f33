package telemetry

import "github.com/fsolink/beamtrack/internal/logging"

// LinkState mirrors the tracker's alignment state machine for reporting.
type LinkState string

const (
	LinkUncalibrated LinkState = "uncalibrated"
	LinkTracking     LinkState = "tracking"
	LinkMisaligned   LinkState = "misaligned"
	LinkReacquiring  LinkState = "reacquiring"
)

// Reporter captures pointing telemetry events.
type Reporter interface {
	Report(azimuth, elevation, strength float64, state LinkState)
}

// StdoutReporter logs pointing updates through the structured logger.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter with the provided logger.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

func (r StdoutReporter) Report(azimuth, elevation, strength float64, state LinkState) {
	r.logger.Info("pointing sample",
		logging.Field{Key: "subsystem", Value: "telemetry"},
		logging.Field{Key: "azimuth", Value: azimuth},
		logging.Field{Key: "elevation", Value: elevation},
		logging.Field{Key: "strength", Value: strength},
		logging.Field{Key: "link_state", Value: state},
	)
}

// MultiReporter fans out telemetry to multiple destinations.
type MultiReporter []Reporter

// Report forwards the sample to each configured reporter.
func (m MultiReporter) Report(azimuth, elevation, strength float64, state LinkState) {
	for _, r := range m {
		if r != nil {
			r.Report(azimuth, elevation, strength, state)
		}
	}
}
