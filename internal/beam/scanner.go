package beam

import (
	"math"

	"github.com/fsolink/beamtrack/internal/logging"
)

// runScan rasters a region centred on the current pointing direction,
// writing each measurement into the signal map, then moves the setpoint to
// the strongest cell. Writes that land outside the map are skipped.
//
// The callback may cancel the scan by returning a negative strength; a
// cancelled scan leaves position, strength and the scan counter untouched
// and reports completed=false.
func (t *Tracker) runScan(azRange, elRange, resolution float64, m Measurer) (completed bool, err error) {
	if azRange <= 0 || elRange <= 0 || resolution <= 0 {
		return false, errorf(CodeInvalidParam, "scan extents must be positive: az %v el %v res %v", azRange, elRange, resolution)
	}
	if m == nil {
		return false, errorf(CodeInvalidParam, "scan requires a measurer")
	}

	azPoints := pointsPerAxis(azRange, resolution)
	elPoints := pointsPerAxis(elRange, resolution)
	azStart := t.az - azRange/2
	elStart := t.el - elRange/2

	t.m.Clear()
	for j := 0; j < elPoints; j++ {
		el := elStart + float64(j)*resolution
		for i := 0; i < azPoints; i++ {
			az := azStart + float64(i)*resolution
			s := m.Measure(az, el)
			if s < 0 {
				t.logger.Debug("scan cancelled by callback",
					logging.Field{Key: "azimuth", Value: az},
					logging.Field{Key: "elevation", Value: el},
				)
				return false, nil
			}
			if err := t.m.Set(az, el, s); err != nil {
				t.logger.Debug("scan write outside map skipped",
					logging.Field{Key: "azimuth", Value: az},
					logging.Field{Key: "elevation", Value: el},
				)
			}
		}
	}

	t.az, t.el, t.strength = t.m.Peak()
	t.scanCount++
	return true, nil
}

// pointsPerAxis is ceil(extent/resolution)+1, so both region edges are
// always visited.
func pointsPerAxis(extent, resolution float64) int {
	return int(math.Ceil(extent/resolution)) + 1
}

// Scan rasters a region around the current position and re-centres on the
// discovered peak. A cancelled scan returns nil with the tracker unchanged.
func (t *Tracker) Scan(azRange, elRange, resolution float64, m Measurer) error {
	completed, err := t.runScan(azRange, elRange, resolution, m)
	if err != nil {
		return err
	}
	if completed {
		t.report()
	}
	return nil
}

// Calibrate locates the peer with a coarse scan over the full search range
// and refines with a fine scan around the coarse peak. On success the loop
// state is reset and the tracker enters steady tracking. If the refined peak
// is still below the signal threshold the tracker is left misaligned and a
// convergence error is returned.
func (t *Tracker) Calibrate(azRange, elRange, coarseRes, fineRes float64, m Measurer) error {
	if azRange <= 0 || elRange <= 0 || coarseRes <= 0 || fineRes <= 0 {
		return errorf(CodeInvalidParam, "calibrate extents must be positive")
	}
	if m == nil {
		return errorf(CodeInvalidParam, "calibrate requires a measurer")
	}
	if fineRes >= coarseRes {
		t.logger.Warn("fine resolution not finer than coarse",
			logging.Field{Key: "coarse", Value: coarseRes},
			logging.Field{Key: "fine", Value: fineRes},
		)
	}

	completed, err := t.runScan(azRange, elRange, coarseRes, m)
	if err != nil {
		return err
	}
	if !completed {
		return nil
	}
	coarseAz, coarseEl, coarseStrength := t.az, t.el, t.strength
	t.logger.Debug("coarse calibration peak",
		logging.Field{Key: "azimuth", Value: coarseAz},
		logging.Field{Key: "elevation", Value: coarseEl},
		logging.Field{Key: "strength", Value: coarseStrength},
	)

	fineExtent := 4 * coarseRes
	completed, err = t.runScan(fineExtent, fineExtent, fineRes, m)
	if err != nil {
		return err
	}
	if !completed {
		// Fine scan was cancelled; fall back to the coarse result. The map
		// keeps whatever the aborted fine scan wrote.
		t.az, t.el, t.strength = coarseAz, coarseEl, coarseStrength
	}

	if t.strength < t.threshold {
		t.misaligned = true
		t.report()
		return errorf(CodeConvergence, "calibration peak %.4f below threshold %.4f", t.strength, t.threshold)
	}

	t.resetControl()
	t.misaligned = false
	t.reacquiring = false
	t.calibrated = true
	t.logger.Info("calibration complete",
		logging.Field{Key: "azimuth", Value: t.az},
		logging.Field{Key: "elevation", Value: t.el},
		logging.Field{Key: "strength", Value: t.strength},
	)
	t.report()
	return nil
}

// Reacquire runs a wide-area scan around the last known position after
// loss of lock. On success both the misaligned and reacquiring flags clear;
// a below-threshold peak drops the tracker to misaligned regardless of the
// state it started in.
func (t *Tracker) Reacquire(azSearch, elSearch, resolution float64, m Measurer) error {
	if azSearch <= 0 || elSearch <= 0 || resolution <= 0 {
		return errorf(CodeInvalidParam, "reacquire extents must be positive")
	}
	if m == nil {
		return errorf(CodeInvalidParam, "reacquire requires a measurer")
	}

	t.reacquiring = true
	t.resetControl()
	t.logger.Info("reacquisition scan started",
		logging.Field{Key: "az_search", Value: azSearch},
		logging.Field{Key: "el_search", Value: elSearch},
	)

	completed, err := t.runScan(azSearch, elSearch, resolution, m)
	if err != nil {
		t.reacquiring = false
		return err
	}
	if !completed {
		t.reacquiring = false
		return nil
	}

	if t.strength < t.threshold {
		t.misaligned = true
		t.reacquiring = false
		t.report()
		return errorf(CodeConvergence, "reacquired peak %.4f below threshold %.4f", t.strength, t.threshold)
	}

	t.misaligned = false
	t.reacquiring = false
	t.calibrated = true
	t.logger.Info("reacquisition complete",
		logging.Field{Key: "azimuth", Value: t.az},
		logging.Field{Key: "elevation", Value: t.el},
		logging.Field{Key: "strength", Value: t.strength},
	)
	t.report()
	return nil
}
