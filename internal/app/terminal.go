// Package app wires the tracking core, the signal source and the mount into
// the terminal's run loop: calibrate once, then tick the tracking loop and
// fall back to reacquisition when the link stays degraded.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/fsolink/beamtrack/internal/beam"
	"github.com/fsolink/beamtrack/internal/config"
	"github.com/fsolink/beamtrack/internal/discovery"
	"github.com/fsolink/beamtrack/internal/logging"
)

// Pointer drives a physical mount. The simulator runs without one.
type Pointer interface {
	Point(ctx context.Context, azimuth, elevation float64) error
}

// BrowseFunc locates peer terminals on the network.
type BrowseFunc func(service, domain string, timeoutSeconds int) ([]discovery.Terminal, error)

// Terminal owns one tracked beam.
type Terminal struct {
	cfg     config.Config
	tracker *beam.Tracker
	source  beam.Measurer
	pointer Pointer
	logger  logging.Logger
	browse  BrowseFunc

	misalignedTicks int
}

// NewTerminal assembles a terminal. pointer may be nil.
func NewTerminal(cfg config.Config, tracker *beam.Tracker, source beam.Measurer, pointer Pointer, logger logging.Logger) *Terminal {
	if logger == nil {
		logger = logging.Default()
	}
	return &Terminal{
		cfg:     cfg,
		tracker: tracker,
		source:  source,
		pointer: pointer,
		logger:  logger,
		browse:  discovery.DiscoverTerminals,
	}
}

// Run calibrates and then ticks the tracking loop until ctx is cancelled.
// A failed initial calibration is not fatal: the loop keeps measuring and
// the reacquisition policy takes over.
func (t *Terminal) Run(ctx context.Context) error {
	if t.cfg.Discovery.Enabled {
		t.announcePeers()
	}

	run := t.cfg.Run
	err := t.tracker.Calibrate(run.CalibrateRange, run.CalibrateRange,
		run.CalibrateCoarseRes, run.CalibrateFineRes, t.source)
	switch {
	case err == nil:
	case errors.Is(err, beam.ErrConvergence):
		t.logger.Warn("initial calibration below threshold, continuing degraded")
	default:
		return err
	}
	t.pointMount(ctx)

	ticker := time.NewTicker(t.cfg.UpdateInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := t.tick(ctx); err != nil {
				return err
			}
		}
	}
}

// tick runs one measure/update cycle and applies the reacquisition policy.
func (t *Terminal) tick(ctx context.Context) error {
	az, el := t.tracker.Position()
	if err := t.tracker.Update(t.source.Measure(az, el)); err != nil {
		return err
	}
	t.pointMount(ctx)

	if t.tracker.Status().Aligned {
		t.misalignedTicks = 0
		return nil
	}

	t.misalignedTicks++
	if t.misalignedTicks < t.cfg.Run.MisalignedTicks {
		return nil
	}
	t.misalignedTicks = 0

	run := t.cfg.Run
	err := t.tracker.Reacquire(run.ReacquireRange, run.ReacquireRange, run.ReacquireRes, t.source)
	if errors.Is(err, beam.ErrConvergence) {
		// Peer still dark; the counter restarts and we try again later.
		t.logger.Warn("reacquisition found no usable signal")
		return nil
	}
	if err != nil {
		return err
	}
	t.pointMount(ctx)
	return nil
}

// announcePeers browses for link partners and logs what it finds. Discovery
// is informational; a failed browse never blocks tracking.
func (t *Terminal) announcePeers() {
	d := t.cfg.Discovery
	peers, err := t.browse(d.Service, d.Domain, d.TimeoutSeconds)
	if err != nil {
		t.logger.Warn("peer discovery failed",
			logging.Field{Key: "error", Value: err.Error()},
		)
		return
	}
	if len(peers) == 0 {
		t.logger.Info("no peer terminals found")
		return
	}
	for _, p := range peers {
		t.logger.Info("peer terminal",
			logging.Field{Key: "instance", Value: p.Instance},
			logging.Field{Key: "hostname", Value: p.Hostname},
			logging.Field{Key: "port", Value: p.Port},
		)
	}
}

func (t *Terminal) pointMount(ctx context.Context) {
	if t.pointer == nil {
		return
	}
	az, el := t.tracker.Position()
	if err := t.pointer.Point(ctx, az, el); err != nil {
		t.logger.Error("mount pointing failed",
			logging.Field{Key: "error", Value: err.Error()},
		)
	}
}
