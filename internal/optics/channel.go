// Package optics simulates a free-space optical channel: a Gaussian beam
// profile degraded by scintillation and pointing jitter. It stands in for the
// photodiode feedback of a real terminal so the tracking loop can run end to
// end on a desk.
package optics

import (
	"math"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes the simulated link.
type Config struct {
	// Boresight is the direction of the peer terminal.
	BoresightAzimuth   float64
	BoresightElevation float64

	// BeamWidth is the 1/e half-width of the received intensity profile.
	BeamWidth float64

	// Power is the on-axis strength in clear air.
	Power float64

	// ScintillationSigma is the log-amplitude deviation of atmospheric
	// fading. Zero disables fading.
	ScintillationSigma float64

	// JitterSigma is the per-axis pointing jitter deviation. Zero disables
	// jitter.
	JitterSigma float64

	// Seed for the noise processes; zero picks a fixed default so runs are
	// reproducible.
	Seed uint64
}

// DefaultConfig returns a benign short link.
func DefaultConfig() Config {
	return Config{
		BeamWidth: 0.02,
		Power:     1,
	}
}

// Channel is a simulated optical link. The boresight may be moved while the
// tracker runs, e.g. to emulate platform drift.
type Channel struct {
	mu  sync.Mutex
	cfg Config

	fading distuv.LogNormal
	jitter distuv.Normal
}

// New builds a channel from cfg.
func New(cfg Config) *Channel {
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = DefaultConfig().BeamWidth
	}
	if cfg.Power <= 0 {
		cfg.Power = DefaultConfig().Power
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	src := rand.NewSource(seed)

	sigma := cfg.ScintillationSigma
	if sigma <= 0 {
		sigma = 1e-12
	}
	return &Channel{
		cfg: cfg,
		// Mu = -sigma^2/2 keeps the fading mean at unity, so scintillation
		// redistributes power over time rather than adding or removing it.
		fading: distuv.LogNormal{Mu: -sigma * sigma / 2, Sigma: sigma, Src: src},
		jitter: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

// Measure returns the received strength for a pointing direction. It
// implements the measurement callback the tracker's scan and update paths
// consume.
func (c *Channel) Measure(azimuth, elevation float64) float64 {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	dAz := azimuth - cfg.BoresightAzimuth
	dEl := elevation - cfg.BoresightElevation
	if cfg.JitterSigma > 0 {
		dAz += c.jitter.Rand() * cfg.JitterSigma
		dEl += c.jitter.Rand() * cfg.JitterSigma
	}

	r2 := dAz*dAz + dEl*dEl
	strength := cfg.Power * math.Exp(-r2/(cfg.BeamWidth*cfg.BeamWidth))
	if cfg.ScintillationSigma > 0 {
		strength *= c.fading.Rand()
	}
	return strength
}

// SetBoresight moves the peer terminal.
func (c *Channel) SetBoresight(azimuth, elevation float64) {
	c.mu.Lock()
	c.cfg.BoresightAzimuth = azimuth
	c.cfg.BoresightElevation = elevation
	c.mu.Unlock()
}

// Boresight returns the current peer direction.
func (c *Channel) Boresight() (azimuth, elevation float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.BoresightAzimuth, c.cfg.BoresightElevation
}
