package optics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanChannelIsGaussian(t *testing.T) {
	ch := New(Config{
		BoresightAzimuth:   0.03,
		BoresightElevation: -0.02,
		BeamWidth:          0.02,
		Power:              0.8,
	})

	require.InDelta(t, 0.8, ch.Measure(0.03, -0.02), 1e-12, "on-axis strength")

	// One beam width off axis attenuates by 1/e.
	want := 0.8 * math.Exp(-1)
	require.InDelta(t, want, ch.Measure(0.05, -0.02), 1e-12)
	require.InDelta(t, want, ch.Measure(0.03, 0), 1e-12)

	// Symmetric about boresight.
	require.InDelta(t, ch.Measure(0.01, -0.02), ch.Measure(0.05, -0.02), 1e-12)
}

func TestMeasureNeverNegative(t *testing.T) {
	ch := New(Config{
		BeamWidth:          0.02,
		Power:              1,
		ScintillationSigma: 0.8,
		JitterSigma:        0.01,
		Seed:               42,
	})
	for i := 0; i < 1000; i++ {
		s := ch.Measure(0.001, -0.001)
		require.GreaterOrEqual(t, s, 0.0)
		require.False(t, math.IsNaN(s))
	}
}

func TestSeedReproducibility(t *testing.T) {
	cfg := Config{
		BeamWidth:          0.02,
		Power:              1,
		ScintillationSigma: 0.3,
		JitterSigma:        0.002,
		Seed:               7,
	}
	a, b := New(cfg), New(cfg)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Measure(0.01, 0.01), b.Measure(0.01, 0.01))
	}
}

func TestScintillationMeanNearUnity(t *testing.T) {
	ch := New(Config{
		BeamWidth:          0.02,
		Power:              1,
		ScintillationSigma: 0.3,
		Seed:               3,
	})
	var sum float64
	const n = 20000
	for i := 0; i < n; i++ {
		sum += ch.Measure(0, 0)
	}
	// Fading is mean-one by construction, so the long-run average sits at
	// the clear-air strength.
	require.InDelta(t, 1.0, sum/n, 0.02)
}

func TestSetBoresightMovesPeak(t *testing.T) {
	ch := New(DefaultConfig())
	require.InDelta(t, 1.0, ch.Measure(0, 0), 1e-12)

	ch.SetBoresight(0.04, -0.01)
	az, el := ch.Boresight()
	require.Equal(t, 0.04, az)
	require.Equal(t, -0.01, el)
	require.InDelta(t, 1.0, ch.Measure(0.04, -0.01), 1e-12)
	require.Less(t, ch.Measure(0, 0), 0.1)
}
