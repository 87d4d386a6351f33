package beam

import (
	"math"
	"testing"
)

func TestEstimateGradientCentralDifference(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())

	// Plant a linear ramp along azimuth: one cell either side of centre.
	if err := tr.UpdateMap(0.005, 0, 0.6); err != nil {
		t.Fatalf("seed map: %v", err)
	}
	if err := tr.UpdateMap(-0.005, 0, 0.2); err != nil {
		t.Fatalf("seed map: %v", err)
	}

	gAz, gEl := tr.estimateGradient(0.005)
	wantAz := (0.6 - 0.2) / 0.01
	if math.Abs(gAz-wantAz) > 1e-9 {
		t.Fatalf("expected azimuth gradient %v, got %v", wantAz, gAz)
	}
	if gEl != 0 {
		t.Fatalf("expected flat elevation gradient, got %v", gEl)
	}
}

func TestEstimateGradientEdgeFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialAzimuth = cfg.AzMax
	tr := newTestTracker(t, cfg)

	// Empty map, tracker parked on the azimuth edge: the +az probe falls
	// outside the grid and must fall back to the current strength instead
	// of surfacing an error.
	if err := tr.Update(0.7); err != nil {
		t.Fatalf("update at map edge: %v", err)
	}
	if got := tr.Strength(); got != 0.7 {
		t.Fatalf("expected strength 0.7, got %v", got)
	}
}

func TestAdaptStepGrowsOnImprovement(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())
	start := tr.Status().StepSize

	if err := tr.Update(0.5); err != nil {
		t.Fatalf("update: %v", err)
	}
	st := tr.Status()
	if st.StepSize <= start {
		t.Fatalf("positive improvement should grow step: %v -> %v", start, st.StepSize)
	}
	if st.StepSize < tr.cfg.StepMin || st.StepSize > tr.cfg.StepMax {
		t.Fatalf("step %v escaped [%v, %v]", st.StepSize, tr.cfg.StepMin, tr.cfg.StepMax)
	}
	if tr.convCount != 0 {
		t.Fatalf("improvement must clear convergence count, got %d", tr.convCount)
	}
}

func TestAdaptStepShrinksOnLoss(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())
	if err := tr.Update(0.8); err != nil {
		t.Fatalf("update: %v", err)
	}
	grown := tr.Status().StepSize
	if err := tr.Update(0.4); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := tr.Status().StepSize; got >= grown {
		t.Fatalf("loss should shrink step: %v -> %v", grown, got)
	}
}

func TestStepStaysClampedUnderRepeatedGains(t *testing.T) {
	tr := newTestTracker(t, DefaultConfig())
	for i := 1; i <= 40; i++ {
		if err := tr.Update(float64(i) / 50); err != nil {
			t.Fatalf("update %d: %v", i, err)
		}
		if st := tr.Status().StepSize; st < tr.cfg.StepMin || st > tr.cfg.StepMax {
			t.Fatalf("step %v escaped clamp on tick %d", st, i)
		}
	}
	if got := tr.Status().StepSize; got != tr.cfg.StepMax {
		t.Fatalf("sustained gains should pin step at max, got %v", got)
	}
}

func TestStagnationAdvancesConvergence(t *testing.T) {
	cfg := DefaultConfig()
	tr := newTestTracker(t, cfg)

	for i := 0; i < cfg.ConvergenceThreshold+1; i++ {
		if err := tr.Update(0.5); err != nil {
			t.Fatalf("update: %v", err)
		}
	}
	if !tr.IsConverged() {
		t.Fatalf("flat measurements should converge, count %d", tr.convCount)
	}
}
