// Command fieldscan rasters the simulated optical channel once, dumps the
// measured signal map as CSV, and reports the discovered peak. Useful for
// eyeballing beam profiles and for feeding plots without running the full
// terminal loop.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/fsolink/beamtrack/internal/beam"
	"github.com/fsolink/beamtrack/internal/optics"
)

func main() {
	var (
		boresightAz = flag.Float64("boresight-az", 0.03, "Simulated peer azimuth")
		boresightEl = flag.Float64("boresight-el", -0.02, "Simulated peer elevation")
		beamWidth   = flag.Float64("beam-width", 0.02, "Simulated 1/e beam half-width")
		scint       = flag.Float64("scintillation", 0, "Scintillation log-amplitude sigma")
		jitter      = flag.Float64("jitter", 0, "Pointing jitter sigma")
		seed        = flag.Uint64("seed", 1, "Noise seed")
		scanRange   = flag.Float64("range", 0.2, "Scan extent per axis")
		scanRes     = flag.Float64("resolution", 0.005, "Scan resolution")
		output      = flag.String("output", "", "CSV output path (default stdout)")
	)
	flag.Parse()

	channel := optics.New(optics.Config{
		BoresightAzimuth:   *boresightAz,
		BoresightElevation: *boresightEl,
		BeamWidth:          *beamWidth,
		ScintillationSigma: *scint,
		JitterSigma:        *jitter,
		Seed:               *seed,
	})

	cfg := beam.DefaultConfig()
	cfg.AzMin, cfg.AzMax = -*scanRange/2, *scanRange/2
	cfg.ElMin, cfg.ElMax = -*scanRange/2, *scanRange/2
	cfg.AzResolution = *scanRes
	cfg.ElResolution = *scanRes

	tracker, err := beam.New(cfg, nil, nil)
	if err != nil {
		log.Fatalf("build tracker: %v", err)
	}
	if err := tracker.Scan(*scanRange, *scanRange, *scanRes, channel); err != nil {
		log.Fatalf("scan: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("create output: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := writeMap(out, tracker.Map()); err != nil {
		log.Fatalf("write csv: %v", err)
	}

	az, el, strength := tracker.FindPeak()
	fmt.Fprintf(os.Stderr, "peak: azimuth=%.4f elevation=%.4f strength=%.4f\n", az, el, strength)
}

func writeMap(out *os.File, m *beam.SignalMap) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"azimuth", "elevation", "strength"}); err != nil {
		return err
	}
	for j := 0; j < m.ElSamples(); j++ {
		for i := 0; i < m.AzSamples(); i++ {
			az, el := m.Cell(i, j)
			s, err := m.Get(az, el)
			if err != nil {
				return err
			}
			row := []string{
				strconv.FormatFloat(az, 'f', 6, 64),
				strconv.FormatFloat(el, 'f', 6, 64),
				strconv.FormatFloat(s, 'f', 6, 64),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
