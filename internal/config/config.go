// Package config loads the terminal's YAML configuration file and maps it
// onto the per-subsystem option structs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fsolink/beamtrack/internal/beam"
	"github.com/fsolink/beamtrack/internal/logging"
	"github.com/fsolink/beamtrack/internal/optics"
	"github.com/fsolink/beamtrack/internal/telemetry"
)

// Config is the root of the terminal configuration file. Sections omitted
// from the file keep their defaults.
type Config struct {
	Log       Log       `yaml:"log"`
	Telemetry Telemetry `yaml:"telemetry"`
	Discovery Discovery `yaml:"discovery"`
	Gimbal    Gimbal    `yaml:"gimbal"`
	Tracker   Tracker   `yaml:"tracker"`
	Channel   Channel   `yaml:"channel"`
	Run       Run       `yaml:"run"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Telemetry struct {
	Enabled      bool   `yaml:"enabled"`
	ListenAddr   string `yaml:"listen_addr"`
	HistoryLimit int    `yaml:"history_limit"`
	SampleEveryN int    `yaml:"sample_every_n"`
}

type Discovery struct {
	Enabled        bool   `yaml:"enabled"`
	Service        string `yaml:"service"`
	Domain         string `yaml:"domain"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Gimbal points the physical mount over SSH; disabled by default so the
// simulator runs standalone.
type Gimbal struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	KeyFile  string `yaml:"key_file"`
	BasePath string `yaml:"base_path"`
}

type Tracker struct {
	InitialAzimuth   float64 `yaml:"initial_azimuth"`
	InitialElevation float64 `yaml:"initial_elevation"`

	AzMin        float64 `yaml:"az_min"`
	AzMax        float64 `yaml:"az_max"`
	ElMin        float64 `yaml:"el_min"`
	ElMax        float64 `yaml:"el_max"`
	AzResolution float64 `yaml:"az_resolution"`
	ElResolution float64 `yaml:"el_resolution"`

	StepSize        float64 `yaml:"step_size"`
	StepMin         float64 `yaml:"step_min"`
	StepMax         float64 `yaml:"step_max"`
	StepAdaptFactor float64 `yaml:"step_adapt_factor"`

	Momentum             float64 `yaml:"momentum"`
	ConvergenceEpsilon   float64 `yaml:"convergence_epsilon"`
	ConvergenceThreshold int     `yaml:"convergence_threshold"`
	SignalThreshold      float64 `yaml:"signal_threshold"`

	PIDKp float64 `yaml:"pid_kp"`
	PIDKi float64 `yaml:"pid_ki"`
	PIDKd float64 `yaml:"pid_kd"`
}

type Channel struct {
	BoresightAzimuth   float64 `yaml:"boresight_azimuth"`
	BoresightElevation float64 `yaml:"boresight_elevation"`
	BeamWidth          float64 `yaml:"beam_width"`
	Power              float64 `yaml:"power"`
	ScintillationSigma float64 `yaml:"scintillation_sigma"`
	JitterSigma        float64 `yaml:"jitter_sigma"`
	Seed               uint64  `yaml:"seed"`
}

type Run struct {
	UpdateIntervalMs int `yaml:"update_interval_ms"`

	// MisalignedTicks is how many consecutive below-threshold ticks are
	// tolerated before an automatic reacquisition scan.
	MisalignedTicks int     `yaml:"misaligned_ticks"`
	ReacquireRange  float64 `yaml:"reacquire_range"`
	ReacquireRes    float64 `yaml:"reacquire_resolution"`

	CalibrateRange     float64 `yaml:"calibrate_range"`
	CalibrateCoarseRes float64 `yaml:"calibrate_coarse_resolution"`
	CalibrateFineRes   float64 `yaml:"calibrate_fine_resolution"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	tracker := beam.DefaultConfig()
	return Config{
		Log: Log{Level: "info", Format: "text"},
		Telemetry: Telemetry{
			Enabled:      true,
			ListenAddr:   ":8080",
			HistoryLimit: 600,
			SampleEveryN: 1,
		},
		Discovery: Discovery{
			Service:        "_fso._tcp",
			Domain:         "local.",
			TimeoutSeconds: 5,
		},
		Gimbal: Gimbal{
			Port:     22,
			BasePath: "/sys/class/gimbal/mount0",
		},
		Tracker: Tracker{
			AzMin:        tracker.AzMin,
			AzMax:        tracker.AzMax,
			ElMin:        tracker.ElMin,
			ElMax:        tracker.ElMax,
			AzResolution: tracker.AzResolution,
			ElResolution: tracker.ElResolution,

			StepSize:        tracker.StepSize,
			StepMin:         tracker.StepMin,
			StepMax:         tracker.StepMax,
			StepAdaptFactor: tracker.StepAdaptFactor,

			Momentum:             tracker.Momentum,
			ConvergenceEpsilon:   tracker.ConvergenceEpsilon,
			ConvergenceThreshold: tracker.ConvergenceThreshold,
			SignalThreshold:      tracker.SignalThreshold,
		},
		Channel: Channel{
			BoresightAzimuth:   0.03,
			BoresightElevation: -0.02,
			BeamWidth:          0.02,
			Power:              1,
			ScintillationSigma: 0.1,
			JitterSigma:        0.0005,
		},
		Run: Run{
			UpdateIntervalMs:   100,
			MisalignedTicks:    10,
			ReacquireRange:     0.2,
			ReacquireRes:       0.01,
			CalibrateRange:     0.2,
			CalibrateCoarseRes: 0.02,
			CalibrateFineRes:   0.002,
		},
	}
}

// Load reads path and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values the subsystems cannot interpret. Tracker options
// are checked again, in depth, by the tracker itself.
func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log.format: %w", err)
	}
	if c.Telemetry.Enabled && c.Telemetry.ListenAddr == "" {
		return fmt.Errorf("telemetry.listen_addr required when telemetry is enabled")
	}
	if c.Discovery.Enabled && c.Discovery.Service == "" {
		return fmt.Errorf("discovery.service required when discovery is enabled")
	}
	if c.Gimbal.Enabled {
		if c.Gimbal.Host == "" || c.Gimbal.User == "" {
			return fmt.Errorf("gimbal.host and gimbal.user required when gimbal is enabled")
		}
		if c.Gimbal.Port <= 0 || c.Gimbal.Port > 65535 {
			return fmt.Errorf("gimbal.port %d out of range", c.Gimbal.Port)
		}
	}
	if c.Run.UpdateIntervalMs <= 0 {
		return fmt.Errorf("run.update_interval_ms must be positive")
	}
	if c.Run.MisalignedTicks < 1 {
		return fmt.Errorf("run.misaligned_ticks must be at least 1")
	}
	return nil
}

// TrackerConfig maps the tracker section onto the tracking core's options.
func (c Config) TrackerConfig() beam.Config {
	t := c.Tracker
	return beam.Config{
		InitialAzimuth:   t.InitialAzimuth,
		InitialElevation: t.InitialElevation,

		AzMin: t.AzMin, AzMax: t.AzMax,
		ElMin: t.ElMin, ElMax: t.ElMax,
		AzResolution: t.AzResolution,
		ElResolution: t.ElResolution,

		StepSize:        t.StepSize,
		StepMin:         t.StepMin,
		StepMax:         t.StepMax,
		StepAdaptFactor: t.StepAdaptFactor,

		Momentum:             t.Momentum,
		ConvergenceEpsilon:   t.ConvergenceEpsilon,
		ConvergenceThreshold: t.ConvergenceThreshold,
		SignalThreshold:      t.SignalThreshold,

		PIDKp: t.PIDKp,
		PIDKi: t.PIDKi,
		PIDKd: t.PIDKd,
	}
}

// ChannelConfig maps the channel section onto the optics simulator.
func (c Config) ChannelConfig() optics.Config {
	ch := c.Channel
	return optics.Config{
		BoresightAzimuth:   ch.BoresightAzimuth,
		BoresightElevation: ch.BoresightElevation,
		BeamWidth:          ch.BeamWidth,
		Power:              ch.Power,
		ScintillationSigma: ch.ScintillationSigma,
		JitterSigma:        ch.JitterSigma,
		Seed:               ch.Seed,
	}
}

// TelemetryConfig maps the telemetry section onto the hub's options.
func (c Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{
		HistoryLimit: c.Telemetry.HistoryLimit,
		SampleEveryN: c.Telemetry.SampleEveryN,
	}
}

// UpdateInterval returns the tracking tick period.
func (c Config) UpdateInterval() time.Duration {
	return time.Duration(c.Run.UpdateIntervalMs) * time.Millisecond
}
