// Command beamtrack runs a free-space optical terminal: it calibrates the
// beam tracker against the configured signal source, keeps the link peaked,
// and serves pointing telemetry over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsolink/beamtrack/internal/app"
	"github.com/fsolink/beamtrack/internal/beam"
	"github.com/fsolink/beamtrack/internal/config"
	"github.com/fsolink/beamtrack/internal/discovery"
	"github.com/fsolink/beamtrack/internal/gimbal"
	"github.com/fsolink/beamtrack/internal/logging"
	"github.com/fsolink/beamtrack/internal/optics"
	"github.com/fsolink/beamtrack/internal/telemetry"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to the terminal YAML configuration")
		webAddr    = flag.String("web-addr", "", "Override the telemetry listen address")
		logLevel   = flag.String("log-level", "", "Override the configured log level")
		discover   = flag.Bool("discover", false, "Browse for peer terminals and exit")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	if *webAddr != "" {
		cfg.Telemetry.ListenAddr = *webAddr
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	level, _ := logging.ParseLevel(cfg.Log.Level)
	format, _ := logging.ParseFormat(cfg.Log.Format)
	logger := logging.New(level, format, os.Stderr)
	logging.SetDefault(logger)

	if *discover {
		runDiscovery(cfg, logger)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reporters []telemetry.Reporter
	if cfg.Telemetry.Enabled {
		hub := telemetry.NewHub(cfg.Telemetry.HistoryLimit)
		if err := hub.Configure(cfg.TelemetryConfig()); err != nil {
			log.Fatalf("telemetry config: %v", err)
		}
		reporters = append(reporters, hub)
		go telemetry.NewWebServer(cfg.Telemetry.ListenAddr, hub).Start(ctx)
		logger.Info("telemetry listening", logging.Field{Key: "addr", Value: cfg.Telemetry.ListenAddr})
	} else {
		reporters = append(reporters, telemetry.NewStdoutReporter(logger))
	}

	tracker, err := beam.New(cfg.TrackerConfig(), telemetry.MultiReporter(reporters), logger)
	if err != nil {
		log.Fatalf("build tracker: %v", err)
	}

	var pointer app.Pointer
	if cfg.Gimbal.Enabled {
		p, err := gimbal.New(gimbal.Config{
			Host:     cfg.Gimbal.Host,
			User:     cfg.Gimbal.User,
			KeyPath:  cfg.Gimbal.KeyFile,
			Port:     cfg.Gimbal.Port,
			BasePath: cfg.Gimbal.BasePath,
		})
		if err != nil {
			log.Fatalf("build gimbal pointer: %v", err)
		}
		defer p.Close()
		pointer = p
	}

	channel := optics.New(cfg.ChannelConfig())
	terminal := app.NewTerminal(cfg, tracker, channel, pointer, logger)

	logger.Info("terminal starting", logging.Field{Key: "interval", Value: cfg.UpdateInterval().String()})
	if err := terminal.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("terminal: %v", err)
	}
	logger.Info("terminal stopped")
}

func runDiscovery(cfg config.Config, logger logging.Logger) {
	terminals, err := discovery.DiscoverTerminals(cfg.Discovery.Service, cfg.Discovery.Domain, cfg.Discovery.TimeoutSeconds)
	if err != nil {
		log.Fatalf("discover terminals: %v", err)
	}
	if len(terminals) == 0 {
		logger.Info("no peer terminals found")
		return
	}
	for _, t := range terminals {
		logger.Info("peer terminal",
			logging.Field{Key: "instance", Value: t.Instance},
			logging.Field{Key: "hostname", Value: t.Hostname},
			logging.Field{Key: "port", Value: t.Port},
			logging.Field{Key: "addresses", Value: t.Addresses},
		)
	}
}
