// Command thermo reads AD8495 thermocouple amplifiers through an MCU (or a
// simulator) and serves a G-code style console with temperature auto-report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/itohio/thermo/pkg/adc"
	"github.com/itohio/thermo/pkg/capture"
	"github.com/itohio/thermo/pkg/config"
	"github.com/itohio/thermo/pkg/event"
	"github.com/itohio/thermo/pkg/kernel"
	"github.com/itohio/thermo/pkg/logger"
)

func main() {
	var (
		configFlag   = flag.String("config", "config.yaml", "Configuration file path")
		portFlag     = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		simFlag      = flag.Bool("sim", false, "Use simulated sensors instead of the serial port")
		logLevelFlag = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
		captureFlag  = flag.String("capture", "", "Record console traffic to this CBOR file (overrides config)")
	)
	flag.Parse()

	if err := run(*configFlag, *portFlag, *simFlag, *logLevelFlag, *captureFlag); err != nil {
		fmt.Fprintf(os.Stderr, "thermo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, port string, sim bool, logLevel, capturePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store, err := config.LoadStore(configPath)
	if err != nil {
		return err
	}

	// Command line overrides
	if port != "" {
		cfg.Serial.Port = port
	}
	if sim {
		cfg.Sampler.Source = config.SourceSimulator
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if capturePath != "" {
		cfg.Capture.Path = capturePath
	}

	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	console, err := newConsole()
	if err != nil {
		return err
	}
	defer console.Close()

	log := logger.NewTerminal(console.Stderr(), level)
	slog.SetDefault(log)

	var out io.Writer = console.Stdout()
	var recorder *capture.Recorder
	if cfg.Capture.Path != "" {
		recorder, err = capture.OpenFile(cfg.Capture.Path)
		if err != nil {
			return fmt.Errorf("failed to open capture file: %w", err)
		}
		defer recorder.Close()
		out = recorder.Tee(out, capture.KindOutput)
		log.Info("capturing console traffic", "path", cfg.Capture.Path)
	}

	sampler, closeSampler, err := openSampler(cfg, log)
	if err != nil {
		return err
	}
	defer closeSampler()

	bus := event.NewBus()
	a, err := newApp(store, sampler, bus, out, log)
	if err != nil {
		log.Error("invalid configuration", "err", err)
		return err
	}
	defer a.Close()

	k := kernel.New(bus, kernel.Options{
		IdleInterval: cfg.Kernel.IdleInterval,
		QueueSize:    cfg.Kernel.QueueSize,
		Out:          out,
		Log:          log,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	console.Run(ctx, cancel, func(line string) {
		if recorder != nil {
			_ = recorder.Record(capture.KindCommand, line)
		}
		if err := k.Submit(line); err != nil {
			log.Warn("command dropped", "line", line, "err", err)
		}
	})

	cancel()
	return <-done
}

// openSampler creates the configured ADC sampler and a function releasing it.
func openSampler(cfg *config.Config, log *slog.Logger) (adc.Sampler, func(), error) {
	switch cfg.Sampler.Source {
	case config.SourceSimulator:
		log.Info("using simulated sensors", "bits", cfg.Sampler.ResolutionBits)
		return adc.NewSimulator(cfg.Simulator, cfg.Sampler.ResolutionBits), func() {}, nil

	case config.SourceSerial:
		s := adc.NewSerial(cfg.Serial.Port, cfg.Serial.BaudRate, adc.MaxForBits(cfg.Sampler.ResolutionBits), log)
		if err := s.Connect(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to %s: %w", cfg.Serial.Port, err)
		}
		log.Info("connected", "port", cfg.Serial.Port, "baud", cfg.Serial.BaudRate)
		return s, func() {
			if err := s.Close(); err != nil {
				log.Warn("failed to close serial port", "err", err)
			}
		}, nil

	default:
		return nil, nil, &config.Error{Key: "sampler.source", Reason: fmt.Sprintf("unknown source %q", cfg.Sampler.Source)}
	}
}
