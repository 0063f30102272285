// Package main is the entry point for the hostpulse agent.
// It loads configuration, wires the domain collectors for the detected
// platform, and exposes single-shot, continuous, and report rendering modes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hostpulse/agent/internal/alert"
	"github.com/hostpulse/agent/internal/collector"
	"github.com/hostpulse/agent/internal/config"
	"github.com/hostpulse/agent/internal/models"
	"github.com/hostpulse/agent/internal/platform"
	"github.com/hostpulse/agent/internal/report"
	"github.com/hostpulse/agent/internal/scheduler"
	"github.com/hostpulse/agent/internal/service"
	"github.com/hostpulse/agent/internal/shell"
	"github.com/hostpulse/agent/internal/snapshot"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to configuration file",
		Sources: cli.EnvVars("HP_CONFIG"),
		Value:   "hostpulse.yaml",
	}
	thresholdFlags := []cli.Flag{
		&cli.FloatFlag{
			Name:  "cpu-threshold",
			Usage: "CPU usage percent that triggers a warning",
			Value: 80,
		},
		&cli.FloatFlag{
			Name:  "mem-threshold",
			Usage: "Memory usage percent that triggers a warning",
			Value: 85,
		},
		&cli.FloatFlag{
			Name:  "disk-threshold",
			Usage: "Disk usage percent that triggers a warning",
			Value: 90,
		},
	}

	return &cli.Command{
		Name:    "hostpulse",
		Usage:   "Host metrics snapshot agent",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "collect",
				Usage: "Run a single collection cycle and exit",
				Flags: append([]cli.Flag{configFlag}, thresholdFlags...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()

					if cfg.Collection.Continuous {
						return runWatch(ctx, cmd, cfg, logger, cfg.Collection.Interval.Duration)
					}

					assembler := buildAssembler(ctx, cfg, logger)
					snap, err := assembler.Collect(ctx)
					if err != nil {
						return err
					}

					evaluator := alert.NewEvaluator(thresholdsFromCmd(cmd, cfg), logger)
					for _, w := range evaluator.Evaluate(snap) {
						fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
					}

					fmt.Printf("Snapshot for %s written to %s\n", snap.Hostname, cfg.Paths.MetricsFile)
					return nil
				},
			},
			{
				Name:  "watch",
				Usage: "Collect continuously at a fixed interval until interrupted",
				Flags: append([]cli.Flag{
					configFlag,
					&cli.DurationFlag{
						Name:    "interval",
						Usage:   "Delay between collection cycles",
						Sources: cli.EnvVars("HP_INTERVAL"),
					},
				}, thresholdFlags...),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()

					interval := cfg.Collection.Interval.Duration
					if v := cmd.Duration("interval"); v > 0 {
						interval = v
					}
					return runWatch(ctx, cmd, cfg, logger, interval)
				},
			},
			{
				Name:  "report",
				Usage: "Render the last snapshot into an HTML dashboard",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:  "out",
						Usage: "Dashboard output path (defaults to the configured path)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, logger, err := setup(cmd)
					if err != nil {
						return err
					}
					defer logger.Sync()

					out := cfg.Paths.DashboardFile
					if v := cmd.String("out"); v != "" {
						out = v
					}
					return report.New(logger).Render(cfg.Paths.MetricsFile, out)
				},
			},
		},
	}
}

// runWatch drives the polling loop until the context is cancelled, entering
// the SCM control loop when started by the Windows service manager.
func runWatch(ctx context.Context, cmd *cli.Command, cfg *config.Config, logger *zap.Logger, interval time.Duration) error {
	assembler := buildAssembler(ctx, cfg, logger)
	evaluator := alert.NewEvaluator(thresholdsFromCmd(cmd, cfg), logger)

	sched := scheduler.New(assembler, interval, logger)
	sched.OnSnapshot(func(snap models.Snapshot) {
		evaluator.Evaluate(snap)
	})

	logger.Info("Agent running",
		zap.String("version", version),
		zap.Duration("interval", interval),
		zap.String("metrics_file", cfg.Paths.MetricsFile))

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		return service.New(logger, sched.Run).Run()
	}
	sched.Run(ctx)
	return nil
}

// setup loads configuration and builds the logger shared by all commands.
func setup(cmd *cli.Command) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, initLogger(cfg), nil
}

// thresholdsFromCmd merges CLI threshold flags over the configured values.
// A flag set on the command line wins; otherwise the config file applies.
func thresholdsFromCmd(cmd *cli.Command, cfg *config.Config) alert.Thresholds {
	t := cfg.Alerts
	if cmd.IsSet("cpu-threshold") {
		t.CPUPercent = cmd.Float("cpu-threshold")
	}
	if cmd.IsSet("mem-threshold") {
		t.MemoryPercent = cmd.Float("mem-threshold")
	}
	if cmd.IsSet("disk-threshold") {
		t.DiskPercent = cmd.Float("disk-threshold")
	}
	return t
}

// buildAssembler detects the host platform once and registers all six domain
// collectors against it.
func buildAssembler(ctx context.Context, cfg *config.Config, logger *zap.Logger) *snapshot.Assembler {
	runner := shell.New()

	detectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	p := platform.Detect(detectCtx, runner)
	logger.Info("Platform detected", zap.String("platform", p.String()))

	registry := collector.NewRegistry(logger)
	registry.Register(collector.NewCPUCollector(p, runner, logger))
	registry.Register(collector.NewGPUCollector(p, runner, logger))
	registry.Register(collector.NewDiskCollector(p, runner, platform.Elevated(), logger))
	registry.Register(collector.NewMemoryCollector(p, runner, logger))
	registry.Register(collector.NewNetworkCollector(p, runner, logger))
	registry.Register(collector.NewLoadCollector(p, runner, logger))

	return snapshot.New(registry, cfg.Paths.MetricsFile, logger)
}

// initLogger creates a zap logger based on the configuration.
// It outputs to both console (human-readable) and optionally a JSON log file.
func initLogger(cfg *config.Config) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}
