package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.opentelemetry.io/otel"

	"forestsim/internal/config"
	"forestsim/internal/forest"
	"forestsim/internal/report"
	"forestsim/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "forestsim:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("forestsim", flag.ContinueOnError)
	fs.SetOutput(stderr)
	cfg, err := config.ParseRunConfig(fs, args)
	if err != nil {
		return err
	}

	logger := telemetry.NewLogger(stderr, cfg.LogFormat, cfg.Debug)
	slog.SetDefault(logger)

	shutdown, err := telemetry.Setup(ctx, cfg.Tracing, cfg.Seed)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "err", err)
		}
	}()

	var params *config.Parameters
	if cfg.ParamsPath != "" {
		params, err = config.Load(cfg.ParamsPath)
	} else {
		params, err = config.Default()
	}
	if err != nil {
		return err
	}

	engine, err := forest.NewEngine(params, cfg.Area, forest.Options{
		Seed:    cfg.Seed,
		Workers: cfg.Workers,
		Verify:  cfg.Verify,
		Observer: forest.Observers{
			telemetry.NewLogObserver(logger, cfg.Trials),
			telemetry.NewTraceObserver(ctx, otel.GetTracerProvider()),
		},
	})
	if err != nil {
		return err
	}

	logger.Info("simulation starting",
		"region", params.Site.Region, "area_ha", cfg.Area,
		"trials", cfg.Trials, "years", cfg.Years, "workers", cfg.Workers, "seed", cfg.Seed)
	results, err := engine.Run(ctx, cfg.Trials, cfg.Years)
	if err != nil {
		return err
	}

	if cfg.Out != "" {
		if err := os.WriteFile(cfg.Out, report.MarshalPretty(results), 0644); err != nil {
			return fmt.Errorf("write results: %w", err)
		}
		logger.Info("results written", "path", filepath.Base(cfg.Out))
	}

	sum, err := report.Summarize(results)
	if err != nil {
		return err
	}
	sum.Print(stdout)

	if cfg.DBPath != "" {
		store, err := report.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.SaveRun(ctx, params, cfg.Seed, cfg.Area, results)
		if err != nil {
			return err
		}
		logger.Info("run stored", "run_id", id, "db", cfg.DBPath)
	}
	return nil
}
