package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docrotate/internal/config"
	"git.home.luguber.info/inful/docrotate/internal/convert"
	"git.home.luguber.info/inful/docrotate/internal/daemon"
	"git.home.luguber.info/inful/docrotate/internal/events"
	"git.home.luguber.info/inful/docrotate/internal/metrics"
	"git.home.luguber.info/inful/docrotate/internal/pipeline"
	"git.home.luguber.info/inful/docrotate/internal/runstore"
	"git.home.luguber.info/inful/docrotate/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		DryRun        bool   `help:"Report what would be converted without converting"`
		Inputs        string `help:"Override the inputs directory"`
		Outputs       string `help:"Override the outputs directory"`
		InputsQueue   string `help:"Override the inputs queue directory"`
		InputsStaging string `help:"Override the inputs staging directory"`
	} `cmd:"" help:"Rotate the directory set and convert the queued documents once"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Daemon struct{} `cmd:"" help:"Watch the queue directory and run continuously"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"20"`
	} `cmd:"" help:"Show recent conversion runs"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "run":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		os.Exit(runOnce(cfg, CLI.Run.DryRun))
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
	case "daemon":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "history":
		cfg, err := loadConfig()
		if err != nil {
			slog.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
		if err := showHistory(cfg, CLI.History.Limit); err != nil {
			slog.Error("History failed", "error", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("docrotate %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}
}

// loadConfig loads the config file, applies CLI directory overrides and
// validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if CLI.Run.Inputs != "" {
		cfg.Directories.Inputs = CLI.Run.Inputs
	}
	if CLI.Run.Outputs != "" {
		cfg.Directories.Outputs = CLI.Run.Outputs
	}
	if CLI.Run.InputsQueue != "" {
		cfg.Directories.InputsQueue = CLI.Run.InputsQueue
	}
	if CLI.Run.InputsStaging != "" {
		cfg.Directories.InputsStaging = CLI.Run.InputsStaging
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline assembles a pipeline with the optional collaborators the
// config enables. The returned cleanup closes them.
func buildPipeline(cfg *config.Config, dryRun bool, rec metrics.Recorder) (*pipeline.Pipeline, func(), error) {
	p := &pipeline.Pipeline{
		Config:  cfg,
		Engine:  convert.NewBuiltinEngine(),
		Logger:  slog.Default(),
		Metrics: rec,
		DryRun:  dryRun,
	}

	var cleanups []func()
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}

	if cfg.History.Path != "" && !dryRun {
		store, err := runstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open run history: %w", err)
		}
		p.Store = store
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	if cfg.Events.NATSURL != "" {
		publisher, err := events.NewPublisher(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			// Event publishing is best effort; a dead broker must not block runs.
			slog.Warn("Event publishing disabled", "error", err)
		} else {
			p.Events = publisher
			cleanups = append(cleanups, publisher.Close)
		}
	}

	return p, cleanup, nil
}

func runOnce(cfg *config.Config, dryRun bool) int {
	p, cleanup, err := buildPipeline(cfg, dryRun, nil)
	if err != nil {
		slog.Error("Failed to set up pipeline", "error", err)
		return 1
	}
	defer cleanup()

	result, err := p.Run(context.Background())
	if err != nil {
		slog.Error("Run failed", "error", err)
		return 1
	}
	return result.ExitCode()
}

func runDaemon(cfg *config.Config) error {
	var rec metrics.Recorder
	var prom *metrics.PrometheusRecorder
	if cfg.Daemon.MetricsListen != "" {
		prom = metrics.NewPrometheusRecorder(nil)
		rec = prom
	}

	p, cleanup, err := buildPipeline(cfg, false, rec)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d := daemon.New(cfg, daemon.RunnerFunc(func(ctx context.Context) error {
		result, err := p.Run(ctx)
		if err != nil {
			return err
		}
		if result.Failed() {
			slog.Warn("Run finished with failures",
				"run_id", result.RunID,
				"failed", result.Stats.Failed)
		}
		return nil
	}), slog.Default(), prom)

	slog.Info("Starting daemon", "version", version.Version)
	return d.Start(ctx)
}

func showHistory(cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return fmt.Errorf("run history is disabled (history.path is empty)")
	}
	store, err := runstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open run history: %w", err)
	}
	defer store.Close()

	runs, err := store.RecentRuns(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %-7s  discovered=%d ok=%d failed=%d skipped=%d\n",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.ID, run.Outcome,
			run.Discovered, run.Succeeded, run.Failed, run.Skipped)
		for _, f := range run.Failures {
			fmt.Printf("    failed: %s (%s)\n", f.Path, f.Reason)
		}
	}
	return nil
}
