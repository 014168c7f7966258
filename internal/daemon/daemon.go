// Package daemon keeps a conversion pipeline running: it watches the queue
// directory for new files, optionally triggers runs on a fixed interval, and
// serves Prometheus metrics. Triggered runs are serialized; concurrent runs
// against one directory set would corrupt the rotation.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docrotate/internal/config"
	"git.home.luguber.info/inful/docrotate/internal/logfields"
	"git.home.luguber.info/inful/docrotate/internal/metrics"
)

// Runner executes one conversion run.
type Runner interface {
	RunOnce(ctx context.Context) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) RunOnce(ctx context.Context) error { return f(ctx) }

// Daemon owns the watch loop for one directory set.
type Daemon struct {
	cfg    *config.Config
	runner Runner
	logger *slog.Logger
	prom   *metrics.PrometheusRecorder

	runMu   sync.Mutex
	trigger chan struct{}
}

// New creates a daemon. The Prometheus recorder may be nil when no metrics
// listener is configured.
func New(cfg *config.Config, runner Runner, logger *slog.Logger, prom *metrics.PrometheusRecorder) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		prom:    prom,
		trigger: make(chan struct{}, 1),
	}
}

// Trigger requests a run. Requests arriving while one is already pending
// coalesce into it.
func (d *Daemon) Trigger() {
	select {
	case d.trigger <- struct{}{}:
	default:
	}
}

// Start runs the daemon until ctx is canceled.
func (d *Daemon) Start(ctx context.Context) error {
	var watcher *fsnotify.Watcher
	if d.cfg.Daemon.Watch {
		w, err := d.startWatcher(ctx)
		if err != nil {
			return err
		}
		watcher = w
		defer watcher.Close()
	}

	var scheduler gocron.Scheduler
	if d.cfg.Daemon.IntervalMinutes > 0 {
		s, err := d.startScheduler()
		if err != nil {
			return err
		}
		scheduler = s
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				d.logger.Error("scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if d.cfg.Daemon.MetricsListen != "" && d.prom != nil {
		d.startMetricsServer(ctx)
	}

	d.logger.Info("daemon started",
		slog.Bool("watch", d.cfg.Daemon.Watch),
		slog.Int("interval_minutes", d.cfg.Daemon.IntervalMinutes))

	d.loop(ctx)
	d.logger.Info("daemon stopped")
	return nil
}

// startWatcher watches the queue directory and coalesces create/write events
// into triggers.
func (d *Daemon) startWatcher(ctx context.Context) (*fsnotify.Watcher, error) {
	queueDir := d.cfg.Directories.InputsQueue
	if err := os.MkdirAll(queueDir, 0o750); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := watcher.Add(queueDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch queue directory %s: %w", queueDir, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
					d.logger.Debug("queue change detected", logfields.Path(event.Name))
					d.Trigger()
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("watcher error", logfields.Error(werr))
			}
		}
	}()

	d.logger.Info("watching queue directory", logfields.Path(queueDir))
	return watcher, nil
}

func (d *Daemon) startScheduler() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	interval := time.Duration(d.cfg.Daemon.IntervalMinutes) * time.Minute
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(d.Trigger),
		gocron.WithName("scheduled-run"),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduled run job: %w", err)
	}

	s.Start()
	d.logger.Info("scheduled runs enabled", slog.Duration("interval", interval))
	return s, nil
}

func (d *Daemon) startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.prom.Handler())
	server := &http.Server{
		Addr:              d.cfg.Daemon.MetricsListen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		d.logger.Info("metrics server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Error("metrics server failed", logfields.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}

// loop debounces triggers and executes runs one at a time.
func (d *Daemon) loop(ctx context.Context) {
	debounce := d.cfg.DebounceDelay()
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.trigger:
			if !d.debounce(ctx, debounce) {
				return
			}
			d.runOnce(ctx)
		}
	}
}

// debounce waits until the trigger stream has been quiet for the configured
// window, resetting on every further trigger. Returns false when the context
// ended during the wait.
func (d *Daemon) debounce(ctx context.Context, window time.Duration) bool {
	if window <= 0 {
		return true
	}
	timer := time.NewTimer(window)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-d.trigger:
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(window)
		case <-timer.C:
			return true
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.logger.Info("triggered run starting")
	if err := d.runner.RunOnce(ctx); err != nil {
		d.logger.Error("triggered run failed", logfields.Error(err))
	}
}
