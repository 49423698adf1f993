package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/styleguide-tools/stylepub/internal/config"
	"github.com/styleguide-tools/stylepub/internal/eventstore"
	"github.com/styleguide-tools/stylepub/internal/generator"
	"github.com/styleguide-tools/stylepub/internal/gitops"
	"github.com/styleguide-tools/stylepub/internal/linkcheck"
	"github.com/styleguide-tools/stylepub/internal/logfields"
	"github.com/styleguide-tools/stylepub/internal/metrics"
	"github.com/styleguide-tools/stylepub/internal/notify"
	"github.com/styleguide-tools/stylepub/internal/publish"
	"github.com/styleguide-tools/stylepub/internal/version"
	"github.com/styleguide-tools/stylepub/internal/watch"
)

var CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"stylepub.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `help:"Print version and exit"`

	Publish struct{} `cmd:"" help:"Regenerate documentation and publish it to the publishing branch"`

	Check struct{} `cmd:"" help:"Run only the untracked-files precondition check"`

	Render struct{} `cmd:"" help:"Regenerate documentation locally without touching git"`

	Verify struct{} `cmd:"" help:"Verify internal links and anchors in the generated output"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	History struct {
		Limit int `short:"n" help:"Number of runs to show" default:"10"`
	} `cmd:"" help:"Show recent publish runs"`

	Watch struct{} `cmd:"" help:"Watch the content document and publish on change"`
}

func main() {
	ctx := kong.Parse(&CLI, kong.Name("stylepub"), kong.Vars{"version": version.Version})

	// Set up logging
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	switch ctx.Command() {
	case "publish":
		cfg := mustLoadConfig()
		if err := runPublish(context.Background(), cfg); err != nil {
			slog.Error("Publish failed", logfields.Error(err))
			os.Exit(1)
		}
	case "check":
		cfg := mustLoadConfig()
		if err := runCheck(cfg); err != nil {
			slog.Error("Check failed", logfields.Error(err))
			os.Exit(1)
		}
	case "render":
		cfg := mustLoadConfig()
		if err := runRender(context.Background(), cfg); err != nil {
			slog.Error("Render failed", logfields.Error(err))
			os.Exit(1)
		}
	case "verify":
		cfg := mustLoadConfig()
		if err := runVerify(cfg); err != nil {
			slog.Error("Verify failed", logfields.Error(err))
			os.Exit(1)
		}
	case "init":
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", logfields.Error(err))
			os.Exit(1)
		}
		slog.Info("Configuration written", logfields.Path(CLI.Config))
	case "history":
		cfg := mustLoadConfig()
		if err := runHistory(context.Background(), cfg, CLI.History.Limit); err != nil {
			slog.Error("History failed", logfields.Error(err))
			os.Exit(1)
		}
	case "watch":
		cfg := mustLoadConfig()
		if err := runWatch(cfg); err != nil {
			slog.Error("Watch failed", logfields.Error(err))
			os.Exit(1)
		}
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", logfields.Error(err))
		os.Exit(1)
	}
	return cfg
}

// buildPipeline wires the publish pipeline from configuration. The returned
// cleanup closes whatever collaborators were opened.
func buildPipeline(cfg *config.Config, recorder metrics.Recorder) (*publish.Pipeline, func(), error) {
	git, err := gitops.Open(".")
	if err != nil {
		return nil, nil, err
	}

	opts := publish.Options{
		RepoRoot:      git.Path(),
		Source:        cfg.Source,
		Output:        cfg.Output,
		PrimaryBranch: cfg.Git.PrimaryBranch,
		PublishBranch: cfg.Git.PublishBranch,
		Remote:        cfg.Git.Remote,
		CommitMessage: cfg.Git.CommitMessage,
	}

	pipelineOpts := []publish.Option{publish.WithRecorder(recorder)}
	var cleanups []func()

	if cfg.History.Path != "" {
		store, err := eventstore.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open run history: %w", err)
		}
		pipelineOpts = append(pipelineOpts, publish.WithStore(store))
		cleanups = append(cleanups, func() { _ = store.Close() })
	}

	if cfg.Notify.Enabled {
		publisher, err := notify.NewPublisher(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			// Notifications are advisory; a missing broker never blocks publishing.
			slog.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			pipelineOpts = append(pipelineOpts, publish.WithNotifier(publisher))
			cleanups = append(cleanups, publisher.Close)
		}
	}

	pipeline := publish.New(opts, git, generator.New(cfg), pipelineOpts...)
	cleanup := func() {
		for _, fn := range cleanups {
			fn()
		}
	}
	return pipeline, cleanup, nil
}

func runPublish(ctx context.Context, cfg *config.Config) error {
	pipeline, cleanup, err := buildPipeline(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}

	slog.Info("Published documentation",
		logfields.RunID(report.RunID),
		logfields.Branch(cfg.Git.PublishBranch),
		slog.String("commit", report.Commit))
	return nil
}

func runCheck(_ *config.Config) error {
	git, err := gitops.Open(".")
	if err != nil {
		return err
	}

	untracked, err := git.UntrackedFiles()
	if err != nil {
		return err
	}
	if len(untracked) > 0 {
		return &gitops.UntrackedFilesError{Paths: untracked}
	}

	slog.Info("Working tree is clean, publish precondition satisfied")
	return nil
}

func runRender(ctx context.Context, cfg *config.Config) error {
	if err := os.RemoveAll(cfg.Output); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}

	renderer := generator.New(cfg)
	if err := renderer.Render(ctx, cfg.Source, cfg.Output); err != nil {
		return err
	}

	slog.Info("Documentation rendered", logfields.Source(cfg.Source), logfields.Output(cfg.Output))
	return nil
}

func runVerify(cfg *config.Config) error {
	problems, err := linkcheck.VerifyDir(cfg.Output)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		for _, problem := range problems {
			slog.Error("Broken link",
				slog.String("file", problem.File),
				slog.String("link", problem.Link),
				slog.String("reason", problem.Reason))
		}
		return fmt.Errorf("%d broken link(s) in %s", len(problems), cfg.Output)
	}

	slog.Info("Generated output is internally consistent", logfields.Output(cfg.Output))
	return nil
}

func runHistory(ctx context.Context, cfg *config.Config, limit int) error {
	if cfg.History.Path == "" {
		return errors.New("run history is disabled (history.path is empty)")
	}

	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer func() { _ = store.Close() }()

	summaries, err := eventstore.RecentRuns(ctx, store, limit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		slog.Info("No publish runs recorded yet")
		return nil
	}

	for _, summary := range summaries {
		attrs := []any{
			"run_id", summary.RunID,
			"outcome", summary.Outcome,
			"started", summary.Started.Format(time.RFC3339),
			"steps", len(summary.Steps),
		}
		if summary.Commit != "" {
			attrs = append(attrs, "commit", summary.Commit[:min(8, len(summary.Commit))])
		}
		if summary.FailedStep != "" {
			attrs = append(attrs, "failed_step", summary.FailedStep, "error", summary.Error)
		}
		slog.Info("Publish run", attrs...)
	}
	return nil
}

func runWatch(cfg *config.Config) error {
	slog.Info("Starting watch mode", slog.String("version", version.Version), logfields.Source(cfg.Source))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recorder := metrics.Recorder(metrics.NoopRecorder{})
	if cfg.Metrics.Listen != "" {
		registry := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(ctx, cfg.Metrics.Listen, registry)
	}

	pipeline, cleanup, err := buildPipeline(cfg, recorder)
	if err != nil {
		return err
	}
	defer cleanup()

	coalescer := watch.NewCoalescer(func(runCtx context.Context) {
		if _, runErr := pipeline.Run(runCtx); runErr != nil {
			slog.Error("Triggered publish failed", logfields.Error(runErr))
		}
	})
	go coalescer.Start(ctx)

	watcher, err := watch.NewWatcher(cfg.Source, cfg.Watch.DebounceDuration(), coalescer.Trigger)
	if err != nil {
		return err
	}

	watchErr := make(chan error, 1)
	go func() { watchErr <- watcher.Start(ctx) }()

	if interval := cfg.Watch.IntervalDuration(); interval > 0 {
		scheduler, err := watch.NewScheduler()
		if err != nil {
			return err
		}
		if _, err := scheduler.SchedulePeriodicPublish(interval, coalescer.Trigger); err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			if stopErr := scheduler.Stop(); stopErr != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(stopErr))
			}
		}()
	}

	slog.Info("Watch mode running, waiting for changes or shutdown signal")

	select {
	case err := <-watchErr:
		if err != nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping watch mode")
		return nil
	}
}

func serveMetrics(ctx context.Context, listen string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	server := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", slog.String("listen", listen))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", logfields.Error(err))
	}
}
