package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"RedditScanner/internal/config"
	"RedditScanner/internal/discovery"
	"RedditScanner/internal/export"
	"RedditScanner/internal/infrastructure/reddit"
	"RedditScanner/internal/infrastructure/scheduler"
	"RedditScanner/internal/infrastructure/storage"
	"RedditScanner/internal/infrastructure/telegram"
	"RedditScanner/internal/logging"
	"RedditScanner/internal/ports"
	"RedditScanner/internal/sanitizer"
	"RedditScanner/internal/usecase"
)

const stopTimeout = 30 * time.Second

// Options holds wiring overrides; zero values select production adapters.
type Options struct {
	Connector ports.Connector
	Writer    ports.DocumentWriter
	Stdin     io.Reader
	Stderr    io.Writer
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	pipeline *usecase.Pipeline
}

// New builds the application. The archive database is opened and migrated
// only when a DSN is configured.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, opts Options) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	connector := opts.Connector
	if connector == nil {
		connector = reddit.NewConnector(
			cfg.Reddit,
			&http.Client{Timeout: cfg.Reddit.Timeout},
			reddit.LinePrompt(opts.Stdin, opts.Stderr),
			baseLogger.With("component", "reddit"),
		)
	}

	writer := opts.Writer
	if writer == nil {
		writer = export.NewFileWriter(cfg.Output.Path, cfg.Output.Format)
	}

	a := &Application{cfg: cfg, logger: baseLogger}

	var repository ports.ThreadRepository
	if cfg.Database.DSN != "" {
		db, err := storage.Open(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		repo := storage.NewPostgresRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		repository = repo
	}

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	a.pipeline = usecase.NewPipeline(usecase.PipelineDeps{
		Connector:    connector,
		Resolver:     discovery.NewResolver(baseLogger.With("component", "discovery")),
		Sanitizer:    sanitizer.New(cfg.Sanitizer.Options()),
		Filter:       cfg.Filter,
		ThreadLimit:  cfg.Scan.ThreadLimit,
		Pause:        cfg.Scan.Pause,
		Writer:       writer,
		Repository:   repository,
		SkipArchived: cfg.Scan.SkipArchived,
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "pipeline"),
	})
	return a, nil
}

// Run performs a single scan, or keeps scanning every scan.interval until ctx
// is cancelled.
func (a *Application) Run(ctx context.Context, req discovery.Request) error {
	if req.Limit <= 0 {
		req.Limit = a.cfg.Scan.SubredditLimit
	}
	req.IncludeNSFW = req.IncludeNSFW || a.cfg.Filter.IncludeNSFW

	if a.cfg.Scan.Interval <= 0 {
		if err := a.pipeline.Process(ctx, req); err != nil {
			return err
		}
		a.logSummary()
		return nil
	}

	if _, err := req.Mode(); err != nil {
		return err
	}

	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Scan.Interval),
		a.pipeline,
		req,
		a.logger.With("component", "scheduler"),
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("watch mode started", "interval", a.cfg.Scan.Interval)

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("watch mode stopped")
	return nil
}

// Pipeline exposes the wired pipeline.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Close releases the archive connection.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Application) logSummary() {
	s := a.pipeline.Summary()
	a.logger.Info("scan finished",
		"run_id", s.RunID,
		"mode", s.Mode,
		"subreddits", s.Subreddits,
		"threads", s.Threads,
		"comments", s.Comments,
		"duration", s.Duration.Round(time.Millisecond))
}
