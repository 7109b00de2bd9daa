package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"RedditScanner/internal/discovery"
	"RedditScanner/internal/domain"
	"RedditScanner/internal/filter"
	"RedditScanner/internal/ports"
	"RedditScanner/internal/sanitizer"
)

// State is the position of a Pipeline in its run.
type State int

const (
	StateUnauthenticated State = iota
	StateResolving
	StateAssembling
	StateGapFilling
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateResolving:
		return "resolving"
	case StateAssembling:
		return "assembling"
	case StateGapFilling:
		return "gap_filling"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Connector    ports.Connector
	Resolver     *discovery.Resolver
	Sanitizer    *sanitizer.Sanitizer
	Filter       filter.Config
	ThreadLimit  int
	Pause        time.Duration
	Writer       ports.DocumentWriter
	Repository   ports.ThreadRepository
	SkipArchived bool
	Notifier     ports.Notifier
	Logger       *slog.Logger
}

// Summary describes a finished run.
type Summary struct {
	RunID           string
	Mode            string
	Subreddits      int
	Threads         int
	Comments        int
	EmptySubreddits []string
	Duration        time.Duration
}

// Pipeline sequences discovery, assembly and the gap-filling pass.
type Pipeline struct {
	connector    ports.Connector
	resolver     *discovery.Resolver
	sanitizer    *sanitizer.Sanitizer
	filter       filter.Config
	threadLimit  int
	pause        time.Duration
	writer       ports.DocumentWriter
	repository   ports.ThreadRepository
	skipArchived bool
	notifier     ports.Notifier
	logger       *slog.Logger

	api       ports.RedditAPI
	state     State
	assembler *Assembler
	summary   Summary
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	resolver := deps.Resolver
	if resolver == nil {
		resolver = discovery.NewResolver(deps.Logger)
	}
	return &Pipeline{
		connector:    deps.Connector,
		resolver:     resolver,
		sanitizer:    deps.Sanitizer,
		filter:       deps.Filter,
		threadLimit:  deps.ThreadLimit,
		pause:        deps.Pause,
		writer:       deps.Writer,
		repository:   deps.Repository,
		skipArchived: deps.SkipArchived,
		notifier:     deps.Notifier,
		logger:       deps.Logger,
		state:        StateUnauthenticated,
	}
}

// State reports where the last Process call got to.
func (p *Pipeline) State() State {
	return p.state
}

// Document returns the document of the last Process call.
func (p *Pipeline) Document() *domain.Document {
	if p.assembler == nil {
		return domain.NewDocument()
	}
	return p.assembler.Document()
}

// Summary returns the statistics of the last completed run.
func (p *Pipeline) Summary() Summary {
	return p.summary
}

// Process runs one full scan for req into a fresh document.
// Explicit subreddit lists are resolved and assembled one name at a time with
// a pause in between; a single gap-filling pass follows in every mode.
func (p *Pipeline) Process(ctx context.Context, req discovery.Request) error {
	started := time.Now()
	runID := uuid.NewString()
	logger := p.runLogger(runID)

	mode, err := req.Mode()
	if err != nil {
		return err
	}

	if err := p.connect(ctx); err != nil {
		return err
	}

	p.assembler = NewAssembler(AssemblerDeps{
		API:          p.api,
		Sanitizer:    p.sanitizer,
		Filter:       p.filter,
		ThreadLimit:  p.threadLimit,
		Repository:   p.repository,
		SkipArchived: p.skipArchived,
		Logger:       logger,
	})

	logger.Info("run started", "mode", mode)

	if mode == discovery.ModeExplicit {
		for i, name := range req.Subreddits {
			if i > 0 {
				if err := sleep(ctx, p.pause); err != nil {
					return fmt.Errorf("pause before %s: %w", name, err)
				}
			}
			single := req
			single.Subreddits = []string{name}
			if err := p.cycle(ctx, single, true); err != nil {
				return err
			}
		}
		if err := p.gapFill(ctx, logger); err != nil {
			return err
		}
	} else if err := p.cycle(ctx, req, false); err != nil {
		return err
	}

	p.state = StateDone
	doc := p.assembler.Document()
	p.summary = Summary{
		RunID:           runID,
		Mode:            mode,
		Subreddits:      doc.Len(),
		Threads:         doc.ThreadCount(),
		Comments:        doc.CommentCount(),
		EmptySubreddits: doc.EmptyKeys(),
		Duration:        time.Since(started),
	}
	logger.Info("run assembled",
		"subreddits", p.summary.Subreddits,
		"threads", p.summary.Threads,
		"comments", p.summary.Comments,
		"empty", len(p.summary.EmptySubreddits))

	return p.deliver(ctx, logger, doc)
}

// cycle resolves req, registers the result and fills it once. Controlled
// cycles leave gap filling to the caller.
func (p *Pipeline) cycle(ctx context.Context, req discovery.Request, controlled bool) error {
	p.state = StateResolving
	handles, err := p.resolver.Resolve(ctx, p.api, req)
	if err != nil {
		return fmt.Errorf("resolve subreddits: %w", err)
	}
	keys := p.assembler.RegisterSubreddits(handles)

	p.state = StateAssembling
	if _, err := p.assembler.PopulateThreads(ctx, keys); err != nil {
		return fmt.Errorf("populate threads: %w", err)
	}

	if controlled {
		return nil
	}
	return p.gapFill(ctx, p.assembler.logger)
}

// gapFill refetches only the subreddits that are still empty.
func (p *Pipeline) gapFill(ctx context.Context, logger *slog.Logger) error {
	p.state = StateGapFilling

	empty := p.assembler.Document().EmptyKeys()
	if len(empty) == 0 {
		return nil
	}

	logger.Debug("gap filling", "subreddits", empty)
	added, err := p.assembler.PopulateThreads(ctx, empty)
	if err != nil {
		return fmt.Errorf("gap fill: %w", err)
	}
	logger.Debug("gap filling done", "threads_added", added)
	return nil
}

func (p *Pipeline) connect(ctx context.Context) error {
	if p.api != nil {
		return nil
	}
	if p.connector == nil {
		return fmt.Errorf("reddit connector is not configured")
	}

	p.state = StateUnauthenticated
	api, err := p.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to reddit: %w", err)
	}
	p.api = api
	return nil
}

// deliver writes, archives and announces the finished document.
func (p *Pipeline) deliver(ctx context.Context, logger *slog.Logger, doc *domain.Document) error {
	if p.writer != nil {
		if err := p.writer.WriteDocument(doc); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
	}

	if p.repository != nil {
		if err := p.repository.SaveRun(ctx, p.summary.RunID, doc); err != nil {
			logger.Error("archive run failed", "error", err)
			return fmt.Errorf("archive run: %w", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.PublishSummary(ctx, buildSummaryMessage(p.summary, doc)); err != nil {
			logger.Error("notify failed", "error", err)
			return fmt.Errorf("publish summary: %w", err)
		}
	}

	return nil
}

func (p *Pipeline) runLogger(runID string) *slog.Logger {
	logger := p.logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger.With("run_id", runID)
}

func buildSummaryMessage(summary Summary, doc *domain.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reddit scan %s (%s)\n", summary.RunID, summary.Mode)
	fmt.Fprintf(&b, "Subreddits: %d, threads: %d, comments: %d\n", summary.Subreddits, summary.Threads, summary.Comments)

	for _, sub := range doc.Subreddits() {
		if len(sub.Threads) == 0 {
			continue
		}
		fmt.Fprintf(&b, "- r/%s: %d threads\n", sub.DisplayName, len(sub.Threads))
	}

	if len(summary.EmptySubreddits) > 0 {
		fmt.Fprintf(&b, "Empty: %s\n", strings.Join(summary.EmptySubreddits, ", "))
	}
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
