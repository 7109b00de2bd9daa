package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/filter"
	"RedditScanner/internal/ports"
	"RedditScanner/internal/sanitizer"
)

// AssemblerDeps wires the collaborators of an Assembler.
type AssemblerDeps struct {
	API          ports.RedditAPI
	Document     *domain.Document
	Sanitizer    *sanitizer.Sanitizer
	Filter       filter.Config
	ThreadLimit  int
	Repository   ports.ThreadRepository
	SkipArchived bool
	Logger       *slog.Logger
}

// Assembler grows a document with subreddits and their filtered threads.
type Assembler struct {
	api          ports.RedditAPI
	doc          *domain.Document
	sanitizer    *sanitizer.Sanitizer
	filter       filter.Config
	threadLimit  int
	repository   ports.ThreadRepository
	skipArchived bool
	logger       *slog.Logger
}

// NewAssembler builds an assembler; a nil sanitizer means every cleaning step is on.
func NewAssembler(deps AssemblerDeps) *Assembler {
	doc := deps.Document
	if doc == nil {
		doc = domain.NewDocument()
	}
	san := deps.Sanitizer
	if san == nil {
		san = sanitizer.New(sanitizer.DefaultOptions())
	}
	return &Assembler{
		api:          deps.API,
		doc:          doc,
		sanitizer:    san,
		filter:       deps.Filter,
		threadLimit:  deps.ThreadLimit,
		repository:   deps.Repository,
		skipArchived: deps.SkipArchived,
		logger:       deps.Logger,
	}
}

// Document returns the document being assembled.
func (a *Assembler) Document() *domain.Document {
	return a.doc
}

// RegisterSubreddits stores an empty record per handle and returns the keys in order.
// A key that is already present is overwritten.
func (a *Assembler) RegisterSubreddits(handles []domain.SubredditHandle) []string {
	keys := make([]string, 0, len(handles))
	for _, h := range handles {
		rec := domain.NewSubreddit(h)
		if rec.Key == "" {
			a.debug("skip subreddit without url key", "name", h.Name, "url", h.URL)
			continue
		}
		a.doc.Put(rec)
		keys = append(keys, rec.Key)
	}
	return keys
}

// PopulateThreads reads one combined hot listing for keys and appends every
// thread with surviving comments to the record its first comment belongs to.
// It returns the number of threads appended.
func (a *Assembler) PopulateThreads(ctx context.Context, keys []string) (int, error) {
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if rec, ok := a.doc.Get(key); ok {
			names = append(names, rec.DisplayName)
		}
	}
	if len(names) == 0 {
		return 0, nil
	}

	submissions, err := a.api.GetHotThreads(ctx, names, a.threadLimit)
	if err != nil {
		return 0, fmt.Errorf("fetch hot threads: %w", err)
	}
	a.debug("hot threads fetched", "subreddits", len(names), "threads", len(submissions))

	archived, err := a.archivedThreads(ctx, submissions)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, sub := range submissions {
		if archived[sub.ID] {
			a.debug("skip archived thread", "thread", sub.ID)
			continue
		}

		comments, err := a.threadComments(ctx, sub)
		if err != nil {
			return added, err
		}
		if len(comments) == 0 {
			a.debug("drop thread without comments", "thread", sub.ID, "subreddit", sub.Subreddit)
			continue
		}

		key := domain.URLKey(comments[0].URL)
		if !a.doc.AppendThread(key, newThread(sub, comments)) {
			a.debug("drop thread of unregistered subreddit", "thread", sub.ID, "key", key)
			continue
		}
		added++
	}

	return added, nil
}

func (a *Assembler) threadComments(ctx context.Context, sub domain.Submission) ([]domain.Comment, error) {
	if !filter.AllowsThread(sub.Over18, a.filter) {
		a.debug("skip nsfw thread", "thread", sub.ID)
		return nil, nil
	}

	raw, err := a.api.GetSubmissionComments(ctx, sub.ID, ports.CommentSortTop)
	if err != nil {
		if domain.IsSkippable(err) {
			a.warn("skip thread comments", "thread", sub.ID, "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("fetch comments %s: %w", sub.ID, err)
	}

	return a.selectComments(raw), nil
}

func (a *Assembler) selectComments(raw []domain.RawComment) []domain.Comment {
	out := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		if !filter.IsIncluded(c, a.filter) {
			continue
		}
		text := a.sanitizer.Sanitize(c.Body)
		if text == "" {
			continue
		}
		out = append(out, domain.Comment{
			Text:    text,
			ID:      c.ID,
			URL:     c.Permalink,
			Author:  c.Author,
			Upvotes: c.Score,
		})
	}
	return out
}

func (a *Assembler) archivedThreads(ctx context.Context, submissions []domain.Submission) (map[string]bool, error) {
	if !a.skipArchived || a.repository == nil || len(submissions) == 0 {
		return map[string]bool{}, nil
	}

	ids := make([]string, len(submissions))
	for i, sub := range submissions {
		ids[i] = sub.ID
	}

	archived, err := a.repository.AlreadyArchived(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load archived threads: %w", err)
	}
	return archived, nil
}

func newThread(sub domain.Submission, comments []domain.Comment) domain.Thread {
	return domain.Thread{
		ID:          sub.ID,
		Title:       sub.Title,
		SelfText:    sub.SelfText,
		NumComments: sub.NumComments,
		Comments:    comments,
		IsNSFW:      sub.Over18,
		Upvotes:     sub.Score,
		URL:         sub.URL,
		UpvoteRatio: sub.UpvoteRatio,
	}
}

func (a *Assembler) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

func (a *Assembler) warn(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Warn(msg, args...)
	}
}
