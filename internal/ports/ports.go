package ports

import (
	"context"
	"time"

	"RedditScanner/internal/domain"
)

// CommentSortTop is the comment ordering the assembler requests.
const CommentSortTop = "top"

// RedditAPI is the subset of the Reddit API the pipeline relies on.
type RedditAPI interface {
	ListPopularSubreddits(ctx context.Context, limit int) ([]domain.SubredditHandle, error)
	SearchSubreddits(ctx context.Context, query string, limit int) ([]domain.SubredditHandle, error)
	SearchSubredditsByName(ctx context.Context, query string, exact, includeNSFW bool) ([]domain.SubredditHandle, error)
	GetSubreddit(ctx context.Context, name string) (domain.SubredditHandle, error)
	GetHotThreads(ctx context.Context, subreddits []string, limit int) ([]domain.Submission, error)
	// GetSubmissionComments returns the initially loaded comment tree flattened in
	// breadth-first order. "load more" markers are not expanded.
	GetSubmissionComments(ctx context.Context, threadID, sort string) ([]domain.RawComment, error)
}

// Connector hands out an authenticated RedditAPI.
type Connector interface {
	Connect(ctx context.Context) (RedditAPI, error)
}

// ThreadRepository archives assembled threads across runs.
type ThreadRepository interface {
	AlreadyArchived(ctx context.Context, threadIDs []string) (map[string]bool, error)
	SaveRun(ctx context.Context, runID string, doc *domain.Document) error
}

// Notifier publishes a short run summary to an outbound channel.
type Notifier interface {
	PublishSummary(ctx context.Context, summary string) error
}

// DocumentWriter persists the finished document.
type DocumentWriter interface {
	WriteDocument(doc *domain.Document) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
