package discovery

import (
	"context"
	"log/slog"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

// ExplicitStrategy looks every requested name up exactly. Names that are
// forbidden or missing are logged and skipped.
type ExplicitStrategy struct {
	logger *slog.Logger
}

func (s *ExplicitStrategy) Name() string { return ModeExplicit }

func (s *ExplicitStrategy) Resolve(ctx context.Context, api ports.RedditAPI, req Request) ([]domain.SubredditHandle, error) {
	out := make([]domain.SubredditHandle, 0, len(req.Subreddits))
	for _, name := range req.Subreddits {
		handle, err := api.GetSubreddit(ctx, name)
		if err != nil {
			if !domain.IsSkippable(err) {
				return nil, err
			}
			if s.logger != nil {
				s.logger.Warn("skip subreddit", "error", &domain.ResolutionError{Name: name, Err: err})
			}
			continue
		}
		out = append(out, handle)
	}
	return out, nil
}

// SearchStrategy runs a fuzzy title/description search or a name search.
type SearchStrategy struct{}

func (SearchStrategy) Name() string { return ModeSearch }

func (SearchStrategy) Resolve(ctx context.Context, api ports.RedditAPI, req Request) ([]domain.SubredditHandle, error) {
	if req.Fuzzy {
		return api.SearchSubreddits(ctx, req.Query, req.Limit)
	}
	return api.SearchSubredditsByName(ctx, req.Query, req.ExactName, req.IncludeNSFW)
}

// PopularStrategy lists popular subreddits up to the request limit.
type PopularStrategy struct{}

func (PopularStrategy) Name() string { return ModePopular }

func (PopularStrategy) Resolve(ctx context.Context, api ports.RedditAPI, req Request) ([]domain.SubredditHandle, error) {
	return api.ListPopularSubreddits(ctx, req.Limit)
}
