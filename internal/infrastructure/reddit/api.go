package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"RedditScanner/internal/config"
	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

// maxPageSize is the largest page Reddit serves for a listing.
const maxPageSize = 100

// API implements ports.RedditAPI over the OAuth HTTP endpoints.
type API struct {
	client *Client
	logger *slog.Logger
}

var _ ports.RedditAPI = (*API)(nil)

// NewAPI wraps an authenticated client.
func NewAPI(client *Client, logger *slog.Logger) *API {
	return &API{client: client, logger: logger}
}

// ListPopularSubreddits returns up to limit subreddits from /subreddits/popular.
func (a *API) ListPopularSubreddits(ctx context.Context, limit int) ([]domain.SubredditHandle, error) {
	children, err := a.listing(ctx, "subreddits/popular", nil, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular subreddits: %w", err)
	}
	return subredditsFrom(listingData{Children: children})
}

// SearchSubreddits matches query against subreddit titles and descriptions.
func (a *API) SearchSubreddits(ctx context.Context, query string, limit int) ([]domain.SubredditHandle, error) {
	children, err := a.listing(ctx, "subreddits/search", url.Values{"q": {query}}, limit)
	if err != nil {
		return nil, fmt.Errorf("search subreddits: %w", err)
	}
	return subredditsFrom(listingData{Children: children})
}

// SearchSubredditsByName matches query against subreddit names and looks each match up.
func (a *API) SearchSubredditsByName(ctx context.Context, query string, exact, includeNSFW bool) ([]domain.SubredditHandle, error) {
	form := url.Values{}
	form.Set("query", query)
	form.Set("exact", strconv.FormatBool(exact))
	form.Set("include_over_18", strconv.FormatBool(includeNSFW))

	payload, err := a.client.postForm(ctx, "api/search_reddit_names", form)
	if err != nil {
		// an exact search without a match answers 404
		if exact && errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("search subreddit names: %w", err)
	}

	var names searchNamesResponse
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, fmt.Errorf("decode subreddit names: %w", err)
	}

	out := make([]domain.SubredditHandle, 0, len(names.Names))
	for _, name := range names.Names {
		sub, err := a.GetSubreddit(ctx, name)
		if err != nil {
			if domain.IsSkippable(err) {
				a.debug("skip unreachable subreddit", "name", name, "error", err)
				continue
			}
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// GetSubreddit looks a subreddit up by its exact name.
func (a *API) GetSubreddit(ctx context.Context, name string) (domain.SubredditHandle, error) {
	payload, err := a.client.get(ctx, "r/"+url.PathEscape(name)+"/about", nil)
	if err != nil {
		return domain.SubredditHandle{}, fmt.Errorf("get subreddit %s: %w", name, err)
	}

	var t thing
	if err := json.Unmarshal(payload, &t); err != nil {
		return domain.SubredditHandle{}, fmt.Errorf("decode subreddit %s: %w", name, err)
	}
	// unknown names are redirected to a search listing instead of failing
	if t.Kind != kindSubreddit {
		return domain.SubredditHandle{}, fmt.Errorf("get subreddit %s: %w", name, domain.ErrNotFound)
	}
	return toSubreddit(t)
}

// GetHotThreads reads one combined hot listing for all subreddits ("a+b+c").
func (a *API) GetHotThreads(ctx context.Context, subreddits []string, limit int) ([]domain.Submission, error) {
	if len(subreddits) == 0 {
		return nil, nil
	}

	escaped := make([]string, len(subreddits))
	for i, name := range subreddits {
		escaped[i] = url.PathEscape(name)
	}

	children, err := a.listing(ctx, "r/"+strings.Join(escaped, "+")+"/hot", nil, limit)
	if err != nil {
		return nil, fmt.Errorf("get hot threads: %w", err)
	}
	return submissionsFrom(listingData{Children: children})
}

// GetSubmissionComments returns the loaded comment tree of a thread.
func (a *API) GetSubmissionComments(ctx context.Context, threadID, sort string) ([]domain.RawComment, error) {
	query := url.Values{}
	if sort != "" {
		query.Set("sort", sort)
	}

	payload, err := a.client.get(ctx, "comments/"+url.PathEscape(threadID), query)
	if err != nil {
		return nil, fmt.Errorf("get comments %s: %w", threadID, err)
	}

	comments, err := parseCommentPage(payload)
	if err != nil {
		return nil, fmt.Errorf("parse comments %s: %w", threadID, err)
	}
	return comments, nil
}

// listing walks "after" cursors until limit children are collected or the listing ends.
func (a *API) listing(ctx context.Context, path string, query url.Values, limit int) ([]thing, error) {
	if limit <= 0 {
		return nil, nil
	}

	var out []thing
	after := ""
	for len(out) < limit {
		page := url.Values{}
		for k, v := range query {
			page[k] = v
		}
		page.Set("limit", strconv.Itoa(min(limit-len(out), maxPageSize)))
		if after != "" {
			page.Set("after", after)
		}

		payload, err := a.client.get(ctx, path, page)
		if err != nil {
			return nil, err
		}
		listing, err := parseListing(payload)
		if err != nil {
			return nil, err
		}

		out = append(out, listing.Children...)
		if listing.After == "" || len(listing.Children) == 0 {
			break
		}
		after = listing.After
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (a *API) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}

// Connector authenticates with configured credentials and hands out an API.
type Connector struct {
	cfg        config.RedditConfig
	httpClient *http.Client
	prompt     CodePrompt
	logger     *slog.Logger
}

var _ ports.Connector = (*Connector)(nil)

// NewConnector keeps everything needed to log in later.
func NewConnector(cfg config.RedditConfig, httpClient *http.Client, prompt CodePrompt, logger *slog.Logger) *Connector {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Connector{cfg: cfg, httpClient: httpClient, prompt: prompt, logger: logger}
}

// Connect fetches a first token so bad credentials surface before any scan.
func (c *Connector) Connect(ctx context.Context) (ports.RedditAPI, error) {
	creds := Credentials{
		ClientID:     c.cfg.Creds.ClientID,
		ClientSecret: c.cfg.Creds.ClientSecret,
		Username:     config.NormalizeUsername(c.cfg.Creds.Username),
		Password:     c.cfg.Creds.Password,
		TwoFactor:    c.cfg.Creds.TwoFactor,
	}

	auth, err := NewAuthenticator(c.httpClient, c.cfg.AuthURL, c.cfg.UserAgent, creds, c.prompt)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(c.httpClient, c.cfg.APIURL, c.cfg.UserAgent, auth, RateLimit{
		RequestsPerMinute: c.cfg.RequestsPerMinute,
		Burst:             c.cfg.Burst,
	}, c.logger)
	if err != nil {
		return nil, err
	}

	if _, err := client.EnsureToken(ctx); err != nil {
		return nil, fmt.Errorf("authenticate %s: %w", creds.Username, err)
	}

	if c.logger != nil {
		c.logger.Info("authenticated with reddit", "user", creds.Username)
	}
	return NewAPI(client, c.logger), nil
}
