// Package portstest provides in-memory implementations of ports for tests.
package portstest

import (
	"context"
	"strings"
	"sync"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

// FakeAPI serves canned data and records every call.
type FakeAPI struct {
	Popular    []domain.SubredditHandle
	Fuzzy      map[string][]domain.SubredditHandle
	ByName     map[string][]domain.SubredditHandle
	Subreddits map[string]domain.SubredditHandle
	LookupErrs map[string]error
	Threads    map[string][]domain.Submission
	Comments   map[string][]domain.RawComment

	// Optional overrides of the map based behaviour.
	HotThreadsFunc func(names []string, limit int) ([]domain.Submission, error)
	CommentsFunc   func(threadID string, call int) ([]domain.RawComment, error)

	mu           sync.Mutex
	hotCalls     [][]string
	hotLimits    []int
	commentCalls []string
	lookupCalls  []string
}

var _ ports.RedditAPI = (*FakeAPI)(nil)

func (f *FakeAPI) ListPopularSubreddits(_ context.Context, limit int) ([]domain.SubredditHandle, error) {
	return capHandles(f.Popular, limit), nil
}

func (f *FakeAPI) SearchSubreddits(_ context.Context, query string, limit int) ([]domain.SubredditHandle, error) {
	return capHandles(f.Fuzzy[query], limit), nil
}

func (f *FakeAPI) SearchSubredditsByName(_ context.Context, query string, exact, _ bool) ([]domain.SubredditHandle, error) {
	matches := f.ByName[query]
	if !exact {
		return matches, nil
	}
	var out []domain.SubredditHandle
	for _, m := range matches {
		if strings.EqualFold(m.Name, query) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *FakeAPI) GetSubreddit(_ context.Context, name string) (domain.SubredditHandle, error) {
	f.mu.Lock()
	f.lookupCalls = append(f.lookupCalls, name)
	f.mu.Unlock()

	key := strings.ToLower(name)
	if err, ok := f.LookupErrs[key]; ok {
		return domain.SubredditHandle{}, err
	}
	if h, ok := f.Subreddits[key]; ok {
		return h, nil
	}
	return domain.SubredditHandle{}, domain.ErrNotFound
}

func (f *FakeAPI) GetHotThreads(_ context.Context, names []string, limit int) ([]domain.Submission, error) {
	f.mu.Lock()
	f.hotCalls = append(f.hotCalls, append([]string(nil), names...))
	f.hotLimits = append(f.hotLimits, limit)
	f.mu.Unlock()

	if f.HotThreadsFunc != nil {
		return f.HotThreadsFunc(names, limit)
	}

	var out []domain.Submission
	for _, name := range names {
		out = append(out, f.Threads[name]...)
	}
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *FakeAPI) GetSubmissionComments(_ context.Context, threadID, _ string) ([]domain.RawComment, error) {
	f.mu.Lock()
	call := 0
	for _, id := range f.commentCalls {
		if id == threadID {
			call++
		}
	}
	f.commentCalls = append(f.commentCalls, threadID)
	f.mu.Unlock()

	if f.CommentsFunc != nil {
		return f.CommentsFunc(threadID, call)
	}
	return f.Comments[threadID], nil
}

// HotCalls returns the subreddit names of every GetHotThreads call.
func (f *FakeAPI) HotCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.hotCalls...)
}

// HotLimits returns the limit passed to every GetHotThreads call.
func (f *FakeAPI) HotLimits() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.hotLimits...)
}

// CommentCalls returns the thread ids comments were requested for.
func (f *FakeAPI) CommentCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commentCalls...)
}

// LookupCalls returns the names passed to GetSubreddit.
func (f *FakeAPI) LookupCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lookupCalls...)
}

func capHandles(in []domain.SubredditHandle, limit int) []domain.SubredditHandle {
	if limit >= 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

// Connector returns API on Connect, or Err when set.
type Connector struct {
	API   ports.RedditAPI
	Err   error
	calls int
}

var _ ports.Connector = (*Connector)(nil)

func (c *Connector) Connect(context.Context) (ports.RedditAPI, error) {
	c.calls++
	if c.Err != nil {
		return nil, c.Err
	}
	return c.API, nil
}

// Calls counts Connect invocations.
func (c *Connector) Calls() int { return c.calls }

// Handle builds a subreddit handle for name with the canonical /r/name/ url.
func Handle(name string) domain.SubredditHandle {
	return domain.SubredditHandle{
		Name:        name,
		Title:       name + " title",
		Description: name + " description",
		URL:         "/r/" + name + "/",
	}
}

// Comment builds a comment that passes the default filter.
func Comment(subreddit, threadID, id string, score int) domain.RawComment {
	return domain.RawComment{
		ID:        id,
		Body:      strings.Repeat("interesting words ", 8),
		Author:    "author_" + id,
		Score:     score,
		Permalink: "/r/" + subreddit + "/comments/" + threadID + "/t/" + id + "/",
	}
}

// Thread builds a hot listing entry in subreddit.
func Thread(subreddit, id string) domain.Submission {
	return domain.Submission{
		ID:          id,
		Title:       "thread " + id,
		SelfText:    "body " + id,
		Subreddit:   subreddit,
		NumComments: 3,
		Score:       100,
		UpvoteRatio: 0.9,
		URL:         "https://www.reddit.com/r/" + subreddit + "/comments/" + id + "/t/",
		Permalink:   "/r/" + subreddit + "/comments/" + id + "/t/",
	}
}
