package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/filter"
	"RedditScanner/internal/ports/portstest"
)

func newTestAssembler(api *portstest.FakeAPI, limit int) *Assembler {
	return NewAssembler(AssemblerDeps{
		API:         api,
		Filter:      filter.DefaultConfig(),
		ThreadLimit: limit,
	})
}

func TestRegisterSubredditsKeysByURL(t *testing.T) {
	t.Parallel()

	a := newTestAssembler(&portstest.FakeAPI{}, 5)
	keys := a.RegisterSubreddits([]domain.SubredditHandle{
		portstest.Handle("golang"),
		{Name: "broken", URL: ""},
		portstest.Handle("rust"),
	})

	require.Equal(t, []string{"golang", "rust"}, keys)
	require.Equal(t, []string{"golang", "rust"}, a.Document().Keys())

	rec, ok := a.Document().Get("golang")
	require.True(t, ok)
	require.Equal(t, "golang title", rec.Title)
	require.Equal(t, "golang description", rec.Description)
	require.Equal(t, "golang", rec.DisplayName)
	require.Equal(t, "/r/golang/", rec.URL)
	require.Empty(t, rec.Threads)
}

func TestPopulateThreadsCombinesAndFilters(t *testing.T) {
	t.Parallel()

	lowScore := portstest.Comment("golang", "g1", "low", 3)
	removed := portstest.Comment("golang", "g1", "rm", 50)
	removed.Body = "[removed]"
	noisy := portstest.Comment("golang", "g1", "noisy", 40)
	noisy.Body = "Read https://go.dev/doc/effective_go!!! " + noisy.Body + " 🚀"
	emptyAfterClean := portstest.Comment("golang", "g1", "empty", 40)
	emptyAfterClean.Body = strings.Repeat("!", 120)

	api := &portstest.FakeAPI{
		Threads: map[string][]domain.Submission{
			"golang": {portstest.Thread("golang", "g1"), portstest.Thread("golang", "g2")},
			"rust":   {portstest.Thread("rust", "r1")},
		},
		Comments: map[string][]domain.RawComment{
			"g1": {lowScore, removed, noisy, emptyAfterClean, portstest.Comment("golang", "g1", "ok", 10)},
			"g2": {lowScore},
			"r1": {portstest.Comment("rust", "r1", "c1", 12)},
		},
	}

	a := newTestAssembler(api, 5)
	keys := a.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("golang"), portstest.Handle("rust")})

	added, err := a.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Equal(t, 2, added)
	require.Equal(t, [][]string{{"golang", "rust"}}, api.HotCalls())
	require.Equal(t, []int{5}, api.HotLimits())

	golang, _ := a.Document().Get("golang")
	require.Len(t, golang.Threads, 1, "g2 has no surviving comments")

	thread := golang.Threads[0]
	require.Equal(t, "g1", thread.ID)
	require.Equal(t, "body g1", thread.SelfText)
	require.Len(t, thread.Comments, 2)
	require.Equal(t, "noisy", thread.Comments[0].ID)
	require.NotContains(t, thread.Comments[0].Text, "go.dev")
	require.NotContains(t, thread.Comments[0].Text, "!")
	require.NotContains(t, thread.Comments[0].Text, "🚀")
	require.Equal(t, "ok", thread.Comments[1].ID)
	require.Equal(t, 10, thread.Comments[1].Upvotes)
	require.Equal(t, "author_ok", thread.Comments[1].Author)

	rust, _ := a.Document().Get("rust")
	require.Len(t, rust.Threads, 1)
}

func TestPopulateThreadsSkipsNSFWWithoutFetchingComments(t *testing.T) {
	t.Parallel()

	adult := portstest.Thread("pics", "p1")
	adult.Over18 = true

	api := &portstest.FakeAPI{
		Threads:  map[string][]domain.Submission{"pics": {adult}},
		Comments: map[string][]domain.RawComment{"p1": {portstest.Comment("pics", "p1", "c1", 500)}},
	}

	a := newTestAssembler(api, 5)
	keys := a.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("pics")})

	added, err := a.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Zero(t, added)
	require.Empty(t, api.CommentCalls())

	cfg := filter.DefaultConfig()
	cfg.IncludeNSFW = true
	allowed := NewAssembler(AssemblerDeps{API: api, Filter: cfg, ThreadLimit: 5})
	keys = allowed.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("pics")})
	added, err = allowed.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Equal(t, 1, added)
}

func TestPopulateThreadsAttributesByFirstComment(t *testing.T) {
	t.Parallel()

	api := &portstest.FakeAPI{
		Threads: map[string][]domain.Submission{
			"golang": {portstest.Thread("golang", "x1"), portstest.Thread("golang", "x2")},
		},
		Comments: map[string][]domain.RawComment{
			// crosspost whose comments live in a subreddit nobody registered
			"x1": {portstest.Comment("elsewhere", "x1", "c1", 20)},
			"x2": {portstest.Comment("golang", "x2", "c2", 20)},
		},
	}

	a := newTestAssembler(api, 5)
	keys := a.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("golang")})

	added, err := a.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.False(t, a.Document().Has("elsewhere"))

	golang, _ := a.Document().Get("golang")
	require.Len(t, golang.Threads, 1)
	require.Equal(t, "x2", golang.Threads[0].ID)
}

func TestPopulateThreadsSkipsForbiddenComments(t *testing.T) {
	t.Parallel()

	api := &portstest.FakeAPI{
		Threads: map[string][]domain.Submission{"golang": {portstest.Thread("golang", "a"), portstest.Thread("golang", "b")}},
		CommentsFunc: func(id string, _ int) ([]domain.RawComment, error) {
			if id == "a" {
				return nil, domain.ErrForbidden
			}
			return []domain.RawComment{portstest.Comment("golang", id, "c", 11)}, nil
		},
	}

	a := newTestAssembler(api, 5)
	keys := a.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("golang")})

	added, err := a.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Equal(t, 1, added)
}

func TestPopulateThreadsSkipsArchived(t *testing.T) {
	t.Parallel()

	api := &portstest.FakeAPI{
		Threads: map[string][]domain.Submission{"golang": {portstest.Thread("golang", "old"), portstest.Thread("golang", "new")}},
		Comments: map[string][]domain.RawComment{
			"old": {portstest.Comment("golang", "old", "c1", 20)},
			"new": {portstest.Comment("golang", "new", "c2", 20)},
		},
	}
	repo := &memoryRepository{archived: map[string]bool{"old": true}}

	a := NewAssembler(AssemblerDeps{
		API:          api,
		Filter:       filter.DefaultConfig(),
		ThreadLimit:  5,
		Repository:   repo,
		SkipArchived: true,
	})
	keys := a.RegisterSubreddits([]domain.SubredditHandle{portstest.Handle("golang")})

	added, err := a.PopulateThreads(context.Background(), keys)
	require.NoError(t, err)
	require.Equal(t, 1, added)
	require.Equal(t, []string{"new"}, api.CommentCalls())
}

func TestPopulateThreadsWithoutKeysMakesNoCalls(t *testing.T) {
	t.Parallel()

	api := &portstest.FakeAPI{}
	a := newTestAssembler(api, 5)

	added, err := a.PopulateThreads(context.Background(), []string{"unknown"})
	require.NoError(t, err)
	require.Zero(t, added)
	require.Empty(t, api.HotCalls())
}
