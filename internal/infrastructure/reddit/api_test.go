package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"RedditScanner/internal/config"
	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

const subredditJSON = `{"kind":"t5","data":{"display_name":"%s","title":"%s","description":"about %s","url":"/r/%s/","over18":false}}`

func subredditListing(after string, names ...string) string {
	children := make([]string, len(names))
	for i, n := range names {
		children[i] = fmt.Sprintf(subredditJSON, n, n, n, n)
	}
	return fmt.Sprintf(`{"kind":"Listing","data":{"after":%q,"children":[%s]}}`, after, strings.Join(children, ","))
}

func newTestAPI(t *testing.T, handler http.HandlerFunc) *API {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.Client(), server.URL, "test-agent", nil, RateLimit{RequestsPerMinute: 60000, Burst: 100}, nil)
	require.NoError(t, err)
	client.SetToken("tok")
	return NewAPI(client, nil)
}

func TestConnectorAuthenticatesWithTwoFactor(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "cid", user)
		require.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "password", r.PostForm.Get("grant_type"))
		require.Equal(t, "alice", r.PostForm.Get("username"))
		require.Equal(t, "pw:123456", r.PostForm.Get("password"))
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/subreddits/popular", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "agent", r.Header.Get("User-Agent"))
		require.Equal(t, "2", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(subredditListing("", "golang", "rust")))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.RedditConfig{
		Creds: config.CredentialsConfig{
			ClientID:     "cid",
			ClientSecret: "secret",
			Username:     "u/alice",
			Password:     "pw",
			TwoFactor:    true,
		},
		UserAgent:         "agent",
		AuthURL:           server.URL,
		APIURL:            server.URL,
		RequestsPerMinute: 60000,
		Burst:             10,
		Timeout:           5 * time.Second,
	}
	prompt := func(context.Context) (string, error) { return " 123456\n", nil }

	api, err := NewConnector(cfg, server.Client(), prompt, nil).Connect(context.Background())
	require.NoError(t, err)

	subs, err := api.ListPopularSubreddits(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "golang", subs[0].Name)
	require.Equal(t, "/r/golang/", subs[0].URL)
	require.Equal(t, "about golang", subs[0].Description)
}

func TestConnectorRejectsInvalidCredentials(t *testing.T) {
	t.Parallel()

	for _, handler := range []http.HandlerFunc{
		func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnauthorized) },
		func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{"error":"invalid_grant"}`)) },
	} {
		server := httptest.NewServer(handler)

		cfg := config.RedditConfig{AuthURL: server.URL, APIURL: server.URL, UserAgent: "agent"}
		_, err := NewConnector(cfg, server.Client(), nil, nil).Connect(context.Background())
		server.Close()

		var authErr *domain.AuthError
		require.True(t, errors.As(err, &authErr), "got %v", err)
		require.Contains(t, authErr.Error(), "invalid credentials")
	}
}

func TestGetSubredditStatusMapping(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/r/askreddit/about":
			_, _ = fmt.Fprintf(w, subredditJSON, "AskReddit", "Ask Reddit", "AskReddit", "AskReddit")
		case "/r/private/about":
			w.WriteHeader(http.StatusForbidden)
		case "/r/gone/about":
			w.WriteHeader(http.StatusNotFound)
		case "/r/bogus/about":
			_, _ = w.Write([]byte(subredditListing("")))
		case "/r/broken/about":
			w.WriteHeader(http.StatusInternalServerError)
		case "/r/expired/about":
			w.WriteHeader(http.StatusUnauthorized)
		}
	})
	ctx := context.Background()

	sub, err := api.GetSubreddit(ctx, "askreddit")
	require.NoError(t, err)
	require.Equal(t, "AskReddit", sub.Name)
	require.Equal(t, "AskReddit", domain.URLKey(sub.URL))

	_, err = api.GetSubreddit(ctx, "private")
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = api.GetSubreddit(ctx, "gone")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = api.GetSubreddit(ctx, "bogus")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = api.GetSubreddit(ctx, "broken")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.False(t, domain.IsSkippable(err))

	_, err = api.GetSubreddit(ctx, "expired")
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestSearchSubredditsByName(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/search_reddit_names":
			require.Equal(t, http.MethodPost, r.Method)
			require.NoError(t, r.ParseForm())
			require.Equal(t, "gol", r.PostForm.Get("query"))
			require.Equal(t, "false", r.PostForm.Get("exact"))
			require.Equal(t, "true", r.PostForm.Get("include_over_18"))
			_, _ = w.Write([]byte(`{"names":["golang","golfclub","goldlocked"]}`))
		case "/r/golang/about":
			_, _ = fmt.Fprintf(w, subredditJSON, "golang", "Go", "golang", "golang")
		case "/r/golfclub/about":
			_, _ = fmt.Fprintf(w, subredditJSON, "golfclub", "Golf", "golfclub", "golfclub")
		case "/r/goldlocked/about":
			w.WriteHeader(http.StatusForbidden)
		}
	})

	subs, err := api.SearchSubredditsByName(context.Background(), "gol", false, true)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	require.Equal(t, "golang", subs[0].Name)
	require.Equal(t, "golfclub", subs[1].Name)
}

func TestSearchSubredditsByNameExactMiss(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	subs, err := api.SearchSubredditsByName(context.Background(), "nothing", true, false)
	require.NoError(t, err)
	require.Empty(t, subs)
}

func TestSearchSubredditsAndPagination(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls []string
	)
	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/subreddits/search", r.URL.Path)
		require.Equal(t, "cats", r.URL.Query().Get("q"))
		mu.Lock()
		calls = append(calls, r.URL.Query().Get("limit")+"/"+r.URL.Query().Get("after"))
		mu.Unlock()
		if r.URL.Query().Get("after") == "" {
			_, _ = w.Write([]byte(subredditListing("t5_next", "cats", "catpics")))
			return
		}
		_, _ = w.Write([]byte(subredditListing("", "catsstandingup", "catgifs")))
	})

	subs, err := api.SearchSubreddits(context.Background(), "cats", 103)
	require.NoError(t, err)
	require.Len(t, subs, 4)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"100/", "100/t5_next"}, calls)
}

func TestGetHotThreadsCombinesSubreddits(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/r/golang+rust/hot", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"kind":"Listing","data":{"after":"","children":[
			{"kind":"t3","data":{"id":"t1","title":"Tom &amp; Jerry","selftext":"a &lt;3 b","subreddit":"golang",
			 "num_comments":12,"over_18":true,"score":99,"upvote_ratio":0.93,"url":"https://www.reddit.com/r/golang/comments/t1/x/",
			 "permalink":"/r/golang/comments/t1/x/"}}]}}`))
	})

	threads, err := api.GetHotThreads(context.Background(), []string{"golang", "rust"}, 5)
	require.NoError(t, err)
	require.Len(t, threads, 1)

	th := threads[0]
	require.Equal(t, "t1", th.ID)
	require.Equal(t, "Tom & Jerry", th.Title)
	require.Equal(t, "a <3 b", th.SelfText)
	require.True(t, th.Over18)
	require.Equal(t, 99, th.Score)
	require.InDelta(t, 0.93, th.UpvoteRatio, 1e-9)
	require.Equal(t, 12, th.NumComments)

	none, err := api.GetHotThreads(context.Background(), nil, 5)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestGetSubmissionCommentsFlattensLoadedTree(t *testing.T) {
	t.Parallel()

	api := newTestAPI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/comments/abc", r.URL.Path)
		require.Equal(t, ports.CommentSortTop, r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte(`[
			{"kind":"Listing","data":{"children":[{"kind":"t3","data":{"id":"abc"}}]}},
			{"kind":"Listing","data":{"children":[
				{"kind":"t1","data":{"id":"c1","body":"first","author":"ann","score":20,"stickied":true,
				 "permalink":"/r/golang/comments/abc/x/c1/",
				 "replies":{"kind":"Listing","data":{"children":[
					{"kind":"t1","data":{"id":"c2","body":"nested","author":"bob","score":5,"permalink":"/r/golang/comments/abc/x/c2/","replies":""}},
					{"kind":"more","data":{"count":40,"children":["c9"]}}
				 ]}}}},
				{"kind":"t1","data":{"id":"c3","body":"[deleted]","author":"[deleted]","score":1,"permalink":"/r/golang/comments/abc/x/c3/","replies":""}},
				{"kind":"more","data":{"count":300,"children":["c4","c5"]}}
			]}}
		]`))
	})

	comments, err := api.GetSubmissionComments(context.Background(), "abc", ports.CommentSortTop)
	require.NoError(t, err)
	require.Len(t, comments, 3)

	require.Equal(t, "c1", comments[0].ID)
	require.True(t, comments[0].Stickied)
	require.Equal(t, "c3", comments[1].ID)
	require.Empty(t, comments[1].Author)
	require.Equal(t, "c2", comments[2].ID)
	require.Equal(t, "golang", domain.URLKey(comments[2].Permalink))
}

func TestApplyRateHeadersPausesClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(nil, "https://oauth.reddit.com", "agent", nil, RateLimit{}, nil)
	require.NoError(t, err)

	h := http.Header{}
	h.Set("X-Ratelimit-Remaining", "0")
	h.Set("X-Ratelimit-Reset", "30")
	client.applyRateHeaders(h)
	require.WithinDuration(t, time.Now().Add(30*time.Second), client.pauseUntil, 2*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, client.wait(ctx), context.Canceled)
}

func TestDecodeEntities(t *testing.T) {
	t.Parallel()

	require.Equal(t, "plain", decodeEntities("plain"))
	require.Equal(t, "fish & chips <3 \"ok\"", decodeEntities("fish &amp; chips &lt;3 &quot;ok&quot;"))
}
