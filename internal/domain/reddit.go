package domain

import (
	"net/url"
	"strings"
)

// SubredditHandle is a subreddit as returned by discovery before any content is fetched.
type SubredditHandle struct {
	Name        string
	Title       string
	Description string
	URL         string
	Over18      bool
}

// Submission is a thread entry of a hot listing.
type Submission struct {
	ID          string
	Title       string
	SelfText    string
	Subreddit   string
	NumComments int
	Over18      bool
	Score       int
	UpvoteRatio float64
	URL         string
	Permalink   string
}

// RawComment carries the comment metadata the filter decides on.
// Author is empty for deleted accounts.
type RawComment struct {
	ID        string
	Body      string
	Author    string
	Score     int
	Stickied  bool
	Permalink string
}

// Comment is a sanitized comment kept in the document.
type Comment struct {
	Text    string `json:"text" yaml:"text"`
	ID      string `json:"id" yaml:"id"`
	URL     string `json:"url" yaml:"url"`
	Author  string `json:"author" yaml:"author"`
	Upvotes int    `json:"upvotes" yaml:"upvotes"`
}

// Thread is an assembled thread together with the comments that survived filtering.
type Thread struct {
	ID          string    `json:"thread_id" yaml:"thread_id"`
	Title       string    `json:"title" yaml:"title"`
	SelfText    string    `json:"self_text" yaml:"self_text"`
	NumComments int       `json:"num_comments" yaml:"num_comments"`
	Comments    []Comment `json:"comments" yaml:"comments"`
	IsNSFW      bool      `json:"is_nsfw" yaml:"is_nsfw"`
	Upvotes     int       `json:"upvotes" yaml:"upvotes"`
	URL         string    `json:"thread_url" yaml:"thread_url"`
	UpvoteRatio float64   `json:"upvote_ratio" yaml:"upvote_ratio"`
}

// Subreddit is a document entry keyed by URLKey.
type Subreddit struct {
	Key         string   `json:"-" yaml:"-"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"description" yaml:"description"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	URL         string   `json:"url" yaml:"url"`
	Threads     []Thread `json:"contents" yaml:"contents"`
}

// NewSubreddit builds an empty record from a resolved handle.
func NewSubreddit(h SubredditHandle) Subreddit {
	return Subreddit{
		Key:         URLKey(h.URL),
		Title:       h.Title,
		Description: h.Description,
		DisplayName: h.Name,
		URL:         h.URL,
		Threads:     []Thread{},
	}
}

// URLKey returns the third slash separated segment of a Reddit path,
// so both "/r/golang/" and "/r/golang/comments/abc/x/def/" yield "golang".
// Absolute URLs are reduced to their path first.
func URLKey(raw string) string {
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		path = u.Path
	}
	parts := strings.Split(path, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}
