package reddit

import "encoding/json"

const (
	kindListing   = "Listing"
	kindComment   = "t1"
	kindLink      = "t3"
	kindSubreddit = "t5"

	deletedAuthor = "[deleted]"
)

// thing is the envelope every Reddit object arrives in.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type listingData struct {
	After    string  `json:"after"`
	Children []thing `json:"children"`
}

type subredditData struct {
	DisplayName       string `json:"display_name"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	PublicDescription string `json:"public_description"`
	URL               string `json:"url"`
	Over18            bool   `json:"over18"`
}

type linkData struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	NumComments int     `json:"num_comments"`
	Over18      bool    `json:"over_18"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
}

type commentData struct {
	ID        string          `json:"id"`
	Body      string          `json:"body"`
	Author    string          `json:"author"`
	Score     int             `json:"score"`
	Stickied  bool            `json:"stickied"`
	Permalink string          `json:"permalink"`
	Replies   json.RawMessage `json:"replies"`
}

type searchNamesResponse struct {
	Names []string `json:"names"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
	Error       string `json:"error"`
}
