package reddit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"RedditScanner/internal/domain"
)

func parseListing(raw []byte) (listingData, error) {
	var envelope thing
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return listingData{}, fmt.Errorf("decode listing: %w", err)
	}
	if envelope.Kind != kindListing {
		return listingData{}, fmt.Errorf("decode listing: unexpected kind %q", envelope.Kind)
	}

	var listing listingData
	if err := json.Unmarshal(envelope.Data, &listing); err != nil {
		return listingData{}, fmt.Errorf("decode listing data: %w", err)
	}
	return listing, nil
}

func toSubreddit(t thing) (domain.SubredditHandle, error) {
	if t.Kind != kindSubreddit {
		return domain.SubredditHandle{}, fmt.Errorf("expected %s, got %q", kindSubreddit, t.Kind)
	}

	var data subredditData
	if err := json.Unmarshal(t.Data, &data); err != nil {
		return domain.SubredditHandle{}, fmt.Errorf("decode subreddit: %w", err)
	}

	description := data.Description
	if description == "" {
		description = data.PublicDescription
	}

	return domain.SubredditHandle{
		Name:        data.DisplayName,
		Title:       decodeEntities(data.Title),
		Description: decodeEntities(description),
		URL:         data.URL,
		Over18:      data.Over18,
	}, nil
}

func toSubmission(t thing) (domain.Submission, error) {
	if t.Kind != kindLink {
		return domain.Submission{}, fmt.Errorf("expected %s, got %q", kindLink, t.Kind)
	}

	var data linkData
	if err := json.Unmarshal(t.Data, &data); err != nil {
		return domain.Submission{}, fmt.Errorf("decode submission: %w", err)
	}

	return domain.Submission{
		ID:          data.ID,
		Title:       decodeEntities(data.Title),
		SelfText:    decodeEntities(data.SelfText),
		Subreddit:   data.Subreddit,
		NumComments: data.NumComments,
		Over18:      data.Over18,
		Score:       data.Score,
		UpvoteRatio: data.UpvoteRatio,
		URL:         data.URL,
		Permalink:   data.Permalink,
	}, nil
}

func subredditsFrom(listing listingData) ([]domain.SubredditHandle, error) {
	out := make([]domain.SubredditHandle, 0, len(listing.Children))
	for _, child := range listing.Children {
		sub, err := toSubreddit(child)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func submissionsFrom(listing listingData) ([]domain.Submission, error) {
	out := make([]domain.Submission, 0, len(listing.Children))
	for _, child := range listing.Children {
		sub, err := toSubmission(child)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// parseCommentPage decodes the [submission, comments] pair returned by /comments/{id}
// and flattens the loaded tree breadth first. "more" stubs are dropped.
func parseCommentPage(raw []byte) ([]domain.RawComment, error) {
	var pages []json.RawMessage
	if err := json.Unmarshal(raw, &pages); err != nil {
		return nil, fmt.Errorf("decode comment page: %w", err)
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("decode comment page: expected 2 listings, got %d", len(pages))
	}

	root, err := parseListing(pages[1])
	if err != nil {
		return nil, err
	}

	var out []domain.RawComment
	queue := root.Children
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current.Kind != kindComment {
			continue
		}

		var data commentData
		if err := json.Unmarshal(current.Data, &data); err != nil {
			return nil, fmt.Errorf("decode comment: %w", err)
		}

		author := data.Author
		if author == deletedAuthor {
			author = ""
		}

		out = append(out, domain.RawComment{
			ID:        data.ID,
			Body:      decodeEntities(data.Body),
			Author:    author,
			Score:     data.Score,
			Stickied:  data.Stickied,
			Permalink: data.Permalink,
		})

		replies, err := parseReplies(data.Replies)
		if err != nil {
			return nil, fmt.Errorf("decode replies of %s: %w", data.ID, err)
		}
		queue = append(queue, replies...)
	}

	return out, nil
}

// parseReplies accepts either an empty string or a nested listing.
func parseReplies(raw json.RawMessage) ([]thing, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	listing, err := parseListing(trimmed)
	if err != nil {
		return nil, err
	}
	return listing.Children, nil
}
