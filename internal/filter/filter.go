// Package filter decides which comments are worth keeping.
package filter

import (
	"unicode/utf8"

	"RedditScanner/internal/domain"
)

const (
	removedBody = "[removed]"
	deletedBody = "[deleted]"
)

// Config holds inclusion thresholds. Lengths count characters, not bytes.
type Config struct {
	MaxLength   int  `yaml:"max_comment_length" toml:"max_comment_length" env:"MAX_COMMENT_LENGTH" env-default:"2000"`
	MinLength   int  `yaml:"min_comment_length" toml:"min_comment_length" env:"MIN_COMMENT_LENGTH" env-default:"100"`
	MinScore    int  `yaml:"min_comment_score" toml:"min_comment_score" env:"MIN_COMMENT_SCORE" env-default:"10"`
	IncludeNSFW bool `yaml:"include_nsfw" toml:"include_nsfw" env:"INCLUDE_NSFW"`
}

// DefaultConfig mirrors the CLI defaults.
func DefaultConfig() Config {
	return Config{MaxLength: 2000, MinLength: 100, MinScore: 10}
}

// Reason names the first failed check; it is empty for included comments.
type Reason string

const (
	ReasonRemoved  Reason = "removed"
	ReasonStickied Reason = "stickied"
	ReasonTooShort Reason = "too_short"
	ReasonTooLong  Reason = "too_long"
	ReasonNoAuthor Reason = "no_author"
	ReasonLowScore Reason = "low_score"
)

// IsIncluded reports whether comment passes every check in cfg.
func IsIncluded(comment domain.RawComment, cfg Config) bool {
	return Evaluate(comment, cfg) == ""
}

// Evaluate runs all checks in one pass and returns the reason for exclusion, if any.
func Evaluate(comment domain.RawComment, cfg Config) Reason {
	length := utf8.RuneCountInString(comment.Body)

	checks := []struct {
		failed bool
		reason Reason
	}{
		{comment.Body == removedBody || comment.Body == deletedBody, ReasonRemoved},
		{comment.Stickied, ReasonStickied},
		{length < cfg.MinLength, ReasonTooShort},
		{length > cfg.MaxLength, ReasonTooLong},
		{comment.Author == "", ReasonNoAuthor},
		{comment.Score < cfg.MinScore, ReasonLowScore},
	}

	for _, c := range checks {
		if c.failed {
			return c.reason
		}
	}
	return ""
}

// AllowsThread is the thread-level gate applied before any comment is looked at.
func AllowsThread(isNSFW bool, cfg Config) bool {
	return !isNSFW || cfg.IncludeNSFW
}
