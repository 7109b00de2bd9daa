// Package discovery decides which subreddits a run targets.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

// Strategy names, in priority order.
const (
	ModeExplicit = "explicit"
	ModeSearch   = "search"
	ModePopular  = "popular"
)

// Request carries all parameters required to resolve subreddits.
type Request struct {
	Subreddits  []string
	Query       string
	Fuzzy       bool
	ExactName   bool
	Popular     bool
	IncludeNSFW bool
	Limit       int
}

// Mode returns the strategy selected by priority: explicit names, then search query, then popular.
func (r Request) Mode() (string, error) {
	switch {
	case len(r.Subreddits) > 0:
		return ModeExplicit, nil
	case r.Query != "":
		return ModeSearch, nil
	case r.Popular:
		return ModePopular, nil
	}
	return "", fmt.Errorf("no subreddits, search query or popular mode selected: %w", domain.ErrInvalidArgument)
}

// Strategy resolves subreddits for a single mode.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, api ports.RedditAPI, req Request) ([]domain.SubredditHandle, error)
}

// Registry keeps a mapping from mode names to their strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds or replaces a strategy implementation.
func (r *Registry) Register(strategy Strategy) {
	if r.strategies == nil {
		r.strategies = map[string]Strategy{}
	}
	r.strategies[strategy.Name()] = strategy
}

// Lookup returns a strategy by name or an error if it is absent.
func (r *Registry) Lookup(name string) (Strategy, error) {
	if strategy, ok := r.strategies[name]; ok {
		return strategy, nil
	}
	return nil, fmt.Errorf("discovery strategy %s is not registered", name)
}

// Resolver dispatches a request to the strategy its mode selects.
type Resolver struct {
	registry *Registry
	logger   *slog.Logger
}

// NewResolver wires the default explicit, search and popular strategies.
func NewResolver(logger *slog.Logger) *Resolver {
	registry := NewRegistry()
	registry.Register(&ExplicitStrategy{logger: logger})
	registry.Register(SearchStrategy{})
	registry.Register(PopularStrategy{})
	return NewResolverWithRegistry(registry, logger)
}

// NewResolverWithRegistry uses a caller supplied registry.
func NewResolverWithRegistry(registry *Registry, logger *slog.Logger) *Resolver {
	return &Resolver{registry: registry, logger: logger}
}

// Resolve returns subreddit handles in the order the API produced them.
func (r *Resolver) Resolve(ctx context.Context, api ports.RedditAPI, req Request) ([]domain.SubredditHandle, error) {
	if api == nil {
		return nil, fmt.Errorf("reddit api is not configured")
	}

	mode, err := req.Mode()
	if err != nil {
		return nil, err
	}

	strategy, err := r.registry.Lookup(mode)
	if err != nil {
		return nil, err
	}

	r.debug("resolve subreddits", "mode", mode, "names", len(req.Subreddits), "query", req.Query, "limit", req.Limit)
	handles, err := strategy.Resolve(ctx, api, req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", mode, err)
	}

	r.debug("subreddits resolved", "mode", mode, "count", len(handles))
	return handles, nil
}

func (r *Resolver) debug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
