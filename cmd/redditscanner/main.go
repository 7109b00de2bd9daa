package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"RedditScanner/internal/app"
	"RedditScanner/internal/config"
	"RedditScanner/internal/discovery"
	"RedditScanner/internal/logging"
)

// listFlag collects repeated or comma separated values.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

func main() {
	var (
		subreddits   listFlag
		maxThread    = flag.Int("max_thread", 0, "hot threads per subreddit batch (default from config, 20)")
		searchQuery  = flag.String("search_query", "", "search subreddits by this query")
		outputFile   = flag.String("output_file", "", "output file (default reddit_contents.json)")
		popular      = flag.Bool("popular", false, "scan popular subreddits")
		configPath   = flag.String("config_file_path", "", "path to config file (toml, yaml or json)")
		includeNSFW  = flag.Bool("include_nsfw", false, "keep comments of adult threads")
		minScore     = flag.Int("min_comment_score", -1, "minimum comment score (default 10)")
		maxLength    = flag.Int("max_comment_length", 0, "maximum comment length (default 2000)")
		minLength    = flag.Int("min_comment_length", -1, "minimum comment length (default 100)")
		fuzzySearch  = flag.Bool("fuzzy_search", false, "match the query against titles and descriptions")
		exactName    = flag.Bool("exact_name", false, "only the subreddit whose name equals the query")
		outputFormat = flag.String("format", "", "output format: json or yaml")
	)
	flag.Var(&subreddits, "subreddit", "subreddit name; repeat or separate with commas")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if *maxThread > 0 {
		cfg.Scan.ThreadLimit = *maxThread
	}
	if *outputFile != "" {
		cfg.Output.Path = *outputFile
	}
	if *outputFormat != "" {
		cfg.Output.Format = *outputFormat
	}
	if *minScore >= 0 {
		cfg.Filter.MinScore = *minScore
	}
	if *maxLength > 0 {
		cfg.Filter.MaxLength = *maxLength
	}
	if *minLength >= 0 {
		cfg.Filter.MinLength = *minLength
	}
	if *includeNSFW {
		cfg.Filter.IncludeNSFW = true
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	if err := cfg.ValidateCredentials(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	req := discovery.Request{
		Subreddits:  subreddits,
		Query:       *searchQuery,
		Fuzzy:       *fuzzySearch,
		ExactName:   *exactName,
		Popular:     *popular,
		IncludeNSFW: cfg.Filter.IncludeNSFW,
		Limit:       cfg.Scan.SubredditLimit,
	}
	if _, err := req.Mode(); err != nil {
		req.Popular = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.Run(ctx, req); err != nil {
		logger.Error("application stopped", "error", err)
		_ = application.Close()
		os.Exit(1)
	}
}
