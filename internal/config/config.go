package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"RedditScanner/internal/filter"
	"RedditScanner/internal/sanitizer"
)

const configPathEnv = "REDDIT_SCANNER_CONFIG"

// defaultPaths are probed in the working directory when no path is given.
var defaultPaths = []string{"config.toml", "config.yaml", "config.yml"}

// Config holds high-level settings required across the application.
// Environment variables take precedence over file values.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging" toml:"logging"`
	Reddit        RedditConfig       `yaml:"reddit" toml:"reddit"`
	Scan          ScanConfig         `yaml:"scan" toml:"scan"`
	Filter        filter.Config      `yaml:"filter" toml:"filter"`
	Sanitizer     SanitizerConfig    `yaml:"sanitizer" toml:"sanitizer"`
	Output        OutputConfig       `yaml:"output" toml:"output"`
	Database      DatabaseConfig     `yaml:"database" toml:"database"`
	Notifications NotificationConfig `yaml:"notifications" toml:"notifications"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" toml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// RedditConfig describes how to reach and authenticate against the Reddit API.
type RedditConfig struct {
	Creds             CredentialsConfig `yaml:"creds" toml:"creds"`
	UserAgent         string            `yaml:"user_agent" toml:"user_agent" env:"REDDIT_USER_AGENT" env-default:"RedditScanner/1.0 (Accessing Reddit threads)"`
	AuthURL           string            `yaml:"auth_url" toml:"auth_url" env:"REDDIT_AUTH_URL" env-default:"https://www.reddit.com/"`
	APIURL            string            `yaml:"api_url" toml:"api_url" env:"REDDIT_API_URL" env-default:"https://oauth.reddit.com/"`
	RequestsPerMinute float64           `yaml:"requests_per_minute" toml:"requests_per_minute" env:"REDDIT_REQUESTS_PER_MINUTE" env-default:"60"`
	Burst             int               `yaml:"burst" toml:"burst" env:"REDDIT_BURST" env-default:"10"`
	Timeout           time.Duration     `yaml:"timeout" toml:"timeout" env:"REDDIT_TIMEOUT" env-default:"30s"`
}

// CredentialsConfig mirrors the [reddit.creds] section of config.toml.
type CredentialsConfig struct {
	ClientID     string `yaml:"client_id" toml:"client_id" env:"REDDIT_CLIENT"`
	ClientSecret string `yaml:"client_secret" toml:"client_secret" env:"REDDIT_SECRET"`
	Username     string `yaml:"username" toml:"username" env:"REDDIT_USER"`
	Password     string `yaml:"password" toml:"password" env:"REDDIT_PASS"`
	TwoFactor    bool   `yaml:"2fa" toml:"2fa" env:"REDDIT_2FA"`
}

// ScanConfig bounds how much content a run pulls.
type ScanConfig struct {
	ThreadLimit    int           `yaml:"thread_limit" toml:"thread_limit" env:"THREAD_LIMIT" env-default:"20"`
	SubredditLimit int           `yaml:"subreddit_limit" toml:"subreddit_limit" env:"SUBREDDIT_LIMIT" env-default:"100"`
	Pause          time.Duration `yaml:"pause" toml:"pause" env:"SUBREDDIT_PAUSE" env-default:"1s"`
	SkipArchived   bool          `yaml:"skip_archived" toml:"skip_archived" env:"SKIP_ARCHIVED"`
	Interval       time.Duration `yaml:"interval" toml:"interval" env:"SCAN_INTERVAL"`
}

// SanitizerConfig disables cleaning steps; every step runs by default.
type SanitizerConfig struct {
	KeepURLs         bool `yaml:"keep_urls" toml:"keep_urls" env:"SANITIZER_KEEP_URLS"`
	KeepSpecialChars bool `yaml:"keep_special_chars" toml:"keep_special_chars" env:"SANITIZER_KEEP_SPECIAL_CHARS"`
	KeepEmojis       bool `yaml:"keep_emojis" toml:"keep_emojis" env:"SANITIZER_KEEP_EMOJIS"`
}

// Options converts the config into sanitizer options.
func (s SanitizerConfig) Options() sanitizer.Options {
	return sanitizer.Options{
		RemoveURLs:         !s.KeepURLs,
		RemoveSpecialChars: !s.KeepSpecialChars,
		RemoveEmojis:       !s.KeepEmojis,
	}
}

// OutputConfig says where the document goes.
type OutputConfig struct {
	Path   string `yaml:"path" toml:"path" env:"OUTPUT_FILE" env-default:"reddit_contents.json"`
	Format string `yaml:"format" toml:"format" env:"OUTPUT_FORMAT" env-default:"json"`
}

// DatabaseConfig describes the optional Postgres archive. An empty DSN disables it.
type DatabaseConfig struct {
	DSN string `yaml:"dsn" toml:"dsn" env:"DATABASE_DSN"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram" toml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" toml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" toml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Enabled reports whether both token and chat are set.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads configuration in this order: explicit path, REDDIT_SCANNER_CONFIG,
// config.toml/config.yaml in the working directory, environment only.
// The file format follows the extension (.toml, .yaml, .yml, .json).
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path == "" {
		for _, candidate := range defaultPaths {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.Reddit.Creds.Username = NormalizeUsername(cfg.Reddit.Creds.Username)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NormalizeUsername strips a leading "u/" in any case.
func NormalizeUsername(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 && strings.EqualFold(name[:2], "u/") {
		return name[2:]
	}
	return name
}

// ValidateCredentials reports missing Reddit credentials. It is checked when
// a run actually connects, so offline tools can share the same config.
func (c Config) ValidateCredentials() error {
	creds := c.Reddit.Creds
	var missing []string
	if creds.ClientID == "" {
		missing = append(missing, "client_id (REDDIT_CLIENT)")
	}
	if creds.ClientSecret == "" {
		missing = append(missing, "client_secret (REDDIT_SECRET)")
	}
	if creds.Username == "" {
		missing = append(missing, "username (REDDIT_USER)")
	}
	if creds.Password == "" {
		missing = append(missing, "password (REDDIT_PASS)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("reddit credentials missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) validate() error {
	var errs []error
	if c.Scan.ThreadLimit <= 0 {
		errs = append(errs, errors.New("scan.thread_limit must be > 0"))
	}
	if c.Scan.SubredditLimit <= 0 {
		errs = append(errs, errors.New("scan.subreddit_limit must be > 0"))
	}
	if c.Scan.Interval < 0 {
		errs = append(errs, errors.New("scan.interval must not be negative"))
	}
	if c.Scan.Pause < 0 {
		errs = append(errs, errors.New("scan.pause must not be negative"))
	}
	if c.Filter.MinLength > c.Filter.MaxLength {
		errs = append(errs, errors.New("filter.min_comment_length must be <= filter.max_comment_length"))
	}
	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml", "yml":
	default:
		errs = append(errs, fmt.Errorf("output.format %q is not supported", c.Output.Format))
	}
	if c.Reddit.Creds.TwoFactor && c.Scan.Interval > 0 {
		errs = append(errs, errors.New("reddit.creds.2fa cannot be combined with scan.interval: token refreshes would prompt for a code"))
	}
	if c.Reddit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("reddit.requests_per_minute must be > 0"))
	}
	return errors.Join(errs...)
}
