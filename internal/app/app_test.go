package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"RedditScanner/internal/config"
	"RedditScanner/internal/discovery"
	"RedditScanner/internal/domain"
	"RedditScanner/internal/export"
	"RedditScanner/internal/filter"
	"RedditScanner/internal/logging"
	"RedditScanner/internal/ports/portstest"
)

type countingWriter struct {
	mu   sync.Mutex
	docs int
}

func (w *countingWriter) WriteDocument(*domain.Document) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.docs++
	return nil
}

func (w *countingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.docs
}

func testConfig(out string) config.Config {
	return config.Config{
		Scan:   config.ScanConfig{ThreadLimit: 5, SubredditLimit: 10},
		Filter: filter.DefaultConfig(),
		Output: config.OutputConfig{Path: out, Format: "json"},
	}
}

func fakeAPI() *portstest.FakeAPI {
	return &portstest.FakeAPI{
		Popular: []domain.SubredditHandle{portstest.Handle("golang")},
		Threads: map[string][]domain.Submission{"golang": {portstest.Thread("golang", "t1")}},
		Comments: map[string][]domain.RawComment{
			"t1": {portstest.Comment("golang", "t1", "c1", 50)},
		},
	}
}

func TestRunWritesDocument(t *testing.T) {
	t.Parallel()

	out := filepath.Join(t.TempDir(), "reddit_contents.json")
	connector := &portstest.Connector{API: fakeAPI()}
	application, err := New(context.Background(), testConfig(out), logging.Discard(), Options{Connector: connector})
	require.NoError(t, err)
	defer application.Close()

	require.NoError(t, application.Run(context.Background(), discovery.Request{Popular: true}))

	text, err := export.FileToText(out)
	require.NoError(t, err)
	require.Contains(t, text, "thread t1 body t1 interesting words")
	require.Equal(t, 1, application.Pipeline().Summary().Subreddits)
}

func TestRunRejectsEmptyRequest(t *testing.T) {
	t.Parallel()

	cfg := testConfig(filepath.Join(t.TempDir(), "out.json"))
	cfg.Scan.Interval = time.Hour
	connector := &portstest.Connector{API: fakeAPI()}
	application, err := New(context.Background(), cfg, logging.Discard(), Options{Connector: connector})
	require.NoError(t, err)

	err = application.Run(context.Background(), discovery.Request{})
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
	require.Zero(t, connector.Calls())
}

func TestRunWatchModeRepeatsUntilCancelled(t *testing.T) {
	t.Parallel()

	cfg := testConfig("")
	cfg.Scan.Interval = 10 * time.Millisecond
	writer := &countingWriter{}
	connector := &portstest.Connector{API: fakeAPI()}
	application, err := New(context.Background(), cfg, logging.Discard(), Options{Connector: connector, Writer: writer})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- application.Run(ctx, discovery.Request{Popular: true}) }()

	require.Eventually(t, func() bool { return writer.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch mode did not stop")
	}
	require.Equal(t, 1, connector.Calls())
}
