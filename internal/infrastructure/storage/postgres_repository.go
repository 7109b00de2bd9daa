package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"RedditScanner/internal/domain"
	"RedditScanner/internal/ports"
)

//go:embed migrations/1_init_archive.up.sql
var schemaUp string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository archives assembled threads and comments into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ThreadRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open connects with the lib/pq driver and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the archive tables when they are missing.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, schemaUp); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// AlreadyArchived returns a map with thread IDs that already exist in storage.
func (r *PostgresRepository) AlreadyArchived(ctx context.Context, ids []string) (map[string]bool, error) {
	if r.db == nil || len(ids) == 0 {
		return map[string]bool{}, nil
	}

	query, args, err := archivedQuery(ids).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build archived query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archived: %w", err)
	}
	defer rows.Close()

	result := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		result[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return result, nil
}

// SaveRun stores the run and upserts every thread and comment of doc in one transaction.
func (r *PostgresRepository) SaveRun(ctx context.Context, runID string, doc *domain.Document) error {
	if r.db == nil || doc == nil {
		return nil
	}
	if _, err := uuid.Parse(runID); err != nil {
		return fmt.Errorf("run id %q: %w", runID, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := execBuilder(ctx, tx, runInsert(runID, doc)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, sub := range doc.Subreddits() {
		for _, th := range sub.Threads {
			if err := execBuilder(ctx, tx, threadUpsert(runID, sub.DisplayName, th)); err != nil {
				return fmt.Errorf("upsert thread %s: %w", th.ID, err)
			}
			if len(th.Comments) == 0 {
				continue
			}
			if err := execBuilder(ctx, tx, commentsUpsert(th.ID, th.Comments)); err != nil {
				return fmt.Errorf("upsert comments of %s: %w", th.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ThreadComments returns archived comment bodies of a thread ordered by comment id.
func (r *PostgresRepository) ThreadComments(ctx context.Context, threadID string) ([]string, error) {
	query, args, err := psql.Select("body").
		From("reddit_comments").
		Where(sq.Eq{"thread_id": threadID}).
		OrderBy("comment_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build comments query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, body)
	}
	return out, rows.Err()
}

func archivedQuery(ids []string) sq.SelectBuilder {
	return psql.Select("thread_id").
		From("reddit_threads").
		Where("thread_id = ANY(?)", pq.StringArray(ids))
}

func runInsert(runID string, doc *domain.Document) sq.InsertBuilder {
	return psql.Insert("reddit_runs").
		Columns("run_id", "subreddits", "threads", "comments").
		Values(runID, doc.Len(), doc.ThreadCount(), doc.CommentCount())
}

func threadUpsert(runID, subreddit string, th domain.Thread) sq.InsertBuilder {
	return psql.Insert("reddit_threads").
		Columns("thread_id", "run_id", "subreddit", "title", "self_text", "thread_url",
			"num_comments", "upvotes", "upvote_ratio", "is_nsfw").
		Values(th.ID, runID, subreddit, th.Title, th.SelfText, th.URL,
			th.NumComments, th.Upvotes, th.UpvoteRatio, th.IsNSFW).
		Suffix(`ON CONFLICT (thread_id) DO UPDATE
              SET run_id = EXCLUDED.run_id,
                  num_comments = EXCLUDED.num_comments,
                  upvotes = EXCLUDED.upvotes,
                  upvote_ratio = EXCLUDED.upvote_ratio,
                  updated_at = NOW()`)
}

func commentsUpsert(threadID string, comments []domain.Comment) sq.InsertBuilder {
	b := psql.Insert("reddit_comments").
		Columns("comment_id", "thread_id", "author", "body", "url", "upvotes")
	for _, c := range comments {
		b = b.Values(c.ID, threadID, c.Author, c.Text, c.URL, c.Upvotes)
	}
	return b.Suffix(`ON CONFLICT (comment_id) DO UPDATE
              SET body = EXCLUDED.body,
                  upvotes = EXCLUDED.upvotes`)
}

func execBuilder(ctx context.Context, tx *sql.Tx, b sq.Sqlizer) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}
