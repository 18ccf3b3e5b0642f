package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ibeckermayer/xreader/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store handles all database operations
type Store struct {
	db *sql.DB
}

// New creates a new Store with SQLite backend
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author_name TEXT,
		author_handle TEXT,
		retweeted_by TEXT,
		created_at TEXT,
		text_content TEXT,
		canonical_url TEXT,
		data TEXT NOT NULL,
		first_seen_at DATETIME NOT NULL,
		last_seen_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summaries (
		id TEXT PRIMARY KEY,
		time_from DATETIME NOT NULL,
		time_to DATETIME NOT NULL,
		text_items INTEGER NOT NULL,
		media_groups INTEGER NOT NULL,
		data TEXT NOT NULL,
		saved_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS summary_posts (
		summary_id TEXT NOT NULL REFERENCES summaries(id),
		post_id TEXT NOT NULL,
		PRIMARY KEY (summary_id, post_id)
	);

	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_summaries_time_from ON summaries(time_from);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SavePosts upserts posts in one transaction. A post seen again keeps its
// first_seen_at and takes the latest content.
func (s *Store) SavePosts(ctx context.Context, posts []types.Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO posts (id, author_name, author_handle, retweeted_by, created_at,
			text_content, canonical_url, data, first_seen_at, last_seen_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			author_name = excluded.author_name,
			author_handle = excluded.author_handle,
			retweeted_by = excluded.retweeted_by,
			created_at = excluded.created_at,
			text_content = excluded.text_content,
			canonical_url = excluded.canonical_url,
			data = excluded.data,
			last_seen_at = excluded.last_seen_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare post upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, p := range posts {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode post %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, p.ID, p.AuthorName, p.AuthorHandle, p.RetweetedBy,
			p.CreatedAt, p.TextContent, p.CanonicalURL, string(data), now, now); err != nil {
			return fmt.Errorf("failed to save post %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// GetPost returns a stored post by ID
func (s *Store) GetPost(ctx context.Context, id string) (types.Post, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM posts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Post{}, fmt.Errorf("post %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return types.Post{}, err
	}

	var p types.Post
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return types.Post{}, fmt.Errorf("failed to decode post %s: %w", id, err)
	}
	return p, nil
}

// PostExists checks if a post ID already exists
func (s *Store) PostExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, id).Scan(&exists)
	return exists, err
}

// CountPosts returns the number of distinct posts ever stored
func (s *Store) CountPosts(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// SaveSummary stores a summary artifact and links the posts it references
func (s *Store) SaveSummary(ctx context.Context, sum *types.Summary) error {
	if sum.ID == "" {
		return fmt.Errorf("summary has no ID")
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO summaries (id, time_from, time_to, text_items, media_groups, data, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sum.ID, sum.TimeFrom.UTC(), sum.TimeTo.UTC(), len(sum.TextItems), len(sum.MediaItems),
		string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save summary: %w", err)
	}

	for _, item := range sum.TextItems {
		for _, p := range item.RelatedPosts {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO summary_posts (summary_id, post_id) VALUES (?, ?)
			`, sum.ID, p.ID); err != nil {
				return fmt.Errorf("failed to link post %s: %w", p.ID, err)
			}
		}
	}

	return tx.Commit()
}

// GetSummary returns a stored summary by ID
func (s *Store) GetSummary(ctx context.Context, id string) (*types.Summary, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM summaries WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summary %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeSummary(data)
}

// LatestSummary returns the most recently generated summary
func (s *Store) LatestSummary(ctx context.Context) (*types.Summary, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM summaries ORDER BY time_from DESC, saved_at DESC LIMIT 1
	`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no summaries: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeSummary(data)
}

// ListSummaries returns up to limit summaries, newest first
func (s *Store) ListSummaries(ctx context.Context, limit int) ([]SummaryInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.time_from, s.time_to, s.text_items, s.media_groups,
			(SELECT COUNT(*) FROM summary_posts sp WHERE sp.summary_id = s.id)
		FROM summaries s
		ORDER BY s.time_from DESC, s.saved_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SummaryInfo
	for rows.Next() {
		var info SummaryInfo
		if err := rows.Scan(&info.ID, &info.TimeFrom, &info.TimeTo,
			&info.TextItems, &info.MediaGroups, &info.LinkedPosts); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// SummariesForPost returns the IDs of summaries that referenced a post
func (s *Store) SummariesForPost(ctx context.Context, postID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT summary_id FROM summary_posts WHERE post_id = ? ORDER BY summary_id
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func decodeSummary(data string) (*types.Summary, error) {
	var sum types.Summary
	if err := json.Unmarshal([]byte(data), &sum); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	return &sum, nil
}
