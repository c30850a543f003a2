package database

import (
	"database/sql"
	"fmt"
)

var _ FeedRepository = (*PostgresFeedRepository)(nil)

// PostgresFeedRepository handles database operations for feeds
type PostgresFeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *PostgresFeedRepository {
	return &PostgresFeedRepository{db: db}
}

const feedColumns = `id, website_id, feed_url, kind, title, active, error_count,
	etag, last_modified, last_fetched_at, last_success_at, created_at, updated_at`

func scanFeed(row interface{ Scan(...interface{}) error }) (*Feed, error) {
	var f Feed
	err := row.Scan(&f.ID, &f.WebsiteID, &f.URL, &f.Kind, &f.Title, &f.Active, &f.ErrorCount,
		&f.ETag, &f.LastModified, &f.LastFetchedAt, &f.LastSuccessAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// CreateFeed inserts a feed unless the URL is already known for the website.
// The (website_id, feed_url) uniqueness makes repeated discovery idempotent.
func (r *PostgresFeedRepository) CreateFeed(websiteID, url, kind, title string) (string, bool, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO feeds (website_id, feed_url, kind, title)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (website_id, feed_url) DO NOTHING
		RETURNING id
	`, websiteID, url, kind, title).Scan(&id)

	if err == sql.ErrNoRows {
		// Conflict: feed already exists, look it up
		existing, lookupErr := r.GetFeedByURL(websiteID, url)
		if lookupErr != nil {
			return "", false, lookupErr
		}
		if existing == nil {
			return "", false, fmt.Errorf("feed vanished during upsert: %s", url)
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to create feed: %w", err)
	}

	return id, true, nil
}

func (r *PostgresFeedRepository) GetFeed(id string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`
		SELECT `+feedColumns+` FROM feeds WHERE id = $1
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return feed, nil
}

func (r *PostgresFeedRepository) GetFeedByURL(websiteID, url string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`
		SELECT `+feedColumns+` FROM feeds WHERE website_id = $1 AND feed_url = $2
	`, websiteID, url))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}

	return feed, nil
}

func (r *PostgresFeedRepository) ListFeeds(websiteID string) ([]Feed, error) {
	if websiteID == "" {
		return r.listFeeds(`SELECT `+feedColumns+` FROM feeds ORDER BY created_at`, []interface{}{})
	}
	return r.listFeeds(`SELECT `+feedColumns+` FROM feeds WHERE website_id = $1 ORDER BY created_at`,
		[]interface{}{websiteID})
}

// ListActiveFeeds returns active rss/atom feeds for content polling.
// Sitemaps are never polled for content, so they are excluded here.
func (r *PostgresFeedRepository) ListActiveFeeds(websiteID string) ([]Feed, error) {
	if websiteID == "" {
		return r.listFeeds(`
			SELECT `+feedColumns+` FROM feeds
			WHERE active = true AND kind IN ('rss', 'atom')
			ORDER BY created_at
		`, []interface{}{})
	}
	return r.listFeeds(`
		SELECT `+feedColumns+` FROM feeds
		WHERE website_id = $1 AND active = true AND kind IN ('rss', 'atom')
		ORDER BY created_at
	`, []interface{}{websiteID})
}

func (r *PostgresFeedRepository) listFeeds(query string, args []interface{}) ([]Feed, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *PostgresFeedRepository) SetFeedActive(id string, active bool) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)

	if err != nil {
		return fmt.Errorf("failed to set feed active status: %w", err)
	}

	return nil
}

// UpdateFetchState writes the bookkeeping produced by one fetch attempt
func (r *PostgresFeedRepository) UpdateFetchState(id string, state FetchState) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_fetched_at = $2, last_success_at = $3, error_count = $4,
		    active = $5, etag = $6, last_modified = $7, updated_at = NOW()
		WHERE id = $1
	`, id, state.LastFetchedAt, state.LastSuccessAt, state.ErrorCount,
		state.Active, state.ETag, state.LastModified)

	if err != nil {
		return fmt.Errorf("failed to update feed fetch state: %w", err)
	}

	return nil
}

func (r *PostgresFeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *PostgresFeedRepository) GetActiveFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds WHERE active = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get active feed count: %w", err)
	}
	return count, nil
}
