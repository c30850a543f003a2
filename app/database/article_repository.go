package database

import (
	"database/sql"
	"fmt"
)

var _ ArticleRepository = (*PostgresArticleRepository)(nil)

// PostgresArticleRepository handles database operations for articles
type PostgresArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *PostgresArticleRepository {
	return &PostgresArticleRepository{db: db}
}

const articleColumns = `id, feed_id, url, title, content, fingerprint,
	published_at, first_seen_at, extraction_status, extracted_at`

func scanArticle(row interface{ Scan(...interface{}) error }) (*Article, error) {
	var a Article
	err := row.Scan(&a.ID, &a.FeedID, &a.URL, &a.Title, &a.Content, &a.Fingerprint,
		&a.PublishedAt, &a.FirstSeenAt, &a.ExtractionStatus, &a.ExtractedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByFingerprint looks up an article by its dedup key. The fingerprint is
// only unique within one feed: the same content syndicated by two feeds is
// stored once per feed.
func (r *PostgresArticleRepository) FindByFingerprint(feedID, fingerprint string) (*Article, error) {
	article, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+` FROM articles
		WHERE feed_id = $1 AND fingerprint = $2
	`, feedID, fingerprint))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find article by fingerprint: %w", err)
	}

	return article, nil
}

func (r *PostgresArticleRepository) InsertArticle(article Article) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO articles (feed_id, url, title, content, fingerprint, published_at, extraction_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, article.FeedID, article.URL, article.Title, article.Content,
		article.Fingerprint, article.PublishedAt, article.ExtractionStatus).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to insert article: %w", err)
	}

	return id, nil
}

func (r *PostgresArticleRepository) ListArticles(feedID string, limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE feed_id = $1
		ORDER BY COALESCE(published_at, first_seen_at) DESC
		LIMIT $2
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *PostgresArticleRepository) CountArticles(feedID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE feed_id = $1", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *PostgresArticleRepository) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// ListPendingExtraction returns articles awaiting full-content extraction,
// oldest first so a backlog drains in arrival order.
func (r *PostgresArticleRepository) ListPendingExtraction(limit int) ([]Article, error) {
	rows, err := r.db.Query(`
		SELECT `+articleColumns+` FROM articles
		WHERE extraction_status = 'pending'
		ORDER BY first_seen_at
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles pending extraction: %w", err)
	}
	defer rows.Close()

	return collectArticles(rows)
}

func (r *PostgresArticleRepository) UpdateExtractedContent(id string, content string, status string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = CASE WHEN $2 = '' THEN content ELSE $2 END,
		    extraction_status = $3, extracted_at = NOW()
		WHERE id = $1
	`, id, content, status)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func collectArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}
