package database

import (
	"database/sql"
	"fmt"
)

var _ WebsiteRepository = (*PostgresWebsiteRepository)(nil)

// PostgresWebsiteRepository handles database operations for websites
type PostgresWebsiteRepository struct {
	db *DB
}

func NewWebsiteRepository(db *DB) *PostgresWebsiteRepository {
	return &PostgresWebsiteRepository{db: db}
}

const websiteColumns = `id, url, name, active, discovered_at, created_at, updated_at`

func scanWebsite(row interface{ Scan(...interface{}) error }) (*Website, error) {
	var w Website
	err := row.Scan(&w.ID, &w.URL, &w.Name, &w.Active, &w.DiscoveredAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// CreateWebsite inserts a website, or returns the existing id when the URL is
// already registered (re-running the seed file must be idempotent).
func (r *PostgresWebsiteRepository) CreateWebsite(url, name string, active bool) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO websites (url, name, active)
		VALUES ($1, $2, $3)
		ON CONFLICT (url) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id
	`, url, name, active).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to create website: %w", err)
	}

	return id, nil
}

func (r *PostgresWebsiteRepository) GetWebsite(id string) (*Website, error) {
	website, err := scanWebsite(r.db.QueryRow(`
		SELECT `+websiteColumns+` FROM websites WHERE id = $1
	`, id))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get website: %w", err)
	}

	return website, nil
}

func (r *PostgresWebsiteRepository) GetWebsiteByURL(url string) (*Website, error) {
	website, err := scanWebsite(r.db.QueryRow(`
		SELECT `+websiteColumns+` FROM websites WHERE url = $1
	`, url))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get website by URL: %w", err)
	}

	return website, nil
}

func (r *PostgresWebsiteRepository) ListWebsites() ([]Website, error) {
	return r.listWebsites(`SELECT ` + websiteColumns + ` FROM websites ORDER BY name`)
}

func (r *PostgresWebsiteRepository) ListActiveWebsites() ([]Website, error) {
	return r.listWebsites(`SELECT ` + websiteColumns + ` FROM websites WHERE active = true ORDER BY name`)
}

func (r *PostgresWebsiteRepository) listWebsites(query string) ([]Website, error) {
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list websites: %w", err)
	}
	defer rows.Close()

	var websites []Website
	for rows.Next() {
		website, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan website row: %w", err)
		}
		websites = append(websites, *website)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating website rows: %w", err)
	}

	return websites, nil
}

func (r *PostgresWebsiteRepository) SetWebsiteActive(id string, active bool) error {
	_, err := r.db.Exec(`
		UPDATE websites SET active = $2, updated_at = NOW() WHERE id = $1
	`, id, active)

	if err != nil {
		return fmt.Errorf("failed to set website active status: %w", err)
	}

	return nil
}

func (r *PostgresWebsiteRepository) MarkDiscovered(id string) error {
	_, err := r.db.Exec(`
		UPDATE websites SET discovered_at = NOW(), updated_at = NOW() WHERE id = $1
	`, id)

	if err != nil {
		return fmt.Errorf("failed to mark website discovered: %w", err)
	}

	return nil
}

func (r *PostgresWebsiteRepository) GetWebsiteCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM websites").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get website count: %w", err)
	}
	return count, nil
}
