package database

import (
	"database/sql"
	"fmt"
)

var _ FetchLogRepository = (*PostgresFetchLogRepository)(nil)

// PostgresFetchLogRepository handles database operations for fetch logs.
// Logs are append-only: there are no update or delete operations.
type PostgresFetchLogRepository struct {
	db *DB
}

func NewFetchLogRepository(db *DB) *PostgresFetchLogRepository {
	return &PostgresFetchLogRepository{db: db}
}

func (r *PostgresFetchLogRepository) AppendFetchLog(log FetchLog) (string, error) {
	var errorDetail sql.NullString
	if log.ErrorDetail != "" {
		errorDetail = sql.NullString{String: log.ErrorDetail, Valid: true}
	}

	var id string
	err := r.db.QueryRow(`
		INSERT INTO fetch_logs (feed_id, outcome, new_articles, error_detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, log.FeedID, log.Outcome, log.NewArticles, errorDetail).Scan(&id)

	if err != nil {
		return "", fmt.Errorf("failed to append fetch log: %w", err)
	}

	return id, nil
}

func (r *PostgresFetchLogRepository) ListRecentLogs(feedID string, limit int) ([]FetchLog, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_id, attempted_at, outcome, new_articles, COALESCE(error_detail, '')
		FROM fetch_logs
		WHERE feed_id = $1
		ORDER BY attempted_at DESC
		LIMIT $2
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch logs: %w", err)
	}
	defer rows.Close()

	var logs []FetchLog
	for rows.Next() {
		var l FetchLog
		err := rows.Scan(&l.ID, &l.FeedID, &l.AttemptedAt, &l.Outcome, &l.NewArticles, &l.ErrorDetail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch log row: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch log rows: %w", err)
	}

	return logs, nil
}

// CountConsecutiveErrors derives the current error streak from the log
// history: attempts recorded after the most recent success. Feed.error_count
// is the authoritative counter; this is the audit-trail cross-check.
func (r *PostgresFetchLogRepository) CountConsecutiveErrors(feedID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*)
		FROM fetch_logs
		WHERE feed_id = $1
		AND outcome <> 'success'
		AND attempted_at > COALESCE(
			(SELECT MAX(attempted_at) FROM fetch_logs WHERE feed_id = $1 AND outcome = 'success'),
			'-infinity'::timestamptz
		)
	`, feedID).Scan(&count)

	if err != nil {
		return 0, fmt.Errorf("failed to count consecutive errors: %w", err)
	}

	return count, nil
}
