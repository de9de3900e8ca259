package mysql

import (
	"context"
	"fmt"

	"github.com/facegate/facegate/internal/database"
)

// HistoryRepository provides MySQL-backed audit history storage.
type HistoryRepository struct {
	pool *Pool
}

// NewHistoryRepository creates a new MySQL history repository.
func NewHistoryRepository(pool *Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// Record stores an audit entry.
func (r *HistoryRepository) Record(ctx context.Context, entry *database.HistoryEntry) error {
	query := `
		INSERT INTO history (action, method, endpoint, ip, user_agent)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.pool.db.ExecContext(ctx, query,
		entry.Action, entry.Method, entry.Endpoint, entry.IP, entry.UserAgent,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// List returns the most recent entries, newest first.
func (r *HistoryRepository) List(ctx context.Context, limit int) ([]database.HistoryEntry, error) {
	query := `
		SELECT id, action, method, endpoint, ip, user_agent, created_at
		FROM history
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.pool.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []database.HistoryEntry
	for rows.Next() {
		var e database.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Action, &e.Method, &e.Endpoint, &e.IP, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}

// Count returns the total number of entries.
func (r *HistoryRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM history").Scan(&count); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}
