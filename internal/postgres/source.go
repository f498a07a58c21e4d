package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tasknest/go-task-export/internal/domain"
)

// TaskSource abstracts the read-only view of the upstream task table.
type TaskSource interface {
	// ListAll returns every task currently in the store, newest first.
	// An empty table yields an empty slice, not an error.
	ListAll(ctx context.Context) ([]domain.TaskRecord, error)
}

type source struct {
	pool *pgxpool.Pool
}

// NewSource wraps a pgxpool with the TaskSource interface.
func NewSource(pool *pgxpool.Pool) TaskSource {
	return &source{pool: pool}
}

// NewPool creates a pgxpool and verifies connectivity. Callers bound the
// connect attempt with the ctx deadline.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Op: "connect", Cause: err}
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &domain.StoreUnavailableError{Op: "ping", Cause: err}
	}
	return pool, nil
}

func (s *source) ListAll(ctx context.Context) ([]domain.TaskRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, completed, priority, due_date, created_at, updated_at
		FROM tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, &domain.StoreUnavailableError{Op: "query tasks", Cause: err}
	}
	defer rows.Close()

	records := []domain.TaskRecord{}
	for rows.Next() {
		var rec domain.TaskRecord
		var priority string
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.Completed,
			&priority, &rec.DueDate, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		rec.Priority = domain.Priority(priority)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreUnavailableError{Op: "read tasks", Cause: err}
	}
	return records, nil
}
