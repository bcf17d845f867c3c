package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/jobscout/modules/events/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EventRepository persists the append-only pipeline event log.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Record appends an event to the log.
func (r *EventRepository) Record(ctx context.Context, kind model.Kind, jobID *string, detail string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO events (id, kind, job_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New().String(), kind, jobID, detail, time.Now().UTC())
	return err
}

// ListSince returns events recorded at or after the given time, oldest first.
func (r *EventRepository) ListSince(ctx context.Context, since time.Time) ([]*model.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, job_id, detail, created_at
		FROM events WHERE created_at >= $1
		ORDER BY created_at ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Event
	for rows.Next() {
		e := &model.Event{}
		if err := rows.Scan(&e.ID, &e.Kind, &e.JobID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
