package repository

import (
	"context"
	"time"

	"github.com/andreypavlenko/jobscout/modules/security/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DetectionRepository persists security detections. Inserts only: the
// table is an audit trail, never updated or deleted by application code.
type DetectionRepository struct {
	pool *pgxpool.Pool
}

// NewDetectionRepository creates a new detection repository.
func NewDetectionRepository(pool *pgxpool.Pool) *DetectionRepository {
	return &DetectionRepository{pool: pool}
}

// Record appends a detection to the audit trail.
func (r *DetectionRepository) Record(ctx context.Context, d *model.SecurityDetection) error {
	d.ID = uuid.New().String()
	d.DetectedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO security_detections (id, batch_id, job_id, pattern, matched_text, action, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.BatchID, d.JobID, d.Pattern, d.MatchedText, d.Action, d.DetectedAt)
	return err
}

// ListSince returns detections recorded at or after the given time, oldest first.
func (r *DetectionRepository) ListSince(ctx context.Context, since time.Time) ([]*model.SecurityDetection, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, job_id, pattern, matched_text, action, detected_at
		FROM security_detections
		WHERE detected_at >= $1
		ORDER BY detected_at ASC
	`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.SecurityDetection
	for rows.Next() {
		d := &model.SecurityDetection{}
		if err := rows.Scan(&d.ID, &d.BatchID, &d.JobID, &d.Pattern, &d.MatchedText, &d.Action, &d.DetectedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
