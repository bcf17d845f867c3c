package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/andreypavlenko/jobscout/modules/scoring/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScoreRepository implements ports.ScoreRepository.
type ScoreRepository struct {
	pool *pgxpool.Pool
}

// NewScoreRepository creates a new score repository.
func NewScoreRepository(pool *pgxpool.Pool) *ScoreRepository {
	return &ScoreRepository{pool: pool}
}

// Get returns the cached score for (userID, jobID), if any.
func (r *ScoreRepository) Get(ctx context.Context, userID, jobID string) (*model.Score, error) {
	var s model.Score
	var explanationJSON []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, job_id, model_trained_at, job_updated_at, score, decision, confidence, explanation, created_at
		FROM job_scores WHERE user_id = $1 AND job_id = $2
	`, userID, jobID).Scan(
		&s.ID, &s.UserID, &s.JobID, &s.ModelTrainedAt, &s.JobUpdatedAt,
		&s.Score, &s.Decision, &s.Confidence, &explanationJSON, &s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.ErrScoreNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(explanationJSON, &s.Explanation); err != nil {
		return nil, err
	}
	return &s, nil
}

// Upsert persists a score, replacing any prior cached score for the pair.
func (r *ScoreRepository) Upsert(ctx context.Context, s *model.Score) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	explanationJSON, err := json.Marshal(s.Explanation)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO job_scores (id, user_id, job_id, model_trained_at, job_updated_at, score, decision, confidence, explanation, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id, job_id) DO UPDATE SET
			id = EXCLUDED.id,
			model_trained_at = EXCLUDED.model_trained_at,
			job_updated_at = EXCLUDED.job_updated_at,
			score = EXCLUDED.score,
			decision = EXCLUDED.decision,
			confidence = EXCLUDED.confidence,
			explanation = EXCLUDED.explanation,
			created_at = EXCLUDED.created_at
	`, s.ID, s.UserID, s.JobID, s.ModelTrainedAt, s.JobUpdatedAt, s.Score, s.Decision, s.Confidence, explanationJSON, s.CreatedAt)
	return err
}
