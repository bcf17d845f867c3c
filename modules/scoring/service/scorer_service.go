package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/andreypavlenko/jobscout/internal/config"
	jobmodel "github.com/andreypavlenko/jobscout/modules/jobs/model"
	jobports "github.com/andreypavlenko/jobscout/modules/jobs/ports"
	prefmodel "github.com/andreypavlenko/jobscout/modules/preferences/model"
	prefports "github.com/andreypavlenko/jobscout/modules/preferences/ports"
	prefservice "github.com/andreypavlenko/jobscout/modules/preferences/service"
	"github.com/andreypavlenko/jobscout/modules/scoring/model"
	"github.com/andreypavlenko/jobscout/modules/scoring/ports"
	"github.com/google/uuid"
)

// ScorerService implements evaluate_job: apply a user's trained
// PreferenceModel to an analyzed Job, reusing a cached score when neither
// the model nor the job has changed since it was computed.
type ScorerService struct {
	scores ports.ScoreRepository
	jobs   jobports.JobRepository
	prefs  prefports.PreferenceRepository
	cfg    config.PreferenceConfig
}

// NewScorerService creates a new ScorerService.
func NewScorerService(scores ports.ScoreRepository, jobs jobports.JobRepository, prefs prefports.PreferenceRepository, cfg config.PreferenceConfig) *ScorerService {
	return &ScorerService{scores: scores, jobs: jobs, prefs: prefs, cfg: cfg}
}

// Evaluate scores jobID against userID's trained preference model. home
// is the caller-supplied home location used by the commute_time_minutes
// extractor; the core does not own a user home-address field.
func (s *ScorerService) Evaluate(ctx context.Context, userID, jobID string, home ports.UserHome) (*model.ScoreDTO, error) {
	job, err := s.jobs.GetByIDAny(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.AnalysisCompleted {
		return &model.ScoreDTO{Reason: "not_yet_analyzed"}, nil
	}

	pm, err := s.prefs.GetModel(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cached, err := s.scores.Get(ctx, userID, jobID); err == nil {
		if cached.ModelTrainedAt.Equal(pm.TrainedAt) && cached.JobUpdatedAt.Equal(job.UpdatedAt) {
			return toDTO(cached, pm), nil
		}
	}

	score, err := s.compute(ctx, userID, job, pm, home)
	if err != nil {
		return nil, err
	}

	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, err
	}

	return toDTO(score, pm), nil
}

func (s *ScorerService) compute(ctx context.Context, userID string, job *jobmodel.Job, pm *prefmodel.Model, home ports.UserHome) (*model.Score, error) {
	features := ExtractFeatures(job, home)
	vec := prefservice.StandardizeJobFeatures(features, pm.Stats)

	raw := prefservice.Predict(pm, vec)
	clamped := clampScore(raw)

	threshold := s.cfg.DefaultDecisionThreshold
	decision := model.DecisionDecline
	if clamped >= threshold {
		decision = model.DecisionApply
	}

	confidence := math.Abs(clamped-threshold) / threshold
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	explanation := explain(pm, vec)

	return &model.Score{
		ID:             uuid.New().String(),
		UserID:         userID,
		JobID:          job.ID,
		ModelTrainedAt: pm.TrainedAt,
		JobUpdatedAt:   job.UpdatedAt,
		Score:          clamped,
		Decision:       decision,
		Confidence:     confidence,
		Explanation:    explanation,
		CreatedAt:      time.Now().UTC(),
	}, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// explain ranks the three features with the largest signed contribution to
// the prediction. For ridge, contribution is the exact
// linear term (coefficient x standardized value); for the ensemble there is
// no closed-form per-feature term, so the model's permutation importance,
// signed by the feature's standardized direction, serves as the
// explanation proxy.
func explain(pm *prefmodel.Model, vec []float64) []model.Contribution {
	type scored struct {
		v model.Contribution
		abs float64
	}
	var all []scored
	for i, v := range prefmodel.Variables {
		var contribution float64
		if pm.Algorithm == prefmodel.AlgorithmRidge {
			contribution = pm.Coefficients[v] * vec[i]
		} else {
			contribution = pm.Importances[v] * vec[i]
		}
		all = append(all, scored{model.Contribution{Variable: string(v), Contribution: contribution}, math.Abs(contribution)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].abs > all[j].abs })

	top := all
	if len(top) > 3 {
		top = top[:3]
	}
	out := make([]model.Contribution, len(top))
	for i, s := range top {
		out[i] = s.v
	}
	return out
}

func toDTO(score *model.Score, pm *prefmodel.Model) *model.ScoreDTO {
	s := score.Score
	c := score.Confidence
	d := score.Decision
	return &model.ScoreDTO{
		Score:        &s,
		Decision:     &d,
		Confidence:   &c,
		Explanation:  score.Explanation,
		ModelVersion: pm.ID,
	}
}
