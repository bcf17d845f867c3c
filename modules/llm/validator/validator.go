// Package validator performs structural and security validation of
// an LLM batch response before its contents are persisted against any job.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
)

// RatedSkill is one extracted skill with its importance rating on the
// 1-10 scale the prompt asks for.
type RatedSkill struct {
	Skill      string `json:"skill"`
	Importance int    `json:"importance"`
}

// WeightedKeyword is one ATS keyword with its screening weight in [0,1].
type WeightedKeyword struct {
	Keyword string  `json:"keyword"`
	Weight  float64 `json:"weight"`
}

// JobAnalysis is one job's worth of structured analysis output, the common
// shape every tier's prompt asks the model to emit per job in the batch.
type JobAnalysis struct {
	JobID                string            `json:"job_id"`
	VerificationToken    string            `json:"verification_token"`
	RequiredSkills       []RatedSkill      `json:"required_skills,omitempty"`
	NiceToHaveSkills     []RatedSkill      `json:"nice_to_have_skills,omitempty"`
	Benefits             []string          `json:"benefits,omitempty"`
	ATSKeywords          []WeightedKeyword `json:"ats_keywords,omitempty"`
	SecondaryIndustries  []string          `json:"secondary_industries,omitempty"`
	RedFlags             []string          `json:"red_flags,omitempty"`
	ImplicitRequirements []string          `json:"implicit_requirements,omitempty"`
	CoverLetterInsights  []string          `json:"cover_letter_insights,omitempty"`
	AuthenticityConcerns []string          `json:"authenticity_concerns,omitempty"`
	StrategicMission     string            `json:"strategic_mission,omitempty"`
	RecentNews           string            `json:"recent_news,omitempty"`
}

type batchResponse struct {
	Analyses []JobAnalysis `json:"analyses"`
}

var (
	// ErrMalformedResponse is returned when the model response is not
	// valid JSON or is missing the top-level analyses array.
	ErrMalformedResponse = errors.New("llm response is not valid structured output")

	// ErrMissingJobID is returned when an analysis entry has no job_id,
	// making it impossible to attribute the result to a queue entry.
	ErrMissingJobID = errors.New("analysis entry missing job_id")

	// ErrJobIDNotRequested is returned when the response includes an
	// analysis for a job that was not part of the batch sent to the model.
	ErrJobIDNotRequested = errors.New("analysis entry references a job outside the requested batch")

	// ErrIncompleteBatch is returned when the response covers fewer jobs
	// than were requested.
	ErrIncompleteBatch = errors.New("analysis response covers fewer jobs than requested")

	// ErrTokenMismatch is returned when a per-job analysis entry's echoed
	// verification_token does not equal the token issued for this batch —
	// the strongest indicator that injected instructions steered the model.
	ErrTokenMismatch = errors.New("analysis entry's verification token does not match the batch's issued token")

	// ErrNumericOutOfRange is returned when a numeric field falls outside
	// its declared range: skill importance must be 1-10, keyword weight
	// must be within [0,1].
	ErrNumericOutOfRange = errors.New("analysis entry has a numeric field outside its declared range")
)

// Validate parses a raw model response and checks it against the batch of
// job ids that were actually sent and the security token issued for this
// batch, rejecting partial, malformed, out-of-scope, or token-mismatched
// responses before they ever reach persistence.
func Validate(rawResponse string, requestedJobIDs []string, issuedToken string) ([]JobAnalysis, error) {
	var parsed batchResponse
	if err := json.Unmarshal([]byte(rawResponse), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	requested := make(map[string]bool, len(requestedJobIDs))
	for _, id := range requestedJobIDs {
		requested[id] = true
	}

	seen := make(map[string]bool, len(parsed.Analyses))
	for _, a := range parsed.Analyses {
		if a.JobID == "" {
			return nil, ErrMissingJobID
		}
		if !requested[a.JobID] {
			return nil, fmt.Errorf("%w: %s", ErrJobIDNotRequested, a.JobID)
		}
		if issuedToken != "" && a.VerificationToken != issuedToken {
			return nil, fmt.Errorf("%w: job %s", ErrTokenMismatch, a.JobID)
		}
		if err := checkNumericRanges(a); err != nil {
			return nil, err
		}
		seen[a.JobID] = true
	}

	if len(seen) < len(requestedJobIDs) {
		return nil, fmt.Errorf("%w: got %d, requested %d", ErrIncompleteBatch, len(seen), len(requestedJobIDs))
	}

	return parsed.Analyses, nil
}

func checkNumericRanges(a JobAnalysis) error {
	for _, s := range a.RequiredSkills {
		if s.Importance < 1 || s.Importance > 10 {
			return fmt.Errorf("%w: job %s skill %q importance %d", ErrNumericOutOfRange, a.JobID, s.Skill, s.Importance)
		}
	}
	for _, s := range a.NiceToHaveSkills {
		if s.Importance < 1 || s.Importance > 10 {
			return fmt.Errorf("%w: job %s skill %q importance %d", ErrNumericOutOfRange, a.JobID, s.Skill, s.Importance)
		}
	}
	for _, k := range a.ATSKeywords {
		if k.Weight < 0 || k.Weight > 1 {
			return fmt.Errorf("%w: job %s keyword %q weight %g", ErrNumericOutOfRange, a.JobID, k.Keyword, k.Weight)
		}
	}
	return nil
}
