package model

import "time"

// SecurityDetection is an append-only record of a prompt-injection attempt
// or other suspicious content the prompt security manager caught in a scraped
// posting before it reached an LLM prompt, or in a model's response before
// it reached persistence.
type SecurityDetection struct {
	ID          string
	BatchID     string
	JobID       *string
	Pattern     string
	MatchedText string
	Action      string // "flagged" (suspicious posting content), "rejected" (response token mismatch)
	DetectedAt  time.Time
}
