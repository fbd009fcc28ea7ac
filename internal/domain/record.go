package domain

import "time"

// Outcome is the terminal result of processing a target.
type Outcome string

const (
	OutcomeDone Outcome = "done"
	OutcomeFail Outcome = "fail"
)

// ValidOutcome checks if an outcome value is a member of the enum.
func ValidOutcome(o Outcome) bool {
	return o == OutcomeDone || o == OutcomeFail
}

// ProgressRecord is the durable record of a target's most recent terminal
// outcome, keyed by the target's page URL. Exactly one record per target;
// the latest write wins.
type ProgressRecord struct {
	PageURL   string    `json:"page_url" gorm:"primaryKey"`
	Outcome   Outcome   `json:"outcome" gorm:"not null;index"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Done constructs a success record for the given target identifier.
func Done(pageURL string) ProgressRecord {
	return ProgressRecord{PageURL: pageURL, Outcome: OutcomeDone, UpdatedAt: time.Now()}
}

// Failed constructs a failure record carrying the error text as comment.
func Failed(pageURL string, err error) ProgressRecord {
	return ProgressRecord{PageURL: pageURL, Outcome: OutcomeFail, Comment: err.Error(), UpdatedAt: time.Now()}
}

// FailureEntry is one row of the failure ledger: an append-once snapshot
// of a target's first recorded failure, kept for audit even after a later
// successful retry flips the progress record to done.
type FailureEntry struct {
	PageURL   string    `json:"page_url" gorm:"primaryKey"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// RunStats summarizes one orchestrator pass over the catalog.
type RunStats struct {
	RunID         string `json:"run_id"`
	Processed     int    `json:"processed"`
	Succeeded     int    `json:"succeeded"`
	Failed        int    `json:"failed"`
	SkippedDone   int    `json:"skipped_done"`
	SkippedFailed int    `json:"skipped_failed"`
}

// ProgressStats aggregates the progress store by outcome, for the status
// command and the report API.
type ProgressStats struct {
	Total int64 `json:"total"`
	Done  int64 `json:"done"`
	Fail  int64 `json:"fail"`
}
