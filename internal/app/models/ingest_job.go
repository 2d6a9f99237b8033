package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks an ingest job through the queue.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusDone       JobStatus = "DONE"
	JobStatusFailed     JobStatus = "FAILED"
)

// IngestJob is a queued extraction run for an uploaded paper. Workers claim
// jobs with FOR UPDATE SKIP LOCKED; failed runs are retried with backoff
// until MaxAttempts.
type IngestJob struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PaperID     int64      `json:"paperId" db:"paper_id"`
	Status      JobStatus  `json:"status" db:"status"`
	Attempts    int        `json:"attempts" db:"attempts"`
	MaxAttempts int        `json:"maxAttempts" db:"max_attempts"`
	RunAt       time.Time  `json:"runAt" db:"run_at"`
	LockedAt    *time.Time `json:"lockedAt,omitempty" db:"locked_at"`
	LockedBy    *string    `json:"lockedBy,omitempty" db:"locked_by"`
	LastError   *string    `json:"lastError,omitempty" db:"last_error"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
