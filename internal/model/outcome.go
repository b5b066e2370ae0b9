package model

import (
	"time"

	"github.com/google/uuid"
)

// Outcome statuses.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// FailureKind classifies why a processing run failed.
type FailureKind string

const (
	KindNone        FailureKind = ""
	KindValidation  FailureKind = "validation"
	KindConflict    FailureKind = "conflict"
	KindNotFound    FailureKind = "not_found"
	KindStore       FailureKind = "store"
	KindProcessing  FailureKind = "processing"
	KindPersistence FailureKind = "persistence"
)

// Outcome is the terminal result of one derivative processing run.
type Outcome struct {
	ImageID    uuid.UUID   `json:"image_id"`
	Key        string      `json:"key"`
	Status     string      `json:"status"` // success / failed
	Kind       FailureKind `json:"kind,omitempty"`
	Message    string      `json:"message"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Succeeded reports whether the run committed a record.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}
