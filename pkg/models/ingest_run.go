package models

import (
	"encoding/json"
	"time"
)

// Ingest run lifecycle statuses.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
	RunStatusValidated = "validated"
)

// IngestRun is the audit record for one ingestion pass over a source.
type IngestRun struct {
	ID         string          `json:"id" db:"id"`
	Source     string          `json:"source" db:"source"`
	Cycle      int             `json:"cycle" db:"cycle"`
	Status     string          `json:"status" db:"status"`
	RowCounts  json.RawMessage `json:"row_counts,omitempty" db:"row_counts"`
	Error      *string         `json:"error,omitempty" db:"error"`
	StartedAt  time.Time       `json:"started_at" db:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty" db:"finished_at"`
}

// RowCounts is the per-record-type tally serialized onto an ingest run.
type RowCounts struct {
	Candidates    int `json:"candidates"`
	Committees    int `json:"committees"`
	Contributions int `json:"contributions"`
	Skipped       int `json:"skipped"`
}

// CreateIngestRunRequest opens a new run in the running state.
type CreateIngestRunRequest struct {
	Source string `json:"source" validate:"required"`
	Cycle  int    `json:"cycle" validate:"required"`
}
