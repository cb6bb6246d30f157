package models

import (
	"encoding/json"
	"time"
)

// Staging record types. Each staging row keeps the raw source payload as
// jsonb so normalization can be re-run without re-downloading.
const (
	StagingTypeCandidate = "candidate"
	StagingTypeCommittee = "committee"
	StagingTypeReceipt   = "receipt"
)

// StagingRecord is one raw row landed from a source file or API page.
type StagingRecord struct {
	ID          string          `json:"id" db:"id"`
	IngestRunID string          `json:"ingest_run_id" db:"ingest_run_id"`
	RecordType  string          `json:"record_type" db:"record_type"`
	SourceFile  string          `json:"source_file" db:"source_file"`
	LineNumber  int             `json:"line_number" db:"line_number"`
	Data        json.RawMessage `json:"data" db:"data"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// CreateStagingRecordRequest is one raw row to be landed in staging.
type CreateStagingRecordRequest struct {
	IngestRunID string          `json:"ingest_run_id" validate:"required"`
	RecordType  string          `json:"record_type" validate:"required"`
	SourceFile  string          `json:"source_file"`
	LineNumber  int             `json:"line_number"`
	Data        json.RawMessage `json:"data" validate:"required"`
}
