package models

import (
	"encoding/json"
	"time"
)

// Candidate is a normalized candidate keyed by FEC candidate id. Raw holds
// the source payload verbatim for fields the normalized columns do not cover.
type Candidate struct {
	FECCandidateID string          `json:"fec_candidate_id" db:"fec_candidate_id"`
	Name           *string         `json:"name,omitempty" db:"name"`
	Party          *string         `json:"party,omitempty" db:"party"`
	Office         *string         `json:"office,omitempty" db:"office"`
	State          *string         `json:"state,omitempty" db:"state"`
	District       *string         `json:"district,omitempty" db:"district"`
	ElectionYear   *int            `json:"election_year,omitempty" db:"election_year"`
	Status         *string         `json:"status,omitempty" db:"status"`
	Raw            json.RawMessage `json:"raw,omitempty" db:"raw"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// UpsertCandidateRequest carries the normalized fields for one candidate row.
// CreatedAt is honored on first insert only; updates never touch it.
type UpsertCandidateRequest struct {
	FECCandidateID string          `json:"fec_candidate_id" validate:"required"`
	Name           *string         `json:"name,omitempty"`
	Party          *string         `json:"party,omitempty"`
	Office         *string         `json:"office,omitempty"`
	State          *string         `json:"state,omitempty"`
	District       *string         `json:"district,omitempty"`
	ElectionYear   *int            `json:"election_year,omitempty"`
	Status         *string         `json:"status,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}
