package models

import (
	"encoding/json"
	"time"
)

// Committee is a normalized committee keyed by FEC committee id. Raw holds
// the source payload verbatim for fields the normalized columns do not cover.
type Committee struct {
	FECCommitteeID string          `json:"fec_committee_id" db:"fec_committee_id"`
	Name           *string         `json:"name,omitempty" db:"name"`
	CommitteeType  *string         `json:"committee_type,omitempty" db:"committee_type"`
	Party          *string         `json:"party,omitempty" db:"party"`
	State          *string         `json:"state,omitempty" db:"state"`
	ConnectedOrg   *string         `json:"connected_org,omitempty" db:"connected_org"`
	Status         *string         `json:"status,omitempty" db:"status"`
	Raw            json.RawMessage `json:"raw,omitempty" db:"raw"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// UpsertCommitteeRequest carries the normalized fields for one committee row.
type UpsertCommitteeRequest struct {
	FECCommitteeID string          `json:"fec_committee_id" validate:"required"`
	Name           *string         `json:"name,omitempty"`
	CommitteeType  *string         `json:"committee_type,omitempty"`
	Party          *string         `json:"party,omitempty"`
	State          *string         `json:"state,omitempty"`
	ConnectedOrg   *string         `json:"connected_org,omitempty"`
	Status         *string         `json:"status,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

// CommitteeCandidateLink joins a committee to the candidate it funds. The
// link type is the receipt type that established the link, or "principal"
// when the committee's own record named the candidate.
type CommitteeCandidateLink struct {
	FECCommitteeID string    `json:"fec_committee_id" db:"fec_committee_id"`
	FECCandidateID string    `json:"fec_candidate_id" db:"fec_candidate_id"`
	LinkType       string    `json:"link_type" db:"link_type"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
