package models

import "time"

// Contribution is one normalized receipt joined to its resolved entities.
// Amounts are stored as integer cents. Any of the foreign keys may be null
// when the source row lacked the field or the referenced entity was never
// seen upstream.
type Contribution struct {
	FECRecordID     string     `json:"fec_record_id" db:"fec_record_id"`
	IngestRunID     string     `json:"ingest_run_id" db:"ingest_run_id"`
	FECCandidateID  *string    `json:"fec_candidate_id,omitempty" db:"fec_candidate_id"`
	FECCommitteeID  *string    `json:"fec_committee_id,omitempty" db:"fec_committee_id"`
	EmployerHash    *string    `json:"employer_hash,omitempty" db:"employer_hash"`
	IndustryCode    *string    `json:"industry_code,omitempty" db:"industry_code"`
	ContributorName *string    `json:"contributor_name,omitempty" db:"contributor_name"`
	Occupation      *string    `json:"occupation,omitempty" db:"occupation"`
	AmountCents     int64      `json:"amount_cents" db:"amount_cents"`
	TransactionDate *time.Time `json:"transaction_date,omitempty" db:"transaction_date"`
	Cycle           *int       `json:"cycle,omitempty" db:"cycle"`
	ReceiptType     *string    `json:"receipt_type,omitempty" db:"receipt_type"`
	Memo            *string    `json:"memo,omitempty" db:"memo"`
	IsIndividual    bool       `json:"is_individual" db:"is_individual"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// ContributionWindowRow is the slice of a contribution the leaning
// calculator needs, with the funded committee's party joined in.
type ContributionWindowRow struct {
	FECCandidateID *string `json:"fec_candidate_id,omitempty" db:"fec_candidate_id"`
	FECCommitteeID *string `json:"fec_committee_id,omitempty" db:"fec_committee_id"`
	EmployerHash   *string `json:"employer_hash,omitempty" db:"employer_hash"`
	IndustryCode   *string `json:"industry_code,omitempty" db:"industry_code"`
	CommitteeParty *string `json:"committee_party,omitempty" db:"committee_party"`
	AmountCents    int64   `json:"amount_cents" db:"amount_cents"`
}

// CandidateTotal is the summed amount a run landed for one candidate.
type CandidateTotal struct {
	FECCandidateID string `json:"fec_candidate_id" db:"fec_candidate_id"`
	TotalCents     int64  `json:"total_cents" db:"total_cents"`
}

// CreateContributionRequest carries one normalized receipt.
type CreateContributionRequest struct {
	FECRecordID     string     `json:"fec_record_id" validate:"required"`
	IngestRunID     string     `json:"ingest_run_id" validate:"required"`
	FECCandidateID  *string    `json:"fec_candidate_id,omitempty"`
	FECCommitteeID  *string    `json:"fec_committee_id,omitempty"`
	EmployerHash    *string    `json:"employer_hash,omitempty"`
	IndustryCode    *string    `json:"industry_code,omitempty"`
	ContributorName *string    `json:"contributor_name,omitempty"`
	Occupation      *string    `json:"occupation,omitempty"`
	AmountCents     int64      `json:"amount_cents"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	Cycle           *int       `json:"cycle,omitempty"`
	ReceiptType     *string    `json:"receipt_type,omitempty"`
	Memo            *string    `json:"memo,omitempty"`
	IsIndividual    bool       `json:"is_individual"`
}
