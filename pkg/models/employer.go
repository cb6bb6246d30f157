package models

import "time"

// UnknownEmployer is the canonical name assigned when normalization of a raw
// employer string leaves nothing behind.
const UnknownEmployer = "UNKNOWN"

// Employer is a canonicalized employer keyed by the sha256 of its normalized
// name. Many raw spellings collapse onto one row. Industry membership lives
// on EmployerIndustry, not here.
type Employer struct {
	EmployerHash   string    `json:"employer_hash" db:"employer_hash"`
	NormalizedName string    `json:"normalized_name" db:"normalized_name"`
	RawName        *string   `json:"raw_name,omitempty" db:"raw_name"`
	City           *string   `json:"city,omitempty" db:"city"`
	State          *string   `json:"state,omitempty" db:"state"`
	Country        *string   `json:"country,omitempty" db:"country"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertEmployerRequest carries one canonicalized employer.
type UpsertEmployerRequest struct {
	EmployerHash   string  `json:"employer_hash" validate:"required"`
	NormalizedName string  `json:"normalized_name" validate:"required"`
	RawName        *string `json:"raw_name,omitempty"`
	City           *string `json:"city,omitempty"`
	State          *string `json:"state,omitempty"`
	Country        *string `json:"country,omitempty"`
}

// EmployerIndustry classifies an employer into an industry. Confidence is
// 1.0 for keyword matches; the column leaves room for fuzzier classifiers.
type EmployerIndustry struct {
	EmployerHash string    `json:"employer_hash" db:"employer_hash"`
	IndustryCode string    `json:"industry_code" db:"industry_code"`
	Confidence   float64   `json:"confidence" db:"confidence"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
