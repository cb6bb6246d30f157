package models

import "time"

// Entity dimensions a leaning score can be computed over.
const (
	LeaningEntityCandidate = "candidate"
	LeaningEntityCommittee = "committee"
	LeaningEntityEmployer  = "employer"
	LeaningEntityIndustry  = "industry"
)

// LeaningScore is the partisan-leaning aggregate for one entity over one
// computation window. Score is right-total over classified-total, in [0, 1],
// rounded to three decimal places; 0.5 means balanced or no classified money.
type LeaningScore struct {
	ID                 string    `json:"id" db:"id"`
	EntityType         string    `json:"entity_type" db:"entity_type"`
	EntityKey          string    `json:"entity_key" db:"entity_key"`
	WindowStart        time.Time `json:"window_start" db:"window_start"`
	WindowEnd          time.Time `json:"window_end" db:"window_end"`
	MethodologyVersion string    `json:"methodology_version" db:"methodology_version"`
	SampleSize         int       `json:"sample_size" db:"sample_size"`
	LeftTotalCents     int64     `json:"left_total_cents" db:"left_total_cents"`
	RightTotalCents    int64     `json:"right_total_cents" db:"right_total_cents"`
	Score              float64   `json:"score" db:"score"`
	ComputedAt         time.Time `json:"computed_at" db:"computed_at"`
}

// LeaningScoreListResponse pages leaning scores out of the API.
type LeaningScoreListResponse struct {
	Items      []LeaningScore `json:"items"`
	TotalCount int            `json:"total_count"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
}
