package models

import "time"

// Industry is a classification bucket assigned to employers by keyword rules.
type Industry struct {
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Sector    string    `json:"sector" db:"sector"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
