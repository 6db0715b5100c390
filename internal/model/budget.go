package model

import "time"

// Budget periods.
const (
	PeriodWeekly  = "WEEKLY"
	PeriodMonthly = "MONTHLY"
	PeriodYearly  = "YEARLY"
)

// Budget is a shared spending limit for one category. Spent is derived on
// every read from the accepted members' expense transactions; it is never
// stored.
type Budget struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	Category    string    `json:"category"`
	LimitAmount float64   `json:"limit"`
	Spent       float64   `json:"spent"`
	Period      string    `json:"period"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
