package model

import "time"

// Goal is a shared savings goal. CurrentAmount may exceed TargetAmount;
// overfunding is allowed and left visible.
type Goal struct {
	ID            int64      `json:"id"`
	FamilyID      int64      `json:"family_id"`
	Title         string     `json:"title"`
	TargetAmount  float64    `json:"target"`
	CurrentAmount float64    `json:"current"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	Category      string     `json:"category"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// GoalContribution is an immutable ledger entry: one member's addition
// toward a shared goal. Rows are only ever appended.
type GoalContribution struct {
	ID        int64     `json:"id"`
	GoalID    int64     `json:"goal_id"`
	UserID    int64     `json:"user_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}
