package wellness

import (
	"time"

	"github.com/google/uuid"
)

type WaterIntake struct {
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Date     time.Time `json:"date" db:"date"`
	AmountMl int       `json:"amount_ml" db:"amount_ml"`
}

type SleepLog struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Date      time.Time `json:"date" db:"date"`
	Hours     float64   `json:"hours" db:"hours"`
	Quality   *int      `json:"quality,omitempty" db:"quality"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type StepEntry struct {
	UserID uuid.UUID `json:"user_id" db:"user_id"`
	Date   time.Time `json:"date" db:"date"`
	Steps  int       `json:"steps" db:"steps"`
}

type WeightLog struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	WeightKg float64   `json:"weight_kg" db:"weight_kg"`
	LoggedAt time.Time `json:"logged_at" db:"logged_at"`
}

type WeightProgress struct {
	StartKg         float64 `json:"start_kg"`
	CurrentKg       float64 `json:"current_kg"`
	GoalKg          float64 `json:"goal_kg"`
	ProgressPercent float64 `json:"progress_percent"`
}
