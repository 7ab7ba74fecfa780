package exercise

import (
	"time"

	"github.com/google/uuid"
)

type Workout struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	CaloriesBurned  float64   `json:"calories_burned" db:"calories_burned"`
	PerformedAt     time.Time `json:"performed_at" db:"performed_at"`
}

type CardioSession struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Activity        string    `json:"activity" db:"activity"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	DistanceKm      float64   `json:"distance_km" db:"distance_km"`
	CaloriesBurned  float64   `json:"calories_burned" db:"calories_burned"`
	PerformedAt     time.Time `json:"performed_at" db:"performed_at"`
}

type CreateWorkoutRequest struct {
	Name            string  `json:"name" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	CaloriesBurned  float64 `json:"calories_burned"`
}

type CreateCardioSessionRequest struct {
	Activity        string  `json:"activity" validate:"required"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0"`
	DistanceKm      float64 `json:"distance_km"`
	CaloriesBurned  float64 `json:"calories_burned"`
}
