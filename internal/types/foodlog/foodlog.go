package foodlog

import (
	"time"

	"github.com/google/uuid"
)

type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

type FoodLog struct {
	ID       uuid.UUID `json:"id" db:"id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	Name     string    `json:"name" db:"name"`
	MealType MealType  `json:"meal_type" db:"meal_type"`
	Calories float64   `json:"calories" db:"calories"`
	ProteinG float64   `json:"protein_g" db:"protein_g"`
	CarbsG   float64   `json:"carbs_g" db:"carbs_g"`
	FatG     float64   `json:"fat_g" db:"fat_g"`
	LoggedAt time.Time `json:"logged_at" db:"logged_at"`
}

type CreateFoodLogRequest struct {
	Name     string   `json:"name" validate:"required"`
	MealType MealType `json:"meal_type" validate:"required"`
	Calories float64  `json:"calories" validate:"required,gte=0"`
	ProteinG float64  `json:"protein_g"`
	CarbsG   float64  `json:"carbs_g"`
	FatG     float64  `json:"fat_g"`
}

type DailySummary struct {
	Date           time.Time  `json:"date"`
	TotalCalories  float64    `json:"total_calories"`
	TotalProteinG  float64    `json:"total_protein_g"`
	TotalCarbsG    float64    `json:"total_carbs_g"`
	TotalFatG      float64    `json:"total_fat_g"`
	TargetCalories float64    `json:"target_calories"`
	Logs           []*FoodLog `json:"logs"`
}
