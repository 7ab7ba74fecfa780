package user

import "time"

type User struct {
	ID            string     `json:"id"`
	ClerkID       string     `json:"clerkId"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	EmailVerified bool       `json:"emailVerified"`
	Sex           string     `json:"sex,omitempty"`
	BirthDate     *time.Time `json:"birthDate,omitempty"`
	HeightCm      *float64   `json:"heightCm,omitempty"`
	WeightKg      *float64   `json:"weightKg,omitempty"`
	GoalWeightKg  *float64   `json:"goalWeightKg,omitempty"`
	ActivityLevel string     `json:"activityLevel,omitempty"`
	Goal          string     `json:"goal,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}
