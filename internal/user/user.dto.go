package user

import "time"

type CreateUserRequest struct {
	ClerkID   string `json:"clerkId" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=30"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

type UpdateProfileRequest struct {
	Username      string     `json:"username,omitempty"`
	FirstName     string     `json:"firstName,omitempty"`
	LastName      string     `json:"lastName,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty"`
	Sex           string     `json:"sex,omitempty"`
	BirthDate     *time.Time `json:"birthDate,omitempty"`
	HeightCm      *float64   `json:"heightCm,omitempty"`
	WeightKg      *float64   `json:"weightKg,omitempty"`
	GoalWeightKg  *float64   `json:"goalWeightKg,omitempty"`
	ActivityLevel string     `json:"activityLevel,omitempty"`
	Goal          string     `json:"goal,omitempty"`
}

type EnergyTargetsResponse struct {
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	// UsedDefaultProfile is true when the stored profile was incomplete and
	// targets were computed from the explicit onboarding defaults.
	UsedDefaultProfile bool `json:"used_default_profile"`
}
