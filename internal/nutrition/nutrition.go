// Package nutrition holds the energy and macro arithmetic shared by the
// profile, dashboard and food-log surfaces. All functions are pure. Missing
// profile fields are an error, never a silently substituted default; callers
// that want the onboarding fallback must pass DefaultProfile explicitly.
package nutrition

import (
	"errors"
	"fmt"
	"math"
)

var ErrIncompleteProfile = errors.New("incomplete profile")

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

type Goal string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"
)

type Profile struct {
	Sex           Sex           `json:"sex"`
	Age           int           `json:"age"`
	HeightCm      float64       `json:"height_cm"`
	WeightKg      float64       `json:"weight_kg"`
	ActivityLevel ActivityLevel `json:"activity_level"`
	Goal          Goal          `json:"goal"`
}

// DefaultProfile is the onboarding placeholder shown before the user fills in
// their details. Using it is a visible policy choice at the call site.
func DefaultProfile() Profile {
	return Profile{
		Sex:           SexFemale,
		Age:           25,
		HeightCm:      165,
		WeightKg:      60,
		ActivityLevel: ActivitySedentary,
		Goal:          GoalMaintain,
	}
}

func (p Profile) validate() error {
	switch {
	case p.Sex != SexMale && p.Sex != SexFemale:
		return fmt.Errorf("%w: sex %q", ErrIncompleteProfile, p.Sex)
	case p.Age <= 0 || p.Age > 120:
		return fmt.Errorf("%w: age %d", ErrIncompleteProfile, p.Age)
	case p.HeightCm <= 0:
		return fmt.Errorf("%w: height %.1f", ErrIncompleteProfile, p.HeightCm)
	case p.WeightKg <= 0:
		return fmt.Errorf("%w: weight %.1f", ErrIncompleteProfile, p.WeightKg)
	}
	return nil
}

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// BMR computes basal metabolic rate with the Mifflin-St Jeor equation.
func BMR(p Profile) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr, nil
}

// TDEE scales BMR by the activity multiplier.
func TDEE(p Profile) (float64, error) {
	bmr, err := BMR(p)
	if err != nil {
		return 0, err
	}
	mult, ok := activityMultipliers[p.ActivityLevel]
	if !ok {
		return 0, fmt.Errorf("%w: activity level %q", ErrIncompleteProfile, p.ActivityLevel)
	}
	return bmr * mult, nil
}

// CalorieTarget adjusts TDEE by the standard 500 kcal deficit/surplus for the
// user's goal.
func CalorieTarget(p Profile) (float64, error) {
	tdee, err := TDEE(p)
	if err != nil {
		return 0, err
	}
	switch p.Goal {
	case GoalLose:
		return math.Max(1200, tdee-500), nil
	case GoalGain:
		return tdee + 500, nil
	case GoalMaintain:
		return tdee, nil
	default:
		return 0, fmt.Errorf("%w: goal %q", ErrIncompleteProfile, p.Goal)
	}
}

type MacroTargets struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
}

// Macros splits a calorie target 30/40/30 protein/carbs/fat.
func Macros(calories float64) MacroTargets {
	return MacroTargets{
		Calories: math.Round(calories),
		ProteinG: math.Round(calories * 0.30 / 4),
		CarbsG:   math.Round(calories * 0.40 / 4),
		FatG:     math.Round(calories * 0.30 / 9),
	}
}

// WeightProgressPercent is how far the user has moved from their starting
// weight toward their goal weight, clamped to [0, 100]. Returns 0 when start
// and goal coincide since there is no distance to cover.
func WeightProgressPercent(startKg, currentKg, goalKg float64) float64 {
	total := startKg - goalKg
	if total == 0 {
		return 0
	}
	progress := (startKg - currentKg) / total * 100
	return math.Max(0, math.Min(100, progress))
}
