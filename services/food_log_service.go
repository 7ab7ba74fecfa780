package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"calTrackAPI/internal/nutrition"
	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/foodlog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FoodLogService struct {
	db            *pgxpool.Pool
	streakService *StreakService
	notifications *NotificationService
}

func NewFoodLogService(db *pgxpool.Pool, streakService *StreakService, notifications *NotificationService) *FoodLogService {
	return &FoodLogService{db: db, streakService: streakService, notifications: notifications}
}

func (s *FoodLogService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

// AddFoodLog inserts a log entry and feeds the food streak. The streak update
// is idempotent per day, so logging a second meal does not double count.
func (s *FoodLogService) AddFoodLog(ctx context.Context, clerkID string, req *foodlog.CreateFoodLogRequest) (*foodlog.FoodLog, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entry := &foodlog.FoodLog{
		ID:       uuid.New(),
		UserID:   userID,
		Name:     req.Name,
		MealType: req.MealType,
		Calories: req.Calories,
		ProteinG: req.ProteinG,
		CarbsG:   req.CarbsG,
		FatG:     req.FatG,
		LoggedAt: time.Now(),
	}

	query := `
        INSERT INTO user_food_logs (id, user_id, name, meal_type, calories, protein_g, carbs_g, fat_g, logged_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `
	_, err = s.db.Exec(ctx, query,
		entry.ID, entry.UserID, entry.Name, entry.MealType,
		entry.Calories, entry.ProteinG, entry.CarbsG, entry.FatG, entry.LoggedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to log food: %w", err)
	}

	rec, counted, err := s.streakService.RecordActivity(ctx, userID, streak.DomainFood)
	if err != nil {
		// The log row is already saved and stays; the caller learns the
		// streak part failed and the next record or recompute corrects it.
		log.Printf("AddFoodLog: streak update failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("food logged but streak update failed: %w", err)
	}

	if counted && IsStreakMilestone(rec.CurrentStreak) {
		if err := s.notifications.NotifyStreakMilestone(ctx, userID, "food", rec.CurrentStreak); err != nil {
			log.Printf("AddFoodLog: milestone notification failed for user %s: %v", userID, err)
		}
	}

	return entry, nil
}

// DeleteFoodLog removes an entry and recomputes the food streak from history,
// since the incremental streak path cannot un-count a deleted day.
func (s *FoodLogService) DeleteFoodLog(ctx context.Context, clerkID string, logID uuid.UUID) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM user_food_logs WHERE id = $1 AND user_id = $2`, logID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete food log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no food log found with id %s", logID)
	}

	if _, err := s.streakService.RecomputeFromHistory(ctx, userID, streak.DomainFood); err != nil {
		return fmt.Errorf("food log deleted but streak recompute failed: %w", err)
	}
	return nil
}

// GetDailySummary returns the day's entries and macro totals alongside the
// user's calorie target.
func (s *FoodLogService) GetDailySummary(ctx context.Context, clerkID string, date time.Time) (*foodlog.DailySummary, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
        SELECT id, user_id, name, meal_type, calories, protein_g, carbs_g, fat_g, logged_at
        FROM user_food_logs
        WHERE user_id = $1 AND logged_at::date = $2::date
        ORDER BY logged_at
    `
	rows, err := s.db.Query(ctx, query, userID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch food logs: %w", err)
	}
	defer rows.Close()

	summary := &foodlog.DailySummary{Date: streak.DateOf(date)}
	for rows.Next() {
		entry := &foodlog.FoodLog{}
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.Name, &entry.MealType,
			&entry.Calories, &entry.ProteinG, &entry.CarbsG, &entry.FatG, &entry.LoggedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		summary.Logs = append(summary.Logs, entry)
		summary.TotalCalories += entry.Calories
		summary.TotalProteinG += entry.ProteinG
		summary.TotalCarbsG += entry.CarbsG
		summary.TotalFatG += entry.FatG
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read food logs: %w", err)
	}

	target, err := s.calorieTarget(ctx, userID)
	if err != nil {
		// Incomplete profile is a valid state during onboarding; the summary
		// just carries no target.
		if !errors.Is(err, nutrition.ErrIncompleteProfile) {
			return nil, err
		}
	} else {
		summary.TargetCalories = target
	}

	return summary, nil
}

func (s *FoodLogService) calorieTarget(ctx context.Context, userID uuid.UUID) (float64, error) {
	profile, err := loadNutritionProfile(ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	return nutrition.CalorieTarget(profile)
}

// loadNutritionProfile maps the users row to a nutrition.Profile. Missing
// fields surface as ErrIncompleteProfile from the nutrition package; nothing
// is defaulted here.
func loadNutritionProfile(ctx context.Context, db *pgxpool.Pool, userID uuid.UUID) (nutrition.Profile, error) {
	var (
		sex, activityLevel, goal *string
		birthDate                *time.Time
		heightCm, weightKg       *float64
	)
	err := db.QueryRow(ctx, `
        SELECT sex, birth_date, height_cm, weight_kg, activity_level, goal
        FROM users WHERE id = $1
    `, userID).Scan(&sex, &birthDate, &heightCm, &weightKg, &activityLevel, &goal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nutrition.Profile{}, fmt.Errorf("user not found: %w", err)
		}
		return nutrition.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}

	p := nutrition.Profile{}
	if sex != nil {
		p.Sex = nutrition.Sex(*sex)
	}
	if birthDate != nil {
		p.Age = ageFrom(*birthDate, time.Now())
	}
	if heightCm != nil {
		p.HeightCm = *heightCm
	}
	if weightKg != nil {
		p.WeightKg = *weightKg
	}
	if activityLevel != nil {
		p.ActivityLevel = nutrition.ActivityLevel(*activityLevel)
	}
	if goal != nil {
		p.Goal = nutrition.Goal(*goal)
	}
	return p, nil
}

func ageFrom(birthDate, now time.Time) int {
	years := now.Year() - birthDate.Year()
	if now.YearDay() < birthDate.YearDay() {
		years--
	}
	return years
}
