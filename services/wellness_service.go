package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"calTrackAPI/internal/nutrition"
	"calTrackAPI/internal/types/wellness"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WellnessService struct {
	db            *pgxpool.Pool
	notifications *NotificationService
}

func NewWellnessService(db *pgxpool.Pool, notifications *NotificationService) *WellnessService {
	return &WellnessService{db: db, notifications: notifications}
}

func (s *WellnessService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

// AddWater upserts today's running water total, one row per user per day.
func (s *WellnessService) AddWater(ctx context.Context, clerkID string, amountMl int) (*wellness.WaterIntake, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	intake := &wellness.WaterIntake{UserID: userID}
	query := `
        INSERT INTO daily_water_intake (user_id, date, amount_ml)
        VALUES ($1, CURRENT_DATE, $2)
        ON CONFLICT (user_id, date)
        DO UPDATE SET amount_ml = daily_water_intake.amount_ml + $2
        RETURNING date, amount_ml
    `
	if err := s.db.QueryRow(ctx, query, userID, amountMl).Scan(&intake.Date, &intake.AmountMl); err != nil {
		return nil, fmt.Errorf("failed to log water intake: %w", err)
	}
	return intake, nil
}

func (s *WellnessService) GetWater(ctx context.Context, clerkID string, date time.Time) (*wellness.WaterIntake, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	intake := &wellness.WaterIntake{UserID: userID, Date: date}
	err = s.db.QueryRow(ctx, `
        SELECT amount_ml FROM daily_water_intake WHERE user_id = $1 AND date = $2::date
    `, userID, date).Scan(&intake.AmountMl)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// No entry yet today is a valid zero state.
			return intake, nil
		}
		return nil, fmt.Errorf("failed to get water intake: %w", err)
	}
	return intake, nil
}

func (s *WellnessService) AddSleepLog(ctx context.Context, clerkID string, date time.Time, hours float64, quality *int) (*wellness.SleepLog, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entry := &wellness.SleepLog{
		ID:     uuid.New(),
		UserID: userID,
	}
	query := `
        INSERT INTO sleep_logs (id, user_id, date, hours, quality, created_at)
        VALUES ($1, $2, $3::date, $4, $5, NOW())
        ON CONFLICT (user_id, date)
        DO UPDATE SET hours = $4, quality = $5
        RETURNING id, date, hours, quality, created_at
    `
	err = s.db.QueryRow(ctx, query, entry.ID, userID, date, hours, quality).
		Scan(&entry.ID, &entry.Date, &entry.Hours, &entry.Quality, &entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log sleep: %w", err)
	}
	return entry, nil
}

// SetSteps records the device-reported step count for a day, replacing any
// previous reading since the pedometer total is cumulative.
func (s *WellnessService) SetSteps(ctx context.Context, clerkID string, date time.Time, steps int) (*wellness.StepEntry, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	entry := &wellness.StepEntry{UserID: userID}
	query := `
        INSERT INTO steps (user_id, date, steps)
        VALUES ($1, $2::date, $3)
        ON CONFLICT (user_id, date)
        DO UPDATE SET steps = $3
        RETURNING date, steps
    `
	if err := s.db.QueryRow(ctx, query, userID, date, steps).Scan(&entry.Date, &entry.Steps); err != nil {
		return nil, fmt.Errorf("failed to record steps: %w", err)
	}
	return entry, nil
}

func (s *WellnessService) AddWeightLog(ctx context.Context, clerkID string, weightKg float64) (*wellness.WeightLog, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if weightKg <= 0 {
		return nil, fmt.Errorf("weight must be positive, got %.1f", weightKg)
	}

	entry := &wellness.WeightLog{
		ID:       uuid.New(),
		UserID:   userID,
		WeightKg: weightKg,
		LoggedAt: time.Now(),
	}
	_, err = s.db.Exec(ctx, `
        INSERT INTO weight_logs (id, user_id, weight_kg, logged_at)
        VALUES ($1, $2, $3, $4)
    `, entry.ID, userID, entry.WeightKg, entry.LoggedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log weight: %w", err)
	}

	// Keep the profile's current weight in sync with the latest log.
	_, err = s.db.Exec(ctx, `UPDATE users SET weight_kg = $2, updated_at = NOW() WHERE id = $1`, userID, weightKg)
	if err != nil {
		return nil, fmt.Errorf("weight logged but profile update failed: %w", err)
	}

	s.maybeNotifyGoalReached(ctx, userID, weightKg)

	return entry, nil
}

// maybeNotifyGoalReached fires a congratulation when the logged weight
// reaches the goal. Notification failures never fail the log.
func (s *WellnessService) maybeNotifyGoalReached(ctx context.Context, userID uuid.UUID, weightKg float64) {
	progress, err := s.weightProgressFor(ctx, userID)
	if err != nil || progress == nil {
		return
	}
	if progress.ProgressPercent < 100 {
		return
	}
	if err := s.notifications.NotifyGoalReached(ctx, userID, progress.GoalKg); err != nil {
		log.Printf("WellnessService: goal notification failed for user %s: %v", userID, err)
	}
}

func (s *WellnessService) GetWeightLogs(ctx context.Context, clerkID string, limit int) ([]*wellness.WeightLog, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 365 {
		limit = 90
	}

	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, weight_kg, logged_at
        FROM weight_logs
        WHERE user_id = $1
        ORDER BY logged_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weight logs: %w", err)
	}
	defer rows.Close()

	var out []*wellness.WeightLog
	for rows.Next() {
		w := &wellness.WeightLog{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.WeightKg, &w.LoggedAt); err != nil {
			return nil, fmt.Errorf("failed to scan weight log: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// GetWeightProgress reports how far the user has moved from their first
// logged weight toward their goal weight.
func (s *WellnessService) GetWeightProgress(ctx context.Context, clerkID string) (*wellness.WeightProgress, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	progress, err := s.weightProgressFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		return nil, fmt.Errorf("weight progress unavailable: missing weight history or goal weight")
	}
	return progress, nil
}

// weightProgressFor returns nil without error when the user has no weight
// history or goal weight yet.
func (s *WellnessService) weightProgressFor(ctx context.Context, userID uuid.UUID) (*wellness.WeightProgress, error) {
	var start, current, goal *float64
	err := s.db.QueryRow(ctx, `
        SELECT
            (SELECT weight_kg FROM weight_logs WHERE user_id = $1 ORDER BY logged_at ASC LIMIT 1),
            (SELECT weight_kg FROM weight_logs WHERE user_id = $1 ORDER BY logged_at DESC LIMIT 1),
            (SELECT goal_weight_kg FROM users WHERE id = $1)
    `, userID).Scan(&start, &current, &goal)
	if err != nil {
		return nil, fmt.Errorf("failed to load weight progress: %w", err)
	}
	if start == nil || current == nil || goal == nil {
		return nil, nil
	}

	return &wellness.WeightProgress{
		StartKg:         *start,
		CurrentKg:       *current,
		GoalKg:          *goal,
		ProgressPercent: nutrition.WeightProgressPercent(*start, *current, *goal),
	}, nil
}
