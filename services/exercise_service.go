package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/exercise"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExerciseService struct {
	db            *pgxpool.Pool
	streakService *StreakService
	notifications *NotificationService
}

func NewExerciseService(db *pgxpool.Pool, streakService *StreakService, notifications *NotificationService) *ExerciseService {
	return &ExerciseService{db: db, streakService: streakService, notifications: notifications}
}

func (s *ExerciseService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

func (s *ExerciseService) AddWorkout(ctx context.Context, clerkID string, req *exercise.CreateWorkoutRequest) (*exercise.Workout, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	w := &exercise.Workout{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		CaloriesBurned:  req.CaloriesBurned,
		PerformedAt:     time.Now(),
	}

	_, err = s.db.Exec(ctx, `
        INSERT INTO workouts (id, user_id, name, duration_minutes, calories_burned, performed_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, w.ID, w.UserID, w.Name, w.DurationMinutes, w.CaloriesBurned, w.PerformedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log workout: %w", err)
	}

	rec, counted, err := s.streakService.RecordActivity(ctx, userID, streak.DomainExercise)
	if err != nil {
		log.Printf("AddWorkout: streak update failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("workout logged but streak update failed: %w", err)
	}
	s.maybeNotifyMilestone(ctx, userID, rec.CurrentStreak, counted)

	return w, nil
}

func (s *ExerciseService) AddCardioSession(ctx context.Context, clerkID string, req *exercise.CreateCardioSessionRequest) (*exercise.CardioSession, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	c := &exercise.CardioSession{
		ID:              uuid.New(),
		UserID:          userID,
		Activity:        req.Activity,
		DurationMinutes: req.DurationMinutes,
		DistanceKm:      req.DistanceKm,
		CaloriesBurned:  req.CaloriesBurned,
		PerformedAt:     time.Now(),
	}

	_, err = s.db.Exec(ctx, `
        INSERT INTO saved_cardio_sessions (id, user_id, activity, duration_minutes, distance_km, calories_burned, performed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, c.ID, c.UserID, c.Activity, c.DurationMinutes, c.DistanceKm, c.CaloriesBurned, c.PerformedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to log cardio session: %w", err)
	}

	rec, counted, err := s.streakService.RecordActivity(ctx, userID, streak.DomainExercise)
	if err != nil {
		log.Printf("AddCardioSession: streak update failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("cardio logged but streak update failed: %w", err)
	}
	s.maybeNotifyMilestone(ctx, userID, rec.CurrentStreak, counted)

	return c, nil
}

func (s *ExerciseService) maybeNotifyMilestone(ctx context.Context, userID uuid.UUID, currentStreak int, counted bool) {
	if !counted || !IsStreakMilestone(currentStreak) {
		return
	}
	if err := s.notifications.NotifyStreakMilestone(ctx, userID, "exercise", currentStreak); err != nil {
		log.Printf("ExerciseService: milestone notification failed for user %s: %v", userID, err)
	}
}

func (s *ExerciseService) GetWorkouts(ctx context.Context, clerkID string, from, to time.Time) ([]*exercise.Workout, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, name, duration_minutes, calories_burned, performed_at
        FROM workouts
        WHERE user_id = $1 AND performed_at >= $2 AND performed_at < $3
        ORDER BY performed_at DESC
    `, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workouts: %w", err)
	}
	defer rows.Close()

	var out []*exercise.Workout
	for rows.Next() {
		w := &exercise.Workout{}
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.DurationMinutes, &w.CaloriesBurned, &w.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *ExerciseService) GetCardioSessions(ctx context.Context, clerkID string, from, to time.Time) ([]*exercise.CardioSession, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT id, user_id, activity, duration_minutes, distance_km, calories_burned, performed_at
        FROM saved_cardio_sessions
        WHERE user_id = $1 AND performed_at >= $2 AND performed_at < $3
        ORDER BY performed_at DESC
    `, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cardio sessions: %w", err)
	}
	defer rows.Close()

	var out []*exercise.CardioSession
	for rows.Next() {
		c := &exercise.CardioSession{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Activity, &c.DurationMinutes, &c.DistanceKm, &c.CaloriesBurned, &c.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cardio session: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteWorkout removes a workout and recomputes the exercise streak, since
// the incremental path cannot un-count the deleted day.
func (s *ExerciseService) DeleteWorkout(ctx context.Context, clerkID string, workoutID uuid.UUID) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM workouts WHERE id = $1 AND user_id = $2`, workoutID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no workout found with id %s", workoutID)
	}

	if _, err := s.streakService.RecomputeFromHistory(ctx, userID, streak.DomainExercise); err != nil {
		return fmt.Errorf("workout deleted but streak recompute failed: %w", err)
	}
	return nil
}

// DeleteCardioSession removes a cardio session and recomputes the exercise
// streak.
func (s *ExerciseService) DeleteCardioSession(ctx context.Context, clerkID string, sessionID uuid.UUID) error {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM saved_cardio_sessions WHERE id = $1 AND user_id = $2`, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete cardio session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("no cardio session found with id %s", sessionID)
	}

	if _, err := s.streakService.RecomputeFromHistory(ctx, userID, streak.DomainExercise); err != nil {
		return fmt.Errorf("cardio session deleted but streak recompute failed: %w", err)
	}
	return nil
}
