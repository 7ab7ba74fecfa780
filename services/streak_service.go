package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"calTrackAPI/internal/streak"
	"calTrackAPI/middleware"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StreakService owns the streaks table and is the only writer to it. One
// record per (user, domain); the stored row is authoritative, UI-side caches
// are not.
type StreakService struct {
	db *pgxpool.Pool
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db}
}

// ResolveUserID maps a Clerk identity to the internal user id.
func (s *StreakService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}

const streakColumns = `id, user_id, domain, current_streak, max_streak, last_log_date, allowance, created_at, updated_at`

func scanStreak(row pgx.Row) (*streak.Record, error) {
	rec := &streak.Record{}
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Domain,
		&rec.CurrentStreak,
		&rec.MaxStreak,
		&rec.LastLogDate,
		&rec.Allowance,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// getOrCreateRecord loads the streak record, lazily creating the zero state
// on first read.
func (s *StreakService) getOrCreateRecord(ctx context.Context, userID uuid.UUID, d streak.Domain) (*streak.Record, error) {
	fresh := streak.NewRecord(userID, d)
	_, err := s.db.Exec(ctx, `
        INSERT INTO streaks (id, user_id, domain, current_streak, max_streak, last_log_date, allowance, created_at, updated_at)
        VALUES ($1, $2, $3, 0, 0, NULL, $4, NOW(), NOW())
        ON CONFLICT (user_id, domain) DO NOTHING
    `, fresh.ID, userID, d, fresh.Allowance)
	if err != nil {
		return nil, fmt.Errorf("failed to create streak record: %w", err)
	}

	query := `SELECT ` + streakColumns + ` FROM streaks WHERE user_id = $1 AND domain = $2`
	rec, err := scanStreak(s.db.QueryRow(ctx, query, userID, d))
	if err != nil {
		return nil, fmt.Errorf("failed to load streak record: %w", err)
	}
	return rec, nil
}

// RecordActivity applies today's qualifying activity to the user's streak.
// counted reports whether today was newly counted; it is false on the
// idempotent same-day path. The write is a conditional update on
// last_log_date, so two concurrent submissions cannot both apply the
// increment: the loser's update matches zero rows and the retry lands on the
// idempotent path.
func (s *StreakService) RecordActivity(ctx context.Context, userID uuid.UUID, d streak.Domain) (rec *streak.Record, counted bool, err error) {
	rules := streak.RulesFor(d)

	for attempt := 0; attempt < 2; attempt++ {
		rec, err = s.getOrCreateRecord(ctx, userID, d)
		if err != nil {
			return nil, false, err
		}

		today := time.Now()
		next := streak.Advance(*rec, today, rules)

		if rec.LastLogDate != nil && next.LastLogDate.Equal(streak.DateOf(*rec.LastLogDate)) {
			// Already counted today.
			middleware.ObserveStreakUpdate(string(d), "idempotent")
			return rec, false, nil
		}

		tag, err := s.db.Exec(ctx, `
            UPDATE streaks
            SET current_streak = $3, max_streak = $4, last_log_date = $5, allowance = $6, updated_at = NOW()
            WHERE user_id = $1 AND domain = $2
              AND last_log_date IS NOT DISTINCT FROM $7
        `, userID, d, next.CurrentStreak, next.MaxStreak, next.LastLogDate, next.Allowance, rec.LastLogDate)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update streak: %w", err)
		}
		if tag.RowsAffected() == 1 {
			middleware.ObserveStreakUpdate(string(d), "applied")
			return &next, true, nil
		}
		// Concurrent writer moved last_log_date; re-read and re-decide.
		middleware.ObserveStreakUpdate(string(d), "retried")
		log.Printf("StreakService: concurrent streak update for user %s domain %s, retrying", userID, d)
	}

	middleware.ObserveStreakUpdate(string(d), "failed")
	return nil, false, fmt.Errorf("streak update contention for user %s domain %s", userID, d)
}

// GetCurrentStreak returns the display value for the user's streak. Expiry is
// pull-based: a stale row reads as zero but is not rewritten here. Exercise
// records claiming activity today are verified against the activity tables,
// because the incremental path may have run for a log that was later deleted.
func (s *StreakService) GetCurrentStreak(ctx context.Context, userID uuid.UUID, d streak.Domain) (int, error) {
	rules := streak.RulesFor(d)
	rec, err := s.getOrCreateRecord(ctx, userID, d)
	if err != nil {
		return 0, err
	}

	today := time.Now()
	if err := streak.Validate(*rec, today); err != nil {
		if errors.Is(err, streak.ErrCorruptRecord) {
			log.Printf("StreakService: corrupt record for user %s domain %s (%v), recomputing", userID, d, err)
			rec, err = s.RecomputeFromHistory(ctx, userID, d)
			if err != nil {
				return 0, err
			}
		} else {
			return 0, err
		}
	}

	ev := streak.Evaluate(*rec, today, rules)
	if !ev.NeedsVerify {
		return ev.Streak, nil
	}

	logged, err := s.hasActivityOn(ctx, userID, d, streak.DateOf(today))
	if err != nil {
		return 0, err
	}
	if logged {
		return ev.Streak, nil
	}

	rec, err = s.RecomputeFromHistory(ctx, userID, d)
	if err != nil {
		return 0, err
	}
	return streak.Evaluate(*rec, today, rules).Streak, nil
}

// RecomputeFromHistory rebuilds the record from the full set of qualifying
// dates. This is the correction path after log deletions; the incremental
// update can only move forward in time.
func (s *StreakService) RecomputeFromHistory(ctx context.Context, userID uuid.UUID, d streak.Domain) (*streak.Record, error) {
	rec, err := s.getOrCreateRecord(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	dates, err := s.listQualifyingDates(ctx, userID, d)
	if err != nil {
		return nil, err
	}

	current, maxStreak, lastLog, allowance := streak.Replay(dates, time.Now(), streak.RulesFor(d), rec.MaxStreak)

	_, err = s.db.Exec(ctx, `
        UPDATE streaks
        SET current_streak = $3, max_streak = $4, last_log_date = $5, allowance = $6, updated_at = NOW()
        WHERE user_id = $1 AND domain = $2
    `, userID, d, current, maxStreak, lastLog, allowance)
	if err != nil {
		return nil, fmt.Errorf("failed to persist recomputed streak: %w", err)
	}

	rec.CurrentStreak = current
	rec.MaxStreak = maxStreak
	rec.LastLogDate = lastLog
	rec.Allowance = allowance
	return rec, nil
}

// listQualifyingDates projects the activity tables to distinct calendar dates.
func (s *StreakService) listQualifyingDates(ctx context.Context, userID uuid.UUID, d streak.Domain) ([]time.Time, error) {
	var query string
	if d == streak.DomainExercise {
		query = `
            SELECT DISTINCT performed_at::date AS day FROM workouts WHERE user_id = $1
            UNION
            SELECT DISTINCT performed_at::date FROM saved_cardio_sessions WHERE user_id = $1
            ORDER BY day
        `
	} else {
		query = `
            SELECT DISTINCT logged_at::date AS day FROM user_food_logs WHERE user_id = $1 ORDER BY day
        `
	}

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qualifying dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan qualifying date: %w", err)
		}
		dates = append(dates, day)
	}
	return dates, rows.Err()
}

func (s *StreakService) hasActivityOn(ctx context.Context, userID uuid.UUID, d streak.Domain, day time.Time) (bool, error) {
	var query string
	if d == streak.DomainExercise {
		query = `
            SELECT EXISTS(
                SELECT 1 FROM workouts WHERE user_id = $1 AND performed_at::date = $2::date
                UNION
                SELECT 1 FROM saved_cardio_sessions WHERE user_id = $1 AND performed_at::date = $2::date
            )
        `
	} else {
		query = `SELECT EXISTS(SELECT 1 FROM user_food_logs WHERE user_id = $1 AND logged_at::date = $2::date)`
	}

	var exists bool
	if err := s.db.QueryRow(ctx, query, userID, day).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to verify activity: %w", err)
	}
	return exists, nil
}

// GetRecord exposes the raw stored record for the stats endpoint.
func (s *StreakService) GetRecord(ctx context.Context, userID uuid.UUID, d streak.Domain) (*streak.Record, error) {
	return s.getOrCreateRecord(ctx, userID, d)
}

// ReplenishMonthlyFreezes tops food freezes back up to their starting value.
// Invoked by the scheduler on the first of every month.
func (s *StreakService) ReplenishMonthlyFreezes(ctx context.Context) (int64, error) {
	starting := streak.RulesFor(streak.DomainFood).StartingAllowance
	tag, err := s.db.Exec(ctx, `
        UPDATE streaks SET allowance = $1, updated_at = NOW()
        WHERE domain = $2 AND allowance < $1
    `, starting, streak.DomainFood)
	if err != nil {
		return 0, fmt.Errorf("failed to replenish freezes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AtRiskRow identifies a streak whose owner has not logged today and will
// lose the run once the grace window closes.
type AtRiskRow struct {
	UserID        uuid.UUID
	CurrentStreak int
}

// ListAtRiskStreaks returns food streaks of at least minStreak whose last log
// was exactly yesterday. Used by the daily reminder sweep.
func (s *StreakService) ListAtRiskStreaks(ctx context.Context, minStreak int) ([]AtRiskRow, error) {
	rows, err := s.db.Query(ctx, `
        SELECT user_id, current_streak
        FROM streaks
        WHERE domain = $1
          AND current_streak >= $2
          AND last_log_date = CURRENT_DATE - 1
    `, streak.DomainFood, minStreak)
	if err != nil {
		return nil, fmt.Errorf("failed to list at-risk streaks: %w", err)
	}
	defer rows.Close()

	var out []AtRiskRow
	for rows.Next() {
		var r AtRiskRow
		if err := rows.Scan(&r.UserID, &r.CurrentStreak); err != nil {
			return nil, fmt.Errorf("failed to scan at-risk row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
