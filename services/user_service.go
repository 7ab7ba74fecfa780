package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"calTrackAPI/internal/cache"
	"calTrackAPI/internal/nutrition"
	"calTrackAPI/internal/stats"
	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/calendar"
	"calTrackAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db            *pgxpool.Pool
	streakService *StreakService
	statsCache    *cache.Cache
}

func NewUserService(db *pgxpool.Pool, streakService *StreakService, statsCache *cache.Cache) *UserService {
	return &UserService{db: db, streakService: streakService, statsCache: statsCache}
}

const userColumns = `id, clerk_id, email, username, first_name, last_name, image_url, email_verified,
	sex, birth_date, height_cm, weight_kg, goal_weight_kg, activity_level, goal, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	var sex, activityLevel, goal *string
	err := row.Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.ImageURL, &u.EmailVerified,
		&sex, &u.BirthDate, &u.HeightCm, &u.WeightKg, &u.GoalWeightKg,
		&activityLevel, &goal,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sex != nil {
		u.Sex = *sex
	}
	if activityLevel != nil {
		u.ActivityLevel = *activityLevel
	}
	if goal != nil {
		u.Goal = *goal
	}
	return u, nil
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(
		ctx, query,
		uuid.New().String(), req.ClerkID, req.Email, req.Username, req.FirstName, req.LastName, req.ImageURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE clerk_id = $1`

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users SET
		username = COALESCE(NULLIF($2, ''), username),
		first_name = COALESCE(NULLIF($3, ''), first_name),
		last_name = COALESCE(NULLIF($4, ''), last_name),
		image_url = COALESCE(NULLIF($5, ''), image_url),
		sex = COALESCE(NULLIF($6, ''), sex),
		birth_date = COALESCE($7, birth_date),
		height_cm = COALESCE($8, height_cm),
		weight_kg = COALESCE($9, weight_kg),
		goal_weight_kg = COALESCE($10, goal_weight_kg),
		activity_level = COALESCE(NULLIF($11, ''), activity_level),
		goal = COALESCE(NULLIF($12, ''), goal),
		updated_at = NOW()
	WHERE clerk_id = $1
	RETURNING ` + userColumns

	u, err := scanUser(s.db.QueryRow(ctx, query, clerkID,
		req.Username, req.FirstName, req.LastName, req.ImageURL,
		req.Sex, req.BirthDate, req.HeightCm, req.WeightKg, req.GoalWeightKg,
		req.ActivityLevel, req.Goal,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	// Profile fields feed the dashboard targets; drop the cached copy.
	s.statsCache.Invalidate(statsCacheKey(clerkID))
	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}
	s.statsCache.Invalidate(statsCacheKey(clerkID))
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET email_verified = $2, updated_at = NOW() WHERE clerk_id = $1`, clerkID, verified)
	if err != nil {
		return fmt.Errorf("failed to update email verification: %w", err)
	}
	return nil
}

// GetEnergyTargets computes BMR, TDEE and macro targets from the stored
// profile. An incomplete profile falls back to the onboarding defaults, and
// the response says so.
func (s *UserService) GetEnergyTargets(ctx context.Context, clerkID string) (*user.EnergyTargetsResponse, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	profile, err := loadNutritionProfile(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	usedDefault := false
	calories, err := nutrition.CalorieTarget(profile)
	if errors.Is(err, nutrition.ErrIncompleteProfile) {
		profile = nutrition.DefaultProfile()
		usedDefault = true
		calories, err = nutrition.CalorieTarget(profile)
	}
	if err != nil {
		return nil, err
	}

	bmr, err := nutrition.BMR(profile)
	if err != nil {
		return nil, err
	}
	tdee, err := nutrition.TDEE(profile)
	if err != nil {
		return nil, err
	}
	macros := nutrition.Macros(calories)

	return &user.EnergyTargetsResponse{
		BMR:                bmr,
		TDEE:               tdee,
		Calories:           macros.Calories,
		ProteinG:           macros.ProteinG,
		CarbsG:             macros.CarbsG,
		FatG:               macros.FatG,
		UsedDefaultProfile: usedDefault,
	}, nil
}

// GetCalendar returns, for every day of the month, whether food and workouts
// were logged.
func (s *UserService) GetCalendar(ctx context.Context, clerkID string, year int, month int) (*calendar.CalendarResponse, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	startDate := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	endDate := startDate.AddDate(0, 1, -1)

	query := `
	SELECT day, bool_or(kind = 'food'), bool_or(kind = 'workout')
	FROM (
		SELECT logged_at::date AS day, 'food' AS kind FROM user_food_logs WHERE user_id = $1
		UNION ALL
		SELECT performed_at::date, 'workout' FROM workouts WHERE user_id = $1
		UNION ALL
		SELECT performed_at::date, 'workout' FROM saved_cardio_sessions WHERE user_id = $1
	) activity
	WHERE day >= $2 AND day <= $3
	GROUP BY day
	ORDER BY day
	`

	rows, err := s.db.Query(ctx, query, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch calendar: %w", err)
	}
	defer rows.Close()

	type dayFlags struct{ food, workout bool }
	dayMap := make(map[string]dayFlags)
	for rows.Next() {
		var date time.Time
		var flags dayFlags
		if err := rows.Scan(&date, &flags.food, &flags.workout); err != nil {
			return nil, fmt.Errorf("failed to scan calendar row: %w", err)
		}
		dayMap[date.Format("2006-01-02")] = flags
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read calendar rows: %w", err)
	}

	var days []*calendar.CalendarDay
	today := time.Now().Format("2006-01-02")

	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format("2006-01-02")
		flags := dayMap[dateStr]
		days = append(days, &calendar.CalendarDay{
			Date:          d,
			LoggedFood:    flags.food,
			LoggedWorkout: flags.workout,
			IsToday:       dateStr == today,
		})
	}

	return &calendar.CalendarResponse{
		Year:  year,
		Month: month,
		Days:  days,
	}, nil
}

func statsCacheKey(clerkID string) string {
	return "stats:" + clerkID
}

// GetUserStats serves the home-dashboard aggregate through the
// stale-while-revalidate cache. The cached copy is a display optimization;
// every number is recomputed from the database on refresh.
func (s *UserService) GetUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	out := &stats.UserStats{}
	err := s.statsCache.GetOrRefresh(ctx, statsCacheKey(clerkID), out, func(ctx context.Context) (any, error) {
		return s.computeUserStats(ctx, clerkID)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) computeUserStats(ctx context.Context, clerkID string) (*stats.UserStats, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	st := &stats.UserStats{}

	query := `
	SELECT
		COUNT(DISTINCT logged_at::date) FILTER (WHERE logged_at::date = CURRENT_DATE) > 0,
		COUNT(DISTINCT logged_at::date) FILTER (WHERE logged_at >= DATE_TRUNC('week', CURRENT_DATE)),
		COUNT(DISTINCT logged_at::date) FILTER (WHERE logged_at >= DATE_TRUNC('month', CURRENT_DATE)),
		COUNT(DISTINCT logged_at::date)
	FROM user_food_logs
	WHERE user_id = $1
	`
	err = s.db.QueryRow(ctx, query, userID).Scan(
		&st.TodayLogged, &st.DaysThisWeek, &st.DaysThisMonth, &st.TotalDaysLogged,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get food log stats: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM workouts
		WHERE user_id = $1 AND performed_at >= DATE_TRUNC('week', CURRENT_DATE)
	`, userID).Scan(&st.WorkoutsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to get workout stats: %w", err)
	}

	foodRec, err := s.streakService.GetRecord(ctx, userID, streak.DomainFood)
	if err != nil {
		return nil, err
	}
	st.FoodMaxStreak = foodRec.MaxStreak
	st.FreezesLeft = foodRec.Allowance
	if st.FoodStreak, err = s.streakService.GetCurrentStreak(ctx, userID, streak.DomainFood); err != nil {
		return nil, err
	}

	exRec, err := s.streakService.GetRecord(ctx, userID, streak.DomainExercise)
	if err != nil {
		return nil, err
	}
	st.ExerciseMaxStreak = exRec.MaxStreak
	if st.ExerciseStreak, err = s.streakService.GetCurrentStreak(ctx, userID, streak.DomainExercise); err != nil {
		return nil, err
	}

	return st, nil
}

// GetDaysLogged reports distinct food-log days over a period, backing the
// weekly and monthly stat cards.
func (s *UserService) GetDaysLogged(ctx context.Context, clerkID string, period string) (*stats.DaysStat, error) {
	userID, err := s.resolveUserID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var trunc string
	var totalDays int
	switch period {
	case "week":
		trunc, totalDays = "week", 7
	case "month":
		trunc = "month"
		totalDays = time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	case "year":
		trunc, totalDays = "year", 365
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}

	query := `
	SELECT COUNT(DISTINCT logged_at::date)
	FROM user_food_logs
	WHERE user_id = $1 AND logged_at >= DATE_TRUNC('` + trunc + `', CURRENT_DATE)
	`

	stat := &stats.DaysStat{Period: period, TotalDays: totalDays}
	if err := s.db.QueryRow(ctx, query, userID).Scan(&stat.DaysLogged); err != nil {
		return nil, fmt.Errorf("failed to get %s stats: %w", period, err)
	}
	return stat, nil
}

func (s *UserService) resolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
