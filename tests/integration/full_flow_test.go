package integration

import (
	"context"
	"testing"
	"time"

	"calTrackAPI/internal/cache"
	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/exercise"
	"calTrackAPI/internal/types/foodlog"
	"calTrackAPI/internal/user"
	"calTrackAPI/services"
	"calTrackAPI/tests/helpers"
)

// TestFoodLoggingFlow walks the main product loop: provision a user, log
// meals, watch the streak move, delete a log and watch the streak recompute.
func TestFoodLoggingFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	statsCache := cache.New(1024*1024, time.Minute)
	streakService := services.NewStreakService(pool)
	notificationService := services.NewNotificationService(pool, nil)
	userService := services.NewUserService(pool, streakService, statsCache)
	foodLogService := services.NewFoodLogService(pool, streakService, notificationService)

	ctx := context.Background()
	clerkID := "user_test_flow_" + time.Now().Format("20060102150405")

	created, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testflow@example.com",
		Username:  "testflow",
		FirstName: "Test",
		LastName:  "Flow",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	userID, err := streakService.ResolveUserID(ctx, clerkID)
	if err != nil {
		t.Fatalf("failed to resolve user id: %v", err)
	}
	if userID.String() != created.ID {
		t.Fatalf("resolved id %s does not match created id %s", userID, created.ID)
	}

	// First meal of the day starts a streak of 1.
	entry, err := foodLogService.AddFoodLog(ctx, clerkID, &foodlog.CreateFoodLogRequest{
		Name:     "oatmeal",
		MealType: foodlog.MealBreakfast,
		Calories: 350,
		ProteinG: 12,
		CarbsG:   60,
		FatG:     6,
	})
	if err != nil {
		t.Fatalf("failed to add food log: %v", err)
	}

	current, err := streakService.GetCurrentStreak(ctx, userID, streak.DomainFood)
	if err != nil {
		t.Fatalf("failed to get streak: %v", err)
	}
	if current != 1 {
		t.Errorf("streak after first log = %d, want 1", current)
	}

	// A second meal the same day does not double count.
	if _, err := foodLogService.AddFoodLog(ctx, clerkID, &foodlog.CreateFoodLogRequest{
		Name:     "salad",
		MealType: foodlog.MealLunch,
		Calories: 420,
	}); err != nil {
		t.Fatalf("failed to add second food log: %v", err)
	}

	current, err = streakService.GetCurrentStreak(ctx, userID, streak.DomainFood)
	if err != nil {
		t.Fatalf("failed to get streak: %v", err)
	}
	if current != 1 {
		t.Errorf("streak after same-day second log = %d, want 1", current)
	}

	summary, err := foodLogService.GetDailySummary(ctx, clerkID, time.Now())
	if err != nil {
		t.Fatalf("failed to get daily summary: %v", err)
	}
	if len(summary.Logs) != 2 {
		t.Errorf("daily summary has %d logs, want 2", len(summary.Logs))
	}
	if summary.TotalCalories != 770 {
		t.Errorf("total calories = %v, want 770", summary.TotalCalories)
	}

	// Deleting one of today's logs keeps the day counted; the other log
	// still qualifies it.
	if err := foodLogService.DeleteFoodLog(ctx, clerkID, entry.ID); err != nil {
		t.Fatalf("failed to delete food log: %v", err)
	}

	current, err = streakService.GetCurrentStreak(ctx, userID, streak.DomainFood)
	if err != nil {
		t.Fatalf("failed to get streak after delete: %v", err)
	}
	if current != 1 {
		t.Errorf("streak after partial delete = %d, want 1", current)
	}
}

// TestExerciseStreakFlow checks the workout path feeds the exercise streak and
// deletion forces a recompute back to zero.
func TestExerciseStreakFlow(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	notificationService := services.NewNotificationService(pool, nil)
	exerciseService := services.NewExerciseService(pool, streakService, notificationService)
	statsCache := cache.New(1024*1024, time.Minute)
	userService := services.NewUserService(pool, streakService, statsCache)

	ctx := context.Background()
	clerkID := "user_test_exercise_" + time.Now().Format("20060102150405")

	if _, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testexercise@example.com",
		Username:  "testexercise",
		FirstName: "Test",
		LastName:  "Exercise",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	userID, err := streakService.ResolveUserID(ctx, clerkID)
	if err != nil {
		t.Fatalf("failed to resolve user id: %v", err)
	}

	workout, err := exerciseService.AddWorkout(ctx, clerkID, &exercise.CreateWorkoutRequest{
		Name:            "push day",
		DurationMinutes: 45,
		CaloriesBurned:  300,
	})
	if err != nil {
		t.Fatalf("failed to add workout: %v", err)
	}

	current, err := streakService.GetCurrentStreak(ctx, userID, streak.DomainExercise)
	if err != nil {
		t.Fatalf("failed to get exercise streak: %v", err)
	}
	if current != 1 {
		t.Errorf("exercise streak = %d, want 1", current)
	}

	// Deleting the only workout today leaves no qualifying activity; the
	// recompute drops the streak to zero.
	if err := exerciseService.DeleteWorkout(ctx, clerkID, workout.ID); err != nil {
		t.Fatalf("failed to delete workout: %v", err)
	}

	current, err = streakService.GetCurrentStreak(ctx, userID, streak.DomainExercise)
	if err != nil {
		t.Fatalf("failed to get streak after delete: %v", err)
	}
	if current != 0 {
		t.Errorf("exercise streak after delete = %d, want 0", current)
	}
}

// TestStatsAggregates checks the dashboard numbers over the logged data.
func TestStatsAggregates(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	streakService := services.NewStreakService(pool)
	notificationService := services.NewNotificationService(pool, nil)
	statsCache := cache.New(1024*1024, time.Minute)
	userService := services.NewUserService(pool, streakService, statsCache)
	foodLogService := services.NewFoodLogService(pool, streakService, notificationService)

	ctx := context.Background()
	clerkID := "user_test_stats_" + time.Now().Format("20060102150405")

	if _, err := userService.CreateUser(ctx, &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "teststats@example.com",
		Username:  "teststats",
		FirstName: "Test",
		LastName:  "Stats",
	}); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	if _, err := foodLogService.AddFoodLog(ctx, clerkID, &foodlog.CreateFoodLogRequest{
		Name:     "toast",
		MealType: foodlog.MealBreakfast,
		Calories: 200,
	}); err != nil {
		t.Fatalf("failed to add food log: %v", err)
	}

	st, err := userService.GetUserStats(ctx, clerkID)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}

	if !st.TodayLogged {
		t.Error("TodayLogged should be true")
	}
	if st.FoodStreak != 1 {
		t.Errorf("FoodStreak = %d, want 1", st.FoodStreak)
	}
	if st.TotalDaysLogged != 1 {
		t.Errorf("TotalDaysLogged = %d, want 1", st.TotalDaysLogged)
	}
	if st.FreezesLeft != 3 {
		t.Errorf("FreezesLeft = %d, want 3", st.FreezesLeft)
	}
}
