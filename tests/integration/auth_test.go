package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"calTrackAPI/handlers"
	"calTrackAPI/internal/cache"
	"calTrackAPI/internal/user"
	"calTrackAPI/middleware"
	"calTrackAPI/services"
	"calTrackAPI/tests/helpers"
)

func TestGetProfile_Authenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	statsCache := cache.New(1024*1024, time.Minute)
	streakService := services.NewStreakService(pool)
	userService := services.NewUserService(pool, streakService, statsCache)
	userHandler := handlers.NewUserHandler(userService)

	clerkID := "user_test_" + time.Now().Format("20060102150405")
	ctx := context.Background()

	createReq := &user.CreateUserRequest{
		ClerkID:   clerkID,
		Email:     "testauth@example.com",
		Username:  "testauth",
		FirstName: "Test",
		LastName:  "Auth",
		ImageURL:  "https://example.com/image.jpg",
	}

	createdUser, err := userService.CreateUser(ctx, createReq)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	// Inject the Clerk ID directly, simulating a verified token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.ClerkIDKey, clerkID))

	rr := httptest.NewRecorder()
	userHandler.GetProfile(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var response user.User
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.ID != createdUser.ID {
		t.Errorf("id = %q, want %q", response.ID, createdUser.ID)
	}
	if response.ClerkID != clerkID {
		t.Errorf("clerkId = %q, want %q", response.ClerkID, clerkID)
	}
	if response.Email != "testauth@example.com" {
		t.Errorf("email = %q, want %q", response.Email, "testauth@example.com")
	}
}

func TestGetProfile_Unauthenticated(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	statsCache := cache.New(1024*1024, time.Minute)
	streakService := services.NewStreakService(pool)
	userService := services.NewUserService(pool, streakService, statsCache)
	userHandler := handlers.NewUserHandler(userService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	rr := httptest.NewRecorder()
	userHandler.GetProfile(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got status %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
