package integration

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"calTrackAPI/handlers"
	"calTrackAPI/internal/cache"
	"calTrackAPI/services"
	"calTrackAPI/tests/helpers"
)

func TestClerkWebhookLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)

	statsCache := cache.New(1024*1024, time.Minute)
	streakService := services.NewStreakService(pool)
	userService := services.NewUserService(pool, streakService, statsCache)
	webhookHandler := handlers.NewWebhookHandler(userService)

	// No secret means signature verification is skipped.
	os.Setenv("CLERK_WEBHOOK_SECRET", "")
	defer os.Unsetenv("CLERK_WEBHOOK_SECRET")

	clerkID := "user_test_" + time.Now().Format("20060102150405")

	// user.created provisions the account
	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.created", clerkID)))
	rr := httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("user.created: got status %d, want %d: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	created, err := userService.GetUserByClerkID(req.Context(), clerkID)
	if err != nil {
		t.Fatalf("user not provisioned: %v", err)
	}
	if created.Username != "testuser" {
		t.Errorf("username = %q, want %q", created.Username, "testuser")
	}
	if !created.EmailVerified {
		t.Error("email should be marked verified")
	}

	// user.updated syncs profile fields
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.updated", clerkID)))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("user.updated: got status %d, want %d", rr.Code, http.StatusOK)
	}

	updated, err := userService.GetUserByClerkID(req.Context(), clerkID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if updated.Username != "updateduser" {
		t.Errorf("username after update = %q, want %q", updated.Username, "updateduser")
	}

	// user.deleted removes the account
	req = httptest.NewRequest(http.MethodPost, "/webhooks/clerk",
		bytes.NewReader(helpers.MockClerkWebhookPayload("user.deleted", clerkID)))
	rr = httptest.NewRecorder()
	webhookHandler.HandleClerkWebhook(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("user.deleted: got status %d, want %d", rr.Code, http.StatusOK)
	}

	if _, err := userService.GetUserByClerkID(req.Context(), clerkID); err == nil {
		t.Error("user should be gone after user.deleted")
	}
}
