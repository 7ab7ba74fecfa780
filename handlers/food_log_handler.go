package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/foodlog"
	"calTrackAPI/middleware"
	"calTrackAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type FoodLogHandler struct {
	foodLogService *services.FoodLogService
	streakService  *services.StreakService
}

func NewFoodLogHandler(foodLogService *services.FoodLogService, streakService *services.StreakService) *FoodLogHandler {
	return &FoodLogHandler{
		foodLogService: foodLogService,
		streakService:  streakService,
	}
}

func (h *FoodLogHandler) AddFoodLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req foodlog.CreateFoodLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.MealType == "" {
		respondWithError(w, http.StatusBadRequest, "Fields 'name' and 'meal_type' are required")
		return
	}
	if req.Calories < 0 || req.ProteinG < 0 || req.CarbsG < 0 || req.FatG < 0 {
		respondWithError(w, http.StatusBadRequest, "Nutrition values must not be negative")
		return
	}

	entry, err := h.foodLogService.AddFoodLog(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, entry)
}

func (h *FoodLogHandler) DeleteFoodLog(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	logID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid food log id")
		return
	}

	if err := h.foodLogService.DeleteFoodLog(ctx, clerkID, logID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Food log deleted"})
}

// GetDailySummary returns the day's entries with macro totals. Accepts an
// optional ?date=YYYY-MM-DD, defaulting to today.
func (h *FoodLogHandler) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	date := time.Now()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid 'date' parameter, expected YYYY-MM-DD")
			return
		}
		date = parsed
	}

	summary, err := h.foodLogService.GetDailySummary(ctx, clerkID, date)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error fetching daily summary")
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetStreak returns the current food streak plus the stored record details.
func (h *FoodLogHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondStreak(w, ctx, h.streakService, clerkID, streak.DomainFood)
}

// respondStreak is shared by the food and exercise streak endpoints.
func respondStreak(w http.ResponseWriter, ctx context.Context, s *services.StreakService, clerkID string, d streak.Domain) {
	userID, err := s.ResolveUserID(ctx, clerkID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	current, err := s.GetCurrentStreak(ctx, userID, d)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error computing streak")
		return
	}
	rec, err := s.GetRecord(ctx, userID, d)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error loading streak record")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"domain":         d,
		"current_streak": current,
		"max_streak":     rec.MaxStreak,
		"allowance":      rec.Allowance,
		"last_log_date":  rec.LastLogDate,
	})
}
