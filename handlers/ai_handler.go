package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"calTrackAPI/internal/types/foodlog"
	"calTrackAPI/middleware"
	"calTrackAPI/services"
)

type AIHandler struct {
	parserService *services.AIParserService
}

func NewAIHandler(parserService *services.AIParserService) *AIHandler {
	return &AIHandler{
		parserService: parserService,
	}
}

// ParseMeal turns a free-text meal description into structured items with
// estimated macros. The client reviews the suggestion and logs entries
// through the regular food log endpoint.
func (h *AIHandler) ParseMeal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req struct {
		Text     string           `json:"text"`
		MealType foodlog.MealType `json:"meal_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		respondWithError(w, http.StatusBadRequest, "Field 'text' is required")
		return
	}
	if req.MealType == "" {
		req.MealType = foodlog.MealSnack
	}

	meal, err := h.parserService.ParseMealText(ctx, req.Text)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"items":          meal.Items,
		"total_calories": meal.TotalCalories,
		"suggested_logs": meal.ToCreateRequests(req.MealType),
	})
}
