package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"calTrackAPI/internal/streak"
	"calTrackAPI/internal/types/exercise"
	"calTrackAPI/middleware"
	"calTrackAPI/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ExerciseHandler struct {
	exerciseService *services.ExerciseService
	streakService   *services.StreakService
}

func NewExerciseHandler(exerciseService *services.ExerciseService, streakService *services.StreakService) *ExerciseHandler {
	return &ExerciseHandler{
		exerciseService: exerciseService,
		streakService:   streakService,
	}
}

func (h *ExerciseHandler) AddWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req exercise.CreateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.DurationMinutes <= 0 {
		respondWithError(w, http.StatusBadRequest, "Fields 'name' and positive 'duration_minutes' are required")
		return
	}

	workout, err := h.exerciseService.AddWorkout(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, workout)
}

func (h *ExerciseHandler) AddCardioSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req exercise.CreateCardioSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Activity == "" || req.DurationMinutes <= 0 {
		respondWithError(w, http.StatusBadRequest, "Fields 'activity' and positive 'duration_minutes' are required")
		return
	}

	session, err := h.exerciseService.AddCardioSession(ctx, clerkID, &req)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, session)
}

// GetWorkouts lists workouts in the ?from/?to date range, defaulting to the
// last 30 days.
func (h *ExerciseHandler) GetWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	from, to, err := dateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	workouts, err := h.exerciseService.GetWorkouts(ctx, clerkID, from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error fetching workouts")
		return
	}

	respondWithJSON(w, http.StatusOK, workouts)
}

func (h *ExerciseHandler) GetCardioSessions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	from, to, err := dateRange(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	sessions, err := h.exerciseService.GetCardioSessions(ctx, clerkID, from, to)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Error fetching cardio sessions")
		return
	}

	respondWithJSON(w, http.StatusOK, sessions)
}

func (h *ExerciseHandler) DeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	workoutID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid workout id")
		return
	}

	if err := h.exerciseService.DeleteWorkout(ctx, clerkID, workoutID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Workout deleted"})
}

func (h *ExerciseHandler) DeleteCardioSession(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	sessionID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid cardio session id")
		return
	}

	if err := h.exerciseService.DeleteCardioSession(ctx, clerkID, sessionID); err != nil {
		respondWithError(w, http.StatusNotFound, err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Cardio session deleted"})
}

// GetStreak returns the current exercise streak plus the stored record
// details.
func (h *ExerciseHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondStreak(w, ctx, h.streakService, clerkID, streak.DomainExercise)
}

// dateRange parses ?from/?to query parameters, defaulting to the last 30
// days. to is exclusive at day granularity.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)

	if f := r.URL.Query().Get("from"); f != "" {
		parsed, err := time.Parse("2006-01-02", f)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateParam("from")
		}
		from = parsed
	}
	if t := r.URL.Query().Get("to"); t != "" {
		parsed, err := time.Parse("2006-01-02", t)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidDateParam("to")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

type errInvalidDateParam string

func (e errInvalidDateParam) Error() string {
	return "Invalid '" + string(e) + "' parameter, expected YYYY-MM-DD"
}
