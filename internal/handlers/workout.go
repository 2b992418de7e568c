package handlers

import (
	"net/http"

	"fitpair-backend/internal/middleware"
	"fitpair-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// WorkoutHandler handles workout-related HTTP requests
type WorkoutHandler struct {
	workoutService *services.WorkoutService
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(workoutService *services.WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService: workoutService,
	}
}

// CreateWorkout handles POST /api/workouts
func (h *WorkoutHandler) CreateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateWorkoutRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Name, date, and exercises are required", err, http.StatusBadRequest)
		return
	}

	workout, err := h.workoutService.CreateWorkout(ctx, userID, &req)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save workout")
		respondErrorDetails(w, "Error saving workout", err, http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Str("workout_id", workout.ID).Msg("Workout saved")
	respondJSON(w, MessageResponse{Message: "Workout saved successfully!", ID: workout.ID}, http.StatusOK)
}

// ListWorkouts handles GET /api/workouts
func (h *WorkoutHandler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	workouts, err := h.workoutService.ListWorkouts(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list workouts")
		respondErrorDetails(w, "Error fetching workouts", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, workouts, http.StatusOK)
}
