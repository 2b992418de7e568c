package services

import (
	"context"
	"fmt"
	"time"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/google/uuid"
)

// CreateWorkoutRequest represents the body of a workout save
type CreateWorkoutRequest struct {
	Name      string            `json:"name" validate:"required,max=100"`
	Date      string            `json:"date" validate:"required"`
	Exercises []models.Exercise `json:"exercises" validate:"required,dive"`
}

// WorkoutService handles workout-related business logic
type WorkoutService struct {
	workouts repository.WorkoutRepository
}

// NewWorkoutService creates a new workout service
func NewWorkoutService(workouts repository.WorkoutRepository) *WorkoutService {
	return &WorkoutService{
		workouts: workouts,
	}
}

// CreateWorkout stores a workout for the user
func (s *WorkoutService) CreateWorkout(ctx context.Context, userID string, req *CreateWorkoutRequest) (*models.Workout, error) {
	workout := &models.Workout{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      req.Name,
		Date:      req.Date,
		Exercises: req.Exercises,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.workouts.Create(ctx, workout); err != nil {
		return nil, fmt.Errorf("failed to save workout: %w", err)
	}

	return workout, nil
}

// ListWorkouts returns the workouts of a user
func (s *WorkoutService) ListWorkouts(ctx context.Context, userID string) ([]*models.Workout, error) {
	workouts, err := s.workouts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	return workouts, nil
}
