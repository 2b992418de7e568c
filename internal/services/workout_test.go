package services

import (
	"context"
	"testing"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkoutService(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewWorkoutService(store.Workouts)

	created, err := svc.CreateWorkout(ctx, "u1", &CreateWorkoutRequest{
		Name:      "Push day",
		Date:      "2026-10-12",
		Exercises: []models.Exercise{{Name: "Bench press", Sets: intPtr(3), Reps: intPtr(8)}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	workouts, err := svc.ListWorkouts(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, created.ID, workouts[0].ID)
	assert.Equal(t, "Bench press", workouts[0].Exercises[0].Name)

	others, err := svc.ListWorkouts(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, others)
}
