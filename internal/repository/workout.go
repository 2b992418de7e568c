package repository

import (
	"context"
	"fmt"

	"fitpair-backend/internal/models"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgWorkoutRepository handles database operations for workouts
type PgWorkoutRepository struct {
	db *pgxpool.Pool
}

// NewPgWorkoutRepository creates a new workout repository
func NewPgWorkoutRepository(db *pgxpool.Pool) *PgWorkoutRepository {
	return &PgWorkoutRepository{db: db}
}

// Create creates a new workout
func (r *PgWorkoutRepository) Create(ctx context.Context, w *models.Workout) error {
	exercises, err := json.Marshal(w.Exercises)
	if err != nil {
		return fmt.Errorf("failed to encode exercises: %w", err)
	}

	query := `
		INSERT INTO workouts (id, user_id, name, date, exercises, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.Exec(ctx, query, w.ID, w.UserID, w.Name, w.Date, exercises, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create workout: %w", err)
	}
	return nil
}

// ListByUser retrieves all workouts of a user
func (r *PgWorkoutRepository) ListByUser(ctx context.Context, userID string) ([]*models.Workout, error) {
	query := `
		SELECT id, user_id, name, date, exercises, created_at
		FROM workouts
		WHERE user_id = $1
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get workouts: %w", err)
	}
	defer rows.Close()

	workouts := []*models.Workout{}
	for rows.Next() {
		var w models.Workout
		var exercises []byte
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Date, &exercises, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout: %w", err)
		}
		if err := json.Unmarshal(exercises, &w.Exercises); err != nil {
			return nil, fmt.Errorf("failed to decode exercises of workout %s: %w", w.ID, err)
		}
		workouts = append(workouts, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating workouts: %w", err)
	}
	return workouts, nil
}
