package repository

import (
	"context"
	"errors"
	"fmt"

	"fitpair-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, COALESCE(email, ''), COALESCE(username, ''), age, school, go_to_gym, gym_name, bio,
		profile_picture, push_token, created_at, updated_at`

// PgUserRepository handles database operations for user profiles
type PgUserRepository struct {
	db *pgxpool.Pool
}

// NewPgUserRepository creates a new user repository
func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.UserProfile, error) {
	var u models.UserProfile
	err := row.Scan(
		&u.UserID, &u.Email, &u.Username, &u.Age, &u.School, &u.GoToGym, &u.GymName, &u.Bio,
		&u.ProfilePicture, &u.PushToken, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID retrieves a user by ID
func (r *PgUserRepository) GetByID(ctx context.Context, id string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves the first user with the given email
func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 ORDER BY created_at LIMIT 1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// List retrieves all users in insertion order
func (r *PgUserRepository) List(ctx context.Context) ([]*models.UserProfile, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.UserProfile{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// Upsert creates the profile or merges the present fields into it
func (r *PgUserRepository) Upsert(ctx context.Context, u *models.ProfileUpdate) error {
	query := `
		INSERT INTO users (id, email, username, age, school, go_to_gym, gym_name, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			email      = COALESCE(EXCLUDED.email, users.email),
			username   = COALESCE(EXCLUDED.username, users.username),
			age        = COALESCE(EXCLUDED.age, users.age),
			school     = COALESCE(EXCLUDED.school, users.school),
			go_to_gym  = COALESCE(EXCLUDED.go_to_gym, users.go_to_gym),
			gym_name   = COALESCE(EXCLUDED.gym_name, users.gym_name),
			bio        = COALESCE(EXCLUDED.bio, users.bio),
			updated_at = now()
	`
	_, err := r.db.Exec(ctx, query,
		u.UserID, u.Email, u.Username, u.Age, u.School, u.GoToGym, u.GymName, u.Bio,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// UpdateProfilePicture sets the profile picture URL of a user
func (r *PgUserRepository) UpdateProfilePicture(ctx context.Context, userID, url string) error {
	query := `UPDATE users SET profile_picture = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, url, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile picture: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *PgUserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	return nil
}
