package repository

import (
	"context"
	"errors"

	"fitpair-backend/internal/models"
)

var (
	// ErrNotFound is returned when a requested document does not exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a friend edge is created twice
	ErrAlreadyExists = errors.New("already exists")
)

// UserRepository stores user profiles keyed by user id
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	List(ctx context.Context) ([]*models.UserProfile, error)
	Upsert(ctx context.Context, update *models.ProfileUpdate) error
	UpdateProfilePicture(ctx context.Context, userID, url string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
}

// FriendRepository stores the friends sub-collection of each user
type FriendRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*models.FriendEdge, error)
	Exists(ctx context.Context, ownerID, friendID string) (bool, error)
	// CreatePair writes both directions of a friendship in one transaction.
	CreatePair(ctx context.Context, a, b *models.FriendEdge) error
}

// WorkoutRepository stores the workouts sub-collection of each user
type WorkoutRepository interface {
	Create(ctx context.Context, workout *models.Workout) error
	ListByUser(ctx context.Context, userID string) ([]*models.Workout, error)
}

// NotificationRepository stores the notifications sub-collection of each user
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListByUser returns notifications newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Notification, error)
}

// Store bundles the repositories of one backend
type Store struct {
	Users         UserRepository
	Friends       FriendRepository
	Workouts      WorkoutRepository
	Notifications NotificationRepository
	close         func() error
}

// Close releases the backend's connections
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
