package services

import (
	"context"
	"errors"
	"fmt"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"
)

// ErrProfileNotFound is returned when the caller has no profile yet
var ErrProfileNotFound = errors.New("profile not found")

// SaveProfileRequest represents the body of a profile save. Absent fields
// keep their stored value.
type SaveProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=50"`
	Age      *int    `json:"age" validate:"omitempty,min=13,max=120"`
	School   *string `json:"school" validate:"omitempty,max=100"`
	GoToGym  *bool   `json:"goToGym"`
	GymName  *string `json:"gymName" validate:"omitempty,max=100"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
}

// ProfileService handles profile-related business logic
type ProfileService struct {
	users repository.UserRepository
}

// NewProfileService creates a new profile service
func NewProfileService(users repository.UserRepository) *ProfileService {
	return &ProfileService{
		users: users,
	}
}

// SaveProfile creates the caller's profile or merges the given fields into it
func (s *ProfileService) SaveProfile(ctx context.Context, identity *Identity, req *SaveProfileRequest) error {
	update := &models.ProfileUpdate{
		UserID:   identity.UserID,
		Username: req.Username,
		Age:      req.Age,
		School:   req.School,
		GoToGym:  req.GoToGym,
		GymName:  req.GymName,
		Bio:      req.Bio,
	}
	if identity.Email != "" {
		email := identity.Email
		update.Email = &email
	}

	if err := s.users.Upsert(ctx, update); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// GetProfile returns the caller's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// SetPushToken stores the device token used for push notifications. A nil
// token clears it.
func (s *ProfileService) SetPushToken(ctx context.Context, userID string, token *string) error {
	if err := s.users.UpdatePushToken(ctx, userID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}
