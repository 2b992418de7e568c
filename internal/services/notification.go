package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrMessageRequired is returned for empty notifications
var ErrMessageRequired = errors.New("message is required")

// CreateNotificationRequest represents the body of a notification save
type CreateNotificationRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// NotificationService stores notifications and delivers events to users,
// live over the hub or through push when they are offline
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	hub           *NotificationHub
	pusher        Pusher
}

// NewNotificationService creates a new notification service. pusher may be nil.
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	hub *NotificationHub,
	pusher Pusher,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		hub:           hub,
		pusher:        pusher,
	}
}

// CreateNotification stores a notification for the user with a server
// timestamp and delivers it
func (s *NotificationService) CreateNotification(ctx context.Context, userID, message string) (*models.Notification, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrMessageRequired
	}

	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}

	s.Deliver(ctx, userID, WSMessage{Type: MessageNotification, Message: message, Data: n}, message)

	return n, nil
}

// ListNotifications returns the user's notifications newest first
func (s *NotificationService) ListNotifications(ctx context.Context, userID string) ([]*models.Notification, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// Deliver sends msg over the live connection of userID, falling back to a push
// alert when the user is offline. Failures are logged, never returned.
func (s *NotificationService) Deliver(ctx context.Context, userID string, msg WSMessage, alert string) {
	if s.hub != nil {
		err := s.hub.SendToUser(userID, msg)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrNotConnected) {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to send live event")
		}
	}

	if s.pusher == nil || alert == "" {
		return
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load user for push")
		return
	}
	if user.PushToken == nil || *user.PushToken == "" {
		return
	}

	if err := s.pusher.Push(ctx, *user.PushToken, alert); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to push notification")
		if errors.Is(err, ErrDeviceTokenInvalid) {
			if err := s.users.UpdatePushToken(ctx, userID, nil); err != nil {
				log.Error().Err(err).Str("user_id", userID).Msg("Failed to clear push token")
			}
		}
		return
	}

	log.Debug().Str("user_id", userID).Msg("Push notification sent")
}
