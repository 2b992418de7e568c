package handlers

import (
	"errors"
	"net/http"

	"fitpair-backend/internal/middleware"
	"fitpair-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// CreateNotification handles POST /api/notifications
func (h *NotificationHandler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateNotificationRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Message is required", err, http.StatusBadRequest)
		return
	}

	n, err := h.notificationService.CreateNotification(ctx, userID, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrMessageRequired) {
			respondError(w, "Message is required", http.StatusBadRequest)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to save notification")
		respondErrorDetails(w, "Error saving notification", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, MessageResponse{Message: "Notification saved successfully!", ID: n.ID}, http.StatusOK)
}

// ListNotifications handles GET /api/notifications
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	notifications, err := h.notificationService.ListNotifications(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list notifications")
		respondErrorDetails(w, "Error fetching notifications", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, notifications, http.StatusOK)
}
