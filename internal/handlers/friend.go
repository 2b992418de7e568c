package handlers

import (
	"errors"
	"net/http"

	"fitpair-backend/internal/middleware"
	"fitpair-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// FriendHandler handles friend-related HTTP requests
type FriendHandler struct {
	friendService *services.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *services.FriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// AddFriend handles POST /api/friends
func (h *FriendHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.AddFriendRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Invalid request body", err, http.StatusBadRequest)
		return
	}

	edge, err := h.friendService.AddFriend(ctx, userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrFriendRequired):
			respondError(w, "Either Friend ID or Friend Email is required", http.StatusBadRequest)
		case errors.Is(err, services.ErrSelfFriend):
			respondError(w, "You cannot add yourself as a friend", http.StatusBadRequest)
		case errors.Is(err, services.ErrAlreadyFriends):
			respondError(w, "Already friends with this user", http.StatusBadRequest)
		case errors.Is(err, services.ErrUserNotFound):
			respondError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, services.ErrFriendNotFound):
			respondError(w, "Friend not found", http.StatusNotFound)
		case errors.Is(err, services.ErrFriendEmailNotFound):
			respondError(w, "No user found with that email", http.StatusNotFound)
		default:
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to add friend")
			respondErrorDetails(w, "Error adding friend", err, http.StatusInternalServerError)
		}
		return
	}

	respondJSON(w, MessageResponse{Message: "Friend added successfully!", ID: edge.FriendID}, http.StatusOK)
}

// ListFriends handles GET /api/friends
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	friends, err := h.friendService.ListFriends(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list friends")
		respondErrorDetails(w, "Error fetching friends", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, friends, http.StatusOK)
}
