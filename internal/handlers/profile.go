package handlers

import (
	"errors"
	"net/http"

	"fitpair-backend/internal/middleware"
	"fitpair-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *services.ProfileService
	pictureService *services.PictureService
}

// NewProfileHandler creates a new profile handler. pictureService may be nil
// when uploads are not configured.
func NewProfileHandler(profileService *services.ProfileService, pictureService *services.PictureService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		pictureService: pictureService,
	}
}

// SaveProfile handles POST /api/profile
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := middleware.GetIdentity(ctx)

	var req services.SaveProfileRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Invalid profile", err, http.StatusBadRequest)
		return
	}

	if err := h.profileService.SaveProfile(ctx, identity, &req); err != nil {
		log.Error().Err(err).Str("user_id", identity.UserID).Msg("Failed to save profile")
		respondErrorDetails(w, "Error saving profile", err, http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", identity.UserID).Msg("Profile saved")
	respondJSON(w, MessageResponse{Message: "Profile saved successfully!"}, http.StatusOK)
}

// GetProfile handles GET /api/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	profile, err := h.profileService.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondError(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get profile")
		respondErrorDetails(w, "Error fetching profile", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, profile, http.StatusOK)
}

// UploadPicture handles POST /api/profile/picture
func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if h.pictureService == nil {
		respondError(w, "Profile picture uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	var req services.UploadPictureRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Invalid upload request", err, http.StatusBadRequest)
		return
	}

	resp, err := h.pictureService.CreateUploadURL(ctx, userID, req.ContentType)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondError(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create upload URL")
		respondErrorDetails(w, "Error creating upload URL", err, http.StatusInternalServerError)
		return
	}

	log.Info().Str("user_id", userID).Str("picture_url", resp.PictureURL).Msg("Profile picture upload URL created")
	respondJSON(w, resp, http.StatusOK)
}

// PushTokenRequest represents the body of a push token update. An empty token
// unregisters the device.
type PushTokenRequest struct {
	Token string `json:"token" validate:"omitempty,max=200"`
}

// SetPushToken handles PUT /api/profile/push-token
func (h *ProfileHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if err := decodeRequest(w, r, &req); err != nil {
		respondErrorDetails(w, "Invalid push token", err, http.StatusBadRequest)
		return
	}

	var token *string
	if req.Token != "" {
		token = &req.Token
	}

	if err := h.profileService.SetPushToken(ctx, userID, token); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			respondError(w, "Profile not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to update push token")
		respondErrorDetails(w, "Error saving push token", err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, MessageResponse{Message: "Push token saved successfully!"}, http.StatusOK)
}
