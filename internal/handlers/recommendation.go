package handlers

import (
	"context"
	"errors"
	"net/http"

	"fitpair-backend/internal/middleware"
	"fitpair-backend/internal/models"
	"fitpair-backend/internal/recommend"

	"github.com/rs/zerolog/log"
)

// Recommender produces partner recommendations for a user
type Recommender interface {
	Recommend(ctx context.Context, userID string) ([]models.Recommendation, error)
}

// RecommendationHandler handles recommendation HTTP requests
type RecommendationHandler struct {
	recommender Recommender
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommender Recommender) *RecommendationHandler {
	return &RecommendationHandler{
		recommender: recommender,
	}
}

// GetRecommendations handles GET /api/recommended
func (h *RecommendationHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	items, err := h.recommender.Recommend(ctx, userID)
	if err != nil {
		var recErr *recommend.Error
		if !errors.As(err, &recErr) {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to build recommendations")
			respondErrorDetails(w, "Error fetching recommendations", err, http.StatusInternalServerError)
			return
		}

		resp := ErrorResponse{Error: recErr.Message, RawResponse: recErr.Raw}
		if recErr.Err != nil {
			resp.Details = recErr.Err.Error()
		}
		if recErr.Kind != recommend.KindNotFound {
			log.Error().Err(err).Str("user_id", userID).Str("kind", recErr.Kind.String()).Msg("Failed to build recommendations")
		}
		respondJSON(w, resp, recErr.StatusCode())
		return
	}

	respondJSON(w, items, http.StatusOK)
}
