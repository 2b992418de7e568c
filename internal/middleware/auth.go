package middleware

import (
	"context"
	"net/http"
	"strings"

	"fitpair-backend/internal/services"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateJWT(token string) (*services.Identity, error)
}

// AuthMiddleware rejects requests without a bearer token with 401 and
// requests with an invalid one with 403
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				respondError(w, "Unauthorized - No token provided", http.StatusUnauthorized)
				return
			}

			identity, err := validator.ValidateJWT(token)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected invalid token")
				respondError(w, "Unauthorized - Invalid token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// WithIdentity stores the caller identity in ctx
func WithIdentity(ctx context.Context, identity *services.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// GetIdentity extracts the caller identity from context
func GetIdentity(ctx context.Context) *services.Identity {
	identity, _ := ctx.Value(identityKey).(*services.Identity)
	return identity
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.UserID
	}
	return ""
}

// UserKey keys per-user rate limits by the authenticated user id, falling back
// to the client address
func UserKey(r *http.Request) (string, error) {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID, nil
	}
	return r.RemoteAddr, nil
}

func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
