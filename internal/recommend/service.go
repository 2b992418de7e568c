// Package recommend produces workout partner recommendations: it gathers the
// candidate pool, asks the generative model to rank it, parses the answer and
// applies the gym match rule.
package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/gemini"
	"fitpair-backend/internal/metrics"
	"fitpair-backend/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	outcomeAI              = "ai"
	outcomeFallback        = "fallback"
	outcomeBreakerFallback = "breaker_fallback"
	outcomeCached          = "cached"
)

// Generator produces text for a prompt
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Cache stores finished recommendation lists. Keys are derived from the
// requester, the candidate pool and the gym policy, so any change to them
// misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Recommendation, bool, error)
	Set(ctx context.Context, key string, items []models.Recommendation) error
}

// Options tunes the service
type Options struct {
	GymPolicy string
	// Timeout bounds the model call, retries included.
	Timeout time.Duration
	// Cache is optional.
	Cache Cache
}

// Service runs the recommendation pipeline
type Service struct {
	gatherer  *CandidateGatherer
	ai        Generator
	cache     Cache
	gymPolicy string
	timeout   time.Duration
}

// NewService creates a new recommendation service
func NewService(gatherer *CandidateGatherer, ai Generator, opts Options) *Service {
	if opts.GymPolicy == "" {
		opts.GymPolicy = config.GymPolicyPrefer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Service{
		gatherer:  gatherer,
		ai:        ai,
		cache:     opts.Cache,
		gymPolicy: opts.GymPolicy,
		timeout:   opts.Timeout,
	}
}

// Recommend returns the recommended partners of userID. Errors are *Error.
func (s *Service) Recommend(ctx context.Context, userID string) ([]models.Recommendation, error) {
	items, outcome, err := s.recommend(ctx, userID)
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.RecommendationRequests.WithLabelValues(outcome).Inc()
	return items, err
}

func (s *Service) recommend(ctx context.Context, userID string) ([]models.Recommendation, string, error) {
	requester, pool, err := s.gatherer.Gather(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	metrics.RecommendationCandidates.Observe(float64(len(pool)))

	prompt, err := BuildPrompt(requester, pool)
	if err != nil {
		return nil, "", &Error{Kind: KindInternal, Message: "Error fetching recommendations", Err: err}
	}

	key := cacheKey(s.gymPolicy, prompt)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to read recommendation cache")
		} else if ok {
			return cached, outcomeCached, nil
		}
	}

	aiCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := outcomeAI
	var items []models.Recommendation

	text, err := s.ai.GenerateContent(aiCtx, prompt)
	switch {
	case errors.Is(err, gemini.ErrCircuitOpen):
		log.Warn().Str("user_id", userID).Msg("AI circuit open, using fallback recommendations")
		items = Fallback(pool)
		outcome = outcomeBreakerFallback
	case err != nil:
		return nil, "", classifyAIError(err)
	default:
		log.Debug().Str("user_id", userID).Str("raw", text).Msg("Raw AI response")

		items, err = ParseResponse(text)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("raw", text).Msg("Failed to parse AI response")
			return nil, "", err
		}
		if len(items) == 0 {
			items = Fallback(pool)
			outcome = outcomeFallback
		} else {
			attachUserIDs(items, pool)
		}
	}

	before := len(items)
	items = FilterByGym(items, requester.Gym(), s.gymPolicy)

	log.Info().
		Str("user_id", userID).
		Int("candidates", len(pool)).
		Int("recommended", before).
		Int("gym_matches", len(items)).
		Str("outcome", outcome).
		Msg("Recommendations built")

	if s.cache != nil && outcome != outcomeBreakerFallback {
		if err := s.cache.Set(ctx, key, items); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to write recommendation cache")
		}
	}

	return items, outcome, nil
}

// cacheKey covers every input of the pipeline: the prompt carries the
// requester and the pool, the policy drives the final filter
func cacheKey(gymPolicy, prompt string) string {
	sum := sha256.Sum256([]byte(gymPolicy + "\n" + prompt))
	return hex.EncodeToString(sum[:])
}

func classifyAIError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: "Gemini API request timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindInternal, Message: "Error fetching recommendations", Err: err}
	case errors.Is(err, gemini.ErrNoCandidates):
		return &Error{Kind: KindUpstreamUnavailable, Message: "Gemini API response does not contain candidates", Err: err}
	default:
		return &Error{Kind: KindUpstreamUnavailable, Message: "Error calling Gemini API", Err: err}
	}
}

// attachUserIDs fills in the user id of model items by email so the client
// can act on them
func attachUserIDs(items []models.Recommendation, pool []*models.UserProfile) {
	byEmail := make(map[string]string, len(pool))
	for _, u := range pool {
		if u.Email != "" {
			byEmail[strings.ToLower(u.Email)] = u.UserID
		}
	}
	for i := range items {
		if items[i].UserID != "" {
			continue
		}
		if id, ok := byEmail[strings.ToLower(items[i].Email)]; ok {
			items[i].UserID = id
		}
	}
}
