package recommend

import (
	"context"
	"errors"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"
)

// CandidateGatherer builds the candidate pool of a requester
type CandidateGatherer struct {
	users   repository.UserRepository
	friends repository.FriendRepository
}

// NewCandidateGatherer creates a new gatherer
func NewCandidateGatherer(users repository.UserRepository, friends repository.FriendRepository) *CandidateGatherer {
	return &CandidateGatherer{
		users:   users,
		friends: friends,
	}
}

// Gather returns the requester and every other user who is not already a
// friend, in store enumeration order
func (g *CandidateGatherer) Gather(ctx context.Context, userID string) (*models.UserProfile, []*models.UserProfile, error) {
	requester, err := g.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, &Error{Kind: KindNotFound, Message: "User profile not found"}
		}
		return nil, nil, &Error{Kind: KindInternal, Message: "failed to load user profile", Err: err}
	}

	edges, err := g.friends.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, &Error{Kind: KindInternal, Message: "failed to load friends", Err: err}
	}
	friendIDs := make(map[string]struct{}, len(edges))
	for _, edge := range edges {
		friendIDs[edge.FriendID] = struct{}{}
	}

	users, err := g.users.List(ctx)
	if err != nil {
		return nil, nil, &Error{Kind: KindInternal, Message: "failed to list users", Err: err}
	}

	pool := make([]*models.UserProfile, 0, len(users))
	for _, u := range users {
		if u.UserID == userID {
			continue
		}
		if _, ok := friendIDs[u.UserID]; ok {
			continue
		}
		pool = append(pool, u)
	}

	if len(pool) == 0 {
		return nil, nil, &Error{
			Kind:    KindNotFound,
			Message: "No other users found or all users are already your friends",
		}
	}

	return requester, pool, nil
}

