package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const unknownUserName = "Unknown User"

var (
	ErrFriendRequired      = errors.New("either friend id or friend email is required")
	ErrUserNotFound        = errors.New("user not found")
	ErrFriendNotFound      = errors.New("friend not found")
	ErrFriendEmailNotFound = errors.New("no user found with that email")
	ErrSelfFriend          = errors.New("you cannot add yourself as a friend")
	ErrAlreadyFriends      = errors.New("already friends with this user")
)

// AddFriendRequest represents a request to add a friend by id or email
type AddFriendRequest struct {
	FriendID    string `json:"friendId" validate:"omitempty,max=128"`
	FriendEmail string `json:"friendEmail" validate:"omitempty,max=254"`
}

// Deliverer sends an event to a user
type Deliverer interface {
	Deliver(ctx context.Context, userID string, msg WSMessage, alert string)
}

// FriendService handles friend-related business logic
type FriendService struct {
	users     repository.UserRepository
	friends   repository.FriendRepository
	deliverer Deliverer
}

// NewFriendService creates a new friend service. deliverer may be nil.
func NewFriendService(
	users repository.UserRepository,
	friends repository.FriendRepository,
	deliverer Deliverer,
) *FriendService {
	return &FriendService{
		users:     users,
		friends:   friends,
		deliverer: deliverer,
	}
}

// AddFriend creates a symmetric friendship between the caller and the user
// named by req. The edge stored under the caller is returned.
func (s *FriendService) AddFriend(ctx context.Context, userID string, req *AddFriendRequest) (*models.FriendEdge, error) {
	friendID := strings.TrimSpace(req.FriendID)
	friendEmail := strings.TrimSpace(req.FriendEmail)
	if friendID == "" && friendEmail == "" {
		return nil, ErrFriendRequired
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	friend, err := s.findFriend(ctx, friendID, friendEmail)
	if err != nil {
		return nil, err
	}

	if friend.UserID == userID {
		return nil, ErrSelfFriend
	}

	exists, err := s.friends.Exists(ctx, userID, friend.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if exists {
		return nil, ErrAlreadyFriends
	}

	now := time.Now().UTC()
	mine := &models.FriendEdge{
		OwnerID:  userID,
		FriendID: friend.UserID,
		Name:     displayName(friend),
		AddedAt:  now,
	}
	theirs := &models.FriendEdge{
		OwnerID:  friend.UserID,
		FriendID: userID,
		Name:     displayName(user),
		AddedAt:  now,
	}

	if err := s.friends.CreatePair(ctx, mine, theirs); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyFriends
		}
		return nil, fmt.Errorf("failed to add friend: %w", err)
	}

	if s.deliverer != nil {
		s.deliverer.Deliver(ctx, friend.UserID, WSMessage{
			Type: MessageFriendAdded,
			Data: theirs,
		}, theirs.Name+" added you as a friend")
	}

	log.Info().
		Str("user_id", userID).
		Str("friend_id", friend.UserID).
		Msg("Friend added")

	return mine, nil
}

func (s *FriendService) findFriend(ctx context.Context, friendID, friendEmail string) (*models.UserProfile, error) {
	if friendID != "" {
		friend, err := s.users.GetByID(ctx, friendID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrFriendNotFound
			}
			return nil, fmt.Errorf("failed to get friend: %w", err)
		}
		return friend, nil
	}

	friend, err := s.users.GetByEmail(ctx, friendEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFriendEmailNotFound
		}
		return nil, fmt.Errorf("failed to find friend by email: %w", err)
	}
	return friend, nil
}

// ListFriends returns the friend edges of a user
func (s *FriendService) ListFriends(ctx context.Context, userID string) ([]*models.FriendEdge, error) {
	edges, err := s.friends.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return edges, nil
}

func displayName(u *models.UserProfile) string {
	if u.Username == "" {
		return unknownUserName
	}
	return u.Username
}
