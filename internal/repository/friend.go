package repository

import (
	"context"
	"fmt"

	"fitpair-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgFriendRepository handles database operations for friend edges
type PgFriendRepository struct {
	db *pgxpool.Pool
}

// NewPgFriendRepository creates a new friend repository
func NewPgFriendRepository(db *pgxpool.Pool) *PgFriendRepository {
	return &PgFriendRepository{db: db}
}

// ListByUser retrieves all friend edges owned by a user
func (r *PgFriendRepository) ListByUser(ctx context.Context, userID string) ([]*models.FriendEdge, error) {
	query := `
		SELECT owner_id, friend_id, name, added_at
		FROM friends
		WHERE owner_id = $1
		ORDER BY added_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}
	defer rows.Close()

	edges := []*models.FriendEdge{}
	for rows.Next() {
		var e models.FriendEdge
		if err := rows.Scan(&e.OwnerID, &e.FriendID, &e.Name, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		edges = append(edges, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return edges, nil
}

// Exists checks if ownerID already has friendID as a friend
func (r *PgFriendRepository) Exists(ctx context.Context, ownerID, friendID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM friends WHERE owner_id = $1 AND friend_id = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, ownerID, friendID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friend existence: %w", err)
	}
	return exists, nil
}

// CreatePair inserts both directions of a friendship. Either both rows are
// written or neither is.
func (r *PgFriendRepository) CreatePair(ctx context.Context, a, b *models.FriendEdge) error {
	query := `
		INSERT INTO friends (owner_id, friend_id, name, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id, friend_id) DO NOTHING
	`
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, e := range []*models.FriendEdge{a, b} {
			result, err := tx.Exec(ctx, query, e.OwnerID, e.FriendID, e.Name, e.AddedAt)
			if err != nil {
				return fmt.Errorf("failed to create friend edge: %w", err)
			}
			if result.RowsAffected() == 0 {
				return fmt.Errorf("friend edge %s -> %s: %w", e.OwnerID, e.FriendID, ErrAlreadyExists)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create friend pair: %w", err)
	}
	return nil
}
