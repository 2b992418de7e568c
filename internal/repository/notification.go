package repository

import (
	"context"
	"fmt"

	"fitpair-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgNotificationRepository handles database operations for notifications
type PgNotificationRepository struct {
	db *pgxpool.Pool
}

// NewPgNotificationRepository creates a new notification repository
func NewPgNotificationRepository(db *pgxpool.Pool) *PgNotificationRepository {
	return &PgNotificationRepository{db: db}
}

// Create creates a new notification
func (r *PgNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, message, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, n.ID, n.UserID, n.Message, n.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListByUser retrieves notifications of a user, newest first
func (r *PgNotificationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Notification, error) {
	query := `
		SELECT id, user_id, message, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}
