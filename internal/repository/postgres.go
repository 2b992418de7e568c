package repository

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the PostgreSQL schema expected by the Pg repositories
//
//go:embed schema.sql
var Schema string

// NewPostgresStore connects to PostgreSQL and returns the Pg-backed repositories
func NewPostgresStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		Users:         NewPgUserRepository(db),
		Friends:       NewPgFriendRepository(db),
		Workouts:      NewPgWorkoutRepository(db),
		Notifications: NewPgNotificationRepository(db),
		close: func() error {
			db.Close()
			return nil
		},
	}, nil
}
