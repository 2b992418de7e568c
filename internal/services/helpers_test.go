package services

import (
	"context"
	"sync"
	"testing"

	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func seedUser(t *testing.T, store *repository.Store, id, email, username string) {
	t.Helper()
	update := &models.ProfileUpdate{UserID: id, Email: strPtr(email)}
	if username != "" {
		update.Username = strPtr(username)
	}
	require.NoError(t, store.Users.Upsert(context.Background(), update))
}

type delivery struct {
	userID string
	msg    WSMessage
	alert  string
}

type fakeDeliverer struct {
	mu         sync.Mutex
	deliveries []delivery
}

func (d *fakeDeliverer) Deliver(_ context.Context, userID string, msg WSMessage, alert string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, delivery{userID: userID, msg: msg, alert: alert})
}

type fakePusher struct {
	mu     sync.Mutex
	err    error
	pushes map[string]string
}

func (p *fakePusher) Push(_ context.Context, deviceToken, alert string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if p.pushes == nil {
		p.pushes = map[string]string{}
	}
	p.pushes[deviceToken] = alert
	return nil
}
