package repository

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"fitpair-backend/internal/models"
)

// NewMemoryStore returns repositories backed by process memory. Users are
// enumerated in creation order. Intended for local development and tests.
func NewMemoryStore() *Store {
	m := &memoryDB{
		users:         make(map[string]*models.UserProfile),
		friends:       make(map[string][]*models.FriendEdge),
		workouts:      make(map[string][]*models.Workout),
		notifications: make(map[string][]*models.Notification),
	}
	return &Store{
		Users:         (*memoryUsers)(m),
		Friends:       (*memoryFriends)(m),
		Workouts:      (*memoryWorkouts)(m),
		Notifications: (*memoryNotifications)(m),
	}
}

type memoryDB struct {
	mu            sync.RWMutex
	order         []string
	users         map[string]*models.UserProfile
	friends       map[string][]*models.FriendEdge
	workouts      map[string][]*models.Workout
	notifications map[string][]*models.Notification
}

type memoryUsers memoryDB

// clonePtr returns a pointer to a copy of *p so stored values never alias
// the caller's
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyUser(u *models.UserProfile) *models.UserProfile {
	c := *u
	c.Age = clonePtr(u.Age)
	c.School = clonePtr(u.School)
	c.GoToGym = clonePtr(u.GoToGym)
	c.GymName = clonePtr(u.GymName)
	c.Bio = clonePtr(u.Bio)
	c.ProfilePicture = clonePtr(u.ProfilePicture)
	c.PushToken = clonePtr(u.PushToken)
	return &c
}

func copyWorkout(w *models.Workout) *models.Workout {
	c := *w
	c.Exercises = slices.Clone(w.Exercises)
	for i := range c.Exercises {
		e := &c.Exercises[i]
		e.Sets = clonePtr(e.Sets)
		e.Reps = clonePtr(e.Reps)
		e.Weight = clonePtr(e.Weight)
		e.Duration = clonePtr(e.Duration)
	}
	return &c
}

func (m *memoryUsers) GetByID(_ context.Context, id string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return copyUser(u), nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range m.order {
		if u := m.users[id]; u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

func (m *memoryUsers) List(_ context.Context) ([]*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*models.UserProfile, 0, len(m.order))
	for _, id := range m.order {
		users = append(users, copyUser(m.users[id]))
	}
	return users, nil
}

func (m *memoryUsers) Upsert(_ context.Context, p *models.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	u, ok := m.users[p.UserID]
	if !ok {
		u = &models.UserProfile{UserID: p.UserID, CreatedAt: now}
		m.users[p.UserID] = u
		m.order = append(m.order, p.UserID)
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Age != nil {
		u.Age = clonePtr(p.Age)
	}
	if p.School != nil {
		u.School = clonePtr(p.School)
	}
	if p.GoToGym != nil {
		u.GoToGym = clonePtr(p.GoToGym)
	}
	if p.GymName != nil {
		u.GymName = clonePtr(p.GymName)
	}
	if p.Bio != nil {
		u.Bio = clonePtr(p.Bio)
	}
	u.UpdatedAt = now
	return nil
}

func (m *memoryUsers) UpdateProfilePicture(_ context.Context, userID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	u.ProfilePicture = &url
	u.UpdatedAt = time.Now()
	return nil
}

func (m *memoryUsers) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	u.PushToken = clonePtr(pushToken)
	u.UpdatedAt = time.Now()
	return nil
}

type memoryFriends memoryDB

func (m *memoryFriends) ListByUser(_ context.Context, userID string) ([]*models.FriendEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	edges := make([]*models.FriendEdge, 0, len(m.friends[userID]))
	for _, e := range m.friends[userID] {
		c := *e
		edges = append(edges, &c)
	}
	return edges, nil
}

func (m *memoryFriends) exists(ownerID, friendID string) bool {
	for _, e := range m.friends[ownerID] {
		if e.FriendID == friendID {
			return true
		}
	}
	return false
}

func (m *memoryFriends) Exists(_ context.Context, ownerID, friendID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exists(ownerID, friendID), nil
}

func (m *memoryFriends) CreatePair(_ context.Context, a, b *models.FriendEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range []*models.FriendEdge{a, b} {
		if m.exists(e.OwnerID, e.FriendID) {
			return fmt.Errorf("friend edge %s -> %s: %w", e.OwnerID, e.FriendID, ErrAlreadyExists)
		}
	}
	for _, e := range []*models.FriendEdge{a, b} {
		c := *e
		m.friends[e.OwnerID] = append(m.friends[e.OwnerID], &c)
	}
	return nil
}

type memoryWorkouts memoryDB

func (m *memoryWorkouts) Create(_ context.Context, w *models.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workouts[w.UserID] = append(m.workouts[w.UserID], copyWorkout(w))
	return nil
}

func (m *memoryWorkouts) ListByUser(_ context.Context, userID string) ([]*models.Workout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	workouts := make([]*models.Workout, 0, len(m.workouts[userID]))
	for _, w := range m.workouts[userID] {
		workouts = append(workouts, copyWorkout(w))
	}
	return workouts, nil
}

type memoryNotifications memoryDB

func (m *memoryNotifications) Create(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *n
	m.notifications[n.UserID] = append(m.notifications[n.UserID], &c)
	return nil
}

func (m *memoryNotifications) ListByUser(_ context.Context, userID string) ([]*models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notifications := make([]*models.Notification, 0, len(m.notifications[userID]))
	for _, n := range m.notifications[userID] {
		c := *n
		notifications = append(notifications, &c)
	}
	sort.SliceStable(notifications, func(i, j int) bool {
		return notifications[i].Timestamp.After(notifications[j].Timestamp)
	})
	return notifications, nil
}
