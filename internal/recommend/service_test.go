package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/gemini"
	"fitpair-backend/internal/models"
	"fitpair-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

type fakeAI struct {
	mu      sync.Mutex
	text    string
	err     error
	block   bool
	prompts []string
}

func (f *fakeAI) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.text, f.err
}

func (f *fakeAI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type memoryCache struct {
	items map[string][]models.Recommendation
}

func (c *memoryCache) Get(_ context.Context, key string) ([]models.Recommendation, bool, error) {
	items, ok := c.items[key]
	return items, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, items []models.Recommendation) error {
	c.items[key] = items
	return nil
}

type profile struct {
	id, email, name, gym string
	age                  int
}

func seed(t *testing.T, store *repository.Store, profiles ...profile) {
	t.Helper()
	for _, p := range profiles {
		update := &models.ProfileUpdate{
			UserID:   p.id,
			Email:    strPtr(p.email),
			Username: strPtr(p.name),
			Bio:      strPtr("likes " + p.name),
		}
		if p.gym != "" {
			update.GymName = strPtr(p.gym)
		}
		if p.age > 0 {
			update.Age = intPtr(p.age)
		}
		require.NoError(t, store.Users.Upsert(context.Background(), update))
	}
}

func befriend(t *testing.T, store *repository.Store, a, b string) {
	t.Helper()
	now := time.Now()
	require.NoError(t, store.Friends.CreatePair(context.Background(),
		&models.FriendEdge{OwnerID: a, FriendID: b, Name: b, AddedAt: now},
		&models.FriendEdge{OwnerID: b, FriendID: a, Name: a, AddedAt: now},
	))
}

func newTestService(store *repository.Store, ai Generator, opts Options) *Service {
	return NewService(NewCandidateGatherer(store.Users, store.Friends), ai, opts)
}

func TestCandidateGatherer_Gather(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Gold's Gym"},
		profile{id: "u1", email: "u1@x.com", name: "one"},
		profile{id: "friend", email: "f@x.com", name: "friend"},
		profile{id: "u2", email: "u2@x.com", name: "two"},
	)
	befriend(t, store, "me", "friend")

	g := NewCandidateGatherer(store.Users, store.Friends)

	t.Run("should exclude self and friends in store order", func(t *testing.T) {
		requester, pool, err := g.Gather(context.Background(), "me")
		require.NoError(t, err)
		assert.Equal(t, "me", requester.UserID)

		ids := make([]string, 0, len(pool))
		for _, u := range pool {
			ids = append(ids, u.UserID)
		}
		assert.Equal(t, []string{"u1", "u2"}, ids)
	})

	t.Run("should report missing requester", func(t *testing.T) {
		_, _, err := g.Gather(context.Background(), "ghost")
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestRecommend_GoldsGymScenario(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Gold's Gym", age: 30},
		profile{id: "u1", email: "u1@x.com", name: "one", gym: "gold's gym ", age: 29},
		profile{id: "u2", email: "u2@x.com", name: "two", gym: "Planet Fitness", age: 31},
		profile{id: "u3", email: "u3@x.com", name: "three", gym: "GOLD'S GYM", age: 45},
	)

	ai := &fakeAI{text: "```json\n" + `[
		{"email":"u3@x.com","username":"three","age":45,"gymName":"GOLD'S GYM","bio":"likes three","reason":"Same gym"},
		{"email":"u2@x.com","username":"two","age":"31","gymName":"Planet Fitness","bio":"likes two","reason":"Similar age"},
		{"email":"u1@x.com","username":"one","age":29,"gymName":"gold's gym ","bio":"likes one","reason":"Same gym and age"}
	]` + "\n```"}

	svc := newTestService(store, ai, Options{GymPolicy: config.GymPolicyPrefer})
	got, err := svc.Recommend(context.Background(), "me")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "three", got[0].Username, "model order is preserved")
	assert.Equal(t, "u3", got[0].UserID)
	assert.Equal(t, "one", got[1].Username)
	assert.Equal(t, "Same gym and age", got[1].Reason)

	require.Equal(t, 1, ai.calls())
	prompt := ai.prompts[0]
	assert.Contains(t, prompt, `"userId":"u1"`)
	assert.Contains(t, prompt, "EXACT SAME gym name")
	assert.Contains(t, prompt, `Current user: {"userId":"me"`)
	assert.NotContains(t, prompt, "pushToken")
}

func TestRecommend_EmptyAnswerUsesFallback(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Crunch"},
		profile{id: "u1", email: "u1@x.com", name: "one", gym: "Planet Fitness"},
		profile{id: "u2", email: "u2@x.com", name: "two", gym: " crunch"},
		profile{id: "u3", email: "u3@x.com", name: "three"},
	)

	t.Run("prefer keeps gym matches", func(t *testing.T) {
		svc := newTestService(store, &fakeAI{text: "[]"}, Options{GymPolicy: config.GymPolicyPrefer})
		got, err := svc.Recommend(context.Background(), "me")
		require.NoError(t, err)

		require.Len(t, got, 1)
		assert.Equal(t, "u2", got[0].UserID)
		assert.Equal(t, "This user might be a good match because they go to  crunch", got[0].Reason)
	})

	t.Run("fallback is deterministic", func(t *testing.T) {
		svc := newTestService(store, &fakeAI{text: "[]"}, Options{GymPolicy: config.GymPolicyPrefer})
		first, err := svc.Recommend(context.Background(), "me")
		require.NoError(t, err)
		second, err := svc.Recommend(context.Background(), "me")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestFallback(t *testing.T) {
	pool := []*models.UserProfile{
		{UserID: "a", Email: "a@x.com", Username: "ann", Age: intPtr(22), GymName: strPtr("YMCA"), Bio: strPtr("runs")},
		{UserID: "b", Email: "b@x.com", Username: "ben"},
	}

	got := Fallback(pool)
	require.Len(t, got, 2)
	assert.Equal(t, models.Recommendation{
		Email:    "a@x.com",
		Username: "ann",
		Age:      intPtr(22),
		GymName:  "YMCA",
		Bio:      "runs",
		Reason:   "This user might be a good match because they go to YMCA",
		UserID:   "a",
	}, got[0])
	assert.Equal(t, "b", got[1].UserID)
	assert.Equal(t, "This user might be a good match because they go to ", got[1].Reason)
}

func TestRecommend_ProseIsMalformedWithoutFallback(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Crunch"},
		profile{id: "u1", email: "u1@x.com", name: "one", gym: "Crunch"},
	)

	prose := "Here are some great partners for you!"
	svc := newTestService(store, &fakeAI{text: prose}, Options{})
	got, err := svc.Recommend(context.Background(), "me")
	assert.Nil(t, got)

	var recErr *Error
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, KindMalformedResponse, recErr.Kind)
	assert.Equal(t, prose, recErr.Raw)
}

func TestRecommend_NoCandidatesSkipsAI(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me"},
		profile{id: "friend", email: "f@x.com", name: "friend"},
	)

	ai := &fakeAI{text: "[]"}
	svc := newTestService(store, ai, Options{})

	t.Run("only self", func(t *testing.T) {
		lonely := repository.NewMemoryStore()
		seed(t, lonely, profile{id: "solo", email: "solo@x.com", name: "solo"})

		_, err := newTestService(lonely, ai, Options{}).Recommend(context.Background(), "solo")
		var recErr *Error
		require.ErrorAs(t, err, &recErr)
		assert.Equal(t, KindNotFound, recErr.Kind)
		assert.Equal(t, 404, recErr.StatusCode())
	})

	t.Run("everyone is a friend", func(t *testing.T) {
		befriend(t, store, "me", "friend")

		_, err := svc.Recommend(context.Background(), "me")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("unknown requester", func(t *testing.T) {
		_, err := svc.Recommend(context.Background(), "ghost")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	assert.Zero(t, ai.calls())
}

func TestRecommend_AIFailures(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Crunch"},
		profile{id: "u1", email: "u1@x.com", name: "one", gym: "Planet Fitness"},
		profile{id: "u2", email: "u2@x.com", name: "two", gym: "Crunch"},
	)

	tests := []struct {
		name string
		ai   *fakeAI
		want Kind
	}{
		{name: "no candidates", ai: &fakeAI{err: gemini.ErrNoCandidates}, want: KindUpstreamUnavailable},
		{name: "upstream status", ai: &fakeAI{err: &gemini.StatusError{StatusCode: 503}}, want: KindUpstreamUnavailable},
		{name: "timeout", ai: &fakeAI{block: true}, want: KindTimeout},
		{name: "cancelled", ai: &fakeAI{err: fmt.Errorf("wrapped: %w", context.Canceled)}, want: KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(store, tt.ai, Options{Timeout: 20 * time.Millisecond})
			got, err := svc.Recommend(context.Background(), "me")
			assert.Nil(t, got)
			assert.Equal(t, tt.want, KindOf(err))
			assert.Equal(t, 500, err.(*Error).StatusCode())
		})
	}

	t.Run("open breaker uses fallback", func(t *testing.T) {
		ai := &fakeAI{err: fmt.Errorf("%w: circuit breaker is open", gemini.ErrCircuitOpen)}
		svc := newTestService(store, ai, Options{GymPolicy: config.GymPolicyStrict})
		got, err := svc.Recommend(context.Background(), "me")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "u2", got[0].UserID)
	})
}

func TestRecommend_Cache(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "me", email: "me@x.com", name: "me", gym: "Crunch"},
		profile{id: "u1", email: "u1@x.com", name: "one", gym: "Crunch"},
	)

	cache := &memoryCache{items: map[string][]models.Recommendation{}}
	ai := &fakeAI{text: `[{"email":"u1@x.com","username":"one","gymName":"Crunch","reason":"Same gym"}]`}
	svc := newTestService(store, ai, Options{Cache: cache})

	first, err := svc.Recommend(context.Background(), "me")
	require.NoError(t, err)
	second, err := svc.Recommend(context.Background(), "me")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, ai.calls())
	assert.Len(t, cache.items, 1)

	t.Run("breaker fallback is not cached", func(t *testing.T) {
		empty := &memoryCache{items: map[string][]models.Recommendation{}}
		svc := newTestService(store, &fakeAI{err: gemini.ErrCircuitOpen}, Options{Cache: empty})

		_, err := svc.Recommend(context.Background(), "me")
		require.NoError(t, err)
		assert.Empty(t, empty.items)
	})
}

func TestRecommend_CacheMissesWhenPoolChanges(t *testing.T) {
	store := repository.NewMemoryStore()
	seed(t, store,
		profile{id: "a", email: "a@x.com", name: "A", gym: "Gold's Gym"},
		profile{id: "b", email: "b@x.com", name: "B", gym: "Planet Fitness"},
	)

	cache := &memoryCache{items: map[string][]models.Recommendation{}}
	ai := &fakeAI{text: `[]`}
	svc := newTestService(store, ai, Options{Cache: cache})

	first, err := svc.Recommend(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "b", first[0].UserID)

	t.Run("should serve a same-gym user who joined later", func(t *testing.T) {
		seed(t, store, profile{id: "c", email: "c@x.com", name: "C", gym: "gold's gym"})

		got, err := svc.Recommend(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c", got[0].UserID)
		assert.Equal(t, 2, ai.calls())
	})

	t.Run("should miss when a candidate changes gym", func(t *testing.T) {
		require.NoError(t, store.Users.Upsert(context.Background(), &models.ProfileUpdate{
			UserID:  "b",
			GymName: strPtr("Gold's Gym"),
		}))

		got, err := svc.Recommend(context.Background(), "a")
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Equal(t, 3, ai.calls())
	})

	t.Run("should miss when the requester befriends a candidate", func(t *testing.T) {
		befriend(t, store, "a", "c")

		got, err := svc.Recommend(context.Background(), "a")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "b", got[0].UserID)
		assert.Equal(t, 4, ai.calls())
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindTimeout, KindOf(fmt.Errorf("wrap: %w", &Error{Kind: KindTimeout})))
}
