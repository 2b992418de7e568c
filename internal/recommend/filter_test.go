package recommend

import (
	"testing"

	"fitpair-backend/internal/config"
	"fitpair-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func items(gyms ...string) []models.Recommendation {
	out := make([]models.Recommendation, 0, len(gyms))
	for i, g := range gyms {
		out = append(out, models.Recommendation{Username: string(rune('a' + i)), GymName: g})
	}
	return out
}

func TestFilterByGym(t *testing.T) {
	tests := []struct {
		name   string
		items  []models.Recommendation
		gym    string
		policy string
		want   []string
	}{
		{
			name:   "case and whitespace insensitive",
			items:  items("gold's gym ", "Planet Fitness", " GOLD'S GYM"),
			gym:    "Gold's Gym",
			policy: config.GymPolicyPrefer,
			want:   []string{"a", "c"},
		},
		{
			name:   "prefer degrades to unfiltered list",
			items:  items("Planet Fitness", "Crunch"),
			gym:    "Gold's Gym",
			policy: config.GymPolicyPrefer,
			want:   []string{"a", "b"},
		},
		{
			name:   "strict returns empty",
			items:  items("Planet Fitness", "Crunch"),
			gym:    "Gold's Gym",
			policy: config.GymPolicyStrict,
			want:   []string{},
		},
		{
			name:   "requester without gym never matches",
			items:  items("", "Crunch"),
			gym:    "  ",
			policy: config.GymPolicyStrict,
			want:   []string{},
		},
		{
			name:   "item without gym never matches",
			items:  items("", "Crunch"),
			gym:    "Crunch",
			policy: config.GymPolicyPrefer,
			want:   []string{"b"},
		},
		{
			name:   "unknown policy behaves like prefer",
			items:  items("Crunch"),
			gym:    "Gold's Gym",
			policy: "",
			want:   []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByGym(tt.items, tt.gym, tt.policy)
			names := make([]string, 0, len(got))
			for _, item := range got {
				names = append(names, item.Username)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFilterByGym_Idempotent(t *testing.T) {
	inputs := [][]models.Recommendation{
		items("Gold's Gym", "Crunch", "gold's gym"),
		items("Crunch", "Planet Fitness"),
		items(),
	}

	for _, policy := range []string{config.GymPolicyPrefer, config.GymPolicyStrict} {
		for _, in := range inputs {
			once := FilterByGym(in, "Gold's Gym", policy)
			twice := FilterByGym(once, "Gold's Gym", policy)
			assert.Equal(t, once, twice, "policy %s", policy)
		}
	}
}
