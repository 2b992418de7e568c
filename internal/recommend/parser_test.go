package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain json untouched", in: `[{"email":"a@x.com"}]`, want: `[{"email":"a@x.com"}]`},
		{name: "json fence", in: "```json\n[{\"email\":\"a@x.com\"}]\n```", want: `[{"email":"a@x.com"}]`},
		{name: "bare fence", in: "```\n[]\n```", want: `[]`},
		{name: "fence without newline", in: "```json[]```", want: `[]`},
		{name: "surrounding whitespace", in: "  \n[]\n\t", want: `[]`},
		{name: "prose", in: "Sorry, I cannot help.", want: "Sorry, I cannot help."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestStripCodeFences_RoundTrip(t *testing.T) {
	payloads := []string{`[]`, `[{"email":"a@x.com","reason":"same gym"}]`, `[{"age":30},{"age":"31"}]`}
	for _, p := range payloads {
		assert.Equal(t, p, StripCodeFences("```json\n"+p+"\n```"))
		assert.Equal(t, p, StripCodeFences(p), "unfenced text is a no-op")
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("should read all fields", func(t *testing.T) {
		items, err := ParseResponse(`[{"email":"b@x.com","username":"bob","age":31,"gymName":"Gold's Gym","bio":"lifts","reason":"Same gym"}]`)
		require.NoError(t, err)
		require.Len(t, items, 1)

		item := items[0]
		assert.Equal(t, "b@x.com", item.Email)
		assert.Equal(t, "bob", item.Username)
		require.NotNil(t, item.Age)
		assert.Equal(t, 31, *item.Age)
		assert.Equal(t, "Gold's Gym", item.GymName)
		assert.Equal(t, "lifts", item.Bio)
		assert.Equal(t, "Same gym", item.Reason)
	})

	t.Run("should accept age as string and tolerate missing fields", func(t *testing.T) {
		items, err := ParseResponse("```json\n[{\"email\":\"c@x.com\",\"age\":\"27\"},{\"username\":\"dee\"}]\n```")
		require.NoError(t, err)
		require.Len(t, items, 2)

		require.NotNil(t, items[0].Age)
		assert.Equal(t, 27, *items[0].Age)
		assert.Empty(t, items[0].GymName)
		assert.Nil(t, items[1].Age)
		assert.Equal(t, "dee", items[1].Username)
	})

	t.Run("should ignore unusable field values", func(t *testing.T) {
		items, err := ParseResponse(`[{"email":null,"age":"unknown","bio":{"text":"x"}}]`)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].Email)
		assert.Nil(t, items[0].Age)
		assert.Empty(t, items[0].Bio)
	})

	t.Run("should accept an empty array", func(t *testing.T) {
		items, err := ParseResponse(" [] ")
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestParseResponse_Malformed(t *testing.T) {
	inputs := map[string]string{
		"prose":          "I could not find any partners for this user.",
		"object root":    `{}`,
		"scalar root":    `42`,
		"null root":      `null`,
		"trailing comma": `[{"email":"a@x.com"},]`,
		"scalar element": `[1, 2]`,
		"null element":   `[null]`,
		"truncated":      `[{"email":"a@x.com"`,
		"empty":          "",
	}

	for name, raw := range inputs {
		t.Run(name, func(t *testing.T) {
			items, err := ParseResponse(raw)
			require.Error(t, err)
			assert.Nil(t, items)

			var recErr *Error
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, KindMalformedResponse, recErr.Kind)
			assert.Equal(t, raw, recErr.Raw)
			assert.Equal(t, 500, recErr.StatusCode())
		})
	}
}
