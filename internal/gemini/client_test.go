package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{"candidates":[{"content":{"role":"model","parts":[{"text":"[{\"email\":\"a@example.com\"}]"}]}}]}`

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) (*Client, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := Config{
		BaseURL:         srv.URL,
		Model:           "gemini-test",
		APIKey:          "secret-key",
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  time.Minute,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg), &hits
}

func TestGenerateContent_Success(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret-key", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req generateRequest
		require.NoError(t, json.Unmarshal(raw, &req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		assert.Equal(t, "hello", req.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	})

	text, err := client.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, `[{"email":"a@example.com"}]`, text)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGenerateContent_NoCandidates(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty candidates", body: `{"candidates":[]}`},
		{name: "missing candidates", body: `{}`},
		{name: "candidate without parts", body: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "blocked prompt", body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.GenerateContent(context.Background(), "hello")
			assert.ErrorIs(t, err, ErrNoCandidates)
			assert.Equal(t, int32(1), hits.Load(), "should not retry")
		})
	}
}

func TestGenerateContent_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(okBody))
	})

	text, err := client.GenerateContent(context.Background(), "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, text)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGenerateContent_GivesUpAfterMaxRetries(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	})

	_, err := client.GenerateContent(context.Background(), "hello")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGenerateContent_DoesNotRetryClientErrors(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	})

	_, err := client.GenerateContent(context.Background(), "hello")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.False(t, statusErr.Temporary())
	assert.Equal(t, int32(1), hits.Load())
}

func TestGenerateContent_Timeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.GenerateContent(ctx, "hello")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateContent_BreakerOpens(t *testing.T) {
	client, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, func(c *Config) {
		c.MaxRetries = 0
		c.BreakerFailures = 2
	})

	for i := 0; i < 2; i++ {
		_, err := client.GenerateContent(context.Background(), "hello")
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
	}

	_, err := client.GenerateContent(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, int32(2), hits.Load(), "open breaker should not reach the endpoint")
}

func TestGenerateContent_TransportErrorHidesKey(t *testing.T) {
	client := NewClient(Config{
		BaseURL:    "http://127.0.0.1:1",
		Model:      "gemini-test",
		APIKey:     "secret-key",
		MaxRetries: 0,
	})

	_, err := client.GenerateContent(context.Background(), "hello")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret-key")
}
