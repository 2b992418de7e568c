// Package gemini is a client for the Gemini generateContent endpoint.
//
// Calls are retried with exponential backoff on transient failures (transport
// errors, HTTP 429 and 5xx) and guarded by a circuit breaker that rejects calls
// while the endpoint keeps failing.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitpair-backend/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerName      = "gemini"
	maxResponseBytes = 4 << 20
)

var (
	// ErrNoCandidates is returned when the model answers without any candidate
	ErrNoCandidates = errors.New("gemini response does not contain candidates")
	// ErrCircuitOpen is returned without calling the endpoint while the breaker is open
	ErrCircuitOpen = errors.New("gemini circuit breaker is open")
)

// StatusError is returned for non-200 responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type transportError struct {
	err error
}

func (e *transportError) Error() string { return "gemini request failed: " + e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// Config holds client settings
type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	MaxRetries int
	RetryDelay time.Duration
	// BreakerFailures is the number of consecutive failed calls that opens the breaker.
	BreakerFailures uint32
	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
	HTTPClient     *http.Client
}

// Client calls the generateContent endpoint of one model
type Client struct {
	cfg        Config
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[string]
}

// NewClient creates a new Gemini client
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		// A caller hanging up says nothing about the endpoint's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})

	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		cb:         cb,
	}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// GenerateContent sends prompt as a single user turn and returns the text of
// the first candidate
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	text, err := c.cb.Execute(func() (string, error) {
		return c.generateWithRetry(ctx, prompt)
	})

	status := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.AIRequestDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		return "", fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	case err != nil:
		status = "error"
	}
	metrics.AIRequestDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	return text, err
}

func (c *Client) generateWithRetry(ctx context.Context, prompt string) (string, error) {
	policy := backoff.NewExponentialBackOff()
	if c.cfg.RetryDelay > 0 {
		policy.InitialInterval = c.cfg.RetryDelay
	}
	policy.MaxElapsedTime = 0

	var text string
	op := func() error {
		t, err := c.generate(ctx, prompt)
		if err != nil {
			if isTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		text = t
		return nil
	}

	notify := func(err error, next time.Duration) {
		metrics.AIRetries.Inc()
		log.Warn().Err(err).Dur("retry_in", next).Msg("Gemini request failed, retrying")
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.MaxRetries)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return "", err
	}
	return text, nil
}

func isTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	var tErr *transportError
	return errors.As(err, &tErr)
}

func (c *Client) endpoint() string {
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.Model))
	return u + "?" + url.Values{"key": {c.cfg.APIKey}}.Encode()
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// url.Error carries the request URL, which holds the API key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", &transportError{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", &transportError{err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	log.Debug().RawJSON("body", body).Msg("Gemini response")

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w (prompt blocked: %s)", ErrNoCandidates, result.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
