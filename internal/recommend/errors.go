package recommend

import (
	"errors"
	"net/http"
)

// Kind classifies a pipeline failure
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUpstreamUnavailable
	KindMalformedResponse
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindUpstreamUnavailable:
		return "upstream_error"
	case KindMalformedResponse:
		return "malformed"
	case KindTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is returned by the recommendation pipeline. Raw holds the model text
// for KindMalformedResponse.
type Error struct {
	Kind    Kind
	Message string
	Raw     string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status the error is reported with
func (e *Error) StatusCode() int {
	if e.Kind == KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	var recErr *Error
	if errors.As(err, &recErr) {
		return recErr.Kind
	}
	return KindInternal
}
