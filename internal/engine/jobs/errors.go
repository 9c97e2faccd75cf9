package jobs

import (
	"errors"
	"fmt"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
)

// ErrorKind classifies upstream failures.
type ErrorKind int

const (
	KindAPI ErrorKind = iota
	KindTimeout
	KindConnection
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindDecode:
		return "decode"
	default:
		return "api"
	}
}

// APIError is returned by every Client method on failure.
type APIError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("jobmato api %s: %s: status %d: %v", e.Endpoint, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("jobmato api %s: %s: %v", e.Endpoint, e.Kind, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// KindOf returns the kind of err, classifying raw transport errors on the fly.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	switch {
	case engine.IsTimeout(err):
		return KindTimeout
	case engine.IsConnectionError(err):
		return KindConnection
	}
	return KindAPI
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool { return err != nil && KindOf(err) == KindTimeout }

// IsConnection reports whether err is an upstream connection failure.
func IsConnection(err error) bool { return err != nil && KindOf(err) == KindConnection }

// classify wraps a transport-level error into an APIError and bumps the metric for its kind.
func classify(endpoint string, err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		apiErr = &APIError{Kind: KindOf(err), Endpoint: endpoint, Err: err}
	}
	switch apiErr.Kind {
	case KindTimeout:
		engine.IncrUpstreamTimeouts()
	case KindConnection:
		engine.IncrUpstreamConnErrors()
	default:
		engine.IncrUpstreamAPIErrors()
	}
	return apiErr
}
