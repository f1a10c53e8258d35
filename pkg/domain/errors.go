package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned when a channel is opened without an endpoint or identity.
	ErrConfiguration = errors.New("configuration error")

	// ErrParse marks a push frame that could not be decoded.
	ErrParse = errors.New("parse error")

	// ErrValidation is returned when a RequestSpec is rejected before any network call.
	ErrValidation = errors.New("validation error")

	// ErrRequestFailed is returned when the request transport fails or answers non-2xx.
	ErrRequestFailed = errors.New("request failed")

	// ErrPersistence marks a durable-storage write failure.
	ErrPersistence = errors.New("persistence error")

	// ErrStateNotFound is returned by a StateStore when the key holds no state.
	ErrStateNotFound = errors.New("state not found")

	// ErrSnapshotUnavailable is returned by history initialization when the
	// remote snapshot could not be fetched.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")

	// ErrFrameTooLarge marks a push frame over the transport's size limit. It is
	// reported inside a ParseError; the connection stays usable.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrThrottled is wrapped in a RequestFailedError when a local rate limit refuses a submission.
	ErrThrottled = errors.New("submission throttled")
)

// ConfigurationError names the missing or invalid setting.
// An empty Reason means the setting is missing.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: %s is required", e.Field)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ParseError wraps the decode failure of a push frame.
// Kind is empty when the envelope itself could not be parsed.
type ParseError struct {
	Kind string
	Err  error
}

func (e *ParseError) Error() string {
	if errors.Is(e.Err, ErrFrameTooLarge) {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	if e.Kind == "" {
		return fmt.Sprintf("parse error: malformed envelope: %v", e.Err)
	}
	return fmt.Sprintf("parse error: %s payload: %v", e.Kind, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError describes which RequestSpec field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RequestFailedError carries the HTTP status (0 for transport-level failures).
type RequestFailedError struct {
	StatusCode int
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("request failed: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }

func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

// PersistenceError wraps a durable-storage failure. It is logged, never
// returned from history mutations.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence error: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
