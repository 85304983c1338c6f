package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation needs an established session
	ErrNoSession = errors.New("no active session")
	// ErrInvalidProfile marks a profile that violates its structural invariants
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrInvalidSession marks a session group with a missing field
	ErrInvalidSession = errors.New("invalid session")
)

// DefaultTransportMessage is shown when the server did not supply a detail
const DefaultTransportMessage = "failed to connect to server"

// InvalidResponseMessage is shown when a successful response did not decode
const InvalidResponseMessage = "invalid response from server"

// StorageError represents errors accessing durable storage
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "delete"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing persisted or wire data
type ParseError struct {
	Source string // "state", "response"
	Key    string // storage key or request path
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// TransportError is a network or HTTP-layer failure. Detail carries the
// server-supplied message when there was one.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int // 0 when no response was received
	Detail     string
	RequestID  string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error: %s %s: %v", e.Method, e.Path, e.Err)
	}
	return fmt.Sprintf("transport error: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message returns the text a user should see for this failure
func (e *TransportError) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	return DefaultTransportMessage
}

// UnsupportedArtifactError describes why an artifact will not be rendered.
// It never leaves the rendering boundary.
type UnsupportedArtifactError struct {
	Kind   string
	Reason string
}

func (e *UnsupportedArtifactError) Error() string {
	return fmt.Sprintf("unsupported artifact [%s]: %s", e.Kind, e.Reason)
}

// UserMessage extracts a notification text from any error: the server detail
// for transport failures, the error text otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Message()
	}
	return err.Error()
}
