package core

import (
	"context"
	"errors"
)

var (
	// ErrMalformedTrack is returned when an upstream track lacks a required field
	ErrMalformedTrack = errors.New("malformed track payload")
	// ErrInvalidState is returned when an OAuth callback carries an unknown state
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrMissingCode is returned when an OAuth callback carries no authorization code
	ErrMissingCode = errors.New("missing authorization code")
	// ErrInvalidContact is returned when a contact submission lacks email or message
	ErrInvalidContact = errors.New("invalid contact submission")
)

// ErrorCode classifies a failed resolution for API consumers.
type ErrorCode string

const (
	CodeUpstreamFailure ErrorCode = "upstream_failure"
	CodeMalformedTrack  ErrorCode = "malformed_track"
	CodeCanceled        ErrorCode = "canceled"
)

// ClassifyError maps an upstream error onto an ErrorCode.
func ClassifyError(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrMalformedTrack):
		return CodeMalformedTrack
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCanceled
	default:
		return CodeUpstreamFailure
	}
}
