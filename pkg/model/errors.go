// Package model contains the core data types shared across the compliance
// pipeline: property identifiers, per-domain records, and the assembled
// compliance record.
package model // import "github.com/propplyai/propply-ai/pkg/model"

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// ErrorKind is the closed taxonomy of failures the pipeline can surface.
type ErrorKind int

const (
	// ErrorKindUnknown is never produced intentionally; its presence means
	// a code path failed to classify its error.
	ErrorKindUnknown ErrorKind = iota
	// ErrorKindNetwork covers timeouts, DNS failures, and connection resets.
	ErrorKindNetwork
	// ErrorKindRate covers HTTP 429 and 5xx responses exhausted of retries.
	ErrorKindRate
	// ErrorKindBadQuery covers HTTP 400 responses.
	ErrorKindBadQuery
	// ErrorKindRemote covers other 4xx responses, and a fully-failed search plan.
	ErrorKindRemote
	// ErrorKindDecode covers invalid JSON payloads.
	ErrorKindDecode
	// ErrorKindNotFound covers address resolution failures.
	ErrorKindNotFound
	// ErrorKindDB covers persistence layer failures.
	ErrorKindDB
	// ErrorKindDeadline covers a run exceeding its deadline.
	ErrorKindDeadline
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNetwork:
		return "Network"
	case ErrorKindRate:
		return "Rate"
	case ErrorKindBadQuery:
		return "BadQuery"
	case ErrorKindRemote:
		return "Remote"
	case ErrorKindDecode:
		return "Decode"
	case ErrorKindNotFound:
		return "NotFound"
	case ErrorKindDB:
		return "DB"
	case ErrorKindDeadline:
		return "Deadline"
	default:
		return "Unknown"
	}
}

// Error is the typed error carried through the pipeline. It wraps an
// underlying cause (if any) so callers can still use errors.Cause/errors.Is.
type Error struct {
	Kind  ErrorKind
	Msg   string
	cause error
}

// NewError builds a typed Error, optionally wrapping cause.
func NewError(kind ErrorKind, msg string, cause error) *Error {
	if cause != nil {
		cause = pkgerrors.WithStack(cause)
	}
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap lets errors.Is/errors.As see through to the cause.
func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the ErrorKind of err, or ErrorKindUnknown if err is not
// (or does not wrap) a *Error.
func KindOf(err error) ErrorKind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return ErrorKindUnknown
}
