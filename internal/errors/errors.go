package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure by the stage of the run that produced it.
type Kind string

const (
	// KindConfig covers provider and model resolution problems
	KindConfig Kind = "config"
	// KindRepositoryState covers not-a-repository, conflicts and ambiguous path selections
	KindRepositoryState Kind = "repository_state"
	// KindProviderCall covers failures talking to the AI provider
	KindProviderCall Kind = "provider_call"
	// KindStaging covers git add failures
	KindStaging Kind = "staging"
	// KindCommit covers git commit failures
	KindCommit Kind = "commit"
	// KindPush covers push failures
	KindPush Kind = "push"
	// KindPR covers pull request creation failures
	KindPR Kind = "pr"
)

// Error is a classified error carrying an optional hint for the user.
type Error struct {
	Kind    Kind
	Message string
	Hint    string

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// WithCause sets the wrapped root cause.
func (e *Error) WithCause(cause error) *Error {
	if e == nil {
		return nil
	}
	e.cause = cause
	return e
}

// WithHint attaches an actionable suggestion shown after the message.
func (e *Error) WithHint(hint string) *Error {
	if e == nil {
		return nil
	}
	e.Hint = hint
	return e
}

// New constructs a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf constructs a formatted classified error.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap constructs a classified error around an underlying cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return New(kind, message).WithCause(cause)
}

// KindOf returns the kind of the first classified error in the chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries a classified error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HintOf returns the hint of the first classified error in the chain.
func HintOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Hint
	}
	return ""
}
