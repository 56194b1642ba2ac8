package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput
	ErrVoteAlreadyActive
	ErrEligibilityDenied
	ErrDuplicateBallot
	ErrInvalidTags
	ErrVoteClosed
	ErrAlreadyAppealed
	ErrNotEligible
	ErrInvalidRole
)

var kindNames = map[Kind]string{
	ErrInternal:          "internal",
	ErrNotFound:          "not_found",
	ErrValidation:        "validation",
	ErrConflict:          "conflict",
	ErrInvalidInput:      "invalid_input",
	ErrVoteAlreadyActive: "vote_already_active",
	ErrEligibilityDenied: "eligibility_denied",
	ErrDuplicateBallot:   "duplicate_ballot",
	ErrInvalidTags:       "invalid_tags",
	ErrVoteClosed:        "vote_closed",
	ErrAlreadyAppealed:   "already_appealed",
	ErrNotEligible:       "not_eligible",
	ErrInvalidRole:       "invalid_role",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an application-level error with a kind for classification.
// Reason is a machine-readable sub-cause (e.g. "cooldown") and Meta carries
// details the caller may display, such as the remaining time of a vote.
type Error struct {
	Kind    Kind
	Message string
	Reason  string
	Meta    map[string]any
	Err     error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithMeta attaches a detail to the error and returns it
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any)
	}
	e.Meta[key] = value
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// Is reports whether err carries an *Error of the given kind
func Is(err error, kind Kind) bool {
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// Vote domain errors

func VoteAlreadyActive(voteID string, remainingSeconds int) *Error {
	e := &Error{Kind: ErrVoteAlreadyActive, Message: "a vote is already active for this player"}
	return e.WithMeta("vote_id", voteID).WithMeta("remaining_seconds", remainingSeconds)
}

func EligibilityDenied(reason, msg string) *Error {
	return &Error{Kind: ErrEligibilityDenied, Message: msg, Reason: reason}
}

func DuplicateBallot() *Error {
	return &Error{Kind: ErrDuplicateBallot, Message: "already voted", Reason: "already_voted"}
}

func InvalidTags(msg string) *Error {
	return &Error{Kind: ErrInvalidTags, Message: msg}
}

func VoteClosed() *Error {
	return &Error{Kind: ErrVoteClosed, Message: "vote no longer open", Reason: "vote_not_open"}
}

func AlreadyAppealed() *Error {
	return &Error{Kind: ErrAlreadyAppealed, Message: "incident has already been appealed"}
}

func NotEligible(msg string) *Error {
	return &Error{Kind: ErrNotEligible, Message: msg}
}

func InvalidRole(role string) *Error {
	return &Error{Kind: ErrInvalidRole, Message: fmt.Sprintf("invalid role: %q", role)}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
