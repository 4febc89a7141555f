package service

import (
	"errors"
	"fmt"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
)

// Centralized service layer errors.
// Every rule violation is returned as an *Error wrapping one of the sentinels
// below, so handlers can match either on the kind or on the exact sentinel.

// ErrValidation wraps request field errors
var ErrValidation = errors.New("validation failed")

// ===== Account Errors =====
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is deactivated")
)

// ===== Club Errors =====
var (
	ErrClubNotFound          = errors.New("club not found")
	ErrClubNameExists        = errors.New("a club with this name already exists")
	ErrAlreadyMember         = errors.New("already a member of this club")
	ErrNotAMember            = errors.New("not a member of this club")
	ErrClubFull              = errors.New("club has reached its member limit")
	ErrRequestAlreadyPending = errors.New("a join request is already pending")
	ErrNoPendingRequest      = errors.New("no pending join request for this user")
	ErrMaxMembersBelowActive = errors.New("max_members cannot be lower than the active member count")
)

// ===== Event Errors =====
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrEventInPast        = errors.New("event has already started")
	ErrEventDateNotFuture = errors.New("event date must be in the future")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrMembersOnly        = errors.New("event is open to club members only")
	ErrDuplicateFeedback  = errors.New("feedback already submitted")
	ErrEventNotCompleted  = errors.New("event has not taken place yet")
	ErrEventCancelled     = errors.New("event was cancelled")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
	ErrCapacityBelowGoing = errors.New("max_capacity cannot be lower than the going count")
	ErrDeadlineAfterStart = errors.New("registration deadline must not be after the event start")
	ErrConcurrentUpdate   = errors.New("too many concurrent updates, try again")
)

// Kind classifies a failure for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a typed service failure
type Error struct {
	Kind    Kind
	Err     error
	Field   string
	Limit   int
	Current int
	Fields  []model.FieldError
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// HasLimit reports whether Limit and Current carry values
func (e *Error) HasLimit() bool { return e.Limit > 0 }

// KindOf returns the kind of a service error, KindInternal for anything else
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func notFound(err error) *Error {
	return &Error{Kind: KindNotFound, Err: err}
}

func conflict(err error) *Error {
	return &Error{Kind: KindConflict, Err: err}
}

func (e *Error) withLimit(limit, current int) *Error {
	e.Limit, e.Current = limit, current
	return e
}

func (e *Error) withField(field string) *Error {
	e.Field = field
	return e
}

// invalid reports field errors from request validation
func invalid(fields []model.FieldError) *Error {
	err := &Error{Kind: KindValidation, Err: ErrValidation, Fields: fields}
	if len(fields) == 1 {
		err.Field = fields[0].Field
	}
	return err
}

// invalidField reports one rule violation on a field
func invalidField(sentinel error, field string) *Error {
	return &Error{
		Kind:   KindValidation,
		Err:    sentinel,
		Field:  field,
		Fields: []model.FieldError{{Field: field, Message: sentinel.Error()}},
	}
}

// denied turns a gate decision into a typed failure
func denied(d authz.Decision) *Error {
	if d.Reason == authz.ReasonNotAuthenticated {
		return &Error{Kind: KindUnauthorized, Err: d.Err()}
	}
	return &Error{Kind: KindForbidden, Err: d.Err()}
}
