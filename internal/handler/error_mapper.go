package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/middleware"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

// conflictRule names a domain conflict on the wire
type conflictRule struct {
	err  error
	slug string
	code model.ErrorCode
}

var conflictRules = []conflictRule{
	{service.ErrAlreadyMember, "already-member", model.ErrCodeAlreadyMember},
	{service.ErrNotAMember, "not-a-member", model.ErrCodeNotAMember},
	{service.ErrClubFull, "club-full", model.ErrCodeClubFull},
	{service.ErrRequestAlreadyPending, "request-already-pending", model.ErrCodeRequestAlreadyPending},
	{service.ErrNoPendingRequest, "no-pending-request", model.ErrCodeNoPendingRequest},
	{service.ErrEventInPast, "event-in-past", model.ErrCodeEventInPast},
	{service.ErrRegistrationClosed, "registration-closed", model.ErrCodeRegistrationClosed},
	{service.ErrMembersOnly, "members-only", model.ErrCodeMembersOnly},
	{service.ErrDuplicateFeedback, "duplicate-feedback", model.ErrCodeDuplicateFeedback},
	{service.ErrEventNotCompleted, "event-not-completed", model.ErrCodeEventNotCompleted},
	{service.ErrInvalidRating, "invalid-rating", model.ErrCodeInvalidRating},
	{service.ErrEventCancelled, "event-cancelled", model.ErrCodeEventCancelled},
	{service.ErrClubNameExists, "duplicate-name", model.ErrCodeDuplicateName},
	{service.ErrEmailAlreadyExists, "email-taken", model.ErrCodeAlreadyExists},
	{service.ErrConcurrentUpdate, "concurrent-update", model.ErrCodeConflict},
}

// MapServiceError converts a service error to a ProblemDetails response.
// Typed service failures map by kind; anything else is an infrastructure
// fault and never leaks its message.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var pd *model.ProblemDetails
	if errors.As(err, &pd) {
		return pd
	}

	var se *service.Error
	if !errors.As(err, &se) {
		if errors.Is(err, database.ErrConnection) {
			return model.NewServiceUnavailableError("storage is temporarily unavailable")
		}
		return model.NewInternalError("")
	}

	switch se.Kind {
	case service.KindUnauthorized:
		return unauthorizedProblem(se)
	case service.KindForbidden:
		return forbiddenProblem(se)
	case service.KindNotFound:
		return notFoundProblem(se)
	case service.KindValidation:
		return validationProblem(se)
	case service.KindConflict:
		return conflictProblem(se)
	default:
		return model.NewInternalError("")
	}
}

func unauthorizedProblem(se *service.Error) *model.ProblemDetails {
	pd := model.NewUnauthorizedError(se.Err.Error())
	switch {
	case errors.Is(se, service.ErrInvalidCredentials):
		pd.Code = model.ErrCodeLoginFailed
	case errors.Is(se, service.ErrAccountInactive):
		pd.Code = model.ErrCodeAccountInactive
	}
	return pd
}

func forbiddenProblem(se *service.Error) *model.ProblemDetails {
	pd := model.NewForbiddenError(se.Err.Error())
	switch {
	case errors.Is(se, authz.ErrNotClubAdmin):
		pd.Code = model.ErrCodeNotClubAdmin
	case errors.Is(se, authz.ErrInsufficientRole):
		pd.Code = model.ErrCodeInsufficientRole
	}
	return pd
}

func notFoundProblem(se *service.Error) *model.ProblemDetails {
	switch {
	case errors.Is(se, service.ErrClubNotFound):
		return model.NewNotFoundError("club")
	case errors.Is(se, service.ErrEventNotFound):
		return model.NewNotFoundError("event")
	case errors.Is(se, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	default:
		return model.NewNotFoundError("resource")
	}
}

func validationProblem(se *service.Error) *model.ProblemDetails {
	fields := se.Fields
	if len(fields) == 0 {
		fields = []model.FieldError{{Field: se.Field, Message: se.Err.Error()}}
	}
	pd := model.NewValidationError(fields)
	if !errors.Is(se, service.ErrValidation) {
		pd.Detail = se.Err.Error()
	}
	if se.Field != "" {
		pd.WithField(se.Field)
	}
	if se.HasLimit() {
		pd.WithLimit(se.Limit, se.Current)
	}
	return pd
}

func conflictProblem(se *service.Error) *model.ProblemDetails {
	var pd *model.ProblemDetails
	for _, rule := range conflictRules {
		if errors.Is(se, rule.err) {
			pd = model.NewDomainConflictError(rule.slug, rule.code, se.Err.Error())
			break
		}
	}
	if pd == nil {
		pd = model.NewConflictError(se.Err.Error())
	}
	if se.Field != "" {
		pd.WithField(se.Field)
	}
	if se.HasLimit() {
		pd.WithLimit(se.Limit, se.Current)
	}
	return pd
}

// handleError writes the mapped problem and logs infrastructure faults
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	pd := MapServiceError(err)
	if pd.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("user_id", middleware.GetUserID(r.Context())),
			slog.Any("error", err),
		)
	}
	pd.Instance = r.URL.Path
	WriteError(w, pd)
}
