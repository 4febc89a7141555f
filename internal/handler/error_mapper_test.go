package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Riya-Singh-Hash/CampusConnect/internal/authz"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/database"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/model"
	"github.com/Riya-Singh-Hash/CampusConnect/internal/service"
)

func TestMapServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   model.ErrorCode
		wantType   string
	}{
		{
			name:       "login failed",
			err:        &service.Error{Kind: service.KindUnauthorized, Err: service.ErrInvalidCredentials},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.ErrCodeLoginFailed,
		},
		{
			name:       "inactive account",
			err:        &service.Error{Kind: service.KindUnauthorized, Err: service.ErrAccountInactive},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.ErrCodeAccountInactive,
		},
		{
			name:       "not authenticated",
			err:        &service.Error{Kind: service.KindUnauthorized, Err: authz.ErrNotAuthenticated},
			wantStatus: http.StatusUnauthorized,
			wantCode:   model.ErrCodeUnauthorized,
		},
		{
			name:       "not club admin",
			err:        &service.Error{Kind: service.KindForbidden, Err: authz.ErrNotClubAdmin},
			wantStatus: http.StatusForbidden,
			wantCode:   model.ErrCodeNotClubAdmin,
		},
		{
			name:       "insufficient role",
			err:        &service.Error{Kind: service.KindForbidden, Err: authz.ErrInsufficientRole},
			wantStatus: http.StatusForbidden,
			wantCode:   model.ErrCodeInsufficientRole,
		},
		{
			name:       "event not found",
			err:        &service.Error{Kind: service.KindNotFound, Err: service.ErrEventNotFound},
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrCodeNotFound,
			wantType:   "https://campusconnect.dev/errors/not-found",
		},
		{
			name:       "club full",
			err:        &service.Error{Kind: service.KindConflict, Err: service.ErrClubFull, Limit: 30, Current: 30},
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeClubFull,
			wantType:   "https://campusconnect.dev/errors/club-full",
		},
		{
			name:       "unnamed conflict",
			err:        &service.Error{Kind: service.KindConflict, Err: errors.New("something clashed")},
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeConflict,
		},
		{
			name:       "concurrent update",
			err:        fmt.Errorf("save club: %w", &service.Error{Kind: service.KindConflict, Err: service.ErrConcurrentUpdate}),
			wantStatus: http.StatusConflict,
			wantCode:   model.ErrCodeConflict,
			wantType:   "https://campusconnect.dev/errors/concurrent-update",
		},
		{
			name:       "storage unreachable",
			err:        fmt.Errorf("load club: %w", database.ErrConnection),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   model.ErrCodeDatabase,
		},
		{
			name:       "unknown failure",
			err:        errors.New("disk on fire"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   model.ErrCodeInternal,
		},
		{
			name:       "problem passes through",
			err:        model.NewBadRequestError("bad"),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			pd := MapServiceError(tt.err)
			require.NotNil(t, pd)
			assert.Equal(t, tt.wantStatus, pd.Status)
			assert.Equal(t, tt.wantCode, pd.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, pd.Type)
			}
		})
	}
}

func TestMapServiceError_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, MapServiceError(nil))
}

func TestMapServiceError_InternalDetailIsHidden(t *testing.T) {
	t.Parallel()

	pd := MapServiceError(errors.New("pq: password authentication failed for user campus"))

	assert.NotContains(t, pd.Detail, "password")
}

func TestMapServiceError_CarriesLimitAndField(t *testing.T) {
	t.Parallel()

	pd := MapServiceError(&service.Error{
		Kind:    service.KindConflict,
		Err:     service.ErrRegistrationClosed,
		Field:   "registration_deadline",
		Limit:   50,
		Current: 50,
	})

	assert.Equal(t, model.ErrCodeRegistrationClosed, pd.Code)
	assert.Equal(t, "registration_deadline", pd.Field)
	require.NotNil(t, pd.Limit)
	require.NotNil(t, pd.Current)
	assert.Equal(t, 50, *pd.Limit)
	assert.Equal(t, 50, *pd.Current)
}

func TestMapServiceError_ValidationFields(t *testing.T) {
	t.Parallel()

	t.Run("field list", func(t *testing.T) {
		t.Parallel()
		pd := MapServiceError(&service.Error{
			Kind: service.KindValidation,
			Err:  service.ErrValidation,
			Fields: []model.FieldError{
				{Field: "title", Message: "title is required"},
				{Field: "date", Message: "date is required"},
			},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, pd.Status)
		assert.Len(t, pd.Errors, 2)
		assert.Empty(t, pd.Field)
	})

	t.Run("single sentinel", func(t *testing.T) {
		t.Parallel()
		pd := MapServiceError(&service.Error{Kind: service.KindValidation, Err: service.ErrCapacityBelowGoing, Field: "max_capacity", Limit: 10, Current: 12})
		assert.Equal(t, service.ErrCapacityBelowGoing.Error(), pd.Detail)
		assert.Equal(t, "max_capacity", pd.Field)
		require.Len(t, pd.Errors, 1)
		assert.Equal(t, "max_capacity", pd.Errors[0].Field)
		require.NotNil(t, pd.Limit)
		assert.Equal(t, 10, *pd.Limit)
	})
}
