package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/validation"
)

type testPlaceRequest struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"min=5,max=5000"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(testPlaceRequest{Title: "Empire State", Description: "Tall building"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       testPlaceRequest
		wantField string
		wantMsg   string
	}{
		{
			name:      "blank title",
			req:       testPlaceRequest{Title: "   ", Description: "Tall building"},
			wantField: "title",
			wantMsg:   "is required",
		},
		{
			name:      "short description",
			req:       testPlaceRequest{Title: "Empire State", Description: "Tall"},
			wantField: "description",
			wantMsg:   "must be at least 5 characters",
		},
		{
			name:      "invalid email",
			req:       testPlaceRequest{Title: "Empire State", Description: "Tall building", Email: "nope"},
			wantField: "email",
			wantMsg:   "must be a valid email address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}
