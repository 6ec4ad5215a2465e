package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesOnCode(t *testing.T) {
	err := PlaceNotFound("place-1")

	assert.True(t, Is(err, ErrPlaceNotFound))
	assert.False(t, Is(err, ErrUserNotFound))

	wrapped := fmt.Errorf("delete: %w", err)
	assert.True(t, Is(wrapped, ErrPlaceNotFound))
}

func TestError_CauseIsPreserved(t *testing.T) {
	err := RelationshipWriteFailed("place-1", io.ErrUnexpectedEOF)

	assert.True(t, Is(err, ErrRelationshipWriteFailed))
	assert.True(t, Is(err, io.ErrUnexpectedEOF))
	assert.Contains(t, err.Error(), io.ErrUnexpectedEOF.Error())
}

func TestError_DetailsCarryOffendingID(t *testing.T) {
	err := CreatorNotFound("user-9")

	details, ok := err.Details.(IDDetails)
	assert.True(t, ok)
	assert.Equal(t, "user-9", details.ID)
}

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeGeocodingFailed, http.StatusUnprocessableEntity},
		{CodeCreatorNotFound, http.StatusNotFound},
		{CodePlaceNotFound, http.StatusNotFound},
		{CodeUserNotFound, http.StatusNotFound},
		{CodeNotAuthorized, http.StatusForbidden},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodeRelationshipWriteFailed, http.StatusInternalServerError},
		{CodeWriteFailed, http.StatusInternalServerError},
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeAlreadyExists, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}
