package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/placeshare/places-server/internal/errors"
)

func TestCreatePlace_Success(t *testing.T) {
	ts := setupTestServer(t, Options{})
	user, token := ts.createUser(t, "Max", "max@example.com")

	place := ts.createPlace(t, token)

	assert.NotEmpty(t, place.ID)
	assert.Equal(t, "Empire State Building", place.Title)
	assert.Equal(t, user.ID, place.Creator)
	assert.InDelta(t, testLocation.Lat, place.Location.Lat, 1e-9)
	assert.InDelta(t, testLocation.Lng, place.Location.Lng, 1e-9)

	stored, err := ts.services.Users.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{place.ID}, stored.PlaceIDs)
}

func TestCreatePlace_ExplicitCreatorMatchingCaller(t *testing.T) {
	ts := setupTestServer(t, Options{})
	user, token := ts.createUser(t, "Max", "max@example.com")

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer "+token, map[string]any{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     testAddress,
		"creator":     user.ID,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[PlaceEnvelope](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, user.ID, env.Data.Place.Creator)
}

func TestCreatePlace_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/places", map[string]any{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     testAddress,
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodeUnauthenticated), env.Error.Code)
}

func TestCreatePlace_InvalidTokenIsUnauthenticated(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer not-a-token", map[string]any{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     testAddress,
	})

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreatePlace_CreatorMustBeCaller(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "Max", "max@example.com")
	other, _ := ts.createUser(t, "Manuel", "manuel@example.com")

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer "+token, map[string]any{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     testAddress,
		"creator":     other.ID,
	})

	assert.Equal(t, http.StatusForbidden, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodeNotAuthorized), env.Error.Code)

	stored, err := ts.services.Users.GetUser(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PlaceIDs)
}

func TestCreatePlace_GeocodingFailure(t *testing.T) {
	ts := setupTestServer(t, Options{})
	user, token := ts.createUser(t, "Max", "max@example.com")

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer "+token, map[string]any{
		"title":       "Nowhere",
		"description": "This address does not exist anywhere.",
		"address":     "1 Nowhere Lane, Atlantis",
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodeGeocodingFailed), env.Error.Code)

	stored, err := ts.services.Users.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PlaceIDs)
}

func TestCreatePlace_SchemaValidation(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "Max", "max@example.com")

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer "+token, map[string]any{
		"title":       "",
		"description": "abc",
		"address":     testAddress,
	})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodeValidation), env.Error.Code)
	assert.NotNil(t, env.Error.Details)
}

func TestGetPlace(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "Max", "max@example.com")
	created := ts.createPlace(t, token)

	resp := ts.api.Get("/api/v1/places/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[PlaceEnvelope](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Equal(t, created.ID, env.Data.Place.ID)
	assert.Equal(t, testAddress, env.Data.Place.Address)
}

func TestGetPlace_NotFound(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/places/place-missing")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodePlaceNotFound), env.Error.Code)
}

func TestListUserPlaces(t *testing.T) {
	ts := setupTestServer(t, Options{})
	user, token := ts.createUser(t, "Max", "max@example.com")
	first := ts.createPlace(t, token)
	second := ts.createPlace(t, token)

	resp := ts.api.Get("/api/v1/places/user/" + user.ID)
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[PlacesResponse](t, resp.Body.Bytes())
	require.Len(t, env.Data.Places, 2)
	assert.Equal(t, first.ID, env.Data.Places[0].ID)
	assert.Equal(t, second.ID, env.Data.Places[1].ID)
}

func TestListUserPlaces_EmptyIsNotAnError(t *testing.T) {
	ts := setupTestServer(t, Options{})
	user, _ := ts.createUser(t, "Max", "max@example.com")

	resp := ts.api.Get("/api/v1/places/user/" + user.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"places":[]`)

	env := decode[PlacesResponse](t, resp.Body.Bytes())
	assert.True(t, env.Success)
	assert.Empty(t, env.Data.Places)
}

func TestListUserPlaces_UnknownUser(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/places/user/user-missing")

	assert.Equal(t, http.StatusNotFound, resp.Code)
	env := decode[struct{}](t, resp.Body.Bytes())
	require.NotNil(t, env.Error)
	assert.Equal(t, string(domainerrors.CodeUserNotFound), env.Error.Code)
}

func TestUpdatePlace(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "Max", "max@example.com")
	created := ts.createPlace(t, token)

	resp := ts.api.Patch("/api/v1/places/"+created.ID, "Authorization: Bearer "+token, map[string]any{
		"title":       "Empire State",
		"description": "Still one of the most famous sky scrapers.",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	env := decode[PlaceEnvelope](t, resp.Body.Bytes())
	assert.Equal(t, "Empire State", env.Data.Place.Title)
	assert.Equal(t, created.Address, env.Data.Place.Address)
	assert.Equal(t, created.Location, env.Data.Place.Location)
}

func TestUpdatePlace_NotOwner(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, ownerToken := ts.createUser(t, "Max", "max@example.com")
	_, otherToken := ts.createUser(t, "Manuel", "manuel@example.com")
	created := ts.createPlace(t, ownerToken)

	resp := ts.api.Patch("/api/v1/places/"+created.ID, "Authorization: Bearer "+otherToken, map[string]any{
		"title":       "Mine now",
		"description": "Trying to take over this place.",
	})
	assert.Equal(t, http.StatusForbidden, resp.Code)

	place, err := ts.services.Places.GetPlace(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, place.Title)
}

func TestDeletePlace(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner, ownerToken := ts.createUser(t, "Max", "max@example.com")
	_, otherToken := ts.createUser(t, "Manuel", "manuel@example.com")
	created := ts.createPlace(t, ownerToken)

	resp := ts.api.Delete("/api/v1/places/"+created.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Get("/api/v1/places/" + created.ID)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/places/"+created.ID, "Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	env := decode[MessageResponse](t, resp.Body.Bytes())
	assert.Equal(t, "Deleted place.", env.Data.Message)

	resp = ts.api.Get("/api/v1/places/" + created.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	stored, err := ts.services.Users.GetUser(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.PlaceIDs)

	resp = ts.api.Delete("/api/v1/places/"+created.ID, "Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDeletePlace_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t, Options{})
	_, token := ts.createUser(t, "Max", "max@example.com")
	created := ts.createPlace(t, token)

	resp := ts.api.Delete("/api/v1/places/" + created.ID)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
