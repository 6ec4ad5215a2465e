package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/auth"
	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/geocode"
	"github.com/placeshare/places-server/internal/search"
	"github.com/placeshare/places-server/internal/service"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/validation"
)

const testAddress = "20 W 34th St, New York, NY 10001"

var testLocation = domain.Location{Lat: 40.7484405, Lng: -73.9856644}

// testEnvelope mirrors Envelope with a typed data payload.
type testEnvelope[T any] struct {
	Version int        `json:"v"`
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Error   *testError `json:"error"`
}

type testError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	tokens *auth.TokenService
	store  *store.BadgerStore
}

// setupTestServer builds a server over a temporary Badger store and Bleve
// index. Addresses other than testAddress fail to geocode.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.DiscardHandler)

	st, err := store.New(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: filepath.Join(dir, "search"), Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	keyHex, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(keyHex, 15*time.Minute)
	require.NoError(t, err)

	geocoder := geocode.Func(func(_ context.Context, address string) (domain.Location, error) {
		if address == testAddress {
			return testLocation, nil
		}
		return domain.Location{}, geocode.ErrNoResults
	})

	v := validation.New()
	places := service.NewPlaceService(st, geocoder, v, logger)
	searchService := service.NewSearchService(index, st, logger)
	places.SetIndexer(searchService)

	services := &Services{
		Places: places,
		Users:  service.NewUserService(st, v, logger),
		Search: searchService,
	}

	s := NewServer(st, services, tokens, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		tokens: tokens,
		store:  st,
	}
}

// createUser stores a user and returns it with an access token.
func (ts *testServer) createUser(t *testing.T, name, email string) (*domain.User, string) {
	t.Helper()

	user, err := ts.services.Users.CreateUser(context.Background(), service.CreateUserInput{Name: name, Email: email})
	require.NoError(t, err)

	token, err := ts.tokens.GenerateAccessToken(user)
	require.NoError(t, err)
	return user, token
}

func (ts *testServer) createPlace(t *testing.T, token string) PlaceResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/places", "Authorization: Bearer "+token, map[string]any{
		"title":       "Empire State Building",
		"description": "One of the most famous sky scrapers in the world!",
		"address":     testAddress,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[PlaceEnvelope](t, resp.Body.Bytes())
	return env.Data.Place
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()

	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	assert.Equal(t, envelopeVersion, env.Version)
	return env
}

func TestServer_RequestIDHeader(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	assert.NotEmpty(t, resp.Header().Get(requestIDHeader))

	resp = ts.api.Get("/health", requestIDHeader+": req-123")
	assert.Equal(t, "req-123", resp.Header().Get(requestIDHeader))
}

func TestServer_MutationRateLimit(t *testing.T) {
	ts := setupTestServer(t, Options{MutationsPerMinute: 1, MutationBurst: 1})
	_, token := ts.createUser(t, "Max", "max@example.com")

	resp := ts.api.Delete("/api/v1/places/place-missing", "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/places/place-missing", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.NotEmpty(t, resp.Header().Get("Retry-After"))

	env := decode[struct{}](t, resp.Body.Bytes())
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, codeRateLimited, env.Error.Code)

	// Reads are not limited.
	resp = ts.api.Get("/api/v1/places/place-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestServer_RateLimitIsPerActor(t *testing.T) {
	ts := setupTestServer(t, Options{MutationsPerMinute: 1, MutationBurst: 1})
	_, maxToken := ts.createUser(t, "Max", "max@example.com")
	_, manuelToken := ts.createUser(t, "Manuel", "manuel@example.com")

	resp := ts.api.Delete("/api/v1/places/place-missing", "Authorization: Bearer "+maxToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/places/place-missing", "Authorization: Bearer "+manuelToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestEnvelopeTransformer(t *testing.T) {
	v, err := EnvelopeTransformer(nil, "200", map[string]string{"a": "b"})
	require.NoError(t, err)
	env, ok := v.(*Envelope)
	require.True(t, ok)
	assert.True(t, env.Success)
	assert.NotNil(t, env.Data)
	assert.Nil(t, env.Error)

	v, err = EnvelopeTransformer(nil, "404", errors.New("x"))
	require.NoError(t, err)
	env, ok = v.(*Envelope)
	require.True(t, ok)
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	assert.NotNil(t, env.Error)

	v, err = EnvelopeTransformer(nil, "204", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
