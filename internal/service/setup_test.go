package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/geocode"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/validation"
)

var empireStateLocation = domain.Location{Lat: 40.7484405, Lng: -73.9856644}

var errInjected = errors.New("injected failure")

// testEnv bundles the services under test with their shared store.
type testEnv struct {
	store   *store.BadgerStore
	places  *PlaceService
	users   *UserService
	indexer *recordingIndexer
	geo     *stubGeocoder
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	geo := &stubGeocoder{locations: map[string]domain.Location{
		"20 W 34th St, New York, NY 10001": empireStateLocation,
	}}
	v := validation.New()
	logger := slog.New(slog.DiscardHandler)

	places := NewPlaceService(s, geo, v, logger)
	indexer := &recordingIndexer{indexed: map[string]*domain.Place{}}
	places.SetIndexer(indexer)

	return &testEnv{
		store:   s,
		places:  places,
		users:   NewUserService(s, v, logger),
		indexer: indexer,
		geo:     geo,
	}
}

func (e *testEnv) createUser(t *testing.T, name, email string) *domain.User {
	t.Helper()

	user, err := e.users.CreateUser(context.Background(), CreateUserInput{Name: name, Email: email})
	require.NoError(t, err)
	return user
}

func (e *testEnv) createPlace(t *testing.T, creatorID string) *domain.Place {
	t.Helper()

	place, err := e.places.CreatePlace(context.Background(), empireStateInput(creatorID))
	require.NoError(t, err)
	return place
}

func (e *testEnv) user(t *testing.T, userID string) *domain.User {
	t.Helper()

	user, err := e.users.GetUser(context.Background(), userID)
	require.NoError(t, err)
	return user
}

func empireStateInput(creatorID string) CreatePlaceInput {
	return CreatePlaceInput{
		Title:       "Empire State Building",
		Description: "One of the most famous skyscrapers in the world",
		Address:     "20 W 34th St, New York, NY 10001",
		Image:       "https://example.com/empire.jpg",
		CreatorID:   creatorID,
	}
}

// snapshot returns every place and user as JSON so two states can be
// compared byte for byte.
func snapshot(t *testing.T, s store.Store) string {
	t.Helper()

	var state struct {
		Places []*domain.Place `json:"places"`
		Users  []*domain.User  `json:"users"`
	}
	err := s.View(context.Background(), func(tx store.Tx) error {
		for p, err := range tx.Places(context.Background()) {
			if err != nil {
				return err
			}
			state.Places = append(state.Places, p)
		}
		for u, err := range tx.Users(context.Background()) {
			if err != nil {
				return err
			}
			state.Users = append(state.Users, u)
		}
		return nil
	})
	require.NoError(t, err)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	return string(data)
}

// stubGeocoder resolves a fixed set of addresses and counts calls.
type stubGeocoder struct {
	mu        sync.Mutex
	locations map[string]domain.Location
	calls     int
}

var _ geocode.Geocoder = (*stubGeocoder)(nil)

func (g *stubGeocoder) Resolve(_ context.Context, address string) (domain.Location, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.calls++
	loc, ok := g.locations[address]
	if !ok {
		return domain.Location{}, geocode.ErrNoResults
	}
	return loc, nil
}

func (g *stubGeocoder) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// recordingIndexer captures index updates in memory.
type recordingIndexer struct {
	mu      sync.Mutex
	indexed map[string]*domain.Place
	fail    bool
}

func (r *recordingIndexer) IndexPlace(_ context.Context, place *domain.Place) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errInjected
	}
	r.indexed[place.ID] = place
	return nil
}

func (r *recordingIndexer) DeletePlace(_ context.Context, placeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errInjected
	}
	delete(r.indexed, placeID)
	return nil
}

func (r *recordingIndexer) has(placeID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.indexed[placeID]
	return ok
}

// faultyStore fails the named Tx operation inside every Update.
type faultyStore struct {
	store.Store
	failOn string
}

func (f *faultyStore) Update(ctx context.Context, fn func(store.Tx) error) error {
	return f.Store.Update(ctx, func(tx store.Tx) error {
		return fn(&faultyTx{Tx: tx, failOn: f.failOn})
	})
}

type faultyTx struct {
	store.Tx
	failOn string
}

func (f *faultyTx) SavePlace(ctx context.Context, place *domain.Place) error {
	if f.failOn == "SavePlace" {
		return errInjected
	}
	return f.Tx.SavePlace(ctx, place)
}

func (f *faultyTx) SaveUser(ctx context.Context, user *domain.User) error {
	if f.failOn == "SaveUser" {
		return errInjected
	}
	return f.Tx.SaveUser(ctx, user)
}

func (f *faultyTx) DeletePlace(ctx context.Context, id string) error {
	if f.failOn == "DeletePlace" {
		return errInjected
	}
	return f.Tx.DeletePlace(ctx, id)
}

// withFaults returns a PlaceService sharing env's store whose writes fail at failOn.
func (e *testEnv) withFaults(failOn string) *PlaceService {
	svc := NewPlaceService(&faultyStore{Store: e.store, failOn: failOn}, e.geo, validation.New(), slog.New(slog.DiscardHandler))
	svc.SetIndexer(e.indexer)
	return svc
}
