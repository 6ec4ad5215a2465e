// Package storetest holds the behavioural checks every store.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
)

// OpenFunc returns a fresh, empty store. The store is closed by the suite.
type OpenFunc func(t *testing.T) store.Store

// Run executes the suite against stores produced by open.
func Run(t *testing.T, open OpenFunc) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(*testing.T, store.Store)
	}{
		{"PlaceRoundTrip", testPlaceRoundTrip},
		{"UserRoundTrip", testUserRoundTrip},
		{"MissingEntities", testMissingEntities},
		{"UpdateCommitsBothCollections", testUpdateCommitsBoth},
		{"UpdateRollsBackOnError", testUpdateRollsBack},
		{"DeletePlace", testDeletePlace},
		{"EmailIsUnique", testEmailIsUnique},
		{"EmailChangeFreesOldAddress", testEmailChange},
		{"GetPlacesByIDs", testGetPlacesByIDs},
		{"ListPlacesAndUsers", testListPlacesAndUsers},
		{"ConcurrentAppendsAreSerialized", testConcurrentAppends},
		{"ClosedStore", testClosedStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := open(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

// SeedUser saves a new user in its own transaction.
func SeedUser(t *testing.T, s store.Store, id, email string) *domain.User {
	t.Helper()

	user := domain.NewUser(id, "User "+id, email)
	err := s.Update(context.Background(), func(tx store.Tx) error {
		return tx.SaveUser(context.Background(), user)
	})
	require.NoError(t, err)
	return user
}

// SeedPlace saves a place and its back-reference in one transaction.
func SeedPlace(t *testing.T, s store.Store, id, creatorID string) *domain.Place {
	t.Helper()

	ctx := context.Background()
	place := domain.NewPlace(id, "Place "+id, "A seeded place", "1 Main St", domain.Location{Lat: 1, Lng: 2}, "img/"+id, creatorID)
	err := s.Update(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, creatorID)
		if err != nil {
			return err
		}
		if err := tx.SavePlace(ctx, place); err != nil {
			return err
		}
		user.AddPlace(place.ID)
		return tx.SaveUser(ctx, user)
	})
	require.NoError(t, err)
	return place
}

func getPlace(t *testing.T, s store.Store, id string) (*domain.Place, error) {
	t.Helper()

	var place *domain.Place
	err := s.View(context.Background(), func(tx store.Tx) error {
		var err error
		place, err = tx.GetPlace(context.Background(), id)
		return err
	})
	return place, err
}

func getUser(t *testing.T, s store.Store, id string) *domain.User {
	t.Helper()

	var user *domain.User
	err := s.View(context.Background(), func(tx store.Tx) error {
		var err error
		user, err = tx.GetUser(context.Background(), id)
		return err
	})
	require.NoError(t, err)
	return user
}

func testPlaceRoundTrip(t *testing.T, s store.Store) {
	SeedUser(t, s, "user-1", "one@example.com")
	want := SeedPlace(t, s, "place-1", "user-1")

	got, err := getPlace(t, s, "place-1")
	require.NoError(t, err)

	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Description, got.Description)
	assert.Equal(t, want.Address, got.Address)
	assert.Equal(t, want.Location, got.Location)
	assert.Equal(t, want.Image, got.Image)
	assert.Equal(t, want.CreatorID, got.CreatorID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func testUserRoundTrip(t *testing.T, s store.Store) {
	want := SeedUser(t, s, "user-1", "one@example.com")

	got := getUser(t, s, "user-1")
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Email, got.Email)
	assert.NotNil(t, got.PlaceIDs)
	assert.Empty(t, got.PlaceIDs)

	var byEmail *domain.User
	err := s.View(context.Background(), func(tx store.Tx) error {
		var err error
		byEmail, err = tx.GetUserByEmail(context.Background(), "ONE@example.com")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "user-1", byEmail.ID)
}

func testMissingEntities(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.View(ctx, func(tx store.Tx) error {
		_, err := tx.GetPlace(ctx, "place-missing")
		assert.ErrorIs(t, err, store.ErrPlaceNotFound)

		_, err = tx.GetUser(ctx, "user-missing")
		assert.ErrorIs(t, err, store.ErrUserNotFound)

		_, err = tx.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, store.ErrUserNotFound)
		return nil
	})
	require.NoError(t, err)
}

func testUpdateCommitsBoth(t *testing.T, s store.Store) {
	SeedUser(t, s, "user-1", "one@example.com")
	SeedPlace(t, s, "place-1", "user-1")

	_, err := getPlace(t, s, "place-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"place-1"}, getUser(t, s, "user-1").PlaceIDs)
}

func testUpdateRollsBack(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "one@example.com")
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx store.Tx) error {
		place := domain.NewPlace("place-1", "T", "Description", "A", domain.Location{}, "", "user-1")
		if err := tx.SavePlace(ctx, place); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, "user-1")
		if err != nil {
			return err
		}
		user.AddPlace(place.ID)
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = getPlace(t, s, "place-1")
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	assert.Empty(t, getUser(t, s, "user-1").PlaceIDs)
}

func testDeletePlace(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "one@example.com")
	SeedPlace(t, s, "place-1", "user-1")

	err := s.Update(ctx, func(tx store.Tx) error {
		if err := tx.DeletePlace(ctx, "place-1"); err != nil {
			return err
		}
		user, err := tx.GetUser(ctx, "user-1")
		if err != nil {
			return err
		}
		user.RemovePlace("place-1")
		return tx.SaveUser(ctx, user)
	})
	require.NoError(t, err)

	_, err = getPlace(t, s, "place-1")
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)
	assert.Empty(t, getUser(t, s, "user-1").PlaceIDs)

	err = s.Update(ctx, func(tx store.Tx) error {
		return tx.DeletePlace(ctx, "place-1")
	})
	assert.ErrorIs(t, err, store.ErrPlaceNotFound)
}

func testEmailIsUnique(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "shared@example.com")

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.SaveUser(ctx, domain.NewUser("user-2", "Other", "Shared@Example.com"))
	})
	assert.ErrorIs(t, err, store.ErrEmailExists)

	// Re-saving the owner with the same email is fine.
	err = s.Update(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, "user-1")
		if err != nil {
			return err
		}
		user.Name = "Renamed"
		return tx.SaveUser(ctx, user)
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", getUser(t, s, "user-1").Name)
}

func testEmailChange(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "old@example.com")

	err := s.Update(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, "user-1")
		if err != nil {
			return err
		}
		user.Email = "new@example.com"
		return tx.SaveUser(ctx, user)
	})
	require.NoError(t, err)

	SeedUser(t, s, "user-2", "old@example.com")
}

func testGetPlacesByIDs(t *testing.T, s store.Store) {
	SeedUser(t, s, "user-1", "one@example.com")
	SeedPlace(t, s, "place-a", "user-1")
	SeedPlace(t, s, "place-b", "user-1")
	SeedPlace(t, s, "place-c", "user-1")

	places, err := s.GetPlacesByIDs(context.Background(), []string{"place-c", "place-missing", "place-a"})
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "place-c", places[0].ID)
	assert.Equal(t, "place-a", places[1].ID)

	places, err = s.GetPlacesByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func testListPlacesAndUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "one@example.com")
	SeedUser(t, s, "user-2", "two@example.com")
	SeedPlace(t, s, "place-1", "user-1")
	SeedPlace(t, s, "place-2", "user-2")

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	var ids []string
	for place, err := range s.ListPlaces(ctx) {
		require.NoError(t, err)
		ids = append(ids, place.ID)
	}
	assert.ElementsMatch(t, []string{"place-1", "place-2"}, ids)

	// Stopping early must not leak the read transaction.
	for range s.ListPlaces(ctx) {
		break
	}
	require.NoError(t, s.Ping(ctx))
}

// testConcurrentAppends races several transactions that each append to the
// same user's place set. Every transaction either commits with its place and
// back-reference visible, or fails with ErrConflict leaving nothing behind.
func testConcurrentAppends(t *testing.T, s store.Store) {
	ctx := context.Background()
	SeedUser(t, s, "user-1", "one@example.com")

	const workers = 8
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Go(func() {
			placeID := fmt.Sprintf("place-%d", i)
			errs[i] = s.Update(ctx, func(tx store.Tx) error {
				user, err := tx.GetUser(ctx, "user-1")
				if err != nil {
					return err
				}
				place := domain.NewPlace(placeID, "T", "Description", "A", domain.Location{}, "", "user-1")
				if err := tx.SavePlace(ctx, place); err != nil {
					return err
				}
				user.AddPlace(placeID)
				return tx.SaveUser(ctx, user)
			})
		})
	}
	wg.Wait()

	owner := getUser(t, s, "user-1")
	for i, err := range errs {
		placeID := fmt.Sprintf("place-%d", i)
		_, getErr := getPlace(t, s, placeID)

		if err == nil {
			assert.NoError(t, getErr, placeID)
			assert.Contains(t, owner.PlaceIDs, placeID)
			continue
		}

		assert.ErrorIs(t, err, store.ErrConflict)
		assert.ErrorIs(t, getErr, store.ErrPlaceNotFound, placeID)
		assert.NotContains(t, owner.PlaceIDs, placeID)
	}
}

func testClosedStore(t *testing.T, s store.Store) {
	require.NoError(t, s.Close())

	err := s.View(context.Background(), func(store.Tx) error { return nil })
	assert.ErrorIs(t, err, store.ErrClosed)

	// Closing twice is harmless.
	assert.NoError(t, s.Close())
}
