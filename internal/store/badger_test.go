package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/store/storetest"
)

func setupTestStore(t *testing.T) *store.BadgerStore {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "badger"), nil)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s
}

func TestBadgerStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return setupTestStore(t)
	})
}

func TestBadgerStore_ConflictingWritersSurfaceErrConflict(t *testing.T) {
	s := setupTestStore(t)
	defer s.Close()

	ctx := context.Background()
	storetest.SeedUser(t, s, "user-1", "one@example.com")

	// The outer transaction reads the user, then an inner transaction commits
	// a change to the same key before the outer one commits.
	err := s.Update(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, "user-1")
		require.NoError(t, err)

		inner := s.Update(ctx, func(tx store.Tx) error {
			other, err := tx.GetUser(ctx, "user-1")
			if err != nil {
				return err
			}
			other.AddPlace("place-inner")
			return tx.SaveUser(ctx, other)
		})
		require.NoError(t, inner)

		user.AddPlace("place-outer")
		return tx.SaveUser(ctx, user)
	})
	require.ErrorIs(t, err, store.ErrConflict)

	var owner []string
	require.NoError(t, s.View(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, "user-1")
		owner = user.PlaceIDs
		return err
	}))
	assert.Equal(t, []string{"place-inner"}, owner)
}

func TestBadgerStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")

	s, err := store.New(path, nil)
	require.NoError(t, err)
	storetest.SeedUser(t, s, "user-1", "one@example.com")
	storetest.SeedPlace(t, s, "place-1", "user-1")
	require.NoError(t, s.Close())

	s, err = store.New(path, nil)
	require.NoError(t, err)
	defer s.Close()

	places, err := s.GetPlacesByIDs(context.Background(), []string{"place-1"})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "user-1", places[0].CreatorID)
}
