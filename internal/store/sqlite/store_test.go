package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.readDB.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"users", "places", "user_places"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestStore_DeletingPlaceWithoutPullingBackReferenceFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storetest.SeedUser(t, s, "user-1", "one@example.com")
	storetest.SeedPlace(t, s, "place-1", "user-1")

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.DeletePlace(ctx, "place-1")
	})
	require.Error(t, err, "deferred foreign key must reject a dangling back-reference")

	places, err := s.GetPlacesByIDs(ctx, []string{"place-1"})
	require.NoError(t, err)
	assert.Len(t, places, 1)
}

func TestStore_PlaceWithUnknownCreatorFails(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx store.Tx) error {
		return tx.SavePlace(ctx, domain.NewPlace("place-1", "T", "Description", "A", domain.Location{}, "", "user-ghost"))
	})
	require.Error(t, err)
}

func TestStore_SavePlaceKeepsCreator(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	storetest.SeedUser(t, s, "user-1", "one@example.com")
	storetest.SeedUser(t, s, "user-2", "two@example.com")
	place := storetest.SeedPlace(t, s, "place-1", "user-1")

	place.CreatorID = "user-2"
	place.Edit("Renamed", "New description")
	require.NoError(t, s.Update(ctx, func(tx store.Tx) error {
		return tx.SavePlace(ctx, place)
	}))

	places, err := s.GetPlacesByIDs(ctx, []string{"place-1"})
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Renamed", places[0].Title)
	assert.Equal(t, "user-1", places[0].CreatorID)
}
