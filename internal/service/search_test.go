package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/search"
)

func setupSearchService(t *testing.T, env *testEnv) *SearchService {
	t.Helper()

	idx, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	svc := NewSearchService(idx, env.store, slog.New(slog.DiscardHandler))
	env.places.SetIndexer(svc)
	return svc
}

func TestSearchService_FindsCreatedPlace(t *testing.T) {
	env := setupTestEnv(t)
	searchSvc := setupSearchService(t, env)
	u1 := env.createUser(t, "Ada", "ada@example.com")
	place := env.createPlace(t, u1.ID)

	res, err := searchSvc.SearchPlaces(context.Background(), search.SearchParams{Query: "empire"})
	require.NoError(t, err)

	require.Len(t, res.Hits, 1)
	assert.Equal(t, place.ID, res.Hits[0].Place.ID)
	assert.Equal(t, u1.ID, res.Hits[0].Place.CreatorID)
}

func TestSearchService_DeletedPlaceLeavesIndex(t *testing.T) {
	env := setupTestEnv(t)
	searchSvc := setupSearchService(t, env)
	u1 := env.createUser(t, "Ada", "ada@example.com")
	place := env.createPlace(t, u1.ID)

	require.NoError(t, env.places.DeletePlace(context.Background(), place.ID, u1.ID))

	count, err := searchSvc.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSearchService_DropsStaleHits(t *testing.T) {
	env := setupTestEnv(t)
	searchSvc := setupSearchService(t, env)

	ghost := domain.NewPlace("place-ghost", "Empire Diner", "Indexed but never stored", "210 10th Ave", empireStateLocation, "", "user-x")
	require.NoError(t, searchSvc.IndexPlace(context.Background(), ghost))

	res, err := searchSvc.SearchPlaces(context.Background(), search.SearchParams{Query: "empire"})
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestSearchService_InvalidParams(t *testing.T) {
	env := setupTestEnv(t)
	searchSvc := setupSearchService(t, env)

	_, err := searchSvc.SearchPlaces(context.Background(), search.SearchParams{Near: &empireStateLocation})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestSearchService_ReindexIfEmpty(t *testing.T) {
	env := setupTestEnv(t)
	u1 := env.createUser(t, "Ada", "ada@example.com")
	env.createPlace(t, u1.ID)
	env.createPlace(t, u1.ID)

	// Index attached after the writes, so it starts empty.
	searchSvc := setupSearchService(t, env)
	require.NoError(t, searchSvc.ReindexIfEmpty(context.Background()))

	count, err := searchSvc.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}
