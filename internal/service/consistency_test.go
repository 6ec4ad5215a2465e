package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
)

func TestCheckConsistency_CleanStore(t *testing.T) {
	env := setupTestEnv(t)
	u1 := env.createUser(t, "Ada", "ada@example.com")
	env.createPlace(t, u1.ID)
	env.createPlace(t, u1.ID)

	report, err := env.places.CheckConsistency(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Consistent())
	assert.Equal(t, 2, report.PlacesChecked)
	assert.Equal(t, 1, report.UsersChecked)
	assert.NotNil(t, report.Violations)
}

func TestCheckConsistency_ReportsEveryViolationKind(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	loc := domain.Location{Lat: 1, Lng: 1}

	// Written directly to the store, bypassing PlaceService.
	err := env.store.Update(ctx, func(tx store.Tx) error {
		ada := domain.NewUser("user-ada", "Ada", "ada@example.com")
		grace := domain.NewUser("user-grace", "Grace", "grace@example.com")

		orphan := domain.NewPlace("place-a", "Orphan", "No owner here", "1 A St", loc, "", "user-gone")
		unlisted := domain.NewPlace("place-b", "Unlisted", "Owner forgot it", "2 B St", loc, "", ada.ID)
		adas := domain.NewPlace("place-c", "Ada's", "Listed by both", "3 C St", loc, "", ada.ID)

		ada.AddPlace(adas.ID)
		grace.AddPlace(adas.ID)
		grace.AddPlace("place-d")

		for _, p := range []*domain.Place{orphan, unlisted, adas} {
			if err := tx.SavePlace(ctx, p); err != nil {
				return err
			}
		}
		if err := tx.SaveUser(ctx, ada); err != nil {
			return err
		}
		return tx.SaveUser(ctx, grace)
	})
	require.NoError(t, err)

	report, err := env.places.CheckConsistency(ctx)
	require.NoError(t, err)

	assert.False(t, report.Consistent())
	assert.Equal(t, []Violation{
		{Kind: ViolationOrphanPlace, PlaceID: "place-a", UserID: "user-gone"},
		{Kind: ViolationMissingBackReference, PlaceID: "place-b", UserID: "user-ada"},
		{Kind: ViolationForeignReference, PlaceID: "place-c", UserID: "user-grace"},
		{Kind: ViolationDanglingReference, PlaceID: "place-d", UserID: "user-grace"},
	}, report.Violations)
}
