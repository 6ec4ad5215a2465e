package service

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/store"
)

// ViolationKind names a broken place/user relationship.
type ViolationKind string

const (
	// ViolationOrphanPlace is a place whose creator does not exist.
	ViolationOrphanPlace ViolationKind = "orphan_place"
	// ViolationMissingBackReference is a place absent from its creator's place set.
	ViolationMissingBackReference ViolationKind = "missing_back_reference"
	// ViolationDanglingReference is a place set entry naming a missing place.
	ViolationDanglingReference ViolationKind = "dangling_reference"
	// ViolationForeignReference is a place set entry naming another user's place.
	ViolationForeignReference ViolationKind = "foreign_reference"
)

// Violation is one broken relationship.
type Violation struct {
	Kind    ViolationKind `json:"kind"`
	PlaceID string        `json:"place_id"`
	UserID  string        `json:"user_id"`
}

// ConsistencyReport is the result of CheckConsistency.
type ConsistencyReport struct {
	PlacesChecked int         `json:"places_checked"`
	UsersChecked  int         `json:"users_checked"`
	Violations    []Violation `json:"violations"`
}

// Consistent reports whether no violations were found.
func (r *ConsistencyReport) Consistent() bool {
	return len(r.Violations) == 0
}

// CheckConsistency audits every place and user in a single snapshot and
// reports each place whose creator is missing or does not list it, and each
// place set entry that does not point back at its user.
func (s *PlaceService) CheckConsistency(ctx context.Context) (_ *ConsistencyReport, err error) {
	ctx, span := tracer.Start(ctx, "PlaceService.CheckConsistency")
	defer func() { endSpan(span, err) }()

	places := make(map[string]*domain.Place)
	users := make(map[string]*domain.User)

	err = s.store.View(ctx, func(tx store.Tx) error {
		for place, err := range tx.Places(ctx) {
			if err != nil {
				return err
			}
			places[place.ID] = place
		}
		for user, err := range tx.Users(ctx) {
			if err != nil {
				return err
			}
			users[user.ID] = user
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan store: %w", err)
	}

	report := &ConsistencyReport{
		PlacesChecked: len(places),
		UsersChecked:  len(users),
		Violations:    []Violation{},
	}

	for _, place := range places {
		creator, ok := users[place.CreatorID]
		switch {
		case !ok:
			report.Violations = append(report.Violations, Violation{Kind: ViolationOrphanPlace, PlaceID: place.ID, UserID: place.CreatorID})
		case !creator.OwnsPlace(place.ID):
			report.Violations = append(report.Violations, Violation{Kind: ViolationMissingBackReference, PlaceID: place.ID, UserID: creator.ID})
		}
	}

	for _, user := range users {
		for _, placeID := range user.PlaceIDs {
			place, ok := places[placeID]
			switch {
			case !ok:
				report.Violations = append(report.Violations, Violation{Kind: ViolationDanglingReference, PlaceID: placeID, UserID: user.ID})
			case place.CreatorID != user.ID:
				report.Violations = append(report.Violations, Violation{Kind: ViolationForeignReference, PlaceID: placeID, UserID: user.ID})
			}
		}
	}

	slices.SortFunc(report.Violations, func(a, b Violation) int {
		if c := strings.Compare(a.PlaceID, b.PlaceID); c != 0 {
			return c
		}
		return strings.Compare(string(a.Kind), string(b.Kind))
	})

	if !report.Consistent() {
		s.logger.WarnContext(ctx, "place/user relationship violations found", "count", len(report.Violations))
	}

	return report, nil
}

