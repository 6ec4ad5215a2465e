// Package service holds the business operations of the places server.
//
// PlaceService is the only component that writes places and users together.
// Every operation that changes the place/user relationship reads and writes
// inside one store transaction, so the place's CreatorID and the owner's
// PlaceIDs become visible together or not at all.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/geocode"
	"github.com/placeshare/places-server/internal/id"
	"github.com/placeshare/places-server/internal/normalize"
	"github.com/placeshare/places-server/internal/store"
	"github.com/placeshare/places-server/internal/validation"
)

// PlaceIndexer keeps a derived index of places current.
// Index failures never fail the write that triggered them.
type PlaceIndexer interface {
	IndexPlace(ctx context.Context, place *domain.Place) error
	DeletePlace(ctx context.Context, placeID string) error
}

type noopIndexer struct{}

func (noopIndexer) IndexPlace(context.Context, *domain.Place) error { return nil }
func (noopIndexer) DeletePlace(context.Context, string) error       { return nil }

// CreatePlaceInput holds the fields of a new place.
type CreatePlaceInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"min=5,max=5000"`
	Address     string `json:"address" validate:"notblank,max=500"`
	Image       string `json:"image" validate:"max=2048"`
	CreatorID   string `json:"creator" validate:"required"`
}

func (in *CreatePlaceInput) normalize() {
	in.Title = normalize.Text(in.Title)
	in.Description = normalize.Paragraph(in.Description)
	in.Address = normalize.Text(in.Address)
}

// UpdatePlaceInput holds the mutable fields of a place.
type UpdatePlaceInput struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"min=5,max=5000"`
}

func (in *UpdatePlaceInput) normalize() {
	in.Title = normalize.Text(in.Title)
	in.Description = normalize.Paragraph(in.Description)
}

// PlaceService creates, edits and removes places while keeping each owner's
// place set consistent with the places that name it as creator.
type PlaceService struct {
	store     store.Store
	geocoder  geocode.Geocoder
	validator *validation.Validator
	indexer   PlaceIndexer
	logger    *slog.Logger
}

// NewPlaceService creates a new place service.
func NewPlaceService(st store.Store, geocoder geocode.Geocoder, validator *validation.Validator, logger *slog.Logger) *PlaceService {
	return &PlaceService{
		store:     st,
		geocoder:  geocoder,
		validator: validator,
		indexer:   noopIndexer{},
		logger:    logger,
	}
}

// SetIndexer sets the index updated after each committed write.
// This is set after construction since the search service itself needs the store.
func (s *PlaceService) SetIndexer(indexer PlaceIndexer) {
	if indexer == nil {
		indexer = noopIndexer{}
	}
	s.indexer = indexer
}

// CreatePlace geocodes the address, then saves the place and appends it to
// the creator's place set in one transaction.
//
// Fails with GEOCODING_FAILED before any store access, CREATOR_NOT_FOUND
// before the place is built, and RELATIONSHIP_WRITE_FAILED if the
// transaction does not commit.
func (s *PlaceService) CreatePlace(ctx context.Context, in CreatePlaceInput) (_ *domain.Place, err error) {
	ctx, span := tracer.Start(ctx, "PlaceService.CreatePlace",
		trace.WithAttributes(attribute.String("user.id", in.CreatorID)))
	defer func() { endSpan(span, err) }()

	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	loc, err := s.geocoder.Resolve(ctx, in.Address)
	if err != nil {
		s.logger.InfoContext(ctx, "geocoding failed", "address", in.Address, "error", err)
		return nil, domainerrors.GeocodingFailed(in.Address, err)
	}

	var place *domain.Place
	err = s.store.Update(ctx, func(tx store.Tx) error {
		creator, err := tx.GetUser(ctx, in.CreatorID)
		if errors.Is(err, store.ErrUserNotFound) {
			return domainerrors.CreatorNotFound(in.CreatorID)
		}
		if err != nil {
			return fmt.Errorf("get creator: %w", err)
		}

		placeID, err := id.Generate(id.PlacePrefix)
		if err != nil {
			return fmt.Errorf("generate place ID: %w", err)
		}
		place = domain.NewPlace(placeID, in.Title, in.Description, in.Address, loc, in.Image, creator.ID)

		if err := tx.SavePlace(ctx, place); err != nil {
			return err
		}
		creator.AddPlace(place.ID)
		return tx.SaveUser(ctx, creator)
	})
	if err != nil {
		return nil, s.txFailure(err, func(cause error) error {
			target := in.CreatorID
			if place != nil {
				target = place.ID
			}
			s.logger.ErrorContext(ctx, "create place transaction failed", "creator_id", in.CreatorID, "error", cause)
			return domainerrors.RelationshipWriteFailed(target, cause)
		})
	}

	span.SetAttributes(attribute.String("place.id", place.ID))
	s.index(ctx, place)

	s.logger.InfoContext(ctx, "place created",
		"place_id", place.ID,
		"creator_id", place.CreatorID,
		"title", place.Title,
	)

	return place, nil
}

// DeletePlace removes the place and pulls it from its owner's place set in
// one transaction. Only the creator may delete a place.
//
// Deleting an unknown id fails with PLACE_NOT_FOUND. Of two concurrent
// deletes of the same place at most one succeeds.
func (s *PlaceService) DeletePlace(ctx context.Context, placeID, actorID string) (err error) {
	ctx, span := tracer.Start(ctx, "PlaceService.DeletePlace",
		trace.WithAttributes(attribute.String("place.id", placeID), attribute.String("user.id", actorID)))
	defer func() { endSpan(span, err) }()

	err = s.store.Update(ctx, func(tx store.Tx) error {
		place, owner, err := s.placeWithOwner(ctx, tx, placeID)
		if err != nil {
			return err
		}

		if !place.IsOwnedBy(actorID) {
			return domainerrors.NotAuthorized(placeID, actorID)
		}

		if err := tx.DeletePlace(ctx, placeID); err != nil {
			return err
		}

		if owner == nil {
			s.logger.WarnContext(ctx, "deleting place whose creator does not exist",
				"place_id", placeID,
				"creator_id", place.CreatorID,
			)
			return nil
		}
		owner.RemovePlace(placeID)
		return tx.SaveUser(ctx, owner)
	})
	if err != nil {
		return s.txFailure(err, func(cause error) error {
			s.logger.ErrorContext(ctx, "delete place transaction failed", "place_id", placeID, "error", cause)
			return domainerrors.RelationshipWriteFailed(placeID, cause)
		})
	}

	if err := s.indexer.DeletePlace(ctx, placeID); err != nil {
		s.logger.WarnContext(ctx, "failed to remove place from index", "place_id", placeID, "error", err)
	}

	s.logger.InfoContext(ctx, "place deleted",
		"place_id", placeID,
		"actor_id", actorID,
	)

	return nil
}

// UpdatePlace replaces the title and description of a place. Only the
// creator may update a place.
//
// The read and the write share a transaction so an update racing a delete
// cannot bring the deleted place back.
func (s *PlaceService) UpdatePlace(ctx context.Context, placeID, actorID string, in UpdatePlaceInput) (_ *domain.Place, err error) {
	ctx, span := tracer.Start(ctx, "PlaceService.UpdatePlace",
		trace.WithAttributes(attribute.String("place.id", placeID), attribute.String("user.id", actorID)))
	defer func() { endSpan(span, err) }()

	in.normalize()
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var place *domain.Place
	err = s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		place, err = tx.GetPlace(ctx, placeID)
		if errors.Is(err, store.ErrPlaceNotFound) {
			return domainerrors.PlaceNotFound(placeID)
		}
		if err != nil {
			return fmt.Errorf("get place: %w", err)
		}

		if !place.IsOwnedBy(actorID) {
			return domainerrors.NotAuthorized(placeID, actorID)
		}

		place.Edit(in.Title, in.Description)
		return tx.SavePlace(ctx, place)
	})
	if err != nil {
		return nil, s.txFailure(err, func(cause error) error {
			s.logger.ErrorContext(ctx, "update place failed", "place_id", placeID, "error", cause)
			return domainerrors.WriteFailed(placeID, cause)
		})
	}

	s.index(ctx, place)

	s.logger.InfoContext(ctx, "place updated",
		"place_id", placeID,
		"actor_id", actorID,
	)

	return place, nil
}

// GetPlace returns a place by ID. Reads are public.
func (s *PlaceService) GetPlace(ctx context.Context, placeID string) (*domain.Place, error) {
	var place *domain.Place
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		place, err = tx.GetPlace(ctx, placeID)
		return err
	})
	if errors.Is(err, store.ErrPlaceNotFound) {
		return nil, domainerrors.PlaceNotFound(placeID)
	}
	if err != nil {
		return nil, fmt.Errorf("get place: %w", err)
	}
	return place, nil
}

// ListPlacesByUser returns the places in the user's place set, in the order
// they were added. A user without places yields an empty slice.
func (s *PlaceService) ListPlacesByUser(ctx context.Context, userID string) ([]*domain.Place, error) {
	var places []*domain.Place

	err := s.store.View(ctx, func(tx store.Tx) error {
		user, err := tx.GetUser(ctx, userID)
		if errors.Is(err, store.ErrUserNotFound) {
			return domainerrors.UserNotFound(userID)
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		places = make([]*domain.Place, 0, len(user.PlaceIDs))
		for _, placeID := range user.PlaceIDs {
			place, err := tx.GetPlace(ctx, placeID)
			if errors.Is(err, store.ErrPlaceNotFound) {
				s.logger.WarnContext(ctx, "user references missing place", "user_id", userID, "place_id", placeID)
				continue
			}
			if err != nil {
				return fmt.Errorf("get place: %w", err)
			}
			places = append(places, place)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return places, nil
}

// placeWithOwner loads a place and the user it names as creator. The owner
// is nil if that user no longer exists.
func (s *PlaceService) placeWithOwner(ctx context.Context, tx store.Tx, placeID string) (*domain.Place, *domain.User, error) {
	place, err := tx.GetPlace(ctx, placeID)
	if errors.Is(err, store.ErrPlaceNotFound) {
		return nil, nil, domainerrors.PlaceNotFound(placeID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get place: %w", err)
	}

	owner, err := tx.GetUser(ctx, place.CreatorID)
	if errors.Is(err, store.ErrUserNotFound) {
		return place, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get owner: %w", err)
	}
	return place, owner, nil
}

// txFailure passes typed failures raised inside a transaction through
// unchanged and converts everything else with wrap.
func (s *PlaceService) txFailure(err error, wrap func(cause error) error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}
	return wrap(err)
}

func (s *PlaceService) index(ctx context.Context, place *domain.Place) {
	if err := s.indexer.IndexPlace(ctx, place); err != nil {
		s.logger.WarnContext(ctx, "failed to index place", "place_id", place.ID, "error", err)
	}
}
