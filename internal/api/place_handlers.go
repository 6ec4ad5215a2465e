package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/service"
)

func (s *Server) registerPlaceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getPlace",
		Method:      http.MethodGet,
		Path:        "/api/v1/places/{id}",
		Summary:     "Get place",
		Description: "Returns a place by ID",
		Tags:        []string{"Places"},
	}, s.handleGetPlace)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUserPlaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/places/user/{id}",
		Summary:     "List user places",
		Description: "Returns the places created by a user, oldest first",
		Tags:        []string{"Places"},
	}, s.handleListUserPlaces)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createPlace",
		Method:        http.MethodPost,
		Path:          "/api/v1/places",
		Summary:       "Create place",
		Description:   "Geocodes the address and creates a place owned by the caller",
		Tags:          []string{"Places"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreatePlace)

	huma.Register(s.api, huma.Operation{
		OperationID: "updatePlace",
		Method:      http.MethodPatch,
		Path:        "/api/v1/places/{id}",
		Summary:     "Update place",
		Description: "Updates the title and description of a place owned by the caller",
		Tags:        []string{"Places"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdatePlace)

	huma.Register(s.api, huma.Operation{
		OperationID: "deletePlace",
		Method:      http.MethodDelete,
		Path:        "/api/v1/places/{id}",
		Summary:     "Delete place",
		Description: "Deletes a place owned by the caller",
		Tags:        []string{"Places"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeletePlace)
}

// === DTOs ===

// LocationResponse is a coordinate pair.
type LocationResponse struct {
	Lat float64 `json:"lat" doc:"Latitude"`
	Lng float64 `json:"lng" doc:"Longitude"`
}

// PlaceResponse contains place data in API responses.
type PlaceResponse struct {
	ID          string           `json:"id" doc:"Place ID"`
	Title       string           `json:"title" doc:"Place title"`
	Description string           `json:"description" doc:"Place description"`
	Address     string           `json:"address" doc:"Street address as entered"`
	Location    LocationResponse `json:"location" doc:"Geocoded coordinates"`
	Image       string           `json:"image,omitempty" doc:"Image URL"`
	Creator     string           `json:"creator" doc:"ID of the user who created the place"`
	CreatedAt   time.Time        `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time        `json:"updated_at" doc:"Last update time"`
}

func newPlaceResponse(p *domain.Place) PlaceResponse {
	return PlaceResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		Location:    LocationResponse{Lat: p.Location.Lat, Lng: p.Location.Lng},
		Image:       p.Image,
		Creator:     p.CreatorID,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// GetPlaceInput contains parameters for getting a place.
type GetPlaceInput struct {
	ID string `path:"id" doc:"Place ID"`
}

// PlaceEnvelope is the data payload of single-place responses.
type PlaceEnvelope struct {
	Place PlaceResponse `json:"place" doc:"The place"`
}

// PlaceOutput wraps the place response for Huma.
type PlaceOutput struct {
	Body PlaceEnvelope
}

// ListUserPlacesInput contains parameters for listing a user's places.
type ListUserPlacesInput struct {
	ID string `path:"id" doc:"User ID"`
}

// PlacesResponse contains a list of places.
type PlacesResponse struct {
	Places []PlaceResponse `json:"places" doc:"Places, oldest first"`
}

// PlacesOutput wraps the place list response for Huma.
type PlacesOutput struct {
	Body PlacesResponse
}

// CreatePlaceRequest is the request body for creating a place.
type CreatePlaceRequest struct {
	Title       string `json:"title" minLength:"1" maxLength:"200" doc:"Place title"`
	Description string `json:"description" minLength:"5" maxLength:"5000" doc:"Place description"`
	Address     string `json:"address" minLength:"1" maxLength:"500" doc:"Street address to geocode"`
	Image       string `json:"image,omitempty" maxLength:"2048" doc:"Image URL"`
	Creator     string `json:"creator,omitempty" doc:"Creator user ID; must be the caller when given"`
}

// CreatePlaceInput wraps the create place request for Huma.
type CreatePlaceInput struct {
	Body CreatePlaceRequest
}

// UpdatePlaceRequest is the request body for updating a place.
type UpdatePlaceRequest struct {
	Title       string `json:"title" minLength:"1" maxLength:"200" doc:"Place title"`
	Description string `json:"description" minLength:"5" maxLength:"5000" doc:"Place description"`
}

// UpdatePlaceInput wraps the update place request for Huma.
type UpdatePlaceInput struct {
	ID   string `path:"id" doc:"Place ID"`
	Body UpdatePlaceRequest
}

// DeletePlaceInput contains parameters for deleting a place.
type DeletePlaceInput struct {
	ID string `path:"id" doc:"Place ID"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" doc:"Human-readable result"`
}

// MessageOutput wraps a message response for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleGetPlace(ctx context.Context, input *GetPlaceInput) (*PlaceOutput, error) {
	place, err := s.services.Places.GetPlace(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &PlaceOutput{Body: PlaceEnvelope{Place: newPlaceResponse(place)}}, nil
}

func (s *Server) handleListUserPlaces(ctx context.Context, input *ListUserPlacesInput) (*PlacesOutput, error) {
	places, err := s.services.Places.ListPlacesByUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	resp := make([]PlaceResponse, len(places))
	for i, p := range places {
		resp[i] = newPlaceResponse(p)
	}

	return &PlacesOutput{Body: PlacesResponse{Places: resp}}, nil
}

func (s *Server) handleCreatePlace(ctx context.Context, input *CreatePlaceInput) (*PlaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	creatorID := input.Body.Creator
	if creatorID == "" {
		creatorID = userID
	}
	if creatorID != userID {
		return nil, domainerrors.NotAuthorized("", userID)
	}

	place, err := s.services.Places.CreatePlace(ctx, service.CreatePlaceInput{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Address:     input.Body.Address,
		Image:       input.Body.Image,
		CreatorID:   creatorID,
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOutput{Body: PlaceEnvelope{Place: newPlaceResponse(place)}}, nil
}

func (s *Server) handleUpdatePlace(ctx context.Context, input *UpdatePlaceInput) (*PlaceOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	place, err := s.services.Places.UpdatePlace(ctx, input.ID, userID, service.UpdatePlaceInput{
		Title:       input.Body.Title,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}

	return &PlaceOutput{Body: PlaceEnvelope{Place: newPlaceResponse(place)}}, nil
}

func (s *Server) handleDeletePlace(ctx context.Context, input *DeletePlaceInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Places.DeletePlace(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Deleted place."}}, nil
}
