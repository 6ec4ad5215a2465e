package api

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/users/{id}",
		Summary:     "Get user",
		Description: "Returns a user and the IDs of the places they created",
		Tags:        []string{"Users"},
	}, s.handleGetUser)
}

// GetUserInput contains parameters for getting a user.
type GetUserInput struct {
	ID string `path:"id" doc:"User ID"`
}

// UserResponse contains public user data. Email is not exposed.
type UserResponse struct {
	ID        string    `json:"id" doc:"User ID"`
	Name      string    `json:"name" doc:"Display name"`
	PlaceIDs  []string  `json:"place_ids" doc:"IDs of places created by the user"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
}

// UserEnvelope is the data payload of user responses.
type UserEnvelope struct {
	User UserResponse `json:"user" doc:"The user"`
}

// UserOutput wraps the user response for Huma.
type UserOutput struct {
	Body UserEnvelope
}

func (s *Server) handleGetUser(ctx context.Context, input *GetUserInput) (*UserOutput, error) {
	user, err := s.services.Users.GetUser(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	placeIDs := slices.Clone(user.PlaceIDs)
	if placeIDs == nil {
		placeIDs = []string{}
	}

	return &UserOutput{
		Body: UserEnvelope{
			User: UserResponse{
				ID:        user.ID,
				Name:      user.Name,
				PlaceIDs:  placeIDs,
				CreatedAt: user.CreatedAt,
			},
		},
	}, nil
}
