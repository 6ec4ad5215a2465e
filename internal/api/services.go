package api

import "github.com/placeshare/places-server/internal/service"

// Services groups the business services used by the API server.
type Services struct {
	Places *service.PlaceService
	Users  *service.UserService
	Search *service.SearchService // Optional; search routes return 503 without it
}
