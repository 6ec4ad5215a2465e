package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/placeshare/places-server/internal/domain"
	"github.com/placeshare/places-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchPlaces",
		Method:      http.MethodGet,
		Path:        "/api/v1/places/search",
		Summary:     "Search places",
		Description: "Full-text search over titles, addresses and descriptions, optionally limited to a radius",
		Tags:        []string{"Places", "Search"},
	}, s.handleSearchPlaces)
}

// SearchPlacesInput contains search query parameters.
type SearchPlacesInput struct {
	Query    string  `query:"q" maxLength:"200" doc:"Search text"`
	Lat      float64 `query:"lat" minimum:"-90" maximum:"90" doc:"Latitude of the search centre"`
	Lng      float64 `query:"lng" minimum:"-180" maximum:"180" doc:"Longitude of the search centre"`
	RadiusKm float64 `query:"radius_km" minimum:"0" maximum:"20000" doc:"Search radius in kilometres; 0 disables the distance filter"`
	Creator  string  `query:"creator" doc:"Only places created by this user"`
	Limit    int     `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset   int     `query:"offset" minimum:"0" doc:"Results to skip"`
}

// SearchHitResponse is one search hit.
type SearchHitResponse struct {
	Place      PlaceResponse     `json:"place" doc:"Matching place"`
	Score      float64           `json:"score" doc:"Relevance score"`
	Highlights map[string]string `json:"highlights,omitempty" doc:"Highlighted fragments by field"`
}

// SearchPlacesResponse contains search results.
type SearchPlacesResponse struct {
	Query  string              `json:"query" doc:"Normalized query"`
	Total  uint64              `json:"total" doc:"Total matching places"`
	TookMs int64               `json:"took_ms" doc:"Search time in milliseconds"`
	Hits   []SearchHitResponse `json:"hits" doc:"Matching places"`
}

// SearchPlacesOutput wraps the search response for Huma.
type SearchPlacesOutput struct {
	Body SearchPlacesResponse
}

func (s *Server) handleSearchPlaces(ctx context.Context, input *SearchPlacesInput) (*SearchPlacesOutput, error) {
	if s.services.Search == nil {
		return nil, huma.Error503ServiceUnavailable("Search is not available")
	}

	params := search.SearchParams{
		Query:     input.Query,
		CreatorID: input.Creator,
		Limit:     input.Limit,
		Offset:    input.Offset,
	}
	if input.RadiusKm > 0 {
		params.Near = &domain.Location{Lat: input.Lat, Lng: input.Lng}
		params.RadiusKm = input.RadiusKm
	}

	result, err := s.services.Search.SearchPlaces(ctx, params)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHitResponse, len(result.Hits))
	for i, h := range result.Hits {
		hits[i] = SearchHitResponse{
			Place:      newPlaceResponse(h.Place),
			Score:      h.Score,
			Highlights: h.Highlights,
		}
	}

	return &SearchPlacesOutput{
		Body: SearchPlacesResponse{
			Query:  result.Query,
			Total:  result.Total,
			TookMs: result.TookMs,
			Hits:   hits,
		},
	}, nil
}
