package search

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	bsearch "github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/placeshare/places-server/internal/domain"
)

// Limits for SearchParams.Limit.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrInvalidParams is returned for an unusable combination of search parameters.
var ErrInvalidParams = errors.New("search: invalid parameters")

// SearchParams configures a place search.
type SearchParams struct {
	Query string // Free text over title, address and description

	// Near and RadiusKm restrict results to a circle. Both or neither.
	Near     *domain.Location
	RadiusKm float64

	CreatorID string // Only places created by this user

	Limit  int
	Offset int
}

// normalize fills defaults and validates the parameters.
func (p *SearchParams) normalize() error {
	p.Query = strings.TrimSpace(p.Query)

	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	p.Limit = min(p.Limit, MaxLimit)
	p.Offset = max(p.Offset, 0)

	if p.Near != nil {
		if !p.Near.Valid() {
			return fmt.Errorf("%w: location %s out of range", ErrInvalidParams, p.Near)
		}
		if p.RadiusKm <= 0 {
			return fmt.Errorf("%w: radius must be positive when searching near a point", ErrInvalidParams)
		}
	}
	return nil
}

// SearchResult is a page of place hits.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single matching place.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Address    string            `json:"address"`
	CreatorID  string            `json:"creator_id"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a place search. With text, hits are ordered by relevance.
// Without text but with a point, hits are ordered by distance. Otherwise the
// newest places come first.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	if err := addSorting(req, params); err != nil {
		return nil, err
	}

	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("address")
	}
	req.Fields = []string{"title", "address", "creator_id"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["address"].(string); ok {
			h.Address = v
		}
		if v, ok := hit.Fields["creator_id"].(string); ok {
			h.CreatorID = v
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildSearchQuery combines the text, geo and creator clauses.
func buildSearchQuery(params SearchParams) query.Query {
	var must []query.Query

	if params.Query != "" {
		title := bleve.NewMatchQuery(params.Query)
		title.SetField("title")
		title.SetBoost(3.0)
		title.SetFuzziness(1)

		address := bleve.NewMatchQuery(params.Query)
		address.SetField("address")
		address.SetBoost(1.5)

		description := bleve.NewMatchQuery(params.Query)
		description.SetField("description")

		must = append(must, bleve.NewDisjunctionQuery(title, address, description))
	}

	if params.Near != nil {
		geo := bleve.NewGeoDistanceQuery(params.Near.Lng, params.Near.Lat, formatKm(params.RadiusKm))
		geo.SetField("location")
		must = append(must, geo)
	}

	if params.CreatorID != "" {
		creator := bleve.NewTermQuery(params.CreatorID)
		creator.SetField("creator_id")
		must = append(must, creator)
	}

	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

func addSorting(req *bleve.SearchRequest, params SearchParams) error {
	switch {
	case params.Query != "":
		req.SortBy([]string{"-_score", "-created_at"})
	case params.Near != nil:
		byDistance, err := bsearch.NewSortGeoDistance("location", "km", params.Near.Lng, params.Near.Lat, false)
		if err != nil {
			return fmt.Errorf("geo sort: %w", err)
		}
		req.SortByCustom(bsearch.SortOrder{byDistance})
	default:
		req.SortBy([]string{"-created_at", "_id"})
	}
	return nil
}

// formatKm renders a radius in bleve's distance syntax, e.g. "2.5km".
func formatKm(km float64) string {
	return strconv.FormatFloat(km, 'f', -1, 64) + "km"
}
