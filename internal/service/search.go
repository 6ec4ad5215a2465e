package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/placeshare/places-server/internal/domain"
	domainerrors "github.com/placeshare/places-server/internal/errors"
	"github.com/placeshare/places-server/internal/search"
	"github.com/placeshare/places-server/internal/store"
)

// SearchService bridges the place index with the store. It implements
// PlaceIndexer so PlaceService can keep the index current.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	logger *slog.Logger
}

var _ PlaceIndexer = (*SearchService)(nil)

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, st store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		logger: logger,
	}
}

// PlaceHit is a search hit with its current place record.
type PlaceHit struct {
	Place      *domain.Place     `json:"place"`
	Score      float64           `json:"score"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// PlaceSearchResult is a page of search hits.
type PlaceSearchResult struct {
	Query  string     `json:"query"`
	Total  uint64     `json:"total"`
	TookMs int64      `json:"took_ms"`
	Hits   []PlaceHit `json:"hits"`
}

// SearchPlaces runs a search and loads the matching places from the store.
// Hits for places deleted since they were indexed are dropped.
func (s *SearchService) SearchPlaces(ctx context.Context, params search.SearchParams) (_ *PlaceSearchResult, err error) {
	ctx, span := tracer.Start(ctx, "SearchService.SearchPlaces")
	defer func() { endSpan(span, err) }()

	res, err := s.index.Search(ctx, params)
	if errors.Is(err, search.ErrInvalidParams) {
		return nil, domainerrors.Validation(err.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}

	places, err := s.store.GetPlacesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load places: %w", err)
	}
	byID := make(map[string]*domain.Place, len(places))
	for _, p := range places {
		byID[p.ID] = p
	}

	result := &PlaceSearchResult{
		Query:  res.Query,
		Total:  res.Total,
		TookMs: res.TookMs,
		Hits:   make([]PlaceHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		place, ok := byID[hit.ID]
		if !ok {
			s.logger.DebugContext(ctx, "dropping stale search hit", "place_id", hit.ID)
			continue
		}
		result.Hits = append(result.Hits, PlaceHit{Place: place, Score: hit.Score, Highlights: hit.Highlights})
	}

	return result, nil
}

// IndexPlace indexes a single place.
func (s *SearchService) IndexPlace(ctx context.Context, place *domain.Place) error {
	if err := s.index.IndexDocument(search.PlaceToDocument(place)); err != nil {
		return fmt.Errorf("index place: %w", err)
	}
	s.logger.DebugContext(ctx, "indexed place", "id", place.ID, "title", place.Title)
	return nil
}

// DeletePlace removes a place from the index.
func (s *SearchService) DeletePlace(_ context.Context, placeID string) error {
	return s.index.DeleteDocument(placeID)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the index from every place in the store.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.logger.InfoContext(ctx, "starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	var docs []*search.PlaceDocument
	for place, err := range s.store.ListPlaces(ctx) {
		if err != nil {
			return fmt.Errorf("list places: %w", err)
		}
		docs = append(docs, search.PlaceToDocument(place))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index places: %w", err)
	}

	s.logger.InfoContext(ctx, "reindex complete", "places", len(docs))
	return nil
}

// ReindexIfEmpty rebuilds the index when it holds no documents, e.g. after a
// mapping version change dropped it.
func (s *SearchService) ReindexIfEmpty(ctx context.Context) error {
	count, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.ReindexAll(ctx)
}
