package search

import "github.com/placeshare/places-server/internal/domain"

// PlaceDocument is the indexed form of a place.
type PlaceDocument struct {
	ID          string
	Title       string
	Description string
	Address     string
	CreatorID   string
	Location    domain.Location
	CreatedAt   int64 // Unix milliseconds
}

// PlaceToDocument converts a place to its search document.
func PlaceToDocument(p *domain.Place) *PlaceDocument {
	return &PlaceDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Address:     p.Address,
		CreatorID:   p.CreatorID,
		Location:    p.Location,
		CreatedAt:   p.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *PlaceDocument) ToMap() map[string]any {
	return map[string]any{
		"title":       d.Title,
		"description": d.Description,
		"address":     d.Address,
		"creator_id":  d.CreatorID,
		"location": map[string]any{
			"lat": d.Location.Lat,
			"lon": d.Location.Lng,
		},
		"created_at": float64(d.CreatedAt),
	}
}
