package domain

import (
	"fmt"
	"math"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinates are within WGS84 bounds.
func (l Location) Valid() bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// String renders the location as "lat,lng".
func (l Location) String() string {
	return fmt.Sprintf("%.6f,%.6f", l.Lat, l.Lng)
}

// Place is a titled, geocoded address owned by exactly one user.
//
// ID, Image, Location and CreatorID are fixed at creation. Only Title and
// Description change afterwards, via Edit.
type Place struct {
	Record
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Location    Location `json:"location"`
	Image       string   `json:"image"`
	CreatorID   string   `json:"creator_id"`
}

// NewPlace builds a place owned by creatorID. The caller supplies a fresh id.
func NewPlace(id, title, description, address string, loc Location, image, creatorID string) *Place {
	p := &Place{
		Record:      Record{ID: id},
		Title:       title,
		Description: description,
		Address:     address,
		Location:    loc,
		Image:       image,
		CreatorID:   creatorID,
	}
	p.InitTimestamps()
	return p
}

// IsOwnedBy reports whether userID is the place's creator.
func (p *Place) IsOwnedBy(userID string) bool {
	return userID != "" && p.CreatorID == userID
}

// Edit replaces the mutable fields and bumps UpdatedAt.
func (p *Place) Edit(title, description string) {
	p.Title = title
	p.Description = description
	p.Touch()
}
