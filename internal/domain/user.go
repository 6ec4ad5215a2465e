package domain

import "slices"

// User owns places. PlaceIDs mirrors the CreatorID of every place the user
// created and is kept in step with it by the place service.
type User struct {
	Record
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	PlaceIDs []string `json:"place_ids"`
}

// NewUser builds a user with an empty place set.
func NewUser(id, name, email string) *User {
	u := &User{
		Record:   Record{ID: id},
		Name:     name,
		Email:    email,
		PlaceIDs: []string{},
	}
	u.InitTimestamps()
	return u
}

// OwnsPlace reports whether placeID is in the user's place set.
func (u *User) OwnsPlace(placeID string) bool {
	return slices.Contains(u.PlaceIDs, placeID)
}

// AddPlace appends placeID to the place set. Adding an id already present
// is a no-op and returns false.
func (u *User) AddPlace(placeID string) bool {
	if u.OwnsPlace(placeID) {
		return false
	}
	u.PlaceIDs = append(u.PlaceIDs, placeID)
	u.Touch()
	return true
}

// RemovePlace pulls every occurrence of placeID from the place set.
// Returns false if the id was not present.
func (u *User) RemovePlace(placeID string) bool {
	before := len(u.PlaceIDs)
	u.PlaceIDs = slices.DeleteFunc(u.PlaceIDs, func(id string) bool {
		return id == placeID
	})
	if len(u.PlaceIDs) == before {
		return false
	}
	u.Touch()
	return true
}
